package upload

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/princekumarofficial/zcreens-service/internal/http/middleware"
	"github.com/princekumarofficial/zcreens-service/internal/services/quota"
	"github.com/princekumarofficial/zcreens-service/internal/services/slides"
	uploadService "github.com/princekumarofficial/zcreens-service/internal/services/upload"
	"github.com/princekumarofficial/zcreens-service/internal/utils/response"
)

// FormField is the multipart field carrying the document.
const FormField = "file"

// multipart overhead allowed on top of the file itself
const formOverhead = 1 << 20

// StorageDetails describes why an upload did not fit the account's quota.
type StorageDetails struct {
	FileSize         string `json:"fileSize"`
	StorageUsed      string `json:"storageUsed"`
	StorageLimit     string `json:"storageLimit"`
	AvailableStorage string `json:"availableStorage"`
	Plan             string `json:"plan"`
	Suggestion       string `json:"suggestion"`
}

// Health describes the upload endpoint
type Health struct {
	Status           string   `json:"status"`
	Message          string   `json:"message"`
	SupportedFormats []string `json:"supportedFormats"`
	SupportedTypes   []string `json:"supportedTypes"`
	MaxFileSize      int64    `json:"maxFileSize"`
	Timestamp        string   `json:"timestamp"`
	Note             string   `json:"note"`
}

// Upload converts a document into a presentation
// @Summary Upload a document
// @Description Converts a PDF or image into slides and returns the screen code that plays them
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "PDF, PNG, JPEG or GIF"
// @Success 200 {object} uploadService.Result
// @Failure 400 {object} response.Response "Missing file or unsupported type"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 413 {object} response.Response "File too large or insufficient storage"
// @Failure 500 {object} response.Response "Processing failed"
// @Failure 501 {object} response.Response "PowerPoint not implemented"
// @Router /upload [post]
func Upload(svc *uploadService.Service, maxFileSize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := middleware.GetAccountFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(uploadService.ErrUnauthorized))
			return
		}

		if maxFileSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxFileSize+formOverhead)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeTooLarge(w, maxFileSize)
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.DetailedError("Invalid form data",
				"Unable to parse uploaded file. The file may be corrupted or too large.", nil))
			return
		}
		defer r.MultipartForm.RemoveAll()

		f, header, err := r.FormFile(FormField)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.DetailedError("No file provided",
				"Please select a file to upload", nil))
			return
		}
		defer f.Close()

		mimeType := header.Header.Get("Content-Type")
		if err := slides.CheckMimeType(mimeType); err != nil {
			writeUploadError(w, err)
			return
		}

		data, err := uploadService.ReadFile(f, maxFileSize)
		if err != nil {
			if errors.Is(err, uploadService.ErrFileTooLarge) {
				writeTooLarge(w, maxFileSize)
				return
			}
			slog.Error("Failed to read uploaded file", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.DetailedError("File processing error",
				"Unable to read file data. The file may be corrupted.", nil))
			return
		}

		result, err := svc.Upload(r.Context(), account, uploadService.File{
			Name:     header.Filename,
			MimeType: mimeType,
			Data:     data,
		})
		if err != nil {
			writeUploadError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK(result.Message, result))
	}
}

func writeTooLarge(w http.ResponseWriter, limit int64) {
	response.WriteJSON(w, http.StatusRequestEntityTooLarge, response.DetailedError("File too large",
		fmt.Sprintf("The file exceeds the %s upload limit. Try compressing your PDF or splitting it into smaller files.",
			quota.FormatMB(quota.BytesToMB(limit))), nil))
}

func writeUploadError(w http.ResponseWriter, err error) {
	var (
		unsupported  *slides.UnsupportedFormatError
		insufficient *quota.InsufficientStorageError
		failed       *uploadService.ProcessingFailedError
	)

	switch {
	case errors.Is(err, uploadService.ErrUnauthorized):
		response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(err))

	case errors.As(err, &unsupported) && unsupported.NotImplemented:
		response.WriteJSON(w, http.StatusNotImplemented, response.DetailedError("PowerPoint processing not implemented",
			"PowerPoint file processing is coming soon. Please use PDF or image files for now.", nil))

	case errors.As(err, &unsupported):
		response.WriteJSON(w, http.StatusBadRequest, response.DetailedError("Unsupported file type",
			fmt.Sprintf("File type %s is not supported. Please upload PDF or image files.", unsupported.MimeType),
			map[string]interface{}{"supportedTypes": slides.SupportedTypes()}))

	case errors.As(err, &insufficient):
		response.WriteJSON(w, http.StatusRequestEntityTooLarge, response.DetailedError("Insufficient storage space",
			fmt.Sprintf("File size (%s) exceeds your available storage (%s).",
				quota.FormatMB(insufficient.FileSizeMB), quota.FormatMB(insufficient.AvailableMB)),
			map[string]interface{}{"storageInfo": StorageDetails{
				FileSize:         quota.FormatMB(insufficient.FileSizeMB),
				StorageUsed:      quota.FormatMB(insufficient.StorageUsedMB),
				StorageLimit:     quota.FormatMB(insufficient.StorageLimitMB),
				AvailableStorage: quota.FormatMB(insufficient.AvailableMB),
				Plan:             string(insufficient.Plan),
				Suggestion:       insufficient.Suggestion(),
			}}))

	case errors.As(err, &failed):
		slog.Warn("Upload processing failed", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.DetailedError("File processing failed", failed.Err.Error(), nil))

	default:
		slog.Error("Unexpected upload failure", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.DetailedError("Internal server error",
			"An unexpected error occurred while processing your upload", nil))
	}
}

// Status reports that the upload endpoint is up
// @Summary Upload endpoint health
// @Tags upload
// @Produce json
// @Success 200 {object} Health
// @Router /upload [get]
func Status(maxFileSize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, Health{
			Status:           "OK",
			Message:          "Upload API is running",
			SupportedFormats: []string{"PDF", "PNG", "JPEG", "GIF"},
			SupportedTypes:   slides.SupportedTypes(),
			MaxFileSize:      maxFileSize,
			Timestamp:        time.Now().UTC().Format(time.RFC3339),
			Note:             "Authentication required for file uploads",
		})
	}
}
