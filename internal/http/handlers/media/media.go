package media

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/princekumarofficial/zcreens-service/internal/http/handlers/presentations"
	"github.com/princekumarofficial/zcreens-service/internal/http/middleware"
	mediaService "github.com/princekumarofficial/zcreens-service/internal/services/media"
	presentationService "github.com/princekumarofficial/zcreens-service/internal/services/presentations"
	"github.com/princekumarofficial/zcreens-service/internal/types"
	"github.com/princekumarofficial/zcreens-service/internal/utils/response"
)

// Originals is the slice of the media service these handlers use.
type Originals interface {
	PresignedDownload(ctx context.Context, objectKey, fileName string) (*mediaService.DownloadInfo, error)
	GetObjectInfo(ctx context.Context, objectKey string) (minio.ObjectInfo, error)
}

type MediaHandlers struct {
	originals     Originals
	presentations *presentationService.Service
}

type OriginalInfoResponse struct {
	ScreenCode  string    `json:"screen_code"`
	ObjectKey   string    `json:"object_key"`
	FileName    string    `json:"file_name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// NewMediaHandlers creates a new media handlers instance
func NewMediaHandlers(originals Originals, presentations *presentationService.Service) *MediaHandlers {
	return &MediaHandlers{
		originals:     originals,
		presentations: presentations,
	}
}

// ownedPresentation loads the presentation named in the path if the caller
// owns it (or is an admin) and it still has an archived original.
func (h *MediaHandlers) ownedPresentation(w http.ResponseWriter, r *http.Request) (*types.Presentation, bool) {
	account, ok := middleware.GetAccountFromContext(r.Context())
	if !ok {
		response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
		return nil, false
	}

	code := r.PathValue("code")
	p, err := h.presentations.Resolve(r.Context(), code)
	if err != nil {
		presentations.WriteLookupError(w, code, err)
		return nil, false
	}
	if p.UserID != account.ID && !account.IsAdmin() {
		response.WriteJSON(w, http.StatusForbidden, response.GeneralError(presentationService.ErrForbidden))
		return nil, false
	}
	if p.ArchiveKey == "" {
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("original file not archived")))
		return nil, false
	}
	return p, true
}

// DownloadOriginal generates a presigned URL for the uploaded file
// @Summary Download the original upload
// @Description Generate a presigned URL that downloads the file a presentation was made from
// @Tags media
// @Produce json
// @Param code path string true "Screen code"
// @Success 200 {object} mediaService.DownloadInfo "Download URL generated successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Not the owner"
// @Failure 404 {object} response.Response "Presentation or original not found"
// @Failure 410 {object} response.Response "Presentation expired"
// @Security BearerAuth
// @Router /presentations/{code}/original [get]
func (h *MediaHandlers) DownloadOriginal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := h.ownedPresentation(w, r)
		if !ok {
			return
		}

		info, err := h.originals.PresignedDownload(r.Context(), p.ArchiveKey, p.FileName)
		if err != nil {
			slog.Error("Failed to presign original download",
				slog.String("screen_code", p.ScreenCode),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate download URL")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Download URL generated successfully", info))
	}
}

// OriginalInfo retrieves information about the archived upload
// @Summary Original upload information
// @Tags media
// @Produce json
// @Param code path string true "Screen code"
// @Success 200 {object} OriginalInfoResponse
// @Failure 404 {object} response.Response "Original not found"
// @Security BearerAuth
// @Router /presentations/{code}/original/info [get]
func (h *MediaHandlers) OriginalInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := h.ownedPresentation(w, r)
		if !ok {
			return
		}

		objInfo, err := h.originals.GetObjectInfo(r.Context(), p.ArchiveKey)
		if err != nil {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("original file not found")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Original information retrieved successfully", OriginalInfoResponse{
			ScreenCode:  p.ScreenCode,
			ObjectKey:   p.ArchiveKey,
			FileName:    p.FileName,
			Size:        objInfo.Size,
			ContentType: objInfo.ContentType,
			UploadedAt:  objInfo.LastModified,
		}))
	}
}
