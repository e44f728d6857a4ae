package presentations

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/princekumarofficial/zcreens-service/internal/http/middleware"
	presentationService "github.com/princekumarofficial/zcreens-service/internal/services/presentations"
	"github.com/princekumarofficial/zcreens-service/internal/services/quota"
	"github.com/princekumarofficial/zcreens-service/internal/types"
	"github.com/princekumarofficial/zcreens-service/internal/utils/response"
)

// Summary is a presentation as listed on the dashboard.
type Summary struct {
	ID           string `json:"id"`
	ScreenCode   string `json:"screenCode"`
	Title        string `json:"title"`
	FileName     string `json:"fileName"`
	FileType     string `json:"fileType"`
	FileSize     string `json:"fileSize"`
	TotalSlides  int    `json:"totalSlides"`
	SlideshowURL string `json:"slideshowUrl"`
	HasOriginal  bool   `json:"hasOriginal"`
	CreatedAt    string `json:"createdAt"`
	ExpiresAt    string `json:"expiresAt"`
}

func summarize(p types.Presentation) Summary {
	return Summary{
		ID:           p.ID,
		ScreenCode:   p.ScreenCode,
		Title:        p.Title(),
		FileName:     p.FileName,
		FileType:     p.FileType,
		FileSize:     quota.FormatMB(quota.BytesToMB(p.FileSize)),
		TotalSlides:  p.TotalSlides,
		SlideshowURL: "/slideshow/" + p.ScreenCode,
		HasOriginal:  p.ArchiveKey != "",
		CreatedAt:    p.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:    p.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// WriteLookupError maps presentation lookup failures to responses.
func WriteLookupError(w http.ResponseWriter, code string, err error) {
	switch {
	case errors.Is(err, presentationService.ErrNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("Presentation not found")))
	case errors.Is(err, presentationService.ErrExpired):
		response.WriteJSON(w, http.StatusGone, response.GeneralError(errors.New("This presentation has expired. Please upload a new one.")))
	case errors.Is(err, presentationService.ErrForbidden):
		response.WriteJSON(w, http.StatusForbidden, response.GeneralError(err))
	default:
		slog.Error("Presentation lookup failed", slog.String("screen_code", code), slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("Internal server error")))
	}
}

// Resolve returns the slides behind a screen code
// @Summary Resolve a screen code
// @Description Case-insensitive lookup of a presentation by its screen code. Expired presentations are removed and answered with 410.
// @Tags presentations
// @Produce json
// @Param code path string true "Screen code"
// @Success 200 {object} types.PresentationView
// @Failure 404 {object} response.Response "Presentation not found"
// @Failure 410 {object} response.Response "Presentation expired"
// @Failure 429 {object} response.Response "Rate limit exceeded"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /presentation/{code} [get]
func Resolve(svc *presentationService.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.PathValue("code")
		p, err := svc.Resolve(r.Context(), code)
		if err != nil {
			WriteLookupError(w, code, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, p.View())
	}
}

// List returns the caller's live presentations
// @Summary List my presentations
// @Tags presentations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} Summary
// @Failure 401 {object} response.Response "Unauthorized"
// @Router /presentations [get]
func List(svc *presentationService.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := middleware.GetAccountFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(middleware.ErrNoCredentials))
			return
		}

		list, err := svc.ListForAccount(r.Context(), account.ID)
		if err != nil {
			slog.Error("Failed to list presentations", slog.String("user_id", account.ID), slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("Internal server error")))
			return
		}

		out := make([]Summary, 0, len(list))
		for _, p := range list {
			out = append(out, summarize(p))
		}
		response.WriteJSON(w, http.StatusOK, out)
	}
}

// Delete removes a presentation and returns its size to the owner's quota.
// Owners delete their own; admins may delete any.
// @Summary Delete a presentation
// @Tags presentations
// @Produce json
// @Security BearerAuth
// @Param code path string true "Screen code"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response "Not the owner"
// @Failure 404 {object} response.Response "Presentation not found"
// @Router /presentations/{code} [delete]
// @Router /admin/presentations/{code} [delete]
func Delete(svc *presentationService.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := middleware.GetAccountFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(middleware.ErrNoCredentials))
			return
		}

		code := r.PathValue("code")
		p, err := svc.DeleteOwned(r.Context(), account, code)
		if err != nil {
			WriteLookupError(w, code, err)
			return
		}
		slog.Info("Presentation deleted",
			slog.String("screen_code", p.ScreenCode),
			slog.String("deleted_by", account.ID))

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Presentation deleted successfully", summarize(*p)))
	}
}
