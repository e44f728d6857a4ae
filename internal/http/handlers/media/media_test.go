package media

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/zcreens-service/internal/http/middleware"
	mediaService "github.com/princekumarofficial/zcreens-service/internal/services/media"
	presentationService "github.com/princekumarofficial/zcreens-service/internal/services/presentations"
	"github.com/princekumarofficial/zcreens-service/internal/storage/memory"
	"github.com/princekumarofficial/zcreens-service/internal/types"
	"github.com/princekumarofficial/zcreens-service/internal/types/users"
)

type fakeOriginals struct {
	objects map[string]minio.ObjectInfo
}

func (f *fakeOriginals) PresignedDownload(_ context.Context, key, fileName string) (*mediaService.DownloadInfo, error) {
	if _, ok := f.objects[key]; !ok {
		return nil, errors.New("no such key")
	}
	return &mediaService.DownloadInfo{ObjectKey: key, DownloadURL: "https://minio.local/" + key + "?name=" + fileName, ExpiresAt: 42}, nil
}

func (f *fakeOriginals) GetObjectInfo(_ context.Context, key string) (minio.ObjectInfo, error) {
	info, ok := f.objects[key]
	if !ok {
		return minio.ObjectInfo{}, errors.New("no such key")
	}
	return info, nil
}

type fixedCode string

func (c fixedCode) Generate() string { return string(c) }

func setup(t *testing.T, archiveKey string) (*http.ServeMux, *users.Account, *memory.Memory) {
	t.Helper()
	store := memory.New()
	svc := presentationService.NewService(store, nil,
		presentationService.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		presentationService.WithGenerator(fixedCode("ORIG42")))

	owner, err := store.CreateUser(context.Background(), "Owner", "owner@example.com", "hash")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), &types.Presentation{
		ID:          "p1",
		UserID:      owner.ID,
		FileName:    "Deck.pdf",
		ArchiveKey:  archiveKey,
		TotalSlides: 1,
		Slides:      []types.Slide{{PageNumber: 1, Image: "data:x"}},
	})
	require.NoError(t, err)

	originals := &fakeOriginals{objects: map[string]minio.ObjectInfo{
		"users/1/originals/p1.pdf": {Key: "users/1/originals/p1.pdf", Size: 2048, ContentType: "application/pdf", LastModified: time.Unix(0, 0).UTC()},
	}}
	h := NewMediaHandlers(originals, svc)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /presentations/{code}/original", h.DownloadOriginal())
	mux.HandleFunc("GET /presentations/{code}/original/info", h.OriginalInfo())
	return mux, owner, store
}

func get(mux *http.ServeMux, path string, account *users.Account) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if account != nil {
		req = req.WithContext(middleware.WithAccount(req.Context(), account))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestDownloadOriginalForOwner(t *testing.T) {
	mux, owner, _ := setup(t, "users/1/originals/p1.pdf")

	rec := get(mux, "/presentations/orig42/original", owner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data mediaService.DownloadInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "users/1/originals/p1.pdf", body.Data.ObjectKey)
	assert.Contains(t, body.Data.DownloadURL, "name=Deck.pdf")
}

func TestDownloadOriginalAccessRules(t *testing.T) {
	mux, _, store := setup(t, "users/1/originals/p1.pdf")
	other, err := store.CreateUser(context.Background(), "Eve", "eve@example.com", "hash")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, get(mux, "/presentations/ORIG42/original", nil).Code)
	assert.Equal(t, http.StatusForbidden, get(mux, "/presentations/ORIG42/original", other).Code)
	assert.Equal(t, http.StatusNotFound, get(mux, "/presentations/NOPE00/original", other).Code)

	other.Role = users.RoleAdmin
	assert.Equal(t, http.StatusOK, get(mux, "/presentations/ORIG42/original", other).Code)
}

func TestDownloadOriginalWithoutArchive(t *testing.T) {
	mux, owner, _ := setup(t, "")
	assert.Equal(t, http.StatusNotFound, get(mux, "/presentations/ORIG42/original", owner).Code)
}

func TestOriginalInfo(t *testing.T) {
	mux, owner, _ := setup(t, "users/1/originals/p1.pdf")

	rec := get(mux, "/presentations/ORIG42/original/info", owner)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data OriginalInfoResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(2048), body.Data.Size)
	assert.Equal(t, "Deck.pdf", body.Data.FileName)
}
