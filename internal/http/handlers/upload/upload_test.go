package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/zcreens-service/internal/http/middleware"
	"github.com/princekumarofficial/zcreens-service/internal/services/presentations"
	"github.com/princekumarofficial/zcreens-service/internal/services/quota"
	"github.com/princekumarofficial/zcreens-service/internal/services/slides"
	uploadService "github.com/princekumarofficial/zcreens-service/internal/services/upload"
	"github.com/princekumarofficial/zcreens-service/internal/storage/memory"
	"github.com/princekumarofficial/zcreens-service/internal/types/users"
)

type envelope struct {
	Status  string                 `json:"status"`
	Error   string                 `json:"error"`
	Details string                 `json:"details"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

type harness struct {
	store   *memory.Memory
	handler http.HandlerFunc
	account *users.Account
}

func newHarness(t *testing.T, maxFileSize int64) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	q := quota.NewService(store, logger)
	p := presentations.NewService(store, q, presentations.WithLogger(logger))
	svc := uploadService.NewService(slides.NewExtractor(slides.WithLogger(logger)), p, q, nil, logger)

	account, err := store.CreateUser(context.Background(), "Ada", "ada@example.com", "hash")
	require.NoError(t, err)

	return &harness{store: store, handler: Upload(svc, maxFileSize), account: account}
}

func multipartBody(t *testing.T, field, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, fileName))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func (h *harness) do(t *testing.T, account *users.Account, field, fileName, contentType string, data []byte) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	body, ct := multipartBody(t, field, fileName, contentType, data)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	if account != nil {
		req = req.WithContext(middleware.WithAccount(req.Context(), account))
	}

	rec := httptest.NewRecorder()
	h.handler(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestUploadRequiresAccount(t *testing.T) {
	h := newHarness(t, 0)
	rec, _ := h.do(t, nil, FormField, "a.png", slides.MimePNG, []byte{1})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadImageSucceeds(t *testing.T) {
	h := newHarness(t, 0)
	payload := bytes.Repeat([]byte{7}, 500*1024)

	rec, env := h.do(t, h.account, FormField, "photo.png", slides.MimePNG, payload)
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	assert.Equal(t, "Successfully processed 1 slide", env.Message)

	code, _ := env.Data["screenCode"].(string)
	assert.Len(t, code, 6)
	assert.Equal(t, "/slideshow/"+code, env.Data["slideshowUrl"])

	info := env.Data["storageInfo"].(map[string]interface{})
	assert.Equal(t, "0.0MB", info["previousUsage"])
	assert.Equal(t, "0.5MB", info["newUsage"])

	account, err := h.store.GetUserByID(context.Background(), h.account.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.49, account.StorageUsedMB, 0.01)
}

func TestUploadMissingFile(t *testing.T) {
	h := newHarness(t, 0)
	rec, env := h.do(t, h.account, "other", "a.png", slides.MimePNG, []byte{1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file provided", env.Error)
}

func TestUploadUnsupportedType(t *testing.T) {
	h := newHarness(t, 0)
	rec, env := h.do(t, h.account, FormField, "notes.txt", "text/plain", []byte("hi"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unsupported file type", env.Error)
	assert.Contains(t, env.Data["supportedTypes"], slides.MimePDF)
}

func TestUploadTypeCheckedBeforeReading(t *testing.T) {
	h := newHarness(t, 1024)
	rec, env := h.do(t, h.account, FormField, "notes.txt", "text/plain", bytes.Repeat([]byte{'x'}, 4096))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unsupported file type", env.Error)
}

func TestUploadPowerPointNotImplemented(t *testing.T) {
	h := newHarness(t, 0)
	rec, _ := h.do(t, h.account, FormField, "deck.pptx", slides.MimePPTX, []byte("pk"))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestUploadInsufficientStorage(t *testing.T) {
	h := newHarness(t, 0)
	_, err := h.store.AddStorageUsed(context.Background(), h.account.ID, 99)
	require.NoError(t, err)
	account, err := h.store.GetUserByID(context.Background(), h.account.ID)
	require.NoError(t, err)

	rec, env := h.do(t, account, FormField, "big.pdf", slides.MimePDF, bytes.Repeat([]byte{'x'}, 2*1024*1024))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "Insufficient storage space", env.Error)

	info := env.Data["storageInfo"].(map[string]interface{})
	assert.Equal(t, "1.0MB", info["availableStorage"])
	assert.Equal(t, "2.0MB", info["fileSize"])
	assert.Equal(t, "starter", info["plan"])
	assert.Contains(t, info["suggestion"], "Upgrade")

	after, err := h.store.GetUserByID(context.Background(), h.account.ID)
	require.NoError(t, err)
	assert.Equal(t, 99.0, after.StorageUsedMB)
}

func TestUploadFileTooLarge(t *testing.T) {
	h := newHarness(t, 1024)
	rec, env := h.do(t, h.account, FormField, "a.png", slides.MimePNG, make([]byte, 2048))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "File too large", env.Error)
}

func TestStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	Status(1024)(rec, httptest.NewRequest(http.MethodGet, "/upload", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var health Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "OK", health.Status)
	assert.Equal(t, []string{"PDF", "PNG", "JPEG", "GIF"}, health.SupportedFormats)
}
