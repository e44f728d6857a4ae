package users

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/zcreens-service/internal/http/middleware"
	"github.com/princekumarofficial/zcreens-service/internal/services/presentations"
	"github.com/princekumarofficial/zcreens-service/internal/storage/memory"
	"github.com/princekumarofficial/zcreens-service/internal/types"
	"github.com/princekumarofficial/zcreens-service/internal/types/users"
	"github.com/princekumarofficial/zcreens-service/internal/utils/jwt"
)

const secret = "test-secret"

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body)))
	return rec
}

func TestSignUpThenLogin(t *testing.T) {
	store := memory.New()

	rec := post(SignUp(store, secret), `{"name":"Ada","email":"Ada@Example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created AuthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "ada@example.com", created.Account.Email)
	assert.Equal(t, users.PlanStarter, created.Account.Plan)
	assert.Equal(t, 100.0, created.Account.StorageLimitMB)

	userID, err := jwt.ExtractUserIDFromToken(created.Token, secret)
	require.NoError(t, err)
	assert.Equal(t, created.Account.ID, userID)

	rec = post(Login(store, secret), `{"email":"ada@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.AuthCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestSignUpRejectsDuplicatesAndBadInput(t *testing.T) {
	store := memory.New()
	body := `{"name":"Ada","email":"ada@example.com","password":"hunter22"}`
	require.Equal(t, http.StatusCreated, post(SignUp(store, secret), body).Code)

	assert.Equal(t, http.StatusConflict, post(SignUp(store, secret), body).Code)
	assert.Equal(t, http.StatusBadRequest, post(SignUp(store, secret), `{"email":"nope","password":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(SignUp(store, secret), `{`).Code)
}

func TestLoginWrongPassword(t *testing.T) {
	store := memory.New()
	require.Equal(t, http.StatusCreated, post(SignUp(store, secret), `{"name":"Ada","email":"ada@example.com","password":"hunter22"}`).Code)

	assert.Equal(t, http.StatusUnauthorized, post(Login(store, secret), `{"email":"ada@example.com","password":"wrong-pass"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, post(Login(store, secret), `{"email":"bob@example.com","password":"hunter22"}`).Code)
}

func TestMe(t *testing.T) {
	rec := httptest.NewRecorder()
	Me()(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	account := &users.Account{ID: "7", Email: "ada@example.com", StorageLimitMB: 100}
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec = httptest.NewRecorder()
	Me()(rec, req.WithContext(middleware.WithAccount(req.Context(), account)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"storage_limit":100`)
}

func TestAdminUpdateAndDelete(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	admin, err := store.CreateUser(ctx, "Root", "root@example.com", "hash")
	require.NoError(t, err)
	target, err := store.CreateUser(ctx, "Ada", "ada@example.com", "hash")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/users", ListUsers(store))
	mux.HandleFunc("PUT /admin/users/{id}", UpdateUser(store))
	accounts := presentations.NewService(store, nil,
		presentations.WithGenerator(fixedCode("ADA001")),
		presentations.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	mux.HandleFunc("DELETE /admin/users/{id}", DeleteUser(accounts))

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req = req.WithContext(middleware.WithAccount(req.Context(), admin))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPut, "/admin/users/"+target.ID, `{"plan":"pro"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated, err := store.GetUserByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, users.PlanPro, updated.Plan)
	assert.Equal(t, 1000.0, updated.StorageLimitMB)

	assert.Equal(t, http.StatusBadRequest, do(http.MethodPut, "/admin/users/"+target.ID, `{"plan":"gold"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodPut, "/admin/users/999", `{"name":"x"}`).Code)

	rec = do(http.MethodGet, "/admin/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []users.Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	_, err = accounts.Create(ctx, &types.Presentation{
		ID:          "p-ada",
		UserID:      target.ID,
		FileName:    "deck.pdf",
		Slides:      []types.Slide{{PageNumber: 1, Image: "data:x", Width: 1920, Height: 1080}},
		TotalSlides: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, do(http.MethodDelete, "/admin/users/"+admin.ID, "").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodDelete, "/admin/users/"+target.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodDelete, "/admin/users/"+target.ID, "").Code)

	_, err = accounts.Resolve(ctx, "ADA001")
	assert.ErrorIs(t, err, presentations.ErrNotFound)
}

type fixedCode string

func (c fixedCode) Generate() string { return string(c) }

func TestUsageReport(t *testing.T) {
	store := memory.New()
	_, err := store.CreateUser(context.Background(), "Ada", "ada@example.com", "hash")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	UsageReport(store)(rec, httptest.NewRequest(http.MethodGet, "/admin/usage", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var report []users.UsageReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report, 1)
	assert.Equal(t, "ada@example.com", report[0].Email)
}
