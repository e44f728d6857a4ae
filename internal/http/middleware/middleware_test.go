package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/zcreens-service/internal/storage"
	"github.com/princekumarofficial/zcreens-service/internal/types/users"
	"github.com/princekumarofficial/zcreens-service/internal/utils/jwt"
)

const secret = "test-secret"

type accountsStub map[string]*users.Account

func (a accountsStub) GetUserByID(_ context.Context, id string) (*users.Account, error) {
	if acc, ok := a[id]; ok {
		return acc, nil
	}
	return nil, storage.ErrNotFound
}

var accounts = accountsStub{
	"1": {ID: "1", Role: users.RoleUser, Plan: users.PlanStarter},
	"2": {ID: "2", Role: users.RoleAdmin, Plan: users.PlanBusiness},
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := jwt.CreateToken(userID, secret)
	require.NoError(t, err)
	return tok
}

func echoAccount() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acc, ok := GetAccountFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.Write([]byte(acc.ID))
	})
}

func TestAuthenticate(t *testing.T) {
	provider := NewJWTIdentityProvider(secret, accounts)
	h := Authenticate(provider)(echoAccount())

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, "1"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "1", rec.Body.String())
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: AuthCookie, Value: token(t, "2")})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "2", rec.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "authentication required")
	})

	t.Run("unknown account", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, "99"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	provider := NewJWTIdentityProvider(secret, accounts)
	h := Authenticate(provider)(RequireRole(users.RoleAdmin)(echoAccount()))

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "2"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	rlc := NewRateLimitConfig(client, 1, 2)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := rlc.RateLimitMiddleware(ActionResolve, ByClientIP)(ok)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/presentation/ABC123", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	upload := rlc.RateLimitMiddleware(ActionUploads, ByAccount)(ok)
	rec := httptest.NewRecorder()
	upload.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/upload", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimitMiddleware_NilConfigPassesThrough(t *testing.T) {
	var rlc *RateLimitConfig
	h := rlc.RateLimitMiddleware(ActionUploads, ByAccount)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/upload", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestByClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.1.1:1234"
	ip, ok := ByClientIP(req)
	assert.True(t, ok)
	assert.Equal(t, "10.1.1.1", ip)

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	ip, _ = ByClientIP(req)
	assert.Equal(t, "203.0.113.7", ip)
}
