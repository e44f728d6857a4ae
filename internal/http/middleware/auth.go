package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/princekumarofficial/zcreens-service/internal/types/users"
	"github.com/princekumarofficial/zcreens-service/internal/utils/jwt"
	"github.com/princekumarofficial/zcreens-service/internal/utils/response"
)

type contextKey string

const (
	UserIDKey  contextKey = "userID"
	AccountKey contextKey = "account"
)

// AuthCookie is the cookie browsers send the token in.
const AuthCookie = "auth-token"

var (
	ErrNoCredentials      = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid token")
)

// IdentityProvider resolves the account behind a request. It returns
// ErrNoCredentials when the request carries no token at all.
type IdentityProvider interface {
	Identify(r *http.Request) (*users.Account, error)
}

type AccountLoader interface {
	GetUserByID(ctx context.Context, id string) (*users.Account, error)
}

// JWTIdentityProvider reads a bearer token or the auth cookie and loads the
// account it names, so role and plan are always current.
type JWTIdentityProvider struct {
	secret   string
	accounts AccountLoader
}

func NewJWTIdentityProvider(secret string, accounts AccountLoader) *JWTIdentityProvider {
	return &JWTIdentityProvider{secret: secret, accounts: accounts}
}

func (p *JWTIdentityProvider) Identify(r *http.Request) (*users.Account, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return nil, ErrNoCredentials
	}

	userID, err := jwt.ExtractUserIDFromToken(token, p.secret)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	account, err := p.accounts.GetUserByID(r.Context(), userID)
	if err != nil {
		slog.Debug("Token names an unknown account", slog.String("user_id", userID), slog.String("error", err.Error()))
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if c, err := r.Cookie(AuthCookie); err == nil {
		return c.Value
	}
	return ""
}

// WithAccount stores account in ctx for later handlers.
func WithAccount(ctx context.Context, account *users.Account) context.Context {
	ctx = context.WithValue(ctx, AccountKey, account)
	return context.WithValue(ctx, UserIDKey, account.ID)
}

// Authenticate rejects requests without a verified identity.
func Authenticate(provider IdentityProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := provider.Identify(r)
			if err != nil {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
		})
	}
}

// RequireRole lets only accounts with role through. It must run after
// Authenticate.
func RequireRole(role users.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, ok := GetAccountFromContext(r.Context())
			if !ok {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(ErrNoCredentials))
				return
			}
			if account.Role != role {
				response.WriteJSON(w, http.StatusForbidden, response.GeneralError(errors.New("insufficient permissions")))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetAccountFromContext extracts the authenticated account from the request context
func GetAccountFromContext(ctx context.Context) (*users.Account, bool) {
	account, ok := ctx.Value(AccountKey).(*users.Account)
	return account, ok && account != nil
}
