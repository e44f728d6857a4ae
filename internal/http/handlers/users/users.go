package users

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/princekumarofficial/zcreens-service/internal/http/middleware"
	"github.com/princekumarofficial/zcreens-service/internal/storage"
	"github.com/princekumarofficial/zcreens-service/internal/types/users"
	"github.com/princekumarofficial/zcreens-service/internal/utils/jwt"
	"github.com/princekumarofficial/zcreens-service/internal/utils/password"
	"github.com/princekumarofficial/zcreens-service/internal/utils/response"
)

var errInternal = errors.New("internal server error")

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token   string         `json:"token"`
	Account *users.Account `json:"user"`
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}

	validate := validator.New()
	if err := validate.Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
			return false
		}
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}
	return true
}

func setAuthCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(jwt.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// SignUp handles user registration
// @Summary Register a new user
// @Description Creates a starter-plan account and signs it in
// @Tags users
// @Accept json
// @Produce json
// @Param user body users.SignUpRequest true "User registration details"
// @Success 201 {object} AuthResult "User created successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 409 {object} response.Response "Email already registered"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /signup [post]
func SignUp(store storage.Storage, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.SignUpRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		hashedPassword, err := password.HashPassword(req.Password)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to hash password")))
			return
		}

		account, err := store.CreateUser(r.Context(), strings.TrimSpace(req.Name), strings.ToLower(req.Email), hashedPassword)
		if err != nil {
			if errors.Is(err, storage.ErrEmailTaken) {
				response.WriteJSON(w, http.StatusConflict, response.GeneralError(err))
				return
			}
			slog.Error("Failed to create user", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errInternal))
			return
		}
		slog.Info("User created", slog.String("user_id", account.ID))

		token, err := jwt.CreateToken(account.ID, jwtSecret)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate token")))
			return
		}
		setAuthCookie(w, r, token)

		response.WriteJSON(w, http.StatusCreated, AuthResult{Token: token, Account: account})
	}
}

// Login handles user authentication
// @Summary Authenticate a user
// @Description Authenticate a user, return a JWT and set the auth-token cookie
// @Tags users
// @Accept json
// @Produce json
// @Param user body users.SignInRequest true "User login details"
// @Success 200 {object} AuthResult "User authenticated successfully with token"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Router /login [post]
func Login(store storage.Storage, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.SignInRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		account, hashedPassword, err := store.GetUserByEmail(r.Context(), strings.ToLower(req.Email))
		if err != nil || !password.CheckPasswordHash(req.Password, hashedPassword) {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("invalid email or password")))
			return
		}

		token, err := jwt.CreateToken(account.ID, jwtSecret)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate token")))
			return
		}
		setAuthCookie(w, r, token)

		response.WriteJSON(w, http.StatusOK, AuthResult{Token: token, Account: account})
	}
}

// Me returns the signed-in account with its storage usage
// @Summary Current account
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} users.Account
// @Failure 401 {object} response.Response "Unauthorized"
// @Router /me [get]
func Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := middleware.GetAccountFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(middleware.ErrNoCredentials))
			return
		}
		response.WriteJSON(w, http.StatusOK, account)
	}
}

// ListUsers returns every account
// @Summary List accounts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} users.Account
// @Failure 403 {object} response.Response "Forbidden"
// @Router /admin/users [get]
func ListUsers(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := store.ListUsers(r.Context())
		if err != nil {
			slog.Error("Failed to list users", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errInternal))
			return
		}
		if accounts == nil {
			accounts = []users.Account{}
		}
		response.WriteJSON(w, http.StatusOK, accounts)
	}
}

// UpdateUser edits an account's name, email, plan or role
// @Summary Update an account
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param user body users.UpdateRequest true "Fields to change"
// @Success 200 {object} users.Account
// @Failure 400 {object} response.Response "Bad request"
// @Failure 404 {object} response.Response "User not found"
// @Router /admin/users/{id} [put]
func UpdateUser(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.UpdateRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		account, err := store.GetUserByID(r.Context(), r.PathValue("id"))
		if err != nil {
			writeLookupError(w, err)
			return
		}

		account.Apply(req)
		if err := store.UpdateUser(r.Context(), account); err != nil {
			if errors.Is(err, storage.ErrEmailTaken) {
				response.WriteJSON(w, http.StatusConflict, response.GeneralError(err))
				return
			}
			slog.Error("Failed to update user", slog.String("user_id", account.ID), slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errInternal))
			return
		}

		response.WriteJSON(w, http.StatusOK, account)
	}
}

// AccountRemover deletes an account together with everything it owns.
type AccountRemover interface {
	DeleteAccount(ctx context.Context, id string) error
}

// DeleteUser removes an account and its presentations
// @Summary Delete an account
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response "Cannot delete yourself"
// @Failure 404 {object} response.Response "User not found"
// @Router /admin/users/{id} [delete]
func DeleteUser(accounts AccountRemover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if self, ok := middleware.GetUserIDFromContext(r.Context()); ok && self == id {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("cannot delete your own account")))
			return
		}

		if err := accounts.DeleteAccount(r.Context(), id); err != nil {
			writeLookupError(w, err)
			return
		}
		slog.Info("User deleted", slog.String("user_id", id))

		response.WriteJSON(w, http.StatusOK, response.RequestOK("User deleted successfully", nil))
	}
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("user not found")))
		return
	}
	slog.Error("User lookup failed", slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errInternal))
}

// UsageReport lists every account's ledger next to its live presentations
// @Summary Storage usage report
// @Description One row per account with recorded usage and the totals of its unexpired presentations
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} users.UsageReport
// @Failure 403 {object} response.Response "Forbidden"
// @Router /admin/usage [get]
func UsageReport(reporter storage.UsageReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := reporter.UsageReport(r.Context(), time.Now())
		if err != nil {
			slog.Error("Failed to build usage report", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errInternal))
			return
		}
		if report == nil {
			report = []users.UsageReport{}
		}
		response.WriteJSON(w, http.StatusOK, report)
	}
}
