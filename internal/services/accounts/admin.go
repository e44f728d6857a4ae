// Package accounts holds account maintenance that sits outside the HTTP
// handlers, such as bootstrapping the first administrator.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/princekumarofficial/zcreens-service/internal/storage"
	"github.com/princekumarofficial/zcreens-service/internal/types/users"
	"github.com/princekumarofficial/zcreens-service/internal/utils/password"
)

// AdminStorageLimitMB is the allowance given to bootstrapped administrators.
const AdminStorageLimitMB = 10000

const minPasswordLength = 6

var ErrWeakPassword = fmt.Errorf("password must be at least %d characters", minPasswordLength)

// AdminSpec names the administrator to create or promote.
type AdminSpec struct {
	Name     string
	Email    string
	Password string
}

// EnsureAdmin makes sure an administrator with spec.Email exists. An existing
// account is promoted and keeps its password; otherwise a new business-plan
// account is created. created reports which of the two happened.
func EnsureAdmin(ctx context.Context, store storage.Storage, spec AdminSpec) (account *users.Account, created bool, err error) {
	email := strings.ToLower(strings.TrimSpace(spec.Email))
	if email == "" {
		return nil, false, errors.New("admin email is required")
	}

	account, _, err = store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if account.IsAdmin() {
			return account, false, nil
		}
		account.Role = users.RoleAdmin
		if err := store.UpdateUser(ctx, account); err != nil {
			return nil, false, fmt.Errorf("failed to promote %s: %w", email, err)
		}
		slog.Info("Account promoted to admin", slog.String("user_id", account.ID))
		return account, false, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, false, fmt.Errorf("failed to look up %s: %w", email, err)
	}

	if len(spec.Password) < minPasswordLength {
		return nil, false, ErrWeakPassword
	}
	hashed, err := password.HashPassword(spec.Password)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	name := strings.TrimSpace(spec.Name)
	if name == "" {
		name = "Administrator"
	}
	account, err = store.CreateUser(ctx, name, email, hashed)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create %s: %w", email, err)
	}

	account.Role = users.RoleAdmin
	account.Plan = users.PlanBusiness
	account.StorageLimitMB = AdminStorageLimitMB
	if err := store.UpdateUser(ctx, account); err != nil {
		return nil, false, fmt.Errorf("failed to promote %s: %w", email, err)
	}
	slog.Info("Admin account created", slog.String("user_id", account.ID))
	return account, true, nil
}
