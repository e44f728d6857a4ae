package storage

import (
	"context"
	"errors"
	"time"

	"github.com/princekumarofficial/zcreens-service/internal/types"
	"github.com/princekumarofficial/zcreens-service/internal/types/users"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrCodeTaken   = errors.New("screen code already in use")
	ErrEmailTaken  = errors.New("email already registered")
	ErrEmptySlides = errors.New("presentation has no slides")
)

type Storage interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*users.Account, error)
	GetUserByEmail(ctx context.Context, email string) (*users.Account, string, error)
	GetUserByID(ctx context.Context, id string) (*users.Account, error)
	ListUsers(ctx context.Context) ([]users.Account, error)
	UpdateUser(ctx context.Context, account *users.Account) error
	DeleteUser(ctx context.Context, id string) error

	// AddStorageUsed applies an additive delta to the account's usage, never
	// letting it drop below zero, and returns the new value.
	AddStorageUsed(ctx context.Context, userID string, deltaMB float64) (float64, error)

	CreatePresentation(ctx context.Context, p *types.Presentation) error
	GetPresentationByCode(ctx context.Context, code string) (*types.Presentation, error)
	ListPresentationsByUser(ctx context.Context, userID string) ([]types.Presentation, error)
	DeletePresentation(ctx context.Context, p *types.Presentation) error
	// DeleteExpiredPresentations removes up to limit presentations whose
	// expiry is before now and returns them without slides.
	DeleteExpiredPresentations(ctx context.Context, now time.Time, limit int) ([]types.Presentation, error)
}

// UsageReporter aggregates per-account storage for admins. Only the backing
// stores implement it; the cache layer does not.
type UsageReporter interface {
	UsageReport(ctx context.Context, now time.Time) ([]users.UsageReport, error)
}
