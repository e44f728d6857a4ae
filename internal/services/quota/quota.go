// Package quota keeps each account's storage usage against its plan limit.
package quota

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/princekumarofficial/zcreens-service/internal/types/users"
)

// Ledger is the slice of storage the quota service writes through.
type Ledger interface {
	AddStorageUsed(ctx context.Context, userID string, deltaMB float64) (float64, error)
}

type InsufficientStorageError struct {
	FileSizeMB     float64
	StorageUsedMB  float64
	StorageLimitMB float64
	AvailableMB    float64
	Plan           users.Plan
}

func (e *InsufficientStorageError) Error() string {
	return fmt.Sprintf("insufficient storage: file is %s but only %s is available",
		FormatMB(e.FileSizeMB), FormatMB(e.AvailableMB))
}

// Suggestion is the user-facing hint that goes with the error.
func (e *InsufficientStorageError) Suggestion() string {
	if e.Plan == users.PlanStarter || e.Plan == "" {
		return "Upgrade to Pro (1GB) or Business (5GB) plan for more storage"
	}
	return "Delete some files to free up space"
}

// Usage is a before/after snapshot of one ledger change.
type Usage struct {
	PreviousMB float64
	NewMB      float64
	LimitMB    float64
	Plan       users.Plan
}

func (u Usage) RemainingMB() float64 {
	return u.LimitMB - u.NewMB
}

type Service struct {
	ledger Ledger
	logger *slog.Logger
}

func NewService(ledger Ledger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ledger: ledger, logger: logger}
}

// Available returns how many megabytes the account may still use.
func Available(account *users.Account) float64 {
	return account.AvailableStorageMB()
}

// Check fails with *InsufficientStorageError when deltaMB does not fit in the
// account's current allowance. It does not write anything.
func Check(account *users.Account, deltaMB float64) error {
	available := Available(account)
	if deltaMB <= available {
		return nil
	}
	return &InsufficientStorageError{
		FileSizeMB:     deltaMB,
		StorageUsedMB:  account.StorageUsedMB,
		StorageLimitMB: account.StorageLimitMB,
		AvailableMB:    available,
		Plan:           account.Plan,
	}
}

// Reserve charges deltaMB to the account. The check runs against the
// account snapshot the caller holds; the write itself is an additive delta
// so concurrent reservations never overwrite each other, although two of
// them may both pass the check and together exceed the limit.
func (s *Service) Reserve(ctx context.Context, account *users.Account, deltaMB float64) (Usage, error) {
	if err := Check(account, deltaMB); err != nil {
		return Usage{}, err
	}
	return s.apply(ctx, account, deltaMB)
}

// Release gives deltaMB back to the account. Usage never drops below zero.
func (s *Service) Release(ctx context.Context, account *users.Account, deltaMB float64) (Usage, error) {
	if deltaMB <= 0 {
		return Usage{PreviousMB: account.StorageUsedMB, NewMB: account.StorageUsedMB, LimitMB: account.StorageLimitMB, Plan: account.Plan}, nil
	}
	return s.apply(ctx, account, -deltaMB)
}

func (s *Service) apply(ctx context.Context, account *users.Account, deltaMB float64) (Usage, error) {
	previous := account.StorageUsedMB
	used, err := s.ledger.AddStorageUsed(ctx, account.ID, deltaMB)
	if err != nil {
		return Usage{}, fmt.Errorf("failed to update storage usage: %w", err)
	}
	account.StorageUsedMB = used

	s.logger.Debug("Storage usage updated",
		slog.String("user_id", account.ID),
		slog.Float64("delta_mb", deltaMB),
		slog.Float64("used_mb", used))

	return Usage{
		PreviousMB: previous,
		NewMB:      used,
		LimitMB:    account.StorageLimitMB,
		Plan:       account.Plan,
	}, nil
}

// BytesToMB converts a byte length to megabytes (MiB).
func BytesToMB(n int64) float64 {
	return float64(n) / (1024 * 1024)
}

func FormatMB(mb float64) string {
	return fmt.Sprintf("%.1fMB", mb)
}
