// Package presentations is the artifact store: it persists presentations
// under their screen code and resolves codes back into slides, enforcing
// the retention window lazily on every read.
package presentations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/princekumarofficial/zcreens-service/internal/screencode"
	"github.com/princekumarofficial/zcreens-service/internal/services/quota"
	"github.com/princekumarofficial/zcreens-service/internal/storage"
	"github.com/princekumarofficial/zcreens-service/internal/types"
	"github.com/princekumarofficial/zcreens-service/internal/types/users"
)

const (
	DefaultRetention       = 24 * time.Hour
	DefaultMaxCodeAttempts = 5
	defaultSweepBatch      = 100
)

const (
	ReasonExpired = "expired"
	ReasonDeleted = "deleted"
)

var (
	ErrNotFound       = errors.New("presentation not found")
	ErrExpired        = errors.New("presentation expired")
	ErrForbidden      = errors.New("presentation belongs to another account")
	ErrInvalidSlides  = errors.New("slides must be numbered 1..n without gaps")
	ErrCodesExhausted = errors.New("could not allocate a free screen code")
)

// Notifier is told when a presentation disappears so live viewers can be
// disconnected.
type Notifier interface {
	PresentationRemoved(screenCode, reason string)
}

// Archive removes stored originals.
type Archive interface {
	DeleteOriginal(ctx context.Context, key string) error
}

type Service struct {
	store       storage.Storage
	codes       screencode.Generator
	quota       *quota.Service
	seeds       map[string]types.Presentation
	notifier    Notifier
	archive     Archive
	logger      *slog.Logger
	now         func() time.Time
	retention   time.Duration
	maxAttempts int
	sweepBatch  int
	intervalMS  int
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithGenerator(g screencode.Generator) Option {
	return func(s *Service) { s.codes = g }
}

// WithSeeds installs a read-only catalog consulted only when the store has
// no presentation for a code.
func WithSeeds(seeds []types.Presentation) Option {
	return func(s *Service) {
		s.seeds = make(map[string]types.Presentation, len(seeds))
		for _, p := range seeds {
			s.seeds[screencode.Normalize(p.ScreenCode)] = p
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithArchive(a Archive) Option {
	return func(s *Service) { s.archive = a }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithRetention(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithSlideInterval sets the autoplay interval stamped on presentations
// created without one.
func WithSlideInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.intervalMS = int(d / time.Millisecond)
		}
	}
}

func WithMaxCodeAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithSweepBatch(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sweepBatch = n
		}
	}
}

func NewService(store storage.Storage, q *quota.Service, opts ...Option) *Service {
	s := &Service{
		store:       store,
		codes:       screencode.RandomGenerator{},
		quota:       q,
		logger:      slog.Default(),
		now:         time.Now,
		retention:   DefaultRetention,
		maxAttempts: DefaultMaxCodeAttempts,
		sweepBatch:  defaultSweepBatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now is the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// NewCode returns a fresh candidate screen code.
func (s *Service) NewCode() string {
	return s.codes.Generate()
}

// Create stores p. CreatedAt and ExpiresAt are stamped when unset. If the
// screen code is taken a new one is generated, up to the configured number
// of attempts.
func (s *Service) Create(ctx context.Context, p *types.Presentation) (*types.Presentation, error) {
	if len(p.Slides) == 0 {
		return nil, storage.ErrEmptySlides
	}
	if p.TotalSlides != len(p.Slides) {
		return nil, fmt.Errorf("%w: total %d, got %d slides", ErrInvalidSlides, p.TotalSlides, len(p.Slides))
	}
	for i, sl := range p.Slides {
		if sl.PageNumber != i+1 {
			return nil, fmt.Errorf("%w: slide %d has page number %d", ErrInvalidSlides, i, sl.PageNumber)
		}
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	if p.ExpiresAt.IsZero() {
		p.ExpiresAt = p.CreatedAt.Add(s.retention)
	}
	if p.SlideIntervalMS == 0 {
		p.SlideIntervalMS = s.intervalMS
	}
	if p.ScreenCode == "" {
		p.ScreenCode = s.codes.Generate()
	}
	p.ScreenCode = screencode.Normalize(p.ScreenCode)

	for attempt := 1; ; attempt++ {
		err := s.store.CreatePresentation(ctx, p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, storage.ErrCodeTaken) {
			return nil, fmt.Errorf("failed to store presentation: %w", err)
		}
		if attempt >= s.maxAttempts {
			return nil, fmt.Errorf("%w after %d attempts", ErrCodesExhausted, attempt)
		}

		s.logger.Warn("Screen code collision, regenerating",
			slog.String("screen_code", p.ScreenCode),
			slog.Int("attempt", attempt))
		p.ScreenCode = screencode.Normalize(s.codes.Generate())
	}
}

// Resolve returns the live presentation for code. An expired presentation
// is deleted as part of the read and reported as ErrExpired.
func (s *Service) Resolve(ctx context.Context, code string) (*types.Presentation, error) {
	code = screencode.Normalize(code)
	now := s.now()

	p, err := s.store.GetPresentationByCode(ctx, code)
	switch {
	case err == nil:
		if p.Expired(now) {
			if err := s.remove(ctx, p, ReasonExpired); err != nil {
				return nil, err
			}
			s.logger.Info("Removed expired presentation on read",
				slog.String("screen_code", code),
				slog.String("presentation_id", p.ID))
			return nil, ErrExpired
		}
		return p, nil
	case errors.Is(err, storage.ErrNotFound):
		return s.resolveSeed(code, now)
	default:
		return nil, fmt.Errorf("failed to load presentation: %w", err)
	}
}

func (s *Service) resolveSeed(code string, now time.Time) (*types.Presentation, error) {
	seed, ok := s.seeds[code]
	if !ok {
		return nil, ErrNotFound
	}
	out := seed
	out.Slides = append([]types.Slide(nil), seed.Slides...)
	if out.ExpiresAt.IsZero() {
		out.ExpiresAt = out.CreatedAt.Add(s.retention)
	}
	if out.Expired(now) {
		return nil, ErrExpired
	}
	return &out, nil
}

// ListForAccount returns the account's presentations without slides,
// newest first. Expired ones still waiting for cleanup are skipped.
func (s *Service) ListForAccount(ctx context.Context, accountID string) ([]types.Presentation, error) {
	all, err := s.store.ListPresentationsByUser(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list presentations: %w", err)
	}
	now := s.now()
	live := make([]types.Presentation, 0, len(all))
	for _, p := range all {
		if !p.Expired(now) {
			live = append(live, p)
		}
	}
	return live, nil
}

// Lookup fetches a stored presentation regardless of expiry.
func (s *Service) Lookup(ctx context.Context, code string) (*types.Presentation, error) {
	p, err := s.store.GetPresentationByCode(ctx, screencode.Normalize(code))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load presentation: %w", err)
	}
	return p, nil
}

// Delete removes p unconditionally.
func (s *Service) Delete(ctx context.Context, p *types.Presentation) error {
	return s.remove(ctx, p, ReasonDeleted)
}

// DeleteOwned removes the presentation behind code on behalf of account and
// gives its size back to the owner's quota. Admins may delete any
// presentation.
func (s *Service) DeleteOwned(ctx context.Context, account *users.Account, code string) (*types.Presentation, error) {
	p, err := s.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if p.UserID != account.ID && !account.IsAdmin() {
		return nil, ErrForbidden
	}

	if err := s.remove(ctx, p, ReasonDeleted); err != nil {
		return nil, err
	}

	owner := account
	if p.UserID != account.ID {
		owner, err = s.store.GetUserByID(ctx, p.UserID)
		if err != nil {
			s.logger.Warn("Owner not found while releasing storage",
				slog.String("user_id", p.UserID),
				slog.String("error", err.Error()))
			return p, nil
		}
	}
	if s.quota != nil {
		if _, err := s.quota.Release(ctx, owner, quota.BytesToMB(p.FileSize)); err != nil {
			return p, err
		}
	}
	return p, nil
}

// DeleteAccount removes every presentation owned by userID, telling viewers
// and dropping archived originals, then deletes the account itself.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	owned, err := s.store.ListPresentationsByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list presentations: %w", err)
	}
	for i := range owned {
		if err := s.remove(ctx, &owned[i], ReasonDeleted); err != nil {
			return err
		}
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	s.logger.Info("Account deleted",
		slog.String("user_id", userID),
		slog.Int("presentations", len(owned)))
	return nil
}

// Sweep deletes presentations whose retention window has passed, one batch
// at a time, until none remain. Storage usage is not released, matching
// lazy expiry on read.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	total := 0
	for {
		removed, err := s.store.DeleteExpiredPresentations(ctx, s.now(), s.sweepBatch)
		if err != nil {
			return total, fmt.Errorf("failed to delete expired presentations: %w", err)
		}
		for i := range removed {
			s.afterRemove(ctx, &removed[i], ReasonExpired)
		}
		total += len(removed)
		if len(removed) < s.sweepBatch {
			return total, nil
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
}

func (s *Service) remove(ctx context.Context, p *types.Presentation, reason string) error {
	if err := s.store.DeletePresentation(ctx, p); err != nil {
		return fmt.Errorf("failed to delete presentation: %w", err)
	}
	s.afterRemove(ctx, p, reason)
	return nil
}

func (s *Service) afterRemove(ctx context.Context, p *types.Presentation, reason string) {
	if s.notifier != nil {
		s.notifier.PresentationRemoved(p.ScreenCode, reason)
	}
	if s.archive != nil && p.ArchiveKey != "" {
		if err := s.archive.DeleteOriginal(ctx, p.ArchiveKey); err != nil {
			s.logger.Warn("Failed to delete archived original",
				slog.String("archive_key", p.ArchiveKey),
				slog.String("error", err.Error()))
		}
	}
}
