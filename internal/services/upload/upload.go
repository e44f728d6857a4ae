// Package upload turns an uploaded file into a stored presentation and
// charges its size to the uploader's quota.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/princekumarofficial/zcreens-service/internal/services/presentations"
	"github.com/princekumarofficial/zcreens-service/internal/services/quota"
	"github.com/princekumarofficial/zcreens-service/internal/services/slides"
	"github.com/princekumarofficial/zcreens-service/internal/types"
	"github.com/princekumarofficial/zcreens-service/internal/types/users"
)

var (
	ErrUnauthorized = errors.New("authentication required")
	ErrBufferRead   = errors.New("unable to read file data")
	ErrFileTooLarge = errors.New("file exceeds the maximum upload size")
)

// ProcessingFailedError wraps an extraction failure that no fallback
// absorbed. Retrying the same upload is safe.
type ProcessingFailedError struct {
	Err error
}

func (e *ProcessingFailedError) Error() string {
	return "file processing failed: " + e.Err.Error()
}

func (e *ProcessingFailedError) Unwrap() error { return e.Err }

type Extractor interface {
	Extract(ctx context.Context, data []byte, fileName, mimeType string) ([]types.Slide, error)
}

// Archiver keeps a copy of the original upload outside the database.
type Archiver interface {
	ObjectKey(userID, presentationID, fileName string) string
	ArchiveOriginal(ctx context.Context, key, mimeType string, data []byte) error
}

type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// StorageInfo is the before/after usage reported to the uploader.
type StorageInfo struct {
	PreviousUsage    string     `json:"previousUsage"`
	NewUsage         string     `json:"newUsage"`
	TotalLimit       string     `json:"totalLimit"`
	RemainingStorage string     `json:"remainingStorage"`
	Plan             users.Plan `json:"plan"`
}

type Result struct {
	Presentation *types.Presentation `json:"presentation"`
	ScreenCode   string              `json:"screenCode"`
	SlideshowURL string              `json:"slideshowUrl"`
	Message      string              `json:"message"`
	StorageInfo  StorageInfo         `json:"storageInfo"`
}

type Service struct {
	extractor     Extractor
	presentations *presentations.Service
	quota         *quota.Service
	archiver      Archiver
	logger        *slog.Logger
}

func NewService(extractor Extractor, p *presentations.Service, q *quota.Service, archiver Archiver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		extractor:     extractor,
		presentations: p,
		quota:         q,
		archiver:      archiver,
		logger:        logger,
	}
}

// ReadFile reads at most limit bytes from r. A limit of zero disables the
// check.
func ReadFile(r io.Reader, limit int64) ([]byte, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBufferRead, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

// Upload validates, extracts and stores file for account. Validation
// failures are returned before any extraction work happens, and the quota
// is charged only after the presentation has been stored.
func (s *Service) Upload(ctx context.Context, account *users.Account, file File) (*Result, error) {
	if account == nil {
		return nil, ErrUnauthorized
	}
	if err := slides.CheckMimeType(file.MimeType); err != nil {
		return nil, err
	}

	fileSizeMB := quota.BytesToMB(int64(len(file.Data)))
	if err := quota.Check(account, fileSizeMB); err != nil {
		s.logger.Info("Upload rejected for insufficient storage",
			slog.String("user_id", account.ID),
			slog.Float64("file_size_mb", fileSizeMB),
			slog.Float64("available_mb", quota.Available(account)))
		return nil, err
	}

	extracted, err := s.extractor.Extract(ctx, file.Data, file.Name, file.MimeType)
	if err != nil {
		var unsupported *slides.UnsupportedFormatError
		if errors.As(err, &unsupported) {
			return nil, err
		}
		return nil, &ProcessingFailedError{Err: err}
	}

	p := &types.Presentation{
		ID:          uuid.NewString(),
		ScreenCode:  s.presentations.NewCode(),
		UserID:      account.ID,
		FileName:    file.Name,
		FileSize:    int64(len(file.Data)),
		FileType:    slides.NormalizeMime(file.MimeType),
		Slides:      extracted,
		TotalSlides: len(extracted),
	}
	if s.archiver != nil {
		p.ArchiveKey = s.archiver.ObjectKey(account.ID, p.ID, file.Name)
	}

	created, err := s.presentations.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	usage, err := s.quota.Reserve(ctx, account, fileSizeMB)
	if err != nil {
		s.logger.Error("Storage charge failed, removing presentation",
			slog.String("screen_code", created.ScreenCode),
			slog.String("error", err.Error()))
		if delErr := s.presentations.Delete(ctx, created); delErr != nil {
			s.logger.Error("Failed to remove uncharged presentation",
				slog.String("screen_code", created.ScreenCode),
				slog.String("error", delErr.Error()))
		}
		return nil, err
	}

	s.archive(ctx, created, file)

	s.logger.Info("Presentation uploaded",
		slog.String("user_id", account.ID),
		slog.String("screen_code", created.ScreenCode),
		slog.Int("slides", created.TotalSlides),
		slog.Float64("file_size_mb", fileSizeMB))

	return &Result{
		Presentation: created,
		ScreenCode:   created.ScreenCode,
		SlideshowURL: "/slideshow/" + created.ScreenCode,
		Message:      summary(created.TotalSlides),
		StorageInfo: StorageInfo{
			PreviousUsage:    quota.FormatMB(usage.PreviousMB),
			NewUsage:         quota.FormatMB(usage.NewMB),
			TotalLimit:       quota.FormatMB(usage.LimitMB),
			RemainingStorage: quota.FormatMB(usage.RemainingMB()),
			Plan:             usage.Plan,
		},
	}, nil
}

// archive stores the original bytes. Failures are logged; the presentation
// is already committed and playable without them.
func (s *Service) archive(ctx context.Context, p *types.Presentation, file File) {
	if s.archiver == nil || p.ArchiveKey == "" {
		return
	}
	if err := s.archiver.ArchiveOriginal(ctx, p.ArchiveKey, p.FileType, file.Data); err != nil {
		s.logger.Warn("Failed to archive original upload",
			slog.String("screen_code", p.ScreenCode),
			slog.String("archive_key", p.ArchiveKey),
			slog.String("error", err.Error()))
	}
}

func summary(n int) string {
	if n == 1 {
		return "Successfully processed 1 slide"
	}
	return fmt.Sprintf("Successfully processed %d slides", n)
}
