// Package slides turns an uploaded document into an ordered list of slide
// images.
//
// PDFs are not rasterised. Each page becomes a descriptive card naming the
// file, the page and what was detected about the document. The page count
// comes from the first strategy in the pipeline that succeeds:
// structured-parse, then page-marker-scan. If rendering the cards fails, a
// fixed set of three cards is produced instead.
package slides

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/princekumarofficial/zcreens-service/internal/types"
)

var ErrEmptyImage = errors.New("failed to process image: empty payload")

type Extractor struct {
	maxSlides  int
	now        func() time.Time
	logger     *slog.Logger
	strategies []pageCountStrategy
	render     func(pageCard) (string, error)
}

type Option func(*Extractor)

// WithMaxSlides caps the number of slides produced for one document.
func WithMaxSlides(n int) Option {
	return func(e *Extractor) { e.maxSlides = n }
}

func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		now:        time.Now,
		logger:     slog.Default(),
		strategies: []pageCountStrategy{structuredParse{}, pageMarkerScan{}},
		render:     renderPageCard,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract produces at least one slide for data. The MIME type must already
// have passed CheckMimeType; anything else is rejected again here.
func (e *Extractor) Extract(ctx context.Context, data []byte, fileName, mimeType string) ([]types.Slide, error) {
	if err := CheckMimeType(mimeType); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mimeType = NormalizeMime(mimeType)
	switch {
	case mimeType == MimePDF:
		return e.extractPDF(data, fileName)
	case isImage(mimeType):
		return extractImage(data, mimeType)
	}
	return nil, &UnsupportedFormatError{MimeType: mimeType}
}

func (e *Extractor) extractPDF(data []byte, fileName string) ([]types.Slide, error) {
	info, skipped := inspectPDF(e.strategies, data)
	for _, err := range skipped {
		e.logger.Info("PDF inspection strategy skipped",
			slog.String("file_name", fileName),
			slog.String("reason", err.Error()))
	}

	processedAt := processedDate(e.now())
	slides, err := e.renderPages(fileName, info.Pages, int64(len(data))/1024, info.HasText, processedAt)
	if err == nil {
		e.logger.Info("PDF slides generated",
			slog.String("file_name", fileName),
			slog.String("strategy", info.Strategy),
			slog.Int("pages", info.Pages),
			slog.Int("slides", len(slides)))
		return slides, nil
	}

	e.logger.Warn("PDF slide generation failed, using fixed fallback",
		slog.String("file_name", fileName),
		slog.String("error", err.Error()))

	slides, err = e.renderPages(fileName, defaultPageCount, 0, false, processedAt)
	if err != nil {
		return nil, fmt.Errorf("fallback slide generation failed: %w", err)
	}
	return slides, nil
}

func (e *Extractor) renderPages(fileName string, pages int, sizeKB int64, hasText bool, processedAt string) ([]types.Slide, error) {
	count := pages
	if e.maxSlides > 0 && count > e.maxSlides {
		count = e.maxSlides
	}

	slides := make([]types.Slide, 0, count)
	for page := 1; page <= count; page++ {
		img, err := e.render(pageCard{
			FileName:      fileName,
			ShortName:     shortName(fileName),
			PageNumber:    page,
			TotalPages:    count,
			DocumentPages: pages,
			FileSizeKB:    sizeKB,
			HasText:       hasText,
			ProcessedAt:   processedAt,
			Width:         types.DefaultSlideWidth,
			Height:        types.DefaultSlideHeight,
		})
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		slides = append(slides, nominalSlide(page, img))
	}
	return slides, nil
}

// extractImage embeds the original bytes as a single slide. Dimensions are
// nominal, not decoded from the image.
func extractImage(data []byte, mimeType string) ([]types.Slide, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	uri := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
	return []types.Slide{nominalSlide(1, uri)}, nil
}
