package slides

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/ledongthuc/pdf"
)

const defaultPageCount = 3

// errNextStrategy tells the pipeline to fall through to the next strategy.
var errNextStrategy = errors.New("slides: try next strategy")

type pdfInfo struct {
	Pages    int
	HasText  bool
	Strategy string
}

type pageCountStrategy interface {
	Name() string
	Inspect(data []byte) (pdfInfo, error)
}

// structuredParse reads the document with a real PDF parser.
type structuredParse struct{}

func (structuredParse) Name() string { return "structured-parse" }

func (s structuredParse) Inspect(data []byte) (info pdfInfo, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			info, err = pdfInfo{}, fmt.Errorf("%w: parser panic: %v", errNextStrategy, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return pdfInfo{}, fmt.Errorf("%w: %v", errNextStrategy, err)
	}

	info = pdfInfo{Pages: r.NumPage(), Strategy: s.Name()}
	if info.Pages <= 0 {
		info.Pages = defaultPageCount
	}

	text, err := r.GetPlainText()
	if err != nil {
		return pdfInfo{}, fmt.Errorf("%w: %v", errNextStrategy, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(text, 1<<20)); err != nil {
		return pdfInfo{}, fmt.Errorf("%w: %v", errNextStrategy, err)
	}
	info.HasText = len(bytes.TrimSpace(buf.Bytes())) > 0

	return info, nil
}

var pageMarker = regexp.MustCompile(`/Type\s*/Page[^s]`)

// pageMarkerScan estimates the page count from page object markers in the
// raw buffer. It never fails.
type pageMarkerScan struct{}

func (pageMarkerScan) Name() string { return "page-marker-scan" }

func (s pageMarkerScan) Inspect(data []byte) (pdfInfo, error) {
	pages := len(pageMarker.FindAllIndex(data, -1))
	if pages == 0 {
		pages = defaultPageCount
	}
	return pdfInfo{Pages: pages, Strategy: s.Name()}, nil
}

func inspectPDF(strategies []pageCountStrategy, data []byte) (pdfInfo, []error) {
	var skipped []error
	for _, s := range strategies {
		info, err := s.Inspect(data)
		if err == nil {
			return info, skipped
		}
		skipped = append(skipped, fmt.Errorf("%s: %w", s.Name(), err))
	}
	return pdfInfo{Pages: defaultPageCount, Strategy: "default"}, skipped
}
