package slides

import (
	"fmt"
	"strings"
)

const (
	MimePDF  = "application/pdf"
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeJPG  = "image/jpg"
	MimeGIF  = "image/gif"

	MimePPT  = "application/vnd.ms-powerpoint"
	MimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

var supportedTypes = []string{MimePDF, MimePNG, MimeJPEG, MimeJPG, MimeGIF}

var notImplementedTypes = []string{MimePPT, MimePPTX}

// SupportedTypes lists the MIME types an upload may declare.
func SupportedTypes() []string {
	out := make([]string, len(supportedTypes))
	copy(out, supportedTypes)
	return out
}

// UnsupportedFormatError rejects a declared MIME type. NotImplemented marks
// formats that are planned (PowerPoint) as opposed to never supported.
type UnsupportedFormatError struct {
	MimeType       string
	NotImplemented bool
}

func (e *UnsupportedFormatError) Error() string {
	if e.NotImplemented {
		return fmt.Sprintf("processing of %s is not implemented yet", e.MimeType)
	}
	return fmt.Sprintf("file type %s is not supported", e.MimeType)
}

// CheckMimeType validates a declared type against the allow-list without
// looking at any bytes.
func CheckMimeType(mimeType string) error {
	mimeType = NormalizeMime(mimeType)
	for _, t := range supportedTypes {
		if t == mimeType {
			return nil
		}
	}
	for _, t := range notImplementedTypes {
		if t == mimeType {
			return &UnsupportedFormatError{MimeType: mimeType, NotImplemented: true}
		}
	}
	return &UnsupportedFormatError{MimeType: mimeType}
}

// NormalizeMime drops MIME parameters and lower-cases the type.
func NormalizeMime(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

func isImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}
