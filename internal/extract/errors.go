package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrExtraction is the root of every extraction failure.
	ErrExtraction = errors.New("document could not be read")

	// ErrNoText indicates the document opened fine but contained no text.
	ErrNoText = errors.New("no text found in document")

	// ErrUnsupportedType indicates a file extension the extractor does not handle.
	ErrUnsupportedType = errors.New("unsupported document type")

	// ErrTooLarge indicates the file exceeds the configured size limit.
	ErrTooLarge = errors.New("document too large")
)

// ExtractionError describes where extraction failed.
// It matches ErrExtraction and the underlying cause with errors.Is.
type ExtractionError struct {
	Path string
	Page int // 0 when the failure is not tied to a page
	Err  error
}

func (e *ExtractionError) Error() string {
	where := e.Path
	if where == "" {
		where = "document"
	}
	if e.Page > 0 {
		return fmt.Sprintf("extract %s page %d: %v", where, e.Page, e.Err)
	}
	return fmt.Sprintf("extract %s: %v", where, e.Err)
}

func (e *ExtractionError) Unwrap() []error {
	return []error{ErrExtraction, e.Err}
}
