// Package extract turns uploaded documents into a single query string.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/raphaelgruber/bankchat/internal/metrics"
	"rsc.io/pdf"
)

// DefaultMaxBytes is the default upload size limit.
const DefaultMaxBytes = 20 << 20

// SupportedExtensions lists the file types the extractor accepts.
var SupportedExtensions = []string{".pdf", ".txt"}

// Extractor reads text out of PDF and plain-text documents.
type Extractor struct {
	maxBytes int64
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxBytes sets the file size limit.
func WithMaxBytes(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxBytes = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records extraction timings into m.
func WithMetrics(m *metrics.Collector) Option {
	return func(e *Extractor) {
		e.metrics = m
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		maxBytes: DefaultMaxBytes,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractFile extracts the text of the document at path, dispatching on its
// extension. Any failure discards text already extracted.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (string, error) {
	start := time.Now()
	text, err := e.extractFile(ctx, path)
	e.metrics.RecordTiming(metrics.OpExtract, time.Since(start), err != nil)

	if err != nil {
		e.logger.Warn("extraction failed", "file", filepath.Base(path), "error", err)
		return "", err
	}
	e.logger.Debug("extraction completed",
		"file", filepath.Base(path),
		"chars", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (e *Extractor) extractFile(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(path) {
		return "", &ExtractionError{Path: path, Err: fmt.Errorf("%w: %q", ErrUnsupportedType, ext)}
	}

	f, err := os.Open(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}
	if info.Size() > e.maxBytes {
		return "", &ExtractionError{Path: path, Err: fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, info.Size(), e.maxBytes)}
	}

	var text string
	switch ext {
	case ".pdf":
		text, err = ExtractPDF(ctx, f, info.Size())
	case ".txt":
		text, err = ExtractPlain(f)
	}
	if err != nil {
		var ee *ExtractionError
		if errors.As(err, &ee) {
			ee.Path = path
		}
		return "", err
	}
	return text, nil
}

// Supported reports whether the extractor handles the file's extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ExtractPlain reads a UTF-8 text document.
func ExtractPlain(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &ExtractionError{Err: err}
	}
	if !utf8.Valid(data) {
		return "", &ExtractionError{Err: fmt.Errorf("text is not valid UTF-8")}
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", &ExtractionError{Err: ErrNoText}
	}
	return text, nil
}

// ExtractPDF extracts the text of a PDF document, pages in order.
func ExtractPDF(ctx context.Context, r io.ReaderAt, size int64) (string, error) {
	doc, err := openPDF(r, size)
	if err != nil {
		return "", &ExtractionError{Err: err}
	}
	return joinPages(ctx, doc)
}

// pageSource yields the text runs of each page, 1-indexed.
type pageSource interface {
	NumPage() int
	PageRuns(i int) ([]string, error)
}

// joinPages joins the runs of each page with a single space, then joins the
// pages with a single space. Pages without text are skipped. Pages are read
// one at a time, in order.
func joinPages(ctx context.Context, src pageSource) (string, error) {
	var pages []string
	for i := 1; i <= src.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", &ExtractionError{Page: i, Err: err}
		}

		runs, err := src.PageRuns(i)
		if err != nil {
			return "", &ExtractionError{Page: i, Err: err}
		}
		if len(runs) == 0 {
			continue
		}
		pages = append(pages, strings.Join(runs, " "))
	}

	text := strings.Join(pages, " ")
	if strings.TrimSpace(text) == "" {
		return "", &ExtractionError{Err: ErrNoText}
	}
	return text, nil
}

// pdfDocument adapts rsc.io/pdf to pageSource. The library reports malformed
// content by panicking, so every call into it is guarded.
type pdfDocument struct {
	r     *pdf.Reader
	pages int
}

func openPDF(r io.ReaderAt, size int64) (doc *pdfDocument, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("open pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &pdfDocument{r: reader, pages: reader.NumPage()}, nil
}

func (d *pdfDocument) NumPage() int {
	return d.pages
}

func (d *pdfDocument) PageRuns(i int) (runs []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			runs, err = nil, fmt.Errorf("decode page: %v", rec)
		}
	}()

	p := d.r.Page(i)
	if p.V.IsNull() {
		return nil, nil
	}
	return groupRuns(p.Content().Text, wordBreaks(p)), nil
}
