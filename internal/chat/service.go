// Package chat runs exchanges against the Banking AI Engine.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/bankchat/internal/client"
	"github.com/raphaelgruber/bankchat/internal/conversation"
	"github.com/raphaelgruber/bankchat/internal/extract"
	"github.com/raphaelgruber/bankchat/internal/models"
)

// Error kinds, logged for every failed exchange.
const (
	KindNetwork    = "network"
	KindServer     = "server"
	KindParse      = "parse"
	KindExtraction = "extraction"
	KindUnknown    = "unknown"
)

// Analyzer sends a query to the engine.
type Analyzer interface {
	Analyze(ctx context.Context, query string) (*models.AnalysisResult, error)
}

// Extractor reads the text of a document.
type Extractor interface {
	ExtractFile(ctx context.Context, path string) (string, error)
}

// Outcome is the settled result of one exchange.
type Outcome struct {
	ExchangeID uint64
	Result     *models.AnalysisResult
	Err        error
	Kind       string
}

// Failed reports whether the exchange failed.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// FailureText is the single message the user sees for a failed exchange.
func (o Outcome) FailureText() string {
	if o.Kind == KindExtraction {
		return conversation.ExtractionFailureText
	}
	return conversation.FailureText
}

// Service runs exchanges. It is safe for concurrent use when its
// Analyzer and Extractor are.
type Service struct {
	analyzer  Analyzer
	extractor Extractor
	logger    *slog.Logger
}

// NewService creates a chat service.
func NewService(analyzer Analyzer, extractor Extractor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		analyzer:  analyzer,
		extractor: extractor,
		logger:    logger,
	}
}

// Run performs the exchange: for a file, extraction completes before the
// analysis request is issued, and a failed extraction issues no request.
func (s *Service) Run(ctx context.Context, ex conversation.Exchange) Outcome {
	start := time.Now()
	out := s.run(ctx, ex)

	attrs := []any{
		"exchange_id", ex.ID,
		"file", ex.IsFile(),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if out.Failed() {
		s.logger.Warn("exchange failed", append(attrs, "kind", out.Kind, "error", out.Err)...)
	} else {
		s.logger.Info("exchange settled", attrs...)
	}
	return out
}

func (s *Service) run(ctx context.Context, ex conversation.Exchange) Outcome {
	out := Outcome{ExchangeID: ex.ID}

	query := ex.Query
	if ex.IsFile() {
		text, err := s.extractor.ExtractFile(ctx, ex.Path)
		if err == nil && strings.TrimSpace(text) == "" {
			err = &extract.ExtractionError{Path: ex.Path, Err: extract.ErrNoText}
		}
		if err != nil {
			out.Err, out.Kind = err, KindExtraction
			return out
		}
		query = text
	}

	result, err := s.analyzer.Analyze(ctx, query)
	if err != nil {
		out.Err, out.Kind = err, Kind(err)
		return out
	}

	out.Result = result
	return out
}

// Apply settles the outcome's exchange in st.
func Apply(st conversation.State, o Outcome) conversation.State {
	if o.Failed() {
		return conversation.Fail(st, o.ExchangeID, o.FailureText())
	}
	return conversation.Resolve(st, o.ExchangeID, o.Result)
}

// Kind classifies err into one of the error kinds.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, extract.ErrExtraction):
		return KindExtraction
	case errors.Is(err, client.ErrNetwork):
		return KindNetwork
	case errors.Is(err, client.ErrServer):
		return KindServer
	case errors.Is(err, client.ErrParse):
		return KindParse
	default:
		return KindUnknown
	}
}
