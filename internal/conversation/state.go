// Package conversation holds the chat session state and its transitions.
//
// State is a value: every transition returns a new State and leaves the one it
// was given untouched, so the view can be driven and tested without a terminal.
// The message sequence is append-only.
package conversation

import (
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/raphaelgruber/bankchat/internal/models"
)

// Fixed bot texts.
const (
	WelcomeText           = "👋 Hello! Describe your banking complaint, or press ctrl+o to upload a PDF."
	FailureText           = "❌ Unable to connect to Banking AI Engine."
	ExtractionFailureText = "❌ Could not read the selected document."
)

// Ordering decides where bot replies land when several exchanges overlap.
type Ordering int

const (
	// OrderArrival appends each reply as soon as it arrives.
	OrderArrival Ordering = iota
	// OrderSubmission holds a reply until every earlier exchange has settled.
	OrderSubmission
)

// ParseOrdering maps a config value to an Ordering. Unknown values mean arrival.
func ParseOrdering(s string) Ordering {
	if strings.EqualFold(s, "submission") {
		return OrderSubmission
	}
	return OrderArrival
}

func (o Ordering) String() string {
	if o == OrderSubmission {
		return "submission"
	}
	return "arrival"
}

// Exchange is one submission awaiting its bot reply.
type Exchange struct {
	ID    uint64
	Query string // typed text; empty for file exchanges
	Path  string // selected file; empty for typed exchanges
}

// IsFile reports whether the exchange was started by a file selection.
func (e Exchange) IsFile() bool {
	return e.Path != ""
}

// State is the conversation plus the exchanges still in flight.
type State struct {
	messages     []models.Message
	nextMessage  uint64
	nextExchange uint64
	inflight     map[uint64]Exchange
	held         map[uint64]models.Message
	ordering     Ordering
	now          func() time.Time
}

// New returns an empty conversation.
func New(ordering Ordering) State {
	return State{ordering: ordering, now: time.Now}
}

// WithClock returns a copy of s that stamps messages using now.
func (s State) WithClock(now func() time.Time) State {
	s.now = now
	return s
}

// Messages returns the conversation in display order.
func (s State) Messages() []models.Message {
	return slices.Clone(s.messages)
}

// Len returns the number of messages.
func (s State) Len() int {
	return len(s.messages)
}

// Loading reports whether any exchange is still in flight.
func (s State) Loading() bool {
	return len(s.inflight) > 0
}

// InFlight returns the number of unsettled exchanges.
func (s State) InFlight() int {
	return len(s.inflight)
}

// Ordering returns the reply ordering mode.
func (s State) Ordering() Ordering {
	return s.ordering
}

// AppendNotice appends a bot text that belongs to no exchange.
func AppendNotice(s State, text string) State {
	return s.appendMessage(models.Message{Sender: models.SenderBot, Text: text})
}

// SubmitText starts an exchange for typed text. Empty or whitespace-only
// input is rejected: the state is returned unchanged and ok is false.
func SubmitText(s State, text string) (next State, ex Exchange, ok bool) {
	query := strings.TrimSpace(text)
	if query == "" {
		return s, Exchange{}, false
	}

	s, ex = s.begin(Exchange{Query: query})
	s = s.appendMessage(models.Message{Sender: models.SenderUser, Text: query})
	return s, ex, true
}

// SubmitFile starts an exchange for a selected document. The user message
// records the file name.
func SubmitFile(s State, path string) (State, Exchange) {
	s, ex := s.begin(Exchange{Path: path})
	s = s.appendMessage(models.Message{Sender: models.SenderUser, Text: "📄 " + filepath.Base(path)})
	return s, ex
}

// Resolve settles exchange id with an analysis result.
// Settling an unknown or already settled exchange is a no-op.
func Resolve(s State, id uint64, result *models.AnalysisResult) State {
	if result == nil {
		return Fail(s, id, FailureText)
	}
	return s.settle(id, models.Message{Sender: models.SenderBot, Analysis: result})
}

// Fail settles exchange id with a fixed failure text.
// Settling an unknown or already settled exchange is a no-op.
func Fail(s State, id uint64, text string) State {
	return s.settle(id, models.Message{Sender: models.SenderBot, Text: text})
}

func (s State) begin(ex Exchange) (State, Exchange) {
	s.nextExchange++
	ex.ID = s.nextExchange
	s.inflight = maps.Clone(s.inflight)
	if s.inflight == nil {
		s.inflight = make(map[uint64]Exchange)
	}
	s.inflight[ex.ID] = ex
	return s, ex
}

func (s State) settle(id uint64, reply models.Message) State {
	if _, ok := s.inflight[id]; !ok {
		return s
	}

	s.inflight = maps.Clone(s.inflight)
	delete(s.inflight, id)

	if s.ordering == OrderArrival {
		return s.appendMessage(reply)
	}

	reply.At = s.stamp()
	s.held = maps.Clone(s.held)
	if s.held == nil {
		s.held = make(map[uint64]models.Message)
	}
	s.held[id] = reply
	return s.flush()
}

// flush appends held replies whose earlier exchanges have all settled.
func (s State) flush() State {
	ids := slices.Sorted(maps.Keys(s.held))
	for _, id := range ids {
		if s.hasInflightBefore(id) {
			break
		}
		s = s.appendMessage(s.held[id])
		s.held = maps.Clone(s.held)
		delete(s.held, id)
	}
	return s
}

func (s State) hasInflightBefore(id uint64) bool {
	for other := range s.inflight {
		if other < id {
			return true
		}
	}
	return false
}

func (s State) appendMessage(m models.Message) State {
	s.nextMessage++
	m.ID = s.nextMessage
	if m.At.IsZero() {
		m.At = s.stamp()
	}
	// Never write into a backing array shared with an earlier State.
	s.messages = append(slices.Clip(s.messages), m)
	return s
}

func (s State) stamp() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
