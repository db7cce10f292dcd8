package models

import "time"

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is a single entry in the conversation. Messages are never mutated
// once appended.
type Message struct {
	ID       uint64          `json:"id"`
	Sender   Sender          `json:"sender"`
	Text     string          `json:"text,omitempty"`
	Analysis *AnalysisResult `json:"analysis,omitempty"`
	At       time.Time       `json:"at"`
}

// IsAnalysis reports whether the message carries a structured result.
func (m Message) IsAnalysis() bool {
	return m.Analysis != nil
}
