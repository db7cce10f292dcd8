// Package models defines the data structures exchanged with the Banking AI Engine
// and held by the chat session.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AnalysisResult is the structured complaint analysis returned by POST /analyze.
// Every field is optional: the engine performs no schema validation and rendering
// must tolerate any field being absent.
type AnalysisResult struct {
	TicketTitle        *string  `json:"ticket_title,omitempty"`
	ComplaintType      *string  `json:"complaint_type,omitempty"`
	SubCategory        *string  `json:"sub_category,omitempty"`
	Priority           *string  `json:"priority,omitempty"`
	RiskScore          *float64 `json:"risk_score,omitempty"`
	RiskLevel          *string  `json:"risk_level,omitempty"`
	Sentiment          *string  `json:"sentiment,omitempty"`
	SLAHours           *float64 `json:"SLA_hours,omitempty"`
	Summary            *string  `json:"summary,omitempty"`
	ResolutionSteps    []string `json:"resolution_steps,omitempty"`
	AgentReply         *string  `json:"agent_reply,omitempty"`
	EscalationRequired *bool    `json:"escalation_required,omitempty"`
	HandledBy          *string  `json:"handled_by,omitempty"`
	TicketDepartment   *string  `json:"ticket_department,omitempty"`
	Metrics            *Metrics `json:"metrics,omitempty"`

	// Error is set by the engine (with HTTP 200) when its model output was unusable.
	Error       *string `json:"error,omitempty"`
	RawResponse *string `json:"raw_response,omitempty"`
}

// Metrics holds the engine-side measurements attached to a result.
type Metrics struct {
	InputWordCount      *float64 `json:"input_word_count,omitempty"`
	ResponseTimeSeconds *float64 `json:"response_time_seconds,omitempty"`
}

// IsEmpty reports whether no renderable field is present.
func (r *AnalysisResult) IsEmpty() bool {
	if r == nil {
		return true
	}
	return r.TicketTitle == nil && r.ComplaintType == nil && r.SubCategory == nil &&
		r.Priority == nil && r.RiskScore == nil && r.RiskLevel == nil &&
		r.Sentiment == nil && r.SLAHours == nil && r.Summary == nil &&
		len(r.ResolutionSteps) == 0 && r.AgentReply == nil &&
		r.EscalationRequired == nil && r.HandledBy == nil && r.TicketDepartment == nil
}

// EngineError returns the engine-reported error message, if any.
func (r *AnalysisResult) EngineError() string {
	if r == nil || r.Error == nil {
		return ""
	}
	return strings.TrimSpace(*r.Error)
}

// UnmarshalJSON decodes the result field by field. A field whose value has an
// unexpected type is treated as absent instead of failing the whole document.
func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode analysis result: %w", err)
	}

	*r = AnalysisResult{
		TicketTitle:        optString(raw["ticket_title"]),
		ComplaintType:      optString(raw["complaint_type"]),
		SubCategory:        optString(raw["sub_category"]),
		Priority:           optString(raw["priority"]),
		RiskScore:          optNumber(raw["risk_score"]),
		RiskLevel:          optString(raw["risk_level"]),
		Sentiment:          optString(raw["sentiment"]),
		SLAHours:           optNumber(raw["SLA_hours"]),
		Summary:            optString(raw["summary"]),
		ResolutionSteps:    optStrings(raw["resolution_steps"]),
		AgentReply:         optString(raw["agent_reply"]),
		EscalationRequired: optBool(raw["escalation_required"]),
		HandledBy:          optString(raw["handled_by"]),
		TicketDepartment:   optString(raw["ticket_department"]),
		Error:              optString(raw["error"]),
		RawResponse:        optString(raw["raw_response"]),
	}

	if m, ok := raw["metrics"]; ok {
		var fields map[string]json.RawMessage
		if json.Unmarshal(m, &fields) == nil && fields != nil {
			r.Metrics = &Metrics{
				InputWordCount:      optNumber(fields["input_word_count"]),
				ResponseTimeSeconds: optNumber(fields["response_time_seconds"]),
			}
		}
	}

	return nil
}

func isNull(b json.RawMessage) bool {
	return len(b) == 0 || bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

func optString(b json.RawMessage) *string {
	if isNull(b) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	return &s
}

// optNumber accepts a JSON number or a numeric string ("72", "24.5").
// NaN and infinities are treated as absent.
func optNumber(b json.RawMessage) *float64 {
	if isNull(b) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func optBool(b json.RawMessage) *bool {
	if isNull(b) {
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	return &v
}

// optStrings keeps the string items of a JSON array in order and drops the rest.
func optStrings(b json.RawMessage) []string {
	if isNull(b) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return nil
	}
	var out []string
	for _, item := range items {
		if s := optString(item); s != nil {
			out = append(out, *s)
		}
	}
	return out
}
