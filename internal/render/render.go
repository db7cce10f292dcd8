// Package render turns analysis results into display text.
// Absent or blank fields are omitted, never shown as placeholders.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/raphaelgruber/bankchat/internal/models"
)

// EmptyText is shown for a result without any renderable field.
const EmptyText = "The engine returned no analysis details."

// Field is one labelled line of a rendered result.
type Field struct {
	Label string
	Value string
}

// Fields returns the present header fields of r in display order.
func Fields(r *models.AnalysisResult) []Field {
	if r == nil {
		return nil
	}

	var out []Field
	add := func(label string, v *string) {
		if v == nil {
			return
		}
		if s := strings.TrimSpace(*v); s != "" {
			out = append(out, Field{Label: label, Value: s})
		}
	}

	add("Ticket", r.TicketTitle)
	add("Category", r.ComplaintType)
	add("Sub-category", r.SubCategory)
	add("Priority", r.Priority)
	if r.RiskScore != nil {
		out = append(out, Field{Label: "Risk score", Value: Number(*r.RiskScore) + "/100"})
	}
	add("Risk level", r.RiskLevel)
	add("Sentiment", r.Sentiment)
	if r.SLAHours != nil {
		out = append(out, Field{Label: "SLA", Value: Number(*r.SLAHours) + "h"})
	}
	if r.EscalationRequired != nil {
		out = append(out, Field{Label: "Escalation", Value: yesNo(*r.EscalationRequired)})
	}
	add("Handled by", r.HandledBy)
	add("Department", r.TicketDepartment)

	return out
}

// Summary returns the trimmed summary, or "".
func Summary(r *models.AnalysisResult) string {
	if r == nil || r.Summary == nil {
		return ""
	}
	return strings.TrimSpace(*r.Summary)
}

// Reply returns the trimmed draft agent reply, or "".
func Reply(r *models.AnalysisResult) string {
	if r == nil || r.AgentReply == nil {
		return ""
	}
	return strings.TrimSpace(*r.AgentReply)
}

// Steps returns the non-blank resolution steps in order.
func Steps(r *models.AnalysisResult) []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, s := range r.ResolutionSteps {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Timing returns the engine-side processing time, or "".
func Timing(r *models.AnalysisResult) string {
	if r == nil || r.Metrics == nil || r.Metrics.ResponseTimeSeconds == nil {
		return ""
	}
	return Number(*r.Metrics.ResponseTimeSeconds) + "s"
}

// HasContent reports whether anything in r would be rendered.
func HasContent(r *models.AnalysisResult) bool {
	return len(Fields(r)) > 0 || Summary(r) != "" || len(Steps(r)) > 0 || Reply(r) != ""
}

// Plain renders r as plain text.
func Plain(r *models.AnalysisResult) string {
	if !HasContent(r) {
		return EmptyText
	}

	var b strings.Builder
	fields := Fields(r)
	width := 0
	for _, f := range fields {
		width = max(width, len(f.Label))
	}
	for _, f := range fields {
		fmt.Fprintf(&b, "%-*s  %s\n", width+1, f.Label+":", f.Value)
	}

	if s := Summary(r); s != "" {
		section(&b, "Summary")
		b.WriteString(s + "\n")
	}
	if steps := Steps(r); len(steps) > 0 {
		section(&b, "Resolution steps")
		for i, s := range steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
	}
	if s := Reply(r); s != "" {
		section(&b, "Agent reply")
		b.WriteString(s + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func section(b *strings.Builder, title string) {
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(title + ":\n")
}

// Number formats f without trailing zeros.
func Number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
