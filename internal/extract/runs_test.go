package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"rsc.io/pdf"
)

// glyphs lays out s left to right starting at x on baseline y, one glyph per
// rune. Like pdf.Page.Content, spaces advance the position but emit no glyph.
func glyphs(s string, x, y float64) []pdf.Text {
	const size, width = 12, 6
	var out []pdf.Text
	for _, r := range s {
		if r != ' ' {
			out = append(out, pdf.Text{Font: "Helvetica", FontSize: size, X: x, Y: y, W: width, S: string(r)})
		}
		x += width
	}
	return out
}

// unspaced lays out s as a font without /Widths does: every glyph at x,
// spaces dropped.
func unspaced(s string, x, y float64) []pdf.Text {
	var out []pdf.Text
	for _, r := range s {
		if r != ' ' {
			out = append(out, pdf.Text{Font: "Helvetica", FontSize: 12, X: x, Y: y, S: string(r)})
		}
	}
	return out
}

func concat(parts ...[]pdf.Text) []pdf.Text {
	var out []pdf.Text
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestGroupRuns(t *testing.T) {
	tests := []struct {
		name string
		in   []pdf.Text
		want []string
	}{
		{"empty", nil, nil},
		{"single word", glyphs("Hello", 0, 700), []string{"Hello"}},
		{"advance past space splits", glyphs("Hello World", 0, 700), []string{"Hello", "World"}},
		{"repeated spaces", glyphs("a   b", 0, 700), []string{"a", "b"}},
		{"horizontal gap splits", concat(glyphs("Card", 0, 700), glyphs("fee", 60, 700)), []string{"Card", "fee"}},
		{"adjacent glyphs merge", concat(glyphs("Ban", 0, 700), glyphs("k", 18, 700)), []string{"Bank"}},
		{"baseline change splits", concat(glyphs("line", 0, 700), glyphs("two", 24, 680)), []string{"line", "two"}},
		{"leading and trailing space", glyphs(" refund ", 0, 700), []string{"refund"}},
		{"tab glyph splits", concat(glyphs("a", 0, 700), glyphs("\t", 6, 700), glyphs("b", 12, 700)), []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, groupRuns(tt.in, nil))
		})
	}
}

func TestGroupRunsWithoutWidths(t *testing.T) {
	tests := []struct {
		name string
		in   []pdf.Text
		want []string
	}{
		{"same placement merges", unspaced("Card", 72, 700), []string{"Card"}},
		{"forward placement splits", concat(unspaced("Card", 72, 700), unspaced("fee", 112, 700)), []string{"Card", "fee"}},
		{"backward placement splits", concat(unspaced("OK", 100, 700), unspaced("!", 40, 700)), []string{"OK", "!"}},
		{"small kern merges", concat(unspaced("W", 72, 700), unspaced("ord", 70.5, 700)), []string{"Word"}},
		{"new line splits", concat(unspaced("First", 72, 700), unspaced("second", 72, 686)), []string{"First", "second"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, groupRuns(tt.in, nil))
		})
	}
}

func TestGroupRunsSpaceMarks(t *testing.T) {
	in := unspaced("My card was", 72, 700)
	marks := []bool{false, false, true, false, false, false, true, false, false}

	assert.Equal(t, []string{"My", "card", "was"}, groupRuns(in, marks))
	assert.Equal(t, []string{"Mycardwas"}, groupRuns(in, marks[:3]), "marks of the wrong length are ignored")
}
