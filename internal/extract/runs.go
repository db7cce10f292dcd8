package extract

import (
	"math"
	"strings"

	"rsc.io/pdf"
)

// Thresholds relative to the font size.
const (
	baselineTolerance = 0.5
	wordGap           = 0.25
)

// groupRuns merges positioned glyphs into text runs. A run ends where
// spaceBefore marks a word boundary, at a baseline change, or at a
// horizontal jump. spaceBefore is ignored unless it has one entry per glyph.
func groupRuns(glyphs []pdf.Text, spaceBefore []bool) []string {
	marked := len(spaceBefore) == len(glyphs)

	var runs []string
	var cur strings.Builder
	var prev *pdf.Text

	flush := func() {
		if cur.Len() > 0 {
			runs = append(runs, cur.String())
			cur.Reset()
		}
	}

	for i := range glyphs {
		g := &glyphs[i]
		// Tabs and other non-space blanks still arrive as glyphs.
		if strings.TrimSpace(g.S) == "" {
			flush()
			prev = nil
			continue
		}
		if prev != nil && (marked && spaceBefore[i] || breaksRun(prev, g)) {
			flush()
		}
		cur.WriteString(g.S)
		prev = g
	}
	flush()

	return runs
}

func breaksRun(a, b *pdf.Text) bool {
	size := math.Max(math.Max(a.FontSize, b.FontSize), 1)

	if math.Abs(a.Y-b.Y) > baselineTolerance*size {
		return true
	}

	// Without glyph widths the position does not advance within a string,
	// so any sizeable move is a new text placement.
	if a.W <= 0 {
		return math.Abs(b.X-a.X) > wordGap*size
	}

	gap := b.X - (a.X + a.W)
	return gap > wordGap*size || gap < -size
}

// wordBreaks walks the page's content stream the way pdf.Page.Content does
// and reports, for every glyph Content emits, whether a space character or a
// word-sized TJ adjustment preceded it. Content drops space glyphs, and for
// fonts without /Widths it does not advance past them either.
func wordBreaks(p pdf.Page) []bool {
	var (
		breaks  []bool
		enc     pdf.TextEncoding
		pending bool
	)

	show := func(raw string) {
		s := raw
		if enc != nil {
			s = enc.Decode(raw)
		}
		for _, ch := range s {
			if ch == ' ' {
				pending = true
				continue
			}
			breaks = append(breaks, pending)
			pending = false
		}
	}

	pdf.Interpret(p.V.Key("Contents"), func(stk *pdf.Stack, op string) {
		n := stk.Len()
		args := make([]pdf.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "Tf":
			if len(args) == 2 {
				enc = p.Font(args[0].Name()).Encoder()
			}
		case "Tj", "'":
			if len(args) == 1 {
				show(args[0].RawString())
			}
		case "\"":
			if len(args) == 3 {
				show(args[2].RawString())
			}
		case "TJ":
			if len(args) != 1 {
				return
			}
			for i := 0; i < args[0].Len(); i++ {
				x := args[0].Index(i)
				if x.Kind() == pdf.String {
					show(x.RawString())
					continue
				}
				// Adjustments are in thousandths of an em; negative moves right.
				if -x.Float64()/1000 > wordGap {
					pending = true
				}
			}
		}
	})

	return breaks
}
