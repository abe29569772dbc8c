package pdf

import (
	"strings"

	"github.com/anyascii/go"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/gardar/laudo/pkg/report"
)

// Justification applies only to lines that carry at least justifyMinWords words and
// already fill justifyMinFill of the available width.
const (
	justifyMinWords = 6
	justifyMinFill  = 0.75
)

// encoder converts UTF-8 text for the active font. Core fonts take Windows-1252 bytes;
// runes outside that code page are transliterated to ASCII.
type encoder struct {
	utf8   bool
	misses int // runes that had to be transliterated
}

func (e *encoder) String(s string) string {
	s = norm.NFC.String(s)
	if e.utf8 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
			continue
		}
		e.misses++
		for _, t := range anyascii.Transliterate(string(r)) {
			if t < 0x80 {
				b.WriteByte(byte(t))
			}
		}
	}
	return b.String()
}

// textStyle is the resolved typography of a paragraph.
type textStyle struct {
	size        float64
	bold        bool
	italic      bool
	lineHeight  float64 // multiple of size
	spaceBefore float64
	spaceAfter  float64
}

func (s textStyle) lineH() float64 { return s.size * s.lineHeight }

func (w *writer) style(st report.Style) textStyle {
	f := w.opts.Font
	switch st {
	case report.StyleHeading2:
		return textStyle{size: f.Size, bold: true, lineHeight: f.LineHeight, spaceBefore: 8, spaceAfter: 4}
	case report.StyleLabel:
		return textStyle{size: f.Size, bold: true, lineHeight: f.LineHeight, spaceAfter: 4}
	case report.StyleCaption:
		return textStyle{size: f.CaptionSize, italic: true, lineHeight: 1.25, spaceAfter: 4}
	case report.StyleCompact:
		return textStyle{size: f.Size - 1, lineHeight: 1.2}
	case report.StyleTitle:
		return textStyle{size: 22, bold: true, lineHeight: 1.3, spaceAfter: 12}
	case report.StyleSubtitle:
		return textStyle{size: 13, bold: true, lineHeight: 1.35, spaceAfter: 8}
	}
	return textStyle{size: f.Size, lineHeight: f.LineHeight, spaceAfter: 6}
}

// word is one measured, encoded word.
type word struct {
	text   string
	bold   bool
	italic bool
	width  float64
}

// line is a laid out line. width is the natural width including single spaces.
type line struct {
	words []word
	width float64
	final bool // last line of its paragraph or forced break
}

// shouldJustify reports whether a line is stretched to the full width.
func shouldJustify(l line, avail float64, bullet bool) bool {
	return !l.final && !bullet && len(l.words) >= justifyMinWords && l.width >= justifyMinFill*avail
}

// layout wraps runs into lines no wider than avail. Newlines inside a run force a break.
func (w *writer) layout(runs []report.Run, st textStyle, avail float64) []line {
	w.setFont(false, false, st.size)
	space := w.pdf.GetStringWidth(" ")

	var lines []line
	var cur line
	flush := func(final bool) {
		cur.final = final
		if len(cur.words) > 0 || final {
			lines = append(lines, cur)
		}
		cur = line{}
	}
	add := func(wd word) {
		extra := wd.width
		if len(cur.words) > 0 {
			extra += space
		}
		if len(cur.words) > 0 && cur.width+extra > avail {
			flush(false)
			extra = wd.width
		}
		cur.words = append(cur.words, wd)
		cur.width += extra
	}

	for _, r := range runs {
		bold, italic := st.bold || r.Bold, st.italic || r.Italic
		for i, segment := range strings.Split(r.Text, "\n") {
			if i > 0 {
				flush(true)
			}
			for _, f := range strings.Fields(segment) {
				for _, wd := range w.measure(f, bold, italic, st.size, avail) {
					add(wd)
				}
			}
		}
	}
	flush(true)
	// drop empty lines produced by leading breaks, keep at least one
	out := lines[:0]
	for _, l := range lines {
		if len(l.words) > 0 {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return []line{{final: true}}
	}
	out[len(out)-1].final = true
	return out
}

// measure encodes and measures a word, hard-splitting it when it is wider than avail.
func (w *writer) measure(s string, bold, italic bool, size, avail float64) []word {
	w.setFont(bold, italic, size)
	enc := w.enc.String(s)
	width := w.pdf.GetStringWidth(enc)
	if width <= avail || avail <= 0 {
		return []word{{text: enc, bold: bold, italic: italic, width: width}}
	}
	var out []word
	var chunk []rune
	for _, r := range s {
		next := w.enc.String(string(append(chunk, r)))
		if len(chunk) > 0 && w.pdf.GetStringWidth(next) > avail {
			piece := w.enc.String(string(chunk))
			out = append(out, word{text: piece, bold: bold, italic: italic, width: w.pdf.GetStringWidth(piece)})
			chunk = chunk[:0]
		}
		chunk = append(chunk, r)
	}
	if len(chunk) > 0 {
		piece := w.enc.String(string(chunk))
		out = append(out, word{text: piece, bold: bold, italic: italic, width: w.pdf.GetStringWidth(piece)})
	}
	return out
}

// drawLine draws one line whose top is at the cursor. Justified lines that qualify are
// stretched to avail; every other line is aligned without stretching.
func (w *writer) drawLine(l line, x, avail float64, align report.Align, bullet bool, st textStyle) {
	if len(l.words) == 0 {
		return
	}
	w.setFont(false, false, st.size)
	space := w.pdf.GetStringWidth(" ")
	gap := space
	switch align {
	case report.AlignCenter:
		x += (avail - l.width) / 2
	case report.AlignRight:
		x += avail - l.width
	case report.AlignJustify:
		if shouldJustify(l, avail, bullet) && len(l.words) > 1 {
			gap += (avail - l.width) / float64(len(l.words)-1)
		}
	}
	baseline := w.baseline(st)
	for _, wd := range l.words {
		w.setFont(wd.bold, wd.italic, st.size)
		w.pdf.Text(x, baseline, wd.text)
		x += wd.width + gap
	}
}

// baseline is the text baseline of a line starting at the cursor.
func (w *writer) baseline(st textStyle) float64 {
	return w.y + (st.lineH()-st.size)/2 + st.size*ascentRatio
}

// ascentRatio positions the baseline inside the font box.
const ascentRatio = 0.78

// setFont selects the family and the closest available style.
func (w *writer) setFont(bold, italic bool, size float64) {
	style := ""
	if bold {
		style += "B"
	}
	if italic {
		style += "I"
	}
	if !w.styles[style] {
		switch {
		case bold && w.styles["B"]:
			style = "B"
		case italic && w.styles["I"]:
			style = "I"
		default:
			style = ""
		}
	}
	w.pdf.SetFont(w.family, style, size)
}

// plainText draws a single unwrapped string, used by the TOC and page furniture.
func (w *writer) plainText(x, baseline float64, s string, bold bool, size float64) float64 {
	w.setFont(bold, false, size)
	enc := w.enc.String(s)
	w.pdf.Text(x, baseline, enc)
	return w.pdf.GetStringWidth(enc)
}

// textWidth measures s in the given font.
func (w *writer) textWidth(s string, bold bool, size float64) float64 {
	w.setFont(bold, false, size)
	return w.pdf.GetStringWidth(w.enc.String(s))
}
