package pdf

import (
	"math"
	"strconv"
	"strings"

	"github.com/gardar/laudo/pkg/report"
)

// tocNumberWidth is the space reserved at the right edge for page numbers.
const tocNumberWidth = 28

// toc draws the table of contents: the heading of every section, dotted leaders and the
// body page it starts on. On the dry pass the numbers are left blank; the reserved space
// keeps the layout identical between passes.
func (w *writer) toc(entries []report.TOCEntry) {
	title := textStyle{size: 14, bold: true, lineHeight: 1.3}
	w.drawLine(w.layout([]report.Run{{Text: "SUMÁRIO"}}, title, w.contentW)[0], w.margin, w.contentW, report.AlignCenter, false, title)
	w.y += title.lineH() + 16

	st := w.style(report.StyleBody)
	right := w.margin + w.contentW
	textAvail := w.contentW - tocNumberWidth - 24
	for _, e := range entries {
		heading := (&report.SectionMarker{Number: e.Number, Title: e.Title}).Heading()
		lines := w.layout([]report.Run{{Text: heading}}, st, textAvail)
		w.ensure(float64(len(lines)) * st.lineH())
		for i, l := range lines {
			w.drawLine(l, w.margin, textAvail, report.AlignLeft, false, st)
			if i == len(lines)-1 {
				w.leaders(w.margin+l.width+4, right-tocNumberWidth-2, st)
				if n, ok := w.tocPages[e.Key]; ok {
					label := strconv.Itoa(n)
					tw := w.textWidth(label, false, st.size)
					w.plainText(right-tw, w.baseline(st), label, false, st.size)
				}
			}
			w.y += st.lineH()
		}
		w.y += 2
	}
}

// leaders fills [from, to] with dots aligned to the right end.
func (w *writer) leaders(from, to float64, st textStyle) {
	dot := w.textWidth(".", false, st.size)
	if dot <= 0 || to <= from {
		return
	}
	n := int(math.Floor((to - from) / dot))
	if n <= 0 {
		return
	}
	w.plainText(to-float64(n)*dot, w.baseline(st), strings.Repeat(".", n), false, st.size)
}
