package pdf

import (
	"github.com/gardar/laudo/pkg/imaging"
	"github.com/gardar/laudo/pkg/report"
)

const (
	bulletIndent = 14
	cellPadding  = 4
	galleryGap   = 12
	headingSize  = 12
)

func (w *writer) blocks(blocks []report.Block) {
	for _, b := range blocks {
		switch v := b.(type) {
		case *report.Paragraph:
			w.paragraph(v)
		case *report.Table:
			w.table(v)
		case *report.Image:
			w.flowImage(v)
		case *report.Gallery:
			w.gallery(v)
		case *report.SectionMarker:
			w.section(v)
		case report.PageBreak, *report.PageBreak:
			w.newPage()
		}
	}
}

func (w *writer) paragraph(p *report.Paragraph) {
	st := w.style(p.Style)
	if p.SpaceBefore > 0 {
		st.spaceBefore = p.SpaceBefore
	}
	if p.SpaceAfter > 0 {
		st.spaceAfter = p.SpaceAfter
	}
	if w.y > w.top {
		w.y += st.spaceBefore
	}
	indent := 0.0
	if p.Bullet {
		indent = bulletIndent
	}
	avail := w.contentW - indent
	lh := st.lineH()
	for i, l := range w.layout(p.Runs, st, avail) {
		w.ensure(lh)
		if i == 0 && p.Bullet {
			w.plainText(w.margin+2, w.baseline(st), "•", false, st.size)
		}
		w.drawLine(l, w.margin+indent, avail, p.Align, p.Bullet, st)
		w.y += lh
	}
	w.y += st.spaceAfter
}

// placedCell is a table cell with its geometry and wrapped text.
type placedCell struct {
	report.Cell
	x, w  float64
	lines []line
}

type placedRow struct {
	cells []placedCell
	h     float64
}

func (w *writer) table(t *report.Table) {
	if len(t.Rows) == 0 {
		return
	}
	size := t.FontSize
	if size <= 0 {
		size = w.opts.Font.TableSize
	}
	st := textStyle{size: size, lineHeight: 1.25}
	widths := t.ColumnWidths(w.contentW)

	rows := make([]placedRow, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = w.placeRow(r, widths, st)
	}
	headers := rows[:min(max(t.HeaderRows, 0), len(rows))]

	if w.y > w.top {
		w.y += 2
	}
	for i, r := range rows {
		if w.y+r.h > w.bottom && w.y > w.top {
			w.newPage()
			if i >= len(headers) {
				for _, h := range headers {
					w.drawRow(h, st)
				}
			}
		}
		w.drawRow(r, st)
	}
	w.y += 8
}

// placeRow assigns cells to grid columns and wraps their text.
func (w *writer) placeRow(r []report.Cell, widths []float64, st textStyle) placedRow {
	var out placedRow
	x, col := w.margin, 0
	maxLines := 1
	for i, span := range report.Spans(r, len(widths)) {
		if span == 0 {
			break
		}
		c := r[i]
		cw := 0.0
		for _, wd := range widths[col : col+span] {
			cw += wd
		}
		cellStyle := st
		cellStyle.bold = c.Bold
		lines := w.layout([]report.Run{{Text: c.Text}}, cellStyle, cw-2*cellPadding)
		maxLines = max(maxLines, len(lines))
		out.cells = append(out.cells, placedCell{Cell: c, x: x, w: cw, lines: lines})
		x += cw
		col += span
	}
	out.h = float64(maxLines)*st.lineH() + 2*cellPadding
	return out
}

func (w *writer) drawRow(r placedRow, st textStyle) {
	w.pdf.SetLineWidth(0.5)
	w.pdf.SetDrawColor(0, 0, 0)
	top := w.y
	for _, c := range r.cells {
		if c.Shade {
			w.pdf.SetFillColor(217, 217, 217)
			w.pdf.Rect(c.x, top, c.w, r.h, "FD")
		} else {
			w.pdf.Rect(c.x, top, c.w, r.h, "D")
		}
		cellStyle := st
		cellStyle.bold = c.Bold
		align := c.Align
		if align == report.AlignJustify {
			align = report.AlignLeft
		}
		w.y = top + cellPadding
		for _, l := range c.lines {
			w.drawLine(l, c.x+cellPadding, c.w-2*cellPadding, align, false, cellStyle)
			w.y += st.lineH()
		}
	}
	w.y = top + r.h
}

// flowImage places an image in the text flow, or the placeholder when it is missing.
func (w *writer) flowImage(img *report.Image) {
	maxW := img.MaxWidth
	if maxW <= 0 || maxW > w.contentW {
		maxW = w.contentW
	}
	maxH := img.MaxHeight
	if maxH <= 0 {
		maxH = (w.bottom - w.top) * 0.6
	}
	asset, ok := w.image(img.Ref)
	if !ok {
		w.placeholder(img.Align)
		return
	}
	iw, ih := imaging.FitIntoBoxF(float64(asset.Width), float64(asset.Height), maxW, maxH)
	captionH := 0.0
	cst := w.style(report.StyleCaption)
	var caption []line
	if img.Caption != "" {
		caption = w.layout([]report.Run{{Text: img.Caption}}, cst, w.contentW)
		captionH = float64(len(caption))*cst.lineH() + 4
	}
	w.ensure(ih + captionH)
	x := w.margin + alignOffset(img.Align, w.contentW, iw)
	w.placeImage(img.Ref, asset, x, w.y, iw, ih)
	w.y += ih + 4
	for _, l := range caption {
		w.drawLine(l, w.margin, w.contentW, report.AlignCenter, false, cst)
		w.y += cst.lineH()
	}
	w.y += 6
}

func (w *writer) placeholder(align report.Align) {
	if align == report.AlignJustify {
		align = report.AlignCenter
	}
	w.paragraph(&report.Paragraph{
		Runs:  []report.Run{{Text: report.ImagePlaceholder, Italic: true}},
		Align: align,
	})
}

func alignOffset(align report.Align, avail, width float64) float64 {
	switch align {
	case report.AlignLeft:
		return 0
	case report.AlignRight:
		return avail - width
	}
	return (avail - width) / 2
}

// gallery draws items in a grid, one row at a time; a row never splits across pages.
func (w *writer) gallery(g *report.Gallery) {
	cols := max(g.Columns, 1)
	cellW := (w.contentW - galleryGap*float64(cols-1)) / float64(cols)
	boxH := cellW * 0.75
	cst := w.style(report.StyleCaption)

	for start := 0; start < len(g.Items); start += cols {
		items := g.Items[start:min(start+cols, len(g.Items))]
		captions := make([][]line, len(items))
		captionH := 0.0
		for i, it := range items {
			if it.Caption != "" {
				captions[i] = w.layout([]report.Run{{Text: it.Caption}}, cst, cellW)
				captionH = max(captionH, float64(len(captions[i]))*cst.lineH())
			}
		}
		w.ensure(boxH + 4 + captionH)
		top := w.y
		for i, it := range items {
			x := w.margin + float64(i)*(cellW+galleryGap)
			if asset, ok := w.image(it.Ref); ok {
				iw, ih := imaging.FitIntoBoxF(float64(asset.Width), float64(asset.Height), cellW, boxH)
				w.placeImage(it.Ref, asset, x+(cellW-iw)/2, top+(boxH-ih)/2, iw, ih)
			} else {
				w.y = top + boxH/2 - cst.lineH()/2
				ph := w.layout([]report.Run{{Text: report.ImagePlaceholder, Italic: true}}, cst, cellW)
				w.drawLine(ph[0], x, cellW, report.AlignCenter, false, cst)
			}
			w.y = top + boxH + 4
			for _, l := range captions[i] {
				w.drawLine(l, x, cellW, report.AlignCenter, false, cst)
				w.y += cst.lineH()
			}
		}
		w.y = top + boxH + 4 + captionH + 10
	}
}

// section draws a numbered top-level heading and records the body page it lands on.
// The heading is kept together with the first lines that follow it.
func (w *writer) section(m *report.SectionMarker) {
	st := textStyle{size: headingSize, bold: true, lineHeight: 1.3}
	if w.y > w.top {
		w.y += 10
	}
	lines := w.layout([]report.Run{{Text: m.Heading()}}, st, w.contentW)
	h := float64(len(lines)) * st.lineH()
	w.ensure(h + 3*w.style(report.StyleBody).lineH())
	w.sectionPages[m.Key] = w.bodyPage()
	for _, l := range lines {
		w.drawLine(l, w.margin, w.contentW, report.AlignLeft, false, st)
		w.y += st.lineH()
	}
	w.y += 6
}
