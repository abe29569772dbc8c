package docx

import (
	"strings"

	"github.com/gardar/laudo/pkg/imaging"
	"github.com/gardar/laudo/pkg/report"
)

const (
	bulletIndent  = 14
	borderEighths = 4 // 0.5pt, in eighths of a point
	galleryGap    = 12
	headingSize   = 12
)

// textStyle is the paragraph and run formatting derived from a report style.
type textStyle struct {
	size        float64
	bold        bool
	italic      bool
	lineHeight  float64
	spaceBefore float64
	spaceAfter  float64
}

// style maps a report style to fonts and spacing, with the same values as the PDF
// renderer.
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

// paraProps are the paragraph properties the renderer uses, in points.
type paraProps struct {
	style         string
	keepNext      bool
	before, after float64
	line          float64 // multiple of a single line, 0 = single
	indLeft       float64
	indRight      float64
	hanging       float64
	align         report.Align
	outline       bool // level 1 outline entry
}

// runProps are the run properties the renderer uses.
type runProps struct {
	bold, italic bool
	size         float64
	color        string // hex RGB, empty = black
}

// pPr writes paragraph properties in schema order.
func (w *writer) pPr(x *xmlWriter, pp paraProps) {
	x.start("w:pPr")
	if pp.style != "" {
		x.val("w:pStyle", pp.style)
	}
	if pp.keepNext {
		x.empty("w:keepNext")
	}
	x.empty("w:spacing",
		"w:before", itoa(twips(pp.before)),
		"w:after", itoa(twips(pp.after)),
		"w:line", itoa(lineSpacing(pp.line)),
		"w:lineRule", "auto")
	if pp.indLeft != 0 || pp.indRight != 0 || pp.hanging != 0 {
		attrs := []string{"w:left", itoa(twips(pp.indLeft)), "w:right", itoa(twips(pp.indRight))}
		if pp.hanging != 0 {
			attrs = append(attrs, "w:hanging", itoa(twips(pp.hanging)))
		}
		x.empty("w:ind", attrs...)
	}
	x.val("w:jc", jc(pp.align))
	if pp.outline {
		x.val("w:outlineLvl", "0")
	}
	x.end("w:pPr")
}

// rPr writes run properties in schema order.
func (w *writer) rPr(x *xmlWriter, rp runProps) {
	name := w.opts.Font.Name
	color := rp.color
	if color == "" {
		color = "000000"
	}
	size := rp.size
	if size <= 0 {
		size = w.opts.Font.Size
	}
	x.start("w:rPr")
	x.empty("w:rFonts", "w:ascii", name, "w:hAnsi", name, "w:cs", name)
	if rp.bold {
		x.empty("w:b")
	}
	if rp.italic {
		x.empty("w:i")
	}
	x.val("w:color", color)
	x.val("w:sz", itoa(halfPoints(size)))
	x.val("w:szCs", itoa(halfPoints(size)))
	x.end("w:rPr")
}

// run writes one text run; newlines become line breaks inside the paragraph.
func (w *writer) run(x *xmlWriter, s string, rp runProps) {
	x.start("w:r")
	w.rPr(x, rp)
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			x.empty("w:br")
		}
		if line != "" {
			x.element("w:t", line, "xml:space", "preserve")
		}
	}
	x.end("w:r")
}

// lineSpacing converts a line height multiple into the value of an "auto" spacing rule,
// which Word counts in 240ths of a single line.
func lineSpacing(multiple float64) int {
	if multiple <= 0 {
		multiple = 1
	}
	return int(multiple*240 + 0.5)
}

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
			x := w.doc.x
			x.start("w:p")
			x.start("w:r")
			x.empty("w:br", "w:type", "page")
			x.end("w:r")
			x.end("w:p")
		}
	}
}

func (w *writer) paragraph(src *report.Paragraph) {
	st := w.style(src.Style)
	if src.SpaceBefore > 0 {
		st.spaceBefore = src.SpaceBefore
	}
	if src.SpaceAfter > 0 {
		st.spaceAfter = src.SpaceAfter
	}
	pp := paraProps{before: st.spaceBefore, after: st.spaceAfter, line: st.lineHeight, align: src.Align}
	if src.Bullet {
		pp.indLeft, pp.hanging = bulletIndent, bulletIndent
	}
	x := w.doc.x
	x.start("w:p")
	w.pPr(x, pp)
	if src.Bullet {
		x.start("w:r")
		w.rPr(x, runProps{size: st.size})
		x.element("w:t", "•")
		x.empty("w:tab")
		x.end("w:r")
	}
	for _, r := range src.Runs {
		w.run(x, r.Text, runProps{bold: st.bold || r.Bold, italic: st.italic || r.Italic, size: st.size})
	}
	x.end("w:p")
}

// section writes a numbered top-level heading. The Heading1 style and outline level make
// it appear in the table of contents field.
func (w *writer) section(m *report.SectionMarker) {
	x := w.doc.x
	x.start("w:p")
	w.pPr(x, paraProps{style: styleHeading, keepNext: true, before: 10, after: 6, line: 1.3,
		align: report.AlignLeft, outline: true})
	w.run(x, m.Heading(), runProps{bold: true, size: headingSize})
	x.end("w:p")
}

// toc writes the table of contents title and a TOC field over the level 1 headings. The
// field result lists the entry titles; the word processor adds the page numbers when it
// refreshes the field on open.
func (w *writer) toc(entries []report.TOCEntry) {
	x := w.doc.x
	x.start("w:p")
	w.pPr(x, paraProps{after: 16, line: 1.3, align: report.AlignCenter})
	w.run(x, "SUMÁRIO", runProps{bold: true, size: 14})
	x.end("w:p")

	titles := make([]string, 0, len(entries))
	for _, e := range entries {
		titles = append(titles, (&report.SectionMarker{Number: e.Number, Title: e.Title}).Heading())
	}
	if len(titles) == 0 {
		titles = append(titles, "")
	}
	for i, title := range titles {
		x.start("w:p")
		w.pPr(x, paraProps{style: styleTOC, after: 5, line: 1, align: report.AlignLeft})
		if i == 0 {
			fieldChar(x, "begin")
			x.start("w:r")
			x.element("w:instrText", ` TOC \o "1-1" \h \z \u `, "xml:space", "preserve")
			x.end("w:r")
			fieldChar(x, "separate")
		}
		if title != "" {
			w.run(x, title, runProps{})
			x.start("w:r")
			x.empty("w:tab")
			x.end("w:r")
		}
		if i == len(titles)-1 {
			fieldChar(x, "end")
		}
		x.end("w:p")
	}
}

func fieldChar(x *xmlWriter, kind string) {
	x.start("w:r")
	if kind == "begin" {
		x.empty("w:fldChar", "w:fldCharType", kind, "w:dirty", "true")
	} else {
		x.empty("w:fldChar", "w:fldCharType", kind)
	}
	x.end("w:r")
}

// tblPr writes fixed-layout table properties with the given border style.
func (w *writer) tblPr(x *xmlWriter, border string) {
	x.start("w:tblPr")
	x.empty("w:tblW", "w:w", itoa(twips(w.contentW)), "w:type", "dxa")
	x.start("w:tblBorders")
	for _, side := range []string{"w:top", "w:left", "w:bottom", "w:right", "w:insideH", "w:insideV"} {
		if border == "none" {
			x.empty(side, "w:val", "none", "w:sz", "0", "w:space", "0", "w:color", "auto")
		} else {
			x.empty(side, "w:val", border, "w:sz", itoa(borderEighths), "w:space", "0", "w:color", "000000")
		}
	}
	x.end("w:tblBorders")
	x.val("w:tblLayout", "fixed")
	x.end("w:tblPr")
}

// cellMargins writes left and right cell padding.
func cellMargins(x *xmlWriter, pt float64) {
	x.start("w:tblCellMar")
	x.empty("w:top", "w:w", "0", "w:type", "dxa")
	x.empty("w:left", "w:w", itoa(twips(pt)), "w:type", "dxa")
	x.empty("w:bottom", "w:w", "0", "w:type", "dxa")
	x.empty("w:right", "w:w", itoa(twips(pt)), "w:type", "dxa")
	x.end("w:tblCellMar")
}

// tblGrid writes the column grid; fixed layout tables are sized from it.
func tblGrid(x *xmlWriter, widths []float64) {
	x.start("w:tblGrid")
	for _, wd := range widths {
		x.empty("w:gridCol", "w:w", itoa(twips(wd)))
	}
	x.end("w:tblGrid")
}

func (w *writer) table(t *report.Table) {
	if len(t.Rows) == 0 {
		return
	}
	size := t.FontSize
	if size <= 0 {
		size = w.opts.Font.TableSize
	}
	widths := t.ColumnWidths(w.contentW)

	x := w.doc.x
	x.start("w:tbl")
	w.tblPr(x, "single")
	tblGrid(x, widths)
	for i, cells := range t.Rows {
		if len(cells) == 0 {
			cells = []report.Cell{{Span: len(widths)}}
		}
		x.start("w:tr")
		if i < t.HeaderRows {
			x.start("w:trPr")
			x.empty("w:tblHeader")
			x.end("w:trPr")
		}
		col := 0
		for j, span := range report.Spans(cells, len(widths)) {
			if span == 0 {
				break
			}
			c := cells[j]
			cw := 0.0
			for _, wd := range widths[col : col+span] {
				cw += wd
			}
			x.start("w:tc")
			x.start("w:tcPr")
			x.empty("w:tcW", "w:w", itoa(twips(cw)), "w:type", "dxa")
			if span > 1 {
				x.val("w:gridSpan", itoa(span))
			}
			if c.Shade {
				x.empty("w:shd", "w:val", "clear", "w:color", "auto", "w:fill", shadeColor)
			}
			x.val("w:vAlign", "center")
			x.end("w:tcPr")

			align := c.Align
			if align == report.AlignJustify {
				align = report.AlignLeft
			}
			x.start("w:p")
			w.pPr(x, paraProps{before: 2, after: 2, line: 1.15, align: align})
			w.run(x, c.Text, runProps{bold: c.Bold, size: size})
			x.end("w:p")
			x.end("w:tc")
			col += span
		}
		x.end("w:tr")
	}
	x.end("w:tbl")
	w.spacer()
}

// spacer separates consecutive tables, which Word would otherwise merge.
func (w *writer) spacer() {
	x := w.doc.x
	x.start("w:p")
	w.pPr(x, paraProps{after: 6, line: 1})
	x.end("w:p")
}

// flowImage places an image in the text flow, or the placeholder when it is missing.
func (w *writer) flowImage(img *report.Image) {
	maxW := img.MaxWidth
	if maxW <= 0 || maxW > w.contentW {
		maxW = w.contentW
	}
	maxH := img.MaxHeight
	if maxH <= 0 {
		maxH = (pageHeightPt - 2*w.margin) * 0.6
	}
	align := img.Align
	if align == report.AlignJustify {
		align = report.AlignCenter
	}
	x := w.doc.x
	asset, ok := w.image(img.Ref)
	if !ok {
		w.placeholder(x, align, w.opts.Font.Size)
		return
	}
	iw, ih := imaging.FitIntoBoxF(float64(asset.Width), float64(asset.Height), maxW, maxH)
	x.start("w:p")
	w.pPr(x, paraProps{keepNext: img.Caption != "", after: 4, line: 1, align: align})
	placed := w.drawing(w.doc, img.Ref, asset, iw, ih)
	if !placed {
		w.run(x, report.ImagePlaceholder, runProps{italic: true, size: w.opts.Font.CaptionSize})
	}
	x.end("w:p")
	if placed && img.Caption != "" {
		w.caption(x, img.Caption)
	}
}

func (w *writer) caption(x *xmlWriter, text string) {
	st := w.style(report.StyleCaption)
	x.start("w:p")
	w.pPr(x, paraProps{after: 6, line: st.lineHeight, align: report.AlignCenter})
	w.run(x, text, runProps{italic: true, size: st.size})
	x.end("w:p")
}

func (w *writer) placeholder(x *xmlWriter, align report.Align, size float64) {
	x.start("w:p")
	w.pPr(x, paraProps{after: 4, line: 1, align: align})
	w.run(x, report.ImagePlaceholder, runProps{italic: true, size: size})
	x.end("w:p")
}

// gallery lays items out in a borderless table, one image and caption per cell.
func (w *writer) gallery(g *report.Gallery) {
	if len(g.Items) == 0 {
		return
	}
	cols := max(g.Columns, 1)
	cellW := (w.contentW - galleryGap*float64(cols-1)) / float64(cols)
	boxH := cellW * 0.75
	widths := make([]float64, cols)
	for i := range widths {
		widths[i] = w.contentW / float64(cols)
	}

	x := w.doc.x
	x.start("w:tbl")
	w.tblPr(x, "none")
	tblGrid(x, widths)
	for start := 0; start < len(g.Items); start += cols {
		x.start("w:tr")
		x.start("w:trPr")
		x.empty("w:cantSplit")
		x.end("w:trPr")
		for i := 0; i < cols; i++ {
			x.start("w:tc")
			x.start("w:tcPr")
			x.empty("w:tcW", "w:w", itoa(twips(widths[i])), "w:type", "dxa")
			x.end("w:tcPr")
			x.start("w:p")
			w.pPr(x, paraProps{before: 4, after: 2, line: 1, align: report.AlignCenter})
			var it report.Image
			if start+i < len(g.Items) {
				it = g.Items[start+i]
				if asset, ok := w.image(it.Ref); ok {
					iw, ih := imaging.FitIntoBoxF(float64(asset.Width), float64(asset.Height), cellW, boxH)
					if !w.drawing(w.doc, it.Ref, asset, iw, ih) {
						w.run(x, report.ImagePlaceholder, runProps{italic: true, size: w.opts.Font.CaptionSize})
					}
				} else {
					w.run(x, report.ImagePlaceholder, runProps{italic: true, size: w.opts.Font.CaptionSize})
				}
			}
			x.end("w:p")
			if it.Caption != "" {
				w.caption(x, it.Caption)
			}
			x.end("w:tc")
		}
		x.end("w:tr")
	}
	x.end("w:tbl")
	w.spacer()
}
