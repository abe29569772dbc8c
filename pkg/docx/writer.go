package docx

import (
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/gardar/laudo/pkg/imaging"
	"github.com/gardar/laudo/pkg/report"
)

// sectionKind tells which header and footer a document section carries.
type sectionKind int

const (
	sectionCover sectionKind = iota // header image only, empty footer
	sectionTOC                      // full bands, no page number
	sectionBody                     // full bands and the page number, restarting at 1
)

const (
	ptPerCm       = 72 / 2.54
	pageWidthPt   = 210 * ptPerCm / 10 // A4
	pageHeightPt  = 297 * ptPerCm / 10
	defaultGapCm  = 0.3
	numberReserve = 16 // room for the page number line above a footer image
	twipsPerPt    = 20
	emuPerPt      = 12700
	cellMarginPt  = 5.4
	shadeColor    = "D9D9D9"
	bandTextColor = "5A5A5A"
	styleHeading  = "Heading1"
	styleTOC      = "TOC1"
)

// placement is the computed geometry of a header or footer band, in points.
type placement struct {
	report.Band
	img      *imaging.Image
	w, h     float64
	distance float64 // from the page edge to the band
	indent   float64 // negative indent that lets a fill-page band reach the page edges
}

// extent is how far the band reaches into the page, gap included.
func (p placement) extent() float64 {
	if p.img == nil {
		return 0
	}
	gap := defaultGapCm * ptPerCm
	if p.SpacingCm > 0 {
		gap = p.SpacingCm * ptPerCm
	}
	return p.distance + p.h + gap
}

// placeBand computes the size of a band image the same way the PDF renderer does, so both
// outputs show identical bands.
func placeBand(b report.Band, img *imaging.Image, margin float64) placement {
	out := placement{Band: b, distance: margin / 2}
	if img == nil {
		return out
	}
	out.img = img
	contentW := pageWidthPt - 2*margin
	ratio := img.Ratio()
	if b.FillPage {
		out.w = pageWidthPt
		out.h = b.HeightCm * ptPerCm
		if out.h <= 0 {
			out.h = out.w / ratio
		}
		out.distance = 0
		out.indent = -margin
		return out
	}
	bw, bh := b.WidthCm*ptPerCm, b.HeightCm*ptPerCm
	switch {
	case bw > 0 && bh > 0:
		out.w, out.h = imaging.FitIntoBoxF(float64(img.Width), float64(img.Height), bw, bh)
	case bw > 0:
		out.w, out.h = bw, bw/ratio
	case bh > 0:
		out.w, out.h = bh*ratio, bh
	default:
		out.w, out.h = imaging.FitIntoBoxF(float64(img.Width)*0.75, float64(img.Height)*0.75, contentW, pageHeightPt/5)
	}
	if out.w > contentW {
		out.w, out.h = imaging.FitIntoBoxF(out.w, out.h, contentW, out.h)
	}
	return out
}

// writer streams report blocks into the WordprocessingML parts of a package.
type writer struct {
	pkg    *pkg
	doc    *part
	opts   Options
	log    *zap.Logger
	assets *imaging.Set

	margin   float64
	contentW float64
	header   placement
	footer   placement
	headers  int
	footers  int
	drawings int
	warned   map[string]bool
}

func newWriter(r *report.Report, assets *imaging.Set, opts Options) (*writer, error) {
	if opts.Font.Size <= 0 {
		opts.Font = DefaultFont
	}
	if opts.Font.Name == "" {
		opts.Font.Name = DefaultFont.Name
	}
	if opts.MarginCm <= 0 {
		opts.MarginCm = DefaultOptions().MarginCm
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	w := &writer{
		pkg:    newPkg(),
		opts:   opts,
		log:    log,
		assets: assets,
		margin: opts.MarginCm * ptPerCm,
		warned: map[string]bool{},
	}
	w.contentW = pageWidthPt - 2*w.margin
	w.header = placeBand(r.Header, w.bandImage(r.Header.Ref), w.margin)
	w.footer = placeBand(r.Footer, w.bandImage(r.Footer.Ref), w.margin)

	styles, err := stylesXML(opts.Font, w.contentW)
	if err != nil {
		return nil, err
	}
	settings, err := settingsXML()
	if err != nil {
		return nil, err
	}
	w.doc = w.pkg.add(newPart("word/document.xml", ctDocument, "w:document", wordNamespaces...))
	w.pkg.add(fixedPart("word/styles.xml", ctStyles, styles))
	w.pkg.add(fixedPart("word/settings.xml", ctSettings, settings))
	w.doc.rel(relStyles, "styles.xml")
	w.doc.rel(relSettings, "settings.xml")
	w.doc.x.start("w:body")
	return w, nil
}

func (w *writer) bandImage(ref string) *imaging.Image {
	if ref == "" {
		return nil
	}
	img, ok := w.image(ref)
	if !ok {
		return nil
	}
	return img
}

// endSection closes the content written so far as a section of the given kind. Word
// stores the properties of every section but the last on its final paragraph.
func (w *writer) endSection(kind sectionKind) {
	x := w.doc.x
	x.start("w:p")
	x.start("w:pPr")
	w.sectPr(kind)
	x.end("w:pPr")
	x.end("w:p")
}

// finish writes the properties of the last section and closes the body.
func (w *writer) finish() {
	w.sectPr(sectionBody)
	w.doc.x.end("w:body")
}

// sectPr writes page geometry, bands and numbering of a section.
func (w *writer) sectPr(kind sectionKind) {
	hdr := w.newHeader(kind)
	ftr := w.newFooter(kind)

	top := max(w.margin, w.header.extent())
	bottom := w.margin
	if w.footer.img != nil {
		bottom = max(w.margin, w.footer.extent()+numberReserve)
	}

	x := w.doc.x
	x.start("w:sectPr")
	x.empty("w:headerReference", "w:type", "default", "r:id", w.doc.rel(relHeader, path.Base(hdr.name)))
	x.empty("w:footerReference", "w:type", "default", "r:id", w.doc.rel(relFooter, path.Base(ftr.name)))
	x.val("w:type", "nextPage")
	x.empty("w:pgSz", "w:w", itoa(twips(pageWidthPt)), "w:h", itoa(twips(pageHeightPt)))
	x.empty("w:pgMar",
		"w:top", itoa(twips(top)),
		"w:right", itoa(twips(w.margin)),
		"w:bottom", itoa(twips(bottom)),
		"w:left", itoa(twips(w.margin)),
		"w:header", itoa(twips(w.header.distance)),
		"w:footer", itoa(twips(w.footer.distance)),
		"w:gutter", "0")
	if kind == sectionBody {
		x.empty("w:pgNumType", "w:start", "1")
	}
	x.empty("w:cols", "w:space", "708")
	x.end("w:sectPr")
}

func (w *writer) newHeader(kind sectionKind) *part {
	w.headers++
	p := w.pkg.add(newPart("word/header"+itoa(w.headers)+".xml", ctHeader, "w:hdr", wordNamespaces...))
	b := w.header
	switch {
	case b.img != nil:
		w.bandParagraph(p, b)
	case b.Text != "" && kind != sectionCover:
		w.bandText(p, b.Text)
	default:
		p.x.empty("w:p")
	}
	return p
}

func (w *writer) newFooter(kind sectionKind) *part {
	w.footers++
	p := w.pkg.add(newPart("word/footer"+itoa(w.footers)+".xml", ctFooter, "w:ftr", wordNamespaces...))
	if kind == sectionCover {
		p.x.empty("w:p")
		return p
	}
	if kind == sectionBody {
		x := p.x
		x.start("w:p")
		w.pPr(x, paraProps{align: report.AlignRight, line: 1})
		x.start("w:fldSimple", "w:instr", " PAGE ")
		w.run(x, "1", runProps{size: w.opts.Font.CaptionSize})
		x.end("w:fldSimple")
		x.end("w:p")
	}
	b := w.footer
	switch {
	case b.img != nil:
		w.bandParagraph(p, b)
	case b.Text != "":
		w.bandText(p, b.Text)
	case kind != sectionBody:
		p.x.empty("w:p")
	}
	return p
}

func (w *writer) bandParagraph(p *part, b placement) {
	pp := paraProps{align: b.Align, line: 1}
	if b.FillPage {
		pp.align = report.AlignCenter
		pp.indLeft, pp.indRight = b.indent, b.indent
	}
	x := p.x
	x.start("w:p")
	w.pPr(x, pp)
	if !w.drawing(p, b.Ref, b.img, b.w, b.h) {
		w.run(x, report.ImagePlaceholder, runProps{italic: true, size: w.opts.Font.CaptionSize})
	}
	x.end("w:p")
}

func (w *writer) bandText(p *part, text string) {
	x := p.x
	x.start("w:p")
	w.pPr(x, paraProps{align: report.AlignCenter, line: 1})
	w.run(x, text, runProps{size: w.opts.Font.CaptionSize, color: bandTextColor})
	x.end("w:p")
}

// image returns the asset for ref and logs a missing one once.
func (w *writer) image(ref string) (*imaging.Image, bool) {
	img, ok := w.assets.Image(ref)
	if !ok || img == nil || len(img.Data) == 0 {
		w.warn("image not available", zap.String("ref", abbreviate(ref)))
		return nil, false
	}
	return img, true
}

// drawing writes an inline picture run into p and reports whether it was placed. The
// image bytes are stored once per reference however many parts show them.
func (w *writer) drawing(p *part, ref string, img *imaging.Image, wPt, hPt float64) bool {
	target, err := w.pkg.addMedia(ref, img)
	if err != nil {
		w.warn("image could not be added", zap.String("ref", abbreviate(ref)), zap.Error(err))
		return false
	}
	rid := p.rel(relImage, target)
	w.drawings++
	id := itoa(w.drawings)
	cx, cy := itoa(emu(wPt)), itoa(emu(hPt))

	x := p.x
	x.start("w:r")
	x.start("w:drawing")
	x.start("wp:inline", "distT", "0", "distB", "0", "distL", "0", "distR", "0")
	x.empty("wp:extent", "cx", cx, "cy", cy)
	x.empty("wp:effectExtent", "l", "0", "t", "0", "r", "0", "b", "0")
	x.empty("wp:docPr", "id", id, "name", "Imagem "+id)
	x.start("wp:cNvGraphicFramePr")
	x.empty("a:graphicFrameLocks", "noChangeAspect", "1")
	x.end("wp:cNvGraphicFramePr")
	x.start("a:graphic")
	x.start("a:graphicData", "uri", nsPic)
	x.start("pic:pic")
	x.start("pic:nvPicPr")
	x.empty("pic:cNvPr", "id", id, "name", path.Base(target))
	x.empty("pic:cNvPicPr")
	x.end("pic:nvPicPr")
	x.start("pic:blipFill")
	x.empty("a:blip", "r:embed", rid)
	x.start("a:stretch")
	x.empty("a:fillRect")
	x.end("a:stretch")
	x.end("pic:blipFill")
	x.start("pic:spPr")
	x.start("a:xfrm")
	x.empty("a:off", "x", "0", "y", "0")
	x.empty("a:ext", "cx", cx, "cy", cy)
	x.end("a:xfrm")
	x.start("a:prstGeom", "prst", "rect")
	x.empty("a:avLst")
	x.end("a:prstGeom")
	x.end("pic:spPr")
	x.end("pic:pic")
	x.end("a:graphicData")
	x.end("a:graphic")
	x.end("wp:inline")
	x.end("w:drawing")
	x.end("w:r")
	return true
}

func (w *writer) warn(msg string, fields ...zap.Field) {
	var key strings.Builder
	key.WriteString(msg)
	for _, f := range fields {
		key.WriteString("|" + f.String)
	}
	if w.warned[key.String()] {
		return
	}
	w.warned[key.String()] = true
	w.log.Warn(msg, fields...)
}

// jc maps an alignment to the w:jc value. Justified text is "both".
func jc(a report.Align) string {
	switch a {
	case report.AlignLeft:
		return "left"
	case report.AlignCenter:
		return "center"
	case report.AlignRight:
		return "right"
	}
	return "both"
}

// twips converts points to the twentieths of a point Word uses for lengths.
func twips(pt float64) int {
	if pt < 0 {
		return -twips(-pt)
	}
	return int(pt*twipsPerPt + 0.5)
}

// emu converts points to the English Metric Units of drawings.
func emu(pt float64) int {
	if pt <= 0 {
		return 0
	}
	return int(pt*emuPerPt + 0.5)
}

// halfPoints converts a font size to the half points of w:sz.
func halfPoints(size float64) int {
	return int(size*2 + 0.5)
}

// abbreviate shortens DataURLs for log output.
func abbreviate(ref string) string {
	if len(ref) > 80 {
		return ref[:77] + "..."
	}
	return ref
}
