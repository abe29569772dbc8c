package pdf

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/gardar/laudo/pkg/imaging"
	"github.com/gardar/laudo/pkg/report"
)

// pageKind tells which furniture a page carries.
type pageKind int

const (
	pageCover pageKind = iota // header image only, no page number
	pageTOC                   // full bands, no page number
	pageBody                  // full bands and the body page number
)

const (
	ptPerCm       = 72 / 2.54
	ptPerPx       = 0.75 // 96 dpi
	defaultGapCm  = 0.3
	numberReserve = 16 // room kept above the bottom limit for the page number
)

// band is a header or footer placement computed once per render.
type band struct {
	report.Band
	img        *imaging.Image
	x, y, w, h float64
}

// writer lays the report out on an fpdf document with a running vertical cursor.
type writer struct {
	pdf    *fpdf.Fpdf
	opts   Options
	log    *zap.Logger
	assets *imaging.Set
	enc    *encoder
	family string
	styles map[string]bool

	pageW, pageH float64
	margin       float64
	contentW     float64
	top, bottom  float64 // content limits on body pages
	y            float64
	kind         pageKind
	header       band
	footer       band
	bodyStart    int // physical page number of body page 1

	sectionPages map[string]int    // body page where each section heading was drawn
	tocPages     map[string]int    // numbers printed in the table of contents (nil = blank)
	images       map[string]string // ref -> registered image name
	warned       map[string]bool
}

func newWriter(r *report.Report, assets *imaging.Set, opts Options, log *zap.Logger) (*writer, error) {
	if opts.Font.Size <= 0 {
		opts.Font = DefaultFont
	}
	if opts.MarginCm <= 0 {
		opts.MarginCm = DefaultOptions().MarginCm
	}
	if log == nil {
		log = zap.NewNop()
	}
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	margin := opts.MarginCm * ptPerCm
	pdf.SetMargins(margin, margin, margin)
	pdf.SetTitle(opts.Title, true)
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, true)
	}
	pdf.SetCreator("laudo", true)
	pdf.SetCompression(!opts.Uncompressed)

	w := &writer{
		pdf:          pdf,
		opts:         opts,
		log:          log,
		assets:       assets,
		enc:          &encoder{},
		family:       opts.Font.Name,
		styles:       map[string]bool{"": true, "B": true, "I": true, "BI": true},
		margin:       margin,
		sectionPages: map[string]int{},
		images:       map[string]string{},
		warned:       map[string]bool{},
	}
	if opts.FontDir != "" {
		if err := w.loadFonts(opts.FontDir); err != nil {
			return nil, err
		}
	}
	w.pageW, w.pageH = pdf.GetPageSize()
	w.contentW = w.pageW - 2*margin
	w.header = w.placeBand(r.Header, true)
	w.footer = w.placeBand(r.Footer, false)
	w.top, w.bottom = w.limits()
	return w, nil
}

// loadFonts registers the first complete UTF-8 family found in dir. A directory without
// any known font keeps the core font.
func (w *writer) loadFonts(dir string) error {
	for _, f := range utf8Fonts {
		regular, err := os.ReadFile(filepath.Join(dir, f.regular))
		if err != nil {
			continue
		}
		w.pdf.AddUTF8FontFromBytes(f.family, "", regular)
		styles := map[string]bool{"": true}
		for style, file := range map[string]string{"B": f.bold, "I": f.italic} {
			if data, err := os.ReadFile(filepath.Join(dir, file)); err == nil {
				w.pdf.AddUTF8FontFromBytes(f.family, style, data)
				styles[style] = true
			}
		}
		if err := w.pdf.Error(); err != nil {
			return fmt.Errorf("failed to load font %s: %w", f.regular, err)
		}
		w.family, w.styles, w.enc.utf8 = f.family, styles, true
		return nil
	}
	w.warn("font directory holds no usable font", zap.String("dir", dir))
	return nil
}

// placeBand computes the geometry of a header (top) or footer band.
func (w *writer) placeBand(b report.Band, top bool) band {
	out := band{Band: b}
	if b.Ref == "" {
		return out
	}
	img, ok := w.image(b.Ref)
	if !ok {
		return out
	}
	out.img = img
	ratio := img.Ratio()
	switch {
	case b.FillPage:
		out.w = w.pageW
		out.h = b.HeightCm * ptPerCm
		if out.h <= 0 {
			out.h = out.w / ratio
		}
		out.x = 0
	default:
		bw, bh := b.WidthCm*ptPerCm, b.HeightCm*ptPerCm
		switch {
		case bw > 0 && bh > 0:
			out.w, out.h = imaging.FitIntoBoxF(float64(img.Width), float64(img.Height), bw, bh)
		case bw > 0:
			out.w, out.h = bw, bw/ratio
		case bh > 0:
			out.w, out.h = bh*ratio, bh
		default:
			out.w, out.h = imaging.FitIntoBoxF(float64(img.Width)*ptPerPx, float64(img.Height)*ptPerPx,
				w.contentW, w.pageH/5)
		}
		if out.w > w.contentW {
			out.w, out.h = imaging.FitIntoBoxF(out.w, out.h, w.contentW, out.h)
		}
		switch b.Align {
		case report.AlignLeft:
			out.x = w.margin
		case report.AlignRight:
			out.x = w.pageW - w.margin - out.w
		default:
			out.x = (w.pageW - out.w) / 2
		}
	}
	switch {
	case top && b.FillPage:
		out.y = 0
	case top:
		out.y = w.margin / 2
	case b.FillPage:
		out.y = w.pageH - out.h
	default:
		out.y = w.pageH - w.margin/2 - out.h
	}
	return out
}

func (b band) gap() float64 {
	if b.SpacingCm > 0 {
		return b.SpacingCm * ptPerCm
	}
	return defaultGapCm * ptPerCm
}

// limits returns the content area left between the bands.
func (w *writer) limits() (float64, float64) {
	top, bottom := w.margin, w.pageH-w.margin
	if h := w.header; h.img != nil {
		top = max(top, h.y+h.h+h.gap())
	}
	if f := w.footer; f.img != nil {
		bottom = min(bottom, f.y-f.gap()-numberReserve)
	}
	return top, bottom
}

// newPage starts a page of the current kind, draws its furniture and resets the cursor.
func (w *writer) newPage() {
	w.pdf.AddPage()
	w.y = w.top
	w.drawBand(w.header, true)
	if w.kind != pageCover {
		w.drawBand(w.footer, false)
	}
	if w.kind == pageBody {
		w.drawPageNumber()
	}
}

func (w *writer) drawBand(b band, top bool) {
	size := w.opts.Font.CaptionSize
	if b.img != nil {
		w.placeImage(b.Ref, b.img, b.x, b.y, b.w, b.h)
		return
	}
	if b.Text == "" || (top && w.kind == pageCover) {
		return
	}
	baseline := w.margin / 2
	if !top {
		baseline = w.pageH - w.margin/2
	}
	tw := w.textWidth(b.Text, false, size)
	w.pdf.SetTextColor(90, 90, 90)
	w.plainText((w.pageW-tw)/2, baseline, b.Text, false, size)
	w.pdf.SetTextColor(0, 0, 0)
}

func (w *writer) drawPageNumber() {
	size := w.opts.Font.CaptionSize
	label := strconv.Itoa(w.bodyPage())
	baseline := w.pageH - w.margin/2
	if f := w.footer; f.img != nil {
		baseline = f.y - f.gap() - 2
	}
	tw := w.textWidth(label, false, size)
	w.plainText(w.pageW-w.margin-tw, baseline, label, false, size)
}

// bodyPage is the number printed on the current page; body numbering starts at 1.
func (w *writer) bodyPage() int {
	return w.pdf.PageNo() - w.bodyStart + 1
}

// ensure starts a new page when h does not fit below the cursor. A block taller than a
// whole page is drawn from the top of a fresh page and overflows.
func (w *writer) ensure(h float64) {
	if w.y+h > w.bottom && w.y > w.top {
		w.newPage()
	}
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

// placeImage draws a registered image, registering it on first use.
func (w *writer) placeImage(ref string, img *imaging.Image, x, y, iw, ih float64) {
	format := img.Format
	if format == "" {
		detected, err := detectImageType(img.Data)
		if err != nil {
			w.warn("image format not recognized", zap.String("ref", abbreviate(ref)), zap.Error(err))
			return
		}
		format = detected
	}
	opts := fpdf.ImageOptions{ReadDpi: false, ImageType: format}
	name, ok := w.images[ref]
	if !ok {
		name = fmt.Sprintf("img%d", len(w.images))
		w.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
		w.images[ref] = name
	}
	w.pdf.ImageOptions(name, x, y, iw, ih, false, opts, 0, "")
	if w.opts.Debug {
		w.pdf.SetDrawColor(255, 0, 0)
		w.pdf.Rect(x, y, iw, ih, "D")
		w.pdf.SetDrawColor(0, 0, 0)
	}
}

func (w *writer) warn(msg string, fields ...zap.Field) {
	key := msg
	for _, f := range fields {
		key += "|" + f.String
	}
	if w.warned[key] {
		return
	}
	w.warned[key] = true
	w.log.Warn(msg, fields...)
}

// detectImageType tries to figure out whether the data is PNG, JPEG, etc.
func detectImageType(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image config: %w", err)
	}
	return strings.ToUpper(format), nil
}

// abbreviate shortens DataURLs for log output.
func abbreviate(ref string) string {
	if len(ref) > 80 {
		return ref[:77] + "..."
	}
	return ref
}
