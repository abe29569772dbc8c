package report

import "strconv"

// Align is the horizontal alignment of a paragraph, cell or image.
type Align int

const (
	AlignJustify Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Style is the typographic role of a paragraph. Renderers map it to fonts and sizes.
type Style int

const (
	StyleBody     Style = iota
	StyleHeading2       // numbered sub-heading such as "15.1 ..."
	StyleLabel          // bold lead-in line
	StyleCaption        // image caption
	StyleCompact        // annex result lines
	StyleTitle          // cover title
	StyleSubtitle       // cover subtitle and court line
)

// Block is one node of the report stream: *Paragraph, *Table, *Image, *Gallery,
// PageBreak or *SectionMarker.
type Block interface {
	block()
}

// Run is a span of uniformly formatted text.
type Run struct {
	Text   string
	Bold   bool
	Italic bool
}

// Paragraph is a block of text.
type Paragraph struct {
	Runs        []Run
	Align       Align
	Style       Style
	Bullet      bool
	SpaceBefore float64 // points
	SpaceAfter  float64 // points
}

// Text returns the concatenated text of the runs.
func (p *Paragraph) Text() string {
	var n int
	for _, r := range p.Runs {
		n += len(r.Text)
	}
	b := make([]byte, 0, n)
	for _, r := range p.Runs {
		b = append(b, r.Text...)
	}
	return string(b)
}

// Cell is one table cell.
type Cell struct {
	Text  string
	Bold  bool
	Align Align
	Shade bool // header shading
	Span  int  // columns spanned, 0 or 1 for a single column
}

// Table is a bordered table. Widths are ratios of the content width and always sum to 1.
type Table struct {
	Widths     []float64
	Rows       [][]Cell
	HeaderRows int // leading rows repeated on every page the table spans
	FontSize   float64
}

// Columns returns the width of the table grid: the number of ratios or the widest row,
// whichever is larger.
func (t *Table) Columns() int {
	n := len(t.Widths)
	for _, r := range t.Rows {
		cols := 0
		for _, c := range r {
			cols += max(c.Span, 1)
		}
		n = max(n, cols)
	}
	return max(n, 1)
}

// ColumnWidths converts the ratios into widths summing to total. Missing or invalid
// ratios share the width equally.
func (t *Table) ColumnWidths(total float64) []float64 {
	columns := t.Columns()
	sum := 0.0
	valid := len(t.Widths) == columns
	for _, r := range t.Widths {
		if r <= 0 {
			valid = false
		}
		sum += r
	}
	out := make([]float64, columns)
	for i := range out {
		if valid {
			out[i] = t.Widths[i] / sum * total
		} else {
			out[i] = total / float64(columns)
		}
	}
	return out
}

// Spans returns how many grid columns each cell of row occupies. Cells that fall past
// the grid get 0 and the last cell of a short row stretches to the table edge.
func Spans(row []Cell, columns int) []int {
	out := make([]int, len(row))
	col := 0
	for i, c := range row {
		if col >= columns {
			break
		}
		span := min(max(c.Span, 1), columns-col)
		if i == len(row)-1 {
			span = columns - col
		}
		out[i] = span
		col += span
	}
	return out
}

// Image is an image placed in the flow. Ref keys the per-render asset set; a missing asset
// renders as a placeholder text.
type Image struct {
	Ref       string
	MaxWidth  float64 // points, 0 = content width
	MaxHeight float64 // points, 0 = free
	Align     Align
	Caption   string
}

// Gallery is a grid of captioned images.
type Gallery struct {
	Columns int
	Items   []Image
}

// PageBreak starts a new page.
type PageBreak struct{}

// SectionMarker is a numbered top-level heading. Renderers draw "Number. Title" and the
// table of contents points at the page where it starts.
type SectionMarker struct {
	Key    string
	Number int
	Title  string
}

// Heading returns the heading text "N. TITLE".
func (m *SectionMarker) Heading() string {
	return strconv.Itoa(m.Number) + ". " + m.Title
}

func (*Paragraph) block()     {}
func (*Table) block()         {}
func (*Image) block()         {}
func (*Gallery) block()       {}
func (PageBreak) block()      {}
func (*SectionMarker) block() {}

// ImagePlaceholder is drawn where an image could not be loaded.
const ImagePlaceholder = "[Imagem não disponível]"
