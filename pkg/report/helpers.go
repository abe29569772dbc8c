package report

import (
	"strings"

	"github.com/gardar/laudo/pkg/casedata"
	"github.com/gardar/laudo/pkg/textnorm"
)

// paragraphs splits text at line breaks into justified body paragraphs. Lines starting
// with "- " or "• " become bullets.
func paragraphs(s string) []Block {
	var out []Block
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if rest, ok := cutBullet(line); ok {
			out = append(out, &Paragraph{Runs: []Run{{Text: rest}}, Align: AlignLeft, Bullet: true})
			continue
		}
		out = append(out, &Paragraph{Runs: []Run{{Text: line}}, Align: AlignJustify})
	}
	return out
}

func cutBullet(line string) (string, bool) {
	for _, prefix := range []string{"- ", "• ", "* "} {
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return line, false
}

// narrative renders a free-text field, or the fallback when it is blank.
func narrative(t casedata.Text, fallback string) []Block {
	if blocks := paragraphs(t.Plain()); len(blocks) > 0 {
		return blocks
	}
	return []Block{text(fallback)}
}

// text is a single justified body paragraph.
func text(s string) *Paragraph {
	return &Paragraph{Runs: []Run{{Text: s}}, Align: AlignJustify}
}

// labeled is a "Label: value" paragraph with a bold label.
func labeled(label, value string) *Paragraph {
	return &Paragraph{
		Runs:  []Run{{Text: label + ": ", Bold: true}, {Text: value}},
		Align: AlignLeft,
	}
}

// subheading is a numbered sub-section heading such as "13.1 Periodicidade de troca".
func subheading(s string) *Paragraph {
	return &Paragraph{
		Runs:        []Run{{Text: s, Bold: true}},
		Align:       AlignLeft,
		Style:       StyleHeading2,
		SpaceBefore: 6,
	}
}

// header builds a shaded bold header row.
func header(titles ...string) []Cell {
	row := make([]Cell, len(titles))
	for i, t := range titles {
		row[i] = Cell{Text: t, Bold: true, Shade: true, Align: AlignCenter}
	}
	return row
}

// row builds a plain left-aligned row, substituting the fallback for blank cells.
func row(values ...string) []Cell {
	out := make([]Cell, len(values))
	for i, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			v = "-"
		}
		out[i] = Cell{Text: v, Align: AlignLeft}
	}
	return out
}

// keyValueTable builds a two-column table with bold keys.
func keyValueTable(pairs [][2]string) *Table {
	t := &Table{Widths: []float64{0.35, 0.65}}
	for _, p := range pairs {
		t.Rows = append(t.Rows, []Cell{
			{Text: p[0], Bold: true, Align: AlignLeft, Shade: true},
			{Text: p[1], Align: AlignLeft},
		})
	}
	return t
}

// or returns the plain text of t, or NotInformed.
func or(t casedata.Text) string {
	return casedata.Or(t, casedata.NotInformed)
}

// tri renders a tri-state attestation.
func tri(v casedata.OptBool) string {
	switch {
	case v.True():
		return "Sim"
	case v.False():
		return "Não"
	}
	return casedata.NotInformed
}

// sanitizeParty removes lawyer fragments from a party name.
func sanitizeParty(name string) string {
	return textnorm.SanitizeLawyerFromName(name)
}

// resultsText prepares a results narrative for annex parsing.
func resultsText(t casedata.Text) string {
	return textnorm.FixGrammar(t.Plain())
}

// gallery turns configured photos into a two-column gallery. It returns nil in safe mode
// or when there are no photos.
func gallery(ctx *Context, photos []casedata.Photo) []Block {
	if ctx.SafeMode || len(photos) == 0 {
		return nil
	}
	g := &Gallery{Columns: 2}
	for _, p := range photos {
		if ref := p.Source(); ref != "" {
			g.Items = append(g.Items, Image{Ref: ref, Caption: p.Caption.Plain(), Align: AlignCenter})
		}
	}
	if len(g.Items) == 0 {
		return nil
	}
	return []Block{g}
}
