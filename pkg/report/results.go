package report

import (
	"fmt"

	"github.com/gardar/laudo/pkg/casedata"
	"github.com/gardar/laudo/pkg/textnorm"
)

func buildInsalubrityResults(ctx *Context) []Block {
	out := resultBlocks(ctx.InsalubrityText)
	return append(out, gallery(ctx, ctx.Config.Galleries.Insalubrity)...)
}

func buildPericulosityResults(ctx *Context) []Block {
	out := resultBlocks(ctx.PericulosityText)
	return append(out, gallery(ctx, ctx.Config.Galleries.Periculosity)...)
}

// resultBlocks renders a results narrative. Annex chunks become a bordered titled
// mini-table followed by compact left-aligned lines; free chunks become body paragraphs.
func resultBlocks(s string) []Block {
	chunks := textnorm.ParseAnnexChunks(s)
	var out []Block
	for _, c := range chunks {
		if c.Kind == textnorm.ChunkText {
			out = append(out, paragraphs(c.Text)...)
			continue
		}
		title := fmt.Sprintf("Anexo %d", c.Annex)
		if c.Title != "" {
			title += " — " + c.Title
		}
		out = append(out, &Table{
			Widths: []float64{1},
			Rows:   [][]Cell{{{Text: title, Bold: true, Shade: true, Align: AlignLeft}}},
		})
		for _, line := range c.Lines {
			out = append(out, &Paragraph{Runs: []Run{{Text: line}}, Align: AlignLeft, Style: StyleCompact})
		}
		if len(c.Lines) > 0 {
			if last, ok := out[len(out)-1].(*Paragraph); ok {
				last.SpaceAfter = 8
			}
		}
	}
	if len(out) == 0 {
		out = append(out, text(casedata.NotInformed))
	}
	return out
}
