package report

import (
	"fmt"
	"strings"

	"github.com/gardar/laudo/pkg/casedata"
	"github.com/gardar/laudo/pkg/textnorm"
)

func exposureTitle(ctx *Context) string {
	switch inc := ctx.Inclusion; {
	case inc.Both():
		return "ANÁLISE DAS EXPOSIÇÕES (NR-15 E NR-16)"
	case inc.Periculosity:
		return "ANÁLISE DAS EXPOSIÇÕES PERIGOSAS (NR-16)"
	}
	return "ANÁLISE DAS EXPOSIÇÕES INSALUBRES (NR-15)"
}

func buildExposure(ctx *Context) []Block {
	n := ctx.Number(KeyExposure)
	c := ctx.Case
	tables := ctx.Config.AnalysisTables
	var out []Block
	sub := 0
	if ctx.Inclusion.Insalubrity {
		sub++
		out = append(out, subheading(fmt.Sprintf("%d.%d Agentes insalubres (NR-15)", n, sub)))
		out = append(out, exposureBlocks(tables.NR15, c.InsalubrityAnalysis)...)
	}
	if ctx.Inclusion.Periculosity {
		sub++
		out = append(out, subheading(fmt.Sprintf("%d.%d Atividades perigosas (NR-16)", n, sub)))
		out = append(out, exposureBlocks(tables.NR16, c.PericulosityAnalysis)...)
	}
	return out
}

// ExposureRows returns the rows of an exposure table: the structured rows when any are
// configured, otherwise rows imported from the narrative.
func ExposureRows(structured []casedata.ExposureRow, t casedata.Text) []textnorm.ExposureRow {
	if len(structured) > 0 {
		rows := make([]textnorm.ExposureRow, 0, len(structured))
		for _, r := range structured {
			rows = append(rows, textnorm.ExposureRow{
				Annex:       r.Annex.Plain(),
				Agent:       r.Agent.Plain(),
				Exposure:    r.Exposure.Plain(),
				Observation: r.Note(),
			})
		}
		return textnorm.DedupeRows(rows)
	}
	return textnorm.ParseExposureRows(t.Plain())
}

func exposureBlocks(structured []casedata.ExposureRow, narrativeText casedata.Text) []Block {
	rows := ExposureRows(structured, narrativeText)
	if len(rows) == 0 {
		return narrative(narrativeText, casedata.NotInformed)
	}
	t := &Table{Widths: []float64{0.12, 0.33, 0.25, 0.3}, HeaderRows: 1}
	t.Rows = append(t.Rows, header("Anexo", "Agente", "Exposição", "Observação"))
	for _, r := range rows {
		t.Rows = append(t.Rows, []Cell{
			{Text: orNotInformed(r.Annex), Align: AlignCenter},
			{Text: orNotInformed(r.Agent), Align: AlignLeft},
			{Text: orNotInformed(r.Exposure), Align: AlignLeft},
			{Text: orDash(r.Observation), Align: AlignLeft},
		})
	}
	return []Block{t}
}

func orNotInformed(s string) string {
	if strings.TrimSpace(s) == "" {
		return casedata.NotInformed
	}
	return s
}
