package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/laudo/pkg/casedata"
)

var testToday = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func parseCase(t *testing.T, raw string) *casedata.Case {
	t.Helper()
	c, err := casedata.Parse([]byte(raw))
	require.NoError(t, err)
	return c
}

// blockText flattens paragraphs and table cells into one string per block.
func blockText(b Block) string {
	switch v := b.(type) {
	case *Paragraph:
		return v.Text()
	case *Table:
		var parts []string
		for _, r := range v.Rows {
			for _, c := range r {
				parts = append(parts, c.Text)
			}
		}
		return strings.Join(parts, " | ")
	case *SectionMarker:
		return v.Heading()
	}
	return ""
}

// sectionBlocks returns the blocks between the marker of key and the next marker.
func sectionBlocks(r *Report, key string) []Block {
	var out []Block
	in := false
	for _, b := range r.Body {
		if m, ok := b.(*SectionMarker); ok {
			in = m.Key == key
			continue
		}
		if in {
			out = append(out, b)
		}
	}
	return out
}

func sectionText(r *Report, key string) string {
	var parts []string
	for _, b := range sectionBlocks(r, key) {
		parts = append(parts, blockText(b))
	}
	return strings.Join(parts, "\n")
}

func TestNumberingMatchesTOC(t *testing.T) {
	tests := []struct {
		reportType string
		conclusion int
		sections   int
	}{
		{reportType: TypeComplete, conclusion: 21, sections: 21},
		{reportType: TypeInsalubrity, conclusion: 18, sections: 18},
		{reportType: TypePericulosity, conclusion: 20, sections: 20},
	}
	for _, tt := range tests {
		t.Run(tt.reportType, func(t *testing.T) {
			r := Assemble(&casedata.Case{}, Options{ReportType: tt.reportType, Today: testToday})

			require.Len(t, r.TOC, tt.sections)
			var markers []*SectionMarker
			for _, b := range r.Body {
				if m, ok := b.(*SectionMarker); ok {
					markers = append(markers, m)
				}
			}
			require.Len(t, markers, len(r.TOC))
			for i, e := range r.TOC {
				assert.Equal(t, i+1, e.Number, e.Key)
				assert.Equal(t, e.Number, markers[i].Number, e.Key)
				assert.Equal(t, e.Title, markers[i].Title)
			}
			assert.Equal(t, tt.conclusion, r.Numbers[KeyConclusion])
			assert.Equal(t, tt.conclusion-1, r.Numbers[KeyQuestionnaires])
			assert.Equal(t, 15, r.Numbers[KeyExposure])
		})
	}
}

func TestNumberSkipsExcludedSections(t *testing.T) {
	n := Number(Inclusion{Periculosity: true})
	assert.Zero(t, n[KeyInsalubrityResults])
	assert.Equal(t, 16, n[KeyPericulosityConcept])
	assert.Equal(t, 17, n[KeyFlammables])
	assert.Equal(t, 18, n[KeyPericulosityResults])
}

func TestDecideInclusion(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		reportType string
		want       Inclusion
	}{
		{
			name: "empty case defaults to both",
			raw:  `{}`,
			want: Inclusion{Insalubrity: true, Periculosity: true, Source: "default"},
		},
		{
			name:       "option wins over flags",
			raw:        `{"report_config":{"flags":{"reportType":"insalubridade"}}}`,
			reportType: "periculosidade",
			want:       Inclusion{Periculosity: true, Source: "report_type"},
		},
		{
			name: "flags report type",
			raw:  `{"report_config":{"flags":{"reportType":"Completo"}}}`,
			want: Inclusion{Insalubrity: true, Periculosity: true, Source: "report_type"},
		},
		{
			name: "disagreeing flags",
			raw:  `{"report_config":{"flags":{"includeInsalubridade":false,"includePericulosidade":true}}}`,
			want: Inclusion{Periculosity: true, Source: "flags"},
		},
		{
			name: "agreeing flags fall through to inference",
			raw:  `{"insalubrity_results":"Resultado Anexo 13 — Químicos","report_config":{"flags":{"includeInsalubridade":true,"includePericulosidade":true}}}`,
			want: Inclusion{Insalubrity: true, Source: "inferred"},
		},
		{
			name: "structured nr16 rows",
			raw:  `{"report_config":{"analysis_tables":{"nr16":[{"annex":"2","agent":"Inflamáveis"}]}}}`,
			want: Inclusion{Periculosity: true, Source: "inferred"},
		},
		{
			name: "placeholders do not count",
			raw:  `{"insalubrity_analysis":"Não informado.","periculosity_results":"----------"}`,
			want: Inclusion{Insalubrity: true, Periculosity: true, Source: "default"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideInclusion(parseCase(t, tt.raw), tt.reportType))
		})
	}
}

func TestAssembleEmptyCaseRendersFallbacks(t *testing.T) {
	r := Assemble(parseCase(t, `{"process_number":"1234567-89.2024.5.02.0001","report_config":{}}`), Options{Today: testToday})

	assert.Equal(t, "1234567-89.2024.5.02.0001", r.ProcessNumber)
	assert.True(t, r.IncludeTOC)
	assert.True(t, r.Inclusion.Both())
	assert.Empty(t, r.Attachments)
	assert.Empty(t, r.ImageRefs())

	for _, key := range []string{KeyDocuments, KeyAttendees, KeyInitialClaims, KeyDefenseClaims, KeyWorkplace, KeyActivities, KeyEPI} {
		assert.Equal(t, casedata.NotInformed, sectionText(r, key), key)
	}
	assert.Contains(t, sectionText(r, KeyObjective), "insalubridade e/ou periculosidade")
	assert.Contains(t, sectionText(r, KeyHistory), "não identificado")
	assert.Contains(t, sectionText(r, KeyQuestionnaires), "20.3 Quesitos do Juízo")
	assert.Contains(t, sectionText(r, KeyConclusion), "É o laudo.")
	assert.Contains(t, sectionText(r, KeyConclusion), "5 de março de 2024.")
	assert.Equal(t, "ANÁLISE DAS EXPOSIÇÕES (NR-15 E NR-16)", r.TOC[14].Title)
}

func TestHistoryEmploymentPeriod(t *testing.T) {
	r := Assemble(parseCase(t, `{"claimant_positions":[{"title":"Operador","period":"01/03/2015 a 15/03/2020"}]}`), Options{Today: testToday})
	assert.Contains(t, sectionText(r, KeyHistory), "Período contratual: 01/03/2015 a 15/03/2020 (5 anos e 14 dias)")
}

func TestExposureTableCollapsesDuplicateRows(t *testing.T) {
	r := Assemble(parseCase(t, `{
		"insalubrity_analysis": "- Anexo 13 — Ruído (Ocorre exposição) [confirmado]\n- Anexo 13 — Ruído (Ocorre exposição) [confirmado]",
		"report_config": {"flags": {"reportType": "insalubridade"}}
	}`), Options{Today: testToday})

	var tables []*Table
	for _, b := range sectionBlocks(r, KeyExposure) {
		if tb, ok := b.(*Table); ok {
			tables = append(tables, tb)
		}
	}
	require.Len(t, tables, 1)
	require.Len(t, tables[0].Rows, 2)
	assert.Equal(t, "13", tables[0].Rows[1][0].Text)
	assert.Equal(t, "Ruído", tables[0].Rows[1][1].Text)
	assert.Equal(t, "confirmado", tables[0].Rows[1][3].Text)
	assert.Contains(t, sectionText(r, KeyExposure), "15.1 Agentes insalubres (NR-15)")
	assert.NotContains(t, sectionText(r, KeyExposure), "NR-16")
}

func TestExposurePrefersStructuredRows(t *testing.T) {
	rows := ExposureRows([]casedata.ExposureRow{{Annex: "2", Agent: "Inflamáveis", Obs: "abastecimento"}}, "- Anexo 13 — Ruído")
	require.Len(t, rows, 1)
	assert.Equal(t, "abastecimento", rows[0].Observation)
}

func TestResultsAnnexChunks(t *testing.T) {
	blocks := resultBlocks("Conforme vistoria.\n\nResultado Anexo 13 — Agentes químicos\nExposição: Ocorre\nObs: óleos")
	require.GreaterOrEqual(t, len(blocks), 3)
	assert.Equal(t, "Conforme vistoria.", blockText(blocks[0]))
	title, ok := blocks[1].(*Table)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(title.Rows[0][0].Text, "Anexo 13"))
	for _, b := range blocks[2:] {
		p, ok := b.(*Paragraph)
		require.True(t, ok)
		assert.Equal(t, StyleCompact, p.Style)
		assert.Equal(t, AlignLeft, p.Align)
	}

	assert.Equal(t, casedata.NotInformed, blockText(resultBlocks("")[0]))
}

func TestSafeModeDropsImages(t *testing.T) {
	raw := `{
		"report_config": {
			"flags": {"safeMode": true},
			"header": {"imageUrl": "https://example.com/header.png"},
			"signature": {"imageUrl": "https://example.com/sig.png"},
			"galleries": {"diligence": [{"imageUrl": "https://example.com/a.png", "caption": "Fachada"}]}
		},
		"flammable_products": [{"name": "Diesel", "attachment_path": "fispq/diesel.pdf"}]
	}`
	r := Assemble(parseCase(t, raw), Options{Today: testToday})
	assert.True(t, r.SafeMode)
	assert.Empty(t, r.ImageRefs())
	assert.Contains(t, sectionText(r, KeyConclusion), "Perito do Juízo")
	assert.Equal(t, []string{"fispq/diesel.pdf"}, r.FileRefs())

	r = Assemble(parseCase(t, raw), Options{Today: testToday, SafeMode: false})
	assert.True(t, r.SafeMode, "flag in report_config still applies")

	unsafe := strings.Replace(raw, `"safeMode": true`, `"safeMode": false`, 1)
	r = Assemble(parseCase(t, unsafe), Options{Today: testToday})
	assert.Equal(t, []string{"https://example.com/header.png", "https://example.com/a.png", "https://example.com/sig.png"}, r.ImageRefs())
	require.Len(t, r.Attachments, 1)
	assert.Equal(t, "FISPQ – Diesel", r.Attachments[0].Title)
}

func TestWorkplaceVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "structured",
			raw:  `{"workplace_characteristics":{"area":"200 m²","floor":"Concreto","description":"Galpão fechado."}}`,
			want: []string{"Área | 200 m²", "Piso | Concreto", "Galpão fechado."},
		},
		{
			name: "special condition",
			raw:  `{"workplace_characteristics":{"special_condition":"Ceu Aberto","area":"ignored"}}`,
			want: []string{"a céu aberto"},
		},
		{
			name: "free text",
			raw:  `{"workplace_characteristics":"<p>Pátio externo</p>"}`,
			want: []string{"Pátio externo"},
		},
		{
			name: "records",
			raw:  `{"workplace_characteristics":[{"ceiling_height":"6 m"},{"floor":""}]}`,
			want: []string{"Ambiente 1", "Ceiling height | 6 m", "Ambiente 2", "Floor | -"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sectionText(Assemble(parseCase(t, tt.raw), Options{Today: testToday}), KeyWorkplace)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}

func TestEPIEvaluation(t *testing.T) {
	raw := `{
		"claimant_positions": [{"period": "01/01/2018 a 31/12/2018"}],
		"epis": [{"equipment": "Protetor auricular", "ca": "5745", "protection": "Ruído"}],
		"report_config": {"epi_replacement_periodicity": {
			"enabled": true,
			"training": true,
			"rows": [
				{"equipment": "Protetor auricular", "ca": "5745", "date": "2017-12-01"},
				{"equipment": "Protetor auricular", "ca": "5745", "date": "01/03/2018"},
				{"equipment": "protetor auricular", "ca": "5745", "date": "2018-07-01"}
			],
			"useful_life_items": [{"equipment": "Protetor Auricular", "useful_life": "3 meses"}]
		}}
	}`
	r := Assemble(parseCase(t, raw), Options{Today: testToday})
	got := sectionText(r, KeyEPI)

	assert.Contains(t, got, "13.1 Periodicidade de troca dos EPIs")
	assert.Contains(t, got, "Período analisado: 01/01/2018 a 31/12/2018")
	assert.Contains(t, got, "126 dias")
	assert.Contains(t, got, "Treinamento quanto ao uso correto: Sim")
	assert.Contains(t, got, "Fiscalização do uso: Não informado")
}

func TestEPIEvaluationWithoutDistribution(t *testing.T) {
	raw := `{
		"claimant_positions": [{"period": "01/01/2018 a 31/12/2018"}],
		"report_config": {"epi_replacement_periodicity": {"enabled": true, "imprescrito_only": true}}
	}`
	got := sectionText(Assemble(parseCase(t, raw), Options{Today: testToday}), KeyEPI)
	assert.Contains(t, got, "data de distribuição da ação não informada")
}

func TestColumnWidths(t *testing.T) {
	tests := []struct {
		name   string
		widths []float64
		rows   [][]Cell
		want   []float64
	}{
		{name: "ratios", widths: []float64{0.25, 0.75}, want: []float64{100, 300}},
		{name: "unnormalized ratios", widths: []float64{1, 3}, want: []float64{100, 300}},
		{name: "too few ratios", widths: []float64{1}, rows: [][]Cell{{{}, {}}}, want: []float64{200, 200}},
		{name: "zero ratio", widths: []float64{0, 1}, want: []float64{200, 200}},
		{name: "spans widen the grid", rows: [][]Cell{{{Span: 2}, {}}}, want: []float64{400.0 / 3, 400.0 / 3, 400.0 / 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := &Table{Widths: tt.widths, Rows: tt.rows}
			assert.InDeltaSlice(t, tt.want, tbl.ColumnWidths(400), 1e-9)
		})
	}
}

func TestSpans(t *testing.T) {
	assert.Equal(t, []int{1, 3}, Spans([]Cell{{}, {}}, 4), "last cell stretches")
	assert.Equal(t, []int{2, 1}, Spans([]Cell{{Span: 2}, {}}, 3))
	assert.Equal(t, []int{3, 0}, Spans([]Cell{{Span: 5}, {}}, 3), "cells past the grid")
	assert.Empty(t, Spans(nil, 2))
}
