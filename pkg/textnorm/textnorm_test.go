package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func annexTuples(chunks []AnnexChunk) []AnnexChunk {
	var out []AnnexChunk
	for _, c := range chunks {
		if c.Kind == ChunkAnnex {
			out = append(out, AnnexChunk{Kind: ChunkAnnex, Annex: c.Annex, Title: c.Title, Lines: c.Lines})
		}
	}
	return out
}

func TestParseAnnexChunksRoundTrip(t *testing.T) {
	inputs := []string{
		"Resultado Anexo 13 — Agentes químicos | Exposição: Ocorre | Obs: manuseio de óleos\n\nResultado Anexo 1 — Ruído | Exposição: Não ocorre",
		"Texto introdutório.\n\nResultado Anexo 3 — Calor | Exposição: Ocorre | Enquadramento: insalubre em grau médio",
		"Resultado Anexo 14 — Agentes biológicos\nExposição: Não ocorre\nObservações: sem contato com pacientes",
	}
	for _, in := range inputs {
		first := ParseAnnexChunks(in)
		second := ParseAnnexChunks(RenderAnnexChunks(first))
		assert.Equal(t, annexTuples(first), annexTuples(second), in)
	}
}

func TestParseAnnexChunksFields(t *testing.T) {
	chunks := ParseAnnexChunks("Resultado Anexo 13 — Agentes químicos | Exposição: Ocorre | Obs: manuseio de óleos")
	require.Len(t, chunks, 1)
	c := chunks[0]
	assert.Equal(t, ChunkAnnex, c.Kind)
	assert.Equal(t, 13, c.Annex)
	assert.Equal(t, "Agentes químicos", c.Title)
	assert.Equal(t, []string{"Exposição: Ocorre", "Obs: manuseio de óleos"}, c.Lines)
}

func TestParseAnnexChunksDuplicateHeading(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "theme repeated after dash", in: "Resultado Anexo 13 — Agentes químicos — Agentes químicos | Exposição: Ocorre"},
		{name: "theme repeated back to back", in: "Resultado Anexo 13 — Agentes químicos Agentes químicos | Exposição: Ocorre"},
		{name: "heading repeated mid-line", in: "Resultado Anexo 13 — Resultado Anexo 13 — Agentes químicos | Exposição: Ocorre"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := ParseAnnexChunks(tt.in)
			require.Len(t, chunks, 1)
			assert.Equal(t, "Agentes químicos", chunks[0].Title)
			assert.Equal(t, []string{"Exposição: Ocorre"}, chunks[0].Lines)
		})
	}
}

func TestParseAnnexChunksPlaceholderMerge(t *testing.T) {
	placeholder := "Resultado Anexo 3 — Calor | " + Placeholder
	real := "Resultado Anexo 3 — Calor | Exposição: Ocorre"
	for _, in := range []string{placeholder + "\n\n" + real, real + "\n\n" + placeholder} {
		chunks := ParseAnnexChunks(in)
		require.Len(t, chunks, 1, in)
		assert.Equal(t, []string{"Exposição: Ocorre"}, chunks[0].Lines, in)
	}
}

func TestParseAnnexChunksConcatenatesWithoutDuplicates(t *testing.T) {
	chunks := ParseAnnexChunks("Resultado Anexo 1 — Ruído | Exposição: Ocorre\n\nResultado Anexo 1 — Ruído | Exposição: Ocorre | Obs: 90 dB(A)")
	require.Len(t, chunks, 1)
	assert.Equal(t, []string{"Exposição: Ocorre", "Obs: 90 dB(A)"}, chunks[0].Lines)
}

func TestParseAnnexChunksGluedHeading(t *testing.T) {
	chunks := ParseAnnexChunks("Texto introdutório. Resultado Anexo 1 — Ruído | Exposição: Ocorre")
	require.Len(t, chunks, 2)
	assert.Equal(t, ChunkText, chunks[0].Kind)
	assert.Equal(t, "Texto introdutório.", chunks[0].Text)
	assert.Equal(t, 1, chunks[1].Annex)
}

func TestParseAnnexChunksGluedLabel(t *testing.T) {
	chunks := ParseAnnexChunks("Resultado Anexo 1 — Ruído Exposição: Ocorre")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Ruído", chunks[0].Title)
	assert.Equal(t, []string{"Exposição: Ocorre"}, chunks[0].Lines)
}

func TestParseAnnexChunksPlainText(t *testing.T) {
	chunks := ParseAnnexChunks("Não foram constatados agentes insalubres.")
	require.Len(t, chunks, 1)
	assert.Equal(t, ChunkText, chunks[0].Kind)
	assert.Equal(t, "Não foram constatados agentes insalubres.", chunks[0].Text)
}

func TestFixGrammar(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A atividade do reclamante não enquadrado  como insalubre.", "A atividade do reclamante não enquadrada como insalubre."},
		{"O agente não enquadrado.", "O agente não enquadrado."},
		{"Linha 1   \n  Linha 2", "Linha 1\nLinha 2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FixGrammar(tt.in))
	}
}

func TestSanitizeLawyerFromName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Empresa XYZ Ltda ADVOGADO: Dr. Fulano de Tal", "Empresa XYZ Ltda"},
		{"Empresa XYZ Ltda, ADVOGADA: Maria", "Empresa XYZ Ltda"},
		{"  Empresa   XYZ  ", "Empresa XYZ"},
		{"Comércio ABC S.A.", "Comércio ABC S.A."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeLawyerFromName(tt.in))
	}
}

func TestParseExposureRows(t *testing.T) {
	rows := ParseExposureRows(`Análise qualitativa:
- Anexo 13 — Ruído (Ocorre exposição) [confirmado]
- Anexo 13 — Ruído (Ocorre exposição) [confirmado]
• Anexo 11 — Agentes químicos (Não ocorre)
* Anexo 3 — Calor`)
	require.Len(t, rows, 3)
	assert.Equal(t, ExposureRow{Annex: "13", Agent: "Ruído", Exposure: "Ocorre exposição", Observation: "confirmado"}, rows[0])
	assert.Equal(t, ExposureRow{Annex: "11", Agent: "Agentes químicos", Exposure: "Não ocorre"}, rows[1])
	assert.Equal(t, ExposureRow{Annex: "3", Agent: "Calor"}, rows[2])
}

func TestDedupeRowsIgnoresCaseAndSpacing(t *testing.T) {
	rows := DedupeRows([]ExposureRow{
		{Annex: "13", Agent: "Ruído", Exposure: "Ocorre"},
		{Annex: "13", Agent: " ruído ", Exposure: "OCORRE"},
		{Annex: "13", Agent: "Ruído", Exposure: "Não ocorre"},
	})
	assert.Len(t, rows, 2)
}
