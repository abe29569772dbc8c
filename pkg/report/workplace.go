package report

import (
	"strconv"
	"strings"

	"github.com/gardar/laudo/pkg/casedata"
)

// specialConditions maps special_condition values to the sentence that replaces the
// standard characteristics table.
var specialConditions = map[string]string{
	"ceu_aberto": "As atividades do reclamante eram desenvolvidas a céu aberto, não havendo edificação que caracterize um local de trabalho fixo.",
	"open_air":   "As atividades do reclamante eram desenvolvidas a céu aberto, não havendo edificação que caracterize um local de trabalho fixo.",
	"veiculo":    "As atividades do reclamante eram desenvolvidas predominantemente no interior de veículo.",
	"vehicle":    "As atividades do reclamante eram desenvolvidas predominantemente no interior de veículo.",
	"outro":      "O local de trabalho do reclamante apresenta condição especial, descrita a seguir.",
	"other":      "O local de trabalho do reclamante apresenta condição especial, descrita a seguir.",
}

func buildWorkplace(ctx *Context) []Block {
	w := ctx.Case.Workplace
	if w.IsEmpty() {
		return []Block{text(casedata.NotInformed)}
	}
	switch w.Kind {
	case casedata.WorkplaceStructured:
		return structuredWorkplace(w.Fields)
	case casedata.WorkplaceText:
		return paragraphs(casedata.PlainText(w.Text))
	case casedata.WorkplaceRecords:
		return recordsWorkplace(w.Records)
	}
	return []Block{text(casedata.NotInformed)}
}

func structuredWorkplace(f casedata.WorkplaceFields) []Block {
	key := strings.ToLower(strings.ReplaceAll(f.SpecialCondition.Trim(), " ", "_"))
	if sentence, ok := specialConditions[key]; ok {
		out := []Block{text(sentence)}
		out = append(out, paragraphs(f.SpecialConditionDescription.Plain())...)
		return append(out, paragraphs(f.Description.Plain())...)
	}

	var pairs [][2]string
	for _, p := range []struct {
		label string
		value casedata.Text
	}{
		{"Área", f.Area},
		{"Pé-direito", f.CeilingHeight},
		{"Piso", f.Floor},
		{"Paredes", f.Walls},
		{"Cobertura", f.Roof},
		{"Iluminação", f.Lighting},
		{"Ventilação", f.Ventilation},
	} {
		if !p.value.IsBlank() {
			pairs = append(pairs, [2]string{p.label, p.value.Plain()})
		}
	}
	var out []Block
	if len(pairs) > 0 {
		out = append(out, keyValueTable(pairs))
	}
	out = append(out, paragraphs(f.Description.Plain())...)
	if len(out) == 0 {
		out = append(out, text(casedata.NotInformed))
	}
	return out
}

// recordsWorkplace renders ad-hoc records as a generic two-column table, one group of
// rows per record.
func recordsWorkplace(records []casedata.Record) []Block {
	t := &Table{Widths: []float64{0.35, 0.65}, HeaderRows: 1}
	t.Rows = append(t.Rows, header("Característica", "Descrição"))
	for i, rec := range records {
		if len(records) > 1 {
			t.Rows = append(t.Rows, []Cell{{Text: "Ambiente " + strconv.Itoa(i+1), Bold: true, Span: 2, Align: AlignLeft}})
		}
		for _, f := range rec {
			t.Rows = append(t.Rows, []Cell{
				{Text: humanizeKey(f.Key), Bold: true, Align: AlignLeft},
				{Text: orDash(f.Value), Align: AlignLeft},
			})
		}
	}
	return []Block{t}
}

// humanizeKey turns "ceiling_height" into "Ceiling height".
func humanizeKey(k string) string {
	k = strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(k))
	if k == "" {
		return "-"
	}
	r := []rune(k)
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
