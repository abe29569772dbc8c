package report

import (
	"fmt"
	"strconv"

	"github.com/gardar/laudo/pkg/casedata"
	"github.com/gardar/laudo/pkg/interval"
)

func buildEPI(ctx *Context) []Block {
	var out []Block
	epis := ctx.Case.EPIs
	if len(epis) == 0 {
		out = append(out, text(casedata.NotInformed))
	} else {
		t := &Table{Widths: []float64{0.4, 0.15, 0.45}, HeaderRows: 1}
		t.Rows = append(t.Rows, header("Equipamento", "CA", "Proteção"))
		for _, e := range epis {
			t.Rows = append(t.Rows, row(e.Equipment.Plain(), e.CA.Plain(), e.Protection.Plain()))
		}
		out = append(out, t)
	}

	cfg := ctx.Config.EPIReplacement
	if !cfg.Enabled {
		return out
	}

	n := ctx.Number(KeyEPI)
	out = append(out, subheading(fmt.Sprintf("%d.1 Periodicidade de troca dos EPIs", n)))
	out = append(out, paragraphs(cfg.Text.Plain())...)
	if len(cfg.Rows) > 0 {
		out = append(out, deliveryTable(cfg.Rows))
	}
	if len(cfg.UsefulLife) > 0 {
		t := &Table{Widths: []float64{0.6, 0.4}, HeaderRows: 1}
		t.Rows = append(t.Rows, header("Equipamento", "Vida útil"))
		for _, u := range cfg.UsefulLife {
			t.Rows = append(t.Rows, row(u.Equipment.Plain(), u.UsefulLife.Plain()))
		}
		out = append(out, t)
	}

	out = append(out, subheading(fmt.Sprintf("%d.2 Avaliação automática das entregas", n)))
	out = append(out, deliveryEvaluation(ctx, cfg)...)

	out = append(out, subheading(fmt.Sprintf("%d.3 Gestão dos EPIs", n)))
	out = append(out,
		labeled("Treinamento quanto ao uso correto", tri(cfg.Training)),
		labeled("Certificado de Aprovação (CA) válido", tri(cfg.CAValid)),
		labeled("Fiscalização do uso", tri(cfg.Inspection)),
	)
	return out
}

func deliveryTable(rows []casedata.DeliveryRow) *Table {
	t := &Table{Widths: []float64{0.3, 0.12, 0.2, 0.13, 0.25}, HeaderRows: 1, FontSize: 9}
	t.Rows = append(t.Rows, header("Equipamento", "CA", "Data de entrega", "Qtd.", "Vida útil estimada"))
	for _, r := range rows {
		date := r.Date.Plain()
		if d, ok := interval.ParseDate(date); ok {
			date = interval.Format(d)
		}
		t.Rows = append(t.Rows, row(r.Equipment.Plain(), r.CA.Plain(), date, r.Quantity.Plain(), r.EstimatedLife.Plain()))
	}
	return t
}

// deliveryEvaluation renders the effective period and, per equipment, the delivery
// rhythm and the insufficient-protection gaps.
func deliveryEvaluation(ctx *Context, cfg casedata.EPIReplacement) []Block {
	employment := interval.Period{}
	if ctx.HasEmployment {
		employment = ctx.Employment
	}
	window, diagnostic := interval.EffectivePeriod(employment, bool(cfg.ImprescritoOnly), ctx.Distribution)
	if diagnostic != "" {
		return []Block{text(diagnostic)}
	}

	label := "Período analisado"
	if cfg.ImprescritoOnly {
		label = "Período imprescrito analisado"
	}
	out := []Block{labeled(label, window.String())}

	rows := make([]interval.Row, 0, len(cfg.Rows))
	for _, r := range cfg.Rows {
		rows = append(rows, interval.Row{
			Equipment:     r.Equipment.Plain(),
			CA:            r.CA.Plain(),
			Date:          r.Date.Trim(),
			EstimatedLife: r.EstimatedLife.Plain(),
		})
	}
	lives := make(map[string]string, len(cfg.UsefulLife))
	for _, u := range cfg.UsefulLife {
		lives[u.Equipment.Plain()] = u.UsefulLife.Plain()
	}
	groups := interval.GroupDeliveries(rows, lives)
	if len(groups) == 0 {
		return append(out, text("Não foram informadas entregas de EPI para avaliação."))
	}

	t := &Table{Widths: []float64{0.2, 0.24, 0.1, 0.18, 0.28}, HeaderRows: 1, FontSize: 9}
	t.Rows = append(t.Rows, header("Equipamento", "Entregas consideradas", "Vida útil (dias)", "Intervalo representativo", "Proteção insuficiente"))
	for _, g := range groups {
		ev := interval.Evaluate(g, window)
		t.Rows = append(t.Rows, row(ev.Equipment, ev.DeliveryDates(), strconv.Itoa(ev.LifeDays), ev.IntervalLabel(), ev.GapLabel()))
	}
	return append(out, t)
}
