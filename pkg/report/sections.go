package report

import (
	"fmt"
	"strings"

	"github.com/gardar/laudo/pkg/casedata"
	"github.com/gardar/laudo/pkg/interval"
)

func buildIdentification(ctx *Context) []Block {
	c := ctx.Case
	return []Block{keyValueTable([][2]string{
		{"Processo nº", or(c.ProcessNumber)},
		{"Reclamante", orString(ctx.ClaimantName)},
		{"Reclamada", orString(ctx.DefendantName)},
		{"Vara / Tribunal", or(c.Court)},
		{"Comarca", or(c.City)},
		{"Data de distribuição", displayDate(c.DistributionDate)},
		{"Data da perícia", displayDate(c.InspectionDate)},
		{"Perito", or(c.ExpertName)},
	})}
}

func buildParties(ctx *Context) []Block {
	return []Block{
		labeled("Reclamante", orString(ctx.ClaimantName)),
		labeled("Reclamada", orString(ctx.DefendantName)),
	}
}

func buildObjective(ctx *Context) []Block {
	return narrative(ctx.Case.Objective, fmt.Sprintf(
		"O presente laudo tem por objetivo verificar, por meio de inspeção no local de trabalho e análise "+
			"documental, se as atividades desenvolvidas pelo reclamante caracterizam %s, nos termos da "+
			"legislação vigente.", variantPhrase(ctx.Inclusion)))
}

func buildMethodology(ctx *Context) []Block {
	return narrative(ctx.Case.Methodology, "A perícia foi realizada mediante vistoria no local de trabalho, "+
		"entrevista com o reclamante e com os representantes da reclamada, análise dos documentos "+
		"juntados aos autos e enquadramento técnico conforme as Normas Regulamentadoras NR-15 e NR-16 "+
		"da Portaria 3.214/78 do Ministério do Trabalho.")
}

func buildDocuments(ctx *Context) []Block {
	docs := ctx.Case.DocumentsPresented
	if len(docs) == 0 {
		return []Block{text(casedata.NotInformed)}
	}
	out := []Block{text("Foram analisados os seguintes documentos:")}
	for _, d := range docs {
		out = append(out, &Paragraph{Runs: []Run{{Text: d}}, Align: AlignLeft, Bullet: true})
	}
	return out
}

func buildDiligence(ctx *Context) []Block {
	var out []Block
	for _, d := range ctx.Case.Diligences {
		var parts []string
		if !d.Date.IsBlank() {
			parts = append(parts, "em "+displayDate(d.Date))
		}
		if !d.Time.IsBlank() {
			parts = append(parts, "às "+d.Time.Plain())
		}
		if !d.Location.IsBlank() {
			parts = append(parts, "no endereço "+d.Location.Plain())
		}
		if len(parts) > 0 {
			out = append(out, text("A diligência pericial foi realizada "+strings.Join(parts, ", ")+"."))
		}
		out = append(out, paragraphs(d.Description.Plain())...)
	}
	if len(out) == 0 {
		out = append(out, text(casedata.NotInformed))
	}
	return append(out, gallery(ctx, ctx.Config.Galleries.Diligence)...)
}

func buildAttendees(ctx *Context) []Block {
	attendees := ctx.Case.Attendees
	if len(attendees) == 0 {
		return []Block{text(casedata.NotInformed)}
	}
	t := &Table{Widths: []float64{0.4, 0.3, 0.3}, HeaderRows: 1}
	t.Rows = append(t.Rows, header("Nome", "Função", "Empresa / Parte"))
	for _, a := range attendees {
		t.Rows = append(t.Rows, row(a.Name.Plain(), a.Role.Plain(), a.Company.Plain()))
	}
	return []Block{text("Acompanharam a diligência pericial:"), t}
}

func buildHistory(ctx *Context) []Block {
	var out []Block
	positions := ctx.Case.ClaimantPositions
	if len(positions) == 0 {
		out = append(out, text(casedata.NotInformed))
	} else {
		t := &Table{Widths: []float64{0.25, 0.2, 0.25, 0.3}, HeaderRows: 1}
		t.Rows = append(t.Rows, header("Cargo", "Setor", "Período", "Descrição"))
		for _, p := range positions {
			t.Rows = append(t.Rows, row(p.Title.Plain(), p.Sector.Plain(), p.Period.Plain(), p.Description.Plain()))
		}
		out = append(out, t)
	}
	if ctx.HasEmployment {
		out = append(out, labeled("Período contratual", ctx.Employment.String()))
	} else {
		out = append(out, labeled("Período contratual", "não identificado nos registros de cargos"))
	}
	return out
}

func buildInitialClaims(ctx *Context) []Block {
	return narrative(ctx.Case.InitialNarrative, casedata.NotInformed)
}

func buildDefenseClaims(ctx *Context) []Block {
	return narrative(ctx.Case.DefenseNarrative, casedata.NotInformed)
}

func buildActivities(ctx *Context) []Block {
	return narrative(ctx.Case.ActivitiesDescription, casedata.NotInformed)
}

func buildEPC(ctx *Context) []Block {
	return narrative(ctx.Case.EPC, "Não foram identificados equipamentos de proteção coletiva no local de trabalho.")
}

func buildPericulosityConcept(ctx *Context) []Block {
	return []Block{
		text("Nos termos do artigo 193 da Consolidação das Leis do Trabalho, são consideradas atividades " +
			"ou operações perigosas, na forma da regulamentação aprovada pelo Ministério do Trabalho, " +
			"aquelas que, por sua natureza ou métodos de trabalho, impliquem risco acentuado em virtude " +
			"de exposição permanente do trabalhador a inflamáveis, explosivos, energia elétrica, roubos " +
			"ou outras espécies de violência física nas atividades profissionais de segurança pessoal ou " +
			"patrimonial, e atividades de trabalhador em motocicleta."),
		text("O trabalho em condições de periculosidade assegura ao empregado um adicional de 30% sobre o " +
			"salário, sem os acréscimos resultantes de gratificações, prêmios ou participações nos lucros " +
			"da empresa. A caracterização é feita por meio de perícia, conforme a Norma Regulamentadora NR-16."),
	}
}

func buildFlammables(ctx *Context) []Block {
	out := []Block{
		text("Conforme a Norma Regulamentadora NR-20, líquidos inflamáveis são aqueles que possuem ponto " +
			"de fulgor igual ou inferior a 60 °C. Gases inflamáveis são aqueles que inflamam com o ar a " +
			"20 °C e a uma pressão padrão de 101,3 kPa."),
	}
	products := ctx.Case.FlammableProducts
	if len(products) == 0 {
		return out
	}
	out = append(out, text("Foram identificados os seguintes produtos no local de trabalho, cujas Fichas de "+
		"Informações de Segurança de Produtos Químicos (FISPQ) seguem anexas a este laudo:"))
	t := &Table{Widths: []float64{0.35, 0.45, 0.2}, HeaderRows: 1}
	t.Rows = append(t.Rows, header("Produto", "Observações", "FISPQ"))
	for _, p := range products {
		fispq := "Anexada"
		if p.AttachmentPath.IsBlank() {
			fispq = "Não anexada"
		}
		t.Rows = append(t.Rows, row(p.Name.Plain(), p.Notes.Plain(), fispq))
	}
	return append(out, t)
}

func buildQuestionnaires(ctx *Context) []Block {
	q := ctx.Config.Questionnaires
	n := ctx.Number(KeyQuestionnaires)
	var out []Block
	for i, item := range []struct {
		title string
		text  casedata.Text
	}{
		{"Quesitos do Reclamante", q.Claimant},
		{"Quesitos da Reclamada", q.Defendant},
		{"Quesitos do Juízo", q.Court},
	} {
		out = append(out, subheading(fmt.Sprintf("%d.%d %s", n, i+1, item.title)))
		out = append(out, narrative(item.text, "Não foram apresentados quesitos.")...)
	}
	return out
}

func buildConclusion(ctx *Context) []Block {
	c := ctx.Case
	out := narrative(c.Conclusion, fmt.Sprintf(
		"Com base na vistoria realizada, nas informações colhidas e na análise dos documentos dos autos, "+
			"o perito conclui pela avaliação de %s conforme exposto nos itens anteriores deste laudo.",
		variantPhrase(ctx.Inclusion)))

	out = append(out,
		&Paragraph{Runs: []Run{{Text: "É o laudo."}}, Align: AlignLeft, SpaceBefore: 12},
		&Paragraph{Runs: []Run{{Text: closingLine(ctx)}}, Align: AlignRight, SpaceBefore: 12},
	)

	sig := c.ReportConfig.Signature
	if ref := sig.Source(); ref != "" && !ctx.SafeMode {
		img := &Image{Ref: ref, Align: AlignCenter, MaxWidth: 170, MaxHeight: 70}
		if w := float64(sig.WidthCm); w > 0 {
			img.MaxWidth = cmToPt(w)
		}
		if h := float64(sig.HeightCm); h > 0 {
			img.MaxHeight = cmToPt(h)
		}
		out = append(out, img)
	} else {
		out = append(out, &Paragraph{Runs: []Run{{Text: "_______________________________________"}}, Align: AlignCenter, SpaceBefore: 36})
	}
	out = append(out, &Paragraph{Runs: []Run{{Text: orString(c.ExpertName.Plain()), Bold: true}}, Align: AlignCenter})
	if reg := c.ExpertRegistration.Plain(); reg != "" {
		out = append(out, &Paragraph{Runs: []Run{{Text: reg}}, Align: AlignCenter})
	}
	out = append(out, &Paragraph{Runs: []Run{{Text: "Perito do Juízo"}}, Align: AlignCenter})
	return out
}

func buildCover(ctx *Context) []Block {
	c := ctx.Case
	court := "EXCELENTÍSSIMO(A) SENHOR(A) DOUTOR(A) JUIZ(A) DO TRABALHO"
	if v := c.Court.Plain(); v != "" {
		court = "EXCELENTÍSSIMO(A) SENHOR(A) DOUTOR(A) JUIZ(A) DA " + strings.ToUpper(v)
	}
	if city := c.City.Plain(); city != "" {
		court += " DE " + strings.ToUpper(city)
	}
	return []Block{
		&Paragraph{Runs: []Run{{Text: court, Bold: true}}, Align: AlignCenter, Style: StyleSubtitle, SpaceAfter: 48},
		labeled("Processo nº", or(c.ProcessNumber)),
		labeled("Reclamante", orString(ctx.ClaimantName)),
		labeled("Reclamada", orString(ctx.DefendantName)),
		&Paragraph{Runs: []Run{{Text: "LAUDO PERICIAL", Bold: true}}, Align: AlignCenter, Style: StyleTitle, SpaceBefore: 72},
		&Paragraph{Runs: []Run{{Text: strings.ToUpper(variantTitle(ctx.Inclusion)), Bold: true}}, Align: AlignCenter, Style: StyleSubtitle, SpaceAfter: 48},
		text(fmt.Sprintf("%s, perito nomeado nos autos da reclamação trabalhista movida por %s em face de %s, "+
			"tendo realizado os estudos e diligências necessários, vem respeitosamente apresentar a Vossa "+
			"Excelência o seu LAUDO PERICIAL, consubstanciado nos termos a seguir.",
			orString(c.ExpertName.Plain()), orString(ctx.ClaimantName), orString(ctx.DefendantName))),
		&Paragraph{Runs: []Run{{Text: closingLine(ctx)}}, Align: AlignRight, SpaceBefore: 24},
	}
}

// variantPhrase is the inline description of the analyses a report covers.
func variantPhrase(inc Inclusion) string {
	switch {
	case inc.Both():
		return "condições de insalubridade e/ou periculosidade"
	case inc.Periculosity:
		return "condições de periculosidade"
	}
	return "condições de insalubridade"
}

func variantTitle(inc Inclusion) string {
	switch {
	case inc.Both():
		return "Insalubridade e Periculosidade"
	case inc.Periculosity:
		return "Periculosidade"
	}
	return "Insalubridade"
}

var monthNames = [...]string{"janeiro", "fevereiro", "março", "abril", "maio", "junho", "julho",
	"agosto", "setembro", "outubro", "novembro", "dezembro"}

// closingLine is "Cidade, 5 de março de 2024." using the render date.
func closingLine(ctx *Context) string {
	d := ctx.Today
	date := fmt.Sprintf("%d de %s de %d", d.Day(), monthNames[d.Month()-1], d.Year())
	if city := ctx.Case.City.Plain(); city != "" {
		return city + ", " + date + "."
	}
	return date + "."
}

func orString(s string) string {
	if strings.TrimSpace(s) == "" {
		return casedata.NotInformed
	}
	return strings.TrimSpace(s)
}

// displayDate renders an ISO or BR date as DD/MM/YYYY, keeping unparseable text as typed.
func displayDate(t casedata.Text) string {
	if d, ok := interval.ParseDate(t.Trim()); ok {
		return interval.Format(d)
	}
	return or(t)
}

func cmToPt(cm float64) float64 {
	return cm / 2.54 * 72
}
