// Package report turns a case record into the renderer-independent structure of a laudo.
//
// Assemble is the single place where the report variant (insalubridade, periculosidade or
// completo), the dynamic section numbers and the table of contents are decided. Both the
// DOCX and the PDF renderer consume the resulting Report and never recompute any of it, so
// the two formats cannot disagree on numbering or inclusion.
//
// Sections 1 to 15 have fixed numbers. From 16 on a running counter numbers the optional
// sections that apply, followed by the questionnaires and the conclusion.
//
// Main Functions:
//
// - Assemble: case record -> Report (cover, body blocks, numbers, table of contents, bands)
// - DecideInclusion: which of the insalubrity/periculosity blocks a report carries
package report

import (
	"strings"
	"time"

	"github.com/gardar/laudo/pkg/casedata"
	"github.com/gardar/laudo/pkg/interval"
)

// Section keys.
const (
	KeyIdentification      = "identificacao"
	KeyParties             = "partes"
	KeyObjective           = "objetivo"
	KeyMethodology         = "metodologia"
	KeyDocuments           = "documentos"
	KeyDiligence           = "diligencia"
	KeyAttendees           = "acompanhantes"
	KeyHistory             = "historico"
	KeyInitialClaims       = "inicial"
	KeyDefenseClaims       = "defesa"
	KeyWorkplace           = "local"
	KeyActivities          = "atividades"
	KeyEPI                 = "epi"
	KeyEPC                 = "epc"
	KeyExposure            = "analise"
	KeyInsalubrityResults  = "resultados_insalubridade"
	KeyPericulosityConcept = "conceito_periculosidade"
	KeyFlammables          = "inflamaveis"
	KeyPericulosityResults = "resultados_periculosidade"
	KeyQuestionnaires      = "quesitos"
	KeyConclusion          = "conclusao"
)

// firstDynamicSection is the number of the first section after the fixed ones.
const firstDynamicSection = 16

// Report types accepted by Options.ReportType and report_config.flags.reportType.
const (
	TypeInsalubrity  = "insalubridade"
	TypePericulosity = "periculosidade"
	TypeComplete     = "completo"
)

// TOCEntry is one line of the table of contents.
type TOCEntry struct {
	Key    string
	Number int
	Title  string
}

// Band is a resolved header, footer or signature band. Ref is empty when no image applies.
type Band struct {
	Ref       string
	Text      string
	WidthCm   float64 // 0 = derive from the image ratio
	HeightCm  float64 // 0 = derive from the image ratio
	Align     Align
	FillPage  bool
	SpacingCm float64
}

// Attachment is a document appended after the body (a product safety data sheet).
type Attachment struct {
	Title string
	Ref   string
}

// Report is the assembled laudo.
type Report struct {
	ProcessNumber string
	Cover         []Block
	Body          []Block
	TOC           []TOCEntry
	Numbers       map[string]int
	IncludeTOC    bool
	SafeMode      bool
	Inclusion     Inclusion
	Header        Band
	Footer        Band
	Attachments   []Attachment
}

// ImageRefs returns every image reference used by the report, in order of appearance.
func (r *Report) ImageRefs() []string {
	var refs []string
	add := func(ref string) {
		if ref != "" {
			refs = append(refs, ref)
		}
	}
	add(r.Header.Ref)
	add(r.Footer.Ref)
	for _, blocks := range [][]Block{r.Cover, r.Body} {
		for _, b := range blocks {
			switch v := b.(type) {
			case *Image:
				add(v.Ref)
			case *Gallery:
				for _, it := range v.Items {
					add(it.Ref)
				}
			}
		}
	}
	return refs
}

// FileRefs returns the references of the attachments.
func (r *Report) FileRefs() []string {
	refs := make([]string, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		refs = append(refs, a.Ref)
	}
	return refs
}

// Options controls assembly.
type Options struct {
	ReportType string    // Overrides report_config.flags.reportType when set
	SafeMode   bool      // Forces safe mode on top of report_config.flags.safeMode
	Today      time.Time // Date printed in the closing line (zero = time.Now)
}

// Assemble builds the report of a case. It never fails: every missing field renders its
// fallback text.
func Assemble(c *casedata.Case, opts Options) *Report {
	if c == nil {
		c = &casedata.Case{}
	}
	cfg := c.ReportConfig
	ctx := newContext(c, opts)

	r := &Report{
		ProcessNumber: c.ProcessNumber.Trim(),
		IncludeTOC:    cfg.Flags.TableOfContents(),
		SafeMode:      ctx.SafeMode,
		Inclusion:     ctx.Inclusion,
		Header:        resolveBand(cfg.Header, ctx.SafeMode),
		Footer:        resolveBand(cfg.Footer, ctx.SafeMode),
	}
	r.Numbers = Number(ctx.Inclusion)
	ctx.Numbers = r.Numbers

	for _, s := range sections(ctx.Inclusion) {
		n := r.Numbers[s.key]
		title := s.title(ctx)
		r.TOC = append(r.TOC, TOCEntry{Key: s.key, Number: n, Title: title})
		r.Body = append(r.Body, &SectionMarker{Key: s.key, Number: n, Title: title})
		r.Body = append(r.Body, s.build(ctx)...)
	}
	r.Cover = buildCover(ctx)

	for _, p := range c.FlammableProducts {
		if ref := p.AttachmentPath.Trim(); ref != "" {
			r.Attachments = append(r.Attachments, Attachment{
				Title: "FISPQ – " + casedata.Or(p.Name, "Produto"),
				Ref:   ref,
			})
		}
	}
	return r
}

// section is one entry of the fixed section order.
type section struct {
	key   string
	title func(*Context) string
	build func(*Context) []Block
}

func fixedTitle(t string) func(*Context) string {
	return func(*Context) string { return t }
}

// sections returns the sections that apply, in order.
func sections(inc Inclusion) []section {
	out := []section{
		{KeyIdentification, fixedTitle("IDENTIFICAÇÃO DO PROCESSO"), buildIdentification},
		{KeyParties, fixedTitle("DADOS DAS PARTES"), buildParties},
		{KeyObjective, fixedTitle("OBJETIVO"), buildObjective},
		{KeyMethodology, fixedTitle("METODOLOGIA"), buildMethodology},
		{KeyDocuments, fixedTitle("DOCUMENTOS ANALISADOS"), buildDocuments},
		{KeyDiligence, fixedTitle("DILIGÊNCIA PERICIAL"), buildDiligence},
		{KeyAttendees, fixedTitle("ACOMPANHANTES DA DILIGÊNCIA"), buildAttendees},
		{KeyHistory, fixedTitle("HISTÓRICO FUNCIONAL DO RECLAMANTE"), buildHistory},
		{KeyInitialClaims, fixedTitle("ALEGAÇÕES DA INICIAL"), buildInitialClaims},
		{KeyDefenseClaims, fixedTitle("ALEGAÇÕES DA DEFESA"), buildDefenseClaims},
		{KeyWorkplace, fixedTitle("CARACTERÍSTICAS DO LOCAL DE TRABALHO"), buildWorkplace},
		{KeyActivities, fixedTitle("ATIVIDADES DESENVOLVIDAS"), buildActivities},
		{KeyEPI, fixedTitle("EQUIPAMENTOS DE PROTEÇÃO INDIVIDUAL (EPI)"), buildEPI},
		{KeyEPC, fixedTitle("EQUIPAMENTOS DE PROTEÇÃO COLETIVA (EPC)"), buildEPC},
		{KeyExposure, exposureTitle, buildExposure},
	}
	if inc.Insalubrity {
		out = append(out, section{KeyInsalubrityResults, fixedTitle("RESULTADOS DA AVALIAÇÃO DE INSALUBRIDADE"), buildInsalubrityResults})
	}
	if inc.Periculosity {
		out = append(out,
			section{KeyPericulosityConcept, fixedTitle("CONCEITO DE PERICULOSIDADE"), buildPericulosityConcept},
			section{KeyFlammables, fixedTitle("DEFINIÇÃO DE PRODUTOS INFLAMÁVEIS"), buildFlammables},
			section{KeyPericulosityResults, fixedTitle("RESULTADOS DA AVALIAÇÃO DE PERICULOSIDADE"), buildPericulosityResults},
		)
	}
	return append(out,
		section{KeyQuestionnaires, fixedTitle("QUESITOS"), buildQuestionnaires},
		section{KeyConclusion, fixedTitle("CONCLUSÃO"), buildConclusion},
	)
}

// fixedKeys are the sections numbered 1 to 15 in every variant.
var fixedKeys = []string{
	KeyIdentification, KeyParties, KeyObjective, KeyMethodology, KeyDocuments,
	KeyDiligence, KeyAttendees, KeyHistory, KeyInitialClaims, KeyDefenseClaims,
	KeyWorkplace, KeyActivities, KeyEPI, KeyEPC, KeyExposure,
}

// Number assigns section numbers for an inclusion decision.
func Number(inc Inclusion) map[string]int {
	numbers := make(map[string]int, len(fixedKeys)+6)
	for i, k := range fixedKeys {
		numbers[k] = i + 1
	}
	next := firstDynamicSection
	assign := func(k string) {
		numbers[k] = next
		next++
	}
	if inc.Insalubrity {
		assign(KeyInsalubrityResults)
	}
	if inc.Periculosity {
		assign(KeyPericulosityConcept)
		assign(KeyFlammables)
		assign(KeyPericulosityResults)
	}
	assign(KeyQuestionnaires)
	assign(KeyConclusion)
	return numbers
}

func resolveBand(b casedata.Band, safeMode bool) Band {
	out := Band{
		Text:      b.Text.Plain(),
		WidthCm:   float64(b.WidthCm),
		HeightCm:  float64(b.HeightCm),
		FillPage:  bool(b.FillPage),
		SpacingCm: float64(b.SpacingCm),
	}
	switch b.Align() {
	case "left":
		out.Align = AlignLeft
	case "right":
		out.Align = AlignRight
	default:
		out.Align = AlignCenter
	}
	if !safeMode {
		out.Ref = b.Source()
	}
	return out
}

// Context is the derived state shared by the section builders of one render.
type Context struct {
	Case             *casedata.Case
	Config           casedata.ReportConfig
	Inclusion        Inclusion
	Numbers          map[string]int
	SafeMode         bool
	Today            time.Time
	Employment       interval.Period
	HasEmployment    bool
	Distribution     time.Time
	DefendantName    string
	ClaimantName     string
	InsalubrityText  string // results narrative after grammar fixes
	PericulosityText string
}

func newContext(c *casedata.Case, opts Options) *Context {
	today := opts.Today
	if today.IsZero() {
		today = time.Now()
	}
	ctx := &Context{
		Case:      c,
		Config:    c.ReportConfig,
		Inclusion: DecideInclusion(c, opts.ReportType),
		SafeMode:  opts.SafeMode || bool(c.ReportConfig.Flags.SafeMode),
		Today:     interval.Day(today),
	}

	periods := make([]string, 0, len(c.ClaimantPositions))
	for _, p := range c.ClaimantPositions {
		periods = append(periods, p.Period.Plain())
	}
	ctx.Employment, ctx.HasEmployment = interval.BuildEmploymentPeriod(periods)
	if d, ok := interval.ParseDate(c.DistributionDate.Trim()); ok {
		ctx.Distribution = d
	}

	ctx.ClaimantName = strings.Join(strings.Fields(c.ClaimantName.Plain()), " ")
	ctx.DefendantName = sanitizeParty(c.DefendantName.Plain())
	ctx.InsalubrityText = resultsText(c.InsalubrityResults)
	ctx.PericulosityText = resultsText(c.PericulosityResults)
	return ctx
}

// Number returns the number of a section key, or 0 when the section is not included.
func (ctx *Context) Number(key string) int {
	return ctx.Numbers[key]
}
