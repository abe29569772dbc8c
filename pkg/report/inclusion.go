package report

import (
	"strings"

	"github.com/gardar/laudo/pkg/casedata"
	"github.com/gardar/laudo/pkg/textnorm"
)

// Inclusion tells which analysis blocks a report carries.
type Inclusion struct {
	Insalubrity  bool
	Periculosity bool
	Source       string // what decided: "report_type", "flags", "inferred" or "default"
}

// Both reports whether the report is the complete variant.
func (i Inclusion) Both() bool { return i.Insalubrity && i.Periculosity }

// DecideInclusion decides the report variant, in priority order: an explicit report type
// (reportType, else report_config.flags.reportType), the per-type flags when they disagree,
// the presence of structured rows or filled-in narratives, and finally both. A report
// without either analysis falls back to insalubrity.
func DecideInclusion(c *casedata.Case, reportType string) Inclusion {
	flags := c.ReportConfig.Flags
	if strings.TrimSpace(reportType) == "" {
		reportType = flags.ReportType.Trim()
	}

	inc, ok := fromReportType(reportType)
	switch {
	case ok:
	case flags.IncludeInsalubridade.Set && flags.IncludePericulosidade.Set &&
		flags.IncludeInsalubridade.Value != flags.IncludePericulosidade.Value:
		inc = Inclusion{
			Insalubrity:  flags.IncludeInsalubridade.Value,
			Periculosity: flags.IncludePericulosidade.Value,
			Source:       "flags",
		}
	default:
		tables := c.ReportConfig.AnalysisTables
		inc = Inclusion{
			Insalubrity: len(tables.NR15) > 0 || filledIn(c.InsalubrityAnalysis) || filledIn(c.InsalubrityResults),
			Periculosity: len(tables.NR16) > 0 || filledIn(c.PericulosityAnalysis) ||
				filledIn(c.PericulosityResults),
			Source: "inferred",
		}
		if !inc.Insalubrity && !inc.Periculosity {
			inc = Inclusion{Insalubrity: true, Periculosity: true, Source: "default"}
		}
	}
	if !inc.Insalubrity && !inc.Periculosity {
		inc.Insalubrity = true
	}
	return inc
}

func fromReportType(t string) (Inclusion, bool) {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case TypeInsalubrity:
		return Inclusion{Insalubrity: true, Source: "report_type"}, true
	case TypePericulosity:
		return Inclusion{Periculosity: true, Source: "report_type"}, true
	case TypeComplete, "ambos", "both":
		return Inclusion{Insalubrity: true, Periculosity: true, Source: "report_type"}, true
	}
	return Inclusion{}, false
}

// filledIn reports whether a narrative carries real content: not blank, not the
// "Não informado" fallback and not the pending-result placeholder.
func filledIn(t casedata.Text) bool {
	s := strings.TrimSpace(t.Plain())
	s = strings.TrimRight(s, ". ")
	if s == "" || s == textnorm.Placeholder {
		return false
	}
	return !strings.EqualFold(s, casedata.NotInformed)
}
