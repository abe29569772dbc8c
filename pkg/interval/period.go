package interval

import (
	"fmt"
	"time"
)

// ImprescritoYears is the length of the lookback window before the distribution date.
const ImprescritoYears = 5

// Period is a closed range of calendar days.
type Period struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Start.IsZero() && p.End.IsZero()
}

// Days returns the number of calendar days in the period, both ends included.
func (p Period) Days() int {
	if p.IsZero() || p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Contains reports whether t falls within the period.
func (p Period) Contains(t time.Time) bool {
	t = Day(t)
	return !t.Before(p.Start) && !t.After(p.End)
}

// Label returns the calendar difference between start and end.
func (p Period) Label() string {
	return DiffCalendarLabel(p.Start, p.End)
}

// String renders the period as "01/03/2015 a 15/03/2020 (5 anos e 14 dias)".
func (p Period) String() string {
	if p.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s a %s (%s)", Format(p.Start), Format(p.End), p.Label())
}

// Range returns "DD/MM/YYYY a DD/MM/YYYY" without the difference label.
func (p Period) Range() string {
	return fmt.Sprintf("%s a %s", Format(p.Start), Format(p.End))
}

// BuildEmploymentPeriod scans free-text position periods and returns the earliest start
// and latest end among those carrying at least two DD/MM/YYYY dates. The boolean is false
// when no period qualifies.
func BuildEmploymentPeriod(periods []string) (Period, bool) {
	var out Period
	found := false
	for _, text := range periods {
		dates := FindDates(text)
		if len(dates) < 2 {
			continue
		}
		start, end := dates[0], dates[0]
		for _, d := range dates[1:] {
			if d.Before(start) {
				start = d
			}
			if d.After(end) {
				end = d
			}
		}
		if !found || start.Before(out.Start) {
			out.Start = start
		}
		if !found || end.After(out.End) {
			out.End = end
		}
		found = true
	}
	return out, found
}

// EffectivePeriod returns the period the EPI analysis covers. Without imprescritoOnly it is
// the employment period itself. Otherwise the employment period is clipped to the
// ImprescritoYears before distribution. When no window can be computed the returned period
// is zero and the diagnostic explains why, in report language.
func EffectivePeriod(employment Period, imprescritoOnly bool, distribution time.Time) (Period, string) {
	if employment.IsZero() {
		return Period{}, "Período contratual não identificado nos cargos do reclamante; a análise de periodicidade não pôde ser calculada."
	}
	if !imprescritoOnly {
		return employment, ""
	}
	if distribution.IsZero() {
		return Period{}, "Período imprescrito não calculado: data de distribuição da ação não informada."
	}
	distribution = Day(distribution)
	limit := distribution.AddDate(-ImprescritoYears, 0, 0)

	window := employment
	if window.Start.Before(limit) {
		window.Start = limit
	}
	if window.End.After(distribution) {
		window.End = distribution
	}
	if window.End.Before(window.Start) {
		return Period{}, fmt.Sprintf(
			"Período imprescrito não calculado: o contrato (%s) não alcança o período de %s a %s (%d anos anteriores à distribuição).",
			employment.Range(), Format(limit), Format(distribution), ImprescritoYears)
	}
	return window, ""
}
