// Package interval implements the calendar arithmetic of a report: employment periods,
// calendar-accurate differences, the imprescrito window and EPI delivery coverage.
//
// All dates are calendar days represented as time.Time at midnight UTC. Values coming from
// elsewhere must go through Day before any arithmetic so that time of day, time zones and
// daylight saving never shift a difference by one day.
//
// Main Functions:
//
// - ParseDate / FindDates: ISO and DD/MM/YYYY parsing
// - DiffCalendar / DiffCalendarLabel: "X anos, Y meses e Z dias"
// - BuildEmploymentPeriod: earliest start and latest end across position periods
// - EffectivePeriod: optional clipping to the 5-year window before distribution
// - Evaluate: delivery intervals, coverage windows and insufficient-protection gaps
package interval

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout is the display format of a calendar date.
const Layout = "02/01/2006"

var (
	brDatePattern  = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	isoDatePattern = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`)
)

// Day truncates t to its calendar date at midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date returns the calendar date y-m-d.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Format renders a calendar date as DD/MM/YYYY.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// DaysBetween returns the number of calendar days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// AddDays returns the date n days after t.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// ParseDate parses an ISO date (YYYY-MM-DD, optionally followed by a time) or a
// DD/MM/YYYY date. Impossible dates such as 31/02/2020 are rejected.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		return makeDate(m[1], m[2], m[3])
	}
	if m := brDatePattern.FindStringSubmatch(s); m != nil && m[0] == s {
		return makeDate(m[3], m[2], m[1])
	}
	return time.Time{}, false
}

// FindDates returns every valid DD/MM/YYYY date in s, in order of appearance.
func FindDates(s string) []time.Time {
	var out []time.Time
	for _, m := range brDatePattern.FindAllStringSubmatch(s, -1) {
		if t, ok := makeDate(m[3], m[2], m[1]); ok {
			out = append(out, t)
		}
	}
	return out
}

func makeDate(ys, ms, ds string) (time.Time, bool) {
	y, err1 := strconv.Atoi(ys)
	m, err2 := strconv.Atoi(ms)
	d, err3 := strconv.Atoi(ds)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	t := Date(y, time.Month(m), d)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// Diff is a calendar difference.
type Diff struct {
	Years  int
	Months int
	Days   int
}

// DiffCalendar returns the calendar difference between two dates, in either order.
// When the day of month underflows, one month is borrowed using the real length of the
// month preceding the end date's month. A start day that the borrowed month does not have
// is not carried forward and the days clamp to zero, so both 31/01/2020 to 01/03/2020
// and 30/01/2019 to 01/03/2019 read "1 mês".
func DiffCalendar(a, b time.Time) Diff {
	a, b = Day(a), Day(b)
	if b.Before(a) {
		a, b = b, a
	}
	years := b.Year() - a.Year()
	months := int(b.Month()) - int(a.Month())
	days := b.Day() - a.Day()
	if days < 0 {
		months--
		days += daysIn(b.Year(), b.Month()-1)
		if days < 0 {
			days = 0
		}
	}
	if months < 0 {
		years--
		months += 12
	}
	return Diff{Years: years, Months: months, Days: days}
}

// daysIn returns the number of days of month m in year y. Month 0 is December of y-1.
func daysIn(y int, m time.Month) int {
	return Date(y, m+1, 0).Day()
}

// Label renders the difference as "X anos, Y meses e Z dias", omitting zero parts.
func (d Diff) Label() string {
	var parts []string
	if d.Years > 0 {
		parts = append(parts, plural(d.Years, "ano", "anos"))
	}
	if d.Months > 0 {
		parts = append(parts, plural(d.Months, "mês", "meses"))
	}
	if d.Days > 0 {
		parts = append(parts, plural(d.Days, "dia", "dias"))
	}
	if len(parts) == 0 {
		return "0 dias"
	}
	return JoinPT(parts)
}

// DiffCalendarLabel is DiffCalendar(a, b).Label().
func DiffCalendarLabel(a, b time.Time) string {
	return DiffCalendar(a, b).Label()
}

// JoinPT joins items Portuguese style: "a", "a e b", "a, b e c".
func JoinPT(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " e " + items[len(items)-1]
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// DayCount renders n days with singular/plural agreement.
func DayCount(n int) string {
	return plural(n, "dia", "dias")
}
