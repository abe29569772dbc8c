package interval

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultLifeDays is the useful life assumed when nothing is declared for an equipment.
const DefaultLifeDays = 180

// maxListedGaps bounds how many gap ranges a label spells out.
const maxListedGaps = 3

var usefulLifeUnits = []struct {
	pattern *regexp.Regexp
	days    int
}{
	{regexp.MustCompile(`(?i)(\d+)\s*anos?\b`), 365},
	{regexp.MustCompile(`(?i)(\d+)\s*(?:meses|m[eê]s)\b`), 30},
	{regexp.MustCompile(`(?i)(\d+)\s*semanas?\b`), 7},
	{regexp.MustCompile(`(?i)(\d+)\s*dias?\b`), 1},
}

// ParseUsefulLifeDays converts free text such as "1 ano e 6 meses" into days using fixed
// factors (year 365, month 30, week 7). The boolean is false when no unit was found and
// the caller should use DefaultLifeDays.
func ParseUsefulLifeDays(text string) (int, bool) {
	total, matched := 0, false
	for _, u := range usefulLifeUnits {
		for _, m := range u.pattern.FindAllStringSubmatch(text, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			total += n * u.days
			matched = true
		}
	}
	return total, matched
}

// Row is one delivery as typed by the expert.
type Row struct {
	Equipment     string
	CA            string
	Date          string
	EstimatedLife string
}

// Equipment groups the deliveries of one equipment.
type Equipment struct {
	Name       string
	CA         string
	LifeDays   int
	Deliveries []time.Time
}

// GroupDeliveries groups rows by equipment name (case-insensitive), keeping first-seen
// order. Useful life comes from usefulLife (keyed by equipment name), then from the first
// parseable estimated_life of the equipment's rows, then DefaultLifeDays. Rows whose date
// does not parse are ignored.
func GroupDeliveries(rows []Row, usefulLife map[string]string) []Equipment {
	declared := make(map[string]string, len(usefulLife))
	for name, life := range usefulLife {
		declared[equipmentKey(name)] = life
	}

	index := map[string]int{}
	var out []Equipment
	estimated := map[string]int{}
	for _, r := range rows {
		key := equipmentKey(r.Equipment)
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, Equipment{Name: strings.TrimSpace(r.Equipment), CA: strings.TrimSpace(r.CA)})
		}
		if out[i].CA == "" {
			out[i].CA = strings.TrimSpace(r.CA)
		}
		if _, seen := estimated[key]; !seen {
			if days, ok := ParseUsefulLifeDays(r.EstimatedLife); ok && days > 0 {
				estimated[key] = days
			}
		}
		if d, ok := ParseDate(r.Date); ok {
			out[i].Deliveries = append(out[i].Deliveries, d)
		}
	}

	for i := range out {
		key := equipmentKey(out[i].Name)
		out[i].LifeDays = DefaultLifeDays
		if days, ok := ParseUsefulLifeDays(declared[key]); ok && days > 0 {
			out[i].LifeDays = days
		} else if days, ok := estimated[key]; ok {
			out[i].LifeDays = days
		}
	}
	return out
}

func equipmentKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Evaluation is the delivery analysis of one equipment against a period.
type Evaluation struct {
	Equipment      string
	CA             string
	LifeDays       int
	Deliveries     []time.Time // considered deliveries, oldest first
	Intervals      []int       // days between consecutive considered deliveries
	Representative int         // representative interval in days, 0 when there is none
	MeanDays       float64
	Coverage       []Period
	Gaps           []Period
	GapDays        int
}

// Evaluate analyses the deliveries of one equipment within window. Deliveries inside the
// window are considered together with the last delivery before it, which seeds the first
// interval and may cover the start of the window.
func Evaluate(eq Equipment, window Period) Evaluation {
	ev := Evaluation{Equipment: eq.Name, CA: eq.CA, LifeDays: eq.LifeDays}
	if ev.LifeDays <= 0 {
		ev.LifeDays = DefaultLifeDays
	}
	if window.IsZero() {
		return ev
	}

	dates := make([]time.Time, len(eq.Deliveries))
	for i, d := range eq.Deliveries {
		dates[i] = Day(d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var seed *time.Time
	for i := range dates {
		d := dates[i]
		switch {
		case d.Before(window.Start):
			seed = &dates[i]
		case !d.After(window.End):
			ev.Deliveries = append(ev.Deliveries, d)
		}
	}
	if seed != nil {
		ev.Deliveries = append([]time.Time{*seed}, ev.Deliveries...)
	}

	for i := 1; i < len(ev.Deliveries); i++ {
		ev.Intervals = append(ev.Intervals, DaysBetween(ev.Deliveries[i-1], ev.Deliveries[i]))
	}
	ev.Representative, ev.MeanDays = representative(ev.Intervals)

	ev.Coverage = coverage(ev.Deliveries, ev.LifeDays, window)
	ev.Gaps = gaps(ev.Coverage, window)
	for _, g := range ev.Gaps {
		ev.GapDays += g.Days()
	}
	return ev
}

// representative picks the interval closest to the mean; ties go to the earliest one.
func representative(intervals []int) (int, float64) {
	if len(intervals) == 0 {
		return 0, 0
	}
	sum := 0
	for _, v := range intervals {
		sum += v
	}
	mean := float64(sum) / float64(len(intervals))
	best := intervals[0]
	for _, v := range intervals[1:] {
		if math.Abs(float64(v)-mean) < math.Abs(float64(best)-mean) {
			best = v
		}
	}
	return best, mean
}

// coverage returns the merged protection windows. Each delivery protects
// [date, date+lifeDays) clipped to the window.
func coverage(deliveries []time.Time, lifeDays int, window Period) []Period {
	end := AddDays(window.End, 1)
	var spans []Period // half-open [Start, End)
	for _, d := range deliveries {
		s, e := d, AddDays(d, lifeDays)
		if s.Before(window.Start) {
			s = window.Start
		}
		if e.After(end) {
			e = end
		}
		if !s.Before(e) {
			continue
		}
		spans = append(spans, Period{Start: s, End: e})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start.Before(spans[j].Start) })

	var merged []Period
	for _, s := range spans {
		if n := len(merged); n > 0 && !s.Start.After(merged[n-1].End) {
			if s.End.After(merged[n-1].End) {
				merged[n-1].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	// back to closed ranges
	for i := range merged {
		merged[i].End = AddDays(merged[i].End, -1)
	}
	return merged
}

// gaps returns the sub-ranges of window not covered by the closed, sorted, disjoint cover.
func gaps(cover []Period, window Period) []Period {
	var out []Period
	cursor := window.Start
	for _, c := range cover {
		if c.Start.After(cursor) {
			out = append(out, Period{Start: cursor, End: AddDays(c.Start, -1)})
		}
		if next := AddDays(c.End, 1); next.After(cursor) {
			cursor = next
		}
	}
	if !cursor.After(window.End) {
		out = append(out, Period{Start: cursor, End: window.End})
	}
	return out
}

// IntervalLabel describes the delivery rhythm, for example "180 dias (média aprox. 175 dias)".
func (e Evaluation) IntervalLabel() string {
	switch len(e.Intervals) {
	case 0:
		if len(e.Deliveries) == 1 {
			return "Entrega única"
		}
		return "Sem entregas no período"
	case 1:
		return DayCount(e.Representative)
	}
	return fmt.Sprintf("%s (média aprox. %s)", DayCount(e.Representative), DayCount(int(math.Round(e.MeanDays))))
}

// GapLabel describes the insufficient-protection gaps: the total followed by up to three
// ranges and a "(+N outros períodos)" suffix for the remainder.
func (e Evaluation) GapLabel() string {
	if len(e.Gaps) == 0 {
		return "Sem lacunas de proteção"
	}
	ranges := make([]string, 0, maxListedGaps)
	for i, g := range e.Gaps {
		if i == maxListedGaps {
			break
		}
		ranges = append(ranges, g.Range())
	}
	label := fmt.Sprintf("%s: %s", DayCount(e.GapDays), strings.Join(ranges, "; "))
	if extra := len(e.Gaps) - maxListedGaps; extra > 0 {
		label += " (+" + plural(extra, "outro período", "outros períodos") + ")"
	}
	return label
}

// DeliveryDates renders the considered deliveries as a comma-separated list.
func (e Evaluation) DeliveryDates() string {
	if len(e.Deliveries) == 0 {
		return "Nenhuma"
	}
	out := make([]string, len(e.Deliveries))
	for i, d := range e.Deliveries {
		out[i] = Format(d)
	}
	return strings.Join(out, ", ")
}
