package interval

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffCalendarLabel(t *testing.T) {
	tests := []struct {
		a, b time.Time
		want string
	}{
		{Date(2020, 1, 31), Date(2020, 3, 1), "1 mês"},
		{Date(2015, 3, 1), Date(2020, 3, 15), "5 anos e 14 dias"},
		{Date(2020, 1, 1), Date(2020, 1, 1), "0 dias"},
		{Date(2019, 5, 10), Date(2020, 5, 9), "11 meses e 29 dias"},
		{Date(2018, 2, 1), Date(2019, 3, 2), "1 ano, 1 mês e 1 dia"},
		{Date(2020, 3, 1), Date(2020, 1, 31), "1 mês"},
		{Date(2021, 1, 15), Date(2021, 2, 10), "26 dias"},
		{Date(2019, 1, 30), Date(2019, 3, 1), "1 mês"},
		{Date(2019, 1, 28), Date(2019, 3, 1), "1 mês e 1 dia"},
		{Date(2019, 1, 29), Date(2019, 3, 1), "1 mês"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, DiffCalendarLabel(tt.a, tt.b))
		})
	}
}

func TestDayIgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	late := time.Date(2020, 3, 1, 23, 30, 0, 0, loc)
	assert.Equal(t, Date(2020, 3, 1), Day(late))
	assert.Equal(t, 1, DaysBetween(Date(2020, 2, 29), late))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2020-03-15", Date(2020, 3, 15), true},
		{"2020-03-15T10:00:00Z", Date(2020, 3, 15), true},
		{"15/03/2020", Date(2020, 3, 15), true},
		{"1/3/2020", Date(2020, 3, 1), true},
		{"31/02/2020", time.Time{}, false},
		{"março de 2020", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestBuildEmploymentPeriod(t *testing.T) {
	t.Run("single position", func(t *testing.T) {
		p, ok := BuildEmploymentPeriod([]string{"01/03/2015 a 15/03/2020"})
		require.True(t, ok)
		assert.Equal(t, "01/03/2015 a 15/03/2020 (5 anos e 14 dias)", p.String())
	})
	t.Run("earliest start and latest end", func(t *testing.T) {
		p, ok := BuildEmploymentPeriod([]string{
			"de 10/06/2017 até 31/12/2019",
			"sem datas",
			"apenas 01/01/2010",
			"02/01/2016 a 09/06/2017",
		})
		require.True(t, ok)
		assert.Equal(t, Date(2016, 1, 2), p.Start)
		assert.Equal(t, Date(2019, 12, 31), p.End)
	})
	t.Run("nothing usable", func(t *testing.T) {
		_, ok := BuildEmploymentPeriod([]string{"atual", "01/01/2010"})
		assert.False(t, ok)
	})
}

func TestPeriodDaysIsInclusive(t *testing.T) {
	assert.Equal(t, 1, Period{Start: Date(2020, 1, 1), End: Date(2020, 1, 1)}.Days())
	assert.Equal(t, 366, Period{Start: Date(2020, 1, 1), End: Date(2020, 12, 31)}.Days())
	assert.Equal(t, 0, Period{}.Days())
}

func TestEffectivePeriod(t *testing.T) {
	employment := Period{Start: Date(2010, 1, 1), End: Date(2020, 6, 30)}

	t.Run("full period", func(t *testing.T) {
		p, diag := EffectivePeriod(employment, false, time.Time{})
		assert.Empty(t, diag)
		assert.Equal(t, employment, p)
	})
	t.Run("clipped to five years", func(t *testing.T) {
		p, diag := EffectivePeriod(employment, true, Date(2021, 3, 10))
		assert.Empty(t, diag)
		assert.Equal(t, Date(2016, 3, 10), p.Start)
		assert.Equal(t, Date(2020, 6, 30), p.End)
	})
	t.Run("end clipped at distribution", func(t *testing.T) {
		p, _ := EffectivePeriod(employment, true, Date(2019, 1, 1))
		assert.Equal(t, Date(2019, 1, 1), p.End)
	})
	t.Run("missing distribution date", func(t *testing.T) {
		p, diag := EffectivePeriod(employment, true, time.Time{})
		assert.True(t, p.IsZero())
		assert.Contains(t, diag, "data de distribuição")
	})
	t.Run("empty window", func(t *testing.T) {
		p, diag := EffectivePeriod(employment, true, Date(2030, 1, 1))
		assert.True(t, p.IsZero())
		assert.Contains(t, diag, "01/01/2025 a 01/01/2030")
	})
	t.Run("no employment period", func(t *testing.T) {
		_, diag := EffectivePeriod(Period{}, false, time.Time{})
		assert.NotEmpty(t, diag)
	})
}

func TestParseUsefulLifeDays(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"6 meses", 180, true},
		{"1 mês", 30, true},
		{"2 anos", 730, true},
		{"1 ano e 6 meses", 545, true},
		{"3 semanas", 21, true},
		{"90 dias", 90, true},
		{"indeterminada", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseUsefulLifeDays(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestGroupDeliveries(t *testing.T) {
	groups := GroupDeliveries([]Row{
		{Equipment: "Protetor auricular", CA: "5745", Date: "2018-01-10"},
		{Equipment: "Luva nitrílica", Date: "10/01/2018", EstimatedLife: "30 dias"},
		{Equipment: "protetor  auricular", Date: "2018-04-10"},
		{Equipment: "Luva nitrílica", Date: "data inválida"},
		{Equipment: "Botina", Date: "2018-01-10"},
	}, map[string]string{"PROTETOR AURICULAR": "3 meses"})

	require.Len(t, groups, 3)
	assert.Equal(t, "Protetor auricular", groups[0].Name)
	assert.Equal(t, "5745", groups[0].CA)
	assert.Equal(t, 90, groups[0].LifeDays)
	assert.Len(t, groups[0].Deliveries, 2)
	assert.Equal(t, 30, groups[1].LifeDays)
	assert.Len(t, groups[1].Deliveries, 1)
	assert.Equal(t, DefaultLifeDays, groups[2].LifeDays)
}

func TestEvaluateNoDeliveriesIsOneGap(t *testing.T) {
	window := Period{Start: Date(2018, 1, 1), End: Date(2018, 12, 31)}
	ev := Evaluate(Equipment{Name: "Luva", LifeDays: 30}, window)
	require.Len(t, ev.Gaps, 1)
	assert.Equal(t, window, ev.Gaps[0])
	assert.Equal(t, window.Days(), ev.GapDays)
	assert.Equal(t, "Sem entregas no período", ev.IntervalLabel())
}

func TestEvaluateCoverageAndGaps(t *testing.T) {
	window := Period{Start: Date(2018, 1, 1), End: Date(2018, 12, 31)}
	ev := Evaluate(Equipment{
		Name:     "Protetor auricular",
		LifeDays: 90,
		Deliveries: []time.Time{
			Date(2018, 7, 1),
			Date(2017, 12, 1), // seed before the window
			Date(2016, 1, 1),  // older deliveries are ignored
			Date(2018, 3, 1),
			Date(2019, 2, 1), // after the window
		},
	}, window)

	assert.Equal(t, []time.Time{Date(2017, 12, 1), Date(2018, 3, 1), Date(2018, 7, 1)}, ev.Deliveries)
	assert.Equal(t, []int{90, 122}, ev.Intervals)
	assert.Equal(t, 90, ev.Representative)
	assert.InDelta(t, 106, ev.MeanDays, 1e-9)

	// 01/12/2017 covers until 28/02/2018, 01/03/2018 until 29/05/2018, 01/07/2018 until 28/09/2018
	assert.Equal(t, []Period{
		{Start: Date(2018, 1, 1), End: Date(2018, 5, 29)},
		{Start: Date(2018, 7, 1), End: Date(2018, 9, 28)},
	}, ev.Coverage)
	assert.Equal(t, []Period{
		{Start: Date(2018, 5, 30), End: Date(2018, 6, 30)},
		{Start: Date(2018, 9, 29), End: Date(2018, 12, 31)},
	}, ev.Gaps)
	assert.Equal(t, 32+94, ev.GapDays)
	assert.Equal(t, "126 dias: 30/05/2018 a 30/06/2018; 29/09/2018 a 31/12/2018", ev.GapLabel())
	assert.Equal(t, "90 dias (média aprox. 106 dias)", ev.IntervalLabel())
}

func TestEvaluateCoverageTotalsMatchWindow(t *testing.T) {
	window := Period{Start: Date(2019, 1, 1), End: Date(2019, 6, 30)}
	ev := Evaluate(Equipment{LifeDays: 20, Deliveries: []time.Time{
		Date(2019, 1, 1), Date(2019, 2, 1), Date(2019, 3, 1), Date(2019, 4, 1), Date(2019, 5, 1), Date(2019, 6, 1),
	}}, window)
	covered := 0
	for _, c := range ev.Coverage {
		covered += c.Days()
	}
	assert.Equal(t, window.Days(), covered+ev.GapDays)
	assert.Len(t, ev.Gaps, 6)
	assert.True(t, strings.HasSuffix(ev.GapLabel(), " (+3 outros períodos)"), ev.GapLabel())
}

func TestGapLabelRemainder(t *testing.T) {
	gaps := func(n int) []Period {
		out := make([]Period, n)
		for i := range out {
			day := Date(2019, time.Month(i+1), 1)
			out[i] = Period{Start: day, End: day}
		}
		return out
	}
	tests := []struct {
		gaps int
		want string
	}{
		{gaps: 3, want: "3 dias: 01/01/2019 a 01/01/2019; 01/02/2019 a 01/02/2019; 01/03/2019 a 01/03/2019"},
		{gaps: 4, want: "4 dias: 01/01/2019 a 01/01/2019; 01/02/2019 a 01/02/2019; 01/03/2019 a 01/03/2019 (+1 outro período)"},
		{gaps: 5, want: "5 dias: 01/01/2019 a 01/01/2019; 01/02/2019 a 01/02/2019; 01/03/2019 a 01/03/2019 (+2 outros períodos)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			ev := Evaluation{Gaps: gaps(tt.gaps), GapDays: tt.gaps}
			assert.Equal(t, tt.want, ev.GapLabel())
		})
	}
}

func TestRepresentativeTiesGoToEarliest(t *testing.T) {
	best, mean := representative([]int{10, 30})
	assert.Equal(t, 10, best)
	assert.InDelta(t, 20, mean, 1e-9)
}
