package journey_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timebank.service/internal/core/journey"
	"timebank.service/internal/core/model"
)

var workday = time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC)

// punches builds a sequence on workday from "HH:MM" or "HH:MM:SS" strings.
func punches(t *testing.T, clocks ...string) journey.Punches {
	t.Helper()
	out := make(journey.Punches, 0, len(clocks))
	for _, c := range clocks {
		var h, m, s int
		if _, err := fmt.Sscanf(c, "%d:%d:%d", &h, &m, &s); err != nil {
			_, err = fmt.Sscanf(c, "%d:%d", &h, &m)
			require.NoError(t, err, c)
		}
		out = append(out, workday.Add(time.Duration(h)*time.Hour+time.Duration(m)*time.Minute+time.Duration(s)*time.Second))
	}
	return out
}

// =============================================================================
// BREAK CLASSIFICATION
// =============================================================================

func TestClassifyBreaks(t *testing.T) {
	tests := []struct {
		name     string
		clocks   []string
		fulltime model.Seconds
		breaks   model.Seconds
	}{
		{"empty", nil, 0, 0},
		{"single pair", []string{"08:00", "12:00"}, 14400, 0},
		{"normal lunch", []string{"08:00", "12:00", "13:00", "17:00"}, 28800, 3600},
		{
			name:     "short break paid back",
			clocks:   []string{"08:00", "09:55", "10:03", "12:00", "13:00", "17:00"},
			fulltime: 6900 + 480 + 7020 + 14400,
			breaks:   3600,
		},
		{
			name:     "short breaks in the same hour exceed tolerance",
			clocks:   []string{"08:00", "10:00", "10:05", "10:30", "10:36", "12:00", "13:00", "17:00"},
			fulltime: 7200 + 1500 + 5040 + 14400,
			breaks:   3600 + 660,
		},
		{
			name:     "short breaks in different hours stay paid",
			clocks:   []string{"08:00", "09:52", "10:00", "10:52", "11:00", "12:00"},
			fulltime: 6720 + 3120 + 3600 + 480 + 480,
			breaks:   0,
		},
		{
			name:     "exactly the tolerance is paid",
			clocks:   []string{"08:00", "09:50", "10:00", "12:00"},
			fulltime: 6600 + 7200 + 600,
			breaks:   0,
		},
		{
			name:     "open sequence still classifies available pairs",
			clocks:   []string{"08:00", "12:00", "13:00"},
			fulltime: 14400,
			breaks:   3600,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fulltime, breaks := journey.ClassifyBreaks(punches(t, tt.clocks...))
			assert.Equal(t, tt.fulltime, fulltime)
			assert.Equal(t, tt.breaks, breaks)
		})
	}
}

// =============================================================================
// EXTRAS
// =============================================================================

func TestComputeExtras(t *testing.T) {
	tests := []struct {
		name   string
		clocks []string
		day    model.Seconds
		night  model.Seconds
	}{
		{"inside business window", []string{"07:00", "12:00", "13:00", "19:00"}, 0, 0},
		{"early arrival", []string{"06:30", "18:00"}, 1800, 0},
		{"late departure", []string{"09:00", "12:00", "13:00", "20:30"}, 5400, 0},
		{"early and late", []string{"06:00", "12:00", "13:00", "19:15"}, 3600 + 900, 0},
		{"night reclassified out of day extra", []string{"09:00", "12:00", "13:00", "23:00"}, 10800, 3600},
		{"early plus night", []string{"05:00", "12:00", "13:00", "22:30"}, 7200 + 10800, 1800},
		{"missing punch suppresses extras", []string{"05:00", "12:00", "23:00"}, 0, 0},
		{"empty", nil, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, night := journey.ComputeExtras(punches(t, tt.clocks...))
			assert.Equal(t, tt.day, day)
			assert.Equal(t, tt.night, night)
		})
	}
}

// =============================================================================
// AGGREGATION
// =============================================================================

func TestAggregate_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		fulltime model.Seconds
		business model.Seconds
		credit   model.Seconds
		debt     model.Seconds
	}{
		{"at debt threshold", 29400, 29400, 0, 300},
		{"inside tolerance band", 29520, 29520, 0, 0},
		{"exactly standard", 29700, 29700, 0, 0},
		{"over standard", 30000, 29700, 300, 0},
		{"short day", 14400, 14400, 0, 15300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := journey.Aggregate(tt.fulltime, journey.LunchBreak, 0, 0)
			assert.Equal(t, tt.business, j.Business)
			assert.Equal(t, tt.credit, j.Credit)
			assert.Equal(t, tt.debt, j.Debt)
			assert.Equal(t, journey.LunchBreak, j.Breaks)
		})
	}
}

func TestAggregate_LunchDeduction(t *testing.T) {
	j := journey.Reconcile(punches(t, "08:00", "14:00"))

	assert.Equal(t, model.Seconds(3600), j.Breaks)
	assert.Equal(t, model.Seconds(18000), j.Business)
	assert.Equal(t, model.Seconds(11700), j.Debt)
}

func TestAggregate_NoLunchDeductionUnderSixHours(t *testing.T) {
	j := journey.Reconcile(punches(t, "08:00", "13:59"))

	assert.Equal(t, model.Seconds(0), j.Breaks)
	assert.Equal(t, model.Seconds(21540), j.Business)
}

func TestAggregate_BusinessNeverNegative(t *testing.T) {
	// Leaving before the business window opens: the whole stay is day extra.
	j := journey.Reconcile(punches(t, "05:00", "06:00"))

	assert.Equal(t, model.Seconds(0), j.Business)
	assert.Equal(t, model.Seconds(3600), j.DayExtra)
	assert.Equal(t, model.Seconds(3600), j.TotalWorked)
	assert.Equal(t, journey.StandardJourney, j.Debt)
}

func TestComputeExtras_StayInsideOneWindow(t *testing.T) {
	tests := []struct {
		name      string
		clocks    []string
		day       model.Seconds
		night     model.Seconds
		totalWork model.Seconds
	}{
		{"early shift ends before 07:00", []string{"05:00", "06:00"}, 3600, 0, 3600},
		{"evening shift starts after 19:00", []string{"20:00", "21:00"}, 3600, 0, 3600},
		{"night shift starts after 22:00", []string{"22:30", "23:30"}, 0, 3600, 3600},
		{"evening into night", []string{"20:00", "23:00"}, 7200, 3600, 10800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := punches(t, tt.clocks...)
			day, night := journey.ComputeExtras(p)
			assert.Equal(t, tt.day, day)
			assert.Equal(t, tt.night, night)

			j := journey.Reconcile(p)
			assert.Equal(t, model.Seconds(0), j.Business)
			assert.Equal(t, tt.totalWork, j.TotalWorked)
		})
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestReconcile_Scenarios(t *testing.T) {
	tests := []struct {
		name   string
		clocks []string
		want   model.Journey
	}{
		{
			name:   "standard day with lunch",
			clocks: []string{"07:00", "12:00", "13:00", "16:15"},
			want:   model.Journey{Business: 29700, TotalWorked: 29700, Breaks: 3600},
		},
		{
			name:   "long single pair with early arrival",
			clocks: []string{"06:30", "18:00"},
			want: model.Journey{
				Business: 29700, DayExtra: 1800, Credit: 6300,
				TotalWorked: 37800, Breaks: 3600,
			},
		},
		{
			name:   "eight hours falls into debt",
			clocks: []string{"08:00", "12:00", "13:00", "17:00"},
			want:   model.Journey{Business: 28800, Debt: 900, TotalWorked: 28800, Breaks: 3600},
		},
		{
			name:   "late night",
			clocks: []string{"09:00", "12:00", "13:00", "23:00"},
			want: model.Journey{
				Business: 29700, DayExtra: 10800, NightExtra: 3600, Credit: 2700,
				TotalWorked: 46800, Breaks: 3600,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, journey.Reconcile(punches(t, tt.clocks...)))
		})
	}
}

func TestCompute_MissingPunch(t *testing.T) {
	rec := journey.Compute(journey.Day{Date: workday, Punches: punches(t, "05:00", "12:00", "23:30")}, journey.Holidays{})

	assert.True(t, rec.HasMissingPunch())
	assert.False(t, rec.HasDayExtras())
	assert.False(t, rec.HasNightExtras())
	assert.Equal(t, model.Seconds(0), rec.Journey.DayExtra)
	assert.Equal(t, model.Seconds(0), rec.Journey.NightExtra)
}

func TestCompute_Empty(t *testing.T) {
	rec := journey.Compute(journey.Day{Date: workday}, journey.Holidays{})

	assert.True(t, rec.IsEmpty())
	assert.False(t, rec.HasMissingPunch())
	assert.False(t, rec.IsHoliday)
	assert.False(t, rec.NeedsJustification())
	assert.False(t, rec.HasDebt())
	assert.Equal(t, model.Journey{}, rec.Journey)
	assert.Equal(t, model.Journey{}, journey.Reconcile(nil))
}

// =============================================================================
// PROPERTIES
// =============================================================================

func generatedDays(t *testing.T) []journey.Punches {
	var days []journey.Punches
	for _, start := range []string{"05:10", "06:45", "07:00", "08:30", "10:00"} {
		for _, lunch := range []string{"11:30", "12:00", "12:05"} {
			for _, back := range []string{"12:04", "12:40", "13:00", "13:30"} {
				for _, end := range []string{"14:00", "16:15", "17:12", "19:30", "22:45", "23:59"} {
					p := punches(t, start, lunch, back, end)
					if p.Validate() != nil {
						continue
					}
					days = append(days, p)
				}
			}
		}
	}
	return days
}

func TestReconcile_Properties(t *testing.T) {
	for _, p := range generatedDays(t) {
		j := journey.Reconcile(p)
		label := fmt.Sprint(p)

		require.Equal(t, j.Business+j.DayExtra+j.NightExtra+j.Credit, j.TotalWorked, label)
		require.False(t, j.Credit > 0 && j.Debt > 0, label)
		require.GreaterOrEqual(t, j.Business, model.Seconds(0), label)
		require.GreaterOrEqual(t, j.DayExtra, model.Seconds(0), label)
		require.LessOrEqual(t, j.Business, journey.StandardJourney, label)
		require.Equal(t, j, journey.Reconcile(p), label)
	}
}

func TestCompute_OddSequencesHaveNoExtras(t *testing.T) {
	for _, p := range generatedDays(t) {
		rec := journey.Compute(journey.Day{Date: workday, Punches: p[:3]}, journey.Holidays{})
		require.True(t, rec.HasMissingPunch())
		require.Zero(t, rec.Journey.DayExtra)
		require.Zero(t, rec.Journey.NightExtra)
	}
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestCompute_HolidayZeroesEverything(t *testing.T) {
	holidays := journey.Holidays{}
	holidays.Add(workday, "Carnival")

	rec := journey.Compute(journey.Day{
		Date:    workday,
		Punches: punches(t, "06:00", "12:00", "13:00", "23:00"),
	}, holidays)

	assert.True(t, rec.IsHoliday)
	assert.Equal(t, "Carnival", rec.HolidayName)
	assert.Equal(t, model.Journey{}, rec.Journey)
	assert.Empty(t, journey.ResolveCodes(rec))
	assert.False(t, rec.IsPending())
}

func TestIsBridgeDay(t *testing.T) {
	holidays := journey.Holidays{}
	holidays.Add(workday.AddDate(0, 0, 1), "Independence Day")

	assert.True(t, journey.IsBridgeDay(workday, nil, holidays))
	assert.False(t, journey.IsBridgeDay(workday, punches(t, "08:00", "12:00"), holidays))
	assert.False(t, journey.IsBridgeDay(workday.AddDate(0, 0, -1), nil, holidays))
}

func TestCompute_BridgeDay(t *testing.T) {
	holidays := journey.Holidays{}
	holidays.Add(workday.AddDate(0, 0, 1), "Independence Day")

	rec := journey.Compute(journey.Day{Date: workday}, holidays)

	assert.True(t, rec.IsHoliday)
	assert.Equal(t, journey.BridgeDayName, rec.HolidayName)

	worked := journey.Compute(journey.Day{Date: workday, Punches: punches(t, "08:00", "12:00")}, holidays)
	assert.False(t, worked.IsHoliday)
}

func TestHolidays_LookupIgnoresClock(t *testing.T) {
	holidays := journey.Holidays{}
	holidays.Add(workday, "Carnival")

	name, ok := holidays.Lookup(workday.Add(15 * time.Hour))
	assert.True(t, ok)
	assert.Equal(t, "Carnival", name)
}

// =============================================================================
// JUSTIFICATION CODES
// =============================================================================

func TestResolveCodes(t *testing.T) {
	tests := []struct {
		name   string
		clocks []string
		want   []model.JustificationCode
	}{
		{"debt only", []string{"08:00", "12:00", "13:00", "17:00"}, nil},
		{"credit and day extra", []string{"06:30", "18:00"}, []model.JustificationCode{model.CodeTimeBank, model.CodeDayOvertime}},
		{
			name:   "all three in order",
			clocks: []string{"09:00", "12:00", "13:00", "23:00"},
			want:   []model.JustificationCode{model.CodeTimeBank, model.CodeDayOvertime, model.CodeNightOvertime},
		},
		{"day extra without credit", []string{"10:00", "12:00", "13:00", "19:30"}, []model.JustificationCode{model.CodeDayOvertime}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := journey.Compute(journey.Day{Date: workday, Punches: punches(t, tt.clocks...)}, journey.Holidays{})
			assert.Equal(t, tt.want, journey.ResolveCodes(rec))
			assert.Equal(t, len(tt.want) > 0, rec.IsPending())
		})
	}
}

func TestCompute_RemoteJustificationIsSynced(t *testing.T) {
	rec := journey.Compute(journey.Day{
		Date:          workday,
		Punches:       punches(t, "06:30", "18:00"),
		Justification: "release night",
	}, journey.Holidays{})

	assert.False(t, rec.IsPending())
	assert.True(t, rec.Synced())
	assert.Equal(t, "release night", rec.Justification())
}

// =============================================================================
// PROJECTION
// =============================================================================

func TestExpectedJourneyEnd(t *testing.T) {
	now := workday.Add(14 * time.Hour)

	t.Run("open afternoon", func(t *testing.T) {
		rec := journey.Compute(journey.Day{Date: workday, Punches: punches(t, "08:00", "12:00", "13:00")}, journey.Holidays{})
		end, ok := journey.ExpectedJourneyEnd(rec, now)
		require.True(t, ok)
		assert.Equal(t, workday.Add(17*time.Hour+15*time.Minute), end)
	})

	t.Run("seconds are truncated to minutes", func(t *testing.T) {
		rec := journey.Compute(journey.Day{Date: workday, Punches: punches(t, "08:00:00", "12:00:30", "13:00:00")}, journey.Holidays{})
		end, ok := journey.ExpectedJourneyEnd(rec, now)
		require.True(t, ok)
		assert.Equal(t, workday.Add(17*time.Hour+15*time.Minute), end)
	})

	t.Run("standard day already met", func(t *testing.T) {
		rec := journey.Compute(journey.Day{Date: workday, Punches: punches(t, "07:00", "17:00", "17:30")}, journey.Holidays{})
		_, ok := journey.ExpectedJourneyEnd(rec, now)
		assert.False(t, ok)
	})

	t.Run("closed day", func(t *testing.T) {
		rec := journey.Compute(journey.Day{Date: workday, Punches: punches(t, "08:00", "12:00")}, journey.Holidays{})
		_, ok := journey.ExpectedJourneyEnd(rec, now)
		assert.False(t, ok)
	})

	t.Run("other day", func(t *testing.T) {
		rec := journey.Compute(journey.Day{Date: workday, Punches: punches(t, "08:00", "12:00", "13:00")}, journey.Holidays{})
		_, ok := journey.ExpectedJourneyEnd(rec, now.AddDate(0, 0, 1))
		assert.False(t, ok)
	})
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestPunches_Validate(t *testing.T) {
	assert.NoError(t, punches(t, "08:00", "12:00").Validate())
	assert.ErrorIs(t, punches(t, "12:00", "08:00").Validate(), journey.ErrPunchesOutOfOrder)

	mixed := append(punches(t, "08:00"), workday.AddDate(0, 0, 1).Add(time.Hour))
	assert.ErrorIs(t, mixed.Validate(), journey.ErrPunchesMixedDates)
}
