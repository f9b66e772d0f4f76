package holiday_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/paycal/calendar"
	"github.com/warp/paycal/holiday"
)

func day(s string) calendar.Day { return calendar.MustParseDay(s) }

// =============================================================================
// PARSER
// =============================================================================

func TestParse_Forms(t *testing.T) {
	tests := []struct {
		config string
		want   holiday.Rule
	}{
		{"July 4th Observance", holiday.FixedObservance(time.July, 4)},
		{"  july   4TH   observance ", holiday.FixedObservance(time.July, 4)},
		{"Jan 1st", holiday.FixedDate(time.January, 1)},
		{"December 24", holiday.FixedDate(time.December, 24)},
		{"February 29th", holiday.FixedDate(time.February, 29)},
		{"3rd Monday in January", holiday.NthWeekday(3, time.Monday, time.January)},
		{"4 Thu in Nov + 1", holiday.NthWeekday(4, time.Thursday, time.November).WithOffset(1)},
		{"1st Tues in Sept-2", holiday.NthWeekday(1, time.Tuesday, time.September).WithOffset(-2)},
		{"Last Monday in May", holiday.LastWeekday(time.Monday, time.May)},
		{"LAST FRI IN DEC +10", holiday.LastWeekday(time.Friday, time.December).WithOffset(10)},
	}
	for _, tt := range tests {
		t.Run(tt.config, func(t *testing.T) {
			got, err := holiday.Parse(tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Rejected(t *testing.T) {
	tests := []struct {
		config string
		reason string
	}{
		{"", "empty configuration"},
		{"Smarch 1st", "unrecognized format"},
		{"5th Monday in May", "ordinal must be 1st through 4th"},
		{"February 30th", "day 30 is not in February"},
		{"July 4st", `malformed day "4st"`},
		{"3rd Monday January", `expected "<Weekday> in <Month>"`},
		{"3rd Someday in January", `unknown weekday "someday"`},
		{"July 4th Observed", `unexpected "observed", expected "Observance"`},
		{"Last Monday in May + x", "offset must be a whole number of days"},
		{"July + 1 4th", `offset must be a single trailing "+ N" or "- N"`},
	}
	for _, tt := range tests {
		t.Run(tt.config, func(t *testing.T) {
			_, err := holiday.Parse(tt.config)

			var cfgErr *holiday.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.config, cfgErr.Config)
			assert.Equal(t, tt.reason, cfgErr.Reason)
			assert.True(t, holiday.IsConfigurationError(err))
			assert.True(t, holiday.IsClientError(err))
		})
	}
}

func TestRule_StringRoundTrip(t *testing.T) {
	for _, config := range []string{
		"January 1st Observance",
		"March 22nd",
		"4th Thursday in November + 1",
		"Last Monday in May - 3",
		"2nd Sunday in October",
	} {
		r, err := holiday.Parse(config)
		require.NoError(t, err)
		assert.Equal(t, config, r.String())
	}
}

// =============================================================================
// RESOLVER
// =============================================================================

func TestResolve(t *testing.T) {
	tests := []struct {
		config string
		year   int
		want   string
	}{
		{"3rd Monday in January", 2024, "2024-01-15"},
		{"Last Monday in May", 2024, "2024-05-27"},
		{"July 4th Observance", 2024, "2024-07-04"},
		{"July 4th Observance", 2026, "2026-07-04"},
		{"4th Thursday in November", 2024, "2024-11-28"},
		{"4th Thursday in November + 1", 2024, "2024-11-29"},
		{"1st Monday in September", 2024, "2024-09-02"},
		{"February 29th", 2023, "2023-02-28"},
		{"February 29th", 2024, "2024-02-29"},
		{"December 31st + 1", 2024, "2025-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.config, func(t *testing.T) {
			assert.Equal(t, day(tt.want), holiday.Resolve(holiday.MustParse(tt.config), tt.year))
		})
	}
}

func TestResolver_ShiftObserved(t *testing.T) {
	// GIVEN: Observed fixed dates that fall on a weekend
	// WHEN: Resolved with weekend shifting enabled
	// THEN: Saturday moves to Friday and Sunday moves to Monday

	shift := holiday.Resolver{ShiftObserved: true}

	assert.Equal(t, day("2026-07-03"), shift.Resolve(holiday.MustParse("July 4th Observance"), 2026))
	assert.Equal(t, day("2022-12-26"), shift.Resolve(holiday.MustParse("December 25th Observance"), 2022))
	assert.Equal(t, day("2024-07-04"), shift.Resolve(holiday.MustParse("July 4th Observance"), 2024))
	// Plain fixed dates are never shifted.
	assert.Equal(t, day("2026-07-04"), shift.Resolve(holiday.MustParse("July 4th"), 2026))
}

func TestIsWithin(t *testing.T) {
	newYears := holiday.Holiday{Description: "New Years", Config: "January 1st Observance"}
	spanning := calendar.PayPeriod{CompanyID: 1, Type: calendar.Weekly, Begin: day("2013-12-29"), End: day("2014-01-04")}
	before := calendar.NewPayPeriod(1, calendar.Weekly, day("2013-12-22"))

	ok, err := holiday.IsWithin(newYears, spanning)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = holiday.IsWithin(newYears, before)
	require.NoError(t, err)
	assert.False(t, ok)

	// The offset pushes the previous year's occurrence into this period.
	eve := holiday.Holiday{Description: "Hangover", Config: "December 31st + 1"}
	ok, err = holiday.IsWithin(eve, calendar.NewPayPeriod(1, calendar.Weekly, day("2014-01-01")))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = holiday.IsWithin(holiday.Holiday{Description: "x", Config: "nope"}, spanning)
	assert.ErrorIs(t, err, holiday.ErrInvalidConfiguration)
}

func TestInPeriod(t *testing.T) {
	november := calendar.NewPayPeriod(1, calendar.Monthly, day("2024-11-01"))

	occ, err := holiday.Resolver{}.InPeriod(holiday.Defaults(1), november)
	require.NoError(t, err)
	require.Len(t, occ, 2)
	assert.Equal(t, "Veterans Day", occ[0].Holiday.Description)
	assert.Equal(t, day("2024-11-11"), occ[0].Day)
	assert.Equal(t, "Thanksgiving Day", occ[1].Holiday.Description)
	assert.Equal(t, day("2024-11-28"), occ[1].Day)
}

// =============================================================================
// HOLIDAY
// =============================================================================

func TestDefaults_AllResolve(t *testing.T) {
	defaults := holiday.Defaults(5)
	require.Len(t, defaults, 10)
	for _, h := range defaults {
		assert.NoError(t, h.Validate(), h.Description)
		assert.Equal(t, 5, h.CompanyID)
	}

	occ, err := holiday.Resolver{}.ForYear(defaults, 2024)
	require.NoError(t, err)
	assert.Equal(t, "New Years", occ[0].Holiday.Description)
	assert.Equal(t, day("2024-12-25"), occ[len(occ)-1].Day)
}

func TestHoliday_Validate(t *testing.T) {
	assert.ErrorIs(t, holiday.Holiday{Config: "Jan 1st"}.Validate(), holiday.ErrInvalidHoliday)
	assert.ErrorIs(t, holiday.Holiday{Description: "x", Config: " "}.Validate(), holiday.ErrInvalidConfiguration)

	d, err := holiday.Holiday{Description: "MLK", Config: "3rd Monday in January"}.DayForYear(2024)
	require.NoError(t, err)
	assert.Equal(t, day("2024-01-15"), d)
}
