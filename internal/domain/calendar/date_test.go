package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysInMonth(t *testing.T) {
	t.Run("returns table value for supported year", func(t *testing.T) {
		n, err := DaysInMonth(2080, 1)
		require.NoError(t, err)
		assert.Equal(t, 31, n)

		n, err = DaysInMonth(2080, 2)
		require.NoError(t, err)
		assert.Equal(t, 32, n)
	})

	t.Run("fails loudly for unsupported year", func(t *testing.T) {
		_, err := DaysInMonth(2050, 1)
		require.Error(t, err)

		var rangeErr *RangeError
		require.True(t, errors.As(err, &rangeErr))
		assert.Equal(t, 2050, rangeErr.Year)
	})

	t.Run("rejects invalid month", func(t *testing.T) {
		_, err := DaysInMonth(2080, 0)
		assert.Error(t, err)
		_, err = DaysInMonth(2080, 13)
		assert.Error(t, err)
	})
}

func TestNewDate_Validation(t *testing.T) {
	_, err := NewDate(2080, 1, 31)
	assert.NoError(t, err)

	_, err = NewDate(2080, 1, 32) // Baisakh 2080 has 31 days
	assert.Error(t, err)

	_, err = NewDate(2080, 2, 32) // Jestha 2080 has 32 days
	assert.NoError(t, err)

	_, err = NewDate(2050, 1, 1)
	assert.Error(t, err)
}

func TestToGregorian_EpochAnchor(t *testing.T) {
	d, err := NewDate(2070, 1, 1)
	require.NoError(t, err)

	ad, err := ToGregorian(d)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2013, time.April, 14, 0, 0, 0, 0, time.UTC), ad)

	// Baisakh 2070 has 31 days, so Jestha 1 is 31 days after the anchor
	d2, err := NewDate(2070, 2, 1)
	require.NoError(t, err)
	ad2, err := ToGregorian(d2)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2013, time.May, 15, 0, 0, 0, 0, time.UTC), ad2)
}

func TestFromGregorian_RoundTrip(t *testing.T) {
	dates := []Date{
		{2070, 1, 1},
		{2075, 7, 15},
		{2080, 12, 30},
		{2081, 4, 32},
		{2090, 12, 30},
	}
	for _, d := range dates {
		t.Run(d.String(), func(t *testing.T) {
			require.NoError(t, d.Validate())
			ad, err := ToGregorian(d)
			require.NoError(t, err)
			back, err := FromGregorian(ad)
			require.NoError(t, err)
			assert.True(t, d.Equals(back), "expected %s, got %s", d, back)
		})
	}
}

func TestDaysBetween(t *testing.T) {
	a := Date{2080, 1, 1}
	b := Date{2080, 1, 31}

	diff, err := DaysBetween(a, b)
	require.NoError(t, err)
	assert.Equal(t, 30, diff)

	diff, err = DaysBetween(b, a)
	require.NoError(t, err)
	assert.Equal(t, -30, diff)

	// across a year boundary: Chaitra 2079 has 30 days
	diff, err = DaysBetween(Date{2079, 12, 30}, Date{2080, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 1, diff)
}

func TestAddMonths(t *testing.T) {
	t.Run("clamps day to target month length", func(t *testing.T) {
		// Jestha 2080 has 32 days; Ashadh 2080 has 31
		d, err := AddMonths(Date{2080, 2, 32}, 1)
		require.NoError(t, err)
		assert.True(t, d.Equals(Date{2080, 3, 31}))
	})

	t.Run("wraps across year boundary", func(t *testing.T) {
		d, err := AddMonths(Date{2080, 12, 15}, 1)
		require.NoError(t, err)
		assert.True(t, d.Equals(Date{2081, 1, 15}))

		d, err = AddMonths(Date{2081, 1, 15}, -1)
		require.NoError(t, err)
		assert.True(t, d.Equals(Date{2080, 12, 15}))
	})

	t.Run("fails outside supported table", func(t *testing.T) {
		_, err := AddMonths(Date{2090, 12, 1}, 1)
		var rangeErr *RangeError
		require.True(t, errors.As(err, &rangeErr))
	})
}

func TestAddDays(t *testing.T) {
	d, err := AddDays(Date{2080, 1, 31}, 1)
	require.NoError(t, err)
	assert.True(t, d.Equals(Date{2080, 2, 1}))

	d, err = AddDays(Date{2080, 1, 1}, -1)
	require.NoError(t, err)
	assert.True(t, d.Equals(Date{2079, 12, 30}))
}

// For every supported year, adding one month to the first day must land in
// the following month, and first-to-last day difference must equal the month
// length minus one.
func TestCalendarRoundTripProperty(t *testing.T) {
	min, max := SupportedYears()
	for year := min; year <= max; year++ {
		for month := 1; month <= 12; month++ {
			length, err := DaysInMonth(year, month)
			require.NoError(t, err)

			first := Date{Year: year, Month: month, Day: 1}
			last := Date{Year: year, Month: month, Day: length}

			diff, err := DaysBetween(first, last)
			require.NoError(t, err)
			assert.Equal(t, length-1, diff, "%d-%d", year, month)

			if year == max && month == 12 {
				continue // next month is outside the table
			}
			next, err := AddMonths(first, 1)
			require.NoError(t, err)
			wantYear, wantMonth := NextPeriod(year, month)
			assert.Equal(t, wantYear, next.Year)
			assert.Equal(t, wantMonth, next.Month)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2081-04-16")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2081, Month: 4, Day: 16}, d)

	// round-trip through String
	rt, err := ParseDate(d.String())
	require.NoError(t, err)
	assert.Equal(t, d, rt)

	_, err = ParseDate("garbage")
	assert.Error(t, err)

	_, err = ParseDate("2081-13-01")
	assert.Error(t, err)
}

func TestDateOrdering(t *testing.T) {
	assert.True(t, Date{2080, 1, 1}.Before(Date{2080, 1, 2}))
	assert.True(t, Date{2080, 12, 30}.Before(Date{2081, 1, 1}))
	assert.True(t, Date{2081, 1, 1}.After(Date{2080, 12, 30}))
	assert.False(t, Date{2080, 5, 5}.Before(Date{2080, 5, 5}))
}

func TestRegisterYear(t *testing.T) {
	t.Run("rejects non-adjacent year", func(t *testing.T) {
		err := RegisterYear(2095, [12]int{30, 32, 31, 32, 31, 30, 30, 30, 29, 30, 30, 30})
		assert.Error(t, err)
	})

	t.Run("rejects impossible month length", func(t *testing.T) {
		_, max := SupportedYears()
		err := RegisterYear(max+1, [12]int{40, 32, 31, 32, 31, 30, 30, 30, 29, 30, 30, 30})
		assert.Error(t, err)
	})
}
