package calendar

import (
	"fmt"
	"time"
)

// epochYear anchors the year table: Baisakh 1, 2070 BS = April 14, 2013 AD.
const epochYear = 2070

var gregorianEpoch = time.Date(2013, time.April, 14, 0, 0, 0, 0, time.UTC)

// yearTable holds the month lengths for each supported Bikram Sambat year.
// Month lengths are not algorithmic in the Bikram Sambat calendar; they are
// published per year, so years outside this table must fail loudly rather
// than fall back to a guessed length.
var yearTable = map[int][12]int{
	2070: {31, 31, 31, 32, 31, 31, 29, 30, 30, 29, 30, 30},
	2071: {31, 31, 32, 31, 31, 31, 29, 30, 29, 30, 29, 31},
	2072: {31, 32, 31, 32, 31, 30, 29, 30, 29, 30, 29, 31},
	2073: {31, 32, 31, 32, 31, 30, 29, 30, 29, 30, 30, 31},
	2074: {31, 31, 31, 32, 31, 31, 29, 30, 30, 29, 30, 30},
	2075: {31, 31, 32, 31, 31, 31, 30, 29, 30, 29, 30, 30},
	2076: {31, 32, 31, 32, 31, 30, 30, 30, 29, 30, 29, 31},
	2077: {31, 32, 31, 31, 31, 31, 30, 29, 30, 29, 30, 30},
	2078: {31, 31, 31, 32, 31, 31, 30, 29, 30, 29, 30, 30},
	2079: {31, 31, 32, 31, 31, 31, 30, 29, 30, 29, 30, 30},
	2080: {31, 32, 31, 32, 31, 30, 29, 30, 29, 30, 30, 30},
	2081: {31, 31, 32, 32, 31, 30, 30, 30, 29, 30, 30, 30},
	2082: {30, 32, 31, 32, 31, 30, 30, 30, 29, 30, 30, 30},
	2083: {31, 31, 32, 31, 31, 30, 30, 30, 29, 30, 30, 30},
	2084: {31, 31, 32, 31, 31, 30, 30, 30, 29, 30, 30, 30},
	2085: {31, 32, 31, 32, 30, 31, 30, 30, 29, 30, 30, 30},
	2086: {30, 32, 31, 32, 31, 30, 30, 30, 29, 30, 30, 30},
	2087: {31, 31, 32, 31, 31, 31, 30, 30, 29, 30, 30, 30},
	2088: {30, 31, 32, 32, 30, 31, 30, 30, 29, 30, 30, 30},
	2089: {30, 32, 31, 32, 31, 30, 30, 30, 29, 30, 30, 30},
	2090: {30, 32, 31, 32, 31, 30, 30, 30, 29, 30, 30, 30},
}

// RangeError reports a Bikram Sambat year outside the supported table.
// Callers must treat this as fatal to the calculation at hand; there is no
// safe default month length to substitute.
type RangeError struct {
	Year int
}

// Error implements the error interface
func (e *RangeError) Error() string {
	return fmt.Sprintf("bikram sambat year %d is outside the supported calendar table", e.Year)
}

// SupportedYears returns the inclusive range of years in the table
func SupportedYears() (min, max int) {
	min, max = 0, 0
	for y := range yearTable {
		if min == 0 || y < min {
			min = y
		}
		if y > max {
			max = y
		}
	}
	return min, max
}

// DaysInMonth returns the number of days in the given Bikram Sambat month
// (1..12), failing with a RangeError for years outside the table
func DaysInMonth(year, month int) (int, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("invalid bikram sambat month %d: must be 1..12", month)
	}
	lengths, ok := yearTable[year]
	if !ok {
		return 0, &RangeError{Year: year}
	}
	return lengths[month-1], nil
}

// daysInYear returns the total number of days in a Bikram Sambat year
func daysInYear(year int) (int, error) {
	lengths, ok := yearTable[year]
	if !ok {
		return 0, &RangeError{Year: year}
	}
	total := 0
	for _, n := range lengths {
		total += n
	}
	return total, nil
}

// RegisterYear extends the year table with published month lengths for a new
// year. The year must be adjacent to the supported range so that day
// arithmetic across years stays contiguous.
func RegisterYear(year int, lengths [12]int) error {
	min, max := SupportedYears()
	if year != min-1 && year != max+1 {
		return fmt.Errorf("year %d is not adjacent to the supported range %d..%d", year, min, max)
	}
	for i, n := range lengths {
		if n < 29 || n > 32 {
			return fmt.Errorf("month %d of year %d has impossible length %d", i+1, year, n)
		}
	}
	yearTable[year] = lengths
	return nil
}
