package calendar

import (
	"fmt"
	"time"
)

// Date represents a date in the Bikram Sambat calendar, the civil calendar
// used for billing periods. Month lengths vary per year and come from the
// year table in table.go; all arithmetic must go through this package.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1..12 (Baisakh = 1)
	Day   int `json:"day"`
}

// NewDate creates a validated Bikram Sambat date
func NewDate(year, month, day int) (Date, error) {
	d := Date{Year: year, Month: month, Day: day}
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

// Validate checks that the date exists in the supported year table
func (d Date) Validate() error {
	if d.Month < 1 || d.Month > 12 {
		return fmt.Errorf("invalid bikram sambat month %d: must be 1..12", d.Month)
	}
	length, err := DaysInMonth(d.Year, d.Month)
	if err != nil {
		return err
	}
	if d.Day < 1 || d.Day > length {
		return fmt.Errorf("invalid day %d for %04d-%02d: month has %d days", d.Day, d.Year, d.Month, length)
	}
	return nil
}

// String returns the date in YYYY-MM-DD form
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ParseDate parses a YYYY-MM-DD Bikram Sambat date string
func ParseDate(s string) (Date, error) {
	var d Date
	if _, err := fmt.Sscanf(s, "%d-%d-%d", &d.Year, &d.Month, &d.Day); err != nil {
		return Date{}, fmt.Errorf("invalid bikram sambat date %q: %w", s, err)
	}
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

// Equals returns true if both dates are the same day
func (d Date) Equals(other Date) bool {
	return d.Year == other.Year && d.Month == other.Month && d.Day == other.Day
}

// Before returns true if d falls before other
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After returns true if d falls after other
func (d Date) After(other Date) bool {
	return other.Before(d)
}

// dayNumber returns the number of days between the table epoch and d
func (d Date) dayNumber() (int, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	days := 0
	if d.Year >= epochYear {
		for y := epochYear; y < d.Year; y++ {
			n, err := daysInYear(y)
			if err != nil {
				return 0, err
			}
			days += n
		}
	} else {
		for y := d.Year; y < epochYear; y++ {
			n, err := daysInYear(y)
			if err != nil {
				return 0, err
			}
			days -= n
		}
	}
	for m := 1; m < d.Month; m++ {
		n, err := DaysInMonth(d.Year, m)
		if err != nil {
			return 0, err
		}
		days += n
	}
	return days + d.Day - 1, nil
}

// DaysBetween returns the signed day difference b - a
func DaysBetween(a, b Date) (int, error) {
	an, err := a.dayNumber()
	if err != nil {
		return 0, err
	}
	bn, err := b.dayNumber()
	if err != nil {
		return 0, err
	}
	return bn - an, nil
}

// AddMonths returns the date n months after d (or before, for negative n),
// clamping the day-of-month to the target month's length
func AddMonths(d Date, n int) (Date, error) {
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	// zero-based month arithmetic, then normalize back to 1-based
	total := d.Year*12 + (d.Month - 1) + n
	year := total / 12
	month := total%12 + 1
	length, err := DaysInMonth(year, month)
	if err != nil {
		return Date{}, err
	}
	day := d.Day
	if day > length {
		day = length
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// AddDays returns the date n days after d (or before, for negative n)
func AddDays(d Date, n int) (Date, error) {
	num, err := d.dayNumber()
	if err != nil {
		return Date{}, err
	}
	return fromDayNumber(num + n)
}

// ToGregorian converts a Bikram Sambat date to its Gregorian equivalent
// (midnight UTC)
func ToGregorian(d Date) (time.Time, error) {
	num, err := d.dayNumber()
	if err != nil {
		return time.Time{}, err
	}
	return gregorianEpoch.AddDate(0, 0, num), nil
}

// FromGregorian converts a Gregorian date to its Bikram Sambat equivalent
func FromGregorian(t time.Time) (Date, error) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	num := int(day.Sub(gregorianEpoch).Hours() / 24)
	return fromDayNumber(num)
}

// fromDayNumber walks the year table to resolve a day offset from the epoch
func fromDayNumber(num int) (Date, error) {
	if num < 0 {
		return Date{}, &RangeError{Year: epochYear - 1}
	}
	year := epochYear
	for {
		n, err := daysInYear(year)
		if err != nil {
			return Date{}, err
		}
		if num < n {
			break
		}
		num -= n
		year++
	}
	month := 1
	for {
		n, err := DaysInMonth(year, month)
		if err != nil {
			return Date{}, err
		}
		if num < n {
			break
		}
		num -= n
		month++
	}
	return Date{Year: year, Month: month, Day: num + 1}, nil
}
