package calendar

import (
	"fmt"
	"time"
)

// reminderLeadDays is how many days before the end of the month payment
// reminders go out.
const reminderLeadDays = 7

// Bounds describes the billing-relevant days of one Bikram Sambat month,
// with Gregorian equivalents for persistence
type Bounds struct {
	FirstDay    Date
	LastDay     Date
	ReminderDay Date

	FirstDayAD    time.Time
	LastDayAD     time.Time
	ReminderDayAD time.Time
}

// MonthBounds returns the first day, last day and reminder day of the given
// Bikram Sambat month. The reminder day is seven days before the last day,
// clamped to the first day for months too short for the full lead time.
func MonthBounds(year, month int) (Bounds, error) {
	length, err := DaysInMonth(year, month)
	if err != nil {
		return Bounds{}, err
	}

	first := Date{Year: year, Month: month, Day: 1}
	last := Date{Year: year, Month: month, Day: length}
	reminderDay := length - reminderLeadDays
	if reminderDay < 1 {
		reminderDay = 1
	}
	reminder := Date{Year: year, Month: month, Day: reminderDay}

	firstAD, err := ToGregorian(first)
	if err != nil {
		return Bounds{}, err
	}
	lastAD, err := ToGregorian(last)
	if err != nil {
		return Bounds{}, err
	}
	reminderAD, err := ToGregorian(reminder)
	if err != nil {
		return Bounds{}, err
	}

	return Bounds{
		FirstDay:      first,
		LastDay:       last,
		ReminderDay:   reminder,
		FirstDayAD:    firstAD,
		LastDayAD:     lastAD,
		ReminderDayAD: reminderAD,
	}, nil
}

// PreviousPeriod returns the (year, month) pair immediately before the given
// Bikram Sambat month
func PreviousPeriod(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// NextPeriod returns the (year, month) pair immediately after the given
// Bikram Sambat month
func NextPeriod(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}

// MonthName returns the Nepali month name for a 1-based month index
func MonthName(month int) string {
	names := [...]string{
		"Baisakh", "Jestha", "Ashadh", "Shrawan", "Bhadra", "Ashwin",
		"Kartik", "Mangsir", "Poush", "Magh", "Falgun", "Chaitra",
	}
	if month < 1 || month > 12 {
		return fmt.Sprintf("month-%d", month)
	}
	return names[month-1]
}
