package utils

import "time"

// DateLayout is the key format for calendar days
const DateLayout = "2006-01-02"

// StartOfDay truncates t to midnight UTC of its UTC calendar day
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StartOfWeek returns the Monday of t's week
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -WeekdayIndex(day))
}

// StartOfMonth returns the first day of t's month
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// WeekdayIndex maps Monday to 0 and Sunday to 6
func WeekdayIndex(t time.Time) int {
	return (int(t.UTC().Weekday()) + 6) % 7
}

// DayKey formats the UTC calendar day of t
func DayKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// DaysBetween counts whole calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}
