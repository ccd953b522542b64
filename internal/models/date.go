package models

import (
	"time"

	"gorm.io/datatypes"
)

// Date is a calendar day stored in a DATE column.
type Date = datatypes.Date

// DateLayout is the only accepted wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (datatypes.Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(t), nil
}

// DateOf drops the clock part of t, keeping the calendar day as seen in t's location.
func DateOf(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// FormatDate renders d as YYYY-MM-DD.
func FormatDate(d datatypes.Date) string {
	return time.Time(d).Format(DateLayout)
}

// Weekday returns the day of week with Monday as 0 and Sunday as 6.
func Weekday(d datatypes.Date) int {
	return (int(time.Time(d).Weekday()) + 6) % 7
}
