package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// ParseDate parses a YYYY-MM-DD date into a time.Time at UTC midnight.
// Dates carry no timezone meaning; they name a local civil day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Msg: "expected YYYY-MM-DD"}
	}
	return t, nil
}

// DateOnly truncates a timestamp to its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseMinute parses an HH:MM clock time into minutes since midnight.
func ParseMinute(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, &ValidationError{Field: "time", Msg: "expected HH:MM"}
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, &ValidationError{Field: "time", Msg: "expected HH:MM"}
	}
	return h*60 + m, nil
}

// FormatMinute renders minutes since midnight as HH:MM.
func FormatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Overlaps reports whether the half-open intervals [a1,a2) and [b1,b2)
// intersect. Touching endpoints do not overlap, so a charter ending at
// 12:00 does not collide with one starting at 12:00.
func Overlaps(a1, a2, b1, b2 int) bool {
	return a1 < b2 && b1 < a2
}

// StartsAt combines a calendar day with a minute-of-day offset into a
// single instant, used for notice-window and time-to-event arithmetic.
func StartsAt(date time.Time, minute int) time.Time {
	return DateOnly(date).Add(time.Duration(minute) * time.Minute)
}
