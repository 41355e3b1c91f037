package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultFallAsleep seeds a fresh draft when the user never logged how long
// it took them to drift off.
const DefaultFallAsleep = 15 * time.Minute

// SleepDate maps a wall-clock moment to the sleep record it belongs to.
// Anything before 20:00 counts toward the same morning; a late-night entry
// belongs to the next day's wake-up.
func SleepDate(t time.Time) time.Time {
	if t.Hour() >= 20 {
		t = t.AddDate(0, 0, 1)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CanRecordBedtimeNow limits bedtime logging to evening and morning hours so
// an accidental mid-afternoon /sleep does not create a record.
func CanRecordBedtimeNow(t time.Time) bool {
	return t.Hour() >= 20 || t.Hour() < 12
}

// CanRecordWakeupNow limits wake-up logging to daytime hours.
func CanRecordWakeupNow(t time.Time) bool {
	return t.Hour() >= 3 && t.Hour() < 20
}

// DefaultBedtime is 22:00 on the evening before the sleep date.
func DefaultBedtime(sleepDate time.Time) time.Time {
	d := sleepDate.AddDate(0, 0, -1)
	return time.Date(d.Year(), d.Month(), d.Day(), 22, 0, 0, 0, sleepDate.Location())
}

// DefaultSleepTime is 22:15 on the evening before the sleep date.
func DefaultSleepTime(sleepDate time.Time) time.Time {
	d := sleepDate.AddDate(0, 0, -1)
	return time.Date(d.Year(), d.Month(), d.Day(), 22, 15, 0, 0, sleepDate.Location())
}

// DefaultAlarmTime is 07:00 on the sleep date.
func DefaultAlarmTime(sleepDate time.Time) time.Time {
	return time.Date(sleepDate.Year(), sleepDate.Month(), sleepDate.Day(), 7, 0, 0, 0, sleepDate.Location())
}

// DefaultWakeupTime is 07:15 on the sleep date.
func DefaultWakeupTime(sleepDate time.Time) time.Time {
	return time.Date(sleepDate.Year(), sleepDate.Month(), sleepDate.Day(), 7, 15, 0, 0, sleepDate.Location())
}

// FormatDuration renders a duration as "H hours M minutes", dropping a zero
// component and pluralizing only above one. A zero duration reads "0 minutes".
func FormatDuration(d time.Duration) string {
	total := int(d.Minutes())
	hours := total / 60
	minutes := total % 60

	var parts []string
	if hours != 0 {
		parts = append(parts, fmt.Sprintf("%d %s", hours, plural("hour", hours)))
	}
	if minutes != 0 {
		parts = append(parts, fmt.Sprintf("%d %s", minutes, plural("minute", minutes)))
	}
	if len(parts) == 0 {
		return "0 minutes"
	}
	return strings.Join(parts, " ")
}

// FormatDate renders a calendar date like "2 Jan".
func FormatDate(t time.Time) string {
	return t.Format("2 Jan")
}

// FormatClock renders a time of day like "10:05pm".
func FormatClock(t time.Time) string {
	return strings.ToLower(t.Format("3:04PM"))
}

func plural(unit string, n int) string {
	if n == 1 || n == -1 {
		return unit
	}
	return unit + "s"
}
