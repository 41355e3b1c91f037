package form

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a parsed time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

// At pins the time of day onto a calendar date in that date's location.
func (c ClockTime) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, 0, 0, date.Location())
}

// ParseClockTime reads a strict 4-digit 24-hour HHMM value ("2230" → 22:30).
// Any other shape fails.
func ParseClockTime(text string) (ClockTime, bool) {
	text = strings.TrimSpace(text)
	if len(text) != 4 {
		return ClockTime{}, false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return ClockTime{}, false
		}
	}
	hour, _ := strconv.Atoi(text[:2])
	minute, _ := strconv.Atoi(text[2:])
	if hour > 23 || minute > 59 {
		return ClockTime{}, false
	}
	return ClockTime{Hour: hour, Minute: minute}, true
}

// ParseDateDDMM reads a strict DD/MM date with the year defaulted to the
// current year in the given location.
func ParseDateDDMM(text string, now time.Time) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(text), "/")
	if len(parts) != 2 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	date := time.Date(now.Year(), time.Month(month), day, 0, 0, 0, 0, now.Location())
	// time.Date normalizes overflow (31/04 becomes 1 May); treat that as bad input.
	if date.Day() != day || date.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return date, true
}

var durationPattern = regexp.MustCompile(`(?i)^(?:(\d+(?:\.\d+)?)h)?(?:(\d+)m)?$`)

// ParseDuration reads durations like "1h30m", "90m" or "1.5h". Hours may be
// fractional; minutes must be whole and come after hours. Empty input fails:
// a blank reply to a duration prompt is treated as a mistake, not zero.
func ParseDuration(text string) (time.Duration, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), " ", "")
	if cleaned == "" {
		return 0, false
	}
	m := durationPattern.FindStringSubmatch(cleaned)
	if m == nil {
		return 0, false
	}
	var total time.Duration
	if m[1] != "" {
		hours, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		total += time.Duration(hours * float64(time.Hour))
	}
	if m[2] != "" {
		minutes, err := strconv.Atoi(m[2])
		if err != nil {
			return 0, false
		}
		total += time.Duration(minutes) * time.Minute
	}
	return total, true
}

// ParseScore reads a single digit in [1,5].
func ParseScore(text string) (int, bool) {
	text = strings.TrimSpace(text)
	score, err := strconv.Atoi(text)
	if err != nil || score < 1 || score > 5 {
		return 0, false
	}
	return score, true
}
