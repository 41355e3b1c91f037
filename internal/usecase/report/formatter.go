package report

import (
	"fmt"
	"strings"
	"time"

	"tg-sleep-bot/internal/domain"
)

// Format renders the weekly report text. Unsubmitted records are skipped;
// with nothing submitted in the window a single "no records" line is emitted.
func Format(records []domain.SleepRecord, from, to time.Time) string {
	var submitted []domain.SleepRecord
	for _, r := range records {
		if r.IsSubmitted {
			submitted = append(submitted, r)
		}
	}
	if len(submitted) == 0 {
		return fmt.Sprintf("No sleep records found between %s and %s.", domain.FormatDate(from), domain.FormatDate(to))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("😴 Sleep report, %s – %s\n", domain.FormatDate(from), domain.FormatDate(to)))
	for _, r := range submitted {
		b.WriteString("\n" + formatRecord(r) + "\n")
	}
	if averages := formatAverages(submitted); averages != "" {
		b.WriteString("\n" + averages)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRecord(r domain.SleepRecord) string {
	lines := []string{fmt.Sprintf("📅 %s", domain.FormatDate(r.SleepDate))}

	bed := fmt.Sprintf("• Went to bed: %s", domain.FormatClock(r.BedTime))
	if r.SleepTime != nil {
		bed += fmt.Sprintf(" (fell asleep in %s)", domain.FormatDuration(r.SleepTime.Sub(r.BedTime)))
	}
	lines = append(lines, bed)

	if r.WakeupTime != nil {
		wake := fmt.Sprintf("• Woke up: %s", domain.FormatClock(*r.WakeupTime))
		if r.FirstAlarmTime != nil {
			wake += fmt.Sprintf(" (alarm %s, snoozed %s)", domain.FormatClock(*r.FirstAlarmTime), domain.FormatDuration(r.WakeupTime.Sub(*r.FirstAlarmTime)))
		}
		lines = append(lines, wake)
	}
	if r.SleepTime != nil && r.WakeupTime != nil {
		lines = append(lines, fmt.Sprintf("• Slept: %s", domain.FormatDuration(r.WakeupTime.Sub(*r.SleepTime))))
	}
	if r.EnergyScore != nil {
		lines = append(lines, fmt.Sprintf("• Energy: %s (%d/5)", stars(*r.EnergyScore), *r.EnergyScore))
	}
	if r.ClarityScore != nil {
		lines = append(lines, fmt.Sprintf("• Clarity: %s (%d/5)", stars(*r.ClarityScore), *r.ClarityScore))
	}
	return strings.Join(lines, "\n")
}

func formatAverages(records []domain.SleepRecord) string {
	var (
		sleepSeconds int64
		sleepCount   int64
		energySum    int
		energyCount  int
		claritySum   int
		clarityCount int
	)
	for _, r := range records {
		if r.SleepTime != nil && r.WakeupTime != nil {
			sleepSeconds += int64(r.WakeupTime.Sub(*r.SleepTime) / time.Second)
			sleepCount++
		}
		if r.EnergyScore != nil {
			energySum += *r.EnergyScore
			energyCount++
		}
		if r.ClarityScore != nil {
			claritySum += *r.ClarityScore
			clarityCount++
		}
	}

	var lines []string
	if sleepCount > 0 {
		avg := time.Duration(sleepSeconds/sleepCount) * time.Second
		lines = append(lines, fmt.Sprintf("• Sleep: %s", domain.FormatDuration(avg)))
	}
	if energyCount > 0 {
		lines = append(lines, fmt.Sprintf("• Energy: %.1f/5", float64(energySum)/float64(energyCount)))
	}
	if clarityCount > 0 {
		lines = append(lines, fmt.Sprintf("• Clarity: %.1f/5", float64(claritySum)/float64(clarityCount)))
	}
	if len(lines) == 0 {
		return ""
	}
	return "📊 Averages over " + nights(len(records)) + ":\n" + strings.Join(lines, "\n")
}

func stars(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 5 {
		score = 5
	}
	return strings.Repeat("★", score)
}

func nights(n int) string {
	if n == 1 {
		return "1 night"
	}
	return fmt.Sprintf("%d nights", n)
}
