package report

import (
	"context"
	"fmt"
	"time"

	"tg-sleep-bot/internal/domain"
)

// WindowDays is how many days the weekly report covers, inclusive.
const WindowDays = 7

// Service builds sleep summaries from stored records.
type Service struct {
	records domain.SleepRepo
	loc     *time.Location
	now     func() time.Time
}

// NewService builds the report service for the configured timezone.
func NewService(records domain.SleepRepo, loc *time.Location) *Service {
	return &Service{
		records: records,
		loc:     loc,
		now:     func() time.Time { return time.Now().In(loc) },
	}
}

// BuildWeekly renders the report for the 7-day window ending today.
func (s *Service) BuildWeekly(ctx context.Context, userID int64) (string, error) {
	now := s.now()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	from := to.AddDate(0, 0, -(WindowDays - 1))
	records, err := s.records.ListRecords(ctx, userID, from, to)
	if err != nil {
		return "", fmt.Errorf("list records: %w", err)
	}
	return Format(records, from, to), nil
}
