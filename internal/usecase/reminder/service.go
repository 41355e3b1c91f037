package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tg-sleep-bot/internal/domain"
)

// Service schedules bedtime reminders: once a day, every user without a
// record for tonight's sleep date gets a nudge enqueued.
type Service struct {
	users   domain.UserRepo
	records domain.SleepRepo
	tasks   domain.ReminderTaskRepo
	queue   domain.ReminderQueue
	log     zerolog.Logger
	hour    int
	loc     *time.Location
}

// NewService builds the reminder service. hour is the local hour at which
// reminders fire.
func NewService(users domain.UserRepo, records domain.SleepRepo, tasks domain.ReminderTaskRepo, queue domain.ReminderQueue, log zerolog.Logger, hour int, loc *time.Location) *Service {
	return &Service{users: users, records: records, tasks: tasks, queue: queue, log: log, hour: hour, loc: loc}
}

// Tick inspects the clock and enqueues due reminders. It is safe to call as
// often as you like: the task repo deduplicates per (user, scheduled time).
func (s *Service) Tick(ctx context.Context, now time.Time) error {
	now = now.In(s.loc)
	if now.Hour() != s.hour {
		return nil
	}
	scheduledFor := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, s.loc)
	sleepDate := domain.SleepDate(now)

	users, err := s.users.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	for _, user := range users {
		if err := s.remindUser(ctx, user, sleepDate, scheduledFor); err != nil {
			s.log.Error().Err(err).Int64("user", user.TGUserID).Msg("reminder: enqueue failed")
		}
	}
	return nil
}

func (s *Service) remindUser(ctx context.Context, user domain.User, sleepDate, scheduledFor time.Time) error {
	acquired, err := s.tasks.Acquire(ctx, user.ID, scheduledFor)
	if err != nil {
		return fmt.Errorf("acquire task: %w", err)
	}
	if !acquired {
		return nil
	}
	if _, err := s.records.FindRecord(ctx, user.ID, sleepDate); err == nil {
		// Already logged tonight; nothing to nudge about.
		return nil
	}
	job := domain.ReminderJob{
		ID:           uuid.NewString(),
		UserTGID:     user.TGUserID,
		SleepDate:    sleepDate,
		ScheduledFor: scheduledFor,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

// Message is the reminder text delivered by the bot gateway.
func Message() string {
	return "🌙 Time to wind down. Log your bedtime with /sleep when you turn in."
}
