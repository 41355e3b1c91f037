package domain

import (
	"context"
	"time"
)

// ReminderJob asks the bot gateway to nudge one user about logging bedtime.
type ReminderJob struct {
	ID           string    `json:"job_id"`
	UserTGID     int64     `json:"user_tg_id"`
	SleepDate    time.Time `json:"sleep_date"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// ReminderQueue moves reminder jobs from the scheduler to the bot gateway.
type ReminderQueue interface {
	Enqueue(ctx context.Context, job ReminderJob) error
	// Pop blocks until a job arrives or the context is canceled.
	Pop(ctx context.Context) (ReminderJob, error)
}

// ReminderTaskRepo deduplicates scheduled reminders: Acquire returns true
// only for the first attempt at a given (user, scheduled time).
type ReminderTaskRepo interface {
	Acquire(ctx context.Context, userID int64, scheduledFor time.Time) (bool, error)
}
