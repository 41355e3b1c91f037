package domain

import (
	"context"
	"errors"
	"time"
)

// TelegramProfile carries the identity fields received with an update.
type TelegramProfile struct {
	TGUserID int64
	Username string
	Locale   string
}

// Errors the repository surfaces so the form layer can tell a broken store
// apart from an expected miss or collision.
var (
	// ErrRecordNotFound means no record exists for (user, sleep date).
	ErrRecordNotFound = errors.New("sleep record not found")
	// ErrDuplicateRecord means a record already exists for (user, sleep date).
	ErrDuplicateRecord = errors.New("sleep record already exists")
)

// UserRepo manages Telegram user accounts.
type UserRepo interface {
	UpsertByTGID(ctx context.Context, profile TelegramProfile) (User, error)
	GetByTGID(ctx context.Context, tgUserID int64) (User, error)
	List(ctx context.Context) ([]User, error)
}

// RecordFields is the writable portion of a sleep record, keyed externally
// by (user, sleep date).
type RecordFields struct {
	BedTime        time.Time
	SleepTime      *time.Time
	FirstAlarmTime *time.Time
	WakeupTime     *time.Time
	EnergyScore    *int
	ClarityScore   *int
	IsSubmitted    bool
}

// SleepRepo stores one record per (user, sleep date).
type SleepRepo interface {
	FindRecord(ctx context.Context, userID int64, sleepDate time.Time) (SleepRecord, error)
	InsertRecord(ctx context.Context, userID int64, sleepDate time.Time, fields RecordFields) (SleepRecord, error)
	UpdateRecord(ctx context.Context, userID int64, sleepDate time.Time, fields RecordFields) (SleepRecord, error)
	UpsertRecord(ctx context.Context, userID int64, sleepDate time.Time, fields RecordFields) (SleepRecord, error)
	// ListRecords returns records with from <= sleep_date <= to, newest first.
	ListRecords(ctx context.Context, userID int64, from, to time.Time) ([]SleepRecord, error)
}

// SessionStore keeps per-user conversation sessions between webhook turns.
// A missing session is an idle one.
type SessionStore interface {
	Get(ctx context.Context, tgUserID int64) (Session, error)
	Put(ctx context.Context, tgUserID int64, session Session) error
	Delete(ctx context.Context, tgUserID int64) error
}
