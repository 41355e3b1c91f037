package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tg-sleep-bot/internal/domain"
	"tg-sleep-bot/internal/infra/metrics"
)

// Postgres implements the repositories on top of pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.UserRepo         = (*Postgres)(nil)
	_ domain.SleepRepo        = (*Postgres)(nil)
	_ domain.ReminderTaskRepo = (*Postgres)(nil)
)

// NewPostgres builds the adapter.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// UpsertByTGID implements domain.UserRepo.
func (p *Postgres) UpsertByTGID(ctx context.Context, profile domain.TelegramProfile) (domain.User, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	username := strings.TrimSpace(profile.Username)
	locale := strings.TrimSpace(profile.Locale)

	var (
		user        domain.User
		usernameSQL sql.NullString
		localeSQL   sql.NullString
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO users (tg_user_id, username, locale)
VALUES ($1, NULLIF($2,''), NULLIF($3,''))
ON CONFLICT (tg_user_id) DO UPDATE SET username = EXCLUDED.username, locale = COALESCE(EXCLUDED.locale, users.locale), updated_at = now()
RETURNING id, tg_user_id, username, locale, created_at, updated_at
`, profile.TGUserID, username, locale).Scan(&user.ID, &user.TGUserID, &usernameSQL, &localeSQL, &user.CreatedAt, &user.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "users_upsert", "users", start, err)
	if err != nil {
		return domain.User{}, err
	}
	if usernameSQL.Valid {
		user.Username = usernameSQL.String
	}
	if localeSQL.Valid {
		user.Locale = localeSQL.String
	}
	return user, nil
}

// GetByTGID returns the user with the given Telegram ID.
func (p *Postgres) GetByTGID(ctx context.Context, tgUserID int64) (domain.User, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var (
		user        domain.User
		usernameSQL sql.NullString
		localeSQL   sql.NullString
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, tg_user_id, username, locale, created_at, updated_at
FROM users WHERE tg_user_id=$1
`, tgUserID).Scan(&user.ID, &user.TGUserID, &usernameSQL, &localeSQL, &user.CreatedAt, &user.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "users_get_by_tgid", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, errors.New("user not found")
	}
	if err != nil {
		return domain.User{}, err
	}
	if usernameSQL.Valid {
		user.Username = usernameSQL.String
	}
	if localeSQL.Valid {
		user.Locale = localeSQL.String
	}
	return user, nil
}

// List returns every registered user.
func (p *Postgres) List(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, tg_user_id, username, locale, created_at, updated_at
FROM users ORDER BY id
`)
	metrics.ObserveNetworkRequest("postgres", "users_list", "users", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []domain.User
	for rows.Next() {
		var (
			u           domain.User
			usernameSQL sql.NullString
			localeSQL   sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.TGUserID, &usernameSQL, &localeSQL, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		if usernameSQL.Valid {
			u.Username = usernameSQL.String
		}
		if localeSQL.Valid {
			u.Locale = localeSQL.String
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const recordColumns = `id, user_id, sleep_date, bed_time, sleep_time, first_alarm_time, wakeup_time, energy_score, clarity_score, is_submitted, created_at, updated_at`

func scanRecord(row pgx.Row) (domain.SleepRecord, error) {
	var (
		r         domain.SleepRecord
		sleepTime sql.NullTime
		alarmTime sql.NullTime
		wakeTime  sql.NullTime
		energy    sql.NullInt32
		clarity   sql.NullInt32
	)
	err := row.Scan(&r.ID, &r.UserID, &r.SleepDate, &r.BedTime, &sleepTime, &alarmTime, &wakeTime, &energy, &clarity, &r.IsSubmitted, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return domain.SleepRecord{}, err
	}
	if sleepTime.Valid {
		t := sleepTime.Time
		r.SleepTime = &t
	}
	if alarmTime.Valid {
		t := alarmTime.Time
		r.FirstAlarmTime = &t
	}
	if wakeTime.Valid {
		t := wakeTime.Time
		r.WakeupTime = &t
	}
	if energy.Valid {
		v := int(energy.Int32)
		r.EnergyScore = &v
	}
	if clarity.Valid {
		v := int(clarity.Int32)
		r.ClarityScore = &v
	}
	return r, nil
}

// FindRecord implements domain.SleepRepo.
func (p *Postgres) FindRecord(ctx context.Context, userID int64, sleepDate time.Time) (domain.SleepRecord, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	record, err := scanRecord(p.pool.QueryRow(ctx, `
SELECT `+recordColumns+`
FROM sleep_records WHERE user_id=$1 AND sleep_date=$2
`, userID, sleepDate))
	metrics.ObserveNetworkRequest("postgres", "sleep_records_find", "sleep_records", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SleepRecord{}, domain.ErrRecordNotFound
	}
	return record, err
}

// InsertRecord creates a record; a second insert for the same (user, date)
// fails with ErrDuplicateRecord.
func (p *Postgres) InsertRecord(ctx context.Context, userID int64, sleepDate time.Time, fields domain.RecordFields) (domain.SleepRecord, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	record, err := scanRecord(p.pool.QueryRow(ctx, `
INSERT INTO sleep_records (user_id, sleep_date, bed_time, sleep_time, first_alarm_time, wakeup_time, energy_score, clarity_score, is_submitted)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING `+recordColumns+`
`, userID, sleepDate, fields.BedTime, fields.SleepTime, fields.FirstAlarmTime, fields.WakeupTime, fields.EnergyScore, fields.ClarityScore, fields.IsSubmitted))
	metrics.ObserveNetworkRequest("postgres", "sleep_records_insert", "sleep_records", start, err)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.SleepRecord{}, domain.ErrDuplicateRecord
	}
	return record, err
}

// UpdateRecord overwrites the writable fields of an existing record.
func (p *Postgres) UpdateRecord(ctx context.Context, userID int64, sleepDate time.Time, fields domain.RecordFields) (domain.SleepRecord, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	record, err := scanRecord(p.pool.QueryRow(ctx, `
UPDATE sleep_records
SET bed_time=$3, sleep_time=$4, first_alarm_time=$5, wakeup_time=$6, energy_score=$7, clarity_score=$8, is_submitted=$9, updated_at=now()
WHERE user_id=$1 AND sleep_date=$2
RETURNING `+recordColumns+`
`, userID, sleepDate, fields.BedTime, fields.SleepTime, fields.FirstAlarmTime, fields.WakeupTime, fields.EnergyScore, fields.ClarityScore, fields.IsSubmitted))
	metrics.ObserveNetworkRequest("postgres", "sleep_records_update", "sleep_records", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SleepRecord{}, domain.ErrRecordNotFound
	}
	return record, err
}

// UpsertRecord creates or replaces the record; submission relies on this
// being last-write-wins per (user, sleep date).
func (p *Postgres) UpsertRecord(ctx context.Context, userID int64, sleepDate time.Time, fields domain.RecordFields) (domain.SleepRecord, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	record, err := scanRecord(p.pool.QueryRow(ctx, `
INSERT INTO sleep_records (user_id, sleep_date, bed_time, sleep_time, first_alarm_time, wakeup_time, energy_score, clarity_score, is_submitted)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (user_id, sleep_date) DO UPDATE
SET bed_time=EXCLUDED.bed_time, sleep_time=EXCLUDED.sleep_time, first_alarm_time=EXCLUDED.first_alarm_time,
    wakeup_time=EXCLUDED.wakeup_time, energy_score=EXCLUDED.energy_score, clarity_score=EXCLUDED.clarity_score,
    is_submitted=EXCLUDED.is_submitted, updated_at=now()
RETURNING `+recordColumns+`
`, userID, sleepDate, fields.BedTime, fields.SleepTime, fields.FirstAlarmTime, fields.WakeupTime, fields.EnergyScore, fields.ClarityScore, fields.IsSubmitted))
	metrics.ObserveNetworkRequest("postgres", "sleep_records_upsert", "sleep_records", start, err)
	return record, err
}

// ListRecords returns records inside the inclusive window, newest first.
func (p *Postgres) ListRecords(ctx context.Context, userID int64, from, to time.Time) ([]domain.SleepRecord, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+recordColumns+`
FROM sleep_records
WHERE user_id=$1 AND sleep_date >= $2 AND sleep_date <= $3
ORDER BY sleep_date DESC
`, userID, from, to)
	metrics.ObserveNetworkRequest("postgres", "sleep_records_list", "sleep_records", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []domain.SleepRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Acquire implements domain.ReminderTaskRepo: it returns true only for the
// first attempt at a given (user, scheduled time).
func (p *Postgres) Acquire(ctx context.Context, userID int64, scheduledFor time.Time) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `
INSERT INTO reminder_tasks (user_id, scheduled_for)
VALUES ($1, $2)
ON CONFLICT (user_id, scheduled_for) DO NOTHING
`, userID, scheduledFor)
	metrics.ObserveNetworkRequest("postgres", "reminder_tasks_acquire", "reminder_tasks", start, err)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}
