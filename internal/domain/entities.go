package domain

import "time"

// User describes a Telegram user known to the bot.
type User struct {
	ID        int64
	TGUserID  int64
	Username  string
	Locale    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SleepRecord is one night of sleep for a user. SleepDate is the wake-up
// morning's calendar date, so a bedtime logged after 20:00 belongs to the
// following day's record.
type SleepRecord struct {
	ID             int64
	UserID         int64
	SleepDate      time.Time
	BedTime        time.Time
	SleepTime      *time.Time
	FirstAlarmTime *time.Time
	WakeupTime     *time.Time
	EnergyScore    *int
	ClarityScore   *int
	IsSubmitted    bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FallAsleep returns the gap between going to bed and falling asleep.
func (r SleepRecord) FallAsleep() time.Duration {
	if r.SleepTime == nil {
		return 0
	}
	return r.SleepTime.Sub(r.BedTime)
}

// Draft holds the in-progress wake-up form for one conversation. It is not
// persisted until submission; the session store keeps it as JSON between
// turns.
type Draft struct {
	SleepDate  time.Time     `json:"sleep_date"`
	Bedtime    time.Time     `json:"bedtime"`
	FallAsleep time.Duration `json:"fall_asleep"`
	Alarm      time.Time     `json:"alarm"`
	Wakeup     time.Time     `json:"wakeup"`
	Energy     int           `json:"energy"`
	Clarity    int           `json:"clarity"`
	AddEntry   bool          `json:"add_entry"`
}

// SleepTime is the moment the user actually fell asleep.
func (d Draft) SleepTime() time.Time {
	return d.Bedtime.Add(d.FallAsleep)
}

// Snooze is the gap between the first alarm and getting up.
func (d Draft) Snooze() time.Duration {
	return d.Wakeup.Sub(d.Alarm)
}

// FormState names the position of a conversation inside the wake-up form.
type FormState string

const (
	// StateIdle means no flow is active; commands are accepted.
	StateIdle FormState = ""
	// StateForm means the form summary is shown and a field button or
	// submit is expected.
	StateForm FormState = "form"
	// StateAwaitAddDate waits for a DD/MM date for /add.
	StateAwaitAddDate FormState = "await_add_date"
	// StateAwaitEditDate waits for a DD/MM date for /edit.
	StateAwaitEditDate FormState = "await_edit_date"

	StateAwaitBedtime    FormState = "await_bedtime"
	StateAwaitFallAsleep FormState = "await_fall_asleep"
	StateAwaitAlarm      FormState = "await_alarm"
	StateAwaitWakeup     FormState = "await_wakeup"
	StateAwaitEnergy     FormState = "await_energy"
	StateAwaitClarity    FormState = "await_clarity"
)

// Session is the whole conversation state for one user: where the dialogue
// stands and what the draft currently holds. Handlers take a Session and
// return the next one instead of mutating shared context.
type Session struct {
	State FormState `json:"state"`
	Draft Draft     `json:"draft"`
}

// Idle reports whether no flow is in progress.
func (s Session) Idle() bool { return s.State == StateIdle }
