package form

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tg-sleep-bot/internal/domain"
)

// Reply is what a form interaction wants said back to the user. ShowForm asks
// the transport to attach the field-edit keyboard; Submitted marks a
// completed submission so the caller can count it.
type Reply struct {
	Text      string
	ShowForm  bool
	Submitted bool
}

const msgStorageFailure = "Something went wrong, please try again later."

// Service is the conversational form core. Every handler is a transition:
// it takes the current session and returns the next one together with the
// reply, never touching shared state.
type Service struct {
	records domain.SleepRepo
	loc     *time.Location
	now     func() time.Time
}

// NewService builds the form service for the configured timezone.
func NewService(records domain.SleepRepo, loc *time.Location) *Service {
	return &Service{
		records: records,
		loc:     loc,
		now:     func() time.Time { return time.Now().In(loc) },
	}
}

// RecordBedtime handles /sleep: a bedtime-only entry, no form involved.
func (s *Service) RecordBedtime(ctx context.Context, userID int64) Reply {
	now := s.now()
	if !domain.CanRecordBedtimeNow(now) {
		return Reply{Text: "It's not bedtime yet — /sleep works between 8pm and noon."}
	}
	sleepDate := domain.SleepDate(now)
	_, err := s.records.FindRecord(ctx, userID, sleepDate)
	switch {
	case err == nil:
		return Reply{Text: fmt.Sprintf("Bedtime for %s is already logged.", domain.FormatDate(sleepDate))}
	case !errors.Is(err, domain.ErrRecordNotFound):
		return Reply{Text: msgStorageFailure}
	}
	_, err = s.records.InsertRecord(ctx, userID, sleepDate, domain.RecordFields{BedTime: now})
	if err != nil {
		return Reply{Text: msgStorageFailure}
	}
	return Reply{Text: fmt.Sprintf("Bedtime recorded at %s. Sleep well! Log your morning with /wakey.", domain.FormatClock(now))}
}

// BeginWakeup handles /wakey: it resolves or creates today's record and opens
// the wake-up form seeded with the resolved bedtime and defaults.
func (s *Service) BeginWakeup(ctx context.Context, sess domain.Session, userID int64) (domain.Session, Reply) {
	now := s.now()
	if !domain.CanRecordWakeupNow(now) {
		return sess, Reply{Text: "It's not morning — /wakey works between 3am and 8pm."}
	}
	sleepDate := domain.SleepDate(now)

	record, err := s.records.FindRecord(ctx, userID, sleepDate)
	var bedtime time.Time
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		bedtime = domain.DefaultBedtime(sleepDate)
		wakeup := now
		if _, err := s.records.InsertRecord(ctx, userID, sleepDate, domain.RecordFields{
			BedTime:    bedtime,
			WakeupTime: &wakeup,
		}); err != nil {
			return domain.Session{}, Reply{Text: msgStorageFailure}
		}
	case err != nil:
		return domain.Session{}, Reply{Text: msgStorageFailure}
	case record.IsSubmitted:
		return sess, Reply{Text: "Today's record is already submitted. Use /edit to change it."}
	default:
		bedtime = record.BedTime
		wakeup := now
		record.WakeupTime = &wakeup
		if _, err := s.records.UpdateRecord(ctx, userID, sleepDate, fieldsOf(record)); err != nil {
			return domain.Session{}, Reply{Text: msgStorageFailure}
		}
	}

	next := domain.Session{
		State: domain.StateForm,
		Draft: domain.Draft{
			SleepDate:  sleepDate,
			Bedtime:    bedtime,
			FallAsleep: domain.DefaultFallAsleep,
			Alarm:      domain.DefaultAlarmTime(sleepDate),
			Wakeup:     now,
			Energy:     3,
			Clarity:    3,
		},
	}
	return next, Reply{Text: "Good morning! Check the details below and submit when ready.", ShowForm: true}
}

// BeginAdd handles /add: it asks for the date of a past night to backfill.
func (s *Service) BeginAdd(sess domain.Session) (domain.Session, Reply) {
	sess.State = domain.StateAwaitAddDate
	return sess, Reply{Text: "Which date do you want to add a record for? Send it as DD/MM."}
}

// BeginEdit handles /edit: it asks which submitted record to reopen.
func (s *Service) BeginEdit(sess domain.Session) (domain.Session, Reply) {
	sess.State = domain.StateAwaitEditDate
	return sess, Reply{Text: "Which date do you want to edit? Send it as DD/MM."}
}

// Cancel discards whatever is in progress.
func (s *Service) Cancel(sess domain.Session) (domain.Session, Reply) {
	if sess.Idle() {
		return sess, Reply{Text: "Nothing to cancel."}
	}
	return domain.Session{}, Reply{Text: "Canceled. The draft is gone."}
}

// HandleText routes a free-text reply to whatever the conversation is
// waiting for. The caller must not invoke it on an idle session.
func (s *Service) HandleText(ctx context.Context, sess domain.Session, userID int64, text string) (domain.Session, Reply) {
	switch sess.State {
	case domain.StateAwaitAddDate:
		return s.resolveAddDate(ctx, sess, userID, text)
	case domain.StateAwaitEditDate:
		return s.resolveEditDate(ctx, sess, userID, text)
	case domain.StateAwaitBedtime, domain.StateAwaitFallAsleep, domain.StateAwaitAlarm,
		domain.StateAwaitWakeup, domain.StateAwaitEnergy, domain.StateAwaitClarity:
		return s.applyFieldInput(sess, text)
	case domain.StateForm:
		return sess, Reply{Text: "Tap one of the buttons above, or /cancel to stop.", ShowForm: false}
	default:
		return sess, Reply{Text: "I wasn't expecting that. Try /help."}
	}
}

func (s *Service) resolveAddDate(ctx context.Context, sess domain.Session, userID int64, text string) (domain.Session, Reply) {
	date, ok := ParseDateDDMM(text, s.now())
	if !ok {
		return sess, Reply{Text: "That doesn't look like a date. Send it as DD/MM, e.g. 14/03."}
	}
	_, err := s.records.FindRecord(ctx, userID, date)
	switch {
	case err == nil:
		return domain.Session{}, Reply{Text: fmt.Sprintf("A record for %s already exists. Use /edit to change it.", domain.FormatDate(date))}
	case !errors.Is(err, domain.ErrRecordNotFound):
		return domain.Session{}, Reply{Text: msgStorageFailure}
	}
	next := domain.Session{
		State: domain.StateForm,
		Draft: domain.Draft{
			SleepDate:  date,
			Bedtime:    domain.DefaultBedtime(date),
			FallAsleep: domain.DefaultFallAsleep,
			Alarm:      domain.DefaultAlarmTime(date),
			Wakeup:     domain.DefaultWakeupTime(date),
			Energy:     3,
			Clarity:    3,
			AddEntry:   true,
		},
	}
	return next, Reply{Text: fmt.Sprintf("Adding a record for %s. Adjust the fields below.", domain.FormatDate(date)), ShowForm: true}
}

func (s *Service) resolveEditDate(ctx context.Context, sess domain.Session, userID int64, text string) (domain.Session, Reply) {
	date, ok := ParseDateDDMM(text, s.now())
	if !ok {
		return sess, Reply{Text: "That doesn't look like a date. Send it as DD/MM, e.g. 14/03."}
	}
	record, err := s.records.FindRecord(ctx, userID, date)
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return sess, Reply{Text: fmt.Sprintf("No record for %s. Send another date or /cancel.", domain.FormatDate(date))}
	case err != nil:
		return domain.Session{}, Reply{Text: msgStorageFailure}
	case !record.IsSubmitted:
		return domain.Session{}, Reply{Text: "That record is still waiting for its wake-up entry. Finish it with /wakey instead."}
	}

	draft := domain.Draft{
		SleepDate:  date,
		Bedtime:    record.BedTime,
		FallAsleep: record.FallAsleep(),
		Alarm:      domain.DefaultAlarmTime(date),
		Wakeup:     domain.DefaultWakeupTime(date),
		Energy:     3,
		Clarity:    3,
	}
	if record.FirstAlarmTime != nil {
		draft.Alarm = *record.FirstAlarmTime
	}
	if record.WakeupTime != nil {
		draft.Wakeup = *record.WakeupTime
	}
	if record.EnergyScore != nil {
		draft.Energy = *record.EnergyScore
	}
	if record.ClarityScore != nil {
		draft.Clarity = *record.ClarityScore
	}
	next := domain.Session{State: domain.StateForm, Draft: draft}
	return next, Reply{Text: fmt.Sprintf("Editing the record for %s.", domain.FormatDate(date)), ShowForm: true}
}

// Field edit actions carried by the form keyboard buttons.
const (
	ActionEditBedtime    = "edit_bedtime"
	ActionEditFallAsleep = "edit_fall_asleep"
	ActionEditAlarm      = "edit_alarm"
	ActionEditWakeup     = "edit_wakeup"
	ActionEditEnergy     = "edit_energy"
	ActionEditClarity    = "edit_clarity"
	ActionSubmit         = "submit_form"
)

var fieldPrompts = map[domain.FormState]string{
	domain.StateAwaitBedtime:    "What time did you go to bed? Send a 24-hour time like 2230.",
	domain.StateAwaitFallAsleep: "How long did it take you to fall asleep? Try 15m, 1h or 1h30m.",
	domain.StateAwaitAlarm:      "When did your first alarm ring? Send a 24-hour time like 0700.",
	domain.StateAwaitWakeup:     "What time did you get up? Send a 24-hour time like 0715.",
	domain.StateAwaitEnergy:     "How energized do you feel? Send a score from 1 to 5.",
	domain.StateAwaitClarity:    "How clear-headed do you feel? Send a score from 1 to 5.",
}

var actionStates = map[string]domain.FormState{
	ActionEditBedtime:    domain.StateAwaitBedtime,
	ActionEditFallAsleep: domain.StateAwaitFallAsleep,
	ActionEditAlarm:      domain.StateAwaitAlarm,
	ActionEditWakeup:     domain.StateAwaitWakeup,
	ActionEditEnergy:     domain.StateAwaitEnergy,
	ActionEditClarity:    domain.StateAwaitClarity,
}

// SelectField handles a field button press on the form.
func (s *Service) SelectField(sess domain.Session, action string) (domain.Session, Reply) {
	if sess.Idle() {
		return sess, Reply{Text: "No active form. Start one with /wakey."}
	}
	state, ok := actionStates[action]
	if !ok {
		return sess, Reply{Text: "I don't know that button."}
	}
	sess.State = state
	return sess, Reply{Text: fieldPrompts[state]}
}

func (s *Service) applyFieldInput(sess domain.Session, text string) (domain.Session, Reply) {
	draft := sess.Draft
	switch sess.State {
	case domain.StateAwaitBedtime:
		clock, ok := ParseClockTime(text)
		if !ok {
			return sess, s.invalidInput(sess.State)
		}
		// An evening bedtime belongs to the night before the sleep date,
		// an after-midnight one to the sleep date itself.
		day := draft.SleepDate
		if clock.Hour >= 20 {
			day = day.AddDate(0, 0, -1)
		}
		draft.Bedtime = clock.At(day)
	case domain.StateAwaitFallAsleep:
		d, ok := ParseDuration(text)
		if !ok {
			return sess, s.invalidInput(sess.State)
		}
		draft.FallAsleep = d
	case domain.StateAwaitAlarm:
		clock, ok := ParseClockTime(text)
		if !ok {
			return sess, s.invalidInput(sess.State)
		}
		draft.Alarm = clock.At(draft.SleepDate)
	case domain.StateAwaitWakeup:
		clock, ok := ParseClockTime(text)
		if !ok {
			return sess, s.invalidInput(sess.State)
		}
		draft.Wakeup = clock.At(draft.SleepDate)
	case domain.StateAwaitEnergy:
		score, ok := ParseScore(text)
		if !ok {
			return sess, s.invalidInput(sess.State)
		}
		draft.Energy = score
	case domain.StateAwaitClarity:
		score, ok := ParseScore(text)
		if !ok {
			return sess, s.invalidInput(sess.State)
		}
		draft.Clarity = score
	}
	next := domain.Session{State: domain.StateForm, Draft: draft}
	return next, Reply{Text: "Got it.", ShowForm: true}
}

func (s *Service) invalidInput(state domain.FormState) Reply {
	return Reply{Text: "That doesn't look right. " + fieldPrompts[state]}
}

// Submit persists the draft as a submitted record and closes the form. The
// write is an upsert keyed by (user, sleep date), so submitting the same
// draft twice leaves the stored values unchanged.
func (s *Service) Submit(ctx context.Context, sess domain.Session, userID int64) (domain.Session, Reply) {
	if sess.Idle() {
		return sess, Reply{Text: "No active form. Start one with /wakey."}
	}
	draft := sess.Draft
	sleepTime := draft.SleepTime()
	alarm := draft.Alarm
	wakeup := draft.Wakeup
	if !wakeup.After(sleepTime) {
		return sess, Reply{Text: "The wake-up time isn't after the moment you fell asleep. Check the bedtime and wake-up fields.", ShowForm: true}
	}
	energy := draft.Energy
	clarity := draft.Clarity
	_, err := s.records.UpsertRecord(ctx, userID, draft.SleepDate, domain.RecordFields{
		BedTime:        draft.Bedtime,
		SleepTime:      &sleepTime,
		FirstAlarmTime: &alarm,
		WakeupTime:     &wakeup,
		EnergyScore:    &energy,
		ClarityScore:   &clarity,
		IsSubmitted:    true,
	})
	if err != nil {
		return domain.Session{}, Reply{Text: msgStorageFailure}
	}
	total := wakeup.Sub(sleepTime)
	text := fmt.Sprintf("Saved! You slept %s on the night before %s.", domain.FormatDuration(total), domain.FormatDate(draft.SleepDate))
	if snooze := draft.Snooze(); snooze > 0 {
		text += fmt.Sprintf(" You snoozed for %s after the alarm.", domain.FormatDuration(snooze))
	}
	return domain.Session{}, Reply{
		Text:      text + " Sweet dreams tonight.",
		Submitted: true,
	}
}

// Summary renders the form body shown above the field buttons.
func Summary(d domain.Draft) string {
	header := fmt.Sprintf("🛏 Sleep record for %s", domain.FormatDate(d.SleepDate))
	if d.AddEntry {
		header = fmt.Sprintf("🛏 Adding sleep record for %s", domain.FormatDate(d.SleepDate))
	}
	return fmt.Sprintf(`%s

• Went to bed: %s
• Fell asleep in: %s
• First alarm: %s
• Woke up: %s
• Energy: %d/5
• Clarity: %d/5

Tap a field to change it, or submit when done.`,
		header,
		domain.FormatClock(d.Bedtime),
		domain.FormatDuration(d.FallAsleep),
		domain.FormatClock(d.Alarm),
		domain.FormatClock(d.Wakeup),
		d.Energy,
		d.Clarity,
	)
}

func fieldsOf(r domain.SleepRecord) domain.RecordFields {
	return domain.RecordFields{
		BedTime:        r.BedTime,
		SleepTime:      r.SleepTime,
		FirstAlarmTime: r.FirstAlarmTime,
		WakeupTime:     r.WakeupTime,
		EnergyScore:    r.EnergyScore,
		ClarityScore:   r.ClarityScore,
		IsSubmitted:    r.IsSubmitted,
	}
}
