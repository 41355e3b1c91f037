package form

import (
	"context"
	"strings"
	"testing"
	"time"

	"tg-sleep-bot/internal/domain"
)

type stubSleepRepo struct {
	records  map[string]domain.SleepRecord
	inserted []domain.RecordFields
	updated  []domain.RecordFields
	upserted []domain.RecordFields
}

func newStubSleepRepo() *stubSleepRepo {
	return &stubSleepRepo{records: map[string]domain.SleepRecord{}}
}

func dateKey(t time.Time) string { return t.Format("2006-01-02") }

func (s *stubSleepRepo) FindRecord(_ context.Context, _ int64, sleepDate time.Time) (domain.SleepRecord, error) {
	record, ok := s.records[dateKey(sleepDate)]
	if !ok {
		return domain.SleepRecord{}, domain.ErrRecordNotFound
	}
	return record, nil
}

func (s *stubSleepRepo) InsertRecord(_ context.Context, userID int64, sleepDate time.Time, fields domain.RecordFields) (domain.SleepRecord, error) {
	if _, ok := s.records[dateKey(sleepDate)]; ok {
		return domain.SleepRecord{}, domain.ErrDuplicateRecord
	}
	s.inserted = append(s.inserted, fields)
	record := recordFrom(userID, sleepDate, fields)
	s.records[dateKey(sleepDate)] = record
	return record, nil
}

func (s *stubSleepRepo) UpdateRecord(_ context.Context, userID int64, sleepDate time.Time, fields domain.RecordFields) (domain.SleepRecord, error) {
	if _, ok := s.records[dateKey(sleepDate)]; !ok {
		return domain.SleepRecord{}, domain.ErrRecordNotFound
	}
	s.updated = append(s.updated, fields)
	record := recordFrom(userID, sleepDate, fields)
	s.records[dateKey(sleepDate)] = record
	return record, nil
}

func (s *stubSleepRepo) UpsertRecord(_ context.Context, userID int64, sleepDate time.Time, fields domain.RecordFields) (domain.SleepRecord, error) {
	s.upserted = append(s.upserted, fields)
	record := recordFrom(userID, sleepDate, fields)
	s.records[dateKey(sleepDate)] = record
	return record, nil
}

func (s *stubSleepRepo) ListRecords(_ context.Context, _ int64, _, _ time.Time) ([]domain.SleepRecord, error) {
	return nil, nil
}

func recordFrom(userID int64, sleepDate time.Time, fields domain.RecordFields) domain.SleepRecord {
	return domain.SleepRecord{
		UserID:         userID,
		SleepDate:      sleepDate,
		BedTime:        fields.BedTime,
		SleepTime:      fields.SleepTime,
		FirstAlarmTime: fields.FirstAlarmTime,
		WakeupTime:     fields.WakeupTime,
		EnergyScore:    fields.EnergyScore,
		ClarityScore:   fields.ClarityScore,
		IsSubmitted:    fields.IsSubmitted,
	}
}

func newTestService(repo *stubSleepRepo, now time.Time) *Service {
	svc := NewService(repo, now.Location())
	svc.now = func() time.Time { return now }
	return svc
}

func TestRecordBedtimeLateEvening(t *testing.T) {
	repo := newStubSleepRepo()
	now := time.Date(2026, time.March, 1, 23, 30, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	reply := svc.RecordBedtime(context.Background(), 1)
	if !strings.Contains(reply.Text, "11:30pm") {
		t.Fatalf("expected the logged time in the reply, got %q", reply.Text)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(repo.inserted))
	}
	stored, ok := repo.records["2026-03-02"]
	if !ok {
		t.Fatal("expected the record keyed by the next morning")
	}
	if !stored.BedTime.Equal(now) {
		t.Fatalf("unexpected bedtime: %v", stored.BedTime)
	}
}

func TestRecordBedtimeDuplicate(t *testing.T) {
	repo := newStubSleepRepo()
	repo.records["2026-03-02"] = domain.SleepRecord{UserID: 1}
	svc := newTestService(repo, time.Date(2026, time.March, 1, 23, 30, 0, 0, time.UTC))

	reply := svc.RecordBedtime(context.Background(), 1)
	if !strings.Contains(reply.Text, "already logged") {
		t.Fatalf("expected a duplicate notice, got %q", reply.Text)
	}
	if len(repo.inserted) != 0 {
		t.Fatal("expected no insert for a duplicate")
	}
}

func TestRecordBedtimeOutsideWindow(t *testing.T) {
	repo := newStubSleepRepo()
	svc := newTestService(repo, time.Date(2026, time.March, 1, 15, 0, 0, 0, time.UTC))

	reply := svc.RecordBedtime(context.Background(), 1)
	if !strings.Contains(reply.Text, "not bedtime") {
		t.Fatalf("expected a window rejection, got %q", reply.Text)
	}
	if len(repo.inserted) != 0 {
		t.Fatal("expected no insert outside the window")
	}
}

func TestBeginWakeupSeedsDefaultsAndSubmit(t *testing.T) {
	repo := newStubSleepRepo()
	now := time.Date(2026, time.March, 2, 7, 15, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	sess, reply := svc.BeginWakeup(context.Background(), domain.Session{}, 1)
	if !reply.ShowForm {
		t.Fatal("expected the form to open")
	}
	if sess.State != domain.StateForm {
		t.Fatalf("expected form state, got %q", sess.State)
	}
	wantBedtime := time.Date(2026, time.March, 1, 22, 0, 0, 0, time.UTC)
	if !sess.Draft.Bedtime.Equal(wantBedtime) {
		t.Fatalf("expected default bedtime %v, got %v", wantBedtime, sess.Draft.Bedtime)
	}
	if sess.Draft.FallAsleep != domain.DefaultFallAsleep {
		t.Fatalf("expected default fall-asleep, got %v", sess.Draft.FallAsleep)
	}
	if !sess.Draft.Wakeup.Equal(now) {
		t.Fatalf("expected wake-up seeded from the clock, got %v", sess.Draft.Wakeup)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected the placeholder record to be inserted, got %d inserts", len(repo.inserted))
	}

	sess, reply = svc.Submit(context.Background(), sess, 1)
	if !reply.Submitted {
		t.Fatal("expected a submitted reply")
	}
	if !sess.Idle() {
		t.Fatal("expected the session to close after submit")
	}
	if len(repo.upserted) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(repo.upserted))
	}
	fields := repo.upserted[0]
	wantSleep := time.Date(2026, time.March, 1, 22, 15, 0, 0, time.UTC)
	if fields.SleepTime == nil || !fields.SleepTime.Equal(wantSleep) {
		t.Fatalf("expected sleep time %v, got %v", wantSleep, fields.SleepTime)
	}
	if !fields.IsSubmitted {
		t.Fatal("expected the record marked submitted")
	}
}

func TestBeginWakeupKeepsLoggedBedtime(t *testing.T) {
	repo := newStubSleepRepo()
	bedtime := time.Date(2026, time.March, 1, 23, 10, 0, 0, time.UTC)
	repo.records["2026-03-02"] = domain.SleepRecord{UserID: 1, SleepDate: time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), BedTime: bedtime}
	svc := newTestService(repo, time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC))

	sess, _ := svc.BeginWakeup(context.Background(), domain.Session{}, 1)
	if !sess.Draft.Bedtime.Equal(bedtime) {
		t.Fatalf("expected the logged bedtime %v, got %v", bedtime, sess.Draft.Bedtime)
	}
	if len(repo.updated) != 1 {
		t.Fatalf("expected the wake-up time written back, got %d updates", len(repo.updated))
	}
}

func TestBeginWakeupSubmittedRejected(t *testing.T) {
	repo := newStubSleepRepo()
	repo.records["2026-03-02"] = domain.SleepRecord{UserID: 1, IsSubmitted: true}
	svc := newTestService(repo, time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC))

	_, reply := svc.BeginWakeup(context.Background(), domain.Session{}, 1)
	if !strings.Contains(reply.Text, "/edit") {
		t.Fatalf("expected a pointer to /edit, got %q", reply.Text)
	}
	if len(repo.updated) != 0 {
		t.Fatal("expected no writes for a submitted record")
	}
}

func TestBeginWakeupOutsideWindow(t *testing.T) {
	repo := newStubSleepRepo()
	svc := newTestService(repo, time.Date(2026, time.March, 2, 23, 0, 0, 0, time.UTC))

	_, reply := svc.BeginWakeup(context.Background(), domain.Session{}, 1)
	if !strings.Contains(reply.Text, "not morning") {
		t.Fatalf("expected a window rejection, got %q", reply.Text)
	}
	if len(repo.inserted) != 0 {
		t.Fatal("expected no insert outside the window")
	}
}

func TestSubmitTwiceLeavesRecordUnchanged(t *testing.T) {
	repo := newStubSleepRepo()
	now := time.Date(2026, time.March, 2, 7, 15, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	sess, _ := svc.BeginWakeup(context.Background(), domain.Session{}, 1)
	_, first := svc.Submit(context.Background(), sess, 1)
	_, second := svc.Submit(context.Background(), sess, 1)
	if !first.Submitted || !second.Submitted {
		t.Fatal("expected both submissions to succeed")
	}
	if len(repo.upserted) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(repo.upserted))
	}
	a, b := repo.upserted[0], repo.upserted[1]
	if !a.BedTime.Equal(b.BedTime) || !a.SleepTime.Equal(*b.SleepTime) || !a.WakeupTime.Equal(*b.WakeupTime) {
		t.Fatal("expected identical stored fields on resubmission")
	}
}

func TestSubmitRejectsWakeupBeforeSleep(t *testing.T) {
	repo := newStubSleepRepo()
	svc := newTestService(repo, time.Date(2026, time.March, 2, 7, 30, 0, 0, time.UTC))
	// Bedtime edited to mid-morning of the sleep date: falling asleep would
	// land after the recorded wake-up.
	sess := domain.Session{State: domain.StateForm, Draft: domain.Draft{
		SleepDate:  time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		Bedtime:    time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC),
		FallAsleep: 15 * time.Minute,
		Alarm:      time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC),
		Wakeup:     time.Date(2026, time.March, 2, 7, 15, 0, 0, time.UTC),
		Energy:     3,
		Clarity:    3,
	}}

	next, reply := svc.Submit(context.Background(), sess, 1)
	if reply.Submitted {
		t.Fatal("expected the submission rejected")
	}
	if !reply.ShowForm {
		t.Fatal("expected the form kept open for a fix")
	}
	if next.State != domain.StateForm {
		t.Fatalf("expected to stay on the form, got %q", next.State)
	}
	if len(repo.upserted) != 0 {
		t.Fatalf("expected no writes, got %d upserts", len(repo.upserted))
	}
}

func TestSubmitReportsSnooze(t *testing.T) {
	repo := newStubSleepRepo()
	svc := newTestService(repo, time.Date(2026, time.March, 2, 7, 30, 0, 0, time.UTC))
	sess := domain.Session{State: domain.StateForm, Draft: domain.Draft{
		SleepDate:  time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		Bedtime:    time.Date(2026, time.March, 1, 22, 0, 0, 0, time.UTC),
		FallAsleep: 15 * time.Minute,
		Alarm:      time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC),
		Wakeup:     time.Date(2026, time.March, 2, 7, 20, 0, 0, time.UTC),
		Energy:     3,
		Clarity:    3,
	}}

	_, reply := svc.Submit(context.Background(), sess, 1)
	if !reply.Submitted {
		t.Fatal("expected a submitted reply")
	}
	if !strings.Contains(reply.Text, "snoozed for 20 minutes") {
		t.Fatalf("expected the snooze in the confirmation, got %q", reply.Text)
	}
}

func TestSubmitWithoutForm(t *testing.T) {
	svc := newTestService(newStubSleepRepo(), time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC))

	_, reply := svc.Submit(context.Background(), domain.Session{}, 1)
	if !strings.Contains(reply.Text, "No active form") {
		t.Fatalf("expected a no-form notice, got %q", reply.Text)
	}
}

func TestEditUnsubmittedPointsToWakey(t *testing.T) {
	repo := newStubSleepRepo()
	repo.records["2026-03-02"] = domain.SleepRecord{UserID: 1, IsSubmitted: false}
	svc := newTestService(repo, time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC))

	sess := domain.Session{State: domain.StateAwaitEditDate}
	next, reply := svc.HandleText(context.Background(), sess, 1, "02/03")
	if !strings.Contains(reply.Text, "/wakey") {
		t.Fatalf("expected a pointer to /wakey, got %q", reply.Text)
	}
	if !next.Idle() {
		t.Fatalf("expected the session to reset, got %q", next.State)
	}
}

func TestEditLoadsStoredFields(t *testing.T) {
	repo := newStubSleepRepo()
	loc := time.UTC
	sleepTime := time.Date(2026, time.March, 1, 23, 40, 0, 0, loc)
	wakeup := time.Date(2026, time.March, 2, 6, 50, 0, 0, loc)
	energy := 4
	repo.records["2026-03-02"] = domain.SleepRecord{
		UserID:      1,
		SleepDate:   time.Date(2026, time.March, 2, 0, 0, 0, 0, loc),
		BedTime:     time.Date(2026, time.March, 1, 23, 20, 0, 0, loc),
		SleepTime:   &sleepTime,
		WakeupTime:  &wakeup,
		EnergyScore: &energy,
		IsSubmitted: true,
	}
	svc := newTestService(repo, time.Date(2026, time.March, 2, 10, 0, 0, 0, loc))

	sess, reply := svc.HandleText(context.Background(), domain.Session{State: domain.StateAwaitEditDate}, 1, "02/03")
	if !reply.ShowForm {
		t.Fatal("expected the form to open")
	}
	if sess.Draft.FallAsleep != 20*time.Minute {
		t.Fatalf("expected fall-asleep derived from the record, got %v", sess.Draft.FallAsleep)
	}
	if !sess.Draft.Wakeup.Equal(wakeup) {
		t.Fatalf("expected stored wake-up, got %v", sess.Draft.Wakeup)
	}
	if sess.Draft.Energy != 4 {
		t.Fatalf("expected stored energy, got %d", sess.Draft.Energy)
	}
}

func TestEditUnknownDateKeepsAsking(t *testing.T) {
	repo := newStubSleepRepo()
	svc := newTestService(repo, time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC))

	sess, reply := svc.HandleText(context.Background(), domain.Session{State: domain.StateAwaitEditDate}, 1, "01/03")
	if sess.State != domain.StateAwaitEditDate {
		t.Fatalf("expected to keep waiting for a date, got %q", sess.State)
	}
	if !strings.Contains(reply.Text, "No record") {
		t.Fatalf("expected a not-found notice, got %q", reply.Text)
	}
}

func TestAddExistingDateRejected(t *testing.T) {
	repo := newStubSleepRepo()
	repo.records["2026-03-01"] = domain.SleepRecord{UserID: 1, IsSubmitted: true}
	svc := newTestService(repo, time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC))

	sess, reply := svc.HandleText(context.Background(), domain.Session{State: domain.StateAwaitAddDate}, 1, "01/03")
	if !strings.Contains(reply.Text, "already exists") {
		t.Fatalf("expected a duplicate notice, got %q", reply.Text)
	}
	if !sess.Idle() {
		t.Fatal("expected the session to reset")
	}
}

func TestAddSeedsFullDefaults(t *testing.T) {
	repo := newStubSleepRepo()
	svc := newTestService(repo, time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC))

	sess, reply := svc.HandleText(context.Background(), domain.Session{State: domain.StateAwaitAddDate}, 1, "14/03")
	if !reply.ShowForm {
		t.Fatal("expected the form to open")
	}
	if !sess.Draft.AddEntry {
		t.Fatal("expected an add-entry draft")
	}
	wantWakeup := time.Date(2026, time.March, 14, 7, 15, 0, 0, time.UTC)
	if !sess.Draft.Wakeup.Equal(wantWakeup) {
		t.Fatalf("expected default wake-up %v, got %v", wantWakeup, sess.Draft.Wakeup)
	}
}

func TestInvalidFieldInputKeepsState(t *testing.T) {
	svc := newTestService(newStubSleepRepo(), time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC))
	sess := domain.Session{State: domain.StateAwaitBedtime}

	next, reply := svc.HandleText(context.Background(), sess, 1, "late")
	if next.State != domain.StateAwaitBedtime {
		t.Fatalf("expected to stay in the same state, got %q", next.State)
	}
	if !strings.HasPrefix(reply.Text, "That doesn't look right.") {
		t.Fatalf("expected a re-prompt, got %q", reply.Text)
	}
}

func TestEveningBedtimeBelongsToPreviousDay(t *testing.T) {
	svc := newTestService(newStubSleepRepo(), time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC))
	sleepDate := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	sess := domain.Session{State: domain.StateAwaitBedtime, Draft: domain.Draft{SleepDate: sleepDate}}

	next, _ := svc.HandleText(context.Background(), sess, 1, "2230")
	want := time.Date(2026, time.March, 1, 22, 30, 0, 0, time.UTC)
	if !next.Draft.Bedtime.Equal(want) {
		t.Fatalf("expected bedtime %v, got %v", want, next.Draft.Bedtime)
	}

	next, _ = svc.HandleText(context.Background(), sess, 1, "0040")
	want = time.Date(2026, time.March, 2, 0, 40, 0, 0, time.UTC)
	if !next.Draft.Bedtime.Equal(want) {
		t.Fatalf("expected after-midnight bedtime %v, got %v", want, next.Draft.Bedtime)
	}
}

func TestSelectFieldAndCancel(t *testing.T) {
	svc := newTestService(newStubSleepRepo(), time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC))
	sess := domain.Session{State: domain.StateForm}

	next, reply := svc.SelectField(sess, ActionEditEnergy)
	if next.State != domain.StateAwaitEnergy {
		t.Fatalf("expected energy prompt state, got %q", next.State)
	}
	if reply.Text == "" {
		t.Fatal("expected a prompt")
	}

	next, reply = svc.Cancel(next)
	if !next.Idle() {
		t.Fatal("expected cancel to reset the session")
	}
	if !strings.Contains(reply.Text, "Canceled") {
		t.Fatalf("expected a cancel notice, got %q", reply.Text)
	}

	_, reply = svc.Cancel(domain.Session{})
	if !strings.Contains(reply.Text, "Nothing to cancel") {
		t.Fatalf("expected a nothing-to-cancel notice, got %q", reply.Text)
	}
}
