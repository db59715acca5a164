package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timebank.service/internal/core"
	"timebank.service/internal/core/journey"
	"timebank.service/internal/core/model"
	"timebank.service/internal/ports/messaging"
	"timebank.service/internal/ports/repository"
)

// =============================================================================
// FAKES
// =============================================================================

type memoryRepo struct {
	mu   sync.Mutex
	days map[string]model.DayRecord
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{days: map[string]model.DayRecord{}}
}

func clone(rec model.DayRecord) model.DayRecord {
	if rec.IsHoliday {
		return model.NewHolidayRecord(rec.Date, rec.HolidayName)
	}
	return model.NewDayRecord(rec.Date, rec.Punches(), rec.Journey, model.NewSubmission(rec.Justification(), rec.Synced()))
}

func (r *memoryRepo) UpsertDay(_ context.Context, _ string, rec model.DayRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := journey.DateKey(rec.Date)
	if old, ok := r.days[key]; ok && !old.Synced() {
		r.days[key] = model.NewDayRecord(rec.Date, rec.Punches(), rec.Journey, model.NewSubmission(old.Justification(), false))
		return nil
	}
	r.days[key] = clone(rec)
	return nil
}

func (r *memoryRepo) GetDay(_ context.Context, _ string, day time.Time) (*model.DayRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.days[journey.DateKey(day)]
	if !ok {
		return nil, repository.ErrDayNotFound
	}
	c := clone(rec)
	return &c, nil
}

func (r *memoryRepo) ListDays(_ context.Context, _ string, from, to time.Time) ([]model.DayRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.DayRecord
	for d := journey.StartOfDay(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		if rec, ok := r.days[journey.DateKey(d)]; ok {
			out = append(out, clone(rec))
		}
	}
	return out, nil
}

func (r *memoryRepo) SaveJustification(_ context.Context, _ string, day time.Time, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := journey.DateKey(day)
	rec, ok := r.days[key]
	if !ok {
		return repository.ErrDayNotFound
	}
	r.days[key] = model.NewDayRecord(rec.Date, rec.Punches(), rec.Journey, model.NewSubmission(text, false))
	return nil
}

func (r *memoryRepo) UpdateSubmissionStatus(context.Context, string, time.Time, model.SubmissionStatus, int) error {
	return nil
}

func (r *memoryRepo) GetSubmissionState(context.Context, string, time.Time) (model.SubmissionStatus, int, error) {
	return model.StatusSubmissionPending, 0, nil
}

func (r *memoryRepo) SubmittedCodes(context.Context, string, time.Time) ([]model.JustificationCode, error) {
	return nil, nil
}

func (r *memoryRepo) RecordSubmittedCode(context.Context, string, time.Time, model.JustificationCode) error {
	return nil
}

func (r *memoryRepo) MarkSynced(_ context.Context, _ string, day time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := journey.DateKey(day)
	rec, ok := r.days[key]
	if !ok {
		return repository.ErrDayNotFound
	}
	rec.Submission.MarkSynced()
	r.days[key] = rec
	return nil
}

type fakeProducer struct {
	justifications []messaging.JustificationEvent
	reminders      []messaging.ReminderEvent
	err            error
}

func (p *fakeProducer) PublishJustification(_ context.Context, e messaging.JustificationEvent) error {
	p.justifications = append(p.justifications, e)
	return p.err
}

func (p *fakeProducer) PublishReminder(_ context.Context, e messaging.ReminderEvent) error {
	p.reminders = append(p.reminders, e)
	return p.err
}

type fakeClock struct {
	days []journey.Day
	err  error
}

func (c *fakeClock) ReadDays(context.Context, time.Time, time.Time) ([]journey.Day, error) {
	return c.days, c.err
}

func (c *fakeClock) Justify(context.Context, time.Time, model.JustificationCode, string) error {
	return nil
}

type fakeCalendar struct {
	holidays journey.Holidays
	years    []int
}

func (c *fakeCalendar) Holidays(_ context.Context, year int) (journey.Holidays, error) {
	c.years = append(c.years, year)
	return c.holidays, nil
}

// =============================================================================
// SETUP
// =============================================================================

var (
	monday  = time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	tuesday = monday.AddDate(0, 0, 1)
	friday  = monday.AddDate(0, 0, 4)
)

func at(day time.Time, h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

type fixture struct {
	svc      *core.TimeBankService
	repo     *memoryRepo
	producer *fakeProducer
	clock    *fakeClock
	calendar *fakeCalendar
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	holidays := journey.Holidays{}
	holidays.Add(friday.AddDate(0, 0, 1), "Saturday holiday")

	f := &fixture{
		repo:     newMemoryRepo(),
		producer: &fakeProducer{},
		clock: &fakeClock{days: []journey.Day{
			{Date: monday, Punches: journey.Punches{at(monday, 8, 0), at(monday, 12, 0), at(monday, 13, 0), at(monday, 17, 0)}},
			{Date: tuesday, Punches: journey.Punches{at(tuesday, 6, 30), at(tuesday, 18, 0)}},
			{Date: friday},
		}},
		calendar: &fakeCalendar{holidays: holidays},
	}
	f.svc = core.NewTimeBankService(f.repo, f.producer, f.clock, f.calendar, "004512", time.UTC)
	return f
}

// =============================================================================
// TESTS
// =============================================================================

func TestRefresh_ComputesStoresAndReminds(t *testing.T) {
	f := newFixture(t)

	records, err := f.svc.Refresh(context.Background(), monday, friday)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, model.Seconds(900), records[0].Journey.Debt)
	assert.Equal(t, model.Seconds(6300), records[1].Journey.Credit)
	assert.True(t, records[2].IsHoliday, "empty friday before a holiday is a bridge day")
	assert.Equal(t, journey.BridgeDayName, records[2].HolidayName)

	stored, err := f.svc.Days(context.Background(), monday, friday)
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	require.Len(t, f.producer.reminders, 1)
	assert.Equal(t, []string{"2024-03-12"}, f.producer.reminders[0].PendingDays)
	assert.Equal(t, []int{2024}, f.calendar.years)
}

func TestRefresh_InvalidPeriod(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Refresh(context.Background(), friday, monday)
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)
}

func TestRefresh_TimeClockFailure(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("down")
	f.clock.err = boom

	_, err := f.svc.Refresh(context.Background(), monday, friday)
	assert.ErrorIs(t, err, boom)
}

func TestRefresh_ReminderFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.producer.err = errors.New("queue down")

	records, err := f.svc.Refresh(context.Background(), monday, friday)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestJustify_QueuesCodesAndUnsyncs(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Refresh(context.Background(), monday, friday)
	require.NoError(t, err)

	require.NoError(t, f.svc.Justify(context.Background(), tuesday, "release night"))

	rec, err := f.repo.GetDay(context.Background(), "004512", tuesday)
	require.NoError(t, err)
	assert.Equal(t, "release night", rec.Justification())
	assert.False(t, rec.Synced())
	assert.False(t, rec.IsPending())

	require.Len(t, f.producer.justifications, 1)
	event := f.producer.justifications[0]
	assert.Equal(t, "2024-03-12", event.Day)
	assert.Equal(t, []model.JustificationCode{model.CodeTimeBank, model.CodeDayOvertime}, event.Codes)
	assert.NotEmpty(t, event.IdempotencyKey)

	// A refresh while the submission is in flight keeps the local text.
	_, err = f.svc.Refresh(context.Background(), monday, friday)
	require.NoError(t, err)
	rec, err = f.repo.GetDay(context.Background(), "004512", tuesday)
	require.NoError(t, err)
	assert.Equal(t, "release night", rec.Justification())

	require.NoError(t, f.svc.MarkSynced(context.Background(), tuesday))
	rec, err = f.repo.GetDay(context.Background(), "004512", tuesday)
	require.NoError(t, err)
	assert.True(t, rec.Synced())
}

func TestJustify_Rejections(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Refresh(context.Background(), monday, friday)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Justify(context.Background(), monday, "x"), core.ErrNothingToJustify)
	assert.ErrorIs(t, f.svc.Justify(context.Background(), tuesday, ""), core.ErrEmptyJustification)
	assert.ErrorIs(t, f.svc.Justify(context.Background(), monday.AddDate(0, 0, 2), "x"), repository.ErrDayNotFound)
	assert.Empty(t, f.producer.justifications)
}

func TestComputeDays_KeepsOrder(t *testing.T) {
	var days []journey.Day
	for i := 0; i < 30; i++ {
		d := monday.AddDate(0, 0, i)
		days = append(days, journey.Day{Date: d, Punches: journey.Punches{at(d, 8, 0), at(d, 17, i)}})
	}

	records := core.ComputeDays(days, journey.Holidays{})
	require.Len(t, records, 30)
	for i, rec := range records {
		assert.Equal(t, days[i].Date, rec.Date)
		assert.Equal(t, journey.Reconcile(days[i].Punches), rec.Journey)
	}
}

func TestLoadHolidays_SpansYears(t *testing.T) {
	cal := &fakeCalendar{holidays: journey.Holidays{}}
	dec31 := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	_, err := core.LoadHolidays(context.Background(), cal, dec31.AddDate(0, 0, -5), dec31)
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2025}, cal.years)
}

func TestSuggestJustifications(t *testing.T) {
	mk := func(text string) model.DayRecord {
		return model.NewDayRecord(monday, nil, model.Journey{}, model.NewSubmission(text, true))
	}
	got := core.SuggestJustifications([]model.DayRecord{mk("a"), mk("b"), mk("b"), mk(""), mk("c"), mk("b"), mk("c")})
	assert.Equal(t, []string{"b", "c", "a"}, got)
}
