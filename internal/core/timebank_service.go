package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"timebank.service/internal/core/journey"
	"timebank.service/internal/core/model"
	"timebank.service/internal/ports/messaging"
	"timebank.service/internal/ports/remote"
	"timebank.service/internal/ports/repository"
)

var (
	ErrNothingToJustify   = errors.New("day has no overtime or time-bank credit to justify")
	ErrEmptyJustification = errors.New("justification text is empty")
	ErrInvalidPeriod      = errors.New("invalid period: end before start")
)

type TimeBankService struct {
	repo       repository.Repository
	producer   messaging.QueueProducer
	clock      remote.TimeClock
	calendar   remote.HolidayCalendar
	employeeID string
	loc        *time.Location
	now        func() time.Time
}

// NewTimeBankService wires the repository, the queue producer and the two
// remote systems around the reconciliation engine for one employee.
func NewTimeBankService(
	repo repository.Repository,
	p messaging.QueueProducer,
	clock remote.TimeClock,
	calendar remote.HolidayCalendar,
	employeeID string,
	loc *time.Location,
) *TimeBankService {
	if loc == nil {
		loc = time.Local
	}
	return &TimeBankService{
		repo:       repo,
		producer:   p,
		clock:      clock,
		calendar:   calendar,
		employeeID: employeeID,
		loc:        loc,
		now:        time.Now,
	}
}

// EmployeeID is the badge this service reconciles.
func (s *TimeBankService) EmployeeID() string {
	return s.employeeID
}

// Today is the current calendar date in the service's location.
func (s *TimeBankService) Today() time.Time {
	return journey.StartOfDay(s.now().In(s.loc))
}

// DefaultPeriod is the window the time clock still accepts justifications
// for: the current month, or the last 20 days early in the month.
func (s *TimeBankService) DefaultPeriod() (time.Time, time.Time) {
	return DefaultPeriod(s.Today())
}

// DefaultPeriod is the period ending on today: from the first of the month
// after the 10th, otherwise the last 20 days.
func DefaultPeriod(today time.Time) (time.Time, time.Time) {
	today = journey.StartOfDay(today)
	if today.Day() > 10 {
		return today.AddDate(0, 0, 1-today.Day()), today
	}
	return today.AddDate(0, 0, -20), today
}

// Refresh reads [from, to] from the time clock, reconciles every day and
// stores the results. A reminder is queued when days remain unjustified.
func (s *TimeBankService) Refresh(ctx context.Context, from, to time.Time) ([]model.DayRecord, error) {
	if to.Before(from) {
		return nil, ErrInvalidPeriod
	}

	holidays, err := s.holidays(ctx, from, to)
	if err != nil {
		return nil, err
	}

	days, err := s.clock.ReadDays(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to read punches from time clock: %w", err)
	}

	records := ComputeDays(days, holidays)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, rec := range records {
		g.Go(func() error {
			return s.repo.UpsertDay(gctx, s.employeeID, rec)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to store day records: %w", err)
	}

	var pending []string
	for _, rec := range records {
		if rec.IsPending() {
			pending = append(pending, journey.DateKey(rec.Date))
		}
	}
	log.Ctx(ctx).Info().Int("days", len(records)).Int("pending", len(pending)).Msg("Refreshed day records")

	if len(pending) > 0 {
		err := s.producer.PublishReminder(ctx, messaging.ReminderEvent{
			EmployeeID:  s.employeeID,
			PendingDays: pending,
			OccurredAt:  s.now(),
		})
		if err != nil {
			// The refresh itself succeeded; the reminder is best effort.
			log.Ctx(ctx).Warn().Err(err).Msg("Failed to publish reminder")
		}
	}

	return records, nil
}

// ComputeDays reconciles every day independently and in parallel. The
// result keeps the order of days.
func ComputeDays(days []journey.Day, holidays journey.Holidays) []model.DayRecord {
	records := make([]model.DayRecord, len(days))

	var g errgroup.Group
	for i, day := range days {
		g.Go(func() error {
			records[i] = journey.Compute(day, holidays)
			return nil
		})
	}
	_ = g.Wait()

	return records
}

// LoadHolidays merges the calendars of every year touched by [from, to],
// plus the day after to, so the bridge-day rule sees the next holiday.
func LoadHolidays(ctx context.Context, calendar remote.HolidayCalendar, from, to time.Time) (journey.Holidays, error) {
	holidays := journey.Holidays{}
	for year := from.Year(); year <= to.AddDate(0, 0, 1).Year(); year++ {
		h, err := calendar.Holidays(ctx, year)
		if err != nil {
			return nil, err
		}
		holidays.Merge(h)
	}
	return holidays, nil
}

func (s *TimeBankService) holidays(ctx context.Context, from, to time.Time) (journey.Holidays, error) {
	return LoadHolidays(ctx, s.calendar, from, to)
}

// Days returns the stored days in [from, to].
func (s *TimeBankService) Days(ctx context.Context, from, to time.Time) ([]model.DayRecord, error) {
	if to.Before(from) {
		return nil, ErrInvalidPeriod
	}
	return s.repo.ListDays(ctx, s.employeeID, from, to)
}

// PendingDays returns the stored days of the default period that still need
// a justification.
func (s *TimeBankService) PendingDays(ctx context.Context) ([]model.DayRecord, error) {
	from, to := s.DefaultPeriod()
	days, err := s.repo.ListDays(ctx, s.employeeID, from, to)
	if err != nil {
		return nil, err
	}

	var pending []model.DayRecord
	for _, d := range days {
		if d.IsPending() {
			pending = append(pending, d)
		}
	}
	return pending, nil
}

// Justify stores text as the day's justification and queues its submission
// to the time clock. The day stays unsynced until the worker succeeds.
func (s *TimeBankService) Justify(ctx context.Context, day time.Time, text string) error {
	if text == "" {
		return ErrEmptyJustification
	}

	rec, err := s.repo.GetDay(ctx, s.employeeID, day)
	if err != nil {
		return err
	}

	codes := journey.ResolveCodes(*rec)
	if len(codes) == 0 {
		return ErrNothingToJustify
	}

	rec.Submission.SetJustification(text)
	if err := s.repo.SaveJustification(ctx, s.employeeID, rec.Date, rec.Justification()); err != nil {
		return fmt.Errorf("failed to save justification: %w", err)
	}

	event := messaging.JustificationEvent{
		EmployeeID:     s.employeeID,
		Day:            journey.DateKey(rec.Date),
		Codes:          codes,
		Justification:  text,
		IdempotencyKey: uuid.NewString(),
		OccurredAt:     s.now(),
	}
	if err := s.producer.PublishJustification(ctx, event); err != nil {
		return fmt.Errorf("failed to publish justification event to queue: %w", err)
	}

	return nil
}

// JustifyPending applies text to every pending day of the default period
// and returns the days it queued.
func (s *TimeBankService) JustifyPending(ctx context.Context, text string) ([]time.Time, error) {
	pending, err := s.PendingDays(ctx)
	if err != nil {
		return nil, err
	}

	var queued []time.Time
	for _, rec := range pending {
		if err := s.Justify(ctx, rec.Date, text); err != nil {
			return queued, err
		}
		queued = append(queued, rec.Date)
	}
	return queued, nil
}

// PreviousJustifications lists distinct justification texts of the default
// period, most used first, as suggestions for new ones.
func (s *TimeBankService) PreviousJustifications(ctx context.Context) ([]string, error) {
	from, to := s.DefaultPeriod()
	days, err := s.repo.ListDays(ctx, s.employeeID, from, to)
	if err != nil {
		return nil, err
	}
	return SuggestJustifications(days), nil
}

// SuggestJustifications ranks the distinct justification texts of days by
// use, most used first.
func SuggestJustifications(days []model.DayRecord) []string {
	counts := map[string]int{}
	var texts []string
	for _, d := range days {
		text := d.Justification()
		if text == "" {
			continue
		}
		if counts[text] == 0 {
			texts = append(texts, text)
		}
		counts[text]++
	}
	sort.SliceStable(texts, func(i, j int) bool { return counts[texts[i]] > counts[texts[j]] })
	return texts
}

// ExpectedJourneyEnd projects today's clock-out time from the stored record.
func (s *TimeBankService) ExpectedJourneyEnd(ctx context.Context) (time.Time, bool, error) {
	rec, err := s.repo.GetDay(ctx, s.employeeID, s.Today())
	if errors.Is(err, repository.ErrDayNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	end, ok := journey.ExpectedJourneyEnd(*rec, s.now().In(s.loc))
	return end, ok, nil
}

// MarkSynced is a simple pass-through to the repository layer, used by the
// submission worker once the time clock accepted every code.
func (s *TimeBankService) MarkSynced(ctx context.Context, day time.Time) error {
	return s.repo.MarkSynced(ctx, s.employeeID, day)
}
