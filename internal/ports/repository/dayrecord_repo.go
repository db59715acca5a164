package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"timebank.service/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const dayLayout = "2006-01-02"

// DayRecordRepository is the concrete implementation for a PostgreSQL database.
type DayRecordRepository struct {
	DB  *sql.DB
	loc *time.Location
}

// NewDayRecordRepository create new instance. Stored dates are read back
// as midnight in loc.
func NewDayRecordRepository(db *sql.DB, loc *time.Location) Repository {
	if loc == nil {
		loc = time.Local
	}
	return &DayRecordRepository{DB: db, loc: loc}
}

// UpsertDay stores a freshly computed record. A local justification still
// waiting for submission survives the refresh; otherwise the time clock's
// text wins.
func (r *DayRecordRepository) UpsertDay(ctx context.Context, employeeID string, rec model.DayRecord) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", employeeID))

	punches, err := json.Marshal(rec.Punches())
	if err != nil {
		return fmt.Errorf("failed to marshal punches: %w", err)
	}

	j := rec.Journey
	query := `INSERT INTO day_records (employee_id, day, punches, is_holiday, holiday_name,
                  business_seconds, day_extra_seconds, night_extra_seconds, credit_seconds,
                  debt_seconds, total_worked_seconds, break_seconds, justification, synced, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, TRUE, NOW())
              ON CONFLICT (employee_id, day) DO UPDATE SET
                  punches = EXCLUDED.punches,
                  is_holiday = EXCLUDED.is_holiday,
                  holiday_name = EXCLUDED.holiday_name,
                  business_seconds = EXCLUDED.business_seconds,
                  day_extra_seconds = EXCLUDED.day_extra_seconds,
                  night_extra_seconds = EXCLUDED.night_extra_seconds,
                  credit_seconds = EXCLUDED.credit_seconds,
                  debt_seconds = EXCLUDED.debt_seconds,
                  total_worked_seconds = EXCLUDED.total_worked_seconds,
                  break_seconds = EXCLUDED.break_seconds,
                  justification = CASE WHEN day_records.synced THEN EXCLUDED.justification ELSE day_records.justification END,
                  updated_at = NOW()`

	_, err = r.DB.ExecContext(ctx, query,
		employeeID, rec.Date.Format(dayLayout), punches, rec.IsHoliday, rec.HolidayName,
		j.Business, j.DayExtra, j.NightExtra, j.Credit, j.Debt, j.TotalWorked, j.Breaks,
		rec.Justification(),
	)
	return err
}

const selectDay = `SELECT day::text, punches, is_holiday, holiday_name,
                  business_seconds, day_extra_seconds, night_extra_seconds, credit_seconds,
                  debt_seconds, total_worked_seconds, break_seconds, justification, synced
              FROM day_records`

// GetDay fetches a single day.
func (r *DayRecordRepository) GetDay(ctx context.Context, employeeID string, day time.Time) (*model.DayRecord, error) {
	row := r.DB.QueryRowContext(ctx, selectDay+` WHERE employee_id = $1 AND day = $2`, employeeID, day.Format(dayLayout))

	rec, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDayNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListDays returns the days in [from, to], oldest first.
func (r *DayRecordRepository) ListDays(ctx context.Context, employeeID string, from, to time.Time) ([]model.DayRecord, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", employeeID))

	rows, err := r.DB.QueryContext(ctx, selectDay+` WHERE employee_id = $1 AND day BETWEEN $2 AND $3 ORDER BY day`,
		employeeID, from.Format(dayLayout), to.Format(dayLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DayRecord
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveJustification records a local edit and queues it for submission.
func (r *DayRecordRepository) SaveJustification(ctx context.Context, employeeID string, day time.Time, justification string) error {
	query := `UPDATE day_records
              SET justification = $1,
                  synced = FALSE,
                  submission_status = $2,
                  submission_retry_count = 0,
                  submitted_codes = '[]',
                  updated_at = NOW()
              WHERE employee_id = $3 AND day = $4`

	res, err := r.DB.ExecContext(ctx, query, justification, model.StatusSubmissionPending, employeeID, day.Format(dayLayout))
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateSubmissionStatus updates the status and retry count of a submission job.
func (r *DayRecordRepository) UpdateSubmissionStatus(ctx context.Context, employeeID string, day time.Time, status model.SubmissionStatus, retryCount int) error {
	query := `UPDATE day_records
              SET submission_status = $1,
                  submission_retry_count = $2
              WHERE employee_id = $3 AND day = $4`

	_, err := r.DB.ExecContext(ctx, query, status, retryCount, employeeID, day.Format(dayLayout))
	return err
}

// GetSubmissionState retrieves just the submission job state of a day.
func (r *DayRecordRepository) GetSubmissionState(ctx context.Context, employeeID string, day time.Time) (model.SubmissionStatus, int, error) {
	var (
		status model.SubmissionStatus
		count  int
	)
	query := `SELECT submission_status, submission_retry_count FROM day_records WHERE employee_id = $1 AND day = $2`

	err := r.DB.QueryRowContext(ctx, query, employeeID, day.Format(dayLayout)).Scan(&status, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, ErrDayNotFound
	}
	return status, count, err
}

// SubmittedCodes lists the codes of the current justification the time
// clock already accepted.
func (r *DayRecordRepository) SubmittedCodes(ctx context.Context, employeeID string, day time.Time) ([]model.JustificationCode, error) {
	var raw []byte
	query := `SELECT submitted_codes FROM day_records WHERE employee_id = $1 AND day = $2`

	err := r.DB.QueryRowContext(ctx, query, employeeID, day.Format(dayLayout)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDayNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeCodes(raw)
}

// RecordSubmittedCode adds code to the day's accepted codes. Recording the
// same code twice is a no-op.
func (r *DayRecordRepository) RecordSubmittedCode(ctx context.Context, employeeID string, day time.Time, code model.JustificationCode) error {
	query := `UPDATE day_records
              SET submitted_codes = submitted_codes || jsonb_build_array($1::int)
              WHERE employee_id = $2 AND day = $3
                AND NOT submitted_codes @> jsonb_build_array($1::int)`

	_, err := r.DB.ExecContext(ctx, query, int(code), employeeID, day.Format(dayLayout))
	return err
}

// MarkSynced flags the stored justification as accepted by the time clock.
func (r *DayRecordRepository) MarkSynced(ctx context.Context, employeeID string, day time.Time) error {
	query := `UPDATE day_records
              SET synced = TRUE,
                  submission_status = $1,
                  submission_retry_count = 0,
                  updated_at = NOW()
              WHERE employee_id = $2 AND day = $3`

	_, err := r.DB.ExecContext(ctx, query, model.StatusSubmissionCompleted, employeeID, day.Format(dayLayout))
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *DayRecordRepository) scan(row scanner) (model.DayRecord, error) {
	var (
		day           string
		rawPunches    []byte
		isHoliday     bool
		holidayName   string
		j             model.Journey
		justification string
		synced        bool
	)

	err := row.Scan(&day, &rawPunches, &isHoliday, &holidayName,
		&j.Business, &j.DayExtra, &j.NightExtra, &j.Credit, &j.Debt, &j.TotalWorked, &j.Breaks,
		&justification, &synced)
	if err != nil {
		return model.DayRecord{}, err
	}

	date, err := time.ParseInLocation(dayLayout, day, r.loc)
	if err != nil {
		return model.DayRecord{}, fmt.Errorf("invalid stored day %q: %w", day, err)
	}

	if isHoliday {
		return model.NewHolidayRecord(date, holidayName), nil
	}

	var punches []time.Time
	if err := json.Unmarshal(rawPunches, &punches); err != nil {
		return model.DayRecord{}, fmt.Errorf("invalid stored punches for %s: %w", day, err)
	}
	for i := range punches {
		punches[i] = punches[i].In(r.loc)
	}

	return model.NewDayRecord(date, punches, j, model.NewSubmission(justification, synced)), nil
}

func decodeCodes(raw []byte) ([]model.JustificationCode, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var codes []model.JustificationCode
	if err := json.Unmarshal(raw, &codes); err != nil {
		return nil, fmt.Errorf("invalid stored submitted codes: %w", err)
	}
	return codes, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDayNotFound
	}
	return nil
}
