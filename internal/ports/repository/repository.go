package repository

import (
	"context"
	"errors"
	"time"

	"timebank.service/internal/core/model"
)

var ErrDayNotFound = errors.New("day record not found")

// Repository contract
type Repository interface {
	UpsertDay(ctx context.Context, employeeID string, rec model.DayRecord) error
	GetDay(ctx context.Context, employeeID string, day time.Time) (*model.DayRecord, error)
	ListDays(ctx context.Context, employeeID string, from, to time.Time) ([]model.DayRecord, error)
	SaveJustification(ctx context.Context, employeeID string, day time.Time, justification string) error
	UpdateSubmissionStatus(ctx context.Context, employeeID string, day time.Time, status model.SubmissionStatus, retryCount int) error
	GetSubmissionState(ctx context.Context, employeeID string, day time.Time) (model.SubmissionStatus, int, error)
	SubmittedCodes(ctx context.Context, employeeID string, day time.Time) ([]model.JustificationCode, error)
	RecordSubmittedCode(ctx context.Context, employeeID string, day time.Time, code model.JustificationCode) error
	MarkSynced(ctx context.Context, employeeID string, day time.Time) error
}
