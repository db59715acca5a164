package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"timebank.service/internal/core/model"
	"timebank.service/internal/ports/messaging"
	"timebank.service/internal/ports/remote"
	"timebank.service/internal/ports/repository"
	"timebank.service/internal/worker"
)

const dayLayout = "2006-01-02"

// Processor sends queued justifications to the time clock, one request per
// justification code. The time clock sits behind a circuit breaker.
type Processor struct {
	repo  repository.Repository
	clock remote.TimeClock
	cb    *gobreaker.CircuitBreaker
	loc   *time.Location
}

func NewProcessor(repo repository.Repository, clock remote.TimeClock, loc *time.Location) *Processor {
	if loc == nil {
		loc = time.Local
	}
	settings := gobreaker.Settings{
		Name:        "time-clock",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip when half of at least 10 requests failed.
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}

	return &Processor{
		repo:  repo,
		clock: clock,
		cb:    gobreaker.NewCircuitBreaker(settings),
		loc:   loc,
	}
}

func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	if msg.Body == nil {
		return false, 0, errors.New("empty message body")
	}

	var event messaging.JustificationEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal justification event")
		return false, 0, err
	}

	day, err := time.ParseInLocation(dayLayout, event.Day, p.loc)
	if err != nil {
		return false, 0, fmt.Errorf("invalid day %q in justification event: %w", event.Day, err)
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("app.day", event.Day),
		attribute.String("app.idempotencyKey", event.IdempotencyKey),
	)
	logger := log.Ctx(ctx).With().Str("day", event.Day).Str("idempotency_key", event.IdempotencyKey).Logger()

	rec, err := p.repo.GetDay(ctx, event.EmployeeID, day)
	if errors.Is(err, repository.ErrDayNotFound) {
		return false, 0, err
	}
	if err != nil {
		return true, 10, fmt.Errorf("failed to get day from db: %w", err)
	}

	if rec.Synced() {
		logger.Info().Msg("Day already synced. Skipping.")
		return false, 0, nil
	}
	if rec.Justification() != event.Justification {
		// A later edit queued its own event.
		logger.Info().Msg("Justification changed since this event. Skipping.")
		return false, 0, nil
	}

	status, retries, err := p.repo.GetSubmissionState(ctx, event.EmployeeID, day)
	if err != nil {
		return true, 10, fmt.Errorf("failed to get submission state: %w", err)
	}
	if status == model.StatusSubmissionCompleted {
		return false, 0, nil
	}

	if err := p.repo.UpdateSubmissionStatus(ctx, event.EmployeeID, day, model.StatusSubmissionProcessing, retries); err != nil {
		return true, 10, fmt.Errorf("failed to mark submission as processing: %w", err)
	}

	// Codes accepted on an earlier attempt are not posted again.
	done, err := p.repo.SubmittedCodes(ctx, event.EmployeeID, day)
	if err != nil {
		return true, 10, fmt.Errorf("failed to get submitted codes: %w", err)
	}

	for _, code := range event.Codes {
		if slices.Contains(done, code) {
			logger.Debug().Int("code", int(code)).Msg("Code already accepted. Skipping.")
			continue
		}
		_, err = p.cb.Execute(func() (interface{}, error) {
			return nil, p.clock.Justify(ctx, day, code, event.Justification)
		})
		if err != nil {
			break
		}
		if err = p.repo.RecordSubmittedCode(ctx, event.EmployeeID, day, code); err != nil {
			err = fmt.Errorf("failed to record submitted code %d: %w", code, err)
			break
		}
	}

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			logger.Warn().Msg("Circuit breaker is open; skipping time clock call")
		}
		newCount := retries + 1
		if uerr := p.repo.UpdateSubmissionStatus(ctx, event.EmployeeID, day, model.StatusSubmissionPending, newCount); uerr != nil {
			logger.Error().Err(uerr).Msg("Failed to record submission retry")
		}
		return true, worker.RetryDelay(newCount), err
	}

	if err := p.repo.MarkSynced(ctx, event.EmployeeID, day); err != nil {
		return true, 10, fmt.Errorf("failed to mark day as synced: %w", err)
	}
	logger.Info().Int("codes", len(event.Codes)).Msg("Justification accepted by time clock")
	return false, 0, nil
}
