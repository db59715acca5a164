package messaging

import (
	"time"

	"timebank.service/internal/core/model"
)

// JustificationEvent is the JSON payload sent via SQS for the submission queue.
type JustificationEvent struct {
	EmployeeID     string                    `json:"employeeId"`
	Day            string                    `json:"day"` // YYYY-MM-DD
	Codes          []model.JustificationCode `json:"codes"`
	Justification  string                    `json:"justification"`
	IdempotencyKey string                    `json:"idempotencyKey"`
	OccurredAt     time.Time                 `json:"occurredAt"`
}

// ReminderEvent is the JSON payload sent via SQS for the reminder queue.
type ReminderEvent struct {
	EmployeeID  string    `json:"employeeId"`
	PendingDays []string  `json:"pendingDays"`
	OccurredAt  time.Time `json:"occurredAt"`
}
