package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Producer struct {
	sender             MessageSender
	submissionQueueURL string
	reminderQueueURL   string
}

func NewProducer(sender MessageSender, submissionQueueURL, reminderQueueURL string) *Producer {
	return &Producer{
		sender:             sender,
		submissionQueueURL: submissionQueueURL,
		reminderQueueURL:   reminderQueueURL,
	}
}

func NewSQSProducer(client SQSClient, submissionQueueURL, reminderQueueURL string) *Producer {
	return NewProducer(NewSQSSender(client), submissionQueueURL, reminderQueueURL)
}

func (p *Producer) PublishJustification(ctx context.Context, event JustificationEvent) error {
	return p.publish(ctx, p.submissionQueueURL, event.EmployeeID, event)
}

func (p *Producer) PublishReminder(ctx context.Context, event ReminderEvent) error {
	return p.publish(ctx, p.reminderQueueURL, event.EmployeeID, event)
}

func (p *Producer) publish(ctx context.Context, destination, employeeID string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() && employeeID != "" {
		span.SetAttributes(attribute.String("app.employeeId", employeeID))
	}

	if err := p.sender.SendMessage(ctx, destination, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
