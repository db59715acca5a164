package core

import (
	"context"
	"fmt"
	"strings"

	"timebank.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type EmailService interface {
	SendPendingReminder(ctx context.Context, to string, pendingDays []string) error
}

// SESClient is the subset of the SES API the email service uses.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESEmailService struct {
	client SESClient
	sender string
}

func NewSESEmailService(client SESClient, sender string) *SESEmailService {
	return &SESEmailService{client: client, sender: sender}
}

func (s *SESEmailService) SendPendingReminder(ctx context.Context, to string, pendingDays []string) error {
	tracer := otel.Tracer("ses-email-service")
	ctx, span := tracer.Start(ctx, "send_email", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if empID := telemetry.GetEmployeeIDFromContext(ctx); empID != "" {
		span.SetAttributes(attribute.String("app.employeeId", empID))
	}
	span.SetAttributes(attribute.Int("app.pendingDays", len(pendingDays)))

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(fmt.Sprintf("%d day(s) waiting for an overtime justification", len(pendingDays))),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(reminderBody(pendingDays)),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}

func reminderBody(pendingDays []string) string {
	var b strings.Builder
	b.WriteString("Hello,\n\nThe following days have overtime or time-bank credit without a justification:\n\n")
	for _, d := range pendingDays {
		b.WriteString("  - ")
		b.WriteString(d)
		b.WriteString("\n")
	}
	b.WriteString("\nRun `timebank justify` or use the API to submit them.")
	return b.String()
}
