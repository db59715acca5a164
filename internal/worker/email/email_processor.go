package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"

	"timebank.service/internal/core"
	"timebank.service/internal/ports/messaging"
	"timebank.service/internal/worker"
)

// Processor mails reminders about days still waiting for a justification.
type Processor struct {
	emailService core.EmailService
	recipient    string
}

// NewProcessor sends every reminder to recipient, the address of the single
// employee this deployment serves.
func NewProcessor(emailService core.EmailService, recipient string) *Processor {
	return &Processor{
		emailService: emailService,
		recipient:    recipient,
	}
}

func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	if msg.Body == nil {
		return false, 0, errors.New("empty message body")
	}

	var event messaging.ReminderEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal reminder event")
		return false, 0, err
	}

	if len(event.PendingDays) == 0 {
		log.Ctx(ctx).Info().Msg("Reminder without pending days. Skipping.")
		return false, 0, nil
	}

	if err := p.emailService.SendPendingReminder(ctx, p.recipient, event.PendingDays); err != nil {
		return true, worker.RetryDelay(receiveCount(msg)), fmt.Errorf("failed to send reminder: %w", err)
	}

	log.Ctx(ctx).Info().Int("pending_days", len(event.PendingDays)).Msg("Reminder sent")
	return false, 0, nil
}

// receiveCount is how many times SQS has delivered msg so far.
func receiveCount(msg types.Message) int {
	n, _ := strconv.Atoi(msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)])
	return n
}
