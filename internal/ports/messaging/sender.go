package messaging

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"

	"timebank.service/pkg/telemetry"
)

// SQSSender implements MessageSender for AWS SQS. Every message carries the
// caller's trace context and a content type in its attributes.
type SQSSender struct {
	client SQSClient
}

func NewSQSSender(client SQSClient) *SQSSender {
	return &SQSSender{client: client}
}

func (s *SQSSender) SendMessage(ctx context.Context, destination string, body []byte) error {
	attributes := telemetry.InjectTraceContext(ctx)
	attributes["contentType"] = types.MessageAttributeValue{
		DataType:    aws.String("String"),
		StringValue: aws.String("application/json"),
	}

	out, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(destination),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: attributes,
	})
	if err != nil {
		return fmt.Errorf("sqs send to %s: %w", destination, err)
	}

	log.Ctx(ctx).Debug().Str("queue", destination).Str("message_id", aws.ToString(out.MessageId)).Msg("Message sent")
	return nil
}
