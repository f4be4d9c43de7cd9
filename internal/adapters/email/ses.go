package email

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"gymdash/internal/logger"
)

// SESAPI is the slice of the SES client the sender uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender sends emails through Amazon SES.
type SESSender struct {
	client SESAPI
	from   string
	logger *zap.Logger
}

// NewSESSender loads the default AWS credential chain for region.
// PRE: region is non-empty
// POST: Returns a ready-to-use sender or the AWS config error
func NewSESSender(ctx context.Context, region, from string, l *zap.Logger) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSESSenderWithClient(ses.NewFromConfig(cfg), from, l), nil
}

// NewSESSenderWithClient wraps an existing client.
func NewSESSenderWithClient(client SESAPI, from string, l *zap.Logger) *SESSender {
	return &SESSender{client: client, from: from, logger: logger.OrNop(l)}
}

// Send sends a single HTML email.
// PRE: req has at least one recipient
// POST: Returns the SES message ID
func (s *SESSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	from := req.From
	if from == "" {
		from = s.from
	}
	input := &ses.SendEmailInput{
		Source:      aws.String(from),
		Destination: &types.Destination{ToAddresses: req.To},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(req.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(req.HTML), Charset: aws.String("UTF-8")},
			},
		},
	}
	if req.ReplyTo != "" {
		input.ReplyToAddresses = []string{req.ReplyTo}
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("ses_send_failed", zap.Error(err), zap.Strings("to", req.To))
		return SendResult{}, fmt.Errorf("ses send failed: %w", err)
	}
	id := aws.ToString(out.MessageId)
	s.logger.Info("ses_sent", zap.String("message_id", id), zap.Strings("to", req.To))
	return SendResult{MessageID: id, SentAt: time.Now()}, nil
}

// SendBatch sends each request in turn; SES has no batch endpoint for raw HTML.
func (s *SESSender) SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error) {
	return sendEach(ctx, s, reqs)
}
