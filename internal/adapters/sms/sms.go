// Package sms delivers short text alerts to staff phones.
package sms

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.uber.org/zap"

	"gymdash/internal/config"
	"gymdash/internal/logger"
)

// Message is one outbound text.
type Message struct {
	PhoneNumber string // E.164
	Body        string
}

// Result identifies an accepted message.
type Result struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers text messages.
type Sender interface {
	Send(ctx context.Context, msg Message) (Result, error)
}

// NewSender builds the sender selected by cfg.Provider.
func NewSender(ctx context.Context, cfg config.SMSConfig, l *zap.Logger) (Sender, error) {
	switch cfg.Provider {
	case "", "noop":
		return NewNoopSender(l), nil
	case "sns":
		return NewSNSSender(ctx, cfg.Region, cfg.SenderID, l)
	default:
		return nil, fmt.Errorf("unknown sms provider %q", cfg.Provider)
	}
}

// SNSAPI is the slice of the SNS client the sender uses.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSender publishes directly to phone numbers through Amazon SNS.
type SNSSender struct {
	client   SNSAPI
	senderID string
	logger   *zap.Logger
}

// NewSNSSender loads the default AWS credential chain for region.
// PRE: region is non-empty
func NewSNSSender(ctx context.Context, region, senderID string, l *zap.Logger) (*SNSSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSNSSenderWithClient(sns.NewFromConfig(cfg), senderID, l), nil
}

// NewSNSSenderWithClient wraps an existing client.
func NewSNSSenderWithClient(client SNSAPI, senderID string, l *zap.Logger) *SNSSender {
	return &SNSSender{client: client, senderID: senderID, logger: logger.OrNop(l)}
}

// Send publishes msg as a transactional SMS.
// PRE: msg.PhoneNumber is non-empty
// POST: Returns the SNS message ID
func (s *SNSSender) Send(ctx context.Context, msg Message) (Result, error) {
	if msg.PhoneNumber == "" {
		return Result{}, fmt.Errorf("sms: phone number is required")
	}
	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
	}
	if s.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(s.senderID)}
	}
	out, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(msg.PhoneNumber),
		Message:           aws.String(msg.Body),
		MessageAttributes: attrs,
	})
	if err != nil {
		s.logger.Error("sns_publish_failed", zap.Error(err))
		return Result{}, fmt.Errorf("sns publish failed: %w", err)
	}
	id := aws.ToString(out.MessageId)
	s.logger.Info("sns_published", zap.String("message_id", id))
	return Result{MessageID: id, SentAt: time.Now()}, nil
}

// NoopSender logs and records messages without sending them.
type NoopSender struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []Message
}

// NewNoopSender creates a new NoopSender.
func NewNoopSender(l *zap.Logger) *NoopSender {
	return &NoopSender{logger: logger.OrNop(l)}
}

// Send records msg.
func (s *NoopSender) Send(_ context.Context, msg Message) (Result, error) {
	s.logger.Info("noop_sms_send", zap.Int("length", len(msg.Body)))
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	n := len(s.sent)
	s.mu.Unlock()
	return Result{MessageID: fmt.Sprintf("noop-sms-%d", n), SentAt: time.Now()}, nil
}

// Sent returns a copy of every message seen so far.
func (s *NoopSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}
