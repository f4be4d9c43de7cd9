package email

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gymdash/internal/config"
)

// SendRequest contains the data needed to send an email via an external provider.
type SendRequest struct {
	To      []string // Recipient email addresses
	From    string   // Sender address, e.g. "GymDash Alerts <alerts@gymdash.io>"
	Subject string
	HTML    string // HTML body
	ReplyTo string // Reply-to address
}

// SendResult contains the response from the email provider.
type SendResult struct {
	MessageID string    // Provider's message ID for tracking
	SentAt    time.Time // When the send was accepted
}

// Sender is the interface for sending emails via an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
	SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error)
}

// NewSender builds the sender selected by cfg.Provider.
// PRE: cfg passed config validation
// POST: returns a ready sender; unknown providers are an error
func NewSender(ctx context.Context, cfg config.EmailConfig, logger *zap.Logger) (Sender, error) {
	switch cfg.Provider {
	case "", "noop":
		return NewNoopSender(logger), nil
	case "resend":
		return NewResendSender(cfg.ResendKey, cfg.From, logger), nil
	case "ses":
		return NewSESSender(ctx, cfg.Region, cfg.From, logger)
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// sendEach is the batch fallback for providers without a batch API.
func sendEach(ctx context.Context, s Sender, reqs []SendRequest) ([]SendResult, error) {
	results := make([]SendResult, 0, len(reqs))
	for _, req := range reqs {
		res, err := s.Send(ctx, req)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
