package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gymdash/internal/adapters/email"
	"gymdash/internal/adapters/sms"
	"gymdash/internal/domain/outbox"
	"gymdash/internal/logger"
	"gymdash/internal/metrics"
)

// OutboxStore defines the outbox persistence needed by the processor.
type OutboxStore interface {
	GetByID(ctx context.Context, id string) (outbox.Entry, error)
	Save(ctx context.Context, e outbox.Entry) error
	ListPending(ctx context.Context, limit int) ([]outbox.Entry, error)
}

// ActionExecutor executes a specific type of external action.
type ActionExecutor interface {
	// Execute runs the external action with the given payload.
	// Returns the provider's message ID and any error.
	Execute(ctx context.Context, payload string) (string, error)
}

// OutboxProcessor delivers queued notifications with exponential backoff.
type OutboxProcessor struct {
	store     OutboxStore
	executors map[string]ActionExecutor
	logger    *zap.Logger
	now       func() time.Time
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
}

// NewOutboxProcessor creates a new outbox processor.
func NewOutboxProcessor(store OutboxStore, executors map[string]ActionExecutor, l *zap.Logger) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		logger:    logger.OrNop(l),
		now:       time.Now,
		baseDelay: 30 * time.Second,
		maxDelay:  1 * time.Hour,
		batchSize: 50,
	}
}

// ProcessPending processes pending outbox entries with retries.
// PRE: Context is valid
// POST: due entries are attempted; returns how many were delivered
func (p *OutboxProcessor) ProcessPending(ctx context.Context) (int, error) {
	entries, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending outbox entries: %w", err)
	}

	delivered := 0
	for _, entry := range entries {
		if !entry.Due(nowFrom(p.now), p.baseDelay, p.maxDelay) {
			continue
		}
		ok, err := p.processEntry(ctx, entry)
		if err != nil {
			p.logger.Error("outbox_process_failed", zap.String("entry_id", entry.ID), zap.String("action_type", entry.ActionType), zap.Error(err))
		}
		if ok {
			delivered++
		}
	}
	return delivered, nil
}

// processEntry attempts one entry and persists the outcome.
func (p *OutboxProcessor) processEntry(ctx context.Context, entry outbox.Entry) (bool, error) {
	executor, ok := p.executors[entry.ActionType]
	if !ok {
		entry.MarkAttempt(nowFrom(p.now))
		entry.Attempts = entry.MaxAttempts
		entry.MarkFailed(fmt.Errorf("no executor registered for action type: %s", entry.ActionType))
		return false, p.store.Save(ctx, entry)
	}

	entry.MarkAttempt(nowFrom(p.now))
	externalID, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err)
		metrics.OutboxDeliveriesTotal.WithLabelValues(entry.ActionType, "error").Inc()
		p.logger.Warn("outbox_action_failed", zap.String("entry_id", entry.ID), zap.Int("attempt", entry.Attempts), zap.Error(err))
	} else {
		entry.MarkSuccess(externalID)
		metrics.OutboxDeliveriesTotal.WithLabelValues(entry.ActionType, "ok").Inc()
		p.logger.Info("outbox_action_succeeded", zap.String("entry_id", entry.ID), zap.String("action_type", entry.ActionType), zap.String("external_id", externalID))
	}

	return err == nil, p.store.Save(ctx, entry)
}

// ProcessSingle manually processes a single outbox entry (for admin retry).
// PRE: entryID is non-empty
// POST: Entry is processed, status updated
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	if entry.IsTerminal() {
		return fmt.Errorf("entry %s is in terminal state and cannot be retried: %w", entryID, outbox.ErrInvalidStatus)
	}
	_, err = p.processEntry(ctx, entry)
	return err
}

// AbandonEntry marks an entry as abandoned by admin.
// PRE: entryID is non-empty
// POST: Entry status set to abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	if err := entry.MarkAbandoned(); err != nil {
		return err
	}
	return p.store.Save(ctx, entry)
}

// --- Email Executor ---

// EmailExecutor sends queued alert emails.
type EmailExecutor struct {
	Sender  email.Sender
	From    string
	ReplyTo string
}

// Execute sends an email from the payload.
// PRE: payload is valid JSON matching outbox.EmailPayload
// POST: email sent via configured sender, returns message ID
// INVARIANT: outbox entry status managed by caller
func (e *EmailExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p outbox.EmailPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", fmt.Errorf("unmarshal payload: %w", err)
	}
	res, err := e.Sender.Send(ctx, email.SendRequest{
		To:      p.To,
		From:    e.From,
		Subject: p.Subject,
		HTML:    p.HTML,
		ReplyTo: e.ReplyTo,
	})
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

// --- SMS Executor ---

// SMSExecutor sends queued text reminders.
type SMSExecutor struct {
	Sender sms.Sender
}

// Execute sends a text from the payload.
// PRE: payload is valid JSON matching outbox.SMSPayload
// POST: message accepted by the provider, returns message ID
func (e *SMSExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p outbox.SMSPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", fmt.Errorf("unmarshal payload: %w", err)
	}
	res, err := e.Sender.Send(ctx, sms.Message{PhoneNumber: p.PhoneNumber, Body: p.Message})
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}
