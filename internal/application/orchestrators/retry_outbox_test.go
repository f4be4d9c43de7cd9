package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdash/internal/adapters/email"
	"gymdash/internal/adapters/sms"
	"gymdash/internal/domain/outbox"
)

type failingExecutor struct{ calls int }

func (e *failingExecutor) Execute(context.Context, string) (string, error) {
	e.calls++
	return "", errors.New("provider down")
}

func enqueue(t *testing.T, f *fixture, actionType string, payload any) outbox.Entry {
	t.Helper()
	e, err := outbox.NewEntry(generateID(), actionType, "", payload, fixedNow)
	require.NoError(t, err)
	_, err = f.outbox.Enqueue(context.Background(), e)
	require.NoError(t, err)
	return e
}

func TestOutboxProcessor_Delivers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mail := email.NewNoopSender(nil)
	texts := sms.NewNoopSender(nil)

	em := enqueue(t, f, outbox.ActionTypeEmail, outbox.EmailPayload{To: []string{"ops@gym.test"}, Subject: "Low stock", HTML: "<p>hi</p>"})
	tx := enqueue(t, f, outbox.ActionTypeSMS, outbox.SMSPayload{PhoneNumber: "+6421000000", Message: "Overdue"})

	p := NewOutboxProcessor(f.outbox, map[string]ActionExecutor{
		outbox.ActionTypeEmail: &EmailExecutor{Sender: mail, From: "alerts@gym.test"},
		outbox.ActionTypeSMS:   &SMSExecutor{Sender: texts},
	}, nil)
	p.now = clock

	n, err := p.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, mail.Sent(), 1)
	assert.Equal(t, "alerts@gym.test", mail.Sent()[0].From)
	require.Len(t, texts.Sent(), 1)
	assert.Equal(t, "Overdue", texts.Sent()[0].Body)

	for _, id := range []string{em.ID, tx.ID} {
		stored, err := f.outbox.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, outbox.StatusDone, stored.Status)
		assert.NotEmpty(t, stored.ExternalID)
	}

	n, err = p.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOutboxProcessor_BackoffAndGiveUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := enqueue(t, f, outbox.ActionTypeEmail, outbox.EmailPayload{To: []string{"ops@gym.test"}, Subject: "x", HTML: "x"})

	exec := &failingExecutor{}
	p := NewOutboxProcessor(f.outbox, map[string]ActionExecutor{outbox.ActionTypeEmail: exec}, nil)
	now := fixedNow
	p.now = func() time.Time { return now }

	_, err := p.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, exec.calls)

	// Still inside the backoff window.
	now = now.Add(10 * time.Second)
	_, err = p.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, exec.calls)

	for i := 0; i < outbox.DefaultMaxAttempts; i++ {
		now = now.Add(2 * time.Hour)
		_, err = p.ProcessPending(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, outbox.DefaultMaxAttempts, exec.calls)

	stored, err := f.outbox.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, outbox.StatusFailed, stored.Status)
	assert.Equal(t, "provider down", stored.ErrorMessage)
}

func TestOutboxProcessor_UnknownActionFails(t *testing.T) {
	f := newFixture(t)
	e := enqueue(t, f, "pager", map[string]string{"msg": "x"})
	p := NewOutboxProcessor(f.outbox, nil, nil)
	p.now = clock

	_, err := p.ProcessPending(context.Background())
	require.NoError(t, err)
	stored, err := f.outbox.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, outbox.StatusFailed, stored.Status)
}

func TestStartScheduler_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runs := make(chan struct{}, 10)
	stop := StartScheduler(ctx, "test", 5*time.Millisecond, func(context.Context) error {
		runs <- struct{}{}
		return nil
	}, nil)

	select {
	case <-runs:
	case <-time.After(time.Second):
		t.Fatal("job never ran")
	}
	cancel()
	stop()
}
