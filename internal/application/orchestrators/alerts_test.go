package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gymdash/internal/adapters/storage"
	"gymdash/internal/config"
	"gymdash/internal/domain/member"
	"gymdash/internal/domain/outbox"
	"gymdash/internal/domain/payment"
	"gymdash/internal/domain/product"
	"gymdash/internal/domain/schedule"
)

func alertsDeps(f *fixture) AlertsDeps {
	return AlertsDeps{
		ProductStore:  f.products,
		PaymentStore:  f.payments,
		MemberStore:   f.members,
		ScheduleStore: f.schedule,
		OutboxStore:   f.outbox,
		Config: config.AlertsConfig{
			Recipients:         []string{"ops@gym.test"},
			LowStockEnabled:    true,
			CapacityWarningPct: 90,
		},
		Now: clock,
	}
}

func TestExecuteThresholdAlerts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.member(t, "m1", "Jane Smith", member.StatusActive, "+64211234567")
	require.NoError(t, f.products.Save(ctx, product.Product{ID: "p1", SKU: "BAR", Name: "Protein <Bar>", Category: "food", Price: 350, Stock: 2, MinStock: 5}))
	require.NoError(t, f.payments.Create(ctx, payment.Payment{ID: "pay1", MemberID: "m1", Amount: 3000, Method: payment.MethodCash,
		Type: payment.TypePersonalTraining, Status: payment.StatusOverdue, DueDate: fixedNow.AddDate(0, 0, -5), CreatedAt: fixedNow.AddDate(0, 0, -20)}))
	require.NoError(t, f.schedule.Save(ctx, schedule.Event{ID: "e1", Title: "Spin", Type: schedule.TypeClass, Room: "A",
		StartTime: fixedNow.Add(24 * time.Hour), EndTime: fixedNow.Add(25 * time.Hour), Capacity: 20, Enrolled: 19, Status: schedule.StatusScheduled}))

	res, err := ExecuteThresholdAlerts(ctx, alertsDeps(f))
	require.NoError(t, err)
	assert.Equal(t, AlertsResult{LowStock: 1, Overdue: 1, NearCapacity: 1, Enqueued: 4}, res)

	pending, err := f.outbox.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 4)

	var sawSMS, sawLowStock bool
	for _, e := range pending {
		switch e.ActionType {
		case outbox.ActionTypeSMS:
			var p outbox.SMSPayload
			require.NoError(t, json.Unmarshal([]byte(e.Payload), &p))
			assert.Equal(t, "+64211234567", p.PhoneNumber)
			assert.Contains(t, p.Message, "Hi Jane")
			assert.Contains(t, p.Message, "$30.00")
			sawSMS = true
		case outbox.ActionTypeEmail:
			var p outbox.EmailPayload
			require.NoError(t, json.Unmarshal([]byte(e.Payload), &p))
			assert.Equal(t, []string{"ops@gym.test"}, p.To)
			if e.DedupKey == "low-stock:2026-03-15" {
				assert.Contains(t, p.HTML, "<strong>Protein &lt;Bar&gt;</strong>")
				sawLowStock = true
			}
		}
	}
	assert.True(t, sawSMS)
	assert.True(t, sawLowStock)

	// Same day: everything is deduplicated.
	again, err := ExecuteThresholdAlerts(ctx, alertsDeps(f))
	require.NoError(t, err)
	assert.Zero(t, again.Enqueued)
}

func TestExecuteThresholdAlerts_NoRecipientsStillTexts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.member(t, "m1", "Jane Smith", member.StatusActive, "+64211234567")
	require.NoError(t, f.payments.Create(ctx, payment.Payment{ID: "pay1", MemberID: "m1", Amount: 3000, Method: payment.MethodCash,
		Type: payment.TypeClass, Status: payment.StatusOverdue, CreatedAt: fixedNow}))

	deps := alertsDeps(f)
	deps.Config.Recipients = nil
	res, err := ExecuteThresholdAlerts(ctx, deps)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Enqueued)
}

// failingMembers answers every lookup with err.
type failingMembers struct{ err error }

func (s failingMembers) GetByID(context.Context, string) (member.Member, error) {
	return member.Member{}, s.err
}

func TestExecuteThresholdAlerts_MemberLookupFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.member(t, "m1", "Jane Smith", member.StatusActive, "+64211234567")
	require.NoError(t, f.payments.Create(ctx, payment.Payment{ID: "pay1", MemberID: "m1", Amount: 3000, Method: payment.MethodCash,
		Type: payment.TypeClass, Status: payment.StatusOverdue, CreatedAt: fixedNow}))

	tests := []struct {
		name   string
		err    error
		warned int
	}{
		{"missing member is skipped quietly", storage.NotFound("member", "m1"), 0},
		{"store failure is logged", errors.New("database is locked"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			deps := alertsDeps(f)
			deps.Config.Recipients = nil
			deps.MemberStore = failingMembers{err: tt.err}
			deps.Logger = zap.New(core)

			res, err := ExecuteThresholdAlerts(ctx, deps)
			require.NoError(t, err)
			assert.Equal(t, 1, res.Overdue)
			assert.Zero(t, res.Enqueued)
			assert.Equal(t, tt.warned, logs.FilterMessage("overdue_sms_member_lookup_failed").Len())
		})
	}
}
