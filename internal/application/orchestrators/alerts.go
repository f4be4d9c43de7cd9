package orchestrators

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"gymdash/internal/adapters/storage"
	paymentstore "gymdash/internal/adapters/storage/payment"
	schedulestore "gymdash/internal/adapters/storage/schedule"
	"gymdash/internal/config"
	"gymdash/internal/domain/outbox"
	"gymdash/internal/domain/payment"
	"gymdash/internal/domain/product"
	"gymdash/internal/domain/schedule"
	"gymdash/internal/logger"
	"gymdash/internal/metrics"
)

// mdRenderer renders alert bodies. Raw HTML in the source is dropped, so
// user-entered text goes through mdEscape first.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// AlertProductStore lists products at or below their reorder level.
type AlertProductStore interface {
	ListNeedingReorder(ctx context.Context, franchiseID string) ([]product.Product, error)
}

// AlertPaymentStore lists payments by status.
type AlertPaymentStore interface {
	List(ctx context.Context, filter paymentstore.ListFilter) ([]payment.Payment, error)
}

// AlertScheduleStore lists upcoming events.
type AlertScheduleStore interface {
	List(ctx context.Context, filter schedulestore.ListFilter) ([]schedule.Event, error)
}

// OutboxEnqueuer stores notifications for later delivery.
type OutboxEnqueuer interface {
	Enqueue(ctx context.Context, e outbox.Entry) (bool, error)
}

// AlertsDeps holds dependencies for the threshold alerts.
type AlertsDeps struct {
	ProductStore  AlertProductStore
	PaymentStore  AlertPaymentStore
	MemberStore   CheckInMemberStore
	ScheduleStore AlertScheduleStore
	OutboxStore   OutboxEnqueuer
	Config        config.AlertsConfig
	Logger        *zap.Logger
	Now           func() time.Time
}

// AlertsResult counts what crossed a threshold and what was newly queued.
type AlertsResult struct {
	LowStock     int `json:"low_stock"`
	Overdue      int `json:"overdue"`
	NearCapacity int `json:"near_capacity"`
	Enqueued     int `json:"enqueued"`
}

// ExecuteThresholdAlerts checks stock, overdue payments and class fill
// against the configured thresholds and queues notifications.
// PRE: deps stores are set
// POST: at most one staff digest per alert class per day, and one reminder
// SMS per overdue payment, are queued in the outbox
func ExecuteThresholdAlerts(ctx context.Context, deps AlertsDeps) (res AlertsResult, err error) {
	defer func() { metrics.Event("threshold_alerts", err) }()
	log := logger.OrNop(deps.Logger)
	now := nowFrom(deps.Now)
	day := now.Format(time.DateOnly)
	cfg := deps.Config

	enqueue := func(actionType, dedupKey string, payload any) error {
		e, err := outbox.NewEntry(generateID(), actionType, dedupKey, payload, now)
		if err != nil {
			return err
		}
		added, err := deps.OutboxStore.Enqueue(ctx, e)
		if err != nil {
			return err
		}
		if added {
			res.Enqueued++
		}
		return nil
	}
	email := func(key, subject, markdown string) error {
		if len(cfg.Recipients) == 0 {
			return nil
		}
		html, err := renderMarkdown(markdown)
		if err != nil {
			return err
		}
		return enqueue(outbox.ActionTypeEmail, key, outbox.EmailPayload{To: cfg.Recipients, Subject: subject, HTML: html})
	}

	if cfg.LowStockEnabled {
		low, err := deps.ProductStore.ListNeedingReorder(ctx, "")
		if err != nil {
			return res, fmt.Errorf("list low stock: %w", err)
		}
		res.LowStock = len(low)
		if len(low) > 0 {
			if err := email("low-stock:"+day, fmt.Sprintf("%d products need restocking", len(low)), lowStockMarkdown(low)); err != nil {
				return res, err
			}
		}
	}

	overdue, err := deps.PaymentStore.List(ctx, paymentstore.ListFilter{Status: payment.StatusOverdue})
	if err != nil {
		return res, fmt.Errorf("list overdue payments: %w", err)
	}
	res.Overdue = len(overdue)
	if len(overdue) > 0 {
		if err := email("overdue:"+day, fmt.Sprintf("%d overdue payments", len(overdue)), overdueMarkdown(overdue)); err != nil {
			return res, err
		}
		for _, p := range overdue {
			m, err := deps.MemberStore.GetByID(ctx, p.MemberID)
			if err != nil {
				if !errors.Is(err, storage.ErrNotFound) {
					log.Warn("overdue_sms_member_lookup_failed", zap.String("payment_id", p.ID),
						zap.String("member_id", p.MemberID), zap.Error(err))
				}
				continue
			}
			if m.Phone == "" {
				continue
			}
			msg := fmt.Sprintf("Hi %s, your %s payment of %s is overdue. Please settle it at the front desk.",
				firstName(m.Name), strings.ReplaceAll(p.Type, "_", " "), payment.FormatCents(p.Amount))
			if err := enqueue(outbox.ActionTypeSMS, "overdue-sms:"+p.ID, outbox.SMSPayload{PhoneNumber: m.Phone, Message: msg}); err != nil {
				return res, err
			}
		}
	}

	if cfg.CapacityWarningPct > 0 {
		events, err := deps.ScheduleStore.List(ctx, schedulestore.ListFilter{From: now, To: now.AddDate(0, 0, 7)})
		if err != nil {
			return res, fmt.Errorf("list schedule: %w", err)
		}
		var full []schedule.Event
		for _, e := range events {
			if e.Status != schedule.StatusCancelled && e.Capacity > 0 && e.Utilization() >= cfg.CapacityWarningPct {
				full = append(full, e)
			}
		}
		res.NearCapacity = len(full)
		if len(full) > 0 {
			if err := email("capacity:"+day, fmt.Sprintf("%d classes are nearly full", len(full)), capacityMarkdown(full, cfg.CapacityWarningPct)); err != nil {
				return res, err
			}
		}
	}

	log.Info("alerts_event",
		zap.Int("low_stock", res.LowStock),
		zap.Int("overdue", res.Overdue),
		zap.Int("near_capacity", res.NearCapacity),
		zap.Int("enqueued", res.Enqueued),
	)
	return res, nil
}

func renderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render alert: %w", err)
	}
	return buf.String(), nil
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`",
	"[", `\[`, "]", `\]`, "<", `\<`, ">", `\>`, "#", `\#`,
)

func mdEscape(s string) string { return mdEscaper.Replace(s) }

func lowStockMarkdown(products []product.Product) string {
	var b strings.Builder
	b.WriteString("## Low stock\n\n")
	for _, p := range products {
		fmt.Fprintf(&b, "- **%s** (%s): %d left, reorder at %d\n", mdEscape(p.Name), mdEscape(p.SKU), p.Stock, p.MinStock)
	}
	return b.String()
}

func overdueMarkdown(payments []payment.Payment) string {
	var b strings.Builder
	b.WriteString("## Overdue payments\n\n")
	for _, p := range payments {
		due := "no due date"
		if !p.DueDate.IsZero() {
			due = "due " + p.DueDate.Format(time.DateOnly)
		}
		fmt.Fprintf(&b, "- %s for member `%s`, %s (%s)\n", payment.FormatCents(p.Amount), p.MemberID, due, p.Type)
	}
	return b.String()
}

func capacityMarkdown(events []schedule.Event, pct float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Classes at or above %.0f%% capacity\n\n", pct)
	for _, e := range events {
		fmt.Fprintf(&b, "- **%s** in %s on %s: %d/%d\n", mdEscape(e.Title), mdEscape(e.Room), e.StartTime.Format("Mon 2 Jan 15:04"), e.Enrolled, e.Capacity)
	}
	return b.String()
}

func firstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return "there"
}
