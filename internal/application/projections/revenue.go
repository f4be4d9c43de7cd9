package projections

import (
	"time"

	"gymdash/internal/domain/payment"
)

// SumAmounts totals the amounts of payments matching pred. A nil pred
// matches everything.
func SumAmounts(payments []payment.Payment, pred func(payment.Payment) bool) int64 {
	var total int64
	for _, p := range payments {
		if pred == nil || pred(p) {
			total += p.Amount
		}
	}
	return total
}

// Growth returns the percentage change from previous to current.
// POST: returns 0 when previous is 0, never NaN or Inf
func Growth(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// Completed matches payments that count as revenue.
func Completed(p payment.Payment) bool {
	return p.Status == payment.StatusCompleted
}

// InMonth matches payments whose revenue time falls in year/month, evaluated
// in the location of the revenue timestamp.
func InMonth(year int, month time.Month) func(payment.Payment) bool {
	return func(p payment.Payment) bool {
		t := p.RevenueTime()
		return t.Year() == year && t.Month() == month
	}
}

// MonthlyRevenue sums completed payments paid in year/month. Payments without
// PaidAt fall back to CreatedAt.
func MonthlyRevenue(payments []payment.Payment, year int, month time.Month) int64 {
	in := InMonth(year, month)
	return SumAmounts(payments, func(p payment.Payment) bool {
		return Completed(p) && in(p)
	})
}

// RevenueSummary compares the month containing now with the month before.
type RevenueSummary struct {
	ThisMonth int64   `json:"this_month"`
	LastMonth int64   `json:"last_month"`
	Growth    float64 `json:"growth"`
}

// RevenueGrowth compares revenue for now's month with the previous month.
func RevenueGrowth(payments []payment.Payment, now time.Time) RevenueSummary {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prev := first.AddDate(0, -1, 0)
	s := RevenueSummary{
		ThisMonth: MonthlyRevenue(payments, first.Year(), first.Month()),
		LastMonth: MonthlyRevenue(payments, prev.Year(), prev.Month()),
	}
	s.Growth = Growth(float64(s.ThisMonth), float64(s.LastMonth))
	return s
}

// GroupSum totals payment amounts per key. Payments with an empty key are
// grouped under "other".
func GroupSum(payments []payment.Payment, key func(payment.Payment) string) map[string]int64 {
	out := make(map[string]int64)
	for _, p := range payments {
		k := key(p)
		if k == "" {
			k = "other"
		}
		out[k] += p.Amount
	}
	return out
}

// ByType keys payments by type.
func ByType(p payment.Payment) string { return p.Type }

// ByMethod keys payments by payment method.
func ByMethod(p payment.Payment) string { return p.Method }

// filterPayments returns the payments matching pred in a new slice.
func filterPayments(payments []payment.Payment, pred func(payment.Payment) bool) []payment.Payment {
	out := make([]payment.Payment, 0, len(payments))
	for _, p := range payments {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}
