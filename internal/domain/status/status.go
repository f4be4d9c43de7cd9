// Package status is the single lookup table from (entity kind, status value)
// to the badge every view renders. Views never switch on status strings
// themselves.
package status

import (
	"strings"

	"gymdash/internal/domain/accesslog"
	"gymdash/internal/domain/checkin"
	"gymdash/internal/domain/entity"
	"gymdash/internal/domain/franchise"
	"gymdash/internal/domain/member"
	"gymdash/internal/domain/payment"
	"gymdash/internal/domain/product"
	"gymdash/internal/domain/schedule"
	"gymdash/internal/domain/trainer"
)

// Tone names a colour family.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
	ToneInfo    Tone = "info"
	ToneMuted   Tone = "muted"
)

// ToneHex maps tones to hex values.
var ToneHex = map[Tone]string{
	ToneSuccess: "#27ae60",
	ToneWarning: "#F9B232",
	ToneDanger:  "#e74c3c",
	ToneInfo:    "#2980b9",
	ToneMuted:   "#7f8c8d",
}

// Badge is what a status renders as.
type Badge struct {
	Label string
	Tone  Tone
	Icon  string
}

// Hex returns the badge colour.
func (b Badge) Hex() string {
	return ToneHex[b.Tone]
}

// CSSClass returns the badge class used by the HTML templates.
func (b Badge) CSSClass() string {
	return "badge badge-" + string(b.Tone)
}

type key struct {
	kind   entity.Kind
	status string
}

var table = map[key]Badge{
	{entity.KindMembers, member.StatusActive}:   {"Active", ToneSuccess, "check-circle"},
	{entity.KindMembers, member.StatusInactive}: {"Inactive", ToneMuted, "pause-circle"},
	{entity.KindMembers, member.StatusExpired}:  {"Expired", ToneWarning, "clock"},

	{entity.KindTrainers, trainer.StatusActive}:   {"Active", ToneSuccess, "check-circle"},
	{entity.KindTrainers, trainer.StatusInactive}: {"Inactive", ToneMuted, "pause-circle"},

	{entity.KindCheckIns, checkin.StatusActive}:    {"On site", ToneInfo, "log-in"},
	{entity.KindCheckIns, checkin.StatusCompleted}: {"Checked out", ToneMuted, "log-out"},

	{entity.KindPayments, payment.StatusPending}:   {"Pending", ToneInfo, "hourglass"},
	{entity.KindPayments, payment.StatusCompleted}: {"Paid", ToneSuccess, "check-circle"},
	{entity.KindPayments, payment.StatusFailed}:    {"Failed", ToneDanger, "x-circle"},
	{entity.KindPayments, payment.StatusOverdue}:   {"Overdue", ToneWarning, "alert-triangle"},

	{entity.KindProducts, product.StatusActive}:       {"In stock", ToneSuccess, "package"},
	{entity.KindProducts, product.StatusLowStock}:     {"Low stock", ToneWarning, "alert-triangle"},
	{entity.KindProducts, product.StatusOutOfStock}:   {"Out of stock", ToneDanger, "x-circle"},
	{entity.KindProducts, product.StatusDiscontinued}: {"Discontinued", ToneMuted, "archive"},

	{entity.KindScheduleEvents, schedule.StatusScheduled}: {"Scheduled", ToneInfo, "calendar"},
	{entity.KindScheduleEvents, schedule.StatusConfirmed}: {"Confirmed", ToneSuccess, "check-circle"},
	{entity.KindScheduleEvents, schedule.StatusCancelled}: {"Cancelled", ToneMuted, "slash"},

	{entity.KindAccessLogs, accesslog.StatusGranted}: {"Granted", ToneSuccess, "unlock"},
	{entity.KindAccessLogs, accesslog.StatusDenied}:  {"Denied", ToneDanger, "lock"},

	{entity.KindFranchises, franchise.StatusActive}:   {"Active", ToneSuccess, "check-circle"},
	{entity.KindFranchises, franchise.StatusPending}:  {"Pending", ToneWarning, "hourglass"},
	{entity.KindFranchises, franchise.StatusInactive}: {"Inactive", ToneMuted, "pause-circle"},
}

// Lookup returns the badge for a status. Unknown combinations render as a
// muted badge with a humanised label so a new status never breaks a view.
func Lookup(kind entity.Kind, value string) Badge {
	if b, ok := table[key{kind, value}]; ok {
		return b
	}
	return Badge{Label: humanize(value), Tone: ToneMuted, Icon: "help-circle"}
}

// Known reports whether the table has an entry.
func Known(kind entity.Kind, value string) bool {
	_, ok := table[key{kind, value}]
	return ok
}

func humanize(s string) string {
	if s == "" {
		return "Unknown"
	}
	s = strings.ReplaceAll(s, "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}
