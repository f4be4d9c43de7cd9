// Package entity names the record kinds served under /api/<kind>.
package entity

import "fmt"

// Kind identifies one entity collection. Its value is the URL path segment.
type Kind string

const (
	KindMembers        Kind = "members"
	KindTrainers       Kind = "trainers"
	KindCheckIns       Kind = "checkins"
	KindPayments       Kind = "payments"
	KindProducts       Kind = "products"
	KindSales          Kind = "sales"
	KindScheduleEvents Kind = "schedule-events"
	KindAccessLogs     Kind = "access-logs"
	KindFranchises     Kind = "franchises"
)

// All lists every kind in navigation order.
var All = []Kind{
	KindMembers, KindTrainers, KindCheckIns, KindPayments, KindProducts,
	KindSales, KindScheduleEvents, KindAccessLogs, KindFranchises,
}

var titles = map[Kind]string{
	KindMembers:        "Members",
	KindTrainers:       "Trainers & Staff",
	KindCheckIns:       "Check-ins",
	KindPayments:       "Payments",
	KindProducts:       "Products",
	KindSales:          "Sales",
	KindScheduleEvents: "Schedule",
	KindAccessLogs:     "Access Logs",
	KindFranchises:     "Franchises",
}

// ParseKind validates a path segment.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := titles[k]; !ok {
		return "", fmt.Errorf("unknown entity kind %q", s)
	}
	return k, nil
}

func (k Kind) String() string { return string(k) }

// Title is the human-readable collection name.
func (k Kind) Title() string {
	if t, ok := titles[k]; ok {
		return t
	}
	return string(k)
}

// Deletable reports whether DELETE is allowed. Deletion is always a soft
// status flip; ledger kinds cannot be deleted at all.
func (k Kind) Deletable() bool {
	switch k {
	case KindMembers, KindTrainers, KindProducts, KindScheduleEvents, KindFranchises:
		return true
	}
	return false
}

// Mutable reports whether records of this kind can be updated via PUT.
// Check-ins, payments, sales and access logs only change through their
// dedicated actions.
func (k Kind) Mutable() bool {
	return k.Deletable()
}
