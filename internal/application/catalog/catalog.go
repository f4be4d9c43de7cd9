// Package catalog defines, per entity kind, the columns, row actions and
// search fields used by list pages, exports and the CLI.
package catalog

import (
	"cmp"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"gymdash/internal/application/listview"
	"gymdash/internal/domain/accesslog"
	"gymdash/internal/domain/checkin"
	"gymdash/internal/domain/entity"
	"gymdash/internal/domain/franchise"
	"gymdash/internal/domain/member"
	"gymdash/internal/domain/payment"
	"gymdash/internal/domain/product"
	"gymdash/internal/domain/sale"
	"gymdash/internal/domain/schedule"
	"gymdash/internal/domain/status"
	"gymdash/internal/domain/trainer"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// Spec bundles everything a list view needs for one kind.
type Spec[T any] struct {
	Kind   entity.Kind
	Table  listview.Table[T]
	Fields []listview.Field[T]
	ID     func(T) string
	Status func(T) string
	// Franchise is nil for kinds that are not scoped to a franchise.
	Franchise func(T) string
}

// Query narrows a collection. Empty fields match everything.
type Query struct {
	Search      string
	Status      string
	FranchiseID string
}

// Filter applies the free-text search then the exact-match filters.
// POST: result preserves input order and never aliases items
func (s Spec[T]) Filter(items []T, q Query) []T {
	out := listview.Filter(items, q.Search, s.Fields...)
	if q.Status != "" && s.Status != nil {
		out = listview.Where(out, func(it T) bool { return s.Status(it) == q.Status })
	}
	if q.FranchiseID != "" && s.Franchise != nil {
		out = listview.Where(out, func(it T) bool { return s.Franchise(it) == q.FranchiseID })
	}
	return out
}

// Badge renders a status as an HTML pill.
func Badge(kind entity.Kind, value string) template.HTML {
	b := status.Lookup(kind, value)
	return template.HTML(fmt.Sprintf(`<span class="%s" data-icon="%s" style="background:%s">%s</span>`,
		b.CSSClass(), template.HTMLEscapeString(b.Icon), b.Hex(), template.HTMLEscapeString(b.Label)))
}

func statusColumn[T any](kind entity.Kind, get func(T) string) listview.Column[T] {
	return listview.Column[T]{
		Key:      "status",
		Header:   "Status",
		Value:    func(it T) string { return status.Lookup(kind, get(it)).Label },
		Cell:     func(it T) template.HTML { return Badge(kind, get(it)) },
		Sortable: true,
	}
}

func timeColumn[T any](key, header, layout string, get func(T) time.Time) listview.Column[T] {
	return listview.Column[T]{
		Key:    key,
		Header: header,
		Value: func(it T) string {
			if t := get(it); !t.IsZero() {
				return t.Format(layout)
			}
			return ""
		},
		Sortable: true,
		Compare:  func(a, b T) int { return get(a).Compare(get(b)) },
	}
}

func intColumn[T any](key, header string, get func(T) int64, format func(int64) string) listview.Column[T] {
	return listview.Column[T]{
		Key:      key,
		Header:   header,
		Value:    func(it T) string { return format(get(it)) },
		Sortable: true,
		Compare:  func(a, b T) int { return cmp.Compare(get(a), get(b)) },
	}
}

func textColumn[T any](key, header string, get func(T) string) listview.Column[T] {
	return listview.Column[T]{Key: key, Header: header, Value: get, Sortable: true}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

// actions builds view/edit/delete links under /<kind>/<id>. Edit and delete
// are only offered for mutable kinds; retired reports rows already in their
// soft-deleted state.
func actions[T any](kind entity.Kind, id func(T) string, retired func(T) bool) []listview.RowAction[T] {
	base := "/" + kind.String() + "/"
	out := []listview.RowAction[T]{
		{Name: "view", Label: "View", Href: func(it T) string { return base + id(it) }},
	}
	if !kind.Mutable() {
		return out
	}
	live := func(it T) bool { return retired == nil || !retired(it) }
	return append(out,
		listview.RowAction[T]{Name: "edit", Label: "Edit", Href: func(it T) string { return base + id(it) + "/edit" }, Visible: live},
		listview.RowAction[T]{Name: "delete", Label: "Delete", Href: func(it T) string { return base + id(it) + "/delete" }, Visible: live, Confirm: true},
	)
}

// Members lists members by name, contact and package.
func Members() Spec[member.Member] {
	id := func(m member.Member) string { return m.ID }
	return Spec[member.Member]{
		Kind: entity.KindMembers,
		Table: listview.Table[member.Member]{
			Columns: []listview.Column[member.Member]{
				textColumn("name", "Name", func(m member.Member) string { return m.Name }),
				textColumn("email", "Email", func(m member.Member) string { return m.Email }),
				{Key: "phone", Header: "Phone", Value: func(m member.Member) string { return m.Phone }},
				textColumn("package", "Package", func(m member.Member) string { return m.Package }),
				statusColumn(entity.KindMembers, func(m member.Member) string { return m.Status }),
				timeColumn("joined", "Joined", dateLayout, func(m member.Member) time.Time { return m.JoinedAt }),
			},
			Actions: actions(entity.KindMembers, id, func(m member.Member) bool { return m.Status == member.StatusInactive }),
			RowID:   id,
		},
		Fields:    member.SearchFields(),
		ID:        id,
		Status:    func(m member.Member) string { return m.Status },
		Franchise: func(m member.Member) string { return m.FranchiseID },
	}
}

// Trainers lists trainers and staff.
func Trainers() Spec[trainer.Trainer] {
	id := func(t trainer.Trainer) string { return t.ID }
	return Spec[trainer.Trainer]{
		Kind: entity.KindTrainers,
		Table: listview.Table[trainer.Trainer]{
			Columns: []listview.Column[trainer.Trainer]{
				textColumn("name", "Name", func(t trainer.Trainer) string { return t.Name }),
				textColumn("email", "Email", func(t trainer.Trainer) string { return t.Email }),
				textColumn("role", "Role", func(t trainer.Trainer) string { return t.Role }),
				{Key: "specializations", Header: "Specializations", Value: func(t trainer.Trainer) string { return strings.Join(t.Specializations, ", ") }},
				{
					Key: "rating", Header: "Rating", Sortable: true,
					Value:   func(t trainer.Trainer) string { return strconv.FormatFloat(t.Rating, 'f', 1, 64) },
					Compare: func(a, b trainer.Trainer) int { return cmp.Compare(a.Rating, b.Rating) },
				},
				statusColumn(entity.KindTrainers, func(t trainer.Trainer) string { return t.Status }),
			},
			Actions: actions(entity.KindTrainers, id, func(t trainer.Trainer) bool { return t.Status == trainer.StatusInactive }),
			RowID:   id,
		},
		Fields:    trainer.SearchFields(),
		ID:        id,
		Status:    func(t trainer.Trainer) string { return t.Status },
		Franchise: func(t trainer.Trainer) string { return t.FranchiseID },
	}
}

// CheckIns lists visits.
func CheckIns() Spec[checkin.CheckIn] {
	id := func(c checkin.CheckIn) string { return c.ID }
	return Spec[checkin.CheckIn]{
		Kind: entity.KindCheckIns,
		Table: listview.Table[checkin.CheckIn]{
			Columns: []listview.Column[checkin.CheckIn]{
				textColumn("member", "Member", func(c checkin.CheckIn) string {
					if c.MemberName != "" {
						return c.MemberName
					}
					return c.MemberID
				}),
				textColumn("method", "Method", func(c checkin.CheckIn) string { return c.Method }),
				timeColumn("check_in", "Checked in", dateTimeLayout, func(c checkin.CheckIn) time.Time { return c.CheckInTime }),
				timeColumn("check_out", "Checked out", dateTimeLayout, func(c checkin.CheckIn) time.Time {
					if c.CheckOutTime == nil {
						return time.Time{}
					}
					return *c.CheckOutTime
				}),
				statusColumn(entity.KindCheckIns, func(c checkin.CheckIn) string { return c.Status }),
			},
			Actions: actions(entity.KindCheckIns, id, nil),
			RowID:   id,
		},
		Fields: checkin.SearchFields(),
		ID:     id,
		Status: func(c checkin.CheckIn) string { return c.Status },
	}
}

// Payments lists the payment ledger.
func Payments() Spec[payment.Payment] {
	id := func(p payment.Payment) string { return p.ID }
	return Spec[payment.Payment]{
		Kind: entity.KindPayments,
		Table: listview.Table[payment.Payment]{
			Columns: []listview.Column[payment.Payment]{
				textColumn("member", "Member", func(p payment.Payment) string { return p.MemberID }),
				intColumn("amount", "Amount", func(p payment.Payment) int64 { return p.Amount }, payment.FormatCents),
				textColumn("type", "Type", func(p payment.Payment) string { return p.Type }),
				textColumn("method", "Method", func(p payment.Payment) string { return p.Method }),
				timeColumn("due", "Due", dateLayout, func(p payment.Payment) time.Time { return p.DueDate }),
				timeColumn("created", "Created", dateLayout, func(p payment.Payment) time.Time { return p.CreatedAt }),
				statusColumn(entity.KindPayments, func(p payment.Payment) string { return p.Status }),
			},
			Actions: actions(entity.KindPayments, id, nil),
			RowID:   id,
		},
		Fields: payment.SearchFields(),
		ID:     id,
		Status: func(p payment.Payment) string { return p.Status },
	}
}

// Products lists inventory.
func Products() Spec[product.Product] {
	id := func(p product.Product) string { return p.ID }
	return Spec[product.Product]{
		Kind: entity.KindProducts,
		Table: listview.Table[product.Product]{
			Columns: []listview.Column[product.Product]{
				textColumn("sku", "SKU", func(p product.Product) string { return p.SKU }),
				textColumn("name", "Name", func(p product.Product) string { return p.Name }),
				textColumn("category", "Category", func(p product.Product) string { return p.Category }),
				intColumn("price", "Price", func(p product.Product) int64 { return p.Price }, payment.FormatCents),
				intColumn("stock", "Stock", func(p product.Product) int64 { return int64(p.Stock) }, itoa),
				intColumn("min_stock", "Reorder at", func(p product.Product) int64 { return int64(p.MinStock) }, itoa),
				statusColumn(entity.KindProducts, func(p product.Product) string { return p.Status }),
			},
			Actions: actions(entity.KindProducts, id, func(p product.Product) bool { return p.Status == product.StatusDiscontinued }),
			RowID:   id,
		},
		Fields:    product.SearchFields(),
		ID:        id,
		Status:    func(p product.Product) string { return p.Status },
		Franchise: func(p product.Product) string { return p.FranchiseID },
	}
}

// Sales lists POS transactions.
func Sales() Spec[sale.Sale] {
	id := func(s sale.Sale) string { return s.ID }
	return Spec[sale.Sale]{
		Kind: entity.KindSales,
		Table: listview.Table[sale.Sale]{
			Columns: []listview.Column[sale.Sale]{
				timeColumn("timestamp", "Time", dateTimeLayout, func(s sale.Sale) time.Time { return s.Timestamp }),
				intColumn("items", "Items", func(s sale.Sale) int64 { return int64(s.ItemCount()) }, itoa),
				intColumn("total", "Total", func(s sale.Sale) int64 { return s.Total }, payment.FormatCents),
				textColumn("payment_method", "Paid by", func(s sale.Sale) string { return s.PaymentMethod }),
				textColumn("cashier", "Cashier", func(s sale.Sale) string { return s.Cashier }),
			},
			Actions: actions(entity.KindSales, id, nil),
			RowID:   id,
		},
		Fields:    sale.SearchFields(),
		ID:        id,
		Franchise: func(s sale.Sale) string { return s.FranchiseID },
	}
}

// ScheduleEvents lists classes, sessions and room bookings.
func ScheduleEvents() Spec[schedule.Event] {
	id := func(e schedule.Event) string { return e.ID }
	return Spec[schedule.Event]{
		Kind: entity.KindScheduleEvents,
		Table: listview.Table[schedule.Event]{
			Columns: []listview.Column[schedule.Event]{
				textColumn("title", "Title", func(e schedule.Event) string { return e.Title }),
				textColumn("type", "Type", func(e schedule.Event) string { return e.Type }),
				textColumn("room", "Room", func(e schedule.Event) string { return e.Room }),
				timeColumn("start", "Starts", dateTimeLayout, func(e schedule.Event) time.Time { return e.StartTime }),
				timeColumn("end", "Ends", dateTimeLayout, func(e schedule.Event) time.Time { return e.EndTime }),
				{
					Key: "enrolled", Header: "Enrolled", Sortable: true,
					Value:   func(e schedule.Event) string { return fmt.Sprintf("%d/%d", e.Enrolled, e.Capacity) },
					Compare: func(a, b schedule.Event) int { return cmp.Compare(a.Utilization(), b.Utilization()) },
				},
				statusColumn(entity.KindScheduleEvents, func(e schedule.Event) string { return e.Status }),
			},
			Actions: actions(entity.KindScheduleEvents, id, func(e schedule.Event) bool { return e.Status == schedule.StatusCancelled }),
			RowID:   id,
		},
		Fields:    schedule.SearchFields(),
		ID:        id,
		Status:    func(e schedule.Event) string { return e.Status },
		Franchise: func(e schedule.Event) string { return e.FranchiseID },
	}
}

// AccessLogs lists door decisions.
func AccessLogs() Spec[accesslog.Log] {
	id := func(l accesslog.Log) string { return l.ID }
	return Spec[accesslog.Log]{
		Kind: entity.KindAccessLogs,
		Table: listview.Table[accesslog.Log]{
			Columns: []listview.Column[accesslog.Log]{
				timeColumn("timestamp", "Time", dateTimeLayout, func(l accesslog.Log) time.Time { return l.Timestamp }),
				textColumn("member", "Member", func(l accesslog.Log) string { return l.MemberID }),
				textColumn("area", "Area", func(l accesslog.Log) string { return l.Area }),
				textColumn("action", "Action", func(l accesslog.Log) string { return l.Action }),
				{Key: "rule", Header: "Rule", Value: func(l accesslog.Log) string { return l.RuleApplied }},
				statusColumn(entity.KindAccessLogs, func(l accesslog.Log) string { return l.Status }),
			},
			Actions: actions(entity.KindAccessLogs, id, nil),
			RowID:   id,
		},
		Fields: accesslog.SearchFields(),
		ID:     id,
		Status: func(l accesslog.Log) string { return l.Status },
	}
}

// Franchises lists locations.
func Franchises() Spec[franchise.Franchise] {
	id := func(f franchise.Franchise) string { return f.ID }
	return Spec[franchise.Franchise]{
		Kind: entity.KindFranchises,
		Table: listview.Table[franchise.Franchise]{
			Columns: []listview.Column[franchise.Franchise]{
				textColumn("name", "Name", func(f franchise.Franchise) string { return f.Name }),
				textColumn("manager", "Manager", func(f franchise.Franchise) string { return f.ManagerID }),
				{Key: "amenities", Header: "Amenities", Value: func(f franchise.Franchise) string { return strings.Join(f.Settings.Amenities, ", ") }},
				statusColumn(entity.KindFranchises, func(f franchise.Franchise) string { return f.Status }),
			},
			Actions: actions(entity.KindFranchises, id, func(f franchise.Franchise) bool { return f.Status == franchise.StatusInactive }),
			RowID:   id,
		},
		Fields:    franchise.SearchFields(),
		ID:        id,
		Status:    func(f franchise.Franchise) string { return f.Status },
		Franchise: func(f franchise.Franchise) string { return f.ID },
	}
}
