package listview

import (
	"cmp"
	"html/template"
	"slices"
	"strings"

	"gymdash/internal/application/listutil"
)

// Column describes one display column.
type Column[T any] struct {
	Key      string
	Header   string
	Value    func(T) string        // plain text, used for sorting and export
	Cell     func(T) template.HTML // optional rich cell, e.g. a status badge
	Sortable bool
	// Compare overrides the default case-insensitive text ordering, for
	// numeric and time columns.
	Compare func(a, b T) int
}

// RowAction is a per-row action such as view, edit or delete.
type RowAction[T any] struct {
	Name    string
	Label   string
	Href    func(T) string
	Method  string       // GET when empty
	Visible func(T) bool // nil means always visible
	Confirm bool         // routed through a confirmation page
}

// Table renders items of one kind. It holds no domain knowledge: columns
// and actions are supplied by the caller.
type Table[T any] struct {
	Columns []Column[T]
	Actions []RowAction[T]
	RowID   func(T) string
}

// Cell is one rendered table cell.
type Cell struct {
	Text string
	HTML template.HTML
}

// ActionLink is a rendered RowAction.
type ActionLink struct {
	Name    string
	Label   string
	Href    string
	Method  string
	Confirm bool
}

// Row is one rendered table row.
type Row struct {
	ID      string
	Cells   []Cell
	Actions []ActionLink
}

// Header is one rendered column header.
type Header struct {
	Key      string
	Label    string
	Sortable bool
	Active   bool
	Dir      string
	Href     string
}

// TableView is everything a renderer needs for one page of a list.
type TableView struct {
	Title   string
	Query   string
	Headers []Header
	Rows    []Row
	Page    listutil.PageInfo
	Params  listutil.ListParams
	Empty   string
}

// Column looks up a column by key.
func (t Table[T]) Column(key string) (Column[T], bool) {
	for _, c := range t.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column[T]{}, false
}

// SortKeys lists the keys of sortable columns.
func (t Table[T]) SortKeys() []string {
	var keys []string
	for _, c := range t.Columns {
		if c.Sortable {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// HeaderLabels returns column headers in display order.
func (t Table[T]) HeaderLabels() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Header
	}
	return out
}

// Sort returns a stably sorted copy of items. An unknown or unsortable key
// returns the copy in input order.
func (t Table[T]) Sort(items []T, key, dir string) []T {
	out := slices.Clone(items)
	col, ok := t.Column(key)
	if !ok || !col.Sortable {
		return out
	}
	compare := col.Compare
	if compare == nil {
		compare = func(a, b T) int {
			return cmp.Compare(strings.ToLower(col.Value(a)), strings.ToLower(col.Value(b)))
		}
	}
	if dir == "desc" {
		slices.SortStableFunc(out, func(a, b T) int { return compare(b, a) })
	} else {
		slices.SortStableFunc(out, compare)
	}
	return out
}

// Rows renders items in input order.
func (t Table[T]) Rows(items []T) []Row {
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		r := Row{Cells: make([]Cell, len(t.Columns))}
		if t.RowID != nil {
			r.ID = t.RowID(it)
		}
		for i, c := range t.Columns {
			text := c.Value(it)
			cell := Cell{Text: text, HTML: template.HTML(template.HTMLEscapeString(text))}
			if c.Cell != nil {
				cell.HTML = c.Cell(it)
			}
			r.Cells[i] = cell
		}
		for _, a := range t.Actions {
			if a.Visible != nil && !a.Visible(it) {
				continue
			}
			method := a.Method
			if method == "" {
				method = "GET"
			}
			r.Actions = append(r.Actions, ActionLink{
				Name: a.Name, Label: a.Label, Href: a.Href(it), Method: method, Confirm: a.Confirm,
			})
		}
		rows = append(rows, r)
	}
	return rows
}

// View sorts and pages already-filtered items for one list page.
func (t Table[T]) View(title string, items []T, p listutil.ListParams) TableView {
	sorted := t.Sort(items, p.Sort, p.Dir)
	page, info := listutil.Paginate(sorted, p.Page, p.PerPage)

	headers := make([]Header, len(t.Columns))
	for i, c := range t.Columns {
		h := Header{Key: c.Key, Label: c.Header, Sortable: c.Sortable}
		if c.Sortable {
			h.Href = p.SortURL(c.Key)
			h.Active = p.Sort == c.Key
			if h.Active {
				h.Dir = p.Dir
			}
		}
		headers[i] = h
	}
	empty := "Nothing here yet."
	if p.Search != "" {
		empty = "No results match your search."
	}
	return TableView{
		Title:   title,
		Query:   p.Search,
		Headers: headers,
		Rows:    t.Rows(page),
		Page:    info,
		Params:  p,
		Empty:   empty,
	}
}
