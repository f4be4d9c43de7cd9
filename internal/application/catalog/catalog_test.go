package catalog

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdash/internal/application/listutil"
	"gymdash/internal/application/listview"
	"gymdash/internal/domain/member"
	"gymdash/internal/domain/product"
)

func members() []member.Member {
	joined := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	return []member.Member{
		{ID: "m1", Name: "John Doe", Email: "john@gym.test", Package: "basic", Status: member.StatusActive, JoinedAt: joined, FranchiseID: "f1"},
		{ID: "m2", Name: "Jane Smith", Email: "jane@gym.test", Package: "premium", Status: member.StatusInactive, JoinedAt: joined.AddDate(0, 1, 0), FranchiseID: "f2"},
	}
}

func TestSpecFilter(t *testing.T) {
	spec := Members()
	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"empty query keeps everything", Query{}, []string{"m1", "m2"}},
		{"search by name", Query{Search: "jo"}, []string{"m1"}},
		{"search by package", Query{Search: "PREMIUM"}, []string{"m2"}},
		{"status filter", Query{Status: member.StatusInactive}, []string{"m2"}},
		{"franchise filter", Query{FranchiseID: "f1"}, []string{"m1"}},
		{"combined with no match", Query{Search: "jane", Status: member.StatusActive}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, m := range spec.Filter(members(), tt.q) {
				got = append(got, m.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMembersTable_StatusBadgeAndActions(t *testing.T) {
	rows := Members().Table.Rows(members())
	require.Len(t, rows, 2)

	assert.Equal(t, "Active", rows[0].Cells[4].Text)
	assert.Contains(t, string(rows[0].Cells[4].HTML), `class="badge badge-success"`)

	names := func(r listview.Row) []string {
		var out []string
		for _, a := range r.Actions {
			out = append(out, a.Name)
		}
		return out
	}
	assert.Equal(t, []string{"view", "edit", "delete"}, names(rows[0]))
	assert.Equal(t, "/members/m1/delete", rows[0].Actions[2].Href)
	assert.True(t, rows[0].Actions[2].Confirm)
	// Already inactive: nothing left to delete.
	assert.Equal(t, []string{"view"}, names(rows[1]))
}

func TestLedgerKindsOnlyOfferView(t *testing.T) {
	for _, acts := range [][]string{
		actionNames(Payments().Table.Actions),
		actionNames(Sales().Table.Actions),
		actionNames(AccessLogs().Table.Actions),
		actionNames(CheckIns().Table.Actions),
	} {
		assert.Equal(t, []string{"view"}, acts)
	}
}

func actionNames[T any](acts []listview.RowAction[T]) []string {
	var out []string
	for _, a := range acts {
		out = append(out, a.Name)
	}
	return out
}

func TestProductsTable_NumericSortAndExport(t *testing.T) {
	items := []product.Product{
		{ID: "p1", SKU: "A", Name: "Water", Price: 250, Stock: 100, MinStock: 10, Status: product.StatusActive},
		{ID: "p2", SKU: "B", Name: "Bar, \"Choc\"", Price: 1200, Stock: 9, MinStock: 10, Status: product.StatusLowStock},
	}
	spec := Products()

	sorted := spec.Table.Sort(items, "stock", "asc")
	assert.Equal(t, "p2", sorted[0].ID, "9 sorts before 100 numerically")

	var buf bytes.Buffer
	require.NoError(t, listview.WriteCSV(&buf, spec.Table, items))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "SKU,Name,Category,Price,Stock,Reorder at,Status", lines[0])
	assert.Equal(t, `B,"Bar, ""Choc""",,$12.00,9,10,Low stock`, lines[2])
}

func TestTableView_TextRender(t *testing.T) {
	spec := Members()
	p := listutil.ListParams{}
	p.Page, p.PerPage = 1, 20
	p.Sort, p.Dir = "name", "asc"

	var buf bytes.Buffer
	require.NoError(t, listview.RenderText(&buf, spec.Table.View("Members", members(), p)))
	out := buf.String()
	assert.Less(t, strings.Index(out, "Jane Smith"), strings.Index(out, "John Doe"))
	assert.Contains(t, out, "1–2 of 2")
}
