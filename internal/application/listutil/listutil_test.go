package listutil

import (
	"net/url"
	"reflect"
	"testing"
)

// TestParsePageParams_Defaults verifies default page params when no query values provided.
func TestParsePageParams_Defaults(t *testing.T) {
	p := ParsePageParams(url.Values{})
	if p.Page != 1 {
		t.Errorf("expected page 1, got %d", p.Page)
	}
	if p.PerPage != DefaultPerPage {
		t.Errorf("expected per_page %d, got %d", DefaultPerPage, p.PerPage)
	}
}

func TestParsePageParams(t *testing.T) {
	tests := []struct {
		name        string
		q           url.Values
		wantPage    int
		wantPerPage int
	}{
		{"valid", url.Values{"page": {"3"}, "per_page": {"50"}}, 3, 50},
		{"per_page not offered", url.Values{"per_page": {"25"}}, 1, DefaultPerPage},
		{"negative page", url.Values{"page": {"-1"}}, 1, DefaultPerPage},
		{"garbage", url.Values{"page": {"x"}, "per_page": {"y"}}, 1, DefaultPerPage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePageParams(tt.q)
			if p.Page != tt.wantPage || p.PerPage != tt.wantPerPage {
				t.Errorf("got %+v, want page=%d per_page=%d", p, tt.wantPage, tt.wantPerPage)
			}
		})
	}
}

func TestParseSortParams(t *testing.T) {
	allowed := []string{"name", "joined_at"}
	if s := ParseSortParams(url.Values{"sort": {"name"}, "dir": {"DESC"}}, allowed); s.Sort != "name" || !s.Desc() {
		t.Errorf("expected name desc, got %+v", s)
	}
	if s := ParseSortParams(url.Values{"sort": {"password_hash"}}, allowed); s.Sort != "" {
		t.Errorf("expected disallowed column dropped, got %q", s.Sort)
	}
	if s := ParseSortParams(url.Values{"sort": {"name"}, "dir": {"DROP TABLE"}}, allowed); s.Dir != "asc" {
		t.Errorf("expected dir=asc for invalid dir, got %s", s.Dir)
	}
}

// TestParseFilterParams verifies search and filter extraction from query values.
func TestParseFilterParams(t *testing.T) {
	q := url.Values{"q": {"  jo "}, "status": {"active"}, "role": {"admin"}}
	fp := ParseFilterParams(q, []string{"status", "franchise_id"})
	if fp.Search != "jo" {
		t.Errorf("expected trimmed search, got %q", fp.Search)
	}
	want := map[string]string{"status": "active"}
	if !reflect.DeepEqual(fp.Filters, want) {
		t.Errorf("expected %v, got %v", want, fp.Filters)
	}
}

func TestNewPageInfo(t *testing.T) {
	tests := []struct {
		page, perPage, total int
		want                 PageInfo
	}{
		{1, 20, 0, PageInfo{Page: 1, PerPage: 20, Total: 0, TotalPages: 1}},
		{2, 20, 45, PageInfo{Page: 2, PerPage: 20, Total: 45, TotalPages: 3}},
		{9, 20, 45, PageInfo{Page: 3, PerPage: 20, Total: 45, TotalPages: 3}},
		{1, 0, 5, PageInfo{Page: 1, PerPage: DefaultPerPage, Total: 5, TotalPages: 1}},
	}
	for _, tt := range tests {
		if got := NewPageInfo(tt.page, tt.perPage, tt.total); got != tt.want {
			t.Errorf("NewPageInfo(%d,%d,%d) = %+v, want %+v", tt.page, tt.perPage, tt.total, got, tt.want)
		}
	}
}

func TestPageInfoRows(t *testing.T) {
	p := NewPageInfo(3, 20, 45)
	if p.Offset() != 40 || p.StartRow() != 41 || p.EndRow() != 45 {
		t.Errorf("unexpected rows %d %d %d", p.Offset(), p.StartRow(), p.EndRow())
	}
	if !p.HasPrev() || p.HasNext() {
		t.Error("last page should have prev and no next")
	}
	if empty := NewPageInfo(1, 20, 0); empty.StartRow() != 0 || empty.ShowPagination() {
		t.Error("empty list should show no rows and no pagination")
	}
}

func TestPageNumbers(t *testing.T) {
	if got := NewPageInfo(1, 10, 95).PageNumbers(); !reflect.DeepEqual(got, []int{1, 2, 3, 4, 5}) {
		t.Errorf("first page: %v", got)
	}
	if got := NewPageInfo(10, 10, 95).PageNumbers(); !reflect.DeepEqual(got, []int{6, 7, 8, 9, 10}) {
		t.Errorf("last page: %v", got)
	}
	if got := NewPageInfo(2, 10, 25).PageNumbers(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("short list: %v", got)
	}
}

func TestPaginate(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	page, info := Paginate(items, 2, 2)
	if !reflect.DeepEqual(page, []string{"c", "d"}) || info.TotalPages != 3 {
		t.Errorf("page 2: %v %+v", page, info)
	}
	page, info = Paginate(items, 7, 2)
	if !reflect.DeepEqual(page, []string{"e"}) || info.Page != 3 {
		t.Errorf("clamped: %v %+v", page, info)
	}
	page, _ = Paginate([]string(nil), 1, 10)
	if len(page) != 0 {
		t.Errorf("nil input: %v", page)
	}
}

func TestListParamsURLs(t *testing.T) {
	p := ParseListParams(url.Values{"q": {"jo"}, "status": {"active"}, "sort": {"name"}, "dir": {"asc"}, "page": {"2"}},
		[]string{"name"}, []string{"status"})

	if got := p.PageURL(3); got != "?dir=asc&page=3&q=jo&sort=name&status=active" {
		t.Errorf("PageURL = %s", got)
	}
	if got := p.SortURL("name"); got != "?dir=desc&q=jo&sort=name&status=active" {
		t.Errorf("SortURL toggle = %s", got)
	}
	if got := p.SortURL("email"); got != "?dir=asc&q=jo&sort=email&status=active" {
		t.Errorf("SortURL new col = %s", got)
	}
}
