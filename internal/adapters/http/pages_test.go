package web

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdash/internal/adapters/http/middleware"
	"gymdash/internal/application/listview"
	"gymdash/internal/domain/member"
)

func TestPages_RedirectAnonymousToLogin(t *testing.T) {
	hs := newHarness(t)

	for _, path := range []string{"/", "/dashboard", "/members", "/members/ana"} {
		rec := hs.page(http.MethodGet, path, middleware.Session{})
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}
}

func TestPages_Dashboard(t *testing.T) {
	hs := newHarness(t)

	rec := hs.page(http.MethodGet, "/dashboard", northManager)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Active members")
	assert.Contains(t, body, `href="/members"`)
	assert.Contains(t, body, "north@gym.test")
}

func TestPages_ListIsScoped(t *testing.T) {
	hs := newHarness(t)

	rec := hs.page(http.MethodGet, "/members", northManager)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Ana Lima")
	assert.NotContains(t, body, "Cy Okafor")
	assert.Contains(t, body, `href="/members/new"`)

	rec = hs.page(http.MethodGet, "/members", adminSession)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cy Okafor")
}

func TestPages_LedgerListHasNoCreateLink(t *testing.T) {
	hs := newHarness(t)
	rec := hs.page(http.MethodGet, "/payments", adminSession)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `href="/payments/new"`)
}

func TestPages_UnknownKindIsNotFound(t *testing.T) {
	hs := newHarness(t)
	rec := hs.page(http.MethodGet, "/widgets", adminSession)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestPages_Detail(t *testing.T) {
	hs := newHarness(t)

	rec := hs.page(http.MethodGet, "/members/ana", northManager)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "ana@gym.test")
	assert.Contains(t, body, `href="/members/ana/edit"`)
	assert.Contains(t, body, `href="/members/ana/delete"`)

	rec = hs.page(http.MethodGet, "/members/cy", northManager)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPages_Export(t *testing.T) {
	hs := newHarness(t)

	rec := hs.page(http.MethodGet, "/members/export?format=csv", northManager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, listview.ContentTypeCSV, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "members-20260315.csv")
	assert.Contains(t, rec.Body.String(), "Ana Lima")
	assert.NotContains(t, rec.Body.String(), "Cy Okafor")

	rec = hs.page(http.MethodGet, "/members/export?format=xlsx", adminSession)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, listview.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"), "xlsx is a zip archive")

	rec = hs.page(http.MethodGet, "/members/export?format=pdf", adminSession)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPages_CreateForm(t *testing.T) {
	hs := newHarness(t)

	rec := hs.page(http.MethodGet, "/members/new", northManager)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `action="/members/new"`)
	assert.Contains(t, body, `name="email"`)

	form := url.Values{"name": {"Dee Park"}, "email": {"dee@gym.test"}, "package": {"basic"}}
	rec = hs.form("/members/new", form.Encode(), northManager)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/members/"), loc)

	m, err := hs.stores.MemberStore.GetByID(context.Background(), strings.TrimPrefix(loc, "/members/"))
	require.NoError(t, err)
	assert.Equal(t, "Dee Park", m.Name)
	assert.Equal(t, "north", m.FranchiseID)
}

func TestPages_CreateFormShowsFieldErrors(t *testing.T) {
	hs := newHarness(t)

	form := url.Values{"name": {""}, "email": {"dee@gym.test"}, "package": {"basic"}}
	rec := hs.form("/members/new", form.Encode(), northManager)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Please fix the highlighted fields")
	assert.Contains(t, body, `value="dee@gym.test"`, "submitted values are kept")
}

func TestPages_EditForm(t *testing.T) {
	hs := newHarness(t)

	rec := hs.page(http.MethodGet, "/members/ana/edit", northManager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Ana Lima"`)

	form := url.Values{"name": {"Ana L."}, "email": {"ana@gym.test"}, "package": {"premium"}, "status": {"active"}}
	rec = hs.form("/members/ana/edit", form.Encode(), northManager)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/members/ana", rec.Header().Get("Location"))

	m, err := hs.stores.MemberStore.GetByID(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, "Ana L.", m.Name)
	assert.Equal(t, testNow.AddDate(0, -2, 0), m.JoinedAt.UTC(), "join date survives an edit without it")
}

func TestPages_ImmutableKindHasNoForm(t *testing.T) {
	hs := newHarness(t)
	rec := hs.page(http.MethodGet, "/payments/new", adminSession)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPages_DeleteNeedsConfirmation(t *testing.T) {
	hs := newHarness(t)

	rec := hs.page(http.MethodGet, "/members/ana/delete", northManager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/members/ana/delete"`)

	m, err := hs.stores.MemberStore.GetByID(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, member.StatusActive, m.Status, "GET does not delete")

	rec = hs.form("/members/ana/delete", "", northManager)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/members", rec.Header().Get("Location"))

	m, err = hs.stores.MemberStore.GetByID(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, member.StatusInactive, m.Status)
}
