package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"gymdash/internal/adapters/http/middleware"
	"gymdash/internal/adapters/storage"
	"gymdash/internal/application/catalog"
	"gymdash/internal/application/listutil"
	"gymdash/internal/application/listview"
	"gymdash/internal/application/orchestrators"
	"gymdash/internal/domain/validation"
)

// errForbidden is returned when a role may read a kind but not change it.
var errForbidden = errors.New("not permitted for this role")

// resourceHandler serves one entity kind over the JSON API and the HTML pages.
type resourceHandler interface {
	apiList(w http.ResponseWriter, r *http.Request)
	apiGet(w http.ResponseWriter, r *http.Request)
	apiCreate(w http.ResponseWriter, r *http.Request)
	apiUpdate(w http.ResponseWriter, r *http.Request)
	apiDelete(w http.ResponseWriter, r *http.Request)

	pageList(w http.ResponseWriter, r *http.Request)
	pageExport(w http.ResponseWriter, r *http.Request)
	pageDetail(w http.ResponseWriter, r *http.Request)
	pageForm(w http.ResponseWriter, r *http.Request)
	pageSubmit(w http.ResponseWriter, r *http.Request)
	pageConfirmDelete(w http.ResponseWriter, r *http.Request)
	pageDelete(w http.ResponseWriter, r *http.Request)
}

// resource adapts one kind's store and orchestrators to resourceHandler.
type resource[T any] struct {
	s    *Server
	spec catalog.Spec[T]

	// list loads every record visible within franchiseID ("" for all).
	list func(ctx context.Context, franchiseID string) ([]T, error)
	get  func(ctx context.Context, id string) (T, error)
	// save creates (id == "") or replaces a record. Nil for ledger kinds.
	save func(ctx context.Context, id string, v T) (T, error)
	// record handles POST for ledger kinds, which take an action input
	// rather than the record itself.
	record func(ctx context.Context, raw []byte) (any, error)

	setFranchise func(v *T, franchiseID string)
	// memberOf scopes kinds that carry no franchise through their member.
	memberOf func(T) string
	// adminWrites restricts create, edit and delete to admins.
	adminWrites bool
}

func (h *resource[T]) kind() string { return h.spec.Kind.String() }

// scopeFor returns the franchise the caller may see. Admins may narrow the
// view with ?franchise_id=; everyone else is pinned to their own franchise.
func scopeFor(r *http.Request) string {
	if scope := middleware.FranchiseScope(r.Context()); scope != "" {
		return scope
	}
	return r.URL.Query().Get("franchise_id")
}

// load returns the filtered, unsorted records for a list request.
func (h *resource[T]) load(r *http.Request) ([]T, error) {
	ctx := r.Context()
	scope := scopeFor(r)
	items, err := h.list(ctx, scope)
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	items = h.spec.Filter(items, catalog.Query{Search: q.Get("q"), Status: q.Get("status"), FranchiseID: scope})
	if scope != "" && h.memberOf != nil {
		members, err := h.s.franchiseMembers(ctx, scope)
		if err != nil {
			return nil, err
		}
		items = listview.Where(items, func(it T) bool { return members[h.memberOf(it)] })
	}
	return items, nil
}

// find loads the {id} record, hiding records outside the caller's franchise.
func (h *resource[T]) find(r *http.Request) (T, error) {
	var zero T
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	v, err := h.get(ctx, id)
	if err != nil {
		return zero, err
	}
	scope := middleware.FranchiseScope(ctx)
	if scope == "" {
		return v, nil
	}
	switch {
	case h.spec.Franchise != nil:
		if h.spec.Franchise(v) != scope {
			return zero, storage.NotFound(h.kind(), id)
		}
	case h.memberOf != nil:
		if err := h.s.requireMember(ctx, h.memberOf(v)); err != nil {
			return zero, storage.NotFound(h.kind(), id)
		}
	}
	return v, nil
}

func (h *resource[T]) canWrite(ctx context.Context) error {
	if h.adminWrites && !middleware.IsAdmin(ctx) {
		return errForbidden
	}
	return nil
}

// create stores a new record from a validated JSON body.
func (h *resource[T]) create(ctx context.Context, raw []byte) (any, error) {
	if err := h.canWrite(ctx); err != nil {
		return nil, err
	}
	if h.record != nil {
		return h.record(ctx, raw)
	}
	if h.save == nil {
		return nil, errImmutable
	}
	var v T
	if err := strictDecode(raw, &v); err != nil {
		return nil, err
	}
	if scope := middleware.FranchiseScope(ctx); scope != "" && h.setFranchise != nil {
		h.setFranchise(&v, scope)
	}
	return h.save(ctx, "", v)
}

// update replaces the {id} record from a validated JSON body.
func (h *resource[T]) update(r *http.Request, raw []byte) (T, error) {
	var zero T
	if h.save == nil {
		return zero, errImmutable
	}
	if err := h.canWrite(r.Context()); err != nil {
		return zero, err
	}
	prev, err := h.find(r)
	if err != nil {
		return zero, err
	}
	var v T
	if err := strictDecode(raw, &v); err != nil {
		return zero, err
	}
	if scope := middleware.FranchiseScope(r.Context()); scope != "" && h.setFranchise != nil {
		h.setFranchise(&v, scope)
	}
	return h.save(r.Context(), h.spec.ID(prev), v)
}

func (h *resource[T]) remove(r *http.Request) error {
	if !h.spec.Kind.Deletable() {
		return fmt.Errorf("%s: %w", h.kind(), orchestrators.ErrNotDeletable)
	}
	if err := h.canWrite(r.Context()); err != nil {
		return err
	}
	v, err := h.find(r)
	if err != nil {
		return err
	}
	return orchestrators.ExecuteSoftDelete(r.Context(), h.spec.Kind, h.spec.ID(v), h.s.saveDeps())
}

// --- JSON API ---

// apiList serves GET /api/<kind>. Results honour q, status, franchise_id,
// sort and dir; per_page turns on paging and X-Total-Count.
func (h *resource[T]) apiList(w http.ResponseWriter, r *http.Request) {
	items, err := h.load(r)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	p := listutil.ParseListParams(q, h.spec.Table.SortKeys(), nil)
	items = h.spec.Table.Sort(items, p.Sort, p.Dir)
	if q.Get("per_page") != "" {
		w.Header().Set("X-Total-Count", strconv.Itoa(len(items)))
		items, _ = listutil.Paginate(items, p.Page, p.PerPage)
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *resource[T]) apiGet(w http.ResponseWriter, r *http.Request) {
	v, err := h.find(r)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *resource[T]) apiCreate(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err == nil {
		err = h.s.schemas.validate(h.kind(), raw)
	}
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}
	out, err := h.create(r.Context(), raw)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *resource[T]) apiUpdate(w http.ResponseWriter, r *http.Request) {
	if h.save == nil {
		h.s.writeError(w, r, fmt.Errorf("%s: %w", h.kind(), errImmutable))
		return
	}
	raw, err := readBody(r)
	if err == nil {
		err = h.s.schemas.validate(h.kind(), raw)
	}
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}
	v, err := h.update(r, raw)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *resource[T]) apiDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.remove(r); err != nil {
		h.s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- HTML pages ---

type listPage struct {
	Kind       string
	Table      template.HTML
	CanCreate  bool
	ExportCSV  string
	ExportXLSX string
}

func (h *resource[T]) pageList(w http.ResponseWriter, r *http.Request) {
	items, err := h.load(r)
	if err != nil {
		h.s.pageError(w, r, err)
		return
	}
	p := listutil.ParseListParams(r.URL.Query(), h.spec.Table.SortKeys(), []string{"status", "franchise_id"})
	view := h.spec.Table.View(h.spec.Kind.Title(), items, p)
	var buf bytes.Buffer
	if err := listview.RenderHTML(&buf, view); err != nil {
		h.s.pageError(w, r, err)
		return
	}
	export := r.URL.Query()
	export.Del("page")
	export.Del("per_page")
	export.Set("format", "csv")
	csvURL := "/" + h.kind() + "/export?" + export.Encode()
	export.Set("format", "xlsx")
	xlsxURL := "/" + h.kind() + "/export?" + export.Encode()

	h.s.render(w, r, "list", pageData{
		Title: h.spec.Kind.Title(),
		Body: listPage{
			Kind:       h.kind(),
			Table:      template.HTML(buf.String()),
			CanCreate:  h.spec.Kind.Mutable() && h.canWrite(r.Context()) == nil,
			ExportCSV:  csvURL,
			ExportXLSX: xlsxURL,
		},
	})
}

// pageExport streams every matching row, sorted as on screen, as CSV or XLSX.
func (h *resource[T]) pageExport(w http.ResponseWriter, r *http.Request) {
	items, err := h.load(r)
	if err != nil {
		h.s.pageError(w, r, err)
		return
	}
	p := listutil.ParseListParams(r.URL.Query(), h.spec.Table.SortKeys(), nil)
	items = h.spec.Table.Sort(items, p.Sort, p.Dir)
	name := h.kind() + "-" + h.s.now().Format("20060102")

	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		w.Header().Set("Content-Type", listview.ContentTypeCSV)
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.csv"`)
		err = listview.WriteCSV(w, h.spec.Table, items)
	case "xlsx":
		w.Header().Set("Content-Type", listview.ContentTypeXLSX)
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.xlsx"`)
		err = listview.WriteXLSX(w, h.spec.Table, items, h.spec.Kind.Title())
	default:
		http.Error(w, "unknown export format "+strconv.Quote(format), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.s.internalError(r, err)
	}
	h.s.logger.Info("export", zap.String("kind", h.kind()), zap.Int("rows", len(items)))
}

type detailPage struct {
	Kind      string
	ID        string
	Badge     template.HTML
	Fields    []formField
	CanEdit   bool
	CanDelete bool
}

func (h *resource[T]) pageDetail(w http.ResponseWriter, r *http.Request) {
	v, err := h.find(r)
	if err != nil {
		h.s.pageError(w, r, err)
		return
	}
	var badge template.HTML
	if h.spec.Status != nil {
		badge = catalog.Badge(h.spec.Kind, h.spec.Status(v))
	}
	writable := h.spec.Kind.Mutable() && h.canWrite(r.Context()) == nil
	h.s.render(w, r, "detail", pageData{
		Title: h.spec.Kind.Title(),
		Body: detailPage{
			Kind:      h.kind(),
			ID:        h.spec.ID(v),
			Badge:     badge,
			Fields:    formFields(v),
			CanEdit:   writable,
			CanDelete: writable && h.spec.Kind.Deletable(),
		},
	})
}

type formPage struct {
	Kind   string
	Action string
	Fields []formField
	Errors validation.Errors
}

// pageForm renders the create (/<kind>/new) or edit form.
func (h *resource[T]) pageForm(w http.ResponseWriter, r *http.Request) {
	v, action, err := h.formTarget(r)
	if err != nil {
		h.s.pageError(w, r, err)
		return
	}
	h.renderForm(w, r, v, action, nil, nil)
}

func (h *resource[T]) pageSubmit(w http.ResponseWriter, r *http.Request) {
	base, action, err := h.formTarget(r)
	if err != nil {
		h.s.pageError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.s.pageError(w, r, fmt.Errorf("%w: %v", errBadBody, err))
		return
	}
	fields := formFields(base)
	raw, err := formJSON(base, fields, r.PostForm)
	if err == nil {
		err = h.s.schemas.validate(h.kind(), raw)
	}
	var saved T
	if err == nil {
		id := chi.URLParam(r, "id")
		if id == "" {
			var out any
			out, err = h.create(r.Context(), raw)
			if err == nil {
				saved = out.(T)
			}
		} else {
			saved, err = h.update(r, raw)
		}
	}
	if errs, ok := validation.As(err); ok {
		h.renderForm(w, r, base, action, errs, r.PostForm)
		return
	}
	if err != nil {
		h.s.pageError(w, r, err)
		return
	}
	http.Redirect(w, r, "/"+h.kind()+"/"+h.spec.ID(saved), http.StatusSeeOther)
}

// formTarget resolves the record a form edits (zero for /new) and the URL
// the form posts to.
func (h *resource[T]) formTarget(r *http.Request) (T, string, error) {
	var zero T
	if !h.spec.Kind.Mutable() || h.save == nil {
		return zero, "", fmt.Errorf("%s: %w", h.kind(), errImmutable)
	}
	if err := h.canWrite(r.Context()); err != nil {
		return zero, "", err
	}
	if chi.URLParam(r, "id") == "" {
		return zero, "/" + h.kind() + "/new", nil
	}
	v, err := h.find(r)
	if err != nil {
		return zero, "", err
	}
	return v, "/" + h.kind() + "/" + h.spec.ID(v) + "/edit", nil
}

func (h *resource[T]) renderForm(w http.ResponseWriter, r *http.Request, v T, action string, errs validation.Errors, submitted url.Values) {
	fields := formFields(v)
	for i := range fields {
		if submitted != nil && !fields[i].ReadOnly {
			if vals, ok := submitted[fields[i].Name]; ok && len(vals) > 0 {
				fields[i].Value = vals[0]
			} else if fields[i].Input == inputCheckbox {
				fields[i].Value = "false"
			}
		}
		for _, fe := range errs {
			if fe.Field == fields[i].Name {
				fields[i].Error = fe.Message
			}
		}
	}
	title := "New " + h.spec.Kind.Title()
	if chi.URLParam(r, "id") != "" {
		title = "Edit " + h.spec.Kind.Title()
	}
	status := http.StatusOK
	if len(errs) > 0 {
		status = http.StatusUnprocessableEntity
	}
	h.s.render(w, r, "form", pageData{
		Title:  title,
		Status: status,
		Body:   formPage{Kind: h.kind(), Action: action, Fields: fields, Errors: errs},
	})
}

type confirmPage struct {
	Kind   string
	ID     string
	Label  string
	Action string
}

// pageConfirmDelete asks before a soft delete; nothing changes until the
// form is posted.
func (h *resource[T]) pageConfirmDelete(w http.ResponseWriter, r *http.Request) {
	if !h.spec.Kind.Deletable() {
		h.s.pageError(w, r, fmt.Errorf("%s: %w", h.kind(), orchestrators.ErrNotDeletable))
		return
	}
	if err := h.canWrite(r.Context()); err != nil {
		h.s.pageError(w, r, err)
		return
	}
	v, err := h.find(r)
	if err != nil {
		h.s.pageError(w, r, err)
		return
	}
	id := h.spec.ID(v)
	label := id
	if rows := h.spec.Table.Rows([]T{v}); len(rows) == 1 && len(rows[0].Cells) > 0 {
		label = rows[0].Cells[0].Text
	}
	h.s.render(w, r, "confirm", pageData{
		Title: "Delete from " + h.spec.Kind.Title(),
		Body:  confirmPage{Kind: h.kind(), ID: id, Label: label, Action: "/" + h.kind() + "/" + id + "/delete"},
	})
}

func (h *resource[T]) pageDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.remove(r); err != nil {
		h.s.pageError(w, r, err)
		return
	}
	http.Redirect(w, r, "/"+h.kind(), http.StatusSeeOther)
}
