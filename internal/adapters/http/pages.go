package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/csrf"

	"gymdash/internal/adapters/http/middleware"
	"gymdash/internal/application/projections"
	"gymdash/internal/domain/entity"
	"gymdash/internal/domain/payment"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "layout.html"

// pageSet holds one parsed template per page, each cloned from the layout.
type pageSet struct {
	byName map[string]*template.Template
}

// pageData is what every page template receives. Handlers fill Title, Body
// and, for non-200 pages, Status; render fills the rest from the request.
type pageData struct {
	Title   string
	Status  int
	Session middleware.Session
	Nav     []navLink
	CSRF    template.HTML
	Body    any
}

type navLink struct {
	Href   string
	Label  string
	Active bool
}

var pageFuncs = template.FuncMap{
	"money": payment.FormatCents,
	"percent": func(f float64) string {
		return fmt.Sprintf("%.0f%%", f*100)
	},
	"title": func(k string) string { return entity.Kind(k).Title() },
}

// loadPages parses the embedded templates. The layout is parsed once and
// cloned per page so each page can define its own "content" block.
func loadPages() (*pageSet, error) {
	layout, err := template.New(layoutTemplate).Funcs(pageFuncs).ParseFS(templateFS, "templates/"+layoutTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	ps := &pageSet{byName: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		base := path.Base(file)
		if base == layoutTemplate {
			continue
		}
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", base, err)
		}
		ps.byName[strings.TrimSuffix(base, ".html")] = t
	}
	return ps, nil
}

// render executes the named page into a buffer first so a template failure
// never leaves a half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	t, ok := s.pages.byName[name]
	if !ok {
		s.internalError(r, fmt.Errorf("unknown page %q", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	data.Session, _ = middleware.GetSessionFromContext(r.Context())
	data.CSRF = csrf.TemplateField(r)
	if data.Session.OnboardingComplete {
		data.Nav = navFor(r.URL.Path)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		s.internalError(r, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	status := data.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func navFor(current string) []navLink {
	links := []navLink{{Href: "/dashboard", Label: "Dashboard", Active: current == "/dashboard"}}
	for _, k := range entity.All {
		href := "/" + k.String()
		links = append(links, navLink{
			Href:   href,
			Label:  k.Title(),
			Active: current == href || strings.HasPrefix(current, href+"/"),
		})
	}
	return links
}

// pageError renders err with the status the API would report for it.
func (s *Server) pageError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.internalError(r, err)
		msg = "Something went wrong. The error has been logged."
	}
	s.render(w, r, "error", pageData{Title: http.StatusText(status), Status: status, Body: msg})
}

type dashboardPage struct {
	Dashboard   projections.Dashboard
	FranchiseID string
}

// handleDashboardPage renders the summary cards.
func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	scope := scopeFor(r)
	d, err := projections.QueryDashboard(r.Context(), projections.DashboardQuery{FranchiseID: scope}, s.dashboardDeps(), s.now())
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	s.render(w, r, "dashboard", pageData{
		Title: "Dashboard",
		Body:  dashboardPage{Dashboard: d, FranchiseID: scope},
	})
}
