package web

import (
	"crypto/rand"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gymdash/internal/adapters/cache"
	"gymdash/internal/adapters/http/middleware"
	"gymdash/internal/adapters/http/perf"
	accessLogStore "gymdash/internal/adapters/storage/accesslog"
	accountStore "gymdash/internal/adapters/storage/account"
	checkInStore "gymdash/internal/adapters/storage/checkin"
	franchiseStore "gymdash/internal/adapters/storage/franchise"
	memberStore "gymdash/internal/adapters/storage/member"
	outboxStore "gymdash/internal/adapters/storage/outbox"
	paymentStore "gymdash/internal/adapters/storage/payment"
	productStore "gymdash/internal/adapters/storage/product"
	saleStore "gymdash/internal/adapters/storage/sale"
	scheduleStore "gymdash/internal/adapters/storage/schedule"
	trainerStore "gymdash/internal/adapters/storage/trainer"
	"gymdash/internal/application/orchestrators"
	"gymdash/internal/config"
	"gymdash/internal/domain/accesslog"
	domainAccount "gymdash/internal/domain/account"
	"gymdash/internal/logger"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore   accountStore.Store
	MemberStore    memberStore.Store
	TrainerStore   trainerStore.Store
	CheckInStore   checkInStore.Store
	PaymentStore   paymentStore.Store
	ProductStore   productStore.Store
	SaleStore      saleStore.Store
	ScheduleStore  scheduleStore.Store
	AccessLogStore accessLogStore.Store
	FranchiseStore franchiseStore.Store
	OutboxStore    outboxStore.Store
}

// Options configures NewMux.
type Options struct {
	Stores    Stores
	Config    *config.Config
	Cache     cache.Cache                    // optional: nil disables caching
	Collector *perf.Collector                // optional
	Outbox    *orchestrators.OutboxProcessor // optional: drains the outbox after manual alert runs
	Logger    *zap.Logger
	Now       func() time.Time
}

// Server carries the dependencies shared by every handler.
type Server struct {
	stores    Stores
	cfg       *config.Config
	cache     cache.Cache
	collector *perf.Collector
	outbox    *orchestrators.OutboxProcessor
	sessions  *middleware.SessionStore
	tokens    *middleware.TokenIssuer
	rules     []accesslog.Rule
	schemas   *schemaSet
	pages     *pageSet
	kinds     map[string]resourceHandler
	logger    *zap.Logger
	clock     func() time.Time
}

// NewMux wires HTTP handlers for the app.
// PRE: opts.Config is loaded and validated
// POST: returns the fully wrapped handler and the Server behind it
func NewMux(opts Options) (http.Handler, *Server, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, nil, errors.New("web: config is required")
	}
	rules, err := orchestrators.RulesFromConfig(cfg.Access)
	if err != nil {
		return nil, nil, err
	}
	schemas, err := loadSchemas()
	if err != nil {
		return nil, nil, err
	}
	pages, err := loadPages()
	if err != nil {
		return nil, nil, err
	}
	csrfKey, err := loadCSRFKey(cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Auth.CSRFKey == "" {
		logger.OrNop(opts.Logger).Warn("csrf_key_generated", zap.String("hint", "set auth.csrf_key so sessions survive restarts"))
	}

	s := &Server{
		stores:    opts.Stores,
		cfg:       cfg,
		cache:     opts.Cache,
		collector: opts.Collector,
		outbox:    opts.Outbox,
		sessions:  middleware.NewSessionStore(cfg.Auth.SessionTTL),
		tokens:    middleware.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		rules:     rules,
		schemas:   schemas,
		pages:     pages,
		logger:    logger.OrNop(opts.Logger),
		clock:     opts.Now,
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	s.kinds = s.registerKinds()
	s.sessions.SetSecure(cfg.App.IsProduction())

	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		middleware.Timing(middleware.TimingOptions{Collector: s.collector, Logger: s.logger}),
		chimw.Recoverer,
		chimw.Timeout(60*time.Second),
		middleware.SecurityHeaders,
	)
	if cfg.Auth.RateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.Auth.RateLimit, time.Minute))
	}
	r.Use(apiCORS(cfg.Auth.AllowedOrigins))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.CSRF(middleware.CSRFOptions{Key: csrfKey, Secure: cfg.App.IsProduction()}),
			middleware.Bearer(s.tokens),
			middleware.Auth(s.sessions),
		)
		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/onboarding", s.handleOnboardingPage)
		r.Post("/onboarding", s.handleOnboarding)

		r.Route("/api", func(r chi.Router) {
			r.Post("/token", s.handleToken)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				s.apiRoutes(r)
			})
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			s.pageRoutes(r)
		})
	})
	return r, s, nil
}

// apiRoutes registers the JSON API under /api.
func (s *Server) apiRoutes(r chi.Router) {
	r.Get("/dashboard", s.handleDashboard)
	r.Post("/checkins/checkout", s.handleCheckOut)
	r.Post("/schedule-events/{id}/enroll", s.handleEnroll)
	r.Post("/schedule-events/{id}/unenroll", s.handleUnenroll)
	r.Post("/payments/{id}/status", s.handlePaymentStatus)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(domainAccount.RoleAdmin, domainAccount.RoleManager))
		r.Post("/alerts/run", s.handleRunAlerts)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(domainAccount.RoleAdmin))
		r.Get("/admin/perf", s.handleAdminPerf)
		r.Get("/admin/outbox", s.handleAdminOutboxList)
		r.Post("/admin/outbox/{id}/retry", s.handleAdminOutboxRetry)
		r.Post("/admin/outbox/{id}/abandon", s.handleAdminOutboxAbandon)
	})

	r.Get("/{kind}", s.withKind(resourceHandler.apiList))
	r.Post("/{kind}", s.withKind(resourceHandler.apiCreate))
	r.Get("/{kind}/{id}", s.withKind(resourceHandler.apiGet))
	r.Put("/{kind}/{id}", s.withKind(resourceHandler.apiUpdate))
	r.Delete("/{kind}/{id}", s.withKind(resourceHandler.apiDelete))
}

func (s *Server) pageRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})
	r.Get("/dashboard", s.handleDashboardPage)

	r.Get("/{kind}", s.withKind(resourceHandler.pageList))
	r.Get("/{kind}/export", s.withKind(resourceHandler.pageExport))
	r.Get("/{kind}/new", s.withKind(resourceHandler.pageForm))
	r.Post("/{kind}/new", s.withKind(resourceHandler.pageSubmit))
	r.Get("/{kind}/{id}", s.withKind(resourceHandler.pageDetail))
	r.Get("/{kind}/{id}/edit", s.withKind(resourceHandler.pageForm))
	r.Post("/{kind}/{id}/edit", s.withKind(resourceHandler.pageSubmit))
	r.Get("/{kind}/{id}/delete", s.withKind(resourceHandler.pageConfirmDelete))
	r.Post("/{kind}/{id}/delete", s.withKind(resourceHandler.pageDelete))
}

// withKind resolves the {kind} path segment before dispatching.
func (s *Server) withKind(fn func(h resourceHandler, w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := s.kinds[chi.URLParam(r, "kind")]
		if !ok {
			s.notFound(w, r)
			return
		}
		fn(h, w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) now() time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now()
}

// apiCORS applies CORS handling to /api routes only. Preflight requests are
// answered before authentication runs.
func apiCORS(origins []string) func(http.Handler) http.Handler {
	handler := cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Total-Count"},
		MaxAge:         300,
	})
	return func(next http.Handler) http.Handler {
		withCORS := handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(origins) > 0 && strings.HasPrefix(r.URL.Path, "/api/") {
				withCORS.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loadCSRFKey returns the configured 32-byte CSRF secret. Outside
// production a random key is generated per startup when none is set.
func loadCSRFKey(cfg *config.Config) ([]byte, error) {
	if key := cfg.Auth.CSRFKey; key != "" {
		if len(key) != 32 {
			return nil, errors.New("auth.csrf_key must be exactly 32 bytes")
		}
		return []byte(key), nil
	}
	if cfg.App.IsProduction() {
		return nil, errors.New("auth.csrf_key is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
