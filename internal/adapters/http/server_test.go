package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gymdash/internal/adapters/http/middleware"
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
	"gymdash/internal/adapters/storage/storagetest"
	trainerStore "gymdash/internal/adapters/storage/trainer"
	"gymdash/internal/application/orchestrators"
	"gymdash/internal/config"
	domainAccount "gymdash/internal/domain/account"
	"gymdash/internal/domain/franchise"
	"gymdash/internal/domain/member"
	"gymdash/internal/domain/product"
)

func TestMain(m *testing.M) {
	domainAccount.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

var (
	adminSession = middleware.Session{
		AccountID: "acct-admin", Email: "admin@gym.test", Role: domainAccount.RoleAdmin, OnboardingComplete: true,
	}
	northManager = middleware.Session{
		AccountID: "acct-north", Email: "north@gym.test", Role: domainAccount.RoleManager, FranchiseID: "north", OnboardingComplete: true,
	}
	northStaff = middleware.Session{
		AccountID: "acct-staff", Email: "staff@gym.test", Role: domainAccount.RoleStaff, FranchiseID: "north", OnboardingComplete: true,
	}
)

// harness is a fully wired server over an in-memory database with two
// franchises: "north" (member ana) and "south" (member cy).
type harness struct {
	t      *testing.T
	h      http.Handler
	srv    *Server
	stores Stores
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := storagetest.Open(t)
	stores := Stores{
		AccountStore:   accountStore.NewSQLiteStore(db),
		MemberStore:    memberStore.NewSQLiteStore(db),
		TrainerStore:   trainerStore.NewSQLiteStore(db),
		CheckInStore:   checkInStore.NewSQLiteStore(db),
		PaymentStore:   paymentStore.NewSQLiteStore(db),
		ProductStore:   productStore.NewSQLiteStore(db),
		SaleStore:      saleStore.NewSQLiteStore(db),
		ScheduleStore:  scheduleStore.NewSQLiteStore(db),
		AccessLogStore: accessLogStore.NewSQLiteStore(db),
		FranchiseStore: franchiseStore.NewSQLiteStore(db),
		OutboxStore:    outboxStore.NewSQLiteStore(db),
	}
	cfg := &config.Config{
		App: config.AppConfig{Environment: "test"},
		Auth: config.AuthConfig{
			JWTSecret:  "test-secret-that-is-long-enough-to-sign",
			TokenTTL:   time.Hour,
			SessionTTL: time.Hour,
		},
		Alerts: config.AlertsConfig{
			Recipients:         []string{"ops@gym.test"},
			LowStockEnabled:    true,
			CapacityWarningPct: 90,
		},
	}
	h, srv, err := NewMux(Options{Stores: stores, Config: cfg, Now: func() time.Time { return testNow }})
	require.NoError(t, err)

	hs := &harness{t: t, h: h, srv: srv, stores: stores}
	hs.seed()
	return hs
}

func (hs *harness) seed() {
	ctx := context.Background()
	for _, f := range []franchise.Franchise{
		{ID: "north", Name: "North Side", Status: franchise.StatusActive},
		{ID: "south", Name: "South Side", Status: franchise.StatusActive},
	} {
		require.NoError(hs.t, hs.stores.FranchiseStore.Save(ctx, f))
	}
	for _, m := range []member.Member{
		{ID: "ana", FranchiseID: "north", Name: "Ana Lima", Email: "ana@gym.test", Package: "premium", Status: member.StatusActive, JoinedAt: testNow.AddDate(0, -2, 0)},
		{ID: "cy", FranchiseID: "south", Name: "Cy Okafor", Email: "cy@gym.test", Package: "basic", Status: member.StatusActive, JoinedAt: testNow.AddDate(0, -1, 0)},
	} {
		require.NoError(hs.t, hs.stores.MemberStore.Save(ctx, m))
	}
	require.NoError(hs.t, hs.stores.ProductStore.Save(ctx, product.Product{
		ID: "bar", FranchiseID: "north", SKU: "BAR-1", Name: "Protein Bar", Category: "supplements",
		Price: 350, Stock: 2, MinStock: 5, Status: product.StatusActive,
	}))
}

// api sends a JSON request authenticated with a bearer token for sess.
func (hs *harness) api(method, path, body string, sess middleware.Session) *httptest.ResponseRecorder {
	hs.t.Helper()
	req := newJSONRequest(method, path, body)
	if sess.AccountID != "" {
		token, _, err := hs.srv.tokens.Issue(sess)
		require.NoError(hs.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return serve(hs, req)
}

func newJSONRequest(method, path, body string) *http.Request {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(hs *harness, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	hs.h.ServeHTTP(rec, req)
	return rec
}

// page sends a browser request carrying a cookie session for sess.
func (hs *harness) page(method, path string, sess middleware.Session) *httptest.ResponseRecorder {
	hs.t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Accept", "text/html")
	if sess.AccountID != "" {
		token, err := hs.srv.sessions.Create(sess)
		require.NoError(hs.t, err)
		req.AddCookie(&http.Cookie{Name: "gymdash_session", Value: token})
	}
	rec := httptest.NewRecorder()
	hs.h.ServeHTTP(rec, req)
	return rec
}

// form posts url-encoded fields with a bearer token, which stands in for
// the CSRF token a browser would send.
func (hs *harness) form(path, body string, sess middleware.Session) *httptest.ResponseRecorder {
	hs.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	token, _, err := hs.srv.tokens.Issue(sess)
	require.NoError(hs.t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	hs.h.ServeHTTP(rec, req)
	return rec
}

func (hs *harness) createAccount(email, password, role, franchiseID string, onboarded bool) string {
	hs.t.Helper()
	id, err := orchestrators.ExecuteCreateAccount(context.Background(), orchestrators.CreateAccountInput{
		Email: email, Password: password, Role: role, FranchiseID: franchiseID, OnboardingComplete: onboarded,
	}, orchestrators.CreateAccountDeps{AccountStore: hs.stores.AccountStore, Now: func() time.Time { return testNow }})
	require.NoError(hs.t, err)
	return id
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	hs := newHarness(t)
	rec := hs.api(http.MethodGet, "/healthz", "", middleware.Session{})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestNewMux_RequiresConfig(t *testing.T) {
	_, _, err := NewMux(Options{})
	require.Error(t, err)
}

func TestNewMux_RejectsShortCSRFKey(t *testing.T) {
	_, _, err := NewMux(Options{Config: &config.Config{Auth: config.AuthConfig{CSRFKey: "short"}}})
	require.ErrorContains(t, err, "32 bytes")
}
