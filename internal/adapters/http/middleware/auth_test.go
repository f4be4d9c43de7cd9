package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestGate(t *testing.T) {
	tests := []struct {
		name     string
		session  Session
		ok       bool
		redirect string
	}{
		{"anonymous", Session{}, false, "/login"},
		{"not onboarded", Session{AccountID: "a1"}, false, "/onboarding"},
		{"ready", Session{AccountID: "a1", OnboardingComplete: true}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotOK, gotRedirect := Gate(tt.session)
			assert.Equal(t, tt.ok, gotOK)
			assert.Equal(t, tt.redirect, gotRedirect)
		})
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	ss := NewSessionStore(time.Hour)
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	ss.now = func() time.Time { return now }

	token, err := ss.Create(Session{AccountID: "a1"})
	require.NoError(t, err)
	_, found := ss.Get(token)
	assert.True(t, found)

	now = now.Add(2 * time.Hour)
	_, found = ss.Get(token)
	assert.False(t, found)
}

func TestSessionStore_Cookies(t *testing.T) {
	for _, secure := range []bool{false, true} {
		ss := NewSessionStore(time.Hour)
		ss.SetSecure(secure)

		rec := httptest.NewRecorder()
		ss.SetCookie(rec, "tok")
		set := rec.Result().Cookies()
		require.Len(t, set, 1)
		assert.Equal(t, "tok", set[0].Value)
		assert.Equal(t, 3600, set[0].MaxAge)
		assert.True(t, set[0].HttpOnly)
		assert.Equal(t, secure, set[0].Secure)

		rec = httptest.NewRecorder()
		ss.ClearCookie(rec)
		cleared := rec.Result().Cookies()
		require.Len(t, cleared, 1)
		assert.Equal(t, "", cleared[0].Value)
		assert.Less(t, cleared[0].MaxAge, 0)
		assert.Equal(t, secure, cleared[0].Secure)
	}

	// One store's setting does not leak into another.
	plain := NewSessionStore(0)
	NewSessionStore(0).SetSecure(true)
	rec := httptest.NewRecorder()
	plain.SetCookie(rec, "tok")
	assert.False(t, rec.Result().Cookies()[0].Secure)
}

func TestRequireAuth(t *testing.T) {
	ss := NewSessionStore(0)
	ready, err := ss.Create(Session{AccountID: "a1", OnboardingComplete: true})
	require.NoError(t, err)
	fresh, err := ss.Create(Session{AccountID: "a2"})
	require.NoError(t, err)
	h := Auth(ss)(RequireAuth(noContent))

	tests := []struct {
		name     string
		path     string
		token    string
		code     int
		location string
	}{
		{"browser anonymous", "/members", "", http.StatusSeeOther, "/login"},
		{"browser onboarding", "/members", fresh, http.StatusSeeOther, "/onboarding"},
		{"browser ready", "/members", ready, http.StatusNoContent, ""},
		{"api anonymous", "/api/members", "", http.StatusUnauthorized, ""},
		{"api onboarding", "/api/members", fresh, http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: tt.token})
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.code, rr.Code)
			assert.Equal(t, tt.location, rr.Header().Get("Location"))
		})
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	ti := NewTokenIssuer("test-secret-test-secret", time.Hour)
	tok, exp, err := ti.Issue(Session{AccountID: "a1", Email: "a@gym.test", Role: "manager", FranchiseID: "f1", OnboardingComplete: true})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	s, err := ti.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "a1", s.AccountID)
	assert.Equal(t, "f1", s.FranchiseID)
	assert.True(t, s.OnboardingComplete)

	other := NewTokenIssuer("a-different-secret!!", time.Hour)
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	ti.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = ti.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")
}

func TestBearer(t *testing.T) {
	ti := NewTokenIssuer("test-secret-test-secret", time.Hour)
	tok, _, err := ti.Issue(Session{AccountID: "a1", OnboardingComplete: true})
	require.NoError(t, err)
	h := Bearer(ti)(RequireAuth(noContent))

	req := httptest.NewRequest("GET", "/api/members", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	req = httptest.NewRequest("GET", "/api/members", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json"))
}

func TestCSRF_ExemptsJSON(t *testing.T) {
	h := CSRF(CSRFOptions{Key: []byte(strings.Repeat("k", 32))})(noContent)

	req := httptest.NewRequest("POST", "/api/members", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	req = httptest.NewRequest("POST", "/members/m1/delete", strings.NewReader("confirm=yes"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
