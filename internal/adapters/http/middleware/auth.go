package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"

	domainAccount "gymdash/internal/domain/account"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const accountContextKey contextKey = "account"

// DefaultSessionTTL applies when NewSessionStore is given a non-positive ttl.
const DefaultSessionTTL = 24 * time.Hour

// Session represents an authenticated operator.
type Session struct {
	AccountID          string
	Email              string
	Role               string
	FranchiseID        string // empty for admins
	OnboardingComplete bool
	CreatedAt          time.Time
}

// SessionStore is an in-memory session store.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
	secure   bool
	now      func() time.Time
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// TTL is how long a session lives after creation.
func (ss *SessionStore) TTL() time.Duration { return ss.ttl }

// SetSecure marks the cookies written by SetCookie and ClearCookie Secure.
// Call it before serving; production deployments behind TLS set it.
func (ss *SessionStore) SetSecure(secure bool) { ss.secure = secure }

// Create stores a new session and returns the token.
// PRE: s.AccountID is non-empty
// POST: Session is stored with CreatedAt set, token is returned
func (ss *SessionStore) Create(s Session) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	s.CreatedAt = ss.now()
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[token] = s
	return token, nil
}

// Get retrieves a session by token.
// PRE: token is non-empty
// POST: Returns session if valid and not expired; expired sessions are dropped
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	session, ok := ss.sessions[token]
	if !ok {
		return Session{}, false
	}
	if ss.now().Sub(session.CreatedAt) > ss.ttl {
		delete(ss.sessions, token)
		return Session{}, false
	}
	return session, true
}

// Delete removes a session by token.
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

// Update replaces the session for a given token in-place.
// PRE: token exists in the store
// POST: Session is replaced with the new value, CreatedAt preserved
func (ss *SessionStore) Update(token string, session Session) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	old, ok := ss.sessions[token]
	if !ok {
		return false
	}
	session.CreatedAt = old.CreatedAt
	ss.sessions[token] = session
	return true
}

const sessionCookieName = "gymdash_session"

// SessionToken returns the raw session cookie value, if any.
func SessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// Auth returns middleware that extracts the session from the cookie and sets the account in context.
// It does NOT block unauthenticated requests; use RequireAuth or RequireRole for that.
func Auth(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := GetSessionFromContext(r.Context()); !ok {
				if token := SessionToken(r); token != "" {
					if session, ok := sessions.Get(token); ok {
						r = r.WithContext(ContextWithSession(r.Context(), session))
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Gate turns a session into the single "may use the dashboard" signal.
// A zero session redirects to /login; a session that has not finished
// onboarding redirects to /onboarding.
func Gate(s Session) (ok bool, redirect string) {
	if s.AccountID == "" {
		return false, "/login"
	}
	if !s.OnboardingComplete {
		return false, "/onboarding"
	}
	return true, ""
}

// wantsJSON reports whether the caller is an API client rather than a browser.
func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

func deny(w http.ResponseWriter, r *http.Request, status int, redirect string) {
	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"` + strings.ToLower(http.StatusText(status)) + `"}`))
		return
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// RequireAuth returns middleware that blocks requests failing the Gate.
// Browsers are redirected; API clients get 401 or 403.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := GetSessionFromContext(r.Context())
		if ok, redirect := Gate(session); !ok {
			status := http.StatusUnauthorized
			if session.AccountID != "" {
				status = http.StatusForbidden
			}
			deny(w, r, status, redirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole returns middleware that blocks requests from users without one of the specified roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := GetSessionFromContext(r.Context())
			if !ok {
				deny(w, r, http.StatusUnauthorized, "/login")
				return
			}
			if !roleSet[session.Role] {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(accountContextKey).(Session)
	return session, ok
}

// ContextWithSession returns a context with the given session set.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, accountContextKey, sess)
}

// SetCookie sets the session cookie for token, living as long as the session.
func (ss *SessionStore) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   ss.secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(ss.ttl.Seconds()),
	})
}

// ClearCookie removes the session cookie.
func (ss *SessionStore) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   ss.secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// IsRole checks if the current session has one of the given roles.
func IsRole(ctx context.Context, roles ...string) bool {
	session, ok := GetSessionFromContext(ctx)
	if !ok {
		return false
	}
	for _, r := range roles {
		if session.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin checks if the current session is an admin.
func IsAdmin(ctx context.Context) bool {
	return IsRole(ctx, domainAccount.RoleAdmin)
}

// FranchiseScope returns the franchise a session is limited to. Admins are
// unscoped and get "".
func FranchiseScope(ctx context.Context) string {
	session, ok := GetSessionFromContext(ctx)
	if !ok || session.Role == domainAccount.RoleAdmin {
		return ""
	}
	return session.FranchiseID
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
