package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL applies when NewTokenIssuer is given a non-positive ttl.
const DefaultTokenTTL = time.Hour

const tokenIssuer = "gymdash"

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of an API bearer token.
type Claims struct {
	Email       string `json:"email"`
	Role        string `json:"role"`
	FranchiseID string `json:"franchise_id,omitempty"`
	Onboarded   bool   `json:"onboarded"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. An empty secret disables bearer auth.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Enabled reports whether a signing secret is configured.
func (ti *TokenIssuer) Enabled() bool { return ti != nil && len(ti.secret) > 0 }

// Issue signs a token for s.
// PRE: Enabled()
// POST: returns the token and its expiry
func (ti *TokenIssuer) Issue(s Session) (string, time.Time, error) {
	now := ti.now()
	exp := now.Add(ti.ttl)
	claims := Claims{
		Email:       s.Email,
		Role:        s.Role,
		FranchiseID: s.FranchiseID,
		Onboarded:   s.OnboardingComplete,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   s.AccountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies a token and returns the session it carries.
func (ti *TokenIssuer) Parse(raw string) (Session, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return Session{}, ErrInvalidToken
	}
	return Session{
		AccountID:          claims.Subject,
		Email:              claims.Email,
		Role:               claims.Role,
		FranchiseID:        claims.FranchiseID,
		OnboardingComplete: claims.Onboarded,
		CreatedAt:          claims.IssuedAt.Time,
	}, nil
}

// Bearer returns middleware that authenticates "Authorization: Bearer" requests.
// Requests without the header pass through untouched so the cookie session
// can apply; a present but invalid token is rejected with 401.
func Bearer(ti *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}
			if !ti.Enabled() {
				deny(w, r, http.StatusUnauthorized, "/login")
				return
			}
			session, err := ti.Parse(strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				deny(w, r, http.StatusUnauthorized, "/login")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), session)))
		})
	}
}
