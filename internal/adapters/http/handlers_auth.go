package web

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gymdash/internal/adapters/http/middleware"
	"gymdash/internal/application/orchestrators"
)

type loginPage struct {
	Email string
	Error string
}

func sessionFromLogin(res orchestrators.LoginResult) middleware.Session {
	return middleware.Session{
		AccountID:          res.AccountID,
		Email:              res.Email,
		Role:               res.Role,
		FranchiseID:        res.FranchiseID,
		OnboardingComplete: res.OnboardingComplete,
	}
}

func (s *Server) loginDeps() orchestrators.LoginDeps {
	return orchestrators.LoginDeps{AccountStore: s.stores.AccountStore, Logger: s.logger, Now: s.now}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		if ok, redirect := middleware.Gate(sess); ok {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		} else if redirect == "/onboarding" {
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}
	}
	s.render(w, r, "login", pageData{Title: "Sign in", Body: loginPage{}})
}

// handleLogin authenticates a form post and starts a cookie session.
// POST: on success the browser is sent to onboarding or the dashboard
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := r.PostForm.Get("email")
	res, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    email,
		Password: r.PostForm.Get("password"),
	}, s.loginDeps())
	if err != nil {
		status, msg := loginFailure(err)
		if status == http.StatusInternalServerError {
			s.internalError(r, err)
		}
		s.render(w, r, "login", pageData{Title: "Sign in", Status: status, Body: loginPage{Email: email, Error: msg}})
		return
	}

	token, err := s.sessions.Create(sessionFromLogin(res))
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	s.sessions.SetCookie(w, token)
	target := "/dashboard"
	if !res.OnboardingComplete {
		target = "/onboarding"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func loginFailure(err error) (int, string) {
	switch {
	case errors.Is(err, orchestrators.ErrAccountLocked):
		return http.StatusLocked, "Too many failed attempts. Try again later."
	case errors.Is(err, orchestrators.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password."
	}
	return http.StatusInternalServerError, "Sign in is unavailable right now."
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		s.sessions.Delete(token)
	}
	s.sessions.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token              string    `json:"token"`
	ExpiresAt          time.Time `json:"expires_at"`
	OnboardingComplete bool      `json:"onboarding_complete"`
}

// handleToken exchanges credentials for a bearer token for API clients.
// POST /api/token {"email": "...", "password": "..."}
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if !s.tokens.Enabled() {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "bearer tokens are not configured"})
		return
	}
	var in tokenRequest
	if err := s.decodeAction(r, "token", &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput(in), s.loginDeps())
	if err != nil {
		status, msg := loginFailure(err)
		if status == http.StatusInternalServerError {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, status, errorBody{Error: msg})
		return
	}
	token, exp, err := s.tokens.Issue(sessionFromLogin(res))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("token_issued", zap.String("account_id", res.AccountID))
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: exp, OnboardingComplete: res.OnboardingComplete})
}

type onboardingPage struct {
	Email string
	Error string
}

// onboardingSession returns the signed-in session, redirecting anonymous
// callers to the login page.
func onboardingSession(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok || sess.AccountID == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return middleware.Session{}, false
	}
	return sess, true
}

func (s *Server) handleOnboardingPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := onboardingSession(w, r)
	if !ok {
		return
	}
	if sess.OnboardingComplete {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, "onboarding", pageData{Title: "Set your password", Body: onboardingPage{Email: sess.Email}})
}

// handleOnboarding replaces the seeded password and unlocks the dashboard.
func (s *Server) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	sess, ok := onboardingSession(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	fail := func(status int, msg string) {
		s.render(w, r, "onboarding", pageData{Title: "Set your password", Status: status, Body: onboardingPage{Email: sess.Email, Error: msg}})
	}
	newPassword := r.PostForm.Get("new_password")
	if newPassword != r.PostForm.Get("confirm_password") {
		fail(http.StatusUnprocessableEntity, "The new passwords do not match.")
		return
	}
	err := orchestrators.ExecuteCompleteOnboarding(r.Context(), orchestrators.CompleteOnboardingInput{
		AccountID:       sess.AccountID,
		CurrentPassword: r.PostForm.Get("current_password"),
		NewPassword:     newPassword,
	}, orchestrators.CompleteOnboardingDeps{AccountStore: s.stores.AccountStore, Logger: s.logger})
	switch {
	case err == nil:
	case errors.Is(err, orchestrators.ErrCurrentPasswordWrong), errors.Is(err, orchestrators.ErrNewPasswordSame):
		fail(http.StatusUnprocessableEntity, err.Error())
		return
	default:
		if errorStatus(err) == http.StatusUnprocessableEntity {
			fail(http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.pageError(w, r, err)
		return
	}

	sess.OnboardingComplete = true
	if token := middleware.SessionToken(r); token != "" {
		s.sessions.Update(token, sess)
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
