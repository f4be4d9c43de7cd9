package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"gymdash/internal/adapters/http/middleware"
	"gymdash/internal/adapters/storage"
	"gymdash/internal/application/orchestrators"
	"gymdash/internal/application/projections"
	"gymdash/internal/domain/schedule"
)

// decodeAction reads, schema-checks and strictly decodes an action body.
func (s *Server) decodeAction(r *http.Request, schema string, v any) error {
	raw, err := readBody(r)
	if err != nil {
		return err
	}
	if err := s.schemas.validate(schema, raw); err != nil {
		return err
	}
	return strictDecode(raw, v)
}

// handleCheckOut closes the member's open check-in.
// POST /api/checkins/checkout {"member_id": "..."}
func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	var in orchestrators.CheckOutMemberInput
	if err := s.decodeAction(r, "checkout", &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.requireMember(r.Context(), in.MemberID); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := orchestrators.ExecuteCheckOutMember(r.Context(), in, s.checkInDeps())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleEnroll takes one seat in an event.
// POST /api/schedule-events/{id}/enroll
func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	s.enrollment(w, r, orchestrators.ExecuteEnroll)
}

// handleUnenroll releases one seat in an event.
// POST /api/schedule-events/{id}/unenroll
func (s *Server) handleUnenroll(w http.ResponseWriter, r *http.Request) {
	s.enrollment(w, r, orchestrators.ExecuteUnenroll)
}

func (s *Server) enrollment(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, string, orchestrators.EnrollDeps) (schedule.Event, error)) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	ev, err := s.stores.ScheduleStore.GetByID(ctx, id)
	if err == nil {
		if scope := middleware.FranchiseScope(ctx); scope != "" && ev.FranchiseID != scope {
			err = storage.NotFound("schedule event", id)
		}
	}
	if err == nil {
		ev, err = fn(ctx, id, s.enrollDeps())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// handlePaymentStatus moves a payment along its lifecycle.
// POST /api/payments/{id}/status {"status": "completed"}
func (s *Server) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	in := orchestrators.TransitionPaymentInput{PaymentID: chi.URLParam(r, "id")}
	if err := s.decodeAction(r, "payment-status", &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	current, err := s.stores.PaymentStore.GetByID(ctx, in.PaymentID)
	if err == nil {
		err = s.requireMember(ctx, current.MemberID)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := orchestrators.ExecuteTransitionPayment(ctx, in, s.paymentDeps())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleDashboard returns the summary cards for the caller's franchise.
// GET /api/dashboard[?franchise_id=]
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := projections.QueryDashboard(r.Context(), projections.DashboardQuery{FranchiseID: scopeFor(r)}, s.dashboardDeps(), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// alertRun is the response of a manual alert run.
type alertRun struct {
	orchestrators.AlertsResult
	Delivered int `json:"delivered"`
}

// handleRunAlerts runs the threshold checks now and, when a processor is
// wired, drains the outbox so the notices go out immediately.
// POST /api/alerts/run
func (s *Server) handleRunAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := orchestrators.ExecuteThresholdAlerts(ctx, s.alertsDeps())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := alertRun{AlertsResult: res}
	if s.outbox != nil && res.Enqueued > 0 {
		delivered, err := s.outbox.ProcessPending(ctx)
		if err != nil {
			s.logger.Warn("alerts_outbox_drain_failed", zap.Error(err))
		}
		out.Delivered = delivered
	}
	writeJSON(w, http.StatusOK, out)
}
