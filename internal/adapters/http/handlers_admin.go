package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"gymdash/internal/application/orchestrators"
	"gymdash/internal/domain/outbox"
)

const (
	defaultOutboxLimit = 50
	maxOutboxLimit     = 100
	defaultPerfWindow  = 15 * time.Minute
	defaultPerfTop     = 10
)

// handleAdminPerf reports request and query latency from the in-memory ring.
// GET /api/admin/perf[?since=15m&top=10]
func (s *Server) handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "performance collection is disabled"})
		return
	}
	window := defaultPerfWindow
	if v := r.URL.Query().Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "since must be a positive duration like 15m"})
			return
		}
		window = d
	}
	top := defaultPerfTop
	if n, err := strconv.Atoi(r.URL.Query().Get("top")); err == nil && n > 0 {
		top = n
	}
	writeJSON(w, http.StatusOK, s.collector.Snapshot(s.now().Add(-window), top))
}

// outboxProcessor returns the wired processor, or one without executors for
// servers started without delivery. Retrying through the latter records a
// failed attempt.
func (s *Server) outboxProcessor() *orchestrators.OutboxProcessor {
	if s.outbox != nil {
		return s.outbox
	}
	return orchestrators.NewOutboxProcessor(s.stores.OutboxStore, nil, s.logger)
}

// handleAdminOutboxList lists failed entries, or everything still queued
// with ?status=all.
// GET /api/admin/outbox[?status=all&limit=50]
func (s *Server) handleAdminOutboxList(w http.ResponseWriter, r *http.Request) {
	limit := defaultOutboxLimit
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= maxOutboxLimit {
		limit = n
	}

	var (
		entries []outbox.Entry
		err     error
	)
	if r.URL.Query().Get("status") == "all" {
		entries, err = s.stores.OutboxStore.ListPending(r.Context(), limit)
	} else {
		entries, err = s.stores.OutboxStore.ListFailed(r.Context(), limit)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []outbox.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleAdminOutboxRetry delivers one entry now.
// POST /api/admin/outbox/{id}/retry
func (s *Server) handleAdminOutboxRetry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.outboxProcessor().ProcessSingle(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("outbox_retry", zap.String("entry_id", id))
	writeJSON(w, http.StatusOK, map[string]string{"status": "retry triggered"})
}

// handleAdminOutboxAbandon stops further delivery attempts for one entry.
// POST /api/admin/outbox/{id}/abandon
func (s *Server) handleAdminOutboxAbandon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.outboxProcessor().AbandonEntry(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("outbox_abandoned", zap.String("entry_id", id))
	writeJSON(w, http.StatusOK, map[string]string{"status": "abandoned"})
}
