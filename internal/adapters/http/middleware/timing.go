package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"gymdash/internal/adapters/http/perf"
	"gymdash/internal/logger"
	"gymdash/internal/metrics"
)

// DefaultSlowRequestMs is the default threshold for slow request warnings.
const DefaultSlowRequestMs = 200

// TimingOptions configures Timing.
type TimingOptions struct {
	Collector     *perf.Collector // optional
	Logger        *zap.Logger
	SlowRequestMs int // 0 means DefaultSlowRequestMs
}

// Timing returns middleware that logs request duration, feeds the perf
// collector and records Prometheus request metrics labelled by chi route
// pattern. Requests to /static/ and /metrics are excluded.
// Normal requests log at DEBUG; slow requests (above threshold) log at WARN.
func Timing(opts TimingOptions) func(http.Handler) http.Handler {
	threshold := float64(opts.SlowRequestMs)
	if threshold <= 0 {
		threshold = DefaultSlowRequestMs
	}
	log := logger.OrNop(opts.Logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if strings.HasPrefix(path, "/static/") || path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				elapsed := time.Since(start)
				durationMs := float64(elapsed.Microseconds()) / 1000.0

				route := routePattern(r)
				metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
				metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

				fields := []zap.Field{
					zap.String("request_id", chimw.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", path),
					zap.Int("status", status),
					zap.Float64("duration_ms", durationMs),
				}
				if durationMs >= threshold {
					log.Warn("slow_request", fields...)
				} else {
					log.Debug("request", fields...)
				}

				if opts.Collector != nil {
					opts.Collector.Record(perf.Entry{
						Kind:       perf.KindRequest,
						Path:       r.Method + " " + route,
						StatusCode: status,
						DurationMs: durationMs,
						Timestamp:  start,
					})
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// routePattern returns the matched chi pattern so metrics do not explode
// with one series per record ID. Unmatched requests share one label.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
