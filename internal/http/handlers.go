package http

import (
	"context"
	"net/http"
	"time"
)

func handleWelcome(w http.ResponseWriter, _ *http.Request) {
	MessageResponse(http.StatusOK, welcomeMessage).Write(w)
}

// handleHealth performs a basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks that the record store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, code := "ready", http.StatusOK
	checks := map[string]string{"store": "ok"}

	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			checks["store"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		}
	}

	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	NewJSONResponse().Status(code).Body(map[string]any{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"metrics": map[string]any{
			"total_requests":      traceMetrics.TotalRequests,
			"server_errors":       traceMetrics.ServerErrors,
			"rate_limited":        limitMetrics.Rejected,
			"suspicious_requests": s.detector.GetMetrics().SuspiciousRequests,
		},
	}).Write(w)
}
