package http

import (
	"net/http"

	"wealth/internal/advisor"
	"wealth/internal/log"
)

type recommendationsResponse struct {
	Success bool            `json:"success"`
	Data    *advisor.Result `json:"data"`
}

type healthResponse struct {
	Success bool `json:"success"`
	advisor.HealthStatus
}

type recommendationHandlers struct {
	pipeline *advisor.Pipeline
}

// recommendations runs one pipeline pass. Only a record store failure is
// surfaced; inference problems are absorbed by the fallback list.
func (h recommendationHandlers) recommendations(w http.ResponseWriter, r *http.Request) {
	result, err := h.pipeline.Run(r.Context())
	if err != nil {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Failed to generate recommendations", err, log.OpAggregate, nil)
		InternalServerError("Failed to generate recommendations", err).Write(w)
		return
	}
	NewJSONResponse().Body(recommendationsResponse{Success: true, Data: result}).WriteContext(r.Context(), w)
}

// probe always answers 200; failure is reported in the body.
func (h recommendationHandlers) probe(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(h.pipeline.Probe(r.Context())).WriteContext(r.Context(), w)
}

func (h recommendationHandlers) health(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(healthResponse{Success: true, HealthStatus: h.pipeline.Health()}).Write(w)
}
