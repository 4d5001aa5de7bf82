package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	agentgateway "github.com/launchpath/agent-gateway"
	"github.com/launchpath/agent-gateway/internal/execlog"
	"github.com/launchpath/agent-gateway/internal/logging"
	"github.com/launchpath/agent-gateway/internal/metrics"
	"github.com/launchpath/agent-gateway/internal/sse"
)

// agentHandler serves POST /v1/agents/{agent}. Validation and rate-limit
// rejections are plain JSON responses; everything after that is an SSE
// stream that always ends with a done event.
func agentHandler(gw *agentgateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req agentgateway.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Endpoint = chi.URLParam(r, "agent")

		if err := req.Validate(); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		decision := gw.Limit(r.Context(), req.UserID, req.Endpoint)
		if !decision.Allowed {
			metrics.RequestsTotal.WithLabelValues(req.Endpoint, "rejected").Inc()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":        "rate limit exceeded",
				"retryAfterMs": decision.ResetAfter.Milliseconds(),
			})
			return
		}

		stream := sse.NewWriter(w)
		gw.Run(r.Context(), req, stream)
		if err := stream.Err(); err != nil {
			logging.FromContext(r.Context()).Debug("stream ended early",
				"endpoint", req.Endpoint, "error", err.Error())
		}
	}
}

// executionsHandler serves GET /v1/executions?userId=&limit= from the
// execution log. It returns 501 when the configured store keeps no log.
func executionsHandler(reader execlog.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			writeJSONError(w, http.StatusNotImplemented, "execution log is disabled for this store")
			return
		}
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			writeJSONError(w, http.StatusBadRequest, "userId query parameter is required")
			return
		}
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "limit must be an integer")
				return
			}
			limit = n
		}

		entries, err := reader.Recent(r.Context(), userID, limit)
		if err != nil {
			logging.FromContext(r.Context()).Error("execution list failed", "error", err.Error())
			writeJSONError(w, http.StatusInternalServerError, "could not list executions")
			return
		}
		if entries == nil {
			entries = []execlog.Entry{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"executions": entries})
	}
}

// writeJSONError writes a JSON error body with the given status.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
