package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/chepyr/milestone-tracker/internal/models"
	"github.com/chepyr/milestone-tracker/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handler struct {
	Service        *service.Service
	WSHub          *WSHub
	RateLimiter    *RateLimiter
	Logger         *zap.Logger
	RequestTimeout time.Duration
	AllowedOrigins []string
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter mounts every route on a fresh mux and wraps it with request
// logging and panic recovery.
func NewRouter(h *Handler) http.Handler {
	if h.Logger == nil {
		h.Logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/tasks", h.HandleTasks)
	mux.HandleFunc("/tasks/", h.HandleTaskByID)
	mux.HandleFunc("/milestones", h.HandleMilestones)
	mux.HandleFunc("/milestones/", h.HandleMilestoneByID)
	mux.HandleFunc("/ws", h.HandleWebSocket)
	mux.HandleFunc("/health", h.HandleHealth)
	mux.HandleFunc("/readyz", h.HandleReady)
	mux.Handle("/metrics", promhttp.Handler())
	return h.LogRequests(h.Recover(mux))
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	if err := h.Service.Ping(ctx); err != nil {
		h.Logger.Warn("readiness check failed", zap.Error(err))
		sendJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store_not_ready"})
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.RequestTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.RequestTimeout)
}

// sendServiceError maps a service error to a response: validation errors are
// 400, missing rows 404, and anything else storeCode. Store messages are
// passed through on 4xx; 5xx responses carry failMsg only.
func (h *Handler) sendServiceError(w http.ResponseWriter, err error, storeCode int, failMsg, notFoundMsg string) {
	switch {
	case service.IsValidation(err):
		h.Logger.Warn("request rejected", zap.String("reason", err.Error()))
		sendError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrNotFound):
		sendError(w, notFoundMsg, http.StatusNotFound)
	case storeCode >= http.StatusInternalServerError:
		sendError(w, failMsg, storeCode)
	default:
		sendError(w, err.Error(), storeCode)
	}
}

// decodeJSON reads a JSON body of at most 1MB into dst, writing a 400 and
// returning false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !isJSONContentType(r) {
		sendError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var nullErr *models.NullFieldError
		if errors.As(err, &nullErr) {
			sendError(w, nullErr.Error(), http.StatusBadRequest)
			return false
		}
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(strings.ToLower(ct), "application/json")
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func sendError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, status, errorResponse{Error: message})
}

// pathID returns the segment after prefix, e.g. "/tasks/" + id.
func pathID(r *http.Request, prefix string) string {
	return strings.TrimPrefix(r.URL.Path, prefix)
}
