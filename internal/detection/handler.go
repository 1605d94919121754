package detection

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"hydroclip/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the clustering engine over HTTP using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler for svc. Metrics may be nil (e.g. in tests).
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, log: log, metrics: m}
}

// Candidates handles GET /feeds/{feed_id}/candidates.
// Query params: window_min (int), order (desc|asc|reports), min_detections (int).
func (h *Handler) Candidates(w http.ResponseWriter, r *http.Request) {
	feedID := chi.URLParam(r, "feed_id")
	if feedID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	windowMinutes := queryInt(r, "window_min", 0)
	minCount := queryInt(r, "min_detections", 0)
	order := SortOrder(r.URL.Query().Get("order"))

	candidates, err := h.svc.Candidates(r.Context(), feedID, windowMinutes, order, minCount)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		h.log.Error("candidate clustering failed",
			slog.String("feed_id", feedID),
			slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	if h.metrics != nil {
		h.metrics.AddCandidatesBuilt(len(candidates))
	}
	h.log.Debug("candidates built",
		slog.String("feed_id", feedID),
		slog.Int("count", len(candidates)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(candidates); err != nil {
		h.log.Debug("candidate response write failed", slog.String("error", err.Error()))
	}
}

// queryInt parses an integer query parameter, returning fallback when the
// parameter is absent or invalid.
func queryInt(r *http.Request, key string, fallback int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
