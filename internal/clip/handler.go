package clip

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"hydroclip/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

const clipContentType = "audio/mpeg"

// clipRequest is the JSON body for POST /feeds/{feed_id}/clip.
type clipRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Handler exposes clip assembly over HTTP using go-chi.
type Handler struct {
	orch    *Orchestrator
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler for orch. Metrics may be nil (e.g. in tests).
func NewHandler(orch *Orchestrator, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{orch: orch, log: log, metrics: m}
}

// AssembleClip handles POST /feeds/{feed_id}/clip.
// Body: { "start_time": "2023-07-01T12:03:00Z", "end_time": "..." }.
// Responds with the audio artifact and X-Clip-Duration / X-Dropped-Seconds
// headers.
func (h *Handler) AssembleClip(w http.ResponseWriter, r *http.Request) {
	feedID := chi.URLParam(r, "feed_id")
	if feedID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var body clipRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.log.Debug("invalid clip request body", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if body.StartTime.IsZero() || body.EndTime.IsZero() || !body.StartTime.Before(body.EndTime) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	req := AssemblyRequest{FeedID: feedID, Start: body.StartTime, End: body.EndTime}
	result, err := h.orch.Assemble(r.Context(), req)
	if err != nil {
		h.writeAssembleError(w, feedID, err)
		return
	}

	h.log.Info("clip served",
		slog.String("feed_id", feedID),
		slog.String("duration", result.DurationString()),
		slog.Int("dropped_seconds", result.DroppedSeconds))

	w.Header().Set("Content-Type", clipContentType)
	w.Header().Set("X-Clip-Duration", result.DurationString())
	w.Header().Set("X-Dropped-Seconds", strconv.Itoa(result.DroppedSeconds))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Artifact); err != nil {
		h.log.Debug("clip response write failed", slog.String("error", err.Error()))
	}
}

func (h *Handler) writeAssembleError(w http.ResponseWriter, feedID string, err error) {
	var transcodeErr *TranscodeError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away; nothing to report.
		return
	case errors.Is(err, ErrAssemblyDisabled):
		w.WriteHeader(http.StatusServiceUnavailable)
	case errors.Is(err, ErrNoSegments):
		h.log.Info("no audio available",
			slog.String("feed_id", feedID))
		w.WriteHeader(http.StatusNotFound)
	case errors.As(err, &transcodeErr):
		h.log.Error("clip transcode failed",
			slog.String("feed_id", feedID),
			slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadGateway)
	default:
		h.log.Error("clip assembly failed",
			slog.String("feed_id", feedID),
			slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
	}
}
