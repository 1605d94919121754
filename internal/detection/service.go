package detection

import "context"

// DefaultWindowMinutes is the default clustering window when the caller does
// not supply one.
const DefaultWindowMinutes = 15

// EventSource supplies the detections to cluster. Satisfied by *Source.
type EventSource interface {
	Detections(ctx context.Context, feedID string) ([]Detection, error)
}

// Service runs clustering passes over a feed's detections.
type Service struct {
	source        EventSource
	windowMinutes int
}

// NewService returns a Service reading from source. windowMinutes is the
// default clustering window; if <= 0, DefaultWindowMinutes is used.
func NewService(source EventSource, windowMinutes int) *Service {
	if windowMinutes <= 0 {
		windowMinutes = DefaultWindowMinutes
	}
	return &Service{source: source, windowMinutes: windowMinutes}
}

// Candidates fetches the feed's detections and clusters them. windowMinutes
// <= 0 uses the service default; minCount <= 0 disables count filtering.
func (s *Service) Candidates(ctx context.Context, feedID string, windowMinutes int, order SortOrder, minCount int) ([]Candidate, error) {
	if windowMinutes <= 0 {
		windowMinutes = s.windowMinutes
	}

	detections, err := s.source.Detections(ctx, feedID)
	if err != nil {
		return nil, err
	}

	candidates := Cluster(detections, windowMinutes)
	if minCount > 0 {
		candidates = FilterByMinimumCount(candidates, minCount)
	}
	Sort(candidates, order)
	return candidates, nil
}
