package detection

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Source is the read-only client for the external event source that owns
// detections and feed metadata.
type Source struct {
	baseURL string
	client  *http.Client
}

// NewSource returns a Source rooted at baseURL. If client is nil a default
// with a 30s timeout is used.
func NewSource(baseURL string, client *http.Client) *Source {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Source{baseURL: baseURL, client: client}
}

// wireDetection is the event source's JSON representation. Categories arrive
// as free-form strings and are mapped to the closed enum at ingestion.
type wireDetection struct {
	HydrophoneID string    `json:"hydrophone_id"`
	Category     string    `json:"category"`
	Timestamp    time.Time `json:"timestamp"`
	Comment      string    `json:"comment"`
}

// Feeds lists all hydrophone feeds known to the event source.
func (s *Source) Feeds(ctx context.Context) ([]Feed, error) {
	var feeds []Feed
	if err := s.getJSON(ctx, s.baseURL+"/feeds", &feeds); err != nil {
		return nil, err
	}
	return feeds, nil
}

// Detections fetches all detections for one feed.
func (s *Source) Detections(ctx context.Context, feedID string) ([]Detection, error) {
	var wire []wireDetection
	if err := s.getJSON(ctx, s.baseURL+"/feeds/"+feedID+"/detections", &wire); err != nil {
		return nil, err
	}

	out := make([]Detection, len(wire))
	for i, w := range wire {
		out[i] = Detection{
			HydrophoneID: HydrophoneID(w.HydrophoneID),
			Category:     ParseCategory(w.Category),
			Timestamp:    w.Timestamp,
			Comment:      w.Comment,
		}
	}
	return out, nil
}

func (s *Source) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
