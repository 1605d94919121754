package clip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPTimestampIndex queries the external detection/segment index for the
// playlist timestamps overlapping a window.
type HTTPTimestampIndex struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTimestampIndex returns an index client rooted at baseURL. If client
// is nil a default with a 30s timeout is used.
func NewHTTPTimestampIndex(baseURL string, client *http.Client) *HTTPTimestampIndex {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPTimestampIndex{baseURL: baseURL, client: client}
}

// PlaylistTimestamps implements TimestampIndex.
func (x *HTTPTimestampIndex) PlaylistTimestamps(ctx context.Context, feedID string, start, end time.Time) ([]string, error) {
	q := url.Values{}
	q.Set("start", start.UTC().Format(time.RFC3339))
	q.Set("end", end.UTC().Format(time.RFC3339))
	u := fmt.Sprintf("%s/feeds/%s/playlist_timestamps?%s", x.baseURL, feedID, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", u, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", u, resp.StatusCode)
	}

	var timestamps []string
	if err := json.NewDecoder(resp.Body).Decode(&timestamps); err != nil {
		return nil, fmt.Errorf("decode %s: %w", u, err)
	}
	return timestamps, nil
}
