package clip

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// SessionDirectory looks up recording session metadata by feed and playlist
// timestamp. Implemented by HTTPSessionDirectory; faked in tests.
type SessionDirectory interface {
	Lookup(ctx context.Context, feedID, playlistTimestamp string) (RecordingSession, error)
}

// Resolver resolves playlist timestamps to recording sessions, deduplicating
// keys and tolerating per-key lookup failures.
type Resolver struct {
	dir SessionDirectory
	log *slog.Logger
}

// NewResolver returns a Resolver backed by dir.
func NewResolver(dir SessionDirectory, log *slog.Logger) *Resolver {
	return &Resolver{dir: dir, log: log}
}

// Resolve maps each distinct playlist timestamp to its session. Timestamps
// are deduplicated before lookup, and a failed lookup excludes only that
// session — the rest still resolve. Input order of first appearance is kept.
func (r *Resolver) Resolve(ctx context.Context, feedID string, playlistTimestamps []string) []RecordingSession {
	seen := make(map[string]struct{}, len(playlistTimestamps))
	sessions := make([]RecordingSession, 0, len(playlistTimestamps))

	for _, ts := range playlistTimestamps {
		if _, dup := seen[ts]; dup {
			continue
		}
		seen[ts] = struct{}{}

		session, err := r.dir.Lookup(ctx, feedID, ts)
		if err != nil {
			if ctx.Err() != nil {
				return sessions
			}
			r.log.Warn("session lookup failed, excluding session",
				slog.String("feed_id", feedID),
				slog.String("playlist_timestamp", ts),
				slog.String("error", err.Error()))
			continue
		}
		sessions = append(sessions, session)
	}

	return sessions
}

// HTTPSessionDirectory fetches session metadata from the external session
// directory over HTTP. Session records are immutable once written, so
// successful lookups are cached with a TTL.
type HTTPSessionDirectory struct {
	baseURL string
	client  *http.Client
	cache   *gocache.Cache
}

// NewHTTPSessionDirectory returns a directory client rooted at baseURL.
// If client is nil a default with a 30s timeout is used.
func NewHTTPSessionDirectory(baseURL string, client *http.Client) *HTTPSessionDirectory {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSessionDirectory{
		baseURL: baseURL,
		client:  client,
		cache:   gocache.New(10*time.Minute, 30*time.Minute),
	}
}

// Lookup implements SessionDirectory.
func (d *HTTPSessionDirectory) Lookup(ctx context.Context, feedID, playlistTimestamp string) (RecordingSession, error) {
	key := feedID + "|" + playlistTimestamp
	if cached, ok := d.cache.Get(key); ok {
		return cached.(RecordingSession), nil
	}

	url := fmt.Sprintf("%s/feeds/%s/sessions/%s", d.baseURL, feedID, playlistTimestamp)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return RecordingSession{}, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return RecordingSession{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RecordingSession{}, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	var session RecordingSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return RecordingSession{}, fmt.Errorf("decode %s: %w", url, err)
	}
	session.FeedID = feedID
	session.PlaylistTimestamp = playlistTimestamp

	d.cache.SetDefault(key, session)
	return session, nil
}
