package clip

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// SegmentPayload is a selected segment together with its fetched bytes.
type SegmentPayload struct {
	Descriptor SegmentDescriptor
	Data       []byte
}

// Fetcher retrieves manifest text and segment payloads over HTTP.
type Fetcher struct {
	client *http.Client
	log    *slog.Logger
}

// NewFetcher returns a Fetcher. If client is nil a default with a 60s
// timeout is used.
func NewFetcher(client *http.Client, log *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Fetcher{client: client, log: log}
}

// FetchManifest retrieves a session's playlist manifest as UTF-8 text.
func (f *Fetcher) FetchManifest(ctx context.Context, url string) (string, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchSegments retrieves every segment's bytes concurrently. A failed fetch
// excludes that segment and is reported in failed; it never aborts the
// others. Surviving payloads keep the input order. A non-nil error is
// returned only when ctx is cancelled, in which case partial results are
// discarded.
func (f *Fetcher) FetchSegments(ctx context.Context, segments []SegmentDescriptor) (payloads []SegmentPayload, failed []SegmentDescriptor, err error) {
	results := make([][]byte, len(segments))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, seg := range segments {
		i, seg := i, seg
		g.Go(func() error {
			data, err := f.get(gctx, seg.URL)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				fetchErr := &SegmentFetchError{URL: seg.URL, Err: err}
				f.log.Warn("segment fetch failed, excluding segment",
					slog.String("session_id", seg.SessionID),
					slog.Int("sequence", seg.Sequence),
					slog.String("error", fetchErr.Error()))
				mu.Lock()
				failed = append(failed, seg)
				mu.Unlock()
				return nil
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	payloads = make([]SegmentPayload, 0, len(segments))
	for i, seg := range segments {
		if results[i] != nil {
			payloads = append(payloads, SegmentPayload{Descriptor: seg, Data: results[i]})
		}
	}
	return payloads, failed, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
