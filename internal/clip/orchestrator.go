package clip

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sync"
	"time"

	"hydroclip/internal/platform/metrics"

	"golang.org/x/sync/errgroup"
)

// TimestampIndex derives the playlist timestamps whose sessions may overlap
// a time window. Owned by the external detection/segment index.
type TimestampIndex interface {
	PlaylistTimestamps(ctx context.Context, feedID string, start, end time.Time) ([]string, error)
}

// AssemblyRequest identifies one clip assembly: a feed and a half-open
// [Start, End) window.
type AssemblyRequest struct {
	FeedID string
	Start  time.Time
	End    time.Time
}

func (r AssemblyRequest) key() string {
	return fmt.Sprintf("%s|%d|%d", r.FeedID, r.Start.UnixMilli(), r.End.UnixMilli())
}

type assemblyState int

const (
	statePending assemblyState = iota
	stateDone
	stateCancelled
)

// assemblyEntry tracks one request key through {pending, done, cancelled}.
// done entries pin their result; cancelled entries are removed so a later
// identical request can retry.
type assemblyEntry struct {
	state  assemblyState
	done   chan struct{}
	result ClipAssemblyResult
	err    error
}

// Orchestrator drives the end-to-end assembly pipeline: resolve sessions,
// parse manifests, select the window, fetch segments, transcode. A given
// request key runs at most once concurrently, and a completed key is never
// re-run; concurrent duplicates collapse onto the in-flight execution.
type Orchestrator struct {
	index      TimestampIndex
	resolver   *Resolver
	fetcher    *Fetcher
	transcoder Transcoder
	log        *slog.Logger
	metrics    *metrics.Metrics
	enabled    bool

	mu      sync.Mutex
	entries map[string]*assemblyEntry

	// transcodeMu serializes the exclusive transcoder worker across requests.
	transcodeMu sync.Mutex
}

// NewOrchestrator wires the pipeline. Metrics may be nil. If enabled is
// false every Assemble call returns ErrAssemblyDisabled.
func NewOrchestrator(index TimestampIndex, resolver *Resolver, fetcher *Fetcher, transcoder Transcoder, log *slog.Logger, m *metrics.Metrics, enabled bool) *Orchestrator {
	return &Orchestrator{
		index:      index,
		resolver:   resolver,
		fetcher:    fetcher,
		transcoder: transcoder,
		log:        log,
		metrics:    m,
		enabled:    enabled,
		entries:    make(map[string]*assemblyEntry),
	}
}

// ActiveAssemblies returns the number of pipelines currently in flight.
func (o *Orchestrator) ActiveAssemblies() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, e := range o.entries {
		if e.state == statePending {
			n++
		}
	}
	return n
}

// Assemble produces the clip for req, or returns the pinned result if this
// exact request already completed. Cancellation of ctx aborts all in-flight
// fetches, suppresses the result, and frees the key for a later retry;
// it is reported as ctx.Err(), never recorded as a failure.
func (o *Orchestrator) Assemble(ctx context.Context, req AssemblyRequest) (ClipAssemblyResult, error) {
	if !o.enabled {
		return ClipAssemblyResult{}, ErrAssemblyDisabled
	}

	key := req.key()

	o.mu.Lock()
	if e, ok := o.entries[key]; ok {
		o.mu.Unlock()
		return o.await(ctx, e)
	}
	entry := &assemblyEntry{state: statePending, done: make(chan struct{})}
	o.entries[key] = entry
	o.mu.Unlock()

	result, err := o.run(ctx, req)

	o.mu.Lock()
	if ctx.Err() != nil {
		entry.state = stateCancelled
		entry.err = ctx.Err()
		delete(o.entries, key)
	} else {
		entry.state = stateDone
		entry.result = result
		entry.err = err
	}
	close(entry.done)
	o.mu.Unlock()

	if ctx.Err() != nil {
		return ClipAssemblyResult{}, ctx.Err()
	}
	return result, err
}

// await blocks a duplicate request on the in-flight execution for the same key.
func (o *Orchestrator) await(ctx context.Context, e *assemblyEntry) (ClipAssemblyResult, error) {
	select {
	case <-e.done:
		if e.state == stateCancelled {
			return ClipAssemblyResult{}, context.Canceled
		}
		return e.result, e.err
	case <-ctx.Done():
		return ClipAssemblyResult{}, ctx.Err()
	}
}

// run executes the pipeline once for req.
func (o *Orchestrator) run(ctx context.Context, req AssemblyRequest) (ClipAssemblyResult, error) {
	timestamps, err := o.index.PlaylistTimestamps(ctx, req.FeedID, req.Start, req.End)
	if err != nil {
		return ClipAssemblyResult{}, fmt.Errorf("derive playlist timestamps: %w", err)
	}

	sessions := o.resolver.Resolve(ctx, req.FeedID, timestamps)
	if ctx.Err() != nil {
		return ClipAssemblyResult{}, ctx.Err()
	}

	withSegments, err := o.loadManifests(ctx, sessions)
	if err != nil {
		return ClipAssemblyResult{}, err
	}

	selected := SelectWindow(withSegments, req.Start, req.End)
	if len(selected) == 0 {
		return ClipAssemblyResult{}, ErrNoSegments
	}

	payloads, failed, err := o.fetcher.FetchSegments(ctx, selected)
	if err != nil {
		return ClipAssemblyResult{}, err
	}
	if o.metrics != nil {
		for range failed {
			o.metrics.IncSegmentFetchFailures()
		}
	}
	if len(payloads) == 0 {
		return ClipAssemblyResult{}, ErrNoSegments
	}

	artifact, err := o.transcode(ctx, payloads)
	if err != nil {
		return ClipAssemblyResult{}, err
	}

	result := ClipAssemblyResult{
		Segments:       selected,
		TotalDuration:  nominalDuration(selected),
		DroppedSeconds: o.droppedSeconds(req, selected, failed),
		Artifact:       artifact,
	}
	if o.metrics != nil {
		o.metrics.IncClipsAssembled()
		o.metrics.AddDroppedSeconds(result.DroppedSeconds)
	}
	o.log.Info("clip assembled",
		slog.String("feed_id", req.FeedID),
		slog.Int("segments", len(payloads)),
		slog.String("duration", result.DurationString()),
		slog.Int("dropped_seconds", result.DroppedSeconds))
	return result, nil
}

// loadManifests fetches and parses every session's manifest concurrently.
// A failed fetch or an empty parse excludes that session only.
func (o *Orchestrator) loadManifests(ctx context.Context, sessions []RecordingSession) ([]SessionSegments, error) {
	results := make([][]SegmentDescriptor, len(sessions))

	g, gctx := errgroup.WithContext(ctx)
	for i, session := range sessions {
		i, session := i, session
		g.Go(func() error {
			manifest, err := o.fetcher.FetchManifest(gctx, session.ManifestURL())
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				fetchErr := &ManifestFetchError{SessionID: session.PlaylistTimestamp, Err: err}
				o.log.Warn("manifest fetch failed, excluding session",
					slog.String("feed_id", session.FeedID),
					slog.String("error", fetchErr.Error()))
				if o.metrics != nil {
					o.metrics.IncManifestFetchFailures()
				}
				return nil
			}
			segments := ParseManifest(manifest, session.StartTime)
			for j := range segments {
				segments[j].SessionID = session.PlaylistTimestamp
				segments[j].URL = session.SegmentURL(segments[j].Path)
			}
			results[i] = segments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]SessionSegments, 0, len(sessions))
	for i, session := range sessions {
		if len(results[i]) > 0 {
			out = append(out, SessionSegments{Session: session, Segments: results[i]})
		}
	}
	return out, nil
}

// transcode hands the ordered payloads to the exclusive transcoder worker.
// All inputs are staged before the single concatenate call, and the worker
// is reset first so no state leaks across requests.
func (o *Orchestrator) transcode(ctx context.Context, payloads []SegmentPayload) ([]byte, error) {
	o.transcodeMu.Lock()
	defer o.transcodeMu.Unlock()

	if err := o.transcoder.Reset(); err != nil {
		return nil, &TranscodeError{Err: err}
	}

	names := make([]string, len(payloads))
	for i, p := range payloads {
		names[i] = fmt.Sprintf("%05d_%s", i, filepath.Base(p.Descriptor.Path))
		if err := o.transcoder.WriteInput(names[i], p.Data); err != nil {
			return nil, &TranscodeError{Err: err}
		}
	}

	artifact, err := o.transcoder.Concatenate(ctx, names)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TranscodeError{Err: err}
	}
	return artifact, nil
}

// nominalDuration sums the requested segments' advertised durations.
func nominalDuration(segments []SegmentDescriptor) time.Duration {
	var total time.Duration
	for _, seg := range segments {
		total += durationOf(seg.Duration)
	}
	return total
}

// droppedSeconds measures window time covered by no surviving segment:
// session-boundary gaps (including whole sessions lost to manifest failures)
// plus selected segments whose byte fetch failed. The two causes are kept
// separate for logging even though callers see one merged count.
func (o *Orchestrator) droppedSeconds(req AssemblyRequest, selected, failed []SegmentDescriptor) int {
	windowLen := req.End.Sub(req.Start)

	var selectedCover, failedCover time.Duration
	for _, seg := range selected {
		selectedCover += windowOverlap(seg, req.Start, req.End)
	}
	for _, seg := range failed {
		failedCover += windowOverlap(seg, req.Start, req.End)
	}

	gapDropped := windowLen - selectedCover
	if gapDropped < 0 {
		gapDropped = 0
	}

	gapSeconds := int(math.Round(gapDropped.Seconds()))
	fetchSeconds := int(math.Round(failedCover.Seconds()))
	if gapSeconds > 0 || fetchSeconds > 0 {
		o.log.Debug("window time dropped",
			slog.String("feed_id", req.FeedID),
			slog.Int("gap_seconds", gapSeconds),
			slog.Int("failed_fetch_seconds", fetchSeconds))
	}
	return gapSeconds + fetchSeconds
}

// windowOverlap is the length of a segment's intersection with [start, end).
func windowOverlap(seg SegmentDescriptor, start, end time.Time) time.Duration {
	s := seg.StartTime
	if s.Before(start) {
		s = start
	}
	e := seg.EndTime()
	if e.After(end) {
		e = end
	}
	if !e.After(s) {
		return 0
	}
	return e.Sub(s)
}
