package clip

import (
	"fmt"
	"strings"
	"time"
)

// RecordingSession is one continuous recorder run for a feed, identified by
// its playlist timestamp. Sessions for the same feed may have gaps between
// them when the recorder restarts.
type RecordingSession struct {
	FeedID            string    `json:"feed_id"`
	PlaylistTimestamp string    `json:"playlist_timestamp"`
	StartTime         time.Time `json:"start_time"`
	StorageBucket     string    `json:"bucket"`
	BucketRegion      string    `json:"bucket_region"`
	PlaylistPath      string    `json:"playlist_m3u8_path"`
}

// ManifestURL returns the absolute URL of the session's playlist manifest.
func (s RecordingSession) ManifestURL() string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.StorageBucket, s.BucketRegion, s.PlaylistPath)
}

// SegmentURL resolves a segment path from the manifest against the manifest's
// own directory.
func (s RecordingSession) SegmentURL(path string) string {
	dir := ""
	if i := strings.LastIndexByte(s.PlaylistPath, '/'); i >= 0 {
		dir = s.PlaylistPath[:i+1]
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s%s",
		s.StorageBucket, s.BucketRegion, dir, path)
}

// SegmentDescriptor is one fixed-duration chunk of audio within a session.
// Segments within a session are contiguous; only session boundaries can
// introduce gaps.
type SegmentDescriptor struct {
	SessionID string    `json:"session_id"`
	Sequence  int       `json:"sequence"`
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	Duration  float64   `json:"duration_seconds"`
	StartTime time.Time `json:"start_time"`
}

// EndTime is the segment's absolute end instant.
func (s SegmentDescriptor) EndTime() time.Time {
	return s.StartTime.Add(durationOf(s.Duration))
}

// SessionSegments pairs a resolved session with its parsed segment list.
type SessionSegments struct {
	Session  RecordingSession
	Segments []SegmentDescriptor
}

// ClipAssemblyResult is the output of one assembly pipeline run.
type ClipAssemblyResult struct {
	Segments       []SegmentDescriptor
	TotalDuration  time.Duration
	DroppedSeconds int
	Artifact       []byte
}

// DurationString renders the clip duration as "M:SS".
func (r ClipAssemblyResult) DurationString() string {
	total := int(r.TotalDuration.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// durationOf converts fractional seconds to a time.Duration.
func durationOf(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
