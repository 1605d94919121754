package clip

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDirectory serves sessions from a map and counts lookups.
type fakeDirectory struct {
	sessions map[string]RecordingSession
	lookups  int
}

func (d *fakeDirectory) Lookup(_ context.Context, feedID, playlistTimestamp string) (RecordingSession, error) {
	d.lookups++
	s, ok := d.sessions[playlistTimestamp]
	if !ok {
		return RecordingSession{}, errors.New("not found")
	}
	s.FeedID = feedID
	s.PlaylistTimestamp = playlistTimestamp
	return s, nil
}

func TestResolver_deduplicatesTimestamps(t *testing.T) {
	dir := &fakeDirectory{sessions: map[string]RecordingSession{
		"1688212800": {StartTime: sessionStart},
	}}
	r := NewResolver(dir, discardLogger())

	sessions := r.Resolve(context.Background(), "feed1",
		[]string{"1688212800", "1688212800", "1688212800"})

	require.Len(t, sessions, 1)
	assert.Equal(t, 1, dir.lookups, "duplicate keys resolved once")
}

func TestResolver_partialFailureExcludesOnlyThatSession(t *testing.T) {
	dir := &fakeDirectory{sessions: map[string]RecordingSession{
		"a": {StartTime: sessionStart},
		"c": {StartTime: sessionStart.Add(time.Hour)},
	}}
	r := NewResolver(dir, discardLogger())

	sessions := r.Resolve(context.Background(), "feed1", []string{"a", "missing", "c"})

	require.Len(t, sessions, 2)
	assert.Equal(t, "a", sessions[0].PlaylistTimestamp)
	assert.Equal(t, "c", sessions[1].PlaylistTimestamp)
}

func TestHTTPSessionDirectory_lookupAndCache(t *testing.T) {
	transport := httpmock.NewMockTransport()
	client := &http.Client{Transport: transport}
	transport.RegisterResponder(http.MethodGet,
		"http://directory.test/feeds/feed1/sessions/1688212800",
		httpmock.NewStringResponder(http.StatusOK, `{
			"start_time": "2023-07-01T12:00:00Z",
			"bucket": "streaming-orcasound-net",
			"bucket_region": "us-west-2",
			"playlist_m3u8_path": "feed1/hls/1688212800/live.m3u8"
		}`))

	dir := NewHTTPSessionDirectory("http://directory.test", client)

	session, err := dir.Lookup(context.Background(), "feed1", "1688212800")
	require.NoError(t, err)
	assert.Equal(t, "feed1", session.FeedID)
	assert.Equal(t, "1688212800", session.PlaylistTimestamp)
	assert.Equal(t, sessionStart, session.StartTime)
	assert.Equal(t,
		"https://streaming-orcasound-net.s3.us-west-2.amazonaws.com/feed1/hls/1688212800/live.m3u8",
		session.ManifestURL())
	assert.Equal(t,
		"https://streaming-orcasound-net.s3.us-west-2.amazonaws.com/feed1/hls/1688212800/live000.ts",
		session.SegmentURL("live000.ts"))

	// Second lookup is served from cache, not the network.
	_, err = dir.Lookup(context.Background(), "feed1", "1688212800")
	require.NoError(t, err)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestHTTPSessionDirectory_notFound(t *testing.T) {
	transport := httpmock.NewMockTransport()
	client := &http.Client{Transport: transport}
	transport.RegisterResponder(http.MethodGet,
		"http://directory.test/feeds/feed1/sessions/nope",
		httpmock.NewStringResponder(http.StatusNotFound, "no such session"))

	dir := NewHTTPSessionDirectory("http://directory.test", client)
	_, err := dir.Lookup(context.Background(), "feed1", "nope")
	assert.ErrorContains(t, err, "unexpected status 404")
}
