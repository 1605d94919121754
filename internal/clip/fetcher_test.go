package clip

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedFetcher() (*Fetcher, *httpmock.MockTransport) {
	transport := httpmock.NewMockTransport()
	client := &http.Client{Transport: transport}
	return NewFetcher(client, discardLogger()), transport
}

func TestFetcher_FetchManifest(t *testing.T) {
	f, transport := newMockedFetcher()
	transport.RegisterResponder(http.MethodGet, "http://cdn.test/live.m3u8",
		httpmock.NewStringResponder(http.StatusOK, threeSegmentManifest))

	manifest, err := f.FetchManifest(context.Background(), "http://cdn.test/live.m3u8")
	require.NoError(t, err)
	assert.Contains(t, manifest, "#EXTINF:10.0,")
}

func TestFetcher_FetchManifest_error(t *testing.T) {
	f, transport := newMockedFetcher()
	transport.RegisterResponder(http.MethodGet, "http://cdn.test/live.m3u8",
		httpmock.NewStringResponder(http.StatusForbidden, "denied"))

	_, err := f.FetchManifest(context.Background(), "http://cdn.test/live.m3u8")
	assert.ErrorContains(t, err, "unexpected status 403")
}

func segmentWithURL(sequence int, url string) SegmentDescriptor {
	return SegmentDescriptor{
		SessionID: "s1",
		Sequence:  sequence,
		URL:       url,
		Duration:  10,
		StartTime: sessionStart.Add(time.Duration(sequence) * 10 * time.Second),
	}
}

func TestFetcher_FetchSegments_keepsOrder(t *testing.T) {
	f, transport := newMockedFetcher()
	transport.RegisterResponder(http.MethodGet, "http://cdn.test/live000.ts",
		httpmock.NewBytesResponder(http.StatusOK, []byte("AAA")))
	transport.RegisterResponder(http.MethodGet, "http://cdn.test/live001.ts",
		httpmock.NewBytesResponder(http.StatusOK, []byte("BBB")))

	segments := []SegmentDescriptor{
		segmentWithURL(0, "http://cdn.test/live000.ts"),
		segmentWithURL(1, "http://cdn.test/live001.ts"),
	}

	payloads, failed, err := f.FetchSegments(context.Background(), segments)
	require.NoError(t, err)
	assert.Empty(t, failed)
	require.Len(t, payloads, 2)
	assert.Equal(t, []byte("AAA"), payloads[0].Data)
	assert.Equal(t, []byte("BBB"), payloads[1].Data)
}

func TestFetcher_FetchSegments_failureExcludesSegment(t *testing.T) {
	f, transport := newMockedFetcher()
	transport.RegisterResponder(http.MethodGet, "http://cdn.test/live000.ts",
		httpmock.NewBytesResponder(http.StatusOK, []byte("AAA")))
	transport.RegisterResponder(http.MethodGet, "http://cdn.test/live001.ts",
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))
	transport.RegisterResponder(http.MethodGet, "http://cdn.test/live002.ts",
		httpmock.NewBytesResponder(http.StatusOK, []byte("CCC")))

	segments := []SegmentDescriptor{
		segmentWithURL(0, "http://cdn.test/live000.ts"),
		segmentWithURL(1, "http://cdn.test/live001.ts"),
		segmentWithURL(2, "http://cdn.test/live002.ts"),
	}

	payloads, failed, err := f.FetchSegments(context.Background(), segments)
	require.NoError(t, err, "a single bad segment must not fail the batch")
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].Sequence)
	require.Len(t, payloads, 2)
	assert.Equal(t, 0, payloads[0].Descriptor.Sequence)
	assert.Equal(t, 2, payloads[1].Descriptor.Sequence)
}

func TestFetcher_FetchSegments_cancelled(t *testing.T) {
	f, transport := newMockedFetcher()
	transport.RegisterResponder(http.MethodGet, "http://cdn.test/live000.ts",
		httpmock.NewBytesResponder(http.StatusOK, []byte("AAA")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := f.FetchSegments(ctx, []SegmentDescriptor{
		segmentWithURL(0, "http://cdn.test/live000.ts"),
	})
	assert.ErrorIs(t, err, context.Canceled)
}
