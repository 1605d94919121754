package detection

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedSource(t *testing.T) (*Source, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	client := &http.Client{Transport: transport}
	return NewSource("http://events.test/api", client), transport
}

func TestSource_Detections(t *testing.T) {
	src, transport := newMockedSource(t)
	transport.RegisterResponder(http.MethodGet, "http://events.test/api/feeds/feed1/detections",
		httpmock.NewStringResponder(http.StatusOK, `[
			{"hydrophone_id":"H1","category":"whale","timestamp":"2023-07-01T12:00:00Z","comment":"clear calls"},
			{"hydrophone_id":"H1","category":"mystery","timestamp":"2023-07-01T12:01:00Z"}
		]`))

	detections, err := src.Detections(context.Background(), "feed1")
	require.NoError(t, err)
	require.Len(t, detections, 2)

	assert.Equal(t, HydrophoneID("H1"), detections[0].HydrophoneID)
	assert.Equal(t, CategoryWhaleHuman, detections[0].Category)
	assert.Equal(t, "clear calls", detections[0].Comment)
	assert.Equal(t, CategoryOther, detections[1].Category, "unknown category maps to other")
}

func TestSource_Detections_upstreamError(t *testing.T) {
	src, transport := newMockedSource(t)
	transport.RegisterResponder(http.MethodGet, "http://events.test/api/feeds/feed1/detections",
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	_, err := src.Detections(context.Background(), "feed1")
	assert.ErrorContains(t, err, "unexpected status 500")
}

func TestSource_Feeds(t *testing.T) {
	src, transport := newMockedSource(t)
	transport.RegisterResponder(http.MethodGet, "http://events.test/api/feeds",
		httpmock.NewStringResponder(http.StatusOK, `[
			{"id":"feed1","name":"Orcasound Lab","slug":"orcasound-lab",
			 "bounds":{"min_lat":48.5,"max_lat":48.6,"min_lon":-123.2,"max_lon":-123.1}}
		]`))

	feeds, err := src.Feeds(context.Background())
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, "orcasound-lab", feeds[0].Slug)
	assert.Equal(t, 48.5, feeds[0].Bounds.MinLat)
}
