package clip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionStart = time.Date(2023, 7, 1, 12, 0, 0, 0, time.UTC)

const threeSegmentManifest = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:0

#EXTINF:10.0,
live000.ts
#EXTINF:10.0,
live001.ts
#EXTINF:10.0,
live002.ts
#EXT-X-ENDLIST
`

func TestParseManifest_absoluteOffsets(t *testing.T) {
	segments := ParseManifest(threeSegmentManifest, sessionStart)
	require.Len(t, segments, 3)

	for i, seg := range segments {
		assert.Equal(t, i, seg.Sequence)
		assert.Equal(t, 10.0, seg.Duration)
		assert.Equal(t, sessionStart.Add(time.Duration(i)*10*time.Second), seg.StartTime)
	}
	assert.Equal(t, "live002.ts", segments[2].Path)
	assert.Equal(t, sessionStart.Add(30*time.Second), segments[2].EndTime())
}

func TestParseManifest_durationRoundTrip(t *testing.T) {
	manifest := "#EXTM3U\n#EXTINF:9.6,\na.ts\n#EXTINF:10.4,\nb.ts\n#EXTINF:0.72,\nc.ts\n"
	segments := ParseManifest(manifest, sessionStart)
	require.Len(t, segments, 3)

	var total float64
	for _, seg := range segments {
		total += seg.Duration
	}
	assert.InDelta(t, 9.6+10.4+0.72, total, 1e-9)

	last := segments[len(segments)-1]
	assert.InDelta(t, total, last.EndTime().Sub(sessionStart).Seconds(), 1e-6,
		"cumulative offsets reproduce the advertised total")
}

func TestParseManifest_skipsMalformedPairs(t *testing.T) {
	manifest := `#EXTM3U
#EXTINF:not-a-number,
broken.ts
orphan.ts
#EXTINF:10.0,
good.ts
#EXTINF:10.0,
#EXT-X-ENDLIST
`
	segments := ParseManifest(manifest, sessionStart)
	require.Len(t, segments, 1)
	assert.Equal(t, "good.ts", segments[0].Path)
	assert.Equal(t, sessionStart, segments[0].StartTime,
		"skipped entries must not advance the time cursor")
}

func TestParseManifest_empty(t *testing.T) {
	assert.Empty(t, ParseManifest("", sessionStart))
	assert.Empty(t, ParseManifest("#EXTM3U\n#EXT-X-ENDLIST\n", sessionStart))
}

func TestParseManifest_negativeDurationSkipped(t *testing.T) {
	segments := ParseManifest("#EXTINF:-5.0,\nbad.ts\n#EXTINF:2.0,\nok.ts\n", sessionStart)
	require.Len(t, segments, 1)
	assert.Equal(t, "ok.ts", segments[0].Path)
}
