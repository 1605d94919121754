package clip

import (
	"bufio"
	"strconv"
	"strings"
	"time"
)

const extInfTag = "#EXTINF:"

// ParseManifest scans an HLS media playlist and returns its segments with
// absolute start times. Each #EXTINF tag is paired with the following
// non-comment line as the segment's relative path; a running offset starting
// at sessionStart accumulates the advertised durations, so segments within a
// session are contiguous by construction.
//
// Malformed tags and orphaned URL lines are skipped rather than failing the
// whole parse.
func ParseManifest(manifest string, sessionStart time.Time) []SegmentDescriptor {
	var segments []SegmentDescriptor

	cursor := sessionStart
	pendingDuration := 0.0
	havePending := false
	sequence := 0

	scanner := bufio.NewScanner(strings.NewReader(manifest))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, extInfTag) {
			d, ok := parseExtInf(line)
			if !ok {
				havePending = false
				continue
			}
			pendingDuration = d
			havePending = true
			continue
		}

		if strings.HasPrefix(line, "#") {
			// Other tags do not invalidate a pending EXTINF.
			continue
		}

		// URL line without a preceding EXTINF: skip it.
		if !havePending {
			continue
		}

		segments = append(segments, SegmentDescriptor{
			Sequence:  sequence,
			Path:      line,
			Duration:  pendingDuration,
			StartTime: cursor,
		})
		cursor = cursor.Add(durationOf(pendingDuration))
		sequence++
		havePending = false
	}

	return segments
}

// parseExtInf extracts the duration from an "#EXTINF:<float>," line.
func parseExtInf(line string) (float64, bool) {
	v := strings.TrimPrefix(line, extInfTag)
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}
