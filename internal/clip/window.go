package clip

import (
	"sort"
	"time"
)

// SelectWindow picks every segment across all sessions that overlaps the
// half-open window [windowStart, windowEnd) and returns them globally sorted
// by absolute start time. The sort is what restores chronological order when
// independent sessions interleave or a recorder restart leaves a gap.
//
// A segment is included iff its end reaches windowStart and its start is
// before windowEnd. Sessions contribute independently; no segment appears
// twice.
func SelectWindow(sessions []SessionSegments, windowStart, windowEnd time.Time) []SegmentDescriptor {
	var selected []SegmentDescriptor
	for _, ss := range sessions {
		for _, seg := range ss.Segments {
			if overlapsWindow(seg, windowStart, windowEnd) {
				selected = append(selected, seg)
			}
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].StartTime.Before(selected[j].StartTime)
	})
	return selected
}

// overlapsWindow is the half-open overlap test:
// segment end >= windowStart AND segment start < windowEnd.
func overlapsWindow(seg SegmentDescriptor, windowStart, windowEnd time.Time) bool {
	return !seg.EndTime().Before(windowStart) && seg.StartTime.Before(windowEnd)
}
