package detection

import (
	"sort"
	"time"
)

// cluster accumulates detections that share one hydrophone and one bucket.
// Clusters only ever grow at the tail; they never merge or reopen.
type cluster struct {
	hydrophone HydrophoneID
	bucket     Bucket
	members    []Detection
}

func (c *cluster) last() Detection {
	return c.members[len(c.members)-1]
}

// Cluster groups detections into candidates. Detections are sorted by
// timestamp ascending (stable), then each one is matched against open
// clusters scanned from most-recently-created backward: the first cluster
// with the same hydrophone and bucket is the only one considered. If the gap
// to that cluster's last member is within windowMinutes the detection joins
// it; otherwise a new cluster is opened. A cluster left behind by a
// too-distant detection never reopens, even if a later detection would have
// fit relative to an earlier member.
//
// Cluster is pure: it never fails, and malformed (zero) timestamps simply
// sort first and group like any other instant.
func Cluster(detections []Detection, windowMinutes int) []Candidate {
	if len(detections) == 0 {
		return nil
	}

	sorted := make([]Detection, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	window := time.Duration(windowMinutes) * time.Minute

	var clusters []*cluster
	for _, d := range sorted {
		target := findMatch(clusters, d)
		if target != nil && withinWindow(target.last().Timestamp, d.Timestamp, window) {
			target.members = append(target.members, d)
			continue
		}
		clusters = append(clusters, &cluster{
			hydrophone: d.HydrophoneID,
			bucket:     d.Bucket(),
			members:    []Detection{d},
		})
	}

	candidates := make([]Candidate, len(clusters))
	for i, c := range clusters {
		candidates[i] = newCandidate(c.members)
	}
	return candidates
}

// findMatch scans clusters newest-first for the first hydrophone+bucket match.
func findMatch(clusters []*cluster, d Detection) *cluster {
	bucket := d.Bucket()
	for i := len(clusters) - 1; i >= 0; i-- {
		if clusters[i].hydrophone == d.HydrophoneID && clusters[i].bucket == bucket {
			return clusters[i]
		}
	}
	return nil
}

// withinWindow reports whether two instants are at most window apart.
// The boundary is inclusive: a gap of exactly window still joins.
func withinWindow(a, b time.Time, window time.Duration) bool {
	gap := b.Sub(a)
	if gap < 0 {
		gap = -gap
	}
	return gap <= window
}
