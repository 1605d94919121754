package detection

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CandidatePadding widens each candidate's window on both sides so the
// assembled clip includes lead-in and tail audio around the detections.
const CandidatePadding = 15 * time.Second

// candidateNamespace seeds deterministic candidate IDs. Fixed so identical
// inputs produce identical IDs across runs.
var candidateNamespace = uuid.MustParse("9f2c1a4e-5b8d-4f0a-9c3e-7d6b2a815c40")

// SortOrder selects how Sort arranges candidates.
type SortOrder string

const (
	// SortDesc orders by first-member timestamp, newest first.
	SortDesc SortOrder = "desc"
	// SortAsc orders by first-member timestamp, oldest first.
	SortAsc SortOrder = "asc"
	// SortReports orders by total member count, largest first.
	SortReports SortOrder = "reports"
)

// Candidate is a derived incident: a temporally coherent group of detections
// sharing one hydrophone and one bucket. Candidates are rebuilt from scratch
// on every clustering pass and never mutated afterwards.
type Candidate struct {
	ID           string           `json:"id"`
	Detections   []Detection      `json:"detections"`
	StartTime    time.Time        `json:"start_time"`
	EndTime      time.Time        `json:"end_time"`
	HydrophoneID HydrophoneID     `json:"hydrophone_id"`
	Counts       map[Category]int `json:"counts"`
	Description  string           `json:"description"`
}

// newCandidate builds a Candidate from a finished cluster. members must be
// non-empty and ordered by timestamp ascending.
func newCandidate(members []Detection) Candidate {
	first := members[0].Timestamp
	last := members[len(members)-1].Timestamp

	counts := make(map[Category]int, len(members))
	for _, d := range members {
		counts[d.Category]++
	}

	start := first.Add(-CandidatePadding)
	end := last.Add(CandidatePadding)
	bucket := members[0].Bucket()

	return Candidate{
		ID:           candidateID(start, end, bucket),
		Detections:   members,
		StartTime:    start,
		EndTime:      end,
		HydrophoneID: members[0].HydrophoneID,
		Counts:       counts,
		Description:  describe(members[0].HydrophoneID, first, counts),
	}
}

// candidateID derives a stable ID from the padded window and bucket.
func candidateID(start, end time.Time, bucket Bucket) string {
	name := fmt.Sprintf("%d|%d|%s", start.UnixMilli(), end.UnixMilli(), bucket)
	return uuid.NewSHA1(candidateNamespace, []byte(name)).String()
}

// describe renders a human-readable summary such as
// "2 whale, 1 sighting on rpi_orcasound_lab at 2023-07-01T12:03:00Z".
func describe(hydrophone HydrophoneID, first time.Time, counts map[Category]int) string {
	order := []Category{CategoryWhaleHuman, CategoryWhaleAI, CategorySighting, CategoryVessel, CategoryOther}
	parts := make([]string, 0, len(counts))
	for _, c := range order {
		if n := counts[c]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, c))
		}
	}
	return fmt.Sprintf("%s on %s at %s",
		strings.Join(parts, ", "), hydrophone, first.UTC().Format(time.RFC3339))
}

// TotalCount returns the summed per-category counts of the candidate.
func (c Candidate) TotalCount() int {
	n := 0
	for _, v := range c.Counts {
		n += v
	}
	return n
}

// firstTimestamp is the unpadded timestamp of the earliest member.
func (c Candidate) firstTimestamp() time.Time {
	return c.Detections[0].Timestamp
}

// Sort orders candidates according to order. Unknown orders fall back to
// SortDesc. Sorting is stable, so ties keep their clustering order.
func Sort(candidates []Candidate, order SortOrder) {
	switch order {
	case SortAsc:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].firstTimestamp().Before(candidates[j].firstTimestamp())
		})
	case SortReports:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].TotalCount() > candidates[j].TotalCount()
		})
	default:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[j].firstTimestamp().Before(candidates[i].firstTimestamp())
		})
	}
}

// FilterByMinimumCount drops candidates whose summed category counts are
// below n. Applying it twice with the same n is a no-op the second time.
func FilterByMinimumCount(candidates []Candidate, n int) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.TotalCount() >= n {
			out = append(out, c)
		}
	}
	return out
}
