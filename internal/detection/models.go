package detection

import "time"

// HydrophoneID identifies a hydrophone feed (e.g. "rpi_orcasound_lab").
type HydrophoneID string

// Category is the closed set of detection categories supplied by the event
// source. Source strings are mapped to a Category once at ingestion; anything
// unrecognised becomes CategoryOther.
type Category string

const (
	// CategoryWhaleHuman is a whale call reported by a human listener.
	CategoryWhaleHuman Category = "whale"
	// CategoryWhaleAI is a whale call flagged by the automated detector.
	CategoryWhaleAI Category = "whale-ai"
	// CategoryVessel is vessel noise.
	CategoryVessel Category = "vessel"
	// CategoryOther is any other acoustic event.
	CategoryOther Category = "other"
	// CategorySighting is a visual whale sighting report.
	CategorySighting Category = "sighting"
)

// ParseCategory maps a raw source string to a Category.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryWhaleHuman, CategoryWhaleAI, CategoryVessel, CategorySighting:
		return Category(s)
	default:
		return CategoryOther
	}
}

// Bucket is the coarse 3-valued classification used for clustering.
// Detections with different buckets never share a candidate.
type Bucket string

const (
	BucketWhale  Bucket = "whale"
	BucketVessel Bucket = "vessel"
	BucketOther  Bucket = "other"
)

// BucketOf collapses a Category into its Bucket. Sightings are whale
// sightings, so they group with the acoustic whale categories.
func BucketOf(c Category) Bucket {
	switch c {
	case CategoryWhaleHuman, CategoryWhaleAI, CategorySighting:
		return BucketWhale
	case CategoryVessel:
		return BucketVessel
	case CategoryOther:
		return BucketOther
	default:
		return BucketOther
	}
}

// Detection is a single timestamped event from the hydrophone network.
// Detections are owned by the event source and read-only here.
type Detection struct {
	HydrophoneID HydrophoneID `json:"hydrophone_id"`
	Category     Category     `json:"category"`
	Timestamp    time.Time    `json:"timestamp"`
	Comment      string       `json:"comment,omitempty"`
}

// Bucket returns the detection's coarse classification.
func (d Detection) Bucket() Bucket {
	return BucketOf(d.Category)
}

// Bounds is the geographic bounding box of a feed's coverage area.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Feed is hydrophone feed metadata from the event source.
type Feed struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Bounds Bounds `json:"bounds"`
}
