package clip

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSegments is returned when no audio segments survive resolution,
	// selection, and fetching. Surfaced to callers as "no audio available".
	ErrNoSegments = errors.New("no audio available for requested window")

	// ErrAssemblyDisabled is returned when the assembly gate is off.
	ErrAssemblyDisabled = errors.New("clip assembly is disabled")
)

// ManifestFetchError reports a failure to fetch or parse one session's
// manifest. The session is excluded from the clip; the error never aborts
// sibling sessions.
type ManifestFetchError struct {
	SessionID string
	Err       error
}

func (e *ManifestFetchError) Error() string {
	return fmt.Sprintf("manifest fetch for session %s: %v", e.SessionID, e.Err)
}

func (e *ManifestFetchError) Unwrap() error { return e.Err }

// SegmentFetchError reports a failure to fetch one segment's bytes. The
// segment is excluded from the clip; the error never aborts sibling fetches.
type SegmentFetchError struct {
	URL string
	Err error
}

func (e *SegmentFetchError) Error() string {
	return fmt.Sprintf("segment fetch %s: %v", e.URL, e.Err)
}

func (e *SegmentFetchError) Unwrap() error { return e.Err }

// TranscodeError reports a terminal failure of the external transcoder.
// Surfaced to callers as "failed to process audio".
type TranscodeError struct {
	Err error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("failed to process audio: %v", e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }
