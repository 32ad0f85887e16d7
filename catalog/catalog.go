// Package catalog discovers and retrieves audio boards from the
// soundboard.com catalog. It covers paginated search with quality
// filtering, per-board availability detection, and the bulk download
// loop with a consecutive-failure circuit breaker.
package catalog

import (
	"errors"
	"fmt"
)

// BoardSummary describes a board as it appears on a search results page.
// The Identifier is an opaque, stable token used to build fetch URLs.
type BoardSummary struct {
	Identifier  string
	DisplayName string
	ViewCount   int
	SoundCount  int
}

// SoundEntry describes a single audio item on a board listing.
type SoundEntry struct {
	// RawTitle is the title as scraped, before filename normalization.
	RawTitle string
	// SourceURL is the absolute URL the audio payload is fetched from.
	SourceURL string
	// SequenceIndex is the zero-based position of the entry on the board.
	SequenceIndex int
}

// Cursor identifies the next page of a search. The empty cursor means
// the first page when passed in, and end-of-results when returned.
type Cursor string

// Availability classifies whether a board's sounds can be fetched as files.
type Availability int

const (
	// PlayOnly means playback is permitted but file download is disabled.
	// This is the conservative default when the markup is ambiguous.
	PlayOnly Availability = iota
	// Downloadable means the board exposes a download action per sound.
	Downloadable
)

func (a Availability) String() string {
	switch a {
	case Downloadable:
		return "downloadable"
	case PlayOnly:
		return "play-only"
	default:
		return "unknown"
	}
}

// ErrEmptyQuery is returned by Search when the query is blank.
var ErrEmptyQuery = errors.New("empty search query")

// ErrRestricted is the error form of a play-only board, reported by
// Summary.Failure. Match it with errors.Is.
var ErrRestricted = errors.New("board is play-only")

// NetworkError indicates a transport or HTTP-status failure while
// talking to the catalog. It is terminal for the request that raised it.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ParseError indicates a response that could not be interpreted as a
// listing page. The markup schema is an external, unversioned dependency,
// so parse failures are expected and handled rather than exceptional.
type ParseError struct {
	URL    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s: %s", e.URL, e.Reason)
}
