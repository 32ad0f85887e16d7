package snag

import (
	"github.com/eworthing/soundboard-snag/catalog"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, snag.ErrEmptyQuery) {
//		fmt.Println("empty query")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var parseErr *snag.ParseError
//	if errors.As(err, &parseErr) {
//		fmt.Printf("parsing %s failed: %s\n", parseErr.URL, parseErr.Reason)
//	}

// Type aliases for convenient error handling.
type (
	// NetworkError wraps transport and HTTP-status failures.
	NetworkError = catalog.NetworkError
	// ParseError wraps responses that did not match the expected markup.
	ParseError = catalog.ParseError
)

// Sentinel errors re-exported from the catalog package.
var (
	// ErrEmptyQuery is returned when a search query is blank.
	ErrEmptyQuery = catalog.ErrEmptyQuery
	// ErrRestricted is the error form of a play-only board, reported
	// by Summary.Failure.
	ErrRestricted = catalog.ErrRestricted
)
