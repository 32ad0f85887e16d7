package catalog

import (
	"context"
	"strings"
)

// Pager fetches pages of search results. *Client implements it.
type Pager interface {
	SearchPage(ctx context.Context, query string, cursor Cursor) ([]BoardSummary, Cursor, error)
}

// Search defaults.
const (
	// DefaultMaxBoardsToCheck bounds boards examined per search.
	DefaultMaxBoardsToCheck = 20
	// DefaultMaxSearchPages is a safety limit against runaway pagination.
	DefaultMaxSearchPages = 10
)

// Searcher drives paginated querying against the catalog, applying the
// quality thresholds to each candidate and collecting the boards that
// pass. It holds no state between calls; re-invoking with the same
// arguments restarts the search.
type Searcher struct {
	Pager      Pager
	Thresholds Thresholds

	// MaxBoardsToCheck bounds boards examined, not boards returned,
	// since filtering may discard most candidates. Zero means the default.
	MaxBoardsToCheck int

	// MaxPages bounds pages fetched. Zero means the default.
	MaxPages int

	// OnEvaluate, if set, receives every filtering decision. Callers
	// use it to surface rejected candidates in verbose modes.
	OnEvaluate func(Evaluation)
}

// Search walks the paginated results for query and returns the boards
// that pass the thresholds, in discovery order.
//
// The search stops when the examined-board bound is reached, when the
// catalog stops returning a next cursor, or when a page fetch fails. A
// single page failure terminates the search: a broken page likely means
// the remote format changed or the catalog ran out of results. On
// failure the boards collected so far are returned alongside the error.
func (s *Searcher) Search(ctx context.Context, query string) ([]BoardSummary, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	maxBoards := s.MaxBoardsToCheck
	if maxBoards <= 0 {
		maxBoards = DefaultMaxBoardsToCheck
	}
	maxPages := s.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxSearchPages
	}

	var (
		qualified []BoardSummary
		cursor    Cursor
		examined  int
		seen      = make(map[string]bool)
	)

	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return qualified, err
		}

		boards, next, err := s.Pager.SearchPage(ctx, query, cursor)
		if err != nil {
			return qualified, err
		}

		fresh := 0
		for _, board := range boards {
			if seen[board.Identifier] {
				continue
			}
			seen[board.Identifier] = true
			fresh++

			examined++
			ev := s.Thresholds.Evaluate(board)
			if s.OnEvaluate != nil {
				s.OnEvaluate(ev)
			}
			if ev.Passed {
				qualified = append(qualified, board)
			}

			if examined >= maxBoards {
				return qualified, nil
			}
		}

		// A page with nothing new, or no further cursor, is the end.
		if fresh == 0 || next == "" || next == cursor {
			return qualified, nil
		}
		cursor = next
	}

	return qualified, nil
}
