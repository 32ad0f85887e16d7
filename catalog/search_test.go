package catalog

import (
	"context"
	"errors"
	"strconv"
	"testing"
)

// fakePager serves canned pages of board summaries.
type fakePager struct {
	pages   [][]BoardSummary
	calls   int
	err     error // returned on the page at errPage (1-based)
	errPage int
}

func (f *fakePager) SearchPage(ctx context.Context, query string, cursor Cursor) ([]BoardSummary, Cursor, error) {
	f.calls++
	page := 1
	if cursor != "" {
		page, _ = strconv.Atoi(string(cursor))
	}

	if f.err != nil && page == f.errPage {
		return nil, "", f.err
	}

	if page > len(f.pages) {
		return nil, "", nil
	}

	boards := f.pages[page-1]
	var next Cursor
	if len(boards) > 0 {
		next = Cursor(strconv.Itoa(page + 1))
	}
	return boards, next, nil
}

func board(id string, views, sounds int) BoardSummary {
	return BoardSummary{Identifier: id, DisplayName: id, ViewCount: views, SoundCount: sounds}
}

func TestSearchEmptyResults(t *testing.T) {
	s := &Searcher{Pager: &fakePager{}}

	boards, err := s.Search(context.Background(), "xyz")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(boards) != 0 {
		t.Errorf("len(boards) = %d, want 0", len(boards))
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	s := &Searcher{Pager: &fakePager{}}

	_, err := s.Search(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Search() error = %v, want ErrEmptyQuery", err)
	}
}

func TestSearchAppliesThresholds(t *testing.T) {
	pager := &fakePager{pages: [][]BoardSummary{{
		board("good", 100, 10),
		board("few-views", 5, 10),
		board("few-sounds", 100, 1),
		board("boundary", 10, 3),
	}}}

	s := &Searcher{Pager: pager, Thresholds: Thresholds{MinViews: 10, MinSounds: 3}}

	boards, err := s.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	want := []string{"good", "boundary"}
	if len(boards) != len(want) {
		t.Fatalf("len(boards) = %d, want %d", len(boards), len(want))
	}
	for i, id := range want {
		if boards[i].Identifier != id {
			t.Errorf("boards[%d] = %q, want %q", i, boards[i].Identifier, id)
		}
	}
}

func TestSearchBoundsExamined(t *testing.T) {
	// 10 boards per page, none passing except the first two. The bound
	// counts boards examined, not boards returned.
	var page []BoardSummary
	for i := 0; i < 10; i++ {
		page = append(page, board("b"+strconv.Itoa(i), 0, 0))
	}
	pager := &fakePager{pages: [][]BoardSummary{page}}

	s := &Searcher{
		Pager:            pager,
		Thresholds:       Thresholds{MinViews: 1},
		MaxBoardsToCheck: 4,
	}

	var evaluated int
	s.OnEvaluate = func(Evaluation) { evaluated++ }

	boards, err := s.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(boards) != 0 {
		t.Errorf("len(boards) = %d, want 0", len(boards))
	}
	if evaluated != 4 {
		t.Errorf("examined %d boards, want 4", evaluated)
	}
}

func TestSearchSpansPages(t *testing.T) {
	pager := &fakePager{pages: [][]BoardSummary{
		{board("a", 100, 10)},
		{board("b", 100, 10)},
		{board("c", 100, 10)},
	}}

	s := &Searcher{Pager: pager}

	boards, err := s.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(boards) != 3 {
		t.Errorf("len(boards) = %d, want 3", len(boards))
	}
}

func TestSearchDeduplicatesAcrossPages(t *testing.T) {
	pager := &fakePager{pages: [][]BoardSummary{
		{board("a", 100, 10), board("b", 100, 10)},
		{board("b", 100, 10), board("c", 100, 10)},
	}}

	s := &Searcher{Pager: pager}

	boards, err := s.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(boards) != 3 {
		t.Errorf("len(boards) = %d, want 3", len(boards))
	}
}

func TestSearchFailFastOnPageError(t *testing.T) {
	pageErr := &NetworkError{URL: "http://test", Err: errors.New("boom")}
	pager := &fakePager{
		pages:   [][]BoardSummary{{board("a", 100, 10)}},
		err:     pageErr,
		errPage: 2,
	}

	s := &Searcher{Pager: pager}

	boards, err := s.Search(context.Background(), "q")
	if err == nil {
		t.Fatal("Search() error = nil, want page error")
	}
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Errorf("Search() error = %v, want NetworkError", err)
	}
	// Partial results collected before the failure are returned.
	if len(boards) != 1 || boards[0].Identifier != "a" {
		t.Errorf("boards = %v, want the first page's board", boards)
	}
}

func TestSearchStopsAtMaxPages(t *testing.T) {
	// Pager that always returns a fresh board and a next cursor.
	pages := make([][]BoardSummary, 50)
	for i := range pages {
		pages[i] = []BoardSummary{board("b"+strconv.Itoa(i), 100, 10)}
	}
	pager := &fakePager{pages: pages}

	s := &Searcher{Pager: pager, MaxBoardsToCheck: 1000, MaxPages: 3}

	boards, err := s.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(boards) != 3 {
		t.Errorf("len(boards) = %d, want 3 (one per page)", len(boards))
	}
	if pager.calls != 3 {
		t.Errorf("pager calls = %d, want 3", pager.calls)
	}
}

func TestSearchContextCanceled(t *testing.T) {
	pager := &fakePager{pages: [][]BoardSummary{{board("a", 100, 10)}}}
	s := &Searcher{Pager: pager}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Search(ctx, "q")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Search() error = %v, want context.Canceled", err)
	}
}
