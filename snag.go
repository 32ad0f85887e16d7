package snag

import (
	"context"

	"github.com/eworthing/soundboard-snag/catalog"
	"github.com/eworthing/soundboard-snag/config"
	snaghttp "github.com/eworthing/soundboard-snag/http"
)

// Type aliases so casual users never need the sub-packages.
type (
	// BoardSummary describes a board found by search.
	BoardSummary = catalog.BoardSummary
	// Summary aggregates the outcome of one board download.
	Summary = catalog.Summary
	// BatchSummary aggregates a multi-board run.
	BatchSummary = catalog.BatchSummary
)

// SearchOptions tunes a convenience search.
type SearchOptions struct {
	// Thresholds overrides the configured quality bar. Nil uses the
	// configured defaults; a pointer to the zero value disables filtering.
	Thresholds *catalog.Thresholds
	// MaxBoards bounds boards examined. Zero uses the configured default.
	MaxBoards int
	// OnEvaluate receives every filtering decision when set.
	OnEvaluate func(catalog.Evaluation)
}

// Search finds boards matching query using the loaded configuration.
func Search(ctx context.Context, query string, opts SearchOptions) ([]BoardSummary, error) {
	cfg := loadConfig()
	searcher := newSearcher(cfg, opts)
	return searcher.Search(ctx, query)
}

// DownloadBoard fetches every sound of the board into a directory under
// outputRoot. Failures are captured in the summary, never raised.
func DownloadBoard(ctx context.Context, boardID, outputRoot string) Summary {
	cfg := loadConfig()
	return newDownloader(cfg).DownloadBoard(ctx, boardID, outputRoot)
}

// SearchAndDownload pipes qualifying search results straight into the
// downloader, one board at a time. The boards found before a search
// failure are still downloaded.
func SearchAndDownload(ctx context.Context, query, outputRoot string, opts SearchOptions) (BatchSummary, error) {
	cfg := loadConfig()

	boards, err := newSearcher(cfg, opts).Search(ctx, query)
	if len(boards) == 0 {
		return BatchSummary{}, err
	}

	ids := make([]string, len(boards))
	for i, b := range boards {
		ids[i] = b.Identifier
	}

	batch := newDownloader(cfg).DownloadBoards(ctx, ids, outputRoot)
	return batch, err
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

func newHTTPClient(cfg *config.Config) *snaghttp.Client {
	hc := snaghttp.DefaultConfig()
	hc.Timeout = cfg.Timeout
	if cfg.UserAgent != "" {
		hc.UserAgent = cfg.UserAgent
	}
	// The orchestrators own failure policy; a failed request is
	// terminal for that page or sound.
	hc.Retry.MaxRetries = 0
	return snaghttp.New(hc)
}

func newSearcher(cfg *config.Config, opts SearchOptions) *catalog.Searcher {
	thresholds := catalog.Thresholds{MinViews: cfg.MinViews, MinSounds: cfg.MinSounds}
	if opts.Thresholds != nil {
		thresholds = *opts.Thresholds
	}
	maxBoards := opts.MaxBoards
	if maxBoards <= 0 {
		maxBoards = cfg.MaxBoards
	}

	return &catalog.Searcher{
		Pager:            catalog.NewClient(cfg.BaseURL, newHTTPClient(cfg)),
		Thresholds:       thresholds,
		MaxBoardsToCheck: maxBoards,
		OnEvaluate:       opts.OnEvaluate,
	}
}

func newDownloader(cfg *config.Config) *catalog.Downloader {
	return &catalog.Downloader{
		Catalog:                catalog.NewClient(cfg.BaseURL, newHTTPClient(cfg)),
		Delay:                  cfg.RequestDelay,
		MaxConsecutiveFailures: cfg.MaxConsecutiveFailures,
	}
}
