// Package snag discovers and retrieves audio boards from soundboard.com.
//
// It searches the catalog with quality filtering, detects whether a board
// allows file downloads, and bulk-downloads a board's sounds with safe
// filenames and paced requests.
//
// Overview
//
// snag provides high-level convenience functions for the most common operations:
//
//   - Search: Find boards matching a query, filtered by quality thresholds
//   - DownloadBoard: Fetch every sound of a board into a local directory
//   - SearchAndDownload: Pipe search results straight into the downloader
//
// Quick Start
//
// Search for boards:
//
//	ctx := context.Background()
//	boards, err := snag.Search(ctx, "star wars", snag.SearchOptions{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, b := range boards {
//		fmt.Println(b.Identifier, b.ViewCount)
//	}
//
// Download one board:
//
//	summary := snag.DownloadBoard(ctx, "starwars", ".")
//	fmt.Printf("saved %d, skipped %d, failed %d\n",
//		summary.Succeeded, summary.Skipped, summary.Failed)
//
// Search and download everything that qualifies:
//
//	batch, err := snag.SearchAndDownload(ctx, "star wars", ".", snag.SearchOptions{})
//
// Configuration
//
// snag uses a configuration system that loads settings from multiple sources:
//
//   1. Environment variables (highest priority)
//   2. Config file (snag.json or ~/.config/snag/snag.json)
//   3. Default values (lowest priority)
//
// Environment variables:
//
//   - SNAG_BASE_URL: Catalog endpoint
//   - SNAG_USER_AGENT: User agent for outbound requests
//   - SNAG_TIMEOUT: Per-request HTTP timeout
//   - SNAG_REQUEST_DELAY: Pause between sound fetches
//   - SNAG_MIN_VIEWS: Minimum board view count (0 disables)
//   - SNAG_MIN_SOUNDS: Minimum board sound count (0 disables)
//   - SNAG_MAX_BOARDS: Boards examined per search
//   - SNAG_DOWNLOAD_ROOT: Where per-board directories are created
//   - SNAG_MAX_CONSECUTIVE_FAILURES: Per-board circuit breaker threshold
//
// Error Handling
//
// All operations return errors that implement standard Go error handling:
//
//	if errors.Is(err, snag.ErrEmptyQuery) {
//		fmt.Println("nothing to search for")
//	}
//
//	var netErr *snag.NetworkError
//	if errors.As(err, &netErr) {
//		fmt.Printf("fetching %s failed: %v\n", netErr.URL, netErr.Err)
//	}
//
// Advanced Usage
//
// For more control, use the sub-packages directly:
//
//   - catalog: Search, availability detection, and the download loop
//   - sanitize: Filename normalization
//   - config: Configuration management
//   - http: Rate-limited HTTP client with circuit breaking
//
// Example using the catalog package directly:
//
//	client := catalog.NewClient("", nil)
//	searcher := &catalog.Searcher{
//		Pager:      client,
//		Thresholds: catalog.Thresholds{MinViews: 100, MinSounds: 5},
//	}
//	boards, err := searcher.Search(ctx, "star wars")
//
package snag
