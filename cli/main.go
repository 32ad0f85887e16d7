package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"text/tabwriter"

	arg "github.com/alexflint/go-arg"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/eworthing/soundboard-snag/catalog"
	"github.com/eworthing/soundboard-snag/config"
	snaghttp "github.com/eworthing/soundboard-snag/http"
	"github.com/eworthing/soundboard-snag/internal/storage"
)

// ANSI color codes, cleared when stdout is not a terminal or NO_COLOR is set.
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[91m"
	colorGreen  = "\033[92m"
	colorYellow = "\033[93m"
	colorCyan   = "\033[96m"
)

func init() {
	if !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv("NO_COLOR") != "" {
		colorReset, colorRed, colorGreen, colorYellow, colorCyan = "", "", "", "", ""
	}
}

type searchCmd struct {
	Query     string `arg:"positional,required" help:"search query"`
	MinViews  int    `arg:"--min-views" default:"-1" help:"minimum view count, 0 disables the check"`
	MinSounds int    `arg:"--min-sounds" default:"-1" help:"minimum sound count, 0 disables the check"`
	Max       int    `arg:"--max" help:"maximum boards to examine"`
	Debug     bool   `arg:"--debug" help:"show boards rejected by the quality filter"`
}

type downloadCmd struct {
	BoardID string `arg:"positional,required" help:"board identifier, or a pasted board URL"`
	Dir     string `arg:"-d,--dir" help:"output directory root"`
	Report  string `arg:"--report" help:"write a JSON run report to this path"`
}

type getCmd struct {
	Query     string `arg:"positional,required" help:"search query"`
	MinViews  int    `arg:"--min-views" default:"-1" help:"minimum view count, 0 disables the check"`
	MinSounds int    `arg:"--min-sounds" default:"-1" help:"minimum sound count, 0 disables the check"`
	Max       int    `arg:"--max" help:"maximum boards to examine"`
	Debug     bool   `arg:"--debug" help:"show boards rejected by the quality filter"`
	Dir       string `arg:"-d,--dir" help:"output directory root"`
	Report    string `arg:"--report" help:"write a JSON run report to this path"`
}

type cliArgs struct {
	Search   *searchCmd   `arg:"subcommand:search" help:"find boards matching a query"`
	Download *downloadCmd `arg:"subcommand:download" help:"download every sound of one board"`
	Get      *getCmd      `arg:"subcommand:get" help:"search and download qualifying boards in one run"`
}

func (cliArgs) Description() string {
	return "snag - soundboard.com audio discovery and retrieval"
}

func main() {
	var args cliArgs
	parser := arg.MustParse(&args)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	switch {
	case args.Search != nil:
		os.Exit(runSearch(ctx, cfg, args.Search))
	case args.Download != nil:
		os.Exit(runDownload(ctx, cfg, args.Download))
	case args.Get != nil:
		os.Exit(runGet(ctx, cfg, args.Get))
	default:
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}
}

func runSearch(ctx context.Context, cfg *config.Config, cmd *searchCmd) int {
	searcher := newSearcher(cfg, cmd.MinViews, cmd.MinSounds, cmd.Max, cmd.Debug)

	fmt.Fprintf(os.Stderr, "Searching for %q...\n", cmd.Query)
	boards, err := searcher.Search(ctx, cmd.Query)
	if err != nil && len(boards) > 0 {
		fmt.Fprintf(os.Stderr, "%sWarning:%s search ended early: %v\n", colorYellow, colorReset, err)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "%sError:%s %v\n", colorRed, colorReset, err)
		return 1
	}

	if len(boards) == 0 {
		fmt.Println("No boards found.")
		return 1
	}

	printBoards(boards)
	fmt.Fprintf(os.Stderr, "\nTotal: %d boards\n", len(boards))
	return 0
}

func runDownload(ctx context.Context, cfg *config.Config, cmd *downloadCmd) int {
	outputRoot := cmd.Dir
	if outputRoot == "" {
		outputRoot = cfg.DownloadRoot
	}

	summary := newDownloader(cfg).DownloadBoard(ctx, boardIDFromArg(cmd.BoardID), outputRoot)
	printSummary(summary)

	if cmd.Report != "" {
		report := &storage.RunReport{Boards: []storage.BoardResult{boardResult(summary)}}
		tallyReport(report)
		if err := storage.WriteRunReport(cmd.Report, report); err != nil {
			fmt.Fprintf(os.Stderr, "%sError:%s %v\n", colorRed, colorReset, err)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", cmd.Report)
	}

	if summary.Failure() != nil || summary.Aborted {
		return 1
	}
	if summary.Succeeded == 0 && summary.Skipped == 0 {
		return 1
	}
	return 0
}

func runGet(ctx context.Context, cfg *config.Config, cmd *getCmd) int {
	outputRoot := cmd.Dir
	if outputRoot == "" {
		outputRoot = cfg.DownloadRoot
	}

	searcher := newSearcher(cfg, cmd.MinViews, cmd.MinSounds, cmd.Max, cmd.Debug)

	fmt.Fprintf(os.Stderr, "Searching for %q...\n", cmd.Query)
	boards, searchErr := searcher.Search(ctx, cmd.Query)
	if searchErr != nil {
		fmt.Fprintf(os.Stderr, "%sWarning:%s search ended early: %v\n", colorYellow, colorReset, searchErr)
	}
	if len(boards) == 0 {
		fmt.Println("No qualifying boards found.")
		return 1
	}
	fmt.Fprintf(os.Stderr, "Found %d qualifying boards\n\n", len(boards))

	downloader := newDownloader(cfg)
	batch := catalog.BatchSummary{}
	var results []storage.BoardResult

	for i, b := range boards {
		if ctx.Err() != nil {
			break
		}
		title := b.DisplayName
		if title == "" {
			title = b.Identifier
		}
		fmt.Fprintf(os.Stderr, "[%d/%d] %s%s%s\n", i+1, len(boards), colorCyan, title, colorReset)

		summary := downloader.DownloadBoard(ctx, b.Identifier, outputRoot)
		printSummary(summary)
		fmt.Fprintln(os.Stderr)

		batch.Boards = append(batch.Boards, summary)
		results = append(results, boardResult(summary))
		switch {
		case summary.Restricted:
			batch.Restricted++
		case summary.Err != nil || summary.Aborted:
			batch.Failed++
		case summary.Succeeded > 0 || summary.Skipped > 0:
			batch.Succeeded++
		default:
			batch.Failed++
		}
	}

	fmt.Fprintf(os.Stderr, "Done: %s%d saved%s, %d restricted, %d failed\n",
		colorGreen, batch.Succeeded, colorReset, batch.Restricted, batch.Failed)

	if cmd.Report != "" {
		report := &storage.RunReport{Query: cmd.Query, Boards: results}
		tallyReport(report)
		if err := storage.WriteRunReport(cmd.Report, report); err != nil {
			fmt.Fprintf(os.Stderr, "%sError:%s %v\n", colorRed, colorReset, err)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", cmd.Report)
	}

	if batch.Failed > 0 || searchErr != nil {
		return 1
	}
	return 0
}

func newHTTPClient(cfg *config.Config) *snaghttp.Client {
	hc := snaghttp.DefaultConfig()
	hc.Timeout = cfg.Timeout
	if cfg.UserAgent != "" {
		hc.UserAgent = cfg.UserAgent
	}
	// Failures surface immediately so the per-board breaker sees them.
	hc.Retry.MaxRetries = 0
	return snaghttp.New(hc)
}

func newSearcher(cfg *config.Config, minViews, minSounds, maxBoards int, debug bool) *catalog.Searcher {
	thresholds := catalog.Thresholds{MinViews: cfg.MinViews, MinSounds: cfg.MinSounds}
	if minViews >= 0 {
		thresholds.MinViews = minViews
	}
	if minSounds >= 0 {
		thresholds.MinSounds = minSounds
	}
	if maxBoards <= 0 {
		maxBoards = cfg.MaxBoards
	}

	s := &catalog.Searcher{
		Pager:            catalog.NewClient(cfg.BaseURL, newHTTPClient(cfg)),
		Thresholds:       thresholds,
		MaxBoardsToCheck: maxBoards,
	}
	if debug {
		s.OnEvaluate = printEvaluation
	}
	return s
}

func newDownloader(cfg *config.Config) *catalog.Downloader {
	return &catalog.Downloader{
		Catalog:                catalog.NewClient(cfg.BaseURL, newHTTPClient(cfg)),
		Delay:                  cfg.RequestDelay,
		MaxConsecutiveFailures: cfg.MaxConsecutiveFailures,
		OnSound:                printOutcome,
	}
}

func printBoards(boards []catalog.BoardSummary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BOARD\tTITLE\tVIEWS\tSOUNDS")
	for _, b := range boards {
		views := ""
		if b.ViewCount > 0 {
			views = humanize.Comma(int64(b.ViewCount))
		}
		sounds := ""
		if b.SoundCount > 0 {
			sounds = fmt.Sprintf("%d", b.SoundCount)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.Identifier, truncate(b.DisplayName, 50), views, sounds)
	}
	w.Flush()
}

func printEvaluation(e catalog.Evaluation) {
	if e.Passed {
		return
	}
	var reasons []string
	if e.FailedMinViews {
		reasons = append(reasons, fmt.Sprintf("views %d below minimum", e.Summary.ViewCount))
	}
	if e.FailedMinSounds {
		reasons = append(reasons, fmt.Sprintf("sounds %d below minimum", e.Summary.SoundCount))
	}
	fmt.Fprintf(os.Stderr, "  %sskip%s %s: %s\n",
		colorYellow, colorReset, e.Summary.Identifier, strings.Join(reasons, ", "))
}

func printOutcome(o catalog.SoundOutcome) {
	name := o.Name.Filename()
	switch o.Status {
	case catalog.StatusSuccess:
		fmt.Fprintf(os.Stderr, "  %s✓%s %s (%s)\n",
			colorGreen, colorReset, name, humanize.Bytes(uint64(o.Bytes)))
	case catalog.StatusSkipped:
		fmt.Fprintf(os.Stderr, "  %s→%s %s: %s\n", colorCyan, colorReset, name, o.Reason)
	case catalog.StatusFailed:
		fmt.Fprintf(os.Stderr, "  %s✗%s %s: %s\n", colorRed, colorReset, name, o.Reason)
	}
}

func printSummary(s catalog.Summary) {
	switch {
	case s.Restricted:
		fmt.Fprintf(os.Stderr, "%s%s is play-only; nothing downloaded%s\n",
			colorYellow, s.BoardID, colorReset)
	case s.Err != nil && len(s.Outcomes) == 0:
		fmt.Fprintf(os.Stderr, "%sError:%s %s: %v\n", colorRed, colorReset, s.BoardID, s.Err)
	case s.Aborted:
		fmt.Fprintf(os.Stderr, "%sAborted%s after repeated failures; %d sounds not attempted\n",
			colorRed, colorReset, s.Remaining)
		fmt.Fprintf(os.Stderr, "  saved %d, skipped %d, failed %d\n", s.Succeeded, s.Skipped, s.Failed)
	default:
		fmt.Fprintf(os.Stderr, "  saved %d, skipped %d, failed %d\n", s.Succeeded, s.Skipped, s.Failed)
	}
}

func boardResult(s catalog.Summary) storage.BoardResult {
	r := storage.BoardResult{
		BoardID:    s.BoardID,
		Title:      s.Title,
		Dir:        s.Dir,
		Restricted: s.Restricted,
		Aborted:    s.Aborted,
		Saved:      s.Succeeded,
		Skipped:    s.Skipped,
		Failed:     s.Failed,
	}
	if s.Err != nil {
		r.Error = s.Err.Error()
	}
	return r
}

func tallyReport(report *storage.RunReport) {
	for _, b := range report.Boards {
		switch {
		case b.Restricted:
			report.Restricted++
		case b.Error != "" || b.Aborted:
			report.Failed++
		case b.Saved > 0 || b.Skipped > 0:
			report.Succeeded++
		default:
			report.Failed++
		}
	}
}

var boardURLPattern = regexp.MustCompile(`/sb/([a-zA-Z0-9_-]+)/?(?:[?#].*)?$`)

// boardIDFromArg accepts either a bare board identifier or a pasted
// board URL such as https://www.soundboard.com/sb/starwars.
func boardIDFromArg(s string) string {
	if m := boardURLPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
