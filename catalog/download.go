package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eworthing/soundboard-snag/internal/storage"
	"github.com/eworthing/soundboard-snag/sanitize"
)

// BoardFetcher is the catalog surface the downloader needs. *Client
// implements it.
type BoardFetcher interface {
	FetchBoardSounds(ctx context.Context, boardID string) ([]SoundEntry, Markup, error)
	FetchSound(ctx context.Context, entry SoundEntry) (SoundPayload, error)
}

// OutcomeStatus classifies the result of one sound attempt.
type OutcomeStatus int

const (
	// StatusSuccess means the file was written.
	StatusSuccess OutcomeStatus = iota
	// StatusSkipped means the file already existed and was left alone.
	StatusSkipped
	// StatusFailed means the fetch or write failed.
	StatusFailed
)

func (s OutcomeStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SoundOutcome records the result of one sound attempt.
type SoundOutcome struct {
	Entry  SoundEntry
	Name   sanitize.Name
	Status OutcomeStatus
	// Bytes is the payload size written, for successes.
	Bytes int64
	// Reason is the human-readable cause, for skips and failures.
	Reason string
}

// Summary aggregates the outcome of one board download. All failures
// are captured here; DownloadBoard never propagates them past its
// return value.
type Summary struct {
	BoardID string
	Title   string
	// Dir is the output directory, set only if it was created or reused.
	Dir string
	// Restricted means the board was classified play-only and nothing
	// was attempted. Not an error, a declined operation.
	Restricted bool
	// Aborted means the consecutive-failure circuit breaker tripped.
	Aborted bool
	// Remaining counts sounds never attempted because of the abort.
	Remaining int
	// Err is the board-level failure, if the listing fetch failed.
	Err error

	Succeeded int
	Skipped   int
	Failed    int
	Outcomes  []SoundOutcome
}

// Failure collapses the summary into a single board-level error for
// callers that want an error form: the listing failure when one
// occurred, ErrRestricted for a play-only board, nil otherwise.
// Restriction stays out of Err itself so the declined-operation and
// failed-operation cases remain distinguishable.
func (s Summary) Failure() error {
	if s.Err != nil {
		return s.Err
	}
	if s.Restricted {
		return ErrRestricted
	}
	return nil
}

// Downloader defaults.
const (
	// DefaultRequestDelay is the fixed pause between sound fetches.
	DefaultRequestDelay = 500 * time.Millisecond
	// DefaultMaxConsecutiveFailures is the circuit breaker threshold:
	// back-to-back failures beyond it abort the board's remaining sounds.
	DefaultMaxConsecutiveFailures = 2
)

// Downloader retrieves all sounds of a board sequentially, one request
// at a time, writing each file atomically.
type Downloader struct {
	Catalog BoardFetcher

	// Classify decides board availability. Nil means DetectByDownloadAction.
	Classify Classifier

	// Delay is the fixed inter-request pause applied after every sound
	// regardless of outcome. Zero means DefaultRequestDelay; negative
	// disables the delay.
	Delay time.Duration

	// MaxConsecutiveFailures is the circuit breaker threshold. Zero
	// means DefaultMaxConsecutiveFailures.
	MaxConsecutiveFailures int

	// OnSound, if set, receives every per-sound outcome as it happens.
	OnSound func(SoundOutcome)
}

// DownloadBoard fetches the board listing, classifies availability, and
// downloads every sound into a directory named after the board under
// outputRoot. It returns the aggregated summary and never panics or
// propagates per-sound errors.
func (d *Downloader) DownloadBoard(ctx context.Context, boardID, outputRoot string) Summary {
	summary := Summary{BoardID: boardID}

	sounds, markup, err := d.Catalog.FetchBoardSounds(ctx, boardID)
	if err != nil {
		summary.Err = err
		return summary
	}
	summary.Title = markup.Title()

	classify := d.Classify
	if classify == nil {
		classify = DetectByDownloadAction
	}
	if classify(markup) != Downloadable {
		summary.Restricted = true
		return summary
	}

	if len(sounds) == 0 {
		return summary
	}

	dir := filepath.Join(outputRoot, sanitize.DirName(boardID))
	dirCreated := false
	usedStems := make(map[string]bool)

	maxFailures := d.MaxConsecutiveFailures
	if maxFailures <= 0 {
		maxFailures = DefaultMaxConsecutiveFailures
	}

	consecutiveFailures := 0
	for i, entry := range sounds {
		if err := ctx.Err(); err != nil {
			summary.Err = err
			summary.Aborted = true
			summary.Remaining = len(sounds) - i
			break
		}

		if !dirCreated {
			if err := os.MkdirAll(dir, 0755); err != nil {
				summary.Err = fmt.Errorf("create output directory: %w", err)
				return summary
			}
			dirCreated = true
			summary.Dir = dir
		}

		name := sanitize.Normalize(entry.RawTitle, entry.SequenceIndex+1)
		name = resolveCollision(name, usedStems)
		usedStems[strings.ToLower(name.Stem)] = true

		outcome := d.fetchOne(ctx, entry, name, filepath.Join(dir, name.Filename()))
		summary.Outcomes = append(summary.Outcomes, outcome)
		if d.OnSound != nil {
			d.OnSound(outcome)
		}

		switch outcome.Status {
		case StatusSuccess:
			summary.Succeeded++
			consecutiveFailures = 0
		case StatusSkipped:
			summary.Skipped++
			consecutiveFailures = 0
		case StatusFailed:
			summary.Failed++
			consecutiveFailures++
		}

		if consecutiveFailures >= maxFailures {
			summary.Aborted = true
			summary.Remaining = len(sounds) - i - 1
			break
		}

		if i < len(sounds)-1 {
			if err := d.pause(ctx); err != nil {
				summary.Err = err
				summary.Aborted = true
				summary.Remaining = len(sounds) - i - 1
				break
			}
		}
	}

	// Leave no empty artifact directories behind.
	if dirCreated && summary.Succeeded == 0 && summary.Skipped == 0 {
		os.Remove(dir)
		summary.Dir = ""
	}

	return summary
}

// fetchOne downloads a single sound to path. Files already on disk are
// skipped, not re-fetched.
func (d *Downloader) fetchOne(ctx context.Context, entry SoundEntry, name sanitize.Name, path string) SoundOutcome {
	outcome := SoundOutcome{Entry: entry, Name: name}

	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		outcome.Status = StatusSkipped
		outcome.Reason = "already exists"
		return outcome
	}

	payload, err := d.Catalog.FetchSound(ctx, entry)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = err.Error()
		return outcome
	}

	if len(payload.Data) == 0 {
		outcome.Status = StatusFailed
		outcome.Reason = "empty response"
		return outcome
	}
	if isNonAudio(payload) {
		outcome.Status = StatusFailed
		outcome.Reason = "non-audio response (" + payload.ContentType + ")"
		return outcome
	}

	if err := storage.WriteFile(path, payload.Data); err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = err.Error()
		return outcome
	}

	outcome.Status = StatusSuccess
	outcome.Bytes = int64(len(payload.Data))
	return outcome
}

// pause applies the fixed inter-request delay, honoring cancellation.
func (d *Downloader) pause(ctx context.Context) error {
	delay := d.Delay
	if delay == 0 {
		delay = DefaultRequestDelay
	}
	if delay < 0 {
		return nil
	}

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// resolveCollision appends a numeric suffix when two sounds on the same
// board normalize to the same stem.
func resolveCollision(name sanitize.Name, used map[string]bool) sanitize.Name {
	if !used[strings.ToLower(name.Stem)] {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s %d", name.Stem, n)
		if !used[strings.ToLower(candidate)] {
			name.Stem = candidate
			return name
		}
	}
}

// isNonAudio flags payloads that are clearly error pages rather than
// audio. The catalog serves HTML with a 200 status for withdrawn tracks.
func isNonAudio(p SoundPayload) bool {
	ct := strings.ToLower(p.ContentType)
	if strings.Contains(ct, "text/html") || strings.Contains(ct, "application/json") {
		return true
	}
	// Sniff an HTML document when no content type was sent.
	head := p.Data
	if len(head) > 32 {
		head = head[:32]
	}
	trimmed := strings.TrimSpace(string(head))
	return strings.HasPrefix(strings.ToLower(trimmed), "<!doctype html") ||
		strings.HasPrefix(strings.ToLower(trimmed), "<html")
}

// BatchSummary aggregates a multi-board run.
type BatchSummary struct {
	Boards     []Summary
	Succeeded  int
	Restricted int
	Failed     int
}

// DownloadBoards processes boards sequentially, one board fully before
// the next begins. A board-level failure never aborts the batch; the
// caller inspects the batch summary to decide what to do.
func (d *Downloader) DownloadBoards(ctx context.Context, boardIDs []string, outputRoot string) BatchSummary {
	var batch BatchSummary
	for _, id := range boardIDs {
		summary := d.DownloadBoard(ctx, id, outputRoot)
		batch.Boards = append(batch.Boards, summary)

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

		if ctx.Err() != nil {
			break
		}
	}
	return batch
}
