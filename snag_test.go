package snag

import (
	"testing"

	"github.com/eworthing/soundboard-snag/catalog"
	"github.com/eworthing/soundboard-snag/config"
)

func TestNewSearcherDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	s := newSearcher(cfg, SearchOptions{})

	if s.Thresholds.MinViews != cfg.MinViews {
		t.Errorf("MinViews = %d, want %d", s.Thresholds.MinViews, cfg.MinViews)
	}
	if s.Thresholds.MinSounds != cfg.MinSounds {
		t.Errorf("MinSounds = %d, want %d", s.Thresholds.MinSounds, cfg.MinSounds)
	}
	if s.MaxBoardsToCheck != cfg.MaxBoards {
		t.Errorf("MaxBoardsToCheck = %d, want %d", s.MaxBoardsToCheck, cfg.MaxBoards)
	}
	if s.Pager == nil {
		t.Error("expected a pager to be wired")
	}
}

func TestNewSearcherThresholdOverride(t *testing.T) {
	cfg := config.DefaultConfig()

	// A zero-value Thresholds pointer disables filtering entirely.
	disabled := &catalog.Thresholds{}
	s := newSearcher(cfg, SearchOptions{Thresholds: disabled, MaxBoards: 5})

	if s.Thresholds.MinViews != 0 || s.Thresholds.MinSounds != 0 {
		t.Errorf("Thresholds = %+v, want zero values", s.Thresholds)
	}
	if s.MaxBoardsToCheck != 5 {
		t.Errorf("MaxBoardsToCheck = %d, want 5", s.MaxBoardsToCheck)
	}
}

func TestNewSearcherEvaluateCallback(t *testing.T) {
	cfg := config.DefaultConfig()
	called := func(catalog.Evaluation) {}

	s := newSearcher(cfg, SearchOptions{OnEvaluate: called})
	if s.OnEvaluate == nil {
		t.Error("OnEvaluate not threaded through")
	}
}

func TestNewDownloader(t *testing.T) {
	cfg := config.DefaultConfig()
	d := newDownloader(cfg)

	if d.Delay != cfg.RequestDelay {
		t.Errorf("Delay = %v, want %v", d.Delay, cfg.RequestDelay)
	}
	if d.MaxConsecutiveFailures != cfg.MaxConsecutiveFailures {
		t.Errorf("MaxConsecutiveFailures = %d, want %d",
			d.MaxConsecutiveFailures, cfg.MaxConsecutiveFailures)
	}
	if d.Catalog == nil {
		t.Error("expected a catalog client to be wired")
	}
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	// With no config file and clean env, loadConfig must still produce a
	// usable configuration.
	cfg := loadConfig()
	if cfg == nil {
		t.Fatal("loadConfig returned nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("fallback config is invalid: %v", err)
	}
}
