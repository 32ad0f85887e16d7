package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// RunReport summarizes a bulk download run for later inspection.
type RunReport struct {
	// Query is the search query that produced the run, if any.
	Query string `json:"query,omitempty"`
	// GeneratedAt is when the report was written.
	GeneratedAt time.Time `json:"generated_at"`
	// Boards holds per-board results in processing order.
	Boards []BoardResult `json:"boards"`
	// Succeeded is the number of boards with at least one saved file.
	Succeeded int `json:"succeeded"`
	// Restricted is the number of boards skipped as play-only.
	Restricted int `json:"restricted"`
	// Failed is the number of boards that ended with an error or abort.
	Failed int `json:"failed"`
}

// BoardResult records the outcome for a single board.
type BoardResult struct {
	BoardID    string `json:"board_id"`
	Title      string `json:"title,omitempty"`
	Dir        string `json:"dir,omitempty"`
	Restricted bool   `json:"restricted"`
	Aborted    bool   `json:"aborted"`
	Saved      int    `json:"saved"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Error      string `json:"error,omitempty"`
}

// WriteRunReport atomically writes the report as indented JSON to path.
func WriteRunReport(path string, report *RunReport) error {
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if err := WriteFile(path, data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// ReadRunReport loads a previously written report.
func ReadRunReport(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	var report RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &report, nil
}
