package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adamkewley/jobson-systemtests/framework"

	"github.com/google/uuid"
)

const (
	reportStatusPassed  = "passed"
	reportStatusFailed  = "failed"
	reportStatusSkipped = "skipped"
)

type runReport struct {
	RunID           string        `json:"runId"`
	Target          string        `json:"target"`
	StartedAt       string        `json:"startedAt"`
	Duration        string        `json:"duration"`
	DurationSeconds float64       `json:"durationSeconds"`
	Passed          int           `json:"passed"`
	Failed          int           `json:"failed"`
	Skipped         int           `json:"skipped"`
	Tests           []reportEntry `json:"tests"`
}

type reportEntry struct {
	ID         string   `json:"id"`
	Status     string   `json:"status"`
	SkipReason string   `json:"skipReason,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

func newRunReport(runID uuid.UUID, target string, startedAt time.Time, elapsed time.Duration, results framework.Results) runReport {
	passed, failed, skipped := results.Counts()
	report := runReport{
		RunID:           runID.String(),
		Target:          target,
		StartedAt:       startedAt.Format(time.RFC3339),
		Duration:        elapsed.String(),
		DurationSeconds: elapsed.Seconds(),
		Passed:          passed,
		Failed:          failed,
		Skipped:         skipped,
		Tests:           []reportEntry{},
	}
	for _, t := range results.Tests {
		entry := reportEntry{ID: t.TestID.String(), Status: reportStatusPassed}
		switch {
		case t.Skipped:
			entry.Status = reportStatusSkipped
			entry.SkipReason = t.SkipReason
		case len(t.Errors) > 0:
			entry.Status = reportStatusFailed
		}
		for _, err := range t.Errors {
			entry.Errors = append(entry.Errors, err.Error())
		}
		report.Tests = append(report.Tests, entry)
	}
	return report
}

func writeReport(path string, report runReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
