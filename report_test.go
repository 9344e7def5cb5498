package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adamkewley/jobson-systemtests/framework"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeResults() framework.Results {
	passed := framework.TestResult{TestID: framework.TestID{Path: []string{"echo", "ok"}}}
	failed := framework.TestResult{
		TestID: framework.TestID{Path: []string{"echo", "bad"}},
		Errors: []error{errors.New("job ended with status \"fatal-error\"")},
	}
	skipped := framework.TestResult{TestID: framework.TestID{Path: []string{"untested"}}, Skipped: true, SkipReason: "no tests.yml"}
	return framework.Results{
		Tests:    []framework.TestResult{passed, failed, skipped},
		Failures: []framework.TestResult{failed},
	}
}

func TestWriteReport(t *testing.T) {
	runID := uuid.New()
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	report := newRunReport(runID, "http://localhost:8080", started, 1500*time.Millisecond, makeResults())

	path := filepath.Join(t.TempDir(), "reports", "run.json")
	require.NoError(t, writeReport(path, report))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded runReport
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, runID.String(), decoded.RunID)
	assert.Equal(t, "http://localhost:8080", decoded.Target)
	assert.Equal(t, "2024-05-01T12:00:00Z", decoded.StartedAt)
	assert.Equal(t, "1.5s", decoded.Duration)
	assert.Equal(t, 1, decoded.Passed)
	assert.Equal(t, 1, decoded.Failed)
	assert.Equal(t, 1, decoded.Skipped)
	assert.Equal(t, []reportEntry{
		{ID: "echo/ok", Status: reportStatusPassed},
		{ID: "echo/bad", Status: reportStatusFailed, Errors: []string{`job ended with status "fatal-error"`}},
		{ID: "untested", Status: reportStatusSkipped, SkipReason: "no tests.yml"},
	}, decoded.Tests)
}

func TestConsoleTestLogger(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	logger := &ConsoleTestLogger{DebugOutputOnFailure: true, Out: &buf}
	id := framework.TestID{Path: []string{"echo", "bad"}}

	logger.TestStarted(id)
	logger.TestError(id, errors.New("line one\nline two"))
	logger.TestFinished(id, true, framework.CapturedOutput{{Time: time.Now(), Message: ">> GET /v1/jobs"}})
	logger.TestSkipped(framework.TestID{Path: []string{"untested"}}, "no tests.yml")

	out := buf.String()
	assert.Contains(t, out, "[echo/bad]\n  line one\n  line two\n  FAILED: echo/bad\n")
	assert.Contains(t, out, "    DEBUG [")
	assert.Contains(t, out, ">> GET /v1/jobs")
	assert.Contains(t, out, "  SKIPPED: untested (no tests.yml)\n")
}

func TestConsoleTestLoggerHidesDebugOutputOnSuccess(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	logger := &ConsoleTestLogger{DebugOutputOnFailure: true, Out: &buf}
	logger.TestFinished(framework.TestID{Path: []string{"a"}}, false, framework.CapturedOutput{{Message: "hidden"}})
	assert.Equal(t, "", buf.String())
}

func TestPrintResults(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	printResults(&buf, makeResults(), 2*time.Second)
	assert.Equal(t, "Ran 3 tests in 2s: 1 passed, 1 failed, 1 skipped\nFailed tests:\n  echo/bad\n", buf.String())
}
