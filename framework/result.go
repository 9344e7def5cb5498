package framework

import "strings"

type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

// TestResult is the outcome of one test, or of a scope that failed or was skipped as a
// whole (for instance a spec whose tests file could not be parsed).
type TestResult struct {
	TestID     TestID
	Errors     []error
	Skipped    bool
	SkipReason string
	Scope      bool // the ID is a grouping; its tests have IDs under it
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Counts returns the number of tests that passed, failed, and were skipped.
func (r Results) Counts() (passed, failed, skipped int) {
	for _, t := range r.Tests {
		if t.Skipped {
			skipped++
		}
	}
	failed = len(r.Failures)
	passed = len(r.Tests) - failed - skipped
	return
}

// TestID identifies a test by its path from the root of the run. Job tests are laid out as
// <spec>/<test>, and the prerequisite checks as smoke/<check>; a single-element path is a
// scope such as a spec.
type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}
