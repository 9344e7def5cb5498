package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/adamkewley/jobson-systemtests/framework"

	"github.com/fatih/color"
)

var (
	failedColor  = color.New(color.FgRed, color.Bold)
	skippedColor = color.New(color.FgYellow)
	passedColor  = color.New(color.FgGreen)
	debugColor   = color.New(color.Faint)
)

type ConsoleTestLogger struct {
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
	Out                  io.Writer // defaults to os.Stdout
}

func (c *ConsoleTestLogger) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *ConsoleTestLogger) TestStarted(id framework.TestID) {
	fmt.Fprintf(c.out(), "[%s]\n", id)
}

func (c *ConsoleTestLogger) TestError(id framework.TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Fprintf(c.out(), "  %s\n", line)
	}
}

func (c *ConsoleTestLogger) TestFinished(id framework.TestID, failed bool, debugOutput framework.CapturedOutput) {
	if failed {
		fmt.Fprintf(c.out(), "  %s: %s\n", failedColor.Sprint("FAILED"), id)
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		debugOutput.Dump(c.out(), debugColor.Sprint("    DEBUG "))
	}
}

func (c *ConsoleTestLogger) TestSkipped(id framework.TestID, reason string) {
	if reason == "" {
		fmt.Fprintf(c.out(), "  %s: %s\n", skippedColor.Sprint("SKIPPED"), id)
	} else {
		fmt.Fprintf(c.out(), "  %s: %s (%s)\n", skippedColor.Sprint("SKIPPED"), id, reason)
	}
}

// printResults writes the summary at the end of a run.
func printResults(out io.Writer, results framework.Results, elapsed time.Duration) {
	passed, failed, skipped := results.Counts()
	fmt.Fprintf(out, "Ran %d tests in %s: %s, %s, %s\n",
		len(results.Tests),
		elapsed.Round(time.Millisecond),
		passedColor.Sprintf("%d passed", passed),
		failedColor.Sprintf("%d failed", failed),
		skippedColor.Sprintf("%d skipped", skipped),
	)
	if len(results.Failures) == 0 {
		return
	}
	fmt.Fprintln(out, "Failed tests:")
	for _, f := range results.Failures {
		fmt.Fprintf(out, "  %s\n", f.TestID)
	}
}
