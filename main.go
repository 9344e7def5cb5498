package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/adamkewley/jobson-systemtests/client"
	"github.com/adamkewley/jobson-systemtests/framework"
	"github.com/adamkewley/jobson-systemtests/jobtests"

	"github.com/google/uuid"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	var params commandParams
	if err := params.Read(args[1:], os.Stderr); err != nil {
		if isHelp(err) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Invalid parameters: %s\n", err)
		return 1
	}

	runID := uuid.New()
	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = framework.LoggerWithPrefix(log.New(os.Stdout, "", log.LstdFlags),
			"[run "+runID.String()[:8]+"] ")
	}

	pollPolicy, _ := params.runner.pollPolicy()
	requestTimeout, _ := params.runner.requestTimeout()
	jobson := client.NewJobsonClient(client.Config{
		BaseURL:           params.baseURL(),
		Login:             params.login,
		Password:          params.password,
		RequestTimeout:    requestTimeout,
		RequestsPerSecond: params.runner.RequestsPerSecond,
	})
	mainDebugLogger.Printf("run %s: target %s, poll every %s up to %d times, parallel %d",
		runID, jobson.BaseURL(), pollPolicy.Interval, pollPolicy.MaxAttempts, params.runner.Parallel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println()
	framework.PrintFilterDescription(os.Stdout, params.filters)

	fmt.Printf("Running test suite against %s\n", jobson.BaseURL())

	testLogger := &ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	startTime := time.Now()
	results := jobtests.RunTestSuite(
		ctx,
		jobson,
		jobtests.Config{
			SpecsDir:      params.specsDir,
			TestsFileName: params.runner.TestsFile,
			Poll:          pollPolicy,
			Parallel:      params.runner.Parallel,
		},
		params.filters.AsFilter,
		testLogger,
	)
	elapsed := time.Since(startTime)

	fmt.Println()
	printResults(os.Stdout, results, elapsed)

	if params.runner.ReportFile != "" {
		report := newRunReport(runID, jobson.BaseURL(), startTime, elapsed, results)
		if err := writeReport(params.runner.ReportFile, report); err != nil {
			fmt.Fprintf(os.Stderr, "Could not write report: %s\n", err)
			return 1
		}
		mainDebugLogger.Printf("report written to %s", params.runner.ReportFile)
	}

	if !results.OK() {
		fmt.Println()
		fmt.Println("To re-run the failed tests:")
		fmt.Printf("  %s\n", rerunCommand(args[0], args[1:], results.Failures))
		return 1
	}
	return 0
}
