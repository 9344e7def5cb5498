package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/adamkewley/jobson-systemtests/framework"

	"github.com/alessio/shellescape"
)

const usageLine = "usage: jobson-systemtests [flags] specs_dir host port login password"

type commandParams struct {
	specsDir   string
	host       string
	port       int
	login      string
	password   string
	filters    framework.RegexFilters
	debug      bool
	debugAll   bool
	configFile string
	runner     runnerConfig
}

// Read parses the command line, not including the program name. Settings are taken from
// the defaults, then the config file if any, then any flags that were given explicitly.
func (c *commandParams) Read(args []string, errOut io.Writer) error {
	var flagValues runnerConfig
	fs := flag.NewFlagSet("jobson-systemtests", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		fmt.Fprintln(errOut, usageLine)
		fs.PrintDefaults()
	}
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.StringVar(&c.configFile, "config", "", "TOML file with runner settings")
	fs.StringVar(&flagValues.TestsFile, "tests-file", "", "name of the tests file in each spec directory")
	fs.StringVar(&flagValues.PollInterval, "poll-interval", "", "time between job status checks")
	fs.IntVar(&flagValues.MaxPollAttempts, "max-polls", 0, "number of job status checks before a test times out")
	fs.IntVar(&flagValues.Parallel, "parallel", 0, "number of tests to run at once")
	fs.Float64Var(&flagValues.RequestsPerSecond, "rps", 0, "maximum API requests per second (0 for no limit)")
	fs.StringVar(&flagValues.RequestTimeout, "request-timeout", "", "timeout for each API request")
	fs.StringVar(&flagValues.ReportFile, "report", "", "file to write a JSON report of the run to")

	if err := fs.Parse(args); err != nil {
		return err
	}

	positional := fs.Args()
	if len(positional) != 5 {
		fs.Usage()
		return fmt.Errorf("expected 5 arguments, got %d", len(positional))
	}
	c.specsDir, c.host, c.login, c.password = positional[0], positional[1], positional[3], positional[4]
	port, err := strconv.Atoi(positional[2])
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", positional[2])
	}
	c.port = port

	c.runner = defaultRunnerConfig()
	if c.configFile != "" {
		if err := loadRunnerConfig(c.configFile, &c.runner); err != nil {
			return err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tests-file":
			c.runner.TestsFile = flagValues.TestsFile
		case "poll-interval":
			c.runner.PollInterval = flagValues.PollInterval
		case "max-polls":
			c.runner.MaxPollAttempts = flagValues.MaxPollAttempts
		case "parallel":
			c.runner.Parallel = flagValues.Parallel
		case "rps":
			c.runner.RequestsPerSecond = flagValues.RequestsPerSecond
		case "request-timeout":
			c.runner.RequestTimeout = flagValues.RequestTimeout
		case "report":
			c.runner.ReportFile = flagValues.ReportFile
		}
	})
	return c.runner.validate()
}

func (c *commandParams) baseURL() string {
	return "http://" + net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// isHelp is true for the error returned by Read when help was requested.
func isHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}

// rerunCommand returns a command line that repeats this run, restricted to the given tests.
// Any -run flags of the original command are replaced. A failed scope, such as a spec whose
// tests file was malformed, selects every test under it.
func rerunCommand(program string, args []string, failures []framework.TestResult) string {
	var b commandBuilder
	b.add(program)
	for _, f := range failures {
		b.add("-run", rerunPattern(f))
	}
	b.add(withoutRunFlags(args)...)
	return b.String()
}

func rerunPattern(f framework.TestResult) string {
	id := regexp.QuoteMeta(f.TestID.String())
	if f.Scope {
		return "^" + id + "/"
	}
	return "^" + id + "$"
}

func withoutRunFlags(args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" || !strings.HasPrefix(a, "-") {
			out = append(out, a)
			continue
		}
		name := strings.TrimLeft(a, "-")
		if name == "run" {
			i++
			continue
		}
		if strings.HasPrefix(name, "run=") {
			continue
		}
		out = append(out, a)
	}
	return out
}
