package jobtests

import (
	"context"
	"sync"

	"github.com/adamkewley/jobson-systemtests/client"
	"github.com/adamkewley/jobson-systemtests/framework"
	"github.com/adamkewley/jobson-systemtests/testdef"

	"github.com/stretchr/testify/require"
)

// Config contains the parameters for RunTestSuite.
type Config struct {
	SpecsDir      string
	TestsFileName string // defaults to testdef.DefaultTestsFileName
	Poll          framework.PollPolicy

	// Parallel is the maximum number of test cases that may run at once. Values below 2
	// mean that everything runs sequentially, in order.
	Parallel int
}

type environment struct {
	ctx    context.Context
	client *client.JobsonClient
	poll   framework.PollPolicy
}

// RunTestSuite runs the smoke tests and then, if they passed, every test in the specs
// directory. Cancelling ctx makes any tests that are still running fail.
func RunTestSuite(
	ctx context.Context,
	jobson *client.JobsonClient,
	config Config,
	filter framework.Filter,
	testLogger framework.TestLogger,
) framework.Results {
	if config.TestsFileName == "" {
		config.TestsFileName = testdef.DefaultTestsFileName
	}
	env := &environment{ctx: ctx, client: jobson, poll: config.Poll}

	return framework.Run(filter, testLogger, func(c *framework.Context) {
		if !env.doSmokeTests(c) {
			return
		}

		var specs []testdef.Spec
		c.Scope("discovery", func(c *framework.Context) {
			var err error
			specs, err = testdef.DiscoverSpecs(config.SpecsDir, config.TestsFileName)
			require.NoError(c, err)
		})

		sched := newScheduler(config.Parallel)
		specGroup := sched.newGroup()
		for _, spec := range specs {
			spec := spec
			specGroup.goScope(func() {
				c.Scope(spec.ID, func(c *framework.Context) {
					env.doSpecTests(c, sched, spec, config.TestsFileName)
				})
			})
		}
		specGroup.wait()
	})
}

func (e *environment) doSpecTests(c *framework.Context, sched *scheduler, spec testdef.Spec, testsFileName string) {
	if !spec.HasTestsFile() {
		c.SkipWithReason("no " + testsFileName)
	}
	tf, err := spec.Load()
	require.NoError(c, err, "could not load tests for spec %q", spec.ID)

	group := sched.newGroup()
	for _, def := range tf.Tests {
		def := def
		group.goTest(func() {
			c.Run(def.Name, func(c *framework.Context) {
				e.doJobTest(c, spec.ID, def)
			})
		})
	}
	group.wait()
}

// scheduler bounds how many test cases run at once. A nil slots channel means sequential
// execution on the calling goroutine.
type scheduler struct {
	slots chan struct{}
}

func newScheduler(parallel int) *scheduler {
	if parallel < 2 {
		return &scheduler{}
	}
	return &scheduler{slots: make(chan struct{}, parallel)}
}

type taskGroup struct {
	sched *scheduler
	wg    sync.WaitGroup
}

func (s *scheduler) newGroup() *taskGroup {
	return &taskGroup{sched: s}
}

// goTest runs a test case once a slot is free.
func (g *taskGroup) goTest(fn func()) {
	g.start(fn, true)
}

// goScope runs a grouping of test cases. It does not take a slot, since it only waits for
// its own test cases.
func (g *taskGroup) goScope(fn func()) {
	g.start(fn, false)
}

func (g *taskGroup) start(fn func(), needsSlot bool) {
	if g.sched.slots == nil {
		fn()
		return
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if needsSlot {
			g.sched.slots <- struct{}{}
			defer func() { <-g.sched.slots }()
		}
		fn()
	}()
}

func (g *taskGroup) wait() {
	g.wg.Wait()
}
