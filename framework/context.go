package framework

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

type environment struct {
	results    Results
	testLogger TestLogger
	filter     Filter
	lock       sync.Mutex
}

// Context is the test scope used by the test suite. It implements require.TestingT, so the
// assert and require packages can be used with it as if it were a *testing.T.
//
// Subtests started with Run may run on other goroutines; bookkeeping that is shared between
// tests (the accumulated Results and the TestLogger) is serialized.
type Context struct {
	env         *environment
	id          TestID
	debugLogger CapturingLogger
	failed      bool
	skipped     bool
	skipReason  string
	errors      []error
	deferred    []func()
	scope       bool
}

// Run starts a test run. The top-level action receives a Context with an empty ID; it should
// call Context.Run for each test. The accumulated results are returned when action exits.
func Run(
	filter Filter,
	testLogger TestLogger,
	action func(*Context),
) Results {
	if testLogger == nil {
		testLogger = nullTestLogger{}
	}
	env := &environment{
		filter:     filter,
		testLogger: testLogger,
	}
	c := &Context{env: env}
	c.run(action)
	return env.results
}

func (c *Context) run(action func(*Context)) {
	defer func() {
		if r := recover(); r != nil {
			if !c.skipped {
				c.failed = true
				var addError error
				if _, ok := r.(*Context); ok {
					if len(c.errors) == 0 {
						addError = errors.New("test failed with no failure message")
					}
				} else {
					addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
				}
				if addError != nil {
					c.errors = append(c.errors, addError)
					c.withLock(func() { c.env.testLogger.TestError(c.id, addError) })
				}
			}
		}
		for i := len(c.deferred) - 1; i >= 0; i-- {
			c.deferred[i]()
		}
		c.deferred = nil

		if (len(c.id.Path) == 0 || c.scope) && !c.failed && !c.skipped {
			return // scopes are only recorded if something escaped their individual tests
		}
		result := TestResult{TestID: c.id, Errors: c.errors, Skipped: c.skipped, SkipReason: c.skipReason, Scope: c.scope}
		c.withLock(func() {
			c.env.results.Tests = append(c.env.results.Tests, result)
			if c.failed {
				c.env.results.Failures = append(c.env.results.Failures, result)
			}
		})
	}()

	action(c)
}

func (c *Context) withLock(fn func()) {
	c.env.lock.Lock()
	defer c.env.lock.Unlock()
	fn()
}

// Run runs a subtest, and returns true if it did not fail. Tests that were excluded by the
// filter, or that skipped themselves, count as not failing.
//
// It is safe to call Run concurrently from several goroutines on the same parent.
func (c *Context) Run(name string, action func(*Context)) bool {
	return c.runChild(name, true, false, action)
}

// RunAlways is like Run, but the filter is not applied to it: use it for prerequisite
// checks that must run whatever tests were selected.
func (c *Context) RunAlways(name string, action func(*Context)) bool {
	return c.runChild(name, false, false, action)
}

// Scope is like Run, but the filter is not applied to it: use it for a grouping of tests
// whose own IDs are filtered individually. A scope is only recorded in the results if it
// failed or was skipped itself.
func (c *Context) Scope(name string, action func(*Context)) bool {
	return c.runChild(name, false, true, action)
}

func (c *Context) runChild(name string, filtered, scope bool, action func(*Context)) bool {
	id := TestID{Path: append(append([]string(nil), c.id.Path...), name)}

	c.withLock(func() { c.env.testLogger.TestStarted(id) })
	if filtered && c.env.filter != nil && !c.env.filter(id) {
		c.withLock(func() { c.env.testLogger.TestSkipped(id, "excluded by filter parameters") })
		return true
	}
	c1 := &Context{
		id:    id,
		env:   c.env,
		scope: scope,
	}
	c1.run(action)
	if c1.skipped {
		c.withLock(func() { c.env.testLogger.TestSkipped(id, c1.skipReason) })
	} else {
		c.withLock(func() { c.env.testLogger.TestFinished(id, c1.failed, c1.debugLogger.Output()) })
	}
	return !c1.failed
}

// Errorf records a failure without stopping the test. The methods in the assert package call
// this.
func (c *Context) Errorf(format string, args ...interface{}) {
	c.failed = true
	err := fmt.Errorf(format, args...)
	c.errors = append(c.errors, err)
	c.withLock(func() { c.env.testLogger.TestError(c.id, err) })
}

// FailNow stops the test immediately. The methods in the require package call this.
func (c *Context) FailNow() {
	panic(c)
}

func (c *Context) Skip() {
	c.skipped = true
	panic(c)
}

func (c *Context) SkipWithReason(reason string) {
	c.skipReason = reason
	c.Skip()
}

// Defer schedules an action to run when the test exits, whether it passed, failed, or
// panicked. Deferred actions run in reverse order.
func (c *Context) Defer(action func()) {
	c.deferred = append(c.deferred, action)
}

func (c *Context) Debug(message string, args ...interface{}) {
	c.debugLogger.Printf(message, args...)
}

func (c *Context) DebugLogger() Logger {
	return &c.debugLogger
}
