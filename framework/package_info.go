// Package framework contains the low-level implementation of test harness infrastructure
// that is not specific to the job API being tested.
//
// The general model is:
//
// 1. There is a general notion of a test context which is similar to Go's *testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results. Results are returned to the caller of Run rather than kept in
// any global state.
//
// 2. A TestLogger receives notifications as tests start, fail, finish, or are skipped, and
// each test has a debug logger whose output is handed to the TestLogger at the end.
//
// 3. Waiting for some remote state to settle is expressed as a PollPolicy, so that the
// number of attempts, the interval, and the way the harness sleeps can all be controlled.
//
// The domain-specific code that knows what is being tested is responsible for talking to
// the service and for the assertions themselves.
package framework
