package framework

// TestLogger receives events as the run progresses. Calls are serialized by the Context, so
// an implementation does not need its own locking even when tests run in parallel. Every
// TestStarted is followed by exactly one TestFinished or TestSkipped for the same ID, with
// any TestError calls in between.
type TestLogger interface {
	TestStarted(id TestID)
	TestError(id TestID, err error)
	TestFinished(id TestID, failed bool, debugOutput CapturedOutput)
	TestSkipped(id TestID, reason string)
}

// nullTestLogger discards all events; Run uses it when no TestLogger is given.
type nullTestLogger struct{}

func (n nullTestLogger) TestStarted(TestID)                        {}
func (n nullTestLogger) TestError(TestID, error)                   {}
func (n nullTestLogger) TestFinished(TestID, bool, CapturedOutput) {}
func (n nullTestLogger) TestSkipped(TestID, string)                {}
