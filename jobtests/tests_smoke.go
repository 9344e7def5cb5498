package jobtests

import (
	"context"
	"net/http"

	"github.com/adamkewley/jobson-systemtests/client"
	"github.com/adamkewley/jobson-systemtests/framework"

	"github.com/stretchr/testify/require"
)

// doSmokeTests checks that the API is up and that the credentials are accepted, before any
// jobs are submitted. The checks run whatever filter was given, and stop at the first
// failure; it returns false in that case.
func (e *environment) doSmokeTests(c *framework.Context) bool {
	ok := false
	c.Scope("smoke", func(c *framework.Context) {
		if !c.RunAlways("list jobs", func(c *framework.Context) {
			e.requireListing(c, (*client.Session).ListJobs)
		}) {
			return
		}
		ok = c.RunAlways("list specs", func(c *framework.Context) {
			e.requireListing(c, (*client.Session).ListSpecs)
		})
	})
	return ok
}

func (e *environment) requireListing(
	c *framework.Context,
	list func(*client.Session, context.Context) (*client.Response, error),
) {
	session := e.client.NewSession(c.DebugLogger())
	c.Defer(session.Close)

	resp, err := list(session, e.ctx)
	require.NoError(c, err)
	if resp.StatusCode != http.StatusOK {
		c.Errorf("expected status 200, got %d (is the API running, and are the credentials correct?)",
			resp.StatusCode)
		c.FailNow()
	}
}
