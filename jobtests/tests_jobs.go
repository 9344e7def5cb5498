package jobtests

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/adamkewley/jobson-systemtests/client"
	"github.com/adamkewley/jobson-systemtests/framework"
	"github.com/adamkewley/jobson-systemtests/servicedef"
	"github.com/adamkewley/jobson-systemtests/testdef"

	"github.com/stretchr/testify/require"
)

const maxReportedBodyLength = 200

// JobName returns the name under which a test's job is submitted, so that jobs created by
// the tests are recognizable in the API's job list.
func JobName(specID, testName string) string {
	return "systemtest_" + specID + "_" + testName
}

func (e *environment) doJobTest(c *framework.Context, specID string, def testdef.TestDefinition) {
	session := e.client.NewSession(c.DebugLogger())
	c.Defer(session.Close)

	resp, err := session.SubmitJob(e.ctx, servicedef.JobRequest{
		Spec:   specID,
		Name:   JobName(specID, def.Name),
		Inputs: def.Inputs,
	})
	require.NoError(c, err, "job submission failed")

	ex := def.Expectations
	if ex == nil {
		c.Errorf("malformed test definition: %s: does not have an expectations key", def.Name)
		c.FailNow()
	}

	if !ex.IsAccepted {
		if resp.StatusCode == http.StatusOK {
			c.Errorf("job was accepted, but the test expected it to be rejected")
			c.FailNow()
		}
		c.Debug("job was rejected with status %d, as expected", resp.StatusCode)
		return
	}

	if resp.StatusCode != http.StatusOK {
		c.Errorf("job was rejected with status %d: %s", resp.StatusCode, abbreviate(resp.Body))
		c.FailNow()
	}
	var created servicedef.JobCreatedResponse
	require.NoError(c, resp.DecodeJSON(&created))
	if created.ID == "" {
		c.Errorf("job submission response did not include an ID: %s", abbreviate(resp.Body))
		c.FailNow()
	}
	c.Debug("job %s submitted", created.ID)

	finalStatus := e.awaitTerminalStatus(c, session, created.ID)
	if finalStatus != ex.FinalStatus {
		c.Errorf("job %s ended with status %q, expected %q", created.ID, finalStatus, ex.FinalStatus)
		c.FailNow()
	}

	if ex.HasOutputs {
		e.checkOutputs(c, session, created.ID, ex.Outputs)
	}
}

// awaitTerminalStatus polls the job until its latest status is terminal, and returns that
// status. The test fails if the poll limit is reached first.
func (e *environment) awaitTerminalStatus(c *framework.Context, session *client.Session, jobID string) string {
	var status string
	jobLogger := framework.LoggerWithPrefix(c.DebugLogger(), "["+jobID+"] ")
	startTime := time.Now()
	attempts, err := e.poll.Poll(e.ctx, func(n int) (bool, error) {
		resp, err := session.GetJobDetails(e.ctx, jobID)
		if err != nil {
			return false, err
		}
		if resp.StatusCode != http.StatusOK {
			return false, fmt.Errorf("unexpected status %d when getting job details: %s",
				resp.StatusCode, abbreviate(resp.Body))
		}
		var details servicedef.JobDetails
		if err := resp.DecodeJSON(&details); err != nil {
			return false, err
		}
		status = details.LatestStatus()
		jobLogger.Printf("poll %d: status %q", n, status)
		return servicedef.IsTerminalStatus(status), nil
	})
	elapsed := time.Since(startTime)

	if errors.Is(err, framework.ErrPollTimedOut) {
		c.Errorf("TimedOut: job %s did not reach a terminal status (last status %q): %s", jobID, status, err)
		c.FailNow()
	}
	require.NoError(c, err, "error while polling job %s", jobID)
	jobLogger.Printf("reached status %q after %d polls (%s)", status, attempts, elapsed.Round(time.Millisecond))
	return status
}

func abbreviate(body []byte) string {
	if len(body) <= maxReportedBodyLength {
		return string(body)
	}
	return string(body[:maxReportedBodyLength]) + "..."
}
