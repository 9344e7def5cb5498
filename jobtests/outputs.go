package jobtests

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/adamkewley/jobson-systemtests/client"
	"github.com/adamkewley/jobson-systemtests/framework"
	"github.com/adamkewley/jobson-systemtests/servicedef"
	"github.com/adamkewley/jobson-systemtests/testdef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// checkOutputs verifies the job's output manifest against the expected outputs. Every
// expectation is checked, and every mismatch reported, before the test ends.
func (e *environment) checkOutputs(
	c *framework.Context,
	session *client.Session,
	jobID string,
	expected []testdef.OutputExpectation,
) {
	resp, err := session.GetJobOutputs(e.ctx, jobID)
	require.NoError(c, err)
	if resp.StatusCode != http.StatusOK {
		c.Errorf("unexpected status %d when listing outputs of job %s: %s", resp.StatusCode, jobID, abbreviate(resp.Body))
		c.FailNow()
	}
	var outputs servicedef.JobOutputs
	require.NoError(c, resp.DecodeJSON(&outputs))

	for _, ex := range expected {
		entry, ok := findOutput(jobID, outputs.Entries, ex)
		if !ok {
			c.Errorf("expected output %q was not produced (outputs were: %s)", ex.ID, describeOutputs(outputs.Entries))
			continue
		}
		e.checkOutput(c, session, jobID, entry, ex)
	}
}

// findOutput resolves an expected output to a manifest entry. A path is compared with the
// entry's href, either as-is or relative to the job's outputs; anything else is compared with
// the entry's ID, and then its name.
func findOutput(jobID string, entries []servicedef.JobOutput, ex testdef.OutputExpectation) (servicedef.JobOutput, bool) {
	if ex.IsPath() {
		relative := servicedef.JobOutputsPath(jobID) + ex.ID
		for _, entry := range entries {
			if entry.Href == ex.ID || entry.Href == relative {
				return entry, true
			}
		}
		return servicedef.JobOutput{}, false
	}
	for _, entry := range entries {
		if entry.ID == ex.ID {
			return entry, true
		}
	}
	for _, entry := range entries {
		if entry.Name != "" && entry.Name == ex.ID {
			return entry, true
		}
	}
	return servicedef.JobOutput{}, false
}

func (e *environment) checkOutput(
	c *framework.Context,
	session *client.Session,
	jobID string,
	entry servicedef.JobOutput,
	ex testdef.OutputExpectation,
) {
	if ex.MimeType.IsDefined() {
		assert.Equal(c, ex.MimeType.StringValue(), entry.MimeType, "output %q: wrong mime type", ex.ID)
	}
	if ex.SizeInBytes.IsDefined() {
		if entry.SizeInBytes.IsDefined() {
			assert.Equal(c, ex.SizeInBytes.IntValue(), entry.SizeInBytes.IntValue(), "output %q: wrong size", ex.ID)
		} else {
			c.Errorf("output %q: expected size %d, but the manifest has no size", ex.ID, ex.SizeInBytes.IntValue())
		}
	}
	if !ex.Metadata.IsNull() {
		for _, key := range ex.Metadata.Keys() {
			expected, actual := ex.Metadata.GetByKey(key), entry.Metadata.GetByKey(key)
			if !expected.Equal(actual) {
				c.Errorf("output %q: metadata %q was %s, expected %s", ex.ID, key, actual.JSONString(), expected.JSONString())
			}
		}
	}

	if !ex.NeedsContent() {
		return
	}
	path := entry.Href
	if path == "" {
		path = servicedef.JobOutputPath(jobID, entry.ID)
	}
	resp, err := session.Do(e.ctx, http.MethodGet, path, nil)
	if err != nil {
		c.Errorf("output %q: could not fetch content: %s", ex.ID, err)
		return
	}
	if resp.StatusCode != http.StatusOK {
		c.Errorf("output %q: unexpected status %d when fetching content", ex.ID, resp.StatusCode)
		return
	}

	content := string(resp.Body)
	if ex.Content.IsDefined() {
		assert.Equal(c, ex.Content.StringValue(), content, "output %q: wrong content", ex.ID)
	}
	for _, s := range ex.Contains {
		assert.Contains(c, content, s, "output %q: missing expected text", ex.ID)
	}
	if !ex.JSON.IsNull() {
		var actual ldvalue.Value
		if err := json.Unmarshal(resp.Body, &actual); err != nil {
			c.Errorf("output %q: expected JSON content, but it could not be parsed: %s", ex.ID, err)
		} else if !ex.JSON.Equal(actual) {
			c.Errorf("output %q: expected JSON %s, got %s", ex.ID, ex.JSON.JSONString(), actual.JSONString())
		}
	}
}

func describeOutputs(entries []servicedef.JobOutput) string {
	if len(entries) == 0 {
		return "none"
	}
	var ss []string
	for _, entry := range entries {
		ss = append(ss, entry.ID+" ("+entry.Href+")")
	}
	return strings.Join(ss, ", ")
}
