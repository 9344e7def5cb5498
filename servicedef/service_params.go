package servicedef

import (
	"net/url"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const (
	JobsPath  = "/v1/jobs"
	SpecsPath = "/v1/specs"
)

// Job statuses reported in a job's timestamps. Only the terminal ones matter to the
// test runner; anything else means the job is still in progress.
const (
	StatusSubmitted  = "submitted"
	StatusRunning    = "running"
	StatusFinished   = "finished"
	StatusFatalError = "fatal-error"
	StatusAborted    = "aborted"
)

func IsTerminalStatus(status string) bool {
	switch status {
	case StatusFinished, StatusFatalError, StatusAborted:
		return true
	}
	return false
}

// JobRequest is the body of a job submission.
type JobRequest struct {
	Spec   string        `json:"spec"`
	Name   string        `json:"name"`
	Inputs ldvalue.Value `json:"inputs"`
}

// JobCreatedResponse is the body returned when a submission is accepted.
type JobCreatedResponse struct {
	ID string `json:"id"`
}

type JobTimestamp struct {
	Status  string `json:"status"`
	Time    string `json:"time,omitempty"`
	Message string `json:"message,omitempty"`
}

// JobDetails is the subset of the job resource that the test runner reads.
type JobDetails struct {
	ID         string         `json:"id"`
	Name       string         `json:"name,omitempty"`
	Owner      string         `json:"owner,omitempty"`
	Timestamps []JobTimestamp `json:"timestamps"`
}

// LatestStatus returns the status of the last timestamp, or "" if there are none.
func (d JobDetails) LatestStatus() string {
	if len(d.Timestamps) == 0 {
		return ""
	}
	return d.Timestamps[len(d.Timestamps)-1].Status
}

// JobOutputs is the output manifest of a job.
type JobOutputs struct {
	Entries []JobOutput `json:"entries"`
}

type JobOutput struct {
	ID          string              `json:"id"`
	SizeInBytes ldvalue.OptionalInt `json:"sizeInBytes,omitempty"`
	Href        string              `json:"href"`
	MimeType    string              `json:"mimeType,omitempty"`
	Name        string              `json:"name,omitempty"`
	Description string              `json:"description,omitempty"`
	Metadata    ldvalue.Value       `json:"metadata,omitempty"`
}

// JobPath returns the path of a job. IDs come from the server, so they are escaped.
func JobPath(jobID string) string {
	return JobsPath + "/" + url.PathEscape(jobID)
}

func JobOutputsPath(jobID string) string {
	return JobPath(jobID) + "/outputs"
}

func JobOutputPath(jobID, outputID string) string {
	return JobOutputsPath(jobID) + "/" + url.PathEscape(outputID)
}
