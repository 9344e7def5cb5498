// Package jobtests contains the acceptance suite for the job API: the smoke tests, and the
// submit/poll/check cycle that is run for every test defined in the specs directory.
//
// Infrastructure that is not specific to the job API, such as the test context and result
// bookkeeping, is in the lower-level framework package.
package jobtests
