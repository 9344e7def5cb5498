package jobtests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/adamkewley/jobson-systemtests/client"
	"github.com/adamkewley/jobson-systemtests/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const (
	fakeLogin    = "tester"
	fakePassword = "secret"
)

type fakeJob struct {
	request  servicedef.JobRequest
	statuses []string
	polls    int
}

// fakeAPI is a minimal in-memory job API. A spec's jobs go through the status sequence
// configured for it, one step per poll, staying on the last one.
type fakeAPI struct {
	lock            sync.Mutex
	listStatus      int
	rejectSpecs     map[string]bool
	statusesBySpec  map[string][]string
	outputsBySpec   map[string][]servicedef.JobOutput
	contentByOutput map[string]string
	jobs            map[string]*fakeJob
	submissions     []servicedef.JobRequest
	unauthorized    int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		rejectSpecs:     make(map[string]bool),
		statusesBySpec:  make(map[string][]string),
		outputsBySpec:   make(map[string][]servicedef.JobOutput),
		contentByOutput: make(map[string]string),
		jobs:            make(map[string]*fakeJob),
	}
}

func (f *fakeAPI) submittedNames() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	var names []string
	for _, s := range f.submissions {
		names = append(names, s.Name)
	}
	return names
}

func (f *fakeAPI) pollCount(jobName string) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	total := 0
	for _, j := range f.jobs {
		if j.request.Name == jobName {
			total += j.polls
		}
	}
	return total
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if r.Header.Get("Authorization") != client.BasicAuthHeader(fakeLogin, fakePassword) {
		f.unauthorized++
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	path := r.URL.Path
	switch {
	case path == servicedef.JobsPath && r.Method == http.MethodGet,
		path == servicedef.SpecsPath && r.Method == http.MethodGet:
		if f.listStatus != 0 {
			w.WriteHeader(f.listStatus)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"entries": []interface{}{}})

	case path == servicedef.JobsPath && r.Method == http.MethodPost:
		var req servicedef.JobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.submissions = append(f.submissions, req)
		if f.rejectSpecs[req.Spec] || req.Inputs.Type() != ldvalue.ObjectType {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid inputs"})
			return
		}
		id := fmt.Sprintf("job%d", len(f.submissions))
		f.jobs[id] = &fakeJob{request: req, statuses: f.statusesBySpec[req.Spec]}
		writeJSON(w, http.StatusOK, servicedef.JobCreatedResponse{ID: id})

	case strings.HasPrefix(path, servicedef.JobsPath+"/") && r.Method == http.MethodGet:
		parts := strings.Split(strings.TrimPrefix(path, servicedef.JobsPath+"/"), "/")
		job, ok := f.jobs[parts[0]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch {
		case len(parts) == 1:
			job.polls++
			details := servicedef.JobDetails{ID: parts[0], Name: job.request.Name, Timestamps: []servicedef.JobTimestamp{}}
			for i := 0; i < job.polls && i < len(job.statuses); i++ {
				details.Timestamps = append(details.Timestamps, servicedef.JobTimestamp{Status: job.statuses[i]})
			}
			writeJSON(w, http.StatusOK, details)
		case len(parts) == 2 && parts[1] == "outputs":
			entries := []servicedef.JobOutput{}
			for _, o := range f.outputsBySpec[job.request.Spec] {
				if o.Href == "" {
					o.Href = servicedef.JobOutputPath(parts[0], o.ID)
				}
				entries = append(entries, o)
			}
			writeJSON(w, http.StatusOK, servicedef.JobOutputs{Entries: entries})
		case len(parts) == 3 && parts[1] == "outputs":
			content, ok := f.contentByOutput[parts[2]]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte(content))
		default:
			w.WriteHeader(http.StatusNotFound)
		}

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	data, _ := json.Marshal(value)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
