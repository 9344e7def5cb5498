package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adamkewley/jobson-systemtests/framework"
	"github.com/adamkewley/jobson-systemtests/servicedef"

	"golang.org/x/time/rate"
)

const maxLoggedBodyLength = 500

// Config contains the parameters for NewJobsonClient.
type Config struct {
	// BaseURL is the scheme, host and port of the API, e.g. "http://localhost:8080".
	BaseURL string

	Login    string
	Password string

	// RequestTimeout applies to each individual request. Zero means no timeout.
	RequestTimeout time.Duration

	// RequestsPerSecond limits the request rate across all sessions. Zero means no limit.
	RequestsPerSecond float64
}

// JobsonClient sends requests to the job API. Every request carries Basic authentication and
// a JSON content type; there is no session state on the server side, so credentials are
// simply resent each time.
//
// Requests are made through a Session, which owns its connections; see NewSession.
type JobsonClient struct {
	baseURL        string
	authHeader     string
	requestTimeout time.Duration
	limiter        *rate.Limiter
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

func NewJobsonClient(config Config) *JobsonClient {
	c := &JobsonClient{
		baseURL:        strings.TrimSuffix(config.BaseURL, "/"),
		authHeader:     BasicAuthHeader(config.Login, config.Password),
		requestTimeout: config.RequestTimeout,
	}
	if config.RequestsPerSecond > 0 {
		burst := int(config.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}
	return c
}

// BasicAuthHeader returns the value of an Authorization header for the given credentials.
func BasicAuthHeader(login, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(login+":"+password))
}

func (c *JobsonClient) BaseURL() string {
	return c.baseURL
}

// NewSession creates a Session with its own connection pool. Connections are reused by
// requests within the session, and released when it is closed. The logger receives a line
// for each request and response.
func (c *JobsonClient) NewSession(logger framework.Logger) *Session {
	if logger == nil {
		logger = framework.NullLogger()
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &Session{
		owner:     c,
		transport: transport,
		http:      &http.Client{Transport: transport, Timeout: c.requestTimeout},
		logger:    logger,
	}
}

// Session is a sequence of requests that may share connections.
type Session struct {
	owner     *JobsonClient
	transport *http.Transport
	http      *http.Client
	logger    framework.Logger
}

// Close releases the session's connections. It is safe to call more than once.
func (s *Session) Close() {
	s.transport.CloseIdleConnections()
}

func (s *Session) ListJobs(ctx context.Context) (*Response, error) {
	return s.Do(ctx, http.MethodGet, servicedef.JobsPath, nil)
}

func (s *Session) ListSpecs(ctx context.Context) (*Response, error) {
	return s.Do(ctx, http.MethodGet, servicedef.SpecsPath, nil)
}

func (s *Session) SubmitJob(ctx context.Context, request servicedef.JobRequest) (*Response, error) {
	return s.Do(ctx, http.MethodPost, servicedef.JobsPath, request)
}

func (s *Session) GetJobDetails(ctx context.Context, jobID string) (*Response, error) {
	return s.Do(ctx, http.MethodGet, servicedef.JobPath(jobID), nil)
}

func (s *Session) GetJobOutputs(ctx context.Context, jobID string) (*Response, error) {
	return s.Do(ctx, http.MethodGet, servicedef.JobOutputsPath(jobID), nil)
}

// Do sends a request to a path relative to the API base URL, or to an absolute URL. If body
// is not nil it is sent as JSON.
func (s *Session) Do(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	url := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		url = s.owner.baseURL + path
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		s.logger.Printf(">> %s %s %s", method, url, string(data))
		reqBody = bytes.NewBuffer(data)
	} else {
		s.logger.Printf(">> %s %s", method, url)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", s.owner.authHeader)

	if s.owner.limiter != nil {
		if err := s.owner.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body from %s %s: %w", method, url, err)
	}
	s.logger.Printf("<< %d %s", resp.StatusCode, truncate(string(data), maxLoggedBodyLength))
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// DecodeJSON unmarshals the response body.
func (r *Response) DecodeJSON(into interface{}) error {
	if err := json.Unmarshal(r.Body, into); err != nil {
		return fmt.Errorf("malformed JSON response (status %d): %w: %s",
			r.StatusCode, err, truncate(string(r.Body), maxLoggedBodyLength))
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
