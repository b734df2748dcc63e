package runner

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/timecheck/packages/assertions"
	"github.com/abdul-hamid-achik/timecheck/packages/core/suite"
	"github.com/abdul-hamid-achik/timecheck/packages/http"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultConcurrency is the default number of concurrent requests in parallel mode
	DefaultConcurrency = 5
)

type Runner struct {
	client *http.Client
	config *Config
	logger *logrus.Logger
}

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	FollowRedirects bool
	MaxRedirects    int
	ValidateSSL     bool
	Proxy           string
	Headers         map[string]string
	// RateLimit caps requests per second across the run. Zero disables it.
	RateLimit   float64
	Parallel    bool
	Concurrency int
	// Bail stops scheduling cases after the first failure. Parallel runs
	// ignore it.
	Bail bool
}

// DefaultRunnerConfig follows redirects and verifies certificates.
func DefaultRunnerConfig(baseURL string) *Config {
	return &Config{
		BaseURL:         baseURL,
		FollowRedirects: true,
		ValidateSSL:     true,
		Concurrency:     DefaultConcurrency,
	}
}

func NewRunner(cfg *Config, logger *logrus.Logger) *Runner {
	if cfg == nil {
		cfg = DefaultRunnerConfig("")
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	clientOpts := []http.ClientOption{
		http.WithFollowRedirects(cfg.FollowRedirects),
		http.WithValidateSSL(cfg.ValidateSSL),
		http.WithDefaultHeaders(cfg.Headers),
		http.WithRateLimit(cfg.RateLimit),
	}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, http.WithTimeout(cfg.Timeout))
	}
	if cfg.MaxRedirects > 0 {
		clientOpts = append(clientOpts, http.WithMaxRedirects(cfg.MaxRedirects))
	}
	if cfg.Proxy != "" {
		clientOpts = append(clientOpts, http.WithProxy(cfg.Proxy))
	}

	return &Runner{
		client: http.NewClient(cfg.BaseURL, clientOpts...),
		config: cfg,
		logger: logger,
	}
}

func (r *Runner) Client() *http.Client {
	return r.client
}

type RunResult struct {
	Suite    string
	Results  []*CaseResult
	Duration time.Duration
	Passed   int
	Failed   int
	Errored  int
	// Bailed is set when cases were left unscheduled after a failure.
	Bailed  bool
	Latency LatencySummary
}

// OK reports whether every case ran and passed.
func (r *RunResult) OK() bool {
	return r.Failed == 0 && r.Errored == 0 && !r.Bailed
}

// Total counts reported cases.
func (r *RunResult) Total() int {
	return len(r.Results)
}

// Err combines the errors of every failed or errored case.
func (r *RunResult) Err() error {
	var result *multierror.Error
	for _, cr := range r.Results {
		if err := cr.Failure(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, cr.Name))
		}
	}
	return result.ErrorOrNil()
}

// HasConnectionErrors reports whether any case failed to reach the service.
func (r *RunResult) HasConnectionErrors() bool {
	for _, cr := range r.Results {
		var connErr *http.ConnectionError
		if errors.As(cr.Err, &connErr) {
			return true
		}
	}
	return false
}

func (r *RunResult) add(cr *CaseResult) {
	r.Results = append(r.Results, cr)
	switch {
	case cr.Err != nil:
		r.Errored++
	case cr.Passed:
		r.Passed++
	default:
		r.Failed++
	}
}

type CaseResult struct {
	Name        string
	Case        string
	Description string
	Passed      bool
	Duration    time.Duration
	Request     *http.Request
	// URL is the resolved request URL.
	URL        string
	Response   *http.Response
	Assertions []*assertions.Result
	// Curl reproduces the request from a shell.
	Curl string
	// Err is a setup or connection failure. No assertions were evaluated.
	Err error
}

// Failure returns the case error, the failed assertions, or nil.
func (c *CaseResult) Failure() error {
	if c.Err != nil {
		return c.Err
	}
	return assertions.Failures(c.Assertions)
}

// Run executes every planned case. Setup failures are reported as errored
// cases without sending anything.
func (r *Runner) Run(ctx context.Context, plan *suite.Plan) *RunResult {
	start := time.Now()
	result := &RunResult{Suite: plan.Suite}
	latency := newLatencyRecorder()

	for _, se := range plan.Errors {
		result.add(&CaseResult{Name: se.Case, Case: se.Case, Err: se})
		r.logger.WithField("case", se.Case).WithError(se.Err).Warn("case setup failed")
	}

	if r.config.Bail && !r.config.Parallel && len(plan.Errors) > 0 {
		result.Bailed = len(plan.Cases) > 0
		result.Duration = time.Since(start)
		return result
	}

	if r.config.Parallel {
		for _, cr := range r.runParallel(ctx, plan.Cases, latency) {
			if cr == nil || interrupted(ctx, cr) {
				result.Bailed = true
				continue
			}
			result.add(cr)
		}
	} else {
		for i, tc := range plan.Cases {
			if ctx.Err() != nil {
				result.Bailed = true
				break
			}

			cr := r.runCase(ctx, tc, latency)
			if interrupted(ctx, cr) {
				result.Bailed = true
				break
			}
			result.add(cr)

			if r.config.Bail && !cr.Passed {
				result.Bailed = i < len(plan.Cases)-1
				break
			}
		}
	}

	result.Duration = time.Since(start)
	result.Latency = latency.Summary()
	return result
}

// interrupted reports whether cr was cut short by the cancellation of ctx.
// Such cases did not finish and are left out of the result.
func interrupted(ctx context.Context, cr *CaseResult) bool {
	return ctx.Err() != nil && cr.Err != nil && errors.Is(cr.Err, ctx.Err())
}

// runParallel leaves a nil entry for every case not started before ctx was
// cancelled.
func (r *Runner) runParallel(ctx context.Context, cases []*suite.TestCase, latency *latencyRecorder) []*CaseResult {
	concurrency := r.config.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]*CaseResult, len(cases))
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

schedule:
	for i, tc := range cases {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break schedule
		}
		if ctx.Err() != nil {
			<-sem
			break
		}

		wg.Add(1)
		go func(idx int, tc *suite.TestCase) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = r.runCase(ctx, tc, latency)
		}(i, tc)
	}

	wg.Wait()
	return results
}

// runCase sends the request once and evaluates every predicate.
func (r *Runner) runCase(ctx context.Context, tc *suite.TestCase, latency *latencyRecorder) *CaseResult {
	cr := &CaseResult{
		Name:        tc.Name,
		Case:        tc.Case,
		Description: tc.Description,
		Request:     tc.Request,
		Curl:        tc.Request.Curl(r.client.BaseURL()),
	}

	entry := r.logger.WithFields(logrus.Fields{
		"case":   tc.Name,
		"method": tc.Request.Method,
	})
	if url, err := tc.Request.URL(r.client.BaseURL()); err == nil {
		cr.URL = url
		entry = entry.WithField("url", url)
	}

	start := time.Now()
	resp, err := r.client.Do(ctx, tc.Request)
	if err != nil {
		cr.Duration = time.Since(start)
		cr.Err = err
		entry.WithError(err).Debug("request failed")
		return cr
	}

	latency.Record(resp.Duration())
	cr.Response = resp
	cr.Duration = resp.Duration()
	cr.Assertions = assertions.Evaluate(resp, tc.Predicates)
	cr.Passed = assertions.Passed(cr.Assertions)

	entry.WithFields(logrus.Fields{
		"status":      resp.StatusCode(),
		"duration_ms": resp.DurationMs(),
		"passed":      cr.Passed,
	}).Debug("case finished")

	return cr
}
