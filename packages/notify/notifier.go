// Package notify sends run summaries to chat webhooks.
package notify

import (
	"context"
	"time"

	"github.com/abdul-hamid-achik/timecheck/packages/core/runner"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// NotifyOn specifies when to send notifications
type NotifyOn string

const (
	// NotifyAlways sends notifications for every run
	NotifyAlways NotifyOn = "always"
	// NotifyFailure sends notifications only when tests fail
	NotifyFailure NotifyOn = "failure"
	// NotifySuccess sends notifications only when tests pass
	NotifySuccess NotifyOn = "success"
	// NotifyRecovery sends notifications on failure and when a run passes
	// after a failed one
	NotifyRecovery NotifyOn = "recovery"
)

// maxFailedResults caps the failures listed in one message.
const maxFailedResults = 10

// RunSummary represents the summary of a test run for notifications
type RunSummary struct {
	Suite         string        `json:"suite"`
	BaseURL       string        `json:"base_url,omitempty"`
	TotalTests    int           `json:"total_tests"`
	PassedTests   int           `json:"passed_tests"`
	FailedTests   int           `json:"failed_tests"`
	ErroredTests  int           `json:"errored_tests"`
	Duration      time.Duration `json:"duration"`
	P95           time.Duration `json:"p95"`
	FailedResults []FailedTest  `json:"failed_results,omitempty"`
	Omitted       int           `json:"omitted,omitempty"`
	IsRecovery    bool          `json:"is_recovery,omitempty"`
}

// OK reports whether every case passed.
func (s *RunSummary) OK() bool {
	return s.FailedTests == 0 && s.ErroredTests == 0
}

// FailedTest represents a failed test for notifications
type FailedTest struct {
	Name   string   `json:"name"`
	Errors []string `json:"errors,omitempty"`
}

// Summarize condenses result for a message.
func Summarize(result *runner.RunResult, baseURL string) *RunSummary {
	s := &RunSummary{
		Suite:        result.Suite,
		BaseURL:      baseURL,
		TotalTests:   result.Total(),
		PassedTests:  result.Passed,
		FailedTests:  result.Failed,
		ErroredTests: result.Errored,
		Duration:     result.Duration,
		P95:          result.Latency.P95,
	}
	for _, cr := range result.Results {
		err := cr.Failure()
		if err == nil {
			continue
		}
		if len(s.FailedResults) == maxFailedResults {
			s.Omitted++
			continue
		}
		ft := FailedTest{Name: cr.Name}
		var merr *multierror.Error
		if errors.As(err, &merr) {
			for _, e := range merr.Errors {
				ft.Errors = append(ft.Errors, e.Error())
			}
		} else {
			ft.Errors = []string{err.Error()}
		}
		s.FailedResults = append(s.FailedResults, ft)
	}
	return s
}

// Notifier is the interface for notification services
type Notifier interface {
	// Notify sends a notification about test results
	Notify(ctx context.Context, summary *RunSummary) error

	// Name returns the name of the notifier
	Name() string
}

// Manager applies the NotifyOn policy across consecutive runs.
type Manager struct {
	notifiers []Notifier
	notifyOn  NotifyOn
	lastState bool // true if last run was successful
}

// NewManager creates a new notification manager
func NewManager(notifyOn NotifyOn, notifiers ...Notifier) *Manager {
	return &Manager{
		notifiers: notifiers,
		notifyOn:  notifyOn,
		lastState: true, // Assume success initially
	}
}

// Notify sends summary to every notifier when the policy asks for it. It
// reports whether a notification was due.
func (m *Manager) Notify(ctx context.Context, summary *RunSummary) (bool, error) {
	shouldNotify := false
	currentSuccess := summary.OK()

	switch m.notifyOn {
	case NotifyAlways:
		shouldNotify = true
	case NotifyFailure:
		shouldNotify = !currentSuccess
	case NotifySuccess:
		shouldNotify = currentSuccess
	case NotifyRecovery:
		if !m.lastState && currentSuccess {
			shouldNotify = true
			summary.IsRecovery = true
		}
		if !currentSuccess {
			shouldNotify = true
		}
	}

	m.lastState = currentSuccess

	if !shouldNotify {
		return false, nil
	}

	var result *multierror.Error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, summary); err != nil {
			result = multierror.Append(result, errors.Wrap(err, n.Name()))
		}
	}
	return true, result.ErrorOrNil()
}
