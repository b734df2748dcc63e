package runner

import (
	"context"
	"time"

	"github.com/abdul-hamid-achik/timecheck/packages/http"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultWaitInterval is the pause between readiness checks.
const DefaultWaitInterval = 500 * time.Millisecond

// WaitFor polls the base URL until the service answers with any HTTP
// status or timeout elapses. Only connection failures count as not ready.
func (r *Runner) WaitFor(ctx context.Context, timeout, interval time.Duration) error {
	if timeout <= 0 {
		return nil
	}
	if interval <= 0 {
		interval = DefaultWaitInterval
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entry := r.logger.WithFields(logrus.Fields{
		"url":      r.client.BaseURL(),
		"timeout":  timeout.String(),
		"interval": interval.String(),
	})
	entry.Debug("waiting for service")

	ping := http.NewRequest("GET", "")
	var lastErr error
	for {
		resp, err := r.client.Do(ctx, ping)
		if err == nil {
			entry.WithField("status", resp.StatusCode()).Debug("service is ready")
			return nil
		}
		if ctx.Err() != nil {
			if lastErr == nil {
				lastErr = err
			}
			return errors.Wrapf(lastErr, "service %s not ready after %v", r.client.BaseURL(), timeout)
		}
		var connErr *http.ConnectionError
		if !errors.As(err, &connErr) {
			return err
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return errors.Wrapf(lastErr, "service %s not ready after %v", r.client.BaseURL(), timeout)
		case <-time.After(interval):
		}
	}
}
