package cmd

import (
	"context"
	"time"

	"github.com/abdul-hamid-achik/timecheck/packages/core/runner"
	"github.com/abdul-hamid-achik/timecheck/packages/metrics"
	"github.com/abdul-hamid-achik/timecheck/packages/notify"
	"github.com/sirupsen/logrus"
)

// reporters hands finished runs to the metrics file and the notifiers. It
// lives as long as the run command, so the recovery policy sees every watch
// rerun.
type reporters struct {
	notifier *notify.Manager
}

func newReporters(a *app) *reporters {
	rep := &reporters{}
	if a.cfg.SlackWebhook != "" {
		rep.notifier = notify.NewManager(notify.NotifyOn(a.cfg.NotifyOn), notify.NewSlackNotifier(a.cfg.SlackWebhook))
	}
	return rep
}

// report never fails the run: problems are logged as warnings.
func (rep *reporters) report(ctx context.Context, a *app, runID string, result *runner.RunResult) {
	log := a.logger.WithFields(logrus.Fields{"run": runID, "suite": result.Suite})

	if a.cfg.MetricsFile != "" {
		if err := metrics.WriteFile(a.cfg.MetricsFile, metrics.Collect(result, time.Now())); err != nil {
			log.WithError(err).Warn("failed to write metrics file")
		}
	}

	if rep.notifier != nil {
		sent, err := rep.notifier.Notify(ctx, notify.Summarize(result, a.cfg.BaseURL))
		if err != nil {
			log.WithError(err).Warn("failed to send notification")
		} else if sent {
			log.Debug("notification sent")
		}
	}
}
