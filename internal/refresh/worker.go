// Package refresh periodically repeats the wholesale load from the billing
// API so a long-running dashboard does not drift from the system of record.
package refresh

import (
	"context"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/powerflowhq/powerflow/internal/dashboard"
	"github.com/powerflowhq/powerflow/internal/metrics"
	"github.com/powerflowhq/powerflow/internal/notification"
)

// Worker drives scheduled re-syncs. It is optional: an empty schedule means
// the collections are only ever loaded at bootstrap, exactly as the
// single-page app behaved.
type Worker struct {
	svc      *dashboard.Service
	digest   *notification.Service
	alerter  dashboard.Alerter
	logger   *zap.Logger
	schedule string

	consecutiveFailures int
}

// NewWorker builds a Worker. digest and alerter may be nil.
func NewWorker(svc *dashboard.Service, digest *notification.Service, alerter dashboard.Alerter, logger *zap.Logger, schedule string) *Worker {
	return &Worker{
		svc:      svc,
		digest:   digest,
		alerter:  alerter,
		logger:   logger,
		schedule: schedule,
	}
}

// nextRun computes the next run time from the schedule setting, which is
// either integer seconds or a standard cron expression. Unparseable
// settings fall back to five minutes.
func nextRun(setting string, after time.Time) time.Time {
	if v, err := strconv.Atoi(setting); err == nil && v > 0 {
		return after.Add(time.Duration(v) * time.Second)
	}
	if sched, err := cron.ParseStandard(setting); err == nil {
		return sched.Next(after)
	}
	return after.Add(5 * time.Minute)
}

// Run blocks until ctx is canceled. It returns immediately when no schedule
// is configured.
func (w *Worker) Run(ctx context.Context) error {
	if w.schedule == "" {
		return nil
	}

	w.logger.Info("refresh worker starting", zap.String("schedule", w.schedule))

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	next := nextRun(w.schedule, time.Now())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if now.Before(next) {
				continue
			}
			w.runOnce(ctx)
			next = nextRun(w.schedule, now)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	started := time.Now()
	err := w.svc.Resync(ctx)
	metrics.UpdateResyncMetrics(started, err)

	if err != nil {
		w.consecutiveFailures++
		w.logger.Warn("scheduled re-sync failed",
			zap.Error(err),
			zap.Int("consecutive_failures", w.consecutiveFailures))
		// One flaky run is noise; a repeat means the API is actually down.
		if w.consecutiveFailures == 2 && w.alerter != nil {
			w.alerter.Alert(ctx, "PowerFlow re-sync failing",
				"scheduled re-sync has failed twice in a row: "+err.Error())
		}
		return
	}

	w.consecutiveFailures = 0
	w.logger.Debug("scheduled re-sync complete", zap.Duration("took", time.Since(started)))

	if w.digest != nil {
		if err := w.digest.MaybeSendDigest(ctx, w.svc.Store().Snapshot(), time.Now()); err != nil {
			w.logger.Warn("overdue digest delivery failed", zap.Error(err))
		}
	}
}
