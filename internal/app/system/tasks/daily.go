// internal/app/system/tasks/daily.go
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/devweekends/clanverify/internal/app/system/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Midnight is the standard cron spec for a run at 00:00 every day.
const Midnight = "0 0 * * *"

// DailyRunner runs a Job once shortly after Start and then at every
// boundary of a cron schedule. The next boundary is recomputed from the
// wall clock after each run, so restarts and slow runs do not drift.
type DailyRunner struct {
	job          Job
	schedule     cron.Schedule
	startupDelay time.Duration
	runTimeout   time.Duration
	loc          *time.Location
	log          *zap.Logger
	metrics      *metrics.Metrics

	cancel context.CancelFunc
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewDailyRunner parses spec (standard five-field cron) and returns a
// runner for job. loc sets the wall clock the schedule is evaluated in;
// nil means time.Local.
func NewDailyRunner(job Job, spec string, startupDelay, runTimeout time.Duration, loc *time.Location, logger *zap.Logger, m *metrics.Metrics) (*DailyRunner, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.Local
	}
	if runTimeout <= 0 {
		runTimeout = 10 * time.Minute
	}
	return &DailyRunner{
		job:          job,
		schedule:     sched,
		startupDelay: startupDelay,
		runTimeout:   runTimeout,
		loc:          loc,
		log:          logger,
		metrics:      m,
		stopCh:       make(chan struct{}),
	}, nil
}

// NextRun returns the first schedule boundary strictly after t.
func (r *DailyRunner) NextRun(t time.Time) time.Time {
	return r.schedule.Next(t.In(r.loc))
}

// Start begins the background loop.
func (r *DailyRunner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.wg.Add(1)
	go r.loop(ctx)
	r.log.Info("scheduled job started",
		zap.String("job", r.job.Name),
		zap.Duration("startup_delay", r.startupDelay),
		zap.Time("next_scheduled", r.NextRun(time.Now())))
}

// Stop cancels an in-progress run, stops the loop and waits for it.
func (r *DailyRunner) Stop() {
	close(r.stopCh)
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.log.Info("scheduled job stopped", zap.String("job", r.job.Name))
}

func (r *DailyRunner) loop(ctx context.Context) {
	defer r.wg.Done()

	timer := time.NewTimer(r.startupDelay)
	defer timer.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-timer.C:
			r.runOnce(ctx)
			next := r.NextRun(time.Now())
			timer.Reset(time.Until(next))
			r.log.Debug("next scheduled run", zap.String("job", r.job.Name), zap.Time("at", next))
		}
	}
}

func (r *DailyRunner) runOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, r.runTimeout)
	defer cancel()

	start := time.Now()
	err := r.job.Run(ctx)
	r.metrics.ObserveJob(r.job.Name, time.Since(start), err)
	if err != nil {
		r.log.Error("scheduled job failed", zap.String("job", r.job.Name), zap.Error(err))
	}
}
