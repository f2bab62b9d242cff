package main

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"buildtrack/metrics"
	"buildtrack/utils"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// cronJob skips a tick while the previous run of the same job is still going.
type cronJob struct {
	name    string
	running int32
	run     func(context.Context) error
	log     *logrus.Logger
}

func (j *cronJob) tick() {
	if !atomic.CompareAndSwapInt32(&j.running, 0, 1) {
		j.log.WithField("job", j.name).Warn("previous run still in progress, skipping")
		return
	}
	defer atomic.StoreInt32(&j.running, 0)

	ctx, cancel := utils.GetJobQueryContext(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	safeGo(ctx, &wg, j.name, j.run, j.log)
	wg.Wait()
}

func safeGo(
	ctx context.Context,
	wg *sync.WaitGroup,
	name string,
	fn func(context.Context) error,
	log *logrus.Logger,
) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		start := time.Now()
		entry := log.WithField("job", name)
		defer func() {
			if r := recover(); r != nil {
				entry.WithField("stack", string(debug.Stack())).Errorf("panic: %v", r)
				metrics.RecordJobRun(name, false)
			}
		}()

		err := fn(ctx)
		metrics.RecordJobRun(name, err == nil)
		if err != nil {
			entry.WithError(err).Error("job failed")
			return
		}
		entry.WithField("took", time.Since(start).String()).Info("job completed")
	}()
}

// startJobs schedules the ledger reconcile, the progress digest and the
// login limiter sweep. The caller stops the returned scheduler.
func startJobs(a *app) (*cron.Cron, error) {
	c := cron.New(cron.WithLogger(cron.PrintfLogger(a.log)))

	jobs := []struct {
		spec string
		job  *cronJob
	}{
		{a.cfg.Jobs.ReconcileCron, &cronJob{name: "ledger_reconcile", log: a.log, run: func(ctx context.Context) error {
			drifts, err := a.ledger.Reconcile(ctx)
			if len(drifts) > 0 {
				a.log.WithField("projects", len(drifts)).Warn("corrected spent amount drift")
			}
			return err
		}}},
		{a.cfg.Jobs.DigestCron, &cronJob{name: "progress_digest", log: a.log, run: func(ctx context.Context) error {
			sent, err := a.digest.SendAll(ctx)
			a.log.WithField("sent", sent).Info("progress digests dispatched")
			return err
		}}},
		{"@every 10m", &cronJob{name: "limiter_sweep", log: a.log, run: func(context.Context) error {
			a.limiter.Sweep(time.Now())
			return nil
		}}},
	}

	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if _, err := c.AddFunc(j.spec, j.job.tick); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", j.job.name, j.spec, err)
		}
	}
	c.Start()
	return c, nil
}
