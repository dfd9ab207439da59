// internal/app/system/workers/sweeper.go
package workers

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/EVE-University/unistudent/internal/app/titlesync"
	"go.uber.org/zap"
)

// SweepRunner runs one title sweep.
type SweepRunner interface {
	Sweep(ctx context.Context) (titlesync.Report, error)
}

// Sweeper is a background worker that runs the title sweep on a schedule.
// Only one sweep runs at a time. Stop cancels the running sweep, which
// then finishes the corporations already started and skips the rest.
type Sweeper struct {
	runner     SweepRunner
	log        *zap.Logger
	interval   time.Duration
	jitter     time.Duration
	runOnStart bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper creates a new sweep worker.
//
// Parameters:
//   - runner: the title sync engine
//   - logger: zap logger for logging
//   - interval: base time between sweeps (e.g., 1 hour)
//   - jitter: maximum random offset applied to each wait (± jitter)
//   - runOnStart: run a sweep immediately instead of waiting one interval
func NewSweeper(runner SweepRunner, logger *zap.Logger, interval, jitter time.Duration, runOnStart bool) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		runner:     runner,
		log:        logger,
		interval:   interval,
		jitter:     jitter,
		runOnStart: runOnStart,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins the background sweep loop.
func (w *Sweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("title sweep worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("jitter", w.jitter),
		zap.Bool("run_on_start", w.runOnStart))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *Sweeper) Stop() {
	w.cancel()
	w.wg.Wait()
	w.log.Info("title sweep worker stopped")
}

func (w *Sweeper) run() {
	defer w.wg.Done()

	if w.runOnStart {
		w.sweep()
	}

	timer := time.NewTimer(nextWait(w.interval, w.jitter))
	defer timer.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-timer.C:
			w.sweep()
			timer.Reset(nextWait(w.interval, w.jitter))
		}
	}
}

func (w *Sweeper) sweep() {
	if w.ctx.Err() != nil {
		return
	}
	report, err := w.runner.Sweep(w.ctx)
	switch {
	case errors.Is(err, titlesync.ErrSweepInProgress):
		w.log.Info("sweep already running, skipping scheduled run")
	case err != nil:
		w.log.Error("title sweep failed", zap.Error(err))
	default:
		synced := 0
		for _, o := range report.Outcomes {
			if o.TitlesSynced {
				synced++
			}
		}
		w.log.Info("title sweep finished",
			zap.String("run_id", report.RunID),
			zap.Int("corporations", len(report.Outcomes)),
			zap.Int("titles_synced", synced))
	}
}

// nextWait returns interval shifted by a random offset in [-jitter, +jitter).
// The result never drops below half the interval.
func nextWait(interval, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return interval
	}
	//nolint:gosec // G404: non-cryptographic randomness is sufficient for scheduling jitter
	d := interval + time.Duration(rand.Int64N(int64(2*jitter))) - jitter
	if d < interval/2 {
		d = interval / 2
	}
	return d
}
