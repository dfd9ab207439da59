package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/EVE-University/unistudent/internal/app/titlesync"
	"go.uber.org/zap"
)

type countingRunner struct {
	mu      sync.Mutex
	calls   int
	sawDone bool
	block   chan struct{}
}

func (r *countingRunner) Sweep(ctx context.Context) (titlesync.Report, error) {
	r.mu.Lock()
	r.calls++
	block := r.block
	r.mu.Unlock()

	if block != nil {
		<-ctx.Done()
		r.mu.Lock()
		r.sawDone = true
		r.mu.Unlock()
	}
	return titlesync.Report{RunID: "test"}, nil
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSweeper_RunOnStart(t *testing.T) {
	r := &countingRunner{}
	w := NewSweeper(r, zap.NewNop(), time.Hour, 0, true)
	w.Start()
	waitFor(t, func() bool { return r.count() == 1 })
	w.Stop()

	if got := r.count(); got != 1 {
		t.Errorf("expected exactly 1 sweep, got %d", got)
	}
}

func TestSweeper_NoRunOnStart(t *testing.T) {
	r := &countingRunner{}
	w := NewSweeper(r, zap.NewNop(), time.Hour, 0, false)
	w.Start()
	time.Sleep(20 * time.Millisecond)
	w.Stop()

	if got := r.count(); got != 0 {
		t.Errorf("expected no sweep before the first interval, got %d", got)
	}
}

func TestSweeper_RunsOnInterval(t *testing.T) {
	r := &countingRunner{}
	w := NewSweeper(r, zap.NewNop(), 10*time.Millisecond, 0, false)
	w.Start()
	waitFor(t, func() bool { return r.count() >= 3 })
	w.Stop()
}

func TestSweeper_StopCancelsRunningSweep(t *testing.T) {
	r := &countingRunner{block: make(chan struct{})}
	w := NewSweeper(r, zap.NewNop(), time.Hour, 0, true)
	w.Start()
	waitFor(t, func() bool { return r.count() == 1 })

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sawDone {
		t.Error("running sweep did not observe cancellation")
	}
}

func TestNextWait(t *testing.T) {
	if got := nextWait(time.Minute, 0); got != time.Minute {
		t.Errorf("no jitter: got %v", got)
	}
	for i := 0; i < 100; i++ {
		got := nextWait(time.Minute, 10*time.Second)
		if got < 50*time.Second || got >= 70*time.Second {
			t.Fatalf("jittered wait out of range: %v", got)
		}
	}
	for i := 0; i < 100; i++ {
		if got := nextWait(time.Minute, 2*time.Minute); got < 30*time.Second {
			t.Fatalf("wait below half the interval: %v", got)
		}
	}
}
