package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type panickyWorker struct {
	calls atomic.Int32
}

func (w *panickyWorker) Run(ctx context.Context) error {
	w.calls.Add(1)
	panic("boom")
}

type oneShotWorker struct {
	calls atomic.Int32
}

func (w *oneShotWorker) Run(ctx context.Context) error {
	w.calls.Add(1)
	return nil
}

func TestSupervisor_RestartOnPanic(t *testing.T) {
	req := require.New(t)
	worker := &panickyWorker{}
	sup := NewSupervisor(slog.Default(), 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	go sup.Add(worker).Run(ctx)

	// Waiting for panics and restarts
	req.Eventually(func() bool {
		return worker.calls.Load() >= 2
	}, time.Second, 10*time.Millisecond)
}

func TestSupervisor_StopOnSuccess(t *testing.T) {
	req := require.New(t)
	worker := &oneShotWorker{}
	sup := NewSupervisor(slog.Default(), 20*time.Millisecond)

	done := make(chan struct{})
	go func() {
		sup.Add(worker).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
		// Supervisor detected a clean termination and never restarted
		req.Equal(int32(1), worker.calls.Load())
	case <-time.After(time.Second):
		req.Fail("Supervisor should have stopped after worker success")
	}
}

func TestSupervisor_StopCancelsWorkers(t *testing.T) {
	req := require.New(t)
	sup := NewSupervisor(slog.Default(), 20*time.Millisecond)

	blocking := workerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})

	done := make(chan struct{})
	go func() {
		sup.Add(blocking).Run(context.Background())
		close(done)
	}()

	// Give the worker time to start before stopping
	time.Sleep(50 * time.Millisecond)
	sup.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Stop should cancel supervised workers")
	}
}

func TestSupervisor_StopBeforeRun(t *testing.T) {
	req := require.New(t)
	sup := NewSupervisor(slog.Default(), 20*time.Millisecond)

	blocking := workerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})

	// Given a Stop issued before Run ever started
	sup.Stop()

	// When Run starts afterwards it must observe the stop and drain
	done := make(chan struct{})
	go func() {
		sup.Add(blocking).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Run should honor a Stop that happened first")
	}
}

type workerFunc func(ctx context.Context) error

func (f workerFunc) Run(ctx context.Context) error { return f(ctx) }
