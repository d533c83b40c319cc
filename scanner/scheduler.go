package scanner

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"

	"bugscan/logging"
	"golang.org/x/sync/semaphore"
)

// DefaultThreads is the default worker pool capacity.
const DefaultThreads = 25

// Stats is a snapshot of scheduler counters.
type Stats struct {
	Admitted  int64 `json:"admitted"`
	Completed int64 `json:"completed"`
	InFlight  int64 `json:"in_flight"`
	Peak      int64 `json:"peak"`
}

// Scheduler runs tasks on a bounded pool of goroutines, one goroutine per
// task. At most capacity probes are in flight at any time.
type Scheduler struct {
	capacity int64
	slots    *semaphore.Weighted

	admitted  atomic.Int64
	completed atomic.Int64
	inFlight  atomic.Int64
	peak      atomic.Int64
}

// NewScheduler creates a scheduler with the given capacity. Values below one
// are raised to one.
func NewScheduler(capacity int) *Scheduler {
	if capacity < 1 {
		capacity = 1
	}
	return &Scheduler{
		capacity: int64(capacity),
		slots:    semaphore.NewWeighted(int64(capacity)),
	}
}

// Capacity returns the maximum number of concurrent workers.
func (s *Scheduler) Capacity() int {
	return int(s.capacity)
}

// Run admits tasks in order, blocking while the pool is saturated, and
// returns once every admitted task has finished.
//
// Admitted probes are never cancelled. If ctx ends while Run is waiting for
// a free slot, admission stops, the in-flight workers are drained and the
// context error is returned.
func (s *Scheduler) Run(ctx context.Context, tasks iter.Seq[Task], probe Probe) error {
	probeCtx := context.WithoutCancel(ctx)

	var (
		wg  sync.WaitGroup
		err error
	)
	for task := range tasks {
		if acquireErr := s.slots.Acquire(ctx, 1); acquireErr != nil {
			err = fmt.Errorf("cannot admit task %s %s:%d: %w", task.Method, task.Host, task.Port, acquireErr)
			break
		}
		s.admit()

		wg.Add(1)
		go s.work(probeCtx, &wg, task, probe)
	}

	wg.Wait()
	return err
}

// Stats returns the current counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Admitted:  s.admitted.Load(),
		Completed: s.completed.Load(),
		InFlight:  s.inFlight.Load(),
		Peak:      s.peak.Load(),
	}
}

func (s *Scheduler) admit() {
	s.admitted.Add(1)
	current := s.inFlight.Add(1)
	for {
		peak := s.peak.Load()
		if current <= peak || s.peak.CompareAndSwap(peak, current) {
			return
		}
	}
}

func (s *Scheduler) release() {
	s.inFlight.Add(-1)
	s.completed.Add(1)
	s.slots.Release(1)
}

// work runs one task. A panicking probe still counts as completed.
func (s *Scheduler) work(ctx context.Context, wg *sync.WaitGroup, task Task, probe Probe) {
	defer wg.Done()
	defer s.release()
	defer func() {
		if r := recover(); r != nil {
			logging.Logger().Error("probe panicked",
				"method", task.Method,
				"host", task.Host,
				"port", task.Port,
				"panic", r,
			)
		}
	}()

	probe.Run(ctx, task)
}
