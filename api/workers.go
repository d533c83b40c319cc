package api

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"bugscan/logging"
	"bugscan/scanner"
)

// Workers tracks the goroutines started by StartWorkers.
type Workers struct {
	wg sync.WaitGroup
}

// Wait blocks until every worker has returned. Workers return once their
// context ends and the job they hold has reached a terminal state.
func (w *Workers) Wait() {
	w.wg.Wait()
}

// StartWorkers launches background goroutines that process queued jobs.
// Each job runs through its own scheduler with the given thread count.
func StartWorkers(ctx context.Context, store JobStore, numWorkers, threads int) *Workers {
	w := &Workers{}
	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			workerLoop(ctx, store, threads)
		}()
	}
	return w
}

func workerLoop(ctx context.Context, store JobStore, threads int) {
	logger := logging.Logger()
	for {
		jobID, err := store.PopFromQueue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("worker failed to pop job", "error", err)
			time.Sleep(time.Second)
			continue
		}
		processJob(ctx, store, jobID, threads)
	}
}

// processJob runs a single queued job to a terminal state. Cancelling ctx
// stops admitting tasks; lines from probes already running and the final
// job state are still written, since the job has left the queue.
func processJob(ctx context.Context, store JobStore, jobID string, threads int) {
	logger := logging.Logger()
	writeCtx := context.WithoutCancel(ctx)

	job, err := store.GetJob(writeCtx, jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			logger.Warn("worker job disappeared", "job_id", jobID)
			return
		}
		logger.Error("worker failed to load job", "job_id", jobID, "error", err)
		return
	}

	job.Status = StatusRunning
	job.Error = ""
	job.Stats = nil
	job.CompletedAt = nil
	if err := store.ClearLines(writeCtx, job.ID); err != nil {
		logger.Error("worker failed to clear job lines", "job_id", job.ID, "error", err)
	}
	if err := store.UpdateJob(writeCtx, job); err != nil {
		logger.Error("worker failed to mark job running", "job_id", job.ID, "error", err)
		return
	}

	plan, err := planFor(job, threads)
	if err != nil {
		failJob(writeCtx, job, store, err)
		return
	}

	sink := &storeSink{ctx: writeCtx, store: store, jobID: job.ID}
	stats, err := scanner.ExecuteScan(ctx, plan, scanner.Options{Sink: sink})
	job.Stats = &stats
	if err != nil {
		failJob(writeCtx, job, store, err)
		return
	}

	job.Status = StatusCompleted
	now := time.Now().UTC()
	job.CompletedAt = &now
	if err := store.UpdateJob(writeCtx, job); err != nil {
		logger.Error("worker failed to update job", "job_id", job.ID, "error", err)
	}
}

func planFor(job *ScanJob, threads int) (scanner.Plan, error) {
	mode, err := scanner.ParseMode(job.Mode)
	if err != nil {
		return scanner.Plan{}, err
	}

	hosts := slices.Values(job.Hosts)
	if len(job.Hosts) == 0 && job.CIDR != "" {
		hosts, err = scanner.HostsFromCIDR(job.CIDR)
		if err != nil {
			return scanner.Plan{}, err
		}
	}

	return scanner.Plan{
		Hosts:   hosts,
		Ports:   job.Ports,
		Methods: job.Methods,
		Mode:    mode,
		Threads: threads,
	}, nil
}

func failJob(ctx context.Context, job *ScanJob, store JobStore, err error) {
	logger := logging.Logger()
	logger.Error("worker job failed", "job_id", job.ID, "error", err)
	job.Status = StatusFailed
	job.Error = err.Error()
	now := time.Now().UTC()
	job.CompletedAt = &now
	if updateErr := store.UpdateJob(ctx, job); updateErr != nil {
		logger.Error("worker failed to persist failed job", "job_id", job.ID, "error", updateErr)
	}
}

// storeSink appends verdict lines to the job in the store.
type storeSink struct {
	ctx   context.Context
	store JobStore
	jobID string
}

func (s *storeSink) Log(line string) {
	if err := s.store.AppendLine(s.ctx, s.jobID, line); err != nil {
		logging.Logger().Error("failed to record verdict line", "job_id", s.jobID, "error", err)
	}
}
