package scanner

import (
	"context"
	"iter"
	"time"

	"bugscan/logging"
)

// Plan describes one scan: the host source, the port and method lists, the
// probe mode and the pool capacity.
type Plan struct {
	Hosts   iter.Seq[string]
	Ports   []int
	Methods []string
	Mode    Mode
	Threads int
}

// ExecuteScan is the orchestrator shared by the CLI and the API workers.
// The probe is resolved before any task is scheduled, so an unknown mode
// fails without producing a verdict line.
func ExecuteScan(ctx context.Context, plan Plan, opts Options) (Stats, error) {
	probe, err := NewProbe(plan.Mode, opts)
	if err != nil {
		return Stats{}, err
	}

	hosts := plan.Hosts
	if hosts == nil {
		hosts = func(func(string) bool) {}
	}

	logger := logging.Logger()
	scheduler := NewScheduler(plan.Threads)
	start := time.Now()
	logger.Debug("scan started", "mode", plan.Mode, "threads", scheduler.Capacity(),
		"ports", plan.Ports, "methods", plan.Methods)

	err = scheduler.Run(ctx, Tasks(hosts, plan.Ports, plan.Methods), probe)

	stats := scheduler.Stats()
	logger.Info("scan finished", "mode", plan.Mode, "tasks", stats.Completed,
		"peak_workers", stats.Peak, "duration_ms", time.Since(start).Milliseconds())
	return stats, err
}
