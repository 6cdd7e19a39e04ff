// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/tomarkdown/pkg/types"
)

// ConvertFunc converts one task. Converter.Convert has this shape.
type ConvertFunc func(ctx context.Context, task types.Task) types.Outcome

// PoolConfig configures a Pool.
type PoolConfig struct {
	// Workers is the number of concurrent workers. Values below 1 select
	// DefaultWorkers. The pool never starts more workers than tasks.
	Workers int

	// Convert processes one task.
	Convert ConvertFunc

	// TaskTimeout bounds each task's context. Zero means no limit.
	TaskTimeout time.Duration

	// OnOutcome, if set, is called once per outcome from the aggregating
	// goroutine, in completion order.
	OnOutcome func(types.Outcome)

	Logger *slog.Logger
}

// Pool fans tasks out over a fixed set of workers and folds their outcomes
// into a Tally.
type Pool struct {
	cfg PoolConfig
}

// NewPool creates a Pool from cfg.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pool{cfg: cfg}
}

// DefaultWorkers returns the worker count used when none is configured:
// the number of CPUs, at least 1.
func DefaultWorkers() int {
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

// WorkerFault is the error recorded for a task whose conversion panicked.
type WorkerFault struct {
	Task  types.Task
	Value any
	Stack []byte
}

func (e *WorkerFault) Error() string {
	return fmt.Sprintf("worker fault: %v", e.Value)
}

// Run converts every task and returns the tally. Each task yields exactly
// one outcome: tasks reached after ctx is cancelled fail with ctx.Err()
// without being converted. Run returns once all workers have exited.
func (p *Pool) Run(ctx context.Context, tasks []types.Task) types.Tally {
	var tally types.Tally
	if len(tasks) == 0 {
		return tally
	}

	workers := p.cfg.Workers
	if workers < 1 {
		workers = DefaultWorkers()
	}
	workers = min(workers, len(tasks))

	p.cfg.Logger.Info("starting conversion",
		"tasks", len(tasks),
		"workers", workers,
	)
	start := time.Now()

	taskCh := make(chan types.Task)
	results := make(chan types.Outcome, workers)

	var g errgroup.Group
	g.Go(func() error {
		defer close(taskCh)
		for _, t := range tasks {
			taskCh <- t
		}
		return nil
	})
	for range workers {
		g.Go(func() error {
			for t := range taskCh {
				results <- p.runTask(ctx, t)
			}
			return nil
		})
	}
	go func() {
		g.Wait()
		close(results)
	}()

	for o := range results {
		tally.Add(o)
		if p.cfg.OnOutcome != nil {
			p.cfg.OnOutcome(o)
		}
	}

	p.cfg.Logger.Info("conversion finished",
		"successful", tally.Successful,
		"errors", tally.Errors,
		"skipped", tally.Skipped,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return tally
}

// runTask converts t, turning a panic into a Failed outcome so one bad
// file cannot take down the run.
func (p *Pool) runTask(ctx context.Context, t types.Task) (out types.Outcome) {
	if err := ctx.Err(); err != nil {
		return types.Failed(t, err)
	}
	if p.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.TaskTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			fault := &WorkerFault{Task: t, Value: r, Stack: debug.Stack()}
			p.cfg.Logger.Error("worker fault",
				"input", t.InputPath,
				"panic", fmt.Sprint(r),
			)
			out = types.Failed(t, fault)
		}
	}()
	return p.cfg.Convert(ctx, t)
}
