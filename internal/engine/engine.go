package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/RedouaeElalami/chutney/internal/config"
	"github.com/RedouaeElalami/chutney/internal/metrics"
)

var (
	ErrQueueFull = errors.New("invocation queue full")
	ErrTimeout   = errors.New("invocation timed out")
)

// Engine runs invocations on a bounded worker pool. Each invocation gets
// the configured timeout; cancellation reaches the transport through ctx.
type Engine struct {
	runner *Runner
	pool   *workerPool[Invocation, *Report]
	cancel context.CancelFunc
	conf   config.EngineConf
	log    *slog.Logger
}

// New creates an Engine using conf and starts the worker pool. Workers keep
// ctx's values but not its cancellation: they stop only in Shutdown, after
// every accepted invocation has run.
func New(ctx context.Context, runner *Runner, conf config.EngineConf, log *slog.Logger) *Engine {
	poolCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e := &Engine{
		runner: runner,
		cancel: cancel,
		conf:   conf,
		log:    log.With("service", "engine"),
	}
	e.pool = newWorkerPool[Invocation, *Report](
		poolCtx,
		conf.Workers,
		conf.QueueDepth,
		func(ctx context.Context, inv Invocation) (*Report, error) {
			ctx, cancel := context.WithTimeout(ctx, conf.InvocationTimeout())
			defer cancel()
			return e.runner.Run(ctx, inv)
		},
	)
	return e
}

// RunSync runs inv on the pool and waits for its report.
// Returns ErrQueueFull if the queue is full.
func (e *Engine) RunSync(ctx context.Context, inv Invocation) (*Report, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	resultC := make(chan jobResult[*Report], 1)
	if !e.pool.Submit(ctx, inv, resultC) {
		metrics.InvocationsDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.pool.QueueCap())
	}
	metrics.InvocationsEnqueued.Inc()

	select {
	case res := <-resultC:
		if errors.Is(res.err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v", ErrTimeout, e.conf.InvocationTimeout())
		}
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RunAsync enqueues inv for background processing and returns its
// invocation id. Returns ErrQueueFull if the queue is full.
func (e *Engine) RunAsync(inv Invocation) (string, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	resultC := make(chan jobResult[*Report], 1)
	if !e.pool.Submit(context.Background(), inv, resultC) {
		metrics.InvocationsDropped.Inc()
		return "", fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.pool.QueueCap())
	}
	metrics.InvocationsEnqueued.Inc()

	go func() {
		res := <-resultC
		if res.err != nil {
			e.log.Warn("async invocation failed",
				slog.String("invocation_id", inv.ID),
				slog.String("action_type", inv.ActionType),
				slog.Any("error", res.err),
			)
		}
	}()
	return inv.ID, nil
}

// QueueUtilization returns queue used / capacity (0 to 1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	u := float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
	metrics.QueueUtilization.Set(u)
	return u
}

// Shutdown stops accepting work and waits for queued invocations to finish.
func (e *Engine) Shutdown() {
	e.pool.Drain()
	e.cancel()
}
