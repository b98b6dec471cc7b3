package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/cmdgraph/internal/ctxlog"
	"github.com/specialistvlad/cmdgraph/internal/metrics"
	"github.com/specialistvlad/cmdgraph/internal/node"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of submission and node spans.
const TracerName = "github.com/specialistvlad/cmdgraph/executor"

// tracer is looked up per run so a provider installed after package init
// is honored.
func tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// Executor runs a single plan. It is not reusable.
type Executor struct {
	plan       *Plan
	slots      Slots
	numWorkers int

	wg       sync.WaitGroup
	depCount []atomic.Int32
	states   []atomic.Int32
	skipOnce []sync.Once
	errs     []error
}

// New prepares an executor for plan.
func New(plan *Plan, slots Slots) *Executor {
	n := len(plan.Steps)
	workers := min(slots.Workers(), n)
	if workers < 1 {
		workers = 1
	}
	return &Executor{
		plan:       plan,
		slots:      slots,
		numWorkers: workers,
		depCount:   make([]atomic.Int32, n),
		states:     make([]atomic.Int32, n),
		skipOnce:   make([]sync.Once, n),
		errs:       make([]error, n),
	}
}

// Run executes the plan and blocks until every step has either run or been
// skipped. The returned error joins the errors of the failed steps.
func (e *Executor) Run(ctx context.Context) (*Report, error) {
	logger := ctxlog.FromContext(ctx).With("graph", e.plan.Graph, "submission", e.plan.Submission)
	steps := e.plan.Steps

	ctx, span := tracer().Start(ctx, "executor.Run",
		trace.WithAttributes(
			attribute.String("cmdgraph.graph", e.plan.Graph),
			attribute.String("cmdgraph.submission", e.plan.Submission.String()),
			attribute.Int("cmdgraph.node_count", len(steps)),
		),
	)
	defer span.End()

	readyChan := make(chan int, len(steps))
	rootCount := 0
	for i := range steps {
		e.depCount[i].Store(int32(steps[i].Deps))
		if steps[i].Deps == 0 {
			readyChan <- i
			rootCount++
		}
	}
	logger.Debug("Executor: found root nodes.", "count", rootCount, "node_count", len(steps))

	e.wg.Add(len(steps))

	var workers sync.WaitGroup
	workers.Add(e.numWorkers)
	for w := range e.numWorkers {
		go func() {
			defer workers.Done()
			e.worker(ctx, readyChan, w)
		}()
	}

	e.wg.Wait()
	close(readyChan)
	workers.Wait()

	report := &Report{
		Submission: e.plan.Submission,
		States:     make(map[nodeid.ID]node.State, len(steps)),
		Errors:     make(map[nodeid.ID]error),
	}
	var failedNodes []string
	var rootCauses []error
	for i, step := range steps {
		st := node.State(e.states[i].Load())
		report.States[step.ID] = st
		if e.errs[i] != nil {
			report.Errors[step.ID] = e.errs[i]
		}
		if st == node.Failed {
			failedNodes = append(failedNodes, step.ID.String())
			rootCauses = append(rootCauses, e.errs[i])
		}
	}

	if len(rootCauses) > 0 {
		logger.Debug("Executor: submission finished with failures.", "failed", failedNodes)
		err := fmt.Errorf("execution failed for %s: %w", strings.Join(failedNodes, ", "), errors.Join(rootCauses...))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}
	logger.Debug("Executor: submission finished.")
	span.SetStatus(codes.Ok, "")
	return report, nil
}

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan int, workerID int) {
	logger := ctxlog.FromContext(ctx)

	for i := range readyChan {
		step := &e.plan.Steps[i]
		workerLogger := logger.With("workerID", workerID, "node", step.ID.String(), "name", step.Name)

		workerLogger.Debug("Worker picked up node for execution.")
		e.states[i].Store(int32(node.Running))
		nodeCtx, span := tracer().Start(ctx, step.Name,
			trace.WithAttributes(
				attribute.String("cmdgraph.node", step.ID.String()),
				attribute.Int("cmdgraph.variant", step.Task.Variant),
				attribute.Int("cmdgraph.worker", workerID),
			),
		)
		start := time.Now()
		err := e.slots.Exec(nodeCtx, func(ctx context.Context) error {
			return step.Body(ctx, step.Task)
		})
		metrics.NodeDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			workerLogger.Debug("Node execution failed.", "error", err)
			e.errs[i] = &NodeError{Node: step.ID, Name: step.Name, Err: err}
			e.states[i].Store(int32(node.Failed))
			metrics.NodeExecutions.WithLabelValues(metrics.ResultError).Inc()
			e.skipDependents(ctx, i)
			e.wg.Done()
			continue
		}

		span.SetStatus(codes.Ok, "")
		span.End()
		e.states[i].Store(int32(node.Done))
		metrics.NodeExecutions.WithLabelValues(metrics.ResultOK).Inc()
		for _, d := range step.Dependents {
			if e.depCount[d].Add(-1) == 0 {
				workerLogger.Debug("Unlocking dependent node.", "dependent", e.plan.Steps[d].ID.String())
				readyChan <- d
			}
		}
		e.wg.Done()
	}
}

// skipDependents recursively marks all downstream steps as skipped.
func (e *Executor) skipDependents(ctx context.Context, i int) {
	logger := ctxlog.FromContext(ctx)
	failed := &e.plan.Steps[i]
	for _, d := range failed.Dependents {
		e.skipOnce[d].Do(func() {
			dependent := &e.plan.Steps[d]
			logger.Debug("Skipping dependent node due to upstream failure.", "node", dependent.ID.String(), "dependency", failed.ID.String())
			e.states[d].Store(int32(node.Skipped))
			e.errs[d] = &NodeError{Node: dependent.ID, Name: dependent.Name, Err: fmt.Errorf("%w: %s", ErrSkipped, failed.ID)}
			metrics.NodeExecutions.WithLabelValues(metrics.ResultSkipped).Inc()
			e.wg.Done()
			e.skipDependents(ctx, d)
		})
	}
}
