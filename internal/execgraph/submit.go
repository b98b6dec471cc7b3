package execgraph

import (
	"context"
	"fmt"

	"github.com/specialistvlad/cmdgraph/internal/builder"
	"github.com/specialistvlad/cmdgraph/internal/ctxlog"
	"github.com/specialistvlad/cmdgraph/internal/errs"
	"github.com/specialistvlad/cmdgraph/internal/event"
	"github.com/specialistvlad/cmdgraph/internal/executor"
	"github.com/specialistvlad/cmdgraph/internal/metrics"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/queue"
)

// Submit schedules one execution of the graph on q and returns immediately.
// The bindings in effect when Submit is called are the ones the execution
// uses. The returned event completes once every node has run or been
// skipped; its error joins the failures of the individual nodes.
//
// deps must complete before any node starts. If one of them fails, the
// submission does not run and its event carries the dependency's error.
func (eg *Graph) Submit(ctx context.Context, q *queue.Queue, deps ...*event.Event) (*event.Event, error) {
	logger := ctxlog.FromContext(ctx)

	if q.Device() != eg.device {
		return nil, errs.New("submit", errs.ErrDeviceMismatch, nodeid.None, "graph %s is bound to %s, queue runs on %s", eg.label, eg.device, q.Device())
	}
	if q.Mode() == queue.Recording {
		return nil, errs.New("submit", errs.ErrQueueRecording, nodeid.None, "queue %s is intercepted by a recording graph", q.ID())
	}
	for _, dep := range deps {
		if dep == nil {
			continue
		}
		if _, _, recorded := dep.RecordedNode(); recorded {
			return nil, errs.New("submit", errs.ErrDanglingDependency, nodeid.None, "recorded tokens never complete and cannot gate a submission")
		}
	}

	eg.mu.RLock()
	plan, err := builder.Build(ctx, eg.topo, eg.state, builder.Options{Graph: eg.label})
	eg.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("building submission of graph %s: %w", eg.label, err)
	}

	metrics.Submissions.WithLabelValues(metrics.KindGraph).Inc()
	logger.Debug("Submit: graph submitted.", "graph", eg.label, "submission", plan.Submission, "dependencies", len(deps))

	done := event.New()
	runCtx := context.WithoutCancel(ctx)
	q.Go(func() {
		if err := event.WaitAll(deps...); err != nil {
			done.Complete(fmt.Errorf("graph %s: dependency failed: %w", eg.label, err))
			return
		}
		_, err := executor.New(plan, q).Run(runCtx)
		done.Complete(err)
	})
	return done, nil
}
