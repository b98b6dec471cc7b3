package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/specialistvlad/cmdgraph/internal/ctxlog"
	"github.com/specialistvlad/cmdgraph/internal/execgraph"
	"github.com/specialistvlad/cmdgraph/internal/queue"
	"github.com/specialistvlad/cmdgraph/internal/recipe"
)

// Run builds and finalizes the recipe's graph, then submits it once per
// iteration. Updates declared for an iteration are applied after it
// completes. The final buffer contents are printed to the output writer.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	if err := a.startHealthcheckServer(a.config.HealthcheckPort); err != nil {
		return err
	}
	defer a.closeHealthcheckServer()

	stopTracing, err := a.startTracing()
	if err != nil {
		return err
	}
	defer func() {
		if err := stopTracing(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("Failed to flush traces.", "error", err)
		}
	}()

	q := a.newQueue()
	prog, eg, err := a.prepare(ctx, q)
	if err != nil {
		return err
	}

	n := a.iterations()
	updates := make(map[int][]*recipe.Update)
	for _, u := range a.recipe.Updates {
		if u.AfterIteration >= n {
			a.logger.Warn("Update skipped: iteration count overridden.", "after_iteration", u.AfterIteration, "iterations", n)
			continue
		}
		updates[u.AfterIteration] = append(updates[u.AfterIteration], u)
	}

	a.logger.Info("🚀 Starting execution...", "graph", eg.Label(), "node_count", eg.Len(), "iterations", n)
	for i := 1; i <= n; i++ {
		ev, err := eg.Submit(ctx, q)
		if err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		if err := ev.WaitContext(ctx); err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		a.logger.Debug("Iteration complete.", "iteration", i)

		for _, u := range updates[i] {
			if err := prog.Apply(ctx, eg, u); err != nil {
				return fmt.Errorf("update after iteration %d: %w", i, err)
			}
		}
	}
	a.logger.Info("🏁 Execution finished.")

	for _, name := range prog.BufferNames() {
		fmt.Fprintf(a.outW, "%s = %s\n", name, formatValues(prog.Buffers[name].Snapshot()))
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) newQueue() *queue.Queue {
	return queue.New(queue.Device(a.recipe.Device), queue.WithWorkers(a.config.Workers))
}

// prepare assembles the recipe on q and finalizes it.
func (a *App) prepare(ctx context.Context, q *queue.Queue) (*recipe.Program, *execgraph.Graph, error) {
	prog, err := recipe.Build(ctx, a.recipe, q, a.kernels)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build graph: %w", err)
	}

	var opts []execgraph.Option
	if a.recipe.Updatable {
		opts = append(opts, execgraph.Updatable())
	}
	eg, err := execgraph.Finalize(ctx, prog.Graph, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to finalize graph: %w", err)
	}
	return prog, eg, nil
}

func formatValues(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
