package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/cmdgraph/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// Plan finalizes the recipe's graph without running it and writes its
// execution order and bindings to the output writer as YAML.
func (a *App) Plan(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx

	_, eg, err := a.prepare(ctx, a.newQueue())
	if err != nil {
		return err
	}
	plan, err := eg.Describe(ctx, a.config.PlanNodes...)
	if err != nil {
		return fmt.Errorf("failed to describe graph: %w", err)
	}

	enc := yaml.NewEncoder(a.outW)
	enc.SetIndent(2)
	if err := enc.Encode(plan); err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	return enc.Close()
}
