package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/cmdgraph/internal/ctxlog"
	"github.com/specialistvlad/cmdgraph/internal/kernels"
	"github.com/specialistvlad/cmdgraph/internal/recipe"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logW    io.Writer
	logger  *slog.Logger
	config  *Config
	kernels *kernels.Registry
	recipe  *recipe.Recipe

	ctx        context.Context
	httpServer *http.Server
}

// NewApp is the constructor for the main application. Results are written to
// outW and logs to logW. It loads and validates the recipe so that a broken
// recipe fails before anything runs. A nil registry means the built-in
// kernels.
func NewApp(outW, logW io.Writer, cfg *Config, reg *kernels.Registry) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if reg == nil {
		reg = kernels.Default()
	}
	logger.Debug("Kernels registered.", "kernels", reg.Names())

	rc, err := recipe.Load(ctx, cfg.RecipePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	logger.Debug("Recipe loaded.", "path", cfg.RecipePath, "nodes", len(rc.Nodes))

	return &App{
		outW:    outW,
		logW:    logW,
		logger:  logger,
		config:  cfg,
		kernels: reg,
		recipe:  rc,
		ctx:     ctx,
	}, nil
}

// Recipe returns the loaded recipe. This is primarily for testing.
func (a *App) Recipe() *recipe.Recipe {
	return a.recipe
}

// iterations is the number of submissions Run performs.
func (a *App) iterations() int {
	if a.config.Iterations > 0 {
		return a.config.Iterations
	}
	return a.recipe.Iterations
}
