package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/cmdgraph/internal/app"
	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// globalOptions are the flags shared by every command.
type globalOptions struct {
	logFormat string
	logLevel  string
}

// runOptions are the flags of the run and plan commands.
type runOptions struct {
	workers         int
	healthcheckPort int
	iterations      int
	traceExporter   string
	planNodes       []string
}

// NewRootCommand builds the command tree. Results go to outW, logs to errW.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	var global globalOptions

	cmd := &cobra.Command{
		Use:   "cmdgraph",
		Short: "Build, finalize and run command graphs described in HCL recipes",
		Long: "cmdgraph records or declares a graph of commands over shared buffers,\n" +
			"finalizes it into an executable graph and submits it to an execution\n" +
			"queue, applying updates between iterations.\n",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetOut(outW)
	cmd.SetErr(errW)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	cmd.PersistentFlags().StringVar(&global.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	cmd.PersistentFlags().StringVar(&global.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	cmd.AddCommand(
		newRunCommand(&global, outW, errW),
		newPlanCommand(&global, outW, errW),
		newVersionCommand(outW),
	)
	return cmd
}

func newRunCommand(global *globalOptions, outW, errW io.Writer) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run RECIPE_PATH",
		Short: "Run a recipe and print the final buffer contents",
		Long: "Run finalizes the recipe's graph and submits it once per iteration.\n\n" +
			"RECIPE_PATH is a single .hcl file or a directory of .hcl files.\n",
		Args: exactlyOnePath,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(global, args[0], opts)
			if err != nil {
				return err
			}
			a, err := app.NewApp(outW, errW, cfg, nil)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Number of queue worker slots. 0 uses the queue default.")
	cmd.Flags().IntVar(&opts.healthcheckPort, "healthcheck-port", 0, "Port for the /health and /metrics server. 0 is disabled.")
	cmd.Flags().IntVar(&opts.iterations, "iterations", 0, "Override the recipe's iteration count. 0 keeps it.")
	cmd.Flags().StringVar(&opts.traceExporter, "trace-exporter", "none", "Span exporter for the run. Options: 'none' or 'stdout'.")
	return cmd
}

func newPlanCommand(global *globalOptions, outW, errW io.Writer) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "plan RECIPE_PATH",
		Short: "Print the finalized execution order of a recipe as YAML",
		Args:  exactlyOnePath,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(global, args[0], opts)
			if err != nil {
				return err
			}
			a, err := app.NewApp(outW, errW, cfg, nil)
			if err != nil {
				return err
			}
			return a.Plan(cmd.Context())
		},
	}
	cmd.Flags().StringSliceVar(&opts.planNodes, "node", nil, "Only print these nodes, e.g. 'node[2]' or '2'. Repeatable.")
	return cmd
}

func newVersionCommand(outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(outW, "cmdgraph %s\n", Version)
		},
	}
}

func exactlyOnePath(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return usageError(fmt.Errorf("%s expects exactly one RECIPE_PATH, got %d", cmd.Name(), len(args)))
	}
	return nil
}

func newConfig(global *globalOptions, path string, opts runOptions) (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		RecipePath:      path,
		LogFormat:       strings.ToLower(global.logFormat),
		LogLevel:        strings.ToLower(global.logLevel),
		HealthcheckPort: opts.healthcheckPort,
		Workers:         opts.workers,
		Iterations:      opts.iterations,
		TraceExporter:   strings.ToLower(opts.traceExporter),
		PlanNodes:       opts.planNodes,
	})
	if err != nil {
		return nil, usageError(err)
	}
	slog.Debug("CLI parameter validation complete.", "config", cfg)
	return cfg, nil
}

// Execute parses args and runs the selected command. Usage errors are
// returned as *ExitError with code 2.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	// cobra reports unknown commands as plain errors.
	if strings.HasPrefix(err.Error(), "unknown command") {
		return usageError(err)
	}
	return err
}
