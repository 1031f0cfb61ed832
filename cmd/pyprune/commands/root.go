// Package commands implements the pyprune command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pyprune/pkg/analyzers/imports"
	"github.com/Sumatoshi-tech/pyprune/pkg/config"
	"github.com/Sumatoshi-tech/pyprune/pkg/fs"
	"github.com/Sumatoshi-tech/pyprune/pkg/observability"
	"github.com/Sumatoshi-tech/pyprune/pkg/prune"
	"github.com/Sumatoshi-tech/pyprune/pkg/report"
	"github.com/Sumatoshi-tech/pyprune/pkg/version"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
)

var (
	// ErrMissingPath indicates no target file was given.
	ErrMissingPath = errors.New("missing required argument: filepath")
)

// PruneCommand holds flags and dependencies of the root command.
type PruneCommand struct {
	configPath  string
	logLevel    string
	logFormat   string
	dryRun      bool
	aggressive  bool
	diff        bool
	table       bool
	printConfig bool
	noColor     bool

	fsys   fs.FS
	logger *slog.Logger
}

// Execute runs the command line with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return execute(ctx, args, stdout, stderr, fs.NewFS())
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer, fsys fs.FS) (code int) {
	pc, cmd := newPruneCommand(fsys)

	defer func() {
		if r := recover(); r != nil {
			pc.log(stderr).ErrorContext(ctx, "An unexpected error occurred",
				"panic", fmt.Sprint(r), "stack", string(debug.Stack()))

			code = ExitFailure
		}
	}()

	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var unexpected *unexpectedError
	if errors.As(err, &unexpected) {
		pc.log(stderr).ErrorContext(ctx, "An unexpected error occurred",
			"error", unexpected.err, "stack", string(unexpected.stack))
	} else {
		pc.log(stderr).ErrorContext(ctx, "command failed", "error", err)
	}

	return ExitFailure
}

// unexpectedError marks a failure that is not a property of the input.
type unexpectedError struct {
	err   error
	stack []byte
}

func (e *unexpectedError) Error() string { return e.err.Error() }

func (e *unexpectedError) Unwrap() error { return e.err }

func newPruneCommand(fsys fs.FS) (*PruneCommand, *cobra.Command) {
	pc := &PruneCommand{fsys: fsys}

	cmd := &cobra.Command{
		Use:   "pyprune <filepath>",
		Short: "Remove unused imports from a Python file",
		Long: `pyprune parses a Python file, finds import bindings that are never
referenced, and deletes the lines of those import statements.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          pc.run,
	}

	cmd.Flags().BoolVar(&pc.dryRun, "dry-run", false, "Report unused imports without modifying the file")
	cmd.Flags().BoolVar(&pc.aggressive, "aggressive", false, "Accepted for compatibility; has no effect on detection")
	cmd.Flags().StringVar(&pc.configPath, "config", "", "Config file (default: .pyprune.yaml in CWD or $HOME)")
	cmd.Flags().StringVar(&pc.logLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&pc.logFormat, "log-format", config.DefaultLogFormat, "Log format: text, json")
	cmd.Flags().BoolVar(&pc.diff, "diff", false, "Print a unified diff of the rewrite to stdout")
	cmd.Flags().BoolVar(&pc.table, "table", false, "Print a table of unused imports to stdout")
	cmd.Flags().BoolVar(&pc.printConfig, "print-config", false, "Print the effective configuration as YAML and exit")
	cmd.Flags().BoolVar(&pc.noColor, "no-color", false, "Disable colored diff output")

	cmd.AddCommand(versionCmd())

	return pc, cmd
}

// log returns the configured logger, or a text logger on stderr when
// configuration failed before one was built.
func (pc *PruneCommand) log(stderr io.Writer) *slog.Logger {
	if pc.logger != nil {
		return pc.logger
	}

	cfg := observability.DefaultConfig()
	cfg.LogOutput = stderr

	return observability.NewLogger(cfg)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func (pc *PruneCommand) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := pc.loadConfig(cmd)
	if err != nil {
		return err
	}

	if pc.printConfig {
		out, yamlErr := cfg.YAML()
		if yamlErr != nil {
			return yamlErr
		}

		_, err = cmd.OutOrStdout().Write(out)

		return err
	}

	if len(args) == 0 {
		return ErrMissingPath
	}

	path := args[0]

	providers, err := pc.initObservability(ctx, cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}

	pc.logger = providers.Logger

	defer func() {
		if shutdownErr := providers.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			providers.Logger.WarnContext(ctx, "telemetry shutdown failed", "error", shutdownErr)
		}
	}()

	pruner, err := pc.newPruner(providers, cfg)
	if err != nil {
		return err
	}

	err = pruner.CheckPath(ctx, path)
	if err != nil {
		return err
	}

	out, err := pruner.Run(ctx, path)
	if err != nil {
		return &unexpectedError{err: err, stack: debug.Stack()}
	}

	return pc.render(cmd.OutOrStdout(), path, out)
}

// loadConfig layers flags set on the command line over the loaded config.
func (pc *PruneCommand) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(pc.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("dry-run") {
		cfg.Prune.DryRun = pc.dryRun
	}

	if flags.Changed("aggressive") {
		cfg.Prune.Aggressive = pc.aggressive
	}

	if flags.Changed("log-level") {
		cfg.Logging.Level = pc.logLevel
	}

	if flags.Changed("log-format") {
		cfg.Logging.Format = pc.logFormat
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate flags: %w", err)
	}

	return cfg, nil
}

func (pc *PruneCommand) initObservability(
	ctx context.Context, stderr io.Writer, cfg *config.Config,
) (observability.Providers, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return observability.Providers{}, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.Format == config.FormatJSON
	obsCfg.LogOutput = stderr
	obsCfg.ApplyEnv()

	providers, err := observability.Init(ctx, obsCfg)
	if err != nil {
		return observability.Providers{}, fmt.Errorf("init observability: %w", err)
	}

	return providers, nil
}

func (pc *PruneCommand) newPruner(providers observability.Providers, cfg *config.Config) (*prune.Pruner, error) {
	auditorOpts, err := cfg.AuditorOptions()
	if err != nil {
		return nil, err
	}

	maxSize, err := cfg.MaxFileSizeBytes()
	if err != nil {
		return nil, err
	}

	metrics, err := observability.NewPruneMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return prune.NewPruner(prune.NewPrunerParams{
		FS:      pc.fsys,
		Auditor: imports.NewAuditor(auditorOpts, providers.Logger),
		Logger:  providers.Logger,
		Metrics: metrics,
		Tracer:  providers.Tracer,
		Options: prune.Options{
			DryRun:      cfg.Prune.DryRun,
			AtomicWrite: cfg.Prune.AtomicWrite,
			MaxFileSize: maxSize,
			Extensions:  cfg.Prune.Extensions,
		},
	}), nil
}

func (pc *PruneCommand) render(w io.Writer, path string, out prune.Outcome) error {
	if pc.diff {
		err := report.Diff(w, path, out.Source, out.After, report.DiffOptions{
			Color:   !pc.noColor && !color.NoColor,
			Context: report.DefaultContext,
		})
		if err != nil {
			return err
		}
	}

	if pc.table && out.Status.Analyzed() {
		return report.Table(w, path, out.Unused)
	}

	return nil
}
