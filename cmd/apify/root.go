package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/apifykit/apify"
	"github.com/kbukum/apifykit/config"
	"github.com/kbukum/apifykit/errors"
	"github.com/kbukum/apifykit/logger"
	"github.com/kbukum/apifykit/observability"
	"github.com/kbukum/apifykit/version"

	_ "github.com/kbukum/apifykit/storage/local"
	_ "github.com/kbukum/apifykit/storage/memory"
	_ "github.com/kbukum/apifykit/storage/s3"
)

const shutdownTimeout = 5 * time.Second

// errReported ends the command with exit code 1 after the command already
// printed its own result.
var errReported = stderrors.New("reported")

type globalFlags struct {
	configFile string
	envFile    string
	baseURL    string
	output     string
	logLevel   string
}

// app holds the state shared by all commands of one invocation.
type app struct {
	flags  globalFlags
	cfg    cliConfig
	stdout io.Writer
	stderr io.Writer

	conn     *apify.Connection
	metrics  *observability.Metrics
	shutdown observability.ShutdownFunc
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	cmd := newRootCommand(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	a.close()
	if err == nil {
		return 0
	}
	if !stderrors.Is(err, errReported) {
		a.printError(err)
	}
	return 1
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apify",
		Short: "Run Apify actors and fetch their datasets",
		Long: `apify talks to the Apify API v2. It starts actor runs, looks up the
last run of an actor and downloads dataset items, waiting with exponential
backoff while a dataset is still empty.

The API token is read from apify.token in the config file or from the
APIFY_TOKEN environment variable.`,
		Version:           version.GetFullVersion(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Validation(err.Error())
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "Path to config file (default: ./cmd/apify/config.yml or ./config.yml)")
	pf.StringVar(&a.flags.envFile, "env-file", "", "Path to .env file")
	pf.StringVar(&a.flags.baseURL, "base-url", "", "Override the API base URL")
	pf.StringVarP(&a.flags.output, "output", "o", outputJSON, "Output format: json or yaml")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Override the log level (debug, info, warn, error)")

	cmd.AddCommand(
		newRunActorCommand(a),
		newLastRunCommand(a),
		newDatasetCommand(a),
		newHealthCommand(a),
		newVersionCommand(a),
	)
	return cmd
}

// setup loads configuration, logging and telemetry before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := checkOutput(a.flags.output); err != nil {
		return err
	}

	var opts []config.LoaderOption
	if a.flags.configFile != "" {
		opts = append(opts, config.WithConfigFile(a.flags.configFile))
	}
	if a.flags.envFile != "" {
		opts = append(opts, config.WithEnvFile(a.flags.envFile))
	}
	if err := config.LoadConfig(serviceName, &a.cfg, opts...); err != nil {
		return errors.InvalidInput("config", err.Error()).WithCause(err)
	}
	if a.flags.baseURL != "" {
		a.cfg.Apify.BaseURL = a.flags.baseURL
	}
	if a.flags.logLevel != "" {
		a.cfg.Logging.Level = a.flags.logLevel
	}
	a.cfg.ApplyDefaults()
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.cfg.Logging.Writer = a.stderr
	logger.Init(a.cfg.Logging)

	shutdown, err := observability.Setup(cmd.Context(), a.cfg.Observability, a.cfg.Name, version.Version)
	a.shutdown = shutdown
	if err != nil {
		return fmt.Errorf("start telemetry: %w", err)
	}
	if a.cfg.Observability.Metrics.Enabled {
		if a.metrics, err = observability.NewMetrics(observability.Meter(serviceName)); err != nil {
			return err
		}
	}
	return nil
}

// connection creates the API connection on first use.
func (a *app) connection() (*apify.Connection, error) {
	if a.conn != nil {
		return a.conn, nil
	}
	conn, err := apify.NewConnection(a.cfg.Apify,
		apify.WithLogger(logger.WithComponent(serviceName)),
		apify.WithMetrics(a.metrics),
	)
	if err != nil {
		return nil, err
	}
	a.conn = conn
	return conn, nil
}

func (a *app) close() {
	if a.shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.shutdown(ctx); err != nil {
		logger.Warn("telemetry shutdown failed", logger.ErrorFields("telemetry_shutdown", err))
	}
}

// printError writes err as an API-style error envelope to stderr.
func (a *app) printError(err error) {
	appErr := apify.AsAppError(err)
	if appErr.Code == errors.ErrCodeInternal {
		appErr.WithDetail("error", err.Error())
	}
	if werr := render(a.stderr, a.flags.output, appErr.ToResponse()); werr != nil {
		_, _ = fmt.Fprintln(a.stderr, err)
	}
}

// print writes v to stdout in the selected output format.
func (a *app) print(v any) error {
	return render(a.stdout, a.flags.output, v)
}
