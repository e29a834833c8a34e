// Package app wires configuration, logging, the database, the repositories,
// the sweeper and metrics into a single run and maps its outcome to a process
// exit status.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/tokenexpiry/internal/common"
	"github.com/dmitrijs2005/tokenexpiry/internal/config"
	"github.com/dmitrijs2005/tokenexpiry/internal/database"
	"github.com/dmitrijs2005/tokenexpiry/internal/logging"
	"github.com/dmitrijs2005/tokenexpiry/internal/metrics"
	"github.com/dmitrijs2005/tokenexpiry/internal/repositories/repomanager"
	"github.com/dmitrijs2005/tokenexpiry/internal/sweeper"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const pushTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	stdout   io.Writer
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// NewApp builds an App that logs to stderr and reports to stdout.
func NewApp(c *config.Config) (*App, error) {
	return newApp(c, os.Stdout, os.Stderr)
}

func newApp(c *config.Config, stdout, stderr io.Writer) (*App, error) {
	l, err := logging.New(stderr, c.LogLevel, c.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	reg := prometheus.NewRegistry()

	return &App{
		config:   c,
		logger:   l.With("run_id", uuid.NewString()),
		stdout:   stdout,
		registry: reg,
		metrics:  metrics.New(reg),
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run performs one expiration pass and returns the process exit status.
func (app *App) Run(ctx context.Context) int {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(ctx, cancelFunc)

	app.logger.Info(ctx, "starting expiration run",
		"driver", app.config.Driver,
		"addr", app.config.Addr(),
		"atomic", app.config.Atomic,
		"dry_run", app.config.DryRun,
	)

	start := time.Now()
	res, err := app.sweep(ctx)
	app.metrics.ObserveDuration(time.Since(start))

	if err != nil {
		app.metrics.IncFailure(common.FailureKind(err))
		app.reportFailure(ctx, res, err)
	} else {
		app.metrics.MarkSuccess(time.Now())
		app.logger.Info(ctx, res.Summary(),
			"candidates", res.Candidates,
			"inserted", res.Inserted,
			"reference_time", res.ReferenceTime,
		)
		fmt.Fprintln(app.stdout, res.Summary())
	}

	app.pushMetrics(ctx)

	return common.ExitCode(err)
}

func (app *App) sweep(ctx context.Context) (*sweeper.Result, error) {
	db, dialect, err := database.Open(ctx, app.config)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	repos := repomanager.NewSQLRepositoryManager(dialect)

	if app.config.Migrate {
		if err := repos.RunMigrations(ctx, db); err != nil {
			return nil, err
		}
		app.logger.Info(ctx, "migrations applied")
	}

	s := sweeper.New(db, repos, app.logger, sweeper.Options{
		Atomic: app.config.Atomic,
		DryRun: app.config.DryRun,
	})

	res, err := s.Run(ctx)
	app.metrics.SetCandidates(res.Candidates)
	app.metrics.AddInserted(res.Inserted)
	return res, err
}

func (app *App) reportFailure(ctx context.Context, res *sweeper.Result, err error) {
	var connErr *common.ConnectionError
	if errors.As(err, &connErr) {
		app.logger.Error(ctx, "database connection failed",
			"driver", connErr.Driver, "addr", connErr.Addr, "error", connErr.Err)
		return
	}

	inserted := 0
	if res != nil {
		inserted = res.Inserted
	}
	app.logger.Error(ctx, "expiration processing failed",
		"kind", common.FailureKind(err), "inserted", inserted, "error", err)
}

func (app *App) pushMetrics(ctx context.Context) {
	if app.config.PushgatewayURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()

	if err := metrics.Push(ctx, app.config.PushgatewayURL, app.config.MetricsJob, app.registry); err != nil {
		app.logger.Warn(ctx, "metrics push failed", "error", err)
	}
}
