package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"serial-codegen/internal/config"
	"serial-codegen/internal/domain/model"
	pg "serial-codegen/internal/infra/db/postgres"
	"serial-codegen/internal/infra/logging"
	"serial-codegen/internal/infra/metrics"
	red "serial-codegen/internal/infra/redis"
	"serial-codegen/internal/infra/sqlscript"
	"serial-codegen/internal/usecase"

	"github.com/rs/zerolog"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, time.Now); err != nil {
		logFailure(os.Stderr, err)
		os.Exit(1)
	}
}

// logFailure reports an error from run as a fatal event. It does not exit;
// main does, after the deferred cleanup in run has completed.
func logFailure(w io.Writer, err error) {
	l := zerolog.New(w).With().Timestamp().Str("command", "codegen").Logger()
	l.WithLevel(zerolog.FatalLevel).Err(err).Msg("codegen failed")
}

type options struct {
	configPath string
	dev        bool
	apply      bool
	report     bool
	seed       uint64
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("codegen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", config.DefaultPath, "path to YAML config file (optional)")
	fs.BoolVar(&o.dev, "dev", false, "development mode (console logs, no redaction)")
	fs.BoolVar(&o.apply, "apply", false, "insert the batch into Postgres instead of printing SQL")
	fs.BoolVar(&o.report, "report", false, "print live serial number stats and exit")
	fs.Uint64Var(&o.seed, "seed", 0, "deterministic random seed (0 = crypto seeded)")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

// run is main without the process exit, so it can be driven from tests.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, now func() time.Time) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	// ---- Config ----
	cfg, err := config.LoadConfig(opts.configPath, opts.dev)
	if err != nil {
		return err
	}

	logger := logging.NewWithWriter(stderr, cfg.Log, cfg.Runtime.Dev)
	ctx = logging.WithCommand(logging.WithTraceID(ctx, logging.NewTraceID()), "codegen")
	logger = logging.With(ctx, logger)

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	defer flushMetrics(cfg, logger)

	if opts.report {
		return runReport(ctx, cfg, stdout, logger)
	}

	var src usecase.RandSource
	if opts.seed != 0 {
		src = usecase.NewSeededSource(opts.seed)
	} else {
		cs, err := usecase.NewCryptoSource()
		if err != nil {
			return err
		}
		src = cs
	}
	genOpts := usecase.CodeGenOptions{
		Count:    cfg.Codegen.Count,
		Length:   cfg.Codegen.Length,
		LockTTL:  cfg.Redis.LockTTL,
		Recorder: metrics.Recorder{},
	}

	if !opts.apply {
		uc := usecase.NewCodeGenUseCase(src, genOpts, nil, nil, nil, logger)
		batch, err := uc.Generate(ctx)
		if err != nil {
			return err
		}
		return sqlscript.Render(stdout, sqlscript.Script{
			Codes:       batch.Codes,
			Requested:   batch.Requested,
			GeneratedAt: now(),
			UsageHint:   cfg.Output.UsageHint,
		})
	}

	return runApply(ctx, cfg, src, genOpts, stdout, logger)
}

func runApply(ctx context.Context, cfg *config.Config, src usecase.RandSource, genOpts usecase.CodeGenOptions, stdout io.Writer, logger *zerolog.Logger) error {
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Database.Timeout)
	defer cancel()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer func() {
		st := pool.Stat()
		metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
		pool.Close()
	}()

	// ---- Redis (optional) ----
	var locker usecase.Locker = red.NoopLocker{}
	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rc.Close()
		locker = red.NewLocker(rc)
	} else {
		logger.Debug().Msg("redis not configured; apply runs without a cross-process lock")
	}

	uc := usecase.NewCodeGenUseCase(src, genOpts, pg.NewSerialNumberRepo(pool), pg.NewTxManager(pool), locker, logger)
	batch, err := uc.Generate(ctx)
	if err != nil {
		return err
	}
	inserted, err := uc.Apply(ctx, batch)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "inserted %d of %d codes (requested %d)\n", inserted, batch.Len(), batch.Requested)
	return nil
}

func runReport(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *zerolog.Logger) error {
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Database.Timeout)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	report := usecase.NewReportUseCase(pg.NewSerialNumberRepo(pool))
	st, err := report.Stats(ctx)
	if err != nil {
		return err
	}
	latest, err := report.Latest(ctx, usecase.LatestLimit)
	if err != nil {
		return err
	}
	logger.Debug().Int("rows", len(latest)).Msg("report loaded")
	return writeReport(stdout, st, latest)
}

// reportStore names the database -report reads. The printed SQL script targets
// the MySQL consumer instead and is never applied here.
const reportStore = "postgres"

func writeReport(w io.Writer, st model.SerialStats, latest []*model.SerialNumber) error {
	if _, err := fmt.Fprintf(w, "store=%s total=%d unused=%d used=%d\n", reportStore, st.Total, st.Unused, st.Used); err != nil {
		return err
	}
	for _, sn := range latest {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", sn.SerialNumber, sn.Status, sn.CreatedAt.Format(sqlscript.TimeLayout)); err != nil {
			return err
		}
	}
	return nil
}

func flushMetrics(cfg *config.Config, logger *zerolog.Logger) {
	if cfg.Metrics.Textfile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		logger.Error().Err(err).Str("path", cfg.Metrics.Textfile).Msg("failed to write metrics textfile")
	}
}
