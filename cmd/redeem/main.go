package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"serial-codegen/internal/config"
	"serial-codegen/internal/domain"
	"serial-codegen/internal/domain/model"
	pg "serial-codegen/internal/infra/db/postgres"
	"serial-codegen/internal/infra/logging"
	"serial-codegen/internal/infra/metrics"
	"serial-codegen/internal/usecase"

	"github.com/rs/zerolog"
)

// Exit codes distinguish a rejected code from an operational failure.
const (
	exitOK       = 0
	exitFailure  = 1
	exitRejected = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("redeem", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", config.DefaultPath, "path to YAML config file (optional)")
	dev := fs.Bool("dev", false, "development mode (console logs, no redaction)")
	code := fs.String("code", "", "activation code to redeem")
	testType := fs.String("test-type", "", "test type consuming the code (e.g. adhd, scl90)")
	testID := fs.Int64("test-id", 0, "id of the test record consuming the code")
	nickname := fs.String("nickname", "", "nickname of the user consuming the code")
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}

	cfg, err := config.LoadConfig(*cfgPath, *dev)
	if err != nil {
		l := zerolog.New(stderr).With().Timestamp().Str("command", "redeem").Logger()
		l.WithLevel(zerolog.FatalLevel).Err(err).Msg("load config")
		return exitFailure
	}
	logger := logging.NewWithWriter(stderr, cfg.Log, cfg.Runtime.Dev)
	ctx = logging.WithCommand(logging.WithTraceID(ctx, logging.NewTraceID()), "redeem")
	logger = logging.With(ctx, logger)

	// validate before dialing the database
	if _, err := model.NormalizeCode(*code); err != nil {
		fmt.Fprintf(stderr, "redeem: %v\n", err)
		return exitRejected
	}
	if err := cfg.RequireDatabase(); err != nil {
		logger.WithLevel(zerolog.FatalLevel).Err(err).Msg("database not configured")
		return exitFailure
	}

	metrics.MustRegister()
	defer func() {
		if cfg.Metrics.Textfile == "" {
			return
		}
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Error().Err(err).Msg("failed to write metrics textfile")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, cfg.Database.Timeout)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.WithLevel(zerolog.FatalLevel).Err(err).Msg("postgres")
		return exitFailure
	}
	defer pool.Close()

	uc := usecase.NewRedeemUseCase(pg.NewSerialNumberRepo(pool), pg.NewTxManager(pool), metrics.Recorder{}, cfg.Runtime.Dev, logger)
	sn, err := uc.Redeem(ctx, *code, model.Usage{TestType: *testType, TestID: *testID, Nickname: *nickname})
	return report(stdout, stderr, sn, err)
}

func report(stdout, stderr io.Writer, sn *model.SerialNumber, err error) int {
	switch {
	case err == nil:
		fmt.Fprintf(stdout, "redeemed %s at %s\n", sn.SerialNumber, sn.UsedAt.Format("2006-01-02 15:04:05"))
		return exitOK
	case errors.Is(err, domain.ErrCodeNotFound):
		fmt.Fprintln(stderr, "redeem: activation code is invalid")
		return exitRejected
	case errors.Is(err, domain.ErrCodeAlreadyUsed):
		fmt.Fprintln(stderr, "redeem: activation code has already been used")
		return exitRejected
	case errors.Is(err, domain.ErrInvalidArgument):
		fmt.Fprintf(stderr, "redeem: %v\n", err)
		return exitRejected
	default:
		fmt.Fprintf(stderr, "redeem: %v\n", err)
		return exitFailure
	}
}
