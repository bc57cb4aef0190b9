package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"serial-codegen/internal/domain"
	"serial-codegen/internal/domain/model"
	"serial-codegen/internal/domain/ports/repository"
	"serial-codegen/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// ApplyLockKey serialises concurrent batch inserts across processes.
const ApplyLockKey = "serial_numbers:apply"

// Locker is a best-effort distributed mutex.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// Recorder receives generation, insert and redemption outcomes.
// metrics.Recorder is the production implementation.
type Recorder interface {
	ObserveGeneration(produced, shortfall, attempts int)
	AddInserted(inserted, skipped int)
	IncRedeem(result string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveGeneration(int, int, int) {}
func (nopRecorder) AddInserted(int, int)            {}
func (nopRecorder) IncRedeem(string)                {}

// Compile-time check
var _ CodeGenUseCase = (*codeGenUC)(nil)

type CodeGenUseCase interface {
	// Generate produces one batch using the configured count and length.
	Generate(ctx context.Context) (*model.CodeBatch, error)
	// Apply inserts batch into serial_numbers and returns the rows written.
	Apply(ctx context.Context, batch *model.CodeBatch) (int, error)
}

type CodeGenOptions struct {
	Count    int
	Length   int
	LockTTL  time.Duration
	Recorder Recorder // nil disables metrics
}

type codeGenUC struct {
	src     RandSource
	opts    CodeGenOptions
	serials repository.SerialNumberRepository
	tm      repository.TransactionManager
	locker  Locker
	log     *zerolog.Logger
}

// NewCodeGenUseCase wires the generator. serials, tm and locker may be nil
// when the caller only prints SQL; Apply then fails.
func NewCodeGenUseCase(
	src RandSource,
	opts CodeGenOptions,
	serials repository.SerialNumberRepository,
	tm repository.TransactionManager,
	locker Locker,
	logger *zerolog.Logger,
) *codeGenUC {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = time.Minute
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	return &codeGenUC{src: src, opts: opts, serials: serials, tm: tm, locker: locker, log: logger}
}

func (uc *codeGenUC) Generate(ctx context.Context) (*model.CodeBatch, error) {
	defer logging.TraceDuration(uc.log, "CodeGenUC.Generate")()

	batch, err := GenerateUniqueCodes(uc.src, uc.opts.Count, uc.opts.Length)
	if err != nil {
		return nil, err
	}
	uc.opts.Recorder.ObserveGeneration(batch.Len(), batch.Shortfall(), batch.Attempts)

	if batch.Short() {
		uc.log.Warn().
			Int("produced", batch.Len()).
			Int("requested", batch.Requested).
			Int("attempts", batch.Attempts).
			Int("length", uc.opts.Length).
			Msg("retry budget exhausted before reaching requested count")
	} else {
		uc.log.Debug().Int("produced", batch.Len()).Int("attempts", batch.Attempts).Msg("batch generated")
	}
	return batch, nil
}

func (uc *codeGenUC) Apply(ctx context.Context, batch *model.CodeBatch) (int, error) {
	defer logging.TraceDuration(uc.log, "CodeGenUC.Apply")()

	if uc.serials == nil || uc.tm == nil || uc.locker == nil {
		return 0, fmt.Errorf("%w: apply needs a database", domain.ErrInvalidArgument)
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	token, err := uc.locker.TryLock(ctx, ApplyLockKey, uc.opts.LockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			return 0, err
		}
		return 0, fmt.Errorf("acquire apply lock: %w", err)
	}
	defer func() {
		// release even if ctx was cancelled mid-insert
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := uc.locker.Unlock(unlockCtx, ApplyLockKey, token); err != nil {
			uc.log.Error().Err(err).Msg("failed to release apply lock")
		}
	}()

	var inserted int
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		n, err := uc.serials.InsertBatch(ctx, tx, batch.Codes)
		if err != nil {
			return err
		}
		inserted = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	skipped := batch.Len() - inserted
	uc.opts.Recorder.AddInserted(inserted, skipped)
	lvl := zerolog.InfoLevel
	if skipped > 0 {
		lvl = zerolog.WarnLevel
	}
	uc.log.WithLevel(lvl).Int("inserted", inserted).Int("skipped", skipped).Msg("batch applied")
	return inserted, nil
}
