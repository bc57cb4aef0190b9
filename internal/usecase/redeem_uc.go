package usecase

import (
	"context"
	"errors"
	"time"

	"serial-codegen/internal/domain"
	"serial-codegen/internal/domain/model"
	"serial-codegen/internal/domain/ports/repository"
	"serial-codegen/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ RedeemUseCase = (*redeemUC)(nil)

type RedeemUseCase interface {
	// Redeem marks code as used. It fails with domain.ErrCodeNotFound or
	// domain.ErrCodeAlreadyUsed when the code cannot be consumed.
	Redeem(ctx context.Context, code string, usage model.Usage) (*model.SerialNumber, error)
}

type redeemUC struct {
	serials repository.SerialNumberRepository
	tm      repository.TransactionManager
	rec     Recorder
	now     func() time.Time
	dev     bool
	log     *zerolog.Logger
}

// NewRedeemUseCase wires redemption. A nil rec disables metrics.
func NewRedeemUseCase(serials repository.SerialNumberRepository, tm repository.TransactionManager, rec Recorder, dev bool, logger *zerolog.Logger) *redeemUC {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &redeemUC{serials: serials, tm: tm, rec: rec, now: time.Now, dev: dev, log: logger}
}

func (uc *redeemUC) Redeem(ctx context.Context, code string, usage model.Usage) (*model.SerialNumber, error) {
	defer logging.TraceDuration(uc.log, "RedeemUC.Redeem")()

	norm, err := model.NormalizeCode(code)
	if err != nil {
		uc.rec.IncRedeem("invalid")
		return nil, err
	}

	var out *model.SerialNumber
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sn, err := uc.serials.FindByCodeForUpdate(ctx, tx, norm)
		if err != nil {
			return err
		}
		if sn.IsUsed() {
			return domain.ErrCodeAlreadyUsed
		}
		sn.MarkUsed(uc.now(), usage)
		if err := uc.serials.MarkUsed(ctx, tx, sn); err != nil {
			return err
		}
		out = sn
		return nil
	})

	l := uc.log.With().Str("code", logging.Redact(norm, uc.dev)).Logger()
	switch {
	case err == nil:
		uc.rec.IncRedeem("ok")
		l.Info().Str("test_type", usage.TestType).Msg("activation code redeemed")
		return out, nil
	case errors.Is(err, domain.ErrCodeNotFound):
		uc.rec.IncRedeem("not_found")
		l.Warn().Msg("activation code not found")
	case errors.Is(err, domain.ErrCodeAlreadyUsed):
		uc.rec.IncRedeem("already_used")
		l.Warn().Msg("activation code already used")
	default:
		uc.rec.IncRedeem("error")
		l.Error().Err(err).Msg("redeem failed")
	}
	return nil, err
}
