package usecase

import (
	"context"

	"serial-codegen/internal/domain/model"
	"serial-codegen/internal/domain/ports/repository"
)

// LatestLimit matches the fixed report query in the generated script.
const LatestLimit = 20

// Compile-time check
var _ ReportUseCase = (*reportUC)(nil)

type ReportUseCase interface {
	Latest(ctx context.Context, limit int) ([]*model.SerialNumber, error)
	Stats(ctx context.Context) (model.SerialStats, error)
}

type reportUC struct {
	serials repository.SerialNumberRepository
}

func NewReportUseCase(serials repository.SerialNumberRepository) *reportUC {
	return &reportUC{serials: serials}
}

func (r *reportUC) Latest(ctx context.Context, limit int) ([]*model.SerialNumber, error) {
	if limit <= 0 {
		limit = LatestLimit
	}
	return r.serials.ListLatest(ctx, repository.NoTX, limit)
}

func (r *reportUC) Stats(ctx context.Context) (model.SerialStats, error) {
	return r.serials.Stats(ctx, repository.NoTX)
}
