package repository

import (
	"context"

	"serial-codegen/internal/domain/model"
)

// SerialNumberRepository is the port for the serial_numbers table.
type SerialNumberRepository interface {
	// InsertBatch inserts unused codes, skipping any that already exist.
	// It returns the number of rows actually inserted.
	InsertBatch(ctx context.Context, tx Tx, codes []string) (int, error)
	// FindByCodeForUpdate loads a code and locks its row when tx is a transaction.
	FindByCodeForUpdate(ctx context.Context, tx Tx, code string) (*model.SerialNumber, error)
	// MarkUsed persists the status and usage columns of sn.
	MarkUsed(ctx context.Context, tx Tx, sn *model.SerialNumber) error
	// ListLatest returns the most recently created codes, newest first.
	ListLatest(ctx context.Context, tx Tx, limit int) ([]*model.SerialNumber, error)
	// Stats returns total/unused/used counts.
	Stats(ctx context.Context, tx Tx) (model.SerialStats, error)
}
