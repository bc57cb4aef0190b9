package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"serial-codegen/internal/domain"
	"serial-codegen/internal/domain/model"
	"serial-codegen/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.SerialNumberRepository = (*serialNumberRepo)(nil)

type serialNumberRepo struct {
	pool *pgxpool.Pool
}

func NewSerialNumberRepo(pool *pgxpool.Pool) repository.SerialNumberRepository {
	return &serialNumberRepo{pool: pool}
}

const serialColumns = `id, serial_number, status, created_at, used_at, used_by_test_type, used_by_test_id, used_by_nickname`

// InsertBatch inserts all codes as unused in a single statement. Codes that
// already exist are left untouched.
func (r *serialNumberRepo) InsertBatch(ctx context.Context, tx repository.Tx, codes []string) (int, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	const q = `
INSERT INTO serial_numbers (serial_number, status)
SELECT code, $2 FROM unnest($1::text[]) AS t(code)
ON CONFLICT (serial_number) DO NOTHING;
`
	tag, err := execSQL(ctx, r.pool, tx, q, codes, int(model.SerialUnused))
	if err != nil {
		return 0, fmt.Errorf("insert serial numbers: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// FindByCodeForUpdate locks the row for the rest of tx. With a nil tx the
// lock is released as soon as the statement finishes.
func (r *serialNumberRepo) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.SerialNumber, error) {
	const q = `
SELECT ` + serialColumns + `
  FROM serial_numbers
 WHERE serial_number = $1
   FOR UPDATE;
`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	sn, err := scanSerialNumber(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return sn, nil
}

func (r *serialNumberRepo) MarkUsed(ctx context.Context, tx repository.Tx, sn *model.SerialNumber) error {
	const q = `
UPDATE serial_numbers
   SET status = $2,
       used_at = $3,
       used_by_test_type = $4,
       used_by_test_id = $5,
       used_by_nickname = $6
 WHERE id = $1;
`
	tag, err := execSQL(ctx, r.pool, tx, q,
		sn.ID, int(sn.Status), sn.UsedAt, sn.UsedByTestType, sn.UsedByTestID, sn.UsedByNickname,
	)
	if err != nil {
		return fmt.Errorf("mark serial number used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCodeNotFound
	}
	return nil
}

func (r *serialNumberRepo) ListLatest(ctx context.Context, tx repository.Tx, limit int) ([]*model.SerialNumber, error) {
	if limit <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	const q = `
SELECT ` + serialColumns + `
  FROM serial_numbers
 ORDER BY created_at DESC, id DESC
 LIMIT $1;
`
	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.SerialNumber
	for rows.Next() {
		sn, err := scanSerialNumber(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, sn)
	}
	return out, rows.Err()
}

func (r *serialNumberRepo) Stats(ctx context.Context, tx repository.Tx) (model.SerialStats, error) {
	const q = `
SELECT COUNT(*),
       COALESCE(SUM(CASE WHEN status = 0 THEN 1 ELSE 0 END), 0),
       COALESCE(SUM(CASE WHEN status = 1 THEN 1 ELSE 0 END), 0)
  FROM serial_numbers;
`
	var st model.SerialStats
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return st, err
	}
	if err := row.Scan(&st.Total, &st.Unused, &st.Used); err != nil {
		return model.SerialStats{}, domain.ErrReadDatabaseRow
	}
	return st, nil
}

func scanSerialNumber(row pgx.Row) (*model.SerialNumber, error) {
	var (
		sn     model.SerialNumber
		status int
	)
	err := row.Scan(
		&sn.ID, &sn.SerialNumber, &status, &sn.CreatedAt, &sn.UsedAt,
		&sn.UsedByTestType, &sn.UsedByTestID, &sn.UsedByNickname,
	)
	if err != nil {
		return nil, err
	}
	sn.Status = model.SerialStatus(status)
	return &sn, nil
}
