package inventory

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists inventory rows in PostgreSQL.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Row, int, error)
	Get(ctx context.Context, id int64) (Row, error)
	Upsert(ctx context.Context, row Row) (Row, error)
	UpdateQuantity(ctx context.Context, id int64, quantity float64) error
	Delete(ctx context.Context, id int64) error
	FindRow(ctx context.Context, nameKey, location string) (Row, error)
	TotalQuantity(ctx context.Context, nameKey string) (float64, Unit, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const rowColumns = `id, name, name_lowercase, quantity, unit, location, last_updated`

func scanRow(scanner interface{ Scan(...any) error }) (Row, error) {
	var r Row
	err := scanner.Scan(&r.ID, &r.Name, &r.NameKey, &r.Quantity, &r.Unit, &r.Location, &r.LastUpdated)
	return r, err
}

// List uses a dynamic query due to filter complexity.
func (r *repository) List(ctx context.Context, filter ListFilter) ([]Row, int, error) {
	query := `SELECT ` + rowColumns + ` FROM inventory WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM inventory WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.Location != "" {
		argCount++
		clause := ` AND location = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, filter.Location)
	}
	if filter.Search != "" {
		argCount++
		clause := ` AND name_lowercase LIKE $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, "%"+NormalizeName(filter.Search)+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY location, name_lowercase`
	if filter.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filter.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filter.Page - 1) * filter.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, row)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Row, error) {
	row, err := scanRow(r.pool.QueryRow(ctx, `SELECT `+rowColumns+` FROM inventory WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Row{}, ErrRowNotFound
	}
	return row, err
}

// Upsert inserts a row, merging quantities when the (name, location) key
// already exists. Keeping the key unique resolves the ambiguity of
// first-match lookups against duplicate rows.
func (r *repository) Upsert(ctx context.Context, row Row) (Row, error) {
	const query = `
		INSERT INTO inventory (name, name_lowercase, quantity, unit, location, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name_lowercase, location) DO UPDATE
		SET quantity = inventory.quantity + EXCLUDED.quantity, last_updated = EXCLUDED.last_updated
		RETURNING ` + rowColumns
	return scanRow(r.pool.QueryRow(ctx, query,
		row.Name, NormalizeName(row.Name), row.Quantity, row.Unit, row.Location, time.Now().UTC()))
}

func (r *repository) UpdateQuantity(ctx context.Context, id int64, quantity float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE inventory SET quantity = $1, last_updated = $2 WHERE id = $3`,
		quantity, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRowNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM inventory WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRowNotFound
	}
	return nil
}

func (r *repository) FindRow(ctx context.Context, nameKey, location string) (Row, error) {
	row, err := scanRow(r.pool.QueryRow(ctx,
		`SELECT `+rowColumns+` FROM inventory WHERE name_lowercase = $1 AND location = $2`,
		nameKey, location))
	if errors.Is(err, pgx.ErrNoRows) {
		return Row{}, ErrRowNotFound
	}
	return row, err
}

// TotalQuantity sums matching rows across all locations. The unit of the
// first row is reported; mixed units per item are a data-entry anomaly.
func (r *repository) TotalQuantity(ctx context.Context, nameKey string) (float64, Unit, error) {
	var total float64
	var unit Unit
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0), COALESCE(MIN(unit), '') FROM inventory WHERE name_lowercase = $1`,
		nameKey).Scan(&total, &unit)
	if err != nil {
		return 0, "", err
	}
	if unit == "" {
		return 0, "", ErrRowNotFound
	}
	return total, unit, nil
}
