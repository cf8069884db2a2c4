package shipments

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrivance/agrivance/internal/inventory"
)

// TxRepository exposes the operations available inside a shipment
// transaction. Inventory rows are read and written through the same
// transaction handle so a status change and its stock effects commit or
// roll back as one unit.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (Shipment, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	UpdatePosition(ctx context.Context, id int64, pos GeoPoint) error
	RowForUpdate(ctx context.Context, nameKey, location string) (inventory.Row, error)
	SetRowQuantity(ctx context.Context, rowID int64, quantity float64) error
	InsertRow(ctx context.Context, row inventory.Row) (inventory.Row, error)
}

// Repository persists shipments in PostgreSQL.
type Repository interface {
	Create(ctx context.Context, sh Shipment) (Shipment, error)
	Get(ctx context.Context, id int64) (Shipment, error)
	GetByCode(ctx context.Context, code string) (Shipment, error)
	List(ctx context.Context, filter ListFilter) ([]Shipment, int, error)
	ListByStatus(ctx context.Context, status Status) ([]Shipment, error)
	UpdatePosition(ctx context.Context, id int64, pos GeoPoint) error
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const shipmentColumns = `id, code, origin_name, origin_lat, origin_lng, dest_name, dest_lat, dest_lng, current_lat, current_lng, status, created_at`

func scanShipment(scanner interface{ Scan(...any) error }) (Shipment, error) {
	var s Shipment
	err := scanner.Scan(&s.ID, &s.Code,
		&s.Origin.Name, &s.Origin.Lat, &s.Origin.Lng,
		&s.Destination.Name, &s.Destination.Lat, &s.Destination.Lng,
		&s.CurrentLocation.Lat, &s.CurrentLocation.Lng,
		&s.Status, &s.CreatedAt)
	return s, err
}

func loadLines(ctx context.Context, q querier, shipmentID int64) ([]ContentLine, error) {
	rows, err := q.Query(ctx,
		`SELECT item_name, quantity, unit FROM shipment_lines WHERE shipment_id = $1 ORDER BY line_order`,
		shipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []ContentLine
	for rows.Next() {
		var line ContentLine
		if err := rows.Scan(&line.ItemName, &line.Quantity, &line.Unit); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func getShipment(ctx context.Context, q querier, query string, arg any) (Shipment, error) {
	sh, err := scanShipment(q.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return Shipment{}, ErrNotFound
	}
	if err != nil {
		return Shipment{}, err
	}
	sh.Contents, err = loadLines(ctx, q, sh.ID)
	return sh, err
}

// Create inserts the shipment and its lines in one transaction.
func (r *repository) Create(ctx context.Context, sh Shipment) (Shipment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Shipment{}, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO shipments (code, origin_name, origin_lat, origin_lng, dest_name, dest_lat, dest_lng, current_lat, current_lng, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`,
		sh.Code, sh.Origin.Name, sh.Origin.Lat, sh.Origin.Lng,
		sh.Destination.Name, sh.Destination.Lat, sh.Destination.Lng,
		sh.CurrentLocation.Lat, sh.CurrentLocation.Lng,
		sh.Status, time.Now().UTC()).Scan(&sh.ID, &sh.CreatedAt)
	if err != nil {
		return Shipment{}, err
	}

	for i, line := range sh.Contents {
		_, err = tx.Exec(ctx,
			`INSERT INTO shipment_lines (shipment_id, item_name, quantity, unit, line_order) VALUES ($1, $2, $3, $4, $5)`,
			sh.ID, line.ItemName, line.Quantity, line.Unit, i)
		if err != nil {
			return Shipment{}, err
		}
	}
	return sh, tx.Commit(ctx)
}

func (r *repository) Get(ctx context.Context, id int64) (Shipment, error) {
	return getShipment(ctx, r.pool, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id)
}

func (r *repository) GetByCode(ctx context.Context, code string) (Shipment, error) {
	return getShipment(ctx, r.pool, `SELECT `+shipmentColumns+` FROM shipments WHERE code = $1`, code)
}

// List uses a dynamic query due to filter complexity.
func (r *repository) List(ctx context.Context, filter ListFilter) ([]Shipment, int, error) {
	query := `SELECT ` + shipmentColumns + ` FROM shipments WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM shipments WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.Status != "" {
		argCount++
		clause := ` AND status = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, filter.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY created_at DESC, id DESC`
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

	shipments, err := r.queryShipments(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return shipments, total, nil
}

func (r *repository) ListByStatus(ctx context.Context, status Status) ([]Shipment, error) {
	return r.queryShipments(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE status = $1 ORDER BY id`, status)
}

func (r *repository) queryShipments(ctx context.Context, query string, args ...any) ([]Shipment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Shipment
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		result[i].Contents, err = loadLines(ctx, r.pool, result[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *repository) UpdatePosition(ctx context.Context, id int64, pos GeoPoint) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE shipments SET current_lat = $1, current_lng = $2 WHERE id = $3`,
		pos.Lat, pos.Lng, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// WithTx runs fn inside a repeatable-read transaction and commits when fn
// returns nil.
func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) GetForUpdate(ctx context.Context, id int64) (Shipment, error) {
	return getShipment(ctx, t.tx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1 FOR UPDATE`, id)
}

func (t *txRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := t.tx.Exec(ctx, `UPDATE shipments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) UpdatePosition(ctx context.Context, id int64, pos GeoPoint) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE shipments SET current_lat = $1, current_lng = $2 WHERE id = $3`,
		pos.Lat, pos.Lng, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) RowForUpdate(ctx context.Context, nameKey, location string) (inventory.Row, error) {
	var row inventory.Row
	err := t.tx.QueryRow(ctx,
		`SELECT id, name, name_lowercase, quantity, unit, location, last_updated FROM inventory WHERE name_lowercase = $1 AND location = $2 FOR UPDATE`,
		nameKey, location).Scan(&row.ID, &row.Name, &row.NameKey, &row.Quantity, &row.Unit, &row.Location, &row.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return inventory.Row{}, inventory.ErrRowNotFound
	}
	return row, err
}

func (t *txRepository) SetRowQuantity(ctx context.Context, rowID int64, quantity float64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE inventory SET quantity = $1, last_updated = $2 WHERE id = $3`,
		quantity, time.Now().UTC(), rowID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return inventory.ErrRowNotFound
	}
	return nil
}

func (t *txRepository) InsertRow(ctx context.Context, row inventory.Row) (inventory.Row, error) {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO inventory (name, name_lowercase, quantity, unit, location, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, last_updated`,
		row.Name, row.NameKey, row.Quantity, row.Unit, row.Location, time.Now().UTC()).
		Scan(&row.ID, &row.LastUpdated)
	return row, err
}
