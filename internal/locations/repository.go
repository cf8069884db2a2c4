package locations

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists locations in PostgreSQL.
type Repository interface {
	List(ctx context.Context) ([]Location, error)
	Get(ctx context.Context, id int64) (Location, error)
	GetByName(ctx context.Context, name string) (Location, error)
	Create(ctx context.Context, loc Location) (Location, error)
	Update(ctx context.Context, loc Location) (Location, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const locationColumns = `id, name, type, lat, lng, created_at`

func scanLocation(scanner interface{ Scan(...any) error }) (Location, error) {
	var l Location
	err := scanner.Scan(&l.ID, &l.Name, &l.Kind, &l.Lat, &l.Lng, &l.CreatedAt)
	return l, err
}

func (r *repository) List(ctx context.Context) ([]Location, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+locationColumns+` FROM locations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, loc)
	}
	return result, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Location, error) {
	loc, err := scanLocation(r.pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Location{}, ErrNotFound
	}
	return loc, err
}

func (r *repository) GetByName(ctx context.Context, name string) (Location, error) {
	loc, err := scanLocation(r.pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE name = $1`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return Location{}, ErrNotFound
	}
	return loc, err
}

func (r *repository) Create(ctx context.Context, loc Location) (Location, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO locations (name, type, lat, lng)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		loc.Name, loc.Kind, loc.Lat, loc.Lng).Scan(&loc.ID, &loc.CreatedAt)
	if isUniqueViolation(err) {
		return Location{}, ErrDuplicateName
	}
	return loc, err
}

func (r *repository) Update(ctx context.Context, loc Location) (Location, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE locations SET name = $1, type = $2, lat = $3, lng = $4 WHERE id = $5`,
		loc.Name, loc.Kind, loc.Lat, loc.Lng, loc.ID)
	if isUniqueViolation(err) {
		return Location{}, ErrDuplicateName
	}
	if err != nil {
		return Location{}, err
	}
	if tag.RowsAffected() == 0 {
		return Location{}, ErrNotFound
	}
	return r.Get(ctx, loc.ID)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
