package tasks

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListFilter narrows List results to a date window and optional category.
type ListFilter struct {
	From     string
	To       string
	Category Category
}

// Repository persists production tasks in PostgreSQL.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Task, error)
	Get(ctx context.Context, id int64) (Task, error)
	Create(ctx context.Context, task Task) (Task, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const taskColumns = `id, title, to_char(task_date, 'YYYY-MM-DD'), category, status, created_at`

func scanTask(scanner interface{ Scan(...any) error }) (Task, error) {
	var t Task
	err := scanner.Scan(&t.ID, &t.Title, &t.Date, &t.Category, &t.Status, &t.CreatedAt)
	return t, err
}

// List uses a dynamic query due to filter complexity.
func (r *repository) List(ctx context.Context, filter ListFilter) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM production_tasks WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.From != "" {
		argCount++
		query += ` AND task_date >= $` + strconv.Itoa(argCount)
		args = append(args, filter.From)
	}
	if filter.To != "" {
		argCount++
		query += ` AND task_date <= $` + strconv.Itoa(argCount)
		args = append(args, filter.To)
	}
	if filter.Category != "" {
		argCount++
		query += ` AND category = $` + strconv.Itoa(argCount)
		args = append(args, filter.Category)
	}
	query += ` ORDER BY task_date, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	return result, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Task, error) {
	task, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM production_tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return task, err
}

func (r *repository) Create(ctx context.Context, task Task) (Task, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO production_tasks (title, task_date, category, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		task.Title, task.Date, task.Category, task.Status, time.Now().UTC()).
		Scan(&task.ID, &task.CreatedAt)
	return task, err
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE production_tasks SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM production_tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
