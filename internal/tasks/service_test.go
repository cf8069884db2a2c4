package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	tasks  map[int64]Task
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{tasks: make(map[int64]Task)}
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Task, error) {
	var result []Task
	for _, task := range r.tasks {
		if filter.From != "" && task.Date < filter.From {
			continue
		}
		if filter.To != "" && task.Date > filter.To {
			continue
		}
		if filter.Category != "" && task.Category != filter.Category {
			continue
		}
		result = append(result, task)
	}
	return result, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return task, nil
}

func (r *memoryRepo) Create(ctx context.Context, task Task) (Task, error) {
	r.nextID++
	task.ID = r.nextID
	task.CreatedAt = time.Now().UTC()
	r.tasks[task.ID] = task
	return task, nil
}

func (r *memoryRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	task, ok := r.tasks[id]
	if !ok {
		return ErrNotFound
	}
	task.Status = status
	r.tasks[id] = task
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func TestScheduleDefaultsToToDo(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	task, err := svc.Schedule(context.Background(), "Plant corn in field 3", "2026-09-01", CategoryPlanting)
	require.NoError(t, err)
	require.Equal(t, StatusToDo, task.Status)
	require.Equal(t, "2026-09-01", task.Date)
}

func TestScheduleValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.Schedule(ctx, "  ", "2026-09-01", CategoryPlanting)
	require.Error(t, err)

	_, err = svc.Schedule(ctx, "Harvest", "01-09-2026", CategoryHarvesting)
	require.ErrorIs(t, err, ErrInvalidDate)

	_, err = svc.Schedule(ctx, "Harvest", "2026-09-01", "Cooking")
	require.ErrorIs(t, err, ErrInvalidCategory)
}

func TestListWindowAndCategory(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.Schedule(ctx, "Plant", "2026-09-01", CategoryPlanting)
	require.NoError(t, err)
	_, err = svc.Schedule(ctx, "Harvest", "2026-10-15", CategoryHarvesting)
	require.NoError(t, err)

	window, err := svc.List(ctx, ListFilter{From: "2026-09-01", To: "2026-09-30"})
	require.NoError(t, err)
	require.Len(t, window, 1)
	require.Equal(t, "Plant", window[0].Title)

	_, err = svc.List(ctx, ListFilter{From: "nope"})
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestSetStatus(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	task, err := svc.Schedule(ctx, "Fix irrigation pump", "2026-09-02", CategoryMaintenance)
	require.NoError(t, err)

	updated, err := svc.SetStatus(ctx, task.ID, StatusDone)
	require.NoError(t, err)
	require.Equal(t, StatusDone, updated.Status)

	_, err = svc.SetStatus(ctx, task.ID, "Archived")
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.SetStatus(ctx, 999, StatusDone)
	require.ErrorIs(t, err, ErrNotFound)
}
