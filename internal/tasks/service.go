package tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agrivance/agrivance/internal/shared"
)

// Service implements the production calendar.
type Service struct {
	repo  Repository
	audit shared.AuditPort
}

// NewService constructs Service.
func NewService(repo Repository, audit shared.AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Schedule creates a To Do task on the calendar. It is also the entry
// point the assistant's schedule_task tool calls into.
func (s *Service) Schedule(ctx context.Context, title, date string, category Category) (Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, fmt.Errorf("tasks: title is required")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return Task{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if !category.IsValid() {
		return Task{}, fmt.Errorf("%w %q", ErrInvalidCategory, category)
	}

	task, err := s.repo.Create(ctx, Task{
		Title:    title,
		Date:     date,
		Category: category,
		Status:   StatusToDo,
	})
	if err != nil {
		return Task{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "task:schedule",
			Entity:   "task",
			EntityID: strconv.FormatInt(task.ID, 10),
			Meta:     map[string]any{"title": task.Title, "date": task.Date},
		})
	}
	return task, nil
}

// SetStatus moves a task between progress states.
func (s *Service) SetStatus(ctx context.Context, id int64, status Status) (Task, error) {
	if !status.IsValid() {
		return Task{}, fmt.Errorf("%w %q", ErrInvalidStatus, status)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return Task{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a task from the calendar.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// List returns tasks within the filter window.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Task, error) {
	if filter.From != "" {
		if _, err := time.Parse(DateLayout, filter.From); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, filter.From)
		}
	}
	if filter.To != "" {
		if _, err := time.Parse(DateLayout, filter.To); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, filter.To)
		}
	}
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, fmt.Errorf("%w %q", ErrInvalidCategory, filter.Category)
	}
	return s.repo.List(ctx, filter)
}

// Get returns a task by id.
func (s *Service) Get(ctx context.Context, id int64) (Task, error) {
	return s.repo.Get(ctx, id)
}
