// Package tasks manages the production calendar: dated farm work items
// grouped by category.
package tasks

import (
	"errors"
	"time"
)

// Category groups tasks on the calendar.
type Category string

const (
	CategoryPlanting    Category = "Planting"
	CategoryHarvesting  Category = "Harvesting"
	CategoryMaintenance Category = "Maintenance"
	CategoryLogistics   Category = "Logistics"
)

// IsValid checks if the category is valid.
func (c Category) IsValid() bool {
	switch c {
	case CategoryPlanting, CategoryHarvesting, CategoryMaintenance, CategoryLogistics:
		return true
	default:
		return false
	}
}

// Status is the progress state of a task.
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

// DateLayout is the calendar date format tasks are keyed by.
const DateLayout = "2006-01-02"

// Task is one dated work item.
type Task struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Date      string    `json:"date"`
	Category  Category  `json:"category"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

var (
	// ErrNotFound indicates the requested task was not found.
	ErrNotFound = errors.New("tasks: task not found")
	// ErrInvalidDate indicates a date outside the YYYY-MM-DD format.
	ErrInvalidDate = errors.New("tasks: date must be YYYY-MM-DD")
	// ErrInvalidCategory indicates a category outside the supported set.
	ErrInvalidCategory = errors.New("tasks: unknown category")
	// ErrInvalidStatus indicates a status outside the supported set.
	ErrInvalidStatus = errors.New("tasks: unknown status")
)
