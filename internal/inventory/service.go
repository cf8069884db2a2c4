package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/agrivance/agrivance/internal/shared"
)

// Service coordinates manual inventory operations. Shipment-driven
// mutations go through the shipments transition engine instead.
type Service struct {
	repo  Repository
	audit shared.AuditPort
}

// NewService builds Service.
func NewService(repo Repository, audit shared.AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// AddInput describes a manual inventory entry.
type AddInput struct {
	Name     string
	Quantity float64
	Unit     Unit
	Location string
	ActorID  int64
}

// Add records a manual entry, merging into an existing row when the
// (item, location) key already exists.
func (s *Service) Add(ctx context.Context, input AddInput) (Row, error) {
	if input.Name == "" || input.Location == "" {
		return Row{}, errors.New("inventory: name and location required")
	}
	if input.Quantity < 0 {
		return Row{}, ErrInvalidQuantity
	}
	if !input.Unit.IsValid() {
		return Row{}, ErrInvalidUnit
	}
	row, err := s.repo.Upsert(ctx, Row{
		Name:     input.Name,
		Quantity: input.Quantity,
		Unit:     input.Unit,
		Location: input.Location,
	})
	if err != nil {
		return Row{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "inventory:add",
			Entity:   "inventory_row",
			EntityID: strconv.FormatInt(row.ID, 10),
			Meta: map[string]any{
				"name":     row.Name,
				"location": row.Location,
				"quantity": input.Quantity,
			},
		})
	}
	return row, nil
}

// SetQuantity overwrites a row's quantity after a manual edit.
func (s *Service) SetQuantity(ctx context.Context, id int64, quantity float64, actorID int64) (Row, error) {
	if quantity < 0 {
		return Row{}, ErrInvalidQuantity
	}
	if err := s.repo.UpdateQuantity(ctx, id, quantity); err != nil {
		return Row{}, err
	}
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return Row{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "inventory:set_quantity",
			Entity:   "inventory_row",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"quantity": quantity},
		})
	}
	return row, nil
}

// Delete removes a row. Shipment processing never deletes rows.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "inventory:delete",
			Entity:   "inventory_row",
			EntityID: strconv.FormatInt(id, 10),
		})
	}
	return nil
}

// List returns rows matching the filter plus the total count.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Row, int, error) {
	return s.repo.List(ctx, filter)
}

// Get fetches a single row by id.
func (s *Service) Get(ctx context.Context, id int64) (Row, error) {
	return s.repo.Get(ctx, id)
}

// FindRow resolves an (item name, location) pair case-insensitively.
func (s *Service) FindRow(ctx context.Context, itemName, location string) (Row, error) {
	return s.repo.FindRow(ctx, NormalizeName(itemName), location)
}

// TotalQuantity sums the stock of an item across every location, for the
// assistant's inventory lookup tool.
func (s *Service) TotalQuantity(ctx context.Context, itemName string) (float64, Unit, error) {
	key := NormalizeName(itemName)
	if key == "" {
		return 0, "", fmt.Errorf("inventory: item name required")
	}
	return s.repo.TotalQuantity(ctx, key)
}
