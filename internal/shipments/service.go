package shipments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/agrivance/agrivance/internal/inventory"
	"github.com/agrivance/agrivance/internal/shared"
)

// Service implements the shipment lifecycle. Status transitions and their
// inventory effects run inside one repository transaction: either the
// status change and every stock adjustment commit together, or none do.
type Service struct {
	repo  Repository
	audit shared.AuditPort
}

// NewService constructs Service.
func NewService(repo Repository, audit shared.AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateInput carries the fields for a new shipment.
type CreateInput struct {
	Code        string
	Origin      Endpoint
	Destination Endpoint
	Contents    []ContentLine
}

// Create registers a new shipment in Pending state. Stock at the origin is
// not touched until the shipment moves to In Transit.
func (s *Service) Create(ctx context.Context, input CreateInput) (Shipment, error) {
	if len(input.Contents) == 0 {
		return Shipment{}, ErrEmptyContents
	}
	for _, line := range input.Contents {
		if strings.TrimSpace(line.ItemName) == "" {
			return Shipment{}, fmt.Errorf("shipments: content line item name is required")
		}
		if line.Quantity <= 0 {
			return Shipment{}, fmt.Errorf("shipments: content line quantity for %s must be > 0", line.ItemName)
		}
		if !line.Unit.IsValid() {
			return Shipment{}, fmt.Errorf("shipments: %w %q", inventory.ErrInvalidUnit, line.Unit)
		}
	}
	if strings.TrimSpace(input.Origin.Name) == "" || strings.TrimSpace(input.Destination.Name) == "" {
		return Shipment{}, fmt.Errorf("shipments: origin and destination names are required")
	}
	if strings.EqualFold(input.Origin.Name, input.Destination.Name) {
		return Shipment{}, fmt.Errorf("shipments: origin and destination must differ")
	}

	code := strings.TrimSpace(input.Code)
	if code == "" {
		code = "SH-" + strings.ToUpper(uuid.NewString()[:8])
	}

	sh := Shipment{
		Code:            code,
		Origin:          input.Origin,
		Destination:     input.Destination,
		Contents:        input.Contents,
		CurrentLocation: GeoPoint{Lat: input.Origin.Lat, Lng: input.Origin.Lng},
		Status:          StatusPending,
	}
	created, err := s.repo.Create(ctx, sh)
	if err != nil {
		return Shipment{}, err
	}

	s.recordAudit(ctx, "shipment:create", created, nil)
	return created, nil
}

// Advance moves a shipment to the requested status and applies the coupled
// inventory effects. The transition and all stock adjustments happen in a
// single transaction; any line failing its guard aborts the whole batch
// and leaves both the shipment and the ledger untouched.
func (s *Service) Advance(ctx context.Context, id int64, requested Status) (Shipment, error) {
	var result Shipment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sh, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if sh.Status.Terminal() {
			return &TerminalStateError{Code: sh.Code}
		}
		if !sh.Status.CanAdvanceTo(requested) {
			return &InvalidTransitionError{From: sh.Status, To: requested}
		}

		switch requested {
		case StatusInTransit:
			if err := s.deductOrigin(ctx, tx, sh); err != nil {
				return err
			}
		case StatusDelivered:
			if err := s.creditDestination(ctx, tx, sh); err != nil {
				return err
			}
		}

		if err := tx.UpdateStatus(ctx, sh.ID, requested); err != nil {
			return err
		}
		if requested == StatusDelivered {
			// Snap the marker to the destination on arrival.
			dest := GeoPoint{Lat: sh.Destination.Lat, Lng: sh.Destination.Lng}
			if err := tx.UpdatePosition(ctx, sh.ID, dest); err != nil {
				return err
			}
			sh.CurrentLocation = dest
		}
		sh.Status = requested
		result = sh
		return nil
	})
	if err != nil {
		return Shipment{}, err
	}

	s.recordAudit(ctx, "shipment:advance", result, map[string]any{"status": string(result.Status)})
	return result, nil
}

// deductOrigin removes each content line from the origin's stock. Every
// line must have a matching row with enough quantity.
func (s *Service) deductOrigin(ctx context.Context, tx TxRepository, sh Shipment) error {
	for _, line := range sh.Contents {
		row, err := tx.RowForUpdate(ctx, inventory.NormalizeName(line.ItemName), sh.Origin.Name)
		if errors.Is(err, inventory.ErrRowNotFound) {
			return &InventoryNotFoundError{Item: line.ItemName, Location: sh.Origin.Name}
		}
		if err != nil {
			return err
		}
		remaining := row.Quantity - line.Quantity
		if remaining < 0 {
			return &InsufficientStockError{
				Item:      line.ItemName,
				Location:  sh.Origin.Name,
				Available: row.Quantity,
				Requested: line.Quantity,
			}
		}
		if err := tx.SetRowQuantity(ctx, row.ID, remaining); err != nil {
			return err
		}
	}
	return nil
}

// creditDestination adds each content line to the destination's stock,
// creating rows for items the destination has never held.
func (s *Service) creditDestination(ctx context.Context, tx TxRepository, sh Shipment) error {
	for _, line := range sh.Contents {
		nameKey := inventory.NormalizeName(line.ItemName)
		row, err := tx.RowForUpdate(ctx, nameKey, sh.Destination.Name)
		if errors.Is(err, inventory.ErrRowNotFound) {
			_, err = tx.InsertRow(ctx, inventory.Row{
				Name:     line.ItemName,
				NameKey:  nameKey,
				Quantity: line.Quantity,
				Unit:     line.Unit,
				Location: sh.Destination.Name,
			})
			if err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		if err := tx.SetRowQuantity(ctx, row.ID, row.Quantity+line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a shipment with its content lines.
func (s *Service) Get(ctx context.Context, id int64) (Shipment, error) {
	return s.repo.Get(ctx, id)
}

// GetByCode returns a shipment by its human-facing code.
func (s *Service) GetByCode(ctx context.Context, code string) (Shipment, error) {
	return s.repo.GetByCode(ctx, code)
}

// List returns shipments matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Shipment, int, error) {
	return s.repo.List(ctx, filter)
}

// UpdatePosition overwrites the live tracking marker of a shipment.
func (s *Service) UpdatePosition(ctx context.Context, id int64, pos GeoPoint) error {
	return s.repo.UpdatePosition(ctx, id, pos)
}

// TickPositions moves every In Transit shipment a fraction of the
// remaining way toward its destination. Used by the background tracker
// when no live GPS feed is wired.
func (s *Service) TickPositions(ctx context.Context, step float64) (int, error) {
	if step <= 0 || step > 1 {
		step = 0.1
	}
	moving, err := s.repo.ListByStatus(ctx, StatusInTransit)
	if err != nil {
		return 0, err
	}
	for _, sh := range moving {
		next := GeoPoint{
			Lat: sh.CurrentLocation.Lat + (sh.Destination.Lat-sh.CurrentLocation.Lat)*step,
			Lng: sh.CurrentLocation.Lng + (sh.Destination.Lng-sh.CurrentLocation.Lng)*step,
		}
		if err := s.repo.UpdatePosition(ctx, sh.ID, next); err != nil {
			return 0, err
		}
	}
	return len(moving), nil
}

// recordAudit writes the trail entry outside the transaction; a failed
// audit write never rolls back a committed transition.
func (s *Service) recordAudit(ctx context.Context, action string, sh Shipment, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "shipment",
		EntityID: strconv.FormatInt(sh.ID, 10),
		Meta:     meta,
	})
}
