package locations

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/agrivance/agrivance/internal/shared"
)

// Service implements location management.
type Service struct {
	repo  Repository
	audit shared.AuditPort
}

// NewService constructs Service.
func NewService(repo Repository, audit shared.AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Input carries the fields for creating or updating a location.
type Input struct {
	Name string
	Kind Kind
	Lat  float64
	Lng  float64
}

func (i Input) validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("locations: name is required")
	}
	if !i.Kind.IsValid() {
		return fmt.Errorf("%w %q", ErrInvalidKind, i.Kind)
	}
	return nil
}

// Create registers a new named location.
func (s *Service) Create(ctx context.Context, input Input) (Location, error) {
	if err := input.validate(); err != nil {
		return Location{}, err
	}
	loc, err := s.repo.Create(ctx, Location{
		Name: strings.TrimSpace(input.Name),
		Kind: input.Kind,
		Lat:  input.Lat,
		Lng:  input.Lng,
	})
	if err != nil {
		return Location{}, err
	}
	s.recordAudit(ctx, "location:create", loc)
	return loc, nil
}

// Update overwrites an existing location.
func (s *Service) Update(ctx context.Context, id int64, input Input) (Location, error) {
	if err := input.validate(); err != nil {
		return Location{}, err
	}
	loc, err := s.repo.Update(ctx, Location{
		ID:   id,
		Name: strings.TrimSpace(input.Name),
		Kind: input.Kind,
		Lat:  input.Lat,
		Lng:  input.Lng,
	})
	if err != nil {
		return Location{}, err
	}
	s.recordAudit(ctx, "location:update", loc)
	return loc, nil
}

// Delete removes a location. Inventory rows and shipments reference
// locations by name, so historical records survive the delete.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action: "location:delete", Entity: "location", EntityID: strconv.FormatInt(id, 10),
		})
	}
	return nil
}

// List returns all locations ordered by name.
func (s *Service) List(ctx context.Context) ([]Location, error) {
	return s.repo.List(ctx)
}

// Get returns a location by id.
func (s *Service) Get(ctx context.Context, id int64) (Location, error) {
	return s.repo.Get(ctx, id)
}

// GetByName returns a location by its unique name.
func (s *Service) GetByName(ctx context.Context, name string) (Location, error) {
	return s.repo.GetByName(ctx, strings.TrimSpace(name))
}

func (s *Service) recordAudit(ctx context.Context, action string, loc Location) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "location",
		EntityID: strconv.FormatInt(loc.ID, 10),
		Meta:     map[string]any{"name": loc.Name},
	})
}
