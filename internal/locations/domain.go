// Package locations manages the named places inventory and shipments
// refer to: farms, warehouses, factories and fields.
package locations

import (
	"errors"
	"time"
)

// Kind classifies a location.
type Kind string

const (
	KindFarm      Kind = "farm"
	KindWarehouse Kind = "warehouse"
	KindFactory   Kind = "factory"
	KindField     Kind = "field"
)

// IsValid checks if the kind is valid.
func (k Kind) IsValid() bool {
	switch k {
	case KindFarm, KindWarehouse, KindFactory, KindField:
		return true
	default:
		return false
	}
}

// Location is a named point on the farm operations map. Names are unique
// because inventory rows and shipment endpoints reference them by name.
type Location struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"type"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	CreatedAt time.Time `json:"createdAt"`
}

var (
	// ErrNotFound indicates the requested location was not found.
	ErrNotFound = errors.New("locations: location not found")
	// ErrDuplicateName indicates another location already uses the name.
	ErrDuplicateName = errors.New("locations: name already in use")
	// ErrInvalidKind indicates a kind outside the supported set.
	ErrInvalidKind = errors.New("locations: unknown location type")
)
