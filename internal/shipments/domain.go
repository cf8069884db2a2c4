// Package shipments tracks itemized movements of goods between locations
// and enforces the shipment lifecycle together with its inventory effects.
package shipments

import (
	"time"

	"github.com/agrivance/agrivance/internal/inventory"
)

// Status represents the lifecycle of a shipment.
type Status string

const (
	StatusPending   Status = "Pending"    // Created, stock still at origin
	StatusInTransit Status = "In Transit" // Stock deducted from origin
	StatusDelivered Status = "Delivered"  // Stock added at destination, terminal
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInTransit, StatusDelivered:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusDelivered
}

// forward holds the only legal edges of the lifecycle. Pending cannot skip
// straight to Delivered: goods cannot arrive without leaving the origin.
var forward = map[Status]Status{
	StatusPending:   StatusInTransit,
	StatusInTransit: StatusDelivered,
}

// CanAdvanceTo reports whether next is a legal transition from s.
func (s Status) CanAdvanceTo(next Status) bool {
	return forward[s] == next
}

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Endpoint is a named point, the origin or destination of a shipment.
type Endpoint struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// ContentLine is one itemized entry of a shipment's contents. Lines are
// fixed at creation; there is no partial-shipment amendment.
type ContentLine struct {
	ItemName string         `json:"itemName"`
	Quantity float64        `json:"quantity"`
	Unit     inventory.Unit `json:"unit"`
}

// Shipment is a tracked movement of goods with a lifecycle status.
type Shipment struct {
	ID              int64         `json:"id"`
	Code            string        `json:"shipmentId"`
	Origin          Endpoint      `json:"origin"`
	Destination     Endpoint      `json:"destination"`
	Contents        []ContentLine `json:"contents"`
	CurrentLocation GeoPoint      `json:"currentLocation"`
	Status          Status        `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// ListFilter narrows List results.
type ListFilter struct {
	Status Status
	Page   int
	Limit  int
}
