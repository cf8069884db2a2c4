package shipments

import "github.com/agrivance/agrivance/internal/shared"

// EndpointRequest names a point on the map.
type EndpointRequest struct {
	Name string  `json:"name" validate:"required,max=120"`
	Lat  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng  float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// ContentLineRequest is one itemized entry of a new shipment.
type ContentLineRequest struct {
	ItemName string  `json:"itemName" validate:"required,max=120"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
	Unit     string  `json:"unit" validate:"required,oneof=kg bags liters units"`
}

// CreateShipmentRequest is the payload for registering a shipment.
type CreateShipmentRequest struct {
	Code        string               `json:"shipmentId" validate:"omitempty,max=40"`
	Origin      EndpointRequest      `json:"origin" validate:"required"`
	Destination EndpointRequest      `json:"destination" validate:"required"`
	Contents    []ContentLineRequest `json:"contents" validate:"required,min=1,dive"`
}

// AdvanceRequest asks the lifecycle engine for a target status.
type AdvanceRequest struct {
	Status string `json:"status" validate:"required"`
}

// PositionRequest overwrites the live tracking marker.
type PositionRequest struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// ListResponse wraps paginated shipments.
type ListResponse struct {
	Shipments []Shipment        `json:"shipments"`
	Meta      shared.Pagination `json:"meta"`
}
