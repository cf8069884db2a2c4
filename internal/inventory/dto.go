package inventory

import "github.com/agrivance/agrivance/internal/shared"

// AddRowRequest is the payload for creating a manual inventory entry.
type AddRowRequest struct {
	Name     string  `json:"name" validate:"required,max=120"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
	Unit     string  `json:"unit" validate:"required,oneof=kg bags liters units"`
	Location string  `json:"location" validate:"required,max=120"`
}

// UpdateQuantityRequest overwrites a row's quantity.
type UpdateQuantityRequest struct {
	Quantity float64 `json:"quantity" validate:"gte=0"`
}

// ListResponse wraps paginated rows.
type ListResponse struct {
	Rows []Row             `json:"rows"`
	Meta shared.Pagination `json:"meta"`
}
