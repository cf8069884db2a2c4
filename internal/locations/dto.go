package locations

// LocationRequest is the payload for creating or updating a location.
type LocationRequest struct {
	Name string  `json:"name" validate:"required,max=120"`
	Kind string  `json:"type" validate:"required,oneof=farm warehouse factory field"`
	Lat  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng  float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// ListResponse wraps all locations.
type ListResponse struct {
	Locations []Location `json:"locations"`
}
