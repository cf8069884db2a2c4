package shipments

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested shipment was not found.
var ErrNotFound = errors.New("shipments: shipment not found")

// ErrEmptyContents indicates a shipment without content lines.
var ErrEmptyContents = errors.New("shipments: at least one content line is required")

// TerminalStateError is returned when a transition is requested on a
// delivered shipment.
type TerminalStateError struct {
	Code string
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("shipments: %s has been delivered and its inventory processed, no further changes permitted", e.Code)
}

// InvalidTransitionError is returned for any edge outside the lifecycle
// table, including reverting In Transit to Pending.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("shipments: cannot change status from %q to %q", e.From, e.To)
}

// InventoryNotFoundError is returned when a content line has no matching
// inventory row at the origin.
type InventoryNotFoundError struct {
	Item     string
	Location string
}

func (e *InventoryNotFoundError) Error() string {
	return fmt.Sprintf("shipments: cannot find %s at %s", e.Item, e.Location)
}

// InsufficientStockError is returned when the origin holds less stock than
// a content line requires.
type InsufficientStockError struct {
	Item      string
	Location  string
	Available float64
	Requested float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("shipments: not enough %s at %s: %g available, %g requested", e.Item, e.Location, e.Available, e.Requested)
}
