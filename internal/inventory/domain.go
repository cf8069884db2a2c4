// Package inventory tracks quantities of items held at named locations.
package inventory

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Unit is the fixed measurement vocabulary for inventory rows.
type Unit string

const (
	UnitKilogram Unit = "kg"
	UnitBag      Unit = "bags"
	UnitLiter    Unit = "liters"
	UnitPiece    Unit = "units"
)

// IsValid reports whether the unit belongs to the supported vocabulary.
func (u Unit) IsValid() bool {
	switch u {
	case UnitKilogram, UnitBag, UnitLiter, UnitPiece:
		return true
	default:
		return false
	}
}

// Row is a quantity-of-item-at-location record. Identity is the
// (NameKey, Location) pair, enforced by a unique index.
type Row struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	NameKey     string    `json:"name_lowercase"`
	Quantity    float64   `json:"quantity"`
	Unit        Unit      `json:"unit"`
	Location    string    `json:"location"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// ListFilter narrows List results.
type ListFilter struct {
	Location string
	Search   string
	Page     int
	Limit    int
}

var (
	// ErrRowNotFound indicates no row matches an (item, location) key.
	ErrRowNotFound = errors.New("inventory: row not found")
	// ErrInvalidQuantity indicates a negative quantity.
	ErrInvalidQuantity = errors.New("inventory: quantity must be >= 0")
	// ErrInvalidUnit indicates a unit outside the supported vocabulary.
	ErrInvalidUnit = errors.New("inventory: unknown unit")
)

var foldCaser = cases.Fold()

// NormalizeName folds an item name into its canonical lookup key. Every
// module that matches items against the ledger must use this function.
func NormalizeName(name string) string {
	return foldCaser.String(strings.TrimSpace(name))
}
