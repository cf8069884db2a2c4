package inventory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	rows   map[string]Row
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[string]Row)}
}

func rowKey(nameKey, location string) string {
	return fmt.Sprintf("%s|%s", nameKey, location)
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Row, int, error) {
	var result []Row
	for _, row := range r.rows {
		if filter.Location != "" && row.Location != filter.Location {
			continue
		}
		result = append(result, row)
	}
	return result, len(result), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Row, error) {
	for _, row := range r.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return Row{}, ErrRowNotFound
}

func (r *memoryRepo) Upsert(ctx context.Context, row Row) (Row, error) {
	key := rowKey(NormalizeName(row.Name), row.Location)
	if existing, ok := r.rows[key]; ok {
		existing.Quantity += row.Quantity
		existing.LastUpdated = time.Now().UTC()
		r.rows[key] = existing
		return existing, nil
	}
	r.nextID++
	row.ID = r.nextID
	row.NameKey = NormalizeName(row.Name)
	row.LastUpdated = time.Now().UTC()
	r.rows[key] = row
	return row, nil
}

func (r *memoryRepo) UpdateQuantity(ctx context.Context, id int64, quantity float64) error {
	for key, row := range r.rows {
		if row.ID == id {
			row.Quantity = quantity
			r.rows[key] = row
			return nil
		}
	}
	return ErrRowNotFound
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	for key, row := range r.rows {
		if row.ID == id {
			delete(r.rows, key)
			return nil
		}
	}
	return ErrRowNotFound
}

func (r *memoryRepo) FindRow(ctx context.Context, nameKey, location string) (Row, error) {
	if row, ok := r.rows[rowKey(nameKey, location)]; ok {
		return row, nil
	}
	return Row{}, ErrRowNotFound
}

func (r *memoryRepo) TotalQuantity(ctx context.Context, nameKey string) (float64, Unit, error) {
	var total float64
	var unit Unit
	found := false
	for _, row := range r.rows {
		if row.NameKey == nameKey {
			total += row.Quantity
			unit = row.Unit
			found = true
		}
	}
	if !found {
		return 0, "", ErrRowNotFound
	}
	return total, unit, nil
}

func TestAddMergesDuplicateKeys(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	first, err := svc.Add(ctx, AddInput{Name: "Corn", Quantity: 100, Unit: UnitKilogram, Location: "Farm A"})
	require.NoError(t, err)
	require.InDelta(t, 100, first.Quantity, 0.0001)

	merged, err := svc.Add(ctx, AddInput{Name: "CORN", Quantity: 50, Unit: UnitKilogram, Location: "Farm A"})
	require.NoError(t, err)
	require.Equal(t, first.ID, merged.ID)
	require.InDelta(t, 150, merged.Quantity, 0.0001)
}

func TestAddRejectsBadInput(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, AddInput{Name: "Corn", Quantity: -1, Unit: UnitKilogram, Location: "Farm A"})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Add(ctx, AddInput{Name: "Corn", Quantity: 1, Unit: "tons", Location: "Farm A"})
	require.ErrorIs(t, err, ErrInvalidUnit)

	_, err = svc.Add(ctx, AddInput{Quantity: 1, Unit: UnitKilogram, Location: "Farm A"})
	require.Error(t, err)
}

func TestFindRowIsCaseInsensitive(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, AddInput{Name: "Rice Seedlings", Quantity: 30, Unit: UnitBag, Location: "Warehouse Z"})
	require.NoError(t, err)

	row, err := svc.FindRow(ctx, "rice seedlings", "Warehouse Z")
	require.NoError(t, err)
	require.Equal(t, "Rice Seedlings", row.Name)

	_, err = svc.FindRow(ctx, "rice seedlings", "Farm A")
	require.ErrorIs(t, err, ErrRowNotFound)
}

func TestTotalQuantityAcrossLocations(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, AddInput{Name: "Corn", Quantity: 60, Unit: UnitKilogram, Location: "Farm A"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, AddInput{Name: "corn", Quantity: 40, Unit: UnitKilogram, Location: "Factory X"})
	require.NoError(t, err)

	total, unit, err := svc.TotalQuantity(ctx, "Corn")
	require.NoError(t, err)
	require.InDelta(t, 100, total, 0.0001)
	require.Equal(t, UnitKilogram, unit)

	_, _, err = svc.TotalQuantity(ctx, "bananas")
	require.ErrorIs(t, err, ErrRowNotFound)
}

func TestSetQuantityGuardsNegative(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	row, err := svc.Add(ctx, AddInput{Name: "Fertilizer", Quantity: 10, Unit: UnitBag, Location: "Farm A"})
	require.NoError(t, err)

	_, err = svc.SetQuantity(ctx, row.ID, -5, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	updated, err := svc.SetQuantity(ctx, row.ID, 7, 0)
	require.NoError(t, err)
	require.InDelta(t, 7, updated.Quantity, 0.0001)
}

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "corn", NormalizeName("  Corn "))
	require.Equal(t, NormalizeName("Straße"), NormalizeName("STRASSE"))
	require.Equal(t, NormalizeName("Rice"), NormalizeName("rIcE"))
}
