package shipments

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agrivance/agrivance/internal/inventory"
)

// memoryStore is a transactional fake: WithTx runs the callback against a
// deep copy and swaps it in only on success, mirroring commit/rollback.
type memoryStore struct {
	shipments      map[int64]Shipment
	rows           map[int64]inventory.Row
	nextShipmentID int64
	nextRowID      int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		shipments: make(map[int64]Shipment),
		rows:      make(map[int64]inventory.Row),
	}
}

func (m *memoryStore) seedRow(name string, qty float64, unit inventory.Unit, location string) int64 {
	m.nextRowID++
	m.rows[m.nextRowID] = inventory.Row{
		ID:       m.nextRowID,
		Name:     name,
		NameKey:  inventory.NormalizeName(name),
		Quantity: qty,
		Unit:     unit,
		Location: location,
	}
	return m.nextRowID
}

func (m *memoryStore) clone() *memoryStore {
	c := &memoryStore{
		shipments:      make(map[int64]Shipment, len(m.shipments)),
		rows:           make(map[int64]inventory.Row, len(m.rows)),
		nextShipmentID: m.nextShipmentID,
		nextRowID:      m.nextRowID,
	}
	for id, sh := range m.shipments {
		sh.Contents = append([]ContentLine(nil), sh.Contents...)
		c.shipments[id] = sh
	}
	for id, row := range m.rows {
		c.rows[id] = row
	}
	return c
}

func (m *memoryStore) Create(ctx context.Context, sh Shipment) (Shipment, error) {
	m.nextShipmentID++
	sh.ID = m.nextShipmentID
	sh.CreatedAt = time.Now().UTC()
	m.shipments[sh.ID] = sh
	return sh, nil
}

func (m *memoryStore) Get(ctx context.Context, id int64) (Shipment, error) {
	sh, ok := m.shipments[id]
	if !ok {
		return Shipment{}, ErrNotFound
	}
	return sh, nil
}

func (m *memoryStore) GetByCode(ctx context.Context, code string) (Shipment, error) {
	for _, sh := range m.shipments {
		if sh.Code == code {
			return sh, nil
		}
	}
	return Shipment{}, ErrNotFound
}

func (m *memoryStore) List(ctx context.Context, filter ListFilter) ([]Shipment, int, error) {
	var result []Shipment
	for _, sh := range m.shipments {
		if filter.Status != "" && sh.Status != filter.Status {
			continue
		}
		result = append(result, sh)
	}
	return result, len(result), nil
}

func (m *memoryStore) ListByStatus(ctx context.Context, status Status) ([]Shipment, error) {
	var result []Shipment
	for _, sh := range m.shipments {
		if sh.Status == status {
			result = append(result, sh)
		}
	}
	return result, nil
}

func (m *memoryStore) UpdatePosition(ctx context.Context, id int64, pos GeoPoint) error {
	sh, ok := m.shipments[id]
	if !ok {
		return ErrNotFound
	}
	sh.CurrentLocation = pos
	m.shipments[id] = sh
	return nil
}

func (m *memoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	staged := m.clone()
	if err := fn(ctx, &memoryTx{store: staged}); err != nil {
		return err
	}
	m.shipments = staged.shipments
	m.rows = staged.rows
	m.nextShipmentID = staged.nextShipmentID
	m.nextRowID = staged.nextRowID
	return nil
}

type memoryTx struct {
	store *memoryStore
}

func (t *memoryTx) GetForUpdate(ctx context.Context, id int64) (Shipment, error) {
	return t.store.Get(ctx, id)
}

func (t *memoryTx) UpdateStatus(ctx context.Context, id int64, status Status) error {
	sh, ok := t.store.shipments[id]
	if !ok {
		return ErrNotFound
	}
	sh.Status = status
	t.store.shipments[id] = sh
	return nil
}

func (t *memoryTx) UpdatePosition(ctx context.Context, id int64, pos GeoPoint) error {
	return t.store.UpdatePosition(ctx, id, pos)
}

func (t *memoryTx) RowForUpdate(ctx context.Context, nameKey, location string) (inventory.Row, error) {
	for _, row := range t.store.rows {
		if row.NameKey == nameKey && row.Location == location {
			return row, nil
		}
	}
	return inventory.Row{}, inventory.ErrRowNotFound
}

func (t *memoryTx) SetRowQuantity(ctx context.Context, rowID int64, quantity float64) error {
	row, ok := t.store.rows[rowID]
	if !ok {
		return inventory.ErrRowNotFound
	}
	row.Quantity = quantity
	t.store.rows[rowID] = row
	return nil
}

func (t *memoryTx) InsertRow(ctx context.Context, row inventory.Row) (inventory.Row, error) {
	t.store.nextRowID++
	row.ID = t.store.nextRowID
	row.LastUpdated = time.Now().UTC()
	t.store.rows[row.ID] = row
	return row, nil
}

func pendingShipment(t *testing.T, svc *Service, contents ...ContentLine) Shipment {
	t.Helper()
	sh, err := svc.Create(context.Background(), CreateInput{
		Origin:      Endpoint{Name: "Farm A", Lat: 10, Lng: 20},
		Destination: Endpoint{Name: "Factory X", Lat: 30, Lng: 40},
		Contents:    contents,
	})
	require.NoError(t, err)
	return sh
}

func TestCreateDefaults(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	sh := pendingShipment(t, svc, ContentLine{ItemName: "Corn", Quantity: 40, Unit: inventory.UnitKilogram})
	require.Equal(t, StatusPending, sh.Status)
	require.True(t, strings.HasPrefix(sh.Code, "SH-"))
	require.Equal(t, GeoPoint{Lat: 10, Lng: 20}, sh.CurrentLocation)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{
		Origin:      Endpoint{Name: "Farm A"},
		Destination: Endpoint{Name: "Factory X"},
	})
	require.ErrorIs(t, err, ErrEmptyContents)

	_, err = svc.Create(ctx, CreateInput{
		Origin:      Endpoint{Name: "Farm A"},
		Destination: Endpoint{Name: "farm a"},
		Contents:    []ContentLine{{ItemName: "Corn", Quantity: 1, Unit: inventory.UnitKilogram}},
	})
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateInput{
		Origin:      Endpoint{Name: "Farm A"},
		Destination: Endpoint{Name: "Factory X"},
		Contents:    []ContentLine{{ItemName: "Corn", Quantity: -5, Unit: inventory.UnitKilogram}},
	})
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateInput{
		Origin:      Endpoint{Name: "Farm A"},
		Destination: Endpoint{Name: "Factory X"},
		Contents:    []ContentLine{{ItemName: "Corn", Quantity: 5, Unit: "tons"}},
	})
	require.ErrorIs(t, err, inventory.ErrInvalidUnit)
}

func TestAdvanceToInTransitDeductsOrigin(t *testing.T) {
	store := newMemoryStore()
	rowID := store.seedRow("Corn", 100, inventory.UnitKilogram, "Farm A")
	svc := NewService(store, nil)

	sh := pendingShipment(t, svc, ContentLine{ItemName: "Corn", Quantity: 40, Unit: inventory.UnitKilogram})

	advanced, err := svc.Advance(context.Background(), sh.ID, StatusInTransit)
	require.NoError(t, err)
	require.Equal(t, StatusInTransit, advanced.Status)
	require.InDelta(t, 60, store.rows[rowID].Quantity, 0.0001)
}

func TestAdvanceMatchesItemsCaseInsensitively(t *testing.T) {
	store := newMemoryStore()
	rowID := store.seedRow("CORN", 100, inventory.UnitKilogram, "Farm A")
	svc := NewService(store, nil)

	sh := pendingShipment(t, svc, ContentLine{ItemName: "corn", Quantity: 25, Unit: inventory.UnitKilogram})

	_, err := svc.Advance(context.Background(), sh.ID, StatusInTransit)
	require.NoError(t, err)
	require.InDelta(t, 75, store.rows[rowID].Quantity, 0.0001)
}

func TestAdvanceInsufficientStock(t *testing.T) {
	store := newMemoryStore()
	rowID := store.seedRow("Corn", 20, inventory.UnitKilogram, "Farm A")
	svc := NewService(store, nil)

	sh := pendingShipment(t, svc, ContentLine{ItemName: "Corn", Quantity: 40, Unit: inventory.UnitKilogram})

	_, err := svc.Advance(context.Background(), sh.ID, StatusInTransit)
	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	require.Equal(t, "Corn", short.Item)
	require.Equal(t, "Farm A", short.Location)
	require.InDelta(t, 20, short.Available, 0.0001)
	require.InDelta(t, 40, short.Requested, 0.0001)

	require.InDelta(t, 20, store.rows[rowID].Quantity, 0.0001)
	require.Equal(t, StatusPending, store.shipments[sh.ID].Status)
}

func TestAdvanceMissingOriginRow(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	sh := pendingShipment(t, svc, ContentLine{ItemName: "Wheat", Quantity: 5, Unit: inventory.UnitBag})

	_, err := svc.Advance(context.Background(), sh.ID, StatusInTransit)
	var missing *InventoryNotFoundError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "Wheat", missing.Item)
	require.Equal(t, "Farm A", missing.Location)
	require.Equal(t, StatusPending, store.shipments[sh.ID].Status)
}

func TestAdvanceAtomicAcrossLines(t *testing.T) {
	store := newMemoryStore()
	cornID := store.seedRow("Corn", 100, inventory.UnitKilogram, "Farm A")
	svc := NewService(store, nil)

	// Second line fails its guard; the first line's deduction must not
	// survive the rollback.
	sh := pendingShipment(t, svc,
		ContentLine{ItemName: "Corn", Quantity: 40, Unit: inventory.UnitKilogram},
		ContentLine{ItemName: "Wheat", Quantity: 5, Unit: inventory.UnitBag},
	)

	_, err := svc.Advance(context.Background(), sh.ID, StatusInTransit)
	var missing *InventoryNotFoundError
	require.ErrorAs(t, err, &missing)
	require.InDelta(t, 100, store.rows[cornID].Quantity, 0.0001)
	require.Equal(t, StatusPending, store.shipments[sh.ID].Status)
}

func TestAdvanceToDeliveredCreatesDestinationRow(t *testing.T) {
	store := newMemoryStore()
	store.seedRow("Corn", 100, inventory.UnitKilogram, "Farm A")
	svc := NewService(store, nil)
	ctx := context.Background()

	sh := pendingShipment(t, svc, ContentLine{ItemName: "Corn", Quantity: 40, Unit: inventory.UnitKilogram})

	_, err := svc.Advance(ctx, sh.ID, StatusInTransit)
	require.NoError(t, err)

	delivered, err := svc.Advance(ctx, sh.ID, StatusDelivered)
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, delivered.Status)
	require.Equal(t, GeoPoint{Lat: 30, Lng: 40}, delivered.CurrentLocation)

	found := false
	for _, row := range store.rows {
		if row.Location == "Factory X" && row.NameKey == inventory.NormalizeName("Corn") {
			found = true
			require.InDelta(t, 40, row.Quantity, 0.0001)
			require.Equal(t, inventory.UnitKilogram, row.Unit)
		}
	}
	require.True(t, found, "destination row should be created")
}

func TestAdvanceToDeliveredMergesExistingRow(t *testing.T) {
	store := newMemoryStore()
	store.seedRow("Corn", 100, inventory.UnitKilogram, "Farm A")
	destID := store.seedRow("Corn", 10, inventory.UnitKilogram, "Factory X")
	svc := NewService(store, nil)
	ctx := context.Background()

	sh := pendingShipment(t, svc, ContentLine{ItemName: "Corn", Quantity: 40, Unit: inventory.UnitKilogram})

	_, err := svc.Advance(ctx, sh.ID, StatusInTransit)
	require.NoError(t, err)
	_, err = svc.Advance(ctx, sh.ID, StatusDelivered)
	require.NoError(t, err)

	require.InDelta(t, 50, store.rows[destID].Quantity, 0.0001)
}

func TestDeliveredIsTerminal(t *testing.T) {
	store := newMemoryStore()
	store.seedRow("Corn", 100, inventory.UnitKilogram, "Farm A")
	svc := NewService(store, nil)
	ctx := context.Background()

	sh := pendingShipment(t, svc, ContentLine{ItemName: "Corn", Quantity: 40, Unit: inventory.UnitKilogram})
	_, err := svc.Advance(ctx, sh.ID, StatusInTransit)
	require.NoError(t, err)
	_, err = svc.Advance(ctx, sh.ID, StatusDelivered)
	require.NoError(t, err)

	rowsBefore := make(map[int64]inventory.Row, len(store.rows))
	for id, row := range store.rows {
		rowsBefore[id] = row
	}

	for _, target := range []Status{StatusDelivered, StatusInTransit, StatusPending} {
		_, err = svc.Advance(ctx, sh.ID, target)
		var terminal *TerminalStateError
		require.ErrorAs(t, err, &terminal, "target %s", target)
	}
	require.Equal(t, rowsBefore, store.rows)
	require.Equal(t, StatusDelivered, store.shipments[sh.ID].Status)
}

func TestBackwardAndSkipTransitionsRejected(t *testing.T) {
	store := newMemoryStore()
	store.seedRow("Corn", 100, inventory.UnitKilogram, "Farm A")
	svc := NewService(store, nil)
	ctx := context.Background()

	sh := pendingShipment(t, svc, ContentLine{ItemName: "Corn", Quantity: 40, Unit: inventory.UnitKilogram})

	// Goods cannot arrive without leaving the origin first.
	_, err := svc.Advance(ctx, sh.ID, StatusDelivered)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, StatusPending, invalid.From)
	require.Equal(t, StatusDelivered, invalid.To)

	// Same-state requests do not strictly advance the sequence.
	_, err = svc.Advance(ctx, sh.ID, StatusPending)
	require.ErrorAs(t, err, &invalid)

	_, err = svc.Advance(ctx, sh.ID, StatusInTransit)
	require.NoError(t, err)

	_, err = svc.Advance(ctx, sh.ID, StatusPending)
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, StatusInTransit, invalid.From)
	require.Equal(t, StatusPending, invalid.To)
	require.Equal(t, StatusInTransit, store.shipments[sh.ID].Status)
}

func TestAdvanceUnknownShipment(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)
	_, err := svc.Advance(context.Background(), 999, StatusInTransit)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTickPositions(t *testing.T) {
	store := newMemoryStore()
	store.seedRow("Corn", 100, inventory.UnitKilogram, "Farm A")
	svc := NewService(store, nil)
	ctx := context.Background()

	moving := pendingShipment(t, svc, ContentLine{ItemName: "Corn", Quantity: 10, Unit: inventory.UnitKilogram})
	parked := pendingShipment(t, svc, ContentLine{ItemName: "Corn", Quantity: 10, Unit: inventory.UnitKilogram})
	_, err := svc.Advance(ctx, moving.ID, StatusInTransit)
	require.NoError(t, err)

	count, err := svc.TickPositions(ctx, 0.1)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	got := store.shipments[moving.ID].CurrentLocation
	require.InDelta(t, 12, got.Lat, 0.0001) // 10 + (30-10)*0.1
	require.InDelta(t, 22, got.Lng, 0.0001) // 20 + (40-20)*0.1

	require.Equal(t, GeoPoint{Lat: 10, Lng: 20}, store.shipments[parked.ID].CurrentLocation)
}
