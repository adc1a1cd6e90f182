package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rl1809/order-inventory/internal/core/domain"
)

type operatorCall struct {
	op       string
	variant  domain.VariantID
	quantity int
}

// Mock InventoryOperator
type mockOperator struct {
	mu     sync.Mutex
	calls  []operatorCall
	err    error
	failOn string // fail only this op; empty with err set fails all
}

func (m *mockOperator) Hold(ctx context.Context, variant domain.VariantID, quantity int) error {
	return m.record("hold", variant, quantity)
}

func (m *mockOperator) Release(ctx context.Context, variant domain.VariantID, quantity int) error {
	return m.record("release", variant, quantity)
}

func (m *mockOperator) Decrease(ctx context.Context, units []*domain.InventoryUnit) error {
	var variant domain.VariantID
	if len(units) > 0 {
		variant = units[0].Variant
	}
	return m.record("decrease", variant, len(units))
}

func (m *mockOperator) Restock(ctx context.Context, units []*domain.InventoryUnit) error {
	var variant domain.VariantID
	if len(units) > 0 {
		variant = units[0].Variant
	}
	return m.record("restock", variant, len(units))
}

func (m *mockOperator) record(op string, variant domain.VariantID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil && (m.failOn == "" || m.failOn == op) {
		return m.err
	}
	m.calls = append(m.calls, operatorCall{op: op, variant: variant, quantity: quantity})
	return nil
}

// net sums hold minus release per variant.
func (m *mockOperator) net() map[domain.VariantID]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[domain.VariantID]int)
	for _, c := range m.calls {
		switch c.op {
		case "hold":
			out[c.variant] += c.quantity
		case "release":
			out[c.variant] -= c.quantity
		}
	}
	return out
}

// decreased sums decrease minus restock per variant.
func (m *mockOperator) decreased() map[domain.VariantID]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[domain.VariantID]int)
	for _, c := range m.calls {
		switch c.op {
		case "decrease":
			out[c.variant] += c.quantity
		case "restock":
			out[c.variant] -= c.quantity
		}
	}
	return out
}

// Mock InventoryUnitFactory
type seqFactory struct {
	mu   sync.Mutex
	next int
}

func (f *seqFactory) Create(variant domain.VariantID, quantity int, state domain.InventoryState) []*domain.InventoryUnit {
	f.mu.Lock()
	defer f.mu.Unlock()
	units := make([]*domain.InventoryUnit, 0, quantity)
	for i := 0; i < quantity; i++ {
		f.next++
		units = append(units, &domain.InventoryUnit{
			ID:      fmt.Sprintf("unit-%d", f.next),
			Variant: variant,
			State:   state,
		})
	}
	return units
}

// Mock OrderRepository
type memRepo struct {
	mu        sync.Mutex
	orders    map[string]*domain.Order
	shipments map[string][]*domain.Shipment
	saves     int
	saveErr   error
}

func newMemRepo() *memRepo {
	return &memRepo{
		orders:    make(map[string]*domain.Order),
		shipments: make(map[string][]*domain.Shipment),
	}
}

func (r *memRepo) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[orderID], nil
}

func (r *memRepo) SaveInventoryUnits(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	return nil
}

func (r *memRepo) GetShipments(ctx context.Context, orderID string) ([]*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shipments[orderID], nil
}

func (r *memRepo) SaveShipments(ctx context.Context, shipments []*domain.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	return nil
}

// snapshotRepo hands out copies of the stored order and checks the version on
// save, the way a database-backed repository does. It counts how many callers
// are between GetOrder and SaveInventoryUnits for the same order.
type snapshotRepo struct {
	mu          sync.Mutex
	orders      map[string]*domain.Order
	saveErr     error
	saves       int
	loadDelay   time.Duration
	inFlight    int
	maxInFlight int
}

func newSnapshotRepo(orders ...*domain.Order) *snapshotRepo {
	r := &snapshotRepo{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		r.orders[o.ID] = cloneOrder(o)
	}
	return r
}

func cloneOrder(o *domain.Order) *domain.Order {
	units := make([]*domain.InventoryUnit, 0, len(o.InventoryUnits()))
	for _, u := range o.InventoryUnits() {
		c := *u
		units = append(units, &c)
	}
	c := domain.NewOrder(o.ID, o.Items(), units)
	c.Version = o.Version
	return c
}

func (r *snapshotRepo) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	r.mu.Lock()
	stored, ok := r.orders[orderID]
	if !ok {
		r.mu.Unlock()
		return nil, nil
	}
	r.inFlight++
	if r.inFlight > r.maxInFlight {
		r.maxInFlight = r.inFlight
	}
	order := cloneOrder(stored)
	r.mu.Unlock()

	time.Sleep(r.loadDelay)
	return order, nil
}

func (r *snapshotRepo) SaveInventoryUnits(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight--
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.orders[order.ID].Version != order.Version {
		return domain.ErrOptimisticLock
	}
	order.Version++
	r.orders[order.ID] = cloneOrder(order)
	r.saves++
	return nil
}

func (r *snapshotRepo) stored(orderID string) *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneOrder(r.orders[orderID])
}

func (r *snapshotRepo) GetShipments(ctx context.Context, orderID string) ([]*domain.Shipment, error) {
	return nil, nil
}

func (r *snapshotRepo) SaveShipments(ctx context.Context, shipments []*domain.Shipment) error {
	return nil
}

// Mock CacheRepository
type mockCacheRepo struct {
	mu             sync.Mutex
	idempotencySet map[string]bool
	deleted        []string
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{idempotencySet: make(map[string]bool)}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) DeleteIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.idempotencySet, key)
	m.deleted = append(m.deleted, key)
	return nil
}

// Mock EventPublisher
type mockPublisher struct {
	mu     sync.Mutex
	events []domain.ShipmentStateChanged
	err    error
}

func (m *mockPublisher) PublishShipmentStateChanged(ctx context.Context, events []domain.ShipmentStateChanged) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, events...)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func countByVariant(order *domain.Order) map[domain.VariantID]int {
	out := make(map[domain.VariantID]int)
	for _, u := range order.InventoryUnits() {
		out[u.Variant]++
	}
	return out
}

func statesOf(units []*domain.InventoryUnit) []domain.InventoryState {
	out := make([]domain.InventoryState, 0, len(units))
	for _, u := range units {
		out = append(out, u.State)
	}
	return out
}
