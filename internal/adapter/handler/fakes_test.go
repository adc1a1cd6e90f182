package handler

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/rl1809/order-inventory/internal/core/domain"
	"github.com/rl1809/order-inventory/internal/core/service"
)

type fakeRepo struct {
	mu        sync.Mutex
	orders    map[string]*domain.Order
	shipments map[string][]*domain.Shipment
	saveErr   error
}

func (r *fakeRepo) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[orderID], nil
}

func (r *fakeRepo) SaveInventoryUnits(ctx context.Context, order *domain.Order) error { return nil }

func (r *fakeRepo) GetShipments(ctx context.Context, orderID string) ([]*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shipments[orderID], nil
}

func (r *fakeRepo) SaveShipments(ctx context.Context, shipments []*domain.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveErr
}

type fakeCache struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (c *fakeCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys[key] {
		return false, nil
	}
	c.keys[key] = true
	return true, nil
}

func (c *fakeCache) DeleteIdempotency(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, key)
	return nil
}

type fakeOperator struct{}

func (fakeOperator) Hold(ctx context.Context, variant domain.VariantID, quantity int) error {
	return nil
}

func (fakeOperator) Release(ctx context.Context, variant domain.VariantID, quantity int) error {
	return nil
}

func (fakeOperator) Decrease(ctx context.Context, units []*domain.InventoryUnit) error { return nil }

func (fakeOperator) Restock(ctx context.Context, units []*domain.InventoryUnit) error { return nil }

type fakeFactory struct {
	mu   sync.Mutex
	next int
}

func (f *fakeFactory) Create(variant domain.VariantID, quantity int, state domain.InventoryState) []*domain.InventoryUnit {
	f.mu.Lock()
	defer f.mu.Unlock()
	var units []*domain.InventoryUnit
	for i := 0; i < quantity; i++ {
		f.next++
		units = append(units, &domain.InventoryUnit{ID: fmt.Sprintf("unit-%d", f.next), Variant: variant, State: state})
	}
	return units
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.ShipmentStateChanged
}

func (p *fakePublisher) PublishShipmentStateChanged(ctx context.Context, events []domain.ShipmentStateChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fixture struct {
	repo      *fakeRepo
	publisher *fakePublisher
	orders    *service.OrderService
	shipments *service.ShipmentService
}

// newFixture seeds order-1 with three units of sku-a to reconcile and a
// ready shipment.
func newFixture() *fixture {
	repo := &fakeRepo{
		orders: map[string]*domain.Order{
			"order-1": domain.NewOrder("order-1", []domain.OrderItem{{ID: "item-1", Variant: "sku-a", Quantity: 3}}, nil),
		},
		shipments: map[string][]*domain.Shipment{
			"order-1": {{
				ID:      "ship-1",
				OrderID: "order-1",
				State:   domain.ShipmentStateReady,
				Items:   []*domain.ShipmentItem{{ID: "si-1", ShipmentID: "ship-1", ShippingState: domain.ShipmentStateReady}},
			}},
		},
	}
	pub := &fakePublisher{}
	logger := zap.NewNop()
	return &fixture{
		repo:      repo,
		publisher: pub,
		orders:    service.NewOrderService(repo, &fakeCache{keys: map[string]bool{}}, fakeOperator{}, &fakeFactory{}, 10, logger),
		shipments: service.NewShipmentService(repo, pub, logger),
	}
}
