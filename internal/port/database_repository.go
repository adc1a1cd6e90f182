package port

import (
	"context"

	"github.com/rl1809/order-inventory/internal/core/domain"
)

type OrderRepository interface {
	// GetOrder loads an order with its items and inventory units, nil if absent
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)

	// SaveInventoryUnits replaces the persisted unit collection of the order
	SaveInventoryUnits(ctx context.Context, order *domain.Order) error

	// GetShipments loads the order's shipments with their items
	GetShipments(ctx context.Context, orderID string) ([]*domain.Shipment, error)

	// SaveShipments writes shipment and item states with version check for optimistic locking
	SaveShipments(ctx context.Context, shipments []*domain.Shipment) error
}
