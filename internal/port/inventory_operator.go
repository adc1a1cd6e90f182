package port

import (
	"context"

	"github.com/rl1809/order-inventory/internal/core/domain"
)

// InventoryOperator keeps variant-level stock counters.
type InventoryOperator interface {
	// Hold reserves quantity of variant
	Hold(ctx context.Context, variant domain.VariantID, quantity int) error

	// Release returns a previously held quantity of variant
	Release(ctx context.Context, variant domain.VariantID, quantity int) error

	// Decrease physically removes the given units from stock
	Decrease(ctx context.Context, units []*domain.InventoryUnit) error

	// Restock puts the given units back into stock, undoing Decrease
	Restock(ctx context.Context, units []*domain.InventoryUnit) error
}

type InventoryUnitFactory interface {
	// Create builds quantity new units of variant in the given state
	Create(variant domain.VariantID, quantity int, state domain.InventoryState) []*domain.InventoryUnit
}
