package service

import (
	"github.com/rl1809/order-inventory/internal/core/domain"
	"github.com/rl1809/order-inventory/internal/port"
)

type ReconcileResult struct {
	Created int
	Removed int
}

// InventoryReconciler keeps an order's inventory units in step with its item
// quantities. It never touches the stock counters.
type InventoryReconciler struct {
	factory port.InventoryUnitFactory
}

func NewInventoryReconciler(factory port.InventoryUnitFactory) *InventoryReconciler {
	return &InventoryReconciler{factory: factory}
}

func (r *InventoryReconciler) Reconcile(order *domain.Order) ReconcileResult {
	var result ReconcileResult

	variants, desired := desiredQuantities(order.Items())
	for _, variant := range variants {
		units := order.InventoryUnitsByVariant(variant)
		want := desired[variant]

		switch {
		case want > len(units):
			for _, unit := range r.factory.Create(variant, want-len(units), domain.InventoryStateCheckout) {
				order.AddInventoryUnit(unit)
				result.Created++
			}
		case want < len(units):
			// Evict the first units found, regardless of state.
			for _, unit := range units[:len(units)-want] {
				if order.RemoveInventoryUnit(unit) {
					result.Removed++
				}
			}
		}
	}

	// Variants no longer on any item.
	for _, unit := range order.InventoryUnits() {
		if _, ok := desired[unit.Variant]; !ok {
			if order.RemoveInventoryUnit(unit) {
				result.Removed++
			}
		}
	}

	return result
}

// desiredQuantities sums item quantities per variant in first-seen order.
// Non-positive quantities contribute nothing but keep the variant on the order.
func desiredQuantities(items []domain.OrderItem) ([]domain.VariantID, map[domain.VariantID]int) {
	var variants []domain.VariantID
	desired := make(map[domain.VariantID]int, len(items))

	for _, item := range items {
		if _, seen := desired[item.Variant]; !seen {
			variants = append(variants, item.Variant)
			desired[item.Variant] = 0
		}
		if item.Quantity > 0 {
			desired[item.Variant] += item.Quantity
		}
	}

	return variants, desired
}
