package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rl1809/order-inventory/internal/core/domain"
	"github.com/rl1809/order-inventory/internal/port"
)

// InventoryStateDriver moves an order's units through
// checkout -> on_hold -> checkout -> sold and reports to the operator the
// part of each item's quantity that is not already tracked unit by unit.
type InventoryStateDriver struct {
	operator port.InventoryOperator
	logger   *zap.Logger
}

func NewInventoryStateDriver(operator port.InventoryOperator, logger *zap.Logger) *InventoryStateDriver {
	return &InventoryStateDriver{operator: operator, logger: logger}
}

// Hold puts checkout units on hold and holds the residual quantity.
func (d *InventoryStateDriver) Hold(ctx context.Context, order *domain.Order) error {
	for _, item := range order.Items() {
		p := partition(order.InventoryUnitsByVariant(item.Variant), domain.InventoryStateCheckout)
		remaining := d.residual(order, item, p)

		if err := transitionAll(p.source, domain.InventoryStateOnHold); err != nil {
			return err
		}
		if err := d.operator.Hold(ctx, item.Variant, remaining); err != nil {
			return fmt.Errorf("hold %s: %w", item.Variant, err)
		}
	}
	return nil
}

// Release returns held units to checkout and releases the residual quantity.
func (d *InventoryStateDriver) Release(ctx context.Context, order *domain.Order) error {
	for _, item := range order.Items() {
		p := partition(order.InventoryUnitsByVariant(item.Variant), domain.InventoryStateOnHold)
		remaining := d.residual(order, item, p)

		if err := transitionAll(p.source, domain.InventoryStateCheckout); err != nil {
			return err
		}
		if err := d.operator.Release(ctx, item.Variant, remaining); err != nil {
			return fmt.Errorf("release %s: %w", item.Variant, err)
		}
	}
	return nil
}

// Update marks held and checkout units sold, decreases stock by every
// matching unit and releases the residual hold.
func (d *InventoryStateDriver) Update(ctx context.Context, order *domain.Order) error {
	for _, item := range order.Items() {
		units := order.InventoryUnitsByVariant(item.Variant)
		p := partition(units, domain.InventoryStateOnHold)
		remaining := d.residual(order, item, p)

		if err := transitionAll(p.source, domain.InventoryStateSold); err != nil {
			return err
		}
		for _, unit := range p.other {
			if unit.State == domain.InventoryStateCheckout {
				if err := unit.TransitionTo(domain.InventoryStateSold); err != nil {
					return err
				}
			}
		}

		if err := d.operator.Decrease(ctx, units); err != nil {
			return fmt.Errorf("decrease %s: %w", item.Variant, err)
		}
		if err := d.operator.Release(ctx, item.Variant, remaining); err != nil {
			return fmt.Errorf("release %s: %w", item.Variant, err)
		}
	}
	return nil
}

// unitPartition splits the units of one variant into those in the state being
// transitioned away from and all others.
type unitPartition struct {
	source []*domain.InventoryUnit
	other  []*domain.InventoryUnit
}

func partition(units []*domain.InventoryUnit, from domain.InventoryState) unitPartition {
	var p unitPartition
	for _, unit := range units {
		if unit.State == from {
			p.source = append(p.source, unit)
		} else {
			p.other = append(p.other, unit)
		}
	}
	return p
}

// residual is the item quantity not backed by a unit outside the source state,
// clamped at zero.
func (d *InventoryStateDriver) residual(order *domain.Order, item domain.OrderItem, p unitPartition) int {
	remaining := item.Quantity - len(p.other)
	if remaining < 0 {
		d.logger.Warn("clamping negative residual",
			zap.String("order_id", order.ID),
			zap.String("variant_id", string(item.Variant)),
			zap.Int("quantity", item.Quantity),
			zap.Int("residual", remaining),
		)
		return 0
	}
	return remaining
}

func transitionAll(units []*domain.InventoryUnit, to domain.InventoryState) error {
	for _, unit := range units {
		if err := unit.TransitionTo(to); err != nil {
			return err
		}
	}
	return nil
}
