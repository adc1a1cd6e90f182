package service

import (
	"fmt"

	"github.com/rl1809/order-inventory/internal/core/domain"
)

// ShipmentProcessor broadcasts a state transition over shipments and their
// items. A non-empty from guards each entity on its current state; entities
// that do not match are left alone.
type ShipmentProcessor struct{}

func NewShipmentProcessor() *ShipmentProcessor {
	return &ShipmentProcessor{}
}

// UpdateShipmentStates returns the shipments whose state was set. The batch is
// validated up front so an invalid element aborts it before anything changes.
func (p *ShipmentProcessor) UpdateShipmentStates(shipments []*domain.Shipment, to, from domain.ShipmentState) ([]*domain.Shipment, error) {
	if err := validateTransition(to, from); err != nil {
		return nil, err
	}
	for i, shipment := range shipments {
		if shipment == nil {
			return nil, fmt.Errorf("%w: shipment at index %d is nil", domain.ErrInvalidArgument, i)
		}
		if err := validateItems(shipment.Items); err != nil {
			return nil, fmt.Errorf("shipment %s: %w", shipment.ID, err)
		}
	}

	var changed []*domain.Shipment
	for _, shipment := range shipments {
		if from != domain.AnyShipmentState && shipment.State != from {
			continue
		}
		shipment.State = to
		applyItemStates(shipment.Items, to, from)
		changed = append(changed, shipment)
	}

	return changed, nil
}

// UpdateItemStates returns how many items were set.
func (p *ShipmentProcessor) UpdateItemStates(items []*domain.ShipmentItem, to, from domain.ShipmentState) (int, error) {
	if err := validateTransition(to, from); err != nil {
		return 0, err
	}
	if err := validateItems(items); err != nil {
		return 0, err
	}
	return applyItemStates(items, to, from), nil
}

func applyItemStates(items []*domain.ShipmentItem, to, from domain.ShipmentState) int {
	n := 0
	for _, item := range items {
		if from != domain.AnyShipmentState && item.ShippingState != from {
			continue
		}
		item.ShippingState = to
		n++
	}
	return n
}

func validateTransition(to, from domain.ShipmentState) error {
	if !to.Valid() {
		return fmt.Errorf("%w: target shipment state %q", domain.ErrUnknownState, to)
	}
	if from != domain.AnyShipmentState && !from.Valid() {
		return fmt.Errorf("%w: guard shipment state %q", domain.ErrUnknownState, from)
	}
	return nil
}

func validateItems(items []*domain.ShipmentItem) error {
	for i, item := range items {
		if item == nil {
			return fmt.Errorf("%w: shipment item at index %d is nil", domain.ErrInvalidArgument, i)
		}
	}
	return nil
}
