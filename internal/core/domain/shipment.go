package domain

import (
	"fmt"
	"time"
)

type ShipmentState string

// AnyShipmentState is the empty guard: a transition applies regardless of the
// current state.
const AnyShipmentState ShipmentState = ""

const (
	ShipmentStatePending   ShipmentState = "pending"
	ShipmentStateReady     ShipmentState = "ready"
	ShipmentStateShipped   ShipmentState = "shipped"
	ShipmentStateDelivered ShipmentState = "delivered"
	ShipmentStateCancelled ShipmentState = "cancelled"
	ShipmentStateReturned  ShipmentState = "returned"
)

func ParseShipmentState(s string) (ShipmentState, error) {
	state := ShipmentState(s)
	if !state.Valid() {
		return "", fmt.Errorf("%w: shipment state %q", ErrUnknownState, s)
	}
	return state, nil
}

func (s ShipmentState) Valid() bool {
	switch s {
	case ShipmentStatePending, ShipmentStateReady, ShipmentStateShipped,
		ShipmentStateDelivered, ShipmentStateCancelled, ShipmentStateReturned:
		return true
	}
	return false
}

type ShipmentItem struct {
	ID            string
	ShipmentID    string
	InventoryUnit string
	ShippingState ShipmentState
}

type Shipment struct {
	ID        string
	OrderID   string
	State     ShipmentState
	Items     []*ShipmentItem
	Version   int // optimistic locking
	UpdatedAt time.Time
}

// ShipmentStateChanged is published once per shipment whose state moved.
type ShipmentStateChanged struct {
	EventID    string        `json:"event_id"`
	ShipmentID string        `json:"shipment_id"`
	OrderID    string        `json:"order_id"`
	From       ShipmentState `json:"from"`
	To         ShipmentState `json:"to"`
	OccurredAt time.Time     `json:"occurred_at"`
}
