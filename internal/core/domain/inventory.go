package domain

import (
	"fmt"
	"time"
)

// VariantID identifies a purchasable stock-keeping unit. Units and items are
// matched on it by equality only.
type VariantID string

type InventoryState string

const (
	InventoryStateOnHold    InventoryState = "on_hold"
	InventoryStateCheckout  InventoryState = "checkout"
	InventoryStateSold      InventoryState = "sold"
	InventoryStateBackorder InventoryState = "backorder"
	InventoryStateReturned  InventoryState = "returned"
)

// ParseInventoryState rejects anything outside the known set.
func ParseInventoryState(s string) (InventoryState, error) {
	state := InventoryState(s)
	if !state.Valid() {
		return "", fmt.Errorf("%w: inventory state %q", ErrUnknownState, s)
	}
	return state, nil
}

func (s InventoryState) Valid() bool {
	switch s {
	case InventoryStateOnHold, InventoryStateCheckout, InventoryStateSold,
		InventoryStateBackorder, InventoryStateReturned:
		return true
	}
	return false
}

// CanTransitionTo reports whether a unit in state s may move to next.
//
//	checkout --hold--> on_hold --release--> checkout
//	checkout --update--> sold
//	on_hold  --update--> sold
func (s InventoryState) CanTransitionTo(next InventoryState) bool {
	switch s {
	case InventoryStateCheckout:
		return next == InventoryStateOnHold || next == InventoryStateSold
	case InventoryStateOnHold:
		return next == InventoryStateCheckout || next == InventoryStateSold
	case InventoryStateSold, InventoryStateBackorder, InventoryStateReturned:
		return false
	}
	return false
}

// InventoryUnit is one discrete unit of stock allocated to an order.
type InventoryUnit struct {
	ID        string
	OrderID   string
	Variant   VariantID
	State     InventoryState
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *InventoryUnit) TransitionTo(next InventoryState) error {
	if !next.Valid() {
		return fmt.Errorf("%w: inventory state %q", ErrUnknownState, next)
	}
	if !u.State.CanTransitionTo(next) {
		return fmt.Errorf("%w: unit %s %s -> %s", ErrInvalidTransition, u.ID, u.State, next)
	}
	u.State = next
	u.UpdatedAt = time.Now()
	return nil
}
