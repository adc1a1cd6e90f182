package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rl1809/order-inventory/internal/core/domain"
	"github.com/rl1809/order-inventory/internal/port"
)

type journalEntry struct {
	op       string
	variant  domain.VariantID
	quantity int
	units    []*domain.InventoryUnit
}

// operatorJournal records the operator calls that succeeded during one
// lifecycle operation so they can be undone if the operation is not persisted.
type operatorJournal struct {
	operator port.InventoryOperator
	entries  []journalEntry
}

func newOperatorJournal(operator port.InventoryOperator) *operatorJournal {
	return &operatorJournal{operator: operator}
}

func (j *operatorJournal) Hold(ctx context.Context, variant domain.VariantID, quantity int) error {
	if err := j.operator.Hold(ctx, variant, quantity); err != nil {
		return err
	}
	j.entries = append(j.entries, journalEntry{op: "hold", variant: variant, quantity: quantity})
	return nil
}

func (j *operatorJournal) Release(ctx context.Context, variant domain.VariantID, quantity int) error {
	if err := j.operator.Release(ctx, variant, quantity); err != nil {
		return err
	}
	j.entries = append(j.entries, journalEntry{op: "release", variant: variant, quantity: quantity})
	return nil
}

func (j *operatorJournal) Decrease(ctx context.Context, units []*domain.InventoryUnit) error {
	if err := j.operator.Decrease(ctx, units); err != nil {
		return err
	}
	j.entries = append(j.entries, journalEntry{op: "decrease", units: append([]*domain.InventoryUnit(nil), units...)})
	return nil
}

func (j *operatorJournal) Restock(ctx context.Context, units []*domain.InventoryUnit) error {
	if err := j.operator.Restock(ctx, units); err != nil {
		return err
	}
	j.entries = append(j.entries, journalEntry{op: "restock", units: append([]*domain.InventoryUnit(nil), units...)})
	return nil
}

func (j *operatorJournal) Len() int {
	return len(j.entries)
}

// Rollback applies the inverse of every recorded call, newest first. It keeps
// going after a failure and returns all failures joined.
func (j *operatorJournal) Rollback(ctx context.Context) error {
	var errs []error
	for i := len(j.entries) - 1; i >= 0; i-- {
		e := j.entries[i]
		var err error
		switch e.op {
		case "hold":
			err = j.operator.Release(ctx, e.variant, e.quantity)
		case "release":
			err = j.operator.Hold(ctx, e.variant, e.quantity)
		case "decrease":
			err = j.operator.Restock(ctx, e.units)
		case "restock":
			err = j.operator.Decrease(ctx, e.units)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("undo %s: %w", e.op, err))
		}
	}
	j.entries = nil
	return errors.Join(errs...)
}
