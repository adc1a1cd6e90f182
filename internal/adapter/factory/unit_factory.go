package factory

import (
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/order-inventory/internal/core/domain"
)

type UUIDUnitFactory struct {
	now func() time.Time
}

func NewUUIDUnitFactory() *UUIDUnitFactory {
	return &UUIDUnitFactory{now: time.Now}
}

func (f *UUIDUnitFactory) Create(variant domain.VariantID, quantity int, state domain.InventoryState) []*domain.InventoryUnit {
	if quantity <= 0 {
		return nil
	}

	now := f.now()
	units := make([]*domain.InventoryUnit, 0, quantity)
	for i := 0; i < quantity; i++ {
		units = append(units, &domain.InventoryUnit{
			ID:        uuid.New().String(),
			Variant:   variant,
			State:     state,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return units
}
