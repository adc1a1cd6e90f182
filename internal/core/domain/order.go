package domain

import "time"

type OrderItem struct {
	ID       string
	Variant  VariantID
	Quantity int
}

// Order owns its items and the inventory units allocated against them.
type Order struct {
	ID        string
	items     []OrderItem
	units     []*InventoryUnit
	Version   int // optimistic locking
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewOrder(id string, items []OrderItem, units []*InventoryUnit) *Order {
	o := &Order{
		ID:    id,
		items: append([]OrderItem(nil), items...),
	}
	for _, u := range units {
		o.AddInventoryUnit(u)
	}
	return o
}

func (o *Order) Items() []OrderItem {
	return o.items
}

func (o *Order) SetItems(items []OrderItem) {
	o.items = append([]OrderItem(nil), items...)
}

// InventoryUnits returns the units in attachment order. The slice is a copy;
// the units are not.
func (o *Order) InventoryUnits() []*InventoryUnit {
	return append([]*InventoryUnit(nil), o.units...)
}

func (o *Order) InventoryUnitsByVariant(variant VariantID) []*InventoryUnit {
	var matched []*InventoryUnit
	for _, u := range o.units {
		if u.Variant == variant {
			matched = append(matched, u)
		}
	}
	return matched
}

func (o *Order) AddInventoryUnit(unit *InventoryUnit) {
	unit.OrderID = o.ID
	o.units = append(o.units, unit)
}

// RemoveInventoryUnit detaches unit by identity and reports whether it was attached.
func (o *Order) RemoveInventoryUnit(unit *InventoryUnit) bool {
	for i, u := range o.units {
		if u == unit {
			o.units = append(o.units[:i], o.units[i+1:]...)
			return true
		}
	}
	return false
}
