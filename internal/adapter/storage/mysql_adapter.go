package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rl1809/order-inventory/internal/core/domain"
)

var ErrOptimisticLock = domain.ErrOptimisticLock

//go:embed schema.sql
var schema string

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate creates the tables if they do not exist.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var (
		version              int
		createdAt, updatedAt time.Time
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT version, created_at, updated_at FROM orders WHERE id = ?`, orderID,
	).Scan(&version, &createdAt, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	items, err := m.getOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}

	units, err := m.getInventoryUnits(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order := domain.NewOrder(orderID, items, units)
	order.Version = version
	order.CreatedAt = createdAt
	order.UpdatedAt = updatedAt
	return order, nil
}

func (m *MySQLAdapter) getOrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, variant_id, quantity
		FROM order_items WHERE order_id = ? ORDER BY position`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.Variant, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (m *MySQLAdapter) getInventoryUnits(ctx context.Context, orderID string) ([]*domain.InventoryUnit, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, variant_id, state, created_at, updated_at
		FROM inventory_units WHERE order_id = ? ORDER BY position`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query inventory units: %w", err)
	}
	defer rows.Close()

	var units []*domain.InventoryUnit
	for rows.Next() {
		var (
			unit  domain.InventoryUnit
			state string
		)
		if err := rows.Scan(&unit.ID, &unit.Variant, &state, &unit.CreatedAt, &unit.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory unit: %w", err)
		}
		if unit.State, err = domain.ParseInventoryState(state); err != nil {
			return nil, fmt.Errorf("inventory unit %s: %w", unit.ID, err)
		}
		units = append(units, &unit)
	}
	return units, rows.Err()
}

// SaveInventoryUnits rewrites the order's unit rows so that removed units
// disappear and position keeps attachment order. It fails with
// ErrOptimisticLock if the order was saved since it was loaded.
func (m *MySQLAdapter) SaveInventoryUnits(ctx context.Context, order *domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE orders SET version = version + 1, updated_at = NOW()
		WHERE id = ? AND version = ?`,
		order.ID, order.Version,
	)
	if err != nil {
		return fmt.Errorf("update order %s: %w", order.ID, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrOptimisticLock
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_units WHERE order_id = ?`, order.ID); err != nil {
		return fmt.Errorf("delete inventory units: %w", err)
	}

	now := time.Now()
	for i, unit := range order.InventoryUnits() {
		createdAt, updatedAt := unit.CreatedAt, unit.UpdatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if updatedAt.IsZero() {
			updatedAt = now
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO inventory_units (id, order_id, variant_id, state, position, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			unit.ID, order.ID, unit.Variant, unit.State, i, createdAt, updatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert inventory unit %s: %w", unit.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	order.Version++
	return nil
}

func (m *MySQLAdapter) GetShipments(ctx context.Context, orderID string) ([]*domain.Shipment, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, state, version, updated_at
		FROM shipments WHERE order_id = ? ORDER BY id`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query shipments: %w", err)
	}
	defer rows.Close()

	var shipments []*domain.Shipment
	byID := make(map[string]*domain.Shipment)
	for rows.Next() {
		var (
			s     = &domain.Shipment{OrderID: orderID}
			state string
		)
		if err := rows.Scan(&s.ID, &state, &s.Version, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan shipment: %w", err)
		}
		if s.State, err = domain.ParseShipmentState(state); err != nil {
			return nil, fmt.Errorf("shipment %s: %w", s.ID, err)
		}
		shipments = append(shipments, s)
		byID[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemRows, err := m.db.QueryContext(ctx, `
		SELECT si.id, si.shipment_id, si.inventory_unit_id, si.state
		FROM shipment_items si
		JOIN shipments s ON s.id = si.shipment_id
		WHERE s.order_id = ? ORDER BY si.shipment_id, si.id`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query shipment items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			item  domain.ShipmentItem
			state string
		)
		if err := itemRows.Scan(&item.ID, &item.ShipmentID, &item.InventoryUnit, &state); err != nil {
			return nil, fmt.Errorf("scan shipment item: %w", err)
		}
		if item.ShippingState, err = domain.ParseShipmentState(state); err != nil {
			return nil, fmt.Errorf("shipment item %s: %w", item.ID, err)
		}
		if s, ok := byID[item.ShipmentID]; ok {
			s.Items = append(s.Items, &item)
		}
	}

	return shipments, itemRows.Err()
}

// SaveShipments fails with ErrOptimisticLock if any shipment changed since it
// was loaded; no row is written in that case.
func (m *MySQLAdapter) SaveShipments(ctx context.Context, shipments []*domain.Shipment) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, s := range shipments {
		result, err := tx.ExecContext(ctx, `
			UPDATE shipments
			SET state = ?, version = version + 1, updated_at = NOW()
			WHERE id = ? AND version = ?`,
			s.State, s.ID, s.Version,
		)
		if err != nil {
			return fmt.Errorf("update shipment %s: %w", s.ID, err)
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return ErrOptimisticLock
		}

		for _, item := range s.Items {
			if _, err := tx.ExecContext(ctx, `
				UPDATE shipment_items SET state = ? WHERE id = ?`,
				item.ShippingState, item.ID,
			); err != nil {
				return fmt.Errorf("update shipment item %s: %w", item.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	for _, s := range shipments {
		s.Version++
	}
	return nil
}

// CreateOrder inserts the order row and its items. Units are written by
// SaveInventoryUnits.
func (m *MySQLAdapter) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, version, created_at, updated_at) VALUES (?, 0, NOW(), NOW())`,
		order.ID,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range order.Items() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, variant_id, quantity, position)
			VALUES (?, ?, ?, ?, ?)`,
			item.ID, order.ID, item.Variant, item.Quantity, i,
		)
		if err != nil {
			return fmt.Errorf("insert order item %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) CreateShipment(ctx context.Context, shipment *domain.Shipment) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO shipments (id, order_id, state, version, updated_at)
		VALUES (?, ?, ?, 0, NOW())`,
		shipment.ID, shipment.OrderID, shipment.State,
	)
	if err != nil {
		return fmt.Errorf("insert shipment: %w", err)
	}

	for _, item := range shipment.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO shipment_items (id, shipment_id, inventory_unit_id, state)
			VALUES (?, ?, ?, ?)`,
			item.ID, shipment.ID, item.InventoryUnit, item.ShippingState,
		)
		if err != nil {
			return fmt.Errorf("insert shipment item %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}
