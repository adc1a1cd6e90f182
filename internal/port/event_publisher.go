package port

import (
	"context"

	"github.com/rl1809/order-inventory/internal/core/domain"
)

type EventPublisher interface {
	PublishShipmentStateChanged(ctx context.Context, events []domain.ShipmentStateChanged) error
	Close() error
}
