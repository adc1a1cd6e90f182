package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/order-inventory/internal/core/domain"
	"github.com/rl1809/order-inventory/internal/port"
)

type ShipmentService struct {
	repo      port.OrderRepository
	processor *ShipmentProcessor
	publisher port.EventPublisher
	logger    *zap.Logger
}

func NewShipmentService(repo port.OrderRepository, publisher port.EventPublisher, logger *zap.Logger) *ShipmentService {
	return &ShipmentService{
		repo:      repo,
		processor: NewShipmentProcessor(),
		publisher: publisher,
		logger:    logger,
	}
}

// Transition moves the order's shipments to state to, guarded by from, then
// persists and announces the ones that changed.
func (s *ShipmentService) Transition(ctx context.Context, orderID string, to, from domain.ShipmentState) ([]*domain.Shipment, error) {
	shipments, err := s.repo.GetShipments(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load shipments: %w", err)
	}

	prior := make(map[string]domain.ShipmentState, len(shipments))
	for _, shipment := range shipments {
		if shipment != nil {
			prior[shipment.ID] = shipment.State
		}
	}

	changed, err := s.processor.UpdateShipmentStates(shipments, to, from)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return nil, nil
	}

	if err := s.repo.SaveShipments(ctx, changed); err != nil {
		return nil, fmt.Errorf("save shipments: %w", err)
	}

	now := time.Now()
	events := make([]domain.ShipmentStateChanged, 0, len(changed))
	for _, shipment := range changed {
		events = append(events, domain.ShipmentStateChanged{
			EventID:    uuid.New().String(),
			ShipmentID: shipment.ID,
			OrderID:    shipment.OrderID,
			From:       prior[shipment.ID],
			To:         shipment.State,
			OccurredAt: now,
		})
	}

	if err := s.publisher.PublishShipmentStateChanged(ctx, events); err != nil {
		s.logger.Error("failed to publish shipment state changes",
			zap.String("order_id", orderID),
			zap.Int("count", len(events)),
			zap.Error(err),
		)
		return changed, fmt.Errorf("publish shipment events: %w", err)
	}

	s.logger.Info("shipments transitioned",
		zap.String("order_id", orderID),
		zap.String("state_to", string(to)),
		zap.String("state_from", string(from)),
		zap.Int("changed", len(changed)),
	)

	return changed, nil
}
