package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/rl1809/order-inventory/internal/core/domain"
)

const (
	eventTypeHeader          = "event_type"
	shipmentStateChangedType = "ShipmentStateChanged"
	batchTimeout             = 10 * time.Millisecond
	batchSize                = 100
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes shipment events keyed by shipment ID so that all
// changes to one shipment land on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
}

func NewKafkaPublisher(broker, topic string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		BatchSize:    batchSize,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) PublishShipmentStateChanged(ctx context.Context, events []domain.ShipmentStateChanged) error {
	if len(events) == 0 {
		return nil
	}

	msgs, err := encodeShipmentEvents(events)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write messages: %w", err)
	}

	p.logger.Info("published shipment state changes", zap.Int("count", len(msgs)))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func encodeShipmentEvents(events []domain.ShipmentStateChanged) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, evt := range events {
		payload, err := json.Marshal(evt)
		if err != nil {
			return nil, fmt.Errorf("marshal event %s: %w", evt.EventID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(evt.ShipmentID),
			Value: payload,
			Headers: []kafka.Header{
				{Key: eventTypeHeader, Value: []byte(shipmentStateChangedType)},
			},
		})
	}
	return msgs, nil
}

// LogPublisher stands in for Kafka when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishShipmentStateChanged(ctx context.Context, events []domain.ShipmentStateChanged) error {
	for _, evt := range events {
		p.logger.Info("shipment state changed",
			zap.String("event_id", evt.EventID),
			zap.String("shipment_id", evt.ShipmentID),
			zap.String("order_id", evt.OrderID),
			zap.String("from", string(evt.From)),
			zap.String("to", string(evt.To)),
		)
	}
	return nil
}

func (p *LogPublisher) Close() error { return nil }
