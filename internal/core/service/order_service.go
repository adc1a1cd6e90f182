package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/order-inventory/internal/core/domain"
	"github.com/rl1809/order-inventory/internal/port"
)

var (
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrOrderNotFound    = errors.New("order not found")
	ErrUnknownEvent     = errors.New("unknown lifecycle event")
)

const processTimeout = 5 * time.Second

type LifecycleEvent string

const (
	EventReconcile LifecycleEvent = "reconcile"
	EventHold      LifecycleEvent = "hold"
	EventRelease   LifecycleEvent = "release"
	EventUpdate    LifecycleEvent = "update"
)

func ParseLifecycleEvent(s string) (LifecycleEvent, error) {
	switch e := LifecycleEvent(s); e {
	case EventReconcile, EventHold, EventRelease, EventUpdate:
		return e, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEvent, s)
}

type LifecycleRequest struct {
	RequestID  string
	OrderID    string
	Event      LifecycleEvent
	ReceivedAt time.Time
}

type OrderService struct {
	repo       port.OrderRepository
	cache      port.CacheRepository
	operator   port.InventoryOperator
	reconciler *InventoryReconciler
	locks      *orderLocks
	queue      chan LifecycleRequest
	logger     *zap.Logger
}

func NewOrderService(
	repo port.OrderRepository,
	cache port.CacheRepository,
	operator port.InventoryOperator,
	factory port.InventoryUnitFactory,
	queueSize int,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		repo:       repo,
		cache:      cache,
		operator:   operator,
		reconciler: NewInventoryReconciler(factory),
		locks:      newOrderLocks(),
		queue:      make(chan LifecycleRequest, queueSize),
		logger:     logger,
	}
}

// Apply runs one lifecycle operation against the stored order and persists
// its unit collection. Calls for the same order run one at a time. If the
// operation or the save fails, the operator calls it made are undone and
// nothing is saved.
func (s *OrderService) Apply(ctx context.Context, orderID string, event LifecycleEvent) (*domain.Order, error) {
	if _, err := ParseLifecycleEvent(string(event)); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	journal := newOperatorJournal(s.operator)
	driver := NewInventoryStateDriver(journal, s.logger)

	switch event {
	case EventReconcile:
		result := s.reconciler.Reconcile(order)
		s.logger.Info("reconciled inventory units",
			zap.String("order_id", orderID),
			zap.Int("created", result.Created),
			zap.Int("removed", result.Removed),
		)
	case EventHold:
		err = driver.Hold(ctx, order)
	case EventRelease:
		err = driver.Release(ctx, order)
	case EventUpdate:
		err = driver.Update(ctx, order)
	}
	if err != nil {
		s.rollback(ctx, orderID, event, journal)
		return nil, fmt.Errorf("%s order %s: %w", event, orderID, err)
	}

	if err := s.repo.SaveInventoryUnits(ctx, order); err != nil {
		s.rollback(ctx, orderID, event, journal)
		return nil, fmt.Errorf("save inventory units: %w", err)
	}

	return order, nil
}

// rollback undoes the journaled operator calls. It runs even if ctx is done.
func (s *OrderService) rollback(ctx context.Context, orderID string, event LifecycleEvent, journal *operatorJournal) {
	if journal.Len() == 0 {
		return
	}

	calls := journal.Len()
	rollbackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), processTimeout)
	defer cancel()

	if err := journal.Rollback(rollbackCtx); err != nil {
		s.logger.Error("CRITICAL: inventory rollback failed, stock counters out of sync",
			zap.String("order_id", orderID),
			zap.String("event", string(event)),
			zap.Int("calls", calls),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("rolled back inventory",
		zap.String("order_id", orderID),
		zap.String("event", string(event)),
		zap.Int("calls", calls),
	)
}

// Submit queues a lifecycle event for the workers. A request ID is accepted
// once; the key is freed again if the request cannot be queued or fails to
// apply, so a failed request can be retried.
func (s *OrderService) Submit(ctx context.Context, requestID, orderID string, event LifecycleEvent) error {
	if _, err := ParseLifecycleEvent(string(event)); err != nil {
		return err
	}

	key := idempotencyKey(requestID)

	ok, err := s.cache.SetIdempotency(ctx, key)
	if err != nil {
		return fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return ErrDuplicateRequest
	}

	req := LifecycleRequest{
		RequestID:  requestID,
		OrderID:    orderID,
		Event:      event,
		ReceivedAt: time.Now(),
	}

	select {
	case s.queue <- req:
		return nil
	case <-ctx.Done():
		s.releaseKey(context.WithoutCancel(ctx), requestID)
		return ctx.Err()
	}
}

func idempotencyKey(requestID string) string {
	return fmt.Sprintf("lifecycle:%s", requestID)
}

func (s *OrderService) releaseKey(ctx context.Context, requestID string) {
	if err := s.cache.DeleteIdempotency(ctx, idempotencyKey(requestID)); err != nil {
		s.logger.Error("failed to release idempotency key",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
	}
}

func (s *OrderService) GetLifecycleQueue() <-chan LifecycleRequest {
	return s.queue
}

// ProcessQueue applies queued requests until the queue is closed.
func (s *OrderService) ProcessQueue(id int) {
	for req := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)

		if _, err := s.Apply(ctx, req.OrderID, req.Event); err != nil {
			s.logger.Error("failed to apply lifecycle event",
				zap.Int("worker", id),
				zap.String("request_id", req.RequestID),
				zap.String("order_id", req.OrderID),
				zap.String("event", string(req.Event)),
				zap.Error(err),
			)
			s.releaseKey(context.WithoutCancel(ctx), req.RequestID)
		} else {
			s.logger.Info("applied lifecycle event",
				zap.Int("worker", id),
				zap.String("request_id", req.RequestID),
				zap.String("order_id", req.OrderID),
				zap.String("event", string(req.Event)),
			)
		}

		cancel()
	}
}

func (s *OrderService) Close() {
	close(s.queue)
}
