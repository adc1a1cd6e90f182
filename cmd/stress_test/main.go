package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rl1809/order-inventory/internal/adapter/factory"
	"github.com/rl1809/order-inventory/internal/adapter/storage"
	"github.com/rl1809/order-inventory/internal/core/domain"
	"github.com/rl1809/order-inventory/internal/core/service"
)

const (
	redisAddr     = "localhost:6379"
	variant       = domain.VariantID("stress-variant")
	initialStock  = 1000
	totalOrders   = 50
	unitsPerOrder = 3
)

// Every order is reconciled and held; even orders are then sold, odd orders
// released. Holds must net to zero and on-hand must drop by the sold units.
func main() {
	ctx := context.Background()
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()

	redisAdapter := storage.NewRedisAdapter(rdb)
	if err := redisAdapter.SetStock(ctx, variant, initialStock); err != nil {
		logger.Fatal("failed to set stock", zap.Error(err))
	}

	reconciler := service.NewInventoryReconciler(factory.NewUUIDUnitFactory())
	driver := service.NewInventoryStateDriver(redisAdapter, zap.NewNop())

	var sold, released, failed atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalOrders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			order := domain.NewOrder(fmt.Sprintf("stress-order-%d", n),
				[]domain.OrderItem{{ID: fmt.Sprintf("item-%d", n), Variant: variant, Quantity: unitsPerOrder}}, nil)
			reconciler.Reconcile(order)

			if err := driver.Hold(ctx, order); err != nil {
				failed.Add(1)
				return
			}

			if n%2 == 0 {
				if err := driver.Update(ctx, order); err != nil {
					failed.Add(1)
					return
				}
				sold.Add(1)
				return
			}

			if err := driver.Release(ctx, order); err != nil {
				failed.Add(1)
				return
			}
			released.Add(1)
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	onHand, onHold, err := redisAdapter.Stock(ctx, variant)
	if err != nil {
		logger.Fatal("failed to read stock", zap.Error(err))
	}

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Orders:           %d\n", totalOrders)
	fmt.Printf("Sold:             %d\n", sold.Load())
	fmt.Printf("Released:         %d\n", released.Load())
	fmt.Printf("Failed:           %d\n", failed.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Printf("On Hand:          %d\n", onHand)
	fmt.Printf("On Hold:          %d\n", onHold)
	fmt.Println("==========================================")

	ok := true
	wantOnHand := initialStock - int(sold.Load())*unitsPerOrder
	if onHand != wantOnHand {
		fmt.Printf("FAIL: expected on hand %d, got %d\n", wantOnHand, onHand)
		ok = false
	}
	if onHold != 0 {
		fmt.Printf("FAIL: expected on hold 0, got %d\n", onHold)
		ok = false
	}
	if failed.Load() != 0 {
		fmt.Printf("FAIL: %d orders errored\n", failed.Load())
		ok = false
	}
	if !ok {
		os.Exit(1)
	}
	fmt.Println("PASS: holds netted to zero and on hand matches sold units")
}
