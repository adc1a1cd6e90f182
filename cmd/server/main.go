package main

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rl1809/order-inventory/internal/adapter/factory"
	"github.com/rl1809/order-inventory/internal/adapter/handler"
	"github.com/rl1809/order-inventory/internal/adapter/messaging"
	"github.com/rl1809/order-inventory/internal/adapter/storage"
	"github.com/rl1809/order-inventory/internal/config"
	"github.com/rl1809/order-inventory/internal/core/service"
	"github.com/rl1809/order-inventory/internal/port"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	logger = logger.With(zap.String("service", config.ServiceName))
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("failed to connect mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	mysqlAdapter := storage.NewMySQLAdapter(db)
	if err := mysqlAdapter.Migrate(ctx); err != nil {
		logger.Fatal("failed to migrate schema", zap.Error(err))
	}
	logger.Info("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	redisAdapter := storage.NewRedisAdapter(rdb)
	logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	var publisher port.EventPublisher
	if cfg.KafkaBroker != "" {
		publisher = messaging.NewKafkaPublisher(cfg.KafkaBroker, cfg.ShipmentTopic, logger)
		logger.Info("publishing shipment events to kafka",
			zap.String("broker", cfg.KafkaBroker),
			zap.String("topic", cfg.ShipmentTopic),
		)
	} else {
		publisher = messaging.NewLogPublisher(logger)
		logger.Warn("KAFKA_BROKER not set, shipment events are only logged")
	}

	orderService := service.NewOrderService(mysqlAdapter, redisAdapter, redisAdapter, factory.NewUUIDUnitFactory(), cfg.QueueSize, logger)
	shipmentService := service.NewShipmentService(mysqlAdapter, publisher, logger)

	// Start worker pool
	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			orderService.ProcessQueue(id)
		}(i)
	}
	logger.Info("started workers", zap.Int("count", cfg.WorkerCount))

	// Start gRPC server
	grpcServer := grpc.NewServer()
	handler.RegisterInventoryServiceServer(grpcServer, handler.NewGRPCHandler(orderService, shipmentService))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Start HTTP server
	mux := http.NewServeMux()
	handler.NewHTTPHandler(orderService, shipmentService).Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// Drain the lifecycle queue
	orderService.Close()
	wg.Wait()
	logger.Info("workers stopped")

	if err := publisher.Close(); err != nil {
		logger.Error("failed to close publisher", zap.Error(err))
	}
	rdb.Close()
	db.Close()
	logger.Info("connections closed")
}
