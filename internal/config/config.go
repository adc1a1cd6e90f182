package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	ServiceName          = "order-inventory"
	defaultHTTPAddr      = ":8080"
	defaultGRPCAddr      = ":50051"
	defaultMySQLDSN      = "root:root@tcp(localhost:3306)/orderinventory?parseTime=true"
	defaultRedisAddr     = "localhost:6379"
	defaultShipmentTopic = "ShipmentStateChanged"
	defaultWorkerCount   = 10
	defaultQueueSize     = 10000
)

type Config struct {
	HTTPAddr      string
	GRPCAddr      string
	MySQLDSN      string
	RedisAddr     string
	KafkaBroker   string // empty disables Kafka
	ShipmentTopic string
	WorkerCount   int
	QueueSize     int
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:      getenv("HTTP_ADDR", defaultHTTPAddr),
		GRPCAddr:      getenv("GRPC_ADDR", defaultGRPCAddr),
		MySQLDSN:      getenv("MYSQL_DSN", defaultMySQLDSN),
		RedisAddr:     getenv("REDIS_ADDR", defaultRedisAddr),
		KafkaBroker:   os.Getenv("KAFKA_BROKER"),
		ShipmentTopic: getenv("SHIPMENT_TOPIC", defaultShipmentTopic),
	}

	var err error
	if cfg.WorkerCount, err = getenvInt("WORKER_COUNT", defaultWorkerCount); err != nil {
		return nil, err
	}
	if cfg.QueueSize, err = getenvInt("QUEUE_SIZE", defaultQueueSize); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}
