package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/order-inventory/internal/core/domain"
)

const (
	stockKeyPrefix    = "stock:"
	onHandSuffix      = ":on_hand"
	onHoldSuffix      = ":on_hold"
	idempotencyKeyTTL = 24 * time.Hour
)

// releaseScript never lets the held counter go below zero and returns the
// amount actually released.
var releaseScript = redis.NewScript(`
local key = KEYS[1]
local quantity = tonumber(ARGV[1])

local current = tonumber(redis.call('GET', key) or '0')
local released = math.min(current, quantity)
if released > 0 then
	redis.call('DECRBY', key, released)
end

return released
`)

// RedisAdapter keeps per-variant on-hand and on-hold counters and the
// idempotency keys for queued lifecycle requests.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func onHandKey(variant domain.VariantID) string {
	return stockKeyPrefix + string(variant) + onHandSuffix
}

func onHoldKey(variant domain.VariantID) string {
	return stockKeyPrefix + string(variant) + onHoldSuffix
}

func (r *RedisAdapter) Hold(ctx context.Context, variant domain.VariantID, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	return r.client.IncrBy(ctx, onHoldKey(variant), int64(quantity)).Err()
}

func (r *RedisAdapter) Release(ctx context.Context, variant domain.VariantID, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	return releaseScript.Run(ctx, r.client, []string{onHoldKey(variant)}, quantity).Err()
}

// Decrease takes every unit out of its variant's on-hand count in one MULTI.
func (r *RedisAdapter) Decrease(ctx context.Context, units []*domain.InventoryUnit) error {
	return r.adjustOnHand(ctx, units, -1)
}

// Restock is the inverse of Decrease.
func (r *RedisAdapter) Restock(ctx context.Context, units []*domain.InventoryUnit) error {
	return r.adjustOnHand(ctx, units, 1)
}

func (r *RedisAdapter) adjustOnHand(ctx context.Context, units []*domain.InventoryUnit, sign int64) error {
	if len(units) == 0 {
		return nil
	}

	var variants []domain.VariantID
	counts := make(map[domain.VariantID]int64)
	for _, u := range units {
		if _, ok := counts[u.Variant]; !ok {
			variants = append(variants, u.Variant)
		}
		counts[u.Variant]++
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, v := range variants {
			pipe.IncrBy(ctx, onHandKey(v), sign*counts[v])
		}
		return nil
	})
	return err
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) DeleteIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisAdapter) SetStock(ctx context.Context, variant domain.VariantID, quantity int) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, onHandKey(variant), quantity, 0)
		pipe.Set(ctx, onHoldKey(variant), 0, 0)
		return nil
	})
	return err
}

// Stock returns the on-hand and on-hold counters; missing keys read as zero.
func (r *RedisAdapter) Stock(ctx context.Context, variant domain.VariantID) (onHand, onHold int, err error) {
	vals, err := r.client.MGet(ctx, onHandKey(variant), onHoldKey(variant)).Result()
	if err != nil {
		return 0, 0, err
	}

	counters := make([]int, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, err
		}
		counters[i] = n
	}

	return counters[0], counters[1], nil
}
