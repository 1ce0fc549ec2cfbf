package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/outbound"
)

const paymentStatusKeyPrefix = "payment:status:"

// paymentStatusCache implements outbound.PaymentStatusCachePort.
type paymentStatusCache struct {
	client      redis.UniversalClient
	ttl         time.Duration
	terminalTTL time.Duration
}

// NewPaymentStatusCache creates a cache that keeps non-terminal statuses for
// ttl and terminal ones for terminalTTL.
func NewPaymentStatusCache(client redis.UniversalClient, ttl, terminalTTL time.Duration) outbound.PaymentStatusCachePort {
	if ttl <= 0 {
		ttl = time.Second
	}
	if terminalTTL < ttl {
		terminalTTL = ttl
	}
	return &paymentStatusCache{client: client, ttl: ttl, terminalTTL: terminalTTL}
}

func (c *paymentStatusCache) key(paymentIntentID string) string {
	return paymentStatusKeyPrefix + paymentIntentID
}

func (c *paymentStatusCache) Get(ctx context.Context, paymentIntentID string) (*model.PaymentStatusResponse, error) {
	data, err := c.client.Get(ctx, c.key(paymentIntentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payment status: %w", err)
	}

	var resp model.PaymentStatusResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		// Drop undecodable entries so the next lookup refills them.
		_ = c.client.Del(ctx, c.key(paymentIntentID)).Err()
		return nil, nil
	}
	return &resp, nil
}

func (c *paymentStatusCache) Set(ctx context.Context, paymentIntentID string, status *model.PaymentStatusResponse, terminal bool) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal payment status: %w", err)
	}
	ttl := c.ttl
	if terminal {
		ttl = c.terminalTTL
	}
	if err := c.client.Set(ctx, c.key(paymentIntentID), data, ttl).Err(); err != nil {
		return fmt.Errorf("set payment status: %w", err)
	}
	return nil
}

// Compile-time check
var _ outbound.PaymentStatusCachePort = (*paymentStatusCache)(nil)
