package presentation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"review-console/internal/common/logger"
)

// RedisHost stores mount markers and rendered region content in Redis so
// every console instance resolves the same attach points.
type RedisHost struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisHost(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisHost {
	return &RedisHost{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "presentation-host"}),
	}
}

func mountKey(candidateID string, region RegionType) string {
	return fmt.Sprintf("region:%s:%s:mounted", candidateID, region)
}

func contentKey(candidateID string, region RegionType) string {
	return fmt.Sprintf("region:%s:%s:content", candidateID, region)
}

// Mount marks a region attached for a candidate. Called when a view opens.
func (h *RedisHost) Mount(ctx context.Context, candidateID string, region RegionType) error {
	if err := h.client.Set(ctx, mountKey(candidateID, region), "1", h.ttl).Err(); err != nil {
		return fmt.Errorf("mount region %s: %w", region, err)
	}
	return nil
}

// Unmount detaches a region and drops its rendered content.
func (h *RedisHost) Unmount(ctx context.Context, candidateID string, region RegionType) error {
	if err := h.client.Del(ctx, mountKey(candidateID, region), contentKey(candidateID, region)).Err(); err != nil {
		return fmt.Errorf("unmount region %s: %w", region, err)
	}
	return nil
}

// IsMounted reports whether the region is currently attached.
func (h *RedisHost) IsMounted(ctx context.Context, candidateID string, region RegionType) (bool, error) {
	n, err := h.client.Exists(ctx, mountKey(candidateID, region)).Result()
	if err != nil {
		return false, fmt.Errorf("check region %s: %w", region, err)
	}
	return n > 0, nil
}

// Write overwrites the rendered values of a mounted region. Writing to an
// unmounted region is a no-op so reconciliation can iterate every known
// region type blindly.
func (h *RedisHost) Write(ctx context.Context, candidateID string, region RegionType, rendered interface{}) error {
	mounted, err := h.IsMounted(ctx, candidateID, region)
	if err != nil {
		return err
	}
	if !mounted {
		return nil
	}

	payload, err := json.Marshal(rendered)
	if err != nil {
		return fmt.Errorf("encode region %s: %w", region, err)
	}
	if err := h.client.Set(ctx, contentKey(candidateID, region), payload, h.ttl).Err(); err != nil {
		return fmt.Errorf("write region %s: %w", region, err)
	}

	h.logger.Debug("region updated", map[string]interface{}{
		"candidateId": candidateID,
		"region":      string(region),
	})
	return nil
}

// Read returns the last rendered content of a region, or nil when the region
// is unmounted or has not been written yet.
func (h *RedisHost) Read(ctx context.Context, candidateID string, region RegionType) ([]byte, error) {
	data, err := h.client.Get(ctx, contentKey(candidateID, region)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read region %s: %w", region, err)
	}
	return data, nil
}
