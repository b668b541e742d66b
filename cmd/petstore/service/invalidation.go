package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/lyzr/petstore/common/cache"
	"github.com/lyzr/petstore/common/events"
	"github.com/lyzr/petstore/common/logger"
)

// RegisterCacheInvalidation subscribes a consumer that drops the cached
// aggregate whenever a pet changes or disappears. Writers already invalidate
// synchronously; the consumer is a backstop so a future out-of-process
// publisher keeps the cache honest too.
func RegisterCacheInvalidation(ctx context.Context, bus events.Bus, readCache cache.Cache, log *logger.Logger) error {
	if bus == nil || readCache == nil {
		return nil
	}

	handler := func(ctx context.Context, key string, value []byte) error {
		petID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return fmt.Errorf("unparseable event key %q: %w", key, err)
		}
		if err := readCache.Delete(ctx, aggregateKey(petID)); err != nil {
			return fmt.Errorf("failed to invalidate cached aggregate: %w", err)
		}
		log.Debug("invalidated cached aggregate from event", "pet_id", petID)
		return nil
	}

	for _, topic := range []string{events.TopicPetUpdated, events.TopicPetDeleted} {
		if err := bus.Subscribe(ctx, topic, handler); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}

	log.Info("cache invalidation consumer registered")
	return nil
}
