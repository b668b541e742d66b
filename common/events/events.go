package events

import (
	"context"
	"sync"

	"github.com/lyzr/petstore/common/logger"
)

// Topics for pet lifecycle events
const (
	TopicPetCreated = "pet.created"
	TopicPetUpdated = "pet.updated"
	TopicPetDeleted = "pet.deleted"
)

// Bus interface for lifecycle event passing
type Bus interface {
	Publish(ctx context.Context, topic string, key string, message []byte) error
	Subscribe(ctx context.Context, topic string, handler MessageHandler) error
	Close() error
}

// MessageHandler processes events
type MessageHandler func(ctx context.Context, key string, value []byte) error

// MemoryBus is an in-process event bus. Delivery is at-most-once and only
// within this process; consumers must tolerate missed events.
type MemoryBus struct {
	topics map[string]chan *Message
	mu     sync.RWMutex
	log    *logger.Logger
}

// Message represents a published event
type Message struct {
	Topic string
	Key   string
	Value []byte
}

// NewMemoryBus creates a new in-process event bus
func NewMemoryBus(log *logger.Logger) *MemoryBus {
	return &MemoryBus{
		topics: make(map[string]chan *Message),
		log:    log,
	}
}

// Publish publishes an event to a topic
func (b *MemoryBus) Publish(ctx context.Context, topic string, key string, message []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, exists := b.topics[topic]
	if !exists {
		ch = make(chan *Message, 1000) // Buffered channel
		b.topics[topic] = ch
	}

	msg := &Message{
		Topic: topic,
		Key:   key,
		Value: message,
	}

	select {
	case ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		// Channel full, drop and log
		b.log.Warn("event bus full", "topic", topic)
		return nil
	}
}

// Subscribe subscribes to a topic and processes events
func (b *MemoryBus) Subscribe(ctx context.Context, topic string, handler MessageHandler) error {
	b.mu.Lock()
	ch, exists := b.topics[topic]
	if !exists {
		ch = make(chan *Message, 1000)
		b.topics[topic] = ch
	}
	b.mu.Unlock()

	b.log.Info("subscribing to topic", "topic", topic)

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.log.Info("subscription cancelled", "topic", topic)
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := handler(ctx, msg.Key, msg.Value); err != nil {
					b.log.Error("event handler error", "topic", topic, "key", msg.Key, "error", err)
				}
			}
		}
	}()

	return nil
}

// Close closes the bus
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for topic, ch := range b.topics {
		close(ch)
		b.log.Info("closed topic", "topic", topic)
	}
	b.topics = make(map[string]chan *Message)

	return nil
}
