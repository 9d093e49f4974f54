// internal/cache/broadcast.go
package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// subscriberBuffer is how many messages a slow subscriber may lag behind
// before messages are dropped for it.
const subscriberBuffer = 64

// Subscription delivers the messages published on one session topic.
type Subscription struct {
	C     <-chan []byte
	close func()
}

// Close stops delivery and releases the subscription.
func (s *Subscription) Close() {
	if s.close != nil {
		s.close()
	}
}

// RedisBroadcaster publishes on lobby:<id>:<topic> so every server process
// with a socket in the session can relay the message.
type RedisBroadcaster struct {
	rdb *redis.Client
}

func NewRedisBroadcaster(rdb *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{rdb: rdb}
}

// Publish sends msg to every subscriber of the session topic.
func (b *RedisBroadcaster) Publish(ctx context.Context, sessionID, topic string, msg []byte) error {
	if err := b.rdb.Publish(ctx, Channel(sessionID, topic), msg).Err(); err != nil {
		return fmt.Errorf("cache: publish %s: %w", sessionID, err)
	}
	return nil
}

// Subscribe listens on the session topic until ctx ends or the subscription
// is closed.
func (b *RedisBroadcaster) Subscribe(ctx context.Context, sessionID, topic string) (*Subscription, error) {
	ps := b.rdb.Subscribe(ctx, Channel(sessionID, topic))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("cache: subscribe %s: %w", sessionID, err)
	}

	out := make(chan []byte, subscriberBuffer)
	go func() {
		defer close(out)
		for m := range ps.Channel() {
			select {
			case out <- []byte(m.Payload):
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return &Subscription{C: out, close: func() { once.Do(func() { _ = ps.Close() }) }}, nil
}

// MemoryBroadcaster fans messages out to in-process subscribers. Each
// channel has its own lock; the broadcaster lock only guards the channel map.
type MemoryBroadcaster struct {
	mu     sync.RWMutex
	nextID int
	topics map[string]*topic
}

type topic struct {
	mu   sync.Mutex
	subs map[int]chan []byte
}

func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{topics: make(map[string]*topic)}
}

// Publish never blocks; a subscriber whose buffer is full misses the message.
func (b *MemoryBroadcaster) Publish(_ context.Context, sessionID, topicName string, msg []byte) error {
	ch := Channel(sessionID, topicName)
	b.mu.RLock()
	tp := b.topics[ch]
	b.mu.RUnlock()
	if tp == nil {
		return nil
	}

	tp.mu.Lock()
	defer tp.mu.Unlock()
	for id, sub := range tp.subs {
		select {
		case sub <- msg:
		default:
			log.WithFields(log.Fields{"channel": ch, "subscriber": id}).Warn("Subscriber buffer full, dropping message.")
		}
	}
	return nil
}

func (b *MemoryBroadcaster) Subscribe(ctx context.Context, sessionID, topicName string) (*Subscription, error) {
	ch := Channel(sessionID, topicName)
	out := make(chan []byte, subscriberBuffer)

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	tp := b.topics[ch]
	if tp == nil {
		tp = &topic{subs: make(map[int]chan []byte)}
		b.topics[ch] = tp
	}
	tp.mu.Lock()
	tp.subs[id] = out
	tp.mu.Unlock()
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			tp.mu.Lock()
			delete(tp.subs, id)
			if len(tp.subs) == 0 && b.topics[ch] == tp {
				delete(b.topics, ch)
			}
			tp.mu.Unlock()
			b.mu.Unlock()
			close(out)
		})
	}
	go func() {
		<-ctx.Done()
		unsubscribe()
	}()
	return &Subscription{C: out, close: unsubscribe}, nil
}
