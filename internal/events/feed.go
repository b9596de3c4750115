package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Collections carried on the change feed.
const (
	CollectionReferrals = "referrals"
	CollectionStaff     = "staff"
)

const subscriberBuffer = 32

// Change tells listeners that a record was written. Clients re-fetch.
type Change struct {
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	Status     string    `json:"status,omitempty"`
	Version    int       `json:"version,omitempty"`
	At         time.Time `json:"at"`
}

// ChangeFeed broadcasts committed writes to live subscribers.
type ChangeFeed interface {
	Publish(ctx context.Context, change Change) error
	// Subscribe returns a channel that is closed when ctx ends or the feed closes.
	Subscribe(ctx context.Context) (<-chan Change, error)
	Close() error
}

// ChannelName maps a collection to its pub/sub channel.
func ChannelName(collection string) string {
	return collection + ":changes"
}

// MemoryFeed fans changes out inside one process. Slow subscribers drop
// changes rather than blocking writers.
type MemoryFeed struct {
	mu     sync.Mutex
	subs   map[chan Change]struct{}
	closed bool
}

// NewMemoryFeed creates an in-process feed.
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[chan Change]struct{})}
}

// Publish delivers change to every subscriber with room in its buffer.
func (f *MemoryFeed) Publish(_ context.Context, change Change) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("change feed closed")
	}
	for ch := range f.subs {
		select {
		case ch <- change:
		default:
		}
	}
	return nil
}

// Subscribe registers a new listener.
func (f *MemoryFeed) Subscribe(ctx context.Context) (<-chan Change, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, errors.New("change feed closed")
	}
	ch := make(chan Change, subscriberBuffer)
	f.subs[ch] = struct{}{}
	go func() {
		<-ctx.Done()
		f.remove(ch)
	}()
	return ch, nil
}

func (f *MemoryFeed) remove(ch chan Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[ch]; ok {
		delete(f.subs, ch)
		close(ch)
	}
}

// Close drops every subscriber.
func (f *MemoryFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for ch := range f.subs {
		delete(f.subs, ch)
		close(ch)
	}
	return nil
}

// RedisFeed relays changes through Redis pub/sub so every instance sees them.
type RedisFeed struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisFeed wraps an existing client. The caller owns the client.
func NewRedisFeed(client *redis.Client, logger *zap.Logger) *RedisFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisFeed{client: client, logger: logger}
}

// Publish encodes change as JSON on the collection channel.
func (f *RedisFeed) Publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, ChannelName(change.Collection), payload).Err()
}

// Subscribe listens on every collection channel.
func (f *RedisFeed) Subscribe(ctx context.Context) (<-chan Change, error) {
	pubsub := f.client.Subscribe(ctx, ChannelName(CollectionReferrals), ChannelName(CollectionStaff))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan Change, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					f.logger.Warn("discarding malformed change", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- change:
				default:
				}
			}
		}
	}()
	return out, nil
}

// Close is a no-op; the shared client is closed by its owner.
func (f *RedisFeed) Close() error { return nil }
