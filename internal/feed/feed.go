// Package feed implements the dashboard change feed: subscribers receive a
// full fresh snapshot of a collection whenever any write touches it. Fan-out
// across server instances goes through Redis pub/sub; with a nil Redis client
// the hub degrades to single-instance local fan-out.
package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const channelPrefix = "feed:"

// Loader produces the current full snapshot of one collection.
type Loader func(ctx context.Context) (interface{}, error)

// Snapshot is one feed event: the collection name and its full fresh state.
type Snapshot struct {
	Collection string
	Data       interface{}
}

// Subscription is one live feed handle. C delivers snapshots until Close is
// called or the subscribing context is cancelled. Slow consumers are
// coalesced: an unread snapshot is replaced by the newer one, never queued.
type Subscription struct {
	C      <-chan Snapshot
	ch     chan Snapshot
	cancel func()
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() { s.cancel() }

// Hub routes change notifications to snapshot subscribers. It implements the
// ChangeNotifier the services depend on.
type Hub struct {
	rdb     *redis.Client
	loaders map[string]Loader

	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]*Subscription
}

func NewHub(rdb *redis.Client, loaders map[string]Loader) *Hub {
	return &Hub{
		rdb:     rdb,
		loaders: loaders,
		subs:    make(map[string]map[int]*Subscription),
	}
}

// Notify marks a collection as changed. Local subscribers get a fresh
// snapshot; with Redis configured, the change is also published so other
// instances fan out to their own subscribers.
func (h *Hub) Notify(ctx context.Context, collection string) {
	if h.rdb != nil {
		if err := h.rdb.Publish(ctx, channelPrefix+collection, "1").Err(); err != nil {
			log.Warn().Str("collection", collection).Err(err).Msg("feed: publish failed, local fan-out only")
		} else {
			// Run's pattern subscription delivers it back to this instance.
			return
		}
	}
	h.fanOut(ctx, collection)
}

// Run consumes the Redis pattern subscription and fans incoming changes out
// to local subscribers. It returns when ctx is cancelled. With a nil Redis
// client it is a no-op: Notify fans out directly.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}
	pubsub := h.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	log.Info().Msg("feed: redis fan-out started")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("feed: shutting down")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			collection := strings.TrimPrefix(msg.Channel, channelPrefix)
			h.fanOut(ctx, collection)
		}
	}
}

// Subscribe attaches to a collection's feed. The first snapshot is delivered
// immediately; later ones follow each change. The handle detaches when ctx is
// cancelled or Close is called.
func (h *Hub) Subscribe(ctx context.Context, collection string) (*Subscription, error) {
	loader, ok := h.loaders[collection]
	if !ok {
		return nil, fmt.Errorf("feed: unknown collection %q", collection)
	}

	initial, err := loader(ctx)
	if err != nil {
		return nil, fmt.Errorf("feed: initial snapshot for %q: %w", collection, err)
	}

	ch := make(chan Snapshot, 1)
	ch <- Snapshot{Collection: collection, Data: initial}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	sub := &Subscription{C: ch, ch: ch}

	var once sync.Once
	sub.cancel = func() {
		once.Do(func() {
			h.mu.Lock()
			if m, ok := h.subs[collection]; ok {
				delete(m, id)
			}
			h.mu.Unlock()
		})
	}

	if h.subs[collection] == nil {
		h.subs[collection] = make(map[int]*Subscription)
	}
	h.subs[collection][id] = sub
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

// fanOut loads one fresh snapshot and pushes it to every local subscriber of
// the collection. The snapshot is loaded once per change, not per subscriber.
func (h *Hub) fanOut(ctx context.Context, collection string) {
	h.mu.Lock()
	targets := make([]*Subscription, 0, len(h.subs[collection]))
	for _, sub := range h.subs[collection] {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	loader, ok := h.loaders[collection]
	if !ok {
		return
	}
	data, err := loader(ctx)
	if err != nil {
		log.Error().Str("collection", collection).Err(err).Msg("feed: snapshot load failed")
		return
	}

	snap := Snapshot{Collection: collection, Data: data}
	for _, sub := range targets {
		// Coalesce: replace a pending unread snapshot with the newer one.
		select {
		case sub.ch <- snap:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- snap:
			default:
			}
		}
	}
}
