package notify

import (
	"log"
	"sync"
)

// ChannelKind distinguishes the logical channels the hub fans out to. A
// typed key avoids the stringly-typed "orders_user_<id>" concatenation bugs.
type ChannelKind uint8

const (
	// KindStaff is the single broadcast channel every operational
	// connection joins.
	KindStaff ChannelKind = iota
	// KindOwner is the per-customer channel keyed by principal id.
	KindOwner
)

// ChannelKey addresses one logical channel. OwnerID is empty for KindStaff.
type ChannelKey struct {
	Kind    ChannelKind
	OwnerID string
}

// StaffChannel returns the key of the global staff channel.
func StaffChannel() ChannelKey {
	return ChannelKey{Kind: KindStaff}
}

// OwnerChannel returns the key of the channel scoped to one owner.
func OwnerChannel(ownerID string) ChannelKey {
	return ChannelKey{Kind: KindOwner, OwnerID: ownerID}
}

// Subscription is one consumer's attachment to a channel. Envelopes arrive
// on C; a subscriber that stops draining loses messages rather than blocking
// publishers.
type Subscription struct {
	key ChannelKey
	hub *Hub

	C chan Envelope

	once sync.Once
}

// Close detaches the subscription from the hub and closes C.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
		close(s.C)
	})
}

// Hub is the in-process broadcast surface the realtime transport attaches
// to. Writers never block on the number or liveness of readers.
type Hub struct {
	mu   sync.RWMutex
	subs map[ChannelKey]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[ChannelKey]map[*Subscription]struct{})}
}

// Subscribe attaches a consumer to a channel. buffer bounds how many
// undelivered envelopes the subscription holds before drops begin.
func (h *Hub) Subscribe(key ChannelKey, buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	sub := &Subscription{key: key, hub: h, C: make(chan Envelope, buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[*Subscription]struct{})
	}
	h.subs[key][sub] = struct{}{}
	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[sub.key]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.key)
		}
	}
}

// Broadcast delivers env to every subscription on key. Delivery is
// best-effort: a full subscription buffer drops the envelope.
func (h *Hub) Broadcast(key ChannelKey, env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[key] {
		select {
		case sub.C <- env:
		default:
			log.Printf("[Notify] Dropping envelope for order %d: slow subscriber on channel %+v", env.Data.OrderID, key)
		}
	}
}

// SubscriberCount reports how many subscriptions a channel currently has.
func (h *Hub) SubscriberCount(key ChannelKey) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[key])
}
