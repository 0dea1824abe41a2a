package notify

import (
	"context"
	"strconv"

	"github.com/example/menu-orders/internal/dispatch"
)

// Bridge carries envelopes to out-of-process consumers (the notifier
// gateway). The Kafka producer satisfies it.
type Bridge interface {
	Publish(ctx context.Context, key string, event any) error
}

// Fanout publishes one committed order event to every interested channel:
// the global staff channel, the owner channel, and the bridge. All delivery
// is best-effort; a failed or unobserved publish never reaches the caller.
type Fanout struct {
	hub    *Hub
	bridge Bridge
	pool   *dispatch.Dispatcher
}

func NewFanout(hub *Hub, bridge Bridge, pool *dispatch.Dispatcher) *Fanout {
	return &Fanout{hub: hub, bridge: bridge, pool: pool}
}

// Publish fans env out. Draft orders are invisible to the outside world and
// are never published.
func (f *Fanout) Publish(ctx context.Context, env Envelope) {
	if env.Data.Status == "draft" {
		return
	}

	f.hub.Broadcast(StaffChannel(), env)
	f.hub.Broadcast(OwnerChannel(env.Data.Owner.ID), env)

	if f.bridge == nil {
		return
	}
	key := strconv.FormatInt(env.Data.OrderID, 10)
	f.pool.Dispatch("notify.bridge", func(ctx context.Context) error {
		return f.bridge.Publish(ctx, key, env)
	})
}
