// Package broadcast provides type-safe one-to-many fan-out with per-subscriber
// buffering.
//
// The inbox store publishes snapshots through it, the realtime channel
// publishes received events, the toast queue publishes its visible items and
// the reference backend keeps one broadcaster per user to feed socket
// connections.
//
// Basic usage:
//
//	b := broadcast.NewMemoryBroadcaster[string](10)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	_ = b.Broadcast(ctx, broadcast.Message[string]{Data: "hello"})
//
//	for msg := range sub.Receive(ctx) {
//		fmt.Println(msg.Data)
//	}
//
// A broadcaster never blocks on a slow consumer. What happens to a full
// subscriber buffer is chosen with WithPolicy: DropSubscriber (the default)
// closes and removes the subscriber, DropOldest discards its oldest buffered
// message so it always sees the most recent state.
//
// Subscribers are cleaned up when their context is cancelled, when they are
// closed explicitly, or when the broadcaster is closed.
package broadcast
