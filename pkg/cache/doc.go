// Package cache holds the small caching primitives notifykit is built on.
//
// LRU is a generic, thread-safe least-recently-used cache with an optional
// eviction callback, used by the reference backend to bound the number of
// per-user broadcasters it keeps open:
//
//	c := cache.NewLRU[string, io.Closer](1000,
//	    cache.WithEvictCallback(func(_ string, v io.Closer) { _ = v.Close() }),
//	)
//	b := c.GetOrCreate(userID, newBroadcaster)
//
// Stamp is a time-to-live freshness marker. The inbox store keeps one Stamp
// per cached resource (list, unread count): Touch after a successful fetch,
// Fresh to decide whether a network call can be skipped, Invalidate after a
// mutation that makes the cached value stale. The clock is injected so TTL
// expiry is testable with a fake clock.
package cache
