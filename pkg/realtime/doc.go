// Package realtime maintains the single push connection that delivers new
// notifications to the client.
//
// A Channel resolves the session identity, dials a transport, authenticates by
// sending {"event":"authenticate","data":{"userId":...}} before reading
// anything, then relays every receive-notification event in order: the inbox
// store first, the toast queue second, and a desktop notification last when
// permission was granted.
//
// Connection lifecycle:
//
//	idle -> resolving_identity -> connecting -> authenticated
//	authenticated -> disconnected -> connecting      (server closed, reopen now)
//	authenticated -> disconnected -> reconnecting    (transport error)
//	reconnecting -> connecting                       (after the retry delay)
//	connecting -> failed                             (max consecutive failures)
//	any -> closed                                    (Close)
//
// Reconnection uses a fixed delay (5s) and at most 5 consecutive failed
// attempts, the first attempt included. A successful connect resets the
// counter. Once failed, nothing happens until Restart.
//
// Transports: WebSocketDialer (duplex), PollingDialer (REST polling) and
// FallbackDialer, which prefers the first and degrades to the second.
package realtime
