// Package notifyserver is the reference backend for the notification REST
// and push contracts.
//
// Server is an http.Handler built on chi. Every REST route answers with the
// {success, message, data} envelope of pkg/notifyapi and requires the session
// cookie issued by POST /auth/session. GET /socket upgrades to a websocket,
// waits for an authenticate event naming the cookie's user, then streams
// receive-notification events delivered through a notifications.Manager.
//
//	deliverer := notifications.NewBroadcastDeliverer(16)
//	manager := notifications.NewManager(notifications.NewMemoryStorage(), deliverer)
//	srv := notifyserver.New(manager, deliverer, notifyserver.WithLogger(log))
//	http.ListenAndServe(":8080", srv)
//
// Sessions are kept in memory by default; KVSessions stores them in any
// key-value store such as pkg/redis.Storage.
package notifyserver
