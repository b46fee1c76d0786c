// Package redis connects the reference backend to Redis.
//
// Connect retries the initial ping according to Config, Storage is a small
// prefixed key-value view used for session tokens, and Healthcheck plugs the
// connection into the readiness probe of pkg/httpserver.
//
//	client, err := redis.Connect(ctx, cfg, log)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	kv := redis.NewStorage(client, cfg.KeyPrefix)
//	_ = kv.Set(ctx, "session:abc", []byte("alice"), time.Hour)
//
// Notification storage itself lives in pkg/notifications (RedisStorage) and
// takes the same client.
package redis
