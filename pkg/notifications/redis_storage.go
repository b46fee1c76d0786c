package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps each user's notifications in one hash keyed by
// notification id, values are the JSON encoded notifications.
type RedisStorage struct {
	client redis.UniversalClient
	opts   storageOptions
}

func NewRedisStorage(client redis.UniversalClient, opts ...StorageOption) *RedisStorage {
	o := defaultStorageOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &RedisStorage{client: client, opts: o}
}

func (s *RedisStorage) key(userID string) string {
	return s.opts.keyPrefix + userID
}

func (s *RedisStorage) Create(ctx context.Context, notif Notification) error {
	if notif.UserID == "" {
		return ErrMissingUserID
	}
	if err := notif.Validate(); err != nil {
		return err
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = s.opts.clock.Now()
	}

	data, err := json.Marshal(notif)
	if err != nil {
		return fmt.Errorf("notifications: encode %s: %w", notif.ID, err)
	}

	ok, err := s.client.HSetNX(ctx, s.key(notif.UserID), notif.ID, data).Result()
	if err != nil {
		return fmt.Errorf("notifications: create: %w", err)
	}
	if !ok {
		return ErrNotificationExists
	}
	return nil
}

func (s *RedisStorage) Get(ctx context.Context, userID, notifID string) (Notification, error) {
	data, err := s.client.HGet(ctx, s.key(userID), notifID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Notification{}, ErrNotificationNotFound
	}
	if err != nil {
		return Notification{}, fmt.Errorf("notifications: get: %w", err)
	}
	return decodeStored(data)
}

func (s *RedisStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	all, err := s.all(ctx, userID)
	if err != nil {
		return nil, err
	}
	return applyListOptions(all, opts, s.opts.clock.Now()), nil
}

// MarkRead uses optimistic locking so a concurrent delete is never resurrected.
func (s *RedisStorage) MarkRead(ctx context.Context, userID, notifID string) error {
	key := s.key(userID)
	return s.watch(ctx, key, func(tx *redis.Tx) error {
		data, err := tx.HGet(ctx, key, notifID).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotificationNotFound
		}
		if err != nil {
			return err
		}

		n, err := decodeStored(data)
		if err != nil {
			return err
		}
		if n.Read {
			return nil
		}
		n.MarkAsRead(s.opts.clock.Now())
		updated, err := json.Marshal(n)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, notifID, updated)
			return nil
		})
		return err
	})
}

func (s *RedisStorage) MarkAllRead(ctx context.Context, userID string) error {
	key := s.key(userID)
	return s.watch(ctx, key, func(tx *redis.Tx) error {
		values, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}

		now := s.opts.clock.Now()
		updates := make(map[string]any)
		for id, raw := range values {
			n, err := decodeStored([]byte(raw))
			if err != nil || n.Read {
				continue
			}
			n.MarkAsRead(now)
			data, err := json.Marshal(n)
			if err != nil {
				return err
			}
			updates[id] = data
		}
		if len(updates) == 0 {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, updates)
			return nil
		})
		return err
	})
}

func (s *RedisStorage) Delete(ctx context.Context, userID, notifID string) error {
	removed, err := s.client.HDel(ctx, s.key(userID), notifID).Result()
	if err != nil {
		return fmt.Errorf("notifications: delete: %w", err)
	}
	if removed == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *RedisStorage) DeleteAll(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("notifications: delete all: %w", err)
	}
	return nil
}

func (s *RedisStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	all, err := s.all(ctx, userID)
	if err != nil {
		return 0, err
	}
	return countUnread(all, s.opts.clock.Now()), nil
}

// all loads every stored notification of the user, skipping undecodable entries.
func (s *RedisStorage) all(ctx context.Context, userID string) ([]Notification, error) {
	values, err := s.client.HVals(ctx, s.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("notifications: list: %w", err)
	}

	list := make([]Notification, 0, len(values))
	for _, raw := range values {
		n, err := decodeStored([]byte(raw))
		if err != nil {
			continue
		}
		list = append(list, n)
	}
	return list, nil
}

func (s *RedisStorage) watch(ctx context.Context, key string, fn func(*redis.Tx) error) error {
	const maxRetries = 5
	for range maxRetries {
		err := s.client.Watch(ctx, fn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, ErrNotificationNotFound) {
			return fmt.Errorf("notifications: update %s: %w", key, err)
		}
		return err
	}
	return fmt.Errorf("notifications: update %s: %w", key, redis.TxFailedErr)
}

func decodeStored(data []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return Notification{}, fmt.Errorf("notifications: decode stored: %w", err)
	}
	return n, nil
}
