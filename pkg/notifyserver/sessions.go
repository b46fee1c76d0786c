package notifyserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Sessions maps opaque cookie tokens to user ids.
type Sessions interface {
	Create(ctx context.Context, userID string) (string, error)
	// Lookup returns ErrSessionNotFound for unknown or expired tokens.
	Lookup(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

type memorySession struct {
	userID  string
	expires time.Time
}

// MemorySessions keeps sessions in process memory.
type MemorySessions struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu       sync.Mutex
	sessions map[string]memorySession
}

func NewMemorySessions(ttl time.Duration, clock clockwork.Clock) *MemorySessions {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemorySessions{
		clock:    clock,
		ttl:      ttl,
		sessions: make(map[string]memorySession),
	}
}

func (m *MemorySessions) Create(_ context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrMissingUserID
	}
	token := uuid.NewString()
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = memorySession{userID: userID, expires: now.Add(m.ttl)}
	// Expired sessions are swept on write.
	for t, s := range m.sessions {
		if !now.Before(s.expires) {
			delete(m.sessions, t)
		}
	}
	return token, nil
}

func (m *MemorySessions) Lookup(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok || !m.clock.Now().Before(s.expires) {
		return "", ErrSessionNotFound
	}
	return s.userID, nil
}

func (m *MemorySessions) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// KV is a key-value store with expiring entries. *redis.Storage implements it.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, exp time.Duration) error
	Delete(ctx context.Context, key string) error
}

// KVSessions keeps sessions in a KV store so they survive restarts and are
// shared between instances.
type KVSessions struct {
	kv  KV
	ttl time.Duration
}

func NewKVSessions(kv KV, ttl time.Duration) *KVSessions {
	return &KVSessions{kv: kv, ttl: ttl}
}

func sessionKey(token string) string { return "session:" + token }

func (k *KVSessions) Create(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrMissingUserID
	}
	token := uuid.NewString()
	if err := k.kv.Set(ctx, sessionKey(token), []byte(userID), k.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

func (k *KVSessions) Lookup(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrSessionNotFound
	}
	val, err := k.kv.Get(ctx, sessionKey(token))
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if len(val) == 0 {
		return "", ErrSessionNotFound
	}
	return string(val), nil
}

func (k *KVSessions) Delete(ctx context.Context, token string) error {
	if err := k.kv.Delete(ctx, sessionKey(token)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
