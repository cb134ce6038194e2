package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SettingsStore is a Redis-backed implementation of round.SettingsStore.
// Notes:
//   - A local map is the source of truth for this instance; Redis writes are
//     best-effort so a flaky cache never blocks a lobby.
//   - Reads fall back to Redis on a local miss, so filters survive restarts.
type SettingsStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	local  map[string]string
}

func NewSettingsStore(client *redis.Client, ttl time.Duration) *SettingsStore {
	return &SettingsStore{
		client: client,
		ttl:    ttl,
		local:  make(map[string]string),
	}
}

func (s *SettingsStore) Filter(lobbyID string) string {
	s.mu.RLock()
	expr, ok := s.local[lobbyID]
	s.mu.RUnlock()
	if ok {
		return expr
	}

	expr, err := s.client.Get(context.Background(), s.key(lobbyID)).Result()
	if err != nil {
		return ""
	}
	s.mu.Lock()
	s.local[lobbyID] = expr
	s.mu.Unlock()
	return expr
}

func (s *SettingsStore) SetFilter(lobbyID, expression string) {
	s.mu.Lock()
	s.local[lobbyID] = expression
	s.mu.Unlock()
	_ = s.client.Set(context.Background(), s.key(lobbyID), expression, s.ttl).Err()
}

func (s *SettingsStore) Drop(lobbyID string) {
	s.mu.Lock()
	delete(s.local, lobbyID)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(lobbyID)).Err()
}

func (s *SettingsStore) key(lobbyID string) string {
	return "lobby:filter:" + lobbyID
}
