package memory

import "sync"

// SettingsStore is an in-memory implementation of round.SettingsStore.
type SettingsStore struct {
	mu      sync.RWMutex
	filters map[string]string
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{
		filters: make(map[string]string),
	}
}

func (s *SettingsStore) Filter(lobbyID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters[lobbyID]
}

func (s *SettingsStore) SetFilter(lobbyID, expression string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters[lobbyID] = expression
}

func (s *SettingsStore) Drop(lobbyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.filters, lobbyID)
}
