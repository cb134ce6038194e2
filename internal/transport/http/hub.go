package http

import (
	"sync"
	"time"
)

// client is one connected player's outbound queue.
type client struct {
	playerID string
	send     chan outboundMessage
}

// hub tracks which players are connected to each lobby and owns the
// round-expiry timers. The engine itself holds no timer state.
type hub struct {
	mu      sync.Mutex
	lobbies map[string]*lobbyClients
}

type lobbyClients struct {
	clients map[*client]struct{}
	timer   *time.Timer
}

func newHub() *hub {
	return &hub{lobbies: make(map[string]*lobbyClients)}
}

func (h *hub) join(lobbyID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	lc, ok := h.lobbies[lobbyID]
	if !ok {
		lc = &lobbyClients{clients: make(map[*client]struct{})}
		h.lobbies[lobbyID] = lc
	}
	lc.clients[c] = struct{}{}
}

// leave removes the client and reports whether the lobby is now empty.
func (h *hub) leave(lobbyID string, c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	lc, ok := h.lobbies[lobbyID]
	if !ok {
		return false
	}
	delete(lc.clients, c)
	if len(lc.clients) == 0 {
		if lc.timer != nil {
			lc.timer.Stop()
		}
		delete(h.lobbies, lobbyID)
		return true
	}
	return false
}

// roster lists the player ids currently connected to a lobby.
func (h *hub) roster(lobbyID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	lc, ok := h.lobbies[lobbyID]
	if !ok {
		return nil
	}
	players := make([]string, 0, len(lc.clients))
	seen := make(map[string]struct{}, len(lc.clients))
	for c := range lc.clients {
		if _, dup := seen[c.playerID]; dup {
			continue
		}
		seen[c.playerID] = struct{}{}
		players = append(players, c.playerID)
	}
	return players
}

func (h *hub) broadcast(lobbyID string, msg outboundMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	lc, ok := h.lobbies[lobbyID]
	if !ok {
		return
	}
	for c := range lc.clients {
		select {
		case c.send <- msg:
		default:
			// Drop rather than block the lobby on a slow client.
		}
	}
}

// scheduleExpiry arms the lobby's round timer, replacing any previous one.
func (h *hub) scheduleExpiry(lobbyID string, d time.Duration, fire func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	lc, ok := h.lobbies[lobbyID]
	if !ok {
		return
	}
	if lc.timer != nil {
		lc.timer.Stop()
	}
	lc.timer = time.AfterFunc(d, fire)
}

// cancelExpiry stops the lobby's round timer after an early finish.
func (h *hub) cancelExpiry(lobbyID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	lc, ok := h.lobbies[lobbyID]
	if ok && lc.timer != nil {
		lc.timer.Stop()
		lc.timer = nil
	}
}
