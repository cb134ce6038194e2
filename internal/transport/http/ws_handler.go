package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"trivia-round-service/internal/domain"
	"trivia-round-service/internal/round"
	"trivia-round-service/internal/rules"
)

type WSHandler struct {
	engine   *round.Engine
	hub      *hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(engine *round.Engine, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		engine: engine,
		hub:    newHub(),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	DurationMs int64 `json:"durationMs"`
}

type submitPayload struct {
	Value string   `json:"value,omitempty"`
	Items []string `json:"items,omitempty"`
}

type setFilterPayload struct {
	Expression string `json:"expression"`
}

type flagPayload struct {
	QuestionID string `json:"questionId"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type rosterPayload struct {
	LobbyID string   `json:"lobbyId"`
	Players []string `json:"players"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the
// round engine. Identity comes from query params; the lobby roster is the
// set of connected players.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	lobbyID := r.URL.Query().Get("lobbyId")
	playerID := r.URL.Query().Get("playerId")
	if lobbyID == "" || playerID == "" {
		http.Error(w, "missing lobbyId or playerId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := &client{playerID: playerID, send: make(chan outboundMessage, 16)}
	h.hub.join(lobbyID, c)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write failed", "lobby", lobbyID, "player", playerID, "error", err)
				return
			}
		}
	}()

	h.hub.broadcast(lobbyID, outboundMessage{Type: "roster", Payload: rosterPayload{
		LobbyID: lobbyID,
		Players: h.hub.roster(lobbyID),
	}})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r.Context(), lobbyID, playerID, c, inbound)
	}

	if h.hub.leave(lobbyID, c) {
		h.engine.DropLobby(lobbyID)
	} else {
		h.hub.broadcast(lobbyID, outboundMessage{Type: "roster", Payload: rosterPayload{
			LobbyID: lobbyID,
			Players: h.hub.roster(lobbyID),
		}})
	}
	close(c.send)
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, lobbyID, playerID string, c *client, inbound inboundMessage) {
	switch inbound.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.send <- errMsg("invalid start payload")
			return
		}
		h.startRound(ctx, lobbyID, c, time.Duration(payload.DurationMs)*time.Millisecond)
	case "submit":
		var payload submitPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.send <- errMsg("invalid submit payload")
			return
		}
		h.submit(lobbyID, playerID, c, payload)
	case "setFilter":
		var payload setFilterPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.send <- errMsg("invalid setFilter payload")
			return
		}
		h.engine.SetFilter(lobbyID, payload.Expression)
		c.send <- outboundMessage{Type: "filterSet", Payload: setFilterPayload{Expression: payload.Expression}}
	case "flag":
		var payload flagPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuestionID == "" {
			c.send <- errMsg("invalid flag payload")
			return
		}
		if err := h.engine.FlagQuestion(ctx, payload.QuestionID, playerID); err != nil {
			c.send <- errMsg(err.Error())
			return
		}
		c.send <- outboundMessage{Type: "flagged", Payload: payload}
	default:
		c.send <- errMsg("unsupported message type")
	}
}

func (h *WSHandler) startRound(ctx context.Context, lobbyID string, c *client, duration time.Duration) {
	payload, err := h.engine.Start(ctx, lobbyID, duration)
	if err != nil {
		c.send <- errMsg(err.Error())
		return
	}
	h.hub.broadcast(lobbyID, outboundMessage{Type: "round", Payload: payload})

	// The engine holds no timer; expiry is driven from here.
	h.hub.scheduleExpiry(lobbyID, duration, func() {
		if summary, ok := h.engine.Finalize(lobbyID, domain.EndTimer); ok {
			h.hub.broadcast(lobbyID, outboundMessage{Type: "roundSummary", Payload: summary})
		}
	})
}

func (h *WSHandler) submit(lobbyID, playerID string, c *client, payload submitPayload) {
	result := h.engine.Submit(lobbyID, playerID, rules.Input{
		Value: payload.Value,
		Items: payload.Items,
	})
	c.send <- outboundMessage{Type: "submitResult", Payload: result}

	switch result.Status {
	case domain.StatusCorrect, domain.StatusIncorrect, domain.StatusSubmitted:
	default:
		return
	}
	if reason, ended := h.engine.CheckEnd(lobbyID, h.hub.roster(lobbyID)); ended {
		if summary, ok := h.engine.Finalize(lobbyID, reason); ok {
			h.hub.cancelExpiry(lobbyID)
			h.hub.broadcast(lobbyID, outboundMessage{Type: "roundSummary", Payload: summary})
		}
	}
}

func errMsg(message string) outboundMessage {
	return outboundMessage{Type: "error", Payload: errorPayload{Message: message}}
}
