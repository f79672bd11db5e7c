package api

import (
	"encoding/json"
	"net/http"

	"github.com/callegarimattia/battleship-core/internal/events"
	"github.com/callegarimattia/battleship-core/internal/service"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// upgrader is permissive about origin since this is a same-origin game
// client in every deployment this server ships to; a reverse proxy in front
// of it is expected to enforce CORS if that ever changes.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketHandler implements the /ws fan-out transport of spec §6: a
// client subscribes to /topic/games/{gameCode} by sending its game code once
// the socket opens, and receives every events.Event for that game as JSON.
type WebSocketHandler struct {
	bus     events.Bus
	svc     *service.Service
	queryGC func(c echo.Context) string
}

// NewWebSocketHandler wires a WebSocketHandler over bus and svc (the latter
// drives connection-tracker session open/close on socket lifecycle).
func NewWebSocketHandler(bus events.Bus, svc *service.Service) *WebSocketHandler {
	return &WebSocketHandler{bus: bus, svc: svc, queryGC: func(c echo.Context) string { return c.QueryParam("gameCode") }}
}

// subscribeRequest is the first message a client sends after the handshake,
// identifying itself and the topic it wants.
type subscribeRequest struct {
	GameCode string `json:"gameCode"`
	PlayerID string `json:"playerId"`
	Name     string `json:"playerName"`
}

// Serve upgrades the connection and relays events.Bus traffic for the
// requested game code until the socket closes.
func (h *WebSocketHandler) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	var req subscribeRequest
	if err := conn.ReadJSON(&req); err != nil {
		return nil
	}
	if req.GameCode == "" {
		return conn.WriteJSON(errorPayload{Code: "BAD_REQUEST", Message: "gameCode is required"})
	}

	sessionID := uuid.NewString()
	ctx := c.Request().Context()
	if err := h.svc.OpenSession(ctx, req.GameCode, req.PlayerID, req.Name, sessionID); err != nil {
		return conn.WriteJSON(errorPayload{Code: "INTERNAL", Message: err.Error()})
	}
	defer h.svc.CloseSession(ctx, sessionID) //nolint:errcheck

	sub, ch := h.bus.Subscribe(req.GameCode)
	defer sub.Unsubscribe()

	// drain inbound frames (pings, disconnect detection) on a separate
	// goroutine so a slow/silent reader doesn't block outbound event
	// delivery.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return nil
			}
		case <-closed:
			return nil
		}
	}
}
