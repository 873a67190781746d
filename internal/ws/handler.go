package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"energy_controller/internal/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LatestCommand is satisfied by the engine wiring, giving a newly connected
// client something to render before the next tick's broadcast arrives.
type LatestCommand interface {
	Latest() (model.Command, bool)
}

// Handler upgrades incoming requests to WebSocket connections and registers
// them with the hub. This daemon's clients are read-only observers: there
// is no client-to-server control protocol, only the server's
// command:update broadcasts.
type Handler struct {
	hub        *Hub
	latest     LatestCommand
	instanceID string
	logger     zerolog.Logger
}

// NewHandler builds a Handler. latest may be nil if no "send current state
// on connect" behaviour is wanted.
func NewHandler(hub *Hub, latest LatestCommand, instanceID string, logger zerolog.Logger) *Handler {
	return &Handler{hub: hub, latest: latest, instanceID: instanceID, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade")
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	go client.writePump()

	h.sendHello(client)
	h.sendLatest(client)

	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
		// Clients are read-only observers; any inbound message is ignored.
	}
}

func (h *Handler) sendHello(c *Client) {
	msg, err := NewEnvelope(TypeHello, HelloPayload{InstanceID: h.instanceID})
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *Handler) sendLatest(c *Client) {
	if h.latest == nil {
		return
	}
	cmd, ok := h.latest.Latest()
	if !ok {
		return
	}
	msg, err := CommandEnvelope(cmd)
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
