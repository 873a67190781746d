package ws

import (
	"github.com/rs/zerolog"

	"energy_controller/internal/model"
)

// Bridge implements engine.Observer and broadcasts each tick's command
// record to the WebSocket hub.
type Bridge struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewBridge builds a Bridge broadcasting through hub.
func NewBridge(hub *Hub, logger zerolog.Logger) *Bridge {
	return &Bridge{hub: hub, logger: logger}
}

// OnCommand satisfies engine.Observer.
func (b *Bridge) OnCommand(cmd model.Command) {
	msg, err := CommandEnvelope(cmd)
	if err != nil {
		b.logger.Error().Err(err).Msg("marshalling command envelope")
		return
	}
	b.hub.Broadcast(msg)
}
