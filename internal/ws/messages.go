package ws

import (
	"encoding/json"

	"energy_controller/internal/model"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants.
const (
	// Server -> Client
	TypeCommandUpdate = "command:update"
	TypeHello         = "hello"
)

// HelloPayload is sent once when a client connects, so it has something to
// render before the next tick's command arrives.
type HelloPayload struct {
	InstanceID string `json:"instance_id"`
}

// NewEnvelope marshals payload (or omits it if nil) into a typed envelope.
func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

// CommandEnvelope builds the command:update envelope broadcast after every
// tick.
func CommandEnvelope(cmd model.Command) ([]byte, error) {
	return NewEnvelope(TypeCommandUpdate, cmd)
}
