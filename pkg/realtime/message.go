package realtime

import (
	"encoding/json"
	"fmt"
)

const (
	EventAuthenticate        = "authenticate"
	EventReceiveNotification = "receive-notification"
)

// Message is a single JSON text frame.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// AuthenticatePayload is the data of the authenticate event.
type AuthenticatePayload struct {
	UserID string `json:"userId"`
}

// NewMessage encodes data as the payload of event.
func NewMessage(event string, data any) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return Message{Event: event, Data: raw}, nil
}
