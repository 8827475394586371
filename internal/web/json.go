package web

import (
	"encoding/json"

	"github.com/sweeney/smart-home/internal/status"
)

// Envelope is one websocket message.
type Envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Envelope types.
const (
	TypeStatus = "status"
)

func formatFrame(snap status.Snapshot) ([]byte, error) {
	return json.Marshal(Envelope{Type: TypeStatus, Data: status.FormatJSON(snap)})
}
