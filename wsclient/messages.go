package wsclient

import (
	"encoding/json"
	"fmt"

	"github.com/c360/plantstream/errors"
)

// Envelope wraps every message on the channel with type discrimination.
// The type tag is application-defined; the client never interprets it,
// it only routes the decoded envelope to subscribers.
type Envelope struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp,omitempty"` // Unix milliseconds
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// parseEnvelope decodes an inbound frame. A frame without a type tag is
// malformed: subscribers branch on the tag, so an untagged message is
// undeliverable.
func parseEnvelope(data []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, errors.WrapInvalid(err, "wsclient", "parseEnvelope", "unmarshal message")
	}
	if envelope.Type == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("missing message type"),
			"wsclient", "parseEnvelope", "validate envelope")
	}
	return &envelope, nil
}
