package models

import (
	"encoding/json"
	"fmt"
)

// MessageType identifies a bus message.
type MessageType string

const (
	MessageTypeTrigger       MessageType = "TRIGGER"
	MessageTypeAssetsUpdated MessageType = "ASSETS_UPDATED"
)

// Message is the wire shape of everything sent over the bus. Trigger fields
// are empty for ASSETS_UPDATED.
type Message struct {
	Type       MessageType `json:"type"`
	At         int64       `json:"at"`
	DurationMs int64       `json:"durationMs,omitempty"`
	Message    string      `json:"message,omitempty"`
}

// TriggerRecord returns the trigger carried by a TRIGGER message.
func (m Message) TriggerRecord() TriggerRecord {
	return TriggerRecord{
		At:         m.At,
		DurationMs: m.DurationMs,
		Message:    m.Message,
	}
}

// NewAssetsUpdatedMessage builds the asset reload signal.
func NewAssetsUpdatedMessage(at int64) Message {
	return Message{Type: MessageTypeAssetsUpdated, At: at}
}

// DecodeMessage parses a bus frame. A frame without a type is rejected;
// unknown types decode fine and are left for the receiver to ignore.
func DecodeMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("unmarshal message: %w", err)
	}
	if m.Type == "" {
		return Message{}, fmt.Errorf("message has no type")
	}
	return m, nil
}
