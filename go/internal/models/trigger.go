package models

import (
	"encoding/json"
	"time"
)

// DefaultDuration is used when a trigger carries no usable duration.
const DefaultDuration = 4 * time.Second

// TriggerRecord is the latest celebration request. Only the newest one is
// ever observable; At is the ordering signal.
type TriggerRecord struct {
	At         int64  `json:"at"`
	DurationMs int64  `json:"durationMs"`
	Message    string `json:"message"`
}

// MarshalJSON stores the record in the same shape as its bus message so a
// stored trigger and a pushed one are interchangeable.
func (t TriggerRecord) MarshalJSON() ([]byte, error) {
	type record TriggerRecord
	return json.Marshal(struct {
		Type MessageType `json:"type"`
		record
	}{
		Type:   MessageTypeTrigger,
		record: record(t),
	})
}

// Duration returns the playback length, falling back to DefaultDuration.
func (t TriggerRecord) Duration() time.Duration {
	if t.DurationMs <= 0 {
		return DefaultDuration
	}
	return time.Duration(t.DurationMs) * time.Millisecond
}

// ToMessage wraps the record for the bus.
func (t TriggerRecord) ToMessage() Message {
	return Message{
		Type:       MessageTypeTrigger,
		At:         t.At,
		DurationMs: t.DurationMs,
		Message:    t.Message,
	}
}
