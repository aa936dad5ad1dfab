package amqp

import (
	"encoding/json"
	"errors"
	"fmt"

	"wealth/internal/core"
)

// EncodeRecordEvent serializes an event for publishing.
func EncodeRecordEvent(ev core.RecordEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// DecodeRecordEvent parses a delivery body and rejects events that are
// missing their identity or carry an unknown action or kind.
func DecodeRecordEvent(data []byte) (core.RecordEvent, error) {
	var ev core.RecordEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return core.RecordEvent{}, fmt.Errorf("decode record event: %w", err)
	}
	switch {
	case ev.ID == "":
		return core.RecordEvent{}, errors.New("record event without id")
	case ev.RecordID == "":
		return core.RecordEvent{}, errors.New("record event without record_id")
	case !ev.Action.IsValid():
		return core.RecordEvent{}, fmt.Errorf("unknown record event action %q", ev.Action)
	case !ev.Kind.IsValid():
		return core.RecordEvent{}, fmt.Errorf("unknown record kind %q", ev.Kind)
	}
	return ev, nil
}
