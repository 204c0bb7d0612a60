package eventbus

import (
	"encoding/json"
	"fmt"
)

// wireFrame is the JSON payload embedded in each SSE frame's data: line.
type wireFrame struct {
	Type      Kind           `json:"type"`
	Data      map[string]any `json:"data"`
	EventID   uint64         `json:"event_id"`
	Seq       uint64         `json:"seq"`
	Timestamp int64          `json:"timestamp"`
	ThreadID  string         `json:"thread_id"`
}

// KeepaliveFrame is the exact line sent during idle periods between events.
const KeepaliveFrame = ": keepalive\n\n"

// EncodeFrame renders event as a Server-Sent-Events compatible frame:
//
//	id: <seq>
//	event: <kind>
//	data: <json>
//	<blank line>
func EncodeFrame(event Event) (string, error) {
	frame := wireFrame{
		Type:      event.Type,
		Data:      event.Data,
		EventID:   event.Seq,
		Seq:       event.Seq,
		Timestamp: event.Ts,
		ThreadID:  event.SessionID,
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		return "", fmt.Errorf("eventbus: encode frame: %w", err)
	}
	return fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", event.Seq, event.Type, payload), nil
}
