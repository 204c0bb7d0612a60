// Package pulsebus mirrors a session's event bus onto a goa.design/pulse
// stream so multiple process instances can subscribe to, and replay, the
// same session. It is optional: Bus (the in-process implementation)
// already satisfies the specification on its own; pulsebus only matters
// when the event stream must fan out beyond one process.
package pulsebus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"goa.design/pulse/streaming"
	streamopts "goa.design/pulse/streaming/options"

	"github.com/deepresearch/core/eventbus"
)

// Client exposes the subset of the Pulse API pulsebus requires.
type Client interface {
	Stream(name string, opts ...streamopts.Stream) (Stream, error)
}

// Stream exposes the subset of a Pulse stream handle pulsebus requires.
type Stream interface {
	Add(ctx context.Context, event string, payload []byte) (string, error)
	NewSink(ctx context.Context, name string, opts ...streamopts.Sink) (Sink, error)
}

// Sink exposes the subset of a Pulse consumer-group sink pulsebus requires.
type Sink interface {
	Subscribe() <-chan *streaming.Event
	Ack(context.Context, *streaming.Event) error
	Close(context.Context)
}

// Envelope is the JSON payload written to the Pulse stream for every event.
type Envelope struct {
	Type      eventbus.Kind  `json:"type"`
	Data      map[string]any `json:"data"`
	Seq       uint64         `json:"seq"`
	Ts        int64          `json:"ts"`
	SessionID string         `json:"session_id"`
}

// Mirror subscribes to a Bus session and republishes every event onto the
// Pulse stream named "session/<sessionID>". The returned function stops
// the mirror and unsubscribes from the bus.
func Mirror(ctx context.Context, client Client, bus *eventbus.Bus, sessionID string) (stop func(), err error) {
	if client == nil {
		return nil, errors.New("pulsebus: client is required")
	}
	stream, err := client.Stream(streamName(sessionID))
	if err != nil {
		return nil, fmt.Errorf("pulsebus: open stream: %w", err)
	}

	sub := bus.SubscribeAsync(sessionID, eventbus.ListenerFunc(func(ctx context.Context, e eventbus.Event) {
		payload, err := json.Marshal(Envelope{Type: e.Type, Data: e.Data, Seq: e.Seq, Ts: e.Ts, SessionID: e.SessionID})
		if err != nil {
			return
		}
		addCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_, _ = stream.Add(addCtx, string(e.Type), payload)
	}))

	return func() { sub.Close() }, nil
}

// Replay opens a Pulse consumer group on the session's stream and decodes
// incoming entries into Envelope values, for a process that reconnects
// without ever having held the in-process Bus (e.g. a second instance
// behind a load balancer).
func Replay(ctx context.Context, client Client, sessionID, consumerGroup string) (<-chan Envelope, error) {
	stream, err := client.Stream(streamName(sessionID))
	if err != nil {
		return nil, fmt.Errorf("pulsebus: open stream: %w", err)
	}
	sink, err := stream.NewSink(ctx, consumerGroup)
	if err != nil {
		return nil, fmt.Errorf("pulsebus: open sink: %w", err)
	}

	out := make(chan Envelope)
	go func() {
		defer close(out)
		defer sink.Close(context.WithoutCancel(ctx))
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-sink.Subscribe():
				if !ok {
					return
				}
				var env Envelope
				if err := json.Unmarshal(evt.Payload, &env); err == nil {
					select {
					case out <- env:
					case <-ctx.Done():
						return
					}
				}
				_ = sink.Ack(ctx, evt)
			}
		}
	}()
	return out, nil
}

func streamName(sessionID string) string { return "session/" + sessionID }
