package eventbus

import (
	"context"
	"time"
)

// defaultKeepaliveInterval matches the specification's 10s idle keepalive.
const defaultKeepaliveInterval = 10 * time.Second

// Frame is either a rendered SSE text frame or an error terminating the
// stream.
type Frame struct {
	Text string
	Err  error
}

// Stream replays buffered events for session with Seq > sinceSeq, then
// streams new events as they occur, emitting a keepalive frame every 10s
// of idleness. The returned channel is closed when a "done" event is
// observed, when timeout elapses, or when ctx is cancelled; in every case
// the bus subscription created internally is unsubscribed before the
// channel closes.
func (b *Bus) Stream(ctx context.Context, sessionID string, timeout time.Duration, sinceSeq uint64) <-chan Frame {
	out := make(chan Frame)

	go func() {
		defer close(out)

		events := make(chan Event, 64)
		sub := b.Subscribe(sessionID, ListenerFunc(func(_ context.Context, e Event) {
			select {
			case events <- e:
			default:
				// Backpressure: drop rather than block the emitting goroutine;
				// the client can reconnect with Last-Event-ID to recover.
			}
		}))
		defer sub.Close()

		for _, e := range b.Buffered(sessionID, sinceSeq) {
			if !emitFrame(out, e) {
				return
			}
			if e.Type == KindDone {
				return
			}
		}

		var timeoutCh <-chan time.Time
		if timeout > 0 {
			timer := time.NewTimer(timeout)
			defer timer.Stop()
			timeoutCh = timer.C
		}

		keepalive := time.NewTicker(defaultKeepaliveInterval)
		defer keepalive.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timeoutCh:
				return
			case <-keepalive.C:
				select {
				case out <- Frame{Text: KeepaliveFrame}:
				case <-ctx.Done():
					return
				}
			case e := <-events:
				keepalive.Reset(defaultKeepaliveInterval)
				if !emitFrame(out, e) {
					return
				}
				if e.Type == KindDone {
					return
				}
			}
		}
	}()

	return out
}

func emitFrame(out chan<- Frame, e Event) bool {
	text, err := EncodeFrame(e)
	if err != nil {
		out <- Frame{Err: err}
		return false
	}
	out <- Frame{Text: text}
	return true
}
