package eventbus

import (
	"context"
	"sync"

	"github.com/deepresearch/core/telemetry"
)

const defaultBufferCapacity = 100

// Listener receives events published to a session. A panic in HandleEvent
// is recovered and logged, never propagated to the emitter.
type Listener interface {
	HandleEvent(ctx context.Context, event Event)
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc func(ctx context.Context, event Event)

// HandleEvent calls f.
func (f ListenerFunc) HandleEvent(ctx context.Context, event Event) { f(ctx, event) }

type subscriberEntry struct {
	id       uint64
	listener Listener
	async    bool
}

type sessionBuffer struct {
	mu        sync.Mutex
	seq       uint64
	ring      []Event
	capacity  int
	listeners []subscriberEntry
	nextSubID uint64
}

// Bus fans out sequenced events to per-session subscribers and buffers the
// most recent events for replay on reconnect.
type Bus struct {
	mu       sync.Mutex
	sessions map[string]*sessionBuffer
	telem    telemetry.Bundle
}

// New constructs an empty Bus. Pass telemetry.NewNoop() when observability
// is not wired.
func New(telem telemetry.Bundle) *Bus {
	return &Bus{sessions: make(map[string]*sessionBuffer), telem: telem}
}

func (b *Bus) session(sessionID string) *sessionBuffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	sb, ok := b.sessions[sessionID]
	if !ok {
		sb = &sessionBuffer{capacity: defaultBufferCapacity}
		b.sessions[sessionID] = sb
	}
	return sb
}

// Emit atomically assigns the next sequence number for session, appends the
// event to the session's ring buffer (evicting the oldest entry once the
// buffer is full), and synchronously invokes every sync listener followed
// by every async listener (each on its own goroutine), in registration
// order. Listener panics/errors never propagate to the caller.
func (b *Bus) Emit(ctx context.Context, sessionID string, kind Kind, data map[string]any) Event {
	sb := b.session(sessionID)

	sb.mu.Lock()
	sb.seq++
	event := Event{Type: kind, Data: data, Seq: sb.seq, Ts: now(), SessionID: sessionID}
	sb.ring = append(sb.ring, event)
	if len(sb.ring) > sb.capacity {
		sb.ring = sb.ring[len(sb.ring)-sb.capacity:]
	}
	listeners := make([]subscriberEntry, len(sb.listeners))
	copy(listeners, sb.listeners)
	sb.mu.Unlock()

	for _, l := range listeners {
		if l.async {
			continue
		}
		b.dispatch(ctx, l, event)
	}
	for _, l := range listeners {
		if !l.async {
			continue
		}
		go b.dispatch(context.WithoutCancel(ctx), l, event)
	}
	return event
}

// EmitFromSyncCaller is the best-effort emission entry point for code that
// does not itself run inside the bus's normal emission path (e.g. a
// provider adapter callback). It runs Emit on a new goroutine and returns
// at once, so the caller never waits on any listener; the event's sequence
// number is assigned when that goroutine runs, and the Event is not
// returned to the caller.
func (b *Bus) EmitFromSyncCaller(ctx context.Context, sessionID string, kind Kind, data map[string]any) {
	go b.Emit(context.WithoutCancel(ctx), sessionID, kind, data)
}

func (b *Bus) dispatch(ctx context.Context, entry subscriberEntry, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.telem.Logger.Error(ctx, "eventbus: listener panicked", "session_id", event.SessionID, "recover", r)
		}
	}()
	entry.listener.HandleEvent(ctx, event)
}

// Subscription unregisters a listener when closed. Close is idempotent.
type Subscription struct {
	close func()
	once  sync.Once
}

// Close unregisters the listener. Safe to call multiple times.
func (s *Subscription) Close() {
	s.once.Do(func() {
		if s.close != nil {
			s.close()
		}
	})
}

// Subscribe registers listener to receive every event emitted for session
// from this point forward, invoked synchronously in the emitting
// goroutine. Use SubscribeAsync for listeners that should run off the
// emitting path.
func (b *Bus) Subscribe(sessionID string, listener Listener) *Subscription {
	return b.subscribe(sessionID, listener, false)
}

// SubscribeAsync registers listener to receive events on its own goroutine
// per event, decoupling slow listeners from the emission path.
func (b *Bus) SubscribeAsync(sessionID string, listener Listener) *Subscription {
	return b.subscribe(sessionID, listener, true)
}

func (b *Bus) subscribe(sessionID string, listener Listener, async bool) *Subscription {
	sb := b.session(sessionID)
	sb.mu.Lock()
	sb.nextSubID++
	id := sb.nextSubID
	sb.listeners = append(sb.listeners, subscriberEntry{id: id, listener: listener, async: async})
	sb.mu.Unlock()

	return &Subscription{close: func() {
		sb.mu.Lock()
		defer sb.mu.Unlock()
		for i, l := range sb.listeners {
			if l.id == id {
				sb.listeners = append(sb.listeners[:i], sb.listeners[i+1:]...)
				break
			}
		}
	}}
}

// Buffered returns a copy of the buffered events for session with
// Seq > sinceSeq, in ascending Seq order.
func (b *Bus) Buffered(sessionID string, sinceSeq uint64) []Event {
	sb := b.session(sessionID)
	sb.mu.Lock()
	defer sb.mu.Unlock()
	out := make([]Event, 0, len(sb.ring))
	for _, e := range sb.ring {
		if e.Seq > sinceSeq {
			out = append(out, e)
		}
	}
	return out
}

// CloseSession drops the session's buffer and listener set. Per-session
// resource cleanup hooks (cancellation, sandboxes) are the caller's
// responsibility; CloseSession only releases bus-owned state.
func (b *Bus) CloseSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, sessionID)
}
