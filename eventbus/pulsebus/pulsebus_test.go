package pulsebus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"goa.design/pulse/streaming"
	streamopts "goa.design/pulse/streaming/options"

	"github.com/deepresearch/core/eventbus"
	"github.com/deepresearch/core/telemetry"
)

type fakeSink struct {
	events chan *streaming.Event
	acked  []*streaming.Event
}

func (s *fakeSink) Subscribe() <-chan *streaming.Event { return s.events }
func (s *fakeSink) Ack(_ context.Context, e *streaming.Event) error {
	s.acked = append(s.acked, e)
	return nil
}
func (s *fakeSink) Close(context.Context) {}

type fakeStream struct {
	added []struct {
		event   string
		payload []byte
	}
	sink    *fakeSink
	addErr  error
	sinkErr error
}

func (s *fakeStream) Add(_ context.Context, event string, payload []byte) (string, error) {
	if s.addErr != nil {
		return "", s.addErr
	}
	s.added = append(s.added, struct {
		event   string
		payload []byte
	}{event, payload})
	return "id", nil
}

func (s *fakeStream) NewSink(_ context.Context, _ string, _ ...streamopts.Sink) (Sink, error) {
	if s.sinkErr != nil {
		return nil, s.sinkErr
	}
	return s.sink, nil
}

type fakeClient struct {
	stream    *fakeStream
	streamErr error
}

func (c *fakeClient) Stream(_ string, _ ...streamopts.Stream) (Stream, error) {
	if c.streamErr != nil {
		return nil, c.streamErr
	}
	return c.stream, nil
}

func TestMirrorRequiresClient(t *testing.T) {
	bus := eventbus.New(telemetry.NewNoop())
	_, err := Mirror(context.Background(), nil, bus, "sess-1")
	require.Error(t, err)
}

func TestMirrorRepublishesEmittedEvents(t *testing.T) {
	stream := &fakeStream{}
	client := &fakeClient{stream: stream}
	bus := eventbus.New(telemetry.NewNoop())

	stop, err := Mirror(context.Background(), client, bus, "sess-1")
	require.NoError(t, err)
	defer stop()

	bus.Emit(context.Background(), "sess-1", eventbus.KindSearch, map[string]any{"query": "go concurrency"})

	require.Eventually(t, func() bool {
		return len(stream.added) == 1
	}, time.Second, 5*time.Millisecond)

	var env Envelope
	require.NoError(t, json.Unmarshal(stream.added[0].payload, &env))
	require.Equal(t, eventbus.KindSearch, env.Type)
	require.Equal(t, "sess-1", env.SessionID)
	require.Equal(t, uint64(1), env.Seq)
}

func TestReplayDecodesEnvelopesFromSink(t *testing.T) {
	payload, err := json.Marshal(Envelope{Type: eventbus.KindDone, SessionID: "sess-1", Seq: 3})
	require.NoError(t, err)

	sink := &fakeSink{events: make(chan *streaming.Event, 1)}
	sink.events <- &streaming.Event{Payload: payload}
	stream := &fakeStream{sink: sink}
	client := &fakeClient{stream: stream}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := Replay(ctx, client, "sess-1", "cg-1")
	require.NoError(t, err)

	select {
	case env := <-out:
		require.Equal(t, eventbus.KindDone, env.Type)
		require.Equal(t, uint64(3), env.Seq)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for replayed envelope")
	}
}

func TestReplayWrapsStreamOpenError(t *testing.T) {
	client := &fakeClient{streamErr: errors.New("boom")}
	_, err := Replay(context.Background(), client, "sess-1", "cg-1")
	require.Error(t, err)
}
