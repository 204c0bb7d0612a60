package eventbus

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepresearch/core/telemetry"
)

func TestBusEmitFanOutAndSeq(t *testing.T) {
	bus := New(telemetry.NewNoop())
	ctx := context.Background()

	var count int64
	sub := bus.Subscribe("s1", ListenerFunc(func(_ context.Context, e Event) {
		atomic.AddInt64(&count, 1)
	}))
	defer sub.Close()

	e1 := bus.Emit(ctx, "s1", KindSearch, map[string]any{"query": "a"})
	e2 := bus.Emit(ctx, "s1", KindSearch, map[string]any{"query": "b"})

	require.Equal(t, uint64(1), e1.Seq)
	require.Equal(t, uint64(2), e2.Seq)
	require.Equal(t, int64(2), atomic.LoadInt64(&count))
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	bus := New(telemetry.NewNoop())
	ctx := context.Background()

	var count int64
	sub := bus.Subscribe("s1", ListenerFunc(func(_ context.Context, e Event) {
		atomic.AddInt64(&count, 1)
	}))
	bus.Emit(ctx, "s1", KindContent, nil)
	sub.Close()
	sub.Close() // idempotent
	bus.Emit(ctx, "s1", KindContent, nil)

	require.Equal(t, int64(1), atomic.LoadInt64(&count))
}

func TestBufferedReplaySinceSeq(t *testing.T) {
	bus := New(telemetry.NewNoop())
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		bus.Emit(ctx, "s1", KindContent, nil)
	}
	replayed := bus.Buffered("s1", 3)
	require.Len(t, replayed, 2)
	require.Equal(t, uint64(4), replayed[0].Seq)
	require.Equal(t, uint64(5), replayed[1].Seq)
}

func TestBufferEvictsOldestBeyondCapacity(t *testing.T) {
	bus := New(telemetry.NewNoop())
	ctx := context.Background()
	for i := 0; i < defaultBufferCapacity+10; i++ {
		bus.Emit(ctx, "s1", KindContent, nil)
	}
	buffered := bus.Buffered("s1", 0)
	require.Len(t, buffered, defaultBufferCapacity)
	require.Equal(t, uint64(11), buffered[0].Seq)
}

func TestEncodeFrameIncludesSeqAlways(t *testing.T) {
	e := Event{Type: KindDone, Data: map[string]any{"ok": true}, Seq: 42, Ts: 100, SessionID: "s1"}
	text, err := EncodeFrame(e)
	require.NoError(t, err)
	require.Contains(t, text, "id: 42\n")
	require.Contains(t, text, "event: done\n")
	require.Contains(t, text, `"seq":42`)
}
