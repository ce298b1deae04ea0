package display

import (
	"context"
	"testing"
	"time"

	"github.com/mcdev12/focusarcade/go/internal/bus"
	"github.com/mcdev12/focusarcade/go/internal/kvstore"
	"github.com/mcdev12/focusarcade/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSession(t *testing.T, s *Session) (context.Context, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return ctx, func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("session did not stop")
		}
	}
}

func TestPollPlaysOnlyNewerTriggers(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	r := &fakeRenderer{}
	s := NewSession(store, nil, r, newFakeClock(), Config{})
	defer s.Player().Stop()

	assert.False(t, s.Poll(ctx), "nothing stored yet")

	storeTrigger(t, store, models.TriggerRecord{At: 100, DurationMs: 4000, Message: "a"})
	assert.True(t, s.Poll(ctx))
	assert.Equal(t, int64(100), s.LastSeenAt())
	assert.False(t, s.Poll(ctx), "same record plays once")

	storeTrigger(t, store, models.TriggerRecord{At: 90, DurationMs: 4000})
	assert.False(t, s.Poll(ctx), "older record is ignored")

	storeTrigger(t, store, models.TriggerRecord{At: 101, DurationMs: 4000, Message: "b"})
	assert.True(t, s.Poll(ctx))
	assert.Equal(t, "b", r.lastShown())
	assert.Equal(t, 2, r.count("show"))
}

func TestPollIgnoresMalformedTrigger(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, models.KeyLastTrigger, "{not json"))
	s := NewSession(store, nil, &fakeRenderer{}, newFakeClock(), Config{})

	assert.False(t, s.Poll(ctx))
	assert.Equal(t, StateIdle, s.State())
	assert.Zero(t, s.LastSeenAt())
}

func TestPollIgnoresStoreErrors(t *testing.T) {
	s := NewSession(brokenStore{}, nil, &fakeRenderer{}, newFakeClock(), Config{})
	assert.False(t, s.Poll(context.Background()))
}

func TestPullPathHidesWithinOnePollOfDuration(t *testing.T) {
	store := kvstore.NewMemoryStore()
	r := &fakeRenderer{}
	clock := newFakeClock()
	s := NewSession(store, nil, r, clock, Config{PollInterval: 500 * time.Millisecond})

	ctx, stop := runSession(t, s)
	defer stop()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	// Published at t=0 by the controller.
	storeTrigger(t, store, models.TriggerRecord{At: epoch.UnixMilli(), DurationMs: 4000, Message: "focus"})

	clock.Advance(500 * time.Millisecond)
	// Poll ticker plus the hide countdown.
	require.NoError(t, clock.BlockUntilContext(ctx, 2))
	assert.Equal(t, StateShowing, s.State())

	clock.Advance(3499 * time.Millisecond) // t=3999
	assert.Equal(t, StateShowing, s.State())

	clock.Advance(500 * time.Millisecond) // t=4499
	assert.Equal(t, StateShowing, s.State())

	clock.Advance(time.Millisecond) // t=4500
	require.Eventually(t, func() bool { return s.State() == StateIdle }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, r.count("show"))
	assert.Equal(t, 1, r.count("hide"))
}

func TestPushPathPlaysImmediately(t *testing.T) {
	store := kvstore.NewMemoryStore()
	b := bus.NewLocalBus()
	r := &fakeRenderer{}
	s := NewSession(store, b, r, newFakeClock(), Config{})

	ctx, stop := runSession(t, s)
	defer stop()
	require.Eventually(t, func() bool { return b.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	rec := models.TriggerRecord{At: 42, DurationMs: 3000, Message: "pushed"}
	require.NoError(t, b.Publish(ctx, rec.ToMessage()))

	require.Eventually(t, func() bool { return s.State() == StateShowing }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "pushed", r.lastShown())
	// Push does not advance the poll cursor.
	assert.Zero(t, s.LastSeenAt())
}

func TestAssetsUpdatedReloadsWithoutPlaying(t *testing.T) {
	store := kvstore.NewMemoryStore()
	b := bus.NewLocalBus()
	r := &fakeRenderer{}
	s := NewSession(store, b, r, newFakeClock(), Config{})

	ctx, stop := runSession(t, s)
	defer stop()
	require.Eventually(t, func() bool { return b.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Set(ctx, models.KeyAudio, "data:audio/mpeg;base64,SUQz"))
	require.NoError(t, b.Publish(ctx, models.NewAssetsUpdatedMessage(1)))

	require.Eventually(t, func() bool {
		return r.currentAssets().Audio == "data:audio/mpeg;base64,SUQz"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, 0, r.count("show"))
}

func TestHandleMessageIgnoresUnknownTypes(t *testing.T) {
	r := &fakeRenderer{}
	s := NewSession(kvstore.NewMemoryStore(), nil, r, newFakeClock(), Config{})

	s.HandleMessage(context.Background(), models.Message{Type: "CONFETTI", At: 1})

	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, r.names())
}

func TestRunLoadsAssetsOnStart(t *testing.T) {
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), models.KeyImage, "data:image/gif;base64,R0lG"))
	r := &fakeRenderer{}
	clock := newFakeClock()
	s := NewSession(store, nil, r, clock, Config{})

	ctx, stop := runSession(t, s)
	defer stop()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	assert.Equal(t, "data:image/gif;base64,R0lG", r.currentAssets().Image)
	assert.Equal(t, StateIdle, s.State())
}

func TestLateDisplayPlaysLatestTriggerOnce(t *testing.T) {
	store := kvstore.NewMemoryStore()
	storeTrigger(t, store, models.TriggerRecord{At: epoch.UnixMilli() - 60_000, DurationMs: 4000})
	r := &fakeRenderer{}
	clock := newFakeClock()
	s := NewSession(store, nil, r, clock, Config{})

	ctx, stop := runSession(t, s)
	defer stop()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(DefaultPollInterval)
	require.NoError(t, clock.BlockUntilContext(ctx, 2))
	assert.Equal(t, 1, r.count("show"))

	assert.False(t, s.Poll(ctx))
}
