package display

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mcdev12/focusarcade/go/internal/kvstore"
	"github.com/mcdev12/focusarcade/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerShowsThenHides(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, models.KeyImage, "data:image/gif;base64,R0lG"))
	r := &fakeRenderer{}
	clock := newFakeClock()
	p := NewPlayer(store, r, clock)

	p.Play(ctx, models.TriggerRecord{At: 1, DurationMs: 4000, Message: "Level up"})

	assert.Equal(t, StateShowing, p.State())
	assert.Equal(t, epoch.Add(4*time.Second), p.Deadline())
	assert.Equal(t, []string{"assets", "show", "restart", "play_audio"}, r.names())
	assert.Equal(t, "Level up", r.lastShown())
	assert.Equal(t, "data:image/gif;base64,R0lG", r.currentAssets().Image)

	clock.Advance(3999 * time.Millisecond)
	assert.Equal(t, StateShowing, p.State())

	clock.Advance(time.Millisecond)
	require.Eventually(t, func() bool { return p.State() == StateIdle }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"assets", "show", "restart", "play_audio", "hide", "stop_audio"}, r.names())
	assert.True(t, p.Deadline().IsZero())
}

func TestPlayerDefaultsMissingDuration(t *testing.T) {
	tests := []struct {
		name       string
		durationMs int64
	}{
		{name: "missing", durationMs: 0},
		{name: "negative", durationMs: -20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			p := NewPlayer(kvstore.NewMemoryStore(), &fakeRenderer{}, clock)
			p.Play(context.Background(), models.TriggerRecord{At: 1, DurationMs: tt.durationMs})
			assert.Equal(t, epoch.Add(models.DefaultDuration), p.Deadline())
			p.Stop()
		})
	}
}

func TestPlayerSecondPlayResetsDeadline(t *testing.T) {
	ctx := context.Background()
	r := &fakeRenderer{}
	clock := newFakeClock()
	p := NewPlayer(kvstore.NewMemoryStore(), r, clock)

	p.Play(ctx, models.TriggerRecord{At: 1, DurationMs: 4000, Message: "first"})
	clock.Advance(3 * time.Second)
	p.Play(ctx, models.TriggerRecord{At: 2, DurationMs: 2000, Message: "second"})

	// Reset to 3s + 2s, not extended to 4s + 2s.
	assert.Equal(t, epoch.Add(5*time.Second), p.Deadline())
	assert.Equal(t, "second", r.lastShown())

	// The first countdown would have fired at 4s.
	clock.Advance(1999 * time.Millisecond)
	assert.Equal(t, StateShowing, p.State())
	assert.Equal(t, 0, r.count("hide"))

	clock.Advance(time.Millisecond)
	require.Eventually(t, func() bool { return p.State() == StateIdle }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, r.count("hide"))
	assert.Equal(t, uint64(2), p.Plays())
}

func TestPlayerStaleExpiryIgnored(t *testing.T) {
	ctx := context.Background()
	r := &fakeRenderer{}
	p := NewPlayer(kvstore.NewMemoryStore(), r, newFakeClock())

	p.Play(ctx, models.TriggerRecord{At: 1, DurationMs: 4000})
	p.Play(ctx, models.TriggerRecord{At: 2, DurationMs: 4000})

	// A countdown from the first play that fired before it could be stopped.
	p.expire(1)

	assert.Equal(t, StateShowing, p.State())
	assert.Equal(t, 0, r.count("hide"))
	p.Stop()
}

func TestPlayerSwallowsAudioFailure(t *testing.T) {
	r := &fakeRenderer{audioErr: errors.New("autoplay refused")}
	p := NewPlayer(kvstore.NewMemoryStore(), r, newFakeClock())

	p.Play(context.Background(), models.TriggerRecord{At: 1, DurationMs: 1000})

	assert.Equal(t, StateShowing, p.State())
	assert.False(t, p.Deadline().IsZero())
	p.Stop()
}

func TestPlayerKeepsPlayingWhenAssetsUnreadable(t *testing.T) {
	r := &fakeRenderer{}
	p := NewPlayer(brokenStore{}, r, newFakeClock())

	p.Play(context.Background(), models.TriggerRecord{At: 1, DurationMs: 1000, Message: "still here"})

	assert.Equal(t, StateShowing, p.State())
	assert.Equal(t, 0, r.count("assets"))
	assert.Equal(t, "still here", r.lastShown())
	p.Stop()
}

func TestPlayerStopCancelsCountdown(t *testing.T) {
	r := &fakeRenderer{}
	clock := newFakeClock()
	p := NewPlayer(kvstore.NewMemoryStore(), r, clock)

	p.Play(context.Background(), models.TriggerRecord{At: 1, DurationMs: 1000})
	p.Stop()
	clock.Advance(2 * time.Second)

	assert.Equal(t, StateShowing, p.State())
	assert.Equal(t, 0, r.count("hide"))
}
