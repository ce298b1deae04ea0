package display

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/focusarcade/go/internal/celebration"
	"github.com/mcdev12/focusarcade/go/internal/kvstore"
	"github.com/mcdev12/focusarcade/go/internal/models"
	"github.com/rs/zerolog/log"
)

// State of the overlay.
type State string

const (
	StateIdle    State = "idle"
	StateShowing State = "showing"
)

// Player is the Idle -> Showing -> Idle machine both delivery paths feed.
// Playing while already Showing restarts the countdown with the new duration;
// nothing is queued.
type Player struct {
	store    kvstore.Store
	renderer Renderer
	clock    clockwork.Clock

	mu         sync.Mutex
	state      State
	current    models.TriggerRecord
	deadline   time.Time
	hideTimer  clockwork.Timer
	generation uint64
	plays      uint64
}

// NewPlayer creates an idle player.
func NewPlayer(store kvstore.Store, renderer Renderer, clock clockwork.Clock) *Player {
	return &Player{
		store:    store,
		renderer: renderer,
		clock:    clock,
		state:    StateIdle,
	}
}

// Play shows rec. Assets are reloaded first so a late upload is always
// reflected.
func (p *Player) Play(ctx context.Context, rec models.TriggerRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reloadAssetsLocked(ctx)

	p.renderer.Show(rec.Message)
	p.renderer.RestartVisual()
	if err := p.renderer.PlayAudio(); err != nil {
		log.Debug().Err(err).Msg("audio playback unavailable")
	}

	d := rec.Duration()
	now := p.clock.Now()
	p.generation++
	gen := p.generation
	p.replaceTimer(p.clock.AfterFunc(d, func() { p.expire(gen) }))

	p.state = StateShowing
	p.current = rec
	p.deadline = now.Add(d)
	p.plays++

	log.Debug().
		Int64("at", rec.At).
		Dur("duration", d).
		Time("deadline", p.deadline).
		Msg("playback started")
}

// ReloadAssets refreshes the renderer's sources without playing.
func (p *Player) ReloadAssets(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reloadAssetsLocked(ctx)
}

// Stop cancels any armed countdown. The overlay is left as is.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	if p.hideTimer != nil {
		p.hideTimer.Stop()
		p.hideTimer = nil
	}
}

// State returns the current state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Deadline returns when the current showing ends; zero when idle.
func (p *Player) Deadline() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateShowing {
		return time.Time{}
	}
	return p.deadline
}

// Current returns the trigger being shown.
func (p *Player) Current() (models.TriggerRecord, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.state == StateShowing
}

// Plays counts every Play call, including restarts.
func (p *Player) Plays() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plays
}

// expire ends the showing armed as generation gen. A countdown that was
// replaced after it fired finds a newer generation and does nothing.
func (p *Player) expire(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation || p.state != StateShowing {
		return
	}
	p.renderer.Hide()
	p.renderer.StopAudio()
	p.state = StateIdle
	p.hideTimer = nil
	p.deadline = time.Time{}

	log.Debug().Int64("at", p.current.At).Msg("playback finished")
}

// replaceTimer cancels the armed countdown, if any, and keeps t instead.
func (p *Player) replaceTimer(t clockwork.Timer) {
	if p.hideTimer != nil && p.hideTimer.Stop() {
		log.Debug().Msg("replaced pending hide timer")
	}
	p.hideTimer = t
}

func (p *Player) reloadAssetsLocked(ctx context.Context) {
	loadout, err := celebration.LoadLoadout(ctx, p.store)
	if err != nil {
		log.Warn().Err(err).Msg("failed to reload assets, keeping previous ones")
		return
	}
	p.renderer.SetAssets(loadout)
}
