package display

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/focusarcade/go/internal/bus"
	"github.com/mcdev12/focusarcade/go/internal/kvstore"
	"github.com/mcdev12/focusarcade/go/internal/models"
	"github.com/rs/zerolog/log"
)

// DefaultPollInterval is how often the stored trigger is re-read.
const DefaultPollInterval = 500 * time.Millisecond

// Config tunes a Session.
type Config struct {
	PollInterval time.Duration
}

// Session is one display context. It feeds the player from the bus (push)
// and from the stored trigger (pull).
type Session struct {
	store        kvstore.Store
	bus          bus.Bus
	player       *Player
	clock        clockwork.Clock
	pollInterval time.Duration

	mu         sync.Mutex
	lastSeenAt int64
}

// NewSession builds a session. b may be nil, in which case only polling
// delivers triggers. A nil clock means the real one.
func NewSession(store kvstore.Store, b bus.Bus, renderer Renderer, clock clockwork.Clock, cfg Config) *Session {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if renderer == nil {
		renderer = LogRenderer{}
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Session{
		store:        store,
		bus:          b,
		player:       NewPlayer(store, renderer, clock),
		clock:        clock,
		pollInterval: interval,
	}
}

// Player exposes the session's player.
func (s *Session) Player() *Player { return s.player }

// State is shorthand for Player().State().
func (s *Session) State() State { return s.player.State() }

// LastSeenAt is the timestamp of the last trigger played from the store.
func (s *Session) LastSeenAt() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeenAt
}

// Run delivers triggers until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	var sub bus.Subscription
	if s.bus != nil {
		var err error
		sub, err = s.bus.Subscribe(ctx, func(msg models.Message) {
			s.HandleMessage(ctx, msg)
		})
		if err != nil {
			log.Warn().Err(err).Msg("bus subscribe failed, falling back to polling only")
			sub = nil
		}
	}

	s.player.ReloadAssets(ctx)

	ticker := s.clock.NewTicker(s.pollInterval)
	defer func() {
		ticker.Stop()
		if sub != nil {
			if err := sub.Unsubscribe(); err != nil {
				log.Debug().Err(err).Msg("bus unsubscribe failed")
			}
		}
		s.player.Stop()
		log.Info().Msg("display session stopped")
	}()

	log.Info().
		Dur("poll_interval", s.pollInterval).
		Bool("push", sub != nil).
		Msg("display session started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			s.Poll(ctx)
		}
	}
}

// HandleMessage applies one bus message. Unknown types are ignored.
func (s *Session) HandleMessage(ctx context.Context, msg models.Message) {
	switch msg.Type {
	case models.MessageTypeTrigger:
		s.player.Play(ctx, msg.TriggerRecord())
	case models.MessageTypeAssetsUpdated:
		s.player.ReloadAssets(ctx)
	default:
		log.Debug().Str("type", string(msg.Type)).Msg("ignoring unknown bus message")
	}
}

// Poll plays the stored trigger if it is newer than the last one seen and
// reports whether it did.
func (s *Session) Poll(ctx context.Context) bool {
	var rec models.TriggerRecord
	ok, err := kvstore.GetJSON(ctx, s.store, models.KeyLastTrigger, &rec)
	if err != nil {
		log.Debug().Err(err).Msg("poll read failed")
		return false
	}
	if !ok {
		return false
	}

	s.mu.Lock()
	if rec.At <= s.lastSeenAt {
		s.mu.Unlock()
		return false
	}
	s.lastSeenAt = rec.At
	s.mu.Unlock()

	s.player.Play(ctx, rec)
	return true
}
