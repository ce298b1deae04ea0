package bus

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/focusarcade/go/internal/models"
	"github.com/rs/zerolog/log"
)

const localSubscriberBuffer = 64

// LocalBus fans messages out to subscribers in the same process.
type LocalBus struct {
	mu   sync.RWMutex
	subs map[string]*localSubscription
}

// NewLocalBus creates an empty hub.
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[string]*localSubscription)}
}

var _ Bus = (*LocalBus)(nil)

type localSubscription struct {
	id   string
	bus  *LocalBus
	ch   chan models.Message
	done chan struct{}
	once sync.Once
}

// Publish hands msg to every subscriber. A subscriber whose buffer is full
// misses the message.
func (b *LocalBus) Publish(_ context.Context, msg models.Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, s := range b.subs {
		select {
		case s.ch <- msg:
		default:
			log.Warn().
				Str("subscription_id", s.id).
				Str("type", string(msg.Type)).
				Msg("subscriber buffer full, dropping message")
		}
	}
	return nil
}

// Subscribe delivers messages to h until Unsubscribe is called or ctx ends.
func (b *LocalBus) Subscribe(ctx context.Context, h Handler) (Subscription, error) {
	s := &localSubscription{
		id:   uuid.New().String()[:8],
		bus:  b,
		ch:   make(chan models.Message, localSubscriberBuffer),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	b.subs[s.id] = s
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				s.Unsubscribe()
				return
			case <-s.done:
				return
			case msg := <-s.ch:
				h(msg)
			}
		}
	}()

	log.Debug().Str("subscription_id", s.id).Msg("local bus subscriber added")
	return s, nil
}

// Subscribers returns the number of live subscriptions.
func (b *LocalBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (s *localSubscription) Unsubscribe() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		s.bus.mu.Unlock()
		close(s.done)
	})
	return nil
}
