package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/mcdev12/focusarcade/go/internal/models"
	"github.com/rs/zerolog/log"
)

// PostgresConfig configures the LISTEN/NOTIFY bus.
type PostgresConfig struct {
	DatabaseURL  string // DSN for the dedicated LISTEN connection
	Channel      string
	PingInterval time.Duration
	MinReconnect time.Duration
	MaxReconnect time.Duration
}

// DefaultPostgresConfig returns the listener defaults.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Channel:      "focus_arcade",
		PingInterval: 90 * time.Second,
		MinReconnect: 10 * time.Second,
		MaxReconnect: time.Minute,
	}
}

// PostgresBus publishes with pg_notify on a pooled connection and receives
// on one pq.Listener per subscription.
type PostgresBus struct {
	pool      *pgxpool.Pool
	cfg       PostgresConfig
	connected atomic.Bool
}

var (
	_ Bus          = (*PostgresBus)(nil)
	_ Connectivity = (*PostgresBus)(nil)
)

// NewPostgresBus does not own pool.
func NewPostgresBus(pool *pgxpool.Pool, cfg PostgresConfig) *PostgresBus {
	b := &PostgresBus{pool: pool, cfg: cfg}
	b.connected.Store(true)
	return b
}

func (b *PostgresBus) Publish(ctx context.Context, msg models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if _, err := b.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, b.cfg.Channel, string(data)); err != nil {
		return fmt.Errorf("notify %s: %w", b.cfg.Channel, err)
	}
	return nil
}

type pgSubscription struct {
	listener *pq.Listener
	stop     chan struct{}
	once     sync.Once
}

func (s *pgSubscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		close(s.stop)
		err = s.listener.Close()
	})
	return err
}

func (b *PostgresBus) Subscribe(ctx context.Context, h Handler) (Subscription, error) {
	l := pq.NewListener(
		b.cfg.DatabaseURL,
		b.cfg.MinReconnect,
		b.cfg.MaxReconnect,
		func(ev pq.ListenerEventType, err error) {
			switch ev {
			case pq.ListenerEventConnected, pq.ListenerEventReconnected:
				b.connected.Store(true)
			case pq.ListenerEventDisconnected, pq.ListenerEventConnectionAttemptFailed:
				b.connected.Store(false)
			}
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(b.cfg.Channel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	sub := &pgSubscription{listener: l, stop: make(chan struct{})}
	go b.listen(ctx, sub, h)

	log.Info().Str("channel", b.cfg.Channel).Msg("listening for notifications")
	return sub, nil
}

func (b *PostgresBus) listen(ctx context.Context, sub *pgSubscription, h Handler) {
	pingTicker := time.NewTicker(b.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			sub.Unsubscribe()
			return
		case <-sub.stop:
			return
		case note, ok := <-sub.listener.Notify:
			if !ok {
				return
			}
			if note == nil {
				// nil notification means the connection was re-established;
				// anything sent meanwhile is lost, the poll path covers it.
				continue
			}
			msg, err := models.DecodeMessage([]byte(note.Extra))
			if err != nil {
				log.Debug().Err(err).Str("channel", note.Channel).Msg("dropping undecodable bus frame")
				continue
			}
			h(msg)
		case <-pingTicker.C:
			if err := sub.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (b *PostgresBus) Connected() bool {
	return b.connected.Load()
}
