package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/focusarcade/go/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds connection settings for the NATS bus and the NATS store.
type NATSConfig struct {
	URL           string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns the defaults used when nothing is configured.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Subject:       "focus-arcade",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Connect dials NATS with logging handlers attached.
func Connect(cfg NATSConfig) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("focus-arcade"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// NATSBus uses core NATS subjects, which like a browser broadcast channel
// never deliver to subscribers that were not listening at publish time.
type NATSBus struct {
	nc      *nats.Conn
	subject string
}

var (
	_ Bus          = (*NATSBus)(nil)
	_ Connectivity = (*NATSBus)(nil)
)

// NewNATSBus publishes and subscribes on subject. The bus does not own nc.
func NewNATSBus(nc *nats.Conn, subject string) *NATSBus {
	return &NATSBus{nc: nc, subject: subject}
}

func (b *NATSBus) Publish(_ context.Context, msg models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := b.nc.Publish(b.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", b.subject, err)
	}
	return nil
}

func (b *NATSBus) Subscribe(ctx context.Context, h Handler) (Subscription, error) {
	sub, err := b.nc.Subscribe(b.subject, func(m *nats.Msg) {
		msg, err := models.DecodeMessage(m.Data)
		if err != nil {
			log.Debug().Err(err).Str("subject", m.Subject).Msg("dropping undecodable bus frame")
			return
		}
		h(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", b.subject, err)
	}

	go func() {
		<-ctx.Done()
		if sub.IsValid() {
			if err := sub.Unsubscribe(); err != nil {
				log.Debug().Err(err).Msg("failed to unsubscribe on shutdown")
			}
		}
	}()

	log.Info().Str("subject", b.subject).Msg("subscribed to NATS bus")
	return sub, nil
}

func (b *NATSBus) Connected() bool {
	return b.nc.IsConnected()
}
