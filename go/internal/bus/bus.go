package bus

import (
	"context"
	"errors"

	"github.com/mcdev12/focusarcade/go/internal/models"
)

// ErrUnknownDriver is returned by Open for an unsupported bus.driver.
var ErrUnknownDriver = errors.New("unknown bus driver")

// Handler receives every message delivered to a subscription. It runs on the
// bus's delivery goroutine and must not block for long.
type Handler func(models.Message)

// Subscription is an active Subscribe call.
type Subscription interface {
	Unsubscribe() error
}

// Bus is a best-effort publish/subscribe transport. Nothing is replayed to
// subscribers that join after a publish.
type Bus interface {
	Publish(ctx context.Context, msg models.Message) error
	Subscribe(ctx context.Context, h Handler) (Subscription, error)
}

// Connectivity is implemented by buses backed by a network connection.
type Connectivity interface {
	Connected() bool
}
