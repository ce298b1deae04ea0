package bus

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
)

// Drivers accepted by Open.
const (
	DriverNone     = "none"
	DriverLocal    = "local"
	DriverNATS     = "nats"
	DriverPostgres = "postgres"
)

// Options selects and configures a bus.
type Options struct {
	Driver       string
	NATSConn     *nats.Conn
	NATSSubject  string
	PostgresPool *pgxpool.Pool
	Postgres     PostgresConfig
}

// Open builds the configured bus. A nil Bus with a nil error means the bus is
// disabled and displays rely on polling alone.
func Open(opts Options) (Bus, error) {
	switch opts.Driver {
	case DriverNone:
		return nil, nil
	case "", DriverLocal:
		return NewLocalBus(), nil
	case DriverNATS:
		if opts.NATSConn == nil {
			return nil, fmt.Errorf("nats bus requires a connection")
		}
		return NewNATSBus(opts.NATSConn, opts.NATSSubject), nil
	case DriverPostgres:
		if opts.PostgresPool == nil {
			return nil, fmt.Errorf("postgres bus requires a pool")
		}
		return NewPostgresBus(opts.PostgresPool, opts.Postgres), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}
