package kvstore

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNATS     = "nats"
)

// Options selects and configures a backend.
type Options struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
	NATSConn    *nats.Conn
	NATSBucket  string
	// NATSBlobKeys go to the object store; nil means DefaultBlobKeys.
	NATSBlobKeys []string
}

// Open builds the configured store. The caller closes it if it implements
// io.Closer.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		s, err := OpenSQLite(ctx, opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := OpenPostgres(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverNATS:
		if opts.NATSConn == nil {
			return nil, fmt.Errorf("nats store requires a connection")
		}
		s, err := OpenNATS(ctx, opts.NATSConn, opts.NATSBucket, opts.NATSBlobKeys)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}
