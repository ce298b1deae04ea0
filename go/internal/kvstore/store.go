package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrUnknownDriver is returned by Open for an unsupported store.driver.
var ErrUnknownDriver = errors.New("unknown store driver")

// Store is the shared key-value medium both roles read and write. It has no
// transactional guarantees; the last write wins.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// BatchStore is implemented by backends that can commit several keys at once.
type BatchStore interface {
	Store
	SetMany(ctx context.Context, kvs map[string]string) error
}

// Pinger is implemented by backends with a connection worth health-checking.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SetAll writes every pair, atomically when the backend supports it.
func SetAll(ctx context.Context, s Store, kvs map[string]string) error {
	if bs, ok := s.(BatchStore); ok {
		return bs.SetMany(ctx, kvs)
	}
	for k, v := range kvs {
		if err := s.Set(ctx, k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return nil
}

// GetJSON decodes the value at key into v. Absent keys and values that fail
// to decode both report false; only backend failures are returned as errors.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("ignoring malformed stored value")
		return false, nil
	}
	return true, nil
}

// EncodeJSON marshals v for Set or SetAll.
func EncodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(data), nil
}

// SetJSON stores v as JSON under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := EncodeJSON(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, raw)
}
