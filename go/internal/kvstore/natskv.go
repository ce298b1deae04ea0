package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/focusarcade/go/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// DefaultBlobKeys are the keys whose values can exceed the server's
// max_payload. They are stored as chunked objects instead of KV entries.
var DefaultBlobKeys = []string{models.KeyImage, models.KeyAudio}

// NATSStore keeps the shared state in a JetStream KeyValue bucket, with large
// values in a companion object store. Writes are not batched; each key is its
// own last-write-wins entry.
type NATSStore struct {
	nc    *nats.Conn
	kv    jetstream.KeyValue
	blobs jetstream.ObjectStore
	blob  map[string]bool
}

var _ Pinger = (*NATSStore)(nil)

// OpenNATS creates or reuses the bucket and its "<bucket>_assets" object
// store on the given connection. Keys in blobKeys go to the object store; nil
// means DefaultBlobKeys. The store does not own nc.
func OpenNATS(ctx context.Context, nc *nats.Conn, bucket string, blobKeys []string) (*NATSStore, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Focus arcade shared state",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", bucket, err)
	}

	assets := bucket + "_assets"
	obj, err := js.CreateOrUpdateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      assets,
		Description: "Focus arcade celebration assets",
	})
	if err != nil {
		return nil, fmt.Errorf("ensure object store %s: %w", assets, err)
	}

	log.Info().Str("bucket", bucket).Str("object_store", assets).Msg("nats kv store opened")
	return newNATSStore(nc, kv, obj, blobKeys), nil
}

func newNATSStore(nc *nats.Conn, kv jetstream.KeyValue, obj jetstream.ObjectStore, blobKeys []string) *NATSStore {
	if blobKeys == nil {
		blobKeys = DefaultBlobKeys
	}
	blob := make(map[string]bool, len(blobKeys))
	for _, k := range blobKeys {
		blob[k] = true
	}
	return &NATSStore{nc: nc, kv: kv, blobs: obj, blob: blob}
}

func (s *NATSStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.blob[key] {
		data, err := s.blobs.GetBytes(ctx, key)
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return "", false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("get object %s: %w", key, err)
		}
		return string(data), true, nil
	}

	entry, err := s.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return string(entry.Value()), true, nil
}

func (s *NATSStore) Set(ctx context.Context, key, value string) error {
	if s.blob[key] {
		if _, err := s.blobs.PutBytes(ctx, key, []byte(value)); err != nil {
			return fmt.Errorf("put object %s: %w", key, err)
		}
		return nil
	}
	if _, err := s.kv.Put(ctx, key, []byte(value)); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *NATSStore) Ping(_ context.Context) error {
	if !s.nc.IsConnected() {
		return errors.New("nats disconnected")
	}
	return nil
}
