package kvstore

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mcdev12/focusarcade/go/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// maxPayload mirrors the NATS server default.
const maxPayload = 1 << 20

type fakeEntry struct {
	jetstream.KeyValueEntry
	value []byte
}

func (e fakeEntry) Value() []byte { return e.value }

// fakeKV rejects values above maxPayload like a default server does.
type fakeKV struct {
	jetstream.KeyValue
	data map[string][]byte
}

func (f *fakeKV) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	v, ok := f.data[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	return fakeEntry{value: v}, nil
}

func (f *fakeKV) Put(_ context.Context, key string, value []byte) (uint64, error) {
	if len(value) > maxPayload {
		return 0, nats.ErrMaxPayload
	}
	f.data[key] = bytes.Clone(value)
	return uint64(len(f.data)), nil
}

type fakeObjects struct {
	jetstream.ObjectStore
	data map[string][]byte
}

func (f *fakeObjects) PutBytes(_ context.Context, name string, data []byte) (*jetstream.ObjectInfo, error) {
	f.data[name] = bytes.Clone(data)
	return &jetstream.ObjectInfo{Size: uint64(len(data))}, nil
}

func (f *fakeObjects) GetBytes(_ context.Context, name string, _ ...jetstream.GetObjectOpt) ([]byte, error) {
	v, ok := f.data[name]
	if !ok {
		return nil, jetstream.ErrObjectNotFound
	}
	return v, nil
}

func newFakeNATSStore() (*NATSStore, *fakeKV, *fakeObjects) {
	kv := &fakeKV{data: map[string][]byte{}}
	obj := &fakeObjects{data: map[string][]byte{}}
	return newNATSStore(nil, kv, obj, nil), kv, obj
}

func TestNATSStoreKeepsLargeAssetsInObjectStore(t *testing.T) {
	ctx := context.Background()
	s, kv, obj := newFakeNATSStore()

	image := "data:image/gif;base64," + strings.Repeat("R", 3*maxPayload)
	require.NoError(t, s.Set(ctx, models.KeyImage, image))
	require.NoError(t, s.Set(ctx, models.KeyProgress, "3"))

	got, ok, err := s.Get(ctx, models.KeyImage)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, image, got)

	assert.Contains(t, obj.data, models.KeyImage)
	assert.NotContains(t, kv.data, models.KeyImage)
	assert.Equal(t, []byte("3"), kv.data[models.KeyProgress])
}

func TestNATSStoreMissingKeys(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newFakeNATSStore()

	for _, key := range []string{models.KeyAudio, models.KeyLastTrigger} {
		_, ok, err := s.Get(ctx, key)
		require.NoError(t, err, key)
		assert.False(t, ok, key)
	}
}

func TestNATSStoreSaveLoadoutThroughSetAll(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newFakeNATSStore()

	audio := "data:audio/mpeg;base64," + strings.Repeat("A", 2*maxPayload)
	require.NoError(t, SetAll(ctx, s, map[string]string{
		models.KeyImage: "data:image/gif;base64,R0lG",
		models.KeyAudio: audio,
	}))

	got, ok, err := s.Get(ctx, models.KeyAudio)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got, len(audio))
}
