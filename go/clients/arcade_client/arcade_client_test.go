package arcade_client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mcdev12/focusarcade/go/clients"
	"github.com/mcdev12/focusarcade/go/internal/celebration"
	"github.com/mcdev12/focusarcade/go/internal/kvstore"
	"github.com/mcdev12/focusarcade/go/internal/ledger"
	"github.com/mcdev12/focusarcade/go/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *ArcadeClient {
	t.Helper()
	store := kvstore.NewMemoryStore()
	srv, err := web.NewServer(web.Deps{
		Ledger:      ledger.New(store, 3),
		Celebration: celebration.NewApp(store, nil, nil),
		PublicURL:   "https://focus.example",
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	c := NewArcadeClient(ts.URL + "/")
	c.SetHTTPClient(ts.Client())
	return c
}

func TestLedgerRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	red, err := c.Redeem(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, red.Redeemed)
	assert.Equal(t, "Level 1 / 3", red.Progress.Label)

	red, err = c.Redeem(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, ledger.ReasonAlreadyUsed, red.Reason)

	for i := 0; i < 5; i++ {
		_, err = c.AddOne(ctx)
		require.NoError(t, err)
	}
	snap, err := c.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Progress)

	snap, err = c.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Progress)
}

func TestTriggerAndMint(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	secs := 2.0
	rec, err := c.Trigger(ctx, &secs, " hi ")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), rec.DurationMs)
	assert.Equal(t, "hi", rec.Message)
	assert.Positive(t, rec.At)

	rec, err = c.Trigger(ctx, nil, "")
	require.NoError(t, err)
	assert.Equal(t, int64(4000), rec.DurationMs)

	m, err := c.Mint(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://focus.example?token="+m.Token, m.URL)
}

func TestLoadoutEmpty(t *testing.T) {
	l, err := newTestClient(t).Loadout(context.Background())
	require.NoError(t, err)
	assert.True(t, l.Empty())
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"store unavailable"}`))
	}))
	defer ts.Close()

	_, err := NewArcadeClient(ts.URL).Progress(context.Background())
	var apiErr *clients.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "store unavailable", apiErr.Message)
}
