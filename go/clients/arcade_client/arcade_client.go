package arcade_client

import (
	"context"

	"github.com/mcdev12/focusarcade/go/clients"
	"github.com/mcdev12/focusarcade/go/internal/ledger"
	"github.com/mcdev12/focusarcade/go/internal/models"
)

// ArcadeClient talks to a running controller over its JSON API.
type ArcadeClient struct {
	*clients.BaseClient
}

func NewArcadeClient(baseURL string) *ArcadeClient {
	client := &ArcadeClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	return client
}

// Minted is a freshly minted token.
type Minted struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

type triggerBody struct {
	Seconds *float64 `json:"seconds,omitempty"`
	Message string   `json:"message"`
}

func (c *ArcadeClient) Progress(ctx context.Context) (models.ProgressSnapshot, error) {
	var snap models.ProgressSnapshot
	err := c.GetJSON(ctx, ProgressEndpoint, &snap)
	return snap, err
}

func (c *ArcadeClient) Redeem(ctx context.Context, token string) (ledger.Redemption, error) {
	var red ledger.Redemption
	err := c.PostJSON(ctx, RedeemEndpoint, map[string]string{"token": token}, &red)
	return red, err
}

func (c *ArcadeClient) AddOne(ctx context.Context) (models.ProgressSnapshot, error) {
	var snap models.ProgressSnapshot
	err := c.PostJSON(ctx, TapEndpoint, nil, &snap)
	return snap, err
}

func (c *ArcadeClient) Reset(ctx context.Context) (models.ProgressSnapshot, error) {
	var snap models.ProgressSnapshot
	err := c.PostJSON(ctx, ResetEndpoint, nil, &snap)
	return snap, err
}

func (c *ArcadeClient) Loadout(ctx context.Context) (models.Loadout, error) {
	var l models.Loadout
	err := c.GetJSON(ctx, LoadoutEndpoint, &l)
	return l, err
}

// Trigger publishes a celebration. A nil seconds uses the server default.
func (c *ArcadeClient) Trigger(ctx context.Context, seconds *float64, message string) (models.TriggerRecord, error) {
	var rec models.TriggerRecord
	err := c.PostJSON(ctx, TriggerEndpoint, triggerBody{Seconds: seconds, Message: message}, &rec)
	return rec, err
}

func (c *ArcadeClient) Mint(ctx context.Context) (Minted, error) {
	var m Minted
	err := c.PostJSON(ctx, TokensEndpoint, nil, &m)
	return m, err
}
