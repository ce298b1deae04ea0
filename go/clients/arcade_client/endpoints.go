package arcade_client

const (
	ProgressEndpoint = "/api/progress"
	RedeemEndpoint   = "/api/redeem"
	TapEndpoint      = "/api/tap"
	ResetEndpoint    = "/api/reset"
	LoadoutEndpoint  = "/api/loadout"
	TriggerEndpoint  = "/api/trigger"
	TokensEndpoint   = "/api/tokens"
)
