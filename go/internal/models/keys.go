package models

// Persisted keys shared by the controller and display roles.
const (
	KeyProgress    = "focus_arcade_progress"
	KeyUsedTokens  = "focus_arcade_used_tokens"
	KeyImage       = "fa_gif_dataurl"
	KeyAudio       = "fa_audio_dataurl"
	KeyLastTrigger = "fa_last_trigger"
)

// DefaultGoal is the number of redemptions that fills the progress bar.
const DefaultGoal = 10
