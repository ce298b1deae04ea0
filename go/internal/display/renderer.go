package display

import (
	"github.com/mcdev12/focusarcade/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Renderer is where playback becomes visible and audible. Calls arrive in
// playback order and must not block.
type Renderer interface {
	// SetAssets replaces the visual and audio sources; empty values clear them.
	SetAssets(models.Loadout)
	// Show reveals the overlay. An empty message hides the message line.
	Show(message string)
	// RestartVisual restarts the animation even when its source is unchanged.
	RestartVisual()
	// PlayAudio starts the audio from the beginning. Errors are expected
	// (nothing to play, autoplay refused) and never stop playback.
	PlayAudio() error
	Hide()
	StopAudio()
}

// LogRenderer only logs. It backs headless displays and the CLI.
type LogRenderer struct{}

var _ Renderer = LogRenderer{}

func (LogRenderer) SetAssets(l models.Loadout) {
	log.Debug().Bool("image", l.Image != "").Bool("audio", l.Audio != "").Msg("display assets loaded")
}

func (LogRenderer) Show(message string) {
	log.Info().Str("message", message).Msg("overlay shown")
}

func (LogRenderer) RestartVisual() {}

func (LogRenderer) PlayAudio() error { return nil }

func (LogRenderer) Hide() {
	log.Info().Msg("overlay hidden")
}

func (LogRenderer) StopAudio() {}
