package gateway

import "github.com/mcdev12/focusarcade/go/internal/models"

// FrameType names a frame sent to display pages.
type FrameType string

const (
	FrameTypeAssets    FrameType = "assets"
	FrameTypeShow      FrameType = "show"
	FrameTypeRestart   FrameType = "restart"
	FrameTypePlayAudio FrameType = "play_audio"
	FrameTypeHide      FrameType = "hide"
	FrameTypeStopAudio FrameType = "stop_audio"
)

// Frame is one instruction for a display page.
type Frame struct {
	Type    FrameType `json:"type"`
	Message string    `json:"message,omitempty"`
	Image   string    `json:"image,omitempty"`
	Audio   string    `json:"audio,omitempty"`
}

func assetsFrame(l models.Loadout) Frame {
	return Frame{Type: FrameTypeAssets, Image: l.Image, Audio: l.Audio}
}

func showFrame(message string) Frame {
	return Frame{Type: FrameTypeShow, Message: message}
}
