package gateway

import "github.com/mcdev12/focusarcade/go/internal/models"

// OverlayState is what a page needs to render the overlay as it is right now.
type OverlayState struct {
	Assets  models.Loadout `json:"assets"`
	Showing bool           `json:"showing"`
	Message string         `json:"message,omitempty"`
}

// Frames replays the state for a freshly connected page.
func (s OverlayState) Frames() []Frame {
	frames := []Frame{assetsFrame(s.Assets)}
	if s.Showing {
		frames = append(frames, showFrame(s.Message), Frame{Type: FrameTypeRestart})
	}
	return frames
}

// StateProvider supplies the overlay state new connections start from.
type StateProvider interface {
	OverlayState() OverlayState
}
