package gateway

import (
	"errors"
	"sync"

	"github.com/mcdev12/focusarcade/go/internal/display"
	"github.com/mcdev12/focusarcade/go/internal/models"
)

var (
	// ErrNoDisplays means no page is connected to play audio.
	ErrNoDisplays = errors.New("no display pages connected")
	// ErrNoAudio means no audio asset is loaded.
	ErrNoAudio = errors.New("no audio loaded")
)

// Renderer drives connected display pages and remembers the overlay state
// for pages that connect later.
type Renderer struct {
	cm *ConnectionManager

	mu    sync.Mutex
	state OverlayState
}

var (
	_ display.Renderer = (*Renderer)(nil)
	_ StateProvider    = (*Renderer)(nil)
)

func (r *Renderer) SetAssets(l models.Loadout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Assets = l
	r.cm.Broadcast(assetsFrame(l))
}

func (r *Renderer) Show(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Showing = true
	r.state.Message = message
	r.cm.Broadcast(showFrame(message))
}

func (r *Renderer) RestartVisual() {
	r.cm.Broadcast(Frame{Type: FrameTypeRestart})
}

// PlayAudio asks pages to play. Pages may still refuse autoplay; they
// report that back as a client message.
func (r *Renderer) PlayAudio() error {
	r.mu.Lock()
	hasAudio := r.state.Assets.Audio != ""
	r.mu.Unlock()

	if !hasAudio {
		return ErrNoAudio
	}
	if r.cm.Count() == 0 {
		return ErrNoDisplays
	}
	r.cm.Broadcast(Frame{Type: FrameTypePlayAudio})
	return nil
}

func (r *Renderer) Hide() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Showing = false
	r.state.Message = ""
	r.cm.Broadcast(Frame{Type: FrameTypeHide})
}

func (r *Renderer) StopAudio() {
	r.cm.Broadcast(Frame{Type: FrameTypeStopAudio})
}

// OverlayState returns a copy of the current state.
func (r *Renderer) OverlayState() OverlayState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}
