package gateway

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Service bundles the display hub, its renderer and its routes.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	renderer          *Renderer
}

// Config holds configuration for the display gateway
type Config struct {
	ConnectionConfig ConnectionConfig
}

// DefaultConfig returns default configuration for the display gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService wires a hub whose new connections start from the renderer's
// state.
func NewService(config Config) *Service {
	renderer := &Renderer{}
	cm := NewConnectionManager(config.ConnectionConfig, renderer)
	renderer.cm = cm

	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm),
		renderer:          renderer,
	}
}

// Start runs the hub until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	log.Info().Msg("starting display gateway")
	s.connectionManager.Start(ctx)
	log.Info().Msg("display gateway stopped")
}

// Renderer is the display.Renderer that drives connected pages.
func (s *Service) Renderer() *Renderer {
	return s.renderer
}

// Connections returns the number of connected pages.
func (s *Service) Connections() int {
	return s.connectionManager.Count()
}

// RegisterRoutes registers the WebSocket HTTP routes
func (s *Service) RegisterRoutes(r chi.Router) {
	s.wsHandler.RegisterRoutes(r)
	log.Info().Msg("display gateway routes registered")
}
