package main

import (
	"fmt"

	"github.com/mcdev12/focusarcade/go/internal/bus"
	"github.com/mcdev12/focusarcade/go/internal/celebration"
	"github.com/mcdev12/focusarcade/go/internal/config"
	"github.com/mcdev12/focusarcade/go/internal/display"
	"github.com/mcdev12/focusarcade/go/internal/gateway"
	"github.com/mcdev12/focusarcade/go/internal/health"
	"github.com/mcdev12/focusarcade/go/internal/kvstore"
	"github.com/mcdev12/focusarcade/go/internal/ledger"
	"github.com/rs/zerolog/log"
)

// role selects which side of the system a server process runs.
type role string

const (
	roleAll        role = "serve"
	roleController role = "controller"
	roleDisplay    role = "display"
)

func (r role) controller() bool { return r == roleAll || r == roleController }
func (r role) display() bool    { return r == roleAll || r == roleDisplay }

// checkSplitRole rejects a controller or display process whose store only
// lives in memory, since the other role could never see it. A process-local
// bus only warns: triggers still reach the display by polling.
func checkSplitRole(r role, cfg *config.Config) error {
	if r == roleAll {
		return nil
	}
	if cfg.Store.Driver == "" || cfg.Store.Driver == kvstore.DriverMemory {
		return fmt.Errorf("%s role needs a shared store, store driver %q is private to this process", r, kvstore.DriverMemory)
	}
	if cfg.Bus.Driver == "" || cfg.Bus.Driver == bus.DriverLocal {
		log.Warn().
			Str("role", string(r)).
			Msg("local bus is private to this process, the display receives triggers by polling only")
	}
	return nil
}

type Services struct {
	Ledger      *ledger.Ledger
	Celebration *celebration.App
	Gateway     *gateway.Service
	Session     *display.Session
	Health      *health.Checker
}

func setupServices(cfg *config.Config, res *Resources, r role) *Services {
	// Store/bus → domain apps → display session → gateway renderer
	services := &Services{
		Health: health.NewChecker(res.Store, res.Bus),
	}

	if r.controller() {
		services.Ledger = ledger.New(res.Store, cfg.Goal)
		services.Celebration = celebration.NewApp(res.Store, res.Bus, nil)
	}

	if r.display() {
		services.Gateway = gateway.NewService(gateway.DefaultConfig())
		services.Session = display.NewSession(res.Store, res.Bus, services.Gateway.Renderer(), nil, display.Config{
			PollInterval: cfg.Display.PollInterval,
		})
		services.Health.WithDisplays(services.Gateway.Connections)
	}

	return services
}
