package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mcdev12/focusarcade/go/internal/bus"
	"github.com/mcdev12/focusarcade/go/internal/kvstore"
	"github.com/rs/zerolog/log"
)

type Status struct {
	Healthy        bool     `json:"healthy"`
	StoreConnected bool     `json:"store_connected"`
	BusConnected   bool     `json:"bus_connected"`
	BusEnabled     bool     `json:"bus_enabled"`
	Displays       int      `json:"displays"`
	Errors         []string `json:"errors"`
}

type HealthChecker interface {
	Check(ctx context.Context) Status
}

// Checker reports whether the store and bus are reachable. Backends that
// cannot be probed count as connected.
type Checker struct {
	store    kvstore.Store
	bus      bus.Bus
	displays func() int
	timeout  time.Duration
}

var _ HealthChecker = (*Checker)(nil)

func NewChecker(store kvstore.Store, b bus.Bus) *Checker {
	return &Checker{
		store:   store,
		bus:     b,
		timeout: 5 * time.Second,
	}
}

// WithDisplays adds the connected display count to the report.
func (h *Checker) WithDisplays(count func() int) *Checker {
	h.displays = count
	return h
}

func (h *Checker) Check(ctx context.Context) Status {
	status := Status{
		Healthy:        true,
		StoreConnected: true,
		Errors:         []string{},
	}

	if p, ok := h.store.(kvstore.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			status.StoreConnected = false
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("store ping failed: %v", err))
		}
	}

	if h.bus != nil {
		status.BusEnabled = true
		status.BusConnected = true
		if c, ok := h.bus.(bus.Connectivity); ok && !c.Connected() {
			status.BusConnected = false
			status.Healthy = false
			status.Errors = append(status.Errors, "bus disconnected")
		}
	}

	if h.displays != nil {
		status.Displays = h.displays()
	}

	return status
}

func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write health response")
	}
}
