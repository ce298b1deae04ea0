package celebration

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/focusarcade/go/internal/bus"
	"github.com/mcdev12/focusarcade/go/internal/kvstore"
	"github.com/mcdev12/focusarcade/go/internal/models"
	"github.com/rs/zerolog/log"
)

// App is the controller side of the celebration protocol: it owns the stored
// loadout and publishes triggers.
type App struct {
	store kvstore.Store
	bus   bus.Bus // nil when no bus is configured
	clock clockwork.Clock

	// mu keeps trigger timestamps strictly increasing within this process.
	mu sync.Mutex
}

// NewApp creates the controller app. b may be nil.
func NewApp(store kvstore.Store, b bus.Bus, clock clockwork.Clock) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{store: store, bus: b, clock: clock}
}

// Trigger stores a new TriggerRecord and announces it on the bus. Bus
// failures are logged only; the stored record is enough for polling displays.
func (a *App) Trigger(ctx context.Context, req TriggerRequest) (models.TriggerRecord, error) {
	seconds := float64(DefaultSeconds)
	if req.Seconds != nil && !math.IsNaN(*req.Seconds) {
		seconds = math.Max(MinSeconds, math.Min(MaxSeconds, *req.Seconds))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	at := a.clock.Now().UnixMilli()
	var last models.TriggerRecord
	if ok, err := kvstore.GetJSON(ctx, a.store, models.KeyLastTrigger, &last); err != nil {
		return models.TriggerRecord{}, fmt.Errorf("failed to read last trigger: %w", err)
	} else if ok && last.At >= at {
		at = last.At + 1
	}

	rec := models.TriggerRecord{
		At:         at,
		DurationMs: int64(math.Round(seconds * 1000)),
		Message:    strings.TrimSpace(req.Message),
	}
	if err := kvstore.SetJSON(ctx, a.store, models.KeyLastTrigger, rec); err != nil {
		return models.TriggerRecord{}, fmt.Errorf("failed to store trigger: %w", err)
	}

	a.publish(ctx, rec.ToMessage())

	log.Info().
		Int64("at", rec.At).
		Int64("duration_ms", rec.DurationMs).
		Str("message", rec.Message).
		Msg("celebration triggered")
	return rec, nil
}

// SaveLoadout stores the uploaded assets, keeping any part that was not
// re-uploaded. It fails with ErrNoAssets if the result would be empty.
func (a *App) SaveLoadout(ctx context.Context, up LoadoutUpload) (models.Loadout, error) {
	current, err := a.Loadout(ctx)
	if err != nil {
		return models.Loadout{}, err
	}

	next := current
	if up.Image != nil && len(up.Image.Data) > 0 {
		next.Image = EncodeDataURI(up.Image.Data, up.Image.ContentType)
	}
	if up.Audio != nil && len(up.Audio.Data) > 0 {
		next.Audio = EncodeDataURI(up.Audio.Data, up.Audio.ContentType)
	}
	if next.Empty() {
		return models.Loadout{}, ErrNoAssets
	}

	kvs := map[string]string{}
	if next.Image != "" {
		kvs[models.KeyImage] = next.Image
	}
	if next.Audio != "" {
		kvs[models.KeyAudio] = next.Audio
	}
	if err := kvstore.SetAll(ctx, a.store, kvs); err != nil {
		return models.Loadout{}, fmt.Errorf("failed to save loadout: %w", err)
	}

	a.publish(ctx, models.NewAssetsUpdatedMessage(a.clock.Now().UnixMilli()))

	log.Info().
		Int("image_bytes", len(next.Image)).
		Int("audio_bytes", len(next.Audio)).
		Msg("loadout saved")
	return next, nil
}

// Loadout returns the stored assets.
func (a *App) Loadout(ctx context.Context) (models.Loadout, error) {
	return LoadLoadout(ctx, a.store)
}

// LoadLoadout reads both assets from store. Displays use it too.
func LoadLoadout(ctx context.Context, store kvstore.Store) (models.Loadout, error) {
	image, _, err := store.Get(ctx, models.KeyImage)
	if err != nil {
		return models.Loadout{}, fmt.Errorf("failed to read image: %w", err)
	}
	audio, _, err := store.Get(ctx, models.KeyAudio)
	if err != nil {
		return models.Loadout{}, fmt.Errorf("failed to read audio: %w", err)
	}
	return models.Loadout{Image: image, Audio: audio}, nil
}

func (a *App) publish(ctx context.Context, msg models.Message) {
	if a.bus == nil {
		return
	}
	if err := a.bus.Publish(ctx, msg); err != nil {
		log.Warn().Err(err).Str("type", string(msg.Type)).Msg("bus publish failed")
	}
}

// ParseSeconds reads a duration field the way the controller page does: an
// empty or unparseable value yields nil (the default).
func ParseSeconds(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
