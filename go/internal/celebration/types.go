package celebration

import "errors"

// ErrNoAssets is returned when a save would leave the loadout empty.
var ErrNoAssets = errors.New("no celebration assets uploaded")

// NoAssetsMessage is the user-facing text for ErrNoAssets.
const NoAssetsMessage = "Upload a GIF or audio first."

// Duration bounds for a trigger, in seconds.
const (
	MinSeconds     = 1
	MaxSeconds     = 30
	DefaultSeconds = 4
)

// TriggerRequest is the controller's celebration request. A nil Seconds uses
// DefaultSeconds.
type TriggerRequest struct {
	Seconds *float64 `json:"seconds,omitempty"`
	Message string   `json:"message"`
}

// Asset is one uploaded file.
type Asset struct {
	Data        []byte
	ContentType string
}

// LoadoutUpload carries the parts of a save; nil parts keep what is stored.
type LoadoutUpload struct {
	Image *Asset
	Audio *Asset
}
