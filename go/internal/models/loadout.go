package models

// Loadout is the pair of celebration assets, each a data URI. Empty means
// nothing has been uploaded.
type Loadout struct {
	Image string `json:"image,omitempty"`
	Audio string `json:"audio,omitempty"`
}

// Empty reports whether neither asset exists.
func (l Loadout) Empty() bool {
	return l.Image == "" && l.Audio == ""
}
