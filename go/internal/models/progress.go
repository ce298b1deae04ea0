package models

import (
	"fmt"
	"math"
)

// ProgressSnapshot is what the controller page renders.
type ProgressSnapshot struct {
	Progress int    `json:"progress"`
	Goal     int    `json:"goal"`
	Percent  int    `json:"percent"`
	Label    string `json:"label"`
}

// NewProgressSnapshot derives the bar width and label for progress out of goal.
func NewProgressSnapshot(progress, goal int) ProgressSnapshot {
	pct := 0
	if goal > 0 {
		pct = int(math.Round(float64(progress) / float64(goal) * 100))
	}
	if pct > 100 {
		pct = 100
	}
	return ProgressSnapshot{
		Progress: progress,
		Goal:     goal,
		Percent:  pct,
		Label:    fmt.Sprintf("Level %d / %d", progress, goal),
	}
}
