package model

import "time"

// Estimate is the persisted seconds-per-video average.
// Known is false when no usable value exists yet.
type Estimate struct {
	SecondsPerVideo float64   `json:"seconds_per_video"`
	Known           bool      `json:"known"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Unknown returns the absent estimate.
func Unknown() Estimate { return Estimate{} }

// KnownEstimate returns a present estimate with the given value.
func KnownEstimate(seconds float64, at time.Time) Estimate {
	return Estimate{SecondsPerVideo: seconds, Known: true, UpdatedAt: at}
}
