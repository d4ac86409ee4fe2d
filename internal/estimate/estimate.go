// Package estimate keeps the running seconds-per-video average used to
// predict how long a batch will take.
package estimate

import (
	"context"
	"math"
	"time"

	"versereel/internal/model"
)

// Store persists a single estimate record.
// Load never fails: missing or unusable data is reported as an unknown estimate.
type Store interface {
	Load(ctx context.Context) model.Estimate
	Save(ctx context.Context, e model.Estimate) error
}

// Blend folds a finished batch into the previous estimate.
// Batches of one video or less do not update the estimate (ok=false).
// The new value is (old + elapsed/n) / 2; an unknown old value is seeded
// with elapsed/n.
func Blend(old model.Estimate, elapsed time.Duration, n int, now time.Time) (model.Estimate, bool) {
	if n <= 1 {
		return old, false
	}
	perVideo := elapsed.Seconds() / float64(n)
	if !usable(old) {
		return model.KnownEstimate(perVideo, now), true
	}
	return model.KnownEstimate((old.SecondsPerVideo+perVideo)/2, now), true
}

// ETA returns the predicted total time for n videos, or false when unknown.
func ETA(e model.Estimate, n int) (time.Duration, bool) {
	if !usable(e) || n <= 0 {
		return 0, false
	}
	return time.Duration(e.SecondsPerVideo * float64(n) * float64(time.Second)), true
}

func usable(e model.Estimate) bool {
	return e.Known && e.SecondsPerVideo >= 0 && !math.IsNaN(e.SecondsPerVideo) && !math.IsInf(e.SecondsPerVideo, 0)
}
