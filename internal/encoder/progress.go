package encoder

import (
	"strconv"
	"strings"

	"versereel/internal/progress"
)

// ProgressState accumulates key=value lines from ffmpeg's -progress output.
type ProgressState struct {
	OutTimeMs int64
	SpeedStr  string
	TotalSize int64
}

// UpdateFromLine folds one progress line into the state. It returns an update
// each time ffmpeg closes a block with a "progress=" line.
func (ps *ProgressState) UpdateFromLine(line string, jobID string, durationSec float64) (u progress.Update, ok bool) {
	key, val, found := strings.Cut(line, "=")
	if !found {
		return progress.Update{}, false
	}
	key = strings.TrimSpace(key)
	val = strings.TrimSpace(val)

	switch key {
	case "out_time_ms":
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			ps.OutTimeMs = v
		}
	case "speed":
		ps.SpeedStr = val
	case "total_size":
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			ps.TotalSize = v
		}
	case "progress":
		percent := -1.0
		if durationSec > 0 {
			// out_time_ms is in microseconds despite its name
			percent = float64(ps.OutTimeMs) / (durationSec * 1_000_000) * 100.0
			if percent > 100 {
				percent = 100
			}
		}
		if val == "end" && durationSec > 0 {
			percent = 100
		}

		var speedPtr *string
		if ps.SpeedStr != "" {
			s := ps.SpeedStr
			speedPtr = &s
		}
		var bytesPtr *int64
		if ps.TotalSize > 0 {
			b := ps.TotalSize
			bytesPtr = &b
		}
		return progress.Update{
			JobID:   jobID,
			Stage:   progress.StageEncoding,
			Percent: percent,
			Speed:   speedPtr,
			Bytes:   bytesPtr,
			Message: "Encoding",
		}, true
	}
	return progress.Update{}, false
}
