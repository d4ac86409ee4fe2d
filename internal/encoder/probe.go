package encoder

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"versereel/internal/model"
)

const defaultProbeTimeout = 30 * time.Second

// ErrProbe marks a clip whose dimensions or duration could not be read.
var ErrProbe = errors.New("probe failed")

// Prober reads the facts the director needs from a background clip.
type Prober interface {
	Probe(ctx context.Context, path string) (model.ProbeInfo, error)
}

// FFProbe probes media with the ffprobe binary found in PATH.
type FFProbe struct{}

// Probe implements Prober.
func (FFProbe) Probe(ctx context.Context, path string) (model.ProbeInfo, error) {
	if err := ctx.Err(); err != nil {
		return model.ProbeInfo{}, err
	}
	timeout := defaultProbeTimeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	out, err := ffmpeg.ProbeWithTimeout(path, timeout, ffmpeg.KwArgs{})
	if err != nil {
		return model.ProbeInfo{}, errors.Wrapf(ErrProbe, "%s: %v", path, err)
	}
	info, err := ParseProbe([]byte(out))
	if err != nil {
		return model.ProbeInfo{}, errors.Wrap(err, path)
	}
	return info, nil
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ParseProbe extracts width, height and duration from ffprobe JSON output.
// Dimensions come from the first video stream; the container duration is
// preferred over the stream duration.
func ParseProbe(data []byte) (model.ProbeInfo, error) {
	var po probeOutput
	if err := json.Unmarshal(data, &po); err != nil {
		return model.ProbeInfo{}, errors.Wrapf(ErrProbe, "decode ffprobe output: %v", err)
	}
	for _, s := range po.Streams {
		if s.CodecType != "video" {
			continue
		}
		if s.Width <= 0 || s.Height <= 0 {
			return model.ProbeInfo{}, errors.Wrap(ErrProbe, "video stream has no dimensions")
		}
		dur, err := strconv.ParseFloat(po.Format.Duration, 64)
		if err != nil || dur <= 0 {
			dur, err = strconv.ParseFloat(s.Duration, 64)
		}
		if err != nil || dur <= 0 {
			return model.ProbeInfo{}, errors.Wrap(ErrProbe, "duration not found")
		}
		return model.ProbeInfo{Width: s.Width, Height: s.Height, DurationSec: dur}, nil
	}
	return model.ProbeInfo{}, errors.Wrap(ErrProbe, "no video stream found")
}
