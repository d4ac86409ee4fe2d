package encoder

import (
	"fmt"
	"strconv"
	"strings"

	"versereel/internal/overlay"
)

const (
	frameRate         = "24"
	referenceFontSize = 42
	// Overlays and the reference line appear after the first second.
	overlayStart = 1
)

// ComposeJob is everything ffmpeg needs to produce one video.
type ComposeJob struct {
	LogoImage     string // looped still, input 0
	Track         string // audio, input 1
	Clip          string // background video, input 2
	QuoteImage    string // rendered quote PNG, input 3
	ReferenceFont string
	Reference     string
	Placement     overlay.Placement
	DurationSec   float64
	OutputPath    string
}

// BuildComposeArgs constructs the ffmpeg arguments for one video. The output
// path is always the last argument.
func BuildComposeArgs(job ComposeJob, includeProgress bool) []string {
	args := []string{"-loglevel", "error"}
	if includeProgress {
		args = append(args, "-progress", "pipe:1", "-nostats")
	} else {
		args = append(args, "-stats")
	}
	args = append(args,
		"-y",
		"-loop", "1",
		"-i", job.LogoImage,
		"-i", job.Track,
		"-i", job.Clip,
		"-i", job.QuoteImage,
		"-r", frameRate,
		"-filter_complex", FilterGraph(job),
		"-t", formatSeconds(job.DurationSec),
		"-map", "[v3]",
		"-map", "1",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		job.OutputPath,
	)
	return args
}

// FilterGraph places the logo over the clip, draws the reference line and
// overlays the quote image.
func FilterGraph(job ComposeJob) string {
	dur := formatSeconds(job.DurationSec)
	enable := fmt.Sprintf("enable='between(t,%d,%s)'", overlayStart, dur)
	p := job.Placement
	return strings.Join([]string{
		fmt.Sprintf("[2:v][0:v]overlay=(W-w)/2:%d[v1]", p.LogoY),
		fmt.Sprintf("[v1]drawtext=fontfile='%s':text='%s':x=(w-text_w)/2:y=%d:fontsize=%d:fontcolor=white:%s[v2]",
			escapeQuoted(job.ReferenceFont), EscapeDrawtext(job.Reference), p.ReferenceY, referenceFontSize, enable),
		fmt.Sprintf("[v2][3:v]overlay=(W-w)/2:%d:%s[v3]", p.QuoteY, enable),
	}, "; ")
}

// EscapeDrawtext escapes a value placed inside a single-quoted drawtext text option.
func EscapeDrawtext(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ":", `\:`)
	return escapeQuoted(s)
}

func escapeQuoted(s string) string {
	return strings.ReplaceAll(s, "'", `'\''`)
}

func formatSeconds(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}
