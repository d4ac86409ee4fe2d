package ui

import (
	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"versereel/internal/progress"
)

type videoState struct {
	id     string
	label  string
	stage  progress.Stage
	status string
	err    error
	done   bool

	outputPath string
	bytes      int64
	percent    float64 // -1 means unknown

	spinner spinner.Model
	bar     bubblesprogress.Model

	// Recent ffmpeg stderr lines (kept small)
	logsRing []string
}

func newVideoState(id, label string, styles Styles) videoState {
	sp := spinner.New()
	sp.Style = styles.Spinner
	bar := bubblesprogress.New(
		bubblesprogress.WithDefaultGradient(),
		bubblesprogress.WithWidth(40),
	)
	return videoState{
		id:      id,
		label:   label,
		stage:   progress.StageQueued,
		status:  "Queued",
		percent: -1,
		spinner: sp,
		bar:     bar,
	}
}
