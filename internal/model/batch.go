package model

import "time"

// MediaPool is an ordered list of media file paths of one kind (clips or tracks).
// Indices are stable for the lifetime of a batch.
type MediaPool []string

// Len returns the number of entries in the pool.
func (p MediaPool) Len() int { return len(p) }

// FontProfile describes one text style used by the quote compositor.
type FontProfile struct {
	Path             string `mapstructure:"path" json:"path"`
	Size             int    `mapstructure:"size" json:"size"`           // Pixel size.
	MaxChars         int    `mapstructure:"max_chars" json:"max_chars"` // Lower bound for the wrap width.
	StripApostrophes bool   `mapstructure:"strip_apostrophes" json:"strip_apostrophes,omitempty"`
	Color            string `mapstructure:"color" json:"color,omitempty"` // Hex text colour, white when empty.
}

// Quote is a passage of text paired with its source reference.
type Quote struct {
	Verse     string `json:"verse"`
	Reference string `json:"reference"`
}

// Assignment is the triple of pool indices used for one video.
type Assignment struct {
	Clip  int
	Track int
	Font  int
}

// RenderedQuote is the quote image produced for one video.
type RenderedQuote struct {
	Path   string
	Height int
}

// ProbeInfo holds the stream facts needed from a background clip.
type ProbeInfo struct {
	Width       int
	Height      int
	DurationSec float64
}

// LedgerRow is one line of the per-customer manifest.
type LedgerRow struct {
	FileName  string
	Reference string
	Verse     string
}

// Library is the full set of inputs a batch draws from.
type Library struct {
	Clips         MediaPool
	Tracks        MediaPool
	Fonts         []FontProfile
	Quotes        []Quote
	LogoImage     string // Static image overlaid at the top of every video.
	ReferenceFont string // Font file used by ffmpeg drawtext for the reference line.
	FallbackFont  string // Second font tried by the compositor before the embedded faces.
}

// FailurePolicy decides what the director does when a single video fails.
type FailurePolicy string

const (
	// FailAbort stops the batch at the first failed video. No ledger is written.
	FailAbort FailurePolicy = "abort"
	// FailSkip records the failure and continues with the next video.
	FailSkip FailurePolicy = "skip"
)

// BatchRequest asks for Count videos for one customer.
type BatchRequest struct {
	Customer   string
	Count      int
	OutputRoot string
	Library    Library
	OnError    FailurePolicy
}

// VideoResult describes one produced video.
type VideoResult struct {
	Index      int
	OutputPath string
	Bytes      int64
	Assignment Assignment
	Quote      Quote
}

// VideoFailure describes one video that could not be produced under FailSkip.
type VideoFailure struct {
	Index int
	Err   error
}

// BatchResult is returned by the director once a batch finishes.
type BatchResult struct {
	OutputDir  string
	LedgerPath string
	Videos     []VideoResult
	Failed     []VideoFailure
	Elapsed    time.Duration
	Estimate   Estimate // Value stored after the batch; unknown when not updated.
}

// Files returns the output paths of all produced videos.
func (r BatchResult) Files() []string {
	out := make([]string, 0, len(r.Videos))
	for _, v := range r.Videos {
		out = append(out, v.OutputPath)
	}
	return out
}
