package progress

import "time"

// Stage identifies a step a video goes through inside a batch.
type Stage string

const (
	StageQueued    Stage = "queued"
	StageProbing   Stage = "probing"
	StageRendering Stage = "rendering"
	StageEncoding  Stage = "encoding"
	StageCompleted Stage = "completed"
	StageError     Stage = "error"
)

// LogStream indicates which stream produced a log line.
type LogStream int

const (
	StreamStdout LogStream = iota
	StreamStderr
)

// Update conveys progress or stage changes for one video.
// Percent is 0..100 when known; set to a negative value (e.g., -1) to mean unknown.
type Update struct {
	JobID   string
	Stage   Stage
	Percent float64 // 0..100, or <0 if unknown

	ETA     *time.Duration // optional
	Bytes   *int64         // optional cumulative bytes
	Speed   *string        // optional, e.g. "1.2x"
	Message string         // short human-friendly status line
}

// Log is a structured log line associated with a job.
type Log struct {
	JobID  string
	Stream LogStream
	Line   string
}

// Result is emitted once per video when it completes or fails.
type Result struct {
	JobID      string
	OutputPath string
	Bytes      int64
	Err        error // nil on success
}

// Reporter is implemented by UI or any observer interested in progress events.
type Reporter interface {
	Update(u Update)
	Log(l Log)
	Result(r Result)
}

// BatchInfo is announced once before the first video starts.
type BatchInfo struct {
	Customer  string
	Count     int
	OutputDir string
	ETA       *time.Duration // nil when no estimate exists yet
}

// BatchReporter is implemented by observers that also want batch-level events.
type BatchReporter interface {
	Reporter
	BatchStarted(b BatchInfo)
}

// Nop discards all events.
type Nop struct{}

func (Nop) Update(Update)          {}
func (Nop) Log(Log)                {}
func (Nop) Result(Result)          {}
func (Nop) BatchStarted(BatchInfo) {}