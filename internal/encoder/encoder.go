// Package encoder drives ffprobe and ffmpeg for the batch director.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"versereel/internal/progress"
	"versereel/internal/util"
)

// ErrEncode marks a failed ffmpeg composite run.
var ErrEncode = errors.New("encode failed")

// Options control ffmpeg execution.
type Options struct {
	FFmpegPath string
	Verbose    bool
	Runner     util.CmdRunner    // defaults to the host runner
	Reporter   progress.Reporter // optional; enables -progress parsing
	JobID      string
}

// Output describes a produced video.
type Output struct {
	Path  string
	Bytes int64
}

// Compose runs ffmpeg for one job. A partially written output is removed on failure.
func Compose(ctx context.Context, job ComposeJob, opts Options) (Output, error) {
	if opts.FFmpegPath == "" {
		return Output{}, errors.New("ffmpeg path is required")
	}
	if job.OutputPath == "" {
		return Output{}, errors.New("output path is required")
	}
	if err := util.EnsureDir(filepath.Dir(job.OutputPath)); err != nil {
		return Output{}, fmt.Errorf("ensure output dir: %w", err)
	}
	runner := opts.Runner
	if runner == nil {
		runner = util.NewDefaultRunner()
	}

	spec := util.CmdSpec{
		Path:    opts.FFmpegPath,
		Args:    BuildComposeArgs(job, opts.Reporter != nil),
		Verbose: opts.Verbose,
	}
	if rep := opts.Reporter; rep != nil {
		ps := &ProgressState{}
		spec.StdoutLine = func(line string) {
			if u, ok := ps.UpdateFromLine(line, opts.JobID, job.DurationSec); ok {
				rep.Update(u)
			}
		}
		spec.StderrLine = func(line string) {
			rep.Log(progress.Log{JobID: opts.JobID, Stream: progress.StreamStderr, Line: line})
		}
	}

	res, runErr := runner.Run(ctx, spec)
	if runErr != nil {
		_ = util.RemoveIfExists(job.OutputPath)
		if msg := lastLine(res.Stderr); msg != "" {
			return Output{}, fmt.Errorf("%w: %w: %s", ErrEncode, runErr, msg)
		}
		return Output{}, fmt.Errorf("%w: %w", ErrEncode, runErr)
	}

	fi, err := os.Stat(job.OutputPath)
	if err != nil {
		return Output{}, fmt.Errorf("%w: stat output: %w", ErrEncode, err)
	}
	return Output{Path: job.OutputPath, Bytes: fi.Size()}, nil
}

func lastLine(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == '\n' || b[end-1] == '\r') {
		end--
	}
	start := end
	for start > 0 && b[start-1] != '\n' {
		start--
	}
	return string(b[start:end])
}
