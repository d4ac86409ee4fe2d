package encoder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"versereel/internal/progress"
	"versereel/internal/util"
)

type recordingReporter struct {
	updates []progress.Update
	logs    []progress.Log
	results []progress.Result
}

func (r *recordingReporter) Update(u progress.Update)   { r.updates = append(r.updates, u) }
func (r *recordingReporter) Log(l progress.Log)         { r.logs = append(r.logs, l) }
func (r *recordingReporter) Result(res progress.Result) { r.results = append(r.results, res) }

type fakeRunner struct {
	fail  bool
	specs []util.CmdSpec
}

func (f *fakeRunner) Run(_ context.Context, spec util.CmdSpec) (util.CmdResult, error) {
	f.specs = append(f.specs, spec)
	out := spec.Args[len(spec.Args)-1]
	if err := os.WriteFile(out, make([]byte, 2048), 0o644); err != nil {
		return util.CmdResult{}, err
	}
	if spec.StdoutLine != nil {
		spec.StdoutLine("out_time_ms=5000000")
		spec.StdoutLine("progress=continue")
		spec.StdoutLine("out_time_ms=10000000")
		spec.StdoutLine("progress=end")
	}
	if f.fail {
		if spec.StderrLine != nil {
			spec.StderrLine("Error opening input file")
		}
		return util.CmdResult{Code: 1, Stderr: []byte("frame=1\nError opening input file\n")}, errors.New("command failed (exit 1)")
	}
	return util.CmdResult{}, nil
}

func TestCompose_Success(t *testing.T) {
	job := sampleJob()
	job.DurationSec = 10
	job.OutputPath = filepath.Join(t.TempDir(), "acme", "0-John316_sunset.mp4")
	rep := &recordingReporter{}
	fr := &fakeRunner{}

	out, err := Compose(context.Background(), job, Options{
		FFmpegPath: "/bin/ffmpeg",
		Runner:     fr,
		Reporter:   rep,
		JobID:      "video-0",
	})
	if err != nil {
		t.Fatalf("Compose() error: %v", err)
	}
	if out.Path != job.OutputPath || out.Bytes != 2048 {
		t.Errorf("Compose() = %+v", out)
	}
	if len(fr.specs) != 1 || fr.specs[0].Path != "/bin/ffmpeg" {
		t.Fatalf("runner specs = %+v", fr.specs)
	}
	if len(rep.updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(rep.updates))
	}
	if rep.updates[0].Percent != 50 || rep.updates[1].Percent != 100 {
		t.Errorf("percents = %v, %v; want 50, 100", rep.updates[0].Percent, rep.updates[1].Percent)
	}
}

func TestCompose_FailureRemovesOutput(t *testing.T) {
	job := sampleJob()
	job.OutputPath = filepath.Join(t.TempDir(), "out.mp4")
	rep := &recordingReporter{}

	_, err := Compose(context.Background(), job, Options{
		FFmpegPath: "/bin/ffmpeg",
		Runner:     &fakeRunner{fail: true},
		Reporter:   rep,
	})
	if !errors.Is(err, ErrEncode) {
		t.Fatalf("Compose() error = %v, want ErrEncode", err)
	}
	if _, statErr := os.Stat(job.OutputPath); !os.IsNotExist(statErr) {
		t.Errorf("partial output should be removed, stat err = %v", statErr)
	}
	if len(rep.logs) != 1 || rep.logs[0].Stream != progress.StreamStderr {
		t.Errorf("logs = %+v, want one stderr line", rep.logs)
	}
}

func TestCompose_NoReporterUsesStats(t *testing.T) {
	job := sampleJob()
	job.OutputPath = filepath.Join(t.TempDir(), "out.mp4")
	fr := &fakeRunner{}
	if _, err := Compose(context.Background(), job, Options{FFmpegPath: "ffmpeg", Runner: fr}); err != nil {
		t.Fatalf("Compose() error: %v", err)
	}
	if fr.specs[0].StdoutLine != nil {
		t.Error("stdout handler should be nil without reporter")
	}
	if !contains(fr.specs[0].Args, "-stats") {
		t.Errorf("args = %v, want -stats", fr.specs[0].Args)
	}
}

func TestCompose_Validation(t *testing.T) {
	if _, err := Compose(context.Background(), sampleJob(), Options{}); err == nil {
		t.Error("expected error without ffmpeg path")
	}
	job := sampleJob()
	job.OutputPath = ""
	if _, err := Compose(context.Background(), job, Options{FFmpegPath: "ffmpeg"}); err == nil {
		t.Error("expected error without output path")
	}
}

func TestLastLine(t *testing.T) {
	if got := lastLine([]byte("a\nb\n\n")); got != "b" {
		t.Errorf("lastLine() = %q, want b", got)
	}
	if got := lastLine(nil); got != "" {
		t.Errorf("lastLine(nil) = %q", got)
	}
}

func contains(ss []string, q string) bool {
	for _, s := range ss {
		if s == q {
			return true
		}
	}
	return false
}
