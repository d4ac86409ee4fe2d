package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"versereel/internal/director"
	"versereel/internal/model"
	"versereel/internal/progress"
)

func parseRunFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "run"}
	bindRunFlags(cmd.Flags())
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return cmd
}

func TestAssembleBatchInputs(t *testing.T) {
	in, err := assembleBatchInputs(parseRunFlags(t, "-n", "4", "--seed", "7", "--on-error", "SKIP", "--no-ui"), []string{" acme "})
	if err != nil {
		t.Fatalf("assembleBatchInputs() error: %v", err)
	}
	want := batchInputs{Customer: "acme", Count: 4, Seed: 7, OnError: model.FailSkip, NoUI: true}
	if in != want {
		t.Errorf("inputs = %+v, want %+v", in, want)
	}

	in, err = assembleBatchInputs(parseRunFlags(t), []string{"acme"})
	if err != nil {
		t.Fatal(err)
	}
	if in.Count != 1 || in.OnError != model.FailAbort {
		t.Errorf("defaults = %+v", in)
	}
}

func TestAssembleBatchInputs_Invalid(t *testing.T) {
	tests := []struct {
		args     []string
		customer string
	}{
		{[]string{"-n", "0"}, "acme"},
		{[]string{"--on-error", "retry"}, "acme"},
		{nil, "   "},
		{[]string{"--all", "-n", "3"}, "acme"},
	}
	for _, tt := range tests {
		if _, err := assembleBatchInputs(parseRunFlags(t, tt.args...), []string{tt.customer}); err == nil {
			t.Errorf("assembleBatchInputs(%v, %q) should fail", tt.args, tt.customer)
		}
	}
}

func TestAssembleBatchInputs_All(t *testing.T) {
	in, err := assembleBatchInputs(parseRunFlags(t, "--all"), []string{"acme"})
	if err != nil {
		t.Fatalf("assembleBatchInputs() error: %v", err)
	}
	if !in.All {
		t.Fatalf("All = false, want true")
	}
	if err := in.resolveCount(5); err != nil {
		t.Fatalf("resolveCount(5) error: %v", err)
	}
	if in.Count != 4 {
		t.Errorf("Count = %d, want 4", in.Count)
	}
	if err := in.resolveCount(1); err == nil {
		t.Error("resolveCount(1) should fail")
	}

	fixed := batchInputs{Count: 3}
	if err := fixed.resolveCount(10); err != nil || fixed.Count != 3 {
		t.Errorf("resolveCount without --all = %d, %v", fixed.Count, err)
	}
}

func TestBatchExit(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: requested 9, have 5", director.ErrNotEnoughQuotes), ExitCLIError},
		{errors.New("video 0: encode failed"), ExitBatchError},
		{&ExitError{Code: ExitLibraryError, Err: errors.New("no clips")}, ExitLibraryError},
	}
	for _, tt := range tests {
		var ee *ExitError
		if !errors.As(batchExit(tt.err), &ee) || ee.Code != tt.want {
			t.Errorf("batchExit(%v) code = %v, want %d", tt.err, ee, tt.want)
		}
	}
}

func TestLineReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &lineReporter{w: &buf}
	eta := 95 * time.Second
	r.BatchStarted(progress.BatchInfo{Customer: "acme", Count: 2, ETA: &eta})
	r.Update(progress.Update{JobID: "video-0", Stage: progress.StageProbing, Message: "Probing a.mp4"})
	r.Update(progress.Update{JobID: "video-0", Stage: progress.StageEncoding, Message: "Encoding"})
	r.Update(progress.Update{JobID: "video-0", Stage: progress.StageEncoding, Message: "Encoding 50%"})
	r.Log(progress.Log{JobID: "video-0", Line: "frame=1"})
	r.Result(progress.Result{JobID: "video-0", OutputPath: "/out/acme/0-a.mp4", Bytes: 1536})
	r.Result(progress.Result{JobID: "video-1", Err: errors.New("boom")})

	out := buf.String()
	for _, want := range []string{"estimated time: ~1m35s", "[video-0] Probing a.mp4", "saved 0-a.mp4 (1.5 KB)", "[video-1] failed: boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "50%") || strings.Contains(out, "frame=1") {
		t.Errorf("repeated stage or quiet log printed:\n%s", out)
	}
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"run", "plan", "tui", "doctor", "serve", "worker", "completion"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
