package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"versereel/internal/director"
	"versereel/internal/model"
	"versereel/internal/progress"
	"versereel/internal/ui"
	"versereel/internal/util/deps"
	"versereel/internal/util/format"
)

type runMode struct {
	ForceTUI bool
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "run <customer>",
		Short:         "Make a batch of videos for a customer",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args, runMode{ForceTUI: false})
		},
	}
	bindRunFlags(cmd.Flags())
	return cmd
}

func runExecute(cmd *cobra.Command, args []string, mode runMode) error {
	in, err := assembleBatchInputs(cmd, args)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	ffmpegPath, err := deps.FindFFmpeg(a.settings.FFmpeg)
	if err != nil {
		return &ExitError{Code: ExitMissingDep, Err: err}
	}
	if _, err := deps.FindFFprobe(); err != nil {
		return &ExitError{Code: ExitMissingDep, Err: err}
	}
	lib, err := a.loadLibrary()
	if err != nil {
		return err
	}
	if err := in.resolveCount(len(lib.Quotes)); err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}

	req := model.BatchRequest{
		Customer:   in.Customer,
		Count:      in.Count,
		OutputRoot: a.settings.OutDir,
		Library:    lib,
		OnError:    in.OnError,
	}
	if in.Count > len(lib.Quotes) {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("%w: requested %d, have %d", director.ErrNotEnoughQuotes, in.Count, len(lib.Quotes))}
	}
	opts := a.serviceOptions(ffmpegPath, in.Seed)

	// TUI path (forced or auto if TTY and not disabled)
	if mode.ForceTUI || (!in.NoUI && isTerminal()) {
		labels := make([]string, in.Count)
		for i := range labels {
			labels[i] = fmt.Sprintf("%d. %s", i+1, lib.Quotes[i].Reference)
		}
		res, err := ui.Run(cmd.Context(), in.Customer, labels, func(ctx context.Context, rep progress.BatchReporter) (model.BatchResult, error) {
			svc := director.NewService(append(opts, director.WithReporter(rep))...)
			return svc.Run(ctx, req)
		})
		if err != nil {
			return batchExit(err)
		}
		printSummary(cmd.OutOrStdout(), res)
		return nil
	}

	// Non-UI path
	rep := &lineReporter{w: cmd.OutOrStdout(), verbose: a.settings.Verbose}
	svc := director.NewService(append(opts, director.WithReporter(rep))...)
	res, err := svc.Run(cmd.Context(), req)
	if err != nil {
		return batchExit(err)
	}
	printSummary(cmd.OutOrStdout(), res)
	if len(res.Failed) > 0 {
		return &ExitError{Code: ExitBatchError, Err: fmt.Errorf("%d of %d video(s) failed", len(res.Failed), in.Count)}
	}
	return nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func printSummary(w io.Writer, res model.BatchResult) {
	fmt.Fprintf(w, "Saved %d video(s) to %s in %s\n", len(res.Videos), res.OutputDir, formatETA(res.Elapsed))
	fmt.Fprintf(w, "Ledger: %s\n", res.LedgerPath)
	if res.Estimate.Known {
		fmt.Fprintf(w, "Average per video: %.1fs\n", res.Estimate.SecondsPerVideo)
	}
}

// lineReporter prints stage changes and results as plain lines.
type lineReporter struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
	last    map[string]progress.Stage
}

func (r *lineReporter) BatchStarted(b progress.BatchInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	eta := "unknown"
	if b.ETA != nil {
		eta = "~" + formatETA(*b.ETA)
	}
	fmt.Fprintf(r.w, "Making %d video(s) for %s (estimated time: %s)\n", b.Count, b.Customer, eta)
}

func (r *lineReporter) Update(u progress.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		r.last = map[string]progress.Stage{}
	}
	if r.last[u.JobID] == u.Stage || u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		return
	}
	r.last[u.JobID] = u.Stage
	fmt.Fprintf(r.w, "[%s] %s\n", u.JobID, u.Message)
}

func (r *lineReporter) Log(l progress.Log) {
	if !r.verbose {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "[%s] %s\n", l.JobID, strings.TrimRight(l.Line, "\r\n"))
}

func (r *lineReporter) Result(res progress.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res.Err != nil {
		fmt.Fprintf(r.w, "[%s] failed: %v\n", res.JobID, res.Err)
		return
	}
	fmt.Fprintf(r.w, "[%s] saved %s (%s)\n", res.JobID, filepath.Base(res.OutputPath), format.HumanizeBytes(res.Bytes))
}
