package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"versereel/internal/config"
)

const (
	ExitOK           = 0
	ExitCLIError     = 1
	ExitMissingDep   = 2
	ExitLibraryError = 3
	ExitBatchError   = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "versereel",
		Short:         "Batch maker for vertical quote videos",
		Long:          "Versereel turns a library of background clips, music tracks, fonts and quotes into batches of vertical videos: each video gets its own clip, track and font, the quote rendered over the clip and the reference line underneath.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags available to all subcommands
	root.PersistentFlags().String("config", "", "Config file (default: <config dir>/config.yaml or ./config.yaml)")
	root.PersistentFlags().String("base-dir", ".", "Directory holding videos/, audio/ and sources/")
	root.PersistentFlags().StringP("out-dir", "o", "", "Output root; one folder per customer (default: <base-dir>/customers)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Show full subprocess commands/output and debug logs")
	root.PersistentFlags().String("ffmpeg", "", "Path to ffmpeg")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if err := config.Init(root); err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		return nil
	}

	// Subcommands
	root.AddCommand(newRunCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newTuiCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newWorkerCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

func bindBatchFlags(fs *pflag.FlagSet) {
	fs.IntP("count", "n", 1, "Number of videos to make")
	fs.Bool("all", false, "Make one video for every quote except the last")
	fs.Int64("seed", 0, "Random seed for media allocation; 0 picks one")
}

func bindRunFlags(fs *pflag.FlagSet) {
	bindBatchFlags(fs)
	fs.String("on-error", "abort", "What to do when one video fails: abort, skip")
	fs.Bool("no-ui", false, "Disable TUI; use plain textual output")
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	return root.ExecuteContext(ctx)
}
