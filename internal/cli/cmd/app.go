package cmd

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"versereel/internal/config"
	"versereel/internal/director"
	"versereel/internal/estimate"
	"versereel/internal/library"
	"versereel/internal/logging"
	"versereel/internal/model"
)

// app bundles what every subcommand resolves first.
type app struct {
	settings config.Settings
	logger   *zap.Logger
}

func loadApp() (*app, error) {
	s, err := config.Load()
	if err != nil {
		return nil, &ExitError{Code: ExitCLIError, Err: err}
	}
	logger, err := logging.New(s.Verbose)
	if err != nil {
		return nil, &ExitError{Code: ExitCLIError, Err: fmt.Errorf("init logger: %w", err)}
	}
	return &app{settings: s, logger: logger}, nil
}

func (a *app) loadLibrary() (model.Library, error) {
	lib, err := library.Load(a.settings.LibrarySource())
	if err != nil {
		return model.Library{}, &ExitError{Code: ExitLibraryError, Err: err}
	}
	return lib, nil
}

func (a *app) serviceOptions(ffmpegPath string, seed int64) []director.Option {
	opts := []director.Option{
		director.WithFFmpegPath(ffmpegPath),
		director.WithVerbose(a.settings.Verbose),
		director.WithLogger(a.logger),
	}
	if a.settings.EstimateFile != "" {
		opts = append(opts, director.WithEstimateStore(estimate.NewFileStore(a.settings.EstimateFile)))
	}
	if seed != 0 {
		opts = append(opts, director.WithRand(rand.New(rand.NewSource(seed))))
	}
	return opts
}

type batchInputs struct {
	Customer string
	Count    int
	All      bool // Count is resolved to every quote but one once the library is loaded.
	Seed     int64
	OnError  model.FailurePolicy
	NoUI     bool
}

func assembleBatchInputs(cmd *cobra.Command, args []string) (batchInputs, error) {
	in := batchInputs{Customer: strings.TrimSpace(args[0]), OnError: model.FailAbort}
	if in.Customer == "" {
		return in, errors.New("customer name must not be empty")
	}
	in.Count, _ = cmd.Flags().GetInt("count")
	in.All, _ = cmd.Flags().GetBool("all")
	if in.All && cmd.Flags().Changed("count") {
		return in, errors.New("--all and --count are mutually exclusive")
	}
	if !in.All && in.Count < 1 {
		return in, fmt.Errorf("invalid --count: %d (must be at least 1)", in.Count)
	}
	in.Seed, _ = cmd.Flags().GetInt64("seed")
	if cmd.Flags().Lookup("on-error") != nil {
		policy, _ := cmd.Flags().GetString("on-error")
		switch p := model.FailurePolicy(strings.ToLower(policy)); p {
		case model.FailAbort, model.FailSkip:
			in.OnError = p
		default:
			return in, fmt.Errorf("invalid --on-error: %q (valid: abort|skip)", policy)
		}
	}
	if cmd.Flags().Lookup("no-ui") != nil {
		in.NoUI, _ = cmd.Flags().GetBool("no-ui")
	}
	return in, nil
}

// resolveCount fixes Count for --all: every quote in the library but the last.
func (in *batchInputs) resolveCount(quotes int) error {
	if !in.All {
		return nil
	}
	in.Count = quotes - 1
	if in.Count < 1 {
		return fmt.Errorf("--all needs at least 2 quotes, library has %d", quotes)
	}
	return nil
}

// batchExit maps a director error to a process exit code.
func batchExit(err error) error {
	var ee *ExitError
	switch {
	case errors.As(err, &ee):
		return ee
	case errors.Is(err, director.ErrNotEnoughQuotes), errors.Is(err, director.ErrNoCustomer):
		return &ExitError{Code: ExitCLIError, Err: err}
	default:
		return &ExitError{Code: ExitBatchError, Err: err}
	}
}

func formatETA(d time.Duration) string {
	return d.Round(time.Second).String()
}
