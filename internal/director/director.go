// Package director runs one batch: it allocates media, renders quotes and
// drives ffmpeg for each video in turn, then records the ledger and the
// duration estimate.
package director

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"versereel/internal/allocator"
	"versereel/internal/compositor"
	"versereel/internal/encoder"
	"versereel/internal/estimate"
	"versereel/internal/ledger"
	"versereel/internal/model"
	"versereel/internal/overlay"
	"versereel/internal/progress"
	"versereel/internal/util"
	"versereel/internal/util/format"
	"versereel/internal/util/media"
)

var (
	// ErrNotEnoughQuotes is returned when more videos are requested than quotes exist.
	ErrNotEnoughQuotes = errors.New("not enough quotes")
	// ErrNoCustomer is returned when the request has no customer name.
	ErrNoCustomer = errors.New("customer name is required")
)

// Composer renders one quote image.
type Composer interface {
	Render(text, reference string, profile model.FontProfile, canvas image.Point, outDir string) (model.RenderedQuote, error)
}

// Service orchestrates the allocate → probe → render → encode → ledger workflow.
type Service struct {
	ffmpegPath string
	verbose    bool
	runner     util.CmdRunner
	prober     encoder.Prober
	composer   Composer
	ownsComp   bool
	estimates  estimate.Store
	reporter   progress.Reporter
	logger     *zap.Logger
	rng        *rand.Rand
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithFFmpegPath sets the ffmpeg binary path.
func WithFFmpegPath(p string) Option {
	return func(s *Service) {
		s.ffmpegPath = p
	}
}

// WithVerbose streams subprocess output to the terminal.
func WithVerbose(v bool) Option {
	return func(s *Service) {
		s.verbose = v
	}
}

// WithRunner injects a custom command runner (useful for testing).
func WithRunner(r util.CmdRunner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// WithProber replaces the ffprobe backend.
func WithProber(p encoder.Prober) Option {
	return func(s *Service) {
		s.prober = p
	}
}

// WithComposer replaces the quote renderer.
func WithComposer(c Composer) Option {
	return func(s *Service) {
		s.composer = c
	}
}

// WithEstimateStore sets where the seconds-per-video estimate lives.
func WithEstimateStore(st estimate.Store) Option {
	return func(s *Service) {
		s.estimates = st
	}
}

// WithReporter attaches a progress reporter (used by the TUI and CLI).
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) {
		s.reporter = rp
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithRand fixes the random source used for allocation.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) {
		s.rng = r
	}
}

// WithClock overrides time.Now for elapsed-time measurement.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService constructs a Service, filling in defaults for missing components.
func NewService(opts ...Option) *Service {
	s := &Service{}
	for _, o := range opts {
		o(s)
	}
	if s.runner == nil {
		s.runner = util.NewDefaultRunner()
	}
	if s.prober == nil {
		s.prober = encoder.FFProbe{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.composer == nil {
		s.composer = compositor.New(compositor.WithLogger(s.logger))
		s.ownsComp = true
	}
	if s.reporter == nil {
		s.reporter = progress.Nop{}
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// VideoID is the reporter job id of the i-th video of a batch.
func VideoID(i int) string {
	return "video-" + strconv.Itoa(i)
}

// CustomerDir returns the folder holding a customer's videos under root.
func CustomerDir(root, customer string) string {
	return filepath.Join(root, util.SanitizeFilename(strings.TrimSpace(customer)))
}

// Run produces req.Count videos. Videos are made strictly one after another.
// A count of zero or less is an empty batch that touches nothing on disk.
// Under FailAbort the first failure ends the batch and no ledger rows are
// written; under FailSkip failures are collected in the result.
func (s *Service) Run(ctx context.Context, req model.BatchRequest) (model.BatchResult, error) {
	start := s.now()
	var res model.BatchResult

	customer := strings.TrimSpace(req.Customer)
	if customer == "" {
		return res, ErrNoCustomer
	}
	if req.Count <= 0 {
		return res, nil
	}
	if s.ffmpegPath == "" {
		return res, fmt.Errorf("ffmpeg path is required")
	}
	lib := req.Library
	n := req.Count
	if n > len(lib.Quotes) {
		return res, fmt.Errorf("%w: requested %d, have %d", ErrNotEnoughQuotes, n, len(lib.Quotes))
	}
	alloc, err := allocator.Allocate(n, lib.Clips.Len(), lib.Tracks.Len(), len(lib.Fonts), s.rng)
	if err != nil {
		return res, fmt.Errorf("allocate: %w", err)
	}

	if s.ownsComp && lib.FallbackFont != "" {
		s.composer = compositor.New(compositor.WithLogger(s.logger), compositor.WithFallbackFont(lib.FallbackFont))
	}

	res.OutputDir = CustomerDir(req.OutputRoot, customer)
	if err := util.EnsureDir(filepath.Join(res.OutputDir, compositor.ImageDir)); err != nil {
		return res, fmt.Errorf("ensure output dir: %w", err)
	}
	res.LedgerPath = ledger.PathFor(res.OutputDir, filepath.Base(res.OutputDir))

	prev := model.Unknown()
	if s.estimates != nil {
		prev = s.estimates.Load(ctx)
	}
	s.announce(customer, n, res.OutputDir, prev)

	rows := make([]model.LedgerRow, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		as, err := alloc.Next()
		if err != nil {
			return res, err
		}
		vr, err := s.produce(ctx, i, as, lib, res.OutputDir)
		if err != nil {
			s.reporter.Update(progress.Update{JobID: VideoID(i), Stage: progress.StageError, Percent: -1, Message: err.Error()})
			s.reporter.Result(progress.Result{JobID: VideoID(i), Err: err})
			s.logger.Error("video failed", zap.Int("index", i), zap.Error(err))
			if req.OnError != model.FailSkip || ctx.Err() != nil {
				return res, fmt.Errorf("video %d: %w", i, err)
			}
			res.Failed = append(res.Failed, model.VideoFailure{Index: i, Err: err})
			continue
		}
		res.Videos = append(res.Videos, vr)
		rows = append(rows, model.LedgerRow{
			FileName:  filepath.Base(vr.OutputPath),
			Reference: vr.Quote.Reference,
			Verse:     vr.Quote.Verse,
		})
	}

	if err := ledger.Append(res.LedgerPath, rows); err != nil {
		return res, err
	}

	end := s.now()
	res.Elapsed = end.Sub(start)
	if next, ok := estimate.Blend(prev, res.Elapsed, n, end); ok && s.estimates != nil {
		if err := s.estimates.Save(ctx, next); err != nil {
			s.logger.Warn("estimate not saved", zap.Error(err))
		} else {
			res.Estimate = next
		}
	}
	s.logger.Info("batch finished",
		zap.String("customer", customer),
		zap.Int("videos", len(res.Videos)),
		zap.Int("failed", len(res.Failed)),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func (s *Service) announce(customer string, n int, outDir string, prev model.Estimate) {
	info := progress.BatchInfo{Customer: customer, Count: n, OutputDir: outDir}
	fields := []zap.Field{zap.String("customer", customer), zap.Int("count", n)}
	if eta, ok := estimate.ETA(prev, n); ok {
		info.ETA = &eta
		fields = append(fields, zap.Duration("eta", eta))
	}
	s.logger.Info("batch started", fields...)
	if br, ok := s.reporter.(progress.BatchReporter); ok {
		br.BatchStarted(info)
	}
}

func (s *Service) produce(ctx context.Context, i int, as model.Assignment, lib model.Library, outDir string) (model.VideoResult, error) {
	id := VideoID(i)
	quote := lib.Quotes[i]
	clip := lib.Clips[as.Clip]
	track := lib.Tracks[as.Track]
	font := lib.Fonts[as.Font]

	s.reporter.Update(progress.Update{JobID: id, Stage: progress.StageProbing, Percent: -1, Message: "Probing " + filepath.Base(clip)})
	info, err := s.prober.Probe(ctx, clip)
	if err != nil {
		return model.VideoResult{}, err
	}

	s.reporter.Update(progress.Update{JobID: id, Stage: progress.StageRendering, Percent: -1, Message: "Rendering " + quote.Reference})
	rq, err := s.composer.Render(quote.Verse, quote.Reference, font, image.Pt(info.Width, info.Height/2), outDir)
	if err != nil {
		return model.VideoResult{}, fmt.Errorf("render quote: %w", err)
	}

	name := media.OutputFilename(i, quote.Reference, clip)
	job := encoder.ComposeJob{
		LogoImage:     lib.LogoImage,
		Track:         track,
		Clip:          clip,
		QuoteImage:    rq.Path,
		ReferenceFont: lib.ReferenceFont,
		Reference:     quote.Reference,
		Placement:     overlay.Plan(rq.Height),
		DurationSec:   info.DurationSec,
		OutputPath:    filepath.Join(outDir, name),
	}
	s.reporter.Update(progress.Update{JobID: id, Stage: progress.StageEncoding, Percent: 0, Message: "Encoding " + name})
	encOpts := encoder.Options{
		FFmpegPath: s.ffmpegPath,
		Verbose:    s.verbose,
		Runner:     s.runner,
		JobID:      id,
	}
	if _, nop := s.reporter.(progress.Nop); !nop {
		encOpts.Reporter = s.reporter
	}
	out, err := encoder.Compose(ctx, job, encOpts)
	if err != nil {
		return model.VideoResult{}, err
	}

	s.reporter.Update(progress.Update{
		JobID:   id,
		Stage:   progress.StageCompleted,
		Percent: 100,
		Message: fmt.Sprintf("Saved: %s (%s)", name, format.HumanizeBytes(out.Bytes)),
	})
	s.reporter.Result(progress.Result{JobID: id, OutputPath: out.Path, Bytes: out.Bytes})
	s.logger.Debug("video saved",
		zap.Int("index", i),
		zap.String("clip", filepath.Base(clip)),
		zap.String("track", filepath.Base(track)),
		zap.String("font", font.Path),
		zap.String("output", out.Path),
	)
	return model.VideoResult{
		Index:      i,
		OutputPath: out.Path,
		Bytes:      out.Bytes,
		Assignment: as,
		Quote:      quote,
	}, nil
}
