package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"versereel/internal/model"
)

// BatchRunner is satisfied by *director.Service.
type BatchRunner interface {
	Run(ctx context.Context, req model.BatchRequest) (model.BatchResult, error)
}

// Publisher copies finished files to remote storage.
type Publisher interface {
	PublishFiles(ctx context.Context, customerFolder string, files []string) ([]string, error)
}

// Handler runs one batch per task.
type Handler struct {
	runner      BatchRunner
	loadLibrary func() (model.Library, error)
	outputRoot  string
	onError     model.FailurePolicy
	publisher   Publisher
	logger      *zap.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithPublisher uploads every finished batch.
func WithPublisher(p Publisher) HandlerOption {
	return func(h *Handler) {
		h.publisher = p
	}
}

// WithFailurePolicy sets how single-video failures are treated.
func WithFailurePolicy(p model.FailurePolicy) HandlerOption {
	return func(h *Handler) {
		h.onError = p
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = l
	}
}

// NewHandler returns a Handler. The library is reloaded for every task so
// media added between batches is picked up.
func NewHandler(runner BatchRunner, loadLibrary func() (model.Library, error), outputRoot string, opts ...HandlerOption) *Handler {
	h := &Handler{
		runner:      runner,
		loadLibrary: loadLibrary,
		outputRoot:  outputRoot,
		onError:     model.FailAbort,
	}
	for _, o := range opts {
		o(h)
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// ProcessTask implements asynq.Handler.
func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p Payload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	log := h.logger.With(zap.String("customer", p.CustomerName), zap.Int("count", p.NumberOfVideos))

	lib, err := h.loadLibrary()
	if err != nil {
		return fmt.Errorf("load library: %w", err)
	}
	res, err := h.runner.Run(ctx, model.BatchRequest{
		Customer:   p.CustomerName,
		Count:      p.NumberOfVideos,
		OutputRoot: h.outputRoot,
		Library:    lib,
		OnError:    h.onError,
	})
	if err != nil {
		log.Error("batch failed", zap.Error(err))
		return err
	}

	out := Outcome{Folder: filepath.Base(res.OutputDir), Files: make([]string, 0, len(res.Videos))}
	for _, f := range res.Files() {
		out.Files = append(out.Files, filepath.Base(f))
	}

	if h.publisher != nil {
		files := append(res.Files(), res.LedgerPath)
		if keys, err := h.publisher.PublishFiles(ctx, out.Folder, files); err != nil {
			log.Warn("publish failed", zap.Error(err), zap.Int("published", len(keys)))
		}
	}

	b, err := json.Marshal(out)
	if err != nil {
		return err
	}
	if rw := t.ResultWriter(); rw != nil {
		if _, err := rw.Write(b); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	log.Info("batch done", zap.String("folder", out.Folder), zap.Int("files", len(out.Files)))
	return nil
}

// RedisOpt converts plain settings to an asynq connection option.
func RedisOpt(addr, password string, db int) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: addr, Password: password, DB: db}
}

// NewServer returns an asynq server consuming QueueName.
func NewServer(opt asynq.RedisConnOpt, concurrency int, logger *zap.Logger) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 1
	}
	cfg := asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueName: 1},
	}
	if logger != nil {
		cfg.Logger = logger.Sugar()
	}
	return asynq.NewServer(opt, cfg)
}

// NewMux routes batch tasks to h.
func NewMux(h *Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeGenerateBatch, h)
	return mux
}

// RunnerFunc adapts a function to BatchRunner.
type RunnerFunc func(ctx context.Context, req model.BatchRequest) (model.BatchResult, error)

// Run implements BatchRunner.
func (f RunnerFunc) Run(ctx context.Context, req model.BatchRequest) (model.BatchResult, error) {
	return f(ctx, req)
}
