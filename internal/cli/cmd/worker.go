package cmd

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"versereel/internal/config"
	"versereel/internal/director"
	"versereel/internal/estimate"
	"versereel/internal/model"
	"versereel/internal/queue"
	"versereel/internal/storage"
	"versereel/internal/util/deps"
)

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "worker",
		Short:         "Consume queued batches and produce their videos",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("load .env: %w", err)}
			}
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()
			if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
				a.settings.Worker.Concurrency = n
			}
			onError, _ := cmd.Flags().GetString("on-error")
			policy := model.FailurePolicy(onError)
			if policy != model.FailAbort && policy != model.FailSkip {
				return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("invalid --on-error: %q (valid: abort|skip)", onError)}
			}

			ffmpegPath, err := deps.FindFFmpeg(a.settings.FFmpeg)
			if err != nil {
				return &ExitError{Code: ExitMissingDep, Err: err}
			}
			if _, err := deps.FindFFprobe(); err != nil {
				return &ExitError{Code: ExitMissingDep, Err: err}
			}

			rs := a.settings.Redis
			rdb := redis.NewClient(&redis.Options{Addr: rs.Addr, Password: rs.Password, DB: rs.DB})
			defer rdb.Close()
			if err := rdb.Ping(cmd.Context()).Err(); err != nil {
				return &ExitError{Code: ExitMissingDep, Err: fmt.Errorf("redis %s: %w", rs.Addr, err)}
			}
			store := estimate.NewRedisStore(rdb, rs.EstimateKey)

			// One Service per task: a Service owns its random source.
			runner := queue.RunnerFunc(func(ctx context.Context, req model.BatchRequest) (model.BatchResult, error) {
				svc := director.NewService(
					director.WithFFmpegPath(ffmpegPath),
					director.WithVerbose(a.settings.Verbose),
					director.WithLogger(a.logger),
					director.WithEstimateStore(store),
				)
				return svc.Run(ctx, req)
			})

			hopts := []queue.HandlerOption{queue.WithLogger(a.logger), queue.WithFailurePolicy(policy)}
			if s3cfg := a.settings.S3; s3cfg.Bucket != "" {
				client, err := storage.NewClient(cmd.Context(), storage.S3Config{
					Region:       s3cfg.Region,
					Profile:      s3cfg.Profile,
					UsePathStyle: s3cfg.UsePathStyle,
				})
				if err != nil {
					return &ExitError{Code: ExitCLIError, Err: err}
				}
				var popts []storage.PublisherOption
				if s3cfg.SkipExisting {
					popts = append(popts, storage.WithSkipExisting())
				}
				hopts = append(hopts, queue.WithPublisher(storage.NewPublisher(client, s3cfg.Bucket, s3cfg.Prefix, a.logger, popts...)))
			}
			handler := queue.NewHandler(runner, a.loadLibrary, a.settings.OutDir, hopts...)

			srv := queue.NewServer(queue.RedisOpt(rs.Addr, rs.Password, rs.DB), a.settings.Worker.Concurrency, a.logger)
			a.logger.Info("worker started",
				zap.Int("concurrency", a.settings.Worker.Concurrency),
				zap.String("output_root", a.settings.OutDir),
				zap.Bool("publish", a.settings.S3.Bucket != ""),
			)
			if err := srv.Start(queue.NewMux(handler)); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			<-cmd.Context().Done()
			srv.Shutdown()
			return nil
		},
	}
	cmd.Flags().Int("concurrency", 0, "Batches processed at once (default from config, 1)")
	cmd.Flags().String("on-error", "abort", "What to do when one video fails: abort, skip")
	return cmd
}
