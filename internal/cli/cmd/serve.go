package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"versereel/internal/api"
	"versereel/internal/config"
	"versereel/internal/queue"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Serve the HTTP API that queues batches and hands out finished files",
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
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				a.settings.Server.Addr = addr
			}
			if !a.settings.Verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			r := a.settings.Redis
			jobs := queue.NewClient(queue.RedisOpt(r.Addr, r.Password, r.DB))
			defer jobs.Close()

			srv := &http.Server{
				Addr:              a.settings.Server.Addr,
				Handler:           api.NewRouter(jobs, a.settings.OutDir, a.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("api listening", zap.String("addr", srv.Addr), zap.String("output_root", a.settings.OutDir))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return &ExitError{Code: ExitCLIError, Err: err}
			case <-cmd.Context().Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			a.logger.Info("api shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default from config, :8000)")
	return cmd
}
