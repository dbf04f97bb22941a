package recorder_cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	receiver_routers "github.com/rufaelfekadu/ramsalab-light/api/receiver-api/router"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func NewServeCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reference submission endpoint",
		Long:  "Serves POST /submit_audio, /healthz/ and /readiness/ and stores answers under the upload folder.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, deps)
		},
	}
}

func serve(ctx context.Context, deps *Dependencies) error {
	cfg := deps.Config
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           receiver_routers.NewEngine(cfg, deps.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		deps.Logger.Infof("receiver listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		deps.Logger.Infof("receiver shutting down")
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
