package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jbweber/lvmpool/internal/api"
	"github.com/jbweber/lvmpool/internal/log"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pool and volume API over HTTP",
	Long: `Serve the pool and volume API over HTTP on server.listen.

Routes:
  GET    /healthz
  GET    /metrics
  GET    /v1/pools              POST /v1/pools
  GET    /v1/pools/{name}       DELETE /v1/pools/{name}
  GET    /v1/volumes[?pool=p]   POST /v1/volumes
  GET    /v1/volumes/{uuid}     DELETE /v1/volumes/{uuid}`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, closeFn := openManager(ctx)
		defer closeFn()

		srv := &http.Server{
			Addr:              cfg.Server.Listen,
			Handler:           api.NewServer(mgr.Pools, mgr.Volumes).Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)

		// Run the server
		g.Go(func() error {
			log.Logger.Info().Str("listen", cfg.Server.Listen).Msg("serving API")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		// Shut down when the context is cancelled
		g.Go(func() error {
			<-gctx.Done()
			log.Logger.Info().Msg("shutting down API")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}
