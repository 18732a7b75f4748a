package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"racedesk/server"
	"racedesk/store"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			builds, err := store.Open(a.cfg.Store.Path)
			if err != nil {
				return err
			}
			defer builds.Close()

			if a.cfg.Log.Mode == "production" {
				gin.SetMode(gin.ReleaseMode)
			}
			srv, err := server.New(server.Options{
				Agent:             a.agent,
				Builds:            builds,
				Log:               a.log,
				UndoCapacity:      a.cfg.UndoCapacity,
				AllowedOrigins:    a.cfg.Server.AllowedOrigins,
				RequestsPerMinute: a.cfg.Server.RequestsPerMinute,
			})
			if err != nil {
				return err
			}

			listen := a.cfg.Server.Addr
			if addr != "" {
				listen = addr
			}
			httpSrv := &http.Server{
				Addr:              listen,
				Handler:           srv.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("starting web server", "addr", listen, "models", len(a.cfg.Models))
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.log.Info("shutting down web server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
