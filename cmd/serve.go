package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calclimate/firedash/internal/predict"
	"github.com/calclimate/firedash/internal/server"
	"github.com/calclimate/firedash/internal/summary"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tabular extracts to the visualization layer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := buildPipeline(ctx, "serve")
		if err != nil {
			return err
		}

		var opts []server.Option
		if cfg.Predict.ModelPath != "" {
			clf, err := predict.LoadLinear(cfg.Predict.ModelPath)
			if err != nil {
				zap.L().Warn("classifier unavailable, predict endpoint disabled", zap.Error(err))
			} else {
				opts = append(opts, server.WithClassifier(clf, cfg.Predict.Features))
			}
		}
		if cfg.Data.PlotDir != "" {
			plots, err := summary.IndexPlots(cfg.Data.PlotDir)
			if err != nil {
				zap.L().Warn("plot index unavailable", zap.Error(err))
			} else {
				opts = append(opts, server.WithPlots(plots))
			}
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			return eris.Wrap(err, "server listen")
		}

		zap.L().Info("starting server", zap.Int("port", port))
		srv := &http.Server{Handler: server.New(p, opts...).Router()}
		return serveUntilShutdown(ctx, srv, ln)
	},
}

// serveUntilShutdown serves until ctx is cancelled, then drains in-flight
// requests. Shutdown runs under a fresh context; the cancelled one would
// abort the drain immediately.
func serveUntilShutdown(ctx context.Context, srv *http.Server, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		if err := srv.Shutdown(context.Background()); err != nil {
			zap.L().Warn("server shutdown", zap.Error(err))
		}
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
