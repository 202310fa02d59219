package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nikkiricks/forgotten/internal/config"
	"github.com/nikkiricks/forgotten/internal/logging"
	"github.com/nikkiricks/forgotten/internal/retention"
	"github.com/nikkiricks/forgotten/internal/server"
	"github.com/nikkiricks/forgotten/internal/submit"
	"github.com/nikkiricks/forgotten/internal/tracking"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service with the background retention sweeper",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.Get(logging.CategoryBoot)

	plog, err := retention.NewPrivacyLog(cfg.PrivacyLogDir, cfg.Retention.GetLogWindow())
	if err != nil {
		return err
	}

	trackingStore, err := tracking.NewStore(cfg.DatabasePath, cfg.Retention.GetTrackingWindow(), plog)
	if err != nil {
		return err
	}
	defer trackingStore.Close()

	discoveryStore, err := retention.NewStore(cfg.DatabasePath, cfg.Retention.GetDiscoveryWindow(), plog)
	if err != nil {
		return err
	}
	defer discoveryStore.Close()

	orchestrator := submit.NewOrchestrator(cfg.Browser)
	srv := server.New(orchestrator, trackingStore, discoveryStore)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := retention.NewSweeper(cfg.Retention.GetSweepInterval(), plog, map[string]retention.Target{
		"tracking":  trackingStore,
		"discovery": discoveryStore,
	})
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		sweeper.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		log.Infow("listening", "addr", cfg.ListenAddr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Infow("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnw("http shutdown incomplete", "error", err)
	}
	stop()
	<-sweeperDone
	log.Infow("stopped")
	return nil
}
