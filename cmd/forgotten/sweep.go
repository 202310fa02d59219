package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikkiricks/forgotten/internal/config"
	"github.com/nikkiricks/forgotten/internal/retention"
	"github.com/nikkiricks/forgotten/internal/tracking"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a one-off expiry sweep over all stores and log partitions",
	RunE:  runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

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

	trackingRemoved, err := trackingStore.SweepExpired()
	if err != nil {
		return err
	}
	discoveryRemoved, err := discoveryStore.SweepExpired()
	if err != nil {
		return err
	}
	partitionsRemoved, err := plog.SweepPartitions()
	if err != nil {
		return err
	}

	fmt.Printf("tracking records removed:   %d\n", trackingRemoved)
	fmt.Printf("discovery results removed:  %d\n", discoveryRemoved)
	fmt.Printf("log partitions removed:     %d\n", partitionsRemoved)
	return nil
}
