package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikkiricks/forgotten/internal/config"
	"github.com/nikkiricks/forgotten/internal/retention"
	"github.com/nikkiricks/forgotten/internal/tracking"
)

var statusLegacy bool

var statusCmd = &cobra.Command{
	Use:   "status [tracking-number]",
	Short: "Look up a tracking record",
	Long: `Prints the tracking record for a FRG-XXXX-XXXX-XXXX tracking number.
With --legacy the argument is treated as an old confirmation id.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusLegacy, "legacy", false, "Look up by legacy confirmation id")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	plog, err := retention.NewPrivacyLog(cfg.PrivacyLogDir, cfg.Retention.GetLogWindow())
	if err != nil {
		return err
	}
	store, err := tracking.NewStore(cfg.DatabasePath, cfg.Retention.GetTrackingWindow(), plog)
	if err != nil {
		return err
	}
	defer store.Close()

	var rec *tracking.Record
	if statusLegacy {
		rec, err = store.FindByLegacyID(args[0])
	} else {
		rec, err = store.GetStatus(args[0])
	}
	if err != nil {
		return err
	}

	out, _ := json.MarshalIndent(rec, "", "  ")
	fmt.Println(string(out))
	return nil
}
