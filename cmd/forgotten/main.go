// forgotten submits deceased-account removal and memorialization requests to
// social platforms and tracks their progress.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikkiricks/forgotten/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "forgotten",
	Short: "Deceased-account removal and memorialization requests",
	Long: `forgotten automates deceased-account removal and memorialization
requests across social platforms on behalf of family members and
authorized representatives.

Each platform attempt runs in an isolated browser session. Unrecoverable
failures degrade to a manual-processing outcome so the requester always
receives a usable identifier for follow-up.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(verbose); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "forgotten.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sweepCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
