package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd starts the API server when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "ariss",
	Short: "ARISS B2B commerce API server.",
	Long: `ariss serves the dealer, technician and back-office commerce API and
carries the maintenance commands used alongside it.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(createAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
