package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	envload "github.com/fleetops/statushub/internal"
)

var rootCmd = &cobra.Command{
	Use:   "statushub",
	Short: "Fleet device status tracking service",
	Long:  `statushub ingests periodic status reports (battery, signal, online flag) from a device fleet, persists them in SQLite and answers full-history, latest-state and fleet-summary queries over HTTP.`,
}

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	rootCmd.AddCommand(
		newServeCmd(),
		newSummaryCmd(),
		newMirrorCmd(),
	)
	_ = envload.Ensure()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("statushub command failed")
	}
}
