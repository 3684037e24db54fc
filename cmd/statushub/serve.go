package main

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fleetops/statushub/internal/config"
	"github.com/fleetops/statushub/internal/recorder"
	"github.com/fleetops/statushub/internal/server"
	"github.com/fleetops/statushub/internal/status"
	"github.com/fleetops/statushub/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		addr     string
		dbPath   string
		apiKey   string
		inMemory bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the status ingestion HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = config.String("STATUS_HTTP_ADDR", "127.0.0.1:8000")
			}
			if apiKey == "" {
				apiKey = config.String("STATUS_API_KEY", "")
			}

			st, err := openStore(dbPath, inMemory)
			if err != nil {
				return err
			}
			defer st.Close()

			mirror, err := recorder.NewFromEnv()
			if err != nil {
				return err
			}

			svc := status.NewService(st)
			srv := server.New(svc, server.Gate{APIKey: apiKey}, mirror)

			timeout := config.Duration("STATUS_HTTP_TIMEOUT", 30*time.Second)
			httpServer := &http.Server{
				Addr:         addr,
				Handler:      srv.Handler(),
				ReadTimeout:  timeout,
				WriteTimeout: timeout,
			}
			log.Info().Str("addr", addr).Bool("gate", apiKey != "").Msg("statushub listening")
			return httpServer.ListenAndServe()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides STATUS_HTTP_ADDR")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path, overrides STATUS_DB_PATH")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "shared API key, overrides STATUS_API_KEY; empty disables the gate")
	cmd.Flags().BoolVar(&inMemory, "memory", false, "keep records in memory instead of sqlite")
	return cmd
}

func openStore(dbPath string, inMemory bool) (status.Store, error) {
	if inMemory {
		return store.NewMemory(), nil
	}
	if dbPath == "" {
		dbPath = config.String("STATUS_DB_PATH", "status.sqlite")
	}
	return store.OpenSQLite(dbPath)
}
