package main

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fleetops/statushub/internal/recorder"
	"github.com/fleetops/statushub/internal/status"
)

func newMirrorCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Push the current fleet summary to the configured Feishu table",
		RunE: func(cmd *cobra.Command, args []string) error {
			mirror, err := recorder.NewFromEnv()
			if err != nil {
				return err
			}
			if _, noop := mirror.(recorder.Noop); noop {
				return errors.New("SUMMARY_BITABLE_URL is not configured")
			}

			st, err := openStore(dbPath, false)
			if err != nil {
				return err
			}
			defer st.Close()

			svc := status.NewService(st)
			items, err := svc.Summary(cmd.Context())
			if err != nil {
				if errors.Is(err, status.ErrNoData) {
					return errors.New("no status reports stored yet")
				}
				return err
			}
			if err := mirror.UpsertSummary(cmd.Context(), items); err != nil {
				return err
			}
			log.Info().Int("devices", len(items)).Msg("fleet summary mirrored")
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path, overrides STATUS_DB_PATH")
	return cmd
}
