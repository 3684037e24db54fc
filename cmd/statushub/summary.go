package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fleetops/statushub/internal/status"
)

func newSummaryCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the fleet summary from the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path, overrides STATUS_DB_PATH")
	return cmd
}
