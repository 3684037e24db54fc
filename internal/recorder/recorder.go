package recorder

import (
	"context"

	"github.com/fleetops/statushub/internal/status"
)

// SummaryRecorder mirrors devices' latest states into an external table.
type SummaryRecorder interface {
	UpsertSummary(ctx context.Context, items []status.SummaryItem) error
}

// Noop discards every snapshot. Used when no mirror is configured.
type Noop struct{}

func (Noop) UpsertSummary(ctx context.Context, items []status.SummaryItem) error {
	return nil
}
