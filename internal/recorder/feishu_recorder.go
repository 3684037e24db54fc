package recorder

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fleetops/statushub/internal/feishu"
	"github.com/fleetops/statushub/internal/status"
)

// FeishuRecorder pushes fleet summary rows into a Feishu bitable keyed by
// device id.
type FeishuRecorder struct {
	client   *feishu.Client
	tableURL string
	fields   feishu.SummaryFields
}

// NewFeishuRecorder returns nil when the table URL is empty, allowing
// graceful opt-out.
func NewFeishuRecorder(tableURL string) (*FeishuRecorder, error) {
	tableURL = strings.TrimSpace(tableURL)
	if tableURL == "" {
		return nil, nil
	}
	cli, err := feishu.NewClientFromEnv()
	if err != nil {
		return nil, err
	}
	return &FeishuRecorder{
		client:   cli,
		tableURL: tableURL,
		fields:   feishu.SummaryFieldsFromEnv(),
	}, nil
}

// NewFromEnv builds a recorder using environment variables; falls back to
// Noop when not configured.
func NewFromEnv() (SummaryRecorder, error) {
	rec, err := NewFeishuRecorder(os.Getenv(feishu.EnvSummaryBitableURL))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return Noop{}, nil
	}
	log.Info().Str("tableURL", rec.tableURL).Msg("feishu summary mirror enabled")
	return rec, nil
}

// UpsertSummary mirrors each item independently. A failed row is logged and
// skipped so one bad device never blocks the rest of the fleet.
func (r *FeishuRecorder) UpsertSummary(ctx context.Context, items []status.SummaryItem) error {
	if r == nil || r.client == nil || len(items) == 0 {
		return nil
	}
	for _, item := range items {
		lastUpdate := item.LastUpdate
		rec := feishu.SummaryRecordInput{
			DeviceID:     item.DeviceID,
			BatteryLevel: item.BatteryLevel,
			Online:       item.Online,
		}
		if !lastUpdate.IsZero() {
			rec.LastUpdate = &lastUpdate
		}
		if err := r.client.UpsertDeviceSummary(ctx, r.tableURL, r.fields, rec); err != nil {
			log.Error().Err(err).Str("device_id", item.DeviceID).Msg("feishu recorder: upsert summary failed")
		}
	}
	return nil
}
