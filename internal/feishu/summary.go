package feishu

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Environment override keys for the summary mirror table.
const (
	EnvSummaryBitableURL = "SUMMARY_BITABLE_URL"

	EnvSummaryFieldDeviceID     = "SUMMARY_FIELD_DEVICE_ID"
	EnvSummaryFieldLastUpdate   = "SUMMARY_FIELD_LAST_UPDATE"
	EnvSummaryFieldBatteryLevel = "SUMMARY_FIELD_BATTERY_LEVEL"
	EnvSummaryFieldOnline       = "SUMMARY_FIELD_ONLINE"
)

// SummaryFields lists column names inside the fleet summary table.
type SummaryFields struct {
	DeviceID     string
	LastUpdate   string
	BatteryLevel string
	Online       string
}

// DefaultSummaryFields provides sensible defaults for a fresh table.
var DefaultSummaryFields = SummaryFields{
	DeviceID:     "DeviceID",
	LastUpdate:   "LastUpdate",
	BatteryLevel: "BatteryLevel",
	Online:       "Online",
}

// SummaryFieldsFromEnv builds fields with environment overrides.
func SummaryFieldsFromEnv() SummaryFields {
	f := DefaultSummaryFields
	if v := strings.TrimSpace(os.Getenv(EnvSummaryFieldDeviceID)); v != "" {
		f.DeviceID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSummaryFieldLastUpdate)); v != "" {
		f.LastUpdate = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSummaryFieldBatteryLevel)); v != "" {
		f.BatteryLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSummaryFieldOnline)); v != "" {
		f.Online = v
	}
	return f
}

// SummaryRecordInput describes one device's latest state pushed to the table.
type SummaryRecordInput struct {
	DeviceID     string
	LastUpdate   *time.Time
	BatteryLevel int
	Online       bool
}

// UpsertDeviceSummary creates or updates the summary row keyed by DeviceID.
func (c *Client) UpsertDeviceSummary(ctx context.Context, rawURL string, fields SummaryFields, rec SummaryRecordInput) error {
	if c == nil {
		return errors.New("feishu: client is nil")
	}
	if strings.TrimSpace(rec.DeviceID) == "" {
		return errors.New("feishu: summary device id is empty")
	}
	ref, err := ParseBitableURL(rawURL)
	if err != nil {
		return err
	}

	records, err := c.listBitableRecords(ctx, ref, defaultBitablePageSize)
	if err != nil {
		return err
	}
	recordID := ""
	for _, row := range records {
		if toString(row.Fields[fields.DeviceID]) == strings.TrimSpace(rec.DeviceID) {
			recordID = row.RecordID
			break
		}
	}

	payload := map[string]any{
		fields.DeviceID:     rec.DeviceID,
		fields.BatteryLevel: rec.BatteryLevel,
		fields.Online:       rec.Online,
	}
	if rec.LastUpdate != nil {
		payload[fields.LastUpdate] = rec.LastUpdate.UTC().UnixMilli()
	}

	if recordID == "" {
		_, err = c.createBitableRecord(ctx, ref, payload)
		return err
	}
	return c.updateBitableRecord(ctx, ref, recordID, payload)
}
