package status

import "time"

// Record is one immutable status observation reported by a device. The ID is
// assigned by the store at insertion and never reused.
type Record struct {
	ID           int64     `json:"id"`
	DeviceID     string    `json:"device_id"`
	Timestamp    time.Time `json:"timestamp"`
	BatteryLevel int       `json:"battery_level"`
	RSSI         int       `json:"rssi"`
	Online       bool      `json:"online"`
}

// Update is a partial patch against an existing record. Nil fields are left
// untouched; a non-nil field overwrites even when it equals the zero value.
type Update struct {
	Timestamp    *time.Time
	BatteryLevel *int
	RSSI         *int
	Online       *bool
}

// IsZero reports whether the patch sets no fields at all.
func (u Update) IsZero() bool {
	return u.Timestamp == nil && u.BatteryLevel == nil && u.RSSI == nil && u.Online == nil
}

// SummaryItem projects a device's latest record into the fleet summary.
// RSSI and the internal record id are deliberately absent from the shape.
type SummaryItem struct {
	DeviceID     string    `json:"device_id"`
	LastUpdate   time.Time `json:"last_update"`
	BatteryLevel int       `json:"battery_level"`
	Online       bool      `json:"online"`
}
