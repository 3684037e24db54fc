package status

import (
	"strings"
	"time"
)

// Battery bounds, inclusive on both ends.
const (
	batteryMin = 0
	batteryMax = 100
)

// ReportInput carries the raw fields of a create request. Pointer fields
// distinguish "absent" from "present with the zero value".
type ReportInput struct {
	DeviceID     *string `json:"device_id"`
	Timestamp    *string `json:"timestamp"`
	BatteryLevel *int    `json:"battery_level"`
	RSSI         *int    `json:"rssi"`
	Online       *bool   `json:"online"`
}

// UpdateInput carries the raw fields of a partial update request. Every
// field is optional; only present fields are validated.
type UpdateInput struct {
	Timestamp    *string `json:"timestamp"`
	BatteryLevel *int    `json:"battery_level"`
	RSSI         *int    `json:"rssi"`
	Online       *bool   `json:"online"`
}

// ValidateReport checks a create input and returns the record to insert
// (without an id). All five fields are required. The returned error is a
// *ValidationError naming every offending field.
func ValidateReport(in ReportInput) (Record, error) {
	verr := newValidationError()
	rec := Record{}

	if in.DeviceID == nil {
		verr.add("device_id", "field is required")
	} else if strings.TrimSpace(*in.DeviceID) == "" {
		verr.add("device_id", "must not be empty")
	} else {
		rec.DeviceID = *in.DeviceID
	}

	if in.Timestamp == nil {
		verr.add("timestamp", "field is required")
	} else if ts, err := parseTimestamp(*in.Timestamp); err != nil {
		verr.add("timestamp", err.Error())
	} else {
		rec.Timestamp = ts
	}

	if in.BatteryLevel == nil {
		verr.add("battery_level", "field is required")
	} else if err := checkBattery(*in.BatteryLevel); err != nil {
		verr.add("battery_level", err.Error())
	} else {
		rec.BatteryLevel = *in.BatteryLevel
	}

	if in.RSSI == nil {
		verr.add("rssi", "field is required")
	} else {
		rec.RSSI = *in.RSSI
	}

	if in.Online == nil {
		verr.add("online", "field is required")
	} else {
		rec.Online = *in.Online
	}

	if !verr.ok() {
		return Record{}, verr
	}
	return rec, nil
}

// ValidateUpdate checks only the fields present in a partial update and
// converts them into a typed patch. Absent fields stay nil on the result.
func ValidateUpdate(in UpdateInput) (Update, error) {
	verr := newValidationError()
	upd := Update{}

	if in.Timestamp != nil {
		ts, err := parseTimestamp(*in.Timestamp)
		if err != nil {
			verr.add("timestamp", err.Error())
		} else {
			upd.Timestamp = &ts
		}
	}
	if in.BatteryLevel != nil {
		if err := checkBattery(*in.BatteryLevel); err != nil {
			verr.add("battery_level", err.Error())
		} else {
			upd.BatteryLevel = in.BatteryLevel
		}
	}
	upd.RSSI = in.RSSI
	upd.Online = in.Online

	if !verr.ok() {
		return Update{}, verr
	}
	return upd, nil
}

// parseTimestamp accepts only complete, zero-padded RFC 3339 date-times with
// an explicit zone. The layout is intentionally strict about representation:
// "2025-06-30T7:00:00Z" is rejected even though the instant is unambiguous.
// Fractional seconds are accepted.
func parseTimestamp(raw string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errTimestampFormat
	}
	return ts, nil
}

func checkBattery(level int) error {
	if level < batteryMin || level > batteryMax {
		return errBatteryRange
	}
	return nil
}

var (
	errTimestampFormat = strictError("must be a complete RFC 3339 date-time")
	errBatteryRange    = strictError("must be between 0 and 100")
)

type strictError string

func (e strictError) Error() string { return string(e) }
