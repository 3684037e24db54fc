package status

// Merge applies a partial patch onto an existing record and returns the
// resulting record. Nil patch fields keep the existing value; non-nil fields
// overwrite, including explicit zero values. ID and DeviceID are immutable
// and always carried over from the existing record.
func Merge(existing Record, patch Update) Record {
	merged := existing
	if patch.Timestamp != nil {
		merged.Timestamp = *patch.Timestamp
	}
	if patch.BatteryLevel != nil {
		merged.BatteryLevel = *patch.BatteryLevel
	}
	if patch.RSSI != nil {
		merged.RSSI = *patch.RSSI
	}
	if patch.Online != nil {
		merged.Online = *patch.Online
	}
	return merged
}
