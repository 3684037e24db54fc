package status

import "sort"

// LatestRecord reduces a device's records (in insertion order) to the one
// with the maximum timestamp. When several records share the maximum
// timestamp the last inserted of the tied set wins: the timestamp alone
// cannot disambiguate, so insertion order is the documented, deterministic
// tie-break. The second return is false when records is empty.
func LatestRecord(records []Record) (Record, bool) {
	if len(records) == 0 {
		return Record{}, false
	}
	latest := records[0]
	for _, rec := range records[1:] {
		// >= via !Before: an equal timestamp later in insertion order
		// replaces the current candidate.
		if !rec.Timestamp.Before(latest.Timestamp) {
			latest = rec
		}
	}
	return latest, true
}

// Summarize computes the fleet-wide summary from every stored record. It is
// an explicit two-pass reduction: partition by device id preserving each
// partition's insertion order, then fold each partition with LatestRecord
// and project it. A global arg-max would be wrong — devices reporting at
// different times must each appear. The result is sorted by device id so a
// fixed store state always yields the same sequence.
func Summarize(records []Record) []SummaryItem {
	if len(records) == 0 {
		return nil
	}
	byDevice := make(map[string][]Record)
	order := make([]string, 0)
	for _, rec := range records {
		if _, seen := byDevice[rec.DeviceID]; !seen {
			order = append(order, rec.DeviceID)
		}
		byDevice[rec.DeviceID] = append(byDevice[rec.DeviceID], rec)
	}

	items := make([]SummaryItem, 0, len(order))
	for _, deviceID := range order {
		latest, ok := LatestRecord(byDevice[deviceID])
		if !ok {
			continue
		}
		items = append(items, SummaryItem{
			DeviceID:     latest.DeviceID,
			LastUpdate:   latest.Timestamp,
			BatteryLevel: latest.BatteryLevel,
			Online:       latest.Online,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].DeviceID < items[j].DeviceID })
	return items
}
