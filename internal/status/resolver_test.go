package status

import (
	"fmt"
	"testing"
	"time"
)

func rec(id int64, device string, ts time.Time, battery int) Record {
	return Record{ID: id, DeviceID: device, Timestamp: ts, BatteryLevel: battery, RSSI: -50, Online: true}
}

func TestLatestRecordMaxTimestampWinsRegardlessOfInsertionOrder(t *testing.T) {
	t1 := time.Date(2025, 6, 24, 14, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 6, 30, 7, 0, 0, 0, time.UTC)
	t3 := time.Date(2025, 6, 23, 11, 0, 0, 0, time.UTC)

	orders := [][]Record{
		{rec(1, "d", t1, 85), rec(2, "d", t2, 30), rec(3, "d", t3, 100)},
		{rec(1, "d", t2, 30), rec(2, "d", t3, 100), rec(3, "d", t1, 85)},
		{rec(1, "d", t3, 100), rec(2, "d", t1, 85), rec(3, "d", t2, 30)},
	}
	for i, records := range orders {
		latest, ok := LatestRecord(records)
		if !ok {
			t.Fatalf("order %d: no record resolved", i)
		}
		if latest.BatteryLevel != 30 {
			t.Fatalf("order %d: expected the t2 record (battery 30), got %+v", i, latest)
		}
	}
}

func TestLatestRecordTieBreakLastInsertedWins(t *testing.T) {
	ts := time.Date(2025, 6, 24, 12, 0, 0, 0, time.UTC)
	records := []Record{
		rec(1, "d", ts, 10),
		rec(2, "d", ts, 20),
		rec(3, "d", ts, 30),
	}
	// repeated calls against the same state stay deterministic
	for i := 0; i < 5; i++ {
		latest, ok := LatestRecord(records)
		if !ok {
			t.Fatal("no record resolved")
		}
		if latest.ID != 3 {
			t.Fatalf("tie must resolve to the last inserted record, got id %d", latest.ID)
		}
	}
}

func TestLatestRecordEmpty(t *testing.T) {
	if _, ok := LatestRecord(nil); ok {
		t.Fatal("empty input must not resolve a record")
	}
}

func TestSummarizeGroupsPerDevice(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	records := make([]Record, 0, 10)
	for i := 0; i < 10; i++ {
		device := fmt.Sprintf("device-%02d", i)
		records = append(records, rec(int64(i+1), device, base.Add(time.Duration(i)*time.Hour), i*10))
	}
	items := Summarize(records)
	if len(items) != 10 {
		t.Fatalf("expected 10 summary items, got %d", len(items))
	}
	for i, item := range items {
		want := fmt.Sprintf("device-%02d", i)
		if item.DeviceID != want {
			t.Fatalf("item %d: expected %s, got %s", i, want, item.DeviceID)
		}
		if item.BatteryLevel != i*10 {
			t.Fatalf("item %d: battery mismatch: %d", i, item.BatteryLevel)
		}
		if !item.LastUpdate.Equal(base.Add(time.Duration(i) * time.Hour)) {
			t.Fatalf("item %d: last update mismatch: %v", i, item.LastUpdate)
		}
	}
}

func TestSummarizeNotGlobalArgMax(t *testing.T) {
	// the stale device must still appear even though another device
	// reported much later
	early := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	items := Summarize([]Record{
		rec(1, "stale", early, 5),
		rec(2, "fresh", late, 95),
	})
	if len(items) != 2 {
		t.Fatalf("expected both devices in summary, got %d items", len(items))
	}
	if items[0].DeviceID != "fresh" || items[1].DeviceID != "stale" {
		t.Fatalf("summary order must be sorted by device id: %+v", items)
	}
}

func TestSummarizeStableForFixedState(t *testing.T) {
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []Record{
		rec(1, "b", ts, 1), rec(2, "a", ts, 2), rec(3, "c", ts, 3),
	}
	first := Summarize(records)
	for i := 0; i < 3; i++ {
		again := Summarize(records)
		if len(again) != len(first) {
			t.Fatalf("summary length changed between calls")
		}
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("summary order changed between calls: %+v vs %+v", first, again)
			}
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if items := Summarize(nil); items != nil {
		t.Fatalf("empty input must summarize to nil, got %+v", items)
	}
}
