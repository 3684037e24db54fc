package feishu

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestParseBitableURL(t *testing.T) {
	ref, err := ParseBitableURL("https://example.feishu.cn/base/AppTok123?table=tblXYZ&view=vewABC")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if ref.AppToken != "AppTok123" || ref.TableID != "tblXYZ" || ref.ViewID != "vewABC" {
		t.Fatalf("parsed ref mismatch: %+v", ref)
	}

	if _, err := ParseBitableURL(""); err == nil {
		t.Fatal("empty url must fail")
	}
	if _, err := ParseBitableURL("https://example.feishu.cn/base/AppTok123"); err == nil {
		t.Fatal("url without table id must fail")
	}
	if _, err := ParseBitableURL("ftp://example.feishu.cn/base/AppTok123?table=tbl"); err == nil {
		t.Fatal("non-http scheme must fail")
	}
}

type stubCall struct {
	method string
	path   string
	body   any
}

func stubClient(t *testing.T, calls *[]stubCall, listItems []map[string]any) *Client {
	t.Helper()
	return &Client{
		doJSONRequestFunc: func(ctx context.Context, method, path string, payload any) ([]byte, error) {
			*calls = append(*calls, stubCall{method: method, path: path, body: payload})
			switch method {
			case http.MethodGet:
				resp := map[string]any{
					"code": 0,
					"data": map[string]any{"items": listItems, "has_more": false},
				}
				raw, err := json.Marshal(resp)
				if err != nil {
					t.Fatalf("marshal stub response failed: %v", err)
				}
				return raw, nil
			case http.MethodPost:
				return []byte(`{"code":0,"data":{"record":{"record_id":"recNEW"}}}`), nil
			case http.MethodPut:
				return []byte(`{"code":0}`), nil
			}
			t.Fatalf("unexpected method %s", method)
			return nil, nil
		},
	}
}

func TestUpsertDeviceSummaryCreatesWhenAbsent(t *testing.T) {
	var calls []stubCall
	client := stubClient(t, &calls, nil)

	ts := time.Date(2025, 6, 9, 14, 0, 0, 0, time.UTC)
	err := client.UpsertDeviceSummary(context.Background(),
		"https://example.feishu.cn/base/AppTok?table=tblSum",
		DefaultSummaryFields,
		SummaryRecordInput{DeviceID: "d1", LastUpdate: &ts, BatteryLevel: 76, Online: true})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("expected list then create, got %d calls", len(calls))
	}
	if calls[0].method != http.MethodGet {
		t.Fatalf("first call should list records: %+v", calls[0])
	}
	if calls[1].method != http.MethodPost {
		t.Fatalf("absent device should be created: %+v", calls[1])
	}
	payload, ok := calls[1].body.(map[string]any)
	if !ok {
		t.Fatalf("create payload shape: %T", calls[1].body)
	}
	fields, ok := payload["fields"].(map[string]any)
	if !ok {
		t.Fatalf("create payload missing fields: %+v", payload)
	}
	if fields["DeviceID"] != "d1" || fields["BatteryLevel"] != 76 || fields["Online"] != true {
		t.Fatalf("create fields mismatch: %+v", fields)
	}
	if fields["LastUpdate"] != ts.UnixMilli() {
		t.Fatalf("last update must be unix millis: %v", fields["LastUpdate"])
	}
}

func TestUpsertDeviceSummaryUpdatesExistingRow(t *testing.T) {
	var calls []stubCall
	client := stubClient(t, &calls, []map[string]any{
		{"record_id": "recOLD", "fields": map[string]any{"DeviceID": "d1"}},
	})

	err := client.UpsertDeviceSummary(context.Background(),
		"https://example.feishu.cn/base/AppTok?table=tblSum",
		DefaultSummaryFields,
		SummaryRecordInput{DeviceID: "d1", BatteryLevel: 40, Online: false})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("expected list then update, got %d calls", len(calls))
	}
	if calls[1].method != http.MethodPut {
		t.Fatalf("existing device should be updated: %+v", calls[1])
	}
	if !strings.HasSuffix(calls[1].path, "/records/recOLD") {
		t.Fatalf("update must target the existing record: %s", calls[1].path)
	}
}
