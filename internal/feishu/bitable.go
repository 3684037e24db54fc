package feishu

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	defaultBitablePageSize = 200
	maxBitablePageSize     = 500
)

// BitableRef captures identifiers parsed from a Feishu Bitable link.
type BitableRef struct {
	RawURL   string
	AppToken string
	TableID  string
	ViewID   string
}

type bitableRecord struct {
	RecordID string         `json:"record_id"`
	Fields   map[string]any `json:"fields"`
}

// ParseBitableURL extracts the app token and table id from a /base/ link.
// Wiki-hosted tables are not supported; the mirror only needs a direct base
// link.
func ParseBitableURL(raw string) (BitableRef, error) {
	ref := BitableRef{RawURL: strings.TrimSpace(raw)}
	if ref.RawURL == "" {
		return ref, errors.New("feishu: empty bitable url")
	}

	u, err := url.Parse(ref.RawURL)
	if err != nil {
		return ref, errors.Wrap(err, "feishu: invalid bitable url")
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return ref, errors.Errorf("feishu: unsupported url scheme %q", u.Scheme)
	}

	segments := strings.FieldsFunc(strings.Trim(u.Path, "/"), func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return ref, errors.New("feishu: missing path segments in url")
	}
	for i := 0; i < len(segments)-1; i++ {
		if segments[i] == "base" {
			ref.AppToken = segments[i+1]
			break
		}
	}
	if ref.AppToken == "" {
		ref.AppToken = segments[len(segments)-1]
	}
	if ref.AppToken == "" {
		return ref, errors.New("feishu: missing app token in url")
	}

	q := u.Query()
	for _, key := range []string{"table", "tableId", "table_id"} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			ref.TableID = v
			break
		}
	}
	if ref.TableID == "" {
		return ref, errors.New("feishu: missing table id in url query")
	}

	for _, key := range []string{"view", "viewId", "view_id"} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			ref.ViewID = v
			break
		}
	}

	return ref, nil
}

func (c *Client) listBitableRecords(ctx context.Context, ref BitableRef, pageSize int) ([]bitableRecord, error) {
	if strings.TrimSpace(ref.AppToken) == "" {
		return nil, errors.New("feishu: bitable app token is empty")
	}
	if pageSize <= 0 {
		pageSize = defaultBitablePageSize
	}
	if pageSize > maxBitablePageSize {
		pageSize = maxBitablePageSize
	}

	basePath := "/open-apis/bitable/v1/apps/" + url.PathEscape(ref.AppToken) +
		"/tables/" + url.PathEscape(ref.TableID) + "/records"
	values := url.Values{}
	values.Set("page_size", strconv.Itoa(pageSize))
	if ref.ViewID != "" {
		values.Set("view_id", ref.ViewID)
	}

	all := make([]bitableRecord, 0, pageSize)
	pageToken := ""
	for {
		values.Del("page_token")
		if pageToken != "" {
			values.Set("page_token", pageToken)
		}
		path := basePath + "?" + values.Encode()

		raw, err := c.doJSONRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}

		var resp struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
			Data struct {
				Items     []bitableRecord `json:"items"`
				HasMore   bool            `json:"has_more"`
				PageToken string          `json:"page_token"`
			} `json:"data"`
		}
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, errors.Wrap(err, "feishu: decode bitable records")
		}
		if resp.Code != 0 {
			return nil, errors.Errorf("feishu: list bitable records failed code=%d msg=%s", resp.Code, resp.Msg)
		}
		all = append(all, resp.Data.Items...)
		if !resp.Data.HasMore || strings.TrimSpace(resp.Data.PageToken) == "" {
			break
		}
		pageToken = resp.Data.PageToken
	}
	return all, nil
}

func (c *Client) createBitableRecord(ctx context.Context, ref BitableRef, fields map[string]any) (string, error) {
	if len(fields) == 0 {
		return "", errors.New("feishu: no fields provided for creation")
	}
	if strings.TrimSpace(ref.AppToken) == "" {
		return "", errors.New("feishu: bitable app token is empty")
	}
	payload := map[string]any{"fields": fields}
	path := "/open-apis/bitable/v1/apps/" + url.PathEscape(ref.AppToken) +
		"/tables/" + url.PathEscape(ref.TableID) + "/records"

	raw, err := c.doJSONRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		return "", err
	}

	var resp struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			Record bitableRecord `json:"record"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", errors.Wrap(err, "feishu: decode create response")
	}
	if resp.Code != 0 {
		return "", errors.Errorf("feishu: create record failed code=%d msg=%s", resp.Code, resp.Msg)
	}
	if resp.Data.Record.RecordID == "" {
		return "", errors.New("feishu: create record response missing record id")
	}
	return resp.Data.Record.RecordID, nil
}

func (c *Client) updateBitableRecord(ctx context.Context, ref BitableRef, recordID string, fields map[string]any) error {
	if recordID == "" {
		return errors.New("feishu: record id is empty")
	}
	if len(fields) == 0 {
		return errors.New("feishu: no fields provided for update")
	}
	if strings.TrimSpace(ref.AppToken) == "" {
		return errors.New("feishu: bitable app token is empty")
	}
	payload := map[string]any{"fields": fields}
	path := "/open-apis/bitable/v1/apps/" + url.PathEscape(ref.AppToken) +
		"/tables/" + url.PathEscape(ref.TableID) + "/records/" + url.PathEscape(recordID)

	raw, err := c.doJSONRequest(ctx, http.MethodPut, path, payload)
	if err != nil {
		return err
	}

	var resp struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return errors.Wrap(err, "feishu: decode update response")
	}
	if resp.Code != 0 {
		return errors.Errorf("feishu: update record failed code=%d msg=%s", resp.Code, resp.Msg)
	}
	return nil
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		// Text fields may arrive as segment lists.
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				if text, ok := m["text"].(string); ok {
					parts = append(parts, text)
					continue
				}
			}
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.TrimSpace(strings.Join(parts, ""))
	default:
		return ""
	}
}
