package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MeiliClient talks to a MeiliSearch instance, keeping one index per
// organization named "{prefix}-{orgID}".
type MeiliClient struct {
	host   string
	apiKey string
	prefix string
	http   *http.Client
}

type meiliHTTPError struct {
	StatusCode int
	Body       string
}

func (e *meiliHTTPError) Error() string {
	return fmt.Sprintf("meili error %d: %s", e.StatusCode, e.Body)
}

func NewMeiliClient(host, apiKey, prefix string) *MeiliClient {
	if host == "" {
		host = "http://localhost:7700"
	}
	if prefix == "" {
		prefix = "docspace"
	}
	return &MeiliClient{
		host:   strings.TrimRight(host, "/"),
		apiKey: apiKey,
		prefix: prefix,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (m *MeiliClient) indexUID(orgID string) string {
	return m.prefix + "-" + orgID
}

func (m *MeiliClient) EnsureIndex(ctx context.Context, orgID string) error {
	uid := m.indexUID(orgID)
	_, err := m.do(ctx, "GET", "/indexes/"+url.PathEscape(uid), nil)
	if err == nil {
		return nil
	}
	if !isIndexNotFoundErr(err) {
		return err
	}

	body, _ := json.Marshal(map[string]interface{}{
		"uid":        uid,
		"primaryKey": "id",
	})
	_, err = m.do(ctx, "POST", "/indexes", body)
	if err != nil && !isIndexAlreadyExistsErr(err) {
		return err
	}

	// Index creation is async; poll until it materializes.
	for i := 0; i < 15; i++ {
		_, getErr := m.do(ctx, "GET", "/indexes/"+url.PathEscape(uid), nil)
		if getErr == nil {
			return nil
		}
		if !isIndexNotFoundErr(getErr) {
			return getErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	return fmt.Errorf("index %q is not ready", uid)
}

func (m *MeiliClient) AddDocuments(ctx context.Context, orgID string, docs []Document) error {
	uid := m.indexUID(orgID)
	body, _ := json.Marshal(docs)
	_, err := m.do(ctx, "POST", fmt.Sprintf("/indexes/%s/documents", url.PathEscape(uid)), body)
	if isIndexNotFoundErr(err) {
		if ensureErr := m.EnsureIndex(ctx, orgID); ensureErr != nil {
			return ensureErr
		}
		_, err = m.do(ctx, "POST", fmt.Sprintf("/indexes/%s/documents", url.PathEscape(uid)), body)
	}
	return err
}

func (m *MeiliClient) DeleteIndex(ctx context.Context, orgID string) error {
	_, err := m.do(ctx, "DELETE", "/indexes/"+url.PathEscape(m.indexUID(orgID)), nil)
	if isIndexNotFoundErr(err) {
		// Already gone; teardown is idempotent.
		return nil
	}
	return err
}

func (m *MeiliClient) Search(ctx context.Context, orgID, q string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	body, _ := json.Marshal(map[string]interface{}{"q": q, "limit": limit})
	data, err := m.do(ctx, "POST", fmt.Sprintf("/indexes/%s/search", url.PathEscape(m.indexUID(orgID))), body)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Hits []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
			Text  string `json:"text"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		hits = append(hits, Hit{ID: h.ID, Title: h.Title, Snippet: snippet(h.Text, 280)})
	}
	return hits, nil
}

func snippet(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}

func isIndexNotFoundErr(err error) bool {
	var me *meiliHTTPError
	if !errors.As(err, &me) {
		return false
	}
	if me.StatusCode != http.StatusNotFound {
		return false
	}
	code := parseErrorCode(me.Body)
	return code == "" || code == "index_not_found"
}

func isIndexAlreadyExistsErr(err error) bool {
	var me *meiliHTTPError
	if !errors.As(err, &me) {
		return false
	}
	return parseErrorCode(me.Body) == "index_already_exists"
}

func parseErrorCode(body string) string {
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Code)
}

func (m *MeiliClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, m.host+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &meiliHTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}
