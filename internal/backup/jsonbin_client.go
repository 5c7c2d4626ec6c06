package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	pkgLog "easyplan-sync.com/easyplan-sync/pkg/log"
	model "easyplan-sync.com/easyplan-sync/pkg/models"
)

const masterKeyHeader = "X-Master-Key"

// TaskCollection is the whole-list document stored in one bin.
type TaskCollection struct {
	Tasks       []*model.Task `json:"tasks"`
	UserID      string        `json:"userId"`
	LastUpdated int64         `json:"lastUpdated"`
}

type Metadata struct {
	ID        string `json:"id,omitempty"`
	ParentID  string `json:"parentId,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	Private   bool   `json:"private,omitempty"`
}

// BinResponse is the envelope every bin endpoint answers with.
type BinResponse struct {
	Record   TaskCollection `json:"record"`
	Metadata *Metadata      `json:"metadata,omitempty"`
}

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("jsonbin %s error %d: %s", e.Op, e.StatusCode, e.Body)
}

// JSONBinClient speaks the JSONBin v3 bin API: create, read latest, replace.
type JSONBinClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	l          pkgLog.Logger
}

func NewJSONBinClient(baseURL, apiKey string, timeout time.Duration, l pkgLog.Logger) *JSONBinClient {
	return &JSONBinClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		l:          l,
	}
}

// Create stores collection in a new bin and returns its id.
func (c *JSONBinClient) Create(ctx context.Context, collection TaskCollection) (string, error) {
	var resp BinResponse
	if err := c.do(ctx, "create", http.MethodPost, c.baseURL+"/b", &collection, &resp); err != nil {
		return "", err
	}
	if resp.Metadata == nil || resp.Metadata.ID == "" {
		return "", fmt.Errorf("jsonbin create: response carried no bin id")
	}
	return resp.Metadata.ID, nil
}

func (c *JSONBinClient) Read(ctx context.Context, binID string) (TaskCollection, error) {
	var resp BinResponse
	endpoint := fmt.Sprintf("%s/b/%s/latest", c.baseURL, url.PathEscape(binID))
	if err := c.do(ctx, "read", http.MethodGet, endpoint, nil, &resp); err != nil {
		return TaskCollection{}, err
	}
	return resp.Record, nil
}

// Update replaces the bin content with collection.
func (c *JSONBinClient) Update(ctx context.Context, binID string, collection TaskCollection) error {
	endpoint := fmt.Sprintf("%s/b/%s", c.baseURL, url.PathEscape(binID))
	return c.do(ctx, "update", http.MethodPut, endpoint, &collection, nil)
}

func (c *JSONBinClient) do(ctx context.Context, op, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(masterKeyHeader, c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call jsonbin %s: %w", op, err)
	}
	defer resp.Body.Close()
	c.l.Debugf(ctx, "backup: %s %s -> %d (%s)", method, endpoint, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode jsonbin %s response: %w", op, err)
	}
	return nil
}
