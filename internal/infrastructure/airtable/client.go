package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// ErrStatus marks a non-2xx response from the record store. The HTTP status is
// attached via StatusError.
var ErrStatus = errors.New("airtable: request failed")

// StatusError carries the HTTP status of a failed record store call.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("airtable: status %d: %s", e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Record is one row of any table: an opaque handle plus its fields.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// ListOptions narrows a List call. Zero values are omitted from the query.
type ListOptions struct {
	// FilterByFormula is a single-field exact-match expression,
	// e.g. {Client_ID}='tg_42'.
	FilterByFormula string
	// SortField asks the store to sort ascending by one field.
	SortField  string
	MaxRecords int
}

// Client is a minimal Airtable REST client scoped to one base.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseID, apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL + "/" + baseID,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

type listResponse struct {
	Records []Record `json:"records"`
}

func (c *Client) List(ctx context.Context, table string, opts ListOptions) ([]Record, error) {
	q := url.Values{}
	if opts.FilterByFormula != "" {
		q.Set("filterByFormula", opts.FilterByFormula)
	}
	if opts.SortField != "" {
		q.Set("sort[0][field]", opts.SortField)
	}
	if opts.MaxRecords > 0 {
		q.Set("maxRecords", strconv.Itoa(opts.MaxRecords))
	}

	endpoint := c.baseURL + "/" + url.PathEscape(table)
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var resp listResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

func (c *Client) Create(ctx context.Context, table string, fields map[string]any) (Record, error) {
	var rec Record
	payload := map[string]any{"fields": fields}
	endpoint := c.baseURL + "/" + url.PathEscape(table)
	if err := c.do(ctx, http.MethodPost, endpoint, payload, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (c *Client) Update(ctx context.Context, table, recordID string, fields map[string]any) (Record, error) {
	var rec Record
	payload := map[string]any{"fields": fields}
	endpoint := c.baseURL + "/" + url.PathEscape(table) + "/" + url.PathEscape(recordID)
	if err := c.do(ctx, http.MethodPatch, endpoint, payload, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// FindFirst returns the first record matching the filter formula, if any.
func (c *Client) FindFirst(ctx context.Context, table, filterFormula string) (Record, bool, error) {
	recs, err := c.List(ctx, table, ListOptions{FilterByFormula: filterFormula, MaxRecords: 1})
	if err != nil {
		return Record{}, false, err
	}
	if len(recs) == 0 {
		return Record{}, false, nil
	}
	return recs[0], true, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload, dst any) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("airtable: encode payload: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("airtable: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("airtable: %s %s: %w", method, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("airtable: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Status: resp.StatusCode, Body: string(raw)}
	}
	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("airtable: decode response: %w", err)
	}
	return nil
}
