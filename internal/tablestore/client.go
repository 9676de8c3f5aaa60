// Package tablestore is a client for the hosted row store (Baserow REST API)
// that backs users, blog posts and the portfolio list.
package tablestore

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
	"strings"
	"time"
)

var ErrNotFound = errors.New("row not found")

// Error is a non-2xx answer from the store. Body holds the raw response.
type Error struct {
	Status     int
	StatusText string
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("table store: %d %s", e.Status, e.StatusText)
}

func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Row is a single table row as decoded JSON.
type Row map[string]any

// ID returns the row id assigned by the store.
func (r Row) ID() int {
	switch v := r["id"].(type) {
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}

// String returns a field as a trimmed string. Numbers are formatted, other types yield "".
func (r Row) String(field string) string {
	switch v := r[field].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

type Page struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []Row   `json:"results"`
}

// ListOptions controls a list query.
type ListOptions struct {
	UserFieldNames bool
	// Equal adds filter__<field>__equal=<value> for each entry.
	Equal  map[string]string
	Search string
	Size   int
	Page   int
}

// Client talks to one store instance with one token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a client for baseURL (e.g. https://api.baserow.io/api).
// A nil httpClient gets a client with the given timeout.
func NewClient(baseURL, token string, httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// WithToken returns a copy of the client that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) rowsURL(tableID string, rowID int) string {
	u := c.baseURL + "/database/rows/table/" + url.PathEscape(tableID) + "/"
	if rowID > 0 {
		u += strconv.Itoa(rowID) + "/"
	}
	return u
}

func (c *Client) List(ctx context.Context, tableID string, opts ListOptions) (*Page, error) {
	q := url.Values{}
	if opts.UserFieldNames {
		q.Set("user_field_names", "true")
	}
	for field, value := range opts.Equal {
		q.Set("filter__"+field+"__equal", value)
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.Size > 0 {
		q.Set("size", strconv.Itoa(opts.Size))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}

	endpoint := c.rowsURL(tableID, 0)
	if enc := q.Encode(); enc != "" {
		endpoint += "?" + enc
	}

	var page Page
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAll follows pagination until the store reports no next page.
func (c *Client) ListAll(ctx context.Context, tableID string, opts ListOptions) ([]Row, error) {
	if opts.Size == 0 {
		opts.Size = 200
	}
	opts.Page = 1

	var rows []Row
	for {
		page, err := c.List(ctx, tableID, opts)
		if err != nil {
			return nil, err
		}
		rows = append(rows, page.Results...)
		if page.Next == nil || *page.Next == "" || len(page.Results) == 0 {
			return rows, nil
		}
		opts.Page++
	}
}

func (c *Client) Get(ctx context.Context, tableID string, rowID int, userFieldNames bool) (Row, error) {
	var row Row
	if err := c.do(ctx, http.MethodGet, c.withNames(c.rowsURL(tableID, rowID), userFieldNames), nil, &row); err != nil {
		return nil, err
	}
	return row, nil
}

func (c *Client) Create(ctx context.Context, tableID string, data Row, userFieldNames bool) (Row, error) {
	var row Row
	if err := c.do(ctx, http.MethodPost, c.withNames(c.rowsURL(tableID, 0), userFieldNames), data, &row); err != nil {
		return nil, err
	}
	return row, nil
}

// Update patches only the given fields.
func (c *Client) Update(ctx context.Context, tableID string, rowID int, data Row, userFieldNames bool) (Row, error) {
	var row Row
	if err := c.do(ctx, http.MethodPatch, c.withNames(c.rowsURL(tableID, rowID), userFieldNames), data, &row); err != nil {
		return nil, err
	}
	return row, nil
}

func (c *Client) Delete(ctx context.Context, tableID string, rowID int) error {
	return c.do(ctx, http.MethodDelete, c.rowsURL(tableID, rowID), nil, nil)
}

func (c *Client) withNames(u string, userFieldNames bool) string {
	if userFieldNames {
		return u + "?user_field_names=true"
	}
	return u
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode row: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("table store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &Error{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       string(raw),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode table store response: %w", err)
	}
	return nil
}
