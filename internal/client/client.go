// Package client is a minimal HTTP client for the remote memory service's
// namespaced bank API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rcliao/agent-recall/internal/model"
)

// ErrEmptyQuery is returned by Recall and Reflect for a blank query.
var ErrEmptyQuery = errors.New("client: query must not be empty")

// Client talks to one namespace of a memory service.
type Client struct {
	baseURL   string
	namespace string
	http      *http.Client
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. The default is a plain
// http.Client with no timeout; callers bound requests through the context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for baseURL scoped to namespace.
func New(baseURL, namespace string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		namespace: namespace,
		http:      &http.Client{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ensureBankRequest struct {
	Mission string `json:"mission,omitempty"`
}

// EnsureBank creates the bank or returns the existing one. The mission is
// best-effort metadata: if the first request fails for any reason the call is
// retried once without it. Only the second failure is returned, joined with
// the first so the original cause stays visible.
func (c *Client) EnsureBank(ctx context.Context, bankID, mission string) (*model.BankInfo, error) {
	path := c.bankPath(bankID)

	var info model.BankInfo
	firstErr := c.do(ctx, http.MethodPut, path, ensureBankRequest{Mission: mission}, &info)
	if firstErr == nil {
		return &info, nil
	}
	if ctx.Err() != nil {
		return nil, firstErr
	}

	c.logger.Debug("ensure bank with mission failed, retrying without",
		"component", "client", "bank", bankID, "err", firstErr)

	info = model.BankInfo{}
	if err := c.do(ctx, http.MethodPut, path, ensureBankRequest{}, &info); err != nil {
		return nil, errors.Join(err, fmt.Errorf("first attempt: %w", firstErr))
	}
	return &info, nil
}

type retainRequest struct {
	Items []model.CaptureItem `json:"items"`
}

// Retain submits items for fact extraction. The accepted count may be lower
// than len(items); that is the service's decision.
func (c *Client) Retain(ctx context.Context, bankID string, items []model.CaptureItem) (*model.RetainResult, error) {
	var res model.RetainResult
	if err := c.do(ctx, http.MethodPost, c.bankPath(bankID)+"/memories", retainRequest{Items: items}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type recallRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Recall searches the bank. Results keep the service's relevance order and
// are cut to limit when the service returns more.
func (c *Client) Recall(ctx context.Context, bankID, query string, limit int) (*model.RecallResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	var res model.RecallResult
	if err := c.do(ctx, http.MethodPost, c.bankPath(bankID)+"/memories/recall", recallRequest{Query: query, Limit: limit}, &res); err != nil {
		return nil, err
	}
	if limit > 0 && len(res.Results) > limit {
		res.Results = res.Results[:limit]
	}
	return &res, nil
}

type reflectRequest struct {
	Query string `json:"query"`
}

// Reflect asks the service to reason over stored memories.
func (c *Client) Reflect(ctx context.Context, bankID, query string) (*model.ReflectResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	var res model.ReflectResult
	if err := c.do(ctx, http.MethodPost, c.bankPath(bankID)+"/reflect", reflectRequest{Query: query}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListMemories returns up to limit memories of the bank; limit <= 0 leaves
// the page size to the service.
func (c *Client) ListMemories(ctx context.Context, bankID string, limit int) (*model.ListResult, error) {
	path := c.bankPath(bankID) + "/memories/list"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var res model.ListResult
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetMemory fetches one memory by id.
func (c *Client) GetMemory(ctx context.Context, bankID, id string) (*model.Memory, error) {
	var m model.Memory
	if err := c.do(ctx, http.MethodGet, c.memoryPath(bankID, id), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMemory removes one memory. A 2xx answer counts as success unless its
// body explicitly reports "success": false, so 204 No Content is a delete.
func (c *Client) DeleteMemory(ctx context.Context, bankID, id string) (*model.DeleteResult, error) {
	res := model.DeleteResult{Success: true}
	if err := c.do(ctx, http.MethodDelete, c.memoryPath(bankID, id), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListEntities returns the entities the service resolved in the bank.
func (c *Client) ListEntities(ctx context.Context, bankID string) (*model.EntityList, error) {
	var res model.EntityList
	if err := c.do(ctx, http.MethodGet, c.bankPath(bankID)+"/entities", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Health reports whether the service answers /health with a 2xx. It never
// returns an error.
func (c *Client) Health(ctx context.Context) bool {
	err := c.doURL(ctx, http.MethodGet, "/health", c.baseURL+"/health", nil, nil)
	if err != nil {
		c.logger.Debug("health check failed", "component", "client", "err", err)
		return false
	}
	return true
}

func (c *Client) bankPath(bankID string) string {
	return "/v1/" + url.PathEscape(c.namespace) + "/banks/" + url.PathEscape(bankID)
}

func (c *Client) memoryPath(bankID, id string) string {
	return c.bankPath(bankID) + "/memories/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	return c.doURL(ctx, method, path, c.baseURL+path, in, out)
}

func (c *Client) doURL(ctx context.Context, method, path, rawURL string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return newAPIError(method, path, resp.StatusCode, b)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
