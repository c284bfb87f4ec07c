package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xraph/routeguard/manifest"
)

// Client calls the sync endpoint of a routeguard server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a Client for the server at baseURL.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type syncBody struct {
	*manifest.Manifest
	DryRun bool `json:"dry_run,omitempty"`
	Force  bool `json:"force,omitempty"`
}

// Sync posts m to /v1/permissions/sync and decodes the report.
func (c *Client) Sync(ctx context.Context, m *manifest.Manifest, opts manifest.SyncOptions) (*manifest.Report, error) {
	payload, err := json.Marshal(syncBody{Manifest: m, DryRun: opts.DryRun, Force: opts.Force})
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/permissions/sync", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sync request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("sync request: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var report manifest.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}
