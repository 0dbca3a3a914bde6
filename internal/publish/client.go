package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sebastiankruger/trajectory-dataset/internal/config"
	"github.com/sebastiankruger/trajectory-dataset/internal/store"
)

// Remote table paths on a PostgREST-compatible endpoint
const (
	RunsPath    = "/rest/v1/runs"
	RocketsPath = "/rest/v1/rockets"
)

const batchSize = 100

// Client uploads runs and rockets to a remote REST endpoint
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client for the configured endpoint
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.SupabaseURL, "/"),
		apiKey:  cfg.SupabaseKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether an endpoint is configured
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// PublishRun upserts a run on the remote endpoint
func (c *Client) PublishRun(ctx context.Context, run store.Run) error {
	return c.post(ctx, RunsPath, []store.Run{run}, run.RunID)
}

// PublishRockets upserts rockets on the remote endpoint in batches
func (c *Client) PublishRockets(ctx context.Context, rockets []store.Rocket) error {
	for start := 0; start < len(rockets); start += batchSize {
		end := min(start+batchSize, len(rockets))
		label := fmt.Sprintf("%s..%s", rockets[start].ID, rockets[end-1].ID)
		if err := c.post(ctx, RocketsPath, rockets[start:end], label); err != nil {
			return err
		}
	}
	return nil
}

// post sends rows to path. An unreachable endpoint or an error status is
// logged and tolerated so a local publish never fails on the remote side.
func (c *Client) post(ctx context.Context, path string, rows any, label string) error {
	url := c.baseURL + path

	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", label, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Failed to publish (remote endpoint may not be available)")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Warn().
			Int("status", resp.StatusCode).
			Str("rows", label).
			Msg("Remote endpoint returned error status")
	} else {
		log.Debug().
			Str("rows", label).
			Str("path", path).
			Msg("Published to remote endpoint")
	}

	return nil
}
