package ingest

import (
	"context"
	"fmt"

	"docq/internal/config"
	"docq/internal/domain"
	"docq/internal/ports"

	"github.com/rs/zerolog/log"
	"resty.dev/v3"
)

var _ ports.BatchProcessor = (*Client)(nil)

// Client submits document batches to the ingestion service, the external
// pipeline that parses, chunks and embeds each document.
type Client struct {
	http *resty.Client
}

func New(cfg config.Ingest) *Client {
	log.Info().Msgf("using ingest service at %s", cfg.BaseURL)

	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)
	return &Client{http: c}
}

type processRequest struct {
	Documents []domain.BatchItem `json:"documents"`
}

func (c *Client) Process(ctx context.Context, items []domain.BatchItem) (*domain.BatchResult, error) {
	var out domain.BatchResult

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(processRequest{Documents: items}).
		SetResult(&out).
		Post("/v1/documents/process")
	if err != nil {
		return nil, fmt.Errorf("ingest request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ingest service returned %s: %s", resp.Status(), resp.String())
	}
	if out.OverallStatus == "failed" {
		return nil, fmt.Errorf("ingest service reported failure for batch of %d", len(items))
	}
	return &out, nil
}
