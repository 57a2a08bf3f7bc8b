package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonesrussell/stock-publisher/internal/logger"
)

// Client is an HTTP implementation of Generator backed by the report
// service. Calls block for up to the configured timeout; report generation
// fetches market data and fits a model, so timeouts are generous.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  logger.Logger
}

// NewClient creates a report service client.
func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  log,
	}
}

type generateRequest struct {
	SiteName string   `json:"site_name"`
	Ticker   string   `json:"ticker"`
	Sections []string `json:"sections"`
}

type generateResponse struct {
	Data  map[string]any `json:"data"`
	HTML  string         `json:"html"`
	CSS   string         `json:"css"`
	Error string         `json:"error,omitempty"`
}

// Generate implements Generator.
func (c *Client) Generate(ctx context.Context, siteName, ticker string, sections []string) (*Report, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(generateRequest{
		SiteName: siteName,
		Ticker:   ticker,
		Sections: sections,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/api/v1/reports"
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.Warn("report generation request failed",
			logger.String("ticker", ticker),
			logger.Duration("duration", duration),
			logger.Error(err),
		)
		return nil, fmt.Errorf("generate report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("report service returned status %d", resp.StatusCode)
	}

	var body generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("report generation failed: %s", body.Error)
	}
	if body.HTML == "" {
		return nil, ErrEmptyReport
	}

	c.logger.Info("report generated",
		logger.String("ticker", ticker),
		logger.String("site", siteName),
		logger.Int("html_bytes", len(body.HTML)),
		logger.Duration("duration", duration),
	)

	return &Report{Data: body.Data, HTML: body.HTML, CSS: body.CSS}, nil
}
