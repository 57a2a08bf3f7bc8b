package tickers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jonesrussell/stock-publisher/internal/logger"
)

// SheetSource loads the full ticker list behind a profile's configured sheet
// name.
type SheetSource interface {
	LoadTickers(ctx context.Context, sheetName string) ([]string, error)
}

// HTTPSheetSource fetches ticker sheets from the sheet service.
type HTTPSheetSource struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  logger.Logger
}

type sheetResponse struct {
	Tickers []string `json:"tickers"`
	Count   int      `json:"count"`
}

// NewHTTPSheetSource creates a sheet service client.
func NewHTTPSheetSource(baseURL string, timeout time.Duration, log logger.Logger) *HTTPSheetSource {
	return &HTTPSheetSource{
		baseURL: baseURL,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  log,
	}
}

// LoadTickers implements SheetSource.
func (s *HTTPSheetSource) LoadTickers(ctx context.Context, sheetName string) ([]string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/api/v1/sheets/%s/tickers", s.baseURL, url.PathEscape(sheetName))
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		s.logger.Warn("failed to fetch ticker sheet",
			logger.String("sheet", sheetName),
			logger.Duration("duration", duration),
			logger.Error(err),
		)
		return nil, fmt.Errorf("fetch sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("sheet service returned non-OK status",
			logger.String("sheet", sheetName),
			logger.Int("status_code", resp.StatusCode),
			logger.Duration("duration", duration),
		)
		return nil, fmt.Errorf("sheet service returned status %d", resp.StatusCode)
	}

	var sheet sheetResponse
	if err := json.NewDecoder(resp.Body).Decode(&sheet); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	s.logger.Info("loaded ticker sheet",
		logger.String("sheet", sheetName),
		logger.Int("ticker_count", len(sheet.Tickers)),
		logger.Duration("duration", duration),
	)
	return sheet.Tickers, nil
}

// DirSheetSource reads ticker sheets from <dir>/<sheet>.csv files. Used in
// single-tenant CLI deployments without a sheet service.
type DirSheetSource struct {
	dir    string
	logger logger.Logger
}

// NewDirSheetSource creates a directory-backed sheet source.
func NewDirSheetSource(dir string, log logger.Logger) *DirSheetSource {
	return &DirSheetSource{dir: dir, logger: log}
}

// LoadTickers implements SheetSource.
func (d *DirSheetSource) LoadTickers(_ context.Context, sheetName string) ([]string, error) {
	path := filepath.Join(d.dir, sheetName+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sheet %s: %w", sheetName, err)
	}
	defer f.Close()

	tickers, err := readTickerColumn(f)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheetName, err)
	}

	d.logger.Info("loaded ticker sheet",
		logger.String("sheet", sheetName),
		logger.String("path", path),
		logger.Int("ticker_count", len(tickers)),
	)
	return tickers, nil
}
