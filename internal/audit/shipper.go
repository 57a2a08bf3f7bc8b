// Package audit ships processed-ticker entries to Elasticsearch so operators
// can search the trail beyond the current UTC day held in state.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/jonesrussell/stock-publisher/internal/logger"
	"github.com/jonesrussell/stock-publisher/internal/state"
)

const shipTimeout = 5 * time.Second

// Shipper records audit entries in an external sink. Shipping is
// best-effort; implementations log failures and never propagate them into
// the publishing run.
type Shipper interface {
	Ship(ctx context.Context, profileID string, entry state.ProcessedEntry)
}

// ESShipper indexes audit entries into Elasticsearch.
type ESShipper struct {
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

// Config holds Elasticsearch connection settings for the shipper.
type Config struct {
	URL      string
	Username string
	Password string
	Index    string
}

// NewESShipper creates an Elasticsearch-backed audit shipper.
func NewESShipper(cfg Config, log logger.Logger) (*ESShipper, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &ESShipper{es: es, index: cfg.Index, logger: log}, nil
}

type auditDocument struct {
	ProfileID string    `json:"profile_id"`
	Ticker    string    `json:"ticker"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Ship implements Shipper.
func (s *ESShipper) Ship(ctx context.Context, profileID string, entry state.ProcessedEntry) {
	doc := auditDocument{
		ProfileID: profileID,
		Ticker:    entry.Ticker,
		Status:    entry.Status,
		Timestamp: entry.Timestamp,
		Message:   entry.Message,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		s.logger.Error("could not marshal audit document", logger.Error(err))
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, shipTimeout)
	defer cancel()

	req := esapi.IndexRequest{
		Index: s.index,
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(reqCtx, s.es)
	if err != nil {
		s.logger.Warn("could not ship audit entry",
			logger.String("profile_id", profileID),
			logger.String("ticker", entry.Ticker),
			logger.Error(err),
		)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		s.logger.Warn("audit entry rejected by elasticsearch",
			logger.String("profile_id", profileID),
			logger.String("ticker", entry.Ticker),
			logger.String("status", res.Status()),
		)
	}
}
