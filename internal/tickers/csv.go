// Package tickers resolves the ordered list of ticker symbols a publishing
// run should attempt for a profile.
package tickers

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// tickerColumnAliases are the accepted header names for the symbol column,
// matched case-insensitively.
var tickerColumnAliases = []string{
	"Ticker", "Tickers", "Symbol", "Symbols", "Keyword", "Keywords",
}

// ErrNoTickerColumn is returned when a tabular source has no recognizable
// ticker column.
var ErrNoTickerColumn = errors.New("no ticker column found")

// ErrUnsupportedFileType is returned for uploads that are not CSV.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// readTickerColumn extracts the ticker column from CSV data: the first
// header matching an accepted alias, values trimmed, uppercased, blanks
// dropped.
func readTickerColumn(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoTickerColumn
		}
		return nil, err
	}

	col := -1
	for i, name := range header {
		if isTickerColumn(name) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, ErrNoTickerColumn
	}

	var tickers []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if col >= len(record) {
			continue
		}
		ticker := strings.ToUpper(strings.TrimSpace(record[col]))
		if ticker != "" {
			tickers = append(tickers, ticker)
		}
	}
	return tickers, nil
}

func isTickerColumn(name string) bool {
	name = strings.TrimSpace(name)
	for _, alias := range tickerColumnAliases {
		if strings.EqualFold(name, alias) {
			return true
		}
	}
	return false
}
