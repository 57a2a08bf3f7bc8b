package tickers

import (
	"bytes"
	"fmt"
	"strings"
)

// UploadedFile is an ad hoc ticker list supplied for a single run.
type UploadedFile struct {
	Filename string
	Content  []byte
}

// ParseUpload extracts ticker symbols from an uploaded tabular file. Only
// CSV is supported; other extensions return ErrUnsupportedFileType. A file
// without a recognized ticker column returns ErrNoTickerColumn.
func ParseUpload(file UploadedFile) ([]string, error) {
	name := strings.ToLower(file.Filename)
	switch {
	case strings.HasSuffix(name, ".csv"):
		tickers, err := readTickerColumn(bytes.NewReader(file.Content))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file.Filename, err)
		}
		return tickers, nil
	default:
		return nil, fmt.Errorf("%s: %w", file.Filename, ErrUnsupportedFileType)
	}
}
