package tickers_test

import (
	"errors"
	"testing"

	"github.com/jonesrussell/stock-publisher/internal/tickers"
)

func TestParseUpload(t *testing.T) {
	testCases := []struct {
		name     string
		filename string
		content  string
		want     []string
		wantErr  error
	}{
		{
			name:     "ticker header",
			filename: "list.csv",
			content:  "Ticker\nAAPL\nMSFT\n",
			want:     []string{"AAPL", "MSFT"},
		},
		{
			name:     "keyword alias case-insensitive",
			filename: "list.CSV",
			content:  "id,keywords\n1,goog\n2, amzn \n3,\n",
			want:     []string{"GOOG", "AMZN"},
		},
		{
			name:     "symbols alias",
			filename: "upload.csv",
			content:  "Symbols,Notes\ntsla,ev maker\n",
			want:     []string{"TSLA"},
		},
		{
			name:     "no recognizable column",
			filename: "list.csv",
			content:  "Company,Price\nApple,190\n",
			wantErr:  tickers.ErrNoTickerColumn,
		},
		{
			name:     "empty file",
			filename: "list.csv",
			content:  "",
			wantErr:  tickers.ErrNoTickerColumn,
		},
		{
			name:     "unsupported extension",
			filename: "list.xlsx",
			content:  "Ticker\nAAPL\n",
			wantErr:  tickers.ErrUnsupportedFileType,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tickers.ParseUpload(tickers.UploadedFile{
				Filename: tc.filename,
				Content:  []byte(tc.content),
			})

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("ParseUpload() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseUpload() error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("ParseUpload() = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("ParseUpload()[%d] = %s, want %s", i, got[i], tc.want[i])
				}
			}
		})
	}
}
