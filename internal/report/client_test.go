package report_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonesrussell/stock-publisher/internal/logger"
	"github.com/jonesrussell/stock-publisher/internal/report"
)

func TestClientGenerate(t *testing.T) {
	testCases := []struct {
		name     string
		handler  http.HandlerFunc
		wantHTML string
		wantErr  bool
		wantIs   error
	}{
		{
			name: "successful generation",
			handler: func(w http.ResponseWriter, r *http.Request) {
				var body map[string]any
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Errorf("bad request body: %v", err)
				}
				if body["ticker"] != "AAPL" {
					t.Errorf("ticker = %v, want AAPL", body["ticker"])
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"data": {"price": 190}, "html": "<h1>AAPL</h1>", "css": "h1{}"}`))
			},
			wantHTML: "<h1>AAPL</h1>",
		},
		{
			name: "service reports an error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"error": "no market data for ticker"}`))
			},
			wantErr: true,
		},
		{
			name: "empty html is an error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"data": {}, "html": ""}`))
			},
			wantErr: true,
			wantIs:  report.ErrEmptyReport,
		},
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			client := report.NewClient(server.URL, 5*time.Second, logger.NewNopLogger())
			rep, err := client.Generate(context.Background(), "Site A", "AAPL", []string{"introduction"})

			if tc.wantErr {
				if err == nil {
					t.Fatal("Generate() error = nil, want error")
				}
				if tc.wantIs != nil && !errors.Is(err, tc.wantIs) {
					t.Errorf("Generate() error = %v, want %v", err, tc.wantIs)
				}
				return
			}
			if err != nil {
				t.Fatalf("Generate() error: %v", err)
			}
			if rep.HTML != tc.wantHTML {
				t.Errorf("Generate() HTML = %q, want %q", rep.HTML, tc.wantHTML)
			}
		})
	}
}
