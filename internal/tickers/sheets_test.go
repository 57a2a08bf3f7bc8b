package tickers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/jonesrussell/stock-publisher/internal/logger"
	"github.com/jonesrussell/stock-publisher/internal/tickers"
)

func TestHTTPSheetSourceLoadTickers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sheets/sheet-a/tickers" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tickers": ["AAPL", "MSFT"], "count": 2}`))
	}))
	defer server.Close()

	src := tickers.NewHTTPSheetSource(server.URL, 5*time.Second, logger.NewNopLogger())

	got, err := src.LoadTickers(context.Background(), "sheet-a")
	if err != nil {
		t.Fatalf("LoadTickers() error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"AAPL", "MSFT"}) {
		t.Errorf("LoadTickers() = %v, want [AAPL MSFT]", got)
	}
}

func TestHTTPSheetSourceNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	src := tickers.NewHTTPSheetSource(server.URL, 5*time.Second, logger.NewNopLogger())

	if _, err := src.LoadTickers(context.Background(), "sheet-a"); err == nil {
		t.Error("LoadTickers() error = nil, want status error")
	}
}

func TestDirSheetSource(t *testing.T) {
	dir := t.TempDir()
	csv := "Symbol,Name\naapl,Apple\nmsft,Microsoft\n"
	if err := os.WriteFile(filepath.Join(dir, "sheet-a.csv"), []byte(csv), 0o600); err != nil {
		t.Fatal(err)
	}

	src := tickers.NewDirSheetSource(dir, logger.NewNopLogger())

	got, err := src.LoadTickers(context.Background(), "sheet-a")
	if err != nil {
		t.Fatalf("LoadTickers() error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"AAPL", "MSFT"}) {
		t.Errorf("LoadTickers() = %v, want [AAPL MSFT]", got)
	}

	if _, err := src.LoadTickers(context.Background(), "missing-sheet"); err == nil {
		t.Error("LoadTickers() error = nil for missing sheet")
	}
}
