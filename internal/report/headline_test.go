package report_test

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/jonesrussell/stock-publisher/internal/report"
)

func TestHeadlineContainsTickerSiteAndYears(t *testing.T) {
	now := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 10; i++ {
		h := report.Headline("AAPL", "Site A", now, rng)
		if !strings.Contains(h, "AAPL") {
			t.Errorf("Headline() = %q, missing ticker", h)
		}
		if !strings.Contains(h, "Site A") {
			t.Errorf("Headline() = %q, missing site name", h)
		}
		if !strings.Contains(h, "2026-2027") {
			t.Errorf("Headline() = %q, missing year range", h)
		}
	}
}
