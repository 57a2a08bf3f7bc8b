package report

import (
	"fmt"
	"math/rand"
	"time"
)

// headlineTemplates are the title variants; %[1]s is the ticker, %[2]s the
// site display name, %[3]s the forecast year range.
var headlineTemplates = []string{
	"%[1]s Stock Forecast: Price Prediction for %[2]s (%[3]s)",
	"Outlook for %[1]s: %[2]s's Analysis & %[3]s Forecast",
	"Is %[1]s a Buy? %[2]s %[3]s Stock Prediction",
	"%[1]s (%[2]s): %[3]s Investment Outlook and Price Targets",
	"Future of %[1]s: %[2]s Analysis and %[3]s Forecast",
}

// Headline picks a templated post title for the ticker. Cosmetic variety
// only; not part of the scheduling contract.
func Headline(ticker, siteName string, now time.Time, rng *rand.Rand) string {
	year := now.UTC().Year()
	span := fmt.Sprintf("%d-%d", year, year+1)
	tmpl := headlineTemplates[rng.Intn(len(headlineTemplates))]
	return fmt.Sprintf(tmpl, ticker, siteName, span)
}
