// Package report defines the contract with the external report generator
// collaborator and the headline templates applied to its output.
package report

import (
	"context"
	"errors"
)

// ErrEmptyReport is returned when the generator produced no usable HTML.
var ErrEmptyReport = errors.New("report generator returned empty content")

// Report is the successful result of content generation for one ticker.
// Failure is an error return, never a marker embedded in the content.
type Report struct {
	// Data carries the generator's structured figures (forecasts, scores,
	// risk flags). The publisher treats it as opaque.
	Data map[string]any `json:"data"`
	// HTML is the post body.
	HTML string `json:"html"`
	// CSS is the stylesheet accompanying the body.
	CSS string `json:"css"`
}

// Generator produces a stock-forecast report for a ticker on behalf of a
// site profile. Implementations must return a non-nil error for any result
// that is not publishable.
type Generator interface {
	Generate(ctx context.Context, siteName, ticker string, sections []string) (*Report, error)
}
