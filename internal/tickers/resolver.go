package tickers

import (
	"context"

	"github.com/jonesrussell/stock-publisher/internal/logger"
	"github.com/jonesrussell/stock-publisher/internal/models"
	"github.com/jonesrussell/stock-publisher/internal/state"
)

// RunInput carries the one-shot ticker overrides supplied for a single run.
type RunInput struct {
	// CustomTickers is a manually typed list, highest precedence.
	CustomTickers []string
	// Upload is an ad hoc tabular file, second precedence.
	Upload *UploadedFile
}

// Resolver decides the ordered list of tickers to attempt for a profile.
//
// Priority, first non-empty source wins:
//  1. custom ticker list for this run
//  2. uploaded file for this run
//  3. the profile's persisted pending queue
//  4. previous cycle's failed tickers followed by a fresh sheet load, both
//     deduplicated against the published log; this combined list becomes the
//     new pending queue and the failed list is cleared (one retry cycle per
//     failure before folding back into the general pool)
//
// Tiers 1-2 are consumed once and never persisted to the pending queue; they
// also bypass the published-log filter here, leaving the per-ticker skip
// check to the pipeline so an explicitly requested duplicate is reported
// rather than silently dropped.
type Resolver struct {
	sheets SheetSource
	logger logger.Logger
}

// NewResolver creates a Resolver backed by the given sheet source.
func NewResolver(sheets SheetSource, log logger.Logger) *Resolver {
	return &Resolver{sheets: sheets, logger: log}
}

// Resolve returns the tickers to attempt and whether they came from a
// one-shot source (custom list or upload).
func (r *Resolver) Resolve(ctx context.Context, profile *models.Profile, ps *state.ProfileState, in RunInput) (tickers []string, oneShot bool) {
	if len(in.CustomTickers) > 0 {
		r.logger.Info("using custom ticker list",
			logger.String("profile_id", profile.ID),
			logger.Int("ticker_count", len(in.CustomTickers)))
		return in.CustomTickers, true
	}

	if in.Upload != nil {
		parsed, err := ParseUpload(*in.Upload)
		if err != nil {
			r.logger.Warn("could not parse uploaded ticker file",
				logger.String("profile_id", profile.ID),
				logger.String("filename", in.Upload.Filename),
				logger.Error(err))
			return nil, true
		}
		r.logger.Info("using uploaded ticker file",
			logger.String("profile_id", profile.ID),
			logger.String("filename", in.Upload.Filename),
			logger.Int("ticker_count", len(parsed)))
		return parsed, true
	}

	if len(ps.PendingTickers) > 0 {
		r.logger.Info("using pending ticker queue",
			logger.String("profile_id", profile.ID),
			logger.Int("ticker_count", len(ps.PendingTickers)))
		return ps.PendingTickers, false
	}

	return r.reload(ctx, profile, ps), false
}

// reload rebuilds the pending queue: failed tickers first, then a fresh
// sheet load, deduplicated in first-seen order and excluding anything
// already published for this profile.
func (r *Resolver) reload(ctx context.Context, profile *models.Profile, ps *state.ProfileState) []string {
	var fresh []string
	if profile.SheetName == "" {
		r.logger.Warn("profile has no sheet name, skipping sheet load",
			logger.String("profile_id", profile.ID))
	} else {
		loaded, err := r.sheets.LoadTickers(ctx, profile.SheetName)
		if err != nil {
			r.logger.Error("could not load ticker sheet",
				logger.String("profile_id", profile.ID),
				logger.String("sheet", profile.SheetName),
				logger.Error(err))
		} else {
			fresh = loaded
		}
	}

	seen := make(map[string]struct{})
	combined := []string{}
	appendNew := func(ticker string) {
		if ticker == "" {
			return
		}
		if _, dup := seen[ticker]; dup || ps.IsPublished(ticker) {
			return
		}
		seen[ticker] = struct{}{}
		combined = append(combined, ticker)
	}

	for _, t := range ps.FailedTickers {
		appendNew(t)
	}
	for _, t := range fresh {
		appendNew(t)
	}

	ps.PendingTickers = combined
	ps.FailedTickers = []string{}

	r.logger.Info("rebuilt pending ticker queue",
		logger.String("profile_id", profile.ID),
		logger.Int("ticker_count", len(combined)))
	return combined
}
