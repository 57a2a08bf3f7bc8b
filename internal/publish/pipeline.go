package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/stock-publisher/internal/authors"
	"github.com/jonesrussell/stock-publisher/internal/logger"
	"github.com/jonesrussell/stock-publisher/internal/models"
	"github.com/jonesrussell/stock-publisher/internal/report"
	"github.com/jonesrussell/stock-publisher/internal/schedule"
	"github.com/jonesrussell/stock-publisher/internal/state"
	"github.com/jonesrussell/stock-publisher/internal/wordpress"
)

// runTickerLoop walks the resolved ticker list until the attempt budget is
// spent or the list is exhausted. It returns the terminal entries recorded
// this cycle and the number of posts actually published.
//
// The budget check runs before a ticker is touched: a ticker that would
// exceed the budget is left alone (and, for persisted queues, stays
// pending for the next run).
func (r *Runner) runTickerLoop(ctx context.Context, log logger.Logger, profile *models.Profile, ps *state.ProfileState, list []string, budget int) ([]state.ProcessedEntry, int) {
	minGap, maxGap := profile.MinGapMinutes, profile.MaxGapMinutes
	if minGap <= 0 || maxGap <= 0 {
		minGap, maxGap = r.cfg.DefaultMinGapMinutes, r.cfg.DefaultMaxGapMinutes
	}
	sched := schedule.New(minGap, maxGap, schedule.WithNow(r.now), schedule.WithRand(r.rng))

	rotator := authors.NewRotator(profile.Authors, ps.LastAuthorIndex)

	lastSchedule, hasLast := ps.LastSchedule()
	next := sched.Seed(lastSchedule, hasLast)

	var entries []state.ProcessedEntry
	published := 0

	for _, ticker := range list {
		if published >= budget {
			break
		}

		if ps.IsPublished(ticker) {
			entry := state.ProcessedEntry{
				Ticker:    ticker,
				Status:    state.StatusSkipped,
				Timestamp: r.now().UTC(),
				Message:   "Already published for this profile.",
			}
			entries = append(entries, entry)
			r.recordOutcome(ctx, profile, entry)
			log.Info("ticker already published, skipping", logger.String("ticker", ticker))
			continue
		}

		author, idx, ok := rotator.Next()
		if !ok {
			break
		}
		// Persist the cursor with the attempt, not the outcome, so a
		// crashed run still resumes rotation after this author.
		ps.LastAuthorIndex = idx

		scheduledAt := sched.Clamp(next)

		entry, succeeded := r.attemptTicker(ctx, log, profile, ps, ticker, author, scheduledAt)
		entries = append(entries, entry)
		r.recordOutcome(ctx, profile, entry)

		if succeeded {
			published++
			next = sched.Advance(scheduledAt)
		}
	}

	return entries, published
}

// attemptTicker runs the full pipeline for one ticker: report generation,
// headline, optional feature image, scheduled post creation, and state
// bookkeeping. Exactly one terminal entry comes back per call.
func (r *Runner) attemptTicker(ctx context.Context, log logger.Logger, profile *models.Profile, ps *state.ProfileState, ticker string, author models.Author, scheduledAt time.Time) (state.ProcessedEntry, bool) {
	ctx, span := r.tracer.Start(ctx, "publish.ticker", trace.WithAttributes(
		attribute.String("profile.id", profile.ID),
		attribute.String("ticker", ticker),
		attribute.String("author", author.Username),
	))
	defer span.End()

	tlog := log.With(
		logger.String("ticker", ticker),
		logger.String("author", author.Username),
	)
	name := profile.DisplayName()

	rep, err := r.generator.Generate(ctx, name, ticker, profile.Sections())
	if err != nil {
		tlog.Error("report generation failed", logger.Error(err))
		span.SetStatus(codes.Error, "report generation failed")
		ps.MarkFailed(ticker)
		return r.failureEntry(ticker, "Report generation failed: "+err.Error()), false
	}

	headline := report.Headline(ticker, name, r.now(), r.rng)
	content := composeContent(rep)

	var mediaID int64
	if r.images != nil {
		mediaID = r.uploadFeatureImage(ctx, tlog, profile, author, ticker, headline)
	}

	post := wordpress.Post{
		Title:           headline,
		Content:         content,
		ScheduledAt:     scheduledAt,
		CategoryID:      profile.CategoryID,
		FeaturedMediaID: mediaID,
	}
	postID, err := r.publisher.CreatePost(ctx, profile.SiteURL, author, post)
	if err != nil {
		tlog.Error("post creation failed", logger.Error(err))
		span.SetStatus(codes.Error, "post creation failed")
		ps.MarkFailed(ticker)
		return r.failureEntry(ticker, "Post creation failed: "+err.Error()), false
	}

	ps.SetLastSchedule(scheduledAt)
	ps.PostsToday++
	ps.MarkPublished(ticker)

	span.SetAttributes(attribute.Int64("wordpress.post_id", postID))
	tlog.Info("ticker published",
		logger.Int64("post_id", postID),
		logger.Time("scheduled_for", scheduledAt),
		logger.Int("posts_today", ps.PostsToday),
	)

	return state.ProcessedEntry{
		Ticker:    ticker,
		Status:    state.StatusSuccess,
		Timestamp: r.now().UTC(),
		Message: fmt.Sprintf("Scheduled post %d for %s as %s.",
			postID, scheduledAt.UTC().Format(time.RFC3339), author.Username),
	}, true
}

// uploadFeatureImage renders and uploads a feature image, returning the
// remote media id or 0. Every failure path is logged and swallowed; the
// post simply goes out without a featured image. The temp file is removed
// on all paths.
func (r *Runner) uploadFeatureImage(ctx context.Context, log logger.Logger, profile *models.Profile, author models.Author, ticker, headline string) int64 {
	outPath := filepath.Join(r.cfg.TempImageDir,
		fmt.Sprintf("%s_%s_%d.png", profile.ID, ticker, r.now().UTC().UnixNano()))

	path, err := r.images.Render(headline, profile.DisplayName(), profile.ImageTheme, outPath)
	if err != nil {
		log.Warn("feature image render failed, publishing without one", logger.Error(err))
		return 0
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warn("could not remove temp image", logger.String("path", path), logger.Error(rmErr))
		}
	}()

	mediaID, err := r.publisher.UploadMedia(ctx, profile.SiteURL, author, path, headline)
	if err != nil {
		log.Warn("feature image upload failed, publishing without one", logger.Error(err))
		return 0
	}
	return mediaID
}

func (r *Runner) failureEntry(ticker, msg string) state.ProcessedEntry {
	return state.ProcessedEntry{
		Ticker:    ticker,
		Status:    state.StatusFailure,
		Timestamp: r.now().UTC(),
		Message:   msg,
	}
}

// recordOutcome fans a terminal entry out to metrics and the audit sink.
func (r *Runner) recordOutcome(ctx context.Context, profile *models.Profile, entry state.ProcessedEntry) {
	r.metrics.RecordOutcome(profile.DisplayName(), entry.Status)
	if r.auditor != nil {
		r.auditor.Ship(ctx, profile.ID, entry)
	}
}

// composeContent builds the post body from a generated report, inlining the
// stylesheet when one is present.
func composeContent(rep *report.Report) string {
	if rep.CSS == "" {
		return rep.HTML
	}
	return "<style>\n" + rep.CSS + "\n</style>\n" + rep.HTML
}
