// Package publish implements the publishing run: per-profile ticker
// iteration, scheduling, remote post creation and state bookkeeping.
package publish

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/stock-publisher/internal/audit"
	"github.com/jonesrussell/stock-publisher/internal/logger"
	"github.com/jonesrussell/stock-publisher/internal/metrics"
	"github.com/jonesrussell/stock-publisher/internal/models"
	"github.com/jonesrussell/stock-publisher/internal/report"
	"github.com/jonesrussell/stock-publisher/internal/state"
	"github.com/jonesrussell/stock-publisher/internal/tickers"
	"github.com/jonesrussell/stock-publisher/internal/wordpress"
)

// Publisher is the remote posting surface the pipeline needs. Satisfied by
// *wordpress.Client.
type Publisher interface {
	UploadMedia(ctx context.Context, siteURL string, author models.Author, path, title string) (int64, error)
	CreatePost(ctx context.Context, siteURL string, author models.Author, post wordpress.Post) (int64, error)
}

// ImageRenderer renders a feature image to outPath. Satisfied by
// *images.Generator.
type ImageRenderer interface {
	Render(headline, siteName, theme, outPath string) (string, error)
}

// Config holds the run-level knobs for the orchestrator.
type Config struct {
	// MaxPostsPerDay is the absolute per-profile daily cap. A profile's
	// requested count is always clamped to what remains of it.
	MaxPostsPerDay int
	// DefaultMinGapMinutes and DefaultMaxGapMinutes apply when a profile
	// does not configure its own scheduling gaps.
	DefaultMinGapMinutes int
	DefaultMaxGapMinutes int
	// TempImageDir is where feature images are rendered before upload.
	TempImageDir string
}

// Request describes one publishing run.
type Request struct {
	// UserID identifies the tenant triggering the run. Informational.
	UserID string
	// Profiles to process, in order.
	Profiles []models.Profile
	// PostsPerProfile maps profile id to the number of new posts requested
	// for this run.
	PostsPerProfile map[string]int
	// CustomTickers maps profile id to a manually supplied ticker list
	// (highest precedence, consumed once).
	CustomTickers map[string][]string
	// Uploads maps profile id to an uploaded ticker file (second
	// precedence, consumed once).
	Uploads map[string]tickers.UploadedFile
	// AllProfiles marks the run as covering every configured profile.
	// The state load then garbage-collects entries for profiles that no
	// longer exist. Leave false when the caller selected a subset.
	AllProfiles bool
}

// ProfileResult is the per-profile slice of a run summary.
type ProfileResult struct {
	ProfileName   string                 `json:"profile_name"`
	StatusSummary string                 `json:"status_summary"`
	Processed     []state.ProcessedEntry `json:"tickers_processed"`
}

// Summary is the structured outcome of a run, returned to schedulers and
// API callers instead of an error.
type Summary struct {
	RunID      string                   `json:"run_id"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
	Results    map[string]ProfileResult `json:"results"`
}

// Runner orchestrates publishing runs. It owns no profile data; profiles
// arrive with each request and are read-only here.
//
// Durability note: state is persisted once, after all profiles are
// processed. A crash between a successful remote post and that save loses
// the published-log update and can republish the ticker on the next run.
// This at-least-once gap is inherited behavior, kept deliberately; closing
// it would need per-ticker saves.
type Runner struct {
	store     state.Store
	resolver  *tickers.Resolver
	generator report.Generator
	publisher Publisher
	images    ImageRenderer // nil disables feature images
	metrics   *metrics.Recorder
	auditor   audit.Shipper // nil disables audit shipping
	tracer    trace.Tracer
	logger    logger.Logger
	cfg       Config

	now func() time.Time
	rng *rand.Rand
}

// Deps bundles the Runner's collaborators.
type Deps struct {
	Store     state.Store
	Resolver  *tickers.Resolver
	Generator report.Generator
	Publisher Publisher
	Images    ImageRenderer
	Metrics   *metrics.Recorder
	Auditor   audit.Shipper
	Logger    logger.Logger
}

// NewRunner creates a run orchestrator.
func NewRunner(cfg Config, deps Deps) *Runner {
	return &Runner{
		store:     deps.Store,
		resolver:  deps.Resolver,
		generator: deps.Generator,
		publisher: deps.Publisher,
		images:    deps.Images,
		metrics:   deps.Metrics,
		auditor:   deps.Auditor,
		tracer:    otel.Tracer("publish-runner"),
		logger:    deps.Logger,
		cfg:       cfg,
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run executes one publishing run and returns its summary. It never returns
// an error and never panics: profile-level failures are isolated, and the
// final state save failure is logged (losing only this run's bookkeeping).
func (r *Runner) Run(ctx context.Context, req Request) Summary {
	started := r.now().UTC()
	runID := uuid.NewString()

	log := r.logger.With(
		logger.String("run_id", runID),
		logger.String("user_id", req.UserID),
	)
	log.Info("publishing run started", logger.Int("profile_count", len(req.Profiles)))

	profileIDs := make([]string, 0, len(req.Profiles))
	for i := range req.Profiles {
		if req.Profiles[i].ID != "" {
			profileIDs = append(profileIDs, req.Profiles[i].ID)
		}
	}

	// A targeted load keeps state for profiles outside this run; a run
	// covering all configured profiles loads generally so obsolete
	// entries get pruned.
	st := r.store.Load(ctx, profileIDs, !req.AllProfiles)

	results := make(map[string]ProfileResult, len(req.Profiles))
	for i := range req.Profiles {
		profile := &req.Profiles[i]
		if profile.ID == "" {
			log.Warn("profile without an id, skipping", logger.String("profile_name", profile.Name))
			continue
		}
		results[profile.ID] = r.runProfile(ctx, log, profile, st, req)
	}

	if err := r.store.Save(ctx, st); err != nil {
		log.Error("could not save publisher state, this run's updates are lost", logger.Error(err))
	}

	finished := r.now().UTC()
	r.metrics.RecordRun(finished.Sub(started))
	log.Info("publishing run finished", logger.Duration("duration", finished.Sub(started)))

	return Summary{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: finished,
		Results:    results,
	}
}

// runProfile isolates one profile's processing: a panic inside it is
// recovered so the remaining profiles still run.
func (r *Runner) runProfile(ctx context.Context, log logger.Logger, profile *models.Profile, st *state.State, req Request) (result ProfileResult) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("unexpected panic while processing profile",
				logger.String("profile_id", profile.ID),
				logger.Any("panic", rec),
			)
			result = ProfileResult{
				ProfileName:   profile.DisplayName(),
				StatusSummary: "Internal error while processing profile; other profiles unaffected.",
				Processed:     result.Processed,
			}
		}
	}()
	return r.processProfile(ctx, log, profile, st, req)
}

func (r *Runner) processProfile(ctx context.Context, log logger.Logger, profile *models.Profile, st *state.State, req Request) ProfileResult {
	ps := st.Profile(profile.ID)
	name := profile.DisplayName()
	plog := log.With(logger.String("profile_id", profile.ID), logger.String("profile_name", name))

	if len(profile.Authors) == 0 {
		msg := "No authors configured for profile '" + name + "'. Skipping."
		plog.Warn("no authors configured, skipping profile")
		return r.skipProfile(ctx, profile, ps, name, state.StatusSkippedSetup, msg)
	}

	requested := req.PostsPerProfile[profile.ID]
	remainingToday := r.cfg.MaxPostsPerDay - ps.PostsToday
	budget := min(requested, remainingToday)
	if budget <= 0 {
		msg := formatLimitMessage(name, ps.PostsToday, r.cfg.MaxPostsPerDay, requested)
		plog.Info("no posts requested or daily limit reached",
			logger.Int("posts_today", ps.PostsToday),
			logger.Int("requested", requested),
		)
		return r.skipProfile(ctx, profile, ps, name, state.StatusSkippedLimit, msg)
	}

	in := tickers.RunInput{CustomTickers: req.CustomTickers[profile.ID]}
	if upload, ok := req.Uploads[profile.ID]; ok {
		in.Upload = &upload
	}
	list, oneShot := r.resolver.Resolve(ctx, profile, ps, in)
	if len(list) == 0 {
		msg := "No tickers available (custom, uploaded, sheet, or pending) for profile '" + name + "'. Cannot publish."
		plog.Warn("no tickers available for profile")
		return r.skipProfile(ctx, profile, ps, name, state.StatusSkippedNoTickers, msg)
	}

	plog.Info("processing profile",
		logger.Int("posts_today", ps.PostsToday),
		logger.Int("attempt_budget", budget),
		logger.Int("ticker_count", len(list)),
	)

	entries, published := r.runTickerLoop(ctx, plog, profile, ps, list, budget)

	// Tickers iterated this cycle leave the pending queue; they are now
	// tracked via the failed/published logs instead. One-shot sources never
	// touch the persisted queue.
	if !oneShot {
		removePending(ps, entries)
	}
	ps.ProcessedLog = append(ps.ProcessedLog, entries...)

	summary := formatRunSummary(name, budget, published, ps.PostsToday)
	plog.Info("profile finished",
		logger.Int("published", published),
		logger.Int("posts_today", ps.PostsToday),
	)
	return ProfileResult{ProfileName: name, StatusSummary: summary, Processed: entries}
}

// skipProfile records a profile-level skip in the audit trail and builds
// the matching result.
func (r *Runner) skipProfile(ctx context.Context, profile *models.Profile, ps *state.ProfileState, name, status, msg string) ProfileResult {
	entry := state.ProcessedEntry{
		Ticker:    "N/A",
		Status:    status,
		Timestamp: r.now().UTC(),
		Message:   msg,
	}
	ps.Record(entry)
	r.metrics.RecordOutcome(name, status)
	if r.auditor != nil {
		r.auditor.Ship(ctx, profile.ID, entry)
	}
	return ProfileResult{
		ProfileName:   name,
		StatusSummary: msg,
		Processed:     []state.ProcessedEntry{entry},
	}
}

// removePending drops every ticker that got a terminal entry this cycle
// from the pending queue, preserving the order of the rest.
func removePending(ps *state.ProfileState, entries []state.ProcessedEntry) {
	processed := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		processed[e.Ticker] = struct{}{}
	}
	kept := ps.PendingTickers[:0]
	for _, t := range ps.PendingTickers {
		if _, done := processed[t]; !done {
			kept = append(kept, t)
		}
	}
	ps.PendingTickers = kept
}

func formatLimitMessage(name string, postsToday, dailyCap, requested int) string {
	return fmt.Sprintf("No posts requested or daily limit reached for '%s'. (Today: %d/%d, Requested: %d)",
		name, postsToday, dailyCap, requested)
}

func formatRunSummary(name string, attempted, published, postsToday int) string {
	return fmt.Sprintf("Attempted %d. Published %d new posts for '%s'. Total today: %d.",
		attempted, published, name, postsToday)
}
