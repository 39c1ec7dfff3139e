package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/askcampus/config"
	"github.com/mohammad-safakhou/askcampus/internal/helpers"
	"github.com/mohammad-safakhou/askcampus/internal/telemetry"
	"github.com/mohammad-safakhou/askcampus/models"
	"github.com/mohammad-safakhou/askcampus/provider"
)

// Searcher discovers candidate pages. An error is treated as no results.
type Searcher interface {
	Discover(ctx context.Context, query string, k int) ([]models.CandidateResult, error)
}

// Fetcher extracts one page. It never fails: errors are reported through
// ExtractionSuccess=false with empty Content.
type Fetcher interface {
	Fetch(ctx context.Context, url, title string) models.ExtractedPage
}

// Override adjusts the pipeline configuration for a single run.
type Override func(*config.PipelineConfig)

// WithThreshold overrides relevance_threshold.
func WithThreshold(t float64) Override {
	return func(c *config.PipelineConfig) { c.RelevanceThreshold = t }
}

// WithMaxPages overrides max_pages when n > 0.
func WithMaxPages(n int) Override {
	return func(c *config.PipelineConfig) {
		if n > 0 {
			c.MaxPages = n
		}
	}
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Searcher  Searcher
	Fetcher   Fetcher
	Grading   provider.CompletionService
	Synthesis provider.CompletionService
	Logger    *zap.Logger
	Metrics   *telemetry.Metrics
}

// Orchestrator runs the retrieval-to-answer pipeline for one query at a time.
type Orchestrator struct {
	cfg       config.PipelineConfig
	searcher  Searcher
	fetcher   Fetcher
	grading   provider.CompletionService
	synthesis provider.CompletionService
	logger    *zap.Logger
	metrics   *telemetry.Metrics

	now   func() time.Time
	newID func() string
}

var researchTracer trace.Tracer = otel.Tracer("askcampus/research")

func NewOrchestrator(cfg config.PipelineConfig, deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	synthesis := deps.Synthesis
	if synthesis == nil {
		synthesis = deps.Grading
	}
	return &Orchestrator{
		cfg:       cfg,
		searcher:  deps.Searcher,
		fetcher:   deps.Fetcher,
		grading:   deps.Grading,
		synthesis: synthesis,
		logger:    logger,
		metrics:   deps.Metrics,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Config returns the base pipeline configuration.
func (o *Orchestrator) Config() config.PipelineConfig { return o.cfg }

// Research answers query. Empty discovery and failed extraction end in the
// NO_RESULTS and NO_CONTENT states without error. A synthesis failure is
// returned as ErrSynthesis with no partial result.
func (o *Orchestrator) Research(ctx context.Context, query string, overrides ...Override) (models.ResearchResult, error) {
	cfg := o.cfg
	for _, apply := range overrides {
		apply(&cfg)
	}

	ctx, span := researchTracer.Start(ctx, "research.run", trace.WithAttributes(
		attribute.String("research.query", query),
		attribute.Int("research.top_k", cfg.TopK),
		attribute.Int("research.max_pages", cfg.MaxPages),
		attribute.Float64("research.threshold", cfg.RelevanceThreshold),
	))
	defer span.End()

	result := models.ResearchResult{
		ID:             o.newID(),
		Query:          query,
		Timestamp:      o.now(),
		Config:         cfg,
		SearchResults:  []models.CandidateResult{},
		ExtractedPages: []models.ExtractedPage{},
		GradedPages:    []models.GradedPage{},
		FilteredPages:  []models.GradedPage{},
		Sources:        []models.Source{},
	}
	log := o.logger.With(zap.String("run_id", result.ID))
	log.Info("research started", zap.String("query", query), zap.Int("top_k", cfg.TopK),
		zap.Float64("threshold", cfg.RelevanceThreshold))

	fail := func(err error) (models.ResearchResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.metrics.ObserveRun("ERROR")
		return models.ResearchResult{}, err
	}
	finish := func(state models.ResearchState) (models.ResearchResult, error) {
		result.State = state
		span.SetAttributes(attribute.String("research.state", string(state)))
		o.metrics.ObserveRun(string(state))
		log.Info("research finished", zap.String("state", string(state)), zap.Int("sources", len(result.Sources)))
		return result, nil
	}

	// Step 1: discovery
	result.State = models.StateSearching
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	unique, duplicates := o.search(ctx, log, query, cfg.TopK)
	result.SearchResults = unique
	result.DuplicatesRemoved = duplicates
	if len(unique) == 0 {
		log.Warn("no search results found", zap.String("query", query))
		result.FinalAnswer = NoResultsAnswer(query, cfg.Institution, cfg.HomeURL)
		return finish(models.StateNoResults)
	}

	// Step 2: extraction
	result.State = models.StateExtracting
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	result.ExtractedPages = o.extract(ctx, log, unique, cfg.MaxPages)
	successful := make([]models.ExtractedPage, 0, len(result.ExtractedPages))
	totalWords := 0
	for _, p := range result.ExtractedPages {
		if p.ExtractionSuccess {
			successful = append(successful, p)
			totalWords += p.WordCount
		}
	}
	log.Info("extracted page content", zap.Int("pages", len(successful)), zap.String("words", helpers.Thousands(totalWords)))
	if len(successful) == 0 {
		log.Warn("no content extracted")
		return finish(models.StateNoContent)
	}

	// Step 3: grading
	result.State = models.StateGrading
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	result.GradedPages = o.grade(ctx, log, cfg, query, successful)

	// Step 4: threshold filter
	result.State = models.StateFiltering
	filtered, fallback := FilterByThreshold(result.GradedPages, cfg.RelevanceThreshold)
	if fallback {
		o.metrics.ObserveFilterFallback()
		log.Warn("no pages meet threshold, using top page",
			zap.Float64("threshold", cfg.RelevanceThreshold),
			zap.Float64("top_score", filtered[0].RelevanceScore))
	}
	result.FilteredPages = filtered
	filteredWords := 0
	for _, p := range filtered {
		filteredWords += p.WordCount
	}
	log.Info("filtered by relevance", zap.Int("pages", len(filtered)), zap.String("words", helpers.Thousands(filteredWords)))

	// Step 5: synthesis
	result.State = models.StateSynthesizing
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	answer, err := o.synthesize(ctx, log, cfg, query, filtered)
	if err != nil {
		log.Error("synthesis failed", zap.Error(err))
		return fail(err)
	}
	result.FinalAnswer = answer
	for _, p := range filtered {
		result.Sources = append(result.Sources, models.SourceOf(p))
	}
	return finish(models.StateDone)
}

func (o *Orchestrator) search(ctx context.Context, log *zap.Logger, query string, k int) ([]models.CandidateResult, int) {
	ctx, span := researchTracer.Start(ctx, "research.search")
	defer span.End()
	start := time.Now()
	defer func() { o.metrics.ObserveStage("search", time.Since(start)) }()

	candidates, err := o.searcher.Discover(ctx, query, k)
	switch {
	case err != nil:
		span.RecordError(err)
		log.Warn("discovery failed, treating as no results", zap.Error(err))
		o.metrics.ObserveSearch("error")
		candidates = nil
	case len(candidates) == 0:
		o.metrics.ObserveSearch("empty")
	default:
		o.metrics.ObserveSearch("ok")
	}

	unique, duplicates := DedupCandidates(candidates)
	o.metrics.AddDuplicates(duplicates)
	span.SetAttributes(
		attribute.Int("search.candidates", len(candidates)),
		attribute.Int("search.duplicates", duplicates),
	)
	log.Info("search complete",
		zap.Int("initial", len(candidates)),
		zap.Int("unique", len(unique)),
		zap.Int("duplicates_removed", duplicates))
	return unique, duplicates
}

func (o *Orchestrator) extract(ctx context.Context, log *zap.Logger, candidates []models.CandidateResult, maxPages int) []models.ExtractedPage {
	ctx, span := researchTracer.Start(ctx, "research.extract")
	defer span.End()
	start := time.Now()
	defer func() { o.metrics.ObserveStage("extract", time.Since(start)) }()

	if maxPages >= 0 && maxPages < len(candidates) {
		candidates = candidates[:maxPages]
	}
	pages := make([]models.ExtractedPage, 0, len(candidates))
	for i, c := range candidates {
		log.Debug("extracting page", zap.Int("index", i+1), zap.String("url", c.URL))
		page := o.fetcher.Fetch(ctx, c.URL, c.Title)
		if page.URL == "" {
			page.URL = c.URL
		}
		if strings.TrimSpace(c.Title) != "" {
			page.Title = c.Title
		}
		if !page.ExtractionSuccess {
			page.Content = ""
		}
		page.WordCount = helpers.WordCount(page.Content)
		o.metrics.ObserveFetch(page.ExtractionSuccess)
		pages = append(pages, page)
	}
	span.SetAttributes(attribute.Int("extract.pages", len(pages)))
	return pages
}

func (o *Orchestrator) grade(ctx context.Context, log *zap.Logger, cfg config.PipelineConfig, query string, pages []models.ExtractedPage) []models.GradedPage {
	ctx, span := researchTracer.Start(ctx, "research.grade", trace.WithAttributes(
		attribute.Bool("grade.enabled", cfg.EnableGrading),
	))
	defer span.End()
	start := time.Now()
	defer func() { o.metrics.ObserveStage("grade", time.Since(start)) }()

	graded := make([]models.GradedPage, 0, len(pages))
	if !cfg.EnableGrading {
		for _, p := range pages {
			o.metrics.ObserveGrade("disabled")
			graded = append(graded, models.GradedPage{ExtractedPage: p, RelevanceScore: 1.0})
		}
		return graded
	}

	grader := NewGrader(o.grading, log)
	for i, p := range pages {
		score, outcome := grader.GradeDetailed(ctx, p.Content, query)
		o.metrics.ObserveGrade(string(outcome))
		log.Info("graded page",
			zap.Int("index", i+1),
			zap.Int("of", len(pages)),
			zap.String("title", p.Title),
			zap.Float64("score", score),
			zap.String("outcome", string(outcome)))
		graded = append(graded, models.GradedPage{ExtractedPage: p, RelevanceScore: score})
	}
	return graded
}

func (o *Orchestrator) synthesize(ctx context.Context, log *zap.Logger, cfg config.PipelineConfig, query string, pages []models.GradedPage) (string, error) {
	ctx, span := researchTracer.Start(ctx, "research.synthesize")
	defer span.End()
	start := time.Now()
	defer func() { o.metrics.ObserveStage("synthesize", time.Since(start)) }()

	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		parts = append(parts, fmt.Sprintf("Title: %s\nURL: %s\nContent: %s", p.Title, p.URL, p.Content))
	}
	answer, err := NewSynthesizer(o.synthesis, cfg, log).Synthesize(ctx, strings.Join(parts, "\n\n"), query, pages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("synthesize.answer_chars", len(answer)))
	return answer, nil
}
