// Package pipeline orchestrates the report processing stages: fetch,
// process (extract, enrich, dedup, export), and analyze.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/safestreets/report-cli/internal/cache"
	"github.com/safestreets/report-cli/internal/config"
	"github.com/safestreets/report-cli/internal/dedup"
	"github.com/safestreets/report-cli/internal/enrich"
	"github.com/safestreets/report-cli/internal/export"
	"github.com/safestreets/report-cli/internal/extract"
	"github.com/safestreets/report-cli/internal/fetch"
	"github.com/safestreets/report-cli/internal/model"
	"github.com/safestreets/report-cli/internal/normalize"
	"github.com/safestreets/report-cli/internal/pdftext"
	"github.com/safestreets/report-cli/internal/policy"
	"github.com/safestreets/report-cli/internal/resilience"
	"github.com/safestreets/report-cli/pkg/anthropic"
	"github.com/safestreets/report-cli/pkg/places"
)

// Output artifact names under the processed and results directories.
const (
	IncidentsCSV  = "incidents.csv"
	MapJSON       = "map_data.json"
	SafetyReport  = "safety_report.md"
	AnalysisStats = "analysis.json"
)

// Runner wires the pipeline stages together. All external clients are
// injected at construction so tests can substitute fakes.
type Runner struct {
	cfg       *config.Config
	pol       policy.Policy
	retry     resilience.Policy
	places    places.Client
	llmClient anthropic.Client
	extractor pdftext.Extractor
	now       func() time.Time
}

// Option customizes a Runner.
type Option func(*Runner)

// WithPlacesClient overrides the geocoding client.
func WithPlacesClient(c places.Client) Option {
	return func(r *Runner) { r.places = c }
}

// WithLLMClient overrides the Anthropic client.
func WithLLMClient(c anthropic.Client) Option {
	return func(r *Runner) { r.llmClient = c }
}

// WithExtractor overrides the PDF text extractor.
func WithExtractor(e pdftext.Extractor) Option {
	return func(r *Runner) { r.extractor = e }
}

// WithClock overrides the report timestamp source, used in tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner builds a Runner from config and policy. Clients for stages
// whose credentials are absent stay nil; Validate gates each stage before
// it runs.
func NewRunner(cfg *config.Config, pol policy.Policy, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		pol:       pol,
		retry:     resilience.FromConfig(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs),
		extractor: pdftext.NewPdfToText(cfg.Extract.PdfToTextPath),
		now:       time.Now,
	}

	if cfg.Geocode.APIKey != "" {
		r.places = places.NewClient(cfg.Geocode.APIKey,
			places.WithRateLimit(cfg.Geocode.RateLimitRPS),
			places.WithBias(places.Bias{
				Latitude:  cfg.Geocode.BiasLat,
				Longitude: cfg.Geocode.BiasLng,
				RadiusM:   cfg.Geocode.BiasRadiusM,
			}),
		)
	}
	if cfg.Classify.AnthropicKey != "" {
		r.llmClient = anthropic.NewClient(cfg.Classify.AnthropicKey)
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch downloads report PDFs for the inclusive date range.
func (r *Runner) Fetch(ctx context.Context, start, end time.Time) (*fetch.Stats, error) {
	f := fetch.New(r.cfg.Fetch, r.retry)
	return f.FetchRange(ctx, start, end, r.cfg.Data.RawDir)
}

// Process runs extraction, enrichment, deduplication, and export over
// every source file. Per-file failures are logged and counted; only
// missing directories, an unwritable cache, or context cancellation abort
// the run.
func (r *Runner) Process(ctx context.Context) (*model.RunSummary, error) {
	summary := &model.RunSummary{RunID: uuid.NewString()}
	log := zap.L().With(zap.String("run_id", summary.RunID))

	store := cache.NewStore(r.cfg.Data.CacheDir)
	if err := store.Load(); err != nil {
		return nil, err
	}

	strategy, err := r.strategy()
	if err != nil {
		return nil, err
	}

	enricher := enrich.New(enrich.Options{
		Places:      r.places,
		Cache:       store,
		Keyword:     normalize.KeywordClassifier{Rules: r.pol.Rules},
		LLM:         r.llmClassifier(),
		QuerySuffix: r.cfg.Geocode.QuerySuffix(),
		Delay:       time.Duration(r.cfg.Geocode.DelayMs) * time.Millisecond,
		Retry:       r.retry,
	})

	files, err := r.sourceFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		log.Warn("no source files found",
			zap.String("raw_dir", r.cfg.Data.RawDir),
			zap.String("table_dir", r.cfg.Data.TableDir),
		)
	}

	var all []model.CanonicalIncident
	for _, file := range files {
		if ctx.Err() != nil {
			return summary, eris.Wrap(ctx.Err(), "pipeline: cancelled")
		}
		incidents, res, err := r.processFile(ctx, file, strategy, enricher)
		if err != nil {
			log.Warn("skipping file", zap.String("file", file), zap.Error(err))
			summary.FilesSkipped++
			continue
		}
		summary.FilesProcessed++
		summary.RecordsParsed += len(res.Records)
		summary.RowsSkipped += res.RowsSkipped
		summary.TablesRejected += res.TablesRejected
		all = append(all, incidents...)
	}

	merged := dedup.Merge(all)
	summary.DuplicatesDropped = merged.Dropped
	summary.CanonicalIncidents = len(merged.Incidents)
	summary.GeocodeCacheHits = enricher.Stats.GeocodeCacheHits
	summary.GeocodeLiveCalls = enricher.Stats.GeocodeLiveCalls
	summary.CategoryCacheHits = enricher.Stats.CategoryCacheHits
	summary.CategoryLiveCalls = enricher.Stats.CategoryLiveCalls

	// Flush before export so live API results survive even if export
	// fails.
	if err := store.Flush(); err != nil {
		return summary, err
	}

	if err := os.MkdirAll(r.cfg.Data.ProcessedDir, 0o755); err != nil {
		return summary, eris.Wrap(err, "pipeline: create processed dir")
	}
	if err := os.MkdirAll(r.cfg.Data.ResultsDir, 0o755); err != nil {
		return summary, eris.Wrap(err, "pipeline: create results dir")
	}
	if err := export.WriteCSVFile(filepath.Join(r.cfg.Data.ProcessedDir, IncidentsCSV), merged.Incidents); err != nil {
		return summary, err
	}
	if err := export.WriteMapJSONFile(filepath.Join(r.cfg.Data.ResultsDir, MapJSON), merged.Incidents); err != nil {
		return summary, err
	}

	summary.Log()
	return summary, nil
}

func (r *Runner) strategy() (extract.Strategy, error) {
	var llm *extract.LLMStrategy
	if r.llmClient != nil {
		llm = &extract.LLMStrategy{
			Client: r.llmClient,
			Model:  r.cfg.Classify.Model,
			Retry:  r.retry,
		}
	}
	return extract.Select(r.cfg.Extract.Strategy, llm)
}

func (r *Runner) llmClassifier() *normalize.LLMClassifier {
	if r.cfg.Classify.Mode != "llm" || r.llmClient == nil {
		return nil
	}
	return &normalize.LLMClassifier{
		Client:   r.llmClient,
		Model:    r.cfg.Classify.Model,
		Retry:    r.retry,
		MaxBatch: r.cfg.Classify.MaxBatchSize,
	}
}

// sourceFiles lists report PDFs and pre-exported table CSVs in stable
// lexicographic order, so reruns visit files in the same order and
// dedup's first-wins rule is deterministic.
func (r *Runner) sourceFiles() ([]string, error) {
	var files []string
	for dir, pattern := range map[string]string{
		r.cfg.Data.RawDir:   "*.pdf",
		r.cfg.Data.TableDir: "*.csv",
	} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: list %s", dir)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

func (r *Runner) processFile(ctx context.Context, file string, strategy extract.Strategy, enricher *enrich.Enricher) ([]model.CanonicalIncident, extract.Result, error) {
	base := filepath.Base(file)
	reportDate, err := ReportDate(base)
	if err != nil {
		return nil, extract.Result{}, err
	}

	var doc extract.Document
	if strings.EqualFold(filepath.Ext(file), ".csv") {
		doc, err = pdftext.ReadTableCSV(file)
	} else {
		doc, err = r.extractor.ExtractDocument(ctx, file)
	}
	if err != nil {
		return nil, extract.Result{}, err
	}
	doc.SourceFile = base

	res, err := strategy.Extract(ctx, doc)
	if err != nil {
		return nil, extract.Result{}, err
	}
	for i := range res.Records {
		res.Records[i].SourceFile = base
	}

	enriched := enricher.EnrichFile(ctx, res.Records)
	incidents := make([]model.CanonicalIncident, len(enriched))
	for i, rec := range enriched {
		incidents[i] = model.CanonicalIncident{EnrichedRecord: rec, ReportDate: reportDate}
	}

	zap.L().Info("processed file",
		zap.String("file", base),
		zap.Int("records", len(res.Records)),
		zap.Int("rows_skipped", res.RowsSkipped),
		zap.Int("tables_rejected", res.TablesRejected),
	)
	return incidents, res, nil
}

// ReportDate parses the report's calendar date from its file name, e.g.
// "april-07-2025-police-report-log.pdf" covers April 7, 2025.
func ReportDate(filename string) (time.Time, error) {
	parts := strings.SplitN(filename, "-", 4)
	if len(parts) < 3 {
		return time.Time{}, eris.Errorf("pipeline: no date in file name %q", filename)
	}
	stem := strings.Join(parts[:3], "-")
	t, err := time.Parse("January-02-2006", stem)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "pipeline: no date in file name %q", filename)
	}
	return t, nil
}
