// Package enrich derives street keys, offense categories, and geocoding
// results for raw records, memoizing external lookups through the
// enrichment cache.
package enrich

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/safestreets/report-cli/internal/cache"
	"github.com/safestreets/report-cli/internal/model"
	"github.com/safestreets/report-cli/internal/normalize"
	"github.com/safestreets/report-cli/internal/resilience"
	"github.com/safestreets/report-cli/pkg/places"
)

// Stats counts cache hits versus live external calls for the run summary.
type Stats struct {
	GeocodeCacheHits  int
	GeocodeLiveCalls  int
	CategoryCacheHits int
	CategoryLiveCalls int
}

// Enricher turns RawRecords into EnrichedRecords. All external calls go
// through the cache first; a hit short-circuits both the call and the
// inter-call delay.
type Enricher struct {
	places      places.Client
	store       *cache.Store
	keyword     normalize.KeywordClassifier
	llm         *normalize.LLMClassifier
	querySuffix string
	delay       time.Duration
	retry       resilience.Policy

	Stats Stats
}

// Options configures an Enricher.
type Options struct {
	Places      places.Client
	Cache       *cache.Store
	Keyword     normalize.KeywordClassifier
	LLM         *normalize.LLMClassifier // nil selects keyword-only categorization
	QuerySuffix string                   // fixed locality suffix, e.g. ", Palo Alto, CA"
	Delay       time.Duration            // inter-call delay after each live geocode call
	Retry       resilience.Policy
}

// New creates an Enricher.
func New(opts Options) *Enricher {
	return &Enricher{
		places:      opts.Places,
		store:       opts.Cache,
		keyword:     opts.Keyword,
		llm:         opts.LLM,
		querySuffix: opts.QuerySuffix,
		delay:       opts.Delay,
		retry:       opts.Retry,
	}
}

// EnrichFile enriches all records extracted from one source file. External
// failures degrade individual records to sentinel values; they never abort
// the file.
func (e *Enricher) EnrichFile(ctx context.Context, records []model.RawRecord) []model.EnrichedRecord {
	e.categorizeBatch(ctx, records)

	out := make([]model.EnrichedRecord, 0, len(records))
	for _, rec := range records {
		enriched := model.EnrichedRecord{
			RawRecord: rec,
			StreetKey: normalize.StreetKey(rec.LocationText),
			Category:  e.category(rec.OffenseText),
		}
		e.geocode(ctx, &enriched)
		out = append(out, enriched)
	}
	return out
}

// categorizeBatch resolves offense categories for a file up front when the
// LLM classifier is active: distinct offense strings missing from the
// cache are classified in one batch and the results cached, so each
// distinct string is classified at most once per cache lifetime.
func (e *Enricher) categorizeBatch(ctx context.Context, records []model.RawRecord) {
	if e.llm == nil {
		return
	}

	seen := make(map[string]bool)
	var uncached []string
	for _, rec := range records {
		offense := strings.TrimSpace(rec.OffenseText)
		if offense == "" || seen[offense] {
			continue
		}
		seen[offense] = true
		if _, ok := e.store.Get(cache.NamespaceCategory, offense); ok {
			continue
		}
		uncached = append(uncached, offense)
	}
	if len(uncached) == 0 {
		return
	}

	e.Stats.CategoryLiveCalls += len(uncached)
	for offense, category := range e.llm.Categorize(ctx, uncached) {
		if err := e.store.Put(cache.NamespaceCategory, offense, string(category)); err != nil {
			zap.L().Warn("category cache write failed", zap.Error(err))
		}
	}
}

// category resolves one record's offense category. In LLM mode the cache
// is authoritative (categorizeBatch has already filled it); keyword mode
// classifies inline.
func (e *Enricher) category(offenseText string) model.OffenseCategory {
	offense := strings.TrimSpace(offenseText)
	if offense == "" {
		return model.CategoryUnknown
	}

	if e.llm == nil {
		return e.keyword.Categorize(offense)
	}

	var cached string
	ok, err := e.store.GetInto(cache.NamespaceCategory, offense, &cached)
	if err != nil || !ok || !model.ValidCategory(cached) {
		return model.CategoryOther
	}
	e.Stats.CategoryCacheHits++
	return model.OffenseCategory(cached)
}

// geocode fills the record's Geo and Specificity fields. Blank locations
// never reach the external service; failures and empty results are cached
// as explicit negatives so they are not retried on the next record or run.
func (e *Enricher) geocode(ctx context.Context, rec *model.EnrichedRecord) {
	location := strings.TrimSpace(rec.LocationText)
	if location == "" {
		rec.Specificity = model.SpecInvalidInput
		return
	}

	query := location + e.querySuffix

	var cached model.GeoResult
	ok, err := e.store.GetInto(cache.NamespaceGeocode, query, &cached)
	if err == nil && ok {
		e.Stats.GeocodeCacheHits++
		if cached.Specificity == "" {
			// Cached negative lookup.
			rec.Specificity = model.SpecNotFound
			return
		}
		rec.Geo = &cached
		rec.Specificity = cached.Specificity
		return
	}

	result := e.liveGeocode(ctx, query)
	if err := e.store.Put(cache.NamespaceGeocode, query, result); err != nil {
		zap.L().Warn("geocode cache write failed", zap.Error(err))
	}

	if result == nil {
		rec.Specificity = model.SpecNotFound
		return
	}
	rec.Geo = result
	rec.Specificity = result.Specificity
}

// liveGeocode performs one rate-limited external lookup. Any failure is
// logged and collapsed to nil, the "not found" sentinel.
func (e *Enricher) liveGeocode(ctx context.Context, query string) *model.GeoResult {
	e.Stats.GeocodeLiveCalls++

	resp, err := resilience.DoVal(ctx, e.retry, "geocode", func(ctx context.Context) (*places.SearchResponse, error) {
		return e.places.SearchText(ctx, query)
	})

	// External services are shared and rate-limited; space out live calls.
	if e.delay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(e.delay):
		}
	}

	if err != nil {
		zap.L().Warn("geocode call failed, treating as not found",
			zap.String("query", query), zap.Error(err))
		return nil
	}
	if len(resp.Places) == 0 {
		return nil
	}

	first := resp.Places[0]
	return &model.GeoResult{
		Latitude:         first.Location.Latitude,
		Longitude:        first.Location.Longitude,
		FormattedAddress: first.FormattedAddress,
		MapsURI:          first.GoogleMapsURI,
		PlaceTypes:       first.Types,
		Specificity:      SpecificityFromTypes(first.Types),
	}
}
