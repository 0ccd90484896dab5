package model

import "go.uber.org/zap"

// RunSummary tallies everything the pipeline skipped, dropped, or resolved
// from cache during a run. Every skip is counted here rather than silently
// discarded.
type RunSummary struct {
	RunID                 string `json:"run_id"`
	FilesProcessed        int    `json:"files_processed"`
	FilesSkipped          int    `json:"files_skipped"`
	RecordsParsed         int    `json:"records_parsed"`
	RowsSkipped           int    `json:"rows_skipped"`
	TablesRejected        int    `json:"tables_rejected"`
	DuplicatesDropped     int    `json:"duplicates_dropped"`
	GeocodeCacheHits      int    `json:"geocode_cache_hits"`
	GeocodeLiveCalls      int    `json:"geocode_live_calls"`
	CategoryCacheHits     int    `json:"category_cache_hits"`
	CategoryLiveCalls     int    `json:"category_live_calls"`
	CanonicalIncidents    int    `json:"canonical_incidents"`
}

// Log writes the end-of-run summary with structured fields.
func (s RunSummary) Log() {
	zap.L().Info("run summary",
		zap.String("run_id", s.RunID),
		zap.Int("files_processed", s.FilesProcessed),
		zap.Int("files_skipped", s.FilesSkipped),
		zap.Int("records_parsed", s.RecordsParsed),
		zap.Int("rows_skipped", s.RowsSkipped),
		zap.Int("tables_rejected", s.TablesRejected),
		zap.Int("duplicates_dropped", s.DuplicatesDropped),
		zap.Int("geocode_cache_hits", s.GeocodeCacheHits),
		zap.Int("geocode_live_calls", s.GeocodeLiveCalls),
		zap.Int("category_cache_hits", s.CategoryCacheHits),
		zap.Int("category_live_calls", s.CategoryLiveCalls),
		zap.Int("canonical_incidents", s.CanonicalIncidents),
	)
}
