// Package extract turns raw report content (extracted tables or degraded
// free text) into RawRecords. Extraction is organized as strategies: the
// tabular strategy with a per-page free-text fallback is the default, the
// pure free-text strategy is the file-level fallback, and an LLM-assisted
// strategy handles documents both of those fail on.
package extract

import (
	"context"

	"github.com/safestreets/report-cli/internal/model"
)

// Table is one extracted table: a sequence of rows of cell strings.
type Table struct {
	Rows [][]string
}

// Page is one page worth of extracted content. Tables are present when the
// upstream extractor recognized a table structure; Text always holds the
// raw page text.
type Page struct {
	Tables []Table
	Text   string
}

// Document is the raw extracted content of one source report file.
type Document struct {
	SourceFile string
	Pages      []Page
}

// Result carries the extracted records plus per-unit skip counts for the
// run summary.
type Result struct {
	Records        []model.RawRecord
	RowsSkipped    int
	TablesRejected int
}

func (r *Result) merge(other Result) {
	r.Records = append(r.Records, other.Records...)
	r.RowsSkipped += other.RowsSkipped
	r.TablesRejected += other.TablesRejected
}

// Strategy extracts records from one document.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, doc Document) (Result, error)
}
