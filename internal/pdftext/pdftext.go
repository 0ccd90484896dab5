// Package pdftext turns report source files (PDFs and pre-exported table
// CSVs) into documents the extraction strategies can parse.
package pdftext

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/safestreets/report-cli/internal/extract"
)

// Extractor produces a page-structured document from a source file.
type Extractor interface {
	ExtractDocument(ctx context.Context, path string) (extract.Document, error)
}

// PdfToText extracts text from PDFs via the pdftotext CLI tool. Layout
// mode preserves column alignment, which the tabular strategy depends on.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty,
// "pdftotext" is resolved from PATH.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// ExtractText runs pdftotext -layout on the given PDF and returns stdout.
func (p *PdfToText) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	cmd := exec.CommandContext(ctx, p.binPath, "-layout", pdfPath, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "pdftext: pdftotext failed for %s: %s", pdfPath, stderr.String())
	}

	return stdout.String(), nil
}

// ExtractDocument extracts the PDF and splits it into pages on form-feed
// boundaries, matching pdftotext's page separator.
func (p *PdfToText) ExtractDocument(ctx context.Context, path string) (extract.Document, error) {
	text, err := p.ExtractText(ctx, path)
	if err != nil {
		return extract.Document{}, err
	}

	return extract.Document{SourceFile: path, Pages: splitPages(text)}, nil
}

// splitPages breaks pdftotext output into pages on form-feed boundaries,
// dropping blank pages.
func splitPages(text string) []extract.Page {
	var pages []extract.Page
	for _, pageText := range strings.Split(text, "\f") {
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		pages = append(pages, extract.Page{Text: pageText})
	}
	return pages
}

// ReadTableCSV parses a pre-exported table CSV into a single-page document
// with one table. Ragged rows are tolerated; the table parser decides what
// each row means.
func ReadTableCSV(path string) (extract.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return extract.Document{}, eris.Wrapf(err, "pdftext: open %s", path)
	}
	defer f.Close()

	doc, err := readTable(f)
	if err != nil {
		return extract.Document{}, eris.Wrapf(err, "pdftext: parse %s", path)
	}
	doc.SourceFile = path
	return doc, nil
}

func readTable(r io.Reader) (extract.Document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var table extract.Table
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return extract.Document{}, eris.Wrap(err, "read row")
		}
		for i, field := range record {
			record[i] = strings.TrimSpace(field)
		}
		table.Rows = append(table.Rows, record)
	}

	return extract.Document{Pages: []extract.Page{{Tables: []extract.Table{table}}}}, nil
}
