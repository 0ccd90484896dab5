package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/safestreets/report-cli/internal/model"
)

// Field patterns for degraded free-text pages. Each tolerates a missing
// colon or hash and varying whitespace, since PDF text extraction mangles
// label punctuation.
var (
	casePattern     = regexp.MustCompile(`(?i)(?:case|incident)\s*#?:?\s*(\S+)`)
	datePattern     = regexp.MustCompile(`(?i)date\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|[A-Za-z]+\s+\d{1,2},?\s+\d{4})`)
	timePattern     = regexp.MustCompile(`(?i)time\s*:?\s*(\d{1,2}:\d{2}(?:\s*[ap]\.?m\.?)?|\d{4})`)
	locationPattern = regexp.MustCompile(`(?i)location\s*:?\s*(.+)`)
	offensePattern  = regexp.MustCompile(`(?i)offense\s*:?\s*(.+)`)
)

// ParseFreeText scans line-oriented text for labeled fields, accumulating
// one record at a time. A case-number match starts a new record and flushes
// the previous one; fields seen before the next case number merge into the
// current record, first match per field winning. Partial records are kept —
// even a bare case number is a distinct incident mention the deduplicator
// can use.
func ParseFreeText(text, sourceFile string) Result {
	var res Result
	var cur model.RawRecord

	flush := func() {
		if !cur.Empty() {
			cur.SourceFile = sourceFile
			res.Records = append(res.Records, cur)
		}
		cur = model.RawRecord{}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := casePattern.FindStringSubmatch(line); m != nil {
			flush()
			cur.CaseNumber = m[1]
		}

		if m := datePattern.FindStringSubmatch(line); m != nil && cur.Date == "" {
			cur.Date = m[1]
		}
		if m := timePattern.FindStringSubmatch(line); m != nil && cur.Time == "" {
			cur.Time = m[1]
		}
		if m := locationPattern.FindStringSubmatch(line); m != nil && cur.LocationText == "" {
			cur.LocationText = strings.TrimSpace(m[1])
		}
		if m := offensePattern.FindStringSubmatch(line); m != nil && cur.OffenseText == "" {
			cur.OffenseText = strings.TrimSpace(m[1])
		}
	}

	flush()
	return res
}

// FreeTextStrategy extracts records from page text alone, ignoring tables.
type FreeTextStrategy struct{}

// Name implements Strategy.
func (FreeTextStrategy) Name() string { return "freetext" }

// Extract implements Strategy.
func (FreeTextStrategy) Extract(_ context.Context, doc Document) (Result, error) {
	var res Result
	for _, page := range doc.Pages {
		res.merge(ParseFreeText(page.Text, doc.SourceFile))
	}
	return res, nil
}
