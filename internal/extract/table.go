package extract

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/safestreets/report-cli/internal/model"
)

// headerKeywords are the domain words scanned for when locating a table's
// header row. Substring matching tolerates trailing punctuation and
// whitespace left over from PDF extraction ("CASE #", "DATE:").
var headerKeywords = []string{"case", "incident", "date", "time", "offense", "location", "address"}

// minHeaderMatches is the keyword-hit threshold below which a row is not
// accepted as a header.
const minHeaderMatches = 2

// ErrNoHeader reports that no row in a table qualified as a header. The
// table is skipped; this is recoverable per table, not fatal to the file.
var ErrNoHeader = eris.New("extract: no header row found")

// findHeaderRow returns the index of the row with the most header keyword
// hits, requiring at least minHeaderMatches. Returns -1 when no row
// qualifies. Ties resolve to the earliest row.
func findHeaderRow(rows [][]string) int {
	best, bestHits := -1, 0
	for i, row := range rows {
		hits := 0
		for _, cell := range row {
			lower := strings.ToLower(cell)
			for _, kw := range headerKeywords {
				if strings.Contains(lower, kw) {
					hits++
					break
				}
			}
		}
		if hits >= minHeaderMatches && hits > bestHits {
			best, bestHits = i, hits
		}
	}
	return best
}

// fieldForHeader maps a header cell to a record field by substring, or ""
// when the column is unrecognized.
func fieldForHeader(header string) string {
	lower := strings.ToLower(header)
	switch {
	case strings.Contains(lower, "case"), strings.Contains(lower, "incident"):
		return "case_number"
	case strings.Contains(lower, "date"):
		return "date"
	case strings.Contains(lower, "time"):
		return "time"
	case strings.Contains(lower, "offense"):
		return "offense"
	case strings.Contains(lower, "location"), strings.Contains(lower, "address"):
		return "location"
	}
	return ""
}

// ParseTable extracts records from one table. Rows after the header are
// zipped to header cells positionally; rows shorter than the header are
// tolerated (lossy table extraction produces ragged rows). A row becomes a
// record only if at least one recognized key field is non-empty.
func ParseTable(tbl Table, sourceFile string) (Result, error) {
	var res Result

	headerIdx := findHeaderRow(tbl.Rows)
	if headerIdx < 0 {
		return res, ErrNoHeader
	}
	header := tbl.Rows[headerIdx]

	for _, row := range tbl.Rows[headerIdx+1:] {
		if allBlank(row) {
			continue
		}

		var rec model.RawRecord
		rec.SourceFile = sourceFile
		for i, cell := range row {
			if i >= len(header) {
				break
			}
			value := strings.TrimSpace(cell)
			if value == "" {
				continue
			}
			switch fieldForHeader(header[i]) {
			case "case_number":
				rec.CaseNumber = value
			case "date":
				rec.Date = value
			case "time":
				rec.Time = value
			case "offense":
				rec.OffenseText = value
			case "location":
				rec.LocationText = value
			}
		}

		if rec.Empty() {
			res.RowsSkipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}

	return res, nil
}

func allBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
