// Package dedup merges enriched records from overlapping source files into
// one canonical incident set.
package dedup

import (
	"go.uber.org/zap"

	"github.com/safestreets/report-cli/internal/model"
)

// Result holds the merged incident set and the number of duplicates
// dropped. Merging is idempotent: running it again over its own output
// drops nothing.
type Result struct {
	Incidents []model.CanonicalIncident
	Dropped   int
}

// Merge combines incidents by the composite (case_number, date) key.
// Inputs must arrive in stable source-file order; the first record seen
// for a key wins and later duplicates are dropped and counted. Records
// with an empty case number are never merged with each other — an empty
// key cannot establish identity, and a false merge is worse than a
// duplicate.
func Merge(incidents []model.CanonicalIncident) Result {
	seen := make(map[model.IdentityKey]bool, len(incidents))
	out := make([]model.CanonicalIncident, 0, len(incidents))
	dropped := 0

	for _, inc := range incidents {
		key := inc.Key()
		if inc.CaseNumber == "" {
			out = append(out, inc)
			continue
		}
		if seen[key] {
			dropped++
			zap.L().Debug("duplicate incident dropped",
				zap.String("case_number", inc.CaseNumber),
				zap.String("date", inc.Date),
				zap.String("source_file", inc.SourceFile),
			)
			continue
		}
		seen[key] = true
		out = append(out, inc)
	}

	return Result{Incidents: out, Dropped: dropped}
}
