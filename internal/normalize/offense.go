package normalize

import (
	"strings"

	"github.com/safestreets/report-cli/internal/model"
	"github.com/safestreets/report-cli/internal/policy"
)

// KeywordClassifier buckets offense text by ordered substring rules. It is
// the default, zero-cost categorization mode.
type KeywordClassifier struct {
	Rules []policy.CategoryRule
}

// Categorize returns the first category whose keywords match the lowercased
// offense text. Rule order is fixed by policy: text matching two categories
// resolves to whichever rule comes first. Empty or unmatched input yields
// Unknown.
func (c KeywordClassifier) Categorize(offenseText string) model.OffenseCategory {
	text := strings.ToLower(strings.TrimSpace(offenseText))
	if text == "" {
		return model.CategoryUnknown
	}

	for _, rule := range c.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return rule.Category
			}
		}
	}
	return model.CategoryUnknown
}
