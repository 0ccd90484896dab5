package extract

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// TabularStrategy parses extracted tables, falling back to free-text
// parsing for any page where tables yield nothing.
type TabularStrategy struct{}

// Name implements Strategy.
func (TabularStrategy) Name() string { return "tabular" }

// Extract implements Strategy.
func (TabularStrategy) Extract(_ context.Context, doc Document) (Result, error) {
	log := zap.L().With(zap.String("source_file", doc.SourceFile))

	var res Result
	for i, page := range doc.Pages {
		var pageRes Result
		for _, tbl := range page.Tables {
			tblRes, err := ParseTable(tbl, doc.SourceFile)
			if err != nil {
				// Header detection failed; skip this table, keep the page.
				log.Warn("table rejected", zap.Int("page", i+1), zap.Error(err))
				pageRes.TablesRejected++
				continue
			}
			pageRes.merge(tblRes)
		}

		if len(pageRes.Records) == 0 && page.Text != "" {
			pageRes.merge(ParseFreeText(page.Text, doc.SourceFile))
		}
		res.merge(pageRes)
	}
	return res, nil
}

// ChainStrategy runs strategies in order and returns the first non-empty
// result. This is the "try tabular, fall back to free text" file-level
// policy.
type ChainStrategy struct {
	Strategies []Strategy
}

// Name implements Strategy.
func (c ChainStrategy) Name() string { return "chain" }

// Extract implements Strategy.
func (c ChainStrategy) Extract(ctx context.Context, doc Document) (Result, error) {
	var last Result
	for _, s := range c.Strategies {
		res, err := s.Extract(ctx, doc)
		if err != nil {
			zap.L().Warn("extraction strategy failed, trying next",
				zap.String("strategy", s.Name()),
				zap.String("source_file", doc.SourceFile),
				zap.Error(err))
			continue
		}
		if len(res.Records) > 0 {
			return res, nil
		}
		last = res
	}
	return last, nil
}

// Select builds the strategy for a configured name. "auto" is the default
// tabular-then-freetext chain; "llm" needs a constructed LLMStrategy.
func Select(name string, llm *LLMStrategy) (Strategy, error) {
	switch name {
	case "auto", "":
		return ChainStrategy{Strategies: []Strategy{TabularStrategy{}, FreeTextStrategy{}}}, nil
	case "tabular":
		return TabularStrategy{}, nil
	case "freetext":
		return FreeTextStrategy{}, nil
	case "llm":
		if llm == nil {
			return nil, eris.New("extract: llm strategy requires an anthropic client")
		}
		return llm, nil
	default:
		return nil, eris.Errorf("extract: unknown strategy %q", name)
	}
}
