package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/safestreets/report-cli/internal/model"
	"github.com/safestreets/report-cli/internal/resilience"
	"github.com/safestreets/report-cli/pkg/anthropic"
)

// llmExtractPrompt instructs the model to emit structured rows from a page
// of degraded report text. The response must be a bare JSON array.
const llmExtractPrompt = `You are reading one page of a municipal police report log. Extract every incident entry you can find.

Respond with only a JSON array, no commentary. Each element must be an object with exactly these string keys: "case_number", "date", "time", "offense", "location". Use an empty string for any field not present in the text. Do not invent values.

Page text:
%s`

// jsonArrayPattern locates the JSON array in a response that may be
// wrapped in markdown fences.
var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

var errNoJSONArray = eris.New("extract: no JSON array in model response")

// llmRow mirrors the JSON objects the model is asked to produce.
type llmRow struct {
	CaseNumber string `json:"case_number"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Offense    string `json:"offense"`
	Location   string `json:"location"`
}

// LLMStrategy extracts records by prompting a model with each page's text.
// It is the alternate top-level strategy for documents whose layout defeats
// both the tabular and free-text parsers.
type LLMStrategy struct {
	Client anthropic.Client
	Model  string
	Retry  resilience.Policy
}

// Name implements Strategy.
func (s *LLMStrategy) Name() string { return "llm" }

// Extract implements Strategy. A failed or unparseable model response for
// one page is logged and skipped; the rest of the document still extracts.
func (s *LLMStrategy) Extract(ctx context.Context, doc Document) (Result, error) {
	log := zap.L().With(
		zap.String("strategy", "llm"),
		zap.String("source_file", doc.SourceFile),
	)

	var res Result
	for i, page := range doc.Pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			continue
		}

		records, err := s.extractPage(ctx, text, doc.SourceFile)
		if err != nil {
			log.Warn("llm page extraction failed, skipping page",
				zap.Int("page", i+1), zap.Error(err))
			continue
		}
		res.Records = append(res.Records, records...)
	}
	return res, nil
}

func (s *LLMStrategy) extractPage(ctx context.Context, text, sourceFile string) ([]model.RawRecord, error) {
	temp := 0.0
	req := anthropic.MessageRequest{
		Model:       s.Model,
		MaxTokens:   4096,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(llmExtractPrompt, text)},
		},
	}

	resp, err := resilience.DoVal(ctx, s.Retry, "llm_extract", func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return s.Client.CreateMessage(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	resp.Usage.LogUsage(s.Model, "llm_extract")

	raw := jsonArrayPattern.FindString(resp.Text())
	if raw == "" {
		return nil, errNoJSONArray
	}

	var rows []llmRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, err
	}

	records := make([]model.RawRecord, 0, len(rows))
	for _, row := range rows {
		rec := model.RawRecord{
			CaseNumber:   strings.TrimSpace(row.CaseNumber),
			Date:         strings.TrimSpace(row.Date),
			Time:         strings.TrimSpace(row.Time),
			OffenseText:  strings.TrimSpace(row.Offense),
			LocationText: strings.TrimSpace(row.Location),
			SourceFile:   sourceFile,
		}
		if rec.Empty() {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
