package normalize

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

// classifyPrompt asks the model to bucket raw offense strings into the
// closed category list. The response must be a bare JSON object mapping
// every input string to one listed category.
const classifyPrompt = `You are an expert police report analyst. Categorize each raw offense type below into one of the predefined categories.

Predefined categories:
%s

Offense types to categorize:
%s

Respond with only a JSON object where keys are the raw offense types and values are the corresponding predefined category. Every offense type provided must appear as a key. No commentary before or after the JSON.`

// jsonObjectPattern locates the JSON object in a response that may be
// wrapped in markdown fences.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// LLMClassifier delegates offense categorization to a model, for report
// vocabularies the keyword rules handle poorly. Results are validated
// against the closed taxonomy: any missing key or out-of-list value is
// coerced to the catch-all before it reaches the cache.
type LLMClassifier struct {
	Client   anthropic.Client
	Model    string
	Retry    resilience.Policy
	MaxBatch int
}

// Categorize classifies a batch of distinct offense strings. The returned
// map always contains every input string. A failed call resolves the whole
// chunk to the catch-all category rather than aborting the run.
func (c *LLMClassifier) Categorize(ctx context.Context, offenses []string) map[string]model.OffenseCategory {
	out := make(map[string]model.OffenseCategory, len(offenses))
	if len(offenses) == 0 {
		return out
	}

	maxBatch := c.MaxBatch
	if maxBatch <= 0 {
		maxBatch = 50
	}

	for start := 0; start < len(offenses); start += maxBatch {
		end := min(start+maxBatch, len(offenses))
		chunk := offenses[start:end]

		m, err := c.categorizeChunk(ctx, chunk)
		if err != nil {
			zap.L().Warn("llm categorization failed, coercing chunk to catch-all",
				zap.Int("offenses", len(chunk)), zap.Error(err))
			for _, o := range chunk {
				out[o] = model.CategoryOther
			}
			continue
		}
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func (c *LLMClassifier) categorizeChunk(ctx context.Context, offenses []string) (map[string]model.OffenseCategory, error) {
	var cats, items strings.Builder
	for _, cat := range model.Categories {
		fmt.Fprintf(&cats, "- %s\n", cat)
	}
	for _, o := range offenses {
		fmt.Fprintf(&items, "- %s\n", o)
	}

	temp := 0.0
	req := anthropic.MessageRequest{
		Model:       c.Model,
		MaxTokens:   2048,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(classifyPrompt, cats.String(), items.String())},
		},
	}

	resp, err := resilience.DoVal(ctx, c.Retry, "classify_offenses", func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return c.Client.CreateMessage(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	resp.Usage.LogUsage(c.Model, "classify_offenses")

	raw := jsonObjectPattern.FindString(resp.Text())
	if raw == "" {
		return nil, eris.New("normalize: no JSON object in model response")
	}

	var parsed map[string]string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, eris.Wrap(err, "normalize: parse model response")
	}

	out := make(map[string]model.OffenseCategory, len(offenses))
	for _, o := range offenses {
		value, ok := parsed[o]
		if !ok {
			zap.L().Warn("model response missing offense, coercing", zap.String("offense", o))
			out[o] = model.CategoryOther
			continue
		}
		if !model.ValidCategory(value) {
			zap.L().Warn("model assigned category outside taxonomy, coercing",
				zap.String("offense", o), zap.String("category", value))
			out[o] = model.CategoryOther
			continue
		}
		out[o] = model.OffenseCategory(value)
	}
	return out, nil
}
