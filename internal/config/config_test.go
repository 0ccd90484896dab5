package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/raw_pdfs", cfg.Data.RawDir)
	assert.Equal(t, 5, cfg.Fetch.Concurrency)
	assert.Equal(t, "auto", cfg.Extract.Strategy)
	assert.Equal(t, "keyword", cfg.Classify.Mode)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 37.4419, cfg.Geocode.BiasLat)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SAFESTREETS_GEOCODE_API_KEY", "env-key")
	t.Setenv("SAFESTREETS_CLASSIFY_MODE", "llm")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Geocode.APIKey)
	assert.Equal(t, "llm", cfg.Classify.Mode)
}

func TestQuerySuffix(t *testing.T) {
	t.Parallel()

	g := GeocodeConfig{Locality: "Palo Alto", Region: "CA"}
	assert.Equal(t, ", Palo Alto, CA", g.QuerySuffix())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("geocode requires api key", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{}
		assert.Error(t, cfg.Validate("geocode"))

		cfg.Geocode.APIKey = "key"
		assert.NoError(t, cfg.Validate("geocode"))
	})

	t.Run("classify llm mode requires anthropic key", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{}
		cfg.Classify.Mode = "llm"
		assert.Error(t, cfg.Validate("classify"))

		cfg.Classify.AnthropicKey = "key"
		assert.NoError(t, cfg.Validate("classify"))
	})

	t.Run("keyword mode needs no key", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{}
		cfg.Classify.Mode = "keyword"
		assert.NoError(t, cfg.Validate("classify"))
	})

	t.Run("llm extraction requires anthropic key", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{}
		cfg.Extract.Strategy = "llm"
		assert.Error(t, cfg.Validate("extract"))
	})

	t.Run("unknown stage passes", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{}
		assert.NoError(t, cfg.Validate("anything"))
	})
}
