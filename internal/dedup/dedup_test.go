package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safestreets/report-cli/internal/model"
)

func incident(caseNumber, date, source string) model.CanonicalIncident {
	return model.CanonicalIncident{
		EnrichedRecord: model.EnrichedRecord{
			RawRecord: model.RawRecord{
				CaseNumber: caseNumber,
				Date:       date,
				SourceFile: source,
			},
		},
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	t.Run("first seen wins", func(t *testing.T) {
		t.Parallel()
		res := Merge([]model.CanonicalIncident{
			incident("25-1234", "4/13/2025", "a.pdf"),
			incident("25-1234", "4/13/2025", "b.pdf"),
		})

		require.Len(t, res.Incidents, 1)
		assert.Equal(t, "a.pdf", res.Incidents[0].SourceFile)
		assert.Equal(t, 1, res.Dropped)
	})

	t.Run("same case different dates are distinct", func(t *testing.T) {
		t.Parallel()
		res := Merge([]model.CanonicalIncident{
			incident("25-1234", "4/13/2025", "a.pdf"),
			incident("25-1234", "4/14/2025", "a.pdf"),
		})

		assert.Len(t, res.Incidents, 2)
		assert.Zero(t, res.Dropped)
	})

	t.Run("empty case numbers never merge", func(t *testing.T) {
		t.Parallel()
		res := Merge([]model.CanonicalIncident{
			incident("", "4/13/2025", "a.pdf"),
			incident("", "4/13/2025", "a.pdf"),
		})

		assert.Len(t, res.Incidents, 2)
		assert.Zero(t, res.Dropped)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		res := Merge(nil)
		assert.Empty(t, res.Incidents)
		assert.Zero(t, res.Dropped)
	})
}

func TestMergeIdempotent(t *testing.T) {
	t.Parallel()

	first := Merge([]model.CanonicalIncident{
		incident("25-0001", "4/13/2025", "a.pdf"),
		incident("25-0001", "4/13/2025", "b.pdf"),
		incident("25-0002", "4/13/2025", "a.pdf"),
		incident("", "4/13/2025", "a.pdf"),
	})
	require.Equal(t, 1, first.Dropped)

	second := Merge(first.Incidents)
	assert.Equal(t, first.Incidents, second.Incidents)
	assert.Zero(t, second.Dropped)
}

func TestMergePreservesOrder(t *testing.T) {
	t.Parallel()

	res := Merge([]model.CanonicalIncident{
		incident("25-0003", "4/13/2025", "a.pdf"),
		incident("25-0001", "4/13/2025", "a.pdf"),
		incident("25-0002", "4/13/2025", "a.pdf"),
	})

	require.Len(t, res.Incidents, 3)
	assert.Equal(t, "25-0003", res.Incidents[0].CaseNumber)
	assert.Equal(t, "25-0001", res.Incidents[1].CaseNumber)
	assert.Equal(t, "25-0002", res.Incidents[2].CaseNumber)
}
