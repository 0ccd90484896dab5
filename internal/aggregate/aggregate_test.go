package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safestreets/report-cli/internal/model"
	"github.com/safestreets/report-cli/internal/policy"
)

func incident(street string, cat model.OffenseCategory, date, timeStr string) model.CanonicalIncident {
	return model.CanonicalIncident{
		EnrichedRecord: model.EnrichedRecord{
			RawRecord: model.RawRecord{Date: date, Time: timeStr},
			StreetKey: street,
			Category:  cat,
		},
	}
}

func TestBandForTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		want   TimeBand
		wantOK bool
	}{
		{"0500", BandMorning, true},
		{"1159", BandMorning, true},
		{"1200", BandAfternoon, true},
		{"1659", BandAfternoon, true},
		{"1700", BandEvening, true},
		{"2159", BandEvening, true},
		{"2200", BandNight, true},
		{"0459", BandNight, true},
		{"0000", BandNight, true},
		{"930", BandMorning, true},
		{"9:30", BandMorning, true},
		{"9:30 pm", BandEvening, true},
		{"12:15 PM", BandAfternoon, true},
		{"", "", false},
		{"noon", "", false},
		{"2590", "", false},
		{"12345", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			band, ok := BandForTime(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, band)
		})
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	t.Run("slash format", func(t *testing.T) {
		t.Parallel()
		d, ok := ParseDate("4/13/2025")
		require.True(t, ok)
		assert.Equal(t, "Sunday", d.Weekday().String())
	})

	t.Run("iso format", func(t *testing.T) {
		t.Parallel()
		_, ok := ParseDate("2025-04-13")
		assert.True(t, ok)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		_, ok := ParseDate("13/45/20")
		assert.False(t, ok)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		_, ok := ParseDate("")
		assert.False(t, ok)
	})
}

func TestComputeSafetyScores(t *testing.T) {
	t.Parallel()

	pol := policy.Default()
	// Alma: 2 thefts (weight 7) and 1 disturbance (weight 2):
	// (2*7 + 1*2) / 3 = 5.33.
	incidents := []model.CanonicalIncident{
		incident("Alma", model.CategoryTheft, "4/13/2025", "0930"),
		incident("Alma", model.CategoryTheft, "4/14/2025", "1300"),
		incident("Alma", model.CategoryDisturbance, "4/15/2025", "2300"),
		// Cowper: single incident, below the ranking threshold.
		incident("Cowper", model.CategoryAssault, "4/13/2025", "1000"),
		// Hamilton: 2 mental health holds (weight 1): score 1.0.
		incident("Hamilton", model.CategoryMentalHealth, "4/13/2025", "0600"),
		incident("Hamilton", model.CategoryMentalHealth, "4/14/2025", "0700"),
	}

	stats := Compute(incidents, pol)

	require.Len(t, stats.StreetScores, 2)
	// Ascending: safest street first.
	assert.Equal(t, "Hamilton", stats.StreetScores[0].Street)
	assert.InDelta(t, 1.0, stats.StreetScores[0].Score, 1e-9)
	assert.Equal(t, "Alma", stats.StreetScores[1].Street)
	assert.InDelta(t, 16.0/3.0, stats.StreetScores[1].Score, 1e-9)
	assert.Equal(t, 3, stats.StreetScores[1].Incidents)

	for _, s := range stats.StreetScores {
		assert.NotEqual(t, "Cowper", s.Street, "below-threshold street must not rank")
		assert.False(t, math.IsNaN(s.Score))
	}
}

func TestComputeFrequencies(t *testing.T) {
	t.Parallel()

	incidents := []model.CanonicalIncident{
		incident("Alma", model.CategoryTheft, "4/13/2025", "0930"),
		incident("Alma", model.CategoryFraud, "4/14/2025", "1300"),
		incident("", model.CategoryTheft, "4/13/2025", "2300"),
	}

	stats := Compute(incidents, policy.Default())

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByStreet["Alma"])
	assert.Equal(t, 1, stats.ByStreet["Unknown"], "blank street keys bucket under Unknown")
	assert.Equal(t, 2, stats.ByCategory[model.CategoryTheft])
	assert.Equal(t, 1, stats.ByCategory[model.CategoryFraud])
}

func TestComputePartialData(t *testing.T) {
	t.Parallel()

	incidents := []model.CanonicalIncident{
		incident("Alma", model.CategoryTheft, "not a date", "not a time"),
		incident("Alma", model.CategoryTheft, "4/13/2025", "0930"),
	}

	stats := Compute(incidents, policy.Default())

	// Unparseable dates and times fall out of the time tables only.
	assert.Equal(t, 2, stats.ByStreet["Alma"])
	assert.Equal(t, 1, stats.ByTimeBand[BandMorning])
	assert.Equal(t, 1, stats.ByDayOfWeek["Sunday"])

	total := 0
	for _, n := range stats.ByTimeBand {
		total += n
	}
	assert.Equal(t, 1, total)
}
