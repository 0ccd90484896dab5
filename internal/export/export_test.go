package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safestreets/report-cli/internal/model"
)

func sampleIncidents() []model.CanonicalIncident {
	return []model.CanonicalIncident{
		{
			EnrichedRecord: model.EnrichedRecord{
				RawRecord: model.RawRecord{
					CaseNumber:   "25-1234",
					Date:         "4/13/2025",
					Time:         "0930",
					OffenseText:  "Grand theft",
					LocationText: "700 BLOCK ALMA ST",
					SourceFile:   "april-13-2025-police-report-log.pdf",
				},
				StreetKey:   "Alma",
				Category:    model.CategoryTheft,
				Specificity: model.SpecRoute,
				Geo: &model.GeoResult{
					Latitude:         37.444,
					Longitude:        -122.155,
					FormattedAddress: "Alma St, Palo Alto, CA 94301, USA",
					Specificity:      model.SpecRoute,
				},
			},
			ReportDate: time.Date(2025, 4, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			EnrichedRecord: model.EnrichedRecord{
				RawRecord: model.RawRecord{
					CaseNumber:  "25-1235",
					Date:        "4/13/2025",
					OffenseText: "Fraud report",
					SourceFile:  "april-13-2025-police-report-log.pdf",
				},
				Category:    model.CategoryFraud,
				Specificity: model.SpecInvalidInput,
			},
			ReportDate: time.Date(2025, 4, 13, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleIncidents()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"case_number", "date", "time", "offense_type", "offense_category",
		"location", "street_key", "latitude", "longitude", "formatted_address",
		"location_specificity", "source_file", "report_date",
	}, rows[0])

	assert.Equal(t, "25-1234", rows[1][0])
	assert.Equal(t, "Theft", rows[1][4])
	assert.Equal(t, "37.444", rows[1][7])
	assert.Equal(t, "2025-04-13", rows[1][12])

	// Ungeocoded incidents keep their row with empty coordinate cells.
	assert.Equal(t, "25-1235", rows[2][0])
	assert.Empty(t, rows[2][7])
	assert.Empty(t, rows[2][8])
}

func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()

	in := sampleIncidents()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in))

	out, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "25-1234", out[0].CaseNumber)
	assert.Equal(t, model.CategoryTheft, out[0].Category)
	assert.Equal(t, "Alma", out[0].StreetKey)
	require.NotNil(t, out[0].Geo)
	assert.Equal(t, 37.444, out[0].Geo.Latitude)
	assert.Equal(t, in[0].ReportDate, out[0].ReportDate)

	assert.Nil(t, out[1].Geo)
	assert.Equal(t, model.SpecInvalidInput, out[1].Specificity)
}

func TestReadCSVRejectsWrongHeader(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(bytes.NewBufferString("a,b,c\n"))
	assert.Error(t, err)
}

func TestMapPoints(t *testing.T) {
	t.Parallel()

	points := MapPoints(sampleIncidents())

	// Only geocoded incidents plot.
	require.Len(t, points, 1)
	assert.Equal(t, "25-1234", points[0].CaseNumber)
	assert.Equal(t, 9*60+30, points[0].TimeMinutes)
	assert.Equal(t, "Alma", points[0].Street)
}

func TestWriteMapJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteMapJSON(&buf, sampleIncidents()))

	var points []MapPoint
	require.NoError(t, json.Unmarshal(buf.Bytes(), &points))
	require.Len(t, points, 1)
	assert.Equal(t, 37.444, points[0].Latitude)
}

func TestMinutesPastMidnight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want int
	}{
		{"0000", 0},
		{"0930", 570},
		{"930", 570},
		{"2359", 1439},
		{"", 0},
		{"noon", 0},
		{"2575", 0},
		{"12345", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MinutesPastMidnight(tt.raw), "input %q", tt.raw)
	}
}
