package export

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/safestreets/report-cli/internal/model"
)

// ReadCSV parses a canonical incident CSV written by WriteCSV. The header
// row is required and must match the canonical column order.
func ReadCSV(r io.Reader) ([]model.CanonicalIncident, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "export: read csv header")
	}
	for i, want := range csvHeader {
		if header[i] != want {
			return nil, eris.Errorf("export: unexpected csv column %d: got %q, want %q", i, header[i], want)
		}
	}

	var incidents []model.CanonicalIncident
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "export: read csv row")
		}

		inc := model.CanonicalIncident{
			EnrichedRecord: model.EnrichedRecord{
				RawRecord: model.RawRecord{
					CaseNumber:   row[0],
					Date:         row[1],
					Time:         row[2],
					OffenseText:  row[3],
					LocationText: row[5],
					SourceFile:   row[11],
				},
				StreetKey:   row[6],
				Category:    model.OffenseCategory(row[4]),
				Specificity: model.LocationSpecificity(row[10]),
			},
		}
		if row[7] != "" && row[8] != "" {
			lat, latErr := strconv.ParseFloat(row[7], 64)
			lng, lngErr := strconv.ParseFloat(row[8], 64)
			if latErr == nil && lngErr == nil {
				inc.Geo = &model.GeoResult{
					Latitude:         lat,
					Longitude:        lng,
					FormattedAddress: row[9],
					Specificity:      inc.Specificity,
				}
			}
		}
		if t, err := time.Parse("2006-01-02", row[12]); err == nil {
			inc.ReportDate = t
		}
		incidents = append(incidents, inc)
	}
	return incidents, nil
}

// ReadCSVFile reads a canonical incident CSV from path.
func ReadCSVFile(path string) ([]model.CanonicalIncident, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: open %s", path)
	}
	defer f.Close()

	incidents, err := ReadCSV(f)
	if err != nil {
		return nil, eris.Wrapf(err, "export: parse %s", path)
	}
	return incidents, nil
}
