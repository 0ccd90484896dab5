// Package export writes the pipeline's output artifacts: the canonical
// incident CSV and the map-ready JSON feed.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/safestreets/report-cli/internal/model"
)

// csvHeader is the canonical column order. Downstream consumers index by
// position as well as name, so this order is part of the file format.
var csvHeader = []string{
	"case_number",
	"date",
	"time",
	"offense_type",
	"offense_category",
	"location",
	"street_key",
	"latitude",
	"longitude",
	"formatted_address",
	"location_specificity",
	"source_file",
	"report_date",
}

// WriteCSV writes every incident to w in the canonical column order.
// Incidents without coordinates get empty latitude and longitude cells
// rather than being dropped.
func WriteCSV(w io.Writer, incidents []model.CanonicalIncident) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, inc := range incidents {
		lat, lng, addr := "", "", ""
		if inc.Geo != nil {
			lat = strconv.FormatFloat(inc.Geo.Latitude, 'f', -1, 64)
			lng = strconv.FormatFloat(inc.Geo.Longitude, 'f', -1, 64)
			addr = inc.Geo.FormattedAddress
		}
		row := []string{
			inc.CaseNumber,
			inc.Date,
			inc.Time,
			inc.OffenseText,
			string(inc.Category),
			inc.LocationText,
			inc.StreetKey,
			lat,
			lng,
			addr,
			string(inc.Specificity),
			inc.SourceFile,
			inc.ReportDate.Format("2006-01-02"),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteCSVFile writes the canonical CSV to path.
func WriteCSVFile(path string, incidents []model.CanonicalIncident) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := WriteCSV(f, incidents); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}

// MapPoint is one plottable incident in the map feed.
type MapPoint struct {
	CaseNumber       string  `json:"case_number"`
	Date             string  `json:"date"`
	TimeMinutes      int     `json:"time"`
	Category         string  `json:"category"`
	Offense          string  `json:"offense"`
	Location         string  `json:"location"`
	Street           string  `json:"street"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formatted_address"`
}

// MapPoints converts incidents into map feed points. Incidents without
// coordinates are excluded here but not from the CSV.
func MapPoints(incidents []model.CanonicalIncident) []MapPoint {
	points := make([]MapPoint, 0, len(incidents))
	for _, inc := range incidents {
		if inc.Geo == nil {
			continue
		}
		points = append(points, MapPoint{
			CaseNumber:       inc.CaseNumber,
			Date:             inc.Date,
			TimeMinutes:      MinutesPastMidnight(inc.Time),
			Category:         string(inc.Category),
			Offense:          inc.OffenseText,
			Location:         inc.LocationText,
			Street:           inc.StreetKey,
			Latitude:         inc.Geo.Latitude,
			Longitude:        inc.Geo.Longitude,
			FormattedAddress: inc.Geo.FormattedAddress,
		})
	}
	return points
}

// WriteMapJSON writes the map feed to w as a JSON array.
func WriteMapJSON(w io.Writer, incidents []model.CanonicalIncident) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(MapPoints(incidents)), "export: encode map json")
}

// WriteMapJSONFile writes the map feed to path.
func WriteMapJSONFile(path string, incidents []model.CanonicalIncident) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := WriteMapJSON(f, incidents); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}

// MinutesPastMidnight converts a 24h "HHMM" string to minutes past
// midnight. Missing or malformed values map to 0 so every point still
// plots on the time axis.
func MinutesPastMidnight(raw string) int {
	s := strings.TrimSpace(raw)
	if len(s) != 3 && len(s) != 4 {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	hour, minute := n/100, n%100
	if hour > 23 || minute > 59 {
		return 0
	}
	return hour*60 + minute
}
