// Package aggregate computes reporting statistics from the canonical
// incident set: frequency tables, weighted safety scores per street, and
// time-based breakdowns.
package aggregate

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/safestreets/report-cli/internal/model"
	"github.com/safestreets/report-cli/internal/policy"
)

// TimeBand is a fixed time-of-day bucket.
type TimeBand string

const (
	BandMorning   TimeBand = "Morning"   // 05:00–11:59
	BandAfternoon TimeBand = "Afternoon" // 12:00–16:59
	BandEvening   TimeBand = "Evening"   // 17:00–21:59
	BandNight     TimeBand = "Night"     // 22:00–04:59
)

// StreetScore is one street's weighted safety score. Lower means fewer or
// less severe incidents.
type StreetScore struct {
	Street      string  `json:"street"`
	Score       float64 `json:"safety_score"`
	Incidents   int     `json:"incident_count"`
	WeightedSum float64 `json:"weighted_sum"`
}

// Stats is the full aggregation output.
type Stats struct {
	Total        int                             `json:"total_incidents"`
	ByStreet     map[string]int                  `json:"by_street"`
	ByCategory   map[model.OffenseCategory]int   `json:"by_category"`
	ByTimeBand   map[TimeBand]int                `json:"by_time_band"`
	ByDayOfWeek  map[string]int                  `json:"by_day_of_week"`
	StreetScores []StreetScore                   `json:"street_scores"`
}

// Compute aggregates the incident set under the given policy. Records with
// unparseable dates or times are excluded from the time-based tables only;
// they still count toward location and offense frequencies.
func Compute(incidents []model.CanonicalIncident, pol policy.Policy) Stats {
	stats := Stats{
		Total:       len(incidents),
		ByStreet:    make(map[string]int),
		ByCategory:  make(map[model.OffenseCategory]int),
		ByTimeBand:  make(map[TimeBand]int),
		ByDayOfWeek: make(map[string]int),
	}

	perStreetCategory := make(map[string]map[model.OffenseCategory]int)

	for _, inc := range incidents {
		street := inc.StreetKey
		if street == "" {
			street = "Unknown"
		}
		stats.ByStreet[street]++
		stats.ByCategory[inc.Category]++

		if perStreetCategory[street] == nil {
			perStreetCategory[street] = make(map[model.OffenseCategory]int)
		}
		perStreetCategory[street][inc.Category]++

		if band, ok := BandForTime(inc.Time); ok {
			stats.ByTimeBand[band]++
		}
		if day, ok := dayOfWeek(inc.Date); ok {
			stats.ByDayOfWeek[day]++
		}
	}

	stats.StreetScores = scoreStreets(perStreetCategory, pol)
	return stats
}

// scoreStreets computes the weighted safety score for each street with at
// least the policy's minimum incident count, sorted ascending (safest
// first). The threshold keeps single-incident streets from dominating
// either end of the ranking.
func scoreStreets(perStreetCategory map[string]map[model.OffenseCategory]int, pol policy.Policy) []StreetScore {
	scores := make([]StreetScore, 0, len(perStreetCategory))
	for street, categories := range perStreetCategory {
		total := 0
		weighted := 0.0
		for cat, count := range categories {
			total += count
			weighted += float64(count) * pol.Weight(cat)
		}
		if total < pol.MinIncidents {
			continue
		}
		scores = append(scores, StreetScore{
			Street:      street,
			Score:       weighted / float64(total),
			Incidents:   total,
			WeightedSum: weighted,
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score < scores[j].Score
		}
		return scores[i].Street < scores[j].Street
	})
	return scores
}

// BandForTime buckets a raw time string. Accepts 24h "HHMM" (also 3-digit
// "HMM") and "H:MM" with an optional am/pm marker. Returns false for
// anything unparseable.
func BandForTime(raw string) (TimeBand, bool) {
	hour, ok := parseHour(raw)
	if !ok {
		return "", false
	}

	switch {
	case hour >= 5 && hour < 12:
		return BandMorning, true
	case hour >= 12 && hour < 17:
		return BandAfternoon, true
	case hour >= 17 && hour < 22:
		return BandEvening, true
	default:
		return BandNight, true
	}
}

func parseHour(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	if idx := strings.Index(s, ":"); idx > 0 {
		hour, err := strconv.Atoi(s[:idx])
		if err != nil {
			return 0, false
		}
		upper := strings.ToUpper(s)
		isPM := strings.Contains(upper, "PM") || strings.Contains(upper, "P.M")
		if isPM && hour < 12 {
			hour += 12
		}
		if hour < 0 || hour > 23 {
			return 0, false
		}
		return hour, true
	}

	if len(s) != 3 && len(s) != 4 {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	hour, minute := n/100, n%100
	if hour > 23 || minute > 59 {
		return 0, false
	}
	return hour, true
}

// dateLayouts are the record-body date formats seen across report
// variants.
var dateLayouts = []string{
	"1/2/2006",
	"1-2-2006",
	"2006-01-02",
	"January 2, 2006",
	"January 2 2006",
}

// ParseDate validates a record-body date string.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func dayOfWeek(raw string) (string, bool) {
	t, ok := ParseDate(raw)
	if !ok {
		return "", false
	}
	return t.Weekday().String(), true
}
