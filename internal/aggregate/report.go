package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/safestreets/report-cli/internal/model"
)

// bandOrder fixes the display order for time-of-day tables.
var bandOrder = []TimeBand{BandMorning, BandAfternoon, BandEvening, BandNight}

var dayOrder = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday",
	"Friday", "Saturday", "Sunday",
}

// RenderReport formats the aggregation output as a markdown summary.
func RenderReport(stats Stats, generatedAt time.Time) string {
	var b strings.Builder

	b.WriteString("# Street Safety Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", generatedAt.Format("January 2, 2006"))
	fmt.Fprintf(&b, "Total incidents analyzed: %d\n\n", stats.Total)

	b.WriteString("## Safest Streets\n\n")
	if len(stats.StreetScores) == 0 {
		b.WriteString("Not enough data to rank streets.\n\n")
	} else {
		b.WriteString("Lower score is safer. Streets with too few incidents are omitted.\n\n")
		b.WriteString("| Rank | Street | Safety Score | Incidents |\n")
		b.WriteString("|------|--------|--------------|----------|\n")
		for i, s := range stats.StreetScores {
			fmt.Fprintf(&b, "| %d | %s | %.2f | %d |\n", i+1, s.Street, s.Score, s.Incidents)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Incidents by Category\n\n")
	b.WriteString("| Category | Count |\n")
	b.WriteString("|----------|-------|\n")
	for _, row := range sortedCategoryCounts(stats.ByCategory) {
		fmt.Fprintf(&b, "| %s | %d |\n", row.category, row.count)
	}
	b.WriteString("\n")

	b.WriteString("## Incidents by Time of Day\n\n")
	b.WriteString("| Period | Count |\n")
	b.WriteString("|--------|-------|\n")
	for _, band := range bandOrder {
		fmt.Fprintf(&b, "| %s | %d |\n", band, stats.ByTimeBand[band])
	}
	b.WriteString("\n")

	b.WriteString("## Incidents by Day of Week\n\n")
	b.WriteString("| Day | Count |\n")
	b.WriteString("|-----|-------|\n")
	for _, day := range dayOrder {
		fmt.Fprintf(&b, "| %s | %d |\n", day, stats.ByDayOfWeek[day])
	}
	b.WriteString("\n")

	b.WriteString("## Busiest Streets\n\n")
	b.WriteString("| Street | Incidents |\n")
	b.WriteString("|--------|----------|\n")
	for _, row := range topStreets(stats.ByStreet, 10) {
		fmt.Fprintf(&b, "| %s | %d |\n", row.street, row.count)
	}

	return b.String()
}

type categoryCount struct {
	category model.OffenseCategory
	count    int
}

func sortedCategoryCounts(byCategory map[model.OffenseCategory]int) []categoryCount {
	rows := make([]categoryCount, 0, len(byCategory))
	for cat, count := range byCategory {
		rows = append(rows, categoryCount{cat, count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].category < rows[j].category
	})
	return rows
}

type streetCount struct {
	street string
	count  int
}

func topStreets(byStreet map[string]int, limit int) []streetCount {
	rows := make([]streetCount, 0, len(byStreet))
	for street, count := range byStreet {
		rows = append(rows, streetCount{street, count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].street < rows[j].street
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
