package enrich

import "github.com/safestreets/report-cli/internal/model"

// specificPlaceTypes are Places API types indicating a specific named
// place rather than a plain address or area.
var specificPlaceTypes = map[string]bool{
	"establishment":     true,
	"point_of_interest": true,
	"store":             true,
	"restaurant":        true,
	"park":              true,
	"school":            true,
	"hospital":          true,
	"church":            true,
	"library":           true,
	"museum":            true,
	"airport":           true,
	"shopping_mall":     true,
	"university":        true,
	"transit_station":   true,
	"gas_station":       true,
	"lodging":           true,
}

// SpecificityFromTypes derives the location specificity from a place's
// type tags with fixed precedence: intersection beats street address beats
// route beats named place. Empty tags yield unknown.
func SpecificityFromTypes(types []string) model.LocationSpecificity {
	if len(types) == 0 {
		return model.SpecUnknown
	}

	tagged := make(map[string]bool, len(types))
	for _, t := range types {
		tagged[t] = true
	}

	switch {
	case tagged["intersection"]:
		return model.SpecIntersection
	case tagged["street_address"] || tagged["premise"]:
		return model.SpecStreetAddress
	case tagged["route"]:
		return model.SpecRoute
	}

	for _, t := range types {
		if specificPlaceTypes[t] {
			return model.SpecSpecificPlace
		}
	}
	return model.SpecGeneralArea
}
