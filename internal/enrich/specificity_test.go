package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/safestreets/report-cli/internal/model"
)

func TestSpecificityFromTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		types []string
		want  model.LocationSpecificity
	}{
		{"empty", nil, model.SpecUnknown},
		{"intersection", []string{"intersection"}, model.SpecIntersection},
		{"street address", []string{"street_address"}, model.SpecStreetAddress},
		{"premise", []string{"premise"}, model.SpecStreetAddress},
		{"route", []string{"route"}, model.SpecRoute},
		{"named place", []string{"park", "point_of_interest"}, model.SpecSpecificPlace},
		{"unrecognized tags", []string{"locality", "political"}, model.SpecGeneralArea},
		{"intersection beats address", []string{"street_address", "intersection"}, model.SpecIntersection},
		{"address beats route", []string{"route", "street_address"}, model.SpecStreetAddress},
		{"route beats named place", []string{"park", "route"}, model.SpecRoute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SpecificityFromTypes(tt.types))
		})
	}
}
