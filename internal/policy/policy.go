// Package policy holds the tunable constants of the pipeline: the offense
// keyword taxonomy and the severity weights used for safety scoring. Both
// ship with embedded defaults and can be overridden from a YAML file.
package policy

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/safestreets/report-cli/internal/model"
)

// CategoryRule maps one offense category to its trigger keywords. Rules are
// evaluated in slice order and the first match wins, so the order is part
// of the policy, not an implementation detail.
type CategoryRule struct {
	Category model.OffenseCategory `yaml:"category"`
	Keywords []string              `yaml:"keywords"`
}

// Policy bundles the classification rules and scoring weights.
type Policy struct {
	Rules        []CategoryRule                    `yaml:"rules"`
	Weights      map[model.OffenseCategory]float64 `yaml:"severity_weights"`
	MinIncidents int                               `yaml:"min_incidents"`
}

// Default returns the built-in policy. Keyword lists and weights follow the
// department's historical report vocabulary; weights are asserted policy,
// not derived from data.
func Default() Policy {
	return Policy{
		Rules: []CategoryRule{
			{model.CategoryTheft, []string{"theft", "burglary", "robbery", "shoplifting", "stolen", "larceny"}},
			{model.CategoryTraffic, []string{"traffic", "collision", "vehicle", "driving", "dui", "parking", "hit and run", "accident"}},
			{model.CategoryAssault, []string{"assault", "battery", "fight", "violence", "domestic", "rape"}},
			{model.CategoryPropertyDamage, []string{"vandalism", "damage", "graffiti", "deface"}},
			{model.CategoryDrugsAlcohol, []string{"drug", "narcotic", "alcohol", "intoxication", "controlled substance"}},
			{model.CategoryMentalHealth, []string{"mental", "welfare", "crisis", "evaluation"}},
			{model.CategoryDisturbance, []string{"noise", "disturbance", "loud", "party", "nuisance"}},
			{model.CategoryFraud, []string{"fraud", "scam", "identity theft", "forgery", "credit", "unauth"}},
			{model.CategoryWarrant, []string{"warrant", "failure to appear"}},
		},
		Weights: map[model.OffenseCategory]float64{
			model.CategoryAssault:        10,
			model.CategoryTheft:          7,
			model.CategoryPropertyDamage: 5,
			model.CategoryDrugsAlcohol:   4,
			model.CategoryFraud:          3,
			model.CategoryWarrant:        3,
			model.CategoryTraffic:        2,
			model.CategoryDisturbance:    2,
			model.CategoryOther:          2,
			model.CategoryMentalHealth:   1,
			model.CategoryUnknown:        0.5,
		},
		MinIncidents: 2,
	}
}

// Load reads a policy override file. Sections missing from the file keep
// their defaults, so a file may override just the weights.
func Load(path string) (Policy, error) {
	p := Default()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return p, eris.Wrapf(err, "policy: read %s", path)
	}

	var override Policy
	if err := yaml.Unmarshal(data, &override); err != nil {
		return p, eris.Wrapf(err, "policy: parse %s", path)
	}

	if len(override.Rules) > 0 {
		p.Rules = override.Rules
	}
	if len(override.Weights) > 0 {
		p.Weights = override.Weights
	}
	if override.MinIncidents > 0 {
		p.MinIncidents = override.MinIncidents
	}
	return p, nil
}

// Weight returns the severity weight for a category, defaulting to 1 for
// categories absent from the table.
func (p Policy) Weight(c model.OffenseCategory) float64 {
	if w, ok := p.Weights[c]; ok {
		return w
	}
	return 1
}
