package jurisdiction

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed static_data.yaml
var staticTableYAML []byte

// StaticCourtCount is the number of generic court entries synthesized for a
// complex that has no curated court list.
const StaticCourtCount = 5

// staticTable is the decoded shape of static_data.yaml.
type staticTable struct {
	States    []CodeName            `yaml:"states"`
	Districts map[string][]CodeName `yaml:"districts"`
	Complexes map[string][]CodeName `yaml:"complexes"`
}

// StaticTier serves jurisdiction options from the embedded fallback table.
// It is the last tier in the chain: always available, never complete, and
// intentionally limited to major jurisdictions.
type StaticTier struct {
	table staticTable
}

// NewStaticTier loads the embedded fallback table.
func NewStaticTier() (*StaticTier, error) {
	var table staticTable
	if err := yaml.Unmarshal(staticTableYAML, &table); err != nil {
		return nil, fmt.Errorf("failed to decode embedded jurisdiction table: %w", err)
	}
	return &StaticTier{table: table}, nil
}

// Name identifies this tier in resolution traces.
func (staticTier *StaticTier) Name() string {
	return "static"
}

// Resolve returns the curated options for the level under the given parent
// path. Unknown states or districts yield an empty set, which the resolver
// treats as a miss. Courts are synthesized per complex since the public table
// does not enumerate individual court rooms.
func (staticTier *StaticTier) Resolve(level Level, parent Path) ([]CodeName, error) {
	switch level {
	case LevelState:
		return staticTier.table.States, nil

	case LevelDistrict:
		if parent.State.Code == "" {
			return nil, fmt.Errorf("district resolution requires a state")
		}
		return staticTier.table.Districts[parent.State.Code], nil

	case LevelComplex:
		if parent.District.Code == "" {
			return nil, fmt.Errorf("complex resolution requires a district")
		}
		return staticTier.table.Complexes[parent.District.Code], nil

	case LevelCourt:
		if parent.Complex.Code == "" {
			return nil, fmt.Errorf("court resolution requires a complex")
		}
		// Individual court rooms are not in the curated table; synthesize the
		// generic numbering the eCourts pages use.
		courts := make([]CodeName, 0, StaticCourtCount)
		for courtNumber := 1; courtNumber <= StaticCourtCount; courtNumber++ {
			courts = append(courts, CodeName{
				Code: fmt.Sprintf("%sCT%02d", parent.Complex.Code, courtNumber),
				Name: fmt.Sprintf("Court No. %d", courtNumber),
			})
		}
		return courts, nil

	default:
		return nil, fmt.Errorf("unknown jurisdiction level %q", level)
	}
}
