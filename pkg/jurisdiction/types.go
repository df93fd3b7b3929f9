// Package jurisdiction resolves the eCourts location hierarchy
// (state → district → court complex → court) to the codes the cause-list
// endpoints expect, using a three-tier fallback chain: the site's own data
// endpoints, an HTML scrape of the selection page, and an embedded static
// table for major jurisdictions.
package jurisdiction

import (
	"fmt"
)

// Level is one step of the eCourts location hierarchy.
type Level string

const (
	// LevelState is the top of the hierarchy.
	LevelState Level = "state"

	// LevelDistrict is a district within a state.
	LevelDistrict Level = "district"

	// LevelComplex is a court complex within a district.
	LevelComplex Level = "complex"

	// LevelCourt is an individual court within a complex.
	LevelCourt Level = "court"
)

// Levels lists the hierarchy in order from state to court.
var Levels = []Level{LevelState, LevelDistrict, LevelComplex, LevelCourt}

// Parent returns the level above this one. The state level has no parent.
func (level Level) Parent() (Level, bool) {
	switch level {
	case LevelDistrict:
		return LevelState, true
	case LevelComplex:
		return LevelDistrict, true
	case LevelCourt:
		return LevelComplex, true
	default:
		return "", false
	}
}

// CodeName is a selectable option at one hierarchy level: the code the
// upstream site keys on and the display name shown to humans.
type CodeName struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Path is an ordered location selector. Levels are filled top-down; a level
// with an empty Code below a filled one is simply absent. The court level is
// optional (a complex-level path addresses every court in the complex).
type Path struct {
	State    CodeName `json:"state"`
	District CodeName `json:"district,omitzero"`
	Complex  CodeName `json:"complex,omitzero"`
	Court    CodeName `json:"court,omitzero"`
}

// At returns the selector at the given level.
func (path Path) At(level Level) CodeName {
	switch level {
	case LevelState:
		return path.State
	case LevelDistrict:
		return path.District
	case LevelComplex:
		return path.Complex
	case LevelCourt:
		return path.Court
	default:
		return CodeName{}
	}
}

// With returns a copy of the path with the selector at the given level set.
func (path Path) With(level Level, selector CodeName) Path {
	switch level {
	case LevelState:
		path.State = selector
	case LevelDistrict:
		path.District = selector
	case LevelComplex:
		path.Complex = selector
	case LevelCourt:
		path.Court = selector
	}
	return path
}

// IsEmpty reports whether no level is selected at all.
func (path Path) IsEmpty() bool {
	return path.State.Code == "" && path.District.Code == "" &&
		path.Complex.Code == "" && path.Court.Code == ""
}

// Validate checks the parent-before-child invariant: a selected level below
// an unselected one is invalid (a district cannot exist without a state).
func (path Path) Validate() error {
	previousSelected := true
	for _, level := range Levels {
		selected := path.At(level).Code != ""
		if selected && !previousSelected {
			parent, _ := level.Parent()
			return fmt.Errorf("jurisdiction path selects %s without a %s", level, parent)
		}
		if level != LevelState {
			previousSelected = previousSelected && selected
		} else {
			previousSelected = selected
		}
	}
	return nil
}

// DeepestLevel returns the lowest selected level, or false for an empty path.
func (path Path) DeepestLevel() (Level, bool) {
	deepest := Level("")
	for _, level := range Levels {
		if path.At(level).Code != "" {
			deepest = level
		}
	}
	if deepest == "" {
		return "", false
	}
	return deepest, true
}

// UnresolvedLevelError reports that every resolution tier failed for a
// required hierarchy level. It is terminal for the query that needed it.
type UnresolvedLevelError struct {
	// Level is the hierarchy level that could not be resolved.
	Level Level

	// Parent is the path under which resolution was attempted.
	Parent Path
}

func (unresolvedErr *UnresolvedLevelError) Error() string {
	return fmt.Sprintf("jurisdiction unresolved at level %s: all resolution tiers failed", unresolvedErr.Level)
}

// TierMiss records one tier failing for one level; misses are recoverable
// issues surfaced on the final outcome, not hard errors.
type TierMiss struct {
	// Tier is the name of the tier that failed.
	Tier string `json:"tier"`

	// Level is the hierarchy level being resolved.
	Level Level `json:"level"`

	// Reason describes the failure (timeout, HTTP status, unparsable payload).
	Reason string `json:"reason"`
}

// Trace records how a resolution request was satisfied: which tier served it
// and which tiers missed before that. Code sets are always attributable to a
// single tier; partial results from different tiers are never merged.
type Trace struct {
	// ServedBy is the name of the tier that produced the result, or "" when
	// no tier succeeded.
	ServedBy string `json:"served_by,omitempty"`

	// Misses lists the tier failures that preceded the success, in order.
	Misses []TierMiss `json:"misses,omitempty"`
}
