package jurisdiction

import (
	"testing"
)

func TestStaticTierStates(t *testing.T) {
	staticTier, err := NewStaticTier()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	states, err := staticTier.Resolve(LevelState, Path{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(states) < 15 {
		t.Errorf("curated state count = %d, want the major states", len(states))
	}

	foundMaharashtra := false
	for _, state := range states {
		if state.Code == "MH" && state.Name == "Maharashtra" {
			foundMaharashtra = true
		}
	}
	if !foundMaharashtra {
		t.Error("expected MH / Maharashtra in curated states")
	}
}

func TestStaticTierDistricts(t *testing.T) {
	staticTier, err := NewStaticTier()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	districts, err := staticTier.Resolve(LevelDistrict, Path{State: CodeName{Code: "MH"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(districts) == 0 {
		t.Fatal("expected curated districts for MH")
	}
	if districts[0].Code != "MH01" {
		t.Errorf("first MH district = %q, want MH01", districts[0].Code)
	}

	// Unknown state yields an empty set, which the resolver treats as a miss.
	unknown, err := staticTier.Resolve(LevelDistrict, Path{State: CodeName{Code: "ZZ"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unknown) != 0 {
		t.Errorf("districts for fictitious state = %v, want none", unknown)
	}
}

func TestStaticTierComplexesAndCourts(t *testing.T) {
	staticTier, err := NewStaticTier()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parent := Path{
		State:    CodeName{Code: "DL"},
		District: CodeName{Code: "DL01"},
	}
	complexes, err := staticTier.Resolve(LevelComplex, parent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	foundTisHazari := false
	for _, courtComplex := range complexes {
		if courtComplex.Name == "Tis Hazari Courts Complex" {
			foundTisHazari = true
		}
	}
	if !foundTisHazari {
		t.Error("expected Tis Hazari Courts Complex for DL01")
	}

	parent.Complex = CodeName{Code: "DL01C01"}
	courts, err := staticTier.Resolve(LevelCourt, parent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(courts) != StaticCourtCount {
		t.Fatalf("synthesized court count = %d, want %d", len(courts), StaticCourtCount)
	}
	if courts[0].Code != "DL01C01CT01" {
		t.Errorf("first synthesized court code = %q", courts[0].Code)
	}
}

func TestStaticTierRequiresParents(t *testing.T) {
	staticTier, err := NewStaticTier()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := staticTier.Resolve(LevelDistrict, Path{}); err == nil {
		t.Error("expected error resolving districts without a state")
	}
	if _, err := staticTier.Resolve(LevelCourt, Path{State: CodeName{Code: "MH"}}); err == nil {
		t.Error("expected error resolving courts without a complex")
	}
}
