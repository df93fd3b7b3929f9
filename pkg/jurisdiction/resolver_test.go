package jurisdiction

import (
	"errors"
	"fmt"
	"testing"
)

// stubTier is a scripted tier for chain-order tests.
type stubTier struct {
	name    string
	options []CodeName
	err     error
	calls   int
}

func (tier *stubTier) Name() string { return tier.name }

func (tier *stubTier) Resolve(level Level, parent Path) ([]CodeName, error) {
	tier.calls++
	return tier.options, tier.err
}

func TestResolverFirstTierWins(t *testing.T) {
	firstTier := &stubTier{name: "remote", options: []CodeName{{Code: "MH", Name: "Maharashtra"}}}
	secondTier := &stubTier{name: "scrape", options: []CodeName{{Code: "XX", Name: "Should not be used"}}}
	resolver := NewResolver([]Tier{firstTier, secondTier}, nil)

	options, trace, err := resolver.Options(LevelState, Path{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trace.ServedBy != "remote" {
		t.Errorf("ServedBy = %q, want remote", trace.ServedBy)
	}
	if len(trace.Misses) != 0 {
		t.Errorf("misses = %d, want 0", len(trace.Misses))
	}
	if len(options) != 1 || options[0].Code != "MH" {
		t.Errorf("options = %v, want the remote tier's result", options)
	}
	if secondTier.calls != 0 {
		t.Error("second tier should not be consulted when the first succeeds")
	}
}

func TestResolverFallsThroughOnErrorAndEmpty(t *testing.T) {
	failingTier := &stubTier{name: "remote", err: fmt.Errorf("HTTP 503")}
	emptyTier := &stubTier{name: "scrape"}
	servingTier := &stubTier{name: "static", options: []CodeName{{Code: "MH01", Name: "Mumbai City"}}}
	resolver := NewResolver([]Tier{failingTier, emptyTier, servingTier}, nil)

	options, trace, err := resolver.Options(LevelDistrict, Path{State: CodeName{Code: "MH"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trace.ServedBy != "static" {
		t.Errorf("ServedBy = %q, want static", trace.ServedBy)
	}
	if len(trace.Misses) != 2 {
		t.Fatalf("misses = %d, want 2", len(trace.Misses))
	}
	if trace.Misses[0].Tier != "remote" || trace.Misses[1].Tier != "scrape" {
		t.Errorf("miss order = %v, want remote then scrape", trace.Misses)
	}
	if len(options) != 1 || options[0].Code != "MH01" {
		t.Errorf("options = %v", options)
	}
}

func TestResolverAllTiersFail(t *testing.T) {
	resolver := NewResolver([]Tier{
		&stubTier{name: "remote", err: fmt.Errorf("timeout")},
		&stubTier{name: "scrape", err: fmt.Errorf("no dropdown")},
		&stubTier{name: "static"},
	}, nil)

	_, trace, err := resolver.Options(LevelDistrict, Path{State: CodeName{Code: "ZZ"}})
	if err == nil {
		t.Fatal("expected error when all tiers fail")
	}

	var unresolvedErr *UnresolvedLevelError
	if !errors.As(err, &unresolvedErr) {
		t.Fatalf("error type = %T, want *UnresolvedLevelError", err)
	}
	if unresolvedErr.Level != LevelDistrict {
		t.Errorf("failing level = %q, want district", unresolvedErr.Level)
	}
	if len(trace.Misses) != 3 {
		t.Errorf("misses = %d, want 3", len(trace.Misses))
	}
}

func TestResolverRequiresParent(t *testing.T) {
	resolver := NewResolver([]Tier{&stubTier{name: "static", options: []CodeName{{Code: "X", Name: "Y"}}}}, nil)

	_, _, err := resolver.Options(LevelDistrict, Path{})
	if err == nil {
		t.Fatal("expected error when resolving districts without a state")
	}
}

func TestFindCodeMatching(t *testing.T) {
	tier := &stubTier{name: "static", options: []CodeName{
		{Code: "MH", Name: "Maharashtra"},
		{Code: "MP", Name: "Madhya Pradesh"},
		{Code: "DL", Name: "Delhi"},
	}}
	resolver := NewResolver([]Tier{tier}, nil)

	matchCases := []struct {
		name     string
		selector string
		wantCode string
		wantErr  bool
	}{
		{"exact code", "MH", "MH", false},
		{"lowercase code", "dl", "DL", false},
		{"exact name", "maharashtra", "MH", false},
		{"unambiguous prefix", "Del", "DL", false},
		{"ambiguous prefix", "Ma", "", true},
		{"no match", "Atlantis", "", true},
		{"empty", "  ", "", true},
	}

	for _, testCase := range matchCases {
		t.Run(testCase.name, func(t *testing.T) {
			match, _, err := resolver.FindCode(LevelState, Path{}, testCase.selector)
			if testCase.wantErr {
				if err == nil {
					t.Fatalf("FindCode(%q) expected error", testCase.selector)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindCode(%q) unexpected error: %v", testCase.selector, err)
			}
			if match.Code != testCase.wantCode {
				t.Errorf("FindCode(%q) = %q, want %q", testCase.selector, match.Code, testCase.wantCode)
			}
		})
	}
}

func TestPathValidate(t *testing.T) {
	valid := Path{State: CodeName{Code: "MH"}, District: CodeName{Code: "MH01"}}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error for valid path: %v", err)
	}

	orphanDistrict := Path{District: CodeName{Code: "MH01"}}
	if err := orphanDistrict.Validate(); err == nil {
		t.Error("expected error for district without state")
	}

	orphanCourt := Path{State: CodeName{Code: "MH"}, Court: CodeName{Code: "CT01"}}
	if err := orphanCourt.Validate(); err == nil {
		t.Error("expected error for court without complex")
	}
}

func TestPathDeepestLevel(t *testing.T) {
	path := Path{
		State:    CodeName{Code: "MH"},
		District: CodeName{Code: "MH01"},
		Complex:  CodeName{Code: "MH01C01"},
	}
	deepest, selected := path.DeepestLevel()
	if !selected || deepest != LevelComplex {
		t.Errorf("DeepestLevel() = %q/%v, want complex/true", deepest, selected)
	}

	if _, selected := (Path{}).DeepestLevel(); selected {
		t.Error("empty path should report no selected level")
	}
}
