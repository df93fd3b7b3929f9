package causelist

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	date, err := ParseDate("2026-03-09")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	if date.Year != 2026 || date.Month != time.March || date.Day != 9 {
		t.Errorf("unexpected components: %+v", date)
	}
}

func TestParseDateRejectsOtherForms(t *testing.T) {
	invalidInputs := []string{"09-03-2026", "2026/03/09", "tomorrow", "", "2026-13-01"}
	for _, input := range invalidInputs {
		if _, err := ParseDate(input); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestDateFormats(t *testing.T) {
	date := NewDate(2026, time.March, 9)

	if got := date.String(); got != "2026-03-09" {
		t.Errorf("String() = %q", got)
	}
	if got := date.ECourtsFormat(); got != "09-03-2026" {
		t.Errorf("ECourtsFormat() = %q", got)
	}
	if got := date.CompactFormat(); got != "09032026" {
		t.Errorf("CompactFormat() = %q", got)
	}
	if got := date.ShortYearFormat(); got != "09-03-26" {
		t.Errorf("ShortYearFormat() = %q", got)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	original := NewDate(2026, time.December, 31)

	encoded, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(encoded) != `"2026-12-31"` {
		t.Errorf("unexpected JSON form: %s", encoded)
	}

	var decoded Date
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded != original {
		t.Errorf("round trip changed the date: %+v != %+v", decoded, original)
	}
}

func TestDateForPrecedence(t *testing.T) {
	explicit, err := DateFor(true, true, "2026-01-15")
	if err != nil {
		t.Fatalf("DateFor failed: %v", err)
	}
	if explicit.String() != "2026-01-15" {
		t.Errorf("explicit date should win, got %s", explicit)
	}

	tomorrow, err := DateFor(false, true, "")
	if err != nil {
		t.Fatalf("DateFor failed: %v", err)
	}
	expected := fromTime(time.Now().AddDate(0, 0, 1))
	if tomorrow != expected {
		t.Errorf("tomorrow = %s, want %s", tomorrow, expected)
	}

	today, err := DateFor(true, false, "")
	if err != nil {
		t.Fatalf("DateFor failed: %v", err)
	}
	if today != Today() {
		t.Errorf("today = %s, want %s", today, Today())
	}
}
