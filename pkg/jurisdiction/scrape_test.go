package jurisdiction

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const selectionPageHTML = `<html><body>
<form method="post">
  <select name="sess_state_code" id="sess_state_code">
    <option value="">Select state</option>
    <option value="MH">Maharashtra</option>
    <option value="DL">Delhi</option>
  </select>
  <select name="sess_dist_code">
    <option value="">Select district</option>
    <option value="MH01">Mumbai City</option>
  </select>
</form>
</body></html>`

func TestExtractSelectOptions(t *testing.T) {
	options, err := ExtractSelectOptions([]byte(selectionPageHTML), []string{"state"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("option count = %d, want 2 (placeholder filtered)", len(options))
	}
	if options[0].Code != "MH" || options[0].Name != "Maharashtra" {
		t.Errorf("first option = %+v", options[0])
	}
	if options[1].Code != "DL" {
		t.Errorf("second option = %+v", options[1])
	}
}

func TestExtractSelectOptionsNoMatch(t *testing.T) {
	options, err := ExtractSelectOptions([]byte(`<html><body><p>no dropdowns</p></body></html>`), []string{"state"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(options) != 0 {
		t.Errorf("options = %v, want none", options)
	}
}

func TestScrapeTierResolve(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.Header().Set("Content-Type", "text/html")
		responseWriter.Write([]byte(selectionPageHTML))
	}))
	defer testServer.Close()

	scrapeTier := NewScrapeTier(ScrapeTierConfig{
		BaseURL: testServer.URL + "/",
		Timeout: 2 * time.Second,
	})

	states, err := scrapeTier.Resolve(LevelState, Path{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("state count = %d, want 2", len(states))
	}

	districts, err := scrapeTier.Resolve(LevelDistrict, Path{State: CodeName{Code: "MH"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(districts) != 1 || districts[0].Code != "MH01" {
		t.Errorf("districts = %v", districts)
	}
}

func TestScrapeTierHTTPError(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer testServer.Close()

	scrapeTier := NewScrapeTier(ScrapeTierConfig{BaseURL: testServer.URL + "/", Timeout: 2 * time.Second})

	if _, err := scrapeTier.Resolve(LevelState, Path{}); err == nil {
		t.Fatal("expected error for HTTP 503")
	}
}
