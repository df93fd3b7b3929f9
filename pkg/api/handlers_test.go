package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coolbeans/adalat/pkg/causelist"
	"github.com/coolbeans/adalat/pkg/jurisdiction"
)

// stubTier serves canned options per level.
type stubTier struct {
	options map[jurisdiction.Level][]jurisdiction.CodeName
}

func (tier *stubTier) Name() string { return "stub" }

func (tier *stubTier) Resolve(level jurisdiction.Level, parent jurisdiction.Path) ([]jurisdiction.CodeName, error) {
	return tier.options[level], nil
}

const listingHTML = `<html><body>
<h2>District Court Mumbai</h2>
<table>
  <tr><th>Sr</th><th>Case</th><th>Parties</th></tr>
  <tr><td>5</td><td>MHMU010123452024</td><td>State vs Sharma</td></tr>
</table>
</body></html>`

// newTestServer wires a Server to a stub resolver and an upstream fake that
// serves one listing.
func newTestServer(t *testing.T, levelOptions map[jurisdiction.Level][]jurisdiction.CodeName) (*Server, *httptest.Server) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Query().Get("p") == "cause_list/index" {
			writer.Header().Set("Content-Type", "text/html")
			writer.Write([]byte(listingHTML))
			return
		}
		writer.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(upstream.Close)

	resolver := jurisdiction.NewResolver([]jurisdiction.Tier{&stubTier{options: levelOptions}}, nil)
	fetcher := causelist.NewFetcher(causelist.FetcherConfig{
		BaseURL:      upstream.URL + "/",
		HTTPClient:   &http.Client{Timeout: 2 * time.Second},
		RetryBackoff: time.Millisecond,
	})
	engine, err := causelist.NewEngine(causelist.EngineConfig{
		Resolver: resolver,
		Fetcher:  fetcher,
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	return NewServer(ServerConfig{Engine: engine, Resolver: resolver}), upstream
}

func defaultLevelOptions() map[jurisdiction.Level][]jurisdiction.CodeName {
	return map[jurisdiction.Level][]jurisdiction.CodeName{
		jurisdiction.LevelState:    {{Code: "MH", Name: "Maharashtra"}, {Code: "DL", Name: "Delhi"}},
		jurisdiction.LevelDistrict: {{Code: "MH01", Name: "Mumbai"}},
		jurisdiction.LevelComplex:  {{Code: "MH0101", Name: "City Civil Court Complex"}},
		jurisdiction.LevelCourt:    {{Code: "MH0101CT01", Name: "Court No. 1"}, {Code: "MH0101CT02", Name: "Court No. 2"}},
	}
}

func doRequest(t *testing.T, server *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var bodyReader *strings.Reader
	if body == "" {
		bodyReader = strings.NewReader("")
	} else {
		bodyReader = strings.NewReader(body)
	}
	request := httptest.NewRequest(method, target, bodyReader)
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)
	return recorder
}

func TestStatesLookup(t *testing.T) {
	server, _ := newTestServer(t, defaultLevelOptions())
	recorder := doRequest(t, server, http.MethodGet, "/api/states", "")

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var response optionsResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if len(response.Options) != 2 {
		t.Errorf("got %d states, want 2", len(response.Options))
	}
	if response.Trace.ServedBy != "stub" {
		t.Errorf("trace served_by = %q", response.Trace.ServedBy)
	}
}

func TestDistrictsLookup(t *testing.T) {
	server, _ := newTestServer(t, defaultLevelOptions())
	recorder := doRequest(t, server, http.MethodGet, "/api/districts/MH", "")

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var response optionsResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if len(response.Options) != 1 || response.Options[0].Code != "MH01" {
		t.Errorf("unexpected districts: %+v", response.Options)
	}
}

func TestUnresolvedLookupReturnsEmptyList(t *testing.T) {
	options := defaultLevelOptions()
	delete(options, jurisdiction.LevelComplex)
	server, _ := newTestServer(t, options)

	recorder := doRequest(t, server, http.MethodGet, "/api/complexes/MH/MH01", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (empty result is valid)", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `"options":[]`) {
		t.Errorf("expected an empty options array, got %s", recorder.Body.String())
	}
}

func TestSearchEndpoint(t *testing.T) {
	server, _ := newTestServer(t, defaultLevelOptions())

	recorder := doRequest(t, server, http.MethodPost, "/api/search",
		`{"cnr":"MHMU010123452024","state":"MH","district":"MH01","date":"2026-03-09"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", recorder.Code, recorder.Body.String())
	}

	var outcome causelist.SearchOutcome
	if err := json.Unmarshal(recorder.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("invalid outcome JSON: %v", err)
	}
	if !outcome.Listed {
		t.Error("expected the case to be listed")
	}
	if outcome.SerialNumber != 5 {
		t.Errorf("serial = %d, want 5", outcome.SerialNumber)
	}
}

func TestSearchEndpointRejectsBadCNR(t *testing.T) {
	server, _ := newTestServer(t, defaultLevelOptions())

	recorder := doRequest(t, server, http.MethodPost, "/api/search",
		`{"cnr":"TOO-SHORT","state":"MH"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "invalid case identifier") {
		t.Errorf("unexpected error payload: %s", recorder.Body.String())
	}
}

func TestSearchEndpointRejectsBadDate(t *testing.T) {
	server, _ := newTestServer(t, defaultLevelOptions())

	recorder := doRequest(t, server, http.MethodPost, "/api/search",
		`{"cnr":"MHMU010123452024","state":"MH","date":"09-03-2026"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
}

func TestSearchEndpointRejectsInvalidJSON(t *testing.T) {
	server, _ := newTestServer(t, defaultLevelOptions())
	recorder := doRequest(t, server, http.MethodPost, "/api/search", "{not json")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
}

func TestBulkSearchEndpoint(t *testing.T) {
	server, _ := newTestServer(t, defaultLevelOptions())

	recorder := doRequest(t, server, http.MethodPost, "/api/bulk",
		`{"cnr":"MHMU010123452024","state":"MH","district":"MH01","complex":"MH0101","date":"2026-03-09"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", recorder.Code, recorder.Body.String())
	}

	var result causelist.BulkResult
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid bulk JSON: %v", err)
	}
	if len(result.Outcomes) != 2 {
		t.Errorf("got %d outcomes, want one per court", len(result.Outcomes))
	}
	if result.Succeeded != 2 {
		t.Errorf("succeeded = %d, want 2", result.Succeeded)
	}
}

func TestLookupRejectsWrongMethod(t *testing.T) {
	server, _ := newTestServer(t, defaultLevelOptions())
	recorder := doRequest(t, server, http.MethodPost, "/api/states", "")
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", recorder.Code)
	}
}
