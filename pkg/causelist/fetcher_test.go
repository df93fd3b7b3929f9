package causelist

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coolbeans/adalat/pkg/jurisdiction"
)

func testQuery() Query {
	return Query{
		Jurisdiction: jurisdiction.Path{
			State:    jurisdiction.CodeName{Code: "MH", Name: "Maharashtra"},
			District: jurisdiction.CodeName{Code: "MH01", Name: "Mumbai"},
		},
		Date: NewDate(2026, time.March, 9),
	}
}

func newTestFetcher(serverURL string) *Fetcher {
	return NewFetcher(FetcherConfig{
		BaseURL:      serverURL + "/",
		HTTPClient:   &http.Client{Timeout: 2 * time.Second},
		RetryBackoff: time.Millisecond,
	})
}

func TestFetchListingSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/html")
		writer.Write([]byte("<html><table><tr><td>1</td><td>CR 1/2026</td></tr></table></html>"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL)
	listing, issues, err := fetcher.FetchListing(testQuery())
	if err != nil {
		t.Fatalf("FetchListing failed: %v", err)
	}
	if listing.Kind != ContentHTML {
		t.Errorf("kind = %s, want html", listing.Kind)
	}
	if len(listing.Content) == 0 {
		t.Error("content is empty")
	}
	if len(issues) != 0 {
		t.Errorf("unexpected issues: %v", issues)
	}
}

func TestFetchListingRetriesTransientOnce(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if atomic.AddInt32(&requestCount, 1) == 1 {
			writer.WriteHeader(http.StatusInternalServerError)
			return
		}
		writer.Header().Set("Content-Type", "text/html")
		writer.Write([]byte("<html>recovered</html>"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL)
	listing, issues, err := fetcher.FetchListing(testQuery())
	if err != nil {
		t.Fatalf("expected recovery on retry, got %v", err)
	}
	if listing.Kind != ContentHTML {
		t.Errorf("kind = %s, want html", listing.Kind)
	}
	if atomic.LoadInt32(&requestCount) != 2 {
		t.Errorf("server saw %d requests, want 2", requestCount)
	}
	if len(issues) != 1 || issues[0].Stage != StageFetch {
		t.Errorf("retry should be recorded as a fetch issue, got %v", issues)
	}
}

func TestFetchListingDoesNotRetryClientErrors(t *testing.T) {
	perPath := make(map[string]int)
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		perPath[request.URL.Path+"?"+request.URL.RawQuery]++
		writer.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL)
	_, _, err := fetcher.FetchListing(testQuery())

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fetchErr.Reason != ReasonStatus || fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("unexpected failure classification: %+v", fetchErr)
	}
	for path, count := range perPath {
		if count != 1 {
			t.Errorf("candidate %s was requested %d times; 4xx must not be retried", path, count)
		}
	}
}

func TestFetchListingExhaustsAllCandidatesOnServerErrors(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		writer.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL)
	_, _, err := fetcher.FetchListing(testQuery())

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fetchErr.Reason != ReasonStatus {
		t.Errorf("reason = %s, want non-success-status", fetchErr.Reason)
	}

	// Every candidate is tried twice (initial attempt plus the single retry).
	candidates := len(fetcher.candidateListingURLs(testQuery()))
	if got := int(atomic.LoadInt32(&requestCount)); got != candidates*2 {
		t.Errorf("server saw %d requests, want %d", got, candidates*2)
	}
}

func TestFetchListingDetectsPDFByMagicBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/octet-stream")
		writer.Write([]byte("%PDF-1.7 fake body"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL)
	listing, _, err := fetcher.FetchListing(testQuery())
	if err != nil {
		t.Fatalf("FetchListing failed: %v", err)
	}
	if listing.Kind != ContentPDF {
		t.Errorf("kind = %s, want pdf", listing.Kind)
	}
}

func TestFetchListingConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	serverURL := server.URL
	server.Close() // nothing listens anymore

	fetcher := newTestFetcher(serverURL)
	_, _, err := fetcher.FetchListing(testQuery())

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fetchErr.Reason != ReasonConnection && fetchErr.Reason != ReasonTimeout {
		t.Errorf("reason = %s, want a transport classification", fetchErr.Reason)
	}
}

func TestProbeCauseListPDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method == http.MethodHead && request.URL.Path == "/causelists/causelist_2026-03-09.pdf" {
			writer.Header().Set("Content-Type", "application/pdf")
			return
		}
		writer.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL)
	pdfURL, _, err := fetcher.ProbeCauseListPDF(testQuery())
	if err != nil {
		t.Fatalf("ProbeCauseListPDF failed: %v", err)
	}
	if pdfURL != server.URL+"/causelists/causelist_2026-03-09.pdf" {
		t.Errorf("unexpected PDF URL: %s", pdfURL)
	}
}

func TestProbeCauseListPDFNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL)
	_, _, err := fetcher.ProbeCauseListPDF(testQuery())
	if err == nil {
		t.Fatal("expected an error when no naming convention matches")
	}
}

func TestDownloadPDF(t *testing.T) {
	payload := []byte("%PDF-1.7 content")
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/pdf")
		writer.Write(payload)
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL)
	content, err := fetcher.DownloadPDF(server.URL + "/causelists/list.pdf")
	if err != nil {
		t.Fatalf("DownloadPDF failed: %v", err)
	}
	if string(content) != string(payload) {
		t.Errorf("content mismatch: %q", content)
	}
}

func TestPoliteClientSpacesRequests(t *testing.T) {
	var timestamps []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		timestamps = append(timestamps, time.Now())
		writer.Write([]byte("ok"))
	}))
	defer server.Close()

	interval := 30 * time.Millisecond
	client := NewPoliteHTTPClient(&http.Client{}, interval)
	for requestIndex := 0; requestIndex < 3; requestIndex++ {
		request, _ := http.NewRequest(http.MethodGet, server.URL, nil)
		response, err := client.Do(request)
		if err != nil {
			t.Fatalf("request %d failed: %v", requestIndex, err)
		}
		response.Body.Close()
	}

	if len(timestamps) != 3 {
		t.Fatalf("server saw %d requests, want 3", len(timestamps))
	}
	for timestampIndex := 1; timestampIndex < len(timestamps); timestampIndex++ {
		gap := timestamps[timestampIndex].Sub(timestamps[timestampIndex-1])
		if gap < interval-5*time.Millisecond {
			t.Errorf("gap %d was %v, want at least ~%v", timestampIndex, gap, interval)
		}
	}
}
