package causelist

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/coolbeans/adalat/pkg/jurisdiction"
)

// DefaultFetchTimeout is the default per-request timeout for listing fetches.
const DefaultFetchTimeout = 10 * time.Second

// DefaultRetryBackoff is the pause before the single retry of a transient
// network failure.
const DefaultRetryBackoff = 1500 * time.Millisecond

// maxListingBytes bounds how much of a listing response is read.
const maxListingBytes = 10 * 1024 * 1024

// FetchFailureReason classifies why a fetch exhausted its attempts.
type FetchFailureReason string

const (
	// ReasonTimeout is a request deadline exceeded.
	ReasonTimeout FetchFailureReason = "timeout"

	// ReasonConnection is a transport-level failure (reset, refused, DNS).
	ReasonConnection FetchFailureReason = "connection-error"

	// ReasonStatus is a non-success HTTP status.
	ReasonStatus FetchFailureReason = "non-success-status"
)

// FetchError reports that every fetch attempt for a query was exhausted.
// It is recoverable at the outcome level: the engine records it and reports
// listed=false rather than aborting the process.
type FetchError struct {
	// Reason classifies the final failure.
	Reason FetchFailureReason

	// URL is the last URL attempted.
	URL string

	// StatusCode is the last HTTP status, when Reason is ReasonStatus.
	StatusCode int

	// Err is the underlying error, if any.
	Err error
}

func (fetchErr *FetchError) Error() string {
	if fetchErr.Reason == ReasonStatus {
		return fmt.Sprintf("fetch failed (%s): HTTP %d for %s", fetchErr.Reason, fetchErr.StatusCode, fetchErr.URL)
	}
	return fmt.Sprintf("fetch failed (%s): %v for %s", fetchErr.Reason, fetchErr.Err, fetchErr.URL)
}

func (fetchErr *FetchError) Unwrap() error {
	return fetchErr.Err
}

// FetchedListing is the raw content a fetch produced, tagged with its kind.
type FetchedListing struct {
	// URL is the URL that produced the content.
	URL string `json:"url"`

	// Kind tags the content as HTML, PDF, or nothing usable.
	Kind ContentKind `json:"kind"`

	// Content is the raw response body. Nil when Kind is ContentNone.
	Content []byte `json:"-"`

	// StatusCode is the HTTP status of the successful response.
	StatusCode int `json:"status_code"`

	// FetchedAt is when the content was retrieved.
	FetchedAt time.Time `json:"fetched_at"`
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	// BaseURL is the eCourts services root. Default: jurisdiction.DefaultBaseURL.
	BaseURL string

	// HTTPClient is the client used for requests. If nil, an *http.Client
	// with the configured timeout is used, wrapped with the polite interval.
	HTTPClient HTTPClient

	// Timeout is the per-request timeout. Default: DefaultFetchTimeout.
	Timeout time.Duration

	// RetryBackoff is the pause before the single transient-failure retry.
	// Default: DefaultRetryBackoff.
	RetryBackoff time.Duration

	// RequestInterval is the polite minimum interval between requests.
	// Default: DefaultRequestInterval; zero disables the wrapper only when
	// a custom HTTPClient is supplied.
	RequestInterval time.Duration

	// UserAgent is the User-Agent header. Default: jurisdiction.DefaultUserAgent.
	UserAgent string

	// Logger receives fetch diagnostics. Default: zap.NewNop().
	Logger *zap.Logger
}

// Fetcher obtains raw cause-list content for a resolved jurisdiction and
// date. It walks a candidate-URL chain (the endpoint families the eCourts
// deployment has used over time), applies a bounded timeout per request,
// and retries a transient failure at most once with a short backoff.
// 4xx responses are never retried.
type Fetcher struct {
	baseURL      string
	httpClient   HTTPClient
	retryBackoff time.Duration
	userAgent    string
	logger       *zap.Logger
}

// NewFetcher creates a Fetcher with the given configuration.
func NewFetcher(config FetcherConfig) *Fetcher {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = jurisdiction.DefaultBaseURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	retryBackoff := config.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = DefaultRetryBackoff
	}
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = jurisdiction.DefaultUserAgent
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		interval := config.RequestInterval
		if interval <= 0 {
			interval = DefaultRequestInterval
		}
		httpClient = NewPoliteHTTPClient(&http.Client{Timeout: timeout}, interval)
	}

	return &Fetcher{
		baseURL:      baseURL,
		httpClient:   httpClient,
		retryBackoff: retryBackoff,
		userAgent:    userAgent,
		logger:       logger,
	}
}

// FetchListing walks the candidate URLs for the query and returns the first
// usable content. Issues record retries and per-candidate misses; the error,
// when non-nil, is a *FetchError describing the final exhaustion.
func (fetcher *Fetcher) FetchListing(query Query) (*FetchedListing, []Issue, error) {
	var issues []Issue
	var lastErr *FetchError

	for _, candidateURL := range fetcher.candidateListingURLs(query) {
		listing, retried, err := fetcher.fetchWithRetry(candidateURL)
		if retried {
			issues = append(issues, newIssue(StageFetch, "transient failure fetching %s, retried once", candidateURL))
		}
		if err != nil {
			var fetchErr *FetchError
			if errors.As(err, &fetchErr) {
				lastErr = fetchErr
			} else {
				lastErr = &FetchError{Reason: ReasonConnection, URL: candidateURL, Err: err}
			}
			fetcher.logger.Debug("candidate listing URL miss",
				zap.String("url", candidateURL), zap.Error(err))
			continue
		}

		fetcher.logger.Info("listing fetched",
			zap.String("url", candidateURL),
			zap.String("kind", string(listing.Kind)),
			zap.Int("bytes", len(listing.Content)))
		return listing, issues, nil
	}

	if lastErr == nil {
		lastErr = &FetchError{Reason: ReasonConnection, Err: fmt.Errorf("no candidate URLs for query")}
	}
	return nil, issues, lastErr
}

// ProbeCauseListPDF probes the known cause-list PDF naming conventions with
// HEAD requests and returns the first URL that answers with a PDF.
func (fetcher *Fetcher) ProbeCauseListPDF(query Query) (string, []Issue, error) {
	var issues []Issue

	for _, pdfURL := range fetcher.candidatePDFURLs(query) {
		found, err := fetcher.probePDF(pdfURL)
		if err != nil {
			issues = append(issues, newIssue(StageFetch, "PDF probe failed for %s: %v", pdfURL, err))
			continue
		}
		if found {
			return pdfURL, issues, nil
		}
	}

	return "", issues, &FetchError{
		Reason: ReasonStatus,
		Err:    fmt.Errorf("no cause-list PDF found under known naming conventions"),
	}
}

// DownloadPDF retrieves raw PDF bytes, with the same single-retry policy as
// listing fetches.
func (fetcher *Fetcher) DownloadPDF(pdfURL string) ([]byte, error) {
	listing, _, err := fetcher.fetchWithRetry(pdfURL)
	if err != nil {
		return nil, err
	}
	return listing.Content, nil
}

// fetchWithRetry performs one GET with at most one retry on a transient
// failure. The bool result reports whether a retry happened.
func (fetcher *Fetcher) fetchWithRetry(targetURL string) (*FetchedListing, bool, error) {
	listing, err := fetcher.fetchOnce(targetURL)
	if err == nil {
		return listing, false, nil
	}
	if !isTransient(err) {
		return nil, false, err
	}

	fetcher.logger.Debug("retrying after transient failure",
		zap.String("url", targetURL), zap.Error(err))
	time.Sleep(fetcher.retryBackoff)

	listing, retryErr := fetcher.fetchOnce(targetURL)
	if retryErr != nil {
		return nil, true, retryErr
	}
	return listing, true, nil
}

// fetchOnce performs a single GET attempt.
func (fetcher *Fetcher) fetchOnce(targetURL string) (*FetchedListing, error) {
	request, err := http.NewRequest(http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", targetURL, err)
	}
	fetcher.setHeaders(request)

	response, err := fetcher.httpClient.Do(request)
	if err != nil {
		return nil, &FetchError{Reason: classifyNetworkError(err), URL: targetURL, Err: err}
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, &FetchError{Reason: ReasonStatus, URL: targetURL, StatusCode: response.StatusCode}
	}

	content, err := io.ReadAll(io.LimitReader(response.Body, maxListingBytes))
	if err != nil {
		return nil, &FetchError{Reason: ReasonConnection, URL: targetURL, Err: err}
	}

	return &FetchedListing{
		URL:        targetURL,
		Kind:       contentKindOf(response.Header.Get("Content-Type"), content),
		Content:    content,
		StatusCode: response.StatusCode,
		FetchedAt:  time.Now(),
	}, nil
}

// probePDF HEADs a URL and reports whether it answers with a PDF.
func (fetcher *Fetcher) probePDF(pdfURL string) (bool, error) {
	request, err := http.NewRequest(http.MethodHead, pdfURL, nil)
	if err != nil {
		return false, err
	}
	fetcher.setHeaders(request)

	response, err := fetcher.httpClient.Do(request)
	if err != nil {
		return false, err
	}
	response.Body.Close()

	return response.StatusCode == http.StatusOK &&
		strings.Contains(response.Header.Get("Content-Type"), "application/pdf"), nil
}

// setHeaders applies the browser-like header set the eCourts site expects.
func (fetcher *Fetcher) setHeaders(request *http.Request) {
	request.Header.Set("User-Agent", fetcher.userAgent)
	request.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/pdf,*/*;q=0.8")
	request.Header.Set("Accept-Language", "en-US,en;q=0.5")
}

// candidateListingURLs builds the ordered URL chain for a query: the current
// cause-list page (with jurisdiction and date parameters when selected),
// then the legacy endpoint families.
func (fetcher *Fetcher) candidateListingURLs(query Query) []string {
	ddmmyyyy := query.Date.ECourtsFormat()
	isoDate := query.Date.String()

	jurisdictionParams := url.Values{}
	path := query.Jurisdiction
	if path.State.Code != "" {
		jurisdictionParams.Set("state", path.State.Code)
	}
	if path.District.Code != "" {
		jurisdictionParams.Set("district", path.District.Code)
	}
	if path.Complex.Code != "" {
		jurisdictionParams.Set("complex", path.Complex.Code)
	}
	if path.Court.Code != "" {
		jurisdictionParams.Set("court", path.Court.Code)
	}

	withParams := func(base string, extra url.Values) string {
		merged := url.Values{}
		for key, values := range jurisdictionParams {
			merged[key] = values
		}
		for key, values := range extra {
			merged[key] = values
		}
		encoded := merged.Encode()
		if encoded == "" {
			return base
		}
		separator := "?"
		if strings.Contains(base, "?") {
			separator = "&"
		}
		return base + separator + encoded
	}

	causePage := fetcher.baseURL + "?p=cause_list/index"
	return []string{
		withParams(causePage, nil),
		withParams(causePage, url.Values{"date": {ddmmyyyy}}),
		withParams(causePage, url.Values{"date": {isoDate}}),
		withParams(fetcher.baseURL+"causeList", url.Values{"date": {ddmmyyyy}}),
		withParams(fetcher.baseURL+"causeList", url.Values{"date": {isoDate}}),
	}
}

// candidatePDFURLs builds the cause-list PDF name conventions observed on
// eCourts deployments, crossed with the directories they have lived in.
func (fetcher *Fetcher) candidatePDFURLs(query Query) []string {
	nameCandidates := []string{
		fmt.Sprintf("causelist_%s.pdf", query.Date.String()),
		fmt.Sprintf("CauseList_%s.pdf", query.Date.String()),
		fmt.Sprintf("CauseList_%s.pdf", query.Date.ECourtsFormat()),
		fmt.Sprintf("causelist_%s.pdf", query.Date.ShortYearFormat()),
		fmt.Sprintf("daily_causelist_%s.pdf", query.Date.ECourtsFormat()),
	}
	directoryCandidates := []string{
		"static_causes/", "causelists/", "uploads/causelists/", "pdfs/", "documents/",
	}

	var pdfURLs []string
	if courtCode := query.Jurisdiction.Court.Code; courtCode != "" {
		// Court-scoped generated PDFs come first: they are the most specific.
		pdfURLs = append(pdfURLs,
			fmt.Sprintf("%scauselist_pdf.php?court=%s&date=%s", fetcher.baseURL, courtCode, query.Date.ECourtsFormat()),
			fmt.Sprintf("%spdf/causelist_%s_%s.pdf", fetcher.baseURL, courtCode, query.Date.CompactFormat()),
		)
	}
	for _, directory := range directoryCandidates {
		for _, name := range nameCandidates {
			pdfURLs = append(pdfURLs, fetcher.baseURL+directory+name)
		}
	}
	return pdfURLs
}

// contentKindOf tags response content, trusting the Content-Type header
// first and falling back to the PDF magic bytes.
func contentKindOf(contentType string, content []byte) ContentKind {
	if strings.Contains(contentType, "application/pdf") {
		return ContentPDF
	}
	if len(content) >= 5 && string(content[:5]) == "%PDF-" {
		return ContentPDF
	}
	if len(content) == 0 {
		return ContentNone
	}
	return ContentHTML
}

// classifyNetworkError maps a transport error to a failure reason.
func classifyNetworkError(err error) FetchFailureReason {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	if strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "deadline exceeded") {
		return ReasonTimeout
	}
	return ReasonConnection
}

// isTransient reports whether an error warrants the single retry. 4xx
// statuses are never transient; timeouts, connection failures, and 5xx are.
func isTransient(err error) bool {
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		return false
	}
	switch fetchErr.Reason {
	case ReasonTimeout, ReasonConnection:
		return true
	case ReasonStatus:
		return fetchErr.StatusCode >= 500
	default:
		return false
	}
}
