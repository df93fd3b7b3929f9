package jurisdiction

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the eCourts services root all tiers address by default.
const DefaultBaseURL = "https://services.ecourts.gov.in/ecourtindia_v6/"

// DefaultTierTimeout is the per-request timeout applied by each resolution
// tier. A tier that cannot answer inside this window is treated as a miss
// and the next tier is tried.
const DefaultTierTimeout = 8 * time.Second

// DefaultUserAgent is the browser-style User-Agent the eCourts site expects;
// requests without one are frequently rejected.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// HTTPClient matches the Do method of *http.Client, allowing mock injection.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxOptionPayloadBytes bounds how much of a tier response is read.
const maxOptionPayloadBytes = 4 * 1024 * 1024

// remoteEndpoints lists the candidate data endpoints per level, tried in
// order. The eCourts deployment has shuffled these paths over the years, so
// several generations are kept.
var remoteEndpoints = map[Level][]string{
	LevelState:    {"ajax/get_states.php", "api/states.php"},
	LevelDistrict: {"ajax/get_districts.php", "api/districts.php", "get_districts.php"},
	LevelComplex:  {"ajax/get_court_complexes.php", "ajax/get_complexes.php", "api/complexes.php", "get_complexes.php"},
	LevelCourt:    {"ajax/get_courts.php", "ajax/get_judges.php", "api/courts.php", "get_courts.php"},
}

// RemoteTierConfig configures the structured-endpoint tier.
type RemoteTierConfig struct {
	// BaseURL is the eCourts services root. Default: DefaultBaseURL.
	BaseURL string

	// HTTPClient is the client used for requests. If nil, an *http.Client
	// with the configured timeout is used.
	HTTPClient HTTPClient

	// Timeout is the per-request timeout. Default: DefaultTierTimeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header. Default: DefaultUserAgent.
	UserAgent string

	// Logger receives tier diagnostics. Default: zap.NewNop().
	Logger *zap.Logger
}

// RemoteTier resolves options by POSTing to the site's own data endpoints
// and decoding their small JSON option payloads.
type RemoteTier struct {
	baseURL    string
	httpClient HTTPClient
	userAgent  string
	logger     *zap.Logger
}

// NewRemoteTier creates the structured-endpoint tier.
func NewRemoteTier(config RemoteTierConfig) *RemoteTier {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTierTimeout
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RemoteTier{
		baseURL:    baseURL,
		httpClient: httpClient,
		userAgent:  userAgent,
		logger:     logger,
	}
}

// Name identifies this tier in resolution traces.
func (remoteTier *RemoteTier) Name() string {
	return "remote"
}

// Resolve tries each candidate endpoint for the level and returns the first
// non-empty option set. Every endpoint failing is a tier miss; the resolver
// then falls through to the scrape tier.
func (remoteTier *RemoteTier) Resolve(level Level, parent Path) ([]CodeName, error) {
	endpoints, known := remoteEndpoints[level]
	if !known {
		return nil, fmt.Errorf("unknown jurisdiction level %q", level)
	}

	formValues := remoteTier.formValues(parent)
	var lastErr error

	for _, endpointPath := range endpoints {
		endpointURL := remoteTier.baseURL + endpointPath

		options, err := remoteTier.fetchOptions(endpointURL, formValues)
		if err != nil {
			remoteTier.logger.Debug("remote tier endpoint miss",
				zap.String("endpoint", endpointURL),
				zap.String("level", string(level)),
				zap.Error(err))
			lastErr = err
			continue
		}
		if len(options) > 0 {
			return options, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("no remote endpoint yielded %s options: %w", level, lastErr)
	}
	return nil, fmt.Errorf("remote endpoints returned no %s options", level)
}

// formValues builds the POST body. Both the long and short parameter names
// are sent because different endpoint generations expect different ones.
func (remoteTier *RemoteTier) formValues(parent Path) url.Values {
	values := url.Values{}
	if parent.State.Code != "" {
		values.Set("state_code", parent.State.Code)
		values.Set("state", parent.State.Code)
	}
	if parent.District.Code != "" {
		values.Set("district_code", parent.District.Code)
		values.Set("district", parent.District.Code)
	}
	if parent.Complex.Code != "" {
		values.Set("complex_code", parent.Complex.Code)
		values.Set("complex", parent.Complex.Code)
	}
	return values
}

// fetchOptions POSTs to one endpoint and decodes its JSON option array.
func (remoteTier *RemoteTier) fetchOptions(endpointURL string, formValues url.Values) ([]CodeName, error) {
	request, err := http.NewRequest(http.MethodPost, endpointURL, strings.NewReader(formValues.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", endpointURL, err)
	}
	request.Header.Set("User-Agent", remoteTier.userAgent)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Accept", "application/json, text/javascript, */*")

	response, err := remoteTier.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", endpointURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", response.StatusCode, endpointURL)
	}

	payload, err := io.ReadAll(io.LimitReader(response.Body, maxOptionPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", endpointURL, err)
	}

	return decodeOptionPayload(payload)
}

// decodeOptionPayload decodes a JSON array of option objects. The endpoints
// are inconsistent about key names, so both {code,name} and {value,text}
// shapes are accepted. Entries missing either field are dropped.
func decodeOptionPayload(payload []byte) ([]CodeName, error) {
	var rawOptions []map[string]any
	if err := json.Unmarshal(payload, &rawOptions); err != nil {
		return nil, fmt.Errorf("unparsable option payload: %w", err)
	}

	var options []CodeName
	for _, rawOption := range rawOptions {
		code := firstStringField(rawOption, "code", "value")
		name := firstStringField(rawOption, "name", "text")
		if code == "" || name == "" {
			continue
		}
		options = append(options, CodeName{Code: code, Name: name})
	}
	return options, nil
}

// firstStringField returns the first non-empty string value among the keys.
func firstStringField(object map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, found := object[key]; found {
			if text, isString := value.(string); isString {
				trimmed := strings.TrimSpace(text)
				if trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}
