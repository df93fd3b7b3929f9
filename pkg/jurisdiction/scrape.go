package jurisdiction

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// causeListPagePath is the browsable selection page scraped by this tier.
const causeListPagePath = "?p=cause_list/index"

// selectKeywords maps each level to the substrings looked for in a
// <select> element's name/id/class attributes. Court and complex dropdowns
// overlap on some deployments, so court also accepts "judge".
var selectKeywords = map[Level][]string{
	LevelState:    {"state"},
	LevelDistrict: {"district", "dist"},
	LevelComplex:  {"complex", "court"},
	LevelCourt:    {"court", "judge"},
}

// placeholderOptionTexts are dropdown entries that are prompts, not options.
var placeholderOptionTexts = map[string]bool{
	"select state":    true,
	"choose state":    true,
	"select district": true,
	"choose district": true,
	"select complex":  true,
	"choose complex":  true,
	"select court":    true,
	"choose court":    true,
	"select judge":    true,
	"choose judge":    true,
}

// ScrapeTierConfig configures the HTML-scrape tier.
type ScrapeTierConfig struct {
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

// ScrapeTier resolves options by fetching the browsable cause-list page and
// structurally extracting the matching dropdown's <option> elements. It is
// the second tier: slower and more brittle than the data endpoints, but it
// survives endpoint path churn.
type ScrapeTier struct {
	baseURL    string
	httpClient HTTPClient
	userAgent  string
	logger     *zap.Logger
}

// NewScrapeTier creates the HTML-scrape tier.
func NewScrapeTier(config ScrapeTierConfig) *ScrapeTier {
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

	return &ScrapeTier{
		baseURL:    baseURL,
		httpClient: httpClient,
		userAgent:  userAgent,
		logger:     logger,
	}
}

// Name identifies this tier in resolution traces.
func (scrapeTier *ScrapeTier) Name() string {
	return "scrape"
}

// Resolve fetches the selection page narrowed by the parent path's codes and
// extracts the dropdown for the requested level.
func (scrapeTier *ScrapeTier) Resolve(level Level, parent Path) ([]CodeName, error) {
	pageURL := scrapeTier.pageURL(parent)

	request, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", pageURL, err)
	}
	request.Header.Set("User-Agent", scrapeTier.userAgent)
	request.Header.Set("Accept", "text/html,application/xhtml+xml")

	response, err := scrapeTier.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", pageURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", response.StatusCode, pageURL)
	}

	pageBytes, err := io.ReadAll(io.LimitReader(response.Body, maxOptionPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read page from %s: %w", pageURL, err)
	}

	options, err := ExtractSelectOptions(pageBytes, selectKeywords[level])
	if err != nil {
		return nil, err
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("no %s dropdown found on selection page", level)
	}

	scrapeTier.logger.Debug("scraped dropdown options",
		zap.String("level", string(level)),
		zap.Int("count", len(options)))
	return options, nil
}

// pageURL builds the selection page URL with the parent codes as query
// parameters so the server renders the dependent dropdown populated.
func (scrapeTier *ScrapeTier) pageURL(parent Path) string {
	values := url.Values{}
	if parent.State.Code != "" {
		values.Set("state", parent.State.Code)
	}
	if parent.District.Code != "" {
		values.Set("district", parent.District.Code)
	}
	if parent.Complex.Code != "" {
		values.Set("complex", parent.Complex.Code)
	}

	pageURL := scrapeTier.baseURL + causeListPagePath
	if encoded := values.Encode(); encoded != "" {
		pageURL += "&" + encoded
	}
	return pageURL
}

// ExtractSelectOptions parses an HTML document and returns the options of
// the first <select> element whose name, id, or class attribute contains one
// of the keywords. Placeholder entries ("Select state", empty values) are
// filtered out.
func ExtractSelectOptions(pageHTML []byte, keywords []string) ([]CodeName, error) {
	document, err := html.Parse(bytes.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("unparsable selection page: %w", err)
	}

	selectNode := findSelect(document, keywords)
	if selectNode == nil {
		return nil, nil
	}

	var options []CodeName
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "option" {
			value := strings.TrimSpace(attributeValue(node, "value"))
			text := strings.TrimSpace(nodeText(node))
			if value != "" && text != "" && !placeholderOptionTexts[strings.ToLower(text)] {
				options = append(options, CodeName{Code: value, Name: text})
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(selectNode)

	return options, nil
}

// findSelect walks the tree for the first matching <select> element.
func findSelect(node *html.Node, keywords []string) *html.Node {
	if node.Type == html.ElementNode && node.Data == "select" {
		identity := strings.ToLower(attributeValue(node, "name") + " " +
			attributeValue(node, "id") + " " + attributeValue(node, "class"))
		for _, keyword := range keywords {
			if strings.Contains(identity, keyword) {
				return node
			}
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findSelect(child, keywords); found != nil {
			return found
		}
	}
	return nil
}

// attributeValue returns the value of the named attribute, or "".
func attributeValue(node *html.Node, name string) string {
	for _, attribute := range node.Attr {
		if attribute.Key == name {
			return attribute.Val
		}
	}
	return ""
}

// nodeText concatenates the text content beneath a node.
func nodeText(node *html.Node) string {
	var builder strings.Builder
	var walk func(*html.Node)
	walk = func(current *html.Node) {
		if current.Type == html.TextNode {
			builder.WriteString(current.Data)
		}
		for child := current.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)
	return builder.String()
}
