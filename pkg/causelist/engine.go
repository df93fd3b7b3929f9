package causelist

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coolbeans/adalat/pkg/ecourts"
	"github.com/coolbeans/adalat/pkg/jurisdiction"
)

// PDFSaver persists retrieved PDF documents. The outputs package provides the
// filesystem implementation; tests inject fakes.
type PDFSaver interface {
	// SaveCasePDF stores the PDF attached to a matched case row and returns
	// the saved path.
	SaveCasePDF(identifier ecourts.CaseIdentifier, date Date, content []byte) (string, error)

	// SaveCauseListPDF stores a full cause-list document and returns the
	// saved path.
	SaveCauseListPDF(courtName string, date Date, content []byte) (string, error)
}

// Selectors are the human-supplied jurisdiction inputs: each may be a code or
// a display name, and trailing levels may be left empty.
type Selectors struct {
	State    string
	District string
	Complex  string
	Court    string
}

// SearchRequest drives one case search.
type SearchRequest struct {
	// Identifier is the validated case identifier to look for.
	Identifier ecourts.CaseIdentifier

	// Query addresses the cause list to search.
	Query Query

	// Traces optionally carries the resolution traces of the query's path so
	// tier misses show up on the outcome.
	Traces []jurisdiction.Trace

	// DownloadPDF requests saving the matched row's PDF when one is linked.
	DownloadPDF bool
}

// EngineConfig configures an Engine. Zero-value fields get working defaults.
type EngineConfig struct {
	// Resolver answers jurisdiction lookups. Default: the standard tier chain.
	Resolver *jurisdiction.Resolver

	// Fetcher obtains raw listing content. Default: NewFetcher with defaults.
	Fetcher *Fetcher

	// MatchOptions tunes the matcher. Default: DefaultMatchOptions().
	MatchOptions *MatchOptions

	// PDFSaver persists PDFs; nil disables saving (links are still reported).
	PDFSaver PDFSaver

	// Logger receives engine diagnostics. Default: zap.NewNop().
	Logger *zap.Logger
}

// Engine runs the full pipeline for a query: resolve, fetch, parse, match,
// assemble. Only two failures are terminal and surface as errors: an invalid
// identifier and an unresolvable jurisdiction level. Everything downstream
// degrades into issues recorded on the outcome, so a caller always learns
// whether the case was listed or why that could not be determined.
type Engine struct {
	resolver     *jurisdiction.Resolver
	fetcher      *Fetcher
	matchOptions MatchOptions
	pdfSaver     PDFSaver
	logger       *zap.Logger
}

// NewEngine creates an Engine with the given configuration.
func NewEngine(config EngineConfig) (*Engine, error) {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	resolver := config.Resolver
	if resolver == nil {
		defaultResolver, err := jurisdiction.NewDefaultResolver(jurisdiction.ResolverConfig{Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("failed to build default resolver: %w", err)
		}
		resolver = defaultResolver
	}

	fetcher := config.Fetcher
	if fetcher == nil {
		fetcher = NewFetcher(FetcherConfig{Logger: logger})
	}

	matchOptions := DefaultMatchOptions()
	if config.MatchOptions != nil {
		matchOptions = *config.MatchOptions
	}

	return &Engine{
		resolver:     resolver,
		fetcher:      fetcher,
		matchOptions: matchOptions,
		pdfSaver:     config.PDFSaver,
		logger:       logger,
	}, nil
}

// ResolvePath resolves human-supplied selectors level by level into a coded
// path. Resolution stops at the first empty selector; a selector with no
// selected parent is rejected. Traces record which tier served each level.
func (engine *Engine) ResolvePath(selectors Selectors) (jurisdiction.Path, []jurisdiction.Trace, error) {
	levelSelectors := map[jurisdiction.Level]string{
		jurisdiction.LevelState:    selectors.State,
		jurisdiction.LevelDistrict: selectors.District,
		jurisdiction.LevelComplex:  selectors.Complex,
		jurisdiction.LevelCourt:    selectors.Court,
	}

	path := jurisdiction.Path{}
	var traces []jurisdiction.Trace

	for _, level := range jurisdiction.Levels {
		selector := strings.TrimSpace(levelSelectors[level])
		if selector == "" {
			break
		}

		option, trace, err := engine.resolver.FindCode(level, path, selector)
		traces = append(traces, trace)
		if err != nil {
			return jurisdiction.Path{}, traces, err
		}
		path = path.With(level, option)
	}

	if err := path.Validate(); err != nil {
		return jurisdiction.Path{}, traces, err
	}
	return path, traces, nil
}

// Search runs one case search and assembles its outcome. The returned error
// is non-nil only for an invalid identifier or an invalid jurisdiction path;
// fetch, parse, match, and PDF problems are recorded on the outcome.
func (engine *Engine) Search(request SearchRequest) (*SearchOutcome, error) {
	outcome, _, err := engine.search(request)
	return outcome, err
}

// search is Search plus the fetch-failure flag the bulk runner counts.
func (engine *Engine) search(request SearchRequest) (*SearchOutcome, bool, error) {
	if request.Identifier.Kind == "" {
		return nil, false, &ecourts.InvalidIdentifierError{Reason: "no identifier supplied"}
	}
	if err := request.Query.Jurisdiction.Validate(); err != nil {
		return nil, false, err
	}

	query := request.Query
	if query.Date.IsZero() {
		query.Date = Today()
	}

	outcome := &SearchOutcome{
		OutcomeID:  uuid.New().String(),
		Query:      query,
		Identifier: request.Identifier,
		Issues:     []Issue{},
		Timestamp:  time.Now(),
	}
	for _, trace := range request.Traces {
		for _, miss := range trace.Misses {
			outcome.Issues = append(outcome.Issues, newIssue(StageResolve,
				"%s tier missed resolving %s: %s", miss.Tier, miss.Level, miss.Reason))
		}
	}

	listing, fetchIssues, err := engine.fetcher.FetchListing(query)
	outcome.Issues = append(outcome.Issues, fetchIssues...)
	if err != nil {
		outcome.Issues = append(outcome.Issues, newIssue(StageFetch, "%v", err))
		engine.logger.Warn("listing fetch exhausted",
			zap.String("outcome_id", outcome.OutcomeID), zap.Error(err))
		return outcome, true, nil
	}

	parsed := ParseListing(listing.Content, listing.Kind, listing.URL)
	if parsed.Degraded && contentMentionsIdentifier(listing.Content, request.Identifier) {
		outcome.Issues = append(outcome.Issues, newIssue(StageParse,
			"listing content mentions the identifier but no rows could be extracted from %s", listing.URL))
	}

	matchResult, matchIssues := Match(request.Identifier, parsed.Rows, engine.matchOptions)
	outcome.Issues = append(outcome.Issues, matchIssues...)

	if matchResult.Found {
		row := matchResult.Row
		outcome.Listed = true
		outcome.SerialNumber = row.SerialNumber
		outcome.CourtName = row.CourtName
		outcome.MatchedLine = matchedLine(*row)
		outcome.Confidence = matchResult.Confidence
		outcome.CasePDFLink = row.PDFLink

		if request.DownloadPDF && row.PDFLink != "" && engine.pdfSaver != nil {
			engine.saveCasePDF(outcome, request.Identifier, query.Date, row.PDFLink)
		}
	}

	engine.logger.Info("search completed",
		zap.String("outcome_id", outcome.OutcomeID),
		zap.String("identifier", request.Identifier.String()),
		zap.Bool("listed", outcome.Listed),
		zap.Int("issues", len(outcome.Issues)))
	return outcome, false, nil
}

// saveCasePDF downloads and stores a matched row's PDF, degrading failures
// into issues.
func (engine *Engine) saveCasePDF(outcome *SearchOutcome, identifier ecourts.CaseIdentifier, date Date, pdfLink string) {
	content, err := engine.fetcher.DownloadPDF(pdfLink)
	if err != nil {
		outcome.Issues = append(outcome.Issues, newIssue(StagePDF, "failed to download case PDF %s: %v", pdfLink, err))
		return
	}
	savedPath, err := engine.pdfSaver.SaveCasePDF(identifier, date, content)
	if err != nil {
		outcome.Issues = append(outcome.Issues, newIssue(StagePDF, "failed to save case PDF: %v", err))
		return
	}
	outcome.CasePDFSavedPath = savedPath
}

// FindCauseList locates the full cause-list document for a query, probing
// the known PDF naming conventions first and falling back to PDF links on
// the listing page. With download enabled and a saver configured, the PDF is
// stored as well.
func (engine *Engine) FindCauseList(query Query, download bool) (*CauseListOutcome, error) {
	if err := query.Jurisdiction.Validate(); err != nil {
		return nil, err
	}
	if query.Date.IsZero() {
		query.Date = Today()
	}

	outcome := &CauseListOutcome{
		OutcomeID: uuid.New().String(),
		Query:     query,
		Issues:    []Issue{},
		Timestamp: time.Now(),
	}

	pdfURL, probeIssues, err := engine.fetcher.ProbeCauseListPDF(query)
	outcome.Issues = append(outcome.Issues, probeIssues...)
	if err != nil {
		pdfURL = engine.causeListLinkFromListing(query, outcome)
	}

	if pdfURL == "" {
		return outcome, nil
	}
	outcome.Found = true
	outcome.PDFLink = pdfURL

	if download && engine.pdfSaver != nil {
		content, downloadErr := engine.fetcher.DownloadPDF(pdfURL)
		if downloadErr != nil {
			outcome.Issues = append(outcome.Issues, newIssue(StagePDF, "failed to download cause-list PDF %s: %v", pdfURL, downloadErr))
			return outcome, nil
		}
		savedPath, saveErr := engine.pdfSaver.SaveCauseListPDF(courtLabel(query.Jurisdiction), query.Date, content)
		if saveErr != nil {
			outcome.Issues = append(outcome.Issues, newIssue(StagePDF, "failed to save cause-list PDF: %v", saveErr))
			return outcome, nil
		}
		outcome.SavedPath = savedPath
	}
	return outcome, nil
}

// causeListLinkFromListing fetches the listing page and returns the first
// PDF link its rows carry, or "".
func (engine *Engine) causeListLinkFromListing(query Query, outcome *CauseListOutcome) string {
	listing, fetchIssues, err := engine.fetcher.FetchListing(query)
	outcome.Issues = append(outcome.Issues, fetchIssues...)
	if err != nil {
		outcome.Issues = append(outcome.Issues, newIssue(StageFetch, "%v", err))
		return ""
	}
	for _, row := range ParseListing(listing.Content, listing.Kind, listing.URL).Rows {
		if row.PDFLink != "" {
			return row.PDFLink
		}
	}
	return ""
}

// SearchComplex expands a complex-level query into one search per court and
// aggregates the outcomes. Court enumeration failures are terminal; per-court
// pipeline failures only increment the failed count.
func (engine *Engine) SearchComplex(request SearchRequest) (*BulkResult, error) {
	courts, err := engine.complexCourts(request.Query)
	if err != nil {
		return nil, err
	}

	result := &BulkResult{
		RunID: uuid.New().String(),
		Query: request.Query,
	}

	for _, court := range courts {
		courtRequest := request
		courtRequest.Query.Jurisdiction = request.Query.Jurisdiction.With(jurisdiction.LevelCourt, court)

		outcome, fetchFailed, searchErr := engine.search(courtRequest)
		if searchErr != nil {
			return nil, searchErr
		}
		result.Outcomes = append(result.Outcomes, outcome)
		if fetchFailed {
			result.Failed++
		} else {
			result.Succeeded++
		}
	}

	engine.logger.Info("bulk search completed",
		zap.String("run_id", result.RunID),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))
	return result, nil
}

// ComplexCauseLists locates (and optionally downloads) the cause list of
// every court in a complex.
func (engine *Engine) ComplexCauseLists(query Query, download bool) (*BulkResult, error) {
	courts, err := engine.complexCourts(query)
	if err != nil {
		return nil, err
	}

	result := &BulkResult{
		RunID: uuid.New().String(),
		Query: query,
	}

	for _, court := range courts {
		courtQuery := query
		courtQuery.Jurisdiction = query.Jurisdiction.With(jurisdiction.LevelCourt, court)

		outcome, listErr := engine.FindCauseList(courtQuery, download)
		if listErr != nil {
			return nil, listErr
		}
		result.CauseLists = append(result.CauseLists, outcome)
		if outcome.Found {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}
	return result, nil
}

// complexCourts enumerates the courts of the query's complex.
func (engine *Engine) complexCourts(query Query) ([]jurisdiction.CodeName, error) {
	if query.Jurisdiction.Complex.Code == "" {
		return nil, fmt.Errorf("bulk run requires a selected court complex")
	}
	courts, _, err := engine.resolver.Options(jurisdiction.LevelCourt, query.Jurisdiction)
	if err != nil {
		return nil, err
	}
	return courts, nil
}

// matchedLine renders the listing text a match should report: the case
// reference plus the parties text when present.
func matchedLine(row ListingRow) string {
	if row.PartiesText == "" {
		return row.CaseReference
	}
	if strings.Contains(row.PartiesText, row.CaseReference) {
		return row.PartiesText
	}
	return row.CaseReference + " " + row.PartiesText
}

// contentMentionsIdentifier reports whether raw listing content references
// the identifier, which makes an empty extraction worth flagging.
func contentMentionsIdentifier(content []byte, identifier ecourts.CaseIdentifier) bool {
	text := strings.ToUpper(string(content))
	switch identifier.Kind {
	case ecourts.IdentifierCNR:
		return strings.Contains(compactAlphanumeric(text), identifier.CNR)
	case ecourts.IdentifierTypeNumberYear:
		return strings.Contains(text, strconv.Itoa(identifier.Number)) &&
			strings.Contains(text, strconv.Itoa(identifier.Year))
	default:
		return false
	}
}

// courtLabel names the deepest selected level for file naming.
func courtLabel(path jurisdiction.Path) string {
	for _, level := range []jurisdiction.Level{
		jurisdiction.LevelCourt, jurisdiction.LevelComplex,
		jurisdiction.LevelDistrict, jurisdiction.LevelState,
	} {
		if entry := path.At(level); entry.Code != "" {
			if entry.Name != "" {
				return entry.Name
			}
			return entry.Code
		}
	}
	return "causelist"
}
