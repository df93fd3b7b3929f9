// Package causelist is the cause-list acquisition and case-matching engine:
// it fetches daily cause-list publications for a resolved jurisdiction and
// date, parses their semi-structured listings, and matches case identifiers
// against the rows, reporting a structured outcome with provenance.
package causelist

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/coolbeans/adalat/pkg/ecourts"
	"github.com/coolbeans/adalat/pkg/jurisdiction"
)

// ContentKind tags the raw content a fetch produced.
type ContentKind string

const (
	// ContentHTML is an HTML cause-list or search page.
	ContentHTML ContentKind = "html"

	// ContentPDF is raw PDF bytes.
	ContentPDF ContentKind = "pdf"

	// ContentNone means no usable content was obtained.
	ContentNone ContentKind = "none"
)

// Query addresses one cause list: a jurisdiction path and a calendar date.
// It is immutable; one query drives one fetch attempt chain.
type Query struct {
	// Jurisdiction is the (possibly partial) location selector.
	Jurisdiction jurisdiction.Path `json:"jurisdiction"`

	// Date is the cause-list date.
	Date Date `json:"date"`
}

// ListingRow is one normalized row of a parsed cause list. Rows are plain
// immutable records; the parser fully materializes them and releases the
// raw document.
type ListingRow struct {
	// SerialNumber is the row's serial, or 0 when unknown.
	SerialNumber int `json:"serial_number,omitempty"`

	// CaseReference is the case number text (type/number/year or CNR fragment).
	CaseReference string `json:"case_reference"`

	// PartiesText is the free-text parties column (petitioner vs respondent).
	PartiesText string `json:"parties_text,omitempty"`

	// CourtName is the court or judge heading the row belongs to.
	CourtName string `json:"court_name,omitempty"`

	// PDFLink is the absolute URL of an attached PDF, or "".
	PDFLink string `json:"pdf_link,omitempty"`
}

// MatchConfidence grades how a row matched the identifier.
type MatchConfidence string

const (
	// ConfidenceExact is a direct full match.
	ConfidenceExact MatchConfidence = "exact"

	// ConfidencePartial is a lower-confidence heuristic hit (e.g. CNR
	// sequence number without the establishment prefix).
	ConfidencePartial MatchConfidence = "partial"
)

// MatchResult is the matcher's verdict. Found=false is a valid terminal
// outcome (the case is simply not listed), not a failure.
type MatchResult struct {
	// Found reports whether any row qualified.
	Found bool `json:"found"`

	// Row is the first qualifying row in document order, or nil.
	Row *ListingRow `json:"row,omitempty"`

	// Confidence grades the hit; empty when Found is false.
	Confidence MatchConfidence `json:"confidence,omitempty"`

	// Identifier is the query identifier the rows were matched against.
	Identifier ecourts.CaseIdentifier `json:"raw_query"`
}

// IssueStage names the pipeline stage that produced a recoverable issue.
type IssueStage string

const (
	// StageResolve covers jurisdiction tier misses.
	StageResolve IssueStage = "resolve"

	// StageFetch covers network retries and fetch failures.
	StageFetch IssueStage = "fetch"

	// StageParse covers structural extraction degradation.
	StageParse IssueStage = "parse"

	// StageMatch covers matcher anomalies (duplicate rows, partial hits).
	StageMatch IssueStage = "match"

	// StagePDF covers PDF retrieval and save failures.
	StagePDF IssueStage = "pdf"
)

// Issue is a recoverable problem recorded on the outcome instead of thrown.
// The ordered issue sequence makes an outcome self-explanatory: it
// distinguishes "case not listed" from "could not determine due to X".
type Issue struct {
	// Stage is the pipeline stage that hit the issue.
	Stage IssueStage `json:"stage"`

	// Message describes the issue.
	Message string `json:"message"`

	// At is when the issue occurred.
	At time.Time `json:"at"`
}

// newIssue builds an Issue stamped with the current time.
func newIssue(stage IssueStage, format string, args ...any) Issue {
	return Issue{Stage: stage, Message: fmt.Sprintf(format, args...), At: time.Now()}
}

// SearchOutcome is the externally visible result of one case search. It is
// assembled once per invocation, never mutated afterwards, and serialized
// verbatim to the output boundary.
type SearchOutcome struct {
	// OutcomeID uniquely identifies this invocation.
	OutcomeID string `json:"outcome_id"`

	// Query is the cause-list query that was executed.
	Query Query `json:"query"`

	// Identifier is the validated case identifier searched for.
	Identifier ecourts.CaseIdentifier `json:"identifier"`

	// Listed reports whether the case appeared on the cause list.
	Listed bool `json:"listed"`

	// SerialNumber is the matched row's serial, or 0.
	SerialNumber int `json:"serial_number,omitempty"`

	// CourtName is the matched row's court, or "".
	CourtName string `json:"court_name,omitempty"`

	// MatchedLine is the listing text the identifier matched.
	MatchedLine string `json:"matched_line,omitempty"`

	// Confidence grades the match when Listed is true.
	Confidence MatchConfidence `json:"confidence,omitempty"`

	// CasePDFLink is the PDF URL attached to the matched row, or "".
	CasePDFLink string `json:"case_pdf_link,omitempty"`

	// CasePDFSavedPath is where the PDF was saved, or "" (including when a
	// save was attempted and failed; the failure is recorded as an issue).
	CasePDFSavedPath string `json:"case_pdf_saved_path,omitempty"`

	// Issues is the ordered sequence of recoverable problems encountered.
	Issues []Issue `json:"errors"`

	// Timestamp is when the outcome was assembled.
	Timestamp time.Time `json:"timestamp"`
}

// MarshalOutcome serializes an outcome to its external JSON document form.
func MarshalOutcome(outcome *SearchOutcome) ([]byte, error) {
	encoded, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize outcome: %w", err)
	}
	return encoded, nil
}

// ParseOutcome deserializes an outcome from its external JSON document form.
func ParseOutcome(data []byte) (*SearchOutcome, error) {
	var outcome SearchOutcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return nil, fmt.Errorf("failed to parse outcome: %w", err)
	}
	return &outcome, nil
}

// CauseListOutcome is the result of locating (and optionally saving) a full
// cause-list document for a date, without a case identifier.
type CauseListOutcome struct {
	// OutcomeID uniquely identifies this invocation.
	OutcomeID string `json:"outcome_id"`

	// Query is the cause-list query that was executed.
	Query Query `json:"query"`

	// Found reports whether a cause-list document was located.
	Found bool `json:"found_causelist"`

	// PDFLink is the located cause-list PDF URL, or "".
	PDFLink string `json:"causelist_pdf,omitempty"`

	// SavedPath is where the PDF was saved, or "".
	SavedPath string `json:"saved_file,omitempty"`

	// Issues is the ordered sequence of recoverable problems encountered.
	Issues []Issue `json:"errors"`

	// Timestamp is when the outcome was assembled.
	Timestamp time.Time `json:"timestamp"`
}

// BulkResult aggregates one full pipeline run per court of a complex.
type BulkResult struct {
	// RunID uniquely identifies the bulk invocation.
	RunID string `json:"run_id"`

	// Query is the complex-level query the run expanded.
	Query Query `json:"query"`

	// Outcomes holds one entry per court, in resolution order.
	Outcomes []*SearchOutcome `json:"outcomes"`

	// CauseLists holds the per-court cause-list outcomes when the run was a
	// cause-list download rather than a case search.
	CauseLists []*CauseListOutcome `json:"causelists,omitempty"`

	// Succeeded counts courts whose pipeline completed without a fetch failure.
	Succeeded int `json:"succeeded"`

	// Failed counts courts whose pipeline degraded to a recorded failure.
	Failed int `json:"failed"`
}
