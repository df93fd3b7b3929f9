package causelist

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/coolbeans/adalat/pkg/ecourts"
)

// MatchOptions tunes the matcher's heuristics.
type MatchOptions struct {
	// AllowPartialCNR enables the lower-confidence fallback that accepts a
	// CNR's six-digit sequence number as a standalone token when the full
	// CNR does not appear anywhere in the listing. Cause lists frequently
	// print only the sequence portion of a CNR.
	AllowPartialCNR bool
}

// DefaultMatchOptions returns the matcher defaults used by the engine.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{AllowPartialCNR: true}
}

var nonAlphanumericPattern = regexp.MustCompile(`[^A-Z0-9]+`)

// Match decides whether the identifier appears among the listing rows. It is
// a pure function of its inputs: rows are never mutated, and matching the
// same inputs twice yields the same verdict. The first qualifying row in
// document order wins; additional qualifying rows are reported as match
// anomalies so the caller can surface the ambiguity.
func Match(identifier ecourts.CaseIdentifier, rows []ListingRow, options MatchOptions) (MatchResult, []Issue) {
	result := MatchResult{Identifier: identifier}

	var matchRow func(row ListingRow) (MatchConfidence, bool)
	switch identifier.Kind {
	case ecourts.IdentifierCNR:
		fullCNRListed := anyRowContainsCNR(identifier.CNR, rows)
		matchRow = func(row ListingRow) (MatchConfidence, bool) {
			return matchCNRRow(identifier, row, options, fullCNRListed)
		}
	case ecourts.IdentifierTypeNumberYear:
		matchRow = func(row ListingRow) (MatchConfidence, bool) {
			return matchTypeNumberYearRow(identifier, row)
		}
	default:
		return result, nil
	}

	var issues []Issue
	for rowIndex := range rows {
		confidence, matched := matchRow(rows[rowIndex])
		if !matched {
			continue
		}
		if result.Found {
			issues = append(issues, newIssue(StageMatch,
				"identifier %s matched more than one row; kept serial %d, also matched %q",
				identifier.String(), result.Row.SerialNumber, rows[rowIndex].CaseReference))
			continue
		}
		matchedRow := rows[rowIndex]
		result.Found = true
		result.Row = &matchedRow
		result.Confidence = confidence
	}

	if result.Found && result.Confidence == ConfidencePartial {
		issues = append(issues, newIssue(StageMatch,
			"partial CNR match for %s: sequence number found without establishment prefix",
			identifier.CNR))
	}

	return result, issues
}

// matchCNRRow checks a single row against a CNR identifier. A full CNR
// occurrence anywhere in the row text is an exact match. When the full CNR
// appears nowhere in the listing and the partial heuristic is enabled, a
// standalone sequence-number token qualifies at partial confidence.
func matchCNRRow(identifier ecourts.CaseIdentifier, row ListingRow, options MatchOptions, fullCNRListed bool) (MatchConfidence, bool) {
	if rowContainsCNR(identifier.CNR, row) {
		return ConfidenceExact, true
	}
	if options.AllowPartialCNR && !fullCNRListed {
		if hasStandaloneToken(rowTokens(row), identifier.SequenceNumber()) {
			return ConfidencePartial, true
		}
	}
	return "", false
}

// matchTypeNumberYearRow requires the case type, the case number, and the
// exact year to co-occur in one row. Each must appear as its own token so a
// query for case 12/2024 never matches row 112/2024.
func matchTypeNumberYearRow(identifier ecourts.CaseIdentifier, row ListingRow) (MatchConfidence, bool) {
	tokens := rowTokens(row)
	typeToken := compactAlphanumeric(identifier.CaseType)
	numberToken := strconv.Itoa(identifier.Number)
	yearToken := strconv.Itoa(identifier.Year)

	if !hasStandaloneToken(tokens, typeToken) {
		return "", false
	}
	if !hasStandaloneToken(tokens, numberToken) {
		return "", false
	}
	if !hasExactToken(tokens, yearToken) {
		return "", false
	}
	return ConfidenceExact, true
}

// anyRowContainsCNR reports whether the full CNR appears in any row.
func anyRowContainsCNR(cnr string, rows []ListingRow) bool {
	for rowIndex := range rows {
		if rowContainsCNR(cnr, rows[rowIndex]) {
			return true
		}
	}
	return false
}

// rowContainsCNR checks each row field separately so a CNR split across
// fields by compaction cannot produce a false positive.
func rowContainsCNR(cnr string, row ListingRow) bool {
	for _, field := range []string{row.CaseReference, row.PartiesText} {
		if strings.Contains(compactAlphanumeric(field), cnr) {
			return true
		}
	}
	return false
}

// rowTokens splits the row's textual fields into uppercase alphanumeric
// tokens.
func rowTokens(row ListingRow) []string {
	combined := strings.ToUpper(row.CaseReference + " " + row.PartiesText)
	var tokens []string
	for _, token := range nonAlphanumericPattern.Split(combined, -1) {
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// hasStandaloneToken reports whether the wanted token occurs on its own,
// comparing numeric tokens with leading zeros ignored.
func hasStandaloneToken(tokens []string, wanted string) bool {
	if wanted == "" {
		return false
	}
	normalizedWanted := trimNumericZeros(wanted)
	for _, token := range tokens {
		if token == wanted || trimNumericZeros(token) == normalizedWanted {
			return true
		}
	}
	return false
}

// hasExactToken reports whether the wanted token occurs verbatim.
func hasExactToken(tokens []string, wanted string) bool {
	for _, token := range tokens {
		if token == wanted {
			return true
		}
	}
	return false
}

// trimNumericZeros strips leading zeros from all-digit tokens so 000123
// and 123 compare equal; non-numeric tokens pass through unchanged.
func trimNumericZeros(token string) string {
	for _, character := range token {
		if character < '0' || character > '9' {
			return token
		}
	}
	trimmed := strings.TrimLeft(token, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// compactAlphanumeric uppercases text and removes everything that is not a
// letter or digit.
func compactAlphanumeric(text string) string {
	return nonAlphanumericPattern.ReplaceAllString(strings.ToUpper(text), "")
}
