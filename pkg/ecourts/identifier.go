// Package ecourts provides case identifier types for the Indian eCourts
// system: the nationwide 16-character CNR (Case Number Record) and the
// older type/number/year case reference.
package ecourts

import (
	"fmt"
	"strings"
	"time"
)

// MinCaseYear is the earliest year accepted for a type/number/year identifier.
const MinCaseYear = 1950

// CNRLength is the required length of a normalized CNR string.
const CNRLength = 16

// EstablishmentCodeLength is the number of leading CNR characters that
// identify the court establishment.
const EstablishmentCodeLength = 4

// SequenceLength is the number of trailing CNR characters treated as the
// case sequence number for lower-confidence matching.
const SequenceLength = 6

// IdentifierKind distinguishes the two case identifier variants.
type IdentifierKind string

const (
	// IdentifierCNR is a 16-character nationwide unique case number record.
	IdentifierCNR IdentifierKind = "cnr"

	// IdentifierTypeNumberYear is a case type + number + year reference.
	IdentifierTypeNumberYear IdentifierKind = "type_number_year"
)

// CaseIdentifier is a validated case identifier. Construct one with ParseCNR
// or NewTypeNumberYear; the zero value is not a valid identifier.
type CaseIdentifier struct {
	// Kind indicates which variant this identifier is.
	Kind IdentifierKind `json:"kind"`

	// CNR is the normalized 16-character CNR (CNR variant only).
	CNR string `json:"cnr,omitempty"`

	// CaseType is the case type token, e.g. "CR", "CIV" (triple variant only).
	CaseType string `json:"case_type,omitempty"`

	// Number is the positive case number (triple variant only).
	Number int `json:"number,omitempty"`

	// Year is the 4-digit filing year (triple variant only).
	Year int `json:"year,omitempty"`
}

// InvalidIdentifierError reports a malformed case identifier. It is terminal:
// no pipeline stage runs for a query carrying an invalid identifier.
type InvalidIdentifierError struct {
	// Value is the offending raw input.
	Value string

	// Reason describes why the identifier was rejected.
	Reason string
}

func (invalidErr *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid case identifier %q: %s", invalidErr.Value, invalidErr.Reason)
}

// ParseCNR normalizes and validates a raw CNR string. Whitespace is stripped
// and letters uppercased before validation. The result is exactly 16
// uppercase alphanumeric characters or an InvalidIdentifierError.
func ParseCNR(raw string) (CaseIdentifier, error) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(raw), ""))

	if len(normalized) != CNRLength {
		return CaseIdentifier{}, &InvalidIdentifierError{
			Value:  raw,
			Reason: fmt.Sprintf("CNR must be exactly %d characters, got %d", CNRLength, len(normalized)),
		}
	}

	for _, character := range normalized {
		isDigit := character >= '0' && character <= '9'
		isUpper := character >= 'A' && character <= 'Z'
		if !isDigit && !isUpper {
			return CaseIdentifier{}, &InvalidIdentifierError{
				Value:  raw,
				Reason: fmt.Sprintf("CNR contains non-alphanumeric character %q", character),
			}
		}
	}

	return CaseIdentifier{Kind: IdentifierCNR, CNR: normalized}, nil
}

// NewTypeNumberYear validates a case type + number + year triple.
// The year must fall within [1950, current_year+1] and the number must be
// positive; the type token is trimmed and uppercased.
func NewTypeNumberYear(caseType string, number int, year int) (CaseIdentifier, error) {
	normalizedType := strings.ToUpper(strings.TrimSpace(caseType))
	rawValue := fmt.Sprintf("%s %d/%d", caseType, number, year)

	if normalizedType == "" {
		return CaseIdentifier{}, &InvalidIdentifierError{Value: rawValue, Reason: "case type is empty"}
	}
	if number <= 0 {
		return CaseIdentifier{}, &InvalidIdentifierError{
			Value:  rawValue,
			Reason: fmt.Sprintf("case number must be positive, got %d", number),
		}
	}

	maxYear := time.Now().Year() + 1
	if year < MinCaseYear || year > maxYear {
		return CaseIdentifier{}, &InvalidIdentifierError{
			Value:  rawValue,
			Reason: fmt.Sprintf("year must be within [%d, %d], got %d", MinCaseYear, maxYear, year),
		}
	}

	return CaseIdentifier{
		Kind:     IdentifierTypeNumberYear,
		CaseType: normalizedType,
		Number:   number,
		Year:     year,
	}, nil
}

// String renders the identifier the way cause lists print it:
// the bare CNR, or "TYPE NUMBER / YEAR" for the triple variant.
func (identifier CaseIdentifier) String() string {
	if identifier.Kind == IdentifierCNR {
		return identifier.CNR
	}
	return fmt.Sprintf("%s %d / %d", identifier.CaseType, identifier.Number, identifier.Year)
}

// EstablishmentCode returns the leading CNR characters that identify the
// court establishment, or "" for the triple variant.
func (identifier CaseIdentifier) EstablishmentCode() string {
	if identifier.Kind != IdentifierCNR || len(identifier.CNR) < EstablishmentCodeLength {
		return ""
	}
	return identifier.CNR[:EstablishmentCodeLength]
}

// SequenceNumber returns the trailing CNR characters treated as the case
// sequence number, or "" for the triple variant.
func (identifier CaseIdentifier) SequenceNumber() string {
	if identifier.Kind != IdentifierCNR || len(identifier.CNR) < SequenceLength {
		return ""
	}
	return identifier.CNR[len(identifier.CNR)-SequenceLength:]
}
