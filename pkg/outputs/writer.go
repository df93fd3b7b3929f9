// Package outputs persists search outcomes and retrieved PDF documents under
// a stable directory layout:
//
//	<root>/
//	  result_<identifier>_<date>.json
//	  run_<run-id>.json
//	  cases/<identifier>_<date>.pdf
//	  causelists/<court>_<date>.pdf
package outputs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/coolbeans/adalat/pkg/causelist"
	"github.com/coolbeans/adalat/pkg/ecourts"
)

const (
	// DefaultRoot is the default output directory.
	DefaultRoot = "outputs"

	casesDir      = "cases"
	causeListsDir = "causelists"
)

// Store writes pipeline artifacts to the filesystem. It implements
// causelist.PDFSaver so the engine can hand it matched-case and cause-list
// PDFs directly.
type Store struct {
	root   string
	logger *zap.Logger
}

// NewStore creates a Store rooted at the given directory. An empty root
// selects DefaultRoot.
func NewStore(root string, logger *zap.Logger) *Store {
	if root == "" {
		root = DefaultRoot
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{root: root, logger: logger}
}

// Root returns the store's root directory.
func (store *Store) Root() string {
	return store.root
}

// WriteOutcome persists a search outcome as a JSON document named after the
// identifier and date, and returns the written path.
func (store *Store) WriteOutcome(outcome *causelist.SearchOutcome) (string, error) {
	encoded, err := causelist.MarshalOutcome(outcome)
	if err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("result_%s_%s.json",
		SafeFileName(outcome.Identifier.String()), outcome.Query.Date)
	return store.writeFile(store.root, fileName, encoded)
}

// WriteBulkResult persists an aggregated bulk run as a single JSON document.
func (store *Store) WriteBulkResult(result *causelist.BulkResult) (string, error) {
	encoded, err := marshalJSON(result)
	if err != nil {
		return "", err
	}
	fileName := fmt.Sprintf("run_%s.json", SafeFileName(result.RunID))
	return store.writeFile(store.root, fileName, encoded)
}

// SaveCasePDF stores a matched case's PDF under cases/.
func (store *Store) SaveCasePDF(identifier ecourts.CaseIdentifier, date causelist.Date, content []byte) (string, error) {
	fileName := fmt.Sprintf("%s_%s.pdf", SafeFileName(identifier.String()), date)
	return store.writeFile(filepath.Join(store.root, casesDir), fileName, content)
}

// SaveCauseListPDF stores a full cause-list document under causelists/.
func (store *Store) SaveCauseListPDF(courtName string, date causelist.Date, content []byte) (string, error) {
	if courtName == "" {
		courtName = "causelist"
	}
	fileName := fmt.Sprintf("%s_%s.pdf", SafeFileName(courtName), date)
	return store.writeFile(filepath.Join(store.root, causeListsDir), fileName, content)
}

// writeFile creates the directory if needed and writes the file.
func (store *Store) writeFile(directory, fileName string, content []byte) (string, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", directory, err)
	}

	path := filepath.Join(directory, fileName)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	store.logger.Debug("artifact written",
		zap.String("path", path), zap.Int("bytes", len(content)))
	return path, nil
}

// marshalJSON renders an artifact in the indented form the output documents
// use.
func marshalJSON(value any) ([]byte, error) {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize artifact: %w", err)
	}
	return encoded, nil
}

// SafeFileName reduces arbitrary text (case identifiers, court names) to a
// filesystem-safe token: letters, digits, dot, and dash survive, everything
// else collapses to single underscores.
func SafeFileName(value string) string {
	var builder strings.Builder
	lastWasUnderscore := false

	for _, character := range value {
		safe := character >= 'a' && character <= 'z' ||
			character >= 'A' && character <= 'Z' ||
			character >= '0' && character <= '9' ||
			character == '.' || character == '-'
		if safe {
			builder.WriteRune(character)
			lastWasUnderscore = false
			continue
		}
		if !lastWasUnderscore {
			builder.WriteByte('_')
			lastWasUnderscore = true
		}
	}

	trimmed := strings.Trim(builder.String(), "_.")
	if trimmed == "" {
		return "unnamed"
	}
	return trimmed
}
