package outputs

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/coolbeans/adalat/pkg/causelist"
)

// ArchiveRun bundles the cause-list PDFs a bulk run saved into one zip file
// next to the run document, and returns the archive path. Runs that saved no
// PDFs produce no archive and no error.
func (store *Store) ArchiveRun(result *causelist.BulkResult) (string, error) {
	var pdfPaths []string
	for _, outcome := range result.CauseLists {
		if outcome.SavedPath != "" {
			pdfPaths = append(pdfPaths, outcome.SavedPath)
		}
	}
	if len(pdfPaths) == 0 {
		return "", nil
	}

	archiveName := fmt.Sprintf("causelists_%s.zip", SafeFileName(result.RunID))
	archivePath := filepath.Join(store.root, archiveName)
	if err := writeZip(archivePath, pdfPaths); err != nil {
		return "", err
	}

	store.logger.Info("bulk run archived",
		zap.String("path", archivePath), zap.Int("files", len(pdfPaths)))
	return archivePath, nil
}

// writeZip creates a zip archive containing the given files under their base
// names.
func writeZip(archivePath string, filePaths []string) error {
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", archivePath, err)
	}
	defer archiveFile.Close()

	zipWriter := zip.NewWriter(archiveFile)
	for _, filePath := range filePaths {
		if err := addZipEntry(zipWriter, filePath); err != nil {
			zipWriter.Close()
			return err
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive %s: %w", archivePath, err)
	}
	return nil
}

func addZipEntry(zipWriter *zip.Writer, filePath string) error {
	source, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open %s for archiving: %w", filePath, err)
	}
	defer source.Close()

	entry, err := zipWriter.Create(filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", filePath, err)
	}
	if _, err := io.Copy(entry, source); err != nil {
		return fmt.Errorf("failed to copy %s into archive: %w", filePath, err)
	}
	return nil
}
