package doctor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adammathes/tagverify/pkg/document"
)

// writeArtifact writes doc to a temporary file next to path and renames it
// into place, so a failed write never leaves a truncated artifact behind.
func writeArtifact(path string, doc *document.Document) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tagverify-doctor-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := doc.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encoding: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
