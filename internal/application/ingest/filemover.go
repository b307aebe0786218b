// Package ingest implements the imaging file ingestion pipeline: directory
// watching with event deduplication, tag extraction, catalog commits, and
// routing of files into processed and error locations.
package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"dicomdesk/internal/shared/logger"
)

// FileMover relocates ingested files with collision-safe naming.
type FileMover struct {
	processedDir string
	errorDir     string
	logger       logger.Interface
}

// NewFileMover creates a mover for the configured destinations. An empty
// destination disables that relocation.
func NewFileMover(processedDir, errorDir string, log logger.Interface) *FileMover {
	return &FileMover{
		processedDir: processedDir,
		errorDir:     errorDir,
		logger:       log.Named("ingest.mover"),
	}
}

// MoveToProcessed relocates a successfully ingested file.
func (m *FileMover) MoveToProcessed(path string) (string, error) {
	if m.processedDir == "" {
		return "", nil
	}
	return m.move(path, m.processedDir)
}

// MoveToError routes a failed file aside so it is not retried forever.
func (m *FileMover) MoveToError(path string) (string, error) {
	if m.errorDir == "" {
		return "", nil
	}
	return m.move(path, m.errorDir)
}

func (m *FileMover) move(src, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	dest, err := collisionFreePath(destDir, filepath.Base(src))
	if err != nil {
		return "", err
	}

	if err := moveFile(src, dest); err != nil {
		m.logger.Errorw("failed to move file", "src", src, "dest", dest, "error", err)
		return "", err
	}

	m.logger.Infow("file moved", "src", src, "dest", dest)
	return dest, nil
}

// collisionFreePath returns destDir/name, appending _1, _2, ... before the
// extension until the name is free.
func collisionFreePath(destDir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	dest := filepath.Join(destDir, name)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			return dest, nil
		} else if err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to probe destination %s: %w", dest, err)
		}
		dest = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
	}
}

// moveFile renames when possible and falls back to copy-and-remove across
// filesystems.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to copy file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to finalize destination: %w", err)
	}

	return os.Remove(src)
}
