package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"dicomdesk/internal/shared/logger"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestFileMoverMovesToProcessed(t *testing.T) {
	watchDir := t.TempDir()
	processedDir := t.TempDir()
	mover := NewFileMover(processedDir, "", logger.NewLogger())

	src := filepath.Join(watchDir, "scan.dcm")
	writeTestFile(t, src, "payload")

	dest, err := mover.MoveToProcessed(src)
	if err != nil {
		t.Fatalf("MoveToProcessed failed: %v", err)
	}
	if dest != filepath.Join(processedDir, "scan.dcm") {
		t.Fatalf("unexpected destination %s", dest)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("source file should be gone after move")
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read destination: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("destination content = %q, want %q", got, "payload")
	}
}

func TestFileMoverCollisionAppendsCounter(t *testing.T) {
	watchDir := t.TempDir()
	processedDir := t.TempDir()
	mover := NewFileMover(processedDir, "", logger.NewLogger())

	writeTestFile(t, filepath.Join(processedDir, "test.dcm"), "original")
	src := filepath.Join(watchDir, "test.dcm")
	writeTestFile(t, src, "incoming")

	dest, err := mover.MoveToProcessed(src)
	if err != nil {
		t.Fatalf("MoveToProcessed failed: %v", err)
	}
	if dest != filepath.Join(processedDir, "test_1.dcm") {
		t.Fatalf("destination = %s, want test_1.dcm", dest)
	}

	// Existing file is untouched.
	got, err := os.ReadFile(filepath.Join(processedDir, "test.dcm"))
	if err != nil {
		t.Fatalf("failed to read existing file: %v", err)
	}
	if string(got) != "original" {
		t.Fatal("existing file was overwritten")
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("source file should be gone after move")
	}
}

func TestFileMoverCollisionCounterIncrements(t *testing.T) {
	watchDir := t.TempDir()
	errorDir := t.TempDir()
	mover := NewFileMover("", errorDir, logger.NewLogger())

	writeTestFile(t, filepath.Join(errorDir, "test.dcm"), "a")
	writeTestFile(t, filepath.Join(errorDir, "test_1.dcm"), "b")

	src := filepath.Join(watchDir, "test.dcm")
	writeTestFile(t, src, "c")

	dest, err := mover.MoveToError(src)
	if err != nil {
		t.Fatalf("MoveToError failed: %v", err)
	}
	if dest != filepath.Join(errorDir, "test_2.dcm") {
		t.Fatalf("destination = %s, want test_2.dcm", dest)
	}
}

func TestFileMoverEmptyDestinationDisablesMove(t *testing.T) {
	watchDir := t.TempDir()
	mover := NewFileMover("", "", logger.NewLogger())

	src := filepath.Join(watchDir, "scan.dcm")
	writeTestFile(t, src, "payload")

	dest, err := mover.MoveToProcessed(src)
	if err != nil {
		t.Fatalf("MoveToProcessed failed: %v", err)
	}
	if dest != "" {
		t.Fatalf("expected empty destination, got %s", dest)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatal("source file should remain in place")
	}
}

func TestFileMoverCreatesDestinationDirectory(t *testing.T) {
	watchDir := t.TempDir()
	processedDir := filepath.Join(t.TempDir(), "nested", "processed")
	mover := NewFileMover(processedDir, "", logger.NewLogger())

	src := filepath.Join(watchDir, "scan.dcm")
	writeTestFile(t, src, "payload")

	if _, err := mover.MoveToProcessed(src); err != nil {
		t.Fatalf("MoveToProcessed failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(processedDir, "scan.dcm")); err != nil {
		t.Fatal("file should land in the created directory")
	}
}
