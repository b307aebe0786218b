package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dicomdesk/internal/domain/catalog"
	"dicomdesk/internal/shared/logger"
)

type fakeExtractor struct {
	record *catalog.ImagingRecord
	err    error
	paths  []string
}

func (f *fakeExtractor) ExtractTags(path string) (*catalog.ImagingRecord, error) {
	f.paths = append(f.paths, path)
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

type fakeIngestor struct {
	result  catalog.IngestResult
	err     error
	records []catalog.ImagingRecord
}

func (f *fakeIngestor) IngestStudy(ctx context.Context, rec catalog.ImagingRecord, sourcePath string) (catalog.IngestResult, error) {
	f.records = append(f.records, rec)
	if f.err != nil {
		return "", f.err
	}
	return f.result, nil
}

func testRecord() *catalog.ImagingRecord {
	return &catalog.ImagingRecord{
		PatientID:        "PAT-001",
		PatientName:      "Doe, Jane",
		StudyInstanceUID: "1.2.840.113619.2.55.3.1",
		StudyDate:        time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Modality:         "CT",
	}
}

type watcherFixture struct {
	watcher      *Watcher
	extractor    *fakeExtractor
	ingestor     *fakeIngestor
	watchDir     string
	processedDir string
	errorDir     string
}

func newWatcherFixture(t *testing.T) *watcherFixture {
	t.Helper()
	log := logger.NewLogger()
	f := &watcherFixture{
		extractor:    &fakeExtractor{record: testRecord()},
		ingestor:     &fakeIngestor{result: catalog.IngestCreated},
		watchDir:     t.TempDir(),
		processedDir: t.TempDir(),
		errorDir:     t.TempDir(),
	}
	f.watcher = NewWatcher(
		f.watchDir,
		f.extractor,
		f.ingestor,
		NewFileMover(f.processedDir, f.errorDir, log),
		log,
	)
	f.watcher.settleDelay = 0
	return f
}

func (f *watcherFixture) newFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.watchDir, name)
	writeTestFile(t, path, "imaging payload")
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestAcceptFiltersByExtension(t *testing.T) {
	f := newWatcherFixture(t)
	now := time.Now()

	dcm := f.newFile(t, "scan.dcm")
	upper := f.newFile(t, "scan2.DCM")
	txt := f.newFile(t, "notes.txt")

	if !f.watcher.Accept(dcm, now) {
		t.Fatal("lowercase .dcm should be accepted")
	}
	if !f.watcher.Accept(upper, now) {
		t.Fatal("extension matching is case-insensitive")
	}
	if f.watcher.Accept(txt, now) {
		t.Fatal("non-imaging file should be rejected")
	}
}

func TestAcceptRejectsMissingFileAndDirectory(t *testing.T) {
	f := newWatcherFixture(t)
	now := time.Now()

	if f.watcher.Accept(filepath.Join(f.watchDir, "gone.dcm"), now) {
		t.Fatal("missing file should be rejected")
	}

	dir := filepath.Join(f.watchDir, "sub.dcm")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if f.watcher.Accept(dir, now) {
		t.Fatal("directory should be rejected")
	}
}

func TestAcceptSuppressesRapidDuplicates(t *testing.T) {
	f := newWatcherFixture(t)
	now := time.Now()
	path := f.newFile(t, "scan.dcm")

	if !f.watcher.Accept(path, now) {
		t.Fatal("first event should be accepted")
	}
	if f.watcher.Accept(path, now.Add(100*time.Millisecond)) {
		t.Fatal("rapid duplicate event should be suppressed")
	}
	if !f.watcher.Accept(path, now.Add(5*time.Second)) {
		t.Fatal("event after the dedup window should be accepted")
	}
}

func TestProcessFileIngestsAndRelocates(t *testing.T) {
	f := newWatcherFixture(t)
	path := f.newFile(t, "scan.dcm")

	f.watcher.ProcessFile(context.Background(), path)

	if len(f.ingestor.records) != 1 {
		t.Fatalf("ingested %d records, want 1", len(f.ingestor.records))
	}
	if f.ingestor.records[0].StudyInstanceUID != "1.2.840.113619.2.55.3.1" {
		t.Fatalf("unexpected record %+v", f.ingestor.records[0])
	}
	if fileExists(path) {
		t.Fatal("source should be gone after processing")
	}
	if !fileExists(filepath.Join(f.processedDir, "scan.dcm")) {
		t.Fatal("file should move to the processed directory")
	}
}

func TestProcessFileDuplicateStillMovesToProcessed(t *testing.T) {
	f := newWatcherFixture(t)
	f.ingestor.result = catalog.IngestDuplicate
	path := f.newFile(t, "scan.dcm")

	f.watcher.ProcessFile(context.Background(), path)

	if !fileExists(filepath.Join(f.processedDir, "scan.dcm")) {
		t.Fatal("duplicate study file should still move to processed")
	}
}

func TestProcessFileExtractionFailureRoutesToError(t *testing.T) {
	f := newWatcherFixture(t)
	f.extractor.err = errors.New("missing PatientID tag")
	path := f.newFile(t, "broken.dcm")

	f.watcher.ProcessFile(context.Background(), path)

	if len(f.ingestor.records) != 0 {
		t.Fatal("unparseable file must not reach the catalog")
	}
	if !fileExists(filepath.Join(f.errorDir, "broken.dcm")) {
		t.Fatal("unparseable file should move to the error directory")
	}
	if fileExists(path) {
		t.Fatal("source should be gone after routing to error")
	}
}

func TestProcessFileIngestFailureRoutesToError(t *testing.T) {
	f := newWatcherFixture(t)
	f.ingestor.err = errors.New("database unavailable")
	path := f.newFile(t, "scan.dcm")

	f.watcher.ProcessFile(context.Background(), path)

	if !fileExists(filepath.Join(f.errorDir, "scan.dcm")) {
		t.Fatal("file should move to the error directory on ingest failure")
	}
	if fileExists(filepath.Join(f.processedDir, "scan.dcm")) {
		t.Fatal("failed file must not land in processed")
	}
}

func TestRunProcessesArrivingFile(t *testing.T) {
	f := newWatcherFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- f.watcher.Run(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	f.newFile(t, "scan.dcm")

	deadline := time.After(3 * time.Second)
	for !fileExists(filepath.Join(f.processedDir, "scan.dcm")) {
		select {
		case <-deadline:
			t.Fatal("arriving file was not processed")
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
}
