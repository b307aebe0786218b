package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"dicomdesk/internal/domain/catalog"
	"dicomdesk/internal/shared/logger"
)

const (
	// How long to wait for a file write to complete.
	writeSettleDelay = 200 * time.Millisecond
	// Maximum number of recent paths tracked for event deduplication.
	maxRecentFiles = 500
	// Minimum interval before re-processing the same path.
	dedupWindow = 2 * time.Second

	watchedExtension = ".dcm"
)

// Watcher observes one directory (non-recursively) for arriving imaging
// files and drives each accepted file through extraction, catalog ingestion
// and relocation. One file's failure never stops the watch loop.
type Watcher struct {
	watchDir  string
	extractor catalog.Extractor
	ingestor  catalog.Ingestor
	mover     *FileMover
	recent    *recencyMap
	logger    logger.Interface

	// settleDelay is shortened in tests.
	settleDelay time.Duration
}

// NewWatcher creates a watcher for the configured ingest directory.
func NewWatcher(
	watchDir string,
	extractor catalog.Extractor,
	ingestor catalog.Ingestor,
	mover *FileMover,
	log logger.Interface,
) *Watcher {
	return &Watcher{
		watchDir:    watchDir,
		extractor:   extractor,
		ingestor:    ingestor,
		mover:       mover,
		recent:      newRecencyMap(maxRecentFiles, dedupWindow),
		logger:      log.Named("ingest.watcher"),
		settleDelay: writeSettleDelay,
	}
}

// Run watches until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.watchDir, 0o755); err != nil {
		return err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(w.watchDir); err != nil {
		return err
	}

	w.logger.Infow("imaging file watcher started", "watch_dir", w.watchDir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Infow("imaging file watcher stopped")
			return ctx.Err()
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Errorw("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.Accept(event.Name, time.Now()) {
		return
	}

	// Let the writer finish before reading.
	select {
	case <-time.After(w.settleDelay):
	case <-ctx.Done():
		return
	}

	w.ProcessFile(ctx, event.Name)
}

// Accept decides whether a notification for the path should be processed:
// the extension must match and the path must not have fired within the dedup
// window.
func (w *Watcher) Accept(path string, now time.Time) bool {
	if strings.ToLower(filepath.Ext(path)) != watchedExtension {
		return false
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return false
	}
	if w.recent.SeenRecently(path, now) {
		w.logger.Debugw("skipping duplicate event", "path", path)
		return false
	}
	return true
}

// ProcessFile runs one file through the pipeline: extract, ingest, relocate.
func (w *Watcher) ProcessFile(ctx context.Context, path string) {
	w.logger.Infow("processing imaging file", "path", path)

	rec, err := w.extractor.ExtractTags(path)
	if err != nil {
		w.logger.Warnw("tag extraction failed, routing to error directory", "path", path, "error", err)
		if _, moveErr := w.mover.MoveToError(path); moveErr != nil {
			w.logger.Errorw("failed to route file to error directory", "path", path, "error", moveErr)
		}
		return
	}

	result, err := w.ingestor.IngestStudy(ctx, *rec, path)
	if err != nil {
		w.logger.Errorw("catalog ingestion failed, routing to error directory", "path", path, "error", err)
		if _, moveErr := w.mover.MoveToError(path); moveErr != nil {
			w.logger.Errorw("failed to route file to error directory", "path", path, "error", moveErr)
		}
		return
	}

	// Both new and duplicate studies leave the watch directory.
	dest, err := w.mover.MoveToProcessed(path)
	if err != nil {
		w.logger.Errorw("failed to relocate processed file", "path", path, "error", err)
		return
	}

	w.logger.Infow("imaging file processed",
		"path", path,
		"dest", dest,
		"result", result,
		"study_instance_uid", rec.StudyInstanceUID,
	)
}
