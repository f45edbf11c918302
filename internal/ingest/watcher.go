package ingest

import (
	"context"
	"log"

	"github.com/fsnotify/fsnotify"
)

// Watcher ingests supported files as they land in the data directory, so
// dropping a new audit report in place is enough to make it retrievable.
type Watcher struct {
	pipeline *Pipeline
	watcher  *fsnotify.Watcher
	logger   *log.Logger
}

func NewWatcher(pipeline *Pipeline, logger *log.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[WATCH] ", log.LstdFlags)
	}
	return &Watcher{pipeline: pipeline, watcher: w, logger: logger}, nil
}

// Watch monitors dir until ctx is cancelled. Create and write events on
// supported files trigger ingestion; the content-hash check in the
// pipeline absorbs the duplicate events editors tend to emit.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.logger.Printf("watching %s", dir)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				if !Supported(event.Name) {
					continue
				}
				if _, err := w.pipeline.ProcessFile(ctx, event.Name); err != nil {
					w.logger.Printf("ingest %s failed: %v", event.Name, err)
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Printf("watch error: %v", err)
			}
		}
	}()
	return nil
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
