package source

import (
	"context"
	"log"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a directory for document changes.
type Watcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
}

func NewWatcher(extensions []string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &Watcher{watcher: w, extensions: extensions}, nil
}

// Watch emits the path of every created or modified document under dir
// until the context is cancelled.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan string, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	changed := make(chan string, 100)

	go func() {
		defer close(changed)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !hasExtension(event.Name, w.extensions) {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				select {
				case changed <- event.Name:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("source: watch error: %v", err)
			}
		}
	}()

	return changed, nil
}

// Stop closes the underlying watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
