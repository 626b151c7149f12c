package genesis

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// WaitFile polls until a file or directory exists at the given path.
func WaitFile(ctx context.Context, path string) error {
	logger := log.Ctx(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := os.Stat(path); err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("waiting file")
			time.Sleep(5 * time.Second)

			continue
		}

		return nil
	}
}

// WaitDocument blocks until a genesis document exists at the given path and
// loads it. The document file usually appears some time after the node
// starts, written out by whatever provisions the network.
func WaitDocument(ctx context.Context, path string) (*Document, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: the file itself may not exist yet.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return nil, err
	}

	// The file may have appeared before the watch was set up.
	if _, err := os.Stat(path); err == nil {
		return LoadDocument(path)
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case err := <-watcher.Errors:
			return nil, err
		case event := <-watcher.Events:
			if event.Name != path {
				continue
			}

			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			doc, err := LoadDocument(path)
			if err != nil {
				// Partial write; wait for the next event.
				log.Ctx(ctx).Debug().Err(err).Str("path", path).
					Msg("Genesis document not ready yet")

				continue
			}

			return doc, nil
		}
	}
}

// WatchDocument loads the document at the given path and re-delivers it on
// every rewrite until the context is cancelled. Rewrites that fail to parse
// or fail the sanity checks are logged and skipped.
func WatchDocument(ctx context.Context, path string) (<-chan *Document, error) {
	doc, err := WaitDocument(ctx, path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()

		return nil, err
	}

	out := make(chan *Document, 1)
	out <- doc

	go func() {
		defer close(out)
		defer func() { _ = watcher.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case err := <-watcher.Errors:
				log.Ctx(ctx).Error().Err(err).Str("path", path).
					Msg("Genesis watcher failed")

				return
			case event := <-watcher.Events:
				if event.Op&fsnotify.Write == 0 {
					continue
				}

				doc, err := LoadDocument(path)
				if err != nil {
					log.Ctx(ctx).Warn().Err(err).Str("path", path).
						Msg("Skipping malformed genesis rewrite")

					continue
				}

				select {
				case out <- doc:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
