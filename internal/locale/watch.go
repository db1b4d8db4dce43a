package locale

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the bundle set whenever a YAML file in the locale directory
// changes. It blocks until ctx is cancelled and is intended to run in its own
// goroutine.
func (m *Manager) Watch(ctx context.Context, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = watcher.Close()
	}()

	if err := watcher.Add(m.dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isBundleEvent(event) {
				continue
			}

			if err := m.Reload(); err != nil {
				log.Error("locale reload failed", slog.String("file", event.Name), slog.Any("error", err))
				continue
			}

			log.Info("locale bundles reloaded", slog.String("file", event.Name))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("locale watcher error", slog.Any("error", err))
		}
	}
}

func isBundleEvent(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
		return false
	}

	name := strings.ToLower(event.Name)
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
