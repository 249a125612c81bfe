package hlms

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/shader"
	"github.com/fsnotify/fsnotify"
)

func (h *hlms) WatchLibraries(ctx context.Context, dirs ...string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("hlms: start watcher: %w", err)
	}
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return w.Add(p)
			}
			return nil
		})
		if err != nil {
			w.Close()
			return fmt.Errorf("hlms: watch %s: %w", dir, err)
		}
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Ext(ev.Name) != shader.PieceExt {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
					continue
				}
				h.ClearShaderCache()
				h.logger.Info("hlms: shader piece changed, cache cleared", "name", h.typeName, "file", ev.Name, "op", ev.Op.String())
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				h.logger.Warn("hlms: watcher error", "error", err)
			}
		}
	}()
	return nil
}
