package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Roots       []string      // directories to watch (recursive)
	InitialScan bool          // if true, walk roots and emit existing files
	Debounce    time.Duration // coalesce rapid create/write bursts while a file is copied in
}

// StartWatcher emits paths of accepted, non-hidden files created or written under the roots.
// Both channels close when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		logger.Error("watcher start failed: no roots provided")
		return nil, nil, errors.New("no roots provided")
	}
	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}

	var initial []string
	addDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if path != root && IsHidden(path) {
					return filepath.SkipDir
				}
				return w.Add(path)
			}
			if cfg.InitialScan && wanted(path) {
				initial = append(initial, path)
			}
			return nil
		})
	}
	for _, r := range cfg.Roots {
		if err := addDir(r); err != nil {
			logger.Error("failed to add root directory", "root", r, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}

	go func() {
		flush := make(chan struct{}, 1)
		var timer *time.Timer
		pending := map[string]struct{}{}
		defer func() {
			if timer != nil {
				timer.Stop()
			}
			close(evCh)
			close(errCh)
			if err := w.Close(); err != nil {
				logger.Warn("failed to close watcher", "error", err)
			}
		}()

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		sendPending := func() bool {
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			for _, p := range batch {
				delete(pending, p)
				if !emit(p) {
					return false
				}
			}
			return true
		}

		for _, p := range initial {
			if !emit(p) {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-flush:
				if !sendPending() {
					return
				}
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&fsnotify.Create == fsnotify.Create {
					if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
						if !IsHidden(e.Name) {
							if err := w.Add(e.Name); err != nil {
								logger.Warn("failed to add new directory to watcher", "path", e.Name, "error", err)
							}
						}
						continue
					}
				}
				if !wanted(e.Name) || e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce <= 0 {
					if !sendPending() {
						return
					}
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(cfg.Debounce, func() {
					select {
					case flush <- struct{}{}:
					default:
					}
				})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

func wanted(path string) bool {
	return !IsHidden(path) && AllowedExt(filepath.Ext(path))
}

// Watch ingests every file the watcher reports until ctx is done.
func (i *Ingestor) Watch(ctx context.Context, cfg WatchConfig) error {
	events, errs, err := StartWatcher(ctx, cfg, i.logger)
	if err != nil {
		return err
	}
	i.logger.Info("ingest.watch.started", "roots", cfg.Roots)
	for {
		select {
		case p, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			if _, err := i.IngestPath(ctx, p); err != nil {
				i.logger.Warn("ingest.watch.skip", "path", p, "error", err)
			}
		case err, ok := <-errs:
			if ok && err != nil {
				i.logger.Warn("ingest.watch.error", "error", err)
			}
		}
	}
}
