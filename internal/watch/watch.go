// Package watch supplements §6's -w/--watch flag: a minimal
// fsnotify-based loop that re-invokes the sync driver whenever the
// source tree changes. This sits outside the core pipeline's hard
// part (§1 scopes "watch" out of the interesting problem) but
// a complete repo still needs it wired to something real.
//
// fsnotify was previously only an indirect dependency, pulled in by a
// GUI toolkit but never imported directly; here it becomes a direct,
// exercised one.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"csync/internal/log"
)

// debounce coalesces a burst of filesystem events (e.g. a multi-file
// copy) into a single re-sync.
const debounce = 300 * time.Millisecond

// Run watches root and every directory beneath it, calling onChange
// once per coalesced burst of filesystem activity, until ctx is
// cancelled.
func Run(ctx context.Context, root string, onChange func(ctx context.Context)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addTree(watcher, root); err != nil {
		return err
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			log.Debug("watch event", log.String("path", event.Name), log.String("op", event.Op.String()))

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}

			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			onChange(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", log.Err(err))
		}
	}
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
