package config

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Editors often write a file in several bursts; events closer than this are merged.
const tuningDebounce = 100 * time.Millisecond

// WatchTuning reloads path over base whenever it changes and hands every
// valid result to apply. Invalid files are logged and skipped, the previous tuning stays in
// effect. It blocks until ctx is done.
//
// The parent directory is watched rather than the file so atomic saves
// (write temp, rename over) are seen.
func WatchTuning(ctx context.Context, path string, base Tuning, apply func(Tuning)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	// Reload once the file has been quiet for tuningDebounce.
	timer := time.NewTimer(tuningDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if name, _ := filepath.Abs(event.Name); name != target {
				continue
			}
			timer.Reset(tuningDebounce)

		case <-timer.C:
			t, err := LoadTuning(base, target)
			if err != nil {
				log.Printf("⚠️ Tuning reload failed: %v", err)
				continue
			}
			log.Printf("🔧 Tuning reloaded from %s", target)
			apply(t)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("⚠️ Tuning watcher error: %v", err)
		}
	}
}
