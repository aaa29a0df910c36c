package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/ShayCichocki/orchid/internal/decompose"
)

// TemplateWatcher reloads a domain template file when it changes on disk and
// hands the merged template set to onChange. Editors replace files rather
// than rewriting them in place, so the watcher follows the directory and
// filters events to the target name.
type TemplateWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchTemplates starts watching path. onChange runs on the watcher goroutine
// for every successful reload; parse failures are reported through logf and
// keep the previous template set in effect.
func WatchTemplates(path string, onChange func(map[string]decompose.Template), logf func(format string, args ...any)) (*TemplateWatcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("watch templates: nil onChange")
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch templates: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch templates: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch templates %s: %w", path, err)
	}

	tw := &TemplateWatcher{watcher: watcher, done: make(chan struct{})}
	go tw.loop(abs, onChange, logf)
	return tw, nil
}

func (tw *TemplateWatcher) loop(abs string, onChange func(map[string]decompose.Template), logf func(string, ...any)) {
	defer close(tw.done)

	for {
		select {
		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			templates, err := LoadTemplates(abs)
			if err != nil {
				logf("[templates] reload %s: %v", abs, err)
				continue
			}
			logf("[templates] reloaded %s (%d domains)", abs, len(templates))
			onChange(templates)

		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			logf("[templates] watch error: %v", err)
		}
	}
}

// Close stops the watcher and waits for the watch goroutine to exit.
func (tw *TemplateWatcher) Close() error {
	err := tw.watcher.Close()
	<-tw.done
	return err
}
