package webconfig

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the bursts of events editors emit for a single
// save.
const watchDebounce = 100 * time.Millisecond

// Watch assembles the configuration once, then again every time the
// template folder changes, passing each result to onChange. It blocks
// until ctx is done. Assembly errors are delivered to onChange rather
// than ending the watch.
func Watch(ctx context.Context, env Environment, argv Arguments, onChange func(*Config, error)) error {
	locs := env.Locations
	if locs == nil {
		var err error
		if locs, err = DefaultLocations(env.ProjectRoot); err != nil {
			return err
		}
		env.Locations = locs
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(locs.Template.Folder); err != nil {
		return fmt.Errorf("watching %s: %w", locs.Template.Folder, err)
	}

	onChange(Assemble(env, argv))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", locs.Template.Folder, err)
		case <-pending:
			pending = nil
			onChange(Assemble(env, argv))
		}
	}
}
