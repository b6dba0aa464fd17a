// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package watch turns file system notifications into reload requests.
//
// It drives store reloads for locale files and, in the watch command,
// document re-checks.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Source lists the directories to watch and decides which files matter.
type Source interface {
	Root() string
	Match(rel string) bool
	Rel(abs string) (string, bool)
	Abs(rel string) string
	WatchDirs(ctx context.Context) ([]string, error)
}

// Reloader is notified when a watched file changes.
type Reloader interface {
	ScheduleReload()
}

const relevantOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Watcher forwards file changes to a Reloader until closed.
type Watcher struct {
	fsw    *fsnotify.Watcher
	src    Source
	target Reloader
	logger zerolog.Logger

	// changeLog and errLog throttle logging during bursts such as a
	// branch checkout touching every watched file.
	changeLog rate.Sometimes
	errLog    rate.Sometimes

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New watches every directory that may hold files of src and starts
// forwarding events to target.
func New(ctx context.Context, src Source, target Reloader) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		fsw:       fsw,
		src:       src,
		target:    target,
		logger:    log.With().Str("sys", "watch").Logger(),
		changeLog: rate.Sometimes{First: 5, Interval: 2 * time.Second},
		errLog:    rate.Sometimes{First: 1, Interval: 10 * time.Second},
		done:      make(chan struct{}),
	}

	dirs, err := src.WatchDirs(ctx)
	if err != nil {
		fsw.Close()

		return nil, err
	}

	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	for _, dir := range dirs {
		if err := fsw.Add(src.Abs(dir)); err != nil {
			fsw.Close()

			return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	w.logger.Info().
		Int("dirs", len(dirs)).
		Str("root", src.Root()).
		Msg("Watching files")

	w.wg.Add(1)

	go w.loop()

	return w, nil
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error

	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})

	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}

			if errors.Is(err, fsnotify.ErrEventOverflow) {
				// Events were lost; reload to be safe.
				w.target.ScheduleReload()
			}

			w.errLog.Do(func() {
				w.logger.Warn().Err(err).Msg("Watcher error")
			})
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&relevantOps == 0 {
		return
	}

	rel, ok := w.src.Rel(event.Name)
	if !ok {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				w.logger.Warn().Err(err).Str("dir", rel).Msg("Failed to watch new directory")
			}

			w.target.ScheduleReload()

			return
		}
	}

	if !w.src.Match(rel) {
		return
	}

	w.changeLog.Do(func() {
		w.logger.Debug().
			Str("path", rel).
			Str("op", event.Op.String()).
			Msg("Watched file changed")
	})

	w.target.ScheduleReload()
}
