// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"codeberg.org/railsi18n/railsi18n/core/audit"
	"codeberg.org/railsi18n/railsi18n/core/localefile"
)

// FileError records a locale file that was skipped during a load.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// LoadReport summarizes one load.
type LoadReport struct {
	Files    int
	Locales  []string
	Keys     int
	Skipped  []FileError
	Duration time.Duration
}

// Load discovers, parses and merges every locale file, then publishes the
// result atomically.
//
// Files are parsed in parallel and merged in discovery order, so for a key
// defined by several files of one locale the last discovered file wins.
// Malformed files are skipped and listed in the report. Discovery or read
// failures reject the whole load and keep the previous tables.
//
// Concurrent callers share a single in-flight load.
func (s *Store) Load(ctx context.Context) (LoadReport, error) {
	if s.State() == StateDisposed {
		return LoadReport{}, ErrDisposed
	}

	v, err, _ := s.loads.Do("load", func() (any, error) {
		report, err := s.load(ctx)
		s.notify(report, err)

		return report, err
	})

	report, _ := v.(LoadReport)

	return report, err
}

func (s *Store) load(ctx context.Context) (LoadReport, error) {
	start := time.Now()

	if !s.enterLoading() {
		return LoadReport{}, ErrDisposed
	}

	snap, report, err := s.build(ctx)
	report.Duration = time.Since(start)

	if err != nil {
		s.leaveLoading(false)

		s.logger.Error().
			Err(err).
			Msg("Failed to load locale files, keeping previous translations")

		return report, err
	}

	if s.State() == StateDisposed {
		return report, ErrDisposed
	}

	s.snap.Store(snap)

	if s.State() == StateDisposed {
		s.snap.Store(nil)

		return report, ErrDisposed
	}

	s.generation.Add(1)
	s.leaveLoading(true)

	s.logger.Info().
		Int("files", report.Files).
		Strs("locales", report.Locales).
		Int("keys", report.Keys).
		Int("skipped", len(report.Skipped)).
		Dur("took", report.Duration).
		Msg("Loaded locale files")

	return report, nil
}

// enterLoading moves to StateLoading unless the store is disposed.
func (s *Store) enterLoading() bool {
	for {
		cur := s.state.Load()
		if State(cur) == StateDisposed {
			return false
		}

		if s.state.CompareAndSwap(cur, int32(StateLoading)) {
			return true
		}
	}
}

// leaveLoading settles the state after a load attempt.
func (s *Store) leaveLoading(ok bool) {
	next := StateEmpty
	if ok || s.snap.Load() != nil {
		next = StateReady
	}

	s.state.CompareAndSwap(int32(StateLoading), int32(next))
}

func (s *Store) build(ctx context.Context) (*snapshot, LoadReport, error) {
	var report LoadReport

	files, err := s.source.Discover(ctx)
	if err != nil {
		return nil, report, fmt.Errorf("discover locale files: %w", err)
	}

	report.Files = len(files)

	parsed := make([][]localefile.Table, len(files))
	skipped := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	if s.opts.Concurrency > 0 {
		g.SetLimit(s.opts.Concurrency)
	}

	for i, path := range files {
		g.Go(func() error {
			span := audit.Span{Op: audit.OpParse, Path: path}
			sctx := span.Begin(gctx)

			defer func() {
				span.End()
				span.Log()
			}()

			data, err := s.source.ReadFile(sctx, path)
			if err != nil {
				span.Error = err

				return fmt.Errorf("read locale file %s: %w", path, err)
			}

			span.Bytes = len(data)

			tables, err := localefile.Parse(s.definingPath(path), data, s.opts.Locales)
			if err != nil {
				span.Error = err

				if errors.Is(err, localefile.ErrMalformed) || errors.Is(err, localefile.ErrUnsupportedFormat) {
					skipped[i] = err
					return nil
				}

				return err
			}

			parsed[i] = tables

			for _, tbl := range tables {
				span.Entries += len(tbl.Entries)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, report, err
	}

	snap := &snapshot{tables: make(map[string]map[string]Translation)}

	for i, tables := range parsed {
		if skipped[i] != nil {
			report.Skipped = append(report.Skipped, FileError{Path: files[i], Err: skipped[i]})

			s.logger.Warn().
				Err(skipped[i]).
				Str("path", files[i]).
				Msg("Skipping malformed locale file")

			continue
		}

		for _, tbl := range tables {
			dst, ok := snap.tables[tbl.Locale]
			if !ok {
				dst = make(map[string]Translation, len(tbl.Entries))
				snap.tables[tbl.Locale] = dst
				snap.order = append(snap.order, tbl.Locale)
			}

			for k, tr := range tbl.Entries {
				dst[k] = tr
			}
		}
	}

	report.Locales = append([]string(nil), snap.order...)

	if locale, ok := snap.defaultLocale(s.opts.Locales); ok {
		report.Keys = len(snap.tables[locale])
	}

	return snap, report, nil
}

// ScheduleReload requests a reload after the debounce period. Triggers
// arriving while a reload runs are coalesced into one more reload.
func (s *Store) ScheduleReload() {
	if s.State() == StateDisposed {
		return
	}

	s.debouncer.Trigger()
}

func (s *Store) runReload() {
	s.reloadMu.Lock()
	if s.reloading {
		s.pending = true
		s.reloadMu.Unlock()

		return
	}

	s.reloading = true
	s.reloadMu.Unlock()

	for {
		if _, err := s.Load(context.Background()); errors.Is(err, ErrDisposed) {
			s.reloadMu.Lock()
			s.reloading, s.pending = false, false
			s.reloadMu.Unlock()

			return
		}

		s.reloadMu.Lock()
		if !s.pending {
			s.reloading = false
			s.reloadMu.Unlock()

			return
		}

		s.pending = false
		s.reloadMu.Unlock()
	}
}

// definingPath is the path recorded on translations parsed from path.
func (s *Store) definingPath(path string) string {
	if abs, ok := s.source.(AbsSource); ok {
		return abs.Abs(path)
	}

	return path
}

func (s *Store) notify(report LoadReport, err error) {
	s.hooksMu.Lock()
	hooks := slices.Clone(s.hooks)
	s.hooksMu.Unlock()

	for _, fn := range hooks {
		fn(report, err)
	}
}
