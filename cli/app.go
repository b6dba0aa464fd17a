// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"codeberg.org/railsi18n/railsi18n/config"
	"codeberg.org/railsi18n/railsi18n/core/keys"
	"codeberg.org/railsi18n/railsi18n/core/lrucache"
	"codeberg.org/railsi18n/railsi18n/core/resolve"
	"codeberg.org/railsi18n/railsi18n/core/scanner"
	"codeberg.org/railsi18n/railsi18n/core/workspace"
	"codeberg.org/railsi18n/railsi18n/i18n"
)

// app wires the locale store and the resolver for one command run.
type app struct {
	cfg      *config.Config
	source   *workspace.Source
	store    *i18n.Store
	scanner  *scanner.Scanner
	keys     *keys.Normalizer
	cache    *lrucache.Cache
	resolver *resolve.Resolver
}

// newApp builds every component from cfg and performs the initial load.
//
// A load that skips malformed files still succeeds; the skipped files are
// logged. Discovery and read failures are returned.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	src, err := workspace.Open(cfg.Workspace.Root, cfg.Locales.FilePatterns)
	if err != nil {
		return nil, err
	}

	store, err := i18n.New(src, i18n.Options{
		Locales:           cfg.Locales.PriorityOfLocales,
		Concurrency:       cfg.Locales.Concurrency,
		ReloadDebounce:    cfg.Locales.ReloadDebounce,
		StrictMissingKeys: cfg.Development.StrictMissingKeys,
	})
	if err != nil {
		return nil, err
	}

	sc, err := scanner.New(scanner.Config{
		TranslateMethods: cfg.Methods.Translate,
		LocalizeMethods:  cfg.Methods.Localize,
		ChunkSize:        cfg.Scan.ChunkSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compile call patterns: %w", err)
	}

	a := &app{
		cfg:     cfg,
		source:  src,
		store:   store,
		scanner: sc,
		keys: &keys.Normalizer{
			WorkspaceRoot:      src.Root(),
			ViewsRoot:          cfg.Keys.ViewsRoot,
			AttributeNamespace: cfg.Keys.AttributeNamespace,
			Hints: keys.Hints{
				DateSuffixes: cfg.Keys.DateSuffixes,
				TimeSuffixes: cfg.Keys.TimeSuffixes,
			},
		},
	}

	if cfg.Cache.Enabled {
		a.cache, err = lrucache.New(cfg.Cache.Size, cfg.Cache.Compress)
		if err != nil {
			return nil, err
		}
	}

	a.resolver = resolve.New(store, sc, a.keys, a.cache, resolve.Options{
		MaxLength:      cfg.Annotations.MaxLength,
		HoverMaxLength: cfg.Annotations.HoverMaxLength,
	})

	report, err := store.Load(ctx)
	if err != nil {
		store.Dispose()

		return nil, fmt.Errorf("failed to load locale files: %w", err)
	}

	for _, skipped := range report.Skipped {
		log.Warn().
			Str("path", skipped.Path).
			Err(skipped.Err).
			Msg("Skipped locale file")
	}

	log.Debug().
		Int("files", report.Files).
		Strs("locales", report.Locales).
		Int("keys", report.Keys).
		Dur("took", report.Duration).
		Msg("Loaded locale files")

	return a, nil
}

// close releases the store and everything attached to it.
func (a *app) close() {
	a.store.Dispose()

	if a.cache != nil {
		stats := a.cache.Stats()

		log.Debug().
			Uint64("hits", stats.Hits).
			Uint64("misses", stats.Misses).
			Uint64("evictions", stats.Evictions).
			Msg("Cache statistics")
	}
}

// readDocument loads a source file given on the command line.
func (a *app) readDocument(name string) (resolve.Document, error) {
	path, err := filepath.Abs(name)
	if err != nil {
		return resolve.Document{}, fmt.Errorf("invalid path %s: %w", name, err)
	}

	content, err := os.ReadFile(path) // #nosec G304 -- user supplied document
	if err != nil {
		return resolve.Document{}, fmt.Errorf("failed to read %s: %w", name, err)
	}

	return resolve.Document{Path: path, Text: string(content)}, nil
}

// relPath shortens paths below the workspace root for display.
func (a *app) relPath(path string) string {
	if rel, ok := a.source.Rel(path); ok {
		return rel
	}

	return path
}
