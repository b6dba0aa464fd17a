// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"

	"codeberg.org/railsi18n/railsi18n/i18n"
)

// validation errors.
var (
	errWorkspaceNotDirectory = errors.New("workspace root is not a directory")
	errNoFilePatterns        = errors.New("at least one locale file pattern is required")
	errInvalidFilePattern    = errors.New("invalid locale file pattern")
	errInvalidLocale         = errors.New("invalid locale in priorityOfLocales")
	errNoTranslateMethods    = errors.New("at least one translate method is required")
	errNegativeConcurrency   = errors.New("locales.concurrency cannot be negative")
	errNegativeDebounce      = errors.New("debounce durations cannot be negative")
	errInvalidChunkSize      = errors.New("scan.chunkSize must be positive")
	errInvalidMaxLength      = errors.New("annotation lengths must be positive")
	errInvalidCacheSize      = errors.New("cache.size must be positive when the cache is enabled")
	errInvalidLogLevel       = errors.New("invalid log.logLevel")
	errInvalidLogFormat      = errors.New("invalid log.logFormat")
)

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"console", "json"}
)

// validateAndSet validates the configuration and normalizes some fields.
func (cfg *Config) validateAndSet() error {
	root, err := filepath.Abs(cfg.Workspace.Root)
	if err != nil {
		return fmt.Errorf("invalid workspace root %q: %w", cfg.Workspace.Root, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("invalid workspace root: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", errWorkspaceNotDirectory, root)
	}

	cfg.Workspace.Root = root

	if len(cfg.Locales.FilePatterns) == 0 {
		return errNoFilePatterns
	}

	for _, p := range cfg.Locales.FilePatterns {
		if _, err := glob.Compile(p, '/'); err != nil {
			return fmt.Errorf("%w %q: %w", errInvalidFilePattern, p, err)
		}
	}

	for _, locale := range cfg.Locales.PriorityOfLocales {
		if _, err := i18n.ParseLocale(locale); err != nil {
			return fmt.Errorf("%w %q: %w", errInvalidLocale, locale, err)
		}
	}

	if len(cfg.Locales.PriorityOfLocales) == 0 {
		log.Info().Msg("No locale priority configured, the first discovered locale will be the default")
	}

	if cfg.Locales.Concurrency < 0 {
		return errNegativeConcurrency
	}

	if cfg.Locales.ReloadDebounce < 0 || cfg.Scan.EditDebounce < 0 {
		return errNegativeDebounce
	}

	if len(cfg.Methods.Translate) == 0 {
		return errNoTranslateMethods
	}

	if cfg.Scan.ChunkSize <= 0 {
		return errInvalidChunkSize
	}

	if cfg.Annotations.MaxLength <= 0 || cfg.Annotations.HoverMaxLength <= 0 {
		return errInvalidMaxLength
	}

	if cfg.Cache.Enabled && cfg.Cache.Size <= 0 {
		return errInvalidCacheSize
	}

	if !slices.Contains(validLogLevels, cfg.Log.Level) {
		return fmt.Errorf("%w: %q", errInvalidLogLevel, cfg.Log.Level)
	}

	if !slices.Contains(validLogFormats, cfg.Log.Format) {
		return fmt.Errorf("%w: %q", errInvalidLogFormat, cfg.Log.Format)
	}

	return nil
}
