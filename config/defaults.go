// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"time"

	"codeberg.org/railsi18n/railsi18n/core/keys"
	"codeberg.org/railsi18n/railsi18n/core/scanner"
	"codeberg.org/railsi18n/railsi18n/core/workspace"
	"codeberg.org/railsi18n/railsi18n/i18n"
)

const (
	// Default edit debounce in milliseconds.
	defaultEditDebounceMs = 100
	// Default number of cached scans and hover cards.
	defaultCacheSize = 256
)

// SetDefaults populates the configuration with default values.
func (cfg *Config) SetDefaults() {
	cfg.Workspace.Root = "."

	cfg.Locales.FilePatterns = []string{workspace.DefaultPattern}
	cfg.Locales.PriorityOfLocales = []string{"en"}
	cfg.Locales.ReloadDebounce = i18n.DefaultReloadDebounce
	cfg.Locales.Concurrency = 0

	cfg.Methods.Translate = append([]string(nil), scanner.DefaultTranslateMethods...)
	cfg.Methods.Localize = append([]string(nil), scanner.DefaultLocalizeMethods...)

	hints := keys.DefaultHints()
	cfg.Keys.ViewsRoot = keys.DefaultViewsRoot
	cfg.Keys.AttributeNamespace = keys.DefaultAttributeNamespace
	cfg.Keys.DateSuffixes = hints.DateSuffixes
	cfg.Keys.TimeSuffixes = hints.TimeSuffixes

	cfg.Scan.ChunkSize = scanner.DefaultChunkSize
	cfg.Scan.EditDebounce = defaultEditDebounceMs * time.Millisecond
	cfg.Scan.Include = []string{"app/**/*.{rb,erb,haml,slim}"}

	cfg.Annotations.Enabled = true
	cfg.Annotations.MaxLength = 40
	cfg.Annotations.InPlace = true
	cfg.Annotations.HoverMaxLength = 100

	cfg.Cache.Enabled = true
	cfg.Cache.Size = defaultCacheSize
	cfg.Cache.Compress = false

	cfg.Log.Level = "info"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"

	cfg.Development.InDevelopment = false
	cfg.Development.StrictMissingKeys = false
}
