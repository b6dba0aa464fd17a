// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"
)

// ErrConfigFile is returned when a configuration file exists but cannot be
// used. The error always names the file.
var ErrConfigFile = errors.New("unusable configuration file")

// readYAML overlays the YAML file at path onto cfg. A missing file is not an
// error, so a fresh checkout runs on defaults and the environment alone.
func (cfg *Config) readYAML(path string) error {
	if path == "" {
		return nil
	}

	content, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Info().
			Str("path", path).
			Msg("No configuration file found, using defaults and environment")

		return nil
	case err != nil:
		return fmt.Errorf("%w: %s: %w", ErrConfigFile, path, err)
	}

	cfg.File = path

	if len(bytes.TrimSpace(content)) == 0 {
		log.Debug().Str("path", path).Msg("Configuration file is empty")

		return nil
	}

	if err := yaml.UnmarshalWithOptions(content, cfg, yaml.DisallowUnknownField()); err != nil {
		return fmt.Errorf("%w: %s:\n%s", ErrConfigFile, path, yaml.FormatError(err, false, true))
	}

	log.Debug().
		Str("path", path).
		Int("bytes", len(content)).
		Msg("Loaded configuration file")

	return nil
}
