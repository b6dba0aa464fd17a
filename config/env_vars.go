// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

const (
	maxEnvironmentKeyValueParts = 2
	minQuotedValueLength        = 2
)

// readEnv overrides cfg with every RAILSI18N_* variable that is set.
// Lists are comma separated; unset variables keep the current value.
func readEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.Locales.FilePatterns = trimList(cfg.Locales.FilePatterns)
	cfg.Locales.PriorityOfLocales = trimList(cfg.Locales.PriorityOfLocales)
	cfg.Methods.Translate = trimList(cfg.Methods.Translate)
	cfg.Methods.Localize = trimList(cfg.Methods.Localize)
	cfg.Scan.Include = trimList(cfg.Scan.Include)

	return nil
}

// trimList drops blank entries and surrounding whitespace.
func trimList(values []string) []string {
	out := make([]string, 0, len(values))

	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}

// useDotEnv loads environment variables from a .env file, checking
// the current working directory, then the directory of the binary.
//
// This function soft fails if the .env file doesn't exist in either location.
func useDotEnv() error {
	var dirs []string

	if cwd, err := os.Getwd(); err != nil {
		log.Warn().
			Err(err).
			Msg("Could not get current working directory")
	} else {
		dirs = append(dirs, cwd)
	}

	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}

	for _, dir := range dirs {
		loaded, err := tryLoadDotEnv(filepath.Join(dir, ".env"))
		if err != nil {
			return err
		}

		if loaded {
			return nil
		}
	}

	log.Debug().Msg("No .env file found, skipping")

	return nil
}

// tryLoadDotEnv loads a .env file. Variables already present in the
// environment are left untouched.
//
// It reports whether the file existed. Unreadable files are logged and skipped.
func tryLoadDotEnv(envPath string) (bool, error) {
	// #nosec G304 - envPath is controlled and comes from known safe sources
	data, err := os.ReadFile(envPath)
	if os.IsNotExist(err) {
		return false, nil
	}

	if err != nil {
		log.Warn().
			Err(err).
			Str("path", envPath).
			Msg("Could not read .env file")

		return false, nil
	}

	for lineNumber, rawLine := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		line = strings.TrimPrefix(line, "export ")

		parts := strings.SplitN(line, "=", maxEnvironmentKeyValueParts)
		if len(parts) != maxEnvironmentKeyValueParts {
			log.Warn().
				Str("path", envPath).
				Int("line", lineNumber+1).
				Str("content", line).
				Msg("Invalid format in .env file")

			continue
		}

		key, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		// Strip matching quotes
		if len(value) >= minQuotedValueLength && value[0] == value[len(value)-1] && (value[0] == '"' || value[0] == '\'') {
			value = value[1 : len(value)-1]
		}

		if _, set := os.LookupEnv(key); set {
			continue
		}

		if err := os.Setenv(key, value); err != nil {
			return true, fmt.Errorf("could not set %s from %s: %w", key, envPath, err)
		}
	}

	log.Info().
		Str("path", envPath).
		Msg("Loaded configuration from .env file")

	return true, nil
}
