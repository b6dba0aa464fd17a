// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package config loads the railsi18n configuration from defaults, a YAML
// file, a .env file and RAILSI18N_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Global exposes the loaded configuration.
var Global Config

// ConfigFileEnv names the environment variable that points at the YAML file.
const ConfigFileEnv = "RAILSI18N_CONFIGFILE"

// Config holds the application configuration.
type Config struct {
	Build buildInfo `yaml:"-"`

	// File is the YAML file the configuration was read from, if any.
	File string `yaml:"-"`

	Workspace struct {
		// Root is the Rails application directory.
		Root string `env:"RAILSI18N_WORKSPACE" yaml:"root"`
	} `yaml:"workspace"`

	Locales struct {
		FilePatterns      []string      `env:"RAILSI18N_LOCALE_PATTERNS" yaml:"filePatterns"`
		PriorityOfLocales []string      `env:"RAILSI18N_LOCALES"         yaml:"priorityOfLocales"`
		ReloadDebounce    time.Duration `env:"RAILSI18N_RELOAD_DEBOUNCE" yaml:"reloadDebounce"`
		Concurrency       int           `env:"RAILSI18N_CONCURRENCY"     yaml:"concurrency"`
	} `yaml:"locales"`

	Methods struct {
		Translate []string `env:"RAILSI18N_TRANSLATE_METHODS" yaml:"translate"`
		Localize  []string `env:"RAILSI18N_LOCALIZE_METHODS"  yaml:"localize"`
	} `yaml:"methods"`

	Keys struct {
		ViewsRoot          string   `env:"RAILSI18N_VIEWS_ROOT"          yaml:"viewsRoot"`
		AttributeNamespace string   `env:"RAILSI18N_ATTRIBUTE_NAMESPACE" yaml:"attributeNamespace"`
		DateSuffixes       []string `env:"RAILSI18N_DATE_SUFFIXES"       yaml:"dateSuffixes"`
		TimeSuffixes       []string `env:"RAILSI18N_TIME_SUFFIXES"       yaml:"timeSuffixes"`
	} `yaml:"keys"`

	Scan struct {
		ChunkSize    int           `env:"RAILSI18N_SCAN_CHUNK_SIZE"    yaml:"chunkSize"`
		EditDebounce time.Duration `env:"RAILSI18N_SCAN_EDIT_DEBOUNCE" yaml:"editDebounce"`
		// Include selects the documents checked by the check command.
		Include []string `env:"RAILSI18N_SCAN_INCLUDE" yaml:"include"`
	} `yaml:"scan"`

	Annotations struct {
		Enabled        bool `env:"RAILSI18N_ANNOTATIONS"                 yaml:"enabled"`
		MaxLength      int  `env:"RAILSI18N_ANNOTATION_MAX_LENGTH"       yaml:"maxLength"`
		InPlace        bool `env:"RAILSI18N_ANNOTATION_IN_PLACE"         yaml:"inPlace"`
		HoverMaxLength int  `env:"RAILSI18N_ANNOTATION_HOVER_MAX_LENGTH" yaml:"hoverMaxLength"`
	} `yaml:"annotations"`

	Cache struct {
		Enabled  bool `env:"RAILSI18N_CACHE"          yaml:"enabled"`
		Size     int  `env:"RAILSI18N_CACHE_SIZE"     yaml:"size"`
		Compress bool `env:"RAILSI18N_CACHE_COMPRESS" yaml:"compress"`
	} `yaml:"cache"`

	Log struct {
		Level   string   `env:"RAILSI18N_LOG_LEVEL"   yaml:"logLevel"`
		Outputs []string `env:"RAILSI18N_LOG_OUTPUTS" yaml:"logOutputs"`
		Format  string   `env:"RAILSI18N_LOG_FORMAT"  yaml:"logFormat"`
	} `yaml:"log"`

	Development struct {
		InDevelopment bool `env:"RAILSI18N_DEV" yaml:"inDevelopment"`
		// Strict mode for missing keys.
		//
		// When enabled, each missing (locale, key) lookup is logged once.
		StrictMissingKeys bool `env:"RAILSI18N_STRICT_MISSING_KEYS" yaml:"strictMissingKeys"`
	} `yaml:"development"`
}

// LoadConfig loads the configuration from various sources.
//
// The YAML file is taken from configFilePath when set, then from
// RAILSI18N_CONFIGFILE, then from ./railsi18n.yaml or ./railsi18n.yml.
func (cfg *Config) LoadConfig(configFilePath string) error {
	configFilePath = resolveConfigPath(configFilePath)

	cfg.SetDefaults()

	cfg.Build.load()

	if err := cfg.readYAML(configFilePath); err != nil {
		return fmt.Errorf("error loading YAML config: %w", err)
	}

	if err := useDotEnv(); err != nil {
		return fmt.Errorf("error using .env file: %w", err)
	}

	if err := readEnv(cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := cfg.validateAndSet(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	cfg.setupAudit()

	cfg.print()

	return nil
}

// resolveConfigPath applies the config file precedence.
func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envVar := os.Getenv(ConfigFileEnv); envVar != "" {
		return envVar
	}

	for _, candidate := range []string{"./railsi18n.yaml", "./railsi18n.yml"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// GetDurationEncoderOption returns a YAML encoder option that marshals
// time.Duration into a human-readable string format (e.g., "300ms", "1s").
func GetDurationEncoderOption() yaml.EncodeOption {
	return yaml.CustomMarshaler[time.Duration](
		func(d time.Duration) ([]byte, error) {
			return yaml.Marshal(d.String())
		},
	)
}
