// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const redactedValue = "[redacted]"

// print logs the version and, at debug level, dumps the effective configuration.
func (cfg *Config) print() {
	log.Debug().
		Str("version", BuildVersion).
		Str("revision", cfg.Build.Revision()).
		Str("workspace", cfg.Workspace.Root).
		Str("configFile", cfg.File).
		Msg("Starting railsi18n")

	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		return
	}

	// Log files may sit in private locations; hide them using a shallow copy.
	printableConfig := *cfg

	outputs := make([]string, 0, len(cfg.Log.Outputs))
	for _, o := range cfg.Log.Outputs {
		if o != "/dev/stdout" && o != "/dev/stderr" {
			o = redactedValue
		}

		outputs = append(outputs, o)
	}

	printableConfig.Log.Outputs = outputs

	configYAML, err := yaml.MarshalWithOptions(
		printableConfig,
		GetDurationEncoderOption(),
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal config to YAML for printing")

		return
	}

	log.Debug().
		Msg("Application configuration:")
	fmt.Fprintln(os.Stderr, string(configYAML))
}
