// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Command genconfig writes example configuration files from the defaults.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"codeberg.org/railsi18n/railsi18n/config"
	"codeberg.org/railsi18n/railsi18n/core/audit"
)

const (
	envOutputFile  = "deploy/.env.example"
	yamlOutputFile = "deploy/railsi18n.yaml.example"
	filePerm       = 0o644
	dirPerm        = 0o755

	envFileHeader = `# railsi18n configuration (via environment variables)
#
# Copy this file to .env and customize the values below.
# Lists are comma separated.
#
# This file was auto-generated using go run ./cmd/genconfig.

`
	yamlFileHeader = `# railsi18n configuration (via configuration file)
#
# Copy this file to railsi18n.yaml in your Rails application and customize
# the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.
`
)

func main() {
	audit.SetDefaultLogger()

	cfg := &config.Config{}
	cfg.SetDefaults()

	yamlContent, err := renderYAML(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal config to YAML")
	}

	writeFile(envOutputFile, renderEnv(cfg))
	writeFile(yamlOutputFile, yamlContent)
}

func writeFile(path, content string) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to create output directory")
	}

	if err := os.WriteFile(path, []byte(content), filePerm); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to write example file")
	}

	log.Info().Str("path", path).Msg("Successfully generated example file")
}

// renderEnv lists every RAILSI18N_* variable with its default, grouped by section.
func renderEnv(cfg *config.Config) string {
	var sb strings.Builder
	sb.WriteString(envFileHeader)

	val := reflect.ValueOf(*cfg)
	typ := val.Type()

	// Iterate over the top-level struct fields.
	for i := range typ.NumField() {
		structField := typ.Field(i)
		structValue := val.Field(i)

		if structValue.Kind() != reflect.Struct || structField.Name == "Build" {
			continue
		}

		fmt.Fprintf(&sb, "## %s\n", structField.Name)

		// Iterate over the fields of the nested struct.
		innerTyp := structValue.Type()
		for j := range innerTyp.NumField() {
			field := innerTyp.Field(j)
			value := structValue.Field(j)

			tag, ok := field.Tag.Lookup("env")
			if !ok {
				continue
			}

			envVarName := strings.Split(tag, ",")[0]

			switch {
			case envVarName == "RAILSI18N_WORKSPACE":
				// The one setting most users change.
				fmt.Fprintf(&sb, "%s=\"%v\"\n", envVarName, value.Interface())
			case value.Kind() == reflect.Slice:
				fmt.Fprintf(&sb, "# %s=%s\n", envVarName, joinSlice(value))
			case value.Kind() == reflect.String && value.Len() == 0:
				fmt.Fprintf(&sb, "# %s=\n", envVarName)
			default:
				fmt.Fprintf(&sb, "# %s=%v\n", envVarName, value.Interface())
			}
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

func joinSlice(v reflect.Value) string {
	parts := make([]string, 0, v.Len())
	for i := range v.Len() {
		parts = append(parts, fmt.Sprint(v.Index(i).Interface()))
	}

	return strings.Join(parts, ",")
}

// renderYAML marshals the defaults into a fully commented template.
func renderYAML(cfg *config.Config) (string, error) {
	var yamlContent strings.Builder

	encoderOpts := []yaml.EncodeOption{
		config.GetDurationEncoderOption(),
		yaml.Indent(2),
	}
	if err := yaml.NewEncoder(&yamlContent, encoderOpts...).Encode(cfg); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(yamlFileHeader)

	// Process the marshaled YAML line-by-line to create a clean template.
	for line := range strings.SplitSeq(yamlContent.String(), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// Top-level keys (e.g., "locales:") are treated as section headers.
		if !strings.HasPrefix(line, " ") {
			fmt.Fprintf(&sb, "\n%s\n", line)
			continue
		}

		// By default, comment out the line.
		indentSize := len(line) - len(strings.TrimLeft(line, " "))
		fmt.Fprintf(&sb, "%s# %s\n", strings.Repeat(" ", indentSize), trimmed)
	}

	return sb.String(), nil
}
