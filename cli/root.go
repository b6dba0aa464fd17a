// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package cli implements the railsi18n command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"codeberg.org/railsi18n/railsi18n/config"
)

var (
	// ErrMissingTranslations is returned by check when some keys lack a
	// translation in the default locale.
	ErrMissingTranslations = errors.New("missing translations")
	// ErrNotFound is returned when a lookup finds nothing.
	ErrNotFound = errors.New("not found")
)

// state is shared by every command of one invocation.
type state struct {
	cfg        *config.Config
	configFile string
	jsonOutput bool
}

// Execute runs the command line against the global configuration.
func Execute(ctx context.Context) error {
	return NewRootCommand(&config.Global).ExecuteContext(ctx)
}

// NewRootCommand returns the railsi18n command tree. cfg is filled from the
// configuration sources before any subcommand runs.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	st := &state{cfg: cfg}

	root := &cobra.Command{
		Use:   "railsi18n",
		Short: "Resolve Rails localization keys",
		Long: `railsi18n resolves the translation keys used in a Rails application
against its locale files.

It understands t/I18n.t calls (including lazy ".key" lookups in views),
Model.human_attribute_name and l/I18n.l date and time formats.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.cfg.LoadConfig(st.configFile)
		},
	}

	root.PersistentFlags().StringVarP(&st.configFile, "config", "c", "", "YAML configuration file (default: ./railsi18n.yaml)")
	root.PersistentFlags().BoolVar(&st.jsonOutput, "json", false, "Print results as JSON")

	root.AddCommand(
		st.versionCommand(),
		st.localesCommand(),
		st.lookupCommand(),
		st.scanCommand(),
		st.checkCommand(),
		st.hoverCommand(),
		st.definitionCommand(),
		st.completeCommand(),
		st.watchCommand(),
	)

	return root
}

// open builds the application for a command run. Callers must close it.
func (st *state) open(ctx context.Context) (*app, error) {
	return newApp(ctx, st.cfg)
}

// emit writes v as JSON when requested, otherwise calls text.
func (st *state) emit(w io.Writer, v any, text func(io.Writer) error) error {
	if !st.jsonOutput {
		return text(w)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	return nil
}
