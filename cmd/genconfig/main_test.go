// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/railsi18n/railsi18n/config"
)

func TestRenderEnv(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.SetDefaults()

	out := renderEnv(cfg)

	assert.Contains(t, out, "## Locales\n")
	assert.Contains(t, out, "RAILSI18N_WORKSPACE=\".\"\n")
	assert.Contains(t, out, "# RAILSI18N_LOCALES=en\n")
	assert.Contains(t, out, "# RAILSI18N_TRANSLATE_METHODS=t,I18n.t,I18n.translate,translate\n")
	assert.Contains(t, out, "# RAILSI18N_RELOAD_DEBOUNCE=300ms\n")
	assert.NotContains(t, out, "## Build")
}

func TestRenderYAML(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.SetDefaults()

	out, err := renderYAML(cfg)
	require.NoError(t, err)

	assert.Contains(t, out, "\nlocales:\n")
	assert.Contains(t, out, "  # reloadDebounce: 300ms\n")
	assert.Contains(t, out, "  # maxLength: 40\n")
	assert.NotContains(t, out, "build:")
}
