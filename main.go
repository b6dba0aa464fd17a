// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
railsi18n resolves the translation keys of a Rails application against its
locale files.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"codeberg.org/railsi18n/railsi18n/cli"
	"codeberg.org/railsi18n/railsi18n/core/audit"
)

// main is the entry point of the application.
func main() {
	audit.SetDefaultLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.Execute(ctx)

	stop()

	switch {
	case err == nil:
	case errors.Is(err, cli.ErrMissingTranslations), errors.Is(err, cli.ErrNotFound):
		// Already reported on stdout.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	default:
		log.Fatal().Err(err).Msg("railsi18n failed")
	}
}
