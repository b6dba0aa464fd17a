// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"codeberg.org/railsi18n/railsi18n/core/debounce"
	"codeberg.org/railsi18n/railsi18n/core/watch"
	"codeberg.org/railsi18n/railsi18n/core/workspace"
	"codeberg.org/railsi18n/railsi18n/i18n"
)

// editTrigger adapts a Debouncer to watch.Reloader.
type editTrigger struct {
	*debounce.Debouncer
}

func (t editTrigger) ScheduleReload() {
	t.Trigger()
}

// closerFunc adapts a function to io.Closer.
type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}

func (st *state) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep checking documents while locale files and documents change",
		Long: `Load the locale files, then reload them whenever they change and
re-check every document matching scan.include after each reload or edit.

Edits are coalesced using scan.editDebounce, locale reloads using
locales.reloadDebounce. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := st.open(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			return a.watch(ctx, cmd.OutOrStdout())
		},
	}
}

// watch blocks until ctx is done. Everything it starts is attached to the
// store and released by close.
func (a *app) watch(ctx context.Context, w io.Writer) error {
	docs, err := workspace.Open(a.source.Root(), a.cfg.Scan.Include)
	if err != nil {
		return err
	}

	var mu sync.Mutex

	recheck := debounce.New(a.cfg.Scan.EditDebounce, func() {
		mu.Lock()
		defer mu.Unlock()

		report, err := a.check(ctx, docs, "")
		if err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msg("Failed to check documents")
			}

			return
		}

		for _, m := range report.Missing {
			fmt.Fprintln(w, m)
		}

		fmt.Fprintf(w, "%d files checked, %d missing translations\n", report.Files, len(report.Missing))
	})

	a.store.Attach(closerFunc(func() error {
		recheck.Stop()

		return nil
	}))

	a.store.OnLoad(func(report i18n.LoadReport, err error) {
		if err != nil {
			log.Warn().Err(err).Msg("Reload failed, keeping previous translations")

			return
		}

		log.Info().
			Int("files", report.Files).
			Int("keys", report.Keys).
			Int("skipped", len(report.Skipped)).
			Msg("Reloaded locale files")

		recheck.Trigger()
	})

	localeWatcher, err := watch.New(ctx, a.source, a.store)
	if err != nil {
		return err
	}

	a.store.Attach(localeWatcher)

	docWatcher, err := watch.New(ctx, docs, editTrigger{recheck})
	if err != nil {
		return err
	}

	a.store.Attach(docWatcher)

	recheck.Trigger()

	<-ctx.Done()

	return nil
}
