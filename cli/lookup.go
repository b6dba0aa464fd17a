// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"codeberg.org/railsi18n/railsi18n/core/resolve"
)

func (st *state) lookupCommand() *cobra.Command {
	var (
		locale string
		all    bool
		file   string
	)

	cmd := &cobra.Command{
		Use:   "lookup KEY",
		Short: "Look up a translation key",
		Long: `Look up a translation key in the default locale.

Lazy keys such as ".title" need --file, the view they are used in.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			doc := resolve.Document{}
			if file != "" {
				if doc.Path, err = filepath.Abs(file); err != nil {
					return fmt.Errorf("invalid path %s: %w", file, err)
				}
			}

			key := args[0]
			w := cmd.OutOrStdout()

			switch {
			case all:
				res, ok := a.resolver.MultiLocaleForKey(doc, key)
				if !ok {
					return fmt.Errorf("%w: cannot resolve %q", ErrNotFound, key)
				}

				return st.emit(w, res, func(w io.Writer) error {
					return a.printMulti(w, res)
				})

			case locale != "":
				matched, ok := a.store.MatchLocale(locale)
				if !ok {
					return fmt.Errorf("%w: locale %q", ErrNotFound, locale)
				}

				res, ok := a.resolver.ForKey(doc, key)
				if !ok {
					return fmt.Errorf("%w: cannot resolve %q", ErrNotFound, key)
				}

				tr, found := a.store.GetByLocale(res.NormalizedKey, matched)
				res.Locale, res.Found, res.Translation = matched, found, tr

				return a.printResult(w, st, res)

			default:
				res, ok := a.resolver.ForKey(doc, key)
				if !ok {
					return fmt.Errorf("%w: cannot resolve %q", ErrNotFound, key)
				}

				return a.printResult(w, st, res)
			}
		},
	}

	cmd.Flags().StringVarP(&locale, "locale", "l", "", "Look up in this locale instead of the default one")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Look up in every configured locale")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Document the key is used in, for lazy keys")
	cmd.MarkFlagsMutuallyExclusive("locale", "all")

	return cmd
}

func (a *app) printResult(w io.Writer, st *state, res resolve.Result) error {
	if err := st.emit(w, res, func(w io.Writer) error {
		if !res.Found {
			fmt.Fprintf(w, "%s\t%s\n", res.NormalizedKey, resolve.MissingText)

			return nil
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s:%s\n",
			res.NormalizedKey, res.Locale, res.Translation.Value,
			a.relPath(res.Translation.Path), res.Translation.Range.Start)

		return nil
	}); err != nil {
		return err
	}

	if !res.Found {
		return fmt.Errorf("%w: %s", ErrNotFound, res.NormalizedKey)
	}

	return nil
}

func (a *app) printMulti(w io.Writer, res resolve.MultiResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\n", res.NormalizedKey)

	for _, row := range res.Locales {
		if row.Translation == nil {
			fmt.Fprintf(tw, "  %s\t%s\t\n", row.Locale, resolve.MissingText)

			continue
		}

		fmt.Fprintf(tw, "  %s\t%s\t%s:%s\n",
			row.Locale, row.Translation.Value,
			a.relPath(row.Translation.Path), row.Translation.Range.Start)
	}

	return tw.Flush()
}
