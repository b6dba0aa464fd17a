// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"codeberg.org/railsi18n/railsi18n/i18n"
)

type localeRow struct {
	Locale  string `json:"locale"`
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

func (st *state) localesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "locales",
		Short: "List the loaded locales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := st.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			def, _ := a.store.DefaultLocale()

			var rows []localeRow
			for _, locale := range a.store.AvailableLocales() {
				rows = append(rows, localeRow{
					Locale:  locale,
					Name:    i18n.DisplayName(locale),
					Default: locale == def,
				})
			}

			return st.emit(cmd.OutOrStdout(), rows, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

				for _, row := range rows {
					marker := ""
					if row.Default {
						marker = "(default)"
					}

					fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Locale, row.Name, marker)
				}

				return tw.Flush()
			})
		},
	}
}
