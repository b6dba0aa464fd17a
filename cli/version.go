// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"codeberg.org/railsi18n/railsi18n/config"
)

func (st *state) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()

			fmt.Fprintf(w, "railsi18n %s\n", config.BuildVersion)
			fmt.Fprintf(w, "  Revision:   %s\n", st.cfg.Build.Revision())

			goVersion := st.cfg.Build.GoVersion
			if goVersion == "" {
				goVersion = runtime.Version()
			}

			fmt.Fprintf(w, "  Go Version: %s\n", goVersion)
			fmt.Fprintf(w, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)

			if st.cfg.File != "" {
				fmt.Fprintf(w, "  Config:     %s\n", st.cfg.File)
			}

			return nil
		},
	}
}
