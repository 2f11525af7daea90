// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "aplybot %s\n", Version)
			fmt.Fprintln(out, LabelStyle.Render("commit")+GitCommit)
			fmt.Fprintln(out, LabelStyle.Render("built")+BuildDate)
			fmt.Fprintln(out, LabelStyle.Render("go")+runtime.Version())
		},
	}
}
