package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"skillgate/internal/config"
	"skillgate/internal/report"
)

func newVersionCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := map[string]string{
				"version": config.Version,
				"commit":  config.Commit,
				"date":    config.Date,
			}
			return report.Encode(cmd.OutOrStdout(), info, flags.format(), func(w io.Writer) {
				fmt.Fprintf(w, "skillgate %s\ncommit: %s\nbuilt at: %s\n", config.Version, config.Commit, config.Date)
			})
		},
	}
}
