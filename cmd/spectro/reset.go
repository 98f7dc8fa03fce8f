package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teslashibe/go-spectro/pkg/camera"
)

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete archived frames and rendered plots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, dir := range []string{a.cfg.Camera.ArchiveDir, a.cfg.Display.ResultDir} {
				if dir == "" {
					continue
				}
				n, err := camera.Purge(dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "🧹 %s: removed %d files\n", dir, n)
			}
			return nil
		},
	}
}
