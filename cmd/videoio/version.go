package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thesyncim/libgovideoio/internal/ffi"
	"github.com/thesyncim/libgovideoio/pkg/videoio"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI, shim and native library versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "videoio %s (shim API %s)\n", Version, ffi.ExpectedShimVersion)
			if err := a.load(); err != nil {
				a.log.WithError(err).Debug("shim not loaded")
				fmt.Fprintln(w, "shim: not loaded")
				return nil
			}
			shim, opencv := videoio.Versions()
			fmt.Fprintf(w, "shim: %s\nopencv: %s\n", shim, opencv)
			return nil
		},
	}
}
