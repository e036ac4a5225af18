package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thesyncim/libgovideoio/internal/ffi"
)

func newShimCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shim",
		Short: "Manage the native shim library",
	}
	cmd.AddCommand(newShimInstallCommand(a))
	return cmd
}

func newShimInstallCommand(a *app) *cobra.Command {
	var opts ffi.InstallOptions

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Download and install the prebuilt shim for this platform",
		Example: `  videoio shim install --sha256 <digest>
  videoio shim install --url https://example.com/libvideoio_shim.tar.gz --sha256 <digest>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := a.cfg.InstallOptions()
			if opts.URL == "" {
				opts.URL = defaults.URL
			}
			if opts.SHA256 == "" {
				opts.SHA256 = defaults.SHA256
			}

			a.log.WithField("url", opts.URL).Info("downloading shim")
			path, err := ffi.InstallShim(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("installed"), path)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.URL, "url", "", "Archive URL (default: shim.download_url)")
	flags.StringVar(&opts.SHA256, "sha256", "", "Expected archive SHA-256 (default: shim.sha256)")
	flags.StringVar(&opts.DestDir, "dest", "", "Install directory (default: "+ffi.DefaultInstallDir()+")")
	return cmd
}
