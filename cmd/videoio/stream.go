package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thesyncim/libgovideoio/pkg/wsstream"
)

func newStreamCommand(a *app) *cobra.Command {
	var (
		src sourceOptions
		url string
	)

	cmd := &cobra.Command{
		Use:   "stream <source>",
		Short: "Send a source's encoded packets to a websocket endpoint",
		Long: `stream opens the source in raw packet mode, so no decoding happens, and
sends each encoded packet as one binary websocket message.`,
		Example: `  videoio stream input.mp4 --url ws://localhost:8080/ingest
  videoio stream --camera 0 --api v4l2 --url ws://recorder.local/ingest`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src.raw = true
			c, err := a.open(args[0], src)
			if err != nil {
				return err
			}
			defer c.Close()

			s, err := wsstream.Dial(cmd.Context(), url, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.Stream(cmd.Context(), c)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d packets\n", color.GreenString("sent"), n)
			return err
		},
	}

	src.register(cmd)
	cmd.Flags().StringVar(&url, "url", "ws://localhost:8080/ingest", "Websocket endpoint")
	return cmd
}
