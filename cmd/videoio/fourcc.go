package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/thesyncim/libgovideoio/pkg/codec"
	"github.com/thesyncim/libgovideoio/pkg/videoio"
)

func newFourccCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fourcc <code|chars>...",
		Short: "Convert between fourcc characters and integer codes",
		Example: `  videoio fourcc MJPG
  videoio fourcc 0x31637661
  videoio fourcc 828601953`,
		Args: cobra.MinimumNArgs(1),
		// No native library needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, arg := range args {
				code, chars := fourccArg(arg)
				fmt.Fprintf(w, "%-4s  %-11d  0x%08x  %s\n", chars, code, uint32(code), codec.FromFourcc(code))
			}
			return nil
		},
	}
}

// fourccArg accepts a decimal or 0x code, or up to four characters.
func fourccArg(arg string) (int32, string) {
	if n, err := strconv.ParseInt(arg, 0, 64); err == nil && n >= -1<<31 && n < 1<<32 {
		code := int32(uint32(n))
		return code, videoio.FourccString(code)
	}
	code := videoio.FourccFromString(arg)
	return code, videoio.FourccString(code)
}
