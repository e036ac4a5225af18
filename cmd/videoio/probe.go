package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thesyncim/libgovideoio/pkg/codec"
	"github.com/thesyncim/libgovideoio/pkg/frame"
	"github.com/thesyncim/libgovideoio/pkg/videoio"
)

func newProbeCommand(a *app) *cobra.Command {
	var (
		src    sourceOptions
		frames int
	)

	cmd := &cobra.Command{
		Use:   "probe <source>",
		Short: "Open a file, URL or camera and print its properties",
		Example: `  videoio probe input.mp4
  videoio probe --camera 0 --api v4l2
  videoio probe rtsp://camera.local/stream --frames 30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.open(args[0], src)
			if err != nil {
				return err
			}
			defer c.Close()
			return probe(cmd.OutOrStdout(), c, frames)
		},
	}

	src.register(cmd)
	cmd.Flags().IntVarP(&frames, "frames", "n", 0, "Decode this many frames and report their format")
	return cmd
}

func probe(w io.Writer, c *videoio.VideoCapture, frames int) error {
	backend, err := c.BackendName()
	if err != nil {
		return err
	}
	props := []struct {
		label string
		prop  videoio.Property
	}{
		{"width", videoio.PropFrameWidth},
		{"height", videoio.PropFrameHeight},
		{"fps", videoio.PropFPS},
		{"frames", videoio.PropFrameCount},
		{"fourcc", videoio.PropFourcc},
	}

	label := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(w, "%-8s %s\n", label("backend"), backend)
	for _, p := range props {
		v, err := c.Get(p.prop)
		if err != nil {
			return err
		}
		if p.prop == videoio.PropFourcc {
			code := int32(uint32(v))
			fmt.Fprintf(w, "%-8s %s (%s)\n", label(p.label), videoio.FourccString(code), codec.FromFourcc(code))
			continue
		}
		fmt.Fprintf(w, "%-8s %g\n", label(p.label), v)
	}

	if frames <= 0 {
		return nil
	}
	var (
		f    frame.VideoFrame
		last string
	)
	defer f.Release()
	read := 0
	for ; read < frames; read++ {
		ok, err := c.Read(&f)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		last = fmt.Sprintf("%dx%d %s", f.Width, f.Height, f.Format)
	}
	fmt.Fprintf(w, "%-8s %d read", label("decoded"), read)
	if last != "" {
		fmt.Fprintf(w, ", last %s", last)
	}
	fmt.Fprintln(w)
	return nil
}
