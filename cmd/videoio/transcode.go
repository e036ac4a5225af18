package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/thesyncim/libgovideoio/pkg/codec"
	"github.com/thesyncim/libgovideoio/pkg/frame"
	"github.com/thesyncim/libgovideoio/pkg/videoio"
)

type transcodeOptions struct {
	src       sourceOptions
	codec     string
	writerAPI string
	fps       float64
	gray      bool
	quality   float64
	maxFrames int
}

func newTranscodeCommand(a *app) *cobra.Command {
	opts := &transcodeOptions{}

	cmd := &cobra.Command{
		Use:   "transcode <source> <output>",
		Short: "Decode a source and re-encode it into a video file",
		Example: `  videoio transcode input.avi output.mp4 --codec h264
  videoio transcode --camera 0 clip.avi --codec MJPG --frames 300`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.open(args[0], opts.src)
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := transcode(c, args[1], opts, a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d frames to %s\n", color.GreenString("wrote"), n, args[1])
			return nil
		},
	}

	opts.src.register(cmd)
	flags := cmd.Flags()
	flags.StringVar(&opts.codec, "codec", "mp4v", "Output codec name or fourcc (h264, vp9, MJPG, ...)")
	flags.StringVar(&opts.writerAPI, "writer-api", "", "Writer backend (default: any)")
	flags.Float64Var(&opts.fps, "fps", 0, "Output frame rate (default: source rate, else 30)")
	flags.BoolVar(&opts.gray, "gray", false, "Write single-channel frames")
	flags.Float64Var(&opts.quality, "quality", 0, "Encoder quality, 0-100, for backends that support it")
	flags.IntVarP(&opts.maxFrames, "frames", "n", 0, "Stop after this many frames")
	return cmd
}

// fourccFor resolves a codec name or four-character code.
func fourccFor(name string) int32 {
	if t := codec.Parse(name); t != codec.Unknown {
		return t.Fourcc()
	}
	return videoio.FourccFromString(name)
}

func transcode(c *videoio.VideoCapture, output string, opts *transcodeOptions, log *logrus.Logger) (int, error) {
	var f frame.VideoFrame
	defer f.Release()

	ok, err := c.Read(&f)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("source has no frames")
	}

	fps := opts.fps
	if fps <= 0 {
		if fps, err = c.Get(videoio.PropFPS); err != nil {
			return 0, err
		}
		if fps <= 0 {
			fps = 30
		}
	}

	api := videoio.APIAny
	if opts.writerAPI != "" {
		if api, err = videoio.ParseAPI(opts.writerAPI); err != nil {
			return 0, err
		}
	}

	w, err := videoio.NewVideoWriterConfig(output, videoio.WriterConfig{
		API:     api,
		Fourcc:  fourccFor(opts.codec),
		FPS:     fps,
		Width:   f.Width,
		Height:  f.Height,
		IsColor: !opts.gray,
	})
	if err != nil {
		return 0, err
	}
	defer w.Close()

	opened, err := w.IsOpened()
	if err != nil {
		return 0, err
	}
	if !opened {
		return 0, fmt.Errorf("cannot open %s for writing with codec %s", output, opts.codec)
	}
	if opts.quality > 0 {
		if ok, err := w.Set(videoio.WriterPropQuality, opts.quality); err != nil {
			return 0, err
		} else if !ok {
			log.Warn("writer backend ignores quality")
		}
	}

	backend, _ := w.BackendName()
	log.WithFields(logrus.Fields{
		"output":  output,
		"backend": backend,
		"size":    fmt.Sprintf("%dx%d", f.Width, f.Height),
		"fps":     fps,
	}).Info("transcoding")

	n := 0
	for ok {
		if err := w.Write(&f); err != nil {
			return n, err
		}
		n++
		if opts.maxFrames > 0 && n >= opts.maxFrames {
			break
		}
		if ok, err = c.Read(&f); err != nil {
			return n, err
		}
	}
	return n, w.Release()
}
