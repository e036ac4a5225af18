package main

import (
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/thesyncim/libgovideoio/config"
	"github.com/thesyncim/libgovideoio/pkg/videoio"
)

// app carries state shared by every command.
type app struct {
	configFile string
	logLevel   string
	shimPath   string

	cfg *config.Config
	log *logrus.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "videoio",
		Short:         "Video capture and writer toolkit",
		Long:          "videoio drives the native video I/O library: list backends, probe sources, transcode files and stream encoded packets.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (default: config.yaml in the standard locations)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.shimPath, "shim", "", "Path to the native shim library")

	cmd.AddCommand(
		newBackendsCommand(a),
		newProbeCommand(a),
		newFourccCommand(),
		newTranscodeCommand(a),
		newStreamCommand(a),
		newServeCommand(a),
		newShimCommand(a),
		newVersionCommand(a),
	)
	return cmd
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Set(config.KeyLogLevel, a.logLevel)
	}
	if a.shimPath != "" {
		cfg.Set(config.KeyShimPath, a.shimPath)
	}

	l, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	logrus.SetLevel(l.GetLevel())
	logrus.SetFormatter(l.Formatter)
	videoio.SetLogger(l)

	a.cfg = cfg
	a.log = l
	if f := cfg.File(); f != "" {
		l.WithField("file", f).Debug("config loaded")
	}
	return nil
}

// load loads the native shim as configured.
func (a *app) load() error {
	return videoio.Load(a.cfg.LoadOptions())
}

// sourceOptions selects and opens a capture source.
type sourceOptions struct {
	api    string
	camera bool
	raw    bool
}

func (o *sourceOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.api, "api", "", "Capture backend (default: capture.api from config)")
	cmd.Flags().BoolVar(&o.camera, "camera", false, "Treat the source as a camera index")
}

// open opens source as a file, URL or camera index.
func (a *app) open(source string, o sourceOptions) (*videoio.VideoCapture, error) {
	if err := a.load(); err != nil {
		return nil, err
	}

	api, err := a.cfg.CaptureAPI()
	if err != nil {
		return nil, err
	}
	if o.api != "" {
		if api, err = videoio.ParseAPI(o.api); err != nil {
			return nil, err
		}
	}

	var params videoio.Params
	if o.raw {
		params = params.With(videoio.PropFormat, -1)
	}

	c, err := videoio.NewVideoCapture()
	if err != nil {
		return nil, err
	}
	if err := c.SetExceptionMode(a.cfg.ExceptionMode()); err != nil {
		c.Close()
		return nil, err
	}

	var ok bool
	if o.camera {
		index, convErr := strconv.Atoi(source)
		if convErr != nil {
			c.Close()
			return nil, convErr
		}
		ok, err = c.OpenIndexParams(index, api, params)
	} else {
		ok, err = c.OpenFileParams(source, api, params)
	}
	if err != nil {
		c.Close()
		return nil, err
	}
	if !ok {
		c.Close()
		return nil, &openError{source: source, api: api}
	}
	return c, nil
}

type openError struct {
	source string
	api    videoio.API
}

func (e *openError) Error() string {
	return "cannot open " + strconv.Quote(e.source) + " with backend " + e.api.String()
}
