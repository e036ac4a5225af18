package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/thesyncim/libgovideoio/pkg/codec"
	"github.com/thesyncim/libgovideoio/pkg/media"
	"github.com/thesyncim/libgovideoio/pkg/wsstream"
)

type serveOptions struct {
	addr      string
	recordDir string
	source    string
	src       sourceOptions
	codec     string
	fps       float64
	stun      string
}

func newServeCommand(a *app) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Record websocket packet streams and publish a source over WebRTC",
		Long: `serve runs an HTTP server with two endpoints:

  /ingest  accepts websocket packet streams (see "videoio stream") and records
           each connection to a file in --record-dir;
  /offer   takes a WebRTC SDP offer as JSON and answers with a session that
           plays --source, sent as encoded packets without transcoding.`,
		Example: `  videoio serve --record-dir recordings
  videoio serve --source input.webm --codec vp8
  videoio serve --source 0 --camera --api v4l2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), a, opts)
		},
	}

	opts.src.register(cmd)
	flags := cmd.Flags()
	flags.StringVar(&opts.addr, "addr", ":8080", "HTTP listen address")
	flags.StringVar(&opts.recordDir, "record-dir", "recordings", "Directory for /ingest recordings")
	flags.StringVar(&opts.source, "source", "", "Source published on /offer (file, URL or camera index)")
	flags.StringVar(&opts.codec, "codec", "", "Codec of the source packets (default: from the source fourcc)")
	flags.Float64Var(&opts.fps, "fps", 0, "Packet rate (default: source rate, else 30)")
	flags.StringVar(&opts.stun, "stun", "stun:stun.l.google.com:19302", "STUN server for /offer sessions (empty for none)")
	return cmd
}

func serve(ctx context.Context, a *app, opts *serveOptions) error {
	if err := os.MkdirAll(opts.recordDir, 0o755); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/ingest", &wsstream.Receiver{Sink: recordingSink(opts.recordDir, a.log)})
	mux.HandleFunc("/offer", func(w http.ResponseWriter, r *http.Request) {
		handleOffer(ctx, a, opts, w, r)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "videoio serve\nrecordings: %s\nsource: %s\n", opts.recordDir, opts.source)
	})

	srv := &http.Server{Addr: opts.addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.log.WithField("addr", opts.addr).Info("serving")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

var recordingSeq atomic.Int64

// recordingSink writes each connection to its own file. The "codec" query
// parameter picks the file extension.
func recordingSink(dir string, log *logrus.Logger) wsstream.SinkFunc {
	return func(r *http.Request) (io.WriteCloser, error) {
		ext := "bin"
		if t := codec.Parse(r.URL.Query().Get("codec")); t != codec.Unknown {
			ext = strings.ToLower(t.String())
		}
		name := fmt.Sprintf("stream_%s_%d.%s", time.Now().Format("2006-01-02_15-04-05"), recordingSeq.Add(1), ext)
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		log.WithField("file", path).Info("recording")
		return f, nil
	}
}

func handleOffer(ctx context.Context, a *app, opts *serveOptions, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST an SDP offer", http.StatusMethodNotAllowed)
		return
	}
	if opts.source == "" {
		http.Error(w, "no --source configured", http.StatusServiceUnavailable)
		return
	}

	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	answer, err := publish(ctx, a, opts, offer)
	if err != nil {
		a.log.WithError(err).Error("offer failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(answer)
}

// publish answers offer with a session that pumps the source until the peer
// goes away or the server stops.
func publish(ctx context.Context, a *app, opts *serveOptions, offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	src := opts.src
	src.raw = true
	c, err := a.open(opts.source, src)
	if err != nil {
		return nil, err
	}

	cons := media.VideoConstraints{Codec: codec.Parse(opts.codec)}
	if opts.fps > 0 {
		cons.FrameRate = media.IdealFloat(opts.fps)
	}
	stream, err := media.NewVideoStream(c, cons)
	if err != nil {
		c.Close()
		return nil, err
	}

	var cfg webrtc.Configuration
	if opts.stun != "" {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: []string{opts.stun}}}
	}
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		stream.Stop()
		return nil, err
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	cleanup := func() {
		cancel()
		stream.Stop()
		_ = pc.Close()
	}

	log := a.log.WithField("stream", stream.ID())
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.WithField("state", s.String()).Debug("peer connection state")
		switch s {
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed, webrtc.PeerConnectionStateDisconnected:
			cancel()
		}
	})

	if _, err := stream.AddToPeerConnection(pc); err != nil {
		cleanup()
		return nil, err
	}
	if err := pc.SetRemoteDescription(offer); err != nil {
		cleanup()
		return nil, err
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		cleanup()
		return nil, err
	}
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		cleanup()
		return nil, err
	}
	<-gathered

	settings := stream.Settings()
	log.WithFields(logrus.Fields{
		"source":  opts.source,
		"codec":   settings.Codec.String(),
		"backend": settings.Backend,
	}).Info("publishing")

	go func() {
		defer cleanup()
		if err := stream.Start(sessionCtx); err != nil {
			log.WithError(err).Warn("stream stopped")
		}
	}()
	return pc.LocalDescription(), nil
}
