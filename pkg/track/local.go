// Package track publishes encoded packets from a video capture as a pion
// WebRTC track.
package track

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"

	"github.com/thesyncim/libgovideoio/pkg/codec"
	"github.com/thesyncim/libgovideoio/pkg/frame"
	"github.com/thesyncim/libgovideoio/pkg/packetizer"
)

// Errors
var (
	ErrTrackClosed   = errors.New("track is closed")
	ErrNotBound      = errors.New("track not bound")
	ErrAlreadyBound  = errors.New("track already bound")
	ErrInvalidConfig = errors.New("invalid config")
	ErrNoCodec       = errors.New("codec not negotiated")
)

// Config configures a capture track.
type Config struct {
	ID       string
	StreamID string
	Codec    codec.Type
	MTU      uint16 // RTP MTU (default packetizer.DefaultMTU)
}

// PacketSource yields one encoded packet per Read. A *videoio.VideoCapture
// opened with PropFormat set to -1 is a PacketSource.
type PacketSource interface {
	Read(dst *frame.VideoFrame) (bool, error)
}

// CaptureTrack implements webrtc.TrackLocal for pre-encoded video. It binds
// to one PeerConnection at a time.
type CaptureTrack struct {
	id       string
	streamID string
	codec    codec.Type
	config   Config

	// Bound state
	writer      webrtc.TrackLocalWriter
	codecParams webrtc.RTPCodecParameters
	pkt         packetizer.Packetizer

	mu     sync.Mutex
	closed atomic.Bool
	bound  atomic.Bool
	log    *logrus.Entry
}

var _ webrtc.TrackLocal = (*CaptureTrack)(nil)

// NewCaptureTrack creates a track for packets of cfg.Codec.
func NewCaptureTrack(cfg Config) (*CaptureTrack, error) {
	if cfg.ID == "" {
		return nil, ErrInvalidConfig
	}
	if _, err := packetizer.Payloader(cfg.Codec); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	if cfg.StreamID == "" {
		cfg.StreamID = cfg.ID
	}
	if cfg.MTU == 0 {
		cfg.MTU = packetizer.DefaultMTU
	}

	return &CaptureTrack{
		id:       cfg.ID,
		streamID: cfg.StreamID,
		codec:    cfg.Codec,
		config:   cfg,
		log:      logrus.WithFields(logrus.Fields{"track": cfg.ID, "codec": cfg.Codec.String()}),
	}, nil
}

// ID returns the track ID.
func (t *CaptureTrack) ID() string {
	return t.id
}

// RID returns the RTP stream ID (empty for non-simulcast).
func (t *CaptureTrack) RID() string {
	return ""
}

// StreamID returns the stream ID.
func (t *CaptureTrack) StreamID() string {
	return t.streamID
}

// Kind returns webrtc.RTPCodecTypeVideo.
func (t *CaptureTrack) Kind() webrtc.RTPCodecType {
	return webrtc.RTPCodecTypeVideo
}

// Codec returns the capability the track offers during negotiation.
func (t *CaptureTrack) Codec() webrtc.RTPCodecCapability {
	return webrtc.RTPCodecCapability{
		MimeType:  t.codec.MimeType(),
		ClockRate: t.codec.ClockRate(),
	}
}

// Bind is called by Pion when the track is added to a PeerConnection.
func (t *CaptureTrack) Bind(ctx webrtc.TrackLocalContext) (webrtc.RTPCodecParameters, error) {
	return t.bind(ctx.CodecParameters(), ctx.SSRC(), ctx.WriteStream())
}

func (t *CaptureTrack) bind(offered []webrtc.RTPCodecParameters, ssrc webrtc.SSRC, w webrtc.TrackLocalWriter) (webrtc.RTPCodecParameters, error) {
	if t.closed.Load() {
		return webrtc.RTPCodecParameters{}, ErrTrackClosed
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bound.Load() {
		return webrtc.RTPCodecParameters{}, ErrAlreadyBound
	}

	var selected *webrtc.RTPCodecParameters
	for i := range offered {
		if strings.EqualFold(offered[i].MimeType, t.codec.MimeType()) {
			selected = &offered[i]
			break
		}
	}
	if selected == nil {
		return webrtc.RTPCodecParameters{}, ErrNoCodec
	}

	pkt, err := packetizer.New(packetizer.Config{
		Codec:       t.codec,
		SSRC:        uint32(ssrc),
		PayloadType: uint8(selected.PayloadType),
		MTU:         t.config.MTU,
		ClockRate:   selected.ClockRate,
	})
	if err != nil {
		return webrtc.RTPCodecParameters{}, err
	}

	t.pkt = pkt
	t.writer = w
	t.codecParams = *selected
	t.bound.Store(true)

	t.log.WithFields(logrus.Fields{
		"ssrc":         uint32(ssrc),
		"payload_type": uint8(selected.PayloadType),
	}).Debug("track bound")
	return t.codecParams, nil
}

// Unbind is called when the track is removed from the PeerConnection.
func (t *CaptureTrack) Unbind(webrtc.TrackLocalContext) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unbindLocked()
	return nil
}

func (t *CaptureTrack) unbindLocked() {
	if !t.bound.CompareAndSwap(true, false) {
		return
	}
	if t.pkt != nil {
		t.pkt.Close()
		t.pkt = nil
	}
	t.writer = nil
}

// WriteSample packetizes one encoded frame lasting duration and writes it to
// the bound peer connection.
func (t *CaptureTrack) WriteSample(data []byte, duration time.Duration) error {
	if t.closed.Load() {
		return ErrTrackClosed
	}
	if !t.bound.Load() {
		return ErrNotBound
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pkt == nil || t.writer == nil {
		return ErrNotBound
	}

	samples := uint32(math.Round(duration.Seconds() * float64(t.codecParams.ClockRate)))
	pkts, err := t.pkt.Packetize(data, samples)
	if err != nil {
		return err
	}
	for _, p := range pkts {
		if _, err := t.writer.WriteRTP(&p.Header, p.Payload); err != nil {
			return err
		}
	}
	return nil
}

// WriteRTP writes an already-formed RTP packet.
func (t *CaptureTrack) WriteRTP(pkt *rtp.Packet) error {
	if t.closed.Load() {
		return ErrTrackClosed
	}
	if !t.bound.Load() {
		return ErrNotBound
	}

	t.mu.Lock()
	writer := t.writer
	t.mu.Unlock()

	if writer == nil {
		return ErrNotBound
	}

	_, err := writer.WriteRTP(&pkt.Header, pkt.Payload)
	return err
}

// Pump reads packets from src and writes one sample per packet, paced at
// fps. Packets read before the track is bound are dropped. Pump returns nil
// at end of stream and ctx.Err() when ctx is done.
func (t *CaptureTrack) Pump(ctx context.Context, src PacketSource, fps float64) error {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return ErrInvalidConfig
	}
	interval := time.Duration(float64(time.Second) / fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var f frame.VideoFrame
	defer f.Release()

	var sent, dropped int
	defer func() {
		t.log.WithFields(logrus.Fields{"sent": sent, "dropped": dropped}).Debug("pump finished")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ok, err := src.Read(&f)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		switch err := t.WriteSample(f.Bytes(), interval); {
		case err == nil:
			sent++
		case errors.Is(err, ErrNotBound):
			dropped++
		default:
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// AddToPeerConnection adds the track to pc and drains RTCP from the
// returned sender until the sender is stopped.
func (t *CaptureTrack) AddToPeerConnection(pc *webrtc.PeerConnection) (*webrtc.RTPSender, error) {
	sender, err := pc.AddTrack(t)
	if err != nil {
		return nil, err
	}
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()
	return sender, nil
}

// Close releases all resources.
func (t *CaptureTrack) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.unbindLocked()
	return nil
}
