// Package media turns a capture source into a live WebRTC video stream,
// in the style of the browser getUserMedia API.
//
// Sources are opened in raw packet mode: the encoded packets of the file or
// camera are sent as they are, with no decode or re-encode step.
package media

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"

	"github.com/thesyncim/libgovideoio/pkg/codec"
	"github.com/thesyncim/libgovideoio/pkg/track"
	"github.com/thesyncim/libgovideoio/pkg/videoio"
)

var (
	ErrInvalidConstraints = errors.New("invalid constraints")
	ErrNotOpened          = errors.New("source could not be opened")
	ErrUnknownCodec       = errors.New("cannot tell the source codec")
	ErrStreamClosed       = errors.New("stream closed")
)

// DefaultFrameRate paces sources that report no frame rate.
const DefaultFrameRate = 30.0

// Ready states.
const (
	StateLive  = "live"
	StateEnded = "ended"
)

// VideoConstraints select and configure a video source.
type VideoConstraints struct {
	Width     IntConstraint
	Height    IntConstraint
	FrameRate FloatConstraint
	// DeviceID is the camera index for GetUserMedia. Empty means 0.
	DeviceID string
	// API is the capture backend preference.
	API videoio.API
	// Codec of the source packets. Unknown derives it from the source
	// fourcc.
	Codec codec.Type
}

func (c VideoConstraints) validate() error {
	if !c.Width.valid() || !c.Height.valid() || !c.FrameRate.valid() {
		return ErrInvalidConstraints
	}
	if c.DeviceID != "" {
		if _, err := strconv.Atoi(c.DeviceID); err != nil {
			return ErrInvalidConstraints
		}
	}
	return nil
}

// VideoSettings are the values the source actually runs with.
type VideoSettings struct {
	Width     int
	Height    int
	FrameRate float64
	DeviceID  string
	Backend   string
	Codec     codec.Type
}

// VideoStream is an opened source bound to a CaptureTrack.
type VideoStream struct {
	id      string
	capture *videoio.VideoCapture
	track   *track.CaptureTrack

	mu          sync.Mutex
	constraints VideoConstraints
	settings    VideoSettings
	cancel      context.CancelFunc
	readyState  atomic.Value
	stopOnce    sync.Once
}

// GetUserMedia opens the camera named by c.DeviceID in raw packet mode and
// applies c.
func GetUserMedia(c VideoConstraints) (*VideoStream, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	index := 0
	if c.DeviceID != "" {
		index, _ = strconv.Atoi(c.DeviceID)
	}

	capture, err := videoio.NewVideoCapture()
	if err != nil {
		return nil, err
	}
	ok, err := capture.OpenIndexParams(index, c.API, videoio.NewParams().With(videoio.PropFormat, -1))
	if err == nil && !ok {
		err = ErrNotOpened
	}
	if err != nil {
		capture.Close()
		return nil, err
	}

	s, err := NewVideoStream(capture, c)
	if err != nil {
		capture.Close()
		return nil, err
	}
	s.settings.DeviceID = strconv.Itoa(index)
	return s, nil
}

// NewVideoStream takes ownership of an opened capture, which should be in
// raw packet mode, and applies c to it. On error the caller still owns
// capture.
func NewVideoStream(capture *videoio.VideoCapture, c VideoConstraints) (*VideoStream, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	s := &VideoStream{id: generateID(), capture: capture, constraints: c}
	if err := s.apply(c); err != nil {
		return nil, err
	}

	t, err := track.NewCaptureTrack(track.Config{ID: "video-" + s.id, StreamID: s.id, Codec: s.settings.Codec})
	if err != nil {
		return nil, err
	}
	s.track = t
	s.readyState.Store(StateLive)
	return s, nil
}

// apply requests the constrained values, then reads back what the device
// settled on and checks it.
func (s *VideoStream) apply(c VideoConstraints) error {
	requests := []struct {
		prop  videoio.Property
		value float64
		ok    bool
	}{
		{prop: videoio.PropFrameWidth},
		{prop: videoio.PropFrameHeight},
		{prop: videoio.PropFPS},
	}
	if v, ok := c.Width.Value(); ok {
		requests[0].value, requests[0].ok = float64(v), true
	}
	if v, ok := c.Height.Value(); ok {
		requests[1].value, requests[1].ok = float64(v), true
	}
	requests[2].value, requests[2].ok = c.FrameRate.Value()
	for _, r := range requests {
		if !r.ok {
			continue
		}
		// Backends that cannot change a property report false; the read
		// back below decides.
		if _, err := s.capture.Set(r.prop, r.value); err != nil {
			return err
		}
	}

	var (
		settings VideoSettings
		err      error
		v        float64
	)
	if v, err = s.capture.Get(videoio.PropFrameWidth); err != nil {
		return err
	}
	settings.Width = int(v)
	if v, err = s.capture.Get(videoio.PropFrameHeight); err != nil {
		return err
	}
	settings.Height = int(v)
	if v, err = s.capture.Get(videoio.PropFPS); err != nil {
		return err
	}
	settings.FrameRate = v
	if settings.Backend, err = s.capture.BackendName(); err != nil {
		return err
	}

	if err := c.Width.check("width", settings.Width); err != nil {
		return err
	}
	if err := c.Height.check("height", settings.Height); err != nil {
		return err
	}
	if err := c.FrameRate.check("frameRate", settings.FrameRate); err != nil {
		return err
	}

	settings.Codec = c.Codec
	if settings.Codec == codec.Unknown {
		fourcc, err := s.capture.Get(videoio.PropFourcc)
		if err != nil {
			return err
		}
		settings.Codec = codec.FromFourcc(int32(uint32(fourcc)))
	}
	if settings.Codec == codec.Unknown {
		return ErrUnknownCodec
	}
	if s.track != nil && settings.Codec != s.settings.Codec {
		return &OverconstrainedError{Constraint: "codec", Message: "cannot change the codec of a live track"}
	}

	settings.DeviceID = s.settings.DeviceID
	s.settings = settings
	return nil
}

func (s *VideoStream) ID() string { return s.id }

func (s *VideoStream) Track() *track.CaptureTrack { return s.track }

// Capture returns the underlying capture. It stays owned by the stream.
func (s *VideoStream) Capture() *videoio.VideoCapture { return s.capture }

func (s *VideoStream) Settings() VideoSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *VideoStream) Constraints() VideoConstraints {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.constraints
}

// ReadyState is StateLive until the source ends or Stop is called.
func (s *VideoStream) ReadyState() string { return s.readyState.Load().(string) }

// ApplyConstraints reconfigures a live stream. The codec cannot change.
func (s *VideoStream) ApplyConstraints(c VideoConstraints) error {
	if err := c.validate(); err != nil {
		return err
	}
	if s.ReadyState() != StateLive {
		return ErrStreamClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.apply(c); err != nil {
		return err
	}
	s.constraints = c
	return nil
}

// AddToPeerConnection adds the stream's track to pc.
func (s *VideoStream) AddToPeerConnection(pc *webrtc.PeerConnection) (*webrtc.RTPSender, error) {
	return s.track.AddToPeerConnection(pc)
}

// Start pumps packets into the track until the source ends, ctx is done or
// Stop is called. The stream is ended afterwards.
func (s *VideoStream) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.ReadyState() != StateLive || s.cancel != nil {
		s.mu.Unlock()
		cancel()
		return ErrStreamClosed
	}
	s.cancel = cancel
	fps := s.settings.FrameRate
	s.mu.Unlock()
	defer s.Stop()

	if fps <= 0 {
		fps = DefaultFrameRate
	}
	if err := s.track.Pump(ctx, s.capture, fps); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// Stop ends the stream and releases the track and capture. It is safe to
// call more than once.
func (s *VideoStream) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.readyState.Store(StateEnded)
		if s.cancel != nil {
			s.cancel()
		}
		s.mu.Unlock()
		_ = s.track.Close()
		_ = s.capture.Close()
	})
}

func generateID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
