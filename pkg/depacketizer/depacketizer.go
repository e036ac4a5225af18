// Package depacketizer reassembles RTP packets into encoded frames. It is
// the receive-side counterpart of package packetizer.
package depacketizer

import (
	"errors"
	"sync"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/samplebuilder"

	"github.com/thesyncim/libgovideoio/pkg/codec"
)

// Errors
var (
	ErrDepacketizerClosed = errors.New("depacketizer is closed")
	ErrNeedMoreData       = errors.New("need more data")
	ErrBufferTooSmall     = errors.New("buffer too small")
	ErrUnsupportedCodec   = errors.New("codec has no RTP depacketizer")
)

// DefaultMaxLate is how many packets a frame may wait for reordering before
// it is dropped.
const DefaultMaxLate = 64

// FrameInfo contains metadata about a reassembled frame.
type FrameInfo struct {
	Size       int
	Timestamp  uint32
	Duration   time.Duration
	IsKeyframe bool
	// Dropped counts the packets lost before this frame.
	Dropped int
}

// Depacketizer reassembles RTP packets into complete frames.
type Depacketizer interface {
	// Push adds an RTP packet to the reassembly buffer. Packets may arrive
	// out of order.
	Push(pkt *rtp.Packet) error

	// PopInto copies the next complete frame into dst. Returns
	// ErrNeedMoreData if no frame is complete yet, ErrBufferTooSmall if
	// dst cannot hold it; the frame stays queued in that case.
	PopInto(dst []byte) (FrameInfo, error)

	// Flush finishes every frame still buffered, for end of stream.
	Flush()

	Close() error
}

type depacketizer struct {
	mu        sync.Mutex
	codecType codec.Type
	builder   *samplebuilder.SampleBuilder
	pending   *media.Sample
	closed    bool
}

// Unpacker returns the pion depacketizer for c.
func Unpacker(c codec.Type) (rtp.Depacketizer, error) {
	switch c {
	case codec.H264:
		return &codecs.H264Packet{IsAVC: false}, nil
	case codec.HEVC:
		return &codecs.H265Packet{}, nil
	case codec.VP8:
		return &codecs.VP8Packet{}, nil
	case codec.VP9:
		return &codecs.VP9Packet{}, nil
	case codec.AV1:
		return &codecs.AV1Depacketizer{}, nil
	default:
		return nil, ErrUnsupportedCodec
	}
}

// New creates a depacketizer for codecType with DefaultMaxLate.
func New(codecType codec.Type) (Depacketizer, error) {
	return NewWithMaxLate(codecType, DefaultMaxLate)
}

func NewWithMaxLate(codecType codec.Type, maxLate uint16) (Depacketizer, error) {
	u, err := Unpacker(codecType)
	if err != nil {
		return nil, err
	}
	return &depacketizer{
		codecType: codecType,
		builder:   samplebuilder.New(maxLate, u, codecType.ClockRate()),
	}, nil
}

func (d *depacketizer) Push(pkt *rtp.Packet) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDepacketizerClosed
	}
	if pkt == nil || len(pkt.Payload) == 0 {
		return nil
	}
	d.builder.Push(pkt)
	return nil
}

func (d *depacketizer) PopInto(dst []byte) (FrameInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return FrameInfo{}, ErrDepacketizerClosed
	}

	s := d.pending
	if s == nil {
		if s = d.builder.Pop(); s == nil {
			return FrameInfo{}, ErrNeedMoreData
		}
	}
	if len(dst) < len(s.Data) {
		d.pending = s
		return FrameInfo{Size: len(s.Data)}, ErrBufferTooSmall
	}
	d.pending = nil

	n := copy(dst, s.Data)
	return FrameInfo{
		Size:       n,
		Timestamp:  s.PacketTimestamp,
		Duration:   s.Duration,
		IsKeyframe: IsKeyframe(d.codecType, s.Data),
		Dropped:    int(s.PrevDroppedPackets),
	}, nil
}

func (d *depacketizer) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.builder.Flush()
	}
}

func (d *depacketizer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.pending = nil
	return nil
}

// IsKeyframe inspects a reassembled H264 or VP8 frame. Other codecs report
// false.
func IsKeyframe(c codec.Type, frame []byte) bool {
	switch c {
	case codec.VP8:
		// P bit of the frame tag is 0 on key frames.
		return len(frame) > 0 && frame[0]&0x01 == 0
	case codec.H264:
		for _, nal := range splitAnnexB(frame) {
			if len(nal) > 0 && nal[0]&0x1f == 5 {
				return true
			}
		}
	}
	return false
}

// splitAnnexB splits an Annex B byte stream into NAL units.
func splitAnnexB(b []byte) [][]byte {
	var (
		nals  [][]byte
		start = -1
	)
	for i := 0; i+2 < len(b); i++ {
		if b[i] != 0 || b[i+1] != 0 || b[i+2] != 1 {
			continue
		}
		if start >= 0 {
			end := i
			if end > start && b[end-1] == 0 {
				end--
			}
			nals = append(nals, b[start:end])
		}
		start = i + 3
		i += 2
	}
	if start >= 0 && start <= len(b) {
		nals = append(nals, b[start:])
	}
	return nals
}
