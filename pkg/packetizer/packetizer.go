// Package packetizer splits encoded video packets into RTP packets using the
// pion/rtp payloaders.
package packetizer

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"

	"github.com/thesyncim/libgovideoio/pkg/codec"
)

// Errors
var (
	ErrPacketizerClosed = errors.New("packetizer is closed")
	ErrBufferTooSmall   = errors.New("buffer too small")
	ErrInvalidData      = errors.New("invalid data")
	ErrUnsupportedCodec = errors.New("codec has no RTP payloader")
)

// DefaultMTU leaves room for SRTP and tunnel overhead on a 1500 byte link.
const DefaultMTU = 1200

// Config configures an RTP packetizer.
type Config struct {
	Codec       codec.Type
	SSRC        uint32
	PayloadType uint8
	MTU         uint16 // Maximum RTP packet size (default DefaultMTU)
	ClockRate   uint32 // RTP clock rate (default codec.ClockRate())
	// Sequencer numbers the packets. A random start is used when nil.
	Sequencer rtp.Sequencer
}

// PacketInfo describes a single RTP packet in the output buffer.
type PacketInfo struct {
	Offset int // Offset into the buffer where this packet starts
	Size   int // Size of this packet
}

// Packetizer converts encoded frames into RTP packets.
type Packetizer interface {
	// Packetize splits one encoded frame into packets and advances the RTP
	// timestamp by samples afterwards.
	Packetize(data []byte, samples uint32) ([]*rtp.Packet, error)

	// PacketizeInto is Packetize that marshals the packets contiguously into
	// dst and records each packet's position in packets.
	PacketizeInto(data []byte, samples uint32, dst []byte, packets []PacketInfo) (int, error)

	// MaxPackets returns the maximum number of packets that could be generated
	// for a frame of the given size.
	MaxPackets(frameSize int) int

	// MaxPacketSize returns the maximum size of a single RTP packet.
	MaxPacketSize() int

	// SequenceNumber returns the sequence number of the last packet produced.
	SequenceNumber() uint16

	Close() error
}

type packetizer struct {
	config Config
	inner  rtp.Packetizer
	lastSN atomic.Uint32
	closed atomic.Bool
	mu     sync.Mutex
}

// Payloader returns the pion payloader for c.
func Payloader(c codec.Type) (rtp.Payloader, error) {
	switch c {
	case codec.H264:
		return &codecs.H264Payloader{}, nil
	case codec.HEVC:
		return &codecs.H265Payloader{}, nil
	case codec.VP8:
		return &codecs.VP8Payloader{EnablePictureID: true}, nil
	case codec.VP9:
		return &codecs.VP9Payloader{}, nil
	case codec.AV1:
		return &codecs.AV1Payloader{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, c)
	}
}

// New creates a new RTP packetizer.
func New(cfg Config) (Packetizer, error) {
	payloader, err := Payloader(cfg.Codec)
	if err != nil {
		return nil, err
	}
	if cfg.MTU == 0 {
		cfg.MTU = DefaultMTU
	}
	if cfg.ClockRate == 0 {
		cfg.ClockRate = cfg.Codec.ClockRate()
	}
	if cfg.Sequencer == nil {
		cfg.Sequencer = rtp.NewRandomSequencer()
	}

	return &packetizer{
		config: cfg,
		inner:  rtp.NewPacketizer(cfg.MTU, cfg.PayloadType, cfg.SSRC, payloader, cfg.Sequencer, cfg.ClockRate),
	}, nil
}

func (p *packetizer) Packetize(data []byte, samples uint32) ([]*rtp.Packet, error) {
	if p.closed.Load() {
		return nil, ErrPacketizerClosed
	}
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pkts := p.inner.Packetize(data, samples)
	if n := len(pkts); n > 0 {
		p.lastSN.Store(uint32(pkts[n-1].SequenceNumber))
	}
	return pkts, nil
}

func (p *packetizer) PacketizeInto(data []byte, samples uint32, dst []byte, packets []PacketInfo) (int, error) {
	pkts, err := p.Packetize(data, samples)
	if err != nil {
		return 0, err
	}
	if len(pkts) > len(packets) {
		return 0, fmt.Errorf("%w: %d packets, room for %d", ErrBufferTooSmall, len(pkts), len(packets))
	}

	offset := 0
	for i, pkt := range pkts {
		if size := pkt.MarshalSize(); offset+size > len(dst) {
			return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, offset+size, len(dst))
		}
		n, err := pkt.MarshalTo(dst[offset:])
		if err != nil {
			return 0, err
		}
		packets[i] = PacketInfo{Offset: offset, Size: n}
		offset += n
	}
	return len(pkts), nil
}

func (p *packetizer) MaxPackets(frameSize int) int {
	// Worst case: each packet has MTU - RTP header (12 bytes) - payload header
	// For safety, assume ~100 bytes overhead per packet
	payloadPerPacket := int(p.config.MTU) - 100
	if payloadPerPacket <= 0 {
		payloadPerPacket = 1000
	}
	return (frameSize+payloadPerPacket-1)/payloadPerPacket + 1
}

func (p *packetizer) MaxPacketSize() int {
	return int(p.config.MTU)
}

func (p *packetizer) SequenceNumber() uint16 {
	return uint16(p.lastSN.Load())
}

func (p *packetizer) Close() error {
	p.closed.Store(true)
	return nil
}
