package depacketizer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pion/rtp"

	"github.com/thesyncim/libgovideoio/pkg/codec"
	"github.com/thesyncim/libgovideoio/pkg/packetizer"
)

func packetize(t *testing.T, c codec.Type, frames ...[]byte) []*rtp.Packet {
	t.Helper()
	p, err := packetizer.New(packetizer.Config{Codec: c, SSRC: 1, PayloadType: 96, Sequencer: rtp.NewFixedSequencer(100)})
	if err != nil {
		t.Fatalf("packetizer.New() error = %v", err)
	}
	defer p.Close()

	var out []*rtp.Packet
	for _, f := range frames {
		pkts, err := p.Packetize(f, 3000)
		if err != nil {
			t.Fatalf("Packetize() error = %v", err)
		}
		out = append(out, pkts...)
	}
	return out
}

func vp8Frame(size int, key bool) []byte {
	f := make([]byte, size)
	for i := range f {
		f[i] = byte(i%200 + 2)
	}
	if key {
		f[0] = 0x10
	} else {
		f[0] = 0x11
	}
	return f
}

func TestUnpacker(t *testing.T) {
	for _, c := range []codec.Type{codec.H264, codec.HEVC, codec.VP8, codec.VP9, codec.AV1} {
		if _, err := Unpacker(c); err != nil {
			t.Errorf("Unpacker(%v) error = %v", c, err)
		}
	}
	for _, c := range []codec.Type{codec.Unknown, codec.MJPEG} {
		if _, err := New(c); !errors.Is(err, ErrUnsupportedCodec) {
			t.Errorf("New(%v) error = %v, want ErrUnsupportedCodec", c, err)
		}
	}
}

func TestVP8RoundTrip(t *testing.T) {
	d, err := New(codec.VP8)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer d.Close()

	frames := [][]byte{vp8Frame(3000, true), vp8Frame(500, false)}
	for _, pkt := range packetize(t, codec.VP8, frames...) {
		if err := d.Push(pkt); err != nil {
			t.Fatalf("Push() error = %v", err)
		}
	}
	d.Flush()

	buf := make([]byte, 4096)
	for i, want := range frames {
		info, err := d.PopInto(buf)
		if err != nil {
			t.Fatalf("PopInto() frame %d error = %v", i, err)
		}
		if !bytes.Equal(buf[:info.Size], want) {
			t.Errorf("frame %d: got %d bytes, want %d", i, info.Size, len(want))
		}
		if info.IsKeyframe != (i == 0) {
			t.Errorf("frame %d: IsKeyframe = %v", i, info.IsKeyframe)
		}
	}
	if _, err := d.PopInto(buf); !errors.Is(err, ErrNeedMoreData) {
		t.Errorf("PopInto() on empty error = %v, want ErrNeedMoreData", err)
	}
}

func TestTimestampsAdvance(t *testing.T) {
	d, _ := New(codec.VP8)
	defer d.Close()

	for _, pkt := range packetize(t, codec.VP8, vp8Frame(100, true), vp8Frame(100, false)) {
		_ = d.Push(pkt)
	}
	d.Flush()

	buf := make([]byte, 256)
	first, err := d.PopInto(buf)
	if err != nil {
		t.Fatalf("PopInto() error = %v", err)
	}
	second, err := d.PopInto(buf)
	if err != nil {
		t.Fatalf("PopInto() error = %v", err)
	}
	if second.Timestamp-first.Timestamp != 3000 {
		t.Errorf("timestamp delta = %d, want 3000", second.Timestamp-first.Timestamp)
	}
}

func TestBufferTooSmallKeepsFrame(t *testing.T) {
	d, _ := New(codec.VP8)
	defer d.Close()

	want := vp8Frame(800, true)
	for _, pkt := range packetize(t, codec.VP8, want, vp8Frame(10, false)) {
		_ = d.Push(pkt)
	}

	info, err := d.PopInto(make([]byte, 10))
	if !errors.Is(err, ErrBufferTooSmall) {
		t.Fatalf("PopInto() error = %v, want ErrBufferTooSmall", err)
	}
	if info.Size != len(want) {
		t.Errorf("Size = %d, want %d", info.Size, len(want))
	}

	buf := make([]byte, info.Size)
	if _, err := d.PopInto(buf); err != nil {
		t.Fatalf("PopInto() retry error = %v", err)
	}
	if !bytes.Equal(buf, want) {
		t.Error("frame changed between retries")
	}
}

func TestClosed(t *testing.T) {
	d, _ := New(codec.H264)
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := d.Push(&rtp.Packet{Payload: []byte{1}}); !errors.Is(err, ErrDepacketizerClosed) {
		t.Errorf("Push() error = %v", err)
	}
	if _, err := d.PopInto(nil); !errors.Is(err, ErrDepacketizerClosed) {
		t.Errorf("PopInto() error = %v", err)
	}
}

func TestIsKeyframe(t *testing.T) {
	tests := []struct {
		name  string
		codec codec.Type
		data  []byte
		want  bool
	}{
		{"vp8 key", codec.VP8, []byte{0x10, 0x02}, true},
		{"vp8 delta", codec.VP8, []byte{0x11, 0x02}, false},
		{"h264 idr", codec.H264, []byte{0, 0, 0, 1, 0x67, 0x42, 0, 0, 1, 0x65, 0x88}, true},
		{"h264 slice", codec.H264, []byte{0, 0, 0, 1, 0x41, 0x9a}, false},
		{"empty", codec.VP8, nil, false},
		{"vp9", codec.VP9, []byte{0x82}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsKeyframe(tt.codec, tt.data); got != tt.want {
				t.Errorf("IsKeyframe() = %v, want %v", got, tt.want)
			}
		})
	}
}
