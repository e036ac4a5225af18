// Package frame provides the raw pixel buffer exchanged with the native video library.
package frame

import (
	"errors"
	"fmt"
	"time"
)

// ErrShortBuffer is returned when a frame's data cannot hold Stride*Height bytes.
var ErrShortBuffer = errors.New("frame buffer too small")

// PixelFormat represents the pixel layout of a video frame.
// Frames are always packed (single plane), matching the native matrix layout.
type PixelFormat int

const (
	// PixelFormatGray8 is one 8-bit channel. Raw encoded packets
	// (CAP_PROP_FORMAT = -1) are also delivered in this format as a 1xN row.
	PixelFormatGray8 PixelFormat = iota

	// PixelFormatYUYV is packed YUV 4:2:2, two 8-bit channels per pixel.
	// Cameras deliver it when RGB conversion is disabled.
	PixelFormatYUYV

	// PixelFormatBGR24 is three 8-bit channels in B, G, R order.
	// This is the default output of capture backends.
	PixelFormatBGR24

	// PixelFormatBGRA is four 8-bit channels.
	PixelFormatBGRA

	// PixelFormatGray16 is one 16-bit little-endian channel.
	PixelFormatGray16
)

// Native matrix type codes (depth + (channels-1)<<3).
const (
	matType8UC1  = 0
	matType8UC2  = 8
	matType8UC3  = 16
	matType8UC4  = 24
	matType16UC1 = 2
)

// String returns the string representation of the pixel format.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatGray8:
		return "GRAY8"
	case PixelFormatYUYV:
		return "YUYV"
	case PixelFormatBGR24:
		return "BGR24"
	case PixelFormatBGRA:
		return "BGRA"
	case PixelFormatGray16:
		return "GRAY16"
	default:
		return "Unknown"
	}
}

// BytesPerPixel returns the packed size of one pixel.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatGray8:
		return 1
	case PixelFormatYUYV, PixelFormatGray16:
		return 2
	case PixelFormatBGR24:
		return 3
	case PixelFormatBGRA:
		return 4
	default:
		return 0
	}
}

// MatType returns the native matrix type code for the format.
func (f PixelFormat) MatType() int32 {
	switch f {
	case PixelFormatYUYV:
		return matType8UC2
	case PixelFormatBGR24:
		return matType8UC3
	case PixelFormatBGRA:
		return matType8UC4
	case PixelFormatGray16:
		return matType16UC1
	default:
		return matType8UC1
	}
}

// FormatFromMatType maps a native matrix type code to a pixel format.
func FormatFromMatType(t int32) (PixelFormat, bool) {
	switch t {
	case matType8UC1:
		return PixelFormatGray8, true
	case matType8UC2:
		return PixelFormatYUYV, true
	case matType8UC3:
		return PixelFormatBGR24, true
	case matType8UC4:
		return PixelFormatBGRA, true
	case matType16UC1:
		return PixelFormatGray16, true
	default:
		return PixelFormatGray8, false
	}
}

// VideoFrame is a packed pixel buffer.
//
// A frame filled by a capture is a view: Data points into memory owned by the
// native capture object and stays valid until the next Grab, Retrieve or Read
// on that capture, or until Release. Use Clone to keep the pixels longer.
type VideoFrame struct {
	// Width of the frame in pixels (columns).
	Width int

	// Height of the frame in pixels (rows).
	Height int

	// Format specifies the pixel layout.
	Format PixelFormat

	// Data contains the pixels, row after row.
	Data []byte

	// Stride is the number of bytes per row.
	Stride int

	// Timestamp is the presentation timestamp reported by the capture.
	Timestamp time.Duration

	release func()
}

// NewVideoFrame allocates a zeroed frame with a tightly packed stride.
func NewVideoFrame(width, height int, format PixelFormat) *VideoFrame {
	stride := width * format.BytesPerPixel()
	return &VideoFrame{
		Width:  width,
		Height: height,
		Format: format,
		Data:   make([]byte, stride*height),
		Stride: stride,
	}
}

// NewPacketFrame wraps an encoded packet as a 1xN GRAY8 frame without copying.
func NewPacketFrame(packet []byte) *VideoFrame {
	return &VideoFrame{
		Width:  len(packet),
		Height: 1,
		Format: PixelFormatGray8,
		Data:   packet,
		Stride: len(packet),
	}
}

// Attach points the frame at externally owned memory. release, if non-nil,
// runs once on Release or on the next Attach.
func (f *VideoFrame) Attach(data []byte, width, height, stride int, format PixelFormat, release func()) {
	f.Release()
	f.Data = data
	f.Width = width
	f.Height = height
	f.Stride = stride
	f.Format = format
	f.release = release
}

// IsView reports whether the frame borrows memory it does not own.
func (f *VideoFrame) IsView() bool {
	return f.release != nil
}

// Release drops a borrowed buffer. After Release the frame is empty.
func (f *VideoFrame) Release() {
	if f.release == nil {
		return
	}
	fn := f.release
	f.release = nil
	f.Data = nil
	f.Width, f.Height, f.Stride = 0, 0, 0
	fn()
}

// Reset releases any borrowed buffer and empties the frame, including a
// frame that owns its pixels.
func (f *VideoFrame) Reset() {
	f.Release()
	f.Data = nil
	f.Width, f.Height, f.Stride = 0, 0, 0
	f.Timestamp = 0
}

// Empty reports whether the frame holds no pixels.
func (f *VideoFrame) Empty() bool {
	return f == nil || f.Width == 0 || f.Height == 0 || len(f.Data) == 0
}

// Size returns the number of bytes covered by Stride*Height.
func (f *VideoFrame) Size() int {
	return f.Stride * f.Height
}

// Bytes returns the meaningful region of Data.
func (f *VideoFrame) Bytes() []byte {
	n := f.Size()
	if n > len(f.Data) {
		n = len(f.Data)
	}
	return f.Data[:n]
}

// Validate checks that the geometry fits the buffer.
func (f *VideoFrame) Validate() error {
	if f.Width < 0 || f.Height < 0 {
		return fmt.Errorf("invalid frame dimensions %dx%d", f.Width, f.Height)
	}
	if f.Stride < f.Width*f.Format.BytesPerPixel() {
		return fmt.Errorf("stride %d shorter than row of %d %s pixels", f.Stride, f.Width, f.Format)
	}
	if len(f.Data) < f.Size() {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, len(f.Data), f.Size())
	}
	return nil
}

// Clone creates a deep copy that owns its memory.
func (f *VideoFrame) Clone() *VideoFrame {
	clone := &VideoFrame{
		Width:     f.Width,
		Height:    f.Height,
		Format:    f.Format,
		Stride:    f.Stride,
		Timestamp: f.Timestamp,
		Data:      make([]byte, len(f.Bytes())),
	}
	copy(clone.Data, f.Bytes())
	return clone
}
