// Package testutil provides shared test utilities for libgovideoio tests.
package testutil

import (
	"testing"

	"github.com/thesyncim/libgovideoio/internal/ffi"
	"github.com/thesyncim/libgovideoio/pkg/frame"
)

// RequireShim skips the test unless the shim library can be loaded.
// Tests that need real codecs or devices call it first; everything else runs
// against FakeLibrary.
func RequireShim(tb testing.TB) {
	tb.Helper()
	if err := ffi.LoadLibrary(); err != nil {
		tb.Skipf("shim library required: %v", err)
	}
}

// CreateTestVideoFrame creates a BGR24 frame with a diagonal gradient.
// The pattern is recognizable after a lossless round trip.
func CreateTestVideoFrame(width, height int) *frame.VideoFrame {
	return CreatePatternFrame(width, height, 0)
}

// CreatePatternFrame creates the BGR24 frame with index n of a synthetic
// clip. Pixel values are PatternPixel(n, x, y) on every channel.
func CreatePatternFrame(width, height, n int) *frame.VideoFrame {
	f := frame.NewVideoFrame(width, height, frame.PixelFormatBGR24)
	for y := 0; y < height; y++ {
		row := f.Data[y*f.Stride:]
		for x := 0; x < width; x++ {
			v := PatternPixel(n, x, y)
			row[x*3] = v
			row[x*3+1] = v
			row[x*3+2] = v
		}
	}
	return f
}

// PatternPixel is the value of pixel (x, y) in synthetic frame n.
func PatternPixel(n, x, y int) byte {
	return byte((n*7 + x + y) % 256)
}
