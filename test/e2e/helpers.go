// Package e2e runs the videoio bindings against the real native shim.
// Every test skips when the shim cannot be loaded; set LIBVIDEOIO_SHIM_PATH
// to point at it.
package e2e

import (
	"path/filepath"
	"testing"

	"github.com/thesyncim/libgovideoio/internal/testutil"
	"github.com/thesyncim/libgovideoio/pkg/videoio"
)

const (
	clipWidth  = 160
	clipHeight = 120
	clipFPS    = 25.0
	clipFrames = 10
)

// writeClip encodes an MJPG AVI clip into a temp dir and returns its path.
func writeClip(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.avi")

	w, err := videoio.NewVideoWriterFile(path, videoio.Fourcc('M', 'J', 'P', 'G'), clipFPS, clipWidth, clipHeight, true)
	if err != nil {
		t.Fatalf("NewVideoWriterFile() error = %v", err)
	}
	defer w.Close()

	opened, err := w.IsOpened()
	if err != nil || !opened {
		t.Skipf("MJPG writer not available: opened=%v err=%v", opened, err)
	}
	for n := 0; n < clipFrames; n++ {
		if err := w.Write(testutil.CreatePatternFrame(clipWidth, clipHeight, n)); err != nil {
			t.Fatalf("Write(%d) error = %v", n, err)
		}
	}
	if err := w.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	return path
}
