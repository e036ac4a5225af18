package videoio

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/libgovideoio/internal/testutil"
)

// useFake installs a FakeLibrary for the duration of the test and checks
// that every native object the test created was destroyed.
func useFake(t *testing.T) *testutil.FakeLibrary {
	t.Helper()
	lib := testutil.NewFakeLibrary()
	restore := UseLibrary(lib)
	t.Cleanup(func() {
		restore()
		captures, writers, readers := lib.Live()
		require.Zero(t, captures, "captures leaked")
		require.Zero(t, writers, "writers leaked")
		require.Zero(t, readers, "readers leaked")
	})
	return lib
}

// captureLogs routes entry point logging into a test hook.
func captureLogs(t *testing.T) *logtest.Hook {
	t.Helper()
	l, hook := logtest.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	SetLogger(l)
	t.Cleanup(func() { SetLogger(nil) })
	return hook
}

var testClip = testutil.Media{Width: 64, Height: 48, FPS: 25, Frames: 5, Fourcc: Fourcc('a', 'v', 'c', '1')}
