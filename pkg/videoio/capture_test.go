package videoio

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/libgovideoio/internal/native"
	"github.com/thesyncim/libgovideoio/internal/testutil"
	"github.com/thesyncim/libgovideoio/pkg/frame"
)

func TestCaptureOpenMissingFileReturnsFalse(t *testing.T) {
	useFake(t)

	c, err := NewVideoCaptureFile("/nonexistent/file.avi", APIFFmpeg)
	require.NoError(t, err)
	defer c.Close()

	opened, err := c.IsOpened()
	require.NoError(t, err)
	assert.False(t, opened)

	ok, err := c.OpenFile("/nonexistent/file.avi", APIFFmpeg)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCaptureExceptionModeRaisesCvException(t *testing.T) {
	useFake(t)

	c, err := NewVideoCapture()
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SetExceptionMode(true))
	enabled, err := c.ExceptionMode()
	require.NoError(t, err)
	assert.True(t, enabled)

	ok, err := c.OpenFile("/nonexistent/file.avi", APIAny)
	assert.False(t, ok)

	var cvErr *CvException
	require.ErrorAs(t, err, &cvErr)
	assert.Contains(t, cvErr.What, "/nonexistent/file.avi")
	assert.Equal(t, "cv::Exception: "+cvErr.What, err.Error())
}

func TestCaptureReadFrames(t *testing.T) {
	lib := useFake(t)
	lib.AddFile("clip.mp4", testClip)

	c, err := NewVideoCaptureFile("clip.mp4", APIAny)
	require.NoError(t, err)
	defer c.Close()

	width, err := c.Get(PropFrameWidth)
	require.NoError(t, err)
	assert.Equal(t, 64.0, width)

	count, err := c.Get(PropFrameCount)
	require.NoError(t, err)
	assert.Equal(t, 5.0, count)

	fourcc, err := c.Get(PropFourcc)
	require.NoError(t, err)
	assert.Equal(t, "avc1", FourccString(int32(uint32(fourcc))))

	var f frame.VideoFrame
	defer f.Release()
	for n := 0; n < testClip.Frames; n++ {
		ok, err := c.Read(&f)
		require.NoError(t, err)
		require.True(t, ok, "frame %d", n)
		assert.Equal(t, 64, f.Width)
		assert.Equal(t, 48, f.Height)
		assert.Equal(t, frame.PixelFormatBGR24, f.Format)
		assert.Equal(t, testutil.PatternPixel(n, 3, 2), f.Data[2*f.Stride+3*3])
	}

	ok, err := c.Read(&f)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, f.Empty())
}

func TestCaptureReadPastEndEmptiesOwnedFrame(t *testing.T) {
	lib := useFake(t)
	lib.AddFile("clip.mp4", testClip)

	c, err := NewVideoCaptureFile("clip.mp4", APIAny)
	require.NoError(t, err)
	defer c.Close()

	ok, err := c.Set(PropPosFrames, float64(testClip.Frames))
	require.NoError(t, err)
	require.True(t, ok)

	dst := frame.NewVideoFrame(8, 8, frame.PixelFormatBGR24)
	ok, err = c.Read(dst)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, dst.Empty())
	assert.Zero(t, dst.Width)
	assert.Empty(t, dst.Data)

	dst = frame.NewVideoFrame(8, 8, frame.PixelFormatBGR24)
	ok, err = c.Retrieve(dst, RetrieveDefault)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, dst.Empty())
}

func TestCaptureGrabRetrieve(t *testing.T) {
	lib := useFake(t)
	lib.AddFile("clip.mp4", testClip)

	c, err := NewVideoCaptureFile("clip.mp4", APIFFmpeg)
	require.NoError(t, err)
	defer c.Close()

	var f frame.VideoFrame
	ok, err := c.Retrieve(&f, RetrieveDefault)
	require.NoError(t, err)
	assert.False(t, ok, "retrieve before grab")

	ok, err = c.Grab()
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.Retrieve(&f, RetrieveDefault)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, f.IsView())
	f.Release()
	assert.True(t, f.Empty())
}

func TestCaptureRawPackets(t *testing.T) {
	lib := useFake(t)
	lib.AddFile("clip.mp4", testClip)

	c, err := NewVideoCaptureFileParams("clip.mp4", APIAny, NewParams().With(PropFormat, -1))
	require.NoError(t, err)
	defer c.Close()

	var f frame.VideoFrame
	ok, err := c.Read(&f)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "packet-0000", string(f.Bytes()))
}

func TestCaptureOddParams(t *testing.T) {
	lib := useFake(t)
	lib.AddFile("clip.mp4", testClip)

	_, err := NewVideoCaptureFileParams("clip.mp4", APIAny, NewParams(int32(PropFormat)))
	var cvErr *CvException
	require.ErrorAs(t, err, &cvErr)
	assert.Contains(t, cvErr.What, "params.size() % 2 == 0")
}

func TestCaptureWrongBackend(t *testing.T) {
	lib := useFake(t)
	lib.AddFile("clip.mp4", testClip)

	c, err := NewVideoCaptureFile("clip.mp4", APIGStreamer)
	require.NoError(t, err)
	defer c.Close()

	opened, err := c.IsOpened()
	require.NoError(t, err)
	assert.False(t, opened)
}

func TestCaptureCamera(t *testing.T) {
	lib := useFake(t)
	lib.AddCamera(0, testutil.Media{Width: 32, Height: 24, FPS: 30})

	c, err := NewVideoCaptureIndex(0, APIAny)
	require.NoError(t, err)
	defer c.Close()

	name, err := c.BackendName()
	require.NoError(t, err)
	assert.Equal(t, "V4L2", name)

	backend, err := c.Get(PropBackend)
	require.NoError(t, err)
	assert.Equal(t, float64(APIV4L2), backend)

	ok, err := c.OpenIndex(7, APIAny)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.OpenIndexParams(0, APIV4L2, NewParams().With(PropFormat, -1))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCaptureBackendNameUnopened(t *testing.T) {
	useFake(t)

	c, err := NewVideoCapture()
	require.NoError(t, err)
	defer c.Close()

	_, err = c.BackendName()
	var cvErr *CvException
	require.ErrorAs(t, err, &cvErr)
}

func TestCaptureSetPosition(t *testing.T) {
	lib := useFake(t)
	lib.AddFile("clip.mp4", testClip)

	c, err := NewVideoCaptureFile("clip.mp4", APIAny)
	require.NoError(t, err)
	defer c.Close()

	ok, err := c.Set(PropPosFrames, 3)
	require.NoError(t, err)
	require.True(t, ok)

	var f frame.VideoFrame
	ok, err = c.Read(&f)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testutil.PatternPixel(3, 0, 0), f.Data[0])

	ok, err = c.Set(PropBrightness, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Release())
	opened, err := c.IsOpened()
	require.NoError(t, err)
	assert.False(t, opened)
}

func TestCaptureErrorClasses(t *testing.T) {
	tests := []struct {
		name    string
		failure testutil.Failure
		check   func(t *testing.T, err error)
	}{
		{
			name:    "cv exception",
			failure: testutil.Failure{Kind: native.KindLibrary, What: "(-2:Unspecified error) boom"},
			check: func(t *testing.T, err error) {
				var cvErr *CvException
				require.ErrorAs(t, err, &cvErr)
				assert.Equal(t, "cv::Exception: (-2:Unspecified error) boom", err.Error())
			},
		},
		{
			name:    "std exception",
			failure: testutil.Failure{Kind: native.KindStandard, What: "bad_alloc"},
			check: func(t *testing.T, err error) {
				var ex *Exception
				require.ErrorAs(t, err, &ex)
				assert.Equal(t, "std::exception: bad_alloc", err.Error())
				assert.False(t, ex.Unknown())
			},
		},
		{
			name:    "unknown exception",
			failure: testutil.Failure{Kind: native.KindUnknown},
			check: func(t *testing.T, err error) {
				var ex *Exception
				require.ErrorAs(t, err, &ex)
				assert.Equal(t, "unknown exception", err.Error())
				assert.True(t, ex.Unknown())
			},
		},
		{
			name:    "panic",
			failure: testutil.Failure{Panic: "native crash"},
			check: func(t *testing.T, err error) {
				var ex *Exception
				require.ErrorAs(t, err, &ex)
				assert.True(t, ex.Unknown())
			},
		},
		{
			name:    "go error",
			failure: testutil.Failure{Err: errors.New("device busy")},
			check: func(t *testing.T, err error) {
				var ex *Exception
				require.ErrorAs(t, err, &ex)
				assert.Equal(t, "device busy", err.Error())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := useFake(t)
			lib.AddFile("clip.mp4", testClip)
			hook := captureLogs(t)

			c, err := NewVideoCaptureFile("clip.mp4", APIAny)
			require.NoError(t, err)
			defer c.Close()

			lib.Fail("Capture.Grab", tt.failure)
			ok, err := c.Grab()
			assert.False(t, ok)
			require.Error(t, err)
			tt.check(t, err)

			last := hook.LastEntry()
			require.NotNil(t, last)
			assert.Equal(t, logrus.ErrorLevel, last.Level)
			assert.Equal(t, "VideoCapture.Grab caught "+err.Error(), last.Message)
			assert.Equal(t, "VideoCapture.Grab", last.Data["method"])

			lib.Clear("Capture.Grab")
			ok, err = c.Grab()
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestCaptureConstructorFailureDestroys(t *testing.T) {
	lib := useFake(t)
	lib.Fail("Capture.OpenFile", testutil.Failure{Kind: native.KindStandard, What: "out of range"})

	c, err := NewVideoCaptureFile("clip.mp4", APIAny)
	assert.Nil(t, c)
	assert.EqualError(t, err, "std::exception: out of range")

	lib.Fail("Library.NewCapture", testutil.Failure{Kind: native.KindUnknown})
	_, err = NewVideoCapture()
	assert.EqualError(t, err, "unknown exception")
}

func TestCaptureUseAfterClose(t *testing.T) {
	useFake(t)

	c, err := NewVideoCapture()
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.Grab()
	var ex *Exception
	require.ErrorAs(t, err, &ex)
	assert.ErrorIs(t, err, ErrInvalidHandle)

	var nilCapture *VideoCapture
	_, err = nilCapture.IsOpened()
	assert.ErrorIs(t, err, ErrInvalidHandle)
	assert.NoError(t, nilCapture.Close())
}

func TestCaptureNilFrame(t *testing.T) {
	useFake(t)

	c, err := NewVideoCapture()
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Read(nil)
	assert.ErrorIs(t, err, ErrNilFrame)
	_, err = c.Retrieve(nil, RetrieveDefault)
	assert.ErrorIs(t, err, ErrNilFrame)
}

func TestCaptureEntryLogging(t *testing.T) {
	useFake(t)
	hook := captureLogs(t)

	c, err := NewVideoCapture()
	require.NoError(t, err)
	defer c.Close()

	_, err = c.IsOpened()
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, logrus.DebugLevel, e.Level)
		assert.Equal(t, "entering", e.Message)
	}
	assert.Equal(t, "VideoCapture.NewVideoCapture", entries[0].Data["method"])
	assert.Equal(t, "VideoCapture.IsOpened", entries[1].Data["method"])
}
