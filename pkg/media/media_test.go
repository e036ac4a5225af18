package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thesyncim/libgovideoio/internal/testutil"
	"github.com/thesyncim/libgovideoio/pkg/codec"
	"github.com/thesyncim/libgovideoio/pkg/videoio"
)

func useFake(t *testing.T) *testutil.FakeLibrary {
	t.Helper()
	lib := testutil.NewFakeLibrary()
	restore := videoio.UseLibrary(lib)
	t.Cleanup(func() {
		restore()
		if c, w, r := lib.Live(); c+w+r != 0 {
			t.Errorf("leaked native objects: captures=%d writers=%d readers=%d", c, w, r)
		}
	})
	return lib
}

var camera = testutil.Media{Width: 32, Height: 24, FPS: 200, Fourcc: videoio.Fourcc('V', 'P', '8', '0')}

func TestConstraintValue(t *testing.T) {
	tests := []struct {
		name string
		c    IntConstraint
		want int
		ok   bool
	}{
		{"empty", IntConstraint{}, 0, false},
		{"exact", ExactInt(640), 640, true},
		{"ideal", IdealInt(320), 320, true},
		{"range", RangeInt(100, 200), 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.c.Value()
			if got != tt.want || ok != tt.ok {
				t.Errorf("Value() = %v, %v, want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}

	if v, ok := ExactFloat(30).Value(); !ok || v != 30 {
		t.Errorf("ExactFloat(30).Value() = %v, %v", v, ok)
	}
}

func TestConstraintCheck(t *testing.T) {
	if err := IdealInt(640).check("width", 32); err != nil {
		t.Errorf("ideal constraint failed: %v", err)
	}
	if err := RangeInt(10, 40).check("width", 32); err != nil {
		t.Errorf("range constraint failed: %v", err)
	}

	err := ExactInt(640).check("width", 32)
	var over *OverconstrainedError
	if !errors.As(err, &over) || over.Constraint != "width" {
		t.Fatalf("check() error = %v, want OverconstrainedError on width", err)
	}
	if err := RangeFloat(60, 120).check("frameRate", 30); err == nil {
		t.Error("frame rate below minimum accepted")
	}
}

func TestInvalidConstraints(t *testing.T) {
	tests := []VideoConstraints{
		{Width: ExactInt(-1)},
		{FrameRate: RangeFloat(60, 30)},
		{DeviceID: "front"},
	}
	for _, c := range tests {
		if _, err := GetUserMedia(c); !errors.Is(err, ErrInvalidConstraints) {
			t.Errorf("GetUserMedia(%+v) error = %v, want ErrInvalidConstraints", c, err)
		}
	}
}

func TestGetUserMedia(t *testing.T) {
	lib := useFake(t)
	lib.AddCamera(1, camera)

	s, err := GetUserMedia(VideoConstraints{DeviceID: "1", Width: IdealInt(640)})
	if err != nil {
		t.Fatalf("GetUserMedia() error = %v", err)
	}
	defer s.Stop()

	got := s.Settings()
	want := VideoSettings{Width: 32, Height: 24, FrameRate: 200, DeviceID: "1", Backend: "V4L2", Codec: codec.VP8}
	if got != want {
		t.Errorf("Settings() = %+v, want %+v", got, want)
	}
	if s.ReadyState() != StateLive {
		t.Errorf("ReadyState() = %q", s.ReadyState())
	}
	if s.Track().Codec().MimeType != codec.VP8.MimeType() {
		t.Errorf("track codec = %q", s.Track().Codec().MimeType)
	}
	if s.Track().StreamID() != s.ID() {
		t.Errorf("track stream id = %q, want %q", s.Track().StreamID(), s.ID())
	}
}

func TestGetUserMediaMissingCamera(t *testing.T) {
	useFake(t)
	if _, err := GetUserMedia(VideoConstraints{DeviceID: "3"}); !errors.Is(err, ErrNotOpened) {
		t.Errorf("GetUserMedia() error = %v, want ErrNotOpened", err)
	}
}

func TestGetUserMediaOverconstrained(t *testing.T) {
	lib := useFake(t)
	lib.AddCamera(0, camera)

	_, err := GetUserMedia(VideoConstraints{Width: ExactInt(1920)})
	var over *OverconstrainedError
	if !errors.As(err, &over) || over.Constraint != "width" {
		t.Errorf("GetUserMedia() error = %v, want OverconstrainedError on width", err)
	}
}

func TestUnknownCodec(t *testing.T) {
	lib := useFake(t)
	lib.AddCamera(0, testutil.Media{Width: 8, Height: 8, FPS: 30})

	if _, err := GetUserMedia(VideoConstraints{}); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("GetUserMedia() error = %v, want ErrUnknownCodec", err)
	}

	s, err := GetUserMedia(VideoConstraints{Codec: codec.H264})
	if err != nil {
		t.Fatalf("GetUserMedia() with codec error = %v", err)
	}
	s.Stop()
}

func TestApplyConstraints(t *testing.T) {
	lib := useFake(t)
	lib.AddCamera(0, camera)

	s, err := GetUserMedia(VideoConstraints{})
	if err != nil {
		t.Fatalf("GetUserMedia() error = %v", err)
	}
	defer s.Stop()

	if err := s.ApplyConstraints(VideoConstraints{Height: RangeInt(10, 30)}); err != nil {
		t.Errorf("ApplyConstraints() error = %v", err)
	}
	if _, ok := s.Constraints().Height.Value(); !ok {
		t.Error("constraints not stored")
	}
	if err := s.ApplyConstraints(VideoConstraints{Codec: codec.H264}); err == nil {
		t.Error("codec change accepted")
	}

	s.Stop()
	if err := s.ApplyConstraints(VideoConstraints{}); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("ApplyConstraints() after Stop error = %v", err)
	}
}

func TestStartFileEndsStream(t *testing.T) {
	lib := useFake(t)
	lib.AddFile("clip.webm", testutil.Media{Width: 16, Height: 16, FPS: 500, Frames: 3, Fourcc: videoio.Fourcc('V', 'P', '8', '0')})

	c, err := videoio.NewVideoCaptureFileParams("clip.webm", videoio.APIAny, videoio.NewParams().With(videoio.PropFormat, -1))
	if err != nil {
		t.Fatalf("NewVideoCaptureFileParams() error = %v", err)
	}
	s, err := NewVideoStream(c, VideoConstraints{})
	if err != nil {
		c.Close()
		t.Fatalf("NewVideoStream() error = %v", err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Errorf("Start() error = %v", err)
	}
	if s.ReadyState() != StateEnded {
		t.Errorf("ReadyState() = %q, want ended", s.ReadyState())
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("second Start() error = %v", err)
	}
}

func TestStopInterruptsStart(t *testing.T) {
	lib := useFake(t)
	lib.AddCamera(0, testutil.Media{Width: 8, Height: 8, FPS: 10, Fourcc: videoio.Fourcc('a', 'v', 'c', '1')})

	s, err := GetUserMedia(VideoConstraints{})
	if err != nil {
		t.Fatalf("GetUserMedia() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after Stop")
	}
}
