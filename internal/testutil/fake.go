package testutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thesyncim/libgovideoio/internal/native"
	"github.com/thesyncim/libgovideoio/pkg/frame"
)

// Identifiers used by the fake. They mirror the native library's values.
const (
	APIAny       int32 = 0
	APIV4L2      int32 = 200
	APIGStreamer int32 = 1800
	APIFFmpeg    int32 = 1900
	APIImages    int32 = 2000
	APIMJPEG     int32 = 2200

	propPosMsec     int32 = 0
	propPosFrames   int32 = 1
	propFrameWidth  int32 = 3
	propFrameHeight int32 = 4
	propFPS         int32 = 5
	propFourcc      int32 = 6
	propFrameCount  int32 = 7
	propFormat      int32 = 8
	propBackend     int32 = 42

	writerPropQuality int32 = 1
	writerPropIsColor int32 = 4
)

// Media describes a synthetic clip or camera served by FakeLibrary.
type Media struct {
	Width, Height int
	FPS           float64
	// Frames is the clip length. Cameras use 0 for an endless stream.
	Frames int
	Fourcc int32
	// Backend serves the media. Zero means FFmpeg for files and streams,
	// V4L2 for cameras.
	Backend int32
}

// Failure is an injected failure for one call.
type Failure struct {
	// Kind raises a native exception of that kind.
	Kind native.ExceptionKind
	What string
	// Err is returned as a plain Go error when Kind is zero.
	Err error
	// Panic makes the call panic with the given value.
	Panic any
}

func (f Failure) raise() error {
	if f.Panic != nil {
		panic(f.Panic)
	}
	if f.Kind != 0 {
		return &native.Exception{Kind: f.Kind, What: f.What}
	}
	return f.Err
}

// Plugin describes a dynamically loaded backend.
type Plugin struct {
	Description string
	ABI, API    int32
}

// FakeLibrary is an in-memory native.Library. It is safe for concurrent use.
type FakeLibrary struct {
	mu       sync.Mutex
	files    map[string]Media
	cameras  map[int32]Media
	streams  map[string]Media
	backends map[native.BackendKind][]int32
	names    map[int32]string
	builtIn  map[int32]bool
	plugins  map[int32]Plugin
	failures map[string]Failure
	written  map[string][]*frame.VideoFrame

	liveCaptures atomic.Int64
	liveWriters  atomic.Int64
	liveReaders  atomic.Int64
}

var _ native.Library = (*FakeLibrary)(nil)

// NewFakeLibrary returns a library with a typical Linux backend set:
// FFmpeg, V4L2 and the image sequence backends built in, GStreamer as a plugin.
func NewFakeLibrary() *FakeLibrary {
	return &FakeLibrary{
		files:   make(map[string]Media),
		cameras: make(map[int32]Media),
		streams: make(map[string]Media),
		backends: map[native.BackendKind][]int32{
			native.BackendsAll:            {APIFFmpeg, APIGStreamer, APIV4L2, APIImages, APIMJPEG},
			native.BackendsCamera:         {APIV4L2, APIGStreamer},
			native.BackendsStream:         {APIFFmpeg, APIGStreamer, APIImages, APIMJPEG},
			native.BackendsStreamBuffered: {APIFFmpeg},
			native.BackendsWriter:         {APIFFmpeg, APIGStreamer, APIImages, APIMJPEG},
		},
		names: map[int32]string{
			APIFFmpeg:    "FFMPEG",
			APIGStreamer: "GSTREAMER",
			APIV4L2:      "V4L2",
			APIImages:    "CV_IMAGES",
			APIMJPEG:     "CV_MJPEG",
		},
		builtIn: map[int32]bool{
			APIFFmpeg: true,
			APIV4L2:   true,
			APIImages: true,
			APIMJPEG:  true,
		},
		plugins: map[int32]Plugin{
			APIGStreamer: {Description: "GStreamer OpenCV video I/O plugin", ABI: 1, API: 1},
		},
		failures: make(map[string]Failure),
		written:  make(map[string][]*frame.VideoFrame),
	}
}

// AddFile registers a clip openable by filename.
func (l *FakeLibrary) AddFile(name string, m Media) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m.Backend == 0 {
		m.Backend = APIFFmpeg
	}
	l.files[name] = m
}

// AddCamera registers a camera at index.
func (l *FakeLibrary) AddCamera(index int32, m Media) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m.Backend == 0 {
		m.Backend = APIV4L2
	}
	l.cameras[index] = m
}

// AddStream registers a clip recognized by its exact byte content.
func (l *FakeLibrary) AddStream(content []byte, m Media) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m.Backend == 0 {
		m.Backend = APIFFmpeg
	}
	l.streams[string(content)] = m
}

// SetBackends replaces one backend list.
func (l *FakeLibrary) SetBackends(kind native.BackendKind, ids ...int32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.backends[kind] = append([]int32(nil), ids...)
}

// Fail makes every later call to method fail until Clear is called.
// Methods are named "Capture.Grab", "Writer.Open", "Registry.Backends" and
// so on; "Library.NewCapture" fails object creation.
func (l *FakeLibrary) Fail(method string, f Failure) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[method] = f
}

// Clear removes an injected failure.
func (l *FakeLibrary) Clear(method string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, method)
}

// Written returns the frames written to filename, in order.
func (l *FakeLibrary) Written(filename string) []*frame.VideoFrame {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*frame.VideoFrame(nil), l.written[filename]...)
}

// Live returns the number of native objects created and not yet destroyed.
func (l *FakeLibrary) Live() (captures, writers, readers int64) {
	return l.liveCaptures.Load(), l.liveWriters.Load(), l.liveReaders.Load()
}

func (l *FakeLibrary) check(method string) error {
	l.mu.Lock()
	f, ok := l.failures[method]
	l.mu.Unlock()
	if !ok {
		return nil
	}
	return f.raise()
}

func (l *FakeLibrary) hasBackend(kind native.BackendKind, api int32) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range l.backends[kind] {
		if id == api {
			return true
		}
	}
	return false
}

func (l *FakeLibrary) NewCapture() (native.Capture, error) {
	if err := l.check("Library.NewCapture"); err != nil {
		return nil, err
	}
	l.liveCaptures.Add(1)
	return &fakeCapture{lib: l}, nil
}

func (l *FakeLibrary) NewWriter() (native.Writer, error) {
	if err := l.check("Library.NewWriter"); err != nil {
		return nil, err
	}
	l.liveWriters.Add(1)
	return &fakeWriter{lib: l}, nil
}

func (l *FakeLibrary) NewReader(src io.ReadSeeker) (native.Reader, error) {
	if err := l.check("Library.NewReader"); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, &native.Exception{Kind: native.KindLibrary, What: "stream source is null"}
	}
	l.liveReaders.Add(1)
	return &fakeReader{lib: l, src: src}, nil
}

func (l *FakeLibrary) Registry() native.Registry {
	return fakeRegistry{lib: l}
}

// --- Registry ---

type fakeRegistry struct {
	lib *FakeLibrary
}

func (r fakeRegistry) BackendName(api int32) (string, error) {
	if err := r.lib.check("Registry.BackendName"); err != nil {
		return "", err
	}
	r.lib.mu.Lock()
	defer r.lib.mu.Unlock()
	if name, ok := r.lib.names[api]; ok {
		return name, nil
	}
	return fmt.Sprintf("UnknownVideoAPI(%d)", api), nil
}

func (r fakeRegistry) Backends(kind native.BackendKind) ([]int32, error) {
	if err := r.lib.check("Registry.Backends"); err != nil {
		return nil, err
	}
	r.lib.mu.Lock()
	defer r.lib.mu.Unlock()
	return append([]int32{}, r.lib.backends[kind]...), nil
}

func (r fakeRegistry) HasBackend(api int32) (bool, error) {
	if err := r.lib.check("Registry.HasBackend"); err != nil {
		return false, err
	}
	return r.lib.hasBackend(native.BackendsAll, api), nil
}

func (r fakeRegistry) IsBackendBuiltIn(api int32) (bool, error) {
	if err := r.lib.check("Registry.IsBackendBuiltIn"); err != nil {
		return false, err
	}
	r.lib.mu.Lock()
	defer r.lib.mu.Unlock()
	return r.lib.builtIn[api], nil
}

func (r fakeRegistry) PluginVersion(kind native.BackendKind, api int32) (string, int32, int32, error) {
	if err := r.lib.check("Registry.PluginVersion"); err != nil {
		return "", 0, 0, err
	}
	if !r.lib.hasBackend(kind, api) {
		return "", 0, 0, &native.Exception{Kind: native.KindLibrary, What: fmt.Sprintf("backend %d is not available for %s", api, kind)}
	}
	r.lib.mu.Lock()
	defer r.lib.mu.Unlock()
	p, ok := r.lib.plugins[api]
	if !ok {
		return "", 0, 0, &native.Exception{Kind: native.KindLibrary, What: fmt.Sprintf("backend %s is built in, not a plugin", r.lib.names[api])}
	}
	return p.Description, p.ABI, p.API, nil
}

// --- Capture ---

type fakeCapture struct {
	lib       *FakeLibrary
	media     Media
	opened    bool
	throw     bool
	pos       int
	grabbed   bool
	destroyed bool
	rawFormat bool
}

func checkParams(params []int32) error {
	if len(params)%2 != 0 {
		return &native.Exception{Kind: native.KindLibrary, What: "(-215:Assertion failed) params.size() % 2 == 0"}
	}
	return nil
}

func (c *fakeCapture) fail(what string) (bool, error) {
	if c.throw {
		return false, &native.Exception{Kind: native.KindLibrary, What: what}
	}
	return false, nil
}

func (c *fakeCapture) open(m Media, found bool, api int32, params []int32, what string) (bool, error) {
	if err := checkParams(params); err != nil {
		return false, err
	}
	c.release()
	if !found || (api != APIAny && api != m.Backend) {
		return c.fail(what)
	}
	c.media = m
	c.opened = true
	c.pos = 0
	for i := 0; i+1 < len(params); i += 2 {
		if params[i] == propFormat && params[i+1] == -1 {
			c.rawFormat = true
		}
	}
	return true, nil
}

func (c *fakeCapture) OpenFile(filename string, api int32, params []int32) (bool, error) {
	if err := c.lib.check("Capture.OpenFile"); err != nil {
		return false, err
	}
	c.lib.mu.Lock()
	m, ok := c.lib.files[filename]
	c.lib.mu.Unlock()
	return c.open(m, ok, api, params, fmt.Sprintf("can't open file: %s", filename))
}

func (c *fakeCapture) OpenIndex(index, api int32, params []int32) (bool, error) {
	if err := c.lib.check("Capture.OpenIndex"); err != nil {
		return false, err
	}
	c.lib.mu.Lock()
	m, ok := c.lib.cameras[index]
	c.lib.mu.Unlock()
	return c.open(m, ok, api, params, fmt.Sprintf("can't open camera by index %d", index))
}

func (c *fakeCapture) OpenStream(src native.Reader, api int32, params []int32) (bool, error) {
	if err := c.lib.check("Capture.OpenStream"); err != nil {
		return false, err
	}
	if api != APIAny && !c.lib.hasBackend(native.BackendsStreamBuffered, api) {
		return c.fail(fmt.Sprintf("backend %d does not support stream input", api))
	}
	content, err := drain(src)
	if err != nil {
		return c.fail(err.Error())
	}
	c.lib.mu.Lock()
	m, ok := c.lib.streams[string(content)]
	c.lib.mu.Unlock()
	return c.open(m, ok, api, params, "can't open stream")
}

func drain(src native.Reader) ([]byte, error) {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	buf := make([]byte, 4096)
	for {
		n, err := src.Read(buf)
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return out.Bytes(), nil
		}
		out.Write(buf[:n])
	}
}

func (c *fakeCapture) IsOpened() (bool, error) {
	if err := c.lib.check("Capture.IsOpened"); err != nil {
		return false, err
	}
	return c.opened, nil
}

func (c *fakeCapture) release() {
	c.opened = false
	c.grabbed = false
	c.rawFormat = false
	c.pos = 0
	c.media = Media{}
}

func (c *fakeCapture) Release() error {
	if err := c.lib.check("Capture.Release"); err != nil {
		return err
	}
	c.release()
	return nil
}

func (c *fakeCapture) Grab() (bool, error) {
	if err := c.lib.check("Capture.Grab"); err != nil {
		return false, err
	}
	c.grabbed = false
	if !c.opened {
		return c.fail("grab on closed capture")
	}
	if c.media.Frames > 0 && c.pos >= c.media.Frames {
		return c.fail("end of stream")
	}
	c.pos++
	c.grabbed = true
	return true, nil
}

func (c *fakeCapture) Retrieve(dst *frame.VideoFrame, flag int32) (bool, error) {
	if err := c.lib.check("Capture.Retrieve"); err != nil {
		return false, err
	}
	if !c.grabbed {
		dst.Reset()
		return c.fail("retrieve without grabbed frame")
	}
	n := c.pos - 1
	if c.rawFormat {
		packet := []byte(fmt.Sprintf("packet-%04d", n))
		dst.Attach(packet, len(packet), 1, len(packet), frame.PixelFormatGray8, func() {})
		return true, nil
	}
	f := CreatePatternFrame(c.media.Width, c.media.Height, n)
	dst.Attach(f.Data, f.Width, f.Height, f.Stride, f.Format, func() {})
	dst.Timestamp = c.timestamp(n)
	return true, nil
}

func (c *fakeCapture) timestamp(n int) time.Duration {
	if c.media.FPS <= 0 {
		return 0
	}
	return time.Duration(float64(n) / c.media.FPS * float64(time.Second))
}

func (c *fakeCapture) Read(dst *frame.VideoFrame) (bool, error) {
	if err := c.lib.check("Capture.Read"); err != nil {
		return false, err
	}
	ok, err := c.Grab()
	if err != nil || !ok {
		dst.Reset()
		return ok, err
	}
	return c.Retrieve(dst, 0)
}

func (c *fakeCapture) Set(prop int32, value float64) (bool, error) {
	if err := c.lib.check("Capture.Set"); err != nil {
		return false, err
	}
	if !c.opened {
		return false, nil
	}
	switch prop {
	case propPosFrames:
		if value < 0 || (c.media.Frames > 0 && int(value) > c.media.Frames) {
			return false, nil
		}
		c.pos = int(value)
		c.grabbed = false
		return true, nil
	case propFormat:
		c.rawFormat = value == -1
		return true, nil
	}
	return false, nil
}

func (c *fakeCapture) Get(prop int32) (float64, error) {
	if err := c.lib.check("Capture.Get"); err != nil {
		return 0, err
	}
	if !c.opened {
		return 0, nil
	}
	switch prop {
	case propPosMsec:
		return float64(c.timestamp(c.pos)) / 1e6, nil
	case propPosFrames:
		return float64(c.pos), nil
	case propFrameWidth:
		return float64(c.media.Width), nil
	case propFrameHeight:
		return float64(c.media.Height), nil
	case propFPS:
		return c.media.FPS, nil
	case propFourcc:
		return float64(uint32(c.media.Fourcc)), nil
	case propFrameCount:
		return float64(c.media.Frames), nil
	case propFormat:
		if c.rawFormat {
			return -1, nil
		}
		return 16, nil
	case propBackend:
		return float64(c.media.Backend), nil
	}
	return 0, nil
}

func (c *fakeCapture) BackendName() (string, error) {
	if err := c.lib.check("Capture.BackendName"); err != nil {
		return "", err
	}
	if !c.opened {
		return "", &native.Exception{Kind: native.KindLibrary, What: "(-215:Assertion failed) !api.empty() in function 'getBackendName'"}
	}
	return fakeRegistry{lib: c.lib}.BackendName(c.media.Backend)
}

func (c *fakeCapture) SetExceptionMode(enable bool) error {
	if err := c.lib.check("Capture.SetExceptionMode"); err != nil {
		return err
	}
	c.throw = enable
	return nil
}

func (c *fakeCapture) ExceptionMode() (bool, error) {
	if err := c.lib.check("Capture.ExceptionMode"); err != nil {
		return false, err
	}
	return c.throw, nil
}

func (c *fakeCapture) Destroy() {
	if c.destroyed {
		panic("testutil: capture destroyed twice")
	}
	c.destroyed = true
	c.release()
	c.lib.liveCaptures.Add(-1)
}

// --- Writer ---

type fakeWriter struct {
	lib       *FakeLibrary
	filename  string
	opened    bool
	api       int32
	fourcc    int32
	fps       float64
	width     int
	height    int
	isColor   bool
	quality   float64
	destroyed bool
}

func (w *fakeWriter) Open(filename string, api, fourcc int32, fps float64, width, height int32, params []int32) (bool, error) {
	if err := w.lib.check("Writer.Open"); err != nil {
		return false, err
	}
	if err := checkParams(params); err != nil {
		return false, err
	}
	w.opened = false
	if filename == "" || width <= 0 || height <= 0 || fps < 0 || math.IsNaN(fps) {
		return false, nil
	}
	if api == APIAny {
		api = APIFFmpeg
	}
	if !w.lib.hasBackend(native.BackendsWriter, api) {
		return false, nil
	}

	w.filename = filename
	w.api = api
	w.fourcc = fourcc
	w.fps = fps
	w.width, w.height = int(width), int(height)
	w.isColor = true
	w.quality = 95
	for i := 0; i+1 < len(params); i += 2 {
		if params[i] == writerPropIsColor {
			w.isColor = params[i+1] != 0
		}
	}
	w.opened = true

	w.lib.mu.Lock()
	w.lib.written[filename] = nil
	w.lib.mu.Unlock()
	return true, nil
}

func (w *fakeWriter) IsOpened() (bool, error) {
	if err := w.lib.check("Writer.IsOpened"); err != nil {
		return false, err
	}
	return w.opened, nil
}

func (w *fakeWriter) Release() error {
	if err := w.lib.check("Writer.Release"); err != nil {
		return err
	}
	w.opened = false
	return nil
}

func (w *fakeWriter) Write(f *frame.VideoFrame) error {
	if err := w.lib.check("Writer.Write"); err != nil {
		return err
	}
	if !w.opened {
		return nil
	}
	if f.Width != w.width || f.Height != w.height {
		return &native.Exception{Kind: native.KindLibrary, What: fmt.Sprintf("frame size %dx%d does not match writer size %dx%d", f.Width, f.Height, w.width, w.height)}
	}
	w.lib.mu.Lock()
	w.lib.written[w.filename] = append(w.lib.written[w.filename], f.Clone())
	w.lib.mu.Unlock()
	return nil
}

func (w *fakeWriter) Set(prop int32, value float64) (bool, error) {
	if err := w.lib.check("Writer.Set"); err != nil {
		return false, err
	}
	if !w.opened || prop != writerPropQuality {
		return false, nil
	}
	w.quality = value
	return true, nil
}

func (w *fakeWriter) Get(prop int32) (float64, error) {
	if err := w.lib.check("Writer.Get"); err != nil {
		return 0, err
	}
	if !w.opened {
		return 0, nil
	}
	switch prop {
	case writerPropQuality:
		return w.quality, nil
	case writerPropIsColor:
		if w.isColor {
			return 1, nil
		}
		return 0, nil
	}
	return 0, nil
}

func (w *fakeWriter) BackendName() (string, error) {
	if err := w.lib.check("Writer.BackendName"); err != nil {
		return "", err
	}
	if !w.opened {
		return "", &native.Exception{Kind: native.KindLibrary, What: "(-215:Assertion failed) !iwriter.empty() in function 'getBackendName'"}
	}
	return fakeRegistry{lib: w.lib}.BackendName(w.api)
}

func (w *fakeWriter) Destroy() {
	if w.destroyed {
		panic("testutil: writer destroyed twice")
	}
	w.destroyed = true
	w.opened = false
	w.lib.liveWriters.Add(-1)
}

// --- Reader ---

type fakeReader struct {
	lib       *FakeLibrary
	src       io.ReadSeeker
	destroyed bool
}

func (r *fakeReader) Read(buf []byte) (int64, error) {
	if err := r.lib.check("Reader.Read"); err != nil {
		return 0, err
	}
	n, err := io.ReadFull(r.src, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, &native.Exception{Kind: native.KindStandard, What: err.Error()}
	}
	return int64(n), nil
}

func (r *fakeReader) Seek(offset int64, whence int) (int64, error) {
	if err := r.lib.check("Reader.Seek"); err != nil {
		return 0, err
	}
	pos, err := r.src.Seek(offset, whence)
	if err != nil {
		return 0, &native.Exception{Kind: native.KindStandard, What: err.Error()}
	}
	return pos, nil
}

func (r *fakeReader) Destroy() {
	if r.destroyed {
		panic("testutil: reader destroyed twice")
	}
	r.destroyed = true
	r.lib.liveReaders.Add(-1)
}
