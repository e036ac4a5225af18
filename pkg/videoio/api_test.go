package videoio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFourcc(t *testing.T) {
	tests := []struct {
		chars string
		code  int32
	}{
		{"MJPG", 0x47504a4d},
		{"avc1", 0x31637661},
		{"mp4v", 0x7634706d},
		{"XVID", 0x44495658},
	}
	for _, tt := range tests {
		t.Run(tt.chars, func(t *testing.T) {
			got := Fourcc(tt.chars[0], tt.chars[1], tt.chars[2], tt.chars[3])
			assert.Equal(t, tt.code, got)
			assert.Equal(t, got, FourccFromString(tt.chars))
			assert.Equal(t, tt.chars, FourccString(got))
		})
	}
}

func TestFourccStringEdgeCases(t *testing.T) {
	assert.Equal(t, "", FourccString(0))
	assert.Equal(t, "Y8", FourccString(FourccFromString("Y8")))
	assert.Equal(t, "?", FourccString(1))
	assert.Equal(t, "????", FourccString(-1))
}

func TestFourccBytesRoundTrip(t *testing.T) {
	tests := [][4]byte{
		{'r', 'a', 'w', ' '},
		{'Y', '8', ' ', ' '},
		{'M', 'J', 'P', 'G'},
		{0, 0, 0, 0},
		{0x01, 0x7f, 0x80, 0xff},
	}
	for _, b := range tests {
		code := Fourcc(b[0], b[1], b[2], b[3])
		assert.Equal(t, b, FourccBytes(code), "code %#x", uint32(code))
	}

	assert.Equal(t, [4]byte{'r', 'a', 'w', ' '}, FourccBytes(FourccFromString("raw")))
	assert.Equal(t, "raw", FourccString(FourccFromString("raw")), "display form trims padding")
}

func TestParseAPI(t *testing.T) {
	tests := []struct {
		in   string
		want API
	}{
		{"", APIAny},
		{"any", APIAny},
		{"ffmpeg", APIFFmpeg},
		{"CAP_FFMPEG", APIFFmpeg},
		{"GStreamer", APIGStreamer},
		{"v4l", APIV4L2},
		{"V4L2", APIV4L2},
		{"images", APIImages},
		{"mjpeg", APIOpenCVMJPEG},
		{"1900", APIFFmpeg},
		{"  msmf ", APIMSMF},
	}
	for _, tt := range tests {
		got, err := ParseAPI(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseAPI("betamax")
	assert.Error(t, err)
}

func TestAPIString(t *testing.T) {
	assert.Equal(t, "FFMPEG", APIFFmpeg.String())
	assert.Equal(t, "CAP_ANY", APIAny.String())
	assert.Equal(t, "UnknownVideoAPI(7)", API(7).String())
}

func TestParams(t *testing.T) {
	p := NewParams().With(PropOpenTimeoutMsec, 5000).With(PropHWAcceleration, HWAccelerationAny)
	assert.Equal(t, Params{53, 5000, 50, 1}, p)

	v, ok := p.Lookup(int32(PropHWAcceleration))
	assert.True(t, ok)
	assert.Equal(t, int32(1), v)

	_, ok = p.Lookup(int32(PropFormat))
	assert.False(t, ok)

	base := NewParams(1, 2)
	a := base.With(PropFormat, -1)
	b := base.With(PropBufferSize, 3)
	assert.Equal(t, Params{1, 2, 8, -1}, a)
	assert.Equal(t, Params{1, 2, 38, 3}, b, "With does not alias the receiver")

	assert.Nil(t, Params(nil).ints())
}
