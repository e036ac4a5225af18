package codec

import (
	"testing"

	"github.com/thesyncim/libgovideoio/pkg/videoio"
)

func TestCodecType(t *testing.T) {
	tests := []struct {
		codec     Type
		str       string
		mime      string
		fourcc    string
		clockRate uint32
	}{
		{H264, "H264", "video/H264", "avc1", 90000},
		{HEVC, "HEVC", "video/H265", "hvc1", 90000},
		{VP8, "VP8", "video/VP8", "VP80", 90000},
		{VP9, "VP9", "video/VP9", "VP90", 90000},
		{AV1, "AV1", "video/AV1", "av01", 90000},
		{MJPEG, "MJPEG", "video/JPEG", "MJPG", 90000},
		{Unknown, "Unknown", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			if got := tt.codec.String(); got != tt.str {
				t.Errorf("String() = %v, want %v", got, tt.str)
			}
			if got := tt.codec.MimeType(); got != tt.mime {
				t.Errorf("MimeType() = %v, want %v", got, tt.mime)
			}
			if got := videoio.FourccString(tt.codec.Fourcc()); got != tt.fourcc {
				t.Errorf("Fourcc() = %q, want %q", got, tt.fourcc)
			}
			if got := tt.codec.ClockRate(); got != tt.clockRate {
				t.Errorf("ClockRate() = %v, want %v", got, tt.clockRate)
			}
			if tt.codec != Unknown {
				if got := FromFourcc(tt.codec.Fourcc()); got != tt.codec {
					t.Errorf("FromFourcc(Fourcc()) = %v, want %v", got, tt.codec)
				}
			}
		})
	}
}

func TestFromFourccAliases(t *testing.T) {
	tests := map[string]Type{
		"H264": H264,
		"x264": H264,
		"hev1": HEVC,
		"H265": HEVC,
		"MJPG": MJPEG,
		"XVID": Unknown,
	}
	for s, want := range tests {
		if got := FromFourcc(videoio.FourccFromString(s)); got != want {
			t.Errorf("FromFourcc(%q) = %v, want %v", s, got, want)
		}
	}
	if got := FromFourcc(0); got != Unknown {
		t.Errorf("FromFourcc(0) = %v, want Unknown", got)
	}
}

func TestParse(t *testing.T) {
	if got := Parse(" vp9 "); got != VP9 {
		t.Errorf("Parse(vp9) = %v", got)
	}
	if got := Parse("theora"); got != Unknown {
		t.Errorf("Parse(theora) = %v", got)
	}
}
