// Package codec names the compressed video formats a capture can deliver as
// raw packets, and maps them between fourcc codes and RTP media types.
package codec

import (
	"strings"

	"github.com/pion/webrtc/v4"

	"github.com/thesyncim/libgovideoio/pkg/videoio"
)

// Type represents a video codec.
type Type int

const (
	Unknown Type = iota
	H264
	HEVC
	VP8
	VP9
	AV1
	MJPEG
)

// String returns the string representation of the codec type.
func (t Type) String() string {
	switch t {
	case H264:
		return "H264"
	case HEVC:
		return "HEVC"
	case VP8:
		return "VP8"
	case VP9:
		return "VP9"
	case AV1:
		return "AV1"
	case MJPEG:
		return "MJPEG"
	default:
		return "Unknown"
	}
}

// MimeType returns the RTP media type for the codec.
func (t Type) MimeType() string {
	switch t {
	case H264:
		return webrtc.MimeTypeH264
	case HEVC:
		return webrtc.MimeTypeH265
	case VP8:
		return webrtc.MimeTypeVP8
	case VP9:
		return webrtc.MimeTypeVP9
	case AV1:
		return webrtc.MimeTypeAV1
	case MJPEG:
		return "video/JPEG"
	default:
		return ""
	}
}

// ClockRate returns the RTP clock rate for the codec.
func (t Type) ClockRate() uint32 {
	if t == Unknown {
		return 0
	}
	return 90000
}

// Fourcc returns the code a video writer uses for this codec.
func (t Type) Fourcc() int32 {
	switch t {
	case H264:
		return videoio.FourccFromString("avc1")
	case HEVC:
		return videoio.FourccFromString("hvc1")
	case VP8:
		return videoio.FourccFromString("VP80")
	case VP9:
		return videoio.FourccFromString("VP90")
	case AV1:
		return videoio.FourccFromString("av01")
	case MJPEG:
		return videoio.FourccFromString("MJPG")
	default:
		return 0
	}
}

// aliases lists the fourcc spellings containers and backends report.
var aliases = map[string]Type{
	"AVC1": H264, "H264": H264, "X264": H264, "DAVC": H264,
	"HVC1": HEVC, "HEV1": HEVC, "HEVC": HEVC, "H265": HEVC, "X265": HEVC,
	"VP80": VP8, "VP8": VP8,
	"VP90": VP9, "VP9": VP9,
	"AV01": AV1, "AV1": AV1,
	"MJPG": MJPEG, "JPEG": MJPEG, "AVRN": MJPEG,
}

// FromFourcc maps a fourcc code, as reported by PropFourcc, to a codec.
// Matching ignores case.
func FromFourcc(code int32) Type {
	return Parse(videoio.FourccString(code))
}

// Parse maps a codec or fourcc name ("h264", "avc1", "VP90") to a codec.
func Parse(s string) Type {
	return aliases[strings.ToUpper(strings.TrimSpace(s))]
}
