package videoio

import (
	"fmt"
	"strconv"
	"strings"
)

// API identifies a capture/writer backend (the native CAP_* values).
type API int32

const (
	APIAny          API = 0
	APIV4L2         API = 200
	APIFirewire     API = 300
	APIQT           API = 500
	APIUnicap       API = 600
	APIDShow        API = 700
	APIPvAPI        API = 800
	APIOpenNI       API = 900
	APIOpenNIAsus   API = 910
	APIAndroid      API = 1000
	APIXiAPI        API = 1100
	APIAVFoundation API = 1200
	APIGiganetix    API = 1300
	APIMSMF         API = 1400
	APIWinRT        API = 1410
	APIRealSense    API = 1500
	APIOpenNI2      API = 1600
	APIOpenNI2Asus  API = 1610
	APIOpenNI2Astra API = 1620
	APIGPhoto2      API = 1700
	APIGStreamer    API = 1800
	APIFFmpeg       API = 1900
	APIImages       API = 2000
	APIAravis       API = 2100
	APIOpenCVMJPEG  API = 2200
	APIIntelMFX     API = 2300
	APIXINE         API = 2400
	APIUEye         API = 2500
	APIOBSensor     API = 2600
)

// apiNames are the names the native registry reports.
var apiNames = map[API]string{
	APIAny:          "CAP_ANY",
	APIV4L2:         "V4L2",
	APIFirewire:     "FIREWIRE",
	APIQT:           "QUICKTIME",
	APIUnicap:       "UNICAP",
	APIDShow:        "DSHOW",
	APIPvAPI:        "PVAPI",
	APIOpenNI:       "OPENNI",
	APIOpenNIAsus:   "OPENNI_ASUS",
	APIAndroid:      "ANDROID_NATIVE",
	APIXiAPI:        "XIMEA",
	APIAVFoundation: "AVFOUNDATION",
	APIGiganetix:    "GIGANETIX",
	APIMSMF:         "MSMF",
	APIWinRT:        "WINRT",
	APIRealSense:    "INTEL_PERC",
	APIOpenNI2:      "OPENNI2",
	APIOpenNI2Asus:  "OPENNI2_ASUS",
	APIOpenNI2Astra: "OPENNI2_ASTRA",
	APIGPhoto2:      "GPHOTO2",
	APIGStreamer:    "GSTREAMER",
	APIFFmpeg:       "FFMPEG",
	APIImages:       "CV_IMAGES",
	APIAravis:       "ARAVIS",
	APIOpenCVMJPEG:  "CV_MJPEG",
	APIIntelMFX:     "INTEL_MFX",
	APIXINE:         "XINE",
	APIUEye:         "UEYE",
	APIOBSensor:     "OBSENSOR",
}

// String returns the backend name without consulting the native registry.
func (a API) String() string {
	if name, ok := apiNames[a]; ok {
		return name
	}
	return fmt.Sprintf("UnknownVideoAPI(%d)", int32(a))
}

// ParseAPI accepts a backend name ("ffmpeg", "V4L2", "CAP_GSTREAMER") or a
// numeric identifier.
func ParseAPI(s string) (API, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return APIAny, nil
	}
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return API(n), nil
	}
	name := strings.TrimPrefix(strings.ToUpper(s), "CAP_")
	switch name {
	case "ANY":
		return APIAny, nil
	case "V4L":
		return APIV4L2, nil
	case "IMAGES":
		return APIImages, nil
	case "MJPEG", "OPENCV_MJPEG":
		return APIOpenCVMJPEG, nil
	}
	for api, n := range apiNames {
		if n == name {
			return api, nil
		}
	}
	return APIAny, fmt.Errorf("unknown video API %q", s)
}
