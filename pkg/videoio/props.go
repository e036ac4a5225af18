package videoio

// Property is a capture property identifier (the native CAP_PROP_* values).
type Property int32

const (
	// PropPosMsec is the current position in milliseconds.
	PropPosMsec Property = 0
	// PropPosFrames is the 0-based index of the frame to be decoded next.
	PropPosFrames Property = 1
	// PropPosAVIRatio is the relative position: 0 start, 1 end.
	PropPosAVIRatio Property = 2
	PropFrameWidth  Property = 3
	PropFrameHeight Property = 4
	PropFPS         Property = 5
	// PropFourcc is the codec's four-character code, see Fourcc.
	PropFourcc     Property = 6
	PropFrameCount Property = 7
	// PropFormat is the retrieved frame format. -1 switches file and stream
	// captures to raw mode: Retrieve returns encoded packets as 1xN rows.
	PropFormat       Property = 8
	PropMode         Property = 9
	PropBrightness   Property = 10
	PropContrast     Property = 11
	PropSaturation   Property = 12
	PropHue          Property = 13
	PropGain         Property = 14
	PropExposure     Property = 15
	PropConvertRGB   Property = 16
	PropMonochrome   Property = 19
	PropSharpness    Property = 20
	PropAutoExposure Property = 21
	PropGamma        Property = 22
	PropBufferSize   Property = 38
	PropAutoFocus    Property = 39
	PropBackend      Property = 42
	PropChannel      Property = 43
	// PropOrientationMeta is the rotation stored in the container.
	PropOrientationMeta Property = 48
	PropOrientationAuto Property = 49
	// PropHWAcceleration selects hardware decoding, see HWAcceleration.
	PropHWAcceleration Property = 50
	PropHWDevice       Property = 51
	// PropOpenTimeoutMsec and PropReadTimeoutMsec are open-time parameters.
	PropOpenTimeoutMsec    Property = 53
	PropReadTimeoutMsec    Property = 54
	PropStreamOpenTimeUsec Property = 55
	PropVideoTotalChannels Property = 56
	PropVideoStream        Property = 57
	PropAudioStream        Property = 58
	PropFrameType          Property = 69
	PropNThreads           Property = 70
	PropPTS                Property = 71
	PropDTSDelay           Property = 72
)

// WriterProperty is a writer property identifier (VIDEOWRITER_PROP_*).
type WriterProperty int32

const (
	// WriterPropQuality is the encoder quality, 0..100.
	WriterPropQuality WriterProperty = 1
	// WriterPropFrameBytes is the size of the last encoded frame (read only).
	WriterPropFrameBytes WriterProperty = 2
	WriterPropNStripes   WriterProperty = 3
	// WriterPropIsColor selects color (non-zero) or grayscale frames.
	WriterPropIsColor        WriterProperty = 4
	WriterPropDepth          WriterProperty = 5
	WriterPropHWAcceleration WriterProperty = 6
	WriterPropHWDevice       WriterProperty = 7
	WriterPropKeyInterval    WriterProperty = 8
	WriterPropRawVideo       WriterProperty = 9
)

// HWAcceleration values for PropHWAcceleration and WriterPropHWAcceleration.
const (
	HWAccelerationNone  = 0
	HWAccelerationAny   = 1
	HWAccelerationD3D11 = 2
	HWAccelerationVAAPI = 3
	HWAccelerationMFX   = 4
)

// RetrieveDefault is the Retrieve flag for ordinary single-stream captures.
const RetrieveDefault = 0
