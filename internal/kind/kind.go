// Package kind holds the native sensor SDK enumerations that travel with every frame: pixel
// formats, frame extensions, stream kinds, timestamp domains, metadata keys and exception
// types. Numeric values match the librealsense2 C API so that records produced against the
// native SDK decode unchanged.
package kind

import (
	"fmt"
	"strings"
)

// Format is the pixel format of a frame buffer (rs2_format).
type Format int

const (
	FormatAny          Format = 0
	FormatZ16          Format = 1
	FormatDisparity16  Format = 2
	FormatXyz32f       Format = 3
	FormatYuyv         Format = 4
	FormatRgb8         Format = 5
	FormatBgr8         Format = 6
	FormatRgba8        Format = 7
	FormatBgra8        Format = 8
	FormatY8           Format = 9
	FormatY16          Format = 10
	FormatRaw10        Format = 11
	FormatRaw16        Format = 12
	FormatRaw8         Format = 13
	FormatUyvy         Format = 14
	FormatMotionRaw    Format = 15
	FormatMotionXyz32f Format = 16
	FormatGpioRaw      Format = 17
	Format6Dof         Format = 18
	FormatDisparity32  Format = 19
	FormatY10BPack     Format = 20
	FormatDistance     Format = 21
	FormatMjpeg        Format = 22
)

var formatNames = map[Format]string{
	FormatAny:          "any",
	FormatZ16:          "z16",
	FormatDisparity16:  "disparity16",
	FormatXyz32f:       "xyz32f",
	FormatYuyv:         "yuyv",
	FormatRgb8:         "rgb8",
	FormatBgr8:         "bgr8",
	FormatRgba8:        "rgba8",
	FormatBgra8:        "bgra8",
	FormatY8:           "y8",
	FormatY16:          "y16",
	FormatRaw10:        "raw10",
	FormatRaw16:        "raw16",
	FormatRaw8:         "raw8",
	FormatUyvy:         "uyvy",
	FormatMotionRaw:    "motion_raw",
	FormatMotionXyz32f: "motion_xyz32f",
	FormatGpioRaw:      "gpio_raw",
	Format6Dof:         "6dof",
	FormatDisparity32:  "disparity32",
	FormatY10BPack:     "y10bpack",
	FormatDistance:     "distance",
	FormatMjpeg:        "mjpeg",
}

func (f Format) String() string {
	return lookup(formatNames, f)
}

// ParseFormat accepts the lower-case names used by String.
func ParseFormat(s string) (Format, error) {
	return parse(formatNames, s, "format")
}

// Extension identifies the capability category of a native object (rs2_extension). Only the
// frame extensions are listed.
type Extension int

const (
	ExtensionUnknown        Extension = 0
	ExtensionVideoFrame     Extension = 8
	ExtensionMotionFrame    Extension = 9
	ExtensionCompositeFrame Extension = 10
	ExtensionPoints         Extension = 11
	ExtensionDepthFrame     Extension = 12
	ExtensionDisparityFrame Extension = 18
	ExtensionPoseFrame      Extension = 20
)

var extensionNames = map[Extension]string{
	ExtensionUnknown:        "unknown",
	ExtensionVideoFrame:     "video_frame",
	ExtensionMotionFrame:    "motion_frame",
	ExtensionCompositeFrame: "composite_frame",
	ExtensionPoints:         "points",
	ExtensionDepthFrame:     "depth_frame",
	ExtensionDisparityFrame: "disparity_frame",
	ExtensionPoseFrame:      "pose_frame",
}

func (e Extension) String() string {
	return lookup(extensionNames, e)
}

func ParseExtension(s string) (Extension, error) {
	return parse(extensionNames, s, "extension")
}

// StreamKind identifies the logical sensor stream a frame came from (rs2_stream).
type StreamKind int

const (
	StreamAny        StreamKind = 0
	StreamDepth      StreamKind = 1
	StreamColor      StreamKind = 2
	StreamInfrared   StreamKind = 3
	StreamFisheye    StreamKind = 4
	StreamGyro       StreamKind = 5
	StreamAccel      StreamKind = 6
	StreamGpio       StreamKind = 7
	StreamPose       StreamKind = 8
	StreamConfidence StreamKind = 9
)

var streamNames = map[StreamKind]string{
	StreamAny:        "any",
	StreamDepth:      "depth",
	StreamColor:      "color",
	StreamInfrared:   "infrared",
	StreamFisheye:    "fisheye",
	StreamGyro:       "gyro",
	StreamAccel:      "accel",
	StreamGpio:       "gpio",
	StreamPose:       "pose",
	StreamConfidence: "confidence",
}

func (k StreamKind) String() string {
	return lookup(streamNames, k)
}

func ParseStreamKind(s string) (StreamKind, error) {
	return parse(streamNames, s, "stream kind")
}

// TimestampDomain names the clock a frame timestamp is relative to.
type TimestampDomain int

const (
	TimestampHardwareClock TimestampDomain = 0
	TimestampSystemTime    TimestampDomain = 1
	TimestampGlobalTime    TimestampDomain = 2
)

var domainNames = map[TimestampDomain]string{
	TimestampHardwareClock: "hardware_clock",
	TimestampSystemTime:    "system_time",
	TimestampGlobalTime:    "global_time",
}

func (d TimestampDomain) String() string {
	return lookup(domainNames, d)
}

func ParseTimestampDomain(s string) (TimestampDomain, error) {
	return parse(domainNames, s, "timestamp domain")
}

// FrameMetadata is a per-frame metadata key (rs2_frame_metadata_value).
type FrameMetadata int

const (
	MetadataFrameCounter        FrameMetadata = 0
	MetadataFrameTimestamp      FrameMetadata = 1
	MetadataSensorTimestamp     FrameMetadata = 2
	MetadataActualExposure      FrameMetadata = 3
	MetadataGainLevel           FrameMetadata = 4
	MetadataAutoExposure        FrameMetadata = 5
	MetadataWhiteBalance        FrameMetadata = 6
	MetadataTimeOfArrival       FrameMetadata = 7
	MetadataTemperature         FrameMetadata = 8
	MetadataBackendTimestamp    FrameMetadata = 9
	MetadataActualFPS           FrameMetadata = 10
	MetadataFrameLaserPower     FrameMetadata = 11
	MetadataFrameLaserPowerMode FrameMetadata = 12
	MetadataExposurePriority    FrameMetadata = 13
)

var metadataNames = map[FrameMetadata]string{
	MetadataFrameCounter:        "frame_counter",
	MetadataFrameTimestamp:      "frame_timestamp",
	MetadataSensorTimestamp:     "sensor_timestamp",
	MetadataActualExposure:      "actual_exposure",
	MetadataGainLevel:           "gain_level",
	MetadataAutoExposure:        "auto_exposure",
	MetadataWhiteBalance:        "white_balance",
	MetadataTimeOfArrival:       "time_of_arrival",
	MetadataTemperature:         "temperature",
	MetadataBackendTimestamp:    "backend_timestamp",
	MetadataActualFPS:           "actual_fps",
	MetadataFrameLaserPower:     "frame_laser_power",
	MetadataFrameLaserPowerMode: "frame_laser_power_mode",
	MetadataExposurePriority:    "exposure_priority",
}

// AllMetadata lists every known metadata key in numeric order.
func AllMetadata() []FrameMetadata {
	out := make([]FrameMetadata, 0, len(metadataNames))
	for m := MetadataFrameCounter; m <= MetadataExposurePriority; m++ {
		out = append(out, m)
	}
	return out
}

func (m FrameMetadata) String() string {
	return lookup(metadataNames, m)
}

func ParseFrameMetadata(s string) (FrameMetadata, error) {
	return parse(metadataNames, s, "frame metadata")
}

// Exception is the error category reported by the native SDK (rs2_exception_type).
type Exception int

const (
	ExceptionUnknown              Exception = 0
	ExceptionCameraDisconnected   Exception = 1
	ExceptionBackend              Exception = 2
	ExceptionInvalidValue         Exception = 3
	ExceptionWrongAPICallSequence Exception = 4
	ExceptionNotImplemented       Exception = 5
	ExceptionDeviceInRecoveryMode Exception = 6
	ExceptionIO                   Exception = 7
)

var exceptionNames = map[Exception]string{
	ExceptionUnknown:              "unknown",
	ExceptionCameraDisconnected:   "camera_disconnected",
	ExceptionBackend:              "backend",
	ExceptionInvalidValue:         "invalid_value",
	ExceptionWrongAPICallSequence: "wrong_api_call_sequence",
	ExceptionNotImplemented:       "not_implemented",
	ExceptionDeviceInRecoveryMode: "device_in_recovery_mode",
	ExceptionIO:                   "io",
}

func (e Exception) String() string {
	return lookup(exceptionNames, e)
}

func lookup[T ~int](names map[T]string, v T) string {
	if name, ok := names[v]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(v))
}

func parse[T ~int](names map[T]string, s string, what string) (T, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for v, name := range names {
		if name == want {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unsupported %s %q", what, s)
}
