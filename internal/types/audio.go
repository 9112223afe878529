package types

// AudioInfo holds technical stream properties.
//
// Fields a format does not carry stay at their zero value. Duration and
// Bitrate are floats because several formats only allow them to be derived
// (payload bytes over time, frame counts over a timescale).
type AudioInfo struct {
	// Duration of the audio stream in seconds.
	Duration float64

	// Bitrate in kbit/s. Exact for CBR streams, averaged for VBR.
	Bitrate float64

	// SampleRate in Hz.
	SampleRate int

	// Channels is the channel count.
	Channels int

	// BitDepth in bits per sample. Only meaningful for uncompressed and
	// lossless streams (WAV, AIFF, FLAC, ALAC, WMA Lossless).
	BitDepth int

	// Codec identifies the stream codec where the container distinguishes
	// one ("mp4a", "alac", "vorbis", "opus", ...).
	Codec string
}
