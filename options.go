package audioprobe

// Option configures behavior when opening audio files.
//
// Options use the functional options pattern:
//
//	file, err := audioprobe.Open("song.mp3",
//	    audioprobe.WithImages(),
//	    audioprobe.WithStrictParsing(),
//	)
type Option func(*openOptions)

// openOptions holds configuration for opening files.
type openOptions struct {
	readTags       bool   // Extract textual metadata
	loadImages     bool   // Buffer embedded pictures
	encodingName   string // Override for legacy text encodings
	strictParsing  bool   // Fail on any warning
	ignoreWarnings bool   // Suppress all warnings
}

// defaultOptions returns the default configuration.
func defaultOptions() *openOptions {
	return &openOptions{
		readTags: true,
	}
}

// WithoutTags skips textual metadata entirely.
//
// Only technical stream properties (duration, bitrate, sample rate,
// channels) are extracted. Use this when scanning large libraries for
// durations.
func WithoutTags() Option {
	return func(o *openOptions) {
		o.readTags = false
	}
}

// WithImages loads embedded pictures into File.Images.
//
// By default image payloads are skipped to keep memory usage flat.
func WithImages() Option {
	return func(o *openOptions) {
		o.loadImages = true
	}
}

// WithTextEncoding overrides the assumed encoding for tag strings that
// carry no per-string encoding indicator: ID3v1 tags, ID3v2 Latin-1
// slots, RIFF INFO chunks and AIFF text chunks.
//
// Recognized names include "ISO-8859-1", "windows-1252", "UTF-8",
// "UTF-16", "UTF-16BE" and "UTF-16LE". Open fails on unknown names.
//
//	file, err := audioprobe.Open("song.mp3",
//	    audioprobe.WithTextEncoding("windows-1252"),
//	)
func WithTextEncoding(name string) Option {
	return func(o *openOptions) {
		o.encodingName = name
	}
}

// WithStrictParsing treats any warning as a fatal error.
//
// By default parsing continues past issues like truncated frames or
// invalid encodings, returning warnings alongside the parsed data.
func WithStrictParsing() Option {
	return func(o *openOptions) {
		o.strictParsing = true
	}
}

// WithIgnoreWarnings suppresses all warnings.
//
// Non-fatal issues are silently discarded instead of being collected
// in File.Warnings.
func WithIgnoreWarnings() Option {
	return func(o *openOptions) {
		o.ignoreWarnings = true
	}
}
