// Package audioprobe provides read-only audio metadata extraction.
//
// audioprobe reads tags, technical stream properties and embedded
// images from the common audio container formats with a unified API.
//
// # Quick Start
//
// Reading metadata from an audio file:
//
//	file, err := audioprobe.Open("song.mp3")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("%s - %s\n", file.Tags.Artist, file.Tags.Title)
//	fmt.Printf("%.1f seconds at %.0f kbit/s\n", file.Audio.Duration, file.Audio.Bitrate)
//
// # Supported Formats
//
//   - MP3: ID3v1, ID3v1.1, ID3v2.2/2.3/2.4 and MPEG frame analysis
//   - MP4/M4A/M4B: iTunes metadata atoms, AAC and ALAC stream info
//   - Ogg: Vorbis, Opus, Speex and FLAC-in-Ogg streams
//   - FLAC: STREAMINFO, Vorbis comments and embedded pictures
//   - WAV: fmt/data chunks, RIFF INFO tags and embedded ID3 chunks
//   - WMA: ASF content description and stream properties
//   - AIFF/AIFF-C: COMM chunk, IFF text chunks and embedded ID3 chunks
//
// # Error Handling
//
// audioprobe distinguishes between fatal errors and warnings:
//
//   - Fatal errors prevent parsing entirely (*UnsupportedFormatError
//     for unrecognized files, *ParseError for corrupted essentials)
//   - Warnings indicate non-fatal issues (truncated frames, invalid
//     encodings, oversized chunks) that parsing recovered from
//
// Always check file.Warnings for issues encountered during parsing:
//
//	for _, w := range file.Warnings {
//		log.Printf("warning: %s", w)
//	}
//
// # Images
//
// Embedded pictures are skipped by default. Pass WithImages to load
// them:
//
//	file, err := audioprobe.Open("song.flac", audioprobe.WithImages())
//	if err != nil {
//		log.Fatal(err)
//	}
//	if img := file.PrimaryImage(); img != nil {
//		os.WriteFile("cover.jpg", img.Data, 0644)
//	}
//
// # Concurrency
//
// OpenMany parses multiple files in parallel:
//
//	files, err := audioprobe.OpenMany(ctx, paths...)
package audioprobe
