// Package ogg parses Ogg containers holding Vorbis, Opus, Speex or FLAC
// streams.
package ogg

import (
	"bytes"
	"encoding/binary"
	"io"

	probebin "github.com/simonhull/audioprobe/internal/binary"
	"github.com/simonhull/audioprobe/internal/flac"
	"github.com/simonhull/audioprobe/internal/registry"
	"github.com/simonhull/audioprobe/internal/types"
	"github.com/simonhull/audioprobe/internal/vorbis"
)

// Parser handles Ogg containers.
type Parser struct{}

func init() {
	registry.Register(types.FormatOgg, &Parser{})
}

// Parse implements registry.FormatParser.
func (p *Parser) Parse(r io.ReaderAt, size int64, path string, opts registry.Options) (*types.File, error) {
	sr := probebin.NewSafeReader(r, size, path)
	file := &types.File{}

	pr := newPacketReader(probebin.NewReader(sr, 0))

	var (
		preSkip          int
		durationFromFLAC bool
		expectFLACMeta   bool
		expectSpeexMeta  bool
		headerPackets    int
	)

	for {
		packet, ok := pr.Next()
		if !ok {
			break
		}
		headerPackets++
		if headerPackets > 8 {
			break
		}

		switch {
		case expectFLACMeta:
			expectFLACMeta = false
			if opts.ReadTags && len(packet) > 4 && packet[0]&0x7F == 4 {
				vorbis.ParseComments(packet[4:], file, true, opts)
			}
			continue
		case expectSpeexMeta:
			expectSpeexMeta = false
			if opts.ReadTags {
				parseSpeexComments(packet, file, opts)
			}
			continue
		case bytes.HasPrefix(packet, []byte("\x01vorbis")):
			if len(packet) >= 28 {
				file.Audio.Codec = "vorbis"
				file.Audio.Channels = int(packet[11])
				file.Audio.SampleRate = int(binary.LittleEndian.Uint32(packet[12:16]))
				nominal := int32(binary.LittleEndian.Uint32(packet[20:24]))
				if nominal > 0 {
					file.Audio.Bitrate = float64(nominal) / 1000
				}
			}
			continue
		case bytes.HasPrefix(packet, []byte("\x03vorbis")):
			if opts.ReadTags || opts.LoadImages {
				vorbis.ParseComments(packet[7:], file, true, opts)
			}
			continue
		case bytes.HasPrefix(packet, []byte("OpusHead")):
			// https://datatracker.ietf.org/doc/html/rfc7845#section-5.1
			if len(packet) >= 12 && packet[8]&0xF0 == 0 {
				file.Audio.Codec = "opus"
				file.Audio.Channels = int(packet[9])
				preSkip = int(binary.LittleEndian.Uint16(packet[10:12]))
				// Opus always runs at 48 kHz internally.
				file.Audio.SampleRate = 48000
			}
			continue
		case bytes.HasPrefix(packet, []byte("OpusTags")):
			if opts.ReadTags || opts.LoadImages {
				vorbis.ParseComments(packet[8:], file, true, opts)
			}
			continue
		case bytes.HasPrefix(packet, []byte("\x7fFLAC")):
			// https://xiph.org/flac/ogg_mapping.html
			file.Audio.Codec = "flac"
			if len(packet) > 9 {
				flac.ParseStreamBytes(packet[9:], size, path, file, opts)
				durationFromFLAC = file.Audio.Duration > 0
			}
			expectFLACMeta = true
			continue
		case bytes.HasPrefix(packet, []byte("Speex   ")):
			// https://speex.org/docs/manual/speex-manual/node8.html
			if len(packet) >= 56 {
				file.Audio.Codec = "speex"
				file.Audio.SampleRate = int(binary.LittleEndian.Uint32(packet[36:40]))
				file.Audio.Channels = int(binary.LittleEndian.Uint32(packet[48:52]))
				if bitrate := int32(binary.LittleEndian.Uint32(packet[52:56])); bitrate > 0 {
					file.Audio.Bitrate = float64(bitrate) / 1000
				}
			}
			expectSpeexMeta = true
			continue
		}
		break
	}

	if durationFromFLAC || file.Audio.SampleRate == 0 {
		return file, nil
	}

	// Duration comes from the granule position of the final page. Scan
	// the tail of the file rather than walking every page.
	granule := pr.MaxGranule
	scanStart := int64(0)
	if size > maxPageSize {
		scanStart = size - maxPageSize
	}
	if idx := findPageStart(sr, scanStart); idx >= 0 {
		if g := lastGranule(sr, idx); g > granule {
			granule = g
		}
	}
	if granule <= 0 {
		return file, nil
	}

	samples := granule
	if preSkip > 0 {
		samples -= int64(preSkip)
	}
	if samples > 0 {
		file.Audio.Duration = float64(samples) / float64(file.Audio.SampleRate)
	}
	if file.Audio.Bitrate == 0 && file.Audio.Duration > 0 {
		file.Audio.Bitrate = float64(size) * 8 / file.Audio.Duration / 1000
	}

	return file, nil
}

// findPageStart locates the first "OggS" capture pattern at or after
// offset, returning -1 when none exists.
func findPageStart(sr *probebin.SafeReader, offset int64) int64 {
	length := sr.Size() - offset
	if length < 4 {
		return -1
	}
	buf := make([]byte, length)
	if err := sr.ReadAt(buf, offset, "Ogg page scan"); err != nil {
		return -1
	}
	idx := bytes.Index(buf, []byte("OggS"))
	if idx < 0 {
		return -1
	}
	return offset + int64(idx)
}

// parseSpeexComments parses the Speex comment packet: a length-prefixed
// comment string followed by a vendorless Vorbis comment block.
func parseSpeexComments(packet []byte, file *types.File, opts registry.Options) {
	if len(packet) < 4 {
		return
	}
	length := int(binary.LittleEndian.Uint32(packet[:4]))
	if 4+length > len(packet) {
		file.Warn("metadata", "Speex comment string exceeds packet", 0)
		return
	}
	if opts.ReadTags {
		file.Tags.Add(types.FieldComment, string(packet[4:4+length]))
	}
	vorbis.ParseComments(packet[4+length:], file, false, opts)
}
