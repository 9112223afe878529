package mp4

import (
	"encoding/binary"

	probebin "github.com/simonhull/audioprobe/internal/binary"
	"github.com/simonhull/audioprobe/internal/types"
)

// parseTechnicalInfo extracts duration, bitrate, sample rate, channels
// and codec. Missing atoms are not fatal: whatever was found stands.
func parseTechnicalInfo(sr *probebin.SafeReader, moov *Atom, file *types.File) {
	if mvhd := findAtom(sr, childrenStart(moov), moov.End(), "mvhd"); mvhd != nil {
		parseMvhd(sr, mvhd, file)
	}

	if stsd := findPath(sr, moov, "trak", "mdia", "minf", "stbl", "stsd"); stsd != nil {
		parseSampleDescription(sr, stsd, file)
	}

	// Derive the average bitrate when no descriptor declared one.
	if file.Audio.Bitrate == 0 && file.Audio.Duration > 0 {
		file.Audio.Bitrate = float64(sr.Size()) * 8 / file.Audio.Duration / 1000
	}
}

// parseMvhd decodes the movie header: a timescale and a duration in
// timescale units, 32-bit in version 0 and 64-bit in version 1.
func parseMvhd(sr *probebin.SafeReader, mvhd *Atom, file *types.File) {
	version, err := probebin.ReadBE[uint8](sr, mvhd.DataOffset(), "mvhd version")
	if err != nil {
		return
	}
	offset := mvhd.DataOffset() + 4 // version + flags

	var timescale uint32
	var duration uint64
	if version == 1 {
		offset += 16 // creation and modification time
		if timescale, err = probebin.ReadBE[uint32](sr, offset, "mvhd timescale"); err != nil {
			return
		}
		if duration, err = probebin.ReadBE[uint64](sr, offset+4, "mvhd duration"); err != nil {
			return
		}
	} else {
		offset += 8
		if timescale, err = probebin.ReadBE[uint32](sr, offset, "mvhd timescale"); err != nil {
			return
		}
		duration32, err := probebin.ReadBE[uint32](sr, offset+4, "mvhd duration")
		if err != nil {
			return
		}
		duration = uint64(duration32)
	}

	if timescale > 0 {
		file.Audio.Duration = float64(duration) / float64(timescale)
	}
}

// parseSampleDescription reads the first sample entry of the stsd atom
// and its codec-specific descriptors (esds for AAC, the magic cookie
// for ALAC).
func parseSampleDescription(sr *probebin.SafeReader, stsd *Atom, file *types.File) {
	entry, err := readAtomHeader(sr, childrenStart(stsd)+4) // skip entry count
	if err != nil || entry.DataSize() <= 0 {
		return
	}

	file.Audio.Codec = entry.Type

	payload := make([]byte, entry.DataSize())
	if err := sr.ReadAt(payload, entry.DataOffset(), "sample entry payload"); err != nil {
		return
	}

	switch entry.Type {
	case "mp4a":
		parseMP4AEntry(payload, file)
	case "alac":
		parseALACEntry(payload, file)
	}
}

// parseMP4AEntry decodes the audio sample entry fields and the average
// bitrate from the nested esds descriptor chain.
// http://xhelmboyx.tripod.com/formats/mp4-layout.txt
func parseMP4AEntry(payload []byte, file *types.File) {
	if len(payload) < 26 {
		return
	}
	file.Audio.Channels = int(binary.BigEndian.Uint16(payload[16:18]))
	// Sample rate is 16.16 fixed point; the fraction is always zero.
	file.Audio.SampleRate = int(binary.BigEndian.Uint16(payload[24:26]))

	if len(payload) < 36 {
		return
	}
	esdsSize := int(binary.BigEndian.Uint32(payload[28:32]))
	if string(payload[32:36]) != "esds" {
		return
	}
	end := 36 + esdsSize
	if end > len(payload) {
		end = len(payload)
	}
	esds := payload[36:end]

	// version + flags + ES descriptor tag
	pos := 5
	pos += descriptorLenSize(esds, pos)
	pos += 4 // ES id, stream priority flags, decoder config tag
	pos += descriptorLenSize(esds, pos)
	pos += 9 // object type, stream type/buffer size, max bitrate
	if pos+4 > len(esds) {
		return
	}
	avgBitrate := binary.BigEndian.Uint32(esds[pos : pos+4])
	if avgBitrate > 0 {
		file.Audio.Bitrate = float64(avgBitrate) / 1000
	}
}

// descriptorLenSize returns the width of a descriptor length field:
// up to three 0x80 extension bytes followed by the final length byte.
func descriptorLenSize(b []byte, pos int) int {
	for i := 0; i < 4; i++ {
		if pos+i >= len(b) || b[pos+i] != 0x80 {
			return i + 1
		}
	}
	return 4
}

// parseALACEntry decodes the ALAC magic cookie.
// https://github.com/macosforge/alac/blob/master/ALACMagicCookieDescription.txt
func parseALACEntry(payload []byte, file *types.File) {
	if len(payload) < 36 {
		return
	}
	cookieSize := int(binary.BigEndian.Uint32(payload[28:32]))
	if string(payload[32:36]) != "alac" {
		return
	}
	end := 36 + cookieSize
	if end > len(payload) {
		end = len(payload)
	}
	cookie := payload[36:end]
	if len(cookie) < 28 {
		return
	}

	file.Audio.BitDepth = int(cookie[9])
	file.Audio.Channels = int(cookie[13])
	if avgBitrate := binary.BigEndian.Uint32(cookie[20:24]); avgBitrate > 0 {
		file.Audio.Bitrate = float64(avgBitrate) / 1000
	}
	file.Audio.SampleRate = int(binary.BigEndian.Uint32(cookie[24:28]))
}
