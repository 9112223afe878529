package id3

import (
	"bytes"
	"encoding/binary"

	probebin "github.com/simonhull/audioprobe/internal/binary"
	"github.com/simonhull/audioprobe/internal/types"
)

// MPEG frame header tables.
// See http://www.mpgedit.org/mpgedit/mpeg_format/mpeghdr.htm
var mpegSampleRates = [4][3]int{
	{11025, 12000, 8000},   // MPEG 2.5
	{0, 0, 0},              // reserved
	{22050, 24000, 16000},  // MPEG 2
	{44100, 48000, 32000},  // MPEG 1
}

var (
	bitratesV1L1 = [16]int{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0}
	bitratesV1L2 = [16]int{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0}
	bitratesV1L3 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	bitratesV2L1 = [16]int{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0}
	bitratesV2L2 = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}
	bitratesNone = [16]int{}
)

// bitrateTable is indexed by MPEG version ID, then layer ID (layers run
// 3..1, id 0 is reserved), then bitrate ID.
var bitrateTable = [4][4][16]int{
	{bitratesNone, bitratesV2L2, bitratesV2L2, bitratesV2L1}, // MPEG 2.5
	{bitratesNone, bitratesNone, bitratesNone, bitratesNone}, // reserved
	{bitratesNone, bitratesV2L2, bitratesV2L2, bitratesV2L1}, // MPEG 2
	{bitratesNone, bitratesV1L3, bitratesV1L2, bitratesV1L1}, // MPEG 1
}

// channelsByMode maps the channel-mode bits to a channel count.
var channelsByMode = [4]int{2, 2, 2, 1}

const (
	mpegSamplesPerFrame = 1152
	maxEstimationSec    = 30.0
	cbrDetectionFrames  = 5
)

// ParseStreamInfo scans MPEG audio frames starting after the ID3v2 tag
// and fills in duration, bitrate, samplerate and channels.
//
// A Xing/Info or VBRI header in the first frame gives exact numbers.
// Otherwise frames are measured until the bitrate provably stays
// constant (CBR) or roughly 30 seconds of audio have been walked, and
// the remainder is extrapolated from the average frame size.
func ParseStreamInfo(sr *probebin.SafeReader, start int64, file *types.File) {
	maxFrames := int(maxEstimationSec*44100) / mpegSamplesPerFrame

	var (
		frames        int
		bitrateAccu   float64
		frameSizeAccu int64
		audioOffset   int64
		firstMpegID   = -1
		lastBitrates  = map[int]bool{}
		samplerate    int
	)

	offset := start
	end := sr.Size()
	header := make([]byte, 4)

	finishPartial := func() {
		if frames == 0 {
			return
		}
		file.Audio.Bitrate = bitrateAccu / float64(frames)
		if samplerate > 0 {
			file.Audio.Duration = float64(frames) * mpegSamplesPerFrame / float64(samplerate)
		}
	}

	for offset+4 <= end {
		if err := sr.ReadAt(header, offset, "MPEG frame header"); err != nil {
			finishPartial()
			return
		}

		brID := int(header[2]>>4) & 0x0F
		srID := int(header[2]>>2) & 0x03
		padding := int(header[2]>>1) & 0x01
		mpegID := int(header[1]>>3) & 0x03
		layerID := int(header[1]>>1) & 0x03
		channelMode := int(header[3]>>6) & 0x03

		valid := header[0] == 0xFF && header[1] > 0xE0 &&
			brID > 0 && brID <= 14 && srID != 3 && layerID != 0 && mpegID != 1 &&
			(firstMpegID == -1 || firstMpegID == mpegID)
		if !valid {
			offset += resyncDistance(sr, offset, end)
			continue
		}
		if firstMpegID == -1 {
			firstMpegID = mpegID
		}

		file.Audio.Channels = channelsByMode[channelMode]
		frameBitrate := bitrateTable[mpegID][layerID][brID]
		samplerate = mpegSampleRates[mpegID][srID]
		file.Audio.SampleRate = samplerate
		frameLength := int64(144000*frameBitrate/samplerate) + int64(padding)

		// The first frame may carry a VBR header with exact totals.
		if frames == 0 {
			if parseVBRHeaders(sr, offset, frameLength, mpegID, samplerate, file) {
				return
			}
		}

		frames++
		bitrateAccu += float64(frameBitrate)
		if frames == 1 {
			audioOffset = offset
		}
		if frames <= cbrDetectionFrames {
			lastBitrates[frameBitrate] = true
		}
		frameSizeAccu += frameLength

		isCBR := frames == cbrDetectionFrames && len(lastBitrates) == 1
		if frames == maxFrames || isCBR {
			// Extrapolate over the whole stream, leaving out a
			// potential ID3v1 trailer.
			audioStreamSize := end - V1Size - audioOffset
			estFrameCount := float64(audioStreamSize) / (float64(frameSizeAccu) / float64(frames))
			file.Audio.Duration = estFrameCount * mpegSamplesPerFrame / float64(samplerate)
			file.Audio.Bitrate = bitrateAccu / float64(frames)
			return
		}

		if frameLength <= 1 {
			break
		}
		offset += frameLength
	}

	finishPartial()
}

// resyncDistance returns how far to skip forward to the next plausible
// sync byte, reading ahead in blocks so garbage regions don't degrade
// into byte-at-a-time probing.
func resyncDistance(sr *probebin.SafeReader, offset, end int64) int64 {
	blockSize := int64(4096)
	if offset+blockSize > end {
		blockSize = end - offset
	}
	if blockSize <= 1 {
		return 1
	}
	block := make([]byte, blockSize)
	if err := sr.ReadAt(block, offset, "MPEG resync scan"); err != nil {
		return 1
	}
	if idx := bytes.IndexByte(block[1:], 0xFF); idx >= 0 {
		return int64(idx) + 1
	}
	return blockSize
}

// parseVBRHeaders looks for Xing/Info and VBRI headers inside the first
// frame and, when one yields both a frame and a byte count, derives the
// exact duration and average bitrate. Reports whether it did.
func parseVBRHeaders(sr *probebin.SafeReader, frameOffset, frameLength int64, mpegID, samplerate int, file *types.File) bool {
	if frameOffset+frameLength > sr.Size() {
		frameLength = sr.Size() - frameOffset
	}
	if frameLength < 8 {
		return false
	}
	frame := make([]byte, frameLength)
	if err := sr.ReadAt(frame, frameOffset, "first MPEG frame"); err != nil {
		return false
	}

	// MPEG-2/2.5 Layer III frames carry 576 samples, not 1152.
	samplesPerFrame := mpegSamplesPerFrame
	if mpegID <= 2 {
		samplesPerFrame = 576
	}

	idx := bytes.Index(frame, []byte("Xing"))
	if idx < 0 {
		idx = bytes.Index(frame, []byte("Info"))
	}
	if idx >= 0 && int64(idx)+8 <= frameLength {
		xframes, byteCount := parseXing(frame[idx:])
		if xframes > 0 && byteCount > 0 {
			duration := float64(xframes) * float64(samplesPerFrame) / float64(samplerate)
			file.Audio.Duration = duration
			file.Audio.Bitrate = float64(byteCount) * 8 / duration / 1000
			return true
		}
	}

	// VBRI sits at a fixed 32-byte offset after the frame header.
	if len(frame) >= 36+26 && string(frame[36:40]) == "VBRI" {
		byteCount := binary.BigEndian.Uint32(frame[46:50])
		vframes := binary.BigEndian.Uint32(frame[50:54])
		if vframes > 0 && byteCount > 0 {
			duration := float64(vframes) * float64(samplesPerFrame) / float64(samplerate)
			file.Audio.Duration = duration
			file.Audio.Bitrate = float64(byteCount) * 8 / duration / 1000
			return true
		}
	}

	return false
}

// parseXing decodes the frame and byte counts from a Xing/Info header.
func parseXing(b []byte) (frames, byteCount int) {
	if len(b) < 8 {
		return 0, 0
	}
	flags := binary.BigEndian.Uint32(b[4:8])
	pos := 8
	if flags&0x01 != 0 && len(b) >= pos+4 { // frames field
		frames = int(binary.BigEndian.Uint32(b[pos : pos+4]))
		pos += 4
	}
	if flags&0x02 != 0 && len(b) >= pos+4 { // bytes field
		byteCount = int(binary.BigEndian.Uint32(b[pos : pos+4]))
	}
	return frames, byteCount
}
