// Package flac parses native FLAC files: metadata block chain with
// STREAMINFO, Vorbis comments and embedded pictures.
package flac

import (
	"bytes"
	"fmt"
	"io"

	probebin "github.com/simonhull/audioprobe/internal/binary"
	"github.com/simonhull/audioprobe/internal/id3"
	"github.com/simonhull/audioprobe/internal/registry"
	"github.com/simonhull/audioprobe/internal/types"
	"github.com/simonhull/audioprobe/internal/vorbis"
)

// Metadata block types.
// https://xiph.org/flac/format.html
const (
	blockStreamInfo    = 0
	blockVorbisComment = 4
	blockPicture       = 6
)

// Parser handles native FLAC files.
type Parser struct{}

func init() {
	registry.Register(types.FormatFLAC, &Parser{})
}

// Parse implements registry.FormatParser.
func (p *Parser) Parse(r io.ReaderAt, size int64, path string, opts registry.Options) (*types.File, error) {
	sr := probebin.NewSafeReader(r, size, path)
	file := &types.File{}

	// Some taggers prepend an ID3v2 tag. Its values rank below the
	// Vorbis comments, so it is merged in after the block chain.
	var id3res *id3.Result
	offset := int64(0)
	prefix := make([]byte, 3)
	if err := sr.ReadAt(prefix, 0, "FLAC file prefix"); err == nil && string(prefix) == "ID3" {
		id3res = id3.ParseV2(sr, 0, opts)
		offset = id3res.Size
	}

	if err := parseBlocks(sr, offset, file, opts); err != nil {
		return nil, err
	}

	if id3res != nil {
		file.MergeTags(&id3res.Tags)
		file.Images.Merge(&id3res.Images)
		file.Warnings = append(file.Warnings, id3res.Warnings...)
	}

	return file, nil
}

// ParseStreamBytes parses an in-memory FLAC stream, as carried in the
// first packet of a FLAC-in-Ogg file. Damage is reported as warnings:
// the surrounding container keeps going. The bitrate is derived from
// fileSize, the size of the surrounding container, not the packet.
func ParseStreamBytes(data []byte, fileSize int64, path string, file *types.File, opts registry.Options) {
	sr := probebin.NewSafeReader(bytes.NewReader(data), int64(len(data)), path)
	if err := parseBlocks(sr, 0, file, opts); err != nil {
		file.Warn("technical", fmt.Sprintf("embedded FLAC stream: %v", err), 0)
	}
	if file.Audio.Duration > 0 && fileSize > 0 {
		file.Audio.Bitrate = float64(fileSize) / file.Audio.Duration * 8 / 1000
	}
}

func parseBlocks(sr *probebin.SafeReader, offset int64, file *types.File, opts registry.Options) error {
	marker := make([]byte, 4)
	if err := sr.ReadAt(marker, offset, "FLAC stream marker"); err != nil || string(marker) != "fLaC" {
		return &types.ParseError{Path: sr.Path(), Reason: "missing fLaC stream marker", Offset: offset}
	}
	offset += 4

	header := make([]byte, 4)
	for {
		if err := sr.ReadAt(header, offset, "FLAC block header"); err != nil {
			// Chain ended without a last-block flag. The blocks read
			// so far stand.
			file.Warn("metadata", "metadata block chain ends prematurely", offset)
			return nil
		}
		lastBlock := header[0]&0x80 != 0
		blockType := int(header[0] & 0x7F)
		blockSize := int64(header[1])<<16 | int64(header[2])<<8 | int64(header[3])
		offset += 4

		switch {
		case blockType == blockStreamInfo:
			if err := parseStreamInfo(sr, offset, blockSize, file); err != nil {
				return err
			}
		case blockType == blockVorbisComment && (opts.ReadTags || opts.LoadImages):
			block := make([]byte, blockSize)
			if err := sr.ReadAt(block, offset, "vorbis comment block"); err != nil {
				file.Warn("metadata", "truncated vorbis comment block", offset)
				return nil
			}
			vorbis.ParseComments(block, file, true, opts)
		case blockType == blockPicture && opts.LoadImages:
			block := make([]byte, blockSize)
			if err := sr.ReadAt(block, offset, "picture block"); err != nil {
				file.Warn("artwork", "truncated picture block", offset)
				return nil
			}
			kind, img, err := vorbis.ParsePicture(block)
			if err != nil {
				file.Warn("artwork", err.Error(), offset)
			} else {
				file.Images.Add(kind, img)
			}
		case blockType == 127:
			// Invalid block type, stop walking.
			return nil
		}

		offset += blockSize
		if lastBlock {
			return nil
		}
	}
}

// parseStreamInfo unpacks the bit-packed STREAMINFO block. A file whose
// STREAMINFO is truncated is not worth a partial result.
func parseStreamInfo(sr *probebin.SafeReader, offset, size int64, file *types.File) error {
	if size < 34 {
		return &types.ParseError{Path: sr.Path(), Reason: "STREAMINFO block too short", Offset: offset}
	}
	info := make([]byte, 34)
	if err := sr.ReadAt(info, offset, "STREAMINFO block"); err != nil {
		return &types.ParseError{Path: sr.Path(), Reason: "truncated STREAMINFO block", Offset: offset}
	}

	// Layout after the four 16/24-bit block size fields:
	//   <20> sample rate in Hz
	//   <3>  channels - 1
	//   <5>  bits per sample - 1
	//   <36> total samples
	samplerate := int(uint32(info[10])<<12 | uint32(info[11])<<4 | uint32(info[12])>>4)
	channels := int((info[12]>>1)&0x07) + 1
	bitdepth := int((info[12]&0x01)<<4|(info[13]&0xF0)>>4) + 1
	totalSamples := int64(info[13]&0x0F)<<32 |
		int64(info[14])<<24 | int64(info[15])<<16 | int64(info[16])<<8 | int64(info[17])

	file.Audio.Codec = "flac"
	file.Audio.SampleRate = samplerate
	file.Audio.Channels = channels
	file.Audio.BitDepth = bitdepth
	if samplerate > 0 && totalSamples > 0 {
		file.Audio.Duration = float64(totalSamples) / float64(samplerate)
		file.Audio.Bitrate = float64(sr.Size()) / file.Audio.Duration * 8 / 1000
	}
	return nil
}
