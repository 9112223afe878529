package id3

import (
	"io"

	probebin "github.com/simonhull/audioprobe/internal/binary"
	"github.com/simonhull/audioprobe/internal/registry"
	"github.com/simonhull/audioprobe/internal/types"
)

// Parser handles MP1/MP2/MP3 files: ID3v2 at the front, ID3v1 at the
// back, MPEG frames in between.
type Parser struct{}

func init() {
	registry.Register(types.FormatMP3, &Parser{})
}

// Parse implements registry.FormatParser.
func (p *Parser) Parse(r io.ReaderAt, size int64, path string, opts registry.Options) (*types.File, error) {
	sr := probebin.NewSafeReader(r, size, path)
	file := &types.File{}

	v2 := ParseV2(sr, 0, opts)
	file.Tags = v2.Tags
	file.Images = v2.Images
	file.Warnings = append(file.Warnings, v2.Warnings...)

	// ID3v1 values only fill fields v2 left empty.
	if opts.ReadTags {
		if v1 := ParseV1(sr, opts); v1 != nil {
			file.MergeTags(&v1.Tags)
		}
	}

	ParseStreamInfo(sr, v2.Size, file)
	if file.Audio.SampleRate > 0 {
		file.Audio.Codec = "mp3"
	}

	return file, nil
}
