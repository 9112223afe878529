package id3

import (
	"strconv"

	"github.com/simonhull/audioprobe/internal/binary"
	"github.com/simonhull/audioprobe/internal/registry"
	"github.com/simonhull/audioprobe/internal/text"
	"github.com/simonhull/audioprobe/internal/types"
)

// V1Size is the fixed size of an ID3v1 trailer block.
const V1Size = 128

// ParseV1 parses the ID3v1 tag in the last 128 bytes of the file.
// Returns nil when the file carries none.
func ParseV1(sr *binary.SafeReader, opts registry.Options) *Result {
	if sr.Size() < V1Size {
		return nil
	}

	block := make([]byte, V1Size)
	if err := sr.ReadAt(block, sr.Size()-V1Size, "ID3v1 tag"); err != nil {
		return nil
	}
	if string(block[:3]) != "TAG" {
		return nil
	}

	res := &Result{}
	if !opts.ReadTags {
		return res
	}

	enc := text.Latin1
	if !opts.Encoding.IsZero() {
		enc = opts.Encoding
	}
	decode := func(b []byte) string {
		s, err := enc.Decode(b)
		if err != nil {
			return ""
		}
		return s
	}

	res.Tags.Add(types.FieldTitle, decode(block[3:33]))
	res.Tags.Add(types.FieldArtist, decode(block[33:63]))
	res.Tags.Add(types.FieldAlbum, decode(block[63:93]))
	res.Tags.Add(types.FieldYear, decode(block[93:97]))

	comment := block[97:127]
	// ID3v1.1 hides the track number in the last two comment bytes.
	if comment[28] == 0 && comment[29] != 0 {
		res.Tags.Add(types.FieldTrack, strconv.Itoa(int(comment[29])))
		comment = comment[:28]
	}
	res.Tags.Add(types.FieldComment, decode(comment))

	if genre := GenreByIndex(int(block[127])); genre != "" {
		res.Tags.Add(types.FieldGenre, genre)
	}

	return res
}
