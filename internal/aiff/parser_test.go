package aiff

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simonhull/audioprobe/internal/registry"
	"github.com/simonhull/audioprobe/internal/types"
)

// chunk builds one IFF chunk with even padding.
func chunk(id string, body []byte) []byte {
	out := make([]byte, 8, 8+len(body)+1)
	copy(out[0:4], id)
	binary.BigEndian.PutUint32(out[4:8], uint32(len(body)))
	out = append(out, body...)
	if len(body)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

// commChunk encodes the sample rate as an 80-bit extended float.
func commChunk(channels int16, numFrames uint32, bitdepth int16, samplerate uint64) []byte {
	body := make([]byte, 18)
	binary.BigEndian.PutUint16(body[0:2], uint16(channels))
	binary.BigEndian.PutUint32(body[2:6], numFrames)
	binary.BigEndian.PutUint16(body[6:8], uint16(bitdepth))
	binary.BigEndian.PutUint16(body[8:10], 0x3FFF+15)
	binary.BigEndian.PutUint64(body[10:18], samplerate<<48)
	return chunk("COMM", body)
}

func buildAIFF(form string, chunks ...[]byte) []byte {
	body := append([]byte(form), bytes.Join(chunks, nil)...)
	out := make([]byte, 8, 8+len(body))
	copy(out[0:4], "FORM")
	binary.BigEndian.PutUint32(out[4:8], uint32(len(body)))
	return append(out, body...)
}

func parseAIFF(t *testing.T, data []byte, opts registry.Options) (*types.File, error) {
	t.Helper()
	p := &Parser{}
	return p.Parse(bytes.NewReader(data), int64(len(data)), "test.aiff", opts)
}

func TestParse_CommonChunk(t *testing.T) {
	data := buildAIFF("AIFF", commChunk(2, 88200, 16, 44100))
	file, err := parseAIFF(t, data, registry.Default())
	require.NoError(t, err)

	require.Equal(t, 2, file.Audio.Channels)
	require.Equal(t, 16, file.Audio.BitDepth)
	require.Equal(t, 44100, file.Audio.SampleRate)
	require.InDelta(t, 2.0, file.Audio.Duration, 0.0001)
	require.InDelta(t, 1411.2, file.Audio.Bitrate, 0.001)
}

func TestParse_AIFCForm(t *testing.T) {
	data := buildAIFF("AIFC", commChunk(1, 8000, 8, 8000))
	file, err := parseAIFF(t, data, registry.Default())
	require.NoError(t, err)

	require.Equal(t, 8000, file.Audio.SampleRate)
	require.InDelta(t, 1.0, file.Audio.Duration, 0.0001)
}

func TestParse_TextChunks(t *testing.T) {
	data := buildAIFF("AIFF",
		commChunk(2, 44100, 16, 44100),
		chunk("NAME", []byte("Aiff Title")), // even length
		chunk("AUTH", []byte("Aiff Artist")), // odd length, padded
		chunk("ANNO", []byte("A note")),
		chunk("(c) ", []byte("2003 Label")),
	)
	file, err := parseAIFF(t, data, registry.Default())
	require.NoError(t, err)

	require.Equal(t, "Aiff Title", file.Tags.Title)
	require.Equal(t, "Aiff Artist", file.Tags.Artist)
	require.Equal(t, "A note", file.Tags.Comment)
	require.Equal(t, []string{"2003 Label"}, file.Tags.Other["copyright"])
}

func TestParse_EmbeddedID3(t *testing.T) {
	data := buildAIFF("AIFF",
		commChunk(2, 44100, 16, 44100),
		chunk("NAME", []byte("Name Title")),
		chunk("id3 ", buildID3TitleAlbum(t, "Id3 Title", "Id3 Album")),
	)
	file, err := parseAIFF(t, data, registry.Default())
	require.NoError(t, err)

	// The NAME chunk wins; the ID3 tag fills the album.
	require.Equal(t, "Name Title", file.Tags.Title)
	require.Equal(t, "Id3 Album", file.Tags.Album)
	require.Equal(t, []string{"Id3 Title"}, file.Tags.Other["title"])
}

func TestParse_TagsSkippedWithoutReadTags(t *testing.T) {
	data := buildAIFF("AIFF",
		commChunk(2, 44100, 16, 44100),
		chunk("NAME", []byte("Hidden")),
	)
	file, err := parseAIFF(t, data, registry.Options{})
	require.NoError(t, err)

	require.True(t, file.Tags.IsEmpty())
	require.Equal(t, 44100, file.Audio.SampleRate)
}

func TestParse_InvalidSampleRateWarns(t *testing.T) {
	body := make([]byte, 18)
	binary.BigEndian.PutUint16(body[0:2], 2)
	data := buildAIFF("AIFF", chunk("COMM", body)) // zero exponent and mantissa

	file, err := parseAIFF(t, data, registry.Default())
	require.NoError(t, err)

	require.Zero(t, file.Audio.SampleRate)
	require.NotEmpty(t, file.Warnings)
}

func TestParse_OversizedChunkClamped(t *testing.T) {
	bad := chunk("SSND", make([]byte, 10))
	binary.BigEndian.PutUint32(bad[4:8], 1<<28)
	data := buildAIFF("AIFF", commChunk(2, 44100, 16, 44100), bad)

	file, err := parseAIFF(t, data, registry.Default())
	require.NoError(t, err)
	require.NotEmpty(t, file.Warnings)
}

func TestParse_BadHeader(t *testing.T) {
	_, err := parseAIFF(t, []byte("FORMxxxxWAVE"), registry.Default())
	var pe *types.ParseError
	require.ErrorAs(t, err, &pe)
}

// buildID3TitleAlbum builds a small ID3v2.3 tag.
func buildID3TitleAlbum(t *testing.T, title, album string) []byte {
	t.Helper()
	frame := func(id, value string) []byte {
		buf := &bytes.Buffer{}
		buf.WriteString(id)
		binary.Write(buf, binary.BigEndian, uint32(len(value)+1))
		buf.Write([]byte{0, 0})
		buf.WriteByte(0) // Latin-1
		buf.WriteString(value)
		return buf.Bytes()
	}
	frames := append(frame("TIT2", title), frame("TALB", album)...)

	tag := &bytes.Buffer{}
	tag.WriteString("ID3")
	tag.Write([]byte{3, 0, 0})
	size := len(frames)
	tag.Write([]byte{byte(size >> 21 & 0x7F), byte(size >> 14 & 0x7F), byte(size >> 7 & 0x7F), byte(size & 0x7F)})
	tag.Write(frames)
	return tag.Bytes()
}
