package wma

import (
	"bytes"
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"

	"github.com/simonhull/audioprobe/internal/registry"
	"github.com/simonhull/audioprobe/internal/types"
)

// utf16le encodes a string as UTF-16LE with a trailing NUL.
func utf16le(s string) []byte {
	codes := utf16.Encode([]rune(s + "\x00"))
	out := make([]byte, len(codes)*2)
	for i, c := range codes {
		binary.LittleEndian.PutUint16(out[i*2:], c)
	}
	return out
}

// object wraps a body in a 24-byte ASF object header.
func object(guid, body []byte) []byte {
	out := make([]byte, 24+len(body))
	copy(out[:16], guid)
	binary.LittleEndian.PutUint64(out[16:24], uint64(24+len(body)))
	copy(out[24:], body)
	return out
}

// buildASF assembles the 30-byte top-level header and the objects.
func buildASF(objects ...[]byte) []byte {
	body := bytes.Join(objects, nil)
	out := make([]byte, 30, 30+len(body))
	copy(out[:16], headerObjectGUID)
	binary.LittleEndian.PutUint64(out[16:24], uint64(30+len(body)))
	binary.LittleEndian.PutUint32(out[24:28], uint32(len(objects)))
	out[28] = 0x01
	out[29] = 0x02
	return append(out, body...)
}

func contentDescription(title, author, copyright, description string) []byte {
	values := [][]byte{
		utf16le(title),
		utf16le(author),
		utf16le(copyright),
		utf16le(description),
		{}, // rating
	}
	buf := &bytes.Buffer{}
	for _, v := range values {
		binary.Write(buf, binary.LittleEndian, uint16(len(v)))
	}
	for _, v := range values {
		buf.Write(v)
	}
	return object(contentDescriptionGUID, buf.Bytes())
}

// descriptor builds one extended content descriptor entry.
func descriptor(name string, valueType uint16, value []byte) []byte {
	nameBytes := utf16le(name)
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, uint16(len(nameBytes)))
	buf.Write(nameBytes)
	binary.Write(buf, binary.LittleEndian, valueType)
	binary.Write(buf, binary.LittleEndian, uint16(len(value)))
	buf.Write(value)
	return buf.Bytes()
}

func extendedContentDescription(descriptors ...[]byte) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, uint16(len(descriptors)))
	for _, d := range descriptors {
		buf.Write(d)
	}
	return object(extendedContentDescGUID, buf.Bytes())
}

// fileProperties declares a play duration in 100ns units and a preroll
// in milliseconds.
func fileProperties(playDuration, preroll uint64) []byte {
	body := make([]byte, 64)
	binary.LittleEndian.PutUint64(body[40:48], playDuration)
	binary.LittleEndian.PutUint64(body[56:64], preroll)
	return object(filePropertiesGUID, body)
}

func streamProperties(codecID, channels uint16, samplerate, avgBytes uint32, bitdepth uint16) []byte {
	body := make([]byte, 70)
	copy(body[:16], audioMediaGUID)
	binary.LittleEndian.PutUint16(body[54:56], codecID)
	binary.LittleEndian.PutUint16(body[56:58], channels)
	binary.LittleEndian.PutUint32(body[58:62], samplerate)
	binary.LittleEndian.PutUint32(body[62:66], avgBytes)
	binary.LittleEndian.PutUint16(body[68:70], bitdepth)
	return object(streamPropertiesGUID, body)
}

func parseASF(t *testing.T, data []byte, opts registry.Options) (*types.File, error) {
	t.Helper()
	p := &Parser{}
	return p.Parse(bytes.NewReader(data), int64(len(data)), "test.wma", opts)
}

func TestParse_ContentDescription(t *testing.T) {
	data := buildASF(contentDescription("Asf Title", "Asf Artist", "2009 Label", "A remark"))
	file, err := parseASF(t, data, registry.Default())
	require.NoError(t, err)

	require.Equal(t, "Asf Title", file.Tags.Title)
	require.Equal(t, "Asf Artist", file.Tags.Artist)
	require.Equal(t, "A remark", file.Tags.Comment)
	require.Equal(t, []string{"2009 Label"}, file.Tags.Other["copyright"])
}

func TestParse_ExtendedContentDescription(t *testing.T) {
	track := make([]byte, 4)
	binary.LittleEndian.PutUint32(track, 5)

	data := buildASF(extendedContentDescription(
		descriptor("WM/AlbumTitle", 0, utf16le("Asf Album")),
		descriptor("WM/TrackNumber", 3, track),
		descriptor("WM/Genre", 0, utf16le("Metal")),
		descriptor("WM/Mood", 0, utf16le("calm")),
		descriptor("WM/Picture", 1, []byte{1, 2, 3}), // raw bytes, skipped
	))
	file, err := parseASF(t, data, registry.Default())
	require.NoError(t, err)

	require.Equal(t, "Asf Album", file.Tags.Album)
	require.Equal(t, 5, file.Tags.Track)
	require.Equal(t, "Metal", file.Tags.Genre)
	require.Equal(t, []string{"calm"}, file.Tags.Other["mood"])
	require.NotContains(t, file.Tags.Other, "picture")
}

func TestParse_NonNumericTrackSkipped(t *testing.T) {
	data := buildASF(extendedContentDescription(
		descriptor("WM/TrackNumber", 0, utf16le("A1")),
	))
	file, err := parseASF(t, data, registry.Default())
	require.NoError(t, err)
	require.Zero(t, file.Tags.Track)
}

func TestParse_FileProperties(t *testing.T) {
	// 10 seconds of play duration minus a 3 second preroll.
	data := buildASF(fileProperties(100000000, 3000))
	file, err := parseASF(t, data, registry.Default())
	require.NoError(t, err)

	require.InDelta(t, 7.0, file.Audio.Duration, 0.0001)
}

func TestParse_StreamProperties(t *testing.T) {
	data := buildASF(streamProperties(353, 2, 44100, 16000, 0))
	file, err := parseASF(t, data, registry.Default())
	require.NoError(t, err)

	require.Equal(t, "wma", file.Audio.Codec)
	require.Equal(t, 2, file.Audio.Channels)
	require.Equal(t, 44100, file.Audio.SampleRate)
	require.InDelta(t, 128.0, file.Audio.Bitrate, 0.001)
	require.Zero(t, file.Audio.BitDepth)
}

func TestParse_LosslessBitDepth(t *testing.T) {
	data := buildASF(streamProperties(losslessCodecID, 2, 96000, 0, 24))
	file, err := parseASF(t, data, registry.Default())
	require.NoError(t, err)

	require.Equal(t, 24, file.Audio.BitDepth)
}

func TestParse_TagsSkippedWithoutReadTags(t *testing.T) {
	data := buildASF(
		contentDescription("Hidden", "", "", ""),
		streamProperties(353, 2, 44100, 16000, 0),
	)
	file, err := parseASF(t, data, registry.Options{})
	require.NoError(t, err)

	require.True(t, file.Tags.IsEmpty())
	require.Equal(t, 44100, file.Audio.SampleRate)
}

func TestParse_InvalidObjectSizeStops(t *testing.T) {
	bad := make([]byte, 24)
	copy(bad[:16], contentDescriptionGUID)
	binary.LittleEndian.PutUint64(bad[16:24], 5) // smaller than the header

	data := buildASF(append(bad, contentDescription("Never Reached", "", "", "")...))
	file, err := parseASF(t, data, registry.Default())
	require.NoError(t, err)

	require.True(t, file.Tags.IsEmpty())
	require.NotEmpty(t, file.Warnings)
}

func TestParse_BadHeader(t *testing.T) {
	_, err := parseASF(t, make([]byte, 64), registry.Default())
	var pe *types.ParseError
	require.ErrorAs(t, err, &pe)
}
