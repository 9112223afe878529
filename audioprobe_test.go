package audioprobe_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simonhull/audioprobe"
)

// flacBlock wraps a body in a metadata block header.
func flacBlock(blockType byte, last bool, body []byte) []byte {
	header := blockType
	if last {
		header |= 0x80
	}
	out := []byte{header, byte(len(body) >> 16), byte(len(body) >> 8), byte(len(body))}
	return append(out, body...)
}

func flacStreamInfo(samplerate, channels, bitdepth int, totalSamples uint32) []byte {
	info := make([]byte, 34)
	info[10] = byte(samplerate >> 12)
	info[11] = byte(samplerate >> 4)
	info[12] = byte(samplerate&0x0F)<<4 | byte(channels-1)<<1 | byte((bitdepth-1)>>4)
	info[13] = byte((bitdepth-1)&0x0F) << 4
	binary.BigEndian.PutUint32(info[14:18], totalSamples)
	return info
}

func flacComments(comments ...string) []byte {
	buf := &bytes.Buffer{}
	vendor := "test"
	binary.Write(buf, binary.LittleEndian, uint32(len(vendor)))
	buf.WriteString(vendor)
	binary.Write(buf, binary.LittleEndian, uint32(len(comments)))
	for _, c := range comments {
		binary.Write(buf, binary.LittleEndian, uint32(len(c)))
		buf.WriteString(c)
	}
	return buf.Bytes()
}

func flacPicture(payload []byte) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.BigEndian, uint32(3)) // front cover
	binary.Write(buf, binary.BigEndian, uint32(10))
	buf.WriteString("image/jpeg")
	binary.Write(buf, binary.BigEndian, uint32(0))
	binary.Write(buf, binary.BigEndian, [4]uint32{300, 300, 24, 0})
	binary.Write(buf, binary.BigEndian, uint32(len(payload)))
	buf.Write(payload)
	return buf.Bytes()
}

func flacFile(blocks ...[]byte) []byte {
	out := []byte("fLaC")
	for _, b := range blocks {
		out = append(out, b...)
	}
	return out
}

// mp3File builds an ID3v2.3 tag with a TIT2 frame followed by MPEG-1
// Layer III frames at 128 kbit/s, 44.1 kHz.
func mp3File(title string, frames int) []byte {
	frameBody := &bytes.Buffer{}
	frameBody.WriteString("TIT2")
	binary.Write(frameBody, binary.BigEndian, uint32(len(title)+1))
	frameBody.Write([]byte{0, 0})
	frameBody.WriteByte(0) // Latin-1
	frameBody.WriteString(title)

	tag := &bytes.Buffer{}
	tag.WriteString("ID3")
	tag.Write([]byte{3, 0, 0})
	size := frameBody.Len()
	tag.Write([]byte{byte(size >> 21 & 0x7F), byte(size >> 14 & 0x7F), byte(size >> 7 & 0x7F), byte(size & 0x7F)})
	tag.Write(frameBody.Bytes())

	audioFrame := make([]byte, 417)
	audioFrame[0] = 0xFF
	audioFrame[1] = 0xFB
	audioFrame[2] = 0x90
	out := tag.Bytes()
	for i := 0; i < frames; i++ {
		out = append(out, audioFrame...)
	}
	return out
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestOpen_FLAC(t *testing.T) {
	data := flacFile(
		flacBlock(0, false, flacStreamInfo(44100, 2, 16, 441000)),
		flacBlock(4, true, flacComments("TITLE=Open Test", "ARTIST=Someone")),
	)
	path := writeTemp(t, "test.flac", data)

	file, err := audioprobe.Open(path)
	require.NoError(t, err)

	require.Equal(t, path, file.Path)
	require.Equal(t, audioprobe.FormatFLAC, file.Format)
	require.Equal(t, int64(len(data)), file.Size)
	require.Equal(t, "Open Test", file.Tags.Title)
	require.Equal(t, "Someone", file.Tags.Artist)
	require.InDelta(t, 10.0, file.Audio.Duration, 0.0001)
}

func TestOpen_MP3(t *testing.T) {
	path := writeTemp(t, "test.mp3", mp3File("Mp3 Test", 20))

	file, err := audioprobe.Open(path)
	require.NoError(t, err)

	require.Equal(t, audioprobe.FormatMP3, file.Format)
	require.Equal(t, "mp3", file.Audio.Codec)
	require.Equal(t, "Mp3 Test", file.Tags.Title)
	require.Equal(t, 44100, file.Audio.SampleRate)
}

func TestOpen_WithoutTags(t *testing.T) {
	data := flacFile(
		flacBlock(0, false, flacStreamInfo(44100, 2, 16, 44100)),
		flacBlock(4, true, flacComments("TITLE=Skipped")),
	)
	path := writeTemp(t, "test.flac", data)

	file, err := audioprobe.Open(path, audioprobe.WithoutTags())
	require.NoError(t, err)

	require.True(t, file.Tags.IsEmpty())
	require.Equal(t, 44100, file.Audio.SampleRate)
}

func TestOpen_WithImages(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF}
	data := flacFile(
		flacBlock(0, false, flacStreamInfo(44100, 2, 16, 44100)),
		flacBlock(6, true, flacPicture(payload)),
	)
	path := writeTemp(t, "test.flac", data)

	file, err := audioprobe.Open(path, audioprobe.WithImages())
	require.NoError(t, err)

	img := file.PrimaryImage()
	require.NotNil(t, img)
	require.Equal(t, "image/jpeg", img.MIMEType)
	require.Equal(t, payload, img.Data)
}

func TestOpen_ImagesSkippedByDefault(t *testing.T) {
	data := flacFile(
		flacBlock(0, false, flacStreamInfo(44100, 2, 16, 44100)),
		flacBlock(6, true, flacPicture([]byte{1, 2})),
	)
	path := writeTemp(t, "test.flac", data)

	file, err := audioprobe.Open(path)
	require.NoError(t, err)
	require.Nil(t, file.PrimaryImage())
}

func TestOpen_StrictParsing(t *testing.T) {
	// STREAMINFO not flagged as the last block, chain ends prematurely.
	data := flacFile(flacBlock(0, false, flacStreamInfo(44100, 2, 16, 44100)))
	path := writeTemp(t, "test.flac", data)

	file, err := audioprobe.Open(path)
	require.NoError(t, err)
	require.NotEmpty(t, file.Warnings)

	_, err = audioprobe.Open(path, audioprobe.WithStrictParsing())
	require.Error(t, err)
}

func TestOpen_IgnoreWarnings(t *testing.T) {
	data := flacFile(flacBlock(0, false, flacStreamInfo(44100, 2, 16, 44100)))
	path := writeTemp(t, "test.flac", data)

	file, err := audioprobe.Open(path, audioprobe.WithIgnoreWarnings())
	require.NoError(t, err)
	require.Empty(t, file.Warnings)
}

func TestOpen_UnknownEncoding(t *testing.T) {
	path := writeTemp(t, "test.mp3", mp3File("x", 5))
	_, err := audioprobe.Open(path, audioprobe.WithTextEncoding("bogus"))
	require.Error(t, err)
}

func TestOpen_UnsupportedFormat(t *testing.T) {
	path := writeTemp(t, "test.xyz", []byte("this is not an audio file at all"))
	_, err := audioprobe.Open(path)

	var ufe *audioprobe.UnsupportedFormatError
	require.ErrorAs(t, err, &ufe)
}

func TestOpen_CorruptFile(t *testing.T) {
	// Valid FLAC magic, truncated STREAMINFO.
	path := writeTemp(t, "test.flac", flacFile(flacBlock(0, true, make([]byte, 4))))
	_, err := audioprobe.Open(path)

	var pe *audioprobe.ParseError
	require.ErrorAs(t, err, &pe)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := audioprobe.Open(filepath.Join(t.TempDir(), "nope.mp3"))
	require.Error(t, err)
}

func TestOpenReader(t *testing.T) {
	data := flacFile(
		flacBlock(0, false, flacStreamInfo(48000, 2, 16, 48000)),
		flacBlock(4, true, flacComments("TITLE=Reader Test")),
	)

	file, err := audioprobe.OpenReader(bytes.NewReader(data), int64(len(data)), "buffer.flac")
	require.NoError(t, err)

	require.Equal(t, "Reader Test", file.Tags.Title)
	require.Equal(t, 48000, file.Audio.SampleRate)
}

func TestOpenMany(t *testing.T) {
	paths := []string{
		writeTemp(t, "a.flac", flacFile(
			flacBlock(0, false, flacStreamInfo(44100, 2, 16, 44100)),
			flacBlock(4, true, flacComments("TITLE=First")),
		)),
		writeTemp(t, "b.mp3", mp3File("Second", 10)),
	}

	files, err := audioprobe.OpenMany(context.Background(), paths...)
	require.NoError(t, err)
	require.Len(t, files, 2)

	// Results keep the input order.
	require.Equal(t, "First", files[0].Tags.Title)
	require.Equal(t, "Second", files[1].Tags.Title)
}

func TestOpenMany_Empty(t *testing.T) {
	files, err := audioprobe.OpenMany(context.Background())
	require.NoError(t, err)
	require.Nil(t, files)
}

func TestOpenMany_FirstError(t *testing.T) {
	paths := []string{
		writeTemp(t, "good.mp3", mp3File("Fine", 5)),
		filepath.Join(t.TempDir(), "missing.mp3"),
	}
	_, err := audioprobe.OpenMany(context.Background(), paths...)
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenContext_Cancelled(t *testing.T) {
	path := writeTemp(t, "test.mp3", mp3File("x", 5))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := audioprobe.OpenContext(ctx, path)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestOpen_FlatMap(t *testing.T) {
	data := flacFile(
		flacBlock(0, false, flacStreamInfo(44100, 2, 16, 441000)),
		flacBlock(4, true, flacComments("TITLE=Flat", "TRACKNUMBER=3/12")),
	)
	path := writeTemp(t, "test.flac", data)

	file, err := audioprobe.Open(path)
	require.NoError(t, err)

	flat := file.FlatMap()
	require.Equal(t, "Flat", flat["title"])
	require.Equal(t, 3, flat["track"])
	require.Equal(t, 12, flat["tracktotal"])
	require.Equal(t, int64(len(data)), flat["filesize"])
}
