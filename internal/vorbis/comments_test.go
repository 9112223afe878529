package vorbis

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simonhull/audioprobe/internal/registry"
	"github.com/simonhull/audioprobe/internal/types"
)

// buildComments builds a Vorbis comment block with the standard vendor
// string framing.
func buildComments(vendor string, comments ...string) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, uint32(len(vendor)))
	buf.WriteString(vendor)
	binary.Write(buf, binary.LittleEndian, uint32(len(comments)))
	for _, c := range comments {
		binary.Write(buf, binary.LittleEndian, uint32(len(c)))
		buf.WriteString(c)
	}
	return buf.Bytes()
}

// buildPicture builds a FLAC picture block.
func buildPicture(picType uint32, mime, desc string, payload []byte) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.BigEndian, picType)
	binary.Write(buf, binary.BigEndian, uint32(len(mime)))
	buf.WriteString(mime)
	binary.Write(buf, binary.BigEndian, uint32(len(desc)))
	buf.WriteString(desc)
	binary.Write(buf, binary.BigEndian, [4]uint32{600, 600, 24, 0}) // dimensions
	binary.Write(buf, binary.BigEndian, uint32(len(payload)))
	buf.Write(payload)
	return buf.Bytes()
}

func TestParseComments(t *testing.T) {
	data := buildComments("test vendor",
		"TITLE=Comment Title",
		"ARTIST=Comment Artist",
		"TRACKNUMBER=5",
		"TOTALTRACKS=12",
		"DATE=2019-03-01",
		"CUSTOMKEY=custom value",
	)

	file := &types.File{}
	consumed := ParseComments(data, file, true, registry.Default())

	require.Equal(t, len(data), consumed)
	require.Equal(t, "Comment Title", file.Tags.Title)
	require.Equal(t, "Comment Artist", file.Tags.Artist)
	require.Equal(t, 5, file.Tags.Track)
	require.Equal(t, 12, file.Tags.TrackTotal)
	require.Equal(t, "2019-03-01", file.Tags.Year)
	require.Equal(t, []string{"custom value"}, file.Tags.Other["customkey"])
	require.Empty(t, file.Warnings)
}

func TestParseComments_KeysCaseInsensitive(t *testing.T) {
	data := buildComments("v", "Title=Mixed Case")
	file := &types.File{}
	ParseComments(data, file, true, registry.Default())
	require.Equal(t, "Mixed Case", file.Tags.Title)
}

func TestParseComments_MappedConventions(t *testing.T) {
	data := buildComments("v",
		"ALBUMARTIST=Band",
		"BPM=140",
		"DISCNUMBER=2",
		"ENCODEDBY=lavf",
	)
	file := &types.File{}
	ParseComments(data, file, true, registry.Default())

	require.Equal(t, "Band", file.Tags.AlbumArtist)
	require.Equal(t, 2, file.Tags.Disc)
	require.Equal(t, []string{"140"}, file.Tags.Other["bpm"])
	require.Equal(t, []string{"lavf"}, file.Tags.Other["encoded_by"])
}

func TestParseComments_WithoutVendor(t *testing.T) {
	full := buildComments("", "TITLE=Speex Style")
	// Strip the vendor framing (empty vendor string is 4 length bytes).
	data := full[4:]

	file := &types.File{}
	ParseComments(data, file, false, registry.Default())
	require.Equal(t, "Speex Style", file.Tags.Title)
}

func TestParseComments_TruncatedBlockWarns(t *testing.T) {
	data := buildComments("v", "TITLE=Cut Off")
	file := &types.File{}
	ParseComments(data[:len(data)-4], file, true, registry.Default())
	require.NotEmpty(t, file.Warnings)
}

func TestParseComments_ReadTagsDisabled(t *testing.T) {
	data := buildComments("v", "TITLE=Hidden")
	file := &types.File{}
	ParseComments(data, file, true, registry.Options{})
	require.True(t, file.Tags.IsEmpty())
}

func TestParseComments_EmbeddedPicture(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}
	pic := buildPicture(3, "image/png", "front", payload)
	b64 := base64.StdEncoding.EncodeToString(pic)
	data := buildComments("v", "METADATA_BLOCK_PICTURE="+b64)

	opts := registry.Default()
	opts.LoadImages = true
	file := &types.File{}
	ParseComments(data, file, true, opts)

	require.Len(t, file.Images.FrontCover, 1)
	img := file.Images.FrontCover[0]
	require.Equal(t, "image/png", img.MIMEType)
	require.Equal(t, "front", img.Description)
	require.Equal(t, payload, img.Data)
}

func TestParseComments_PictureSkippedWithoutLoadImages(t *testing.T) {
	pic := buildPicture(3, "image/png", "", []byte{1})
	data := buildComments("v", "METADATA_BLOCK_PICTURE="+base64.StdEncoding.EncodeToString(pic))

	file := &types.File{}
	ParseComments(data, file, true, registry.Default())
	require.Zero(t, file.Images.Count())
}

func TestParsePicture(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	kind, img, err := ParsePicture(buildPicture(4, "image/jpeg", "rear", payload))
	require.NoError(t, err)
	require.Equal(t, types.ImageBackCover, kind)
	require.Equal(t, "image/jpeg", img.MIMEType)
	require.Equal(t, "rear", img.Description)
	require.Equal(t, payload, img.Data)
}

func TestParsePicture_Truncated(t *testing.T) {
	pic := buildPicture(3, "image/png", "", []byte{1, 2, 3})
	_, _, err := ParsePicture(pic[:len(pic)-2])
	require.Error(t, err)
}
