package audioprobe

import "github.com/simonhull/audioprobe/internal/types"

// Tags holds the format-agnostic metadata fields. Values a format maps
// to no dedicated field land in Other.
type Tags = types.Tags

// AudioInfo holds the technical stream properties.
type AudioInfo = types.AudioInfo

// Image is one embedded picture.
type Image = types.Image

// Images groups embedded pictures by their declared kind.
type Images = types.Images

// Canonical field names, used as FlatMap keys.
const (
	FieldAlbum       = types.FieldAlbum
	FieldAlbumArtist = types.FieldAlbumArtist
	FieldArtist      = types.FieldArtist
	FieldComment     = types.FieldComment
	FieldComposer    = types.FieldComposer
	FieldDisc        = types.FieldDisc
	FieldDiscTotal   = types.FieldDiscTotal
	FieldGenre       = types.FieldGenre
	FieldTitle       = types.FieldTitle
	FieldTrack       = types.FieldTrack
	FieldTrackTotal  = types.FieldTrackTotal
	FieldYear        = types.FieldYear

	// OtherPrefix marks FlatMap keys that come from the Other map.
	OtherPrefix = types.OtherPrefix
)

// Image kinds as reported by Image.Name.
const (
	ImageFrontCover = types.ImageFrontCover
	ImageBackCover  = types.ImageBackCover
	ImageLeaflet    = types.ImageLeaflet
	ImageMedia      = types.ImageMedia
	ImageOther      = types.ImageOther
)
