package types

import "strconv"

// File is the unified result of parsing one audio file.
type File struct {
	// Path the file was opened from (empty for plain readers).
	Path string

	// Size of the file in bytes.
	Size int64

	// Format that was detected and parsed.
	Format Format

	// Audio holds the technical stream properties.
	Audio AudioInfo

	// Tags holds the textual metadata.
	Tags Tags

	// Images holds embedded pictures, when image loading was requested.
	Images Images

	// Warnings collects non-fatal anomalies hit while parsing.
	Warnings []Warning
}

// Warn records a non-fatal parsing anomaly.
func (f *File) Warn(stage, message string, offset int64) {
	f.Warnings = append(f.Warnings, Warning{Stage: stage, Message: message, Offset: offset})
}

// MergeTags folds another tag set into this file's tags under the
// first-wins rule: values already present keep priority, the incoming
// ones overflow into Other. Used when one container carries two tag
// systems (FLAC with a leading ID3 header, WAV with both INFO and ID3).
func (f *File) MergeTags(other *Tags) {
	if other == nil {
		return
	}
	for field, value := range map[string]string{
		FieldAlbum:       other.Album,
		FieldAlbumArtist: other.AlbumArtist,
		FieldArtist:      other.Artist,
		FieldComment:     other.Comment,
		FieldComposer:    other.Composer,
		FieldGenre:       other.Genre,
		FieldTitle:       other.Title,
		FieldYear:        other.Year,
	} {
		if value != "" {
			f.Tags.Add(field, value)
		}
	}
	mergeInt := func(slot *int, field string, value int) {
		if value == 0 {
			return
		}
		if *slot == 0 {
			*slot = value
			return
		}
		if *slot != value {
			f.Tags.AddOther(field, strconv.Itoa(value))
		}
	}
	mergeInt(&f.Tags.Track, FieldTrack, other.Track)
	mergeInt(&f.Tags.TrackTotal, FieldTrackTotal, other.TrackTotal)
	mergeInt(&f.Tags.Disc, FieldDisc, other.Disc)
	mergeInt(&f.Tags.DiscTotal, FieldDiscTotal, other.DiscTotal)

	for key, values := range other.Other {
		for _, v := range values {
			f.Tags.AddOther(key, v)
		}
	}
}

// FlatMap flattens tags and audio properties into a single map keyed by
// field name. Named fields map to scalars; Other entries map to a string
// for single values and a []string otherwise. Zero-valued fields are
// omitted.
func (f *File) FlatMap() map[string]any {
	m := make(map[string]any)

	m["filesize"] = f.Size
	if f.Audio.Duration > 0 {
		m["duration"] = f.Audio.Duration
	}
	if f.Audio.Bitrate > 0 {
		m["bitrate"] = f.Audio.Bitrate
	}
	if f.Audio.SampleRate > 0 {
		m["samplerate"] = f.Audio.SampleRate
	}
	if f.Audio.Channels > 0 {
		m["channels"] = f.Audio.Channels
	}
	if f.Audio.BitDepth > 0 {
		m["bitdepth"] = f.Audio.BitDepth
	}

	for field, value := range map[string]string{
		FieldAlbum:       f.Tags.Album,
		FieldAlbumArtist: f.Tags.AlbumArtist,
		FieldArtist:      f.Tags.Artist,
		FieldComment:     f.Tags.Comment,
		FieldComposer:    f.Tags.Composer,
		FieldGenre:       f.Tags.Genre,
		FieldTitle:       f.Tags.Title,
		FieldYear:        f.Tags.Year,
	} {
		if value != "" {
			m[field] = value
		}
	}
	for field, value := range map[string]int{
		FieldTrack:      f.Tags.Track,
		FieldTrackTotal: f.Tags.TrackTotal,
		FieldDisc:       f.Tags.Disc,
		FieldDiscTotal:  f.Tags.DiscTotal,
	} {
		if value != 0 {
			m[field] = value
		}
	}
	for key, values := range f.Tags.Other {
		if _, taken := m[key]; taken {
			key = "other." + key
		}
		if len(values) == 1 {
			m[key] = values[0]
		} else {
			m[key] = append([]string(nil), values...)
		}
	}

	return m
}

// PrimaryImage returns the front cover if present, any other embedded
// image otherwise, or nil.
func (f *File) PrimaryImage() *Image {
	return f.Images.Any()
}
