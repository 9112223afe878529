package types

import (
	"strconv"
	"strings"
)

// Canonical field names accepted by Tags.Add. Anything else, and anything
// carrying the "other." prefix, lands in the Other map.
const (
	FieldAlbum       = "album"
	FieldAlbumArtist = "albumartist"
	FieldArtist      = "artist"
	FieldComment     = "comment"
	FieldComposer    = "composer"
	FieldGenre       = "genre"
	FieldTitle       = "title"
	FieldTrack       = "track"
	FieldTrackTotal  = "tracktotal"
	FieldDisc        = "disc"
	FieldDiscTotal   = "disctotal"
	FieldYear        = "year"
)

// OtherPrefix routes a field name straight to the Other map.
const OtherPrefix = "other."

// Tags holds textual metadata extracted from a file.
//
// Each named field keeps the first value encountered; subsequent values for
// the same field accumulate in Other under the lower-case field name, so no
// value is silently discarded.
type Tags struct {
	Album       string
	AlbumArtist string
	Artist      string
	Comment     string
	Composer    string
	Genre       string
	Title       string

	Track      int
	TrackTotal int
	Disc       int
	DiscTotal  int

	// Year is kept as a string: real-world files carry full dates
	// ("2005-08-21") as often as bare years.
	Year string

	// Other collects non-standard fields and overflow values for the named
	// fields, in encounter order.
	Other map[string][]string
}

// Add records a value for the named field, applying the first-wins rule.
// Values containing NUL separators are split into multiple values. Empty
// values are ignored.
func (t *Tags) Add(field, value string) {
	for _, v := range strings.Split(value, "\x00") {
		v = strings.Trim(v, " \t\r\n\x00")
		if v == "" {
			continue
		}
		t.addOne(field, v)
	}
}

func (t *Tags) addOne(field, value string) {
	if strings.HasPrefix(field, OtherPrefix) {
		t.AddOther(strings.TrimPrefix(field, OtherPrefix), value)
		return
	}

	switch field {
	case FieldAlbum:
		t.setString(&t.Album, field, value)
	case FieldAlbumArtist:
		t.setString(&t.AlbumArtist, field, value)
	case FieldArtist:
		t.setString(&t.Artist, field, value)
	case FieldComment:
		t.setString(&t.Comment, field, value)
	case FieldComposer:
		t.setString(&t.Composer, field, value)
	case FieldGenre:
		t.setString(&t.Genre, field, value)
	case FieldTitle:
		t.setString(&t.Title, field, value)
	case FieldYear:
		t.setString(&t.Year, field, value)
	case FieldTrack:
		t.setNumber(&t.Track, &t.TrackTotal, field, value)
	case FieldDisc:
		t.setNumber(&t.Disc, &t.DiscTotal, field, value)
	case FieldTrackTotal:
		t.setNumber(&t.TrackTotal, nil, field, value)
	case FieldDiscTotal:
		t.setNumber(&t.DiscTotal, nil, field, value)
	default:
		t.AddOther(field, value)
	}
}

// setString fills an empty slot, otherwise overflows into Other.
func (t *Tags) setString(slot *string, field, value string) {
	if *slot == "" {
		*slot = value
		return
	}
	if *slot == value {
		return
	}
	t.AddOther(field, value)
}

// setNumber parses "N" or "N/Total" into the slot (and the total slot when
// present). Unparsable text is dropped rather than reported.
func (t *Tags) setNumber(slot, totalSlot *int, field, value string) {
	if totalSlot != nil {
		if idx := strings.IndexByte(value, '/'); idx >= 0 {
			t.setNumber(totalSlot, nil, field+"total", value[idx+1:])
			value = value[:idx]
		}
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return
	}
	if *slot == 0 {
		*slot = n
		return
	}
	if *slot != n {
		t.AddOther(field, strconv.Itoa(n))
	}
}

// AddOther appends a value under a non-standard key, skipping exact
// duplicates. Keys are lower-cased.
func (t *Tags) AddOther(key, value string) {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.Trim(value, " \t\r\n\x00")
	if key == "" || value == "" {
		return
	}
	for _, existing := range t.Other[key] {
		if existing == value {
			return
		}
	}
	if t.Other == nil {
		t.Other = make(map[string][]string)
	}
	t.Other[key] = append(t.Other[key], value)
}

// IsEmpty reports whether no field holds a value.
func (t *Tags) IsEmpty() bool {
	return t.Album == "" && t.AlbumArtist == "" && t.Artist == "" &&
		t.Comment == "" && t.Composer == "" && t.Genre == "" &&
		t.Title == "" && t.Year == "" &&
		t.Track == 0 && t.TrackTotal == 0 && t.Disc == 0 && t.DiscTotal == 0 &&
		len(t.Other) == 0
}
