package id3

// frameFields maps ID3v2 frame IDs (v2.3/v2.4 four-character and v2.2
// three-character forms) to canonical field names.
var frameFields = map[string]string{
	"COMM": "comment", "COM": "comment",
	"TRCK": "track", "TRK": "track",
	"TYER": "year", "TYE": "year", "TDRC": "year",
	"TALB": "album", "TAL": "album",
	"TPE1": "artist", "TP1": "artist",
	"TIT2": "title", "TT2": "title",
	"TCON": "genre", "TCO": "genre",
	"TPOS": "disc", "TPA": "disc",
	"TPE2": "albumartist", "TP2": "albumartist",
	"TCOM": "composer", "TCM": "composer",
	"WOAR": "other.url", "WAR": "other.url",
	"TSRC": "other.isrc", "TRC": "other.isrc",
	"TCOP": "other.copyright", "TCR": "other.copyright",
	"TBPM": "other.bpm", "TBP": "other.bpm",
	"TKEY": "other.initial_key", "TKE": "other.initial_key",
	"TLAN": "other.language", "TLA": "other.language",
	"TPUB": "other.publisher", "TPB": "other.publisher",
	"USLT": "other.lyrics", "ULT": "other.lyrics",
	"TPE3": "other.conductor", "TP3": "other.conductor",
	"TEXT": "other.lyricist", "TXT": "other.lyricist",
	"TSST": "other.set_subtitle",
	"TENC": "other.encoded_by", "TEN": "other.encoded_by",
	"TSSE": "other.encoder_settings", "TSS": "other.encoder_settings",
	"TMED": "other.media", "TMT": "other.media",
	"TDOR": "other.original_date",
	"TORY": "other.original_year", "TOR": "other.original_year",
	"WCOP": "other.license",
}

// customFields maps well-known TXXX descriptions to canonical fields.
var customFields = map[string]string{
	"artists":       "artist",
	"director":      "other.director",
	"license":       "other.license",
	"originalyear":  "other.original_year",
	"barcode":       "other.barcode",
	"catalognumber": "other.catalog_number",
}

// disallowedFrames hold binary payloads that would pollute the Other map.
var disallowedFrames = map[string]bool{
	"PRIV": true,
	"RGAD": true,
	"GEOB": true,
	"GEO":  true,
}

// imageKinds maps the APIC picture type byte to image kinds. Standard
// kinds use the shared names, the rest keep their descriptive name and
// land in the extra image groups.
var imageKinds = []string{
	"other",
	"icon",
	"other_icon",
	"front_cover",
	"back_cover",
	"leaflet",
	"media",
	"lead_artist",
	"artist",
	"conductor",
	"band",
	"composer",
	"lyricist",
	"recording_location",
	"during_recording",
	"during_performance",
	"video",
	"bright_colored_fish",
	"illustration",
	"band_logo",
	"publisher_logo",
}

// v22ImageFormats maps ID3v2.2 three-character image formats to MIME types.
var v22ImageFormats = map[string]string{
	"bmp": "image/bmp",
	"jpg": "image/jpeg",
	"png": "image/png",
}

// ImageKind maps an APIC picture type byte to an image kind name. The
// same numbering is used by FLAC picture blocks and Vorbis
// METADATA_BLOCK_PICTURE fields.
func ImageKind(picType int) string {
	if picType < 0 || picType >= len(imageKinds) {
		return "unknown"
	}
	return imageKinds[picType]
}
