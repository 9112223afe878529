package types

// Standard image kinds used by Images.Add. ID3 picture types, MP4 covr
// atoms and FLAC picture blocks all map onto these.
const (
	ImageFrontCover = "front_cover"
	ImageBackCover  = "back_cover"
	ImageLeaflet    = "leaflet"
	ImageMedia      = "media"
	ImageOther      = "other"
)

// Image is one embedded picture, carried verbatim.
type Image struct {
	// Name is the kind the image was filed under.
	Name string

	// Data is the raw image payload. Nil unless image loading was
	// requested.
	Data []byte

	// MIMEType as declared by the container ("image/jpeg", "image/png").
	MIMEType string

	// Description is the free-text description, where the format has one.
	Description string
}

// Images groups embedded pictures by kind.
type Images struct {
	FrontCover []Image
	BackCover  []Image
	Leaflet    []Image
	Media      []Image
	Other      []Image

	// Extra holds images of non-standard kinds (lead artist, band logo...),
	// keyed by kind name.
	Extra map[string][]Image
}

// Add files an image under the given kind.
func (im *Images) Add(kind string, img Image) {
	img.Name = kind
	switch kind {
	case ImageFrontCover:
		im.FrontCover = append(im.FrontCover, img)
	case ImageBackCover:
		im.BackCover = append(im.BackCover, img)
	case ImageLeaflet:
		im.Leaflet = append(im.Leaflet, img)
	case ImageMedia:
		im.Media = append(im.Media, img)
	case ImageOther:
		im.Other = append(im.Other, img)
	default:
		if im.Extra == nil {
			im.Extra = make(map[string][]Image)
		}
		im.Extra[kind] = append(im.Extra[kind], img)
	}
}

// Any returns a representative image, preferring the front cover, or nil
// if the file carries none.
func (im *Images) Any() *Image {
	for _, group := range [][]Image{im.FrontCover, im.BackCover, im.Media, im.Leaflet, im.Other} {
		if len(group) > 0 {
			return &group[0]
		}
	}
	for _, group := range im.Extra {
		if len(group) > 0 {
			return &group[0]
		}
	}
	return nil
}

// Merge appends every image of src.
func (im *Images) Merge(src *Images) {
	for _, group := range [][]Image{src.FrontCover, src.BackCover, src.Leaflet, src.Media, src.Other} {
		for _, img := range group {
			im.Add(img.Name, img)
		}
	}
	for kind, group := range src.Extra {
		for _, img := range group {
			im.Add(kind, img)
		}
	}
}

// Count returns the total number of stored images.
func (im *Images) Count() int {
	n := len(im.FrontCover) + len(im.BackCover) + len(im.Leaflet) + len(im.Media) + len(im.Other)
	for _, group := range im.Extra {
		n += len(group)
	}
	return n
}
