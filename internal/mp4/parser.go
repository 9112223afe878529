package mp4

import (
	"io"

	probebin "github.com/simonhull/audioprobe/internal/binary"
	"github.com/simonhull/audioprobe/internal/registry"
	"github.com/simonhull/audioprobe/internal/types"
)

// Parser handles MP4/M4A/M4B files.
type Parser struct{}

func init() {
	registry.Register(types.FormatMP4, &Parser{})
}

// Parse implements registry.FormatParser.
func (p *Parser) Parse(r io.ReaderAt, size int64, path string, opts registry.Options) (*types.File, error) {
	sr := probebin.NewSafeReader(r, size, path)
	file := &types.File{}

	root := &Atom{Type: "", Offset: 0, Size: size, HeaderSize: 0}
	moov := findAtom(sr, 0, root.End(), "moov")
	if moov == nil {
		return nil, &types.ParseError{Path: path, Reason: "no moov atom found"}
	}

	parseTechnicalInfo(sr, moov, file)
	if opts.ReadTags || opts.LoadImages {
		parseMetadata(sr, moov, file, opts)
	}

	return file, nil
}
