// Package mp4 parses MP4/M4A/M4B containers: iTunes-style metadata in
// moov/udta/meta/ilst and stream properties from mvhd and the sample
// description table.
package mp4

import (
	"fmt"

	probebin "github.com/simonhull/audioprobe/internal/binary"
)

// Atom represents one ISO-BMFF box.
type Atom struct {
	// Type is the four-character atom type.
	Type string

	// Offset of the atom header in the file.
	Offset int64

	// Size of the whole atom including its header.
	Size int64

	// HeaderSize is 8, or 16 for atoms with a 64-bit extended size.
	HeaderSize int64
}

// DataOffset returns the offset of the atom payload.
func (a *Atom) DataOffset() int64 {
	return a.Offset + a.HeaderSize
}

// DataSize returns the payload size.
func (a *Atom) DataSize() int64 {
	return a.Size - a.HeaderSize
}

// End returns the offset one past the atom.
func (a *Atom) End() int64 {
	return a.Offset + a.Size
}

// readAtomHeader reads the atom header at offset. Size 1 switches to a
// 64-bit size field, size 0 extends the atom to the end of the file.
func readAtomHeader(sr *probebin.SafeReader, offset int64) (*Atom, error) {
	size32, err := probebin.ReadBE[uint32](sr, offset, "atom size")
	if err != nil {
		return nil, err
	}
	typeBytes := make([]byte, 4)
	if err := sr.ReadAt(typeBytes, offset+4, "atom type"); err != nil {
		return nil, err
	}

	atom := &Atom{
		Type:       string(typeBytes),
		Offset:     offset,
		Size:       int64(size32),
		HeaderSize: 8,
	}
	switch size32 {
	case 0:
		atom.Size = sr.Size() - offset
	case 1:
		size64, err := probebin.ReadBE[uint64](sr, offset+8, "atom extended size")
		if err != nil {
			return nil, err
		}
		atom.Size = int64(size64)
		atom.HeaderSize = 16
	}

	if atom.Size < atom.HeaderSize {
		return nil, fmt.Errorf("%s: atom %q at offset %d has invalid size %d",
			sr.Path(), atom.Type, offset, atom.Size)
	}
	return atom, nil
}

// versionedAtoms carry a 4-byte version field before their children,
// flaggedAtoms another 4 bytes of flags.
var (
	versionedAtoms = map[string]bool{"meta": true, "stsd": true}
	flaggedAtoms   = map[string]bool{"stsd": true}
)

// childrenStart returns the offset of an atom's first child, skipping
// version/flags fields where the type carries them.
func childrenStart(a *Atom) int64 {
	start := a.DataOffset()
	if versionedAtoms[a.Type] {
		start += 4
	}
	if flaggedAtoms[a.Type] {
		start += 4
	}
	return start
}

// walkChildren calls fn for every child atom in [start, end). fn
// returning false stops the walk.
func walkChildren(sr *probebin.SafeReader, start, end int64, fn func(a *Atom) bool) {
	offset := start
	for offset+8 <= end {
		atom, err := readAtomHeader(sr, offset)
		if err != nil {
			return
		}
		if atom.End() > end {
			return
		}
		if !fn(atom) {
			return
		}
		offset = atom.End()
	}
}

// findAtom returns the first child of the given type in [start, end).
func findAtom(sr *probebin.SafeReader, start, end int64, atomType string) *Atom {
	var found *Atom
	walkChildren(sr, start, end, func(a *Atom) bool {
		if a.Type == atomType {
			found = a
			return false
		}
		return true
	})
	return found
}

// findPath descends a chain of nested atoms starting inside parent.
func findPath(sr *probebin.SafeReader, parent *Atom, path ...string) *Atom {
	current := parent
	for _, atomType := range path {
		next := findAtom(sr, childrenStart(current), current.End(), atomType)
		if next == nil {
			return nil
		}
		current = next
	}
	return current
}
