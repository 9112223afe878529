package ogg

import (
	"encoding/binary"

	probebin "github.com/simonhull/audioprobe/internal/binary"
)

// pageHeaderSize is the fixed part of an Ogg page header.
const pageHeaderSize = 27

// maxPageSize bounds the backward scan for the final page.
// https://xiph.org/ogg/doc/libogg/ogg_page.html
const maxPageSize = 65536

// packetReader reconstructs logical packets from Ogg pages. A packet is
// laced into 255-byte segments; a segment shorter than 255 bytes ends
// the packet, and a page ending mid-lacing continues on the next page.
type packetReader struct {
	r     *probebin.Reader
	queue [][]byte
	carry []byte

	// MaxGranule tracks the highest granule position seen in any page
	// header.
	MaxGranule int64
}

func newPacketReader(r *probebin.Reader) *packetReader {
	return &packetReader{r: r, MaxGranule: -1}
}

// Next returns the next complete packet, or false at end of stream or
// on a damaged page.
func (pr *packetReader) Next() ([]byte, bool) {
	for len(pr.queue) == 0 {
		if !pr.readPage() {
			return nil, false
		}
	}
	packet := pr.queue[0]
	pr.queue = pr.queue[1:]
	return packet, true
}

func (pr *packetReader) readPage() bool {
	header, err := pr.r.ReadBytes(pageHeaderSize, "Ogg page header")
	if err != nil {
		return false
	}
	if string(header[:4]) != "OggS" || header[4] != 0 {
		return false
	}

	granule := int64(binary.LittleEndian.Uint64(header[6:14]))
	if granule > pr.MaxGranule {
		pr.MaxGranule = granule
	}

	table, err := pr.r.ReadBytes(int(header[26]), "Ogg segment table")
	if err != nil {
		return false
	}

	run := 0
	for _, seg := range table {
		run += int(seg)
		if seg == 255 {
			continue
		}
		data, err := pr.r.ReadBytes(run, "Ogg packet segments")
		if err != nil {
			return false
		}
		packet := make([]byte, 0, len(pr.carry)+len(data))
		packet = append(packet, pr.carry...)
		packet = append(packet, data...)
		pr.queue = append(pr.queue, packet)
		pr.carry = nil
		run = 0
	}
	if run > 0 {
		data, err := pr.r.ReadBytes(run, "Ogg continued packet")
		if err != nil {
			return false
		}
		pr.carry = append(pr.carry, data...)
	}
	return true
}

// lastGranule walks page headers from offset onward and returns the
// highest granule position found (-1 when none).
func lastGranule(sr *probebin.SafeReader, offset int64) int64 {
	var maxG int64 = -1
	header := make([]byte, pageHeaderSize)
	for offset+pageHeaderSize <= sr.Size() {
		if err := sr.ReadAt(header, offset, "Ogg page header"); err != nil {
			break
		}
		if string(header[:4]) != "OggS" || header[4] != 0 {
			break
		}
		granule := int64(binary.LittleEndian.Uint64(header[6:14]))
		if granule > maxG {
			maxG = granule
		}
		nsegs := int64(header[26])
		table := make([]byte, nsegs)
		if err := sr.ReadAt(table, offset+pageHeaderSize, "Ogg segment table"); err != nil {
			break
		}
		payload := int64(0)
		for _, seg := range table {
			payload += int64(seg)
		}
		offset += pageHeaderSize + nsegs + payload
	}
	return maxG
}
