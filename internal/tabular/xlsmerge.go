// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tabular

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/extrame/ole2"
)

// BIFF8 record types.
const (
	recBOF         = 0x0809
	recEOF         = 0x000A
	recBoundSheet  = 0x0085
	recMergedCells = 0x00E5
)

// maxRecords bounds a substream walk so a corrupt stream cannot loop.
const maxRecords = 1 << 22

// xlsMerges reads the merged regions of every sheet in a legacy workbook.
// The xls decoder skips MERGEDCELLS records, so they are read here from the
// same compound-file stream. The result is indexed like the decoder's
// sheets.
func xlsMerges(path string) ([][]Merge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := ole2.Open(f, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("opening compound file: %w", err)
	}
	dir, err := doc.ListDir()
	if err != nil {
		return nil, fmt.Errorf("listing compound file: %w", err)
	}
	var book, root *ole2.File
	for _, entry := range dir {
		switch entry.Name() {
		case "Workbook", "Book":
			book = entry
		case "Root Entry":
			root = entry
		}
	}
	if book == nil || root == nil {
		return nil, errors.New("no workbook stream")
	}
	return biffMerges(doc.OpenFile(book, root))
}

// biffMerges walks a BIFF8 workbook stream. The globals substream lists
// each sheet's BOF offset; each sheet substream is then scanned for
// MERGEDCELLS records outside nested substreams such as embedded charts.
func biffMerges(rs io.ReadSeeker) ([][]Merge, error) {
	var offsets []uint32
	err := walkSubstream(rs, 0, func(typ uint16, data []byte) {
		if typ == recBoundSheet && len(data) >= 4 {
			offsets = append(offsets, binary.LittleEndian.Uint32(data))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("reading workbook globals: %w", err)
	}

	merges := make([][]Merge, len(offsets))
	for i, off := range offsets {
		err := walkSubstream(rs, int64(off), func(typ uint16, data []byte) {
			if typ == recMergedCells {
				merges[i] = append(merges[i], parseMergedCells(data)...)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("reading sheet %d: %w", i, err)
		}
	}
	return merges, nil
}

// walkSubstream calls fn for each record of the substream whose BOF is at
// off, up to its matching EOF. Records of nested substreams are skipped.
func walkSubstream(rs io.ReadSeeker, off int64, fn func(typ uint16, data []byte)) error {
	if _, err := rs.Seek(off, io.SeekStart); err != nil {
		return err
	}

	depth := 0
	var hdr [4]byte
	for range maxRecords {
		if _, err := io.ReadFull(rs, hdr[:]); err != nil {
			return fmt.Errorf("substream at %d ends without EOF record: %w", off, err)
		}
		typ := binary.LittleEndian.Uint16(hdr[0:])
		data := make([]byte, binary.LittleEndian.Uint16(hdr[2:]))
		if _, err := io.ReadFull(rs, data); err != nil {
			return fmt.Errorf("record %#04x at substream %d: %w", typ, off, err)
		}

		switch {
		case typ == recBOF:
			depth++
		case depth == 0:
			return fmt.Errorf("no BOF record at %d", off)
		case typ == recEOF:
			depth--
			if depth == 0 {
				return nil
			}
		case depth == 1:
			fn(typ, data)
		}
	}
	return fmt.Errorf("substream at %d exceeds %d records", off, maxRecords)
}

// parseMergedCells decodes a MERGEDCELLS record: a count followed by
// (firstRow, lastRow, firstCol, lastCol) uint16 quadruples.
func parseMergedCells(data []byte) []Merge {
	if len(data) < 2 {
		return nil
	}
	n := int(binary.LittleEndian.Uint16(data))
	data = data[2:]

	out := make([]Merge, 0, n)
	for i := 0; i < n && len(data) >= 8; i++ {
		out = append(out, Merge{
			Top:    int(binary.LittleEndian.Uint16(data[0:])),
			Bottom: int(binary.LittleEndian.Uint16(data[2:])),
			Left:   int(binary.LittleEndian.Uint16(data[4:])),
			Right:  int(binary.LittleEndian.Uint16(data[6:])),
		})
		data = data[8:]
	}
	return out
}
