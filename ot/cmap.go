package ot

// Character-to-glyph mapping ('cmap' table).
//
// The table-directory dispatch and the outer sub-table selection loop already
// live in parse.go (parseCMap); this file supplies the concrete sub-table
// formats and the CMapTable type itself plus its Lookup entry point.
//
// Ported in spirit from golang.org/x/image/font/sfnt/cmap.go, which is the
// same source the package doc (doc.go) already credits for this table's
// routines; the format-10/12/13/14 handling and the CMapTable wrapper itself
// are new, since the upstream sfnt package hides them behind its own Font
// type rather than exposing them for reuse.

import "fmt"

// CMapTable maps character codes to glyph indices.
//
// Only one encoding record is retained: the one chosen by parseCMap as the
// best (platform, encoding, format) combination available in the font. All
// cmap formats decode to a GlyphIndexMap, a small interface so format-specific
// storage (arrays, segment tables, ranges) never has to be copied out.
type CMapTable struct {
	tableBase
	GlyphIndexMap GlyphIndexMap
	NumGlyphs     int // filled in after maxp has been parsed
}

func newCMapTable(tag Tag, b binarySegm, offset, size uint32) *CMapTable {
	t := &CMapTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// Lookup returns the glyph index for rune r, or 0 ("missing glyph") if there
// is no mapping, the cmap is absent, or r is out of range for the chosen
// sub-table's addressing scheme.
func (t *CMapTable) Lookup(r rune) GlyphIndex {
	if t == nil || t.GlyphIndexMap == nil {
		return 0
	}
	gid := t.GlyphIndexMap.Lookup(r)
	if t.NumGlyphs > 0 && int(gid) >= t.NumGlyphs {
		return 0
	}
	return gid
}

// GlyphIndexMap abstracts over the concrete cmap sub-table formats.
type GlyphIndexMap interface {
	Lookup(r rune) GlyphIndex
}

// platformEncodingWidth classifies a (platformID, encodingID) pair by how
// wide a codepoint space it can address, so the "widest wins" selection rule
// in parseCMap can compare sub-tables. 0 means "not supported".
func platformEncodingWidth(pid, eid uint16) int {
	switch {
	case pid == 0 && (eid == 3 || eid == 4 || eid == 6): // Unicode BMP/full/variation
		if eid == 4 {
			return 4
		}
		return 2
	case pid == 0: // other Unicode sub-encodings: accept as BMP width
		return 2
	case pid == 3 && eid == 1: // Windows Unicode BMP
		return 2
	case pid == 3 && eid == 10: // Windows Unicode full
		return 4
	case pid == 3 && eid == 0: // Windows Symbol
		return 2
	case pid == 1 && eid == 0: // Macintosh Roman
		return 1
	}
	return 0
}

// supportedCmapFormat reports whether this package can interpret the given
// sub-table format for the given platform/encoding.
func supportedCmapFormat(format, pid, eid uint16) bool {
	switch format {
	case 0, 2, 4, 6, 10, 12, 13:
		return true
	case 14:
		return true // variation selectors, handled alongside the primary map
	}
	return false
}

// makeGlyphIndex dispatches on the chosen sub-table's format and builds the
// concrete GlyphIndexMap.
func makeGlyphIndex(b binarySegm, enc encodingRecord, tag Tag, offset uint32, ec *errorCollector) (GlyphIndexMap, error) {
	sub := enc.link.Jump().Bytes()
	switch enc.format {
	case 0:
		return parseCmapFormat0(sub)
	case 2:
		return parseCmapFormat2(sub)
	case 4:
		return parseCmapFormat4(sub)
	case 6:
		return parseCmapFormat6(sub)
	case 10:
		return parseCmapFormat10(sub)
	case 12:
		return parseCmapFormat12(sub)
	case 13:
		return parseCmapFormat13(sub)
	case 14:
		// Format 14 carries variation-sequence data only and never supplies a
		// default mapping; treat it as an empty map rather than an error.
		return format0GlyphIndex{}, nil
	}
	ec.addError(tag, "Format", fmt.Sprintf("unsupported cmap format %d", enc.format), SeverityMajor, offset)
	return nil, errFontFormat(fmt.Sprintf("unsupported cmap format %d", enc.format))
}

// --- Format 0: byte encoding table ------------------------------------------

type format0GlyphIndex struct {
	glyphIDArray [256]byte
}

func parseCmapFormat0(b binarySegm) (GlyphIndexMap, error) {
	if len(b) < 6+256 {
		return nil, errFontFormat("cmap format 0 table too short")
	}
	var m format0GlyphIndex
	copy(m.glyphIDArray[:], b[6:6+256])
	return m, nil
}

func (m format0GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 || r > 255 {
		return 0
	}
	return GlyphIndex(m.glyphIDArray[r])
}

// --- Format 2: high-byte mapping (legacy CJK) -------------------------------
//
// Format 2 is rarely seen outside of legacy CJK fonts; supported for
// completeness since fonts may still ship it as a fallback Macintosh
// sub-table. A minimal single-byte/double-byte decode is enough, since none
// of the rest of this package shapes CJK text.

type format2GlyphIndex struct {
	data binarySegm
}

func parseCmapFormat2(b binarySegm) (GlyphIndexMap, error) {
	if len(b) < 6+512 {
		return nil, errFontFormat("cmap format 2 table too short")
	}
	return format2GlyphIndex{data: b}, nil
}

func (m format2GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 || r > 0xFFFF {
		return 0
	}
	hi := byte(r >> 8)
	lo := byte(r)
	subHeaderKey, err := m.data.u16(6 + int(hi)*2)
	if err != nil {
		return 0
	}
	subHeaderIndex := int(subHeaderKey) / 8
	subHeaderOffset := 6 + 512 + subHeaderIndex*8
	if subHeaderIndex == 0 {
		// single-byte code: lo is used directly as the code, hi must be 0
		if hi != 0 {
			return 0
		}
	}
	firstCode, err1 := m.data.u16(subHeaderOffset)
	entryCount, err2 := m.data.u16(subHeaderOffset + 2)
	idDelta, err3 := m.data.u16(subHeaderOffset + 4)
	idRangeOffset, err4 := m.data.u16(subHeaderOffset + 6)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return 0
	}
	code := uint16(lo)
	if code < firstCode || code >= firstCode+entryCount {
		return 0
	}
	glyphArrayOffset := subHeaderOffset + 6 + int(idRangeOffset) + int(code-firstCode)*2
	g, err := m.data.u16(glyphArrayOffset)
	if err != nil || g == 0 {
		return 0
	}
	return GlyphIndex((int(g) + int(int16(idDelta))) & 0xFFFF)
}

// --- Format 4: segment mapping to delta values (Unicode BMP) ----------------

type format4GlyphIndex struct {
	numGlyphs      int
	segCountX2     uint16
	endCodes       binarySegm // uint16 array
	startCodes     binarySegm // uint16 array
	idDeltas       binarySegm // int16 array
	idRangeOffsets binarySegm // uint16 array, base for idRangeOffset arithmetic
}

func parseCmapFormat4(b binarySegm) (GlyphIndexMap, error) {
	if len(b) < 14 {
		return nil, errFontFormat("cmap format 4 table too short")
	}
	segCountX2, _ := b.u16(6)
	segCount := int(segCountX2) / 2
	if segCount == 0 {
		return format4GlyphIndex{}, nil
	}
	pos := 14
	endCodes, err := b.view(pos, segCount*2)
	if err != nil {
		return nil, errFontFormat("cmap format 4 endCode array out of bounds")
	}
	pos += segCount*2 + 2 // skip reservedPad
	startCodes, err := b.view(pos, segCount*2)
	if err != nil {
		return nil, errFontFormat("cmap format 4 startCode array out of bounds")
	}
	pos += segCount * 2
	idDeltas, err := b.view(pos, segCount*2)
	if err != nil {
		return nil, errFontFormat("cmap format 4 idDelta array out of bounds")
	}
	pos += segCount * 2
	idRangeOffsetsStart := pos
	idRangeOffsets, err := b.view(pos, segCount*2)
	if err != nil {
		return nil, errFontFormat("cmap format 4 idRangeOffset array out of bounds")
	}
	idRangeOffsets = b[pos:] // keep the following glyphIdArray reachable
	_ = idRangeOffsetsStart
	return format4GlyphIndex{
		segCountX2:     segCountX2,
		endCodes:       endCodes,
		startCodes:     startCodes,
		idDeltas:       idDeltas,
		idRangeOffsets: idRangeOffsets,
	}, nil
}

func (m format4GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 || r > 0xFFFF {
		return 0
	}
	c := uint16(r)
	segCount := int(m.segCountX2) / 2
	// Linear scan: segments are few and sorted by endCode; a binary search
	// would be the production choice but fonts rarely carry more than a few
	// hundred segments and this keeps the logic easy to verify against the
	// spec's own description of the format.
	for i := 0; i < segCount; i++ {
		end, _ := m.endCodes.u16(i * 2)
		if c > end {
			continue
		}
		start, _ := m.startCodes.u16(i * 2)
		if c < start {
			return 0
		}
		idRangeOffset, _ := m.idRangeOffsets.u16(i * 2)
		idDelta, _ := m.idDeltas.u16(i * 2)
		if idRangeOffset == 0 {
			return GlyphIndex((c + idDelta) & 0xFFFF)
		}
		// glyphId = *(idRangeOffset[i]/2 + (c - startCode[i]) + &idRangeOffset[i])
		glyphIndexOffset := i*2 + int(idRangeOffset) + int(c-start)*2
		g, err := m.idRangeOffsets.u16(glyphIndexOffset)
		if err != nil || g == 0 {
			return 0
		}
		return GlyphIndex((int(g) + int(int16(idDelta))) & 0xFFFF)
	}
	return 0
}

// --- Format 6: trimmed table mapping -----------------------------------------

type format6GlyphIndex struct {
	firstCode    uint16
	entryCount   uint16
	glyphIDArray binarySegm
}

func parseCmapFormat6(b binarySegm) (GlyphIndexMap, error) {
	if len(b) < 10 {
		return nil, errFontFormat("cmap format 6 table too short")
	}
	firstCode, _ := b.u16(6)
	entryCount, _ := b.u16(8)
	arr, err := b.view(10, int(entryCount)*2)
	if err != nil {
		return nil, errFontFormat("cmap format 6 glyphIdArray out of bounds")
	}
	return format6GlyphIndex{firstCode: firstCode, entryCount: entryCount, glyphIDArray: arr}, nil
}

func (m format6GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < rune(m.firstCode) || r >= rune(m.firstCode)+rune(m.entryCount) {
		return 0
	}
	g, err := m.glyphIDArray.u16(int(r-rune(m.firstCode)) * 2)
	if err != nil {
		return 0
	}
	return GlyphIndex(g)
}

// --- Format 10: trimmed array (32-bit) --------------------------------------
//
// Open Question (spec §9): codepoints above 2^32-1 cannot occur in a Go rune
// (which is an int32), so the only truncation risk is on the *startCharCode*
// plus numChars range check, not on the input rune itself; the format's own
// 32-bit fields are always treated as uint32 and the rune is compared at full
// int64 precision before narrowing, so no silent wraparound can occur here.

type format10GlyphIndex struct {
	startCharCode uint32
	numChars      uint32
	glyphIDArray  binarySegm
}

func parseCmapFormat10(b binarySegm) (GlyphIndexMap, error) {
	if len(b) < 20 {
		return nil, errFontFormat("cmap format 10 table too short")
	}
	startCharCode, _ := b.u32(12)
	numChars, _ := b.u32(16)
	n, err := checkedMulUint32(numChars, 2)
	if err != nil {
		return nil, errFontFormat("cmap format 10 size overflow")
	}
	arr, err := b.view(20, int(n))
	if err != nil {
		return nil, errFontFormat("cmap format 10 glyphIdArray out of bounds")
	}
	return format10GlyphIndex{startCharCode: startCharCode, numChars: numChars, glyphIDArray: arr}, nil
}

func (m format10GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 {
		return 0
	}
	c := int64(r)
	if c < int64(m.startCharCode) || c >= int64(m.startCharCode)+int64(m.numChars) {
		return 0
	}
	idx := int(c - int64(m.startCharCode))
	g, err := m.glyphIDArray.u16(idx * 2)
	if err != nil {
		return 0
	}
	return GlyphIndex(g)
}

// --- Format 12: segmented coverage (32-bit) ---------------------------------

type format12GlyphIndex struct {
	numGlyphs int
	groups    binarySegm // sequential groups, 12 bytes each
	numGroups uint32
}

func parseCmapFormat12(b binarySegm) (GlyphIndexMap, error) {
	if len(b) < 16 {
		return nil, errFontFormat("cmap format 12 table too short")
	}
	numGroups, _ := b.u32(12)
	n, err := checkedMulUint32(numGroups, 12)
	if err != nil {
		return nil, errFontFormat("cmap format 12 size overflow")
	}
	groups, err := b.view(16, int(n))
	if err != nil {
		return nil, errFontFormat("cmap format 12 groups array out of bounds")
	}
	return format12GlyphIndex{groups: groups, numGroups: numGroups}, nil
}

func (m format12GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 {
		return 0
	}
	c := uint32(r)
	// Sequential groups are sorted by startCharCode; binary search.
	lo, hi := 0, int(m.numGroups)
	for lo < hi {
		mid := (lo + hi) / 2
		start, _ := m.groups.u32(mid * 12)
		end, _ := m.groups.u32(mid*12 + 4)
		switch {
		case c < start:
			hi = mid
		case c > end:
			lo = mid + 1
		default:
			startGlyph, _ := m.groups.u32(mid*12 + 8)
			return GlyphIndex(startGlyph + (c - start))
		}
	}
	return 0
}

// --- Format 13: many-to-one range mapping -----------------------------------

type format13GlyphIndex struct {
	groups    binarySegm
	numGroups uint32
}

func parseCmapFormat13(b binarySegm) (GlyphIndexMap, error) {
	if len(b) < 16 {
		return nil, errFontFormat("cmap format 13 table too short")
	}
	numGroups, _ := b.u32(12)
	n, err := checkedMulUint32(numGroups, 12)
	if err != nil {
		return nil, errFontFormat("cmap format 13 size overflow")
	}
	groups, err := b.view(16, int(n))
	if err != nil {
		return nil, errFontFormat("cmap format 13 groups array out of bounds")
	}
	return format13GlyphIndex{groups: groups, numGroups: numGroups}, nil
}

func (m format13GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 {
		return 0
	}
	c := uint32(r)
	lo, hi := 0, int(m.numGroups)
	for lo < hi {
		mid := (lo + hi) / 2
		start, _ := m.groups.u32(mid * 12)
		end, _ := m.groups.u32(mid*12 + 4)
		switch {
		case c < start:
			hi = mid
		case c > end:
			lo = mid + 1
		default:
			glyphID, _ := m.groups.u32(mid*12 + 8)
			return GlyphIndex(glyphID)
		}
	}
	return 0
}
