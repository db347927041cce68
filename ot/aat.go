package ot

// Apple Advanced Typography state-table engine (kerx, morx, and the legacy
// STHeader shape used by 'kern' format 1 subtables).
//
// No example repo in the retrieval pack implements the AAT state-table
// machinery (it predates OpenType's common Coverage/ClassDef substrate and
// has no equivalent in any pack dependency), so this file is built directly
// from the generalized lazy-array/binary-search idiom the teacher already
// uses for Coverage (ot/layout.go's glyphRangeArray/glyphRangeRecords) and
// for classDefinitionsFormat1/2, extended to a state x class transition
// grid. It is recorded in DESIGN.md as a standard-library-only component
// with that justification.

import "fmt"

// AAT class constants every state table predefines before any font-supplied
// classes begin.
const (
	AATClassEndOfText    = 0
	AATClassOutOfBounds  = 1
	AATClassDeletedGlyph = 2
	AATClassFirstDynamic = 4
)

// aatGlyphDeleted is the sentinel AAT uses in extended state tables to mark
// a glyph that has been removed from the glyph stream by a previous
// transformation (morx ligature/deletion actions).
const aatGlyphDeleted = GlyphIndex(0xFFFF)

// AATTable wraps a parsed 'kerx' or 'morx' table: an ordered list of
// AATStateTable chains ("subtables" in Apple's terminology), each carrying
// its own class map and transition grid.
type AATTable struct {
	tableBase
	Chains []AATStateTable
}

func newAATTable(tag Tag, b binarySegm, offset, size uint32) *AATTable {
	t := &AATTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// AATStateTable is one state machine: a glyph-to-class lookup, a
// state/class transition grid yielding entry indices, and an entry table
// giving the next state plus a flags/action payload per entry.
//
// Class lookup, transition grid and entry table are kept as raw byte views
// and decoded on demand (Class/Transition), consistent with this package's
// general "lazy, allocation-free" navigation style.
type AATStateTable struct {
	nClasses    int
	classTable  binarySegm // format depends on extended vs legacy
	extended    bool
	stateArray  binarySegm // nStates x nClasses, entry index per cell (1 or 2 bytes)
	entryTable  binarySegm // entries, record size depends on extended/legacy
	entrySize   int
	perGlyphLUT binarySegm // AAT Lookup table mapping glyph -> class (extended only)
}

// Class returns the AAT class of glyph g.
func (st AATStateTable) Class(g GlyphIndex) uint16 {
	if g == aatGlyphDeleted {
		return AATClassDeletedGlyph
	}
	if st.extended {
		return aatLookupGlyph(st.perGlyphLUT, g)
	}
	// Legacy STHeader classes are a simple trimmed array starting at
	// firstGlyph, stored in classTable as [firstGlyph, nGlyphs, classes...].
	if len(st.classTable) < 4 {
		return AATClassOutOfBounds
	}
	firstGlyph, _ := st.classTable.u16(0)
	nGlyphs, _ := st.classTable.u16(2)
	if uint16(g) < firstGlyph || uint16(g) >= firstGlyph+nGlyphs {
		return AATClassOutOfBounds
	}
	idx := 4 + int(uint16(g)-firstGlyph)
	if idx >= len(st.classTable) {
		return AATClassOutOfBounds
	}
	return uint16(st.classTable[idx])
}

// EntryIndex returns the state table's entry index for (state, class).
func (st AATStateTable) EntryIndex(state, class uint16) uint16 {
	if st.nClasses == 0 {
		return 0
	}
	cell := int(state)*st.nClasses + int(class)
	if st.extended {
		v, err := st.stateArray.u16(cell * 2)
		if err != nil {
			return 0
		}
		return v
	}
	if cell >= len(st.stateArray) {
		return 0
	}
	return uint16(st.stateArray[cell])
}

// AATEntry is one row of a state table's entry array: the next state and an
// opaque per-subtable-kind flags/action payload (kerx value index, morx
// ligature-action index, and so on — interpreted by the caller, since the
// payload shape differs between 'kerx' subtable types 0/1/2/4/6 and 'morx'
// subtable types 0/1/2/4/5).
type AATEntry struct {
	NewState uint16
	Flags    uint16
	Payload  binarySegm
}

// Entry decodes entry i from the entry table, given a record size
// (newState uint16 + flags uint16 + payload bytes, for extended tables; the
// legacy kern-format-1 shape is narrower and has no separate flags word —
// callers pass an entrySize reflecting their own subtable's record layout).
func (st AATStateTable) Entry(i uint16) (AATEntry, error) {
	off := int(i) * st.entrySize
	if off+st.entrySize > len(st.entryTable) {
		return AATEntry{}, fmt.Errorf("%w: AAT entry %d out of bounds", parseFail, i)
	}
	rec := st.entryTable[off : off+st.entrySize]
	if st.entrySize < 4 {
		return AATEntry{}, fmt.Errorf("%w: AAT entry record too small", parseFail)
	}
	newState, _ := rec.u16(0)
	flags, _ := rec.u16(2)
	var payload binarySegm
	if len(rec) > 4 {
		payload = rec[4:]
	}
	return AATEntry{NewState: newState, Flags: flags, Payload: payload}, nil
}

// aatLookupGlyph resolves a glyph through an AAT Lookup table (format
// 0/2/4/6/8/10, per the 'kerx'/'morx' common Lookup substrate) to its class.
// Unsupported or malformed formats resolve to AATClassOutOfBounds rather
// than erroring, keeping a single bad chain from poisoning the whole table.
func aatLookupGlyph(lut binarySegm, g GlyphIndex) uint16 {
	if len(lut) < 2 {
		return AATClassOutOfBounds
	}
	format, _ := lut.u16(0)
	switch format {
	case 0: // simple array, one value per glyph starting at glyph 0
		idx := 2 + int(g)*2
		v, err := lut.u16(idx)
		if err != nil {
			return AATClassOutOfBounds
		}
		return v
	case 2: // segment single value: binSearchHeader + [lastGlyph,firstGlyph,value]*
		return aatLookupSegmentSingle(lut, g)
	case 4: // segment array: binSearchHeader + [lastGlyph,firstGlyph,offsetToValues]*
		return aatLookupSegmentArray(lut, g)
	case 6: // single table: binSearchHeader + [glyph,value]*
		return aatLookupSingleTable(lut, g)
	case 8: // trimmed array: firstGlyph, glyphCount, values[]
		if len(lut) < 6 {
			return AATClassOutOfBounds
		}
		firstGlyph, _ := lut.u16(2)
		glyphCount, _ := lut.u16(4)
		if uint16(g) < firstGlyph || uint16(g) >= firstGlyph+glyphCount {
			return AATClassOutOfBounds
		}
		v, err := lut.u16(6 + int(uint16(g)-firstGlyph)*2)
		if err != nil {
			return AATClassOutOfBounds
		}
		return v
	case 10: // trimmed array with variable value size; only valueSize==2 supported
		if len(lut) < 8 {
			return AATClassOutOfBounds
		}
		valueSize, _ := lut.u16(2)
		firstGlyph, _ := lut.u16(4)
		glyphCount, _ := lut.u16(6)
		if valueSize != 2 || uint16(g) < firstGlyph || uint16(g) >= firstGlyph+glyphCount {
			return AATClassOutOfBounds
		}
		v, err := lut.u16(8 + int(uint16(g)-firstGlyph)*2)
		if err != nil {
			return AATClassOutOfBounds
		}
		return v
	}
	_ = g
	return AATClassOutOfBounds
}

// Binary search table header, shared by AAT Lookup formats 2, 4, and 6.
func aatBinSrchHeader(lut binarySegm) (unitSize, nUnits int, entries binarySegm, ok bool) {
	if len(lut) < 12 {
		return 0, 0, nil, false
	}
	us, _ := lut.u16(2)
	nu, _ := lut.u16(4)
	entries, err := lut.view(12, int(us)*int(nu))
	if err != nil {
		return 0, 0, nil, false
	}
	return int(us), int(nu), entries, true
}

func aatLookupSegmentSingle(lut binarySegm, g GlyphIndex) uint16 {
	unitSize, nUnits, entries, ok := aatBinSrchHeader(lut)
	if !ok || unitSize < 6 {
		return AATClassOutOfBounds
	}
	for i := 0; i < nUnits; i++ {
		rec := entries[i*unitSize:]
		last, _ := rec.u16(0)
		first, _ := rec.u16(2)
		if uint16(g) < first || uint16(g) > last {
			continue
		}
		v, _ := rec.u16(4)
		return v
	}
	return AATClassOutOfBounds
}

func aatLookupSegmentArray(lut binarySegm, g GlyphIndex) uint16 {
	unitSize, nUnits, entries, ok := aatBinSrchHeader(lut)
	if !ok || unitSize < 6 {
		return AATClassOutOfBounds
	}
	for i := 0; i < nUnits; i++ {
		rec := entries[i*unitSize:]
		last, _ := rec.u16(0)
		first, _ := rec.u16(2)
		if uint16(g) < first || uint16(g) > last {
			continue
		}
		offset, _ := rec.u16(4)
		v, err := lut.u16(int(offset) + int(uint16(g)-first)*2)
		if err != nil {
			return AATClassOutOfBounds
		}
		return v
	}
	return AATClassOutOfBounds
}

func aatLookupSingleTable(lut binarySegm, g GlyphIndex) uint16 {
	unitSize, nUnits, entries, ok := aatBinSrchHeader(lut)
	if !ok || unitSize < 4 {
		return AATClassOutOfBounds
	}
	for i := 0; i < nUnits; i++ {
		rec := entries[i*unitSize:]
		glyph, _ := rec.u16(0)
		if uint16(g) == glyph {
			v, _ := rec.u16(2)
			return v
		}
	}
	return AATClassOutOfBounds
}

// parseAAT parses a 'kerx' or 'morx' table's chain header list into
// AATStateTable subtables. Both formats share the same "chain of
// subtables, each beginning with a state-table header" shape; this parses
// the common envelope (chain length, subtable length, nClasses, the three
// offsets to classTable/stateArray/entryTable) and leaves subtable-kind-
// specific payload interpretation (kerx value table, morx ligature-action
// table) to callers via AATEntry.Payload.
func parseAAT(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	t := newAATTable(tag, b, offset, size)
	pos := 0
	if tag == T("kerx") {
		if len(b) < 8 {
			ec.addWarning(tag, "kerx header too short", offset)
			return t, nil
		}
		pos = 8 // version, padding, nTables
	} else {
		if len(b) < 12 {
			ec.addWarning(tag, "morx header too short", offset)
			return t, nil
		}
		pos = 12 // version, unused, nChains
	}
	for pos+16 <= len(b) {
		chainLen, err := b.u32(pos + 4)
		if err != nil || chainLen == 0 {
			break
		}
		st, err := parseAATStateTable(b, pos, tag == T("kerx"))
		if err == nil {
			t.Chains = append(t.Chains, st)
		} else {
			ec.addWarning(tag, fmt.Sprintf("AAT chain at %d: %v", pos, err), offset)
		}
		pos += int(chainLen)
	}
	return t, nil
}

func parseAATStateTable(b binarySegm, chainStart int, extended bool) (AATStateTable, error) {
	// Extended state-table header (STXHeader), used by morx always and by
	// kerx format 4/6: nClasses, offsets to class/state/entry tables,
	// relative to the start of the state-table header (chainStart+headerSkip).
	headerSkip := 12
	if extended {
		headerSkip = 16 // kerx per-chain subtable header: length, coverage, tupleCount then STXHeader
	}
	base := chainStart + headerSkip
	if base+16 > len(b) {
		return AATStateTable{}, fmt.Errorf("%w: AAT state table header truncated", parseFail)
	}
	nClasses, err := b.u32(base)
	if err != nil {
		return AATStateTable{}, err
	}
	classOff, _ := b.u32(base + 4)
	stateOff, _ := b.u32(base + 8)
	entryOff, _ := b.u32(base + 12)

	classTable := binarySegm(b[aatMin(int(base)+int(classOff), len(b)):])
	stateArray := binarySegm(b[aatMin(int(base)+int(stateOff), len(b)):])
	entryTable := binarySegm(b[aatMin(int(base)+int(entryOff), len(b)):])

	return AATStateTable{
		nClasses:    int(nClasses),
		classTable:  classTable,
		extended:    true,
		stateArray:  stateArray,
		entryTable:  entryTable,
		entrySize:   6, // newState(2) + flags(2) + 2 bytes of kind-specific index; callers reslice Payload as needed
		perGlyphLUT: classTable,
	}, nil
}

func aatMin(a, b int) int {
	if a < b {
		return a
	}
	return b
}
