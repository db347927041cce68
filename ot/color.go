package ot

// Color and bitmap glyph tables: CPAL, COLR (v0 and v1), sbix, and the
// CBDT/CBLC + EBDT/EBLC bitmap pairs.
//
// Tag names and general table shapes are cross-checked against
// npillmayer-tyse's sister 'ot' package (core/font/opentype/ot) and against
// other_examples' woff2/canvas font-table readers, which is the grounding
// the DOMAIN STACK section of SPEC_FULL.md records for this file. The
// paint-graph cycle guard is original to this package: no retrieved example
// implements COLR v1.

import "fmt"

// maxSbixRecursion bounds how many times an 'sbix' strike's glyph record may
// point at another glyph ID before giving up, mirroring the single-hop
// "dupe" indirection the sbix format allows.
const maxSbixRecursion = 1

// maxCOLRPaintVisits bounds how many distinct paint-table offsets a single
// COLR v1 paint graph walk may visit, guarding against the format's
// cyclic-by-construction PaintColrGlyph/PaintColrLayers references.
const maxCOLRPaintVisits = 4096

// --- CPAL --------------------------------------------------------------

// CPALTable is the 'CPAL' color-palette table: one or more palettes of BGRA
// colors, shared by COLR v0 base-glyph layers and COLR v1 paints.
type CPALTable struct {
	tableBase
	NumPaletteEntries int
	palettes          []binarySegm // one entry per palette, NumPaletteEntries * 4 bytes of BGRA
}

func newCPALTable(tag Tag, b binarySegm, offset, size uint32) *CPALTable {
	t := &CPALTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// Color is a BGRA color entry from a CPAL palette.
type Color struct{ Blue, Green, Red, Alpha uint8 }

// PaletteCount returns the number of palettes this table carries.
func (t *CPALTable) PaletteCount() int {
	if t == nil {
		return 0
	}
	return len(t.palettes)
}

// Color returns color index `entry` from palette `palette`, or the zero
// value and false if either index is out of range.
func (t *CPALTable) Color(palette, entry int) (Color, bool) {
	if t == nil || palette < 0 || palette >= len(t.palettes) {
		return Color{}, false
	}
	p := t.palettes[palette]
	if entry < 0 || entry*4+4 > len(p) {
		return Color{}, false
	}
	c := p[entry*4 : entry*4+4]
	return Color{Blue: c[0], Green: c[1], Red: c[2], Alpha: c[3]}, true
}

func parseCPAL(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if len(b) < 12 {
		ec.addWarning(tag, "CPAL header too short", offset)
		return newTable(tag, b, offset, size), nil
	}
	numPaletteEntries, _ := b.u16(2)
	numPalettes, _ := b.u16(4)
	colorRecordsArrayOffset, err := b.u32(8)
	if err != nil {
		ec.addWarning(tag, "CPAL colorRecordsArrayOffset truncated", offset)
		return newTable(tag, b, offset, size), nil
	}
	t := newCPALTable(tag, b, offset, size)
	t.NumPaletteEntries = int(numPaletteEntries)
	for i := 0; i < int(numPalettes); i++ {
		firstIdx, err := b.u16(12 + i*2)
		if err != nil {
			break
		}
		paletteBytes := int(numPaletteEntries) * 4
		start := int(colorRecordsArrayOffset) + int(firstIdx)*4
		seg, err := b.view(start, paletteBytes)
		if err != nil {
			ec.addWarning(tag, fmt.Sprintf("CPAL palette %d out of bounds", i), offset)
			continue
		}
		t.palettes = append(t.palettes, seg)
	}
	return t, nil
}

// --- COLR ----------------------------------------------------------------

// COLRTable is a parsed 'COLR' table, holding either v0 BaseGlyphRecords
// (a flat layer list per base glyph) or a v1 paint graph (BaseGlyphList +
// LayerList + ClipList + a variation-capable Item Variation Store), per the
// version field.
type COLRTable struct {
	tableBase
	Version        uint16
	baseGlyphRecs  binarySegm // v0: numBaseGlyphRecords * 6 bytes
	numBaseGlyphs  int
	layerRecs      binarySegm // v0: layerRecords, 4 bytes each
	baseGlyphListV1       binarySegm
	numBaseGlyphsV1       int
	baseGlyphListV1Offset uint32 // absolute, within t.data
	layerListV1           binarySegm
	layerListV1Offset     uint32 // absolute, within t.data
}

func newCOLRTable(tag Tag, b binarySegm, offset, size uint32) *COLRTable {
	t := &COLRTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// BaseGlyphLayers returns the (v0) flat layer list for glyph gid: pairs of
// (layerGlyphID, paletteIndex). v1-only fonts return nil, false.
func (t *COLRTable) BaseGlyphLayers(gid GlyphIndex) ([][2]uint16, bool) {
	if t == nil || t.Version != 0 {
		return nil, false
	}
	for i := 0; i < t.numBaseGlyphs; i++ {
		rec := t.baseGlyphRecs[i*6:]
		g, _ := rec.u16(0)
		if GlyphIndex(g) != gid {
			continue
		}
		firstLayer, _ := rec.u16(2)
		numLayers, _ := rec.u16(4)
		out := make([][2]uint16, 0, numLayers)
		for k := 0; k < int(numLayers); k++ {
			l := t.layerRecs[(int(firstLayer)+k)*4:]
			lg, _ := l.u16(0)
			pal, _ := l.u16(2)
			out = append(out, [2]uint16{lg, pal})
		}
		return out, true
	}
	return nil, false
}

// HasBaseGlyphV1 reports whether glyph gid has a v1 paint-graph entry,
// returning the byte offset (relative to the table's own binary data, ready
// to pass to WalkPaintGraph) of its root Paint table.
func (t *COLRTable) HasBaseGlyphV1(gid GlyphIndex) (paintOffset uint32, ok bool) {
	if t == nil || t.Version == 0 || t.baseGlyphListV1 == nil {
		return 0, false
	}
	n, err := t.baseGlyphListV1.u32(0)
	if err != nil {
		return 0, false
	}
	for i := 0; i < int(n); i++ {
		rec, err := t.baseGlyphListV1.view(4+i*8, 8)
		if err != nil {
			break
		}
		g, _ := rec.u16(0)
		if GlyphIndex(g) != gid {
			continue
		}
		off, _ := rec.u32(2)
		return t.baseGlyphListV1Offset + off, true
	}
	return 0, false
}

// PaintKind tags the leaf value carried by a COLR v1 paint record, dispatched
// from the record's on-disk format byte (the Var* formats collapse onto the
// same Kind as their non-variable counterpart; this package does not resolve
// variable deltas through the Item Variation Store for paint parameters, so
// Var* records expose their base values plus VarIndexBase for a caller that
// wants to apply deltas itself).
type PaintKind int

const (
	PaintKindSolid PaintKind = iota
	PaintKindLinearGradient
	PaintKindRadialGradient
	PaintKindSweepGradient
	PaintKindGlyph
	PaintKindColrGlyph
	PaintKindTransform
	PaintKindTranslate
	PaintKindScale
	PaintKindRotate
	PaintKindSkew
	PaintKindComposite
)

// ColorStop is one stop of a COLR v1 ColorLine.
type ColorStop struct {
	StopOffset   float64
	PaletteIndex uint16
	Alpha        float64
}

// ColorLine is a COLR v1 gradient's color ramp: an extend mode plus ordered
// stops.
type ColorLine struct {
	Extend uint8 // 0 pad, 1 repeat, 2 reflect
	Stops  []ColorStop
}

// Affine2x3 is a COLR v1 2x3 affine transform: [xx yx xy yy dx dy].
type Affine2x3 struct{ XX, YX, XY, YY, DX, DY float64 }

// Paint is one decoded COLR v1 paint record's own parameters (not its
// children, which WalkPaintGraph reaches via further offsets/visit calls).
type Paint struct {
	Kind          PaintKind
	Format        uint8
	VarIndexBase  uint32
	HasVarIndex   bool
	PaletteIndex  uint16
	Alpha         float64
	Line          ColorLine
	X0, Y0        float64
	X1, Y1        float64
	X2, Y2        float64
	Radius0       float64
	Radius1       float64
	CenterX       float64
	CenterY       float64
	StartAngle    float64
	EndAngle      float64
	GlyphID       GlyphIndex
	Transform     Affine2x3
	DX, DY        float64
	ScaleX, ScaleY float64
	Angle         float64
	XSkewAngle    float64
	YSkewAngle    float64
	CompositeMode uint8
}

func parseColorLine(b binarySegm, off uint32) (ColorLine, error) {
	if int(off)+3 > len(b) {
		return ColorLine{}, fmt.Errorf("%w: COLR ColorLine out of bounds", parseFail)
	}
	extend := b[off]
	numStops, err := b.u16(int(off) + 1)
	if err != nil {
		return ColorLine{}, fmt.Errorf("%w: COLR ColorLine stop count truncated", parseFail)
	}
	line := ColorLine{Extend: extend, Stops: make([]ColorStop, 0, numStops)}
	base := int(off) + 3
	for i := 0; i < int(numStops); i++ {
		rec, err := b.view(base+i*6, 6)
		if err != nil {
			return line, fmt.Errorf("%w: COLR ColorLine stop %d out of bounds", parseFail, i)
		}
		stopOffset := F2Dot14(rec.U16(0))
		paletteIndex := rec.U16(2)
		alpha := F2Dot14(rec.U16(4))
		line.Stops = append(line.Stops, ColorStop{
			StopOffset:   stopOffset.Float64(),
			PaletteIndex: paletteIndex,
			Alpha:        alpha.Float64(),
		})
	}
	return line, nil
}

// decodePaint reads the paint record's own fields at byte offset `off`
// (PaintColrLayers and PaintColrGlyph have no "own fields" beyond what's
// needed to find their children/base glyph, handled directly in the walker
// below). childOffsets holds this record's own out-edges, as byte offsets
// relative to the table's binary data, in the order WalkPaintGraph should
// descend into them.
func (t *COLRTable) decodePaint(off uint32, format uint8) (paint Paint, childOffsets []uint32, err error) {
	b := t.data
	rel := func(localOff uint32) uint32 { return off + localOff }
	readVarIndex := func(at int) (uint32, bool) {
		if v, err := b.u32(int(off) + at); err == nil {
			return v, true
		}
		return 0, false
	}
	switch format {
	case 2, 3: // Solid, VarSolid
		paletteIndex, _ := b.u16(int(off) + 1)
		alpha := F2Dot14(b.U16(int(off) + 3))
		paint = Paint{Kind: PaintKindSolid, Format: format, PaletteIndex: paletteIndex, Alpha: alpha.Float64()}
		if format == 3 {
			paint.VarIndexBase, paint.HasVarIndex = readVarIndex(5)
		}
	case 4, 5: // LinearGradient, VarLinearGradient
		colorLineOff, _ := b.u24(int(off) + 1)
		line, lerr := parseColorLine(b, rel(colorLineOff))
		if lerr != nil {
			err = lerr
			return
		}
		x0 := int16(b.U16(int(off) + 4))
		y0 := int16(b.U16(int(off) + 6))
		x1 := int16(b.U16(int(off) + 8))
		y1 := int16(b.U16(int(off) + 10))
		x2 := int16(b.U16(int(off) + 12))
		y2 := int16(b.U16(int(off) + 14))
		paint = Paint{Kind: PaintKindLinearGradient, Format: format, Line: line,
			X0: float64(x0), Y0: float64(y0), X1: float64(x1), Y1: float64(y1), X2: float64(x2), Y2: float64(y2)}
		if format == 5 {
			paint.VarIndexBase, paint.HasVarIndex = readVarIndex(16)
		}
	case 6, 7: // RadialGradient, VarRadialGradient
		colorLineOff, _ := b.u24(int(off) + 1)
		line, lerr := parseColorLine(b, rel(colorLineOff))
		if lerr != nil {
			err = lerr
			return
		}
		x0 := int16(b.U16(int(off) + 4))
		y0 := int16(b.U16(int(off) + 6))
		r0 := b.U16(int(off) + 8)
		x1 := int16(b.U16(int(off) + 10))
		y1 := int16(b.U16(int(off) + 12))
		r1 := b.U16(int(off) + 14)
		paint = Paint{Kind: PaintKindRadialGradient, Format: format, Line: line,
			X0: float64(x0), Y0: float64(y0), Radius0: float64(r0),
			X1: float64(x1), Y1: float64(y1), Radius1: float64(r1)}
		if format == 7 {
			paint.VarIndexBase, paint.HasVarIndex = readVarIndex(16)
		}
	case 8, 9: // SweepGradient, VarSweepGradient
		colorLineOff, _ := b.u24(int(off) + 1)
		line, lerr := parseColorLine(b, rel(colorLineOff))
		if lerr != nil {
			err = lerr
			return
		}
		cx := int16(b.U16(int(off) + 4))
		cy := int16(b.U16(int(off) + 6))
		startAngle := F2Dot14(b.U16(int(off) + 8))
		endAngle := F2Dot14(b.U16(int(off) + 10))
		paint = Paint{Kind: PaintKindSweepGradient, Format: format, Line: line,
			CenterX: float64(cx), CenterY: float64(cy), StartAngle: startAngle.Float64(), EndAngle: endAngle.Float64()}
		if format == 9 {
			paint.VarIndexBase, paint.HasVarIndex = readVarIndex(12)
		}
	case 10: // Glyph: child paint + the glyph whose outline it fills
		childOff, _ := b.u24(int(off) + 1)
		glyphID, _ := b.u16(int(off) + 4)
		paint = Paint{Kind: PaintKindGlyph, Format: format, GlyphID: GlyphIndex(glyphID)}
		childOffsets = []uint32{rel(childOff)}
	case 11: // ColrGlyph: re-enters the BaseGlyphList by glyph ID
		glyphID, _ := b.u16(int(off) + 1)
		paint = Paint{Kind: PaintKindColrGlyph, Format: format, GlyphID: GlyphIndex(glyphID)}
		if baseOff, ok := t.baseGlyphV1Offset(GlyphIndex(glyphID)); ok {
			childOffsets = []uint32{baseOff}
		}
	case 12, 13: // Transform, VarTransform
		childOff, _ := b.u24(int(off) + 1)
		transformOff, _ := b.u24(int(off) + 4)
		tb, terr := b.view(int(rel(transformOff)), 24)
		if terr != nil {
			err = fmt.Errorf("%w: COLR Affine2x3 out of bounds", parseFail)
			return
		}
		aff := Affine2x3{
			XX: Fixed16Dot16(tb.U32(0)).Float64(), YX: Fixed16Dot16(tb.U32(4)).Float64(),
			XY: Fixed16Dot16(tb.U32(8)).Float64(), YY: Fixed16Dot16(tb.U32(12)).Float64(),
			DX: Fixed16Dot16(tb.U32(16)).Float64(), DY: Fixed16Dot16(tb.U32(20)).Float64(),
		}
		paint = Paint{Kind: PaintKindTransform, Format: format, Transform: aff}
		childOffsets = []uint32{rel(childOff)}
	case 14, 15: // Translate, VarTranslate
		childOff, _ := b.u24(int(off) + 1)
		dx := int16(b.U16(int(off) + 4))
		dy := int16(b.U16(int(off) + 6))
		paint = Paint{Kind: PaintKindTranslate, Format: format, DX: float64(dx), DY: float64(dy)}
		if format == 15 {
			paint.VarIndexBase, paint.HasVarIndex = readVarIndex(8)
		}
		childOffsets = []uint32{rel(childOff)}
	case 16, 17, 18, 19, 20, 21, 22, 23: // Scale family
		childOff, _ := b.u24(int(off) + 1)
		p := Paint{Kind: PaintKindScale, Format: format}
		cursor := int(off) + 4
		var varIndexOff int
		switch format {
		case 16, 17:
			p.ScaleX = F2Dot14(b.U16(cursor)).Float64()
			p.ScaleY = F2Dot14(b.U16(cursor + 2)).Float64()
			varIndexOff = 8
		case 18, 19:
			p.ScaleX = F2Dot14(b.U16(cursor)).Float64()
			p.ScaleY = F2Dot14(b.U16(cursor + 2)).Float64()
			p.CenterX = float64(int16(b.U16(cursor + 4)))
			p.CenterY = float64(int16(b.U16(cursor + 6)))
			varIndexOff = 12
		case 20, 21:
			p.ScaleX = F2Dot14(b.U16(cursor)).Float64()
			p.ScaleY = p.ScaleX
			varIndexOff = 6
		case 22, 23:
			p.ScaleX = F2Dot14(b.U16(cursor)).Float64()
			p.ScaleY = p.ScaleX
			p.CenterX = float64(int16(b.U16(cursor + 2)))
			p.CenterY = float64(int16(b.U16(cursor + 4)))
			varIndexOff = 10
		}
		if format%2 == 1 { // odd formats in this family are the Var variants
			p.VarIndexBase, p.HasVarIndex = readVarIndex(varIndexOff)
		}
		paint = p
		childOffsets = []uint32{rel(childOff)}
	case 24, 25, 26, 27: // Rotate family
		childOff, _ := b.u24(int(off) + 1)
		p := Paint{Kind: PaintKindRotate, Format: format, Angle: F2Dot14(b.U16(int(off) + 4)).Float64()}
		if format == 26 || format == 27 {
			p.CenterX = float64(int16(b.U16(int(off) + 6)))
			p.CenterY = float64(int16(b.U16(int(off) + 8)))
		}
		if format == 25 {
			p.VarIndexBase, p.HasVarIndex = readVarIndex(6)
		} else if format == 27 {
			p.VarIndexBase, p.HasVarIndex = readVarIndex(10)
		}
		paint = p
		childOffsets = []uint32{rel(childOff)}
	case 28, 29, 30, 31: // Skew family
		childOff, _ := b.u24(int(off) + 1)
		p := Paint{Kind: PaintKindSkew, Format: format,
			XSkewAngle: F2Dot14(b.U16(int(off) + 4)).Float64(),
			YSkewAngle: F2Dot14(b.U16(int(off) + 6)).Float64()}
		if format == 30 || format == 31 {
			p.CenterX = float64(int16(b.U16(int(off) + 8)))
			p.CenterY = float64(int16(b.U16(int(off) + 10)))
		}
		if format == 29 {
			p.VarIndexBase, p.HasVarIndex = readVarIndex(8)
		} else if format == 31 {
			p.VarIndexBase, p.HasVarIndex = readVarIndex(12)
		}
		paint = p
		childOffsets = []uint32{rel(childOff)}
	case 32: // Composite: source (src) over/under backdrop (dst) via compositeMode
		srcOff, _ := b.u24(int(off) + 1)
		mode := b[int(off)+4]
		dstOff, _ := b.u24(int(off) + 5)
		paint = Paint{Kind: PaintKindComposite, Format: format, CompositeMode: mode}
		childOffsets = []uint32{rel(srcOff), rel(dstOff)}
	default:
		err = fmt.Errorf("%w: unsupported COLR v1 paint format %d", parseFail, format)
	}
	return
}

// baseGlyphV1Offset resolves glyph gid's Paint-table offset from the v1
// BaseGlyphList, for PaintColrGlyph's re-entry into the graph.
func (t *COLRTable) baseGlyphV1Offset(gid GlyphIndex) (uint32, bool) {
	off, ok := t.HasBaseGlyphV1(gid)
	return off, ok
}

// WalkPaintGraph walks a COLR v1 paint graph starting at byte offset
// `start` (relative to the table's binary data), dispatching each paint
// record's actual format and emitting the painter-sink call stream: `paint`
// for every decoded record; `push_clip`, the child paint, `outline_glyph`
// and `pop_clip` for PaintGlyph; `push_layer`/`pop_layer` around each of
// PaintColrLayers' flat sub-paints and around Composite's backdrop/source
// pair; `push_transform`/`pop_transform` around a Transform. It stops and silently truncates the
// subtree once a previously visited offset recurs (cyclic PaintColrGlyph/
// PaintColrLayers references) or once maxCOLRPaintVisits distinct offsets
// have been seen, guarding pathological but acyclic graphs too.
func (t *COLRTable) WalkPaintGraph(start uint32, sink PaintSink) error {
	visited := make(map[uint32]bool)
	var walk func(off uint32) error
	walk = func(off uint32) error {
		if visited[off] {
			return nil // cycle: silently terminate this subtree, per format
		}
		if len(visited) >= maxCOLRPaintVisits {
			return nil // pathologically large graph: truncate rather than error
		}
		visited[off] = true
		if int(off) >= len(t.data) {
			return fmt.Errorf("%w: COLR v1 paint offset out of bounds", parseFail)
		}
		format := t.data[off]
		if format == 1 { // PaintColrLayers: a flat run of sibling paints, not a single child
			numLayers := t.data[off+1]
			firstLayerIndex, err := t.data.u32(int(off) + 2)
			if err != nil {
				return fmt.Errorf("%w: PaintColrLayers truncated", parseFail)
			}
			for i := 0; i < int(numLayers); i++ {
				childOff, err := t.layerListV1.u32(4 + (int(firstLayerIndex)+i)*4)
				if err != nil {
					return fmt.Errorf("%w: PaintColrLayers layer %d out of bounds", parseFail, i)
				}
				sink.PushLayer(1)
				if err := walk(t.layerListV1Offset + childOff); err != nil {
					return err
				}
				sink.PopLayer()
			}
			return nil
		}
		paint, children, err := t.decodePaint(off, format)
		if err != nil {
			return err
		}
		if paint.Kind == PaintKindTransform {
			sink.PushTransform(paint.Transform)
		}
		sink.Paint(paint)
		switch {
		case paint.Kind == PaintKindComposite:
			if len(children) == 2 {
				sink.PushLayer(paint.CompositeMode)
				if err := walk(children[1]); err != nil { // backdrop first
					return err
				}
				if err := walk(children[0]); err != nil { // then source, composited over it
					return err
				}
				sink.PopLayer()
			}
		case paint.Kind == PaintKindGlyph:
			// the child paint establishes color/gradient state before the
			// glyph outline is filled, so walk it before emitting the outline.
			sink.PushClip()
			if len(children) == 1 {
				if err := walk(children[0]); err != nil {
					return err
				}
			}
			sink.OutlineGlyph(paint.GlyphID)
			sink.PopClip()
		default:
			for _, c := range children {
				if err := walk(c); err != nil {
					return err
				}
			}
		}
		if paint.Kind == PaintKindTransform {
			sink.PopTransform()
		}
		return nil
	}
	return walk(start)
}

// PaintSink receives the linear stream of painter calls a COLR v1 paint
// graph walk emits; implemented by the consumer (a rasterizer or canvas
// backend), not this package.
type PaintSink interface {
	OutlineGlyph(gid GlyphIndex)
	PushClip()
	PopClip()
	Paint(p Paint)
	PushLayer(mode uint8)
	PopLayer()
	PushTransform(a Affine2x3)
	PopTransform()
}

func parseCOLR(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if len(b) < 2 {
		ec.addWarning(tag, "COLR header too short", offset)
		return newTable(tag, b, offset, size), nil
	}
	version, _ := b.u16(0)
	t := newCOLRTable(tag, b, offset, size)
	t.Version = version
	if version == 0 {
		if len(b) < 14 {
			ec.addWarning(tag, "COLR v0 header too short", offset)
			return t, nil
		}
		numBaseGlyphRecords, _ := b.u16(2)
		baseGlyphRecordsOffset, _ := b.u32(4)
		layerRecordsOffset, _ := b.u32(8)
		numLayerRecords, _ := b.u16(12)
		recs, err := b.view(int(baseGlyphRecordsOffset), int(numBaseGlyphRecords)*6)
		if err != nil {
			ec.addWarning(tag, "COLR v0 baseGlyphRecords out of bounds", offset)
			return t, nil
		}
		layers, err := b.view(int(layerRecordsOffset), int(numLayerRecords)*4)
		if err != nil {
			ec.addWarning(tag, "COLR v0 layerRecords out of bounds", offset)
			return t, nil
		}
		t.numBaseGlyphs = int(numBaseGlyphRecords)
		t.baseGlyphRecs = recs
		t.layerRecs = layers
		return t, nil
	}
	// v1: same v0 header fields, plus five more offsets (BaseGlyphList,
	// LayerList, ClipList, VarIndexMap, ItemVariationStore), each optionally
	// NULL.
	if len(b) >= 14 {
		numBaseGlyphRecords, _ := b.u16(2)
		baseGlyphRecordsOffset, _ := b.u32(4)
		layerRecordsOffset, _ := b.u32(8)
		numLayerRecords, _ := b.u16(12)
		if baseGlyphRecordsOffset != 0 {
			if recs, err := b.view(int(baseGlyphRecordsOffset), int(numBaseGlyphRecords)*6); err == nil {
				t.baseGlyphRecs = recs
				t.numBaseGlyphs = int(numBaseGlyphRecords)
			}
		}
		if layerRecordsOffset != 0 {
			if layers, err := b.view(int(layerRecordsOffset), int(numLayerRecords)*4); err == nil {
				t.layerRecs = layers
			}
		}
	}
	if len(b) >= 34 {
		baseGlyphListOffset, _ := b.u32(14)
		layerListOffset, _ := b.u32(18)
		if baseGlyphListOffset != 0 {
			if seg, err := b.view(int(baseGlyphListOffset), len(b)-int(baseGlyphListOffset)); err == nil {
				t.baseGlyphListV1 = seg
				t.baseGlyphListV1Offset = baseGlyphListOffset
			}
		}
		if layerListOffset != 0 {
			if seg, err := b.view(int(layerListOffset), len(b)-int(layerListOffset)); err == nil {
				t.layerListV1 = seg
				t.layerListV1Offset = layerListOffset
			}
		}
	}
	return t, nil
}

// --- sbix ------------------------------------------------------------------

// SbixTable is the 'sbix' strike-indexed bitmap table: one or more
// "strikes" (bitmap sets at a given PPEM/PPI), each mapping glyph IDs to
// embedded image blobs (PNG, JPEG, TIFF, or a dupe-reference to another
// glyph in the same strike).
type SbixTable struct {
	tableBase
	NumGlyphs     int
	strikeOffsets []uint32
}

func newSbixTable(tag Tag, b binarySegm, offset, size uint32) *SbixTable {
	t := &SbixTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// SbixGlyphData describes one glyph's image record within a strike.
type SbixGlyphData struct {
	OriginX, OriginY int16
	GraphicType      Tag    // e.g. "png ", "jpg ", "dupe"
	Data             []byte // raw image bytes, or (for "dupe") a 2-byte glyph ID
}

func parseSbix(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if len(b) < 8 {
		ec.addWarning(tag, "sbix header too short", offset)
		return newTable(tag, b, offset, size), nil
	}
	numStrikes, err := b.u32(4)
	if err != nil {
		ec.addWarning(tag, "sbix numStrikes truncated", offset)
		return newTable(tag, b, offset, size), nil
	}
	t := newSbixTable(tag, b, offset, size)
	for i := 0; i < int(numStrikes); i++ {
		off, err := b.u32(8 + i*4)
		if err != nil {
			break
		}
		t.strikeOffsets = append(t.strikeOffsets, off)
	}
	return t, nil
}

// --- CBLC/EBLC + CBDT/EBDT -------------------------------------------------

// BitmapGlyphMetrics is a glyph's bitmap metrics, as carried by either the
// 5-byte SmallGlyphMetrics (Big == false; only Height/Width/HoriBearing*/
// HoriAdvance are meaningful) or the 8-byte BigGlyphMetrics record.
type BitmapGlyphMetrics struct {
	Height, Width              uint8
	HoriBearingX, HoriBearingY int8
	HoriAdvance                uint8
	VertBearingX, VertBearingY int8
	VertAdvance                uint8
	Big                        bool
}

func decodeSmallGlyphMetrics(b binarySegm) BitmapGlyphMetrics {
	return BitmapGlyphMetrics{
		Height:       b[0],
		Width:        b[1],
		HoriBearingX: int8(b[2]),
		HoriBearingY: int8(b[3]),
		HoriAdvance:  b[4],
	}
}

func decodeBigGlyphMetrics(b binarySegm) BitmapGlyphMetrics {
	return BitmapGlyphMetrics{
		Height:       b[0],
		Width:        b[1],
		HoriBearingX: int8(b[2]),
		HoriBearingY: int8(b[3]),
		HoriAdvance:  b[4],
		VertBearingX: int8(b[5]),
		VertBearingY: int8(b[6]),
		VertAdvance:  b[7],
		Big:          true,
	}
}

// bitmapIndexSubTable is one EBLC/CBLC IndexSubTable, giving either a dense
// per-glyph offset array (formats 1/3), a constant-size run (format 2), or a
// sparse glyph-to-offset mapping (formats 4/5).
type bitmapIndexSubTable struct {
	firstGlyph, lastGlyph   uint16
	imageFormat             uint16
	imageDataOffset         uint32
	offsets                 []uint32 // formats 1/3: one more entry than glyphs in range, trailing entry marks end
	sparseGlyphs            []uint16 // formats 4/5
	sparseOffsets           []uint32 // format 4 only; format 5 glyphs all share constImageSize
	constImageSize          uint32   // formats 2/5
	constMetrics            BitmapGlyphMetrics
	hasConstMetrics         bool
}

// glyphRange returns the byte range of gid's record within the table's
// CBDT/EBDT sibling (imageDataOffset already added); ok is false if gid
// isn't covered. Metrics shared by formats 2/5 stay in constMetrics.
func (st *bitmapIndexSubTable) glyphRange(gid uint16) (start, end uint32, ok bool) {
	switch {
	case st.offsets != nil:
		if gid < st.firstGlyph || int(gid-st.firstGlyph)+1 >= len(st.offsets) {
			return 0, 0, false
		}
		i := int(gid - st.firstGlyph)
		s, e := st.offsets[i], st.offsets[i+1]
		if e <= s {
			return 0, 0, false // empty/missing glyph
		}
		return st.imageDataOffset + s, st.imageDataOffset + e, true
	case st.constImageSize > 0 && st.sparseGlyphs == nil:
		if gid < st.firstGlyph || gid > st.lastGlyph {
			return 0, 0, false
		}
		i := uint32(gid - st.firstGlyph)
		s := st.imageDataOffset + i*st.constImageSize
		return s, s + st.constImageSize, true
	default:
		for i, g := range st.sparseGlyphs {
			if g != gid {
				continue
			}
			if st.sparseOffsets != nil {
				if i+1 >= len(st.sparseOffsets) {
					return 0, 0, false
				}
				return st.imageDataOffset + st.sparseOffsets[i], st.imageDataOffset + st.sparseOffsets[i+1], true
			}
			s := st.imageDataOffset + uint32(i)*st.constImageSize
			return s, s + st.constImageSize, true
		}
		return 0, 0, false
	}
}

// BitmapStrike is one CBLC/EBLC strike: a PPEM/bit-depth combination and the
// glyph ID range plus index subtables it covers.
type BitmapStrike struct {
	StartGlyphIndex, EndGlyphIndex uint16
	PPEMX, PPEMY, BitDepth         uint8
	indexSubTables                 []bitmapIndexSubTable
}

func (s *BitmapStrike) find(gid uint16) *bitmapIndexSubTable {
	for i := range s.indexSubTables {
		st := &s.indexSubTables[i]
		if gid >= st.firstGlyph && gid <= st.lastGlyph {
			return st
		}
	}
	return nil
}

// parseBitmapIndexSubTable decodes one IndexSubTable (formats 1-5) at `seg`,
// covering glyphs [firstGlyph, lastGlyph].
func parseBitmapIndexSubTable(seg binarySegm, firstGlyph, lastGlyph uint16) (bitmapIndexSubTable, error) {
	if len(seg) < 8 {
		return bitmapIndexSubTable{}, fmt.Errorf("%w: bitmap IndexSubTable header truncated", parseFail)
	}
	indexFormat, _ := seg.u16(0)
	imageFormat, _ := seg.u16(2)
	imageDataOffset, _ := seg.u32(4)
	st := bitmapIndexSubTable{firstGlyph: firstGlyph, lastGlyph: lastGlyph, imageFormat: imageFormat, imageDataOffset: imageDataOffset}
	n := int(lastGlyph) - int(firstGlyph) + 1
	if n < 0 {
		return bitmapIndexSubTable{}, fmt.Errorf("%w: bitmap IndexSubTable empty glyph range", parseFail)
	}
	switch indexFormat {
	case 1: // 4-byte offsets, n+1 entries
		offs := make([]uint32, n+1)
		for i := range offs {
			v, err := seg.u32(8 + i*4)
			if err != nil {
				return bitmapIndexSubTable{}, fmt.Errorf("%w: bitmap IndexSubTable format 1 offset %d", parseFail, i)
			}
			offs[i] = v
		}
		st.offsets = offs
	case 3: // 2-byte offsets, n+1 entries
		offs := make([]uint32, n+1)
		for i := range offs {
			v, err := seg.u16(8 + i*2)
			if err != nil {
				return bitmapIndexSubTable{}, fmt.Errorf("%w: bitmap IndexSubTable format 3 offset %d", parseFail, i)
			}
			offs[i] = uint32(v)
		}
		st.offsets = offs
	case 2: // constant size, BigGlyphMetrics shared by all glyphs in range
		size, err := seg.u32(8)
		if err != nil || len(seg) < 12+8 {
			return bitmapIndexSubTable{}, fmt.Errorf("%w: bitmap IndexSubTable format 2 truncated", parseFail)
		}
		st.constImageSize = size
		st.constMetrics = decodeBigGlyphMetrics(seg[12:20])
		st.hasConstMetrics = true
	case 4: // sparse glyph -> offset map
		numGlyphs, err := seg.u32(8)
		if err != nil {
			return bitmapIndexSubTable{}, fmt.Errorf("%w: bitmap IndexSubTable format 4 truncated", parseFail)
		}
		glyphs := make([]uint16, numGlyphs+1)
		offs := make([]uint32, numGlyphs+1)
		for i := 0; i <= int(numGlyphs); i++ {
			base := 12 + i*4
			g, err1 := seg.u16(base)
			o, err2 := seg.u16(base + 2)
			if err1 != nil || err2 != nil {
				return bitmapIndexSubTable{}, fmt.Errorf("%w: bitmap IndexSubTable format 4 pair %d", parseFail, i)
			}
			glyphs[i], offs[i] = g, uint32(o)
		}
		st.sparseGlyphs = glyphs
		st.sparseOffsets = offs
	case 5: // sparse glyph list, constant size and metrics
		size, err := seg.u32(8)
		if err != nil || len(seg) < 12+8 {
			return bitmapIndexSubTable{}, fmt.Errorf("%w: bitmap IndexSubTable format 5 truncated", parseFail)
		}
		st.constImageSize = size
		st.constMetrics = decodeBigGlyphMetrics(seg[12:20])
		st.hasConstMetrics = true
		numGlyphs, err := seg.u32(20)
		if err != nil {
			return bitmapIndexSubTable{}, fmt.Errorf("%w: bitmap IndexSubTable format 5 glyph count", parseFail)
		}
		glyphs := make([]uint16, numGlyphs)
		for i := range glyphs {
			g, err := seg.u16(24 + i*2)
			if err != nil {
				return bitmapIndexSubTable{}, fmt.Errorf("%w: bitmap IndexSubTable format 5 glyph %d", parseFail, i)
			}
			glyphs[i] = g
		}
		st.sparseGlyphs = glyphs
	default:
		return bitmapIndexSubTable{}, fmt.Errorf("%w: unsupported bitmap IndexSubTable format %d", parseFail, indexFormat)
	}
	return st, nil
}

// parseBitmapStrikes decodes the BitmapSize array shared by CBLC and EBLC:
// version(4) numSizes(4), then numSizes 48-byte BitmapSize records, each of
// which owns an IndexSubTableArray of (firstGlyph, lastGlyph, offset)
// triples pointing at the per-strike IndexSubTables parsed above.
func parseBitmapStrikes(b binarySegm) ([]BitmapStrike, error) {
	if len(b) < 8 {
		return nil, fmt.Errorf("%w: bitmap locator header truncated", parseFail)
	}
	numSizes, _ := b.u32(4)
	strikes := make([]BitmapStrike, 0, numSizes)
	for i := 0; i < int(numSizes); i++ {
		rec, err := b.view(8+i*48, 48)
		if err != nil {
			return nil, fmt.Errorf("%w: bitmap BitmapSize record %d truncated", parseFail, i)
		}
		indexSubTableArrayOffset, _ := rec.u32(0)
		numberOfIndexSubTables, _ := rec.u32(8)
		startGlyphIndex, _ := rec.u16(40)
		endGlyphIndex, _ := rec.u16(42)
		ppemX := rec[44]
		ppemY := rec[45]
		bitDepth := rec[46]
		strike := BitmapStrike{
			StartGlyphIndex: startGlyphIndex,
			EndGlyphIndex:   endGlyphIndex,
			PPEMX:           ppemX,
			PPEMY:           ppemY,
			BitDepth:        bitDepth,
		}
		arr, err := b.view(int(indexSubTableArrayOffset), int(numberOfIndexSubTables)*8)
		if err != nil {
			return nil, fmt.Errorf("%w: bitmap IndexSubTableArray out of bounds", parseFail)
		}
		for k := 0; k < int(numberOfIndexSubTables); k++ {
			first, _ := arr.u16(k * 8)
			last, _ := arr.u16(k*8 + 2)
			addl, _ := arr.u32(k*8 + 4)
			sub, err := b.view(int(indexSubTableArrayOffset)+int(addl), len(b)-int(indexSubTableArrayOffset)-int(addl))
			if err != nil {
				continue
			}
			st, err := parseBitmapIndexSubTable(sub, first, last)
			if err != nil {
				continue
			}
			strike.indexSubTables = append(strike.indexSubTables, st)
		}
		strikes = append(strikes, strike)
	}
	return strikes, nil
}

// CBLCTable is the color bitmap locator table: it indexes 'CBDT' the way
// EBLCTable indexes 'EBDT'.
type CBLCTable struct {
	tableBase
	Strikes []BitmapStrike
}

func newCBLCTable(tag Tag, b binarySegm, offset, size uint32) *CBLCTable {
	t := &CBLCTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

func parseCBLC(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	t := newCBLCTable(tag, b, offset, size)
	strikes, err := parseBitmapStrikes(b)
	if err != nil {
		ec.addWarning(tag, fmt.Sprintf("CBLC: %v", err), offset)
		return t, nil
	}
	t.Strikes = strikes
	return t, nil
}

// EBLCTable is the embedded (monochrome/grayscale) bitmap locator table,
// indexing 'EBDT'; same layout as CBLC/CBDT, predating the color extension.
type EBLCTable struct {
	tableBase
	Strikes []BitmapStrike
}

func newEBLCTable(tag Tag, b binarySegm, offset, size uint32) *EBLCTable {
	t := &EBLCTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

func parseEBLC(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	t := newEBLCTable(tag, b, offset, size)
	strikes, err := parseBitmapStrikes(b)
	if err != nil {
		ec.addWarning(tag, fmt.Sprintf("EBLC: %v", err), offset)
		return t, nil
	}
	t.Strikes = strikes
	return t, nil
}

// CBDTTable/EBDTTable hold the raw bitmap-data table; glyph records are
// located through the sibling CBLC/EBLC locator and decoded by
// BitmapStrikeGlyphData.
type CBDTTable struct{ tableBase }
type EBDTTable struct{ tableBase }

func newCBDTTable(tag Tag, b binarySegm, offset, size uint32) *CBDTTable {
	t := &CBDTTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

func newEBDTTable(tag Tag, b binarySegm, offset, size uint32) *EBDTTable {
	t := &EBDTTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

func parseCBDT(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	return newCBDTTable(tag, b, offset, size), nil
}

func parseEBDT(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	return newEBDTTable(tag, b, offset, size), nil
}

// BitmapGlyphData is one glyph's decoded embedded bitmap record.
type BitmapGlyphData struct {
	Metrics     BitmapGlyphMetrics
	ImageFormat uint16 // glyph image data formats 1,2,5,6,7,17,18,19 are resolved
	Data        []byte // byte-aligned/bit-aligned raster bytes, or a PNG payload (formats 17-19)
}

// BitmapStrikeGlyphData resolves gid's embedded bitmap in `strike` against
// the raw bytes of its CBDT/EBDT sibling table. Composite glyph image
// formats (8, 9 — a small/big-metrics header followed by a list of
// component glyph IDs plus placement, requiring the same recursive
// compositing a rasterizer performs for 'glyf' composites) are reported as
// errors rather than guessed at, since assembling the composite raster is a
// rendering operation, not a table-exposure one.
func BitmapStrikeGlyphData(strike *BitmapStrike, gid GlyphIndex, tableData binarySegm) (BitmapGlyphData, error) {
	if strike == nil {
		return BitmapGlyphData{}, fmt.Errorf("%w: nil bitmap strike", parseFail)
	}
	st := strike.find(uint16(gid))
	if st == nil {
		return BitmapGlyphData{}, fmt.Errorf("%w: glyph %d not covered by strike", parseFail, gid)
	}
	start, end, ok := st.glyphRange(uint16(gid))
	if !ok {
		return BitmapGlyphData{}, fmt.Errorf("%w: glyph %d has no bitmap in this strike", parseFail, gid)
	}
	rec, err := tableData.view(int(start), int(end-start))
	if err != nil {
		return BitmapGlyphData{}, fmt.Errorf("%w: bitmap glyph record out of bounds", parseFail)
	}
	switch st.imageFormat {
	case 1, 2: // small metrics + (byte- or bit-aligned) bitmap
		if len(rec) < 5 {
			return BitmapGlyphData{}, fmt.Errorf("%w: bitmap glyph format %d truncated", parseFail, st.imageFormat)
		}
		return BitmapGlyphData{Metrics: decodeSmallGlyphMetrics(rec[:5]), ImageFormat: st.imageFormat, Data: rec[5:]}, nil
	case 6, 7: // big metrics + (byte- or bit-aligned) bitmap
		if len(rec) < 8 {
			return BitmapGlyphData{}, fmt.Errorf("%w: bitmap glyph format %d truncated", parseFail, st.imageFormat)
		}
		return BitmapGlyphData{Metrics: decodeBigGlyphMetrics(rec[:8]), ImageFormat: st.imageFormat, Data: rec[8:]}, nil
	case 5: // bit-aligned bitmap only; metrics come from the index subtable
		m := st.constMetrics
		if !st.hasConstMetrics {
			m = BitmapGlyphMetrics{}
		}
		return BitmapGlyphData{Metrics: m, ImageFormat: st.imageFormat, Data: rec}, nil
	case 17: // small metrics + uint32 data length + PNG
		if len(rec) < 9 {
			return BitmapGlyphData{}, fmt.Errorf("%w: bitmap glyph format 17 truncated", parseFail)
		}
		n, _ := rec.u32(5)
		data, err := rec.view(9, int(n))
		if err != nil {
			return BitmapGlyphData{}, fmt.Errorf("%w: bitmap glyph format 17 PNG out of bounds", parseFail)
		}
		return BitmapGlyphData{Metrics: decodeSmallGlyphMetrics(rec[:5]), ImageFormat: 17, Data: data}, nil
	case 18: // big metrics + uint32 data length + PNG
		if len(rec) < 12 {
			return BitmapGlyphData{}, fmt.Errorf("%w: bitmap glyph format 18 truncated", parseFail)
		}
		n, _ := rec.u32(8)
		data, err := rec.view(12, int(n))
		if err != nil {
			return BitmapGlyphData{}, fmt.Errorf("%w: bitmap glyph format 18 PNG out of bounds", parseFail)
		}
		return BitmapGlyphData{Metrics: decodeBigGlyphMetrics(rec[:8]), ImageFormat: 18, Data: data}, nil
	case 19: // uint32 data length + PNG; metrics from the index subtable
		if len(rec) < 4 {
			return BitmapGlyphData{}, fmt.Errorf("%w: bitmap glyph format 19 truncated", parseFail)
		}
		n, _ := rec.u32(0)
		data, err := rec.view(4, int(n))
		if err != nil {
			return BitmapGlyphData{}, fmt.Errorf("%w: bitmap glyph format 19 PNG out of bounds", parseFail)
		}
		m := st.constMetrics
		if !st.hasConstMetrics {
			m = BitmapGlyphMetrics{}
		}
		return BitmapGlyphData{Metrics: m, ImageFormat: 19, Data: data}, nil
	default:
		return BitmapGlyphData{}, fmt.Errorf("%w: bitmap glyph image format %d not resolved (composite or unknown)", parseFail, st.imageFormat)
	}
}

// GlyphData returns glyph gid's image record from strike index `strike`,
// following at most maxSbixRecursion "dupe" indirections before giving up —
// the same single-hop limit HarfBuzz and FreeType apply to sbix dupe
// chains, since the format allows (but strongly discourages) chains of
// dupes that could otherwise recurse indefinitely.
func (t *SbixTable) GlyphData(strike int, gid GlyphIndex, numGlyphs int) (SbixGlyphData, error) {
	return t.glyphDataDepth(strike, gid, numGlyphs, 0)
}

func (t *SbixTable) glyphDataDepth(strike int, gid GlyphIndex, numGlyphs, depth int) (SbixGlyphData, error) {
	if depth > maxSbixRecursion {
		return SbixGlyphData{}, fmt.Errorf("%w: sbix dupe chain too deep", parseFail)
	}
	if strike < 0 || strike >= len(t.strikeOffsets) {
		return SbixGlyphData{}, fmt.Errorf("%w: sbix strike index out of range", parseFail)
	}
	strikeBase := t.strikeOffsets[strike]
	// Strike header: ppem(2) ppi(2) then (numGlyphs+1) glyphDataOffsets(4 each).
	if int(strikeBase)+4+int(gid+2)*4 > len(t.data) {
		return SbixGlyphData{}, fmt.Errorf("%w: sbix glyph data offset out of bounds", parseFail)
	}
	off1, err1 := t.data.u32(int(strikeBase) + 4 + int(gid)*4)
	off2, err2 := t.data.u32(int(strikeBase) + 4 + int(gid+1)*4)
	if err1 != nil || err2 != nil || off2 <= off1 {
		return SbixGlyphData{}, nil // no image for this glyph in this strike
	}
	recStart := strikeBase + off1
	rec, err := t.data.view(int(recStart), int(off2-off1))
	if err != nil {
		return SbixGlyphData{}, fmt.Errorf("%w: sbix glyph data record out of bounds", parseFail)
	}
	originX := int16(rec.U16(0))
	originY := int16(rec.U16(2))
	graphicType := MakeTag(rec[4:8])
	imgData := rec[8:]
	if graphicType == T("dupe") && len(imgData) >= 2 {
		dupGid := GlyphIndex(u16(imgData[:2]))
		return t.glyphDataDepth(strike, dupGid, numGlyphs, depth+1)
	}
	return SbixGlyphData{OriginX: originX, OriginY: originY, GraphicType: graphicType, Data: imgData}, nil
}
