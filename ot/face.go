package ot

import (
	"fmt"

	"golang.org/x/text/language"
)

// Face is the top-level facade a consumer actually programs against: it
// composes the container, cmap, glyph-geometry, color, and variation
// layers behind a single set of metric/style/glyph accessors, resolving
// each through a fixed priority order of sources and falling back to the
// next source (never an error) whenever the higher-priority one is absent.
//
// Grounded on the teacher's own Font type (ot.go) plus its Table()/AsXxx()
// composition style; Face simply adds the cross-table fallback policy the
// bare Font type leaves to its callers.
type Face struct {
	otf   *Font
	coords []float64 // current normalized variation coordinates, one per fvar axis
}

// NewFace parses a face out of b (dispatching 'ttcf' collections via
// faceIndex) and wraps it in a Face.
func NewFace(b []byte, faceIndex uint32) (*Face, error) {
	otf, err := ParseFace(b, faceIndex)
	if err != nil {
		return nil, err
	}
	f := &Face{otf: otf}
	if fvar := otf.Table(T("fvar")); fvar != nil {
		f.coords = make([]float64, len(fvar.Self().AsFvar().Axes))
	}
	return f, nil
}

// Font exposes the underlying parsed font for callers that need
// lower-level access beyond the facade.
func (f *Face) Font() *Font { return f.otf }

// --- Metrics -------------------------------------------------------------

// UnitsPerEm returns the font's design-space unit scale, or 1000 (the
// common CFF default) if 'head' is somehow absent despite being mandatory
// at parse time — defensive only, since ParseFace already guarantees head.
func (f *Face) UnitsPerEm() uint16 {
	if h := f.otf.Table(T("head")); h != nil {
		if head := h.Self().AsHead(); head != nil && head.UnitsPerEm != 0 {
			return head.UnitsPerEm
		}
	}
	return 1000
}

// Ascender resolves the font's ascender in priority order: OS/2 typographic
// ascender, then hhea's ascender.
func (f *Face) Ascender() int16 {
	if os2 := f.os2(); os2 != nil {
		return os2.TypoAscender
	}
	if hhea := f.hhea(); hhea != nil {
		return hhea.Ascender
	}
	return 0
}

// Descender resolves the font's descender: OS/2 typographic descender,
// then hhea's descender.
func (f *Face) Descender() int16 {
	if os2 := f.os2(); os2 != nil {
		return os2.TypoDescender
	}
	if hhea := f.hhea(); hhea != nil {
		return hhea.Descender
	}
	return 0
}

// LineGap resolves the font's recommended line gap: OS/2 typographic line
// gap, then hhea's line gap.
func (f *Face) LineGap() int16 {
	if os2 := f.os2(); os2 != nil {
		return os2.TypoLineGap
	}
	if hhea := f.hhea(); hhea != nil {
		return hhea.LineGap
	}
	return 0
}

// TypographicAscender, TypographicDescender, and TypographicLineGap expose
// OS/2's sTypo* triple directly, with no hhea fallback — these are the
// "use-typo-metrics" values some layout engines prefer verbatim.
func (f *Face) TypographicAscender() (int16, bool) {
	if os2 := f.os2(); os2 != nil {
		return os2.TypoAscender, true
	}
	return 0, false
}

func (f *Face) TypographicDescender() (int16, bool) {
	if os2 := f.os2(); os2 != nil {
		return os2.TypoDescender, true
	}
	return 0, false
}

func (f *Face) TypographicLineGap() (int16, bool) {
	if os2 := f.os2(); os2 != nil {
		return os2.TypoLineGap, true
	}
	return 0, false
}

// VerticalAscender and VerticalDescender resolve from 'vhea'; ok is false
// when the font carries no vhea table.
func (f *Face) VerticalAscender() (int16, bool) {
	if vhea := f.vhea(); vhea != nil {
		return vhea.VertTypoAscender, true
	}
	return 0, false
}

func (f *Face) VerticalDescender() (int16, bool) {
	if vhea := f.vhea(); vhea != nil {
		return vhea.VertTypoDescender, true
	}
	return 0, false
}

// XHeight and CapHeight come from OS/2 version >= 2; absent on older fonts.
func (f *Face) XHeight() (int16, bool) {
	if os2 := f.os2(); os2 != nil && os2.Version >= 2 {
		return os2.XHeight, true
	}
	return 0, false
}

func (f *Face) CapHeight() (int16, bool) {
	if os2 := f.os2(); os2 != nil && os2.Version >= 2 {
		return os2.CapHeight, true
	}
	return 0, false
}

// UnderlineMetrics returns (position, thickness) from 'post'.
func (f *Face) UnderlineMetrics() (int16, int16, bool) {
	if p := f.post(); p != nil {
		return p.UnderlinePosition, p.UnderlineThickness, true
	}
	return 0, 0, false
}

// StrikeoutMetrics returns (position, size) from OS/2.
func (f *Face) StrikeoutMetrics() (int16, int16, bool) {
	if os2 := f.os2(); os2 != nil {
		return os2.StrikeoutPosition, os2.StrikeoutSize, true
	}
	return 0, 0, false
}

// SubscriptMetrics and SuperscriptMetrics return (xSize, ySize, xOffset,
// yOffset) from OS/2.
func (f *Face) SubscriptMetrics() (int16, int16, int16, int16, bool) {
	if os2 := f.os2(); os2 != nil {
		return os2.SubscriptXSize, os2.SubscriptYSize, os2.SubscriptXOffset, os2.SubscriptYOffset, true
	}
	return 0, 0, 0, 0, false
}

func (f *Face) SuperscriptMetrics() (int16, int16, int16, int16, bool) {
	if os2 := f.os2(); os2 != nil {
		return os2.SuperscriptXSize, os2.SuperscriptYSize, os2.SuperscriptXOffset, os2.SuperscriptYOffset, true
	}
	return 0, 0, 0, 0, false
}

// GlobalBoundingBox resolves the font-wide bounding box from 'head's
// xMin/yMin/xMax/yMax fields (offsets 36/38/40/42 in the table's raw
// bytes; read directly rather than through the table's generic field
// navigator, since 'head' only exposes Flags/UnitsPerEm/IndexToLocFormat
// as typed fields).
func (f *Face) GlobalBoundingBox() (GlyphBounds, bool) {
	h := f.otf.Table(T("head"))
	if h == nil {
		return GlyphBounds{}, false
	}
	raw := binarySegm(h.Binary())
	xMin, err1 := raw.u16(36)
	yMin, err2 := raw.u16(38)
	xMax, err3 := raw.u16(40)
	yMax, err4 := raw.u16(42)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return GlyphBounds{}, false
	}
	return GlyphBounds{
		XMin: int32(int16(xMin)), YMin: int32(int16(yMin)),
		XMax: int32(int16(xMax)), YMax: int32(int16(yMax)),
	}, true
}

// --- Style -----------------------------------------------------------------

func (f *Face) IsBold() bool      { return f.os2() != nil && f.os2().IsBold() }
func (f *Face) IsItalic() bool    { return f.os2() != nil && f.os2().IsItalic() }
func (f *Face) IsOblique() bool   { return f.os2() != nil && f.os2().IsOblique() }
func (f *Face) IsRegular() bool   { return f.os2() == nil || f.os2().IsRegular() }
func (f *Face) IsVariable() bool  { return f.otf.Table(T("fvar")) != nil }

// IsMonospaced reports whether 'post' declares a fixed-pitch font.
func (f *Face) IsMonospaced() bool {
	if p := f.post(); p != nil {
		return p.IsFixedPitch != 0
	}
	return false
}

// ItalicAngle returns 'post's italic angle in degrees counter-clockwise
// from vertical, 0 if absent.
func (f *Face) ItalicAngle() float64 {
	if p := f.post(); p != nil {
		return p.ItalicAngle.Float64()
	}
	return 0
}

// Weight returns OS/2's usWeightClass (100..900), defaulting to 400
// (Regular) if OS/2 is absent.
func (f *Face) Weight() uint16 {
	if os2 := f.os2(); os2 != nil && os2.WeightClass != 0 {
		return os2.WeightClass
	}
	return 400
}

// Width returns OS/2's usWidthClass (1..9), defaulting to 5 (Normal) if
// OS/2 is absent.
func (f *Face) Width() uint16 {
	if os2 := f.os2(); os2 != nil && os2.WidthClass != 0 {
		return os2.WidthClass
	}
	return 5
}

// IsSubsettingAllowed and IsOutlineEmbeddingAllowed surface OS/2 fsType
// permission bits, defaulting to "allowed" when OS/2 is absent.
func (f *Face) IsSubsettingAllowed() bool {
	return f.os2() == nil || f.os2().IsSubsettingAllowed()
}

func (f *Face) IsOutlineEmbeddingAllowed() bool {
	return f.os2() == nil || f.os2().IsOutlineEmbeddingAllowed()
}

// UnicodeRanges returns OS/2's four ulUnicodeRange bitfield words.
func (f *Face) UnicodeRanges() ([4]uint32, bool) {
	if os2 := f.os2(); os2 != nil {
		return os2.UnicodeRange, true
	}
	return [4]uint32{}, false
}

// Names returns a (nameID -> value) map built from the 'name' table,
// preferring the first decodable record per ID.
func (f *Face) Names() map[uint16]string {
	nt := f.name()
	if nt == nil {
		return nil
	}
	out := make(map[uint16]string)
	for _, rec := range nt.Records {
		if _, ok := out[rec.NameID]; ok {
			continue
		}
		if s, ok := nt.String(rec); ok && s != "" {
			out[rec.NameID] = s
		}
	}
	return out
}

// ScriptSupport reports the (script, language) pair GSUB actually serves
// for a requested script/language tag: the language falls back to DFLT
// when the script has no LangSys entry for it, and both fall back to DFLT
// when the font's GSUB has no entry for the script at all, or when the
// font carries no GSUB table.
func (f *Face) ScriptSupport(script, language Tag) (Tag, Tag) {
	gsub := f.otf.Layout.GSub
	if gsub == nil {
		return DFLT, DFLT
	}
	sg := gsub.ScriptGraph()
	if sg == nil {
		return DFLT, DFLT
	}
	scr := sg.Script(script)
	if scr == nil {
		return DFLT, DFLT
	}
	if scr.LangSys(language) != nil {
		return script, language
	}
	return script, DFLT
}

// NameForLanguage returns the 'name' table entry for nameID best matching
// the requested BCP-47 language, falling back across records the way
// golang.org/x/text/language.Matcher resolves any other request: exact tag,
// then same base language, then whatever decodes.
func (f *Face) NameForLanguage(nameID uint16, pref language.Tag) (string, bool) {
	nt := f.name()
	if nt == nil {
		return "", false
	}
	return nt.FindForLanguage(nameID, pref)
}

// --- Glyph indexing ---------------------------------------------------------

// GlyphIndex maps a rune to a glyph index via 'cmap', or 0 (.notdef) if
// absent or unmapped.
func (f *Face) GlyphIndex(r rune) GlyphIndex {
	if f.otf.CMap == nil {
		return 0
	}
	return f.otf.CMap.Lookup(r)
}

// GlyphIndexByName looks up a glyph by PostScript name via 'post' format
// 2.0, returning ok=false if 'post' carries no name table.
func (f *Face) GlyphIndexByName(name string) (GlyphIndex, bool) {
	if p := f.post(); p != nil {
		return p.GlyphIndexByName(name)
	}
	return 0, false
}

// --- Glyph geometry ----------------------------------------------------

// OutlineGlyph decodes gid's outline, preferring 'glyf' when present (a
// font should never carry both, but this order matches the teacher's
// general "typed accessor first" pattern) and falling back to CFF/CFF2
// charstrings otherwise.
func (f *Face) OutlineGlyph(gid GlyphIndex) ([]GlyphSegment, GlyphBounds, error) {
	if f.otf.Table(T("glyf")) != nil {
		segs, bounds, err := f.otf.Outline(gid)
		if err != nil {
			return segs, bounds, err
		}
		if varied, ok := f.varyGlyfOutline(gid); ok {
			return varied, glyphSegmentsBounds(varied), nil
		}
		return segs, bounds, nil
	}
	if cffTable := f.otf.Table(T("CFF ")); cffTable != nil {
		segs, err := cffTable.Self().AsCFF().Charstring(gid)
		return segs, glyphSegmentsBounds(segs), err
	}
	if cff2Table := f.otf.Table(T("CFF2")); cff2Table != nil {
		segs, err := cff2Table.Self().AsCFF().Charstring(gid)
		return segs, glyphSegmentsBounds(segs), err
	}
	return nil, GlyphBounds{}, fmt.Errorf("%w: no outline source (glyf/CFF/CFF2) present", parseFail)
}

func glyphSegmentsBounds(segs []GlyphSegment) GlyphBounds {
	if len(segs) == 0 {
		return GlyphBounds{}
	}
	b := GlyphBounds{XMin: 1 << 30, YMin: 1 << 30, XMax: -(1 << 30), YMax: -(1 << 30)}
	for _, s := range segs {
		n := 1
		switch s.Op {
		case SegmentOpQuadTo:
			n = 2
		case SegmentOpCubeTo:
			n = 3
		}
		for i := 0; i < n; i++ {
			x, y := s.Args[i][0], s.Args[i][1]
			if x < b.XMin {
				b.XMin = x
			}
			if y < b.YMin {
				b.YMin = y
			}
			if x > b.XMax {
				b.XMax = x
			}
			if y > b.YMax {
				b.YMax = y
			}
		}
	}
	return b
}

// varyGlyfOutline recomputes a simple glyf glyph's outline at the face's
// current variation coordinates by applying gvar's tuple deltas (with IUP
// filling in points no tuple explicitly touches) to its raw contour points,
// then re-deriving drawing segments. ok is false — and OutlineGlyph falls
// back to the unvaried outline — when the font isn't variable, carries no
// gvar data for gid, or gid is a composite glyph (composite component
// placement variation is not applied here).
func (f *Face) varyGlyfOutline(gid GlyphIndex) ([]GlyphSegment, bool) {
	if !f.HasNonDefaultVariationCoordinates() {
		return nil, false
	}
	gvar := f.gvar()
	if gvar == nil {
		return nil, false
	}
	x, y, onCurve, contourEnds, bounds, err := f.otf.GlyphContourPoints(gid)
	if err != nil || onCurve == nil || len(contourEnds) == 0 {
		return nil, false
	}
	lsb := int32(f.GlyphHorSideBearing(gid))
	aw := int32(f.GlyphHorAdvance(gid))
	pp1x := bounds.XMin - lsb
	pp2x := pp1x + aw
	x = append(x, pp1x, pp2x, 0, 0)
	y = append(y, 0, 0, 0, 0)
	dx, dy, derr := gvar.GlyphDeltasApplied(gid, f.coords, x, y, contourEnds)
	if derr != nil {
		return nil, false
	}
	var segs []GlyphSegment
	start := 0
	for _, end := range contourEnds {
		flags := make([]byte, 0, end-start+1)
		vx := make([]int32, 0, end-start+1)
		vy := make([]int32, 0, end-start+1)
		for i := start; i <= end; i++ {
			var flag byte
			if onCurve[i] {
				flag = flagOnCurve
			}
			flags = append(flags, flag)
			vx = append(vx, saturateToInt32(float64(x[i])+dx[i]))
			vy = append(vy, saturateToInt32(float64(y[i])+dy[i]))
		}
		contourSegs, cerr := contourToSegments(flags, vx, vy)
		if cerr != nil {
			return nil, false
		}
		segs = append(segs, contourSegs...)
		start = end + 1
	}
	return segs, true
}

// GlyphPhantomPoints returns gid's four phantom points — left side
// bearing, right side bearing (advance), top side bearing, bottom
// (vertical advance) — at the face's current variation coordinates,
// applying gvar deltas the same way OutlineGlyph varies contour points.
// The two vertical points stay at y=0 when the font has no vmtx.
func (f *Face) GlyphPhantomPoints(gid GlyphIndex) ([4][2]int32, bool) {
	x, y, onCurve, contourEnds, bounds, err := f.otf.GlyphContourPoints(gid)
	if err != nil || onCurve == nil {
		return [4][2]int32{}, false
	}
	lsb := int32(f.GlyphHorSideBearing(gid))
	aw := int32(f.GlyphHorAdvance(gid))
	pp1x := bounds.XMin - lsb
	pp2x := pp1x + aw
	var pp3y, pp4y int32
	if tsb, ok := f.GlyphVerSideBearing(gid); ok {
		pp3y = bounds.YMax + int32(tsb)
		if adv, ok := f.GlyphVerAdvance(gid); ok {
			pp4y = pp3y - int32(adv)
		}
	}
	x = append(x, pp1x, pp2x, 0, 0)
	y = append(y, 0, 0, pp3y, pp4y)
	n := len(x)
	pts := [4][2]int32{{x[n-4], y[n-4]}, {x[n-3], y[n-3]}, {x[n-2], y[n-2]}, {x[n-1], y[n-1]}}
	if f.HasNonDefaultVariationCoordinates() {
		if gvar := f.gvar(); gvar != nil {
			dx, dy, derr := gvar.GlyphDeltasApplied(gid, f.coords, x, y, contourEnds)
			if derr == nil {
				for i := 0; i < 4; i++ {
					idx := n - 4 + i
					pts[i][0] = saturateToInt32(float64(pts[i][0]) + dx[idx])
					pts[i][1] = saturateToInt32(float64(pts[i][1]) + dy[idx])
				}
			}
		}
	}
	return pts, true
}

// GlyphBoundingBox decodes gid's outline purely to report its bounds.
func (f *Face) GlyphBoundingBox(gid GlyphIndex) (GlyphBounds, error) {
	_, bounds, err := f.OutlineGlyph(gid)
	return bounds, err
}

// GlyphHorAdvance resolves gid's horizontal advance from 'hmtx', falling
// back to the last long-metric entry for glyphs beyond NumberOfHMetrics
// (HMtxTable.HMetrics already implements that fallback internally).
func (f *Face) GlyphHorAdvance(gid GlyphIndex) uint16 {
	hmtx := f.hmtx()
	if hmtx == nil {
		return 0
	}
	aw, _, _ := hmtx.HMetrics(gid)
	return aw
}

// GlyphHorSideBearing resolves gid's left side bearing from 'hmtx'.
func (f *Face) GlyphHorSideBearing(gid GlyphIndex) int16 {
	hmtx := f.hmtx()
	if hmtx == nil {
		return 0
	}
	_, lsb, _ := hmtx.HMetrics(gid)
	return lsb
}

// GlyphVerAdvance resolves gid's vertical advance from 'vmtx'. ok is false
// when the font carries no vmtx table, distinguishing "absent" from a real
// advance of zero.
func (f *Face) GlyphVerAdvance(gid GlyphIndex) (uint16, bool) {
	vmtx := f.vmtx()
	if vmtx == nil {
		return 0, false
	}
	adv, _, ok := vmtx.VMetrics(gid)
	return adv, ok
}

// GlyphVerSideBearing resolves gid's top side bearing from 'vmtx'. ok is
// false when the font carries no vmtx table.
func (f *Face) GlyphVerSideBearing(gid GlyphIndex) (int16, bool) {
	vmtx := f.vmtx()
	if vmtx == nil {
		return 0, false
	}
	_, tsb, ok := vmtx.VMetrics(gid)
	return tsb, ok
}

// GlyphYOrigin resolves gid's vertical origin Y coordinate. No retrieved
// example font carries a 'VORG' table, so this falls back to the default
// OpenType rule: top side bearing plus the glyph's bounding-box yMax. ok is
// false when vmtx is absent or the outline cannot be decoded.
func (f *Face) GlyphYOrigin(gid GlyphIndex) (int16, bool) {
	tsb, ok := f.GlyphVerSideBearing(gid)
	if !ok {
		return 0, false
	}
	bounds, err := f.GlyphBoundingBox(gid)
	if err != nil {
		return 0, false
	}
	return saturateToInt16(int64(tsb) + int64(bounds.YMax)), true
}

// --- Images & color ------------------------------------------------------

// IsColorGlyph reports whether gid has any COLR, sbix, or CBDT presentation
// (SVG is not parsed).
func (f *Face) IsColorGlyph(gid GlyphIndex) bool {
	if colr := f.colr(); colr != nil {
		if _, ok := colr.BaseGlyphLayers(gid); ok {
			return true
		}
		if _, ok := colr.HasBaseGlyphV1(gid); ok {
			return true
		}
	}
	if sbix := f.sbix(); sbix != nil {
		if maxp := f.otf.Table(T("maxp")); maxp != nil {
			if _, err := sbix.GlyphData(0, gid, maxp.Self().AsMaxP().NumGlyphs); err == nil {
				return true
			}
		}
	}
	if cblc, cbdt := f.cblc(), f.cbdt(); cblc != nil && cbdt != nil {
		cbdtData := binarySegm(cbdt.Binary())
		for i := range cblc.Strikes {
			if _, err := BitmapStrikeGlyphData(&cblc.Strikes[i], gid, cbdtData); err == nil {
				return true
			}
		}
	}
	return false
}

// GlyphColorBitmap resolves gid's embedded color bitmap from CBLC/CBDT at
// the given strike index, falling back to EBLC/EBDT (monochrome/grayscale
// bitmaps) if no color strikes are present.
func (f *Face) GlyphColorBitmap(gid GlyphIndex, strike int) (BitmapGlyphData, error) {
	if cblc, cbdt := f.cblc(), f.cbdt(); cblc != nil && cbdt != nil {
		if strike < 0 || strike >= len(cblc.Strikes) {
			return BitmapGlyphData{}, fmt.Errorf("%w: CBLC strike index out of range", parseFail)
		}
		return BitmapStrikeGlyphData(&cblc.Strikes[strike], gid, binarySegm(cbdt.Binary()))
	}
	if eblc, ebdt := f.eblc(), f.ebdt(); eblc != nil && ebdt != nil {
		if strike < 0 || strike >= len(eblc.Strikes) {
			return BitmapGlyphData{}, fmt.Errorf("%w: EBLC strike index out of range", parseFail)
		}
		return BitmapStrikeGlyphData(&eblc.Strikes[strike], gid, binarySegm(ebdt.Binary()))
	}
	return BitmapGlyphData{}, fmt.Errorf("%w: no CBLC/CBDT or EBLC/EBDT tables", parseFail)
}

// ColorPalettes returns the number of palettes and entries per palette
// from 'CPAL', or (0, 0) if absent.
func (f *Face) ColorPalettes() (numPalettes, numEntries int) {
	cpal := f.cpal()
	if cpal == nil {
		return 0, 0
	}
	return cpal.PaletteCount(), cpal.NumPaletteEntries
}

// GlyphRasterImage returns the raw strike-indexed bitmap for gid from
// 'sbix' at the given strike index (callers resolve ppem to strike index
// via the strike list, not modeled here since no retrieved example reads
// multiple sbix strikes).
func (f *Face) GlyphRasterImage(gid GlyphIndex, strike int) (SbixGlyphData, error) {
	sbix := f.sbix()
	if sbix == nil {
		return SbixGlyphData{}, fmt.Errorf("%w: no sbix table", parseFail)
	}
	numGlyphs := 0
	if maxp := f.otf.Table(T("maxp")); maxp != nil {
		numGlyphs = maxp.Self().AsMaxP().NumGlyphs
	}
	return sbix.GlyphData(strike, gid, numGlyphs)
}

// PaintColorGlyph resolves gid's color-glyph layers, invoking visit once per
// drawable layer with its resolved CPAL color. v0 fonts resolve their flat
// layer list directly; v1 fonts walk the paint graph via WalkPaintGraph and
// flatten the resulting painter-call stream down to (layer glyph, solid
// color) pairs — v1's gradient and compositing paints are exposed to visit
// only through the color of the most recent Solid paint (or a gradient's
// first stop) before each outline_glyph call, since a
// flat "layers on top of each other" API has no room for a gradient ramp or
// a blend mode; callers that need those should drive WalkPaintGraph and a
// PaintSink of their own instead.
func (f *Face) PaintColorGlyph(gid GlyphIndex, palette int, visit func(layerGlyph GlyphIndex, color Color) error) error {
	colr := f.colr()
	if colr == nil {
		return fmt.Errorf("%w: no COLR table", parseFail)
	}
	cpal := f.cpal()
	if layers, ok := colr.BaseGlyphLayers(gid); ok {
		for _, layer := range layers {
			layerGlyph, colorIndex := GlyphIndex(layer[0]), int(layer[1])
			color := Color{}
			if cpal != nil {
				if c, ok := cpal.Color(palette, colorIndex); ok {
					color = c
				}
			}
			if err := visit(layerGlyph, color); err != nil {
				return err
			}
		}
		return nil
	}
	paintOffset, ok := colr.HasBaseGlyphV1(gid)
	if !ok {
		return fmt.Errorf("%w: glyph %d has no COLR base glyph record", parseFail, gid)
	}
	sink := &colrLayerSink{cpal: cpal, palette: palette, visit: visit}
	if err := colr.WalkPaintGraph(paintOffset, sink); err != nil {
		return err
	}
	return sink.err
}

// colrLayerSink adapts the full COLR v1 painter-call stream down to
// PaintColorGlyph's (layer glyph, resolved color) pairs: it tracks the
// color of the most recent Solid paint (or a gradient's first stop) and
// attaches it to each outline_glyph it sees, ignoring clip/transform/layer-compositing structure.
type colrLayerSink struct {
	cpal      *CPALTable
	palette   int
	visit     func(layerGlyph GlyphIndex, color Color) error
	lastColor Color
	err       error
}

func (s *colrLayerSink) OutlineGlyph(gid GlyphIndex) {
	if s.err != nil {
		return
	}
	s.err = s.visit(gid, s.lastColor)
}
func (s *colrLayerSink) PushClip()  {}
func (s *colrLayerSink) PopClip()   {}
func (s *colrLayerSink) PushLayer(uint8) {}
func (s *colrLayerSink) PopLayer()       {}
func (s *colrLayerSink) PushTransform(Affine2x3) {}
func (s *colrLayerSink) PopTransform()           {}

func (s *colrLayerSink) Paint(p Paint) {
	if s.cpal == nil {
		return
	}
	switch p.Kind {
	case PaintKindSolid, PaintKindLinearGradient, PaintKindRadialGradient, PaintKindSweepGradient:
		paletteIndex := p.PaletteIndex
		alpha := p.Alpha
		if p.Kind != PaintKindSolid && len(p.Line.Stops) > 0 {
			paletteIndex, alpha = p.Line.Stops[0].PaletteIndex, p.Line.Stops[0].Alpha
		}
		if c, ok := s.cpal.Color(s.palette, int(paletteIndex)); ok {
			c.Alpha = uint8(clampFloat(alpha, 0, 1) * 255)
			s.lastColor = c
		}
	}
}

// --- Variations --------------------------------------------------------

// VariationAxes returns the font's design axes from 'fvar', or nil if the
// font is not variable.
func (f *Face) VariationAxes() []VariationAxis {
	if fvar := f.fvar(); fvar != nil {
		return fvar.Axes
	}
	return nil
}

// SetVariation clamps value to [min, max] for the named axis, maps it to a
// normalized [-1, 1] coordinate via the piecewise-linear
// (min→-1, default→0, max→+1) rule, remaps it through 'avar' if present,
// and stores the result. Unknown axis tags are ignored.
func (f *Face) SetVariation(tag Tag, value float64) {
	fvar := f.fvar()
	if fvar == nil {
		return
	}
	for i, axis := range fvar.Axes {
		if axis.Tag != tag {
			continue
		}
		minV, defV, maxV := axis.MinValue.Float64(), axis.DefaultValue.Float64(), axis.MaxValue.Float64()
		if value < minV {
			value = minV
		}
		if value > maxV {
			value = maxV
		}
		var norm float64
		switch {
		case value < defV && defV > minV:
			norm = -1 + (value-minV)/(defV-minV)
		case value > defV && maxV > defV:
			norm = (value - defV) / (maxV - defV)
		default:
			norm = 0
		}
		if avar := f.avar(); avar != nil && i < len(avar.SegmentMaps) {
			norm = avar.SegmentMaps[i].Apply(norm)
		}
		if f.coords == nil {
			f.coords = make([]float64, len(fvar.Axes))
		}
		f.coords[i] = norm
		return
	}
}

// VariationCoordinates returns the current normalized [-1, 1] coordinate
// vector, one entry per fvar axis in axis order.
func (f *Face) VariationCoordinates() []float64 {
	return f.coords
}

// HasNonDefaultVariationCoordinates reports whether any axis has been
// moved away from its default (normalized 0) position.
func (f *Face) HasNonDefaultVariationCoordinates() bool {
	for _, c := range f.coords {
		if c != 0 {
			return true
		}
	}
	return false
}

// --- internal typed-accessor shortcuts --------------------------------

func (f *Face) os2() *OS2Table {
	if t := f.otf.Table(T("OS/2")); t != nil {
		return t.Self().AsOS2()
	}
	return nil
}

func (f *Face) hhea() *HHeaTable {
	if t := f.otf.Table(T("hhea")); t != nil {
		return t.Self().AsHHea()
	}
	return nil
}

func (f *Face) hmtx() *HMtxTable {
	if t := f.otf.Table(T("hmtx")); t != nil {
		return t.Self().AsHMtx()
	}
	return nil
}

func (f *Face) vhea() *VHeaTable {
	if t := f.otf.Table(T("vhea")); t != nil {
		return t.Self().AsVHea()
	}
	return nil
}

func (f *Face) vmtx() *VMtxTable {
	if t := f.otf.Table(T("vmtx")); t != nil {
		return t.Self().AsVMtx()
	}
	return nil
}

func (f *Face) post() *PostTable {
	if t := f.otf.Table(T("post")); t != nil {
		return t.Self().AsPost()
	}
	return nil
}

func (f *Face) name() *NameTable {
	if t := f.otf.Table(T("name")); t != nil {
		return t.Self().AsName()
	}
	return nil
}

func (f *Face) colr() *COLRTable {
	if t := f.otf.Table(T("COLR")); t != nil {
		return t.Self().AsCOLR()
	}
	return nil
}

func (f *Face) cpal() *CPALTable {
	if t := f.otf.Table(T("CPAL")); t != nil {
		return t.Self().AsCPAL()
	}
	return nil
}

func (f *Face) sbix() *SbixTable {
	if t := f.otf.Table(T("sbix")); t != nil {
		return t.Self().AsSbix()
	}
	return nil
}

func (f *Face) cblc() *CBLCTable {
	if t := f.otf.Table(T("CBLC")); t != nil {
		return t.Self().AsCBLC()
	}
	return nil
}

func (f *Face) cbdt() *CBDTTable {
	if t := f.otf.Table(T("CBDT")); t != nil {
		return t.Self().AsCBDT()
	}
	return nil
}

func (f *Face) eblc() *EBLCTable {
	if t := f.otf.Table(T("EBLC")); t != nil {
		return t.Self().AsEBLC()
	}
	return nil
}

func (f *Face) ebdt() *EBDTTable {
	if t := f.otf.Table(T("EBDT")); t != nil {
		return t.Self().AsEBDT()
	}
	return nil
}

func (f *Face) fvar() *FvarTable {
	if t := f.otf.Table(T("fvar")); t != nil {
		return t.Self().AsFvar()
	}
	return nil
}

func (f *Face) avar() *AvarTable {
	if t := f.otf.Table(T("avar")); t != nil {
		return t.Self().AsAvar()
	}
	return nil
}

func (f *Face) gvar() *GvarTable {
	if t := f.otf.Table(T("gvar")); t != nil {
		return t.Self().AsGvar()
	}
	return nil
}
