package ot

// Font variations: 'fvar' (axes & named instances), 'avar' (segment maps),
// 'gvar' (glyph outline tuple variations), and the Item Variation Store
// shared by 'HVAR'/'MVAR'/'VVAR'.
//
// Structurally grounded on the teacher's own layout.go idioms (lazy binary
// navigation, offsetFor-style section lookups) generalized from "layout
// tables" to "variation tables"; the tuple/region/delta-set vocabulary
// itself follows the OpenType variations model referenced by spec.md §4.9.
// npillmayer-tyse's sister 'ot' package independently enumerates the same
// table tags, cross-checked here for naming consistency.

import "fmt"

const (
	// maxGvarStackTuples bounds the number of tuples gvar's "shared tuples
	// plus private tuples" may stack for a single glyph variation data
	// record before this package falls back to a heap-allocated buffer
	// instead of continuing to grow a fixed-size stack buffer — mirroring
	// the stack-resident-buffer-with-heap-fallback approach spec.md
	// describes for gvar interpolation.
	maxGvarStackTuples = 32
)

// --- fvar --------------------------------------------------------------

// VariationAxis is one design axis from 'fvar': a 4-byte tag plus its
// min/default/max values in the font's design coordinate space.
type VariationAxis struct {
	Tag                    Tag
	MinValue               Fixed16Dot16
	DefaultValue           Fixed16Dot16
	MaxValue               Fixed16Dot16
	Flags                  uint16
	AxisNameID             uint16
}

// VariationInstance is one named instance from 'fvar': a name ID plus a
// coordinate for every axis, in axis order.
type VariationInstance struct {
	SubfamilyNameID   uint16
	Flags             uint16
	Coordinates       []Fixed16Dot16
	PostScriptNameID  uint16 // 0xFFFF if absent
}

// FvarTable is the parsed 'fvar' table.
type FvarTable struct {
	tableBase
	Axes      []VariationAxis
	Instances []VariationInstance
}

func newFvarTable(tag Tag, b binarySegm, offset, size uint32) *FvarTable {
	t := &FvarTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

func parseFvar(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if len(b) < 16 {
		ec.addWarning(tag, "fvar header too short", offset)
		return newTable(tag, b, offset, size), nil
	}
	axesArrayOffset, _ := b.u16(4)
	axisCount, _ := b.u16(8)
	axisSize, _ := b.u16(10)
	instanceCount, _ := b.u16(12)
	instanceSize, _ := b.u16(14)

	t := newFvarTable(tag, b, offset, size)
	for i := 0; i < int(axisCount); i++ {
		rec, err := b.view(int(axesArrayOffset)+i*int(axisSize), int(axisSize))
		if err != nil {
			ec.addWarning(tag, fmt.Sprintf("fvar axis %d out of bounds", i), offset)
			break
		}
		axisTag, _ := rec.u32(0)
		minV, _ := rec.u32(4)
		defV, _ := rec.u32(8)
		maxV, _ := rec.u32(12)
		flags, _ := rec.u16(16)
		nameID, _ := rec.u16(18)
		t.Axes = append(t.Axes, VariationAxis{
			Tag:          Tag(axisTag),
			MinValue:     Fixed16Dot16(minV),
			DefaultValue: Fixed16Dot16(defV),
			MaxValue:     Fixed16Dot16(maxV),
			Flags:        flags,
			AxisNameID:   nameID,
		})
	}
	instArrayOffset := int(axesArrayOffset) + int(axisCount)*int(axisSize)
	for i := 0; i < int(instanceCount); i++ {
		rec, err := b.view(instArrayOffset+i*int(instanceSize), int(instanceSize))
		if err != nil {
			ec.addWarning(tag, fmt.Sprintf("fvar instance %d out of bounds", i), offset)
			break
		}
		nameID, _ := rec.u16(0)
		flags, _ := rec.u16(2)
		coords := make([]Fixed16Dot16, len(t.Axes))
		for a := range t.Axes {
			v, _ := rec.u32(4 + a*4)
			coords[a] = Fixed16Dot16(v)
		}
		inst := VariationInstance{SubfamilyNameID: nameID, Flags: flags, Coordinates: coords, PostScriptNameID: 0xFFFF}
		if int(instanceSize) >= 6+len(t.Axes)*4+2 {
			psid, _ := rec.u16(4 + len(t.Axes)*4)
			inst.PostScriptNameID = psid
		}
		t.Instances = append(t.Instances, inst)
	}
	return t, nil
}

// --- avar --------------------------------------------------------------

// AvarSegmentMap remaps one axis's normalized [-1,1] coordinate through a
// piecewise-linear function described by (fromCoord, toCoord) pairs.
type AvarSegmentMap struct {
	Mappings [][2]F2Dot14
}

// Apply maps a normalized coordinate through this axis's segment map,
// linearly interpolating between the bracketing correspondence pairs. An
// empty map is the identity function.
func (m AvarSegmentMap) Apply(v float64) float64 {
	if len(m.Mappings) == 0 {
		return v
	}
	for i := 1; i < len(m.Mappings); i++ {
		prevFrom, prevTo := m.Mappings[i-1][0].Float64(), m.Mappings[i-1][1].Float64()
		from, to := m.Mappings[i][0].Float64(), m.Mappings[i][1].Float64()
		if v <= from {
			if from == prevFrom {
				return to
			}
			t := (v - prevFrom) / (from - prevFrom)
			return prevTo + t*(to-prevTo)
		}
	}
	last := m.Mappings[len(m.Mappings)-1]
	return last[1].Float64()
}

// AvarTable is the parsed 'avar' table: one segment map per axis, in the
// same order as fvar's axis list.
type AvarTable struct {
	tableBase
	SegmentMaps []AvarSegmentMap
}

func newAvarTable(tag Tag, b binarySegm, offset, size uint32) *AvarTable {
	t := &AvarTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

func parseAvar(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if len(b) < 8 {
		ec.addWarning(tag, "avar header too short", offset)
		return newTable(tag, b, offset, size), nil
	}
	axisCount, _ := b.u16(6)
	t := newAvarTable(tag, b, offset, size)
	pos := 8
	for i := 0; i < int(axisCount); i++ {
		positionMapCount, err := b.u16(pos)
		if err != nil {
			ec.addWarning(tag, fmt.Sprintf("avar axis %d truncated", i), offset)
			break
		}
		pos += 2
		sm := AvarSegmentMap{}
		for k := 0; k < int(positionMapCount); k++ {
			from, err1 := b.u16(pos)
			to, err2 := b.u16(pos + 2)
			if err1 != nil || err2 != nil {
				break
			}
			sm.Mappings = append(sm.Mappings, [2]F2Dot14{F2Dot14(from), F2Dot14(to)})
			pos += 4
		}
		t.SegmentMaps = append(t.SegmentMaps, sm)
	}
	return t, nil
}

// --- gvar --------------------------------------------------------------

// GvarTable is the parsed 'gvar' table header: the shared-tuples pool and
// per-glyph offsets into the glyphVariationData array. Individual glyph
// variation data is decoded on demand via GlyphDeltas, since a large CJK
// variable font's gvar table can be tens of megabytes.
type GvarTable struct {
	tableBase
	axisCount        int
	sharedTupleCount int
	sharedTuples     binarySegm // sharedTupleCount * axisCount F2Dot14 values
	glyphVarData     binarySegm
	offsets          []uint32 // numGlyphs+1 entries, either compact (u16*2) or long (u32), normalized here to uint32
}

func newGvarTable(tag Tag, b binarySegm, offset, size uint32) *GvarTable {
	t := &GvarTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

func parseGvar(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if len(b) < 20 {
		ec.addWarning(tag, "gvar header too short", offset)
		return newTable(tag, b, offset, size), nil
	}
	axisCount, _ := b.u16(4)
	sharedTupleCount, _ := b.u16(6)
	sharedTuplesOffset, _ := b.u32(8)
	glyphCount, _ := b.u16(12)
	flags, _ := b.u16(14)
	glyphVarDataArrayOffset, _ := b.u32(16)

	t := newGvarTable(tag, b, offset, size)
	t.axisCount = int(axisCount)
	t.sharedTupleCount = int(sharedTupleCount)
	if tuples, err := b.view(int(sharedTuplesOffset), int(sharedTupleCount)*int(axisCount)*2); err == nil {
		t.sharedTuples = tuples
	}
	t.glyphVarData = b[glyphVarDataArrayOffset:]

	isLong := flags&0x1 != 0
	n := int(glyphCount) + 1
	t.offsets = make([]uint32, 0, n)
	if isLong {
		for i := 0; i < n; i++ {
			v, err := b.u32(20 + i*4)
			if err != nil {
				ec.addWarning(tag, "gvar long offsets truncated", offset)
				break
			}
			t.offsets = append(t.offsets, v)
		}
	} else {
		for i := 0; i < n; i++ {
			v, err := b.u16(20 + i*2)
			if err != nil {
				ec.addWarning(tag, "gvar short offsets truncated", offset)
				break
			}
			t.offsets = append(t.offsets, uint32(v)*2)
		}
	}
	return t, nil
}

// GvarTuple is one decoded tuple-variation record's header: a peak tuple
// (one F2Dot14 per axis) plus the optional intermediate start/end region,
// and whether point numbers are shared with the glyph's "shared point
// numbers" record (private point numbers otherwise follow per-tuple).
type GvarTuple struct {
	PeakTuple         []F2Dot14
	IntermediateStart []F2Dot14
	IntermediateEnd   []F2Dot14
	HasPrivatePoints  bool
	PointNumbers      []uint16 // empty means "applies to all points"
	DeltaX, DeltaY    []int16
}

// GlyphDeltas decodes the tuple-variation store for glyph gid, returning up
// to maxGvarStackTuples tuples inline; fonts carrying more tuples than that
// for one glyph are rare, but when they occur the remaining tuples are
// still returned (via append, which falls back to a heap allocation once
// the stack-sized backing array is exceeded) rather than truncated.
func (t *GvarTable) GlyphDeltas(gid GlyphIndex) ([]GvarTuple, error) {
	if t == nil || int(gid)+1 >= len(t.offsets) {
		return nil, fmt.Errorf("%w: gvar glyph index out of range", parseFail)
	}
	start, end := t.offsets[gid], t.offsets[gid+1]
	if end <= start {
		return nil, nil // glyph has no variation data
	}
	data, err := t.glyphVarData.view(int(start), int(end-start))
	if err != nil {
		return nil, fmt.Errorf("%w: gvar glyph variation data out of bounds", parseFail)
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: gvar glyph variation header truncated", parseFail)
	}
	tupleCount, _ := data.u16(0)
	dataOffset, _ := data.u16(2)
	count := int(tupleCount) & 0x0FFF
	sharedPointsPresent := tupleCount&0x8000 != 0

	var sharedPoints []uint16
	serializedPos := int(dataOffset)
	if sharedPointsPresent {
		pts, consumed, err := decodeGvarPointNumbers(data[serializedPos:])
		if err != nil {
			return nil, err
		}
		sharedPoints = pts
		serializedPos += consumed
	}

	tuples := make([]GvarTuple, 0, maxGvarStackTuples)
	headerPos := 4
	for i := 0; i < count; i++ {
		tupleSize, err := data.u16(headerPos)
		if err != nil {
			break
		}
		tupleIndex, _ := data.u16(headerPos + 2)
		headerPos += 4
		gt := GvarTuple{}
		embeddedPeak := tupleIndex&0x8000 != 0
		intermediate := tupleIndex&0x4000 != 0
		privatePoints := tupleIndex&0x2000 != 0

		if embeddedPeak {
			gt.PeakTuple = readF2Dot14Array(data, headerPos, t.axisCount)
			headerPos += t.axisCount * 2
		} else {
			idx := int(tupleIndex & 0x0FFF)
			gt.PeakTuple = readF2Dot14Array(t.sharedTuples, idx*t.axisCount*2, t.axisCount)
		}
		if intermediate {
			gt.IntermediateStart = readF2Dot14Array(data, headerPos, t.axisCount)
			headerPos += t.axisCount * 2
			gt.IntermediateEnd = readF2Dot14Array(data, headerPos, t.axisCount)
			headerPos += t.axisCount * 2
		}

		serialized, err := data.view(serializedPos, int(tupleSize))
		if err != nil {
			return tuples, fmt.Errorf("%w: gvar serialized data out of bounds for tuple %d", parseFail, i)
		}
		pos := 0
		points := sharedPoints
		if privatePoints {
			pts, consumed, err := decodeGvarPointNumbers(serialized)
			if err != nil {
				return tuples, err
			}
			points = pts
			pos += consumed
			gt.HasPrivatePoints = true
		}
		gt.PointNumbers = points
		numPoints := len(points)
		if numPoints == 0 {
			numPoints = 1 << 20 // "applies to all points"; caller resolves actual count via maxp
		}
		dx, consumed, err := decodeGvarDeltas(serialized[pos:], numPointsCap(numPoints))
		if err != nil {
			return tuples, err
		}
		pos += consumed
		dy, _, err := decodeGvarDeltas(serialized[pos:], numPointsCap(numPoints))
		if err != nil {
			return tuples, err
		}
		gt.DeltaX, gt.DeltaY = dx, dy
		tuples = append(tuples, gt)
		serializedPos += int(tupleSize)
	}
	return tuples, nil
}

// numPointsCap guards against the "applies to all points" sentinel
// (1<<20) blowing up delta decoding before the real point count is known;
// decodeGvarDeltas stops at the sentinel's packed-run boundaries anyway, so
// this just keeps an accidental huge loop bound sane.
func numPointsCap(n int) int {
	if n > 1<<16 {
		return 1 << 16
	}
	return n
}

// tupleWeight computes a tuple's scalar weight at the given normalized
// variation coordinates, per spec.md §4.10: the product over axes of a
// triangle function with support [start, peak, end] (or [0, peak, 0] when
// the tuple carries no intermediate region), evaluating to 0 outside its
// support and 1 exactly at the peak.
func tupleWeight(tuple GvarTuple, coords []float64) float64 {
	weight := 1.0
	for axis := 0; axis < len(tuple.PeakTuple); axis++ {
		p := tuple.PeakTuple[axis].Float64()
		if p == 0 {
			continue // this axis does not participate in the tuple
		}
		c := 0.0
		if axis < len(coords) {
			c = coords[axis]
		}
		lo, hi := 0.0, p
		if p < 0 {
			lo, hi = p, 0
		}
		if axis < len(tuple.IntermediateStart) && axis < len(tuple.IntermediateEnd) {
			lo = tuple.IntermediateStart[axis].Float64()
			hi = tuple.IntermediateEnd[axis].Float64()
		}
		var factor float64
		switch {
		case c == p:
			factor = 1
		case c <= lo || c >= hi:
			factor = 0
		case c < p:
			if p == lo {
				factor = 0
			} else {
				factor = (c - lo) / (p - lo)
			}
		default: // lo < p < c < hi
			if hi == p {
				factor = 0
			} else {
				factor = (hi - c) / (hi - p)
			}
		}
		weight *= factor
		if weight == 0 {
			return 0
		}
	}
	return weight
}

// applyIUP fills dx/dy for untouched points in contour points[lo:hi]
// (inclusive), per spec.md §4.10's "points not referenced by a tuple use
// interpolated deltas (IUP) derived from neighboring referenced points
// along the contour" rule. A single touched point propagates its delta to
// the whole contour. With two or more, each run of untouched points
// between a pair of touched points (walking the contour cyclically) is
// interpolated along that pair's original coordinates, clamping to the
// nearer endpoint's delta once the untouched point's coordinate falls
// outside the pair's span.
func applyIUP(lo, hi int, origX, origY []int32, touched []bool, dx, dy []float64) {
	if hi < lo {
		return
	}
	var touchedIdx []int
	for i := lo; i <= hi; i++ {
		if touched[i] {
			touchedIdx = append(touchedIdx, i)
		}
	}
	if len(touchedIdx) == 0 {
		return // no reference point in this contour: leave at zero delta
	}
	if len(touchedIdx) == 1 {
		i0 := touchedIdx[0]
		for i := lo; i <= hi; i++ {
			if i != i0 {
				dx[i], dy[i] = dx[i0], dy[i0]
			}
		}
		return
	}
	for k := range touchedIdx {
		i1 := touchedIdx[k]
		i2 := touchedIdx[(k+1)%len(touchedIdx)]
		j := i1 + 1
		if j > hi {
			j = lo
		}
		for j != i2 {
			dx[j] = iupAxisDelta(origX[i1], origX[i2], origX[j], dx[i1], dx[i2])
			dy[j] = iupAxisDelta(origY[i1], origY[i2], origY[j], dy[i1], dy[i2])
			j++
			if j > hi {
				j = lo
			}
		}
	}
}

// iupAxisDelta interpolates (or, outside the [c1, c2] span, flatly
// extends) the delta at original coordinate cj given the touched
// neighbors' coordinates and deltas on one axis.
func iupAxisDelta(c1, c2, cj int32, d1, d2 float64) float64 {
	if c1 == c2 {
		return d1
	}
	lo, hi, dlo, dhi := c1, c2, d1, d2
	if lo > hi {
		lo, hi = hi, lo
		dlo, dhi = dhi, dlo
	}
	switch {
	case cj <= lo:
		return dlo
	case cj >= hi:
		return dhi
	default:
		t := float64(cj-lo) / float64(hi-lo)
		return dlo + (dhi-dlo)*t
	}
}

// GlyphDeltasApplied computes glyph gid's net per-point delta at the given
// normalized variation coordinates (post-avar, one per fvar axis), summing
// every contributing tuple's weighted deltas and filling in points each
// tuple leaves untouched via applyIUP. origX/origY are the glyph's point
// coordinates in gvar point-number order (contour points followed by the
// four phantom points; see Font.GlyphContourPoints), and contourEnds marks
// each contour's last index — pass it empty for composite glyphs, whose
// per-component deltas never interpolate.
func (t *GvarTable) GlyphDeltasApplied(gid GlyphIndex, coords []float64, origX, origY []int32, contourEnds []int) ([]float64, []float64, error) {
	n := len(origX)
	outDX := make([]float64, n)
	outDY := make([]float64, n)
	if t == nil || n == 0 {
		return outDX, outDY, nil
	}
	tuples, err := t.GlyphDeltas(gid)
	if err != nil {
		return outDX, outDY, err
	}
	for _, tuple := range tuples {
		weight := tupleWeight(tuple, coords)
		if weight == 0 {
			continue
		}
		tdx := make([]float64, n)
		tdy := make([]float64, n)
		touched := make([]bool, n)
		if len(tuple.PointNumbers) == 0 {
			for i := 0; i < n && i < len(tuple.DeltaX) && i < len(tuple.DeltaY); i++ {
				tdx[i] = float64(tuple.DeltaX[i])
				tdy[i] = float64(tuple.DeltaY[i])
				touched[i] = true
			}
		} else {
			for k, p := range tuple.PointNumbers {
				if int(p) >= n || k >= len(tuple.DeltaX) || k >= len(tuple.DeltaY) {
					continue
				}
				tdx[p] = float64(tuple.DeltaX[k])
				tdy[p] = float64(tuple.DeltaY[k])
				touched[p] = true
			}
			lo := 0
			for _, hi := range contourEnds {
				if hi >= n {
					break
				}
				applyIUP(lo, hi, origX, origY, touched, tdx, tdy)
				lo = hi + 1
			}
		}
		for i := 0; i < n; i++ {
			outDX[i] += weight * tdx[i]
			outDY[i] += weight * tdy[i]
		}
	}
	return outDX, outDY, nil
}

func readF2Dot14Array(b binarySegm, pos, n int) []F2Dot14 {
	out := make([]F2Dot14, n)
	for i := 0; i < n; i++ {
		v, err := b.u16(pos + i*2)
		if err != nil {
			return out[:i]
		}
		out[i] = F2Dot14(v)
	}
	return out
}

// decodeGvarPointNumbers decodes a packed point-number list per the gvar
// spec's run-length scheme, returning the points and the number of bytes
// consumed.
func decodeGvarPointNumbers(b binarySegm) ([]uint16, int, error) {
	if len(b) < 1 {
		return nil, 0, fmt.Errorf("%w: gvar point numbers truncated", parseFail)
	}
	count := int(b[0])
	pos := 1
	if count == 0 {
		return nil, pos, nil // applies to all points
	}
	if count&0x80 != 0 {
		if len(b) < 2 {
			return nil, 0, fmt.Errorf("%w: gvar point numbers truncated", parseFail)
		}
		count = (count&0x7f)<<8 | int(b[1])
		pos = 2
	}
	points := make([]uint16, 0, count)
	var last uint16
	for len(points) < count {
		if pos >= len(b) {
			return nil, 0, fmt.Errorf("%w: gvar point numbers truncated", parseFail)
		}
		control := b[pos]
		pos++
		runCount := int(control&0x7f) + 1
		is16Bit := control&0x80 != 0
		for k := 0; k < runCount && len(points) < count; k++ {
			var delta uint16
			if is16Bit {
				if pos+2 > len(b) {
					return nil, 0, fmt.Errorf("%w: gvar point numbers truncated", parseFail)
				}
				delta = u16(b[pos:])
				pos += 2
			} else {
				if pos >= len(b) {
					return nil, 0, fmt.Errorf("%w: gvar point numbers truncated", parseFail)
				}
				delta = uint16(b[pos])
				pos++
			}
			last += delta
			points = append(points, last)
		}
	}
	return points, pos, nil
}

// decodeGvarDeltas decodes a packed delta-value run per the gvar spec,
// stopping once `n` values have been produced (n is a point-count cap, not
// an exact count, since "applies to all points" carries no explicit count
// of its own in the serialized stream — it is bounded by the run headers
// themselves instead).
func decodeGvarDeltas(b binarySegm, n int) ([]int16, int, error) {
	deltas := make([]int16, 0, n)
	pos := 0
	for len(deltas) < n && pos < len(b) {
		control := b[pos]
		pos++
		runCount := int(control&0x3f) + 1
		switch {
		case control&0x80 != 0: // DELTAS_ARE_ZERO
			for k := 0; k < runCount; k++ {
				deltas = append(deltas, 0)
			}
		case control&0x40 != 0: // DELTAS_ARE_WORDS
			for k := 0; k < runCount; k++ {
				if pos+2 > len(b) {
					return deltas, pos, nil
				}
				deltas = append(deltas, int16(u16(b[pos:])))
				pos += 2
			}
		default: // single bytes
			for k := 0; k < runCount; k++ {
				if pos >= len(b) {
					return deltas, pos, nil
				}
				deltas = append(deltas, int16(int8(b[pos])))
				pos++
			}
		}
	}
	return deltas, pos, nil
}

// --- Item Variation Store (HVAR / MVAR / VVAR) --------------------------

// ItemVarStoreTable wraps the shared Item Variation Store structure used by
// HVAR (horizontal metrics deltas), MVAR (misc font-wide value deltas), and
// VVAR (vertical metrics deltas). Only the store's region list and the
// per-outer-index delta-set data offsets are retained; interpreting which
// outer/inner index applies to a given glyph or MVAR value tag is a
// per-table concern handled by the caller (e.g. face.go's metric
// accessors), since HVAR/MVAR/VVAR each layer a different index-mapping
// table on top of the shared store.
type ItemVarStoreTable struct {
	tableBase
	Format       uint16
	AxisCount    int
	Regions      [][]VariationRegionAxis
	DeltaSets    []ItemVarDeltaSet
}

// VariationRegionAxis is one axis's (start, peak, end) triple within a
// variation region.
type VariationRegionAxis struct {
	StartCoord, PeakCoord, EndCoord F2Dot14
}

// ItemVarDeltaSet is one delta-set data table: per-region deltas for a
// contiguous group of items, addressed by (outerIndex, innerIndex).
type ItemVarDeltaSet struct {
	RegionIndexes []uint16
	Rows          [][]int32 // one row per item, one column per region index
}

func newItemVarStoreTable(tag Tag, b binarySegm, offset, size uint32) *ItemVarStoreTable {
	t := &ItemVarStoreTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

func parseItemVarStoreTable(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if len(b) < 8 {
		ec.addWarning(tag, "item variation store header too short", offset)
		return newTable(tag, b, offset, size), nil
	}
	// HVAR/VVAR/MVAR all begin with majorVersion/minorVersion(4 bytes) then
	// an offset to the shared ItemVariationStore.
	storeOffset, err := b.u32(4)
	if err != nil {
		ec.addWarning(tag, "item variation store offset truncated", offset)
		return newTable(tag, b, offset, size), nil
	}
	store, err := b.view(int(storeOffset), len(b)-int(storeOffset))
	if err != nil {
		ec.addWarning(tag, "item variation store out of bounds", offset)
		return newTable(tag, b, offset, size), nil
	}
	t := newItemVarStoreTable(tag, b, offset, size)
	if err := parseItemVariationStore(t, store); err != nil {
		ec.addWarning(tag, fmt.Sprintf("item variation store: %v", err), offset)
	}
	return t, nil
}

func parseItemVariationStore(t *ItemVarStoreTable, store binarySegm) error {
	if len(store) < 8 {
		return fmt.Errorf("%w: item variation store header truncated", parseFail)
	}
	format, _ := store.u16(0)
	t.Format = format
	variationRegionListOffset, _ := store.u32(2)
	itemVarDataCount, _ := store.u16(6)

	region, err := store.view(int(variationRegionListOffset), len(store)-int(variationRegionListOffset))
	if err != nil {
		return fmt.Errorf("%w: variation region list out of bounds", parseFail)
	}
	axisCount, _ := region.u16(0)
	regionCount, _ := region.u16(2)
	t.AxisCount = int(axisCount)
	for r := 0; r < int(regionCount); r++ {
		axes := make([]VariationRegionAxis, axisCount)
		for a := 0; a < int(axisCount); a++ {
			base := 4 + (r*int(axisCount)+a)*6
			start, _ := region.u16(base)
			peak, _ := region.u16(base + 2)
			end, _ := region.u16(base + 4)
			axes[a] = VariationRegionAxis{StartCoord: F2Dot14(start), PeakCoord: F2Dot14(peak), EndCoord: F2Dot14(end)}
		}
		t.Regions = append(t.Regions, axes)
	}

	pos := 8
	for i := 0; i < int(itemVarDataCount); i++ {
		dataOffset, err := store.u32(pos)
		pos += 4
		if err != nil {
			break
		}
		data, err := store.view(int(dataOffset), len(store)-int(dataOffset))
		if err != nil {
			continue
		}
		ds, err := parseItemVarDeltaSet(data)
		if err == nil {
			t.DeltaSets = append(t.DeltaSets, ds)
		}
	}
	return nil
}

func parseItemVarDeltaSet(data binarySegm) (ItemVarDeltaSet, error) {
	if len(data) < 6 {
		return ItemVarDeltaSet{}, fmt.Errorf("%w: item variation data header truncated", parseFail)
	}
	itemCount, _ := data.u16(0)
	shortDeltaCount, _ := data.u16(2)
	regionIndexCount, _ := data.u16(4)
	regionIdx := make([]uint16, regionIndexCount)
	for i := 0; i < int(regionIndexCount); i++ {
		v, err := data.u16(6 + i*2)
		if err != nil {
			return ItemVarDeltaSet{}, fmt.Errorf("%w: item variation data region indices truncated", parseFail)
		}
		regionIdx[i] = v
	}
	rowBytes := int(shortDeltaCount)*2 + (int(regionIndexCount)-int(shortDeltaCount))*1
	if rowBytes < 0 {
		rowBytes = int(regionIndexCount) * 2
	}
	rowsStart := 6 + int(regionIndexCount)*2
	rows := make([][]int32, 0, itemCount)
	for i := 0; i < int(itemCount); i++ {
		rowOff := rowsStart + i*rowBytes
		row, err := data.view(rowOff, rowBytes)
		if err != nil {
			break
		}
		values := make([]int32, regionIndexCount)
		p := 0
		for c := 0; c < int(regionIndexCount); c++ {
			if c < int(shortDeltaCount) {
				values[c] = int32(int16(row.U16(p)))
				p += 2
			} else {
				values[c] = int32(int8(row[p]))
				p++
			}
		}
		rows = append(rows, values)
	}
	return ItemVarDeltaSet{RegionIndexes: regionIdx, Rows: rows}, nil
}
