package ot

// Fixed-point number formats used throughout OpenType binary tables.
//
// Grounded on the same bit-level conventions the teacher's own table parsers
// already apply ad-hoc (e.g. HeadTable's UnitsPerEm, OS2Table's various
// signed/unsigned fields in ot.go); this file gives the two recurring
// fixed-point shapes — F2Dot14 and Fixed16.16 — names and a single
// saturating conversion rule, so glyf/cff/variations can share one
// definition instead of re-deriving it per table.

// F2Dot14 is a 2.14 signed fixed-point number, used for variation
// coordinates, transform matrices in composite glyphs, and in many variation
// tables (avar, gvar tuple deltas).
type F2Dot14 int16

// Float64 converts a 2.14 fixed-point value to floating point.
func (f F2Dot14) Float64() float64 {
	return float64(f) / (1 << 14)
}

// F2Dot14FromFloat64 converts a float into a 2.14 fixed-point value,
// truncating toward zero and saturating at the format's range.
func F2Dot14FromFloat64(v float64) F2Dot14 {
	const max, min = 1.99993896484375, -2.0
	if v > max {
		v = max
	}
	if v < min {
		v = min
	}
	return F2Dot14(v * (1 << 14))
}

// Fixed16Dot16 is a 16.16 signed fixed-point number, used for 'head'
// fontRevision and in variation-store scale computations.
type Fixed16Dot16 int32

// Float64 converts a 16.16 fixed-point value to floating point.
func (f Fixed16Dot16) Float64() float64 {
	return float64(f) / (1 << 16)
}

// saturatingInt32Max and saturatingInt32Min are the bounds this package uses for float-to-int
// coordinate conversions (e.g. glyph outline point scaling) so an
// out-of-range or NaN input cannot wrap around into a bogus, wildly
// different coordinate. 2147483520 is the same bound HarfBuzz and FreeType
// apply when rounding float coordinates into their internal 32-bit types.
const saturatingInt32Max = 2147483520
const saturatingInt32Min = -2147483520

// saturateToInt32 clamps v into [-2147483520, 2147483520] and truncates it
// toward zero, returning 0 for NaN.
func saturateToInt32(v float64) int32 {
	if v != v { // NaN
		return 0
	}
	if v > saturatingInt32Max {
		return saturatingInt32Max
	}
	if v < saturatingInt32Min {
		return saturatingInt32Min
	}
	return int32(v)
}

// saturateToInt16 clamps v into the int16 range, used when combining two
// int16-valued table fields (e.g. a side bearing and a bounding-box extent)
// whose sum could in principle overflow.
func saturateToInt16(v int64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// clampFloat restricts v to [lo, hi], treating NaN as lo.
func clampFloat(v, lo, hi float64) float64 {
	if v != v { // NaN
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
