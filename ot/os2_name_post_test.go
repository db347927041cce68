package ot

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func putU16(b []byte, off int, v uint16) {
	b[off] = byte(v >> 8)
	b[off+1] = byte(v)
}

func putU32(b []byte, off int, v uint32) {
	b[off] = byte(v >> 24)
	b[off+1] = byte(v >> 16)
	b[off+2] = byte(v >> 8)
	b[off+3] = byte(v)
}

func TestParseOS2TooShort(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	ec := &errorCollector{}
	tbl, err := parseOS2(T("OS/2"), make(binarySegm, 10), 0, 10, ec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ec.hasWarnings() {
		t.Fatalf("expected a warning for a too-short OS/2 table")
	}
	if _, ok := tbl.(*OS2Table); ok {
		t.Fatalf("expected a bare Table fallback, not a parsed OS2Table")
	}
}

func TestParseOS2Version2Fields(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	b := make([]byte, 96)
	putU16(b, 0, 2)      // version 2
	putU16(b, 4, 700)    // weight class: bold
	putU16(b, 6, 5)      // width class
	putU16(b, 62, 0x0021) // fsSelection: ITALIC | BOLD
	putU16(b, 68, 1900)  // typo ascender
	putU16(b, 70, 0xfffb) // typo descender (-5, two's complement)
	putU16(b, 86, 520)   // xHeight
	putU16(b, 88, 700)   // capHeight
	ec := &errorCollector{}
	tbl, err := parseOS2(T("OS/2"), binarySegm(b), 0, uint32(len(b)), ec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	os2, ok := tbl.(*OS2Table)
	if !ok {
		t.Fatalf("expected *OS2Table, got %T", tbl)
	}
	if os2.WeightClass != 700 {
		t.Errorf("expected weight class 700, got %d", os2.WeightClass)
	}
	if !os2.IsBold() || !os2.IsItalic() {
		t.Errorf("expected bold+italic from fsSelection 0x0021")
	}
	if os2.IsRegular() {
		t.Errorf("did not expect regular bit set")
	}
	if os2.TypoAscender != 1900 || os2.TypoDescender != -5 {
		t.Errorf("unexpected typo metrics: ascender=%d descender=%d", os2.TypoAscender, os2.TypoDescender)
	}
	if os2.XHeight != 520 || os2.CapHeight != 700 {
		t.Errorf("unexpected v2 metrics: xHeight=%d capHeight=%d", os2.XHeight, os2.CapHeight)
	}
}

func TestParseNameAndLookup(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	value := utf16beBytes("Example Sans")
	header := make([]byte, 6+12)
	putU16(header, 2, 1) // count = 1
	putU16(header, 4, uint16(len(header)))
	rec := header[6:18]
	putU16(rec, 0, 3) // platform Windows
	putU16(rec, 2, 1) // encoding
	putU16(rec, 4, 0x0409)
	putU16(rec, 6, 1) // nameID family
	putU16(rec, 8, uint16(len(value)))
	putU16(rec, 10, 0)
	full := append(header, value...)

	ec := &errorCollector{}
	tbl, err := parseName(T("name"), binarySegm(full), 0, uint32(len(full)), ec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nt, ok := tbl.(*NameTable)
	if !ok {
		t.Fatalf("expected *NameTable, got %T", tbl)
	}
	got, ok := nt.Find(1)
	if !ok || got != "Example Sans" {
		t.Fatalf("expected %q, got %q (ok=%v)", "Example Sans", got, ok)
	}
}

func TestParsePostFormat2GlyphNames(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	b := make([]byte, 34)
	putU32(b, 0, 0x00020000)
	putU32(b, 4, 0) // italic angle
	putU16(b, 32, 1) // numGlyphs = 1
	// glyph name index references the first name after the 258 standard Macintosh names
	idxBytes := []byte{0x01, 0x02} // 258
	b = append(b[:34], idxBytes...)
	pascal := []byte{5, 'H', 'e', 'l', 'l', 'o'}
	b = append(b, pascal...)

	ec := &errorCollector{}
	tbl, err := parsePost(T("post"), binarySegm(b), 0, uint32(len(b)), ec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pt, ok := tbl.(*PostTable)
	if !ok {
		t.Fatalf("expected *PostTable, got %T", tbl)
	}
	name, ok := pt.GlyphName(0)
	if !ok || name != "Hello" {
		t.Fatalf("expected glyph 0 name %q, got %q (ok=%v)", "Hello", name, ok)
	}
	gid, ok := pt.GlyphIndexByName("Hello")
	if !ok || gid != 0 {
		t.Fatalf("expected glyph index 0 for %q, got %d (ok=%v)", "Hello", gid, ok)
	}
}
