package ot

import (
	"errors"
	"testing"
)

func TestParseFaceUnknownMagicShortInput(t *testing.T) {
	_, err := ParseFace([]byte{0x00, 0x01}, 0)
	fpe, ok := err.(*FaceParsingError)
	if !ok {
		t.Fatalf("expected *FaceParsingError, got %T", err)
	}
	if fpe.Kind != UnknownMagic {
		t.Fatalf("expected UnknownMagic, got %s", fpe.Kind)
	}
}

func TestParseFaceUnknownMagicBadTag(t *testing.T) {
	b := make([]byte, 16)
	b[0], b[1], b[2], b[3] = 'B', 'A', 'D', '!'
	_, err := ParseFace(b, 0)
	fpe, ok := err.(*FaceParsingError)
	if !ok {
		t.Fatalf("expected *FaceParsingError, got %T", err)
	}
	if fpe.Kind != UnknownMagic {
		t.Fatalf("expected UnknownMagic, got %s", fpe.Kind)
	}
}

func TestParseFaceNonZeroIndexForBareSfnt(t *testing.T) {
	b := make([]byte, 16)
	b[0], b[1], b[2], b[3] = 'O', 'T', 'T', 'O'
	_, err := ParseFace(b, 1)
	fpe, ok := err.(*FaceParsingError)
	if !ok {
		t.Fatalf("expected *FaceParsingError, got %T", err)
	}
	if fpe.Kind != FaceIndexOutOfBounds {
		t.Fatalf("expected FaceIndexOutOfBounds, got %s", fpe.Kind)
	}
}

func TestParseFaceCollectionTruncatedHeader(t *testing.T) {
	b := make([]byte, 10)
	b[0], b[1], b[2], b[3] = 't', 't', 'c', 'f'
	_, err := ParseFace(b, 0)
	fpe, ok := err.(*FaceParsingError)
	if !ok {
		t.Fatalf("expected *FaceParsingError, got %T", err)
	}
	if fpe.Kind != MalformedFont {
		t.Fatalf("expected MalformedFont, got %s", fpe.Kind)
	}
}

func TestParseFaceCollectionIndexOutOfBounds(t *testing.T) {
	b := make([]byte, 16)
	b[0], b[1], b[2], b[3] = 't', 't', 'c', 'f'
	// numFonts = 1 at offset 8
	b[11] = 1
	_, err := ParseFace(b, 5)
	fpe, ok := err.(*FaceParsingError)
	if !ok {
		t.Fatalf("expected *FaceParsingError, got %T", err)
	}
	if fpe.Kind != FaceIndexOutOfBounds {
		t.Fatalf("expected FaceIndexOutOfBounds, got %s", fpe.Kind)
	}
}

func TestParseFaceCollectionNestedTTCRejected(t *testing.T) {
	b := make([]byte, 20)
	b[0], b[1], b[2], b[3] = 't', 't', 'c', 'f'
	b[11] = 1 // numFonts = 1
	// offset table entry at byte 12: points to byte 16
	b[15] = 16
	b[16], b[17], b[18], b[19] = 't', 't', 'c', 'f'
	_, err := ParseFace(b, 0)
	fpe, ok := err.(*FaceParsingError)
	if !ok {
		t.Fatalf("expected *FaceParsingError, got %T", err)
	}
	if fpe.Kind != UnknownMagic {
		t.Fatalf("expected UnknownMagic for nested collection, got %s", fpe.Kind)
	}
}

func TestFaceParsingErrorString(t *testing.T) {
	e := faceErr(NoHeadTable, "missing 'head'")
	if e.Error() != "NoHeadTable: missing 'head'" {
		t.Fatalf("unexpected error string: %s", e.Error())
	}
	e2 := faceErr(NoHheaTable, "")
	if e2.Error() != "NoHheaTable" {
		t.Fatalf("unexpected bare error string: %s", e2.Error())
	}
}

func TestClassifyParseErrorMapsMandatoryTables(t *testing.T) {
	cases := []struct {
		msg  string
		kind FaceParsingErrorKind
	}{
		{"missing mandatory table head", NoHeadTable},
		{"missing mandatory table hhea", NoHheaTable},
		{"missing mandatory table maxp", NoMaxpTable},
		{"font type not supported", UnknownMagic},
		{"something else entirely", MalformedFont},
	}
	for _, c := range cases {
		err := classifyParseError(errors.New(c.msg))
		fpe, ok := err.(*FaceParsingError)
		if !ok {
			t.Fatalf("expected *FaceParsingError for %q, got %T", c.msg, err)
		}
		if fpe.Kind != c.kind {
			t.Errorf("%q: expected %s, got %s", c.msg, c.kind, fpe.Kind)
		}
	}
}
