/*
Package opentype handles OpenType/TrueType/AAT font containers: parsing the
table directory (including font collections), glyph-geometry (TrueType
`glyf` and CFF/CFF2 charstrings), character-to-glyph mapping, OpenType
Layout's common substrate, the AAT state-table engine, color/bitmap tables,
and font variations, behind a single `Face` facade.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package opentype

import (
	"github.com/npillmayer/otfont/ot"
	"github.com/npillmayer/otfont/otquery"
	"golang.org/x/image/font/sfnt"
)

// FromBinary parses raw OpenType bytes and returns a decoded font.
//
// The input is expected to contain a complete single-font SFNT stream.
// It must not change after parsing for the font to be usable.
func FromBinary(data []byte) (*ot.Font, error) {
	return ot.Parse(data)
}

// ParseFace parses a single font face out of data, dispatching on the
// leading magic number: a bare sfnt is parsed directly (faceIndex must be
// 0), and a 'ttcf' font-collection header is walked to the faceIndex'th
// sub-font first. Errors are always a *ot.FaceParsingError.
func ParseFace(data []byte, faceIndex uint32) (*ot.Font, error) {
	return ot.ParseFace(data, faceIndex)
}

// NewFace parses a face (see ParseFace) and wraps it in the Face facade,
// which resolves metrics, style, glyph geometry, color, and variation
// queries through the fixed-priority source order described for each
// accessor.
func NewFace(data []byte, faceIndex uint32) (*ot.Face, error) {
	return ot.NewFace(data, faceIndex)
}

// FamilyName extracts family and subfamily names from a font's `name` table.
//
// Returned values are empty if no matching records exist or if records cannot be
// decoded by the current name-table reader.
func FamilyName(f *ot.Font) (family, subfamily string) {
	for nameId, stringValue := range otquery.NamesRange(f) {
		switch nameId {
		case sfnt.NameIDFamily:
			family = stringValue
		case sfnt.NameIDSubfamily:
			subfamily = stringValue
		}
	}
	return
}
