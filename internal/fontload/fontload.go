// Package fontload loads font files for use as golden-data fixtures in the
// ot package's tests: the raw container bytes (fed to ot.Parse) alongside a
// golang.org/x/image/font/sfnt view (an independent decoder to cross-check
// metrics and name-table lookups against).
package fontload

import (
	"fmt"
	"os"

	"golang.org/x/image/font/sfnt"
)

// ScalableFont pairs a font's raw container bytes with a parsed sfnt.Font,
// letting tests compare ot's own decoding against a second implementation.
type ScalableFont struct {
	Fontname string
	Binary   []byte
	SFNT     *sfnt.Font
}

// LoadOpenTypeFont reads an OpenType font (TTF, OTF or a TTC member) from disk.
func LoadOpenTypeFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, fmt.Errorf("fontload: %w", err)
	}
	return ParseOpenTypeFont(bytez)
}

// ParseOpenTypeFont decodes an OpenType font already resident in memory.
func ParseOpenTypeFont(fbytes []byte) (*ScalableFont, error) {
	f := &ScalableFont{Binary: fbytes}
	sf, err := sfnt.Parse(f.Binary)
	if err != nil {
		return nil, fmt.Errorf("fontload: %w", err)
	}
	f.SFNT = sf
	name, err := sf.Name(nil, sfnt.NameIDFull)
	if err != nil {
		return nil, fmt.Errorf("fontload: reading name table: %w", err)
	}
	f.Fontname = name
	return f, nil
}
