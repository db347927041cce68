package ot

import "golang.org/x/text/language"

// windowsLangID maps the Windows LCIDs used by platform-3 'name' records to
// BCP-47 tags. OpenType Microsoft Language IDs are a subset of the
// Windows LCID space; only the entries actually seen in font name tables
// in the wild are listed here.
var windowsLangID = map[uint16]string{
	0x0409: "en-US",
	0x0809: "en-GB",
	0x0407: "de-DE",
	0x0c07: "de-AT",
	0x0807: "de-CH",
	0x040c: "fr-FR",
	0x080c: "fr-BE",
	0x0c0c: "fr-CA",
	0x0410: "it-IT",
	0x0c0a: "es-ES",
	0x080a: "es-MX",
	0x0416: "pt-BR",
	0x0816: "pt-PT",
	0x0413: "nl-NL",
	0x0406: "da-DK",
	0x041d: "sv-SE",
	0x0414: "nb-NO",
	0x040b: "fi-FI",
	0x0415: "pl-PL",
	0x0419: "ru-RU",
	0x0411: "ja-JP",
	0x0412: "ko-KR",
	0x0804: "zh-CN",
	0x0404: "zh-TW",
	0x041f: "tr-TR",
	0x0408: "el-GR",
}

// macLangID maps the handful of Macintosh platform (1) language codes that
// still turn up in legacy fonts to BCP-47 tags.
var macLangID = map[uint16]string{
	0:  "en",
	1:  "fr",
	2:  "de",
	3:  "it",
	4:  "nl",
	5:  "sv",
	6:  "es",
	11: "ja",
	12: "ar",
	19: "pt",
	23: "zh",
	33: "ko",
}

// languageTag resolves a name-record's (platformID, languageID) pair to a
// BCP-47 language.Tag. Unicode-platform (0) records carry no language
// distinction in practice and resolve to language.Und.
func languageTag(platformID, languageID uint16) language.Tag {
	switch platformID {
	case 3:
		if s, ok := windowsLangID[languageID]; ok {
			if t, err := language.Parse(s); err == nil {
				return t
			}
		}
	case 1:
		if s, ok := macLangID[languageID]; ok {
			if t, err := language.Parse(s); err == nil {
				return t
			}
		}
	}
	return language.Und
}

// FindForLanguage returns the best-matching decoded value for nameID among
// records whose language tag best matches pref, using language.Matcher
// semantics (exact match, then same base language, then fallback to any
// decodable record for nameID).
func (t *NameTable) FindForLanguage(nameID uint16, pref language.Tag) (string, bool) {
	if t == nil {
		return "", false
	}
	var tags []language.Tag
	var recs []NameRecord
	for _, rec := range t.Records {
		if rec.NameID != nameID {
			continue
		}
		if _, ok := t.String(rec); !ok {
			continue
		}
		tags = append(tags, languageTag(rec.PlatformID, rec.LanguageID))
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		return "", false
	}
	matcher := language.NewMatcher(tags)
	_, index, _ := matcher.Match(pref)
	s, ok := t.String(recs[index])
	return s, ok
}
