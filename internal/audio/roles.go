package audio

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"misa/internal/manifest"
)

// Role selects which voice reads a section.
type Role string

const (
	RolePriest Role = "PRIEST"
	RoleLector Role = "LECTOR"
)

var lectorSections = map[manifest.SectionID]bool{
	manifest.FirstReading:  true,
	manifest.Psalm:         true,
	manifest.SecondReading: true,
}

// RoleFor returns the reader for a section. Everything that is not a reading
// or the psalm is read by the priest.
func RoleFor(id manifest.SectionID) Role {
	if lectorSections[id] {
		return RoleLector
	}
	return RolePriest
}

var closingPhrases = map[manifest.SectionID]string{
	manifest.FirstReading:  "Palabra de Dios.",
	manifest.Psalm:         "Palabra de Dios.",
	manifest.SecondReading: "Palabra de Dios.",
	manifest.Gospel:        "Palabra del Señor.",
}

// ClosingPhrase returns the liturgical acclamation spoken after a section.
func ClosingPhrase(id manifest.SectionID) (string, bool) {
	phrase, ok := closingPhrases[id]
	return phrase, ok
}

// SpokenText returns what the voice reads for a section: the manifest text
// plus its closing phrase, unless the text already ends with it. The manifest
// text itself is never modified.
func SpokenText(id manifest.SectionID, text string) string {
	phrase, ok := ClosingPhrase(id)
	if !ok {
		return text
	}
	trimmed := strings.TrimRightFunc(text, isSpace)
	if strings.HasSuffix(foldTail(trimmed), foldTail(phrase)) {
		return text
	}
	return trimmed + "\n\n" + phrase
}

func foldTail(s string) string {
	return cases.Fold().String(strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}))
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
