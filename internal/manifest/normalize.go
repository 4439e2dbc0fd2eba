package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	horizontalSpace = regexp.MustCompile(`[^\S\n]+`)
	blankRuns       = regexp.MustCompile(`\n{3,}`)
)

// NormalizeText canonicalizes section text: NFC composition, LF line endings,
// single spaces, trimmed lines, at most one blank line between paragraphs, and
// no leading or trailing whitespace. It is idempotent.
func NormalizeText(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = horizontalSpace.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// TextHash fingerprints a section's identity and normalized content.
func TextHash(id SectionID, sectionType, text string) string {
	return sha256Hex(string(id) + "|" + sectionType + "|" + NormalizeText(text))
}

// NewSection builds a normalized, hashed section without audio.
func NewSection(id SectionID, sectionType, title, sourceURL, text string) Section {
	normalized := NormalizeText(text)
	return Section{
		ID:        id,
		Type:      strings.TrimSpace(sectionType),
		Title:     strings.TrimSpace(title),
		SourceURL: strings.TrimSpace(sourceURL),
		Text:      normalized,
		TextHash:  TextHash(id, strings.TrimSpace(sectionType), normalized),
	}
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
