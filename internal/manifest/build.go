package manifest

import (
	"fmt"
	"time"

	"misa/internal/services"
)

// DateLayout is the ISO calendar date used for document keys and file names.
const DateLayout = "2006-01-02"

// BuildOptions carries document-level metadata for new manifests.
type BuildOptions struct {
	Language string
	Title    string
	Provider string
}

// ParseDate validates an ISO date key and returns it in canonical form.
func ParseDate(value string) (string, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "manifest", "parse date", fmt.Sprintf("invalid date %q", value), err)
	}
	return t.Format(DateLayout), nil
}

// BuildFromExtraction creates a minimal manifest holding exactly the
// extracted reading sections that have text. The gospel is mandatory.
func BuildFromExtraction(date, sourceURL string, texts map[SectionID]string, opts BuildOptions) (*Document, error) {
	key, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	if NormalizeText(texts[Gospel]) == "" {
		return nil, services.Wrap(services.ErrValidation, "manifest", "build", "gospel text is empty", nil)
	}

	doc := &Document{
		SchemaVersion: SchemaVersion,
		Date:          key,
		Language:      opts.Language,
		Title:         opts.Title,
		Source:        SourceInfo{Provider: opts.Provider, PDFURL: sourceURL},
	}
	sections := make([]Section, 0, len(ReadingIDs))
	for _, id := range ReadingIDs {
		text := NormalizeText(texts[id])
		if text == "" {
			continue
		}
		kind := Kinds[id]
		sections = append(sections, NewSection(id, kind.Type, kind.Title, sourceURL, text))
	}
	Upsert(doc, sections...)
	return doc, nil
}
