package enrichment

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"misa/internal/manifest"
	"misa/internal/services"
)

// GeneratedIDs are the sections a producer must return, in canonical order.
var GeneratedIDs = []manifest.SectionID{
	manifest.Welcome,
	manifest.Homily,
	manifest.FinalReflection,
	manifest.Closing,
}

// Readings is the context handed to a producer.
type Readings struct {
	Date          string
	Language      string
	FirstReading  string
	Psalm         string
	SecondReading string
	Gospel        string
}

// Generated is one section returned by a producer.
type Generated struct {
	ID    manifest.SectionID `json:"id"`
	Type  string             `json:"type"`
	Title string             `json:"title"`
	Text  string             `json:"text"`
}

// Port produces the generated sections for a day's readings.
type Port interface {
	Generate(ctx context.Context, readings Readings) ([]Generated, error)
}

// PortFunc adapts a function to Port.
type PortFunc func(ctx context.Context, readings Readings) ([]Generated, error)

// Generate calls f.
func (f PortFunc) Generate(ctx context.Context, readings Readings) ([]Generated, error) {
	return f(ctx, readings)
}

// Meta identifies who produced a batch.
type Meta struct {
	Producer    string
	Model       string
	GeneratedAt time.Time
}

// ReadingsFrom collects the reading texts from doc. The gospel is required.
func ReadingsFrom(doc *manifest.Document) (Readings, error) {
	if !doc.HasText(manifest.Gospel) {
		return Readings{}, services.Wrap(services.ErrValidation, "enrichment", "collect readings",
			"manifest has no gospel text to generate from", nil)
	}
	text := func(id manifest.SectionID) string {
		if s, ok := doc.Section(id); ok {
			return s.Text
		}
		return ""
	}
	return Readings{
		Date:          doc.Date,
		Language:      doc.Language,
		FirstReading:  text(manifest.FirstReading),
		Psalm:         text(manifest.Psalm),
		SecondReading: text(manifest.SecondReading),
		Gospel:        text(manifest.Gospel),
	}, nil
}

// Apply validates a generated batch and upserts it into doc. Any violation
// returns ErrEnrichment and leaves doc unchanged.
func Apply(doc *manifest.Document, generated []Generated, meta Meta) error {
	if err := validateBatch(generated); err != nil {
		return err
	}
	producer := strings.TrimSpace(meta.Producer)
	if producer == "" {
		return services.Wrap(services.ErrEnrichment, "enrichment", "apply", "producer name is empty", nil)
	}

	sourceURL := "generated:" + producer
	sections := make([]manifest.Section, 0, len(generated))
	for _, g := range generated {
		sections = append(sections, manifest.NewSection(
			g.ID,
			strings.TrimSpace(g.Type),
			strings.TrimSpace(g.Title),
			sourceURL,
			g.Text,
		))
	}
	manifest.Upsert(doc, sections...)

	at := meta.GeneratedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if doc.GeneratedParts == nil {
		doc.GeneratedParts = make(map[string]manifest.GeneratedPart, 1)
	}
	doc.GeneratedParts[producer] = manifest.GeneratedPart{
		Model:       meta.Model,
		IncludedIDs: slices.Clone(GeneratedIDs),
		GeneratedAt: at,
	}
	return nil
}

func validateBatch(generated []Generated) error {
	seen := make(map[manifest.SectionID]struct{}, len(generated))
	for _, g := range generated {
		if !slices.Contains(GeneratedIDs, g.ID) {
			return rejected(fmt.Sprintf("unexpected section id %q", g.ID))
		}
		if _, dup := seen[g.ID]; dup {
			return rejected(fmt.Sprintf("section %q returned twice", g.ID))
		}
		seen[g.ID] = struct{}{}

		for field, value := range map[string]string{"type": g.Type, "title": g.Title, "text": g.Text} {
			if strings.TrimSpace(value) == "" {
				return rejected(fmt.Sprintf("section %q has an empty %s", g.ID, field))
			}
			if strings.Contains(value, "```") {
				return rejected(fmt.Sprintf("section %q %s contains markdown fencing", g.ID, field))
			}
		}
		if manifest.NormalizeText(g.Text) == "" {
			return rejected(fmt.Sprintf("section %q has an empty text", g.ID))
		}
	}
	for _, id := range GeneratedIDs {
		if _, ok := seen[id]; !ok {
			return rejected(fmt.Sprintf("section %q missing from response", id))
		}
	}
	return nil
}

func rejected(msg string) error {
	return services.Wrap(services.ErrEnrichment, "enrichment", "validate", msg, nil)
}

// Ready reports whether every generated section is present with text.
func Ready(doc *manifest.Document) (bool, string) {
	for _, id := range GeneratedIDs {
		if !doc.HasText(id) {
			return false, fmt.Sprintf("missing generated section %s", id)
		}
	}
	return true, "generated sections present"
}
