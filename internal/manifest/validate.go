package manifest

import (
	"fmt"
	"maps"
	"slices"

	"misa/internal/services"
)

// Validate checks the persisted invariants: date key, unique ids, canonical
// order, a non-empty gospel, normalized text, and consistent text hashes.
func (d *Document) Validate() error {
	if d == nil {
		return invalid("document is nil")
	}
	if d.SchemaVersion == "" {
		return invalid("schema_version is empty")
	}
	if _, err := ParseDate(d.Date); err != nil {
		return err
	}

	seen := make(map[SectionID]struct{}, len(d.Sections))
	lastCanonical := -1
	inExtras := false
	for _, s := range d.Sections {
		if s.ID == "" {
			return invalid("section with empty id")
		}
		if _, dup := seen[s.ID]; dup {
			return invalid(fmt.Sprintf("duplicate section id %q", s.ID))
		}
		seen[s.ID] = struct{}{}

		if idx, ok := CanonicalIndex(s.ID); ok {
			if inExtras || idx < lastCanonical {
				return invalid(fmt.Sprintf("section %q is out of canonical order", s.ID))
			}
			lastCanonical = idx
		} else {
			inExtras = true
		}

		if s.Text != NormalizeText(s.Text) {
			return invalid(fmt.Sprintf("section %q text is not normalized", s.ID))
		}
		if s.TextHash != TextHash(s.ID, s.Type, s.Text) {
			return invalid(fmt.Sprintf("section %q text_hash does not match its text", s.ID))
		}
		if s.ID == SecondReading && s.Text == "" {
			return invalid("second_reading is present but blank")
		}
		if s.Audio != nil && (s.Audio.AudioHash == "" || s.Audio.CachePath == "" || s.Audio.Path == "") {
			return invalid(fmt.Sprintf("section %q has an incomplete audio reference", s.ID))
		}
	}

	if !d.HasText(Gospel) {
		return invalid("gospel section is missing or empty")
	}
	return nil
}

func invalid(msg string) error {
	return services.Wrap(services.ErrValidation, "manifest", "validate", msg, nil)
}

// Clone returns a deep copy so a stage can mutate freely and discard on failure.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Sections = make([]Section, len(d.Sections))
	for i, s := range d.Sections {
		if s.Audio != nil {
			ref := *s.Audio
			s.Audio = &ref
		}
		out.Sections[i] = s
	}
	if d.Templates != nil {
		tm := *d.Templates
		tm.IncludedIDs = slices.Clone(d.Templates.IncludedIDs)
		out.Templates = &tm
	}
	if d.GeneratedParts != nil {
		out.GeneratedParts = make(map[string]GeneratedPart, len(d.GeneratedParts))
		for k, v := range d.GeneratedParts {
			v.IncludedIDs = slices.Clone(v.IncludedIDs)
			out.GeneratedParts[k] = v
		}
	}
	if d.AudioGeneration != nil {
		ag := *d.AudioGeneration
		ag.Voices = maps.Clone(d.AudioGeneration.Voices)
		out.AudioGeneration = &ag
	}
	return &out
}
