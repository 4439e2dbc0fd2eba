package manifest

// Upsert merges sections into doc by id and rebuilds the section list in
// canonical order. A replacement that carries the same text hash but no audio
// keeps the audio already attached, so re-running a producer never discards a
// valid artifact. second_reading is dropped when its text is blank.
func Upsert(doc *Document, sections ...Section) {
	byID := make(map[SectionID]Section, len(doc.Sections)+len(sections))
	var extras []SectionID

	remember := func(s Section) {
		if _, seen := byID[s.ID]; !seen {
			if _, canonical := CanonicalIndex(s.ID); !canonical {
				extras = append(extras, s.ID)
			}
		}
		byID[s.ID] = s
	}

	for _, s := range doc.Sections {
		remember(s)
	}
	for _, s := range sections {
		if prev, ok := byID[s.ID]; ok && s.Audio == nil && prev.TextHash == s.TextHash {
			s.Audio = prev.Audio
		}
		remember(s)
	}

	rebuilt := make([]Section, 0, len(byID))
	for _, id := range CanonicalOrder {
		s, ok := byID[id]
		if !ok {
			continue
		}
		if id == SecondReading && NormalizeText(s.Text) == "" {
			continue
		}
		rebuilt = append(rebuilt, s)
	}
	for _, id := range extras {
		rebuilt = append(rebuilt, byID[id])
	}
	doc.Sections = rebuilt
}
