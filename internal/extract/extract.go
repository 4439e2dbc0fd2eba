package extract

import (
	"regexp"
	"strings"

	"misa/internal/manifest"
	"misa/internal/services"
)

// Result holds the extracted section texts and any boundary fallbacks taken.
type Result struct {
	Sections map[manifest.SectionID]string
	Warnings []string
}

var (
	leadingFirstReading = regexp.MustCompile(`^(?i)` + regexp.QuoteMeta(string(MarkerFirstReading)) + `\s*`)
	leadingPsalm        = regexp.MustCompile(`^(?i)` + regexp.QuoteMeta(string(MarkerPsalm)) + `\s*`)
)

// Extract normalizes text and slices it into first_reading, psalm,
// second_reading, and gospel. It fails with a validation error when no
// gospel text can be located.
func Extract(text string) (Result, error) {
	t := manifest.NormalizeText(text)
	pos := index(Scan(t))
	res := Result{Sections: make(map[manifest.SectionID]string, 4)}

	headers := pos[MarkerGospelHeader]
	anchor := -1
	switch {
	case len(headers) >= 2:
		anchor = headers[1]
	case len(headers) == 1:
		anchor = headers[0]
		res.Warnings = append(res.Warnings,
			"gospel header appears once; treating its only occurrence as the gospel section start")
	}

	gospelStart := pos.firstFrom(MarkerGospelText, max(anchor, 0))
	if gospelStart < 0 && anchor >= 0 {
		gospelStart = anchor
		res.Warnings = append(res.Warnings,
			"gospel opening phrase not found; slicing gospel from the section header")
	}

	firstStart := pos.first(MarkerFirstReading)
	psalmStart := pos.first(MarkerPsalm)
	secondStart := pos.first(MarkerSecondReading)

	// Boundaries that can close a reading, in liturgical order.
	cuts := []int{psalmStart, secondStart, anchor, gospelStart}

	if firstStart >= 0 {
		body := slice(t, firstStart, nextCut(firstStart, cuts, len(t)))
		res.set(manifest.FirstReading, leadingFirstReading.ReplaceAllString(body, ""))
	}
	if psalmStart >= 0 {
		body := slice(t, psalmStart, nextCut(psalmStart, cuts[1:], len(t)))
		res.set(manifest.Psalm, leadingPsalm.ReplaceAllString(body, ""))
	}
	if secondStart >= 0 {
		res.set(manifest.SecondReading, slice(t, secondStart, nextCut(secondStart, cuts[2:], len(t))))
	}

	if gospelStart >= 0 {
		end := len(t)
		for _, m := range gospelEndMarkers {
			if off := pos.firstFrom(m, gospelStart); off >= 0 && off < end {
				end = off
			}
		}
		res.set(manifest.Gospel, slice(t, gospelStart, end))
	}

	if res.Sections[manifest.Gospel] == "" {
		return Result{Warnings: res.Warnings}, services.Wrap(services.ErrValidation, "extract", "gospel",
			"could not locate gospel text; check the source markers", nil)
	}
	return res, nil
}

func (r *Result) set(id manifest.SectionID, text string) {
	text = strings.TrimSpace(text)
	if text != "" {
		r.Sections[id] = text
	}
}

// nextCut returns the earliest candidate offset strictly after start, or end.
func nextCut(start int, candidates []int, end int) int {
	cut := end
	for _, c := range candidates {
		if c > start && c < cut {
			cut = c
		}
	}
	return cut
}

func slice(t string, start, end int) string {
	if start < 0 || start >= end {
		return ""
	}
	return strings.TrimSpace(t[start:end])
}
