package extract

import (
	"regexp"
	"sort"
)

// Marker is a phrase that delimits a section in the source text.
type Marker string

const (
	MarkerFirstReading  Marker = "primera lectura"
	MarkerPsalm         Marker = "salmo de hoy"
	MarkerSecondReading Marker = "segunda lectura"

	// MarkerGospelHeader appears as the page header and again at the gospel block.
	MarkerGospelHeader Marker = "evangelio del día"

	// MarkerGospelText opens the gospel's literal text.
	MarkerGospelText Marker = "lectura del santo evangelio"

	MarkerGospelVideo      Marker = "evangelio de hoy en vídeo"
	MarkerGospelReflection Marker = "reflexión del evangelio de hoy"
)

var allMarkers = []Marker{
	MarkerFirstReading,
	MarkerPsalm,
	MarkerSecondReading,
	MarkerGospelHeader,
	MarkerGospelText,
	MarkerGospelVideo,
	MarkerGospelReflection,
}

// gospelEndMarkers close the gospel slice.
var gospelEndMarkers = []Marker{MarkerGospelVideo, MarkerGospelReflection}

var markerPatterns = func() map[Marker]*regexp.Regexp {
	out := make(map[Marker]*regexp.Regexp, len(allMarkers))
	for _, m := range allMarkers {
		out[m] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(string(m)))
	}
	return out
}()

// Token is one marker occurrence.
type Token struct {
	Marker Marker
	Start  int
	End    int
}

// Scan returns every marker occurrence in text ordered by offset.
func Scan(text string) []Token {
	var tokens []Token
	for _, m := range allMarkers {
		for _, loc := range markerPatterns[m].FindAllStringIndex(text, -1) {
			tokens = append(tokens, Token{Marker: m, Start: loc[0], End: loc[1]})
		}
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].Start < tokens[j].Start
	})
	return tokens
}

// positions indexes token offsets by marker.
type positions map[Marker][]int

func index(tokens []Token) positions {
	p := make(positions)
	for _, tok := range tokens {
		p[tok.Marker] = append(p[tok.Marker], tok.Start)
	}
	return p
}

func (p positions) first(m Marker) int {
	if offs := p[m]; len(offs) > 0 {
		return offs[0]
	}
	return -1
}

// firstFrom returns the first offset of m at or after from.
func (p positions) firstFrom(m Marker, from int) int {
	for _, off := range p[m] {
		if off >= from {
			return off
		}
	}
	return -1
}
