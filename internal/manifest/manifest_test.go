package manifest

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"misa/internal/services"
)

func TestNormalizeText(t *testing.T) {
	in := "  Lectura\r\ndel  libro\t de Isaías \r\n\r\n\r\n\n  En aquel tiempo  \rdijo "
	want := "Lectura\ndel libro de Isaías\n\nEn aquel tiempo\ndijo"
	got := NormalizeText(in)
	if got != want {
		t.Fatalf("NormalizeText = %q, want %q", got, want)
	}
	if again := NormalizeText(got); again != got {
		t.Fatalf("NormalizeText not idempotent: %q", again)
	}
}

func TestNormalizeTextComposesUnicode(t *testing.T) {
	decomposed := "Sen\u0303or"
	if got := NormalizeText(decomposed); got != "Se\u00f1or" {
		t.Fatalf("expected NFC composition, got %q", got)
	}
}

func TestTextHashStability(t *testing.T) {
	base := TextHash(Gospel, TypeGospel, "En aquel tiempo")
	if base != TextHash(Gospel, TypeGospel, "  En   aquel\ttiempo \r\n") {
		t.Fatal("hash should ignore differences removed by normalization")
	}
	if base == TextHash(Gospel, TypeGospel, "En aquel tiempo.") {
		t.Fatal("hash should change when normalized text changes")
	}
	if base == TextHash(Homily, TypeGospel, "En aquel tiempo") {
		t.Fatal("hash should include the section id")
	}
	if base == TextHash(Gospel, TypeReading, "En aquel tiempo") {
		t.Fatal("hash should include the section type")
	}
}

func TestBuildFromExtraction(t *testing.T) {
	doc, err := BuildFromExtraction("2025-12-14", "https://example.org/14-12-2025.pdf", map[SectionID]string{
		Gospel:        "Evangelio  text",
		FirstReading:  "Primera\r\ntext",
		SecondReading: "   ",
	}, BuildOptions{Language: "es-CO", Title: "Misa Virtual", Provider: "dominicos.org"})
	if err != nil {
		t.Fatalf("BuildFromExtraction: %v", err)
	}
	if got := ids(doc); !reflect.DeepEqual(got, []SectionID{FirstReading, Gospel}) {
		t.Fatalf("unexpected sections %v", got)
	}
	if doc.SchemaVersion != SchemaVersion || doc.Language != "es-CO" || doc.Source.Provider != "dominicos.org" {
		t.Fatalf("unexpected header: %+v", doc)
	}
	gospel, _ := doc.Section(Gospel)
	if gospel.Text != "Evangelio text" || gospel.Title != "Evangelio" || gospel.Type != TypeGospel {
		t.Fatalf("unexpected gospel: %+v", gospel)
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("built document should validate: %v", err)
	}
}

func TestBuildFromExtractionRequiresGospel(t *testing.T) {
	_, err := BuildFromExtraction("2025-12-14", "src", map[SectionID]string{FirstReading: "x", Gospel: " \n "}, BuildOptions{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := BuildFromExtraction("14-12-2025", "src", map[SectionID]string{Gospel: "x"}, BuildOptions{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected invalid date to fail validation, got %v", err)
	}
}

func TestUpsertCanonicalOrderRegardlessOfInsertion(t *testing.T) {
	doc := &Document{}
	Upsert(doc,
		NewSection(Closing, TypeSpeech, "Cierre", "generated:gemini", "adiós"),
		NewSection("announcements", TypeSpeech, "Avisos", "manual", "avisos"),
		NewSection(Gospel, TypeGospel, "Evangelio", "src", "evangelio"),
		NewSection("offertory", TypePrayer, "Ofertorio", "manual", "ofrenda"),
		NewSection(Welcome, TypeSpeech, "Bienvenida", "generated:gemini", "hola"),
		NewSection(SecondReading, TypeReading, "Segunda lectura", "src", ""),
	)
	want := []SectionID{Welcome, Gospel, Closing, "announcements", "offertory"}
	if got := ids(doc); !reflect.DeepEqual(got, want) {
		t.Fatalf("sections = %v, want %v", got, want)
	}

	Upsert(doc, NewSection(Psalm, TypePsalm, "Salmo", "src", "salmo"), NewSection("announcements", TypeSpeech, "Avisos", "manual", "nuevo"))
	want = []SectionID{Welcome, Psalm, Gospel, Closing, "announcements", "offertory"}
	if got := ids(doc); !reflect.DeepEqual(got, want) {
		t.Fatalf("sections after second upsert = %v, want %v", got, want)
	}
	if s, _ := doc.Section("announcements"); s.Text != "nuevo" {
		t.Fatalf("replacement not applied: %q", s.Text)
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	doc, err := BuildFromExtraction("2025-12-14", "src", map[SectionID]string{Gospel: "g", Psalm: "p"}, BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	incoming := []Section{
		NewSection(Creed, TypePrayer, "Credo", "template:creed", "Creo en Dios"),
		NewSection(Confiteor, TypePrayer, "Yo confieso", "template:confiteor", "Yo confieso"),
	}
	Upsert(doc, incoming...)
	first := doc.Clone()
	Upsert(doc, incoming...)
	if !reflect.DeepEqual(first, doc) {
		t.Fatal("second upsert changed the document")
	}
}

func TestUpsertDropsBlankSecondReading(t *testing.T) {
	doc, _ := BuildFromExtraction("2025-12-14", "src", map[SectionID]string{Gospel: "g", SecondReading: "s"}, BuildOptions{})
	Upsert(doc, NewSection(SecondReading, TypeReading, "Segunda lectura", "src", " "))
	if _, ok := doc.Section(SecondReading); ok {
		t.Fatal("blank second_reading should be dropped")
	}
}

func TestUpsertKeepsAudioForUnchangedText(t *testing.T) {
	doc, _ := BuildFromExtraction("2025-12-14", "src", map[SectionID]string{Gospel: "g"}, BuildOptions{})
	gospel, _ := doc.Section(Gospel)
	gospel.Audio = &AudioRef{AudioHash: "abc", Path: "daily.wav", CachePath: "cache.wav", GeneratedAt: time.Unix(0, 0).UTC()}

	Upsert(doc, NewSection(Gospel, TypeGospel, "Evangelio", "src", "g"))
	if s, _ := doc.Section(Gospel); s.Audio == nil || s.Audio.AudioHash != "abc" {
		t.Fatal("audio should survive an identical re-upsert")
	}

	Upsert(doc, NewSection(Gospel, TypeGospel, "Evangelio", "src", "changed"))
	if s, _ := doc.Section(Gospel); s.Audio != nil {
		t.Fatal("audio should be cleared when text changes")
	}
}

func TestValidateDetectsViolations(t *testing.T) {
	valid := func() *Document {
		doc, _ := BuildFromExtraction("2025-12-14", "src", map[SectionID]string{Gospel: "g", Psalm: "p"}, BuildOptions{})
		return doc
	}
	cases := map[string]func(*Document){
		"duplicate": func(d *Document) { d.Sections = append(d.Sections, d.Sections[0]) },
		"order":     func(d *Document) { d.Sections[0], d.Sections[1] = d.Sections[1], d.Sections[0] },
		"hash":      func(d *Document) { d.Sections[0].TextHash = "bogus" },
		"normalize": func(d *Document) { d.Sections[0].Text = " p " },
		"gospel":    func(d *Document) { d.Sections = d.Sections[:1] },
		"date":      func(d *Document) { d.Date = "yesterday" },
		"audio":     func(d *Document) { d.Sections[1].Audio = &AudioRef{AudioHash: "x"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			doc := valid()
			mutate(doc)
			if err := doc.Validate(); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	doc, _ := BuildFromExtraction("2025-12-14", "src", map[SectionID]string{Gospel: "g"}, BuildOptions{})
	doc.Sections[0].Audio = &AudioRef{AudioHash: "a"}
	doc.Templates = &TemplatesMeta{IncludedIDs: []SectionID{Creed}}
	doc.GeneratedParts = map[string]GeneratedPart{"gemini": {IncludedIDs: []SectionID{Homily}}}
	doc.AudioGeneration = &AudioGenerationMeta{Voices: map[string]string{"PRIEST": "Charon"}}

	clone := doc.Clone()
	clone.Sections[0].Audio.AudioHash = "b"
	clone.Templates.IncludedIDs[0] = Welcome
	clone.GeneratedParts["gemini"].IncludedIDs[0] = Closing
	clone.AudioGeneration.Voices["PRIEST"] = "Orus"

	if doc.Sections[0].Audio.AudioHash != "a" ||
		doc.Templates.IncludedIDs[0] != Creed ||
		doc.GeneratedParts["gemini"].IncludedIDs[0] != Homily ||
		doc.AudioGeneration.Voices["PRIEST"] != "Charon" {
		t.Fatal("mutating the clone leaked into the original")
	}
}

func ids(doc *Document) []SectionID {
	out := make([]SectionID, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		out = append(out, s.ID)
	}
	return out
}
