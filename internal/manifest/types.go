package manifest

import "time"

// SchemaVersion identifies the JSON layout written by this package.
const SchemaVersion = "1.0"

// SectionID names a manifest section.
type SectionID string

const (
	Welcome         SectionID = "welcome"
	FirstReading    SectionID = "first_reading"
	Psalm           SectionID = "psalm"
	SecondReading   SectionID = "second_reading"
	Gospel          SectionID = "gospel"
	Homily          SectionID = "homily"
	Confiteor       SectionID = "confiteor"
	Creed           SectionID = "creed"
	LordsPrayer     SectionID = "lords_prayer"
	FinalReflection SectionID = "final_reflection"
	Closing         SectionID = "closing"
)

// CanonicalOrder is the liturgical order sections are persisted in. Ids
// outside this list follow it in first-insertion order.
var CanonicalOrder = []SectionID{
	Welcome,
	FirstReading,
	Psalm,
	SecondReading,
	Gospel,
	Homily,
	Confiteor,
	Creed,
	LordsPrayer,
	FinalReflection,
	Closing,
}

var canonicalIndex = func() map[SectionID]int {
	idx := make(map[SectionID]int, len(CanonicalOrder))
	for i, id := range CanonicalOrder {
		idx[id] = i
	}
	return idx
}()

// CanonicalIndex returns the position of id in CanonicalOrder.
func CanonicalIndex(id SectionID) (int, bool) {
	i, ok := canonicalIndex[id]
	return i, ok
}

// ReadingIDs are the sections extracted from the daily source.
var ReadingIDs = []SectionID{FirstReading, Psalm, SecondReading, Gospel}

// Section types.
const (
	TypeReading = "reading"
	TypePsalm   = "psalm"
	TypeGospel  = "gospel"
	TypeSpeech  = "speech"
	TypeHomily  = "homily"
	TypePrayer  = "prayer"
)

// Kind is the default type and display title for a known section.
type Kind struct {
	Type  string
	Title string
}

// Kinds maps known section ids to their type and Spanish display title.
var Kinds = map[SectionID]Kind{
	Welcome:         {TypeSpeech, "Bienvenida"},
	FirstReading:    {TypeReading, "Primera lectura"},
	Psalm:           {TypePsalm, "Salmo responsorial"},
	SecondReading:   {TypeReading, "Segunda lectura"},
	Gospel:          {TypeGospel, "Evangelio"},
	Homily:          {TypeHomily, "Homilía"},
	FinalReflection: {TypeSpeech, "Reflexión final"},
	Closing:         {TypeSpeech, "Cierre"},
}

// Document is the persisted manifest for one date.
type Document struct {
	SchemaVersion   string                   `json:"schema_version"`
	Date            string                   `json:"date"`
	Language        string                   `json:"language"`
	Title           string                   `json:"title"`
	Source          SourceInfo               `json:"source"`
	Sections        []Section                `json:"sections"`
	Templates       *TemplatesMeta           `json:"templates,omitempty"`
	GeneratedParts  map[string]GeneratedPart `json:"generated_parts,omitempty"`
	AudioGeneration *AudioGenerationMeta     `json:"audio_generation,omitempty"`
}

// SourceInfo records where the readings came from.
type SourceInfo struct {
	Provider string `json:"provider"`
	PDFURL   string `json:"pdf_url"`
}

// Section is one ordered block of spoken content.
type Section struct {
	ID        SectionID `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	SourceURL string    `json:"source_url"`
	Text      string    `json:"text"`
	TextHash  string    `json:"text_hash"`
	Audio     *AudioRef `json:"audio"`
}

// AudioRef points at the synthesized artifact for a section.
type AudioRef struct {
	Provider       string    `json:"provider"`
	Model          string    `json:"model"`
	VoiceName      string    `json:"voice_name"`
	Role           string    `json:"role"`
	StyleProfileID string    `json:"style_profile_id"`
	AudioHash      string    `json:"audio_hash"`
	MimeType       string    `json:"mime_type"`
	SampleRateHz   int       `json:"sample_rate_hz"`
	Channels       int       `json:"channels"`
	Path           string    `json:"path"`
	CachePath      string    `json:"cache_path"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// TemplatesMeta records which static templates were injected.
type TemplatesMeta struct {
	Source      string      `json:"source"`
	IncludedIDs []SectionID `json:"included_ids"`
}

// GeneratedPart records provenance for sections produced by one producer.
type GeneratedPart struct {
	Model       string      `json:"model"`
	IncludedIDs []SectionID `json:"included_ids"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// AudioGenerationMeta summarizes the last audio stage run.
type AudioGenerationMeta struct {
	LastRunAt      time.Time         `json:"last_run_at"`
	Provider       string            `json:"provider"`
	Model          string            `json:"model"`
	StyleProfileID string            `json:"style_profile_id"`
	Voices         map[string]string `json:"voices"`
	Created        int               `json:"created"`
	Reused         int               `json:"reused"`
}

// Section returns the section with id, if present.
func (d *Document) Section(id SectionID) (*Section, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Sections {
		if d.Sections[i].ID == id {
			return &d.Sections[i], true
		}
	}
	return nil, false
}

// HasText reports whether section id exists with non-blank text.
func (d *Document) HasText(id SectionID) bool {
	s, ok := d.Section(id)
	return ok && s.Text != ""
}
