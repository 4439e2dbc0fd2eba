package pipeline

import (
	"context"
	"log/slog"
	"time"

	"misa/internal/audio"
	"misa/internal/enrichment"
	"misa/internal/extract"
	"misa/internal/logging"
	"misa/internal/manifest"
	"misa/internal/prayers"
	"misa/internal/services"
	"misa/internal/source"
	"misa/internal/stage"
)

// Stage names as recorded in logs and the history ledger.
const (
	StageExtractBase     = "extract_base"
	StageInjectPrayers   = "inject_prayers"
	StageEnrich          = "enrich"
	StageSynthesizeAudio = "synthesize_audio"
)

// ExtractBase fetches the day's readings and creates the base manifest.
type ExtractBase struct {
	Provider source.Provider
	Options  manifest.BuildOptions
	Logger   *slog.Logger
}

// Name implements stage.Handler.
func (s *ExtractBase) Name() string { return StageExtractBase }

// Ready holds once a manifest with gospel text exists.
func (s *ExtractBase) Ready(doc *manifest.Document) stage.Readiness {
	if doc == nil {
		return stage.Pending("manifest does not exist")
	}
	if !doc.HasText(manifest.Gospel) {
		return stage.Pending("manifest has no gospel text")
	}
	return stage.Satisfied("base readings present")
}

// Run fetches and slices the source text. Sections already present in doc
// (prayers, generated parts) are kept.
func (s *ExtractBase) Run(ctx context.Context, doc *manifest.Document) (*manifest.Document, error) {
	date, ok := services.DateFromContext(ctx)
	if !ok && doc != nil {
		date = doc.Date
	}
	if date == "" {
		return nil, services.Wrap(services.ErrValidation, StageExtractBase, "run", "date missing from context", nil)
	}
	logger := logging.WithContext(ctx, s.Logger)

	fetched, err := s.Provider.Fetch(ctx, date)
	if err != nil {
		return nil, err
	}
	result, err := extract.Extract(fetched.Text)
	if err != nil {
		return nil, err
	}
	for _, warning := range result.Warnings {
		logging.WarnWithContext(logger, "extraction fallback applied", "extraction_fallback",
			logging.String("detail", warning),
			logging.String(logging.FieldErrorHint, "check the source PDF layout for "+date),
		)
	}

	base, err := manifest.BuildFromExtraction(date, fetched.URL, result.Sections, s.Options)
	if err != nil {
		return nil, err
	}
	logger.Info("readings extracted",
		logging.String(logging.FieldEventType, "readings_extracted"),
		logging.String("source_url", fetched.URL),
		logging.Int("sections", len(base.Sections)),
	)
	if doc == nil {
		return base, nil
	}
	doc.Source = base.Source
	if doc.SchemaVersion == "" {
		doc.SchemaVersion = base.SchemaVersion
	}
	manifest.Upsert(doc, base.Sections...)
	return doc, nil
}

// InjectPrayers adds the fixed prayers from the template file.
type InjectPrayers struct {
	TemplatesPath string
}

// Name implements stage.Handler.
func (s *InjectPrayers) Name() string { return StageInjectPrayers }

// Ready holds when every required prayer is present.
func (s *InjectPrayers) Ready(doc *manifest.Document) stage.Readiness {
	if doc == nil {
		return stage.Pending("manifest does not exist")
	}
	return stage.From(prayers.Ready(doc))
}

// Run loads the templates and upserts them.
func (s *InjectPrayers) Run(_ context.Context, doc *manifest.Document) (*manifest.Document, error) {
	if doc == nil {
		return nil, services.Wrap(services.ErrValidation, StageInjectPrayers, "run", "manifest does not exist", nil)
	}
	set, err := prayers.LoadTemplates(s.TemplatesPath)
	if err != nil {
		return nil, err
	}
	if err := prayers.Inject(doc, set); err != nil {
		return nil, err
	}
	return doc, nil
}

// Enrich generates the welcome, homily, reflection, and closing sections.
type Enrich struct {
	Port     enrichment.Port
	Producer string
	Model    string
	Now      func() time.Time
}

// Name implements stage.Handler.
func (s *Enrich) Name() string { return StageEnrich }

// Ready holds when every generated section is present.
func (s *Enrich) Ready(doc *manifest.Document) stage.Readiness {
	if doc == nil {
		return stage.Pending("manifest does not exist")
	}
	return stage.From(enrichment.Ready(doc))
}

// Run asks the producer for a batch and applies it.
func (s *Enrich) Run(ctx context.Context, doc *manifest.Document) (*manifest.Document, error) {
	if s.Port == nil {
		return nil, services.Wrap(services.ErrConfiguration, StageEnrich, "run", "no enrichment producer configured", nil)
	}
	readings, err := enrichment.ReadingsFrom(doc)
	if err != nil {
		return nil, err
	}
	generated, err := s.Port.Generate(ctx, readings)
	if err != nil {
		return nil, err
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	meta := enrichment.Meta{Producer: s.Producer, Model: s.Model, GeneratedAt: now().UTC()}
	if err := enrichment.Apply(doc, generated, meta); err != nil {
		return nil, err
	}
	return doc, nil
}

// SynthesizeAudio renders every section through the audio cache.
type SynthesizeAudio struct {
	Engine *audio.Engine
}

// Name implements stage.Handler.
func (s *SynthesizeAudio) Name() string { return StageSynthesizeAudio }

// Ready holds when every section has current, valid audio.
func (s *SynthesizeAudio) Ready(doc *manifest.Document) stage.Readiness {
	if doc == nil {
		return stage.Pending("manifest does not exist")
	}
	return stage.From(s.Engine.Ready(doc))
}

// Reconcile drops references to missing artifacts before readiness runs.
func (s *SynthesizeAudio) Reconcile(doc *manifest.Document) bool {
	return audio.Reconcile(doc)
}

// Run ensures audio for every section.
func (s *SynthesizeAudio) Run(ctx context.Context, doc *manifest.Document) (*manifest.Document, error) {
	if doc == nil {
		return nil, services.Wrap(services.ErrValidation, StageSynthesizeAudio, "run", "manifest does not exist", nil)
	}
	if _, err := s.Engine.EnsureAudio(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

var (
	_ stage.Handler    = (*ExtractBase)(nil)
	_ stage.Handler    = (*InjectPrayers)(nil)
	_ stage.Handler    = (*Enrich)(nil)
	_ stage.Handler    = (*SynthesizeAudio)(nil)
	_ stage.Reconciler = (*SynthesizeAudio)(nil)
)
