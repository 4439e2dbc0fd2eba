package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"misa/internal/audio"
	"misa/internal/config"
	"misa/internal/enrichment"
	"misa/internal/history"
	"misa/internal/logging"
	"misa/internal/manifest"
	"misa/internal/pipeline"
	"misa/internal/retry"
	"misa/internal/services"
	"misa/internal/services/llm"
	"misa/internal/services/tts"
	"misa/internal/source"
	"misa/internal/stage"
)

const (
	enrichmentTemperature = 0.5
	ttsProvider           = "gemini-tts"
)

func manifestStore(cfg *config.Config) *manifest.Store {
	return manifest.NewStore(cfg.Paths.ManifestDir)
}

func buildOptions(cfg *config.Config) manifest.BuildOptions {
	return manifest.BuildOptions{
		Language: cfg.Manifest.Language,
		Title:    cfg.Manifest.Title,
		Provider: cfg.Manifest.SourceProvider,
	}
}

// newSourceProvider picks the readings source. A --source-text file always
// wins over the configured provider.
func newSourceProvider(cfg *config.Config, sourceText string, logger *slog.Logger) (source.Provider, error) {
	if path := strings.TrimSpace(sourceText); path != "" {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return nil, err
		}
		return source.FileProvider{Path: expanded}, nil
	}
	switch cfg.Source.Provider {
	case "file":
		return nil, services.Wrap(services.ErrConfiguration, "source", "select provider",
			"source.provider is \"file\" but no --source-text was given", nil)
	default:
		return source.NewPDFProvider(source.PDFConfig{
			URLTemplate:     cfg.Source.PDFURLTemplate,
			UserAgent:       cfg.Source.UserAgent,
			RawDir:          cfg.Paths.RawDir,
			PDFToTextBinary: cfg.Source.PDFToTextBinary,
			Timeout:         cfg.SourceTimeout(),
		}, source.WithLogger(logger)), nil
	}
}

func newEnrichmentPort(cfg *config.Config, logger *slog.Logger) enrichment.Port {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.Enrichment.APIKey,
		BaseURL:        cfg.Enrichment.BaseURL,
		Model:          cfg.Enrichment.Model,
		Temperature:    enrichmentTemperature,
		TimeoutSeconds: cfg.Enrichment.TimeoutSeconds,
	}, llm.WithLogger(logging.NewComponentLogger(logger, "llm")))
	return enrichment.NewLLMGenerator(client, logger)
}

func ttsRetryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.TTS.MaxAttempts,
		BaseDelay:   time.Duration(cfg.TTS.BaseDelaySeconds) * time.Second,
		MaxDelay:    time.Duration(cfg.TTS.MaxDelaySeconds) * time.Second,
	}
}

func newAudioEngine(cfg *config.Config, logger *slog.Logger) (*audio.Engine, error) {
	client := tts.NewClient(tts.Config{
		APIKey:         cfg.TTS.APIKey,
		BaseURL:        cfg.TTS.BaseURL,
		Model:          cfg.TTS.Model,
		TimeoutSeconds: cfg.TTS.TimeoutSeconds,
	})
	synth := audio.SynthesizerFunc(func(ctx context.Context, req audio.Request) ([]byte, error) {
		return client.Synthesize(ctx, tts.Request(req))
	})
	return audio.NewEngine(synth, audio.Options{
		Root:           cfg.Paths.AudioDir,
		Provider:       ttsProvider,
		Model:          client.Model(),
		PriestVoice:    cfg.TTS.PriestVoice,
		LectorVoice:    cfg.TTS.LectorVoice,
		StyleProfileID: cfg.TTS.StyleProfileID,
		StylePrompt:    cfg.TTS.StylePrompt,
		SampleRateHz:   cfg.TTS.SampleRateHz,
		Workers:        cfg.TTS.Workers,
		Retry:          ttsRetryPolicy(cfg),
		Logger:         logging.NewComponentLogger(logger, "audio"),
	})
}

// newStages assembles the pipeline in its fixed order.
func newStages(cfg *config.Config, provider source.Provider, logger *slog.Logger) ([]stage.Handler, error) {
	engine, err := newAudioEngine(cfg, logger)
	if err != nil {
		return nil, err
	}
	return []stage.Handler{
		&pipeline.ExtractBase{
			Provider: provider,
			Options:  buildOptions(cfg),
			Logger:   logging.NewComponentLogger(logger, "extract"),
		},
		&pipeline.InjectPrayers{TemplatesPath: cfg.Paths.TemplatesPath},
		&pipeline.Enrich{
			Port:     newEnrichmentPort(cfg, logging.NewComponentLogger(logger, "enrichment")),
			Producer: cfg.Enrichment.Producer,
			Model:    cfg.Enrichment.Model,
		},
		&pipeline.SynthesizeAudio{Engine: engine},
	}, nil
}

// newOrchestrator wires the full pipeline. The caller closes the returned
// history store.
func newOrchestrator(cfg *config.Config, sourceText string, logger *slog.Logger) (*pipeline.Orchestrator, *history.Store, error) {
	provider, err := newSourceProvider(cfg, sourceText, logging.NewComponentLogger(logger, "source"))
	if err != nil {
		return nil, nil, err
	}
	stages, err := newStages(cfg, provider, logger)
	if err != nil {
		return nil, nil, err
	}
	ledger, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return nil, nil, err
	}
	orch := pipeline.New(manifestStore(cfg), stages,
		pipeline.WithHistory(ledger),
		pipeline.WithLogger(logging.NewComponentLogger(logger, "pipeline")),
	)
	return orch, ledger, nil
}
