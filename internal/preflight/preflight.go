package preflight

import (
	"context"

	"misa/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects the optional checks.
type Options struct {
	// Probe issues live API calls in addition to the local checks.
	Probe bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Manifest directory", cfg.Paths.ManifestDir),
		CheckDirectoryAccess("Audio directory", cfg.Paths.AudioDir),
	}
	if cfg.Source.Provider == "pdf" {
		results = append(results, CheckDirectoryAccess("Raw source directory", cfg.Paths.RawDir))
	}
	results = append(results, CheckTemplates(cfg.Paths.TemplatesPath))
	results = append(results, CheckLocale(cfg.Manifest.Language))
	results = append(results, CheckSystemDeps(cfg)...)
	results = append(results, CheckCredential("Enrichment API key", cfg.Enrichment.APIKey))
	results = append(results, CheckCredential("TTS API key", cfg.TTS.APIKey))

	if cfg.Publish.Enabled {
		results = append(results, CheckPublish(cfg.Publish))
	}
	if opts.Probe {
		results = append(results, CheckLLM(ctx, "Enrichment LLM", cfg.Enrichment))
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
