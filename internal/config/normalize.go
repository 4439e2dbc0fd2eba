package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSource()
	c.normalizeManifest()
	c.normalizeEnrichment()
	c.normalizeTTS()
	if err := c.normalizePublish(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}

	derived := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.manifest_dir", &c.Paths.ManifestDir, filepath.Join(c.Paths.DataDir, "manifests")},
		{"paths.raw_dir", &c.Paths.RawDir, filepath.Join(c.Paths.DataDir, "raw")},
		{"paths.audio_dir", &c.Paths.AudioDir, filepath.Join(c.Paths.DataDir, "assets", "audio")},
		{"paths.templates_path", &c.Paths.TemplatesPath, filepath.Join(c.Paths.DataDir, "templates", "prayers_es.json")},
		{"paths.history_db", &c.Paths.HistoryDB, filepath.Join(c.Paths.DataDir, "history.db")},
	}
	for _, d := range derived {
		if strings.TrimSpace(*d.value) == "" {
			*d.value = d.fallback
		}
		if *d.value, err = expandPath(*d.value); err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
	}

	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSource() {
	c.Source.Provider = strings.ToLower(strings.TrimSpace(c.Source.Provider))
	if c.Source.Provider == "" {
		c.Source.Provider = defaultSourceProvider
	}
	c.Source.PDFURLTemplate = strings.TrimSpace(c.Source.PDFURLTemplate)
	if c.Source.PDFURLTemplate == "" {
		c.Source.PDFURLTemplate = defaultPDFURLTemplate
	}
	c.Source.UserAgent = strings.TrimSpace(c.Source.UserAgent)
	if c.Source.UserAgent == "" {
		c.Source.UserAgent = defaultUserAgent
	}
	if c.Source.TimeoutSeconds == 0 {
		c.Source.TimeoutSeconds = defaultSourceTimeout
	}
	c.Source.PDFToTextBinary = strings.TrimSpace(c.Source.PDFToTextBinary)
	if c.Source.PDFToTextBinary == "" {
		c.Source.PDFToTextBinary = defaultPDFToTextBinary
	}
}

func (c *Config) normalizeManifest() {
	c.Manifest.Language = strings.TrimSpace(c.Manifest.Language)
	if c.Manifest.Language == "" {
		c.Manifest.Language = defaultLanguage
	}
	c.Manifest.Title = strings.TrimSpace(c.Manifest.Title)
	if c.Manifest.Title == "" {
		c.Manifest.Title = defaultTitle
	}
	c.Manifest.SourceProvider = strings.TrimSpace(c.Manifest.SourceProvider)
	if c.Manifest.SourceProvider == "" {
		c.Manifest.SourceProvider = defaultManifestProvider
	}
}

// geminiKeyFromEnv returns GEMINI_API_KEY, falling back to GOOGLE_API_KEY.
func geminiKeyFromEnv() string {
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func (c *Config) normalizeEnrichment() {
	c.Enrichment.Producer = strings.ToLower(strings.TrimSpace(c.Enrichment.Producer))
	if c.Enrichment.Producer == "" {
		c.Enrichment.Producer = defaultEnrichmentProducer
	}
	c.Enrichment.APIKey = strings.TrimSpace(c.Enrichment.APIKey)
	if c.Enrichment.APIKey == "" {
		c.Enrichment.APIKey = geminiKeyFromEnv()
	}
	c.Enrichment.BaseURL = strings.TrimSpace(c.Enrichment.BaseURL)
	if c.Enrichment.BaseURL == "" {
		c.Enrichment.BaseURL = defaultEnrichmentBaseURL
	}
	c.Enrichment.Model = strings.TrimSpace(c.Enrichment.Model)
	if c.Enrichment.Model == "" {
		c.Enrichment.Model = defaultEnrichmentModel
	}
	if c.Enrichment.TimeoutSeconds == 0 {
		c.Enrichment.TimeoutSeconds = defaultEnrichmentTimeout
	}
}

func (c *Config) normalizeTTS() {
	c.TTS.APIKey = strings.TrimSpace(c.TTS.APIKey)
	if c.TTS.APIKey == "" {
		c.TTS.APIKey = geminiKeyFromEnv()
	}
	c.TTS.BaseURL = strings.TrimRight(strings.TrimSpace(c.TTS.BaseURL), "/")
	if c.TTS.BaseURL == "" {
		c.TTS.BaseURL = defaultTTSBaseURL
	}
	c.TTS.Model = strings.TrimSpace(c.TTS.Model)
	if c.TTS.Model == "" {
		c.TTS.Model = defaultTTSModel
	}
	c.TTS.PriestVoice = strings.TrimSpace(c.TTS.PriestVoice)
	if c.TTS.PriestVoice == "" {
		c.TTS.PriestVoice = defaultPriestVoice
	}
	c.TTS.LectorVoice = strings.TrimSpace(c.TTS.LectorVoice)
	if c.TTS.LectorVoice == "" {
		c.TTS.LectorVoice = defaultLectorVoice
	}
	c.TTS.StyleProfileID = strings.TrimSpace(c.TTS.StyleProfileID)
	if c.TTS.StyleProfileID == "" {
		c.TTS.StyleProfileID = defaultStyleProfileID
	}
	if strings.TrimSpace(c.TTS.StylePrompt) == "" {
		c.TTS.StylePrompt = DefaultStylePrompt
	}
	if c.TTS.SampleRateHz == 0 {
		c.TTS.SampleRateHz = defaultSampleRateHz
	}
	if c.TTS.Workers == 0 {
		c.TTS.Workers = defaultTTSWorkers
	}
	if c.TTS.TimeoutSeconds == 0 {
		c.TTS.TimeoutSeconds = defaultTTSTimeout
	}
	if c.TTS.MaxAttempts == 0 {
		c.TTS.MaxAttempts = defaultTTSMaxAttempts
	}
	if c.TTS.BaseDelaySeconds == 0 {
		c.TTS.BaseDelaySeconds = defaultTTSBaseDelaySeconds
	}
	if c.TTS.MaxDelaySeconds == 0 {
		c.TTS.MaxDelaySeconds = defaultTTSMaxDelaySeconds
	}
}

func (c *Config) normalizePublish() error {
	c.Publish.Bucket = strings.TrimSpace(c.Publish.Bucket)
	if c.Publish.Bucket == "" {
		if value, ok := os.LookupEnv("MISA_GCS_BUCKET"); ok {
			c.Publish.Bucket = strings.TrimSpace(value)
		}
	}
	c.Publish.Prefix = strings.Trim(strings.TrimSpace(c.Publish.Prefix), "/")
	c.Publish.CredentialsFile = strings.TrimSpace(c.Publish.CredentialsFile)
	if c.Publish.CredentialsFile != "" {
		expanded, err := expandPath(c.Publish.CredentialsFile)
		if err != nil {
			return fmt.Errorf("publish.credentials_file: %w", err)
		}
		c.Publish.CredentialsFile = expanded
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
