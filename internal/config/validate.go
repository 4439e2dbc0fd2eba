package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable. Credentials are not required
// here; stages that need them report a configuration error when they run.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateManifest(); err != nil {
		return err
	}
	if err := c.validateEnrichment(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSource() error {
	switch c.Source.Provider {
	case "pdf", "file":
	default:
		return fmt.Errorf("source.provider must be pdf or file, got %q", c.Source.Provider)
	}
	for _, token := range []string{"{day}", "{month}", "{year}"} {
		if !strings.Contains(c.Source.PDFURLTemplate, token) {
			return fmt.Errorf("source.pdf_url_template must contain %s", token)
		}
	}
	if c.Source.TimeoutSeconds < 0 {
		return errors.New("source.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateManifest() error {
	if _, err := language.Parse(c.Manifest.Language); err != nil {
		return fmt.Errorf("manifest.language %q is not a valid BCP 47 tag: %w", c.Manifest.Language, err)
	}
	return nil
}

func (c *Config) validateEnrichment() error {
	if !isPathToken(c.Enrichment.Producer) {
		return fmt.Errorf("enrichment.producer %q must be a simple identifier", c.Enrichment.Producer)
	}
	if _, err := url.ParseRequestURI(c.Enrichment.BaseURL); err != nil {
		return fmt.Errorf("enrichment.base_url: %w", err)
	}
	if c.Enrichment.TimeoutSeconds < 0 {
		return errors.New("enrichment.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateTTS() error {
	if _, err := url.ParseRequestURI(c.TTS.BaseURL); err != nil {
		return fmt.Errorf("tts.base_url: %w", err)
	}
	// Voice names and the style profile become cache directory names.
	for key, value := range map[string]string{
		"tts.priest_voice":     c.TTS.PriestVoice,
		"tts.lector_voice":     c.TTS.LectorVoice,
		"tts.style_profile_id": c.TTS.StyleProfileID,
	} {
		if !isPathToken(value) {
			return fmt.Errorf("%s %q must contain only letters, digits, '-', '_' or '.'", key, value)
		}
	}
	if c.TTS.SampleRateHz <= 0 {
		return errors.New("tts.sample_rate_hz must be positive")
	}
	if c.TTS.Workers < 1 {
		return errors.New("tts.workers must be at least 1")
	}
	if c.TTS.MaxAttempts < 1 {
		return errors.New("tts.max_attempts must be at least 1")
	}
	if c.TTS.BaseDelaySeconds < 0 || c.TTS.MaxDelaySeconds < 0 {
		return errors.New("tts retry delays must not be negative")
	}
	if c.TTS.MaxDelaySeconds < c.TTS.BaseDelaySeconds {
		return errors.New("tts.max_delay_seconds must be >= tts.base_delay_seconds")
	}
	if c.TTS.TimeoutSeconds < 0 {
		return errors.New("tts.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validatePublish() error {
	if !c.Publish.Enabled {
		return nil
	}
	if c.Publish.Bucket == "" {
		return errors.New("publish.bucket must be set when publish.enabled is true (or set MISA_GCS_BUCKET)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	return nil
}

func isPathToken(value string) bool {
	if value == "" || value == "." || value == ".." {
		return false
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
