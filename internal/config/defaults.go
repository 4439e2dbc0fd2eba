package config

const (
	defaultConfigPath          = "~/.config/misa/config.toml"
	defaultDataDir             = "~/.local/share/misa"
	defaultLogDir              = "~/.local/share/misa/logs"
	defaultSourceProvider      = "pdf"
	defaultPDFURLTemplate      = "https://www.dominicos.org/predicacion/pdf-evangelio-del-dia/{day}-{month}-{year}.pdf"
	defaultUserAgent           = "MisaVirtualBot/1.0"
	defaultSourceTimeout       = 60
	defaultPDFToTextBinary     = "pdftotext"
	defaultLanguage            = "es-CO"
	defaultTitle               = "Misa Virtual"
	defaultManifestProvider    = "dominicos.org"
	defaultEnrichmentProducer  = "gemini"
	defaultEnrichmentBaseURL   = "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions"
	defaultEnrichmentModel     = "gemini-2.5-flash"
	defaultEnrichmentTimeout   = 90
	defaultTTSBaseURL          = "https://generativelanguage.googleapis.com/v1beta"
	defaultTTSModel            = "gemini-2.5-flash-preview-tts"
	defaultPriestVoice         = "Charon"
	defaultLectorVoice         = "Kore"
	defaultStyleProfileID      = "priest_es_co_v1"
	defaultSampleRateHz        = 24000
	defaultTTSWorkers          = 3
	defaultTTSTimeout          = 120
	defaultTTSMaxAttempts      = 6
	defaultTTSBaseDelaySeconds = 2
	defaultTTSMaxDelaySeconds  = 30
	defaultPublishPrefix       = "misa"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// DefaultStylePrompt is the director note sent ahead of every transcript. Changing
// it materially should come with a new style_profile_id so cached audio is not reused.
const DefaultStylePrompt = "PERFIL DE AUDIO: Voz serena, cálida y pastoral, como un sacerdote en una iglesia. " +
	"Acento español colombiano (es-CO), dicción clara, ritmo moderado, pausas naturales.\n" +
	"NOTAS DEL DIRECTOR: Evita dramatización excesiva. Mantén reverencia. " +
	"En lecturas bíblicas, tono proclamativo; en oraciones, tono devocional; en homilía, tono cercano y esperanzador."

// Default returns a Config populated with repository defaults. Derived paths
// (manifest, raw, audio, templates, history) are filled from data_dir during
// normalization when left empty.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Source: Source{
			Provider:        defaultSourceProvider,
			PDFURLTemplate:  defaultPDFURLTemplate,
			UserAgent:       defaultUserAgent,
			TimeoutSeconds:  defaultSourceTimeout,
			PDFToTextBinary: defaultPDFToTextBinary,
		},
		Manifest: Manifest{
			Language:       defaultLanguage,
			Title:          defaultTitle,
			SourceProvider: defaultManifestProvider,
		},
		Enrichment: Enrichment{
			Producer:       defaultEnrichmentProducer,
			BaseURL:        defaultEnrichmentBaseURL,
			Model:          defaultEnrichmentModel,
			TimeoutSeconds: defaultEnrichmentTimeout,
		},
		TTS: TTS{
			BaseURL:          defaultTTSBaseURL,
			Model:            defaultTTSModel,
			PriestVoice:      defaultPriestVoice,
			LectorVoice:      defaultLectorVoice,
			StyleProfileID:   defaultStyleProfileID,
			StylePrompt:      DefaultStylePrompt,
			SampleRateHz:     defaultSampleRateHz,
			Workers:          defaultTTSWorkers,
			TimeoutSeconds:   defaultTTSTimeout,
			MaxAttempts:      defaultTTSMaxAttempts,
			BaseDelaySeconds: defaultTTSBaseDelaySeconds,
			MaxDelaySeconds:  defaultTTSMaxDelaySeconds,
		},
		Publish: Publish{
			Prefix: defaultPublishPrefix,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
