package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"misa/internal/fileutil"
	"misa/internal/logging"
	"misa/internal/manifest"
	"misa/internal/retry"
	"misa/internal/services"
)

// Request is one synthesis call.
type Request struct {
	Text        string
	VoiceName   string
	Model       string
	StylePrompt string
}

// Synthesizer renders text to raw 16-bit mono PCM. Implementations make one
// attempt per call; the engine owns retries.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// SynthesizerFunc adapts a function to Synthesizer.
type SynthesizerFunc func(ctx context.Context, req Request) ([]byte, error)

// Synthesize calls f.
func (f SynthesizerFunc) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	return f(ctx, req)
}

// Options configures an Engine.
type Options struct {
	Root           string
	Provider       string
	Model          string
	PriestVoice    string
	LectorVoice    string
	StyleProfileID string
	StylePrompt    string
	SampleRateHz   int
	Workers        int
	Retry          retry.Policy

	// Sleeper replaces the backoff wait (tests).
	Sleeper func(time.Duration)
	Now     func() time.Time
	Logger  *slog.Logger
}

// Report summarizes one EnsureAudio run.
type Report struct {
	Created int
	Reused  int
	Linked  int
	Skipped int
}

// Engine owns the audio cache for one synthesis configuration.
type Engine struct {
	opts   Options
	synth  Synthesizer
	layout Layout
	logger *slog.Logger
}

// NewEngine validates opts and returns an engine backed by synth.
func NewEngine(synth Synthesizer, opts Options) (*Engine, error) {
	if synth == nil {
		return nil, errors.New("audio engine: synthesizer is required")
	}
	if strings.TrimSpace(opts.Root) == "" {
		return nil, errors.New("audio engine: root directory is required")
	}
	for name, value := range map[string]string{
		"model":            opts.Model,
		"priest voice":     opts.PriestVoice,
		"lector voice":     opts.LectorVoice,
		"style profile id": opts.StyleProfileID,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("audio engine: %s is required", name)
		}
	}
	if opts.Provider == "" {
		opts.Provider = "gemini-tts"
	}
	if opts.SampleRateHz <= 0 {
		opts.SampleRateHz = 24000
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		opts:   opts,
		synth:  synth,
		layout: Layout{Root: opts.Root},
		logger: logger,
	}, nil
}

// Layout returns the artifact layout the engine writes to.
func (e *Engine) Layout() Layout {
	return e.layout
}

// VoiceFor returns the configured voice for a section's role.
func (e *Engine) VoiceFor(id manifest.SectionID) (Role, string) {
	role := RoleFor(id)
	if role == RoleLector {
		return role, e.opts.LectorVoice
	}
	return role, e.opts.PriestVoice
}

type target struct {
	index     int
	id        manifest.SectionID
	role      Role
	voice     string
	text      string
	hash      string
	cachePath string
	dailyPath string
	existing  *manifest.AudioRef
}

type outcome struct {
	ref     *manifest.AudioRef
	created bool
	reused  bool
	linked  bool
}

func (e *Engine) plan(doc *manifest.Document) ([]target, int) {
	targets := make([]target, 0, len(doc.Sections))
	skipped := 0
	for i, s := range doc.Sections {
		if s.Text == "" || s.TextHash == "" {
			skipped++
			continue
		}
		role, voice := e.VoiceFor(s.ID)
		hash := AudioHash(s.TextHash, e.opts.Model, voice, e.opts.StyleProfileID)
		targets = append(targets, target{
			index:     i,
			id:        s.ID,
			role:      role,
			voice:     voice,
			text:      SpokenText(s.ID, s.Text),
			hash:      hash,
			cachePath: e.layout.CachePath(e.opts.StyleProfileID, voice, hash),
			dailyPath: e.layout.DailyPath(doc.Date, s.ID),
			existing:  s.Audio,
		})
	}
	return targets, skipped
}

// EnsureAudio makes sure every section with text has a cached rendering and a
// daily copy, then attaches the references to doc. On error doc is unchanged.
func (e *Engine) EnsureAudio(ctx context.Context, doc *manifest.Document) (Report, error) {
	targets, skipped := e.plan(doc)
	results := make([]outcome, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, t := range targets {
		g.Go(func() error {
			res, err := e.ensureOne(gctx, doc.Date, t)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{Skipped: skipped}
	for i, t := range targets {
		res := results[i]
		doc.Sections[t.index].Audio = res.ref
		switch {
		case res.created:
			report.Created++
		case res.reused:
			report.Reused++
		}
		if res.linked {
			report.Linked++
		}
	}
	doc.AudioGeneration = &manifest.AudioGenerationMeta{
		LastRunAt:      e.opts.Now().UTC(),
		Provider:       e.opts.Provider,
		Model:          e.opts.Model,
		StyleProfileID: e.opts.StyleProfileID,
		Voices: map[string]string{
			string(RolePriest): e.opts.PriestVoice,
			string(RoleLector): e.opts.LectorVoice,
		},
		Created: report.Created,
		Reused:  report.Reused,
	}
	e.logger.Info("audio ensured",
		logging.String(logging.FieldEventType, "audio_ensured"),
		logging.String(logging.FieldDate, doc.Date),
		logging.Int("created", report.Created),
		logging.Int("reused", report.Reused),
		logging.Int("linked", report.Linked),
		logging.Int("skipped", report.Skipped),
	)
	return report, nil
}

func (e *Engine) ensureOne(ctx context.Context, date string, t target) (outcome, error) {
	ctx = services.WithSection(ctx, string(t.id))
	logger := logging.WithContext(ctx, e.logger).With(
		logging.String(logging.FieldSection, string(t.id)),
		logging.String("voice", t.voice),
	)

	var res outcome
	if ValidWAV(t.cachePath) {
		res.reused = true
	} else {
		if err := e.render(ctx, logger, t); err != nil {
			return outcome{}, err
		}
		res.created = true
	}

	same, err := fileutil.SameContent(t.cachePath, t.dailyPath)
	if err != nil {
		return outcome{}, services.Wrap(services.ErrSynthesis, "audio", "compare daily copy", t.dailyPath, err)
	}
	if !same {
		if err := fileutil.LinkOrCopy(t.cachePath, t.dailyPath); err != nil {
			return outcome{}, services.Wrap(services.ErrSynthesis, "audio", "place daily copy", t.dailyPath, err)
		}
		res.linked = true
	}

	if res.reused && e.matches(t.existing, t) {
		res.ref = t.existing
		return res, nil
	}
	res.ref = &manifest.AudioRef{
		Provider:       e.opts.Provider,
		Model:          e.opts.Model,
		VoiceName:      t.voice,
		Role:           string(t.role),
		StyleProfileID: e.opts.StyleProfileID,
		AudioHash:      t.hash,
		MimeType:       MimeType,
		SampleRateHz:   e.opts.SampleRateHz,
		Channels:       Channels,
		Path:           filepath.ToSlash(t.dailyPath),
		CachePath:      filepath.ToSlash(t.cachePath),
		GeneratedAt:    e.opts.Now().UTC(),
	}
	return res, nil
}

// matches reports whether an existing reference already describes t.
func (e *Engine) matches(ref *manifest.AudioRef, t target) bool {
	return ref != nil &&
		ref.AudioHash == t.hash &&
		ref.VoiceName == t.voice &&
		ref.CachePath == filepath.ToSlash(t.cachePath) &&
		ref.Path == filepath.ToSlash(t.dailyPath)
}

func (e *Engine) render(ctx context.Context, logger *slog.Logger, t target) error {
	req := Request{
		Text:        t.text,
		VoiceName:   t.voice,
		Model:       e.opts.Model,
		StylePrompt: e.opts.StylePrompt,
	}
	opts := []retry.Option{retry.OnRetry(func(attempt int, delay time.Duration, err error) {
		logger.Warn("synthesis attempt failed; retrying",
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
	})}
	if e.opts.Sleeper != nil {
		opts = append(opts, retry.WithSleeper(e.opts.Sleeper))
	}

	started := time.Now()
	pcm, err := retry.Do(ctx, e.opts.Retry, nil, func(ctx context.Context) ([]byte, error) {
		return e.synth.Synthesize(ctx, req)
	}, opts...)
	if err != nil {
		return services.Wrap(services.ErrSynthesis, "audio", "synthesize", fmt.Sprintf("section %s", t.id), err)
	}
	if err := WriteWAV(t.cachePath, pcm, e.opts.SampleRateHz); err != nil {
		return services.Wrap(services.ErrSynthesis, "audio", "write cache", t.cachePath, err)
	}
	logger.Info("section synthesized",
		logging.String(logging.FieldEventType, "audio_created"),
		logging.String("audio_hash", t.hash),
		logging.Int("pcm_bytes", len(pcm)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}
