package audio

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"misa/internal/manifest"
	"misa/internal/retry"
	"misa/internal/services"
)

type statusErr int

func (e statusErr) Error() string   { return http.StatusText(int(e)) }
func (e statusErr) HTTPStatus() int { return int(e) }

type fakeSynth struct {
	mu       sync.Mutex
	calls    atomic.Int32
	requests []Request
	fail     func(req Request, call int32) error
}

func (f *fakeSynth) Synthesize(_ context.Context, req Request) ([]byte, error) {
	call := f.calls.Add(1)
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.fail != nil {
		if err := f.fail(req, call); err != nil {
			return nil, err
		}
	}
	pcm := make([]byte, 480)
	for i := range pcm {
		pcm[i] = byte(len(req.Text) + i)
	}
	return pcm, nil
}

func testDoc(t *testing.T) *manifest.Document {
	t.Helper()
	doc, err := manifest.BuildFromExtraction("2025-03-02", "https://example.test/x.pdf", map[manifest.SectionID]string{
		manifest.FirstReading: "Lectura del libro del Eclesiástico.",
		manifest.Psalm:        "Es bueno darte gracias, Señor.",
		manifest.Gospel:       "Lectura del santo evangelio según san Lucas.\n\nPalabra del Señor",
	}, manifest.BuildOptions{Language: "es-CO"})
	if err != nil {
		t.Fatalf("BuildFromExtraction: %v", err)
	}
	return doc
}

func newTestEngine(t *testing.T, synth Synthesizer, root string) *Engine {
	t.Helper()
	engine, err := NewEngine(synth, Options{
		Root:           root,
		Model:          "tts-model",
		PriestVoice:    "Charon",
		LectorVoice:    "Kore",
		StyleProfileID: "style_v1",
		StylePrompt:    "Voz serena.",
		Workers:        2,
		Retry:          retry.Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second},
		Sleeper:        func(time.Duration) {},
		Now:            func() time.Time { return time.Date(2025, 3, 2, 6, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func TestRoleForAndSpokenText(t *testing.T) {
	if RoleFor(manifest.Psalm) != RoleLector || RoleFor(manifest.Gospel) != RolePriest || RoleFor("custom") != RolePriest {
		t.Fatal("unexpected role assignment")
	}
	if got := SpokenText(manifest.FirstReading, "Lectura."); got != "Lectura.\n\nPalabra de Dios." {
		t.Fatalf("unexpected spoken text %q", got)
	}
	already := "Lectura del santo evangelio.\n\nPALABRA DEL SEÑOR"
	if got := SpokenText(manifest.Gospel, already); got != already {
		t.Fatalf("closing phrase duplicated: %q", got)
	}
	for _, ending := range []string{"Palabra de Dios!", "Palabra de Dios…", "palabra de dios ;"} {
		text := "Lectura del libro del Génesis.\n\n" + ending
		if got := SpokenText(manifest.FirstReading, text); got != text {
			t.Fatalf("closing phrase duplicated after %q: %q", ending, got)
		}
	}
	if got := SpokenText(manifest.Homily, "Hermanos."); got != "Hermanos." {
		t.Fatalf("homily should not get a closing phrase: %q", got)
	}
}

func TestAudioHashCoversEveryInput(t *testing.T) {
	base := AudioHash("t", "m", "v", "s")
	for _, other := range []string{
		AudioHash("t2", "m", "v", "s"),
		AudioHash("t", "m2", "v", "s"),
		AudioHash("t", "m", "v2", "s"),
		AudioHash("t", "m", "v", "s2"),
	} {
		if other == base {
			t.Fatal("audio hash ignored an input")
		}
	}
	if len(base) != 64 || base != AudioHash("t", "m", "v", "s") {
		t.Fatalf("unexpected hash %q", base)
	}
}

func TestWriteWAVProducesValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b.wav")
	if err := WriteWAV(path, make([]byte, 4800), 24000); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	if !ValidWAV(path) {
		t.Fatal("expected valid wav")
	}
	if err := WriteWAV(path, []byte{1, 2, 3}, 24000); err == nil {
		t.Fatal("expected odd-length pcm to be rejected")
	}
	bad := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(bad, []byte("not a wav"), 0o644); err != nil {
		t.Fatal(err)
	}
	if ValidWAV(bad) {
		t.Fatal("garbage should not be a valid wav")
	}
}

func TestEnsureAudioCreatesThenReuses(t *testing.T) {
	root := t.TempDir()
	synth := &fakeSynth{}
	engine := newTestEngine(t, synth, root)
	doc := testDoc(t)

	report, err := engine.EnsureAudio(context.Background(), doc)
	if err != nil {
		t.Fatalf("EnsureAudio: %v", err)
	}
	if report.Created != 3 || report.Reused != 0 || report.Linked != 3 {
		t.Fatalf("unexpected first report %+v", report)
	}
	for _, s := range doc.Sections {
		if s.Audio == nil || !ArtifactReady(s.Audio) {
			t.Fatalf("section %s missing audio", s.ID)
		}
		if !strings.HasSuffix(s.Audio.Path, "by-date/2025-03-02/"+string(s.ID)+".wav") {
			t.Fatalf("unexpected daily path %s", s.Audio.Path)
		}
	}
	psalm, _ := doc.Section(manifest.Psalm)
	if psalm.Audio.VoiceName != "Kore" || psalm.Audio.Role != "LECTOR" || psalm.Audio.SampleRateHz != 24000 {
		t.Fatalf("unexpected psalm audio %+v", psalm.Audio)
	}
	for _, req := range synth.requests {
		if strings.Count(req.Text, "Palabra del Señor") > 1 {
			t.Fatalf("closing phrase duplicated in %q", req.Text)
		}
	}
	if doc.AudioGeneration == nil || doc.AudioGeneration.Created != 3 || doc.AudioGeneration.Voices["PRIEST"] != "Charon" {
		t.Fatalf("unexpected audio_generation %+v", doc.AudioGeneration)
	}
	if ready, reason := engine.Ready(doc); !ready {
		t.Fatalf("expected ready, got %s", reason)
	}

	first := *psalm.Audio
	report, err = engine.EnsureAudio(context.Background(), doc)
	if err != nil {
		t.Fatalf("second EnsureAudio: %v", err)
	}
	if report.Created != 0 || report.Reused != 3 || report.Linked != 0 {
		t.Fatalf("unexpected second report %+v", report)
	}
	if synth.calls.Load() != 3 {
		t.Fatalf("expected no new synthesis calls, got %d", synth.calls.Load())
	}
	psalm, _ = doc.Section(manifest.Psalm)
	if *psalm.Audio != first {
		t.Fatal("reused reference should be kept verbatim")
	}
}

func TestEnsureAudioRestoresDailyCopy(t *testing.T) {
	root := t.TempDir()
	engine := newTestEngine(t, &fakeSynth{}, root)
	doc := testDoc(t)
	if _, err := engine.EnsureAudio(context.Background(), doc); err != nil {
		t.Fatalf("EnsureAudio: %v", err)
	}
	daily := engine.Layout().DailyPath(doc.Date, manifest.Gospel)
	if err := os.Remove(daily); err != nil {
		t.Fatal(err)
	}
	if !Reconcile(doc) {
		t.Fatal("expected reconcile to clear the gospel reference")
	}
	gospel, _ := doc.Section(manifest.Gospel)
	if gospel.Audio != nil {
		t.Fatal("gospel reference should be cleared")
	}
	if ready, _ := engine.Ready(doc); ready {
		t.Fatal("document should not be ready after reconcile")
	}

	report, err := engine.EnsureAudio(context.Background(), doc)
	if err != nil {
		t.Fatalf("EnsureAudio: %v", err)
	}
	if report.Created != 0 || report.Reused != 3 || report.Linked != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if !ValidWAV(daily) {
		t.Fatal("daily copy was not restored")
	}
}

func TestEnsureAudioRetriesTransientFailures(t *testing.T) {
	synth := &fakeSynth{fail: func(_ Request, call int32) error {
		if call <= 2 {
			return statusErr(http.StatusTooManyRequests)
		}
		return nil
	}}
	engine := newTestEngine(t, synth, t.TempDir())
	doc := testDoc(t)
	doc.Sections = doc.Sections[len(doc.Sections)-1:]

	report, err := engine.EnsureAudio(context.Background(), doc)
	if err != nil {
		t.Fatalf("EnsureAudio: %v", err)
	}
	if report.Created != 1 || synth.calls.Load() != 3 {
		t.Fatalf("expected 3 calls and 1 created, got %d calls %+v", synth.calls.Load(), report)
	}
}

func TestEnsureAudioFailureLeavesDocumentUntouched(t *testing.T) {
	synth := &fakeSynth{fail: func(req Request, _ int32) error {
		if req.VoiceName == "Kore" {
			return statusErr(http.StatusBadRequest)
		}
		return nil
	}}
	engine := newTestEngine(t, synth, t.TempDir())
	doc := testDoc(t)

	_, err := engine.EnsureAudio(context.Background(), doc)
	if !errors.Is(err, services.ErrSynthesis) {
		t.Fatalf("expected synthesis error, got %v", err)
	}
	for _, s := range doc.Sections {
		if s.Audio != nil {
			t.Fatalf("section %s gained audio despite failure", s.ID)
		}
	}
	if doc.AudioGeneration != nil {
		t.Fatal("audio_generation should not be written on failure")
	}
}

func TestEngineReadyDetectsVoiceChange(t *testing.T) {
	root := t.TempDir()
	engine := newTestEngine(t, &fakeSynth{}, root)
	doc := testDoc(t)
	if _, err := engine.EnsureAudio(context.Background(), doc); err != nil {
		t.Fatalf("EnsureAudio: %v", err)
	}
	changed, err := NewEngine(&fakeSynth{}, Options{
		Root: root, Model: "tts-model", PriestVoice: "Puck", LectorVoice: "Kore", StyleProfileID: "style_v1",
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if ready, reason := changed.Ready(doc); ready || !strings.Contains(reason, "stale") {
		t.Fatalf("expected stale audio, got %v %q", ready, reason)
	}
}

func TestStatsGroupsByStyleAndVoice(t *testing.T) {
	root := t.TempDir()
	engine := newTestEngine(t, &fakeSynth{}, root)
	if _, err := engine.EnsureAudio(context.Background(), testDoc(t)); err != nil {
		t.Fatalf("EnsureAudio: %v", err)
	}
	stats, err := Stats(root)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Entries != 3 || stats.Days != 1 || len(stats.Groups) != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.Groups[0].Voice != "Charon" || stats.Groups[0].Entries != 1 || stats.Groups[1].Entries != 2 {
		t.Fatalf("unexpected groups %+v", stats.Groups)
	}

	empty, err := Stats(filepath.Join(root, "missing"))
	if err != nil || empty.Entries != 0 {
		t.Fatalf("expected empty stats, got %+v %v", empty, err)
	}
}
