package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"misa/internal/history"
	"misa/internal/prayers"
	"misa/internal/services"
	"misa/internal/testsupport"
)

const generatedSections = `{"language":"es-CO","sections":[
	{"id":"welcome","type":"speech","title":"Bienvenida","text":"Bienvenidos a la celebración."},
	{"id":"homily","type":"homily","title":"Homilía","text":"Hermanos, el árbol se conoce por sus frutos."},
	{"id":"final_reflection","type":"speech","title":"Reflexión final","text":"Llevemos esta palabra a casa."},
	{"id":"closing","type":"speech","title":"Despedida","text":"Podemos ir en paz."}]}`

type cliTestEnv struct {
	baseDir    string
	configPath string
	textPath   string
	llmCalls   *atomic.Int32
	ttsCalls   *atomic.Int32
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("MISA_GCS_BUCKET", "")

	env := &cliTestEnv{
		baseDir:  base,
		llmCalls: new(atomic.Int32),
		ttsCalls: new(atomic.Int32),
	}

	llmServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		env.llmCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": generatedSections}}},
		})
	}))
	t.Cleanup(llmServer.Close)

	pcm := make([]byte, 960)
	for i := range pcm {
		pcm[i] = byte(i)
	}
	ttsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.ttsCalls.Add(1)
		if r.Header.Get("x-goog-api-key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{
					"inlineData": map[string]any{"mimeType": "audio/L16;rate=24000", "data": base64.StdEncoding.EncodeToString(pcm)},
				}}},
			}},
		})
	}))
	t.Cleanup(ttsServer.Close)

	data := filepath.Join(base, "data")
	templates := filepath.Join(data, "templates", "prayers_es.json")
	if _, err := prayers.WriteDefault(templates); err != nil {
		t.Fatalf("write templates: %v", err)
	}
	env.textPath = testsupport.WriteReadings(t, base)

	env.configPath = filepath.Join(base, "config.toml")
	writeTestConfig(t, env.configPath, data, filepath.Join(base, "logs"), templates, llmServer.URL, ttsServer.URL)
	return env
}

func writeTestConfig(t *testing.T, path, dataDir, logDir, templates, llmURL, ttsURL string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
templates_path = %q

[source]
provider = "file"

[enrichment]
api_key = "test-key"
base_url = %q

[tts]
api_key = "test-key"
base_url = %q
workers = 2
max_attempts = 1

[logging]
level = "error"
`, dataDir, logDir, templates, llmURL, ttsURL)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func decodeJSON(t *testing.T, out string, target any) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), target); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
}

func TestRunBuildsAndResumes(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run", "--date", "2025-03-02", "--source-text", env.textPath, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	var first runJSON
	decodeJSON(t, out, &first)
	if !first.Changed || len(first.Outcomes) != 4 {
		t.Fatalf("unexpected first run: %+v", first)
	}
	for _, o := range first.Outcomes {
		if o.Status != string(history.StatusCompleted) {
			t.Fatalf("stage %s status %s, want completed", o.Stage, o.Status)
		}
	}
	if env.llmCalls.Load() != 1 {
		t.Fatalf("llm calls = %d, want 1", env.llmCalls.Load())
	}
	synthesized := env.ttsCalls.Load()
	if synthesized != 11 {
		t.Fatalf("tts calls = %d, want one per section (11)", synthesized)
	}

	out, _, err = runCLI(t, []string{"run", "--date", "2025-03-02", "--source-text", env.textPath, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	var second runJSON
	decodeJSON(t, out, &second)
	if second.Changed {
		t.Fatalf("second run should skip every stage: %+v", second)
	}
	if env.llmCalls.Load() != 1 || env.ttsCalls.Load() != synthesized {
		t.Fatal("second run must not call providers")
	}

	out, _, err = runCLI(t, []string{"status", "--date", "2025-03-02", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status statusJSON
	decodeJSON(t, out, &status)
	if !status.Exists || !status.Complete || len(status.Sections) != 11 {
		t.Fatalf("unexpected status: %+v", status)
	}
	for _, s := range status.Sections {
		if s.Audio == "" {
			t.Fatalf("section %s has no audio", s.ID)
		}
	}

	out, _, err = runCLI(t, []string{"history", "--date", "2025-03-02", "--limit", "0", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var entries []history.Entry
	decodeJSON(t, out, &entries)
	if len(entries) != 8 {
		t.Fatalf("history entries = %d, want 8", len(entries))
	}
	if entries[0].Status != history.StatusSkipped {
		t.Fatalf("newest entry should be a skip, got %s", entries[0].Status)
	}

	out, _, err = runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, out, "Charon")
	requireContains(t, out, "Kore")
}

func TestRunTextOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"run", "-d", "2025-03-02", "--source-text", env.textPath}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "synthesize_audio")
	requireContains(t, out, "manifest-2025-03-02.json")
}

func TestRunRejectsInvalidDate(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"run", "--date", "2025-02-30", "--source-text", env.textPath}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunFileProviderNeedsSourceText(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"run", "--date", "2025-03-02"}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestStatusBeforeRun(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"status", "--date", "2025-03-02"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "not built yet")
	requireContains(t, out, "extract_base")
}

func TestExtractCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"extract", env.textPath, "--json"}, "")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	var result extractJSON
	decodeJSON(t, out, &result)
	if len(result.Sections) != 4 {
		t.Fatalf("sections = %+v, want 4", result.Sections)
	}
	if result.Sections[3].ID != "gospel" {
		t.Fatalf("last section = %s, want gospel", result.Sections[3].ID)
	}
}

func TestDoctorPasses(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "all")
	requireContains(t, out, "Prayer templates")
}

func TestPublishDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"publish", "--date", "2025-03-02"}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
