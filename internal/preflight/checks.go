package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/text/language"

	"misa/internal/config"
	"misa/internal/deps"
	"misa/internal/prayers"
	"misa/internal/services/llm"
)

// CheckLLM verifies that the enrichment API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.Enrichment) Result {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckTemplates loads the prayer template file and confirms the required
// prayers are present.
func CheckTemplates(path string) Result {
	const name = "Prayer templates"

	set, err := prayers.LoadTemplates(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	var missing []string
	for _, id := range prayers.RequiredIDs {
		if _, ok := set.Templates[id]; !ok {
			missing = append(missing, string(id))
		}
	}
	if len(missing) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (missing: %s)", path, strings.Join(missing, ", "))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d templates)", path, len(set.Templates))}
}

// CheckLocale verifies the manifest language is a well-formed BCP 47 tag.
func CheckLocale(tag string) Result {
	const name = "Manifest language"

	parsed, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%q (error: %v)", tag, err)}
	}
	base, _ := parsed.Base()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (base %s)", parsed, base)}
}

// CheckCredential reports whether a secret is configured without revealing it.
func CheckCredential(name, value string) Result {
	value = strings.TrimSpace(value)
	if value == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	return Result{Name: name, Passed: true, Detail: "configured (" + mask(value) + ")"}
}

// CheckPublish verifies the bucket and the optional credentials file.
func CheckPublish(cfg config.Publish) Result {
	const name = "Publish"

	if strings.TrimSpace(cfg.Bucket) == "" {
		return Result{Name: name, Detail: "bucket not configured"}
	}
	if path := strings.TrimSpace(cfg.CredentialsFile); path != "" {
		if err := unix.Access(path, unix.R_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("credentials %s unreadable: %v", path, err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("gs://%s (credentials file)", cfg.Bucket)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("gs://%s (application default credentials)", cfg.Bucket)}
}

// CheckSystemDeps evaluates the external binaries required by the configured
// source provider.
func CheckSystemDeps(cfg *config.Config) []Result {
	var requirements []deps.Requirement
	if cfg.Source.Provider == "pdf" {
		requirements = append(requirements, deps.Requirement{
			Name:        "pdftotext",
			Command:     cfg.Source.PDFToTextBinary,
			Description: "Required for extracting text from the daily PDF",
		})
	}
	statuses := deps.CheckBinaries(requirements)
	results := make([]Result, 0, len(statuses))
	for _, s := range statuses {
		r := Result{Name: s.Name, Passed: s.Available || s.Optional}
		if s.Available {
			r.Detail = s.Command
		} else {
			r.Detail = s.Detail
		}
		results = append(results, r)
	}
	return results
}

func mask(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
