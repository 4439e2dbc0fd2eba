package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"misa/internal/fileutil"
	"misa/internal/logging"
	"misa/internal/manifest"
	"misa/internal/retry"
	"misa/internal/services"
)

const pdfMagic = "%PDF"

// Executor abstracts command execution for testability.
type Executor interface {
	Output(ctx context.Context, binary string, args ...string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Output(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// PDFConfig configures PDFProvider.
type PDFConfig struct {
	URLTemplate     string
	UserAgent       string
	RawDir          string
	PDFToTextBinary string
	Timeout         time.Duration
}

// PDFProvider downloads the daily PDF and converts it to text.
type PDFProvider struct {
	cfg        PDFConfig
	httpClient *http.Client
	exec       Executor
	policy     retry.Policy
	sleeper    func(time.Duration)
	logger     *slog.Logger
}

// PDFOption customizes the provider.
type PDFOption func(*PDFProvider)

// WithHTTPClient overrides the download client.
func WithHTTPClient(client *http.Client) PDFOption {
	return func(p *PDFProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) PDFOption {
	return func(p *PDFProvider) {
		if exec != nil {
			p.exec = exec
		}
	}
}

// WithSleeper overrides download retry waits (tests).
func WithSleeper(sleeper func(time.Duration)) PDFOption {
	return func(p *PDFProvider) {
		p.sleeper = sleeper
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) PDFOption {
	return func(p *PDFProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPDFProvider constructs a provider.
func NewPDFProvider(cfg PDFConfig, opts ...PDFOption) *PDFProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.PDFToTextBinary == "" {
		cfg.PDFToTextBinary = "pdftotext"
	}
	p := &PDFProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		exec:       commandExecutor{},
		policy:     retry.Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 10 * time.Second},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name identifies the provider in manifests and logs.
func (p *PDFProvider) Name() string { return "pdf" }

// URLFor renders the PDF URL for an ISO date. Day and month are not zero padded.
func URLFor(template, date string) (string, error) {
	t, err := time.Parse(manifest.DateLayout, date)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "source", "render url", fmt.Sprintf("invalid date %q", date), err)
	}
	return strings.NewReplacer(
		"{day}", strconv.Itoa(t.Day()),
		"{month}", strconv.Itoa(int(t.Month())),
		"{year}", strconv.Itoa(t.Year()),
	).Replace(template), nil
}

// RawPath is where the downloaded PDF for date is kept.
func (p *PDFProvider) RawPath(date string) string {
	return filepath.Join(p.cfg.RawDir, "dominicos-"+date+".pdf")
}

// Fetch downloads (or reuses) the day's PDF and extracts its text.
func (p *PDFProvider) Fetch(ctx context.Context, date string) (Document, error) {
	key, err := manifest.ParseDate(date)
	if err != nil {
		return Document{}, err
	}
	url, err := URLFor(p.cfg.URLTemplate, key)
	if err != nil {
		return Document{}, err
	}
	rawPath := p.RawPath(key)
	logger := p.logger.With(logging.String(logging.FieldDate, key))

	if isPDF(rawPath) {
		logger.Debug("reusing downloaded pdf", logging.String("path", rawPath))
	} else {
		if err := p.download(ctx, url, rawPath); err != nil {
			return Document{}, err
		}
		logger.Info("pdf downloaded",
			logging.String(logging.FieldEventType, "source_downloaded"),
			logging.String("url", url),
			logging.String("path", rawPath),
		)
	}

	out, err := p.exec.Output(ctx, p.cfg.PDFToTextBinary, "-enc", "UTF-8", rawPath, "-")
	if err != nil {
		return Document{}, services.Wrap(services.ErrExternalTool, "source", "pdftotext", rawPath, err)
	}
	// pdftotext separates pages with form feeds.
	text := strings.ReplaceAll(string(out), "\f", "\n")
	if strings.TrimSpace(text) == "" {
		return Document{}, services.Wrap(services.ErrValidation, "source", "pdftotext", "extracted text is empty", nil)
	}
	return Document{Date: key, URL: url, Text: text, RawPath: rawPath}, nil
}

type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: http %d", e.url, e.code)
}

func (e *statusError) HTTPStatus() int { return e.code }

func (p *PDFProvider) download(ctx context.Context, url, dest string) error {
	var opts []retry.Option
	if p.sleeper != nil {
		opts = append(opts, retry.WithSleeper(p.sleeper))
	}
	body, err := retry.Do(ctx, p.policy, nil, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		if p.cfg.UserAgent != "" {
			req.Header.Set("User-Agent", p.cfg.UserAgent)
		}
		resp, err := p.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, &statusError{code: resp.StatusCode, url: url}
		}
		return io.ReadAll(resp.Body)
	}, opts...)
	if err != nil {
		var status *statusError
		if errors.As(err, &status) && status.code == http.StatusNotFound {
			return services.Wrap(services.ErrNotFound, "source", "download", "no readings published for this date", err)
		}
		return services.Wrap(services.ErrExternalTool, "source", "download", url, err)
	}
	if !bytes.HasPrefix(body, []byte(pdfMagic)) {
		return services.Wrap(services.ErrValidation, "source", "download", "response is not a PDF", nil)
	}
	if err := fileutil.WriteFileAtomic(dest, body, 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, "source", "save pdf", dest, err)
	}
	return nil
}

func isPDF(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return string(head) == pdfMagic
}
