package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"misa/internal/manifest"
	"misa/internal/services"
)

// Document is the fetched text for one date.
type Document struct {
	Date    string
	URL     string
	Text    string
	RawPath string
}

// Provider retrieves the readings text for an ISO date.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, date string) (Document, error)
}

// FileProvider serves pre-extracted text from a local file.
type FileProvider struct {
	Path string
	// URL is recorded as the section source; defaults to a file: URL.
	URL string
}

// Name identifies the provider in manifests and logs.
func (p FileProvider) Name() string { return "file" }

// Fetch reads the configured file.
func (p FileProvider) Fetch(_ context.Context, date string) (Document, error) {
	key, err := manifest.ParseDate(date)
	if err != nil {
		return Document{}, err
	}
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Document{}, services.Wrap(services.ErrNotFound, "source", "read text", p.Path, err)
		}
		return Document{}, services.Wrap(services.ErrExternalTool, "source", "read text", p.Path, err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return Document{}, services.Wrap(services.ErrValidation, "source", "read text", fmt.Sprintf("%s is empty", p.Path), nil)
	}
	url := p.URL
	if url == "" {
		url = "file:" + p.Path
	}
	return Document{Date: key, URL: url, Text: text, RawPath: p.Path}, nil
}
