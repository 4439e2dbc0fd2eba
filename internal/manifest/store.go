package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"misa/internal/fileutil"
)

const (
	filePrefix = "manifest-"
	fileSuffix = ".json"
)

// Store reads and writes manifests under a directory, one file per date.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file path for date.
func (s *Store) Path(date string) string {
	return filepath.Join(s.dir, filePrefix+date+fileSuffix)
}

// Exists reports whether a manifest is persisted for date.
func (s *Store) Exists(date string) bool {
	return fileutil.Exists(s.Path(date))
}

// Load reads the manifest for date. A missing file returns (nil, nil).
func (s *Store) Load(date string) (*Document, error) {
	key, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", s.Path(key), err)
	}
	return &doc, nil
}

// Save writes doc atomically as indented JSON without HTML escaping.
func (s *Store) Save(doc *Document) error {
	if doc == nil {
		return errors.New("save manifest: nil document")
	}
	key, err := ParseDate(doc.Date)
	if err != nil {
		return err
	}
	return fileutil.WriteAtomic(s.Path(key), 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode manifest: %w", err)
		}
		return nil
	})
}

// List returns the dates with a persisted manifest, oldest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list manifests: %w", err)
	}
	var dates []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		date := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		if _, err := ParseDate(date); err != nil {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}
