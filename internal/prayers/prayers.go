package prayers

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"misa/internal/fileutil"
	"misa/internal/manifest"
	"misa/internal/services"
)

//go:embed prayers_es.json
var defaultTemplates []byte

// RequiredIDs are the templates every manifest must carry.
var RequiredIDs = []manifest.SectionID{manifest.Confiteor, manifest.Creed, manifest.LordsPrayer}

// Template is one static prayer.
type Template struct {
	ID    manifest.SectionID `json:"id" yaml:"id"`
	Type  string             `json:"type" yaml:"type"`
	Title string             `json:"title" yaml:"title"`
	Text  string             `json:"text" yaml:"text"`
}

type templateFile struct {
	Templates []Template `json:"templates" yaml:"templates"`
}

// Set is a loaded template collection keyed by id.
type Set struct {
	Source    string
	Templates map[manifest.SectionID]Template
}

// LoadTemplates reads a template file. The format follows the extension:
// .yaml/.yml are YAML, everything else JSON.
func LoadTemplates(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Set{}, services.Wrap(services.ErrConfiguration, "prayers", "load templates",
				fmt.Sprintf("template file %s not found (create it with 'misa config init')", path), err)
		}
		return Set{}, services.Wrap(services.ErrConfiguration, "prayers", "load templates", "read template file", err)
	}
	set, err := Parse(data, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return Set{}, err
	}
	set.Source = filepath.ToSlash(path)
	return set, nil
}

// Parse decodes template data in the format named by ext.
func Parse(data []byte, ext string) (Set, error) {
	var file templateFile
	var err error
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		err = json.Unmarshal(data, &file)
	}
	if err != nil {
		return Set{}, services.Wrap(services.ErrConfiguration, "prayers", "parse templates", "decode template file", err)
	}
	set := Set{Templates: make(map[manifest.SectionID]Template, len(file.Templates))}
	for _, tpl := range file.Templates {
		tpl.ID = manifest.SectionID(strings.TrimSpace(string(tpl.ID)))
		if tpl.ID == "" {
			continue
		}
		set.Templates[tpl.ID] = tpl
	}
	return set, nil
}

// Default returns the embedded Spanish templates.
func Default() Set {
	set, err := Parse(defaultTemplates, ".json")
	if err != nil {
		panic(fmt.Sprintf("embedded prayer templates are invalid: %v", err))
	}
	set.Source = "embedded:prayers_es.json"
	return set
}

// WriteDefault writes the embedded templates to path unless a file already exists.
func WriteDefault(path string) (bool, error) {
	if fileutil.Exists(path) {
		return false, nil
	}
	if err := fileutil.WriteFileAtomic(path, defaultTemplates, 0o644); err != nil {
		return false, fmt.Errorf("write prayer templates: %w", err)
	}
	return true, nil
}

// Inject upserts the required prayers into doc and records template provenance.
func Inject(doc *manifest.Document, set Set) error {
	sections := make([]manifest.Section, 0, len(RequiredIDs))
	for _, id := range RequiredIDs {
		tpl, ok := set.Templates[id]
		if !ok || strings.TrimSpace(tpl.Text) == "" {
			return services.Wrap(services.ErrConfiguration, "prayers", "inject",
				fmt.Sprintf("required template %q missing from %s", id, set.Source), nil)
		}
		kind := tpl.Type
		if strings.TrimSpace(kind) == "" {
			kind = manifest.TypePrayer
		}
		sections = append(sections, manifest.NewSection(id, kind, tpl.Title, "template:"+string(id), tpl.Text))
	}
	manifest.Upsert(doc, sections...)
	doc.Templates = &manifest.TemplatesMeta{
		Source:      set.Source,
		IncludedIDs: append([]manifest.SectionID(nil), RequiredIDs...),
	}
	return nil
}

// Ready reports whether every required prayer is present with text.
func Ready(doc *manifest.Document) (bool, string) {
	for _, id := range RequiredIDs {
		if !doc.HasText(id) {
			return false, fmt.Sprintf("missing prayer %s", id)
		}
	}
	return true, "all prayers present"
}
