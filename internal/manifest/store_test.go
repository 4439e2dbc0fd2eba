package manifest

import (
	"os"
	"reflect"
	"strings"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	doc, err := BuildFromExtraction("2025-12-14", "https://example.org/a?b=1&c=<2>", map[SectionID]string{Gospel: "Palabra del Señor"}, BuildOptions{Language: "es-CO"})
	if err != nil {
		t.Fatal(err)
	}

	if store.Exists(doc.Date) {
		t.Fatal("manifest should not exist yet")
	}
	if err := store.Save(doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !store.Exists(doc.Date) {
		t.Fatal("manifest should exist after save")
	}

	raw, err := os.ReadFile(store.Path(doc.Date))
	if err != nil {
		t.Fatal(err)
	}
	text := string(raw)
	if !strings.Contains(text, "Señor") || !strings.Contains(text, "&c=<2>") {
		t.Fatalf("expected unescaped UTF-8 output, got %s", text)
	}
	if !strings.Contains(text, "\n  \"date\": \"2025-12-14\"") {
		t.Fatalf("expected indented JSON, got %s", text)
	}

	loaded, err := store.Load(doc.Date)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(loaded, doc) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", loaded, doc)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())
	doc, err := store.Load("2025-01-01")
	if err != nil || doc != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", doc, err)
	}
	if _, err := store.Load("../etc/passwd"); err == nil {
		t.Fatal("expected invalid date to be rejected")
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	for _, date := range []string{"2025-12-14", "2025-01-02"} {
		doc, _ := BuildFromExtraction(date, "src", map[SectionID]string{Gospel: "g"}, BuildOptions{})
		if err := store.Save(doc); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(dir+"/manifest-latest.json", []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	dates, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(dates, []string{"2025-01-02", "2025-12-14"}) {
		t.Fatalf("unexpected dates %v", dates)
	}
}
