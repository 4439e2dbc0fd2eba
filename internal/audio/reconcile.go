package audio

import (
	"fmt"

	"misa/internal/manifest"
)

// ArtifactReady reports whether both files behind ref exist and hold valid WAV data.
func ArtifactReady(ref *manifest.AudioRef) bool {
	if ref == nil || ref.AudioHash == "" || ref.Path == "" || ref.CachePath == "" {
		return false
	}
	return ValidWAV(ref.CachePath) && ValidWAV(ref.Path)
}

// Reconcile clears audio references whose artifacts are missing or damaged so
// the audio stage sees them as work to do. It reports whether doc changed.
func Reconcile(doc *manifest.Document) bool {
	changed := false
	for i := range doc.Sections {
		ref := doc.Sections[i].Audio
		if ref == nil {
			continue
		}
		if !ArtifactReady(ref) {
			doc.Sections[i].Audio = nil
			changed = true
		}
	}
	return changed
}

// Ready reports whether every section with text carries a reference that
// matches the engine's current configuration and points at valid files.
func (e *Engine) Ready(doc *manifest.Document) (bool, string) {
	targets, _ := e.plan(doc)
	for _, t := range targets {
		ref := t.existing
		switch {
		case ref == nil:
			return false, fmt.Sprintf("section %s has no audio", t.id)
		case ref.AudioHash != t.hash:
			return false, fmt.Sprintf("section %s audio is stale", t.id)
		case !ArtifactReady(ref):
			return false, fmt.Sprintf("section %s audio artifact missing", t.id)
		}
	}
	return true, "all sections have audio"
}
